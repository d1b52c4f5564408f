package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tagmap/internal/config"
)

var readFormat string

var readCmd = &cobra.Command{
	Use:   "read <file>",
	Short: "print the tags of an audio file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tags, err := svc.ReadTags(args[0])
		if err != nil {
			return err
		}
		return encode(cmd, readFormat, newTagsView(tags))
	},
}

var writeFlags tagFlags

var writeCmd = &cobra.Command{
	Use:   "write <file>",
	Short: "write tags to an audio file; fields not given are left untouched",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tags, err := writeFlags.build(cmd)
		if err != nil {
			return err
		}
		if tags.IsEmpty() {
			return fmt.Errorf("nothing to write, pass at least one tag flag or --from")
		}
		if err := svc.WriteTags(args[0], tags); err != nil {
			return err
		}
		log.Info("Tags written to %s", args[0])
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear <file>",
	Short: "remove all tags from an audio file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := svc.ClearTags(args[0]); err != nil {
			return err
		}
		log.Info("Tags cleared from %s", args[0])
		return nil
	},
}

var coverCmd = &cobra.Command{
	Use:   "cover",
	Short: "read or replace the front cover image",
}

var coverOut string

var coverGetCmd = &cobra.Command{
	Use:   "get <file>",
	Short: "extract the front cover image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		img, err := svc.ReadCoverImageFromFile(args[0])
		if err != nil {
			return err
		}
		if img == nil {
			return fmt.Errorf("no cover image in %s", args[0])
		}
		if coverOut == "" {
			_, err := cmd.OutOrStdout().Write(img)
			return err
		}
		if err := os.WriteFile(coverOut, img, 0644); err != nil {
			return fmt.Errorf("failed to write cover: %w", err)
		}
		log.Info("Cover written to %s", coverOut)
		return nil
	},
}

var coverSetCmd = &cobra.Command{
	Use:   "set <file> <image>",
	Short: "replace the front cover image, keeping other pictures",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		img, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("failed to read image: %w", err)
		}
		if err := svc.WriteCoverImageToFile(args[0], img); err != nil {
			return err
		}
		log.Info("Cover set on %s", args[0])
		return nil
	},
}

var initConfigCmd = &cobra.Command{
	Use:   "init-config",
	Short: "create a config file with default values",
	Args:  cobra.NoArgs,
	// No config or service is needed to write the defaults.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		return initConfigFile(cmd)
	},
}

func init() {
	readCmd.Flags().StringVarP(&readFormat, "format", "f", "yaml", "output format: json or yaml")
	writeFlags.bind(writeCmd)
	coverGetCmd.Flags().StringVarP(&coverOut, "output", "o", "", "output image file (default stdout)")
	coverCmd.AddCommand(coverGetCmd, coverSetCmd)
}

// initConfigFile creates a new config file with default values
func initConfigFile(cmd *cobra.Command) error {
	path := configPath
	if path == "" {
		path = config.GetDefaultConfigPath()
	}
	out := cmd.OutOrStdout()

	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(out, "Config file already exists at: %s\n", path)
		fmt.Fprintln(out, "Delete it first if you want to recreate it.")
		return nil
	}

	if err := config.SaveConfigFile(config.DefaultConfig(), path); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	fmt.Fprintf(out, "Created default config file at: %s\n", path)
	fmt.Fprintln(out, "\nAvailable options:")
	fmt.Fprintln(out, "  parallel_jobs: 1-16 (files processed at once by batch)")
	fmt.Fprintln(out, "  default_mime_type: image/jpeg, image/png, ... (label for unrecognized pictures)")
	fmt.Fprintln(out, "  extensions: audio file extensions picked up by batch")
	fmt.Fprintln(out, "  listen_addr: address of tagmap-web")
	fmt.Fprintln(out, "  log_dir: directory for log files")
	fmt.Fprintln(out, "  verbose: true/false (enable detailed logging)")
	return nil
}
