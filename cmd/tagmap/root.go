package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"tagmap/internal/audiotags"
	"tagmap/internal/config"
	"tagmap/internal/logger"
	"tagmap/internal/shutdown"
	"tagmap/internal/sniff"
	"tagmap/internal/tagio"
)

var (
	configPath string
	verbose    bool

	cfg config.Config
	log *logger.Logger
	sh  *shutdown.Handler
	svc *tagio.Service
)

var rootCmd = &cobra.Command{
	Use:           "tagmap",
	Short:         "Read and write audio file tags through one uniform model",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		teardown()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable detailed logging")

	rootCmd.AddCommand(readCmd, writeCmd, clearCmd, coverCmd, batchCmd, initConfigCmd)
}

// setup loads the configuration and builds the shared logger, shutdown
// handler and tag service. Priority: CLI flags > config file > defaults.
func setup(cmd *cobra.Command) error {
	var err error
	cfg, err = config.LoadConfigFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if f := cmd.Flag("verbose"); f != nil && f.Changed {
		cfg.Verbose = verbose
	}
	if f := cmd.Flag("parallel"); f != nil && f.Changed {
		cfg.ParallelJobs = parallel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	log = logger.New(cfg.Verbose)
	if !cfg.Verbose {
		setupFileLog(cfg.LogDir)
	}
	if configPath == "" {
		configPath = config.FindConfigFile()
	}
	if configPath != "" {
		log.Debug("Loaded configuration from: %s", configPath)
	}

	sh = shutdown.New()
	sh.Listen()

	svc = tagio.New(
		tagio.WithLogger(log),
		tagio.WithGuard(sh),
		tagio.WithTagOptions(
			audiotags.WithSniffer(sniff.Default),
			audiotags.WithDefaultMime(cfg.DefaultMime()),
		),
	)
	return nil
}

func setupFileLog(dir string) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] Failed to create log directory: %v\n", err)
		return
	}
	logFile := filepath.Join(dir, fmt.Sprintf("tagmap_%s.log", time.Now().Format("2006-01-02_15-04-05")))
	if err := log.SetFileLog(logFile); err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] Failed to setup file logging: %v\n", err)
		return
	}
	log.Debug("Logging to file: %s", logFile)
}

// teardown waits for in-flight writes and closes the log file.
func teardown() {
	if sh != nil {
		sh.Shutdown()
	}
	if log != nil {
		log.Close()
	}
}
