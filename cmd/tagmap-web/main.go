package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
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
	"tagmap/internal/web"
)

var (
	configPath string
	listenAddr string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:           "tagmap-web",
	Short:         "HTTP service for reading and writing audio tags",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfigFile(configPath)
		if err != nil {
			return fmt.Errorf("config error: %w", err)
		}
		if cmd.Flags().Changed("addr") {
			cfg.ListenAddr = listenAddr
		}
		if cmd.Flags().Changed("verbose") {
			cfg.Verbose = verbose
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("config error: %w", err)
		}
		return serve(cfg)
	},
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "config file path")
	rootCmd.Flags().StringVar(&listenAddr, "addr", "", "HTTP listen address (default from config)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable detailed logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
		os.Exit(1)
	}
}

func serve(cfg config.Config) error {
	// Setup logger with file logging
	l := logger.New(cfg.Verbose)
	if err := os.MkdirAll(cfg.LogDir, 0755); err == nil {
		logPath := filepath.Join(cfg.LogDir, fmt.Sprintf("tagmap-web-%d.log", time.Now().Unix()))
		if err := l.SetFileLog(logPath); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Failed to setup file logging: %v\n", err)
		}
	}
	defer l.Close()

	sh := shutdown.New()
	sh.Listen()

	svc := tagio.New(
		tagio.WithLogger(l),
		tagio.WithGuard(sh),
		tagio.WithTagOptions(
			audiotags.WithSniffer(sniff.Default),
			audiotags.WithDefaultMime(cfg.DefaultMime()),
		),
	)

	jobMgr := web.NewJobManager()
	jobMgr.StartCleanup(sh.Context())
	server := web.NewServer(sh.Context(), jobMgr, cfg, l, svc)

	// Uploads and batch runs can be slow, so there is no write timeout.
	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		l.Info("Starting web server on %s", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		sh.Shutdown()
		return fmt.Errorf("server error: %w", err)
	case <-sh.Context().Done():
	}

	l.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		l.Error("Server shutdown error: %v", err)
	}
	// Shutdown returns once handlers are done; writes still in flight in
	// batch jobs are waited for here.
	sh.Shutdown()

	l.Info("Server stopped")
	return nil
}
