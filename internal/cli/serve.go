package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/d41928/shellherd/internal/api"
	"github.com/d41928/shellherd/internal/config"
	"github.com/d41928/shellherd/internal/logpipe"
	"github.com/d41928/shellherd/internal/pidfile"
	"github.com/d41928/shellherd/internal/supervisor"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the supervisor API server",
		Long: `Run the HTTP API server in the foreground.

The server supervises at most one shell command at a time. SIGINT or
SIGTERM shuts it down gracefully, killing any still-running child.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runServe(cfg)
		},
	}
}

// loadConfig resolves the effective configuration: defaults, then the
// config file, then environment variables, then command-line flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if globalOpts.Host != "" {
		cfg.Host = globalOpts.Host
	}
	if globalOpts.Port != 0 {
		cfg.Port = globalOpts.Port
	}
	if globalOpts.LogDir != "" {
		cfg.LogDir = globalOpts.LogDir
	}
	return cfg, nil
}

func runServe(cfg *config.Config) error {
	if pidfile.IsRunning(cfg.LogDir) {
		return fmt.Errorf("server already running (pid=%d)", pidfile.RunningPID(cfg.LogDir))
	}

	logger := log.New(os.Stdout, "", log.LstdFlags)

	sup := supervisor.New(cfg.GracePeriod)
	logs := logpipe.New(cfg.LogDir, logger)
	server := api.NewServer(sup, logs, cfg, logger)

	if err := os.MkdirAll(cfg.LogDir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	if err := pidfile.Write(cfg.LogDir); err != nil {
		return err
	}
	defer pidfile.Remove(cfg.LogDir)

	httpServer := &http.Server{
		Addr:    cfg.Addr(),
		Handler: server.Routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("listening on %s (pid=%d)", cfg.Addr(), os.Getpid())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		server.Shutdown()
		return err
	case sig := <-sigCh:
		logger.Printf("received signal %v, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Printf("http shutdown: %v", err)
	}

	// Kill any supervised child and flush its log before exiting.
	server.Shutdown()
	return nil
}
