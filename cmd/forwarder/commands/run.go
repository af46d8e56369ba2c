package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"chat-forwarder/internal/server"
)

var (
	runDaemon  bool
	runPidFile string
	runLogFile string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Watches the configured chats until interrupted.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if runDaemon {
			release, child, err := daemonize(runPidFile, runLogFile)
			if err != nil {
				return err
			}
			if !child {
				return nil
			}
			defer func() { _ = release() }()
		}
		return runWatch(cmd.Context())
	},
}

func init() {
	runCmd.Flags().BoolVar(&runDaemon, "daemon", false, "Detach from the terminal and run in the background.")
	runCmd.Flags().StringVar(&runPidFile, "pid-file", "forwarder.pid", "PID file used with --daemon.")
	runCmd.Flags().StringVar(&runLogFile, "log-file", "forwarder.log", "Log file used with --daemon.")
	rootCmd.AddCommand(runCmd)
}

func runWatch(ctx context.Context) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("Failed to release resources", slog.Any("error", err))
		}
	}()

	var srv *server.Server
	if cfg.Server.Enabled {
		srv = server.New(cfg, a.status, logger)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Status server failed", slog.Any("error", err))
			}
		}()
	}

	logger.Info("Forwarder starting",
		slog.Int("chats", len(cfg.Chats)),
		slog.Duration("interval", cfg.Watch.Interval),
		slog.String("sink", cfg.Sink.Kind),
		slog.String("cache", cfg.Cache.Backend),
	)
	runErr := a.runner.Run(ctx)

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Status server shutdown failed", slog.Any("error", err))
		}
	}
	if runErr != nil {
		return fmt.Errorf("watcher stopped: %w", runErr)
	}
	logger.Info("Forwarder stopped")
	return nil
}
