// Package commands содержит команды CLI chat-forwarder.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	applog "chat-forwarder/internal/log"
	"chat-forwarder/internal/pkg/config"
)

var (
	configPath string
	legacyPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "forwarder",
	Short:         "forwarder watches web chat pages and forwards new messages to Telegram.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigFile, "Path to the YAML config file.")
	rootCmd.PersistentFlags().StringVar(&legacyPath, "legacy-config", config.DefaultLegacyFile, "Path to the flat JSON config of older installs.")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Overrides logging.level (debug, info, warn, error).")
}

// ExecuteContext запускает CLI и возвращает код выхода.
func ExecuteContext(ctx context.Context) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// loadConfig загружает и проверяет конфигурацию, затем настраивает логгер.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadConfig(configPath, legacyPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, newLogger(cfg), nil
}

// newLogger создает логгер по конфигурации и делает его логгером по умолчанию.
func newLogger(cfg *config.Config) *slog.Logger {
	logger := applog.New(os.Stdout, cfg.Logging.Level, cfg.Logging.Format, cfg.Secrets()...)
	slog.SetDefault(logger)
	return logger
}
