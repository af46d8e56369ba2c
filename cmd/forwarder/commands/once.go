package commands

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Runs a single evaluation cycle over all chats and prints the results.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		a, err := buildApp(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := a.Close(); err != nil {
				logger.Error("Failed to release resources", slog.Any("error", err))
			}
		}()

		renderReports(cmd.OutOrStdout(), a.runner.RunOnce(cmd.Context()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(onceCmd)
}
