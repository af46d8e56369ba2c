package commands

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"chat-forwarder/internal/adapters/htmldom"
	"chat-forwarder/internal/core/services"
	"chat-forwarder/internal/domain"
	applog "chat-forwarder/internal/log"
	"chat-forwarder/internal/pkg/config"
)

var classifyGroup bool

var classifyCmd = &cobra.Command{
	Use:   "classify <page.html>",
	Short: "Classifies messages of a saved chat page without sending anything.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(configPath, legacyPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}
		logger := newLogger(cfg)

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open page: %w", err)
		}
		defer f.Close()

		doc, err := htmldom.Parse(f)
		if err != nil {
			return fmt.Errorf("failed to parse page: %w", err)
		}

		opts := classifierOptions(cfg)
		classifier := services.NewClassifierService(opts, logger)
		messages, err := classifier.Classify(cmd.Context(), doc.Items(opts.Selectors.Item), classifyGroup)
		if err != nil {
			return fmt.Errorf("failed to classify page: %w", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(cmd.OutOrStdout())
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{"#", "Kind", "Sender", "Text", "Fingerprint"})
		for i, m := range messages {
			var sender, text string
			switch msg := m.(type) {
			case domain.SystemMessage:
				text = msg.Text
			case domain.MediaMessage:
				sender = msg.SenderHint
			case domain.TextMessage:
				sender, text = msg.Sender, msg.Text
			}
			t.AppendRow(table.Row{i + 1, m.Kind(), sender, applog.Preview(text, 60), string(m.ID())[:12]})
		}
		t.AppendFooter(table.Row{"", "Total", len(messages)})
		t.Render()
		return nil
	},
}

func init() {
	classifyCmd.Flags().BoolVar(&classifyGroup, "group", false, "Treat the page as a group chat.")
	rootCmd.AddCommand(classifyCmd)
}
