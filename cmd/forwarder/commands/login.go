package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"chat-forwarder/internal/adapters/browser"
	"chat-forwarder/internal/pkg/config"
	"chat-forwarder/internal/pkg/term"
)

var loginCmd = &cobra.Command{
	Use:   "login [url]",
	Short: "Opens a visible browser to sign in and saves the session state.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Валидация не нужна: для входа чаты и токен еще могут быть не заданы.
		cfg, err := config.LoadConfig(configPath, legacyPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}
		logger := newLogger(cfg)

		t := term.NewTerminal()
		url := cfg.Browser.LoginURL
		if len(args) > 0 {
			url = args[0]
		}
		if url == "" {
			if !t.Interactive() {
				return errors.New("login url is required when stdin is not a terminal")
			}
			if url, err = t.Ask("Login page URL", ""); err != nil {
				return err
			}
			if url == "" {
				return errors.New("login url is empty")
			}
		}

		opts := browserOptions(cfg)
		if err := browser.Login(cmd.Context(), opts, url, func() error {
			return t.WaitForEnter("Sign in using the browser window, then press Enter to save the session")
		}, logger); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Session saved to %s\n", opts.StateFile)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
}
