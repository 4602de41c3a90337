package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"agentdeck/internal/prefs"
	"agentdeck/internal/tui"
)

// tuiConfigFile lives in the data directory's config subdirectory
const tuiConfigFile = "tui.json"

var (
	tuiURL   string
	tuiToken string
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive TUI",
	Long: `Launch the terminal UI and connect to the gateway over WebSocket.

The gateway URL and token are saved to tui.json in the data directory the
first time they are given, so later launches need no flags.

Key bindings:
  Enter           Send message
  Alt+Enter       New line
  Esc             Stop the running pipeline
  Ctrl+L          Toggle dark/light theme
  PageUp/PageDown Scroll chat history
  Ctrl+C          Quit`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := dd.EnsureDirs(); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}

		cfg, err := tui.LoadOrCreateConfig(dd.ConfigFilePath(tuiConfigFile), tuiURL, tuiToken)
		if err != nil {
			return err
		}

		// Log lines would corrupt the alternate screen.
		restore, err := redirectLog(dd.LogPath())
		if err != nil {
			return err
		}
		defer restore()

		store, err := prefs.Open(dd.PrefsPath())
		if err != nil {
			log.Printf("[TUI] preferences unavailable, theme changes will not persist: %v", err)
			store = nil
		} else {
			defer store.Close()
		}

		return tui.Run(cfg, store)
	},
}

func init() {
	// The root command runs the TUI too, so it takes the same flags.
	for _, c := range []*cobra.Command{tuiCmd, rootCmd} {
		c.Flags().StringVar(&tuiURL, "url", "", "Gateway WebSocket URL (default: saved value or "+tui.DefaultGatewayURL+")")
		c.Flags().StringVar(&tuiToken, "token", "", "Authentication token (saved for later launches)")
	}
}

// redirectLog sends the standard logger to the file at path until the
// returned function is called.
func redirectLog(path string) (func(), error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	prev := log.Writer()
	log.SetOutput(f)
	return func() {
		log.SetOutput(prev)
		f.Close()
	}, nil
}
