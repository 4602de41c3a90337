package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"agentdeck/internal/prefs"
)

// Run starts the local TUI client. store may be nil, in which case the
// dark theme is used and toggles are not persisted.
func Run(config *TUIConfig, store *prefs.Store) error {
	client := NewWSClient(config.GatewayURL, config.Token, config.UserID)

	mc := ModelConfig{
		Client:        client,
		UserID:        config.UserID,
		GatewayURL:    config.GatewayURL,
		AssistantName: config.AssistantName,
		Theme:         prefs.ThemeDark,
	}
	if store != nil {
		theme, err := store.Theme()
		if err != nil {
			return fmt.Errorf("failed to load theme: %w", err)
		}
		mc.Theme = theme
		mc.ThemeSaver = store
	}

	p := tea.NewProgram(
		NewModel(mc),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	if m, ok := finalModel.(Model); ok {
		if m.client != nil {
			m.client.Close()
		}
	}

	return nil
}
