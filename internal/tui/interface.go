package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"agentdeck/internal/prefs"
)

// GatewayClient abstracts the connection between the TUI and the gateway.
// WSClient implements this over WebSocket.
type GatewayClient interface {
	ConnectCmd() tea.Cmd
	ListenCmd() tea.Cmd
	ReconnectCmd(attempt int) tea.Cmd
	IsConnected() bool
	Close()
	SendChatWithID(sessionKey, text, requestID string) error
	SendCommand(sessionKey, command, args, requestID string) error
}

// ThemeSaver persists the theme when the user toggles it.
// *prefs.Store implements it.
type ThemeSaver interface {
	SetTheme(theme prefs.Theme) error
}
