package tui

import (
	"fmt"
	"strings"
	"time"

	"agentdeck/internal/prefs"
)

// StatusBarModel manages the bottom status bar
type StatusBarModel struct {
	Connected        bool
	Reconnecting     bool
	Attempt          int
	GatewayURL       string
	Model            string
	SSHUser          string // set for SSH sessions
	Width            int
	Styles           Styles
	LastResponseTime time.Duration
	SessionState     string
	SessionCost      float64 // reported by the gateway
	Theme            prefs.Theme
}

// NewStatusBarModel creates a new status bar
func NewStatusBarModel(styles Styles) StatusBarModel {
	return StatusBarModel{
		Styles: styles,
	}
}

// View renders the status bar
func (s StatusBarModel) View() string {
	var parts []string

	switch {
	case s.Connected:
		parts = append(parts, s.Styles.StatusConnected.Render("* connected"))
	case s.Reconnecting:
		parts = append(parts, s.Styles.StatusReconnecting.Render(fmt.Sprintf("~ reconnecting (%d)", s.Attempt)))
	default:
		parts = append(parts, s.Styles.StatusDisconnected.Render("x disconnected"))
	}

	if s.GatewayURL != "" {
		url := strings.TrimPrefix(strings.TrimPrefix(s.GatewayURL, "ws://"), "wss://")
		if len(url) > 25 {
			url = url[:22] + "..."
		}
		parts = append(parts, s.Styles.Muted.Render(url))
	}

	if s.Model != "" {
		parts = append(parts, s.Styles.Accent.Render(s.Model))
	}

	if s.SessionState != "" && s.SessionState != "idle" {
		parts = append(parts, s.Styles.Accent.Render(s.SessionState))
	}

	if s.LastResponseTime > 0 {
		parts = append(parts, s.Styles.Muted.Render(formatResponseTime(s.LastResponseTime)))
	}

	if s.SessionCost > 0 {
		parts = append(parts, s.Styles.Muted.Render(fmt.Sprintf("$%.4f", s.SessionCost)))
	}

	if s.SSHUser != "" {
		parts = append(parts, s.Styles.Accent.Render("SSH: "+s.SSHUser))
	}

	if s.Theme != "" {
		parts = append(parts, s.Styles.Muted.Render(string(s.Theme)))
	}

	return s.Styles.StatusBar.Width(s.Width).Render(strings.Join(parts, "  |  "))
}

// formatResponseTime renders a duration as "850ms", "4.2s" or "1m05s".
func formatResponseTime(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%02ds", m, s)
	}
}
