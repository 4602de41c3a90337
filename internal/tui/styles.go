package tui

import (
	"github.com/charmbracelet/lipgloss"

	"agentdeck/internal/prefs"
)

// Styles holds all the TUI styling definitions
type Styles struct {
	// Chat bubbles
	UserBubble      lipgloss.Style
	AssistantBubble lipgloss.Style
	SystemBubble    lipgloss.Style
	UserLabel       lipgloss.Style
	AssistantLabel  lipgloss.Style
	Divider         lipgloss.Style

	// Pipeline panel
	PipelineBorder    lipgloss.Style
	PipelineTitle     lipgloss.Style
	PipelineRunning   lipgloss.Style
	PipelineCompleted lipgloss.Style
	PipelineMessage   lipgloss.Style

	// Status bar
	StatusBar          lipgloss.Style
	StatusConnected    lipgloss.Style
	StatusDisconnected lipgloss.Style
	StatusReconnecting lipgloss.Style

	// Input
	InputStyle lipgloss.Style

	// Thinking indicator (KITT scanner)
	ThinkingBar   lipgloss.Style
	ThinkingTrack lipgloss.Style

	// General
	Muted  lipgloss.Style
	Accent lipgloss.Style
	Cursor lipgloss.Style
}

// palette is the set of colors a theme assigns to the style roles.
type palette struct {
	text, muted, faint, border   lipgloss.Color
	user, assistant, accent      lipgloss.Color
	ok, warn, bad                lipgloss.Color
	statusBg, statusFg, cursorFg lipgloss.Color
}

var palettes = map[prefs.Theme]palette{
	prefs.ThemeDark: {
		text: "252", muted: "245", faint: "244", border: "238",
		user: "75", assistant: "213", accent: "213",
		ok: "76", warn: "214", bad: "196",
		statusBg: "235", statusFg: "252", cursorFg: "15",
	},
	prefs.ThemeLight: {
		text: "236", muted: "242", faint: "243", border: "250",
		user: "25", assistant: "127", accent: "127",
		ok: "28", warn: "130", bad: "160",
		statusBg: "254", statusFg: "236", cursorFg: "0",
	},
}

// DefaultStyles creates the dark style set using the default renderer.
func DefaultStyles() Styles {
	return NewStyles(lipgloss.DefaultRenderer(), prefs.ThemeDark)
}

// NewStyles creates the style set for theme using the given renderer.
// Over SSH, pass the renderer from wishbubbletea.MakeRenderer(sess)
// so that styles emit ANSI colors appropriate for the SSH client's terminal.
func NewStyles(r *lipgloss.Renderer, theme prefs.Theme) Styles {
	p, ok := palettes[theme]
	if !ok {
		p = palettes[prefs.ThemeDark]
	}

	return Styles{
		UserBubble: r.NewStyle().
			Foreground(p.user).
			Padding(0, 1).
			MarginLeft(4),
		AssistantBubble: r.NewStyle().
			Foreground(p.text).
			Padding(0, 1).
			MarginRight(4),
		SystemBubble: r.NewStyle().
			Foreground(p.faint).
			Italic(true).
			Padding(0, 1),
		UserLabel: r.NewStyle().
			Foreground(p.user).
			Bold(true),
		AssistantLabel: r.NewStyle().
			Foreground(p.assistant).
			Bold(true),
		Divider: r.NewStyle().
			Foreground(p.border),

		PipelineBorder: r.NewStyle().
			BorderLeft(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(p.border).
			Padding(0, 1),
		PipelineTitle: r.NewStyle().
			Bold(true).
			Foreground(p.accent).
			MarginBottom(1),
		PipelineRunning: r.NewStyle().
			Foreground(p.warn).
			Bold(true),
		PipelineCompleted: r.NewStyle().
			Foreground(p.ok),
		PipelineMessage: r.NewStyle().
			Foreground(p.muted),

		StatusBar: r.NewStyle().
			Background(p.statusBg).
			Foreground(p.statusFg).
			Padding(0, 1),
		StatusConnected: r.NewStyle().
			Foreground(p.ok).
			Bold(true),
		StatusDisconnected: r.NewStyle().
			Foreground(p.bad).
			Bold(true),
		StatusReconnecting: r.NewStyle().
			Foreground(p.warn).
			Bold(true),

		InputStyle: r.NewStyle().
			BorderTop(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(p.border),

		ThinkingBar: r.NewStyle().
			Foreground(p.accent).
			Bold(true),
		ThinkingTrack: r.NewStyle().
			Foreground(p.border),

		Muted: r.NewStyle().
			Foreground(p.muted),
		Accent: r.NewStyle().
			Foreground(p.accent),
		Cursor: r.NewStyle().
			Foreground(p.cursorFg),
	}
}
