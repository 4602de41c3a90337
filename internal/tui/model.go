package tui

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"agentdeck/internal/activity"
	"agentdeck/internal/prefs"
)

const helpText = "Commands:\n\n" +
	"/stop - Stop the running pipeline (also Esc)\n" +
	"/theme [dark|light] - Switch color theme (also Ctrl+L)\n" +
	"/help - Show this message\n" +
	"/quit, /exit - Exit\n\n" +
	"Enter: Send | Alt+Enter: New line | PgUp/PgDn: Scroll | Ctrl+C: Quit"

// ModelConfig holds the configuration for creating a new TUI model
type ModelConfig struct {
	Client        GatewayClient
	UserID        string
	GatewayURL    string
	AssistantName string
	// SessionKey identifies this client's conversation on the gateway.
	// A random key is generated when empty.
	SessionKey string
	// Location is the timezone for rendering timestamps. If nil, times render as-is.
	Location *time.Location
	// Renderer is the Lip Gloss renderer to use for styling. Over SSH, pass the
	// renderer from wishbubbletea.MakeRenderer so colors work correctly. If nil,
	// the default renderer (local terminal) is used.
	Renderer *lipgloss.Renderer
	// Theme is the palette loaded at startup.
	Theme prefs.Theme
	// ThemeSaver, if set, persists theme changes.
	ThemeSaver ThemeSaver
}

// Model is the root BubbleTea model
type Model struct {
	config   ModelConfig
	client   GatewayClient
	renderer *lipgloss.Renderer
	theme    prefs.Theme
	styles   Styles

	chat      ChatViewModel
	pipeline  PipelineModel
	statusBar StatusBarModel
	input     textarea.Model

	// tracker owns the activity history of the current run. It is a
	// pointer so copies of the model made by bubbletea share it.
	tracker  *activity.Tracker
	spinning bool

	sessionKey       string
	width            int
	height           int
	connected        bool
	reconnectAttempt int
	quitting         bool
	lastRequestStart time.Time
}

// NewModel creates the root TUI model
func NewModel(config ModelConfig) Model {
	r := config.Renderer
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	theme := config.Theme
	if theme == "" {
		theme = prefs.ThemeDark
	}
	styles := NewStyles(r, theme)

	ti := textarea.New()
	ti.Placeholder = "Ask the pipeline... (Enter to send, Alt+Enter for new line)"
	ti.ShowLineNumbers = false
	ti.SetHeight(3)
	ti.SetWidth(80)
	ti.CharLimit = 4000
	ti.Focus()

	sessionKey := config.SessionKey
	if sessionKey == "" {
		sessionKey = uuid.NewString()
	}

	chat := NewChatViewModel(styles, config.AssistantName, config.Location)
	chat.UserName = config.UserID

	statusBar := NewStatusBarModel(styles)
	statusBar.GatewayURL = config.GatewayURL
	statusBar.Theme = theme

	return Model{
		config:     config,
		client:     config.Client,
		renderer:   r,
		theme:      theme,
		styles:     styles,
		chat:       chat,
		pipeline:   NewPipelineModel(styles),
		statusBar:  statusBar,
		input:      ti,
		tracker:    activity.NewTracker(),
		sessionKey: sessionKey,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	if m.client == nil {
		return nil
	}
	return m.client.ConnectCmd()
}

// Pipeline returns the consolidated activity of the current run.
func (m Model) Pipeline() activity.View {
	return m.tracker.View()
}

// isCurrentRun reports whether a gateway frame belongs to the run started
// by the last user turn. Frames from earlier turns never reach the history.
func (m *Model) isCurrentRun(requestID string) bool {
	if requestID == "" {
		return m.tracker.StreamOpen()
	}
	return requestID == m.tracker.RunID()
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()

	case tea.KeyMsg:
		cmd, handled := m.handleKeyMsg(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
		if m.quitting {
			return m, tea.Quit
		}
		if handled {
			return m, tea.Batch(cmds...)
		}

	case ConnectedMsg:
		m.connected = true
		m.reconnectAttempt = 0
		m.statusBar.Connected = true
		m.statusBar.Reconnecting = false
		m.chat.AddMessage("system", "Connected to gateway.")

	case DisconnectedMsg:
		m.connected = false
		m.statusBar.Connected = false
		if msg.Err != nil {
			m.chat.AddMessage("system", "Disconnected: "+msg.Err.Error())
		}
		// A dropped connection ends the run as far as the display goes.
		m.finishRun()
		if m.client != nil {
			m.reconnectAttempt++
			m.statusBar.Reconnecting = true
			m.statusBar.Attempt = m.reconnectAttempt
			cmds = append(cmds, m.client.ReconnectCmd(m.reconnectAttempt))
		}

	case StreamStartMsg:
		if m.isCurrentRun(msg.RequestID) && m.tracker.StreamOpen() {
			m.chat.StartStreaming()
			m.setState("processing")
			cmds = append(cmds, thinkingTickCmd())
		}

	case ThinkingTickMsg:
		if m.chat.Streaming && m.chat.StreamBuf.Len() == 0 {
			m.chat.ThinkingTick()
			cmds = append(cmds, thinkingTickCmd())
		}

	case StreamDeltaMsg:
		if m.isCurrentRun(msg.RequestID) && m.chat.Streaming {
			m.chat.AppendDelta(msg.Delta)
		}

	case StreamEndMsg:
		if m.isCurrentRun(msg.RequestID) && m.tracker.StreamOpen() {
			m.chat.EndStreaming(msg.Content)
			if msg.Aborted {
				m.chat.AddMessage("system", "Run stopped.")
			}
			if !m.lastRequestStart.IsZero() {
				m.statusBar.LastResponseTime = time.Since(m.lastRequestStart)
				m.lastRequestStart = time.Time{}
			}
			m.finishRun()
		}
		if msg.Model != "" {
			m.statusBar.Model = msg.Model
		}
		if msg.SessionCost > 0 {
			m.statusBar.SessionCost = msg.SessionCost
		}

	case ActivityMsg:
		if m.isCurrentRun(msg.RequestID) {
			m.tracker.Append(msg.Event)
			view := m.tracker.View()
			if view.Current != nil {
				m.setState("agent: " + view.Current.Agent.String())
				if !m.spinning {
					m.spinning = true
					cmds = append(cmds, m.pipeline.Tick())
				}
			}
			m.updateLayout()
		} else {
			log.Printf("[TUI] ignoring %s activity for stale run %s", msg.Event.Agent, msg.RequestID)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.pipeline, cmd = m.pipeline.Update(msg, m.tracker.View())
		if cmd == nil {
			m.spinning = false
		} else {
			cmds = append(cmds, cmd)
		}

	case GatewayInfoMsg:
		if msg.AssistantName != "" {
			m.chat.SetAssistantName(msg.AssistantName)
		}

	case ErrorMsg:
		errText := "Error: " + msg.Message
		if msg.Code != "" {
			errText = fmt.Sprintf("Error [%s]: %s", msg.Code, msg.Message)
		}
		m.chat.AddMessage("system", errText)
		if m.isCurrentRun(msg.RequestID) {
			m.finishRun()
			m.setState("error")
		}
	}

	// Re-subscribe to client messages after processing any client-originated message
	switch msg.(type) {
	case ConnectedMsg, StreamStartMsg, StreamDeltaMsg, StreamEndMsg,
		ActivityMsg, GatewayInfoMsg, ErrorMsg:
		if m.connected && m.client != nil {
			cmds = append(cmds, m.client.ListenCmd())
		}
	}

	var tiCmd tea.Cmd
	m.input, tiCmd = m.input.Update(msg)
	if tiCmd != nil {
		cmds = append(cmds, tiCmd)
	}

	return m, tea.Batch(cmds...)
}

// handleKeyMsg processes keyboard input.
// Returns (cmd, handled) where handled=true prevents the textarea from also processing the key.
func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		m.quit()
		return tea.Quit, true

	case "esc":
		m.stopRun()
		return nil, true

	case "ctrl+l":
		m.setTheme(m.theme.Toggle())
		return nil, true

	case "pgup":
		m.chat.Viewport.HalfViewUp()
		return nil, true

	case "pgdown":
		m.chat.Viewport.HalfViewDown()
		return nil, true

	case "alt+enter":
		m.input.InsertString("\n")
		return nil, true

	case "enter":
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return nil, true
		}
		m.input.Reset()
		if strings.HasPrefix(text, "/") {
			return m.handleCommand(text), true
		}
		m.sendChat(text)
		return nil, true
	}

	return nil, false
}

// handleCommand runs a slash command. Only /stop reaches the gateway.
func (m *Model) handleCommand(text string) tea.Cmd {
	cmd, arg, _ := strings.Cut(text, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "/quit", "/exit":
		m.quit()
		return tea.Quit

	case "/help", "/commands":
		m.chat.AddMessage("system", helpText)

	case "/stop":
		m.stopRun()

	case "/theme":
		if arg == "" {
			m.setTheme(m.theme.Toggle())
			return nil
		}
		theme, err := prefs.ParseTheme(arg)
		if err != nil {
			m.chat.AddMessage("system", err.Error())
			return nil
		}
		m.setTheme(theme)

	default:
		m.chat.AddMessage("system", fmt.Sprintf("Unknown command %s. Type /help for a list.", cmd))
	}
	return nil
}

// sendChat starts a new run: the previous run's activity is cleared before
// the request leaves, so the first event of the new turn lands in an empty
// history.
func (m *Model) sendChat(text string) {
	// The gateway supersedes an unfinished run; its late frames carry the
	// old id and are ignored.
	if m.chat.Streaming {
		m.chat.EndStreaming("")
	}
	runID := uuid.NewString()
	m.tracker.StartRun(runID)
	m.spinning = false
	m.updateLayout()

	m.chat.AddMessage("user", text)
	m.lastRequestStart = time.Now()
	m.setState("processing")

	if m.client == nil {
		m.finishRun()
		return
	}
	if err := m.client.SendChatWithID(m.sessionKey, text, runID); err != nil {
		m.chat.AddMessage("system", "Send failed: "+err.Error())
		m.finishRun()
		m.setState("error")
	}
}

// stopRun aborts the current run on user request.
func (m *Model) stopRun() {
	if !m.tracker.StreamOpen() {
		return
	}
	runID := m.tracker.RunID()
	m.chat.EndStreaming("")
	m.finishRun()
	m.chat.AddMessage("system", "Run stopped.")
	if m.client != nil {
		if err := m.client.SendCommand(m.sessionKey, "/stop", "", runID); err != nil {
			log.Printf("[TUI] failed to send stop: %v", err)
		}
	}
}

// finishRun closes the activity stream. The next render reconsolidates
// without a running entry, so no spinner is left behind.
func (m *Model) finishRun() {
	if m.chat.Streaming {
		m.chat.EndStreaming("")
	}
	m.tracker.Close()
	m.setState("idle")
	m.updateLayout()
}

func (m *Model) quit() {
	m.quitting = true
	if m.client != nil {
		m.client.Close()
	}
}

func (m *Model) setState(state string) {
	m.statusBar.SessionState = state
}

// setTheme restyles every sub-model and persists the choice.
func (m *Model) setTheme(theme prefs.Theme) {
	m.theme = theme
	m.styles = NewStyles(m.renderer, theme)
	m.chat.SetStyles(m.styles)
	m.pipeline.SetStyles(m.styles)
	m.statusBar.Styles = m.styles
	m.statusBar.Theme = theme

	if m.config.ThemeSaver != nil {
		if err := m.config.ThemeSaver.SetTheme(theme); err != nil {
			log.Printf("[TUI] failed to save theme: %v", err)
		}
	}
}

// updateLayout recalculates sub-model dimensions
func (m *Model) updateLayout() {
	statusBarHeight := 1
	inputHeight := 4 // textarea + border

	panelWidth := m.pipeline.TotalWidth(m.tracker.View())
	chatWidth := m.width - panelWidth
	chatHeight := m.height - statusBarHeight - inputHeight

	if chatWidth < 20 {
		chatWidth = 20
	}
	if chatHeight < 5 {
		chatHeight = 5
	}

	m.pipeline.Height = chatHeight
	m.statusBar.Width = m.width
	m.input.SetWidth(m.width - 2)
	m.chat.SetSize(chatWidth, chatHeight)
}

// View renders the entire TUI
func (m Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	main := m.chat.View()
	if panel := m.pipeline.View(m.tracker.View()); panel != "" {
		main = lipgloss.JoinHorizontal(lipgloss.Top, main, panel)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		main,
		m.styles.InputStyle.Width(m.width).Render(m.input.View()),
		m.statusBar.View(),
	)
}

// SetSSHUser sets the SSH user for display in the status bar and chat view
func (m *Model) SetSSHUser(user string) {
	m.statusBar.SSHUser = user
	m.chat.SetUserName(user)
}

// thinkingTickCmd returns a command that fires a ThinkingTickMsg after a short delay.
func thinkingTickCmd() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(time.Time) tea.Msg {
		return ThinkingTickMsg{}
	})
}
