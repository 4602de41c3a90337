package ssh

import (
	"fmt"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	charmssh "github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	wishbubbletea "github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"

	"agentdeck/internal/prefs"
	"agentdeck/internal/tui"
)

// DefaultListenAddr is used when SSHConfig.ListenAddr is empty.
const DefaultListenAddr = ":2222"

// SSHConfig holds configuration for the SSH server
type SSHConfig struct {
	ListenAddr         string
	HostKeyPath        string
	AuthorizedKeysPath string
	GatewayURL         string
	GatewayToken       string
	AssistantName      string
	// Location is the timezone for rendering timestamps in the TUI. If nil, times render as-is.
	Location *time.Location
	// Prefs supplies the theme for new sessions and stores toggles. Optional.
	Prefs *prefs.Store
}

// NewServer creates a Wish SSH server that serves the TUI. Each session
// gets its own gateway connection, renderer and activity tracker.
func NewServer(config SSHConfig) (*charmssh.Server, error) {
	if config.ListenAddr == "" {
		config.ListenAddr = DefaultListenAddr
	}
	if config.HostKeyPath == "" {
		return nil, fmt.Errorf("host key path is required")
	}

	authorizedKeys, err := LoadAuthorizedKeys(config.AuthorizedKeysPath)
	if err != nil {
		log.Printf("[SSH] No authorized keys loaded: %v", err)
		authorizedKeys = nil
	} else {
		log.Printf("[SSH] Loaded %d authorized keys", len(authorizedKeys))
	}
	if len(authorizedKeys) == 0 {
		log.Printf("[SSH] WARNING: no authorized keys; every public key will be rejected")
	}

	handler := func(sess charmssh.Session) (tea.Model, []tea.ProgramOption) {
		return sessionModel(sess, config)
	}

	server, err := wish.NewServer(
		wish.WithAddress(config.ListenAddr),
		wish.WithHostKeyPath(config.HostKeyPath),
		wish.WithPublicKeyAuth(func(ctx charmssh.Context, key charmssh.PublicKey) bool {
			return publicKeyHandler(ctx.User(), key, authorizedKeys)
		}),
		wish.WithMiddleware(
			wishbubbletea.Middleware(handler),
			activeterm.Middleware(),
			logging.Middleware(),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create SSH server: %w", err)
	}

	return server, nil
}

// sessionModel creates a TUI model for each SSH session
func sessionModel(sess charmssh.Session, config SSHConfig) (tea.Model, []tea.ProgramOption) {
	sshUser := sess.User()
	if sshUser == "" {
		sshUser = "ssh-user"
	}

	client := tui.NewWSClient(config.GatewayURL, config.GatewayToken, sshUser)

	// Per-session renderer so styles match the connecting terminal
	renderer := wishbubbletea.MakeRenderer(sess)

	mc := tui.ModelConfig{
		Client:        client,
		UserID:        sshUser,
		GatewayURL:    config.GatewayURL,
		AssistantName: config.AssistantName,
		Location:      config.Location,
		Renderer:      renderer,
		Theme:         prefs.ThemeDark,
	}
	if config.Prefs != nil {
		if theme, err := config.Prefs.Theme(); err != nil {
			log.Printf("[SSH] failed to load theme for %s: %v", sshUser, err)
		} else {
			mc.Theme = theme
		}
		mc.ThemeSaver = config.Prefs
	}

	model := tui.NewModel(mc)
	model.SetSSHUser(sshUser)

	return model, []tea.ProgramOption{tea.WithAltScreen()}
}

// publicKeyHandler validates SSH public keys against the authorized keys list
func publicKeyHandler(user string, key charmssh.PublicKey, authorizedKeys []charmssh.PublicKey) bool {
	for _, authKey := range authorizedKeys {
		if charmssh.KeysEqual(key, authKey) {
			log.Printf("[SSH] Public key accepted for user: %s", user)
			return true
		}
	}
	log.Printf("[SSH] Public key rejected for user: %s", user)
	return false
}
