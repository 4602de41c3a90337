package tui

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"agentdeck/pkg/tokens"
)

// DefaultGatewayURL is used when neither a flag nor a saved config names one.
const DefaultGatewayURL = "ws://localhost:18790/ws"

// TUIConfig holds configuration for the TUI client
type TUIConfig struct {
	GatewayURL    string `json:"gateway_url"`
	Token         string `json:"token"`
	UserID        string `json:"user_id,omitempty"`
	AssistantName string `json:"assistant_name,omitempty"`
}

// LoadOrCreateConfig loads the config saved at path, applies non-empty
// url and token overrides, fills defaults, and saves the result back so
// the next launch needs no flags.
func LoadOrCreateConfig(path, url, token string) (*TUIConfig, error) {
	cfg := &TUIConfig{}

	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			log.Printf("[TUI] ignoring unreadable config %s: %v", path, err)
		}
	}

	if url != "" {
		cfg.GatewayURL = url
	}
	if token != "" {
		cfg.Token = token
	}
	if cfg.GatewayURL == "" {
		cfg.GatewayURL = DefaultGatewayURL
	}
	if cfg.UserID == "" {
		hostname, err := os.Hostname()
		if err != nil || hostname == "" {
			hostname = "tui-user"
		}
		cfg.UserID = hostname
	}

	if cfg.Token == "" {
		return nil, errors.New("no authentication token available; pass --token once and it will be saved")
	}
	if strings.HasPrefix(cfg.Token, tokens.Prefix) && !tokens.Valid(cfg.Token) {
		return nil, fmt.Errorf("token %s fails its checksum; check it was copied in full", tokens.Display(cfg.Token))
	}

	if err := cfg.Save(path); err != nil {
		log.Printf("[TUI] could not save config: %v", err)
	}
	return cfg, nil
}

// Save writes the config to path with owner-only permissions
func (c *TUIConfig) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// LoadSavedToken reads the token from the saved config at path.
func LoadSavedToken(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	var cfg TUIConfig
	if err := json.Unmarshal(data, &cfg); err != nil || cfg.Token == "" {
		return "", false
	}
	return cfg.Token, true
}
