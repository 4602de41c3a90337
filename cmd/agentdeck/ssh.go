package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	charmssh "github.com/charmbracelet/ssh"
	"github.com/spf13/cobra"

	"agentdeck/internal/prefs"
	internalssh "agentdeck/internal/ssh"
	"agentdeck/internal/tui"
)

const (
	hostKeyFile        = "ssh_host_key"
	authorizedKeysFile = "authorized_keys"
)

var (
	sshListen         string
	sshHostKey        string
	sshAuthorizedKeys string
	sshGatewayURL     string
	sshGatewayToken   string
)

var sshCmd = &cobra.Command{
	Use:   "ssh-server",
	Short: "Serve the TUI over SSH",
	Long: `Start an SSH server that gives every connecting user their own TUI
session, with its own gateway connection and pipeline panel.

  ssh -p 2222 user@localhost

Only keys listed in the authorized_keys file are accepted; manage them
with 'agentdeck ssh-keys'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := dd.EnsureDirs(); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}

		configPath := dd.ConfigFilePath(tuiConfigFile)
		token := sshGatewayToken
		if token == "" {
			if saved, ok := tui.LoadSavedToken(configPath); ok {
				token = saved
				log.Printf("Using saved token from %s", configPath)
			}
		}
		if token == "" {
			return errors.New("no gateway token available; use --gateway-token or run 'agentdeck tui --token ...' first to save one")
		}

		gatewayURL := sshGatewayURL
		if gatewayURL == "" {
			gatewayURL = tui.DefaultGatewayURL
		}

		hostKey := sshHostKey
		if hostKey == "" {
			hostKey = dd.SSHFilePath(hostKeyFile)
		}
		authorizedKeys := sshAuthorizedKeys
		if authorizedKeys == "" {
			authorizedKeys = dd.SSHFilePath(authorizedKeysFile)
		}

		store, err := prefs.Open(dd.PrefsPath())
		if err != nil {
			log.Printf("WARNING: preferences unavailable: %v", err)
			store = nil
		} else {
			defer store.Close()
		}

		config := internalssh.SSHConfig{
			ListenAddr:         sshListen,
			HostKeyPath:        hostKey,
			AuthorizedKeysPath: authorizedKeys,
			GatewayURL:         gatewayURL,
			GatewayToken:       token,
			Prefs:              store,
		}

		server, err := internalssh.NewServer(config)
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		go func() {
			<-ctx.Done()
			log.Println("Shutting down SSH server...")
			server.Close()
		}()

		log.Printf("SSH server listening on %s (gateway %s)", sshListen, gatewayURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, charmssh.ErrServerClosed) {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		return nil
	},
}

func init() {
	sshCmd.Flags().StringVar(&sshListen, "listen", internalssh.DefaultListenAddr, "SSH listen address")
	sshCmd.Flags().StringVar(&sshHostKey, "host-key", "", "Path to SSH host key (default: <data-dir>/ssh/"+hostKeyFile+", generated if missing)")
	sshCmd.Flags().StringVar(&sshAuthorizedKeys, "authorized-keys", "", "Path to authorized_keys file (default: <data-dir>/ssh/"+authorizedKeysFile+")")
	sshCmd.Flags().StringVar(&sshGatewayURL, "gateway-url", "", "Gateway WebSocket URL (default "+tui.DefaultGatewayURL+")")
	sshCmd.Flags().StringVar(&sshGatewayToken, "gateway-token", "", "Gateway authentication token (default: token saved by the tui command)")
}
