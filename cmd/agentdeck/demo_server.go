package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"agentdeck/internal/gateway"
	"agentdeck/internal/scenario"
	"agentdeck/pkg/tokens"
)

// demoTokenEnv supplies the demo gateway token when --token is not given
const demoTokenEnv = "AGENTDECK_DEMO_TOKEN"

var (
	demoPort          int
	demoToken         string
	demoScenario      string
	demoAssistantName string
	demoRunsPerMinute int
	demoWordDelay     time.Duration
	demoGenerateToken bool
)

var demoServerCmd = &cobra.Command{
	Use:   "demo-server",
	Short: "Run a demo gateway that plays scripted pipeline runs",
	Long: `Start a WebSocket gateway that answers every chat message by playing a
scenario: agent_activity frames for each scripted step, then the reply
streamed word by word. /stop aborts the run in progress.

Without --scenario the built-in script is used. Point the TUI at it with:

  agentdeck demo-server --token secret &
  agentdeck tui --url ws://localhost:18790/ws --token secret`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if demoGenerateToken {
			token, err := tokens.Generate()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		}

		token := demoToken
		if token == "" {
			token = os.Getenv(demoTokenEnv)
		}
		if token == "" {
			return errors.New("no token; pass --token or set " + demoTokenEnv + " (mint one with --generate-token)")
		}

		sc := scenario.Default()
		if demoScenario != "" {
			loaded, err := scenario.Load(demoScenario)
			if err != nil {
				return err
			}
			sc = loaded
		}

		gw, err := gateway.New(gateway.Config{
			Port:          demoPort,
			Token:         token,
			AssistantName: demoAssistantName,
			Scenario:      sc,
			RunsPerMinute: demoRunsPerMinute,
			WordDelay:     demoWordDelay,
		})
		if err != nil {
			return fmt.Errorf("failed to create gateway: %w", err)
		}

		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		log.Printf("Demo gateway token: %s", tokens.Display(token))
		if err := gw.Start(ctx); err != nil {
			return err
		}
		log.Println("Demo gateway stopped gracefully")
		return nil
	},
}

func init() {
	demoServerCmd.Flags().IntVarP(&demoPort, "port", "p", gateway.DefaultPort, "WebSocket server port")
	demoServerCmd.Flags().StringVar(&demoToken, "token", "", "Token clients must present (default $"+demoTokenEnv+")")
	demoServerCmd.Flags().StringVar(&demoScenario, "scenario", "", "Scenario YAML file (default: built-in script)")
	demoServerCmd.Flags().StringVar(&demoAssistantName, "assistant-name", "", "Assistant name announced to clients")
	demoServerCmd.Flags().IntVar(&demoRunsPerMinute, "runs-per-minute", 0, "Runs allowed per session per minute (0 = default, negative = unlimited)")
	demoServerCmd.Flags().BoolVar(&demoGenerateToken, "generate-token", false, "Print a freshly minted token and exit")
	demoServerCmd.Flags().DurationVar(&demoWordDelay, "word-delay", 0, "Pause between streamed reply words (default 40ms)")
}
