package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"agentdeck/internal/activity"
	"agentdeck/internal/scenario"
	"agentdeck/internal/tui"
)

var (
	replayClosed   bool
	replayRealtime bool
)

var replayCmd = &cobra.Command{
	Use:   "replay [scenario.yaml]",
	Short: "Print the pipeline panel for each step of a scenario",
	Long: `Feed a scenario's events one at a time into an activity tracker and
print the consolidated pipeline after each one, then close the stream and
print the final state. Without an argument the built-in script is used.

Lines read "[x] Agent: message" for completed agents in first-seen order
and "[>] Agent: message" for the agent currently running.

--closed replays with the stream already closed, which is what a client
sees when it reconnects after a run has ended.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sc := scenario.Default()
		if len(args) == 1 {
			loaded, err := scenario.Load(args[0])
			if err != nil {
				return err
			}
			sc = loaded
		}
		return replay(cmd.OutOrStdout(), sc, replayClosed, replayRealtime)
	},
}

func init() {
	replayCmd.Flags().BoolVar(&replayClosed, "closed", false, "Consolidate with the stream already closed")
	replayCmd.Flags().BoolVar(&replayRealtime, "realtime", false, "Honour step delays")
}

// replay writes the consolidated view after every step of sc.
func replay(w io.Writer, sc *scenario.Scenario, closed, realtime bool) error {
	if err := sc.Validate(); err != nil {
		return err
	}

	tracker := activity.NewTracker()
	tracker.StartRun(sc.Name)
	if closed {
		tracker.Close()
	}

	fmt.Fprintf(w, "scenario %s: %d steps\n", sc.Name, len(sc.Steps))
	for i, step := range sc.Steps {
		if realtime && step.Delay > 0 {
			time.Sleep(step.Delay)
		}
		ev, err := step.Event()
		if err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
		tracker.Append(ev)

		fmt.Fprintf(w, "\n-- %d. %s %s", i+1, ev.Agent, ev.Status)
		if ev.Message != "" {
			fmt.Fprintf(w, " %q", ev.Message)
		}
		fmt.Fprintln(w)
		printView(w, tracker.View())
	}

	tracker.Close()
	fmt.Fprintln(w, "\n-- stream closed")
	printView(w, tracker.View())
	return nil
}

func printView(w io.Writer, view activity.View) {
	lines := tui.RenderPlain(view)
	if len(lines) == 0 {
		fmt.Fprintln(w, "(no activity)")
		return
	}
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
}
