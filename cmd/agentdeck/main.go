package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"agentdeck/internal/datadir"
	"agentdeck/internal/version"
)

var (
	dataDirFlag string
	verbose     bool

	// dd is resolved before any subcommand runs
	dd *datadir.DataDir
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "agentdeck",
	Short: "Terminal client for multi-agent pipelines",
	Long: `agentdeck is a terminal chat client for a multi-agent orchestration
gateway. Alongside the transcript it shows a live pipeline panel: which
agent is running right now and which agents have finished this turn.

Run without a subcommand to start the TUI.`,
	Version:       version.Full(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		resolved, err := datadir.New(dataDirFlag)
		if err != nil {
			return fmt.Errorf("failed to resolve data directory: %w", err)
		}
		dd = resolved

		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
			log.Printf("Data directory: %s", dd.Root())
		}
		return nil
	},
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		buildInfo := version.GetBuildInfo()

		fmt.Fprintf(out, "agentdeck %s\n", version.Full())
		if buildInfo.GitCommit != "unknown" {
			fmt.Fprintf(out, "Git commit: %s\n", buildInfo.GitCommit)
		}
		if buildInfo.GitTag != "" {
			fmt.Fprintf(out, "Git tag: %s\n", buildInfo.GitTag)
		}
		if buildInfo.GitDirty {
			fmt.Fprintf(out, "Git status: dirty (uncommitted changes)\n")
		}
		if buildInfo.BuildDate != "unknown" {
			fmt.Fprintf(out, "Build date: %s\n", buildInfo.BuildDate)
		}
		fmt.Fprintf(out, "Go version: %s\n", buildInfo.GoVersion)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "data directory (default ~/.agentdeck, overridden by "+datadir.EnvVar+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(sshCmd)
	rootCmd.AddCommand(sshKeysCmd)
	rootCmd.AddCommand(demoServerCmd)
	rootCmd.AddCommand(replayCmd)

	// If no command is specified, default to the TUI
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return tuiCmd.RunE(cmd, args)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
