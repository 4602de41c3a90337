package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	internalssh "agentdeck/internal/ssh"
)

var sshKeysPath string

var sshKeysCmd = &cobra.Command{
	Use:   "ssh-keys",
	Short: "Manage SSH authorized keys",
	Long:  "Add, list, and remove SSH public keys allowed to open TUI sessions over SSH.",
}

// authorizedKeysPath returns --authorized-keys or the data directory default.
func authorizedKeysPath() string {
	if sshKeysPath != "" {
		return sshKeysPath
	}
	return dd.SSHFilePath(authorizedKeysFile)
}

var sshKeysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List authorized SSH public keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := internalssh.ListAuthorizedKeys(authorizedKeysPath())
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to list keys: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintln(out, "No authorized keys found.")
			fmt.Fprintln(out, "Add one with: agentdeck ssh-keys add <key-file-or-string>")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "FINGERPRINT\tCOMMENT")
		fmt.Fprintln(w, "-----------\t-------")
		for _, entry := range entries {
			comment := entry.Comment
			if comment == "" {
				comment = "(no comment)"
			}
			fmt.Fprintf(w, "%s\t%s\n", entry.Fingerprint, comment)
		}
		return w.Flush()
	},
}

var sshKeysAddCmd = &cobra.Command{
	Use:   "add <key-file-or-string>",
	Short: "Add an SSH public key",
	Long: `Add an SSH public key to the authorized keys list.
The argument can be a path to a public key file (e.g., ~/.ssh/id_ed25519.pub)
or the key string itself.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		keyData := args[0]
		if _, err := os.Stat(keyData); err == nil {
			data, err := os.ReadFile(keyData)
			if err != nil {
				return fmt.Errorf("failed to read key file: %w", err)
			}
			keyData = strings.TrimSpace(string(data))
		}

		fingerprint, err := internalssh.AddAuthorizedKey(authorizedKeysPath(), keyData)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", fingerprint)
		return nil
	},
}

var sshKeysRemoveCmd = &cobra.Command{
	Use:   "remove <fingerprint>",
	Short: "Remove an SSH public key by fingerprint",
	Long: `Remove an SSH public key from the authorized keys list.
Use 'agentdeck ssh-keys list' to find the fingerprint.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := internalssh.RemoveAuthorizedKey(authorizedKeysPath(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
		return nil
	},
}

var sshKeysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an empty authorized_keys file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := authorizedKeysPath()
		created, err := internalssh.InitAuthorizedKeys(path)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if created {
			fmt.Fprintf(out, "Created: %s\n", path)
		} else {
			fmt.Fprintf(out, "Exists: %s\n", path)
		}
		fmt.Fprintf(out, "Host key path: %s (generated on first ssh-server start)\n", dd.SSHFilePath(hostKeyFile))
		return nil
	},
}

func init() {
	sshKeysCmd.PersistentFlags().StringVar(&sshKeysPath, "authorized-keys", "", "Path to authorized_keys file (default: <data-dir>/ssh/"+authorizedKeysFile+")")

	sshKeysCmd.AddCommand(sshKeysListCmd)
	sshKeysCmd.AddCommand(sshKeysAddCmd)
	sshKeysCmd.AddCommand(sshKeysRemoveCmd)
	sshKeysCmd.AddCommand(sshKeysInitCmd)
}
