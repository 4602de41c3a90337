package datadir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default data directory name under $HOME.
	DefaultDirName = ".agentdeck"

	// EnvVar is the environment variable that overrides the data directory.
	EnvVar = "AGENTDECK_DATA_DIR"

	configSubdir   = "config"
	sshSubdir      = "ssh"
	databaseSubdir = "data"

	// PrefsFileName is the preferences database inside the data subdirectory.
	PrefsFileName = "prefs.db"

	// LogFileName receives log output while the TUI owns the terminal.
	LogFileName = "agentdeck.log"
)

// DataDir resolves every client-side path from one root.
type DataDir struct {
	root string
}

// New returns a DataDir rooted at the resolved data directory.
// It does NOT create anything on disk; call EnsureDirs for that.
//
// Resolution priority:
//  1. AGENTDECK_DATA_DIR environment variable
//  2. flagValue argument (--data-dir)
//  3. ~/.agentdeck/
func New(flagValue string) (*DataDir, error) {
	root := os.Getenv(EnvVar)
	if root == "" {
		root = flagValue
	}
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot determine home directory: %w", err)
		}
		root = filepath.Join(home, DefaultDirName)
	}
	return &DataDir{root: root}, nil
}

// Root returns the base data directory path.
func (d *DataDir) Root() string { return d.root }

// ConfigDir returns {root}/config/.
func (d *DataDir) ConfigDir() string { return filepath.Join(d.root, configSubdir) }

// SSHDir returns {root}/ssh/.
func (d *DataDir) SSHDir() string { return filepath.Join(d.root, sshSubdir) }

// DatabaseDir returns {root}/data/.
func (d *DataDir) DatabaseDir() string { return filepath.Join(d.root, databaseSubdir) }

// ConfigFilePath returns a file inside the config subdirectory.
func (d *DataDir) ConfigFilePath(name string) string {
	return filepath.Join(d.ConfigDir(), name)
}

// SSHFilePath returns a file inside the ssh subdirectory.
func (d *DataDir) SSHFilePath(name string) string {
	return filepath.Join(d.SSHDir(), name)
}

// PrefsPath returns the preferences database path.
func (d *DataDir) PrefsPath() string {
	return filepath.Join(d.DatabaseDir(), PrefsFileName)
}

// LogPath returns the log file path.
func (d *DataDir) LogPath() string {
	return filepath.Join(d.root, LogFileName)
}

// EnsureDirs creates the root and all subdirectories with 0700 permissions.
func (d *DataDir) EnsureDirs() error {
	for _, dir := range []string{d.root, d.ConfigDir(), d.SSHDir(), d.DatabaseDir()} {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
