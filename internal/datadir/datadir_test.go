package datadir

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_EnvVarWins(t *testing.T) {
	envDir := filepath.Join(t.TempDir(), "env-root")
	t.Setenv(EnvVar, envDir)

	dd, err := New("ignored-flag-value")
	require.NoError(t, err)
	assert.Equal(t, envDir, dd.Root())
}

func TestNew_FlagFallback(t *testing.T) {
	t.Setenv(EnvVar, "")
	flagDir := filepath.Join(t.TempDir(), "from-flag")

	dd, err := New(flagDir)
	require.NoError(t, err)
	assert.Equal(t, flagDir, dd.Root())
}

func TestNew_DefaultHome(t *testing.T) {
	t.Setenv(EnvVar, "")
	home, _ := os.UserHomeDir()

	dd, err := New("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, DefaultDirName), dd.Root())
}

func TestDataDir_Paths(t *testing.T) {
	root := t.TempDir()
	t.Setenv(EnvVar, root)

	dd, err := New("")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "config", "tui.json"), dd.ConfigFilePath("tui.json"))
	assert.Equal(t, filepath.Join(root, "ssh", "host_key"), dd.SSHFilePath("host_key"))
	assert.Equal(t, filepath.Join(root, "data", PrefsFileName), dd.PrefsPath())
	assert.Equal(t, filepath.Join(root, LogFileName), dd.LogPath())
}

func TestDataDir_EnsureDirs(t *testing.T) {
	root := filepath.Join(t.TempDir(), "fresh")
	t.Setenv(EnvVar, root)

	dd, err := New("")
	require.NoError(t, err)

	_, err = os.Stat(root)
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, dd.EnsureDirs())
	require.NoError(t, dd.EnsureDirs(), "second call is a no-op")

	for _, dir := range []string{dd.Root(), dd.ConfigDir(), dd.SSHDir(), dd.DatabaseDir()} {
		info, err := os.Stat(dir)
		require.NoError(t, err, "dir should exist: %s", dir)
		assert.True(t, info.IsDir())
		assert.Equal(t, os.FileMode(0700), info.Mode().Perm(), "permissions of %s", dir)
	}
}
