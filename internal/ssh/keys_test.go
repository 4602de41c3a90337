package ssh

import (
	"crypto/ed25519"
	"crypto/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	charmssh "github.com/charmbracelet/ssh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gossh "golang.org/x/crypto/ssh"
)

func newAuthorizedKey(t *testing.T, comment string) (string, gossh.PublicKey) {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	sshPub, err := gossh.NewPublicKey(pub)
	require.NoError(t, err)
	line := strings.TrimSpace(string(gossh.MarshalAuthorizedKey(sshPub))) + " " + comment
	return line, sshPub
}

func TestInitAuthorizedKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ssh", "authorized_keys")

	created, err := InitAuthorizedKeys(path)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = InitAuthorizedKeys(path)
	require.NoError(t, err)
	assert.False(t, created)

	keys, err := LoadAuthorizedKeys(path)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestAddListRemoveAuthorizedKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "authorized_keys")
	aliceLine, alicePub := newAuthorizedKey(t, "alice@laptop")
	bobLine, _ := newAuthorizedKey(t, "bob@desktop")

	aliceFP, err := AddAuthorizedKey(path, aliceLine)
	require.NoError(t, err)
	assert.Equal(t, gossh.FingerprintSHA256(alicePub), aliceFP)

	_, err = AddAuthorizedKey(path, bobLine)
	require.NoError(t, err)

	// Adding the same key twice is a no-op.
	_, err = AddAuthorizedKey(path, aliceLine)
	require.NoError(t, err)

	entries, err := ListAuthorizedKeys(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "alice@laptop", entries[0].Comment)
	assert.Equal(t, "bob@desktop", entries[1].Comment)

	require.NoError(t, RemoveAuthorizedKey(path, aliceFP))

	entries, err = ListAuthorizedKeys(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "bob@desktop", entries[0].Comment)

	err = RemoveAuthorizedKey(path, aliceFP)
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestAddAuthorizedKey_RejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "authorized_keys")
	_, err := AddAuthorizedKey(path, "ssh-ed25519 not-base64")
	assert.Error(t, err)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestLoadAuthorizedKeys_SkipsCommentsAndInvalidLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "authorized_keys")
	line, pub := newAuthorizedKey(t, "carol")
	content := "# comment\n\nnot a key\n" + line + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	keys, err := LoadAuthorizedKeys(path)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.True(t, publicKeyHandler("carol", pub, keys))
}

func TestRemoveAuthorizedKey_KeepsOtherLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "authorized_keys")
	line, pub := newAuthorizedKey(t, "dave")
	require.NoError(t, os.WriteFile(path, []byte("# header\n"+line+"\n"), 0600))

	require.NoError(t, RemoveAuthorizedKey(path, gossh.FingerprintSHA256(pub)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# header\n", string(data))
}

func TestPublicKeyHandler_RejectsUnknown(t *testing.T) {
	_, known := newAuthorizedKey(t, "known")
	_, stranger := newAuthorizedKey(t, "stranger")

	assert.False(t, publicKeyHandler("x", stranger, []charmssh.PublicKey{known}))
	assert.False(t, publicKeyHandler("x", stranger, nil))
}

func TestLoadAuthorizedKeys_MissingFile(t *testing.T) {
	_, err := LoadAuthorizedKeys(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	_, err = LoadAuthorizedKeys("")
	assert.Error(t, err)
}
