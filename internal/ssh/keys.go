package ssh

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	charmssh "github.com/charmbracelet/ssh"
	gossh "golang.org/x/crypto/ssh"
)

// ErrKeyNotFound is returned by RemoveAuthorizedKey when no key matches.
var ErrKeyNotFound = errors.New("authorized key not found")

// KeyEntry represents an authorized public key with metadata
type KeyEntry struct {
	PublicKey   charmssh.PublicKey
	Comment     string
	Fingerprint string
}

// authorizedLine is one line of an authorized_keys file. Entry is nil for
// blank lines, comments and lines that do not parse.
type authorizedLine struct {
	raw   string
	entry *KeyEntry
}

// readAuthorizedKeys parses every line of the file at path.
func readAuthorizedKeys(path string) ([]authorizedLine, error) {
	if path == "" {
		return nil, errors.New("no authorized keys path configured")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open authorized keys: %w", err)
	}
	defer f.Close()

	var lines []authorizedLine
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		raw := scanner.Text()
		line := authorizedLine{raw: raw}

		trimmed := strings.TrimSpace(raw)
		if trimmed != "" && !strings.HasPrefix(trimmed, "#") {
			if pubKey, comment, _, _, err := gossh.ParseAuthorizedKey([]byte(trimmed)); err == nil {
				line.entry = &KeyEntry{
					PublicKey:   pubKey,
					Comment:     comment,
					Fingerprint: gossh.FingerprintSHA256(pubKey),
				}
			}
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading authorized keys: %w", err)
	}
	return lines, nil
}

// ListAuthorizedKeys returns all valid keys in the file with fingerprints
func ListAuthorizedKeys(path string) ([]KeyEntry, error) {
	lines, err := readAuthorizedKeys(path)
	if err != nil {
		return nil, err
	}
	var entries []KeyEntry
	for _, l := range lines {
		if l.entry != nil {
			entries = append(entries, *l.entry)
		}
	}
	return entries, nil
}

// LoadAuthorizedKeys loads the public keys the server accepts
func LoadAuthorizedKeys(path string) ([]charmssh.PublicKey, error) {
	entries, err := ListAuthorizedKeys(path)
	if err != nil {
		return nil, err
	}
	keys := make([]charmssh.PublicKey, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, e.PublicKey)
	}
	return keys, nil
}

// AddAuthorizedKey validates keyData and appends it to the file, creating
// the file and its directory when missing. It returns the key's fingerprint.
func AddAuthorizedKey(path, keyData string) (string, error) {
	if path == "" {
		return "", errors.New("no authorized keys path configured")
	}

	line := strings.TrimSpace(keyData)
	pubKey, _, _, _, err := gossh.ParseAuthorizedKey([]byte(line))
	if err != nil {
		return "", fmt.Errorf("invalid public key: %w", err)
	}
	fingerprint := gossh.FingerprintSHA256(pubKey)

	if existing, err := ListAuthorizedKeys(path); err == nil {
		for _, e := range existing {
			if e.Fingerprint == fingerprint {
				return fingerprint, nil
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return "", fmt.Errorf("failed to open authorized keys: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(line + "\n"); err != nil {
		return "", fmt.Errorf("failed to write key: %w", err)
	}
	return fingerprint, nil
}

// RemoveAuthorizedKey removes the key with the given SHA256 fingerprint,
// keeping every other line as it was.
func RemoveAuthorizedKey(path, fingerprint string) error {
	lines, err := readAuthorizedKeys(path)
	if err != nil {
		return err
	}

	var kept []string
	found := false
	for _, l := range lines {
		if l.entry != nil && l.entry.Fingerprint == fingerprint {
			found = true
			continue
		}
		kept = append(kept, l.raw)
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrKeyNotFound, fingerprint)
	}

	content := strings.Join(kept, "\n")
	if content != "" {
		content += "\n"
	}
	return os.WriteFile(path, []byte(content), 0600)
}

// InitAuthorizedKeys creates an empty authorized_keys file if none exists.
// It reports whether a file was created.
func InitAuthorizedKeys(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to stat authorized keys: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return false, fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, []byte("# agentdeck authorized SSH keys\n"), 0600); err != nil {
		return false, fmt.Errorf("failed to create authorized_keys: %w", err)
	}
	return true, nil
}
