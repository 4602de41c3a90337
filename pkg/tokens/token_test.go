package tokens

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		token, err := Generate()
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(token, Prefix))
		assert.True(t, Valid(token), token)
		assert.False(t, seen[token], "duplicate token %s", token)
		seen[token] = true
	}
}

func TestFromEntropy(t *testing.T) {
	entropy := bytes.Repeat([]byte{0xab}, EntropyBytes)
	a, err := FromEntropy(entropy)
	require.NoError(t, err)
	b, err := FromEntropy(entropy)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	_, err = FromEntropy([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestFromEntropy_LeadingZeros(t *testing.T) {
	entropy := make([]byte, EntropyBytes)
	entropy[EntropyBytes-1] = 7
	token, err := FromEntropy(entropy)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(token, Prefix+"111"))
	assert.True(t, Valid(token))
}

func TestValid(t *testing.T) {
	token, err := Generate()
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{"minted", token, true},
		{"empty", "", false},
		{"prefix only", Prefix, false},
		{"wrong prefix", "other_v1_" + strings.TrimPrefix(token, Prefix), false},
		{"bad alphabet", Prefix + "0OIl", false},
		{"truncated", token[:len(token)-2], false},
		{"free-form secret", "secret", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Valid(tt.token))
		})
	}
}

func TestValid_CorruptedChecksum(t *testing.T) {
	token, err := FromEntropy(bytes.Repeat([]byte{0x42}, EntropyBytes))
	require.NoError(t, err)

	last := token[len(token)-1]
	replacement := byte('2')
	if last == replacement {
		replacement = '3'
	}
	corrupted := token[:len(token)-1] + string(replacement)
	assert.False(t, Valid(corrupted))
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal("abc", "abc"))
	assert.False(t, Equal("abc", "abd"))
	assert.False(t, Equal("abc", "abcd"))
	assert.False(t, Equal("", "x"))
}

func TestDisplay(t *testing.T) {
	assert.Equal(t, "short", Display("short"))
	assert.Equal(t, "agentdeck_v1...", Display("agentdeck_v1_abcdef"))
}
