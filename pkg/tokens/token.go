// Package tokens mints and checks the shared secrets clients present to a
// gateway. A minted token is the prefix followed by base58(entropy +
// checksum); the checksum catches copy-paste damage before a connection is
// attempted.
package tokens

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"math/big"
	"strings"
)

const (
	// Prefix starts every minted token.
	Prefix = "agentdeck_v1_"

	// EntropyBytes is 128 bits of randomness.
	EntropyBytes = 16

	// ChecksumBytes is the length of the SHA-256 derived checksum.
	ChecksumBytes = 2

	// alphabet is Bitcoin-style base58: no 0, O, I or l.
	alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"
)

// Generate mints a new token.
func Generate() (string, error) {
	entropy := make([]byte, EntropyBytes)
	if _, err := rand.Read(entropy); err != nil {
		return "", fmt.Errorf("failed to generate random entropy: %w", err)
	}
	return FromEntropy(entropy)
}

// FromEntropy builds the token for the given entropy.
func FromEntropy(entropy []byte) (string, error) {
	if len(entropy) != EntropyBytes {
		return "", fmt.Errorf("entropy must be exactly %d bytes", EntropyBytes)
	}
	data := make([]byte, 0, EntropyBytes+ChecksumBytes)
	data = append(data, entropy...)
	data = append(data, checksum(entropy)...)
	return Prefix + encode(data), nil
}

// Valid reports whether token is a well-formed minted token with an intact
// checksum. Gateways accept any non-empty secret; this is for catching
// typos on the client side.
func Valid(token string) bool {
	suffix, ok := strings.CutPrefix(token, Prefix)
	if !ok || suffix == "" {
		return false
	}
	data, err := decode(suffix)
	if err != nil || len(data) != EntropyBytes+ChecksumBytes {
		return false
	}
	return Equal(string(data[EntropyBytes:]), string(checksum(data[:EntropyBytes])))
}

// Equal compares two secrets in constant time.
func Equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Display shortens a token for logs.
func Display(token string) string {
	const shown = 12
	if len(token) <= shown {
		return token
	}
	return token[:shown] + "..."
}

func checksum(entropy []byte) []byte {
	sum := sha256.Sum256(entropy)
	return sum[:ChecksumBytes]
}

func encode(input []byte) string {
	num := new(big.Int).SetBytes(input)
	base := big.NewInt(58)
	rem := new(big.Int)

	var out []byte
	for num.Sign() > 0 {
		num.DivMod(num, base, rem)
		out = append(out, alphabet[rem.Int64()])
	}
	// leading zero bytes become leading '1's
	for _, b := range input {
		if b != 0 {
			break
		}
		out = append(out, alphabet[0])
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return string(out)
}

func decode(input string) ([]byte, error) {
	num := new(big.Int)
	base := big.NewInt(58)
	for i := 0; i < len(input); i++ {
		idx := strings.IndexByte(alphabet, input[i])
		if idx < 0 {
			return nil, fmt.Errorf("invalid base58 character: %c", input[i])
		}
		num.Mul(num, base)
		num.Add(num, big.NewInt(int64(idx)))
	}

	out := num.Bytes()
	zeros := 0
	for zeros < len(input) && input[zeros] == alphabet[0] {
		zeros++
	}
	return append(make([]byte, zeros), out...), nil
}
