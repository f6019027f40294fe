package keygen

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

const (
	minLength = 6
	maxLength = 8

	// Keys beyond this length are never minted and never accepted.
	maxWellFormedLength = 20
)

var alphabetLen = big.NewInt(int64(len(alphabet)))

// Mint returns a random alphanumeric key with length uniform in [6, 8].
func Mint() (string, error) {
	span := big.NewInt(int64(maxLength - minLength + 1))
	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return "", fmt.Errorf("mint key length: %w", err)
	}
	return MintLen(minLength + int(n.Int64()))
}

// MintLen returns a random alphanumeric key of exactly n characters.
func MintLen(n int) (string, error) {
	if n < 1 {
		return "", fmt.Errorf("invalid key length %d", n)
	}
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", fmt.Errorf("mint key: %w", err)
		}
		b[i] = alphabet[idx.Int64()]
	}
	return string(b), nil
}

// IsWellFormed reports whether key could have been minted by this package.
func IsWellFormed(key string) bool {
	if key == "" || len(key) > maxWellFormedLength {
		return false
	}
	for i := 0; i < len(key); i++ {
		c := key[i]
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z') {
			return false
		}
	}
	return true
}
