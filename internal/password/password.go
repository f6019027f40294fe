package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt cost 12 keeps a verify around the 100ms mark on commodity hardware.
const hashCost = 12

// bcrypt ignores input beyond 72 bytes; truncate explicitly so hash and
// verify agree on passwords up to the 128-char request limit.
const maxInputBytes = 72

func Hash(plain string) (string, error) {
	if plain == "" {
		return "", fmt.Errorf("password must not be empty")
	}
	hashed, err := bcrypt.GenerateFromPassword(truncate(plain), hashCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify is constant-time on the underlying comparison.
func Verify(plain, hashed string) bool {
	if plain == "" || hashed == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hashed), truncate(plain)) == nil
}

func truncate(plain string) []byte {
	b := []byte(plain)
	if len(b) > maxInputBytes {
		b = b[:maxInputBytes]
	}
	return b
}
