// Package password is the only place in the server allowed to see plaintext
// passwords. It wraps bcrypt: the salt is embedded in the produced hash and
// comparison is constant-time, so no separate salt storage or manual
// comparison is needed.
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used when the configured cost is
// out of range.
const DefaultCost = 12

// Hash returns the bcrypt hash of plaintext at the given cost.
func Hash(plaintext string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt hash: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether plaintext matches the bcrypt hash.
func Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
