package common

import (
	"crypto/rand"
	"encoding/hex"
)

// MakeRandHexString generates a cryptographically secure random hexadecimal
// string from size random bytes. The resulting string is twice as long as
// size, since each byte encodes as two hex characters.
//
// It returns an error if the random number generator fails.
func MakeRandHexString(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GenerateRandByteArray returns size cryptographically secure random bytes.
// crypto/rand.Read never fails on supported platforms, so the error is
// intentionally dropped.
func GenerateRandByteArray(size int) []byte {
	b := make([]byte, size)
	_, _ = rand.Read(b)
	return b
}
