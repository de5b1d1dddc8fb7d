package utils

import (
	"crypto/rand"
	"encoding/base64"
)

// GenerateURLToken returns a URL-safe random token built from n random bytes
// (roughly 4/3*n characters). n of 24 or 32 is recommended; invite tokens
// need at least 16 bytes of entropy to stay unguessable.
func GenerateURLToken(n int) (string, error) {
	if n <= 0 {
		n = 24
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	// RawURLEncoding avoids '=' padding and the '+' '/' characters.
	return base64.RawURLEncoding.EncodeToString(b), nil
}
