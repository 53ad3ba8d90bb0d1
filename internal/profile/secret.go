package profile

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const secretByteLength = 32

// NewSecret returns a URL-safe random token suitable for use in postback
// query strings.
func NewSecret() (string, error) {
	buf := make([]byte, secretByteLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
