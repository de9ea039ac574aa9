package httputil

import (
	"crypto/rand"
	"encoding/base64"
)

// GenerateNonce returns a fresh CSP nonce, or "" if the system RNG fails.
// The nonce only appears in the Content-Security-Policy header; nothing is
// rendered server-side that would need to read it back.
func GenerateNonce() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
