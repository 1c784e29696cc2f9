package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
)

// AdminTokenPrefix marks staycal admin session tokens so they are easy to
// spot in logs and secret scanners.
const AdminTokenPrefix = "stc_"

const minTokenBytes = 16

// RandomTokenGenerator issues admin session tokens: AdminTokenPrefix followed
// by Size random bytes in unpadded URL-safe base64. Sizes below 16 bytes are
// raised to 16.
type RandomTokenGenerator struct {
	Size int
	// Entropy defaults to crypto/rand.
	Entropy io.Reader
}

func (g RandomTokenGenerator) NewToken() (string, error) {
	size := g.Size
	switch {
	case size <= 0:
		size = 32
	case size < minTokenBytes:
		size = minTokenBytes
	}
	entropy := g.Entropy
	if entropy == nil {
		entropy = rand.Reader
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(entropy, buf); err != nil {
		return "", fmt.Errorf("security: read token entropy: %w", err)
	}
	return AdminTokenPrefix + base64.RawURLEncoding.EncodeToString(buf), nil
}
