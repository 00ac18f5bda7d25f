package jwt

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/go-jose/go-jose/v4"
)

// MinSecretLength is the shortest HS256 secret accepted, in bytes.
const MinSecretLength = 32

// SigningKey is the process-wide HMAC key used for session tokens.
type SigningKey struct {
	KID       string
	Secret    []byte
	Algorithm jose.SignatureAlgorithm
}

// NewSigningKey derives an HS256 signing key from the configured secret.
// The key id is a digest prefix so rotated secrets get distinct ids.
func NewSigningKey(secret string) (SigningKey, error) {
	if len(secret) < MinSecretLength {
		return SigningKey{}, fmt.Errorf("jwt secret must be at least %d bytes, got %d", MinSecretLength, len(secret))
	}
	sum := sha256.Sum256([]byte(secret))
	return SigningKey{
		KID:       hex.EncodeToString(sum[:8]),
		Secret:    []byte(secret),
		Algorithm: jose.HS256,
	}, nil
}
