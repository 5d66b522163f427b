package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Token sizing. Tokens are random bytes rendered as lowercase hex.
const (
	TokenBytes     = 60
	MaxTokenLength = 256
)

// ErrInvalidTokenFormat indicates the presented token cannot be a valid token.
var ErrInvalidTokenFormat = errors.New("invalid API token format")

// GeneratedToken contains a newly generated API token.
type GeneratedToken struct {
	Plaintext string // Full token (show once only)
	Hash      string // SHA-256 digest for storage and lookup
}

// GenerateAPIToken creates a new random API token.
func GenerateAPIToken() (*GeneratedToken, error) {
	buf := make([]byte, TokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	plaintext := hex.EncodeToString(buf)

	return &GeneratedToken{
		Plaintext: plaintext,
		Hash:      HashToken(plaintext),
	}, nil
}

// NormalizeToken trims the header value and rejects values that no issued
// token could match. Fixture tokens of arbitrary shape are accepted as long as
// they are printable and bounded.
func NormalizeToken(raw string) (string, error) {
	token := strings.TrimSpace(raw)
	if token == "" || len(token) > MaxTokenLength {
		return "", ErrInvalidTokenFormat
	}
	for _, r := range token {
		if r < 0x21 || r > 0x7e {
			return "", ErrInvalidTokenFormat
		}
	}
	return token, nil
}
