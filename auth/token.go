// Package auth is the boundary to the identity provider: it resolves a
// bearer token to a stable user ID and carries the resolved user on the
// request context. Everything else about accounts lives elsewhere.
package auth

import (
	"fmt"
	"time"

	"github.com/hako/branca"
)

// Codec issues and verifies branca tokens whose payload is the user ID.
type Codec struct {
	branca *branca.Branca
}

// NewCodec requires a 32 byte key.
func NewCodec(key string, ttl time.Duration) (*Codec, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("branca key must be exactly 32 bytes, got %d", len(key))
	}

	b := branca.NewBranca(key)
	b.SetTTL(uint32(ttl.Seconds()))

	return &Codec{branca: b}, nil
}

func (c *Codec) IssueToken(userID string) (string, error) {
	token, err := c.branca.EncodeToString(userID)
	if err != nil {
		return "", fmt.Errorf("branca encode token: %w", err)
	}
	return token, nil
}

func (c *Codec) VerifyToken(token string) (string, error) {
	userID, err := c.branca.DecodeToString(token)
	if err != nil {
		return "", fmt.Errorf("branca decode token: %w", err)
	}
	return userID, nil
}
