// Package auth inspects member-node bearer tokens. Coordinating nodes
// issue JWTs; the adapter does not verify signatures (that is the node's
// concern on the receiving side) but decodes claims to surface the subject
// identity and warn about expired tokens before a long run starts.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dverbeek84/oaibridge/internal/common"
)

// TokenInfo is the subset of claims the adapter cares about.
type TokenInfo struct {
	Subject   string
	ExpiresAt time.Time
}

// ParseToken decodes a JWT without verifying its signature. A token that
// is not structurally a JWT yields common.ErrInvalidToken.
func ParseToken(tokenString string) (*TokenInfo, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()

	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	info := &TokenInfo{}
	if sub, err := claims.GetSubject(); err == nil {
		info.Subject = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time
	}
	return info, nil
}

// Expired reports whether the token's expiry has passed. Tokens without an
// exp claim never expire from the adapter's point of view.
func (t *TokenInfo) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && now.After(t.ExpiresAt)
}
