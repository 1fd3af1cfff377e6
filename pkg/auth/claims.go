// Package auth provides JWT-based authentication for ezirisk-engine.
// It validates bearer tokens issued by the central identity service against
// configured JWKS endpoints.
package auth

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// ClaimsKey is the context key for storing JWT claims.
	ClaimsKey contextKey = "claims"
	// TokenKey is the context key for storing the raw JWT token string.
	TokenKey contextKey = "token"
)

// Claims is the JWT claims structure issued by the identity service. It
// embeds RegisteredClaims for standard fields (sub, iss, exp) and adds the
// organisation context.
type Claims struct {
	jwt.RegisteredClaims
	OrgID string   `json:"oid,omitempty"`   // Organisation UUID
	Email string   `json:"email,omitempty"` // User email address
	Roles []string `json:"roles,omitempty"` // User roles within the organisation
}

// GetClaims retrieves JWT claims from the request context.
// Returns nil and false if claims are not present.
func GetClaims(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*Claims)
	return claims, ok
}

// GetToken retrieves the raw JWT token string from the request context.
func GetToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(TokenKey).(string)
	return token, ok
}

// ExtractClaimsFromContext extracts organisation ID and user ID from JWT
// claims in context. Returns an error if not authenticated.
func ExtractClaimsFromContext(ctx context.Context) (uuid.UUID, uuid.UUID, error) {
	claims, ok := GetClaims(ctx)
	if !ok || claims == nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("authentication required: no claims in context")
	}

	if claims.OrgID == "" {
		return uuid.Nil, uuid.Nil, fmt.Errorf("missing organisation ID in JWT claims")
	}

	orgID, err := uuid.Parse(claims.OrgID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("invalid organisation ID format: %w", err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("invalid user ID format: %w", err)
	}

	return orgID, userID, nil
}

// HasRole reports whether the claims carry the given role.
func (c *Claims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}
