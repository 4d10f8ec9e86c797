// Package auth mints and verifies session credentials. Access and refresh
// tokens are HS256 JWTs signed with distinct secrets; only a bcrypt digest of
// the refresh token is ever stored.
package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// Claims is carried by both token types. ProjectID binds the session to the
// tenant it was issued under.
type Claims struct {
	Email     string `json:"email"`
	Role      string `json:"role"`
	ProjectID string `json:"pid"`
	Type      string `json:"typ"`
	jwt.RegisteredClaims
}

func (c *Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

func (c *Claims) Project() (uuid.UUID, error) {
	return uuid.Parse(c.ProjectID)
}

// Subject is the identity a token pair is minted for.
type Subject struct {
	UserID    uuid.UUID
	Email     string
	Role      string
	ProjectID uuid.UUID
}
