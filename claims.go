package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the verified subject carried by a credential token
type Identity struct {
	Subject   string    `json:"subject"`
	Role      UserRole  `json:"role"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsAdmin reports whether the identity holds the admin role
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// JWTClaims is the claim set we sign
type JWTClaims struct {
	jwt.RegisteredClaims
	UserRole string `json:"role,omitempty"`
}

// Identity maps the claims to the verified identity
func (c *JWTClaims) Identity() Identity {
	id := Identity{
		Subject: c.Subject,
		Role:    c.UserRole,
	}
	if c.IssuedAt != nil {
		id.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		id.ExpiresAt = c.ExpiresAt.Time
	}
	return id
}
