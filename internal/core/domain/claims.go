package domain

import (
	"slices"
	"time"
)

// AuthClaims is the verified identity carried by a bearer token. It is
// rebuilt from the token on every request and never persisted.
type AuthClaims struct {
	UserID    int64
	Username  string
	Email     string
	Roles     []Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// HasRole reports whether the claims carry role.
func (c *AuthClaims) HasRole(role Role) bool {
	if c == nil {
		return false
	}
	return slices.Contains(c.Roles, role)
}

// IsAdmin is shorthand for HasRole(RoleAdmin).
func (c *AuthClaims) IsAdmin() bool {
	return c.HasRole(RoleAdmin)
}

// Authorize decides a role-gated operation: the required role must be
// present in the claims. Nil claims are never authorized.
func Authorize(claims *AuthClaims, required Role) bool {
	return claims.HasRole(required)
}

// CanAccess decides an ownership-gated operation on a resource owned by
// ownerID: admins and the owner are allowed, everybody else is not.
func CanAccess(claims *AuthClaims, ownerID int64) bool {
	if claims == nil {
		return false
	}
	return claims.IsAdmin() || claims.UserID == ownerID
}
