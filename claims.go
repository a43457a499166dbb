package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims represents structured JWT claims with permission checking
type AuthClaims interface {
	Subject() string
	UserID() string
	Username() string
	Permissions() []string
	HasPermission(name string) bool
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the concrete implementation of AuthClaims
type JWTClaims struct {
	jwt.RegisteredClaims
	UID       string   `json:"uid,omitempty"`
	Uname     string   `json:"username,omitempty"`
	Perms     []string `json:"perms,omitempty"`
	TokenKind string   `json:"kind,omitempty"`
}

// Verify interface compliance
var _ AuthClaims = (*JWTClaims)(nil)

// Subject returns the subject claim
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the user ID
func (c *JWTClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject()
}

// Username returns the username claim
func (c *JWTClaims) Username() string {
	return c.Uname
}

// Permissions returns the permission names carried by the token
func (c *JWTClaims) Permissions() []string {
	return c.Perms
}

// HasPermission checks if the claims carry a named permission. The
// wildcard grant matches every name.
func (c *JWTClaims) HasPermission(name string) bool {
	for _, p := range c.Perms {
		if p == name || p == PermissionWildcard {
			return true
		}
	}
	return false
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

// MissingPermissions computes required − held for a permission set. The
// wildcard grant satisfies any requirement. Order of the input is kept
// so error messages stay stable.
func MissingPermissions(held []string, required []string) []string {
	if len(required) == 0 {
		return nil
	}

	have := make(map[string]struct{}, len(held))
	for _, p := range held {
		if p == PermissionWildcard {
			return nil
		}
		have[p] = struct{}{}
	}

	var missing []string
	for _, r := range required {
		if _, ok := have[r]; !ok {
			missing = append(missing, r)
		}
	}
	return missing
}
