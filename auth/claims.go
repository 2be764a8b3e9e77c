package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the signed payload. It is built once by NewClaims and never
// mutated afterwards, a new session is always a new Claims value.
type Claims struct {
	jwt.RegisteredClaims
	// Name is the username, only present for sessions minted after a
	// credential check.
	Name string `json:"name,omitempty"`
}

// Verify interface compliance
var (
	_ Identity   = (*Claims)(nil)
	_ jwt.Claims = (*Claims)(nil)
)

// NewClaims mints claims valid in [issuedAt, issuedAt+ttl).
// Timestamps are truncated to whole seconds, the precision of the
// encoded token.
func NewClaims(subject, displayName string, issuedAt time.Time, ttl time.Duration) *Claims {
	iat := issuedAt.Truncate(time.Second)
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(iat.Add(ttl)),
		},
		Name: displayName,
	}
}

// Subject returns the subject claim
func (c *Claims) Subject() string {
	return c.RegisteredClaims.Subject
}

// DisplayName returns the denormalized username, empty for anonymous sessions
func (c *Claims) DisplayName() string {
	return c.Name
}

// IsAnonymous reports whether the session was minted without a credential check
func (c *Claims) IsAnonymous() bool {
	return c.Name == ""
}

// Expires returns the expiration time
func (c *Claims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *Claims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

// IsValid checks the time window only: issuedAt <= now < expiresAt.
// Signature checks belong to the TokenService.
func (c *Claims) IsValid(now time.Time) bool {
	if c == nil || c.RegisteredClaims.IssuedAt == nil || c.RegisteredClaims.ExpiresAt == nil {
		return false
	}
	return !now.Before(c.IssuedAt()) && now.Before(c.Expires())
}

// Equal compares every field of both claims
func (c *Claims) Equal(other *Claims) bool {
	if c == nil || other == nil {
		return c == other
	}

	if c.Subject() != other.Subject() ||
		c.Name != other.Name ||
		c.Issuer != other.Issuer ||
		c.ID != other.ID {
		return false
	}

	if len(c.Audience) != len(other.Audience) {
		return false
	}
	for i := range c.Audience {
		if c.Audience[i] != other.Audience[i] {
			return false
		}
	}

	return equalDate(c.RegisteredClaims.IssuedAt, other.RegisteredClaims.IssuedAt) &&
		equalDate(c.RegisteredClaims.ExpiresAt, other.RegisteredClaims.ExpiresAt) &&
		equalDate(c.RegisteredClaims.NotBefore, other.RegisteredClaims.NotBefore)
}

func equalDate(a, b *jwt.NumericDate) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Time.Equal(b.Time)
}
