package accounts

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AuthClaims represents structured session token claims
type AuthClaims interface {
	Subject() string
	UserID() string
	Tier() string
	Expires() time.Time
	IssuedAt() time.Time
}

// AccountClaims is the concrete implementation of AuthClaims
type AccountClaims struct {
	jwt.RegisteredClaims
	UID          string `json:"uid,omitempty"`
	Subscription string `json:"tier,omitempty"`
}

var _ AuthClaims = (*AccountClaims)(nil)

// Subject returns the subject claim
func (c *AccountClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the bound account id
func (c *AccountClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject()
}

// Tier returns the subscription tier carried by the token
func (c *AccountClaims) Tier() string {
	return c.Subscription
}

// Expires returns the expiration time, zero when absent
func (c *AccountClaims) Expires() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// IssuedAt returns the issuance time, zero when absent
func (c *AccountClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt == nil {
		return time.Time{}
	}
	return c.RegisteredClaims.IssuedAt.Time
}

// ensureTokenID assigns a random jti so two tokens minted in the same second
// for the same account still differ.
func ensureTokenID(claims *jwt.RegisteredClaims) {
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}
}
