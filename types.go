package accounts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Session holds attributes that are part of an authenticated session
type Session interface {
	GetUserID() string
	GetUserUUID() (uuid.UUID, error)
	GetIssuer() string
	GetIssuedAt() *time.Time
	GetData() map[string]any
}

// Config holds account service options
type Config interface {
	GetSigningKey() string
	GetTokenTTL() time.Duration
	GetIssuer() string
	GetAudience() []string
	GetContextKey() string
	GetAuthScheme() string
	GetVerificationBaseURL() string
	GetMailFrom() string
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

// TokenService signs and validates session tokens
type TokenService interface {
	Issue(accountID uuid.UUID, tier SubscriptionTier) (string, error)
	SignClaims(claims *AccountClaims) (string, error)
	Validate(tokenString string) (AuthClaims, error)
}

// TokenValidator validates tokens and extracts claims without tying callers
// to a specific signing implementation.
type TokenValidator interface {
	Validate(tokenString string) (AuthClaims, error)
}

// VerificationTokens mints the opaque, single-use tokens that prove control
// over a registered email address.
type VerificationTokens interface {
	Mint() string
}

// Message is an outbound email
type Message struct {
	To      string
	From    string
	Subject string
	HTML    string
}

// Mailer delivers verification messages out of band
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Asset is an uploaded avatar file waiting to be finalized
type Asset struct {
	// TempPath is where the upload plumbing staged the file
	TempPath string
	// OriginalName is the client-provided filename, used only for its extension
	OriginalName string
}

// AvatarStore persists avatar assets and returns their public URL
type AvatarStore interface {
	Put(ctx context.Context, accountID uuid.UUID, asset Asset) (string, error)
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] ACCOUNTS "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] ACCOUNTS "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] ACCOUNTS "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] ACCOUNTS "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
