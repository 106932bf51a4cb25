package accounts

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// SubscriptionTier is the account's subscription level
type SubscriptionTier = string

const (
	// TierStarter is the default tier for new accounts
	TierStarter SubscriptionTier = "starter"
	// TierPro is the paid individual tier
	TierPro SubscriptionTier = "pro"
	// TierBusiness is the team tier
	TierBusiness SubscriptionTier = "business"
)

// ParseTier validates a tier string, falling back to starter
func ParseTier(s string) (SubscriptionTier, bool) {
	switch s {
	case TierStarter, TierPro, TierBusiness:
		return s, true
	default:
		return TierStarter, false
	}
}

// Account is the persisted identity and credential record
type Account struct {
	bun.BaseModel     `bun:"table:accounts,alias:acc"`
	ID                uuid.UUID        `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name              string           `bun:"name,notnull" json:"name,omitempty"`
	Email             string           `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordDigest    string           `bun:"password_digest,notnull" json:"-"`
	Subscription      SubscriptionTier `bun:"subscription,notnull" json:"subscription,omitempty"`
	AvatarURL         string           `bun:"avatar_url,notnull" json:"avatar_url,omitempty"`
	SessionToken      string           `bun:"session_token,nullzero" json:"-"`
	VerificationToken string           `bun:"verification_token,nullzero" json:"-"`
	IsVerified        bool             `bun:"is_verified" json:"is_verified,omitempty"`
	CreatedAt         *time.Time       `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt         *time.Time       `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// EnsureTier normalizes an empty subscription to the starter tier
func (a *Account) EnsureTier() {
	if a == nil {
		return
	}
	if _, ok := ParseTier(a.Subscription); a.Subscription == "" || !ok {
		a.Subscription = TierStarter
	}
}

// LoggedIn reports whether the account holds an active session token
func (a *Account) LoggedIn() bool {
	return a != nil && a.SessionToken != ""
}

// Summary is the external-facing read of an account. It never carries digests
// or tokens.
type Summary struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Summarize builds the public view of an account
func Summarize(a *Account) *Summary {
	if a == nil {
		return nil
	}
	return &Summary{Name: a.Name, Email: a.Email}
}
