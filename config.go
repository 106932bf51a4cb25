package accounts

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// SimpleConfig is a plain Config implementation. Values are injected at
// construction time; nothing reads the environment at call time.
type SimpleConfig struct {
	SigningKey          string        `env:"ACCOUNTS_SIGNING_KEY"`
	TokenTTL            time.Duration `env:"ACCOUNTS_TOKEN_TTL" envDefault:"1h"`
	Issuer              string        `env:"ACCOUNTS_ISSUER"`
	Audience            []string      `env:"ACCOUNTS_AUDIENCE" envSeparator:","`
	ContextKey          string        `env:"ACCOUNTS_CONTEXT_KEY" envDefault:"account"`
	AuthScheme          string        `env:"ACCOUNTS_AUTH_SCHEME" envDefault:"Bearer"`
	VerificationBaseURL string        `env:"ACCOUNTS_VERIFICATION_BASE_URL" envDefault:"http://localhost:3000/api/auth/verify"`
	MailFrom            string        `env:"ACCOUNTS_MAIL_FROM" envDefault:"no-reply@localhost"`
}

// ConfigFromEnv loads a SimpleConfig once from the process environment.
func ConfigFromEnv() (*SimpleConfig, error) {
	cfg := &SimpleConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *SimpleConfig) GetSigningKey() string { return c.SigningKey }

func (c *SimpleConfig) GetTokenTTL() time.Duration {
	if c.TokenTTL <= 0 {
		return time.Hour
	}
	return c.TokenTTL
}

func (c *SimpleConfig) GetIssuer() string { return c.Issuer }

func (c *SimpleConfig) GetAudience() []string { return c.Audience }

func (c *SimpleConfig) GetContextKey() string {
	if c.ContextKey == "" {
		return "account"
	}
	return c.ContextKey
}

func (c *SimpleConfig) GetAuthScheme() string {
	if c.AuthScheme == "" {
		return "Bearer"
	}
	return c.AuthScheme
}

func (c *SimpleConfig) GetVerificationBaseURL() string { return c.VerificationBaseURL }

func (c *SimpleConfig) GetMailFrom() string { return c.MailFrom }

var _ Config = (*SimpleConfig)(nil)
