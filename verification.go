package accounts

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// UUIDVerificationTokens mints opaque verification tokens backed by random
// UUIDs, which are unguessable and collision resistant.
type UUIDVerificationTokens struct{}

func (UUIDVerificationTokens) Mint() string {
	return uuid.NewString()
}

var _ VerificationTokens = UUIDVerificationTokens{}

// VerificationMail builds the outbound confirmation message for a freshly
// minted or re-sent verification token.
func VerificationMail(cfg Config, to, token string) Message {
	link := verificationLink(cfg.GetVerificationBaseURL(), token)
	return Message{
		To:      to,
		From:    cfg.GetMailFrom(),
		Subject: "Prove your email",
		HTML:    fmt.Sprintf(`<a target="_blank" href=%q>Press here to confirm your email</a>`, link),
	}
}

func verificationLink(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + "/" + token
}

// LoggerMailer records outbound mail through the logger instead of delivering
// it. It is the default collaborator for local development and tests.
type LoggerMailer struct {
	logger Logger
}

func NewLoggerMailer(logger Logger) *LoggerMailer {
	if logger == nil {
		logger = defLogger{}
	}
	return &LoggerMailer{logger: logger}
}

func (m *LoggerMailer) Send(ctx context.Context, msg Message) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	m.logger.Info("outbound mail", "to", msg.To, "subject", msg.Subject)
	return nil
}

var _ Mailer = (*LoggerMailer)(nil)

// MailerFunc adapts a function into a Mailer
type MailerFunc func(ctx context.Context, msg Message) error

func (f MailerFunc) Send(ctx context.Context, msg Message) error {
	if f == nil {
		return nil
	}
	return f(ctx, msg)
}
