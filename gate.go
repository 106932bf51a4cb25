package accounts

import (
	"context"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
)

// Gate is the authorization boundary for bearer session tokens. Beyond
// signature and expiry checks it confirms the presented token still matches
// the account's stored session, so logout revokes tokens server-side.
type Gate struct {
	accounts  Accounts
	validator TokenValidator
	cfg       Config
	logger    Logger
}

// NewGate returns a Gate validating with the given TokenValidator
func NewGate(accounts Accounts, validator TokenValidator, cfg Config) *Gate {
	return &Gate{
		accounts:  accounts,
		validator: validator,
		cfg:       cfg,
		logger:    defLogger{},
	}
}

func (g *Gate) WithLogger(logger Logger) *Gate {
	if logger != nil {
		g.logger = logger
	}
	return g
}

// Authorize validates the raw token and returns the bound account. Any
// mismatch, expiry, revocation, or missing token fails as unauthorized.
func (g *Gate) Authorize(ctx context.Context, raw string) (*Account, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrTokenMalformed
	}

	claims, err := g.validator.Validate(raw)
	if err != nil {
		if IsTokenExpiredError(err) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenMalformed
	}

	account, err := g.accounts.GetByID(ctx, claims.UserID())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			g.logger.Debug("gate rejected token for unknown account", "account", claims.UserID())
			return nil, ErrTokenRevoked
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load account during authorization")
	}

	// a verified-but-revoked token must be rejected
	if account.SessionToken != raw {
		g.logger.Debug("gate rejected revoked token", "account", account.ID.String())
		return nil, ErrTokenRevoked
	}

	return account, nil
}

// SessionFromToken validates raw and builds a Session from its claims without
// the revocation check. Use Authorize for request authorization.
func (g *Gate) SessionFromToken(raw string) (Session, error) {
	claims, err := g.validator.Validate(raw)
	if err != nil {
		return nil, err
	}
	return SessionFromClaims(claims)
}

// ProtectedRoute returns middleware that authorizes the bearer token and
// stores the account under the configured context key.
func (g *Gate) ProtectedRoute(errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	if errorHandler == nil {
		errorHandler = defaultGateErrorHandler
	}

	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			raw, err := ExtractBearerToken(ctx, g.cfg.GetAuthScheme())
			if err != nil {
				return errorHandler(ctx, err)
			}

			account, err := g.Authorize(ctx.Context(), raw)
			if err != nil {
				return errorHandler(ctx, err)
			}

			ctx.Locals(g.cfg.GetContextKey(), account)
			ctx.SetContext(WithContext(ctx.Context(), account))

			return ctx.Next()
		}
	}
}

// ExtractBearerToken pulls the raw token from the Authorization header
func ExtractBearerToken(ctx router.Context, authScheme string) (string, error) {
	header := ctx.GetString(router.HeaderAuthorization, "")
	if header == "" {
		return "", ErrTokenMalformed
	}

	if authScheme == "" {
		return header, nil
	}

	prefix := authScheme + " "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", ErrTokenMalformed
	}

	return strings.TrimSpace(header[len(prefix):]), nil
}

func defaultGateErrorHandler(ctx router.Context, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryAuth, "not authorized").
			WithCode(goerrors.CodeUnauthorized)
	}

	code := richErr.Code
	if code == 0 {
		code = goerrors.CodeUnauthorized
	}

	return ctx.JSON(code, map[string]any{
		"message": richErr.Message,
	})
}
