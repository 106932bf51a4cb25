package accounts

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Manager orchestrates the account lifecycle: signup, email verification,
// login, logout, current-session reads, and avatar updates. Collaborators are
// injected at construction; a nil Mailer disables the verification capability
// and a nil AvatarStore disables avatar updates.
type Manager struct {
	repo    RepositoryManager
	cfg     Config
	hasher  PasswordAuthenticator
	tokens  TokenService
	minter  VerificationTokens
	mailer  Mailer
	avatars AvatarStore
	logger  Logger
}

// NewManager returns a Manager with the default bcrypt hasher and JWT token
// service built from cfg.
func NewManager(repo RepositoryManager, cfg Config) *Manager {
	tokens := NewTokenService(
		[]byte(cfg.GetSigningKey()),
		cfg.GetTokenTTL(),
		cfg.GetIssuer(),
		cfg.GetAudience(),
		defLogger{},
	)

	return &Manager{
		repo:   repo,
		cfg:    cfg,
		hasher: BcryptHasher{},
		tokens: tokens,
		minter: UUIDVerificationTokens{},
		logger: defLogger{},
	}
}

func (m *Manager) WithLogger(logger Logger) *Manager {
	if logger != nil {
		m.logger = logger
	}
	return m
}

// WithHasher swaps the password hashing capability
func (m *Manager) WithHasher(hasher PasswordAuthenticator) *Manager {
	if hasher != nil {
		m.hasher = hasher
	}
	return m
}

// WithTokenService swaps the session token capability
func (m *Manager) WithTokenService(tokens TokenService) *Manager {
	if tokens != nil {
		m.tokens = tokens
	}
	return m
}

// WithVerificationTokens swaps the verification token minting capability
func (m *Manager) WithVerificationTokens(minter VerificationTokens) *Manager {
	if minter != nil {
		m.minter = minter
	}
	return m
}

// WithMailer enables the email verification capability
func (m *Manager) WithMailer(mailer Mailer) *Manager {
	m.mailer = mailer
	return m
}

// WithAvatarStore enables the avatar update capability
func (m *Manager) WithAvatarStore(store AvatarStore) *Manager {
	m.avatars = store
	return m
}

// TokenService returns the TokenService instance used by this Manager
func (m *Manager) TokenService() TokenService {
	return m.tokens
}

// VerificationEnabled reports whether email verification gating is active
func (m *Manager) VerificationEnabled() bool {
	return m.mailer != nil
}

// RegisterAccountMessage is the signup payload
type RegisterAccountMessage struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	// UseHashid derives the account id deterministically from the email
	UseHashid bool `json:"-"`
}

func (e RegisterAccountMessage) Type() string { return "account.register" }

// Validate will run validation rules
func (e RegisterAccountMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Name, validation.Required),
		validation.Field(&e.Email, validation.Required, is.Email),
		validation.Field(&e.Password, validation.Required, validation.Length(6, 100)),
	)
}

// Register creates a new unverified account, assigns the default avatar,
// mints a verification token, and triggers the verification email. The mail
// dispatch is out of band: a delivery failure is logged and reported through
// the returned account state, never by rolling back the write.
func (m *Manager) Register(ctx context.Context, msg RegisterAccountMessage) (*Summary, error) {
	if err := msg.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid registration payload").
			WithCode(goerrors.CodeBadRequest)
	}

	digest, err := m.hasher.HashPassword(msg.Password)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	account := &Account{
		Name:           msg.Name,
		Email:          msg.Email,
		PasswordDigest: digest,
		AvatarURL:      DefaultAvatarURL(msg.Email),
	}

	if msg.UseHashid {
		if id, err := hashid.NewUUID(msg.Email); err == nil {
			account.ID = id
		}
	}

	if m.VerificationEnabled() {
		account.VerificationToken = m.minter.Mint()
	} else {
		account.IsVerified = true
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err = m.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		created, err := m.repo.Accounts().RegisterTx(ctx, tx, account)
		if err != nil {
			return err
		}
		account = created
		return nil
	})

	if err != nil {
		if goerrors.Is(err, ErrEmailInUse) {
			return nil, ErrEmailInUse
		}
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "account registration failed")
	}

	if m.VerificationEnabled() {
		mail := VerificationMail(m.cfg, account.Email, account.VerificationToken)
		if err := m.mailer.Send(ctx, mail); err != nil {
			// the account write already happened; a transient mail failure is
			// reportable, not fatal
			m.logger.Warn("verification mail dispatch failed", "email", account.Email, "error", err)
		}
	}

	return Summarize(account), nil
}

// ConfirmVerification marks the matching account verified and spends the
// token. A token that matches no account, including one already spent, fails
// with not found.
func (m *Manager) ConfirmVerification(ctx context.Context, token string) error {
	if !m.VerificationEnabled() {
		return ErrVerificationDisabled
	}

	if err := m.repo.Accounts().MarkVerified(ctx, token); err != nil {
		if goerrors.Is(err, ErrVerificationNotFound) || repository.IsRecordNotFound(err) {
			return ErrVerificationNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to confirm verification")
	}

	return nil
}

// ResendVerification re-sends the existing verification token. The token does
// not rotate on resend.
func (m *Manager) ResendVerification(ctx context.Context, email string) error {
	if !m.VerificationEnabled() {
		return ErrVerificationDisabled
	}

	account, err := m.repo.Accounts().GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrAccountNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load account for resend")
	}

	if account.IsVerified {
		return ErrAlreadyVerified
	}

	mail := VerificationMail(m.cfg, account.Email, account.VerificationToken)
	if err := m.mailer.Send(ctx, mail); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to send verification mail")
	}

	return nil
}

// Login verifies credentials, enforces the verification gate, and issues a
// session token persisted as the account's active session. Unknown email and
// wrong password are indistinguishable to the caller.
func (m *Manager) Login(ctx context.Context, email, password string) (string, error) {
	account, err := m.repo.Accounts().GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return "", ErrInvalidCredentials
		}
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load account during login")
	}

	if err := m.hasher.ComparePasswordAndHash(password, account.PasswordDigest); err != nil {
		return "", ErrInvalidCredentials
	}

	if m.VerificationEnabled() && !account.IsVerified {
		return "", ErrAccountNotVerified
	}

	token, err := m.tokens.Issue(account.ID, account.Subscription)
	if err != nil {
		m.logger.Error("session token issuance failed", "account", account.ID.String(), "error", err)
		return "", err
	}

	if err := m.repo.Accounts().SetSessionToken(ctx, account.ID, token); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist session token")
	}

	return token, nil
}

// Logout clears the account's active session token, revoking it server-side
// before its natural expiry.
func (m *Manager) Logout(ctx context.Context, accountID uuid.UUID) error {
	if err := m.repo.Accounts().ClearSessionToken(ctx, accountID); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to clear session token")
	}
	return nil
}

// CurrentAccount is a pure read of the authenticated account's public fields
func (m *Manager) CurrentAccount(ctx context.Context, accountID uuid.UUID) (*Summary, error) {
	account, err := m.repo.Accounts().GetByID(ctx, accountID.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load account")
	}

	return Summarize(account), nil
}

// UpdateAvatar finalizes the staged asset and records its URL. The account
// record is touched only after the asset move succeeds.
func (m *Manager) UpdateAvatar(ctx context.Context, accountID uuid.UUID, asset Asset) (string, error) {
	if m.avatars == nil {
		return "", ErrAvatarsDisabled
	}

	avatarURL, err := m.avatars.Put(ctx, accountID, asset)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return "", richErr
		}
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to store avatar")
	}

	if err := m.repo.Accounts().SetAvatarURL(ctx, accountID, avatarURL); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to record avatar URL")
	}

	return avatarURL, nil
}
