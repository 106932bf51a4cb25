package accounts

import (
	"context"
	stderrors "errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/uptrace/bun"
)

// MarkAccountVerifiedSQL clears the verification token in the same statement
// that flips the flag. Spent tokens are NULLed, so a second confirmation with
// the same token can never match again.
var MarkAccountVerifiedSQL = `UPDATE "accounts" AS "acc"
SET
	"is_verified" = TRUE,
	"verification_token" = NULL
WHERE
	"acc"."verification_token" = ?
RETURNING *;`

// Accounts is the credential store surface the Manager and Gate consume. The
// concrete implementation embeds the generic bun repository; the interface
// declares only what callers use so tests can substitute in-memory fakes.
type Accounts interface {
	GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*Account, error)

	Register(ctx context.Context, account *Account) (*Account, error)
	RegisterTx(ctx context.Context, tx bun.IDB, account *Account) (*Account, error)

	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Account, error)
	GetByVerificationToken(ctx context.Context, token string) (*Account, error)
	GetByVerificationTokenTx(ctx context.Context, tx bun.IDB, token string) (*Account, error)

	MarkVerified(ctx context.Context, token string) error
	MarkVerifiedTx(ctx context.Context, tx bun.IDB, token string) error

	SetSessionToken(ctx context.Context, id uuid.UUID, token string) error
	SetSessionTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID, token string) error
	ClearSessionToken(ctx context.Context, id uuid.UUID) error
	ClearSessionTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error

	SetAvatarURL(ctx context.Context, id uuid.UUID, avatarURL string) error
	SetAvatarURLTx(ctx context.Context, tx bun.IDB, id uuid.UUID, avatarURL string) error
}

type accountsRepo struct {
	repository.Repository[*Account]
	db *bun.DB
}

var (
	_ Accounts                        = (*accountsRepo)(nil)
	_ repository.Repository[*Account] = (*accountsRepo)(nil)
)

func NewAccountsRepository(db *bun.DB) Accounts {
	repo := repository.NewRepository[*Account](db, repository.ModelHandlers[*Account]{
		NewRecord: func() *Account { return &Account{} },
		GetID: func(a *Account) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Account, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &accountsRepo{
		Repository: repo,
		db:         db,
	}
}

func (a *accountsRepo) Register(ctx context.Context, account *Account) (*Account, error) {
	return a.RegisterTx(ctx, a.db, account)
}

// RegisterTx inserts the record and lets the store's unique constraint be the
// authority on duplicate emails.
func (a *accountsRepo) RegisterTx(ctx context.Context, tx bun.IDB, account *Account) (*Account, error) {
	prepareAccountDefaults(account)

	record, err := a.Repository.CreateTx(ctx, tx, account)
	if err != nil {
		if IsDuplicateKeyError(err) {
			return nil, ErrEmailInUse
		}
		return nil, err
	}

	return record, nil
}

func (a *accountsRepo) GetByEmail(ctx context.Context, email string) (*Account, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *accountsRepo) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Account, error) {
	return a.getByColumn(ctx, tx, "email", email)
}

func (a *accountsRepo) GetByVerificationToken(ctx context.Context, token string) (*Account, error) {
	return a.GetByVerificationTokenTx(ctx, a.db, token)
}

func (a *accountsRepo) GetByVerificationTokenTx(ctx context.Context, tx bun.IDB, token string) (*Account, error) {
	// a cleared token is stored as NULL; never let the empty string match it
	if strings.TrimSpace(token) == "" {
		return nil, repository.NewRecordNotFound()
	}
	return a.getByColumn(ctx, tx, "verification_token", token)
}

func (a *accountsRepo) getByColumn(ctx context.Context, tx bun.IDB, column, value string) (*Account, error) {
	record := &Account{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias."+column+" = ?", value).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{column: value})
		}
		return nil, err
	}

	return record, nil
}

func (a *accountsRepo) MarkVerified(ctx context.Context, token string) error {
	return a.MarkVerifiedTx(ctx, a.db, token)
}

func (a *accountsRepo) MarkVerifiedTx(ctx context.Context, tx bun.IDB, token string) error {
	if strings.TrimSpace(token) == "" {
		return ErrVerificationNotFound
	}

	res, err := a.Repository.RawTx(ctx, tx, MarkAccountVerifiedSQL, token)
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return ErrVerificationNotFound
	}

	return nil
}

func (a *accountsRepo) SetSessionToken(ctx context.Context, id uuid.UUID, token string) error {
	return a.SetSessionTokenTx(ctx, a.db, id, token)
}

// SetSessionTokenTx overwrites the active session for the account. Concurrent
// logins race here and the last write wins.
func (a *accountsRepo) SetSessionTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID, token string) error {
	_, err := tx.NewUpdate().
		Model((*Account)(nil)).
		Set("session_token = ?", token).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)

	return err
}

func (a *accountsRepo) ClearSessionToken(ctx context.Context, id uuid.UUID) error {
	return a.ClearSessionTokenTx(ctx, a.db, id)
}

func (a *accountsRepo) ClearSessionTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	_, err := tx.NewUpdate().
		Model((*Account)(nil)).
		Set("session_token = NULL").
		Where("?TableAlias.id = ?", id).
		Exec(ctx)

	return err
}

func (a *accountsRepo) SetAvatarURL(ctx context.Context, id uuid.UUID, avatarURL string) error {
	return a.SetAvatarURLTx(ctx, a.db, id, avatarURL)
}

func (a *accountsRepo) SetAvatarURLTx(ctx context.Context, tx bun.IDB, id uuid.UUID, avatarURL string) error {
	_, err := tx.NewUpdate().
		Model((*Account)(nil)).
		Set("avatar_url = ?", avatarURL).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)

	return err
}

func prepareAccountDefaults(record *Account) {
	if record == nil {
		return
	}

	record.EnsureTier()

	if record.AvatarURL == "" {
		record.AvatarURL = DefaultAvatarURL(record.Email)
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}

// IsDuplicateKeyError reports whether err is the store's unique constraint
// violation, across the sqlite and postgres drivers bun runs on. The generic
// repository classifies driver errors and sanitizes their messages, so the
// classified category is checked first and the raw driver text is only
// reachable by walking the unwrap chain down to the source error.
func IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.Category == repository.CategoryDatabaseDuplicate {
		return true
	}

	for e := err; e != nil; e = stderrors.Unwrap(e) {
		msg := e.Error()
		if strings.Contains(msg, "UNIQUE constraint failed") ||
			strings.Contains(msg, "duplicate key value") ||
			strings.Contains(msg, "SQLSTATE "+pgerrcode.UniqueViolation) ||
			strings.Contains(msg, "SQLSTATE="+pgerrcode.UniqueViolation) {
			return true
		}
	}

	return false
}
