package accounts

import (
	"context"
	"errors"
	"fmt"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsDuplicateKeyError(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil", nil, false},
		{"sqlite unique violation", errors.New("constraint failed: UNIQUE constraint failed: accounts.email (2067)"), true},
		{"postgres duplicate key", errors.New(`ERROR: duplicate key value violates unique constraint "accounts_email_key"`), true},
		{"postgres sqlstate", fmt.Errorf("ERROR: something went wrong (SQLSTATE %s)", pgerrcode.UniqueViolation), true},
		{"unrelated error", errors.New("connection reset by peer"), false},
		{"not null violation", errors.New("ERROR: null value in column (SQLSTATE 23502)"), false},
		{
			"classified duplicate with sanitized message",
			goerrors.New("An unexpected error occurred.", repository.CategoryDatabaseDuplicate),
			true,
		},
		{
			"sanitized message with driver source",
			goerrors.Wrap(
				errors.New("constraint failed: UNIQUE constraint failed: accounts.email (2067)"),
				goerrors.CategoryOperation,
				"An unexpected error occurred.",
			),
			true,
		},
		{
			"sanitized message with unrelated source",
			goerrors.Wrap(
				errors.New("database is locked"),
				goerrors.CategoryOperation,
				"An unexpected error occurred.",
			),
			false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, IsDuplicateKeyError(tc.err))
		})
	}
}

func TestPrepareAccountDefaults(t *testing.T) {
	record := &Account{Email: "pepe@example.com"}
	prepareAccountDefaults(record)

	assert.Equal(t, TierStarter, record.Subscription)
	assert.Equal(t, DefaultAvatarURL("pepe@example.com"), record.AvatarURL)
	assert.NotEqual(t, uuid.Nil, record.ID)

	t.Run("preserves explicit values", func(t *testing.T) {
		id := uuid.New()
		record := &Account{
			ID:           id,
			Email:        "pepe@example.com",
			Subscription: TierPro,
			AvatarURL:    "avatars/custom.png",
		}
		prepareAccountDefaults(record)

		assert.Equal(t, id, record.ID)
		assert.Equal(t, TierPro, record.Subscription)
		assert.Equal(t, "avatars/custom.png", record.AvatarURL)
	})

	t.Run("nil record", func(t *testing.T) {
		assert.NotPanics(t, func() { prepareAccountDefaults(nil) })
	})
}

func TestAccountsRepo_EmptyTokenGuards(t *testing.T) {
	repo := &accountsRepo{}

	t.Run("lookup with empty token is never a match", func(t *testing.T) {
		_, err := repo.GetByVerificationTokenTx(context.Background(), nil, "")
		require.Error(t, err)
		assert.True(t, repository.IsRecordNotFound(err))

		_, err = repo.GetByVerificationTokenTx(context.Background(), nil, "   ")
		require.Error(t, err)
		assert.True(t, repository.IsRecordNotFound(err))
	})

	t.Run("verify with empty token is not found", func(t *testing.T) {
		err := repo.MarkVerifiedTx(context.Background(), nil, "")
		assert.ErrorIs(t, err, ErrVerificationNotFound)
	})
}
