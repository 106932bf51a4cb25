package accounts_test

import (
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-accounts"
)

func TestHashPassword(t *testing.T) {
	digest, err := accounts.HashPassword("sekrit-pass")
	require.NoError(t, err)

	assert.NotEmpty(t, digest)
	assert.NotEqual(t, "sekrit-pass", digest)
}

func TestHashPassword_EmptyPassword(t *testing.T) {
	_, err := accounts.HashPassword("")
	assert.True(t, goerrors.Is(err, accounts.ErrNoEmptyString))
}

func TestHashPassword_SaltedDigests(t *testing.T) {
	first, err := accounts.HashPassword("shared-pass")
	require.NoError(t, err)
	second, err := accounts.HashPassword("shared-pass")
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "equal passwords must not share a digest")
}

func TestComparePasswordAndHash(t *testing.T) {
	digest, err := accounts.HashPassword("sekrit-pass")
	require.NoError(t, err)

	assert.NoError(t, accounts.ComparePasswordAndHash("sekrit-pass", digest))

	err = accounts.ComparePasswordAndHash("wrong-pass!", digest)
	assert.True(t, goerrors.Is(err, accounts.ErrMismatchedHashAndPassword))

	err = accounts.ComparePasswordAndHash("sekrit-pass", "not-a-bcrypt-digest")
	require.Error(t, err)
	assert.False(t, goerrors.Is(err, accounts.ErrMismatchedHashAndPassword))
}

func TestBcryptHasher(t *testing.T) {
	var hasher accounts.PasswordAuthenticator = accounts.BcryptHasher{}

	digest, err := hasher.HashPassword("sekrit-pass")
	require.NoError(t, err)

	assert.NoError(t, hasher.ComparePasswordAndHash("sekrit-pass", digest))
	assert.Error(t, hasher.ComparePasswordAndHash("wrong-pass!", digest))
}
