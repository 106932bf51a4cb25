package accounts

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// ErrInvalidCredentials covers both unknown email and wrong password so the
// caller cannot distinguish the two cases.
var ErrInvalidCredentials = errors.New("email or password is wrong", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("INVALID_CREDENTIALS")

// ErrAccountNotVerified rejects logins before the email has been confirmed
var ErrAccountNotVerified = errors.New("email not verified", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("ACCOUNT_NOT_VERIFIED")

// ErrEmailInUse is the conflict signal for duplicate registrations
var ErrEmailInUse = errors.New("email in use", errors.CategoryConflict).
	WithCode(errors.CodeConflict).
	WithTextCode("EMAIL_IN_USE")

// ErrAccountNotFound is returned for lookups that match no account
var ErrAccountNotFound = errors.New("account not found", errors.CategoryNotFound).
	WithCode(errors.CodeNotFound).
	WithTextCode("ACCOUNT_NOT_FOUND")

// ErrVerificationNotFound is returned when a verification token matches no
// account, including tokens already spent by a previous confirmation.
var ErrVerificationNotFound = errors.New("verification token not found", errors.CategoryNotFound).
	WithCode(errors.CodeNotFound).
	WithTextCode("VERIFICATION_NOT_FOUND")

// ErrAlreadyVerified rejects resend requests for verified accounts
var ErrAlreadyVerified = errors.New("verification has already been passed", errors.CategoryValidation).
	WithCode(errors.CodeBadRequest).
	WithTextCode("ALREADY_VERIFIED")

// ErrTokenRevoked rejects tokens that no longer match the stored session
var ErrTokenRevoked = errors.New("session has been revoked", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("TOKEN_REVOKED")

// ErrTokenExpired is returned for tokens past their TTL
var ErrTokenExpired = errors.New("authentication token expired", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("TOKEN_EXPIRED")

// ErrTokenMalformed is returned for tokens that fail parsing or signature checks
var ErrTokenMalformed = errors.New("invalid authentication token", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("TOKEN_MALFORMED")

// ErrVerificationDisabled is returned when verification operations run on a
// Manager built without a mailer.
var ErrVerificationDisabled = errors.New("email verification is not enabled", errors.CategoryOperation).
	WithCode(errors.CodeBadRequest).
	WithTextCode("VERIFICATION_DISABLED")

// ErrAvatarsDisabled is returned when avatar updates run on a Manager built
// without an avatar store.
var ErrAvatarsDisabled = errors.New("avatar uploads are not enabled", errors.CategoryOperation).
	WithCode(errors.CodeBadRequest).
	WithTextCode("AVATARS_DISABLED")

// ErrNoEmptyString rejects empty passwords before hashing
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithCode(errors.CodeBadRequest).
	WithTextCode("EMPTY_PASSWORD")

// ErrMismatchedHashAndPassword is the bcrypt comparison failure
var ErrMismatchedHashAndPassword = errors.New("password does not match", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("PASSWORD_MISMATCH")

// ErrUnableToMapClaims unable to get claims from token
var ErrUnableToMapClaims = errors.New("unable to map claims", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("CLAIMS_UNMAPPABLE")

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
