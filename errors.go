package auth

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes surfaced to API clients alongside the HTTP status.
const (
	TextCodeInvalidCreds       = "INVALID_CREDENTIALS"
	TextCodeSessionNotFound    = "SESSION_NOT_FOUND"
	TextCodeSessionDecodeError = "SESSION_DECODE_ERROR"
	TextCodeDataParseError     = "DATA_PARSE_ERROR"
	TextCodeEmptyPassword      = "EMPTY_PASSWORD"
	TextCodeTokenExpired       = "TOKEN_EXPIRED"
	TextCodeTokenMalformed     = "TOKEN_MALFORMED"
	TextCodeDuplicateIdentity  = "DUPLICATE_IDENTITY"
	TextCodeInvalidRegToken    = "INVALID_REGISTRATION_TOKEN"
	TextCodeUserNotPending     = "USER_NOT_PENDING"
	TextCodeUnauthenticated    = "UNAUTHENTICATED"
	TextCodeForbidden          = "FORBIDDEN"
	TextCodeUserSuspended      = "USER_SUSPENDED"
)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = goerrors.New("identity not found", goerrors.CategoryNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrMismatchedHashAndPassword is returned when a password check fails.
// Deliberately indistinguishable from an unknown identifier.
var ErrMismatchedHashAndPassword = goerrors.New("the credentials provided are invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(goerrors.CodeUnauthorized)

// ErrNoEmptyString rejects empty passwords before hashing
var ErrNoEmptyString = goerrors.New("password must not be empty", goerrors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(goerrors.CodeBadRequest)

// ErrUnableToDecodeSession unable to decode JWT from the presented credential
var ErrUnableToDecodeSession = goerrors.New("unable to decode session", goerrors.CategoryAuth).
	WithTextCode(TextCodeSessionDecodeError).
	WithCode(goerrors.CodeUnauthorized)

// ErrUnableToParseData parse error
var ErrUnableToParseData = goerrors.New("unable to parse data", goerrors.CategoryBadInput).
	WithTextCode(TextCodeDataParseError).
	WithCode(goerrors.CodeBadRequest)

// ErrTokenExpired is returned for session tokens past their expiry
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed is returned for tokens we cannot parse or verify
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrDuplicateIdentity is returned when a registration reuses a username
// already present, pending or active alike.
var ErrDuplicateIdentity = goerrors.New("username is already taken", goerrors.CategoryConflict).
	WithTextCode(TextCodeDuplicateIdentity).
	WithCode(goerrors.CodeConflict)

// ErrInvalidToken covers every registration token failure: absent,
// malformed, consumed, or expired. Terminal for that token string.
var ErrInvalidToken = goerrors.New("registration token is invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidRegToken).
	WithCode(goerrors.CodeUnauthorized)

// ErrInvalidState is returned when a valid token points at a user no
// longer pending, e.g. a lost race against another conversion.
var ErrInvalidState = goerrors.New("user is not pending conversion", goerrors.CategoryConflict).
	WithTextCode(TextCodeUserNotPending).
	WithCode(goerrors.CodeConflict)

// ErrUnauthenticated is returned when no valid active identity backs the request
var ErrUnauthenticated = goerrors.New("no valid active identity", goerrors.CategoryAuth).
	WithTextCode(TextCodeUnauthenticated).
	WithCode(goerrors.CodeUnauthorized)

// ErrForbidden is returned when an authenticated identity lacks a
// required permission. Never downgraded to ErrUnauthenticated: the two
// carry different remediation meaning.
var ErrForbidden = goerrors.New("missing required permission", goerrors.CategoryAuthz).
	WithTextCode(TextCodeForbidden).
	WithCode(goerrors.CodeForbidden)

// ErrUserSuspended blocks authentication for suspended accounts
var ErrUserSuspended = goerrors.New("user account is suspended", goerrors.CategoryAuth).
	WithTextCode(TextCodeUserSuspended).
	WithCode(goerrors.CodeUnauthorized)

// ForbiddenMissing builds an ErrForbidden instance that names the
// permissions the identity lacks.
func ForbiddenMissing(missing []string) error {
	clone := ErrForbidden.Clone()
	if clone == nil {
		return ErrForbidden
	}
	clone.Source = ErrForbidden
	return clone.WithMetadata(map[string]any{
		"missing_permissions": missing,
	})
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if goerrors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if goerrors.Is(err, ErrTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// statusAwareAuthError keeps status-derived auth failures intact while
// letting callers collapse everything else to ErrUnauthenticated.
func statusAwareAuthError(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.Is(err, ErrUserSuspended) {
		return ErrUserSuspended
	}
	if goerrors.Is(err, ErrUnauthenticated) {
		return ErrUnauthenticated
	}
	return nil
}

// statusAuthError maps a user status to the auth failure it implies, nil
// when the status permits authentication.
func statusAuthError(status UserStatus) error {
	switch status {
	case UserStatusActive, "":
		return nil
	case UserStatusSuspended:
		return ErrUserSuspended
	default:
		// pending and archived users never authenticate
		return ErrUnauthenticated
	}
}
