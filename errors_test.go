package auth_test

import (
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/rxgate/go-auth"
)

func TestIsTokenExpiredError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "structured token expired error",
			err:      auth.ErrTokenExpired,
			expected: true,
		},
		{
			name:     "plain error with expired message",
			err:      errors.New("token is expired by 2h"),
			expected: true,
		},
		{
			name:     "unrelated error",
			err:      errors.New("connection refused"),
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, auth.IsTokenExpiredError(tt.err))
		})
	}
}

func TestIsMalformedError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "structured malformed error",
			err:      auth.ErrTokenMalformed,
			expected: true,
		},
		{
			name:     "missing JWT message",
			err:      errors.New("missing or malformed JWT"),
			expected: true,
		},
		{
			name:     "unrelated error",
			err:      errors.New("connection refused"),
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, auth.IsMalformedError(tt.err))
		})
	}
}

func TestForbiddenMissing(t *testing.T) {
	err := auth.ForbiddenMissing([]string{"practices.create"})
	require.ErrorIs(t, err, auth.ErrForbidden)

	var richErr *goerrors.Error
	require.ErrorAs(t, err, &richErr)
	assert.Equal(t, []string{"practices.create"}, richErr.Metadata["missing_permissions"])

	// each call builds a fresh error; the shared var keeps no metadata
	other := auth.ForbiddenMissing([]string{"prescriptions.read"})
	var otherRich *goerrors.Error
	require.ErrorAs(t, other, &otherRich)
	assert.Equal(t, []string{"prescriptions.read"}, otherRich.Metadata["missing_permissions"])
}

func TestErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name     string
		err      *goerrors.Error
		category goerrors.Category
		code     int
	}{
		{"credentials", auth.ErrMismatchedHashAndPassword, goerrors.CategoryAuth, goerrors.CodeUnauthorized},
		{"duplicate identity", auth.ErrDuplicateIdentity, goerrors.CategoryConflict, goerrors.CodeConflict},
		{"invalid registration token", auth.ErrInvalidToken, goerrors.CategoryAuth, goerrors.CodeUnauthorized},
		{"user not pending", auth.ErrInvalidState, goerrors.CategoryConflict, goerrors.CodeConflict},
		{"unauthenticated", auth.ErrUnauthenticated, goerrors.CategoryAuth, goerrors.CodeUnauthorized},
		{"forbidden", auth.ErrForbidden, goerrors.CategoryAuthz, goerrors.CodeForbidden},
		{"suspended", auth.ErrUserSuspended, goerrors.CategoryAuth, goerrors.CodeUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.category, tt.err.Category)
			assert.Equal(t, tt.code, tt.err.Code)
		})
	}
}
