package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/rxgate/go-auth"
)

func TestTokenValidatorFunc(t *testing.T) {
	called := false
	validator := auth.TokenValidatorFunc(func(tokenString string) (auth.AuthClaims, error) {
		called = true
		return &auth.JWTClaims{UID: "user-1"}, nil
	})

	claims, err := validator.Validate("raw")
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, "user-1", claims.UserID())

	var nilValidator auth.TokenValidatorFunc
	_, err = nilValidator.Validate("raw")
	require.ErrorIs(t, err, auth.ErrUnableToDecodeSession)
}

func TestMultiTokenValidator(t *testing.T) {
	malformed := auth.TokenValidatorFunc(func(string) (auth.AuthClaims, error) {
		return nil, auth.ErrTokenMalformed
	})
	accepting := auth.TokenValidatorFunc(func(string) (auth.AuthClaims, error) {
		return &auth.JWTClaims{UID: "user-2"}, nil
	})
	expired := auth.TokenValidatorFunc(func(string) (auth.AuthClaims, error) {
		return nil, auth.ErrTokenExpired
	})

	// malformed errors fall through to the next validator
	claims, err := auth.NewMultiTokenValidator(malformed, accepting).Validate("raw")
	require.NoError(t, err)
	assert.Equal(t, "user-2", claims.UserID())

	// non-malformed errors stop the chain
	_, err = auth.NewMultiTokenValidator(expired, accepting).Validate("raw")
	require.ErrorIs(t, err, auth.ErrTokenExpired)

	// every validator malformed keeps the last error
	_, err = auth.NewMultiTokenValidator(malformed, malformed).Validate("raw")
	require.ErrorIs(t, err, auth.ErrTokenMalformed)

	// nil validators are skipped, empty chain is malformed
	_, err = auth.NewMultiTokenValidator(nil, nil).Validate("raw")
	require.ErrorIs(t, err, auth.ErrTokenMalformed)
}

func TestAutherWithCustomTokenValidator(t *testing.T) {
	auther, repo := newTestAuther(t)
	ctx := context.Background()

	user := seedActiveUser(t, repo, "multikey", "multikey@example.com", "super-secret-99")

	auther.WithTokenValidator(auth.NewMultiTokenValidator(
		auth.TokenValidatorFunc(func(string) (auth.AuthClaims, error) {
			return nil, auth.ErrTokenMalformed
		}),
		auther.TokenService(),
	))

	token, err := auther.Login(ctx, "multikey", "super-secret-99")
	require.NoError(t, err)

	identity, err := auther.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), identity.ID())
}
