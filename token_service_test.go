package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/rxgate/go-auth"
)

type staticIdentity struct {
	id          string
	username    string
	email       string
	permissions []string
}

func (s staticIdentity) ID() string            { return s.id }
func (s staticIdentity) Username() string      { return s.username }
func (s staticIdentity) Email() string         { return s.email }
func (s staticIdentity) Permissions() []string { return s.permissions }

func newTestTokenService() auth.TokenService {
	cfg := testConfig{}
	return auth.NewTokenService(
		[]byte(cfg.GetSigningKey()),
		cfg.GetTokenExpiration(),
		cfg.GetIssuer(),
		cfg.GetAudience(),
		testLogger{},
	)
}

func TestTokenServiceRoundTrip(t *testing.T) {
	service := newTestTokenService()

	identity := staticIdentity{
		id:          "user-1",
		username:    "freddie",
		email:       "freddie@example.com",
		permissions: []string{"prescriptions.read"},
	}

	token, err := service.Generate(identity)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := service.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID())
	assert.Equal(t, "freddie", claims.Username())
	assert.Equal(t, []string{"prescriptions.read"}, claims.Permissions())
	assert.True(t, claims.Expires().After(time.Now()))
}

func TestTokenServiceExpired(t *testing.T) {
	service := newTestTokenService()

	now := time.Now()
	claims := &auth.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "test-issuer",
			Subject:   "user-1",
			Audience:  jwt.ClaimStrings{"test-audience"},
			IssuedAt:  jwt.NewNumericDate(now.Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
		},
		UID: "user-1",
	}

	token, err := service.SignClaims(claims)
	require.NoError(t, err)

	_, err = service.Validate(token)
	require.ErrorIs(t, err, auth.ErrTokenExpired)
	assert.True(t, auth.IsTokenExpiredError(err))
}

func TestTokenServiceWrongKey(t *testing.T) {
	cfg := testConfig{}
	service := newTestTokenService()
	imposter := auth.NewTokenService([]byte("a-different-key"), cfg.GetTokenExpiration(),
		cfg.GetIssuer(), cfg.GetAudience(), testLogger{})

	token, err := imposter.Generate(staticIdentity{id: "user-1", username: "freddie"})
	require.NoError(t, err)

	_, err = service.Validate(token)
	require.Error(t, err)
	assert.True(t, auth.IsMalformedError(err))
}

func TestTokenServiceWrongIssuer(t *testing.T) {
	cfg := testConfig{}
	service := newTestTokenService()
	other := auth.NewTokenService([]byte(cfg.GetSigningKey()), cfg.GetTokenExpiration(),
		"someone-else", cfg.GetAudience(), testLogger{})

	token, err := other.Generate(staticIdentity{id: "user-1"})
	require.NoError(t, err)

	_, err = service.Validate(token)
	require.Error(t, err)
}

func TestTokenServiceGarbage(t *testing.T) {
	service := newTestTokenService()

	for _, raw := range []string{"", "garbage", "a.b.c"} {
		_, err := service.Validate(raw)
		require.Error(t, err, "raw %q", raw)
	}
}

func TestTokenServiceAssignsTokenID(t *testing.T) {
	service := newTestTokenService()

	first, err := service.Generate(staticIdentity{id: "user-1"})
	require.NoError(t, err)
	second, err := service.Generate(staticIdentity{id: "user-1"})
	require.NoError(t, err)

	// the jti claim keeps otherwise identical tokens distinct
	assert.NotEqual(t, first, second)
}
