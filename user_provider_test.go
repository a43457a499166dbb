package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/rxgate/go-auth"
)

func newTestProvider(t *testing.T) (*auth.UserProvider, auth.RepositoryManager) {
	t.Helper()
	repo := newTestRepo(t)
	return auth.NewUserProvider(userStoreAdapter{users: repo.Users()}, repo.PermissionGrants()), repo
}

func TestVerifyIdentity(t *testing.T) {
	provider, repo := newTestProvider(t)
	ctx := context.Background()

	user := seedActiveUser(t, repo, "verifyme", "verifyme@example.com", "super-secret-99",
		"prescriptions.read")

	identity, err := provider.VerifyIdentity(ctx, "verifyme", "super-secret-99")
	require.NoError(t, err)

	assert.Equal(t, user.ID.String(), identity.ID())
	assert.Equal(t, "verifyme", identity.Username())
	assert.Equal(t, "verifyme@example.com", identity.Email())
	assert.Equal(t, []string{"prescriptions.read"}, identity.Permissions())
}

func TestVerifyIdentityWrongPassword(t *testing.T) {
	provider, repo := newTestProvider(t)

	seedActiveUser(t, repo, "wrongpass", "wrongpass@example.com", "super-secret-99")

	_, err := provider.VerifyIdentity(context.Background(), "wrongpass", "not-the-password")
	require.ErrorIs(t, err, auth.ErrMismatchedHashAndPassword)
}

func TestVerifyIdentityUnknownUser(t *testing.T) {
	provider, _ := newTestProvider(t)

	_, err := provider.VerifyIdentity(context.Background(), "ghost", "super-secret-99")
	require.ErrorIs(t, err, auth.ErrMismatchedHashAndPassword,
		"an unknown identifier reads the same as a bad password")
}

func TestVerifyIdentitySuspendedUser(t *testing.T) {
	provider, repo := newTestProvider(t)
	ctx := context.Background()

	user := seedActiveUser(t, repo, "benched", "benched@example.com", "super-secret-99")
	_, err := repo.Users().UpdateStatus(ctx, user.ID, auth.UserStatusSuspended)
	require.NoError(t, err)

	_, err = provider.VerifyIdentity(ctx, "benched", "super-secret-99")
	require.ErrorIs(t, err, auth.ErrUserSuspended)
}

func TestVerifyIdentityPendingUser(t *testing.T) {
	provider, repo := newTestProvider(t)

	seedPendingUser(t, repo, "notyet", "notyet@example.com")

	_, err := provider.VerifyIdentity(context.Background(), "notyet", "super-secret-99")
	require.ErrorIs(t, err, auth.ErrUnauthenticated)
}

func TestFindIdentityByIdentifier(t *testing.T) {
	provider, repo := newTestProvider(t)
	ctx := context.Background()

	user := seedActiveUser(t, repo, "findme", "findme@example.com", "super-secret-99",
		auth.PermissionWildcard)

	identity, err := provider.FindIdentityByIdentifier(ctx, user.ID.String())
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), identity.ID())
	assert.Equal(t, []string{auth.PermissionWildcard}, identity.Permissions())
}
