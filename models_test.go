package auth_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	auth "github.com/rxgate/go-auth"
)

func TestUserEnsureStatus(t *testing.T) {
	user := &auth.User{}
	user.EnsureStatus()
	assert.Equal(t, auth.UserStatusActive, user.Status)

	pending := &auth.User{Status: auth.UserStatusPending}
	pending.EnsureStatus()
	assert.Equal(t, auth.UserStatusPending, pending.Status)

	var nilUser *auth.User
	assert.NotPanics(t, func() { nilUser.EnsureStatus() })
}

func TestUserDisplayName(t *testing.T) {
	tests := []struct {
		name     string
		user     *auth.User
		expected string
	}{
		{"both names", &auth.User{FirstName: "Grace", LastName: "Harper"}, "Grace Harper"},
		{"first only", &auth.User{FirstName: "Grace"}, "Grace"},
		{"last only", &auth.User{LastName: "Harper"}, "Harper"},
		{"empty", &auth.User{}, ""},
		{"nil user", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.user.DisplayName())
		})
	}
}

func TestRegistrationTokenConsumed(t *testing.T) {
	token := auth.IssueRegistrationToken(uuid.New(), auth.KindPracticeAdmin)
	assert.False(t, token.Consumed())

	spent := auth.MarkTokenConsumed(token.ID)
	assert.True(t, spent.Consumed())
	assert.Equal(t, token.ID, spent.ID)

	var nilToken *auth.RegistrationToken
	assert.False(t, nilToken.Consumed())
}

func TestIssueRegistrationToken(t *testing.T) {
	userID := uuid.New()

	token := auth.IssueRegistrationToken(userID, auth.KindGP)
	assert.NotEqual(t, uuid.Nil, token.ID)
	assert.Equal(t, auth.KindGP, token.Kind)
	assert.Equal(t, userID, *token.UserID)

	other := auth.IssueRegistrationToken(userID, auth.KindGP)
	assert.NotEqual(t, token.ID, other.ID)
}
