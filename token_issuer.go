package auth

import (
	"github.com/google/uuid"
)

// IssueRegistrationToken mints an unconsumed registration token for a
// pending user. google/uuid v4 draws from crypto/rand, so the token is
// unguessable and unique with overwhelming probability, and its
// canonical form is URL-query safe without escaping.
func IssueRegistrationToken(userID uuid.UUID, kind RegistrationKind) *RegistrationToken {
	uid := userID
	return &RegistrationToken{
		ID:     uuid.New(),
		UserID: &uid,
		Kind:   kind,
	}
}

// ParseRegistrationToken rejects token strings that are not canonical
// UUIDs before we ever touch the store.
func ParseRegistrationToken(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return id, nil
}
