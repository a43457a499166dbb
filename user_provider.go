package auth

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// UserStore is a store we can use to retrieve users
type UserStore interface {
	GetByIdentifier(ctx context.Context, identifier string) (*User, error)
}

// PermissionSource resolves the permission names held by a user
type PermissionSource interface {
	ListNames(ctx context.Context, userID uuid.UUID) ([]string, error)
}

// UserProvider handles users
type UserProvider struct {
	store  UserStore
	perms  PermissionSource
	logger Logger
}

// NewUserProvider will create a new UserProvider
func NewUserProvider(store UserStore, perms PermissionSource) *UserProvider {
	return &UserProvider{
		store:  store,
		perms:  perms,
		logger: defLogger{},
	}
}

func (u *UserProvider) WithLogger(l Logger) *UserProvider {
	if l != nil {
		u.logger = l
	}
	return u
}

// VerifyIdentity will find the user, compare to the password, and return identity
func (u UserProvider) VerifyIdentity(ctx context.Context, identifier, password string) (Identity, error) {
	user, err := u.store.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrMismatchedHashAndPassword
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during verification")
	}

	if err := ensureAuthenticatableUser(user); err != nil {
		return nil, err
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		return nil, ErrMismatchedHashAndPassword
	}

	return u.buildIdentity(ctx, user)
}

func (u UserProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (Identity, error) {
	user, err := u.store.GetByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}

	if err := ensureAuthenticatableUser(user); err != nil {
		return nil, err
	}

	return u.buildIdentity(ctx, user)
}

func (u UserProvider) buildIdentity(ctx context.Context, user *User) (Identity, error) {
	names, err := u.perms.ListNames(ctx, user.ID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load user permissions")
	}

	aid := authIdentity{
		id:          user.ID.String(),
		email:       user.Email,
		username:    user.Username,
		status:      user.Status,
		permissions: names,
	}

	return aid, nil
}

type authIdentity struct {
	id          string
	username    string
	email       string
	status      UserStatus
	permissions []string
}

func (a authIdentity) ID() string {
	return a.id
}

func (a authIdentity) Username() string {
	return a.username
}

func (a authIdentity) Email() string {
	return a.email
}

func (a authIdentity) Permissions() []string {
	return a.permissions
}

func (a authIdentity) Status() UserStatus {
	if a.status == "" {
		return UserStatusActive
	}
	return a.status
}

var _ Identity = authIdentity{}

func ensureAuthenticatableUser(user *User) error {
	if user == nil {
		return ErrIdentityNotFound
	}

	user.EnsureStatus()
	if err := statusAuthError(user.Status); err != nil {
		return err
	}

	return nil
}
