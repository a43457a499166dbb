package auth

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Users() Users
	MedicalPractices() MedicalPractices
	RegistrationTokens() RegistrationTokens
	PermissionGrants() PermissionGrants
}

type mngr struct {
	db                 *bun.DB
	users              Users
	medicalPractices   MedicalPractices
	registrationTokens RegistrationTokens
	permissionGrants   PermissionGrants
}

func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:                 db,
		users:              NewUsersRepository(db),
		medicalPractices:   NewMedicalPracticesRepository(db),
		registrationTokens: NewRegistrationTokensRepository(db),
		permissionGrants:   NewPermissionGrantsRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.medicalPractices == nil {
		return errors.New("repository medicalPractices should be initialized")
	}

	if m.registrationTokens == nil {
		return errors.New("repository registrationTokens should be initialized")
	}

	if m.permissionGrants == nil {
		return errors.New("repository permissionGrants should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Users() Users {
	return m.users
}

func (m mngr) MedicalPractices() MedicalPractices {
	return m.medicalPractices
}

func (m mngr) RegistrationTokens() RegistrationTokens {
	return m.registrationTokens
}

func (m mngr) PermissionGrants() PermissionGrants {
	return m.permissionGrants
}
