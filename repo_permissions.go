package auth

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type PermissionGrants interface {
	repository.Repository[*PermissionGrant]

	Grant(ctx context.Context, userID uuid.UUID, names ...string) error
	GrantTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, names ...string) error
	ListNames(ctx context.Context, userID uuid.UUID) ([]string, error)
	ListNamesTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) ([]string, error)
}

type permissionGrants struct {
	repository.Repository[*PermissionGrant]
	db *bun.DB
}

var _ PermissionGrants = (*permissionGrants)(nil)

func NewPermissionGrantsRepository(db *bun.DB) PermissionGrants {
	repo := repository.NewRepository[*PermissionGrant](db, repository.ModelHandlers[*PermissionGrant]{
		NewRecord: func() *PermissionGrant { return &PermissionGrant{} },
		GetID: func(g *PermissionGrant) uuid.UUID {
			if g == nil {
				return uuid.Nil
			}
			return g.ID
		},
		SetID: func(g *PermissionGrant, id uuid.UUID) {
			if g != nil {
				g.ID = id
			}
		},
	})

	return &permissionGrants{
		Repository: repo,
		db:         db,
	}
}

func (r *permissionGrants) Grant(ctx context.Context, userID uuid.UUID, names ...string) error {
	return r.GrantTx(ctx, r.db, userID, names...)
}

func (r *permissionGrants) GrantTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, names ...string) error {
	for _, name := range names {
		uid := userID
		grant := &PermissionGrant{
			ID:     uuid.New(),
			UserID: &uid,
			Name:   name,
		}
		if _, err := r.Repository.CreateTx(ctx, tx, grant); err != nil {
			return err
		}
	}
	return nil
}

func (r *permissionGrants) ListNames(ctx context.Context, userID uuid.UUID) ([]string, error) {
	return r.ListNamesTx(ctx, r.db, userID)
}

func (r *permissionGrants) ListNamesTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) ([]string, error) {
	var names []string
	err := tx.NewSelect().
		Model((*PermissionGrant)(nil)).
		Column("name").
		Where("?TableAlias.user_id = ?", userID.String()).
		Order("name ASC").
		Scan(ctx, &names)
	if err != nil {
		return nil, err
	}
	return names, nil
}
