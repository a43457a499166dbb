package auth

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ConsumeRegistrationTokenSQL spends a token with a storage-level
// check-and-set. Concurrent conversions race on the consumed_at
// predicate; the store serializes them so exactly one update matches.
var ConsumeRegistrationTokenSQL = `UPDATE "registration_tokens" AS "rtk"
SET
	"consumed_at" = ?
WHERE
	"rtk"."id" = ?
AND "rtk"."consumed_at" IS NULL
RETURNING *;`

type RegistrationTokens interface {
	repository.Repository[*RegistrationToken]

	Consume(ctx context.Context, id uuid.UUID) error
	ConsumeTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
}

type registrationTokens struct {
	repository.Repository[*RegistrationToken]
	db *bun.DB
}

var _ RegistrationTokens = (*registrationTokens)(nil)

func NewRegistrationTokensRepository(db *bun.DB) RegistrationTokens {
	repo := repository.NewRepository[*RegistrationToken](db, repository.ModelHandlers[*RegistrationToken]{
		NewRecord: func() *RegistrationToken { return &RegistrationToken{} },
		GetID: func(t *RegistrationToken) uuid.UUID {
			if t == nil {
				return uuid.Nil
			}
			return t.ID
		},
		SetID: func(t *RegistrationToken, id uuid.UUID) {
			if t != nil {
				t.ID = id
			}
		},
	})

	return &registrationTokens{
		Repository: repo,
		db:         db,
	}
}

func (r *registrationTokens) Consume(ctx context.Context, id uuid.UUID) error {
	return r.ConsumeTx(ctx, r.db, id)
}

// ConsumeTx marks the token consumed iff it still is unconsumed. Zero
// matched rows means another caller spent it first; that caller keeps
// the win and everyone else sees ErrInvalidToken.
func (r *registrationTokens) ConsumeTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	res, err := r.Repository.RawTx(ctx, tx, ConsumeRegistrationTokenSQL, time.Now(), id.String())
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return ErrInvalidToken.WithMetadata(map[string]any{
			"token_id": id.String(),
			"reason":   "already consumed",
		})
	}

	return nil
}
