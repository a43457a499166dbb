package auth

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type MedicalPractices interface {
	repository.Repository[*MedicalPractice]

	Create(ctx context.Context, record *MedicalPractice, criteria ...repository.InsertCriteria) (*MedicalPractice, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *MedicalPractice, criteria ...repository.InsertCriteria) (*MedicalPractice, error)
}

type medicalPractices struct {
	repository.Repository[*MedicalPractice]
	db *bun.DB
}

var _ MedicalPractices = (*medicalPractices)(nil)

func NewMedicalPracticesRepository(db *bun.DB) MedicalPractices {
	repo := repository.NewRepository[*MedicalPractice](db, repository.ModelHandlers[*MedicalPractice]{
		NewRecord: func() *MedicalPractice { return &MedicalPractice{} },
		GetID: func(p *MedicalPractice) uuid.UUID {
			if p == nil {
				return uuid.Nil
			}
			return p.ID
		},
		SetID: func(p *MedicalPractice, id uuid.UUID) {
			if p != nil {
				p.ID = id
			}
		},
		GetIdentifier: func() string {
			return "name"
		},
	})

	return &medicalPractices{
		Repository: repo,
		db:         db,
	}
}

func (r *medicalPractices) Create(ctx context.Context, record *MedicalPractice, criteria ...repository.InsertCriteria) (*MedicalPractice, error) {
	return r.CreateTx(ctx, r.db, record, criteria...)
}

func (r *medicalPractices) CreateTx(ctx context.Context, tx bun.IDB, record *MedicalPractice, criteria ...repository.InsertCriteria) (*MedicalPractice, error) {
	if record != nil && record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return r.Repository.CreateTx(ctx, tx, record, criteria...)
}
