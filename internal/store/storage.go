package store

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type Storage struct {
	GenerationRuns interface {
		EnsureSchema(ctx context.Context) error
		InsertGenerationRun(ctx context.Context, run *GenerationRun) error
		FinishGenerationRun(ctx context.Context, run *GenerationRun) error
		GetLatest(ctx context.Context, limit int) ([]GenerationRun, error)
	}
}

func NewStorage(db *sqlx.DB) *Storage {
	return &Storage{
		GenerationRuns: &GenerationRunStore{db: db},
	}
}
