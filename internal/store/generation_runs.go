package store

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jmoiron/sqlx"
)

//go:embed schema.sql
var schema string

type GenerationRunStore struct {
	db *sqlx.DB
}

func (gs *GenerationRunStore) EnsureSchema(ctx context.Context) error {
	if _, err := gs.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// InsertGenerationRun records a run as it starts and fills in ID and
// StartedAt from the database.
func (gs *GenerationRunStore) InsertGenerationRun(ctx context.Context, run *GenerationRun) error {
	query := `INSERT INTO generation_runs (
		trigger_type,
		status,
		phase,
		uf,
		years
	) VALUES (
		:trigger_type,
		:status,
		:phase,
		:uf,
		:years
	) RETURNING id, started_at`

	rows, err := sqlx.NamedQueryContext(ctx, gs.db, query, run)
	if err != nil {
		return err
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&run.ID, &run.StartedAt); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (gs *GenerationRunStore) FinishGenerationRun(ctx context.Context, run *GenerationRun) error {
	query := `UPDATE generation_runs SET
		finished_at = now(),
		status = :status,
		phase = :phase,
		failed_years = :failed_years,
		plans = :plans,
		plans_with_payment_order = :plans_with_payment_order,
		executors = :executors,
		goals = :goals,
		committed = :committed,
		disbursed = :disbursed,
		artifact_path = :artifact_path,
		artifact_bytes = :artifact_bytes,
		error_message = :error_message
	WHERE id = :id`

	res, err := gs.db.NamedExecContext(ctx, query, run)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("generation run %d not found", run.ID)
	}
	return nil
}

func (gs *GenerationRunStore) GetLatest(ctx context.Context, limit int) ([]GenerationRun, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `SELECT
		id, started_at, finished_at, trigger_type, status, phase, uf, years,
		failed_years, plans, plans_with_payment_order, executors, goals,
		committed, disbursed, artifact_path, artifact_bytes, error_message
	FROM generation_runs
	ORDER BY started_at DESC
	LIMIT $1`

	runs := []GenerationRun{}
	if err := gs.db.SelectContext(ctx, &runs, query, limit); err != nil {
		return nil, err
	}
	return runs, nil
}
