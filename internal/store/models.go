package store

import (
	"time"

	"github.com/lib/pq"
)

const (
	TriggerTypeManual    = "manual"
	TriggerTypeScheduled = "scheduled"
)

const (
	StatusInProgress = "IN_PROGRESS"
	StatusSuccess    = "SUCCESS"
	StatusFailure    = "FAILURE"
)

// GenerationRun is the metadata of one snapshot build. Transfer data itself
// lives only in the published artifact.
type GenerationRun struct {
	ID                    int64         `db:"id" json:"id"`
	StartedAt             time.Time     `db:"started_at" json:"started_at"`
	FinishedAt            *time.Time    `db:"finished_at" json:"finished_at,omitempty"`
	TriggerType           string        `db:"trigger_type" json:"trigger_type"`
	Status                string        `db:"status" json:"status"`
	Phase                 string        `db:"phase" json:"phase"`
	UF                    string        `db:"uf" json:"uf"`
	Years                 pq.Int64Array `db:"years" json:"years"`
	FailedYears           pq.Int64Array `db:"failed_years" json:"failed_years"`
	Plans                 int           `db:"plans" json:"plans"`
	PlansWithPaymentOrder int           `db:"plans_with_payment_order" json:"plans_with_payment_order"`
	Executors             int           `db:"executors" json:"executors"`
	Goals                 int           `db:"goals" json:"goals"`
	Committed             float64       `db:"committed" json:"committed"`
	Disbursed             float64       `db:"disbursed" json:"disbursed"`
	ArtifactPath          string        `db:"artifact_path" json:"artifact_path"`
	ArtifactBytes         int64         `db:"artifact_bytes" json:"artifact_bytes"`
	ErrorMessage          string        `db:"error_message" json:"error_message,omitempty"`
}

func Int64s(values []int) pq.Int64Array {
	out := make(pq.Int64Array, len(values))
	for i, v := range values {
		out[i] = int64(v)
	}
	return out
}
