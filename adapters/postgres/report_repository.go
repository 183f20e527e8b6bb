// Package postgres persists computed experiment readouts. Raw experiment
// data never passes through here; only derived analysis results do.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"abx/domain/report"
	"abx/internal/errors"
)

// ReportRepository stores readouts as JSON payloads keyed by report id.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository creates a repository over an open connection pool.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Migrate creates the readouts table if it does not exist.
func (r *ReportRepository) Migrate(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS readouts (
			id TEXT PRIMARY KEY,
			experiment TEXT NOT NULL,
			payload JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_readouts_experiment ON readouts (experiment, created_at DESC);`

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return errors.DatabaseError("failed to create readouts table", err)
	}
	return nil
}

// Save inserts a readout; saving the same id twice replaces the payload.
func (r *ReportRepository) Save(ctx context.Context, readout *report.Readout) error {
	payload, err := json.Marshal(readout)
	if err != nil {
		return fmt.Errorf("failed to marshal readout: %w", err)
	}

	query := `
		INSERT INTO readouts (id, experiment, payload, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload`

	if _, err := r.db.ExecContext(ctx, query, readout.ID, readout.Experiment, payload, readout.CreatedAt); err != nil {
		return errors.DatabaseError("failed to insert readout", err)
	}
	return nil
}

// GetByID fetches one readout; a missing id is a NOT_FOUND error.
func (r *ReportRepository) GetByID(ctx context.Context, id string) (*report.Readout, error) {
	query := `SELECT payload FROM readouts WHERE id = $1`

	var payload []byte
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&payload); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound(fmt.Sprintf("readout %s not found", id))
		}
		return nil, errors.DatabaseError("failed to query readout", err)
	}

	var out report.Readout
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal readout: %w", err)
	}
	return &out, nil
}

// ListByExperiment returns readouts for an experiment, newest first.
// A non-positive limit falls back to 100.
func (r *ReportRepository) ListByExperiment(ctx context.Context, experiment string, limit int) ([]*report.Readout, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT payload FROM readouts WHERE experiment = $1 ORDER BY created_at DESC LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, experiment, limit)
	if err != nil {
		return nil, errors.DatabaseError("failed to query readouts", err)
	}
	defer rows.Close()

	var out []*report.Readout
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, errors.DatabaseError("failed to scan readout", err)
		}
		var readout report.Readout
		if err := json.Unmarshal(payload, &readout); err != nil {
			return nil, fmt.Errorf("failed to unmarshal readout: %w", err)
		}
		out = append(out, &readout)
	}
	return out, rows.Err()
}

// Prune removes readouts older than the retention period.
func (r *ReportRepository) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	result, err := r.db.ExecContext(ctx, `DELETE FROM readouts WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, errors.DatabaseError("failed to prune readouts", err)
	}
	deleted, _ := result.RowsAffected()
	return deleted, nil
}
