package queries

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/loclocko/locomotive/pkg/models"
)

type RunsRepository struct {
	db *sql.DB
}

func NewRunsRepository(db *sql.DB) *RunsRepository {
	return &RunsRepository{db: db}
}

// RunRecord is one stored run with its metrics and combined verdict.
type RunRecord struct {
	RunID     string          `json:"run_id"`
	StartedAt time.Time       `json:"started_at"`
	Status    string          `json:"status"`
	Metrics   models.Metrics  `json:"metrics"`
	Verdict   *models.Verdict `json:"verdict,omitempty"`
}

// SaveRun upserts a run so CI retries with the same run id replace the
// earlier attempt.
func (r *RunsRepository) SaveRun(ctx context.Context, record RunRecord) error {
	metricsJSON, err := json.Marshal(record.Metrics)
	if err != nil {
		return fmt.Errorf("failed to encode metrics: %w", err)
	}
	var verdictJSON any
	if record.Verdict != nil {
		raw, err := json.Marshal(record.Verdict)
		if err != nil {
			return fmt.Errorf("failed to encode verdict: %w", err)
		}
		verdictJSON = raw
	}

	query := `
		INSERT INTO runs (run_id, started_at, status, metrics, verdict)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (run_id) DO UPDATE
		SET started_at = EXCLUDED.started_at,
		    status = EXCLUDED.status,
		    metrics = EXCLUDED.metrics,
		    verdict = EXCLUDED.verdict`

	if _, err := r.db.ExecContext(ctx, query, record.RunID, record.StartedAt, record.Status, metricsJSON, verdictJSON); err != nil {
		return fmt.Errorf("failed to save run %s: %w", record.RunID, err)
	}
	return nil
}

// GetRun loads one stored run by id.
func (r *RunsRepository) GetRun(ctx context.Context, runID string) (*RunRecord, error) {
	query := `SELECT run_id, started_at, status, metrics, verdict FROM runs WHERE run_id = $1`
	record, err := scanRun(r.db.QueryRowContext(ctx, query, runID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load run %s: %w", runID, err)
	}
	return record, nil
}

// ListRuns returns the most recent runs, newest first.
func (r *RunsRepository) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT run_id, started_at, status, metrics, verdict
		FROM runs
		ORDER BY started_at DESC
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		record, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

// SetBaseline points the shared baseline at runID.
func (r *RunsRepository) SetBaseline(ctx context.Context, runID string) error {
	query := `
		INSERT INTO baseline (id, run_id, set_at)
		VALUES (TRUE, $1, now())
		ON CONFLICT (id) DO UPDATE SET run_id = EXCLUDED.run_id, set_at = now()`
	if _, err := r.db.ExecContext(ctx, query, runID); err != nil {
		return fmt.Errorf("failed to set baseline: %w", err)
	}
	return nil
}

// GetBaseline returns the shared baseline run id, or "" when unset.
func (r *RunsRepository) GetBaseline(ctx context.Context) (string, error) {
	var runID string
	err := r.db.QueryRowContext(ctx, `SELECT run_id FROM baseline WHERE id`).Scan(&runID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to load baseline: %w", err)
	}
	return runID, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*RunRecord, error) {
	var record RunRecord
	var metricsRaw []byte
	var verdictRaw []byte
	if err := row.Scan(&record.RunID, &record.StartedAt, &record.Status, &metricsRaw, &verdictRaw); err != nil {
		return nil, err
	}
	if len(metricsRaw) > 0 {
		if err := json.Unmarshal(metricsRaw, &record.Metrics); err != nil {
			return nil, err
		}
	}
	if len(verdictRaw) > 0 {
		var verdict models.Verdict
		if err := json.Unmarshal(verdictRaw, &verdict); err != nil {
			return nil, err
		}
		record.Verdict = &verdict
	}
	return &record, nil
}
