package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"statement_transcriber/pkg/core/audit"
)

var _ audit.Sink = (*AuditRepo)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS transcription_audit (
	id          BIGSERIAL PRIMARY KEY,
	run_id      TEXT NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL,
	source_item TEXT NOT NULL,
	destination TEXT NOT NULL DEFAULT '',
	amount      DOUBLE PRECISION NOT NULL DEFAULT 0,
	status      TEXT NOT NULL,
	message     TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS transcription_audit_run_idx ON transcription_audit (run_id);
CREATE TABLE IF NOT EXISTS transcription_runs (
	run_id       TEXT PRIMARY KEY,
	summary_json JSONB NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL
);
`

// AuditRepo stores audit entries and run summaries.
type AuditRepo struct {
	pool *pgxpool.Pool
}

// NewAuditRepo uses p, or the shared pool when p is nil.
func NewAuditRepo(p *pgxpool.Pool) *AuditRepo {
	return &AuditRepo{pool: p}
}

func (r *AuditRepo) db() (*pgxpool.Pool, error) {
	p := r.pool
	if p == nil {
		p = GetPool()
	}
	if p == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}
	return p, nil
}

// EnsureSchema creates the tables when missing.
func (r *AuditRepo) EnsureSchema(ctx context.Context) error {
	p, err := r.db()
	if err != nil {
		return err
	}
	if _, err := p.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create audit schema: %w", err)
	}
	return nil
}

// Record bulk-inserts entries with COPY.
func (r *AuditRepo) Record(ctx context.Context, entries []audit.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	p, err := r.db()
	if err != nil {
		return err
	}
	columns := []string{"run_id", "recorded_at", "source_item", "destination", "amount", "status", "message"}
	n, err := p.CopyFrom(ctx, pgx.Identifier{"transcription_audit"}, columns,
		pgx.CopyFromSlice(len(entries), func(i int) ([]any, error) {
			e := entries[i]
			return []any{e.RunID, e.Timestamp, e.SourceItem, e.Destination, e.Amount, string(e.Status), e.Message}, nil
		}))
	if err != nil {
		return fmt.Errorf("failed to record audit entries: %w", err)
	}
	if int(n) != len(entries) {
		return fmt.Errorf("recorded %d of %d audit entries", n, len(entries))
	}
	return nil
}

// ListRun returns the entries of one run in insertion order.
func (r *AuditRepo) ListRun(ctx context.Context, runID string) ([]audit.Entry, error) {
	p, err := r.db()
	if err != nil {
		return nil, err
	}
	rows, err := p.Query(ctx, `
		SELECT run_id, recorded_at, source_item, destination, amount, status, message
		FROM transcription_audit
		WHERE run_id = $1
		ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer rows.Close()

	var out []audit.Entry
	for rows.Next() {
		var e audit.Entry
		var status string
		if err := rows.Scan(&e.RunID, &e.Timestamp, &e.SourceItem, &e.Destination, &e.Amount, &status, &e.Message); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		e.Status = audit.Status(status)
		out = append(out, e)
	}
	return out, rows.Err()
}

// SaveSummary upserts the JSON summary of a run.
func (r *AuditRepo) SaveSummary(ctx context.Context, runID string, summary any) error {
	p, err := r.db()
	if err != nil {
		return err
	}
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	query := `
		INSERT INTO transcription_runs (run_id, summary_json, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (run_id)
		DO UPDATE SET
			summary_json = EXCLUDED.summary_json,
			updated_at = EXCLUDED.updated_at;
	`
	if _, err := p.Exec(ctx, query, runID, data, time.Now()); err != nil {
		return fmt.Errorf("failed to save run summary: %w", err)
	}
	return nil
}

// LoadSummary decodes a stored summary into v. It returns false when the run is unknown.
func (r *AuditRepo) LoadSummary(ctx context.Context, runID string, v any) (bool, error) {
	p, err := r.db()
	if err != nil {
		return false, err
	}
	var data []byte
	err = p.QueryRow(ctx, `SELECT summary_json FROM transcription_runs WHERE run_id = $1`, runID).Scan(&data)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load run summary: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to decode run summary: %w", err)
	}
	return true, nil
}
