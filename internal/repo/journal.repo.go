package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"the-escrow-ledger/internal/events"
)

// JournalRepo persists the event log for external observers. It is not the
// ledger's source of truth.
type JournalRepo interface {
	Migrate(ctx context.Context) error
	// AppendBatch stores records in one transaction. Sequences already present
	// are skipped.
	AppendBatch(ctx context.Context, records []events.Record) error
	Append(ctx context.Context, tx *sql.Tx, rec events.Record) error
	LastSequence(ctx context.Context) (uint64, error)
	FindAfter(ctx context.Context, after uint64, limit int) ([]events.Record, error)
}

type journalRepo struct {
	db *sql.DB
}

func NewJournalRepo(db *sql.DB) JournalRepo {
	return &journalRepo{db: db}
}

func (r *journalRepo) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS ledger_events (
			sequence    BIGINT PRIMARY KEY,
			type        TEXT NOT NULL,
			payload     JSONB NOT NULL,
			occurred_at TIMESTAMPTZ NOT NULL
		)
	`)
	return err
}

func (r *journalRepo) AppendBatch(ctx context.Context, records []events.Record) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, rec := range records {
		if err := r.Append(ctx, tx, rec); err != nil {
			return fmt.Errorf("append sequence %d: %w", rec.Sequence, err)
		}
	}
	return tx.Commit()
}

func (r *journalRepo) Append(ctx context.Context, tx *sql.Tx, rec events.Record) error {
	query := `
		INSERT INTO ledger_events (sequence, type, payload, occurred_at)
		VALUES ($1, $2, $3::jsonb, $4)
		ON CONFLICT (sequence) DO NOTHING
	`
	_, err := tx.ExecContext(ctx, query, int64(rec.Sequence), rec.Type, string(rec.Payload), rec.OccurredAt)
	return err
}

func (r *journalRepo) LastSequence(ctx context.Context) (uint64, error) {
	var last int64
	err := r.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(sequence), 0) FROM ledger_events`).Scan(&last)
	if err != nil {
		return 0, err
	}
	return uint64(last), nil
}

func (r *journalRepo) FindAfter(ctx context.Context, after uint64, limit int) ([]events.Record, error) {
	query := `
		SELECT sequence, type, payload::text, occurred_at
		FROM ledger_events
		WHERE sequence > $1
		ORDER BY sequence
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, int64(after), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []events.Record
	for rows.Next() {
		var (
			seq     int64
			payload string
			rec     events.Record
		)
		if err := rows.Scan(&seq, &rec.Type, &payload, &rec.OccurredAt); err != nil {
			return nil, err
		}
		rec.Sequence = uint64(seq)
		rec.Payload = json.RawMessage(payload)
		records = append(records, rec)
	}
	return records, rows.Err()
}
