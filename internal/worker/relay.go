package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"the-escrow-ledger/internal/events"
)

type EventSource interface {
	Since(after uint64, limit int) []events.Record
}

type Journal interface {
	LastSequence(ctx context.Context) (uint64, error)
	AppendBatch(ctx context.Context, records []events.Record) error
}

// JournalRelay copies new records from the in-memory event log into the
// journal. The cursor only advances after a batch commits.
type JournalRelay struct {
	source   EventSource
	journal  Journal
	interval time.Duration
	batch    int
	cursor   uint64
}

func NewJournalRelay(source EventSource, journal Journal, interval time.Duration, batch int) *JournalRelay {
	if batch <= 0 {
		batch = 100
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &JournalRelay{
		source:   source,
		journal:  journal,
		interval: interval,
		batch:    batch,
	}
}

// Run resumes from the journal's last sequence and relays until ctx is done.
func (jr *JournalRelay) Run(ctx context.Context) error {
	last, err := jr.journal.LastSequence(ctx)
	if err != nil {
		return err
	}
	jr.cursor = last

	ticker := time.NewTicker(jr.interval)
	defer ticker.Stop()

	zap.L().Info("journal relay started", zap.Uint64("cursor", jr.cursor))

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("journal relay stopped", zap.Uint64("cursor", jr.cursor))
			return nil
		case <-ticker.C:
			if _, err := jr.Flush(ctx); err != nil {
				zap.L().Warn("journal relay failed", zap.Uint64("cursor", jr.cursor), zap.Error(err))
			}
		}
	}
}

// Flush relays every pending record in batches and returns how many were
// written.
func (jr *JournalRelay) Flush(ctx context.Context) (int, error) {
	written := 0
	for {
		pending := jr.source.Since(jr.cursor, jr.batch)
		if len(pending) == 0 {
			return written, nil
		}
		if err := jr.journal.AppendBatch(ctx, pending); err != nil {
			return written, err
		}
		jr.cursor = pending[len(pending)-1].Sequence
		written += len(pending)
	}
}

// Cursor returns the last relayed sequence.
func (jr *JournalRelay) Cursor() uint64 { return jr.cursor }
