package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/asaskevich/EventBus"
	"go.uber.org/zap"
)

// TopicAll receives every record regardless of its type.
const TopicAll = "*"

// Record is an event as stored in the log.
type Record struct {
	Sequence   uint64          `json:"sequence"`
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Log is an append-only, in-memory event log. Every appended record is
// published on the bus under its type and under TopicAll.
type Log struct {
	mu      sync.RWMutex
	records []Record
	bus     EventBus.Bus
	nowFn   func() time.Time
}

func NewLog() *Log {
	return &Log{
		bus:   EventBus.New(),
		nowFn: time.Now,
	}
}

// SetNowFunc overrides the clock used to stamp records.
func (l *Log) SetNowFunc(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	l.mu.Lock()
	l.nowFn = now
	l.mu.Unlock()
}

// Emit implements the Emitter interface. Events that cannot be encoded are
// dropped and logged; the ledger never depends on observers.
func (l *Log) Emit(ev Event) {
	if ev == nil {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		zap.L().Error("event encode failed", zap.String("type", ev.EventType()), zap.Error(err))
		return
	}

	l.mu.Lock()
	rec := Record{
		Sequence:   uint64(len(l.records)) + 1,
		Type:       ev.EventType(),
		Payload:    payload,
		OccurredAt: l.nowFn().UTC(),
	}
	l.records = append(l.records, rec)
	l.mu.Unlock()

	l.bus.Publish(rec.Type, rec)
	l.bus.Publish(TopicAll, rec)
}

// Subscribe registers fn for records of the given type, or TopicAll.
// Handlers run synchronously on the emitting goroutine.
func (l *Log) Subscribe(topic string, fn func(Record)) error {
	return l.bus.Subscribe(topic, fn)
}

// SubscribeAsync registers fn to run on its own goroutine per record.
func (l *Log) SubscribeAsync(topic string, fn func(Record)) error {
	return l.bus.SubscribeAsync(topic, fn, false)
}

// Unsubscribe removes a handler previously passed to Subscribe.
func (l *Log) Unsubscribe(topic string, fn func(Record)) error {
	return l.bus.Unsubscribe(topic, fn)
}

// WaitAsync blocks until all asynchronous handlers have returned.
func (l *Log) WaitAsync() {
	l.bus.WaitAsync()
}

// Since returns up to limit records with a sequence greater than after.
// A non-positive limit returns all of them.
func (l *Log) Since(after uint64, limit int) []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if after >= uint64(len(l.records)) {
		return nil
	}
	tail := l.records[after:]
	if limit > 0 && len(tail) > limit {
		tail = tail[:limit]
	}
	out := make([]Record, len(tail))
	copy(out, tail)
	return out
}

// Len returns the number of records in the log.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}
