// Package events carries ledger record changes to observers.
package events

// Event represents a structured ledger state change.
type Event interface {
	EventType() string
}

// Emitter broadcasts events to downstream observers.
type Emitter interface {
	Emit(Event)
}

// NoopEmitter discards all events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}
