package store

import "context"

// ─────────────────────────────────────────────────────────────
// EventEmitter — decouples the store from wailsRuntime
// ─────────────────────────────────────────────────────────────

// EventEmitter is an interface for emitting events to the frontend.
// The App struct implements this by delegating to wailsRuntime.EventsEmit.
// The store receives this interface instead of a wailsRuntime context,
// which makes it independently testable with a mock emitter.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// Events emitted by the store. The frontend re-reads the relevant state
// accessor when it sees one of these.
const (
	EventPagesChanged     = "state:pages-changed"
	EventSelectionChanged = "state:selection-changed"
	EventToolChanged      = "state:tool-changed"
	EventViewportChanged  = "state:viewport-changed"
	EventSaveFailed       = "state:save-failed"
)

// MockEmitter is a test-friendly EventEmitter that records all calls.
type MockEmitter struct {
	Events []EmittedEvent
}

// EmittedEvent holds a single recorded emission for test assertions.
type EmittedEvent struct {
	Event string
	Data  any
}

func (m *MockEmitter) Emit(_ context.Context, event string, data any) {
	m.Events = append(m.Events, EmittedEvent{Event: event, Data: data})
}
