package models

import "time"

// EventKind tags one entry in the structured event stream
type EventKind string

const (
	EventScanStarted  EventKind = "scan_started"
	EventFileVerdict  EventKind = "file_verdict"
	EventQuarantined  EventKind = "file_quarantined"
	EventRestored     EventKind = "file_restored"
	EventDeleted      EventKind = "file_deleted"
	EventScanFinished EventKind = "scan_finished"
)

// Event is one entry in the stream consumed by the external reporting layer.
// The core emits events; it never formats or persists logs itself.
type Event struct {
	Kind      EventKind         `json:"kind"`
	Path      string            `json:"path,omitempty"`
	Verdict   string            `json:"verdict,omitempty"`
	Detail    string            `json:"detail,omitempty"`
	Record    *QuarantineRecord `json:"record,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// Emitter consumes the event stream. Implementations must be safe for
// concurrent use by pipeline workers and the vault.
type Emitter interface {
	Emit(Event)
}

// NopEmitter discards all events
type NopEmitter struct{}

// Emit implements Emitter
func (NopEmitter) Emit(Event) {}
