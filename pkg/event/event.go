// Package event defines the single message type carried by buffers and
// delivered to listeners.
package event

import "time"

// Reserved event names understood by the core itself. NApps may subscribe
// to these but never publish kyco/core.shutdown directly; use
// buffer.BufferSet.SendStopSignal instead.
const (
	NameConnectionNew  = "kyco/core.connection.new"
	NameConnectionLost = "kyco/core.connection.lost"
	NameShutdown       = "kyco/core.shutdown"
	NameError          = "kyco/core.error"
)

// Content is the heterogeneous keyed payload carried by an Event. Keys are
// conventional, not enforced: the connection.new event carries a
// "connection" key, connection.lost carries "connection_id" and "reason",
// and so on.
type Content map[string]any

// Event is an immutable message routed through a Buffer to listeners whose
// subscription pattern matches Name. Construct with New; do not mutate a
// Event's Content after publishing it onto a buffer.
type Event struct {
	name         string
	timestamp    time.Time
	content      Content
	dpid         string
	connectionID string
}

// New creates an Event with the given name and content. The timestamp is
// set to the current wall-clock time.
func New(name string, content Content) Event {
	if content == nil {
		content = Content{}
	}
	return Event{
		name:      name,
		timestamp: time.Now(),
		content:   content,
	}
}

// WithDPID returns a copy of the event tagged with a switch datapath id.
func (e Event) WithDPID(dpid string) Event {
	e.dpid = dpid
	return e
}

// WithConnectionID returns a copy of the event tagged with a connection id.
func (e Event) WithConnectionID(id string) Event {
	e.connectionID = id
	return e
}

// Name returns the dotted event name, e.g. "kyco/core.connection.new".
func (e Event) Name() string { return e.name }

// Timestamp returns the time the event was created.
func (e Event) Timestamp() time.Time { return e.timestamp }

// Content returns the event's payload map. Callers must not mutate it.
func (e Event) Content() Content { return e.content }

// DPID returns the tagged switch datapath id, or "" if unknown.
func (e Event) DPID() string { return e.dpid }

// ConnectionID returns the tagged connection id, or "" if unknown.
func (e Event) ConnectionID() string { return e.connectionID }

// Shutdown returns the reserved sentinel event that instructs every
// dispatcher loop to terminate.
func Shutdown() Event {
	return New(NameShutdown, nil)
}

// IsShutdown reports whether the event is the shutdown sentinel.
func (e Event) IsShutdown() bool {
	return e.name == NameShutdown
}
