package logger

import (
	"fmt"
	"log/slog"
)

// Standard field keys for structured logging. Use these keys consistently
// across all log statements so the acceptor, dispatcher and NApp manager
// produce uniformly queryable logs.
const (
	// Distributed tracing
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// Event dispatch
	KeyEventName = "event"   // Event name (kyco/core.connection.new, ...)
	KeyPattern   = "pattern" // Listener subscription pattern
	KeyBuffer    = "buffer"  // Buffer name (raw, app, msg_in, msg_out)

	// Connections & switches
	KeyConnectionID = "connection_id" // Connection identifier (ip:port)
	KeyRemoteAddr   = "remote_addr"   // Raw remote socket address
	KeyDPID         = "dpid"          // Switch datapath id
	KeyState        = "state"         // Connection or NApp lifecycle state

	// NApps
	KeyNApp     = "napp"     // NApp name (author/napp)
	KeyIsCore   = "is_core"  // Whether the NApp is a core NApp
	KeyListener = "listener" // Listener identifier/handle

	// Operation metadata
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
	KeyBytes      = "bytes"       // Byte count read/written/queued
	KeyActive     = "active"      // Active count (connections, switches, napps)
)

// TraceID returns a slog.Attr for the OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for the OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// EventName returns a slog.Attr for the event name
func EventName(name string) slog.Attr {
	return slog.String(KeyEventName, name)
}

// Pattern returns a slog.Attr for a listener subscription pattern
func Pattern(p string) slog.Attr {
	return slog.String(KeyPattern, p)
}

// Buffer returns a slog.Attr for a buffer name
func Buffer(name string) slog.Attr {
	return slog.String(KeyBuffer, name)
}

// ConnectionID returns a slog.Attr for a connection identifier
func ConnectionID(id string) slog.Attr {
	return slog.String(KeyConnectionID, id)
}

// DPID returns a slog.Attr for a switch datapath id
func DPID(id string) slog.Attr {
	return slog.String(KeyDPID, id)
}

// State returns a slog.Attr for a lifecycle state
func State(s fmt.Stringer) slog.Attr {
	return slog.String(KeyState, s.String())
}

// NApp returns a slog.Attr for a NApp name
func NApp(name string) slog.Attr {
	return slog.String(KeyNApp, name)
}

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Active returns a slog.Attr for an active-count gauge value
func Active(n int) slog.Attr {
	return slog.Int(KeyActive, n)
}
