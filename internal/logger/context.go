package logger

import (
	"context"
	"time"
)

// contextKey is a private type for context keys to avoid collisions
type contextKey struct{}

// logContextKey is the key for LogContext in context.Context
var logContextKey = contextKey{}

// LogContext holds request-scoped logging context that is threaded through
// the dispatch pipeline: acceptor, reader, dispatcher loop and listener
// invocation all enrich and pass along the same LogContext.
type LogContext struct {
	TraceID      string    // OpenTelemetry trace ID
	SpanID       string    // OpenTelemetry span ID
	EventName    string    // Event name being dispatched (kyco/core.connection.new, ...)
	DPID         string    // Switch datapath id, once known
	ConnectionID string    // Connection id (ip:port)
	NApp         string    // NApp currently handling the event (author/name)
	StartTime    time.Time // For duration calculation
}

// WithContext returns a new context with the given LogContext
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from context, or nil if not present
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a new LogContext for a connection.
func NewLogContext(connectionID string) *LogContext {
	return &LogContext{
		ConnectionID: connectionID,
		StartTime:    time.Now(),
	}
}

// Clone creates a copy of the LogContext
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	return &LogContext{
		TraceID:      lc.TraceID,
		SpanID:       lc.SpanID,
		EventName:    lc.EventName,
		DPID:         lc.DPID,
		ConnectionID: lc.ConnectionID,
		NApp:         lc.NApp,
		StartTime:    lc.StartTime,
	}
}

// WithEvent returns a copy with the event name set
func (lc *LogContext) WithEvent(name string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.EventName = name
	}
	return clone
}

// WithDPID returns a copy with the switch dpid set
func (lc *LogContext) WithDPID(dpid string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.DPID = dpid
	}
	return clone
}

// WithNApp returns a copy with the handling NApp set
func (lc *LogContext) WithNApp(napp string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.NApp = napp
	}
	return clone
}

// WithTrace returns a copy with trace info set
func (lc *LogContext) WithTrace(traceID, spanID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.TraceID = traceID
		clone.SpanID = spanID
	}
	return clone
}

// DurationMs returns the duration since StartTime in milliseconds
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}
