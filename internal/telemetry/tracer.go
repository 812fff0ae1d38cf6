package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for dispatch-core spans.
// These follow OpenTelemetry semantic conventions where applicable.
const (
	// ========================================================================
	// Connection attributes
	// ========================================================================
	AttrConnectionID = "connection.id" // ip:port identifying a connection
	AttrRemoteAddr   = "connection.remote_addr"
	AttrConnState    = "connection.state"

	// ========================================================================
	// Switch attributes
	// ========================================================================
	AttrDPID = "switch.dpid"

	// ========================================================================
	// Event dispatch attributes
	// ========================================================================
	AttrEventName = "event.name"
	AttrPattern   = "listener.pattern"
	AttrBuffer    = "buffer.name"
	AttrListener  = "listener.id"

	// ========================================================================
	// NApp attributes
	// ========================================================================
	AttrNAppName = "napp.name"
	AttrNAppCore = "napp.is_core"

	// ========================================================================
	// Frame/codec attributes
	// ========================================================================
	AttrFrameBytes = "frame.bytes"
)

// Span names for dispatch-core operations.
const (
	// Acceptor / connection lifecycle
	SpanAcceptConnection = "acceptor.accept"
	SpanConnectionRead   = "connection.read"
	SpanConnectionSend   = "connection.send"

	// Dispatch pipeline
	SpanBufferPut        = "buffer.put"
	SpanBufferGet        = "buffer.get"
	SpanDispatch         = "dispatch.notify"
	SpanListenerInvoke   = "dispatch.listener"
	SpanDecodeFrame      = "codec.decode"
	SpanEncodeFrame      = "codec.encode"

	// NApp lifecycle
	SpanNAppLoad   = "napp.load"
	SpanNAppUnload = "napp.unload"
	SpanNAppStart  = "napp.start"
)

// ConnectionID returns an attribute for a connection identifier.
func ConnectionID(id string) attribute.KeyValue {
	return attribute.String(AttrConnectionID, id)
}

// RemoteAddr returns an attribute for a connection's remote address.
func RemoteAddr(addr string) attribute.KeyValue {
	return attribute.String(AttrRemoteAddr, addr)
}

// ConnState returns an attribute for a connection lifecycle state.
func ConnState(state string) attribute.KeyValue {
	return attribute.String(AttrConnState, state)
}

// DPID returns an attribute for a switch datapath id.
func DPID(dpid string) attribute.KeyValue {
	return attribute.String(AttrDPID, dpid)
}

// EventName returns an attribute for an event name.
func EventName(name string) attribute.KeyValue {
	return attribute.String(AttrEventName, name)
}

// Pattern returns an attribute for a listener subscription pattern.
func Pattern(p string) attribute.KeyValue {
	return attribute.String(AttrPattern, p)
}

// BufferName returns an attribute for a buffer name (raw, app, msg_in, msg_out).
func BufferName(name string) attribute.KeyValue {
	return attribute.String(AttrBuffer, name)
}

// ListenerID returns an attribute for a listener handle.
func ListenerID(id string) attribute.KeyValue {
	return attribute.String(AttrListener, id)
}

// NAppName returns an attribute for a NApp name (author/napp).
func NAppName(name string) attribute.KeyValue {
	return attribute.String(AttrNAppName, name)
}

// NAppCore returns an attribute for whether a NApp is a core NApp.
func NAppCore(core bool) attribute.KeyValue {
	return attribute.Bool(AttrNAppCore, core)
}

// FrameBytes returns an attribute for a wire frame's byte length.
func FrameBytes(n int) attribute.KeyValue {
	return attribute.Int(AttrFrameBytes, n)
}

// StartDispatchSpan starts a span for notifying listeners of an event.
func StartDispatchSpan(ctx context.Context, eventName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{EventName(eventName)}
	allAttrs = append(allAttrs, attrs...)
	return StartSpan(ctx, SpanDispatch, trace.WithAttributes(allAttrs...))
}

// StartListenerSpan starts a span for a single listener invocation.
func StartListenerSpan(ctx context.Context, pattern string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{Pattern(pattern)}
	allAttrs = append(allAttrs, attrs...)
	return StartSpan(ctx, SpanListenerInvoke, trace.WithAttributes(allAttrs...))
}

// StartConnectionSpan starts a span for a connection-lifecycle operation.
func StartConnectionSpan(ctx context.Context, name, connectionID string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{ConnectionID(connectionID)}
	allAttrs = append(allAttrs, attrs...)
	return StartSpan(ctx, name, trace.WithAttributes(allAttrs...))
}

// StartNAppSpan starts a span for a NApp lifecycle operation.
func StartNAppSpan(ctx context.Context, name, napp string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{NAppName(napp)}
	allAttrs = append(allAttrs, attrs...)
	return StartSpan(ctx, name, trace.WithAttributes(allAttrs...))
}
