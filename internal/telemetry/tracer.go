package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for the client's two instrumented operations:
// connecting to the service's socket and a single command round trip.
const (
	AttrSocketPath = "watchman.socket_path"
	AttrBinaryPath = "watchman.binary_path"
	AttrCommand    = "watchman.command"
	AttrRequestID  = "watchman.request_id"
	AttrQueueDepth = "watchman.queue_depth"
	AttrOutcome    = "watchman.outcome"
	AttrPDULen     = "watchman.pdu_len"
	AttrCapability = "watchman.capability"
	AttrServerVer  = "watchman.server_version"
	AttrReconnect  = "watchman.reconnect"
)

// Span names.
const (
	SpanConnect = "watchman.connect"
	SpanCommand = "watchman.command"
)

// SocketPath returns an attribute for the resolved socket path.
func SocketPath(path string) attribute.KeyValue {
	return attribute.String(AttrSocketPath, path)
}

// BinaryPath returns an attribute for the watchman CLI used for discovery.
func BinaryPath(path string) attribute.KeyValue {
	return attribute.String(AttrBinaryPath, path)
}

// Command returns an attribute for the command name (first element of
// the request array).
func Command(name string) attribute.KeyValue {
	return attribute.String(AttrCommand, name)
}

// RequestID returns an attribute for the per-command correlation ID.
func RequestID(id string) attribute.KeyValue {
	return attribute.String(AttrRequestID, id)
}

// QueueDepth returns an attribute for the number of commands still
// queued behind the one being traced when it is dispatched.
func QueueDepth(n int) attribute.KeyValue {
	return attribute.Int(AttrQueueDepth, n)
}

// Outcome returns an attribute for a command's outcome ("ok", "error",
// or "cancelled").
func Outcome(outcome string) attribute.KeyValue {
	return attribute.String(AttrOutcome, outcome)
}

// PDULen returns an attribute for an encoded or decoded PDU payload
// length in bytes.
func PDULen(n int) attribute.KeyValue {
	return attribute.Int(AttrPDULen, n)
}

// Capability returns an attribute for a capability name being checked.
func Capability(name string) attribute.KeyValue {
	return attribute.String(AttrCapability, name)
}

// ServerVersion returns an attribute for the server's reported version.
func ServerVersion(version string) attribute.KeyValue {
	return attribute.String(AttrServerVer, version)
}

// Reconnect returns an attribute marking a connect span as a reconnect
// rather than the first connection attempt.
func Reconnect(reconnect bool) attribute.KeyValue {
	return attribute.Bool(AttrReconnect, reconnect)
}

// StartConnectSpan starts a span around socket discovery and dialing.
func StartConnectSpan(ctx context.Context, binaryPath string, reconnect bool) (context.Context, trace.Span) {
	return StartSpan(ctx, SpanConnect, trace.WithAttributes(
		BinaryPath(binaryPath),
		Reconnect(reconnect),
	))
}

// StartCommandSpan starts a span around a single command's round trip,
// from dispatch to response (or error/cancellation).
func StartCommandSpan(ctx context.Context, command string, requestID string, queueDepth int) (context.Context, trace.Span) {
	return StartSpan(ctx, SpanCommand, trace.WithAttributes(
		Command(command),
		RequestID(requestID),
		QueueDepth(queueDepth),
	))
}
