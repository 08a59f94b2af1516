package logger

import (
	"fmt"
	"log/slog"
)

// Standard field keys for structured logging across the command
// client, discovery, and CLI. Use these consistently so log lines
// aggregate and filter cleanly.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// Command client
	// ========================================================================
	KeyCommand    = "command"     // The command name (first element of the request array)
	KeyRequestID  = "request_id"  // Per-command correlation ID (UUID) for log threading
	KeyDurationMs = "duration_ms" // Command round-trip duration in milliseconds
	KeyQueueDepth = "queue_depth" // Number of commands queued ahead of the one being logged
	KeyOutcome    = "outcome"     // "ok", "error", or "cancelled"

	// ========================================================================
	// Wire protocol
	// ========================================================================
	KeyPDULen     = "pdu_len"     // Decoded or encoded PDU payload length in bytes
	KeyBufferLen  = "buffer_len"  // Accumulator buffer length at time of a decode error
	KeyReadOffset = "read_offset" // Accumulator read offset at time of a decode error

	// ========================================================================
	// Connection & discovery
	// ========================================================================
	KeySocketPath = "socket_path" // Resolved Unix-domain socket path
	KeyBinaryPath = "binary_path" // Path to the watchman CLI used for discovery
	KeyCapability = "capability"  // Capability name in a capability-check log line

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyError     = "error"      // Error message
	KeyErrorCode = "error_code" // Numeric error code, when the transport provides one
)

// ----------------------------------------------------------------------------
// Distributed Tracing
// ----------------------------------------------------------------------------

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// ----------------------------------------------------------------------------
// Command client
// ----------------------------------------------------------------------------

// Command returns a slog.Attr for the command name.
func Command(name string) slog.Attr {
	return slog.String(KeyCommand, name)
}

// RequestID returns a slog.Attr for the per-command correlation ID.
func RequestID(id string) slog.Attr {
	return slog.String(KeyRequestID, id)
}

// DurationMs returns a slog.Attr for duration in milliseconds.
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// QueueDepth returns a slog.Attr for the number of queued commands.
func QueueDepth(n int) slog.Attr {
	return slog.Int(KeyQueueDepth, n)
}

// Outcome returns a slog.Attr for a command's outcome.
func Outcome(outcome string) slog.Attr {
	return slog.String(KeyOutcome, outcome)
}

// ----------------------------------------------------------------------------
// Wire protocol
// ----------------------------------------------------------------------------

// PDULen returns a slog.Attr for a PDU payload length.
func PDULen(n int) slog.Attr {
	return slog.Int(KeyPDULen, n)
}

// BufferLen returns a slog.Attr for an accumulator's buffer length.
func BufferLen(n int) slog.Attr {
	return slog.Int(KeyBufferLen, n)
}

// ReadOffset returns a slog.Attr for an accumulator's read offset.
func ReadOffset(n int) slog.Attr {
	return slog.Int(KeyReadOffset, n)
}

// ----------------------------------------------------------------------------
// Connection & discovery
// ----------------------------------------------------------------------------

// SocketPath returns a slog.Attr for the resolved socket path.
func SocketPath(path string) slog.Attr {
	return slog.String(KeySocketPath, path)
}

// BinaryPath returns a slog.Attr for the watchman CLI path.
func BinaryPath(path string) slog.Attr {
	return slog.String(KeyBinaryPath, path)
}

// Capability returns a slog.Attr for a capability name.
func Capability(name string) slog.Attr {
	return slog.String(KeyCapability, name)
}

// ----------------------------------------------------------------------------
// Operation Metadata
// ----------------------------------------------------------------------------

// Err returns a slog.Attr for an error.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorCode returns a slog.Attr for a numeric error code.
func ErrorCode(code int) slog.Attr {
	return slog.Int(KeyErrorCode, code)
}

// Handle returns a slog.Attr rendering an opaque byte handle as hex,
// kept for diagnostics that log raw PDU fragments.
func Handle(h []byte) slog.Attr {
	return slog.String("handle", fmt.Sprintf("%x", h))
}
