// Package client implements the framed command client: a single
// connection to a locally running watchman-compatible service that
// serializes request/response command exchanges while demultiplexing
// unsolicited subscription and log events onto the same decoder.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ratson/go-watchman/internal/bser"
	"github.com/ratson/go-watchman/internal/logger"
	"github.com/ratson/go-watchman/internal/metrics"
	"github.com/ratson/go-watchman/internal/telemetry"
)

// defaultBinaryPath is the bare command name resolved via PATH when no
// override is given, matching the service's own CLI name.
const defaultBinaryPath = "watchman"

// readChunkSize is the implementation-defined size of each read from
// the socket into the decoder.
const readChunkSize = 1024

// state is the client's connection lifecycle state.
type state int

const (
	stateIdle state = iota
	stateConnecting
	stateConnectedIdle
	stateConnectedInFlight
	stateClosing
	stateClosed
)

// queueEntry pairs a request with its single-shot completion callback.
type queueEntry struct {
	request   bser.Value
	done      func(error, bser.Value)
	startedAt time.Time

	requestID string
	span      trace.Span
}

// Options configures a new Client.
type Options struct {
	// BinaryPath overrides the service binary resolved via PATH.
	// Surrounding whitespace is trimmed; empty defaults to "watchman".
	BinaryPath string
	// Metrics, if set, is updated with command counts and latencies.
	Metrics *metrics.Registry
	// Handlers receives unilateral events and lifecycle notifications.
	Handlers EventHandlers
}

// Client owns a socket, a decoder, a FIFO command queue, and a
// dispatch state machine. All commands on one Client complete strictly
// in submission order; the service's protocol never multiplexes
// concurrent in-flight commands on a single connection, so neither
// does this client.
type Client struct {
	binaryPath string
	metrics    *metrics.Registry
	handlers   EventHandlers

	commandCh chan *queueEntry
	endCh     chan struct{}
	endOnce   sync.Once
	doneCh    chan struct{}

	connectDoneCh chan connectResult
	inboundCh     chan bser.Value
	inboundErrCh  chan error
	readEndedCh   chan struct{}
}

type connectResult struct {
	conn net.Conn
	dec  *bser.StreamDecoder
	err  error
}

// New constructs a Client and starts its owning goroutine. The client
// does not connect until the first command is submitted.
func New(opts Options) *Client {
	binaryPath := strings.TrimSpace(opts.BinaryPath)
	if binaryPath == "" {
		binaryPath = defaultBinaryPath
	}

	c := &Client{
		binaryPath: binaryPath,
		metrics:    opts.Metrics,
		handlers:   opts.Handlers,

		commandCh: make(chan *queueEntry),
		endCh:     make(chan struct{}),
		doneCh:    make(chan struct{}),

		connectDoneCh: make(chan connectResult, 1),
		inboundCh:     make(chan bser.Value, 16),
		inboundErrCh:  make(chan error, 1),
		readEndedCh:   make(chan struct{}, 1),
	}
	go c.run()
	return c
}

// Command enqueues request and arranges for done to be invoked exactly
// once: with the decoded response on success, or with an error if the
// command fails, is cancelled by a connection teardown, or the client
// is ended first. ctx governs only the enqueue step itself; a command
// accepted onto the queue always eventually completes via done.
func (c *Client) Command(ctx context.Context, request bser.Value, done func(error, bser.Value)) error {
	entry := &queueEntry{request: request, done: done, requestID: uuid.NewString()}
	select {
	case c.commandCh <- entry:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.doneCh:
		return fmt.Errorf("watchman: client is closed")
	}
}

// CapabilityCheck submits a version/capability-check command and
// blocks until it completes, synthesizing a capability map from the
// server's version string when the server predates capability queries.
func (c *Client) CapabilityCheck(ctx context.Context, req CapabilityCheckRequest) (*CapabilityCheckResponse, error) {
	type result struct {
		resp bser.Value
		err  error
	}
	resultCh := make(chan result, 1)

	if err := c.Command(ctx, buildCapabilityCommand(req), func(err error, resp bser.Value) {
		resultCh <- result{resp, err}
	}); err != nil {
		return nil, err
	}

	select {
	case res := <-resultCh:
		if res.err != nil {
			return nil, res.err
		}
		return interpretCapabilityResponse(req, res.resp)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// End cancels every pending and in-flight command with a
// "The client was ended" failure, closes the socket if one is open, and
// blocks until teardown has finished. End is idempotent.
func (c *Client) End() {
	c.endOnce.Do(func() { close(c.endCh) })
	<-c.doneCh
}

// run owns every piece of mutable client state -- the queue, the
// in-flight slot, the connection, and whether a connection is
// currently active -- for the client's entire lifetime, matching the
// single-threaded cooperative model the wire protocol assumes. No
// other goroutine touches this state directly; they communicate with
// run exclusively over channels.
func (c *Client) run() {
	defer close(c.doneCh)

	var (
		st                 state = stateIdle
		queue              []*queueEntry
		inFlight           *queueEntry
		conn               net.Conn
		connActive         bool
		hasConnectedBefore bool
		connectSpan        trace.Span
	)

	endEntrySpan := func(entry *queueEntry, outcome string, err error) {
		if entry.span == nil {
			return
		}
		entry.span.SetAttributes(telemetry.Outcome(outcome))
		if err != nil {
			entry.span.RecordError(err)
			entry.span.SetStatus(codes.Error, err.Error())
		}
		entry.span.End()
		entry.span = nil
	}

	cancelAll := func(reason string) {
		stolen := queue
		queue = nil
		if inFlight != nil {
			stolen = append([]*queueEntry{inFlight}, stolen...)
			inFlight = nil
		}
		for _, e := range stolen {
			c.metrics.RecordCancelled()
			endEntrySpan(e, "cancelled", nil)
			e.done(fmt.Errorf("watchman: %s", reason), nil)
		}
	}

	var dispatch func()
	dispatch = func() {
		if inFlight != nil || st != stateConnectedIdle || len(queue) == 0 {
			return
		}
		entry := queue[0]
		queue = queue[1:]
		_, entry.span = telemetry.StartCommandSpan(context.Background(), commandName(entry.request), entry.requestID, len(queue))

		b, err := bser.Encode(entry.request)
		if err != nil {
			c.metrics.RecordCommand("error", 0)
			endEntrySpan(entry, "error", err)
			entry.done(fmt.Errorf("watchman: encode command: %w", err), nil)
			dispatch()
			return
		}

		inFlight = entry
		st = stateConnectedInFlight
		entry.startedAt = time.Now()

		if _, err := conn.Write(b); err != nil {
			inFlight = nil
			st = stateConnectedIdle
			c.metrics.RecordCommand("error", time.Since(entry.startedAt).Seconds())
			endEntrySpan(entry, "error", err)
			entry.done(fmt.Errorf("watchman: write command: %w", err), nil)
			dispatch()
		}
	}

	handleDisconnect := func(err error, reason string) {
		if !connActive {
			return
		}
		connActive = false
		if err != nil && c.handlers.OnError != nil {
			c.handlers.OnError(err)
		}
		if conn != nil {
			conn.Close()
			conn = nil
		}
		st = stateIdle
		cancelAll(reason)
		if c.handlers.OnEnd != nil {
			c.handlers.OnEnd()
		}
	}

	for {
		if st == stateClosed {
			return
		}

		select {
		case entry := <-c.commandCh:
			queue = append(queue, entry)
			switch st {
			case stateIdle:
				st = stateConnecting
				_, connectSpan = telemetry.StartConnectSpan(context.Background(), c.binaryPath, hasConnectedBefore)
				go c.doConnect()
			case stateConnectedIdle:
				dispatch()
			}

		case res := <-c.connectDoneCh:
			if res.err != nil {
				st = stateIdle
				if connectSpan != nil {
					connectSpan.RecordError(res.err)
					connectSpan.SetStatus(codes.Error, res.err.Error())
					connectSpan.End()
					connectSpan = nil
				}
				if c.handlers.OnError != nil {
					c.handlers.OnError(res.err)
				}
				cancelAll(res.err.Error())
				continue
			}
			if hasConnectedBefore {
				c.metrics.RecordReconnect()
			}
			hasConnectedBefore = true
			connActive = true
			conn = res.conn
			st = stateConnectedIdle
			if connectSpan != nil {
				connectSpan.End()
				connectSpan = nil
			}
			logger.Debug("watchman connected", "binary_path", c.binaryPath)
			if c.handlers.OnConnect != nil {
				c.handlers.OnConnect()
			}
			go c.readLoop(conn, res.dec)
			dispatch()

		case v := <-c.inboundCh:
			if key, ok := classifyUnilateral(v); ok {
				switch key {
				case "subscription":
					if c.handlers.OnSubscription != nil {
						c.handlers.OnSubscription(v)
					}
				case "log":
					if c.handlers.OnLog != nil {
						c.handlers.OnLog(v)
					}
				}
				continue
			}

			if inFlight == nil {
				if c.handlers.OnError != nil {
					c.handlers.OnError(fmt.Errorf("watchman: received response with no command in flight"))
				}
				continue
			}
			entry := inFlight
			inFlight = nil
			st = stateConnectedIdle

			elapsed := time.Since(entry.startedAt).Seconds()
			if errField, failed := responseError(v); failed {
				c.metrics.RecordCommand("error", elapsed)
				err := fmt.Errorf("watchman: %s", errField)
				endEntrySpan(entry, "error", err)
				entry.done(err, v)
			} else {
				c.metrics.RecordCommand("ok", elapsed)
				endEntrySpan(entry, "ok", nil)
				entry.done(nil, v)
			}
			dispatch()

		case err := <-c.inboundErrCh:
			handleDisconnect(err, "The watchman connection was closed")

		case <-c.readEndedCh:
			handleDisconnect(nil, "The watchman connection was closed")

		case <-c.endCh:
			st = stateClosing
			cancelAll("The client was ended")
			if conn != nil {
				conn.Close()
				conn = nil
			}
			if connActive {
				connActive = false
				if c.handlers.OnEnd != nil {
					c.handlers.OnEnd()
				}
			}
			st = stateClosed
		}
	}
}

// doConnect performs socket discovery and dialing off the owning
// goroutine, reporting the outcome back over connectDoneCh so run
// remains the sole mutator of client state.
func (c *Client) doConnect() {
	path, err := discoverSocketPath(context.Background(), c.binaryPath)
	if err != nil {
		c.connectDoneCh <- connectResult{err: err}
		return
	}

	conn, err := net.Dial("unix", path)
	if err != nil {
		c.connectDoneCh <- connectResult{err: fmt.Errorf("watchman: dial %s: %w", path, err)}
		return
	}

	dec := bser.NewStreamDecoder(
		func(v bser.Value) { c.inboundCh <- v },
		func(err error) {
			c.inboundErrCh <- err
			conn.Close()
		},
	)

	c.connectDoneCh <- connectResult{conn: conn, dec: dec}
}

// readLoop feeds inbound bytes to dec until the connection ends, then
// signals run once without blocking: inboundErrCh for an unexpected
// read error, readEndedCh for an expected local close. A decode error
// reports itself on inboundErrCh and closes the connection (see
// doConnect), so readLoop then also sends readEndedCh; run acts only on
// whichever of the two signals arrives first for a connection.
func (c *Client) readLoop(conn net.Conn, dec *bser.StreamDecoder) {
	buf := make([]byte, readChunkSize)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			dec.Feed(buf[:n])
		}
		if err != nil {
			if !isExpectedCloseError(err) {
				select {
				case c.inboundErrCh <- fmt.Errorf("watchman: read: %w", err):
				default:
				}
				return
			}
			select {
			case c.readEndedCh <- struct{}{}:
			default:
			}
			return
		}
	}
}

// isExpectedCloseError reports whether err is the ordinary artifact of
// a local socket close rather than a genuine transport failure worth
// surfacing on the error channel.
func isExpectedCloseError(err error) bool {
	if errors.Is(err, net.ErrClosed) || errors.Is(err, io.EOF) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Err != nil {
		msg := opErr.Err.Error()
		if strings.Contains(msg, "use of closed network connection") ||
			strings.Contains(msg, "operation was canceled") ||
			strings.Contains(msg, "operation canceled") {
			return true
		}
	}
	return false
}

// commandName extracts the command name -- the first element of a
// request array -- for use in logging and tracing. Returns "unknown"
// for malformed or non-array requests.
func commandName(request bser.Value) string {
	arr, ok := request.(bser.Array)
	if !ok || len(arr) == 0 {
		return "unknown"
	}
	s, ok := arr[0].(bser.String)
	if !ok {
		return "unknown"
	}
	return string(s)
}

// responseError reports whether v is a response object carrying an
// "error" field, and its message if so.
func responseError(v bser.Value) (string, bool) {
	obj, ok := v.(*bser.Object)
	if !ok {
		return "", false
	}
	errVal, ok := obj.Get("error")
	if !ok {
		return "", false
	}
	s, ok := errVal.(bser.String)
	if !ok {
		return "", false
	}
	return string(s), true
}
