package client

import "github.com/ratson/go-watchman/internal/bser"

// unilateralKeys names the response fields that mark a decoded value
// as server-initiated rather than a reply to the in-flight command.
var unilateralKeys = [...]string{"subscription", "log"}

// classifyUnilateral reports whether v carries one of the unilateral
// tags, and if so, which one.
func classifyUnilateral(v bser.Value) (key string, ok bool) {
	obj, isObj := v.(*bser.Object)
	if !isObj {
		return "", false
	}
	for _, k := range unilateralKeys {
		if _, present := obj.Get(k); present {
			return k, true
		}
	}
	return "", false
}

// EventHandlers is the typed callback registry unilateral events and
// lifecycle notifications are delivered through, in place of an
// event-emitter: responses flow strictly through the command queue,
// while subscription/log/error/end notifications have no pending
// command to attach to. Any field may be left nil; nil handlers are
// simply not invoked.
type EventHandlers struct {
	// OnConnect fires once the socket is open and the read loop has
	// started.
	OnConnect func()
	// OnSubscription fires for every inbound value carrying a
	// "subscription" field.
	OnSubscription func(bser.Value)
	// OnLog fires for every inbound value carrying a "log" field.
	OnLog func(bser.Value)
	// OnError fires for transport, discovery, and decode failures that
	// are not tied to a specific in-flight command.
	OnError func(error)
	// OnEnd fires exactly once when the connection's read loop ends,
	// after any pending commands have been cancelled.
	OnEnd func()
}
