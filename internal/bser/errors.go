package bser

import "fmt"

// DecodeError reports a malformed header, unexpected opcode, or short
// read encountered while decoding a PDU. It carries enough of the
// accumulator's state to diagnose the failure without re-running the
// decode under a debugger.
type DecodeError struct {
	Msg        string
	BufLen     int
	ReadAvail  int
	ReadOffset int
	NextBytes  []byte
	Cause      error
}

func (e *DecodeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("bser: decode error: %s: %v (buflen=%d avail=%d offset=%d next=% x)",
			e.Msg, e.Cause, e.BufLen, e.ReadAvail, e.ReadOffset, e.NextBytes)
	}
	return fmt.Sprintf("bser: decode error: %s (buflen=%d avail=%d offset=%d next=% x)",
		e.Msg, e.BufLen, e.ReadAvail, e.ReadOffset, e.NextBytes)
}

func (e *DecodeError) Unwrap() error { return e.Cause }

func newDecodeError(acc *Accumulator, msg string, cause error) *DecodeError {
	n := acc.ReadAvail()
	if n > 32 {
		n = 32
	}
	next, _ := acc.PeekBytes(n)
	nextCopy := make([]byte, len(next))
	copy(nextCopy, next)
	return &DecodeError{
		Msg:        msg,
		BufLen:     acc.Cap(),
		ReadAvail:  acc.ReadAvail(),
		ReadOffset: acc.ReadOffset(),
		NextBytes:  nextCopy,
		Cause:      cause,
	}
}

// EncodeError reports an inner failure while emitting an object
// property, re-raised with the property's name as context. An
// unserializable value outside any object is reported as a plain error.
type EncodeError struct {
	Msg   string
	Cause error
}

func (e *EncodeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("bser: encode error: %s: %v", e.Msg, e.Cause)
	}
	return fmt.Sprintf("bser: encode error: %s", e.Msg)
}

func (e *EncodeError) Unwrap() error { return e.Cause }

func withPropertyContext(key string, err error) error {
	return &EncodeError{
		Msg:   fmt.Sprintf("while serializing object property with name '%s'", key),
		Cause: err,
	}
}
