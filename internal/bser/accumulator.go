package bser

import (
	"encoding/binary"
	"fmt"
	"math"
)

// nativeEndian is the host's native byte order. The wire format declares
// host byte order on purpose (the service only ever talks to local
// clients), so all typed reads and writes below centralize endian handling
// here instead of scattering byte-order checks through the decoder.
var nativeEndian = binary.NativeEndian

// ShortReadError reports that an Accumulator read or peek was attempted
// past the available unread bytes.
type ShortReadError struct {
	Requested int
	Available int
}

func (e *ShortReadError) Error() string {
	return fmt.Sprintf("bser: short read: requested %d bytes, %d available", e.Requested, e.Available)
}

// Accumulator is a growable byte buffer with independent read and write
// cursors. It supports reclaiming space by shifting unread bytes to the
// front ("shunt") before growing, and typed integer/double reads and
// writes in host endianness.
//
// Invariant: 0 <= readOffset <= writeOffset <= len(buf).
type Accumulator struct {
	buf         []byte
	readOffset  int
	writeOffset int
}

// NewAccumulator returns an empty Accumulator. initialCap is a hint only;
// Reserve grows the backing storage as needed.
func NewAccumulator(initialCap int) *Accumulator {
	if initialCap < 0 {
		initialCap = 0
	}
	return &Accumulator{buf: make([]byte, initialCap)[:0:initialCap]}
}

// NewAccumulatorFromBytes wraps an existing byte slice as fully-written,
// unread data. Used by the synchronous one-shot decode entry point.
func NewAccumulatorFromBytes(p []byte) *Accumulator {
	return &Accumulator{buf: p, writeOffset: len(p)}
}

// ReadAvail returns the number of unread bytes.
func (a *Accumulator) ReadAvail() int { return a.writeOffset - a.readOffset }

// WriteAvail returns the number of bytes that can be appended without
// growing the backing storage.
func (a *Accumulator) WriteAvail() int { return len(a.buf) - a.writeOffset }

// Len is an alias for ReadAvail, for diagnostic callers.
func (a *Accumulator) Len() int { return a.ReadAvail() }

// Cap returns the size of the backing storage.
func (a *Accumulator) Cap() int { return len(a.buf) }

// ReadOffset returns the current read cursor, for diagnostics.
func (a *Accumulator) ReadOffset() int { return a.readOffset }

// nextPow2 returns the smallest power of two >= n (minimum 1).
func nextPow2(n int) int {
	if n <= 0 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// Reserve ensures at least n bytes of write-available space, first trying
// to reclaim space by shifting unread bytes to offset 0 (the "shunt"),
// then doubling the backing storage to the next power of two large enough
// to hold the request.
func (a *Accumulator) Reserve(n int) {
	if a.WriteAvail() > n {
		return
	}

	if a.readOffset > 0 {
		copy(a.buf, a.buf[a.readOffset:a.writeOffset])
		a.writeOffset -= a.readOffset
		a.readOffset = 0
	}

	if a.WriteAvail() > n {
		return
	}

	need := len(a.buf) + n - a.WriteAvail()
	newCap := nextPow2(need)
	nb := make([]byte, newCap)
	copy(nb, a.buf[:a.writeOffset])
	a.buf = nb
}

// Append reserves space for and copies p into the buffer, advancing the
// write cursor.
func (a *Accumulator) Append(p []byte) {
	a.Reserve(len(p))
	copy(a.buf[a.writeOffset:], p)
	a.writeOffset += len(p)
}

// AppendString is a convenience wrapper around Append for UTF-8 strings.
func (a *Accumulator) AppendString(s string) {
	a.Append([]byte(s))
}

// PeekBytes returns the next n unread bytes without advancing the read
// cursor. The returned slice aliases the accumulator's storage and must
// not be retained across any mutating call.
func (a *Accumulator) PeekBytes(n int) ([]byte, error) {
	if a.ReadAvail() < n {
		return nil, &ShortReadError{Requested: n, Available: a.ReadAvail()}
	}
	return a.buf[a.readOffset : a.readOffset+n], nil
}

// ReadBytes returns a copy of the next n unread bytes and advances the
// read cursor past them.
func (a *Accumulator) ReadBytes(n int) ([]byte, error) {
	p, err := a.PeekBytes(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, p)
	a.readOffset += n
	return out, nil
}

// ReadAdvance moves the read cursor by delta, which may be negative to
// back up over bytes already consumed (used by the decoder to rewind a
// speculative peek). It fails if the result would be negative or would
// run past the write cursor.
func (a *Accumulator) ReadAdvance(delta int) error {
	next := a.readOffset + delta
	if next < 0 {
		return fmt.Errorf("bser: read cursor underflow (offset=%d delta=%d)", a.readOffset, delta)
	}
	if delta > 0 && a.ReadAvail() < delta {
		return &ShortReadError{Requested: delta, Available: a.ReadAvail()}
	}
	a.readOffset = next
	return nil
}

// PeekInt reads a size-byte (1, 2, 4, or 8) signed integer in host
// endianness without advancing the read cursor.
func (a *Accumulator) PeekInt(size int) (int64, error) {
	p, err := a.PeekBytes(size)
	if err != nil {
		return 0, err
	}
	return decodeSignedInt(p, size)
}

// ReadInt reads a size-byte signed integer in host endianness and
// advances the read cursor past it.
func (a *Accumulator) ReadInt(size int) (int64, error) {
	v, err := a.PeekInt(size)
	if err != nil {
		return 0, err
	}
	a.readOffset += size
	return v, nil
}

// WriteInt appends a size-byte signed integer in host endianness.
func (a *Accumulator) WriteInt(size int, v int64) {
	a.Reserve(size)
	p := a.buf[a.writeOffset : a.writeOffset+size]
	encodeSignedInt(p, size, v)
	a.writeOffset += size
}

// PeekDouble reads an 8-byte IEEE-754 double in host endianness without
// advancing the read cursor.
func (a *Accumulator) PeekDouble() (float64, error) {
	p, err := a.PeekBytes(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(nativeEndian.Uint64(p)), nil
}

// ReadDouble reads an 8-byte IEEE-754 double in host endianness and
// advances the read cursor past it.
func (a *Accumulator) ReadDouble() (float64, error) {
	v, err := a.PeekDouble()
	if err != nil {
		return 0, err
	}
	a.readOffset += 8
	return v, nil
}

// WriteDouble appends an 8-byte IEEE-754 double in host endianness.
func (a *Accumulator) WriteDouble(v float64) {
	a.Reserve(8)
	nativeEndian.PutUint64(a.buf[a.writeOffset:a.writeOffset+8], math.Float64bits(v))
	a.writeOffset += 8
}

// PeekString decodes n bytes as an owned UTF-8 string copy without
// advancing the read cursor. The copy happens implicitly: converting a
// byte slice to a string in Go always copies.
func (a *Accumulator) PeekString(n int) (string, error) {
	p, err := a.PeekBytes(n)
	if err != nil {
		return "", err
	}
	return string(p), nil
}

// ReadString decodes n bytes as an owned UTF-8 string copy and advances
// the read cursor past them.
func (a *Accumulator) ReadString(n int) (string, error) {
	s, err := a.PeekString(n)
	if err != nil {
		return "", err
	}
	a.readOffset += n
	return s, nil
}

// Bytes returns the full unread slice, for tests and diagnostics.
func (a *Accumulator) Bytes() []byte {
	return a.buf[a.readOffset:a.writeOffset]
}

func decodeSignedInt(p []byte, size int) (int64, error) {
	switch size {
	case 1:
		return int64(int8(p[0])), nil
	case 2:
		return int64(int16(nativeEndian.Uint16(p))), nil
	case 4:
		return int64(int32(nativeEndian.Uint32(p))), nil
	case 8:
		return int64(nativeEndian.Uint64(p)), nil
	default:
		return 0, fmt.Errorf("bser: unsupported integer width %d", size)
	}
}

func encodeSignedInt(p []byte, size int, v int64) {
	switch size {
	case 1:
		p[0] = byte(int8(v))
	case 2:
		nativeEndian.PutUint16(p, uint16(int16(v)))
	case 4:
		nativeEndian.PutUint32(p, uint32(int32(v)))
	case 8:
		nativeEndian.PutUint64(p, uint64(v))
	default:
		panic(fmt.Sprintf("bser: unsupported integer width %d", size))
	}
}
