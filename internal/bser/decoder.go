package bser

import (
	"fmt"
	"runtime"
)

// Decode is the synchronous, one-shot decode entry point: it expects buf
// to hold exactly one framed PDU and fails if any bytes remain unread
// afterwards.
func Decode(buf []byte) (Value, error) {
	acc := NewAccumulatorFromBytes(buf)

	hdr, err := acc.ReadBytes(2)
	if err != nil {
		return nil, newDecodeError(acc, "short PDU header", err)
	}
	if hdr[0] != pduHeader[0] || hdr[1] != pduHeader[1] {
		return nil, newDecodeError(acc, fmt.Sprintf("bad PDU header % x", hdr), nil)
	}

	pduLen, err := decodeInt(acc)
	if err != nil {
		return nil, err
	}
	if int64(acc.ReadAvail()) < pduLen {
		return nil, newDecodeError(acc, fmt.Sprintf("short PDU payload: need %d", pduLen), nil)
	}

	v, err := decodeValue(acc)
	if err != nil {
		return nil, err
	}
	if acc.ReadAvail() != 0 {
		return nil, newDecodeError(acc, "excess data after PDU", nil)
	}
	return v, nil
}

// decodeInt reads a tagged BSER integer strictly: short input or an
// unexpected tag is always an error, since callers only use this once a
// full PDU is known to be buffered.
func decodeInt(acc *Accumulator) (int64, error) {
	tagByte, err := acc.ReadBytes(1)
	if err != nil {
		return 0, newDecodeError(acc, "short read decoding integer tag", err)
	}
	size, err := intSizeForTag(Tag(tagByte[0]))
	if err != nil {
		return 0, newDecodeError(acc, err.Error(), nil)
	}
	v, err := acc.ReadInt(size)
	if err != nil {
		return 0, newDecodeError(acc, "short read decoding integer payload", err)
	}
	return v, nil
}

func intSizeForTag(t Tag) (int, error) {
	switch t {
	case TagInt8:
		return 1, nil
	case TagInt16:
		return 2, nil
	case TagInt32:
		return 4, nil
	case TagInt64:
		return 8, nil
	default:
		return 0, fmt.Errorf("unexpected tag %#x (%s) for integer", byte(t), t)
	}
}

// decodeRelaxedInt attempts the same decode as decodeInt but, when there
// is not yet enough data buffered to complete it, returns ok=false
// without consuming any bytes instead of failing. This backs the
// speculative peek-then-rewind the PDU framer performs while waiting for
// the length field to arrive.
func decodeRelaxedInt(acc *Accumulator) (value int64, ok bool, err error) {
	tagBytes, perr := acc.PeekBytes(1)
	if perr != nil {
		return 0, false, nil
	}
	size, terr := intSizeForTag(Tag(tagBytes[0]))
	if terr != nil {
		return 0, false, newDecodeError(acc, terr.Error(), nil)
	}
	if acc.ReadAvail() < 1+size {
		return 0, false, nil
	}
	if err := acc.ReadAdvance(1); err != nil {
		return 0, false, err
	}
	v, err := acc.ReadInt(size)
	if err != nil {
		return 0, false, newDecodeError(acc, "short read decoding relaxed integer payload", err)
	}
	return v, true, nil
}

// decodeValue dispatches on the tag byte and decodes exactly one BSER
// value, recursively for arrays, objects, and templates.
func decodeValue(acc *Accumulator) (Value, error) {
	tagBytes, err := acc.ReadBytes(1)
	if err != nil {
		return nil, newDecodeError(acc, "short read decoding value tag", err)
	}
	tag := Tag(tagBytes[0])

	switch tag {
	case TagNull:
		return NullValue, nil
	case TagTrue:
		return Bool(true), nil
	case TagFalse:
		return Bool(false), nil
	case TagInt8, TagInt16, TagInt32:
		size, _ := intSizeForTag(tag)
		v, err := acc.ReadInt(size)
		if err != nil {
			return nil, newDecodeError(acc, "short read decoding integer value", err)
		}
		return Number(v), nil
	case TagInt64:
		v, err := acc.ReadInt(8)
		if err != nil {
			return nil, newDecodeError(acc, "short read decoding int64 value", err)
		}
		return narrowInt64(v), nil
	case TagReal:
		v, err := acc.ReadDouble()
		if err != nil {
			return nil, newDecodeError(acc, "short read decoding real value", err)
		}
		return Number(v), nil
	case TagString:
		return decodeStringValue(acc)
	case TagArray:
		return decodeArrayValue(acc)
	case TagObject:
		return decodeObjectValue(acc)
	case TagTemplate:
		return decodeTemplateValue(acc)
	default:
		return nil, newDecodeError(acc, fmt.Sprintf("unknown tag byte %#x", byte(tag)), nil)
	}
}

// narrowInt64 implements the Int64 component's "conversion to a fitting
// numeric type when possible": a decoded INT64 payload within the safe
// integer range becomes a plain Number, indistinguishable from a value
// that was width-selected down to INT8/16/32; only payloads that would
// lose precision as a float64 stay in the wide Int64 carrier.
func narrowInt64(v int64) Value {
	abs := v
	if abs < 0 {
		abs = -abs
	}
	if abs <= safeIntegerLimit {
		return Number(v)
	}
	return Int64(v)
}

func decodeStringValue(acc *Accumulator) (Value, error) {
	n, err := decodeInt(acc)
	if err != nil {
		return nil, err
	}
	s, err := acc.ReadString(int(n))
	if err != nil {
		return nil, newDecodeError(acc, "short read decoding string payload", err)
	}
	return String(s), nil
}

func decodeArrayValue(acc *Accumulator) (Value, error) {
	n, err := decodeInt(acc)
	if err != nil {
		return nil, err
	}
	arr := make(Array, 0, n)
	for i := int64(0); i < n; i++ {
		v, err := decodeValue(acc)
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
	return arr, nil
}

func decodeObjectValue(acc *Accumulator) (Value, error) {
	n, err := decodeInt(acc)
	if err != nil {
		return nil, err
	}
	obj := NewObject()
	for i := int64(0); i < n; i++ {
		keyVal, err := decodeValue(acc)
		if err != nil {
			return nil, err
		}
		key, ok := keyVal.(String)
		if !ok {
			return nil, newDecodeError(acc, "object key is not a string", nil)
		}
		val, err := decodeValue(acc)
		if err != nil {
			return nil, err
		}
		obj.Set(string(key), val)
	}
	return obj, nil
}

// decodeTemplateValue decodes the compact array-of-objects form: a
// shared key list, a row count, then row*len(keys) slots each holding
// either a value or the SKIP tag meaning the key is absent in that row.
func decodeTemplateValue(acc *Accumulator) (Value, error) {
	keysVal, err := decodeValue(acc)
	if err != nil {
		return nil, err
	}
	keysArr, ok := keysVal.(Array)
	if !ok {
		return nil, newDecodeError(acc, "template key list is not an array", nil)
	}
	keys := make([]string, len(keysArr))
	for i, kv := range keysArr {
		s, ok := kv.(String)
		if !ok {
			return nil, newDecodeError(acc, "template key is not a string", nil)
		}
		keys[i] = string(s)
	}

	rowCount, err := decodeInt(acc)
	if err != nil {
		return nil, err
	}

	rows := make(Array, 0, rowCount)
	for r := int64(0); r < rowCount; r++ {
		row := NewObject()
		for _, key := range keys {
			tagBytes, err := acc.PeekBytes(1)
			if err != nil {
				return nil, newDecodeError(acc, "short read decoding template slot", err)
			}
			if Tag(tagBytes[0]) == TagSkip {
				_, _ = acc.ReadBytes(1)
				continue
			}
			v, err := decodeValue(acc)
			if err != nil {
				return nil, err
			}
			row.Set(key, v)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// decoderState is the PDU framer's two substates.
type decoderState int

const (
	stateNeedPDU decoderState = iota
	stateFillPDU
)

// StreamDecoder incrementally frames and decodes a byte stream as PDUs
// arrive in arbitrarily fragmented chunks, delivering each completed
// value to OnValue as soon as it is available rather than all at once.
//
// StreamDecoder is not safe for concurrent use: the spec's concurrency
// model confines all client state, including the decoder, to a single
// owning goroutine, and Feed is meant to be called from that goroutine
// as socket reads arrive.
type StreamDecoder struct {
	acc     *Accumulator
	state   decoderState
	pduLen  int64
	OnValue func(Value)
	OnError func(error)
}

// NewStreamDecoder returns a StreamDecoder. onValue and onError may be
// nil; events with no handler are silently dropped.
func NewStreamDecoder(onValue func(Value), onError func(error)) *StreamDecoder {
	return &StreamDecoder{
		acc:     NewAccumulator(1024),
		state:   stateNeedPDU,
		OnValue: onValue,
		OnError: onError,
	}
}

// Feed appends p to the internal buffer and decodes as many complete
// PDUs as are now available. Between PDUs it yields the goroutine
// scheduler via runtime.Gosched rather than recursing straight through a
// burst, so a flood of subscription updates cannot starve the command
// client's writes or the callbacks themselves.
func (d *StreamDecoder) Feed(p []byte) {
	d.acc.Append(p)
	for {
		progressed, err := d.step()
		if err != nil {
			if d.OnError != nil {
				d.OnError(err)
			}
			return
		}
		if !progressed {
			return
		}
		runtime.Gosched()
	}
}

// step advances the PDU framer by at most one value. It returns
// progressed=false when there is not yet enough buffered data to do
// anything further.
func (d *StreamDecoder) step() (progressed bool, err error) {
	switch d.state {
	case stateNeedPDU:
		if d.acc.ReadAvail() < 2 {
			return false, nil
		}
		hdr, err := d.acc.ReadBytes(2)
		if err != nil {
			return false, newDecodeError(d.acc, "short read decoding PDU header", err)
		}
		if hdr[0] != pduHeader[0] || hdr[1] != pduHeader[1] {
			return false, newDecodeError(d.acc, fmt.Sprintf("bad PDU header % x", hdr), nil)
		}

		pduLen, ok, err := decodeRelaxedInt(d.acc)
		if err != nil {
			return false, err
		}
		if !ok {
			if rerr := d.acc.ReadAdvance(-2); rerr != nil {
				return false, rerr
			}
			return false, nil
		}

		d.pduLen = pduLen
		d.acc.Reserve(int(pduLen))
		d.state = stateFillPDU
		return true, nil

	case stateFillPDU:
		if int64(d.acc.ReadAvail()) < d.pduLen {
			return false, nil
		}
		v, err := decodeValue(d.acc)
		if err != nil {
			return false, err
		}
		d.state = stateNeedPDU
		if d.OnValue != nil {
			d.OnValue(v)
		}
		return true, nil

	default:
		return false, fmt.Errorf("bser: unreachable decoder state %d", d.state)
	}
}
