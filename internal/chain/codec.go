package chain

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrShortBuffer is returned when a packed value ends before it is complete.
var ErrShortBuffer = errors.New("unexpected end of packed data")

// Encoder appends little-endian packed values to a byte slice.
type Encoder struct {
	buf []byte
}

// NewEncoder returns an empty encoder.
func NewEncoder() *Encoder {
	return &Encoder{buf: make([]byte, 0, 64)}
}

// Bytes returns the packed data.
func (e *Encoder) Bytes() []byte { return e.buf }

func (e *Encoder) Uint8(v uint8) *Encoder {
	e.buf = append(e.buf, v)
	return e
}

func (e *Encoder) Uint16(v uint16) *Encoder {
	e.buf = binary.LittleEndian.AppendUint16(e.buf, v)
	return e
}

func (e *Encoder) Uint32(v uint32) *Encoder {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, v)
	return e
}

func (e *Encoder) Uint64(v uint64) *Encoder {
	e.buf = binary.LittleEndian.AppendUint64(e.buf, v)
	return e
}

func (e *Encoder) Int64(v int64) *Encoder {
	return e.Uint64(uint64(v))
}

func (e *Encoder) Float64(v float64) *Encoder {
	return e.Uint64(math.Float64bits(v))
}

// VarUint32 writes v in LEB128 form.
func (e *Encoder) VarUint32(v uint32) *Encoder {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		e.buf = append(e.buf, b)
		if v == 0 {
			return e
		}
	}
}

// Blob writes a varuint32 length followed by the raw bytes.
func (e *Encoder) Blob(b []byte) *Encoder {
	e.VarUint32(uint32(len(b)))
	e.buf = append(e.buf, b...)
	return e
}

// Str writes a length-prefixed UTF-8 string.
func (e *Encoder) Str(s string) *Encoder {
	return e.Blob([]byte(s))
}

func (e *Encoder) Name(n Name) *Encoder {
	return e.Uint64(uint64(n))
}

func (e *Encoder) Raw(b []byte) *Encoder {
	e.buf = append(e.buf, b...)
	return e
}

// Decoder reads little-endian packed values.
//
// The first failure is sticky: later reads return zero values and Err
// reports the original problem.
type Decoder struct {
	data []byte
	pos  int
	err  error
}

// NewDecoder reads from data without copying it.
func NewDecoder(data []byte) *Decoder {
	return &Decoder{data: data}
}

// Err returns the first decoding error.
func (d *Decoder) Err() error { return d.err }

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int { return len(d.data) - d.pos }

func (d *Decoder) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || d.pos+n > len(d.data) {
		d.err = fmt.Errorf("read %d bytes at offset %d: %w", n, d.pos, ErrShortBuffer)
		return nil
	}
	b := d.data[d.pos : d.pos+n]
	d.pos += n
	return b
}

func (d *Decoder) Uint8() uint8 {
	b := d.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (d *Decoder) Uint16() uint16 {
	b := d.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (d *Decoder) Uint32() uint32 {
	b := d.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (d *Decoder) Uint64() uint64 {
	b := d.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (d *Decoder) Int64() int64 { return int64(d.Uint64()) }

func (d *Decoder) Float64() float64 { return math.Float64frombits(d.Uint64()) }

func (d *Decoder) VarUint32() uint32 {
	var v uint32
	for shift := 0; shift < 35; shift += 7 {
		b := d.take(1)
		if b == nil {
			return 0
		}
		v |= uint32(b[0]&0x7f) << shift
		if b[0]&0x80 == 0 {
			return v
		}
	}
	if d.err == nil {
		d.err = errors.New("varuint32 is longer than 5 bytes")
	}
	return 0
}

// Blob reads a varuint32 length-prefixed byte string and copies it.
func (d *Decoder) Blob() []byte {
	n := d.VarUint32()
	b := d.take(int(n))
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func (d *Decoder) Str() string { return string(d.Blob()) }

func (d *Decoder) Name() Name { return Name(d.Uint64()) }

// PackAction serializes an action as account, name, authorization, data.
func PackAction(a Action) []byte {
	e := NewEncoder()
	encodeAction(e, a)
	return e.Bytes()
}

// UnpackAction is the inverse of PackAction. Trailing bytes are an error.
func UnpackAction(data []byte) (Action, error) {
	d := NewDecoder(data)
	a := decodeAction(d)
	if d.Err() != nil {
		return Action{}, fmt.Errorf("unpack action: %w", d.Err())
	}
	if d.Remaining() != 0 {
		return Action{}, fmt.Errorf("unpack action: %d trailing bytes", d.Remaining())
	}
	return a, nil
}

// PackTransaction serializes the transaction header, action lists and
// extensions in wire order.
func PackTransaction(tx *Transaction) []byte {
	e := NewEncoder()
	e.Uint32(uint32(tx.Expiration)).
		Uint16(tx.RefBlockNum).
		Uint32(tx.RefBlockPrefix).
		VarUint32(tx.MaxNetUsageWords).
		Uint8(tx.MaxCPUUsageMS).
		VarUint32(tx.DelaySec)

	e.VarUint32(uint32(len(tx.ContextFreeActions)))
	for _, a := range tx.ContextFreeActions {
		encodeAction(e, a)
	}
	e.VarUint32(uint32(len(tx.Actions)))
	for _, a := range tx.Actions {
		encodeAction(e, a)
	}
	e.VarUint32(uint32(len(tx.Extensions)))
	for _, ext := range tx.Extensions {
		e.Uint16(ext.Type).Blob(ext.Data)
	}
	return e.Bytes()
}

// UnpackTransaction is the inverse of PackTransaction.
func UnpackTransaction(data []byte) (*Transaction, error) {
	d := NewDecoder(data)
	tx := &Transaction{
		Expiration:       TimePointSec(d.Uint32()),
		RefBlockNum:      d.Uint16(),
		RefBlockPrefix:   d.Uint32(),
		MaxNetUsageWords: d.VarUint32(),
		MaxCPUUsageMS:    d.Uint8(),
		DelaySec:         d.VarUint32(),
	}
	tx.ContextFreeActions = decodeActions(d)
	tx.Actions = decodeActions(d)
	n := d.VarUint32()
	for i := uint32(0); i < n && d.Err() == nil; i++ {
		tx.Extensions = append(tx.Extensions, Extension{Type: d.Uint16(), Data: d.Blob()})
	}
	if d.Err() != nil {
		return nil, fmt.Errorf("unpack transaction: %w", d.Err())
	}
	return tx, nil
}

func encodeAction(e *Encoder, a Action) {
	e.Name(a.Account).Name(a.Name)
	e.VarUint32(uint32(len(a.Authorization)))
	for _, p := range a.Authorization {
		e.Name(p.Actor).Name(p.Permission)
	}
	e.Blob(a.Data)
}

func decodeAction(d *Decoder) Action {
	a := Action{Account: d.Name(), Name: d.Name()}
	n := d.VarUint32()
	for i := uint32(0); i < n && d.Err() == nil; i++ {
		a.Authorization = append(a.Authorization, PermissionLevel{Actor: d.Name(), Permission: d.Name()})
	}
	a.Data = d.Blob()
	if a.Data == nil {
		a.Data = []byte{}
	}
	return a
}

func decodeActions(d *Decoder) []Action {
	n := d.VarUint32()
	var out []Action
	for i := uint32(0); i < n && d.Err() == nil; i++ {
		out = append(out, decodeAction(d))
	}
	return out
}
