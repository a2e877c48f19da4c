// Package numeric implements fixed-width integers with C++11 conversion and
// promotion rules.
//
// A single Int type carries its Type (bit width and signedness) instead of
// one Go type per width. Values are held as 256-bit two's complement in a
// holiman/uint256 word, wide enough that no 128-bit operation overflows the
// intermediate result before the overflow Policy is applied.
package numeric

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
)

var (
	ErrOverflow       = errors.New("integer overflow")
	ErrUnderflow      = errors.New("integer underflow")
	ErrDivisionByZero = errors.New("division by zero")
	ErrInvalidNumber  = errors.New("invalid number")
)

// Type describes an integer type.
type Type struct {
	Bits   int
	Signed bool
}

var (
	Int8    = Type{Bits: 8, Signed: true}
	Int16   = Type{Bits: 16, Signed: true}
	Int32   = Type{Bits: 32, Signed: true}
	Int64   = Type{Bits: 64, Signed: true}
	Int128  = Type{Bits: 128, Signed: true}
	Uint8   = Type{Bits: 8}
	Uint16  = Type{Bits: 16}
	Uint32  = Type{Bits: 32}
	Uint64  = Type{Bits: 64}
	Uint128 = Type{Bits: 128}
)

// String returns the ABI name, e.g. "int64" or "uint128".
func (t Type) String() string {
	if t.Signed {
		return fmt.Sprintf("int%d", t.Bits)
	}
	return fmt.Sprintf("uint%d", t.Bits)
}

// Bytes is the width in bytes.
func (t Type) Bytes() int { return t.Bits / 8 }

// Max is the largest representable value.
func (t Type) Max() Int {
	v := new(uint256.Int).Lsh(uint256.NewInt(1), t.valueBits())
	v.SubUint64(v, 1)
	return Int{typ: t, v: *v}
}

// Min is the smallest representable value.
func (t Type) Min() Int {
	if !t.Signed {
		return Int{typ: t}
	}
	v := new(uint256.Int).Lsh(uint256.NewInt(1), uint(t.Bits-1))
	v.Neg(v)
	return Int{typ: t, v: *v}
}

func (t Type) valueBits() uint {
	if t.Signed {
		return uint(t.Bits - 1)
	}
	return uint(t.Bits)
}

// Policy selects what happens when a result does not fit its type.
type Policy int

const (
	// Truncate keeps the low bits with sign extension (C++11 behavior).
	Truncate Policy = iota
	// Clamp saturates at Min or Max.
	Clamp
	// Throw returns ErrOverflow or ErrUnderflow.
	Throw
)

// Int is an integer value of a given Type.
type Int struct {
	typ Type
	v   uint256.Int
}

// Type returns the value's type.
func (i Int) Type() Type { return i.typ }

func (i Int) negative() bool { return i.v.Sign() < 0 }

// FromInt64 converts v to type t under policy p.
func FromInt64(t Type, v int64, p Policy) (Int, error) {
	var w uint256.Int
	w.SetUint64(uint64(v))
	if v < 0 {
		w.SetUint64(uint64(-v))
		w.Neg(&w)
	}
	return fit(t, w, p)
}

// FromUint64 converts v to type t under policy p.
func FromUint64(t Type, v uint64, p Policy) (Int, error) {
	return fit(t, *uint256.NewInt(v), p)
}

// FromWords builds a 128-bit value from its low and high 64-bit halves, the
// way compiler-rt helpers receive their operands.
func FromWords(t Type, lo, hi uint64) Int {
	i, _ := FromBytes(t, wordsLE(lo, hi))
	return i
}

func wordsLE(lo, hi uint64) []byte {
	b := make([]byte, 16)
	for n := 0; n < 8; n++ {
		b[n] = byte(lo >> (8 * n))
		b[8+n] = byte(hi >> (8 * n))
	}
	return b
}

// FromBytes decodes a little-endian value of exactly t.Bytes() bytes.
func FromBytes(t Type, b []byte) (Int, error) {
	if len(b) != t.Bytes() {
		return Int{}, fmt.Errorf("%s needs %d bytes, got %d", t, t.Bytes(), len(b))
	}
	be := make([]byte, len(b))
	for n := range b {
		be[len(b)-1-n] = b[n]
	}
	var w uint256.Int
	w.SetBytes(be)
	return fit(t, w, Truncate)
}

// Parse reads a decimal string, with an optional leading '-'.
func Parse(t Type, s string, p Policy) (Int, error) {
	neg := strings.HasPrefix(s, "-")
	digits := strings.TrimPrefix(s, "-")
	if digits == "" || strings.TrimLeft(digits, "0123456789") != "" {
		return Int{}, fmt.Errorf("%w: %q", ErrInvalidNumber, s)
	}
	bi, ok := new(big.Int).SetString(digits, 10)
	if !ok || bi.BitLen() > 255 {
		return Int{}, fmt.Errorf("%w: %q", ErrInvalidNumber, s)
	}
	w, _ := uint256.FromBig(bi)
	if neg {
		w.Neg(w)
	}
	return fit(t, *w, p)
}

// fit brings the 256-bit two's complement value w into type t.
func fit(t Type, w uint256.Int, p Policy) (Int, error) {
	lo, hi := t.Min(), t.Max()
	switch p {
	case Throw:
		if w.Sgt(&hi.v) {
			return Int{}, fmt.Errorf("%w: %s does not fit %s", ErrOverflow, signedString(w), t)
		}
		if w.Slt(&lo.v) {
			return Int{}, fmt.Errorf("%w: %s does not fit %s", ErrUnderflow, signedString(w), t)
		}
	case Clamp:
		if w.Sgt(&hi.v) {
			return hi, nil
		}
		if w.Slt(&lo.v) {
			return lo, nil
		}
	default:
		w = truncate(w, t)
	}
	return Int{typ: t, v: w}, nil
}

func truncate(w uint256.Int, t Type) uint256.Int {
	if t.Bits >= 256 {
		return w
	}
	mask := new(uint256.Int).Lsh(uint256.NewInt(1), uint(t.Bits))
	mask.SubUint64(mask, 1)
	w.And(&w, mask)
	if t.Signed {
		w.ExtendSign(&w, uint256.NewInt(uint64(t.Bytes()-1)))
	}
	return w
}

// Convert casts i to type t under policy p.
func (i Int) Convert(t Type, p Policy) (Int, error) {
	if i.typ == t {
		return i, nil
	}
	return fit(t, i.v, p)
}

// cast is a Truncate conversion, which never fails.
func (i Int) cast(t Type) Int {
	out, _ := i.Convert(t, Truncate)
	return out
}

// Bytes returns the little-endian memory layout of the value.
func (i Int) Bytes() []byte {
	be := i.v.Bytes32()
	n := i.typ.Bytes()
	out := make([]byte, n)
	for k := 0; k < n; k++ {
		out[k] = be[31-k]
	}
	return out
}

// Words returns the low and high 64-bit halves of the value.
func (i Int) Words() (lo, hi uint64) {
	return i.v[0], i.v[1]
}

// Int64 returns the low 64 bits as a signed integer.
func (i Int) Int64() int64 { return int64(i.v[0]) }

// Uint64 returns the low 64 bits.
func (i Int) Uint64() uint64 { return i.v[0] }

// Sign returns -1, 0 or +1.
func (i Int) Sign() int { return i.v.Sign() }

// Cmp compares two values after C++11 conversion to their common type.
func Cmp(a, b Int) int {
	a, b = convert(a, b)
	switch {
	case a.v.Eq(&b.v):
		return 0
	case a.typ.Signed && a.v.Slt(&b.v), !a.typ.Signed && a.v.Lt(&b.v):
		return -1
	}
	return 1
}

// String renders the value in decimal.
func (i Int) String() string {
	return signedString(i.v)
}

func signedString(w uint256.Int) string {
	if w.Sign() < 0 {
		var abs uint256.Int
		abs.Neg(&w)
		return "-" + abs.Dec()
	}
	return w.Dec()
}
