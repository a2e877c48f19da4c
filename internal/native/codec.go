package native

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/chainsim/internal/chain"
)

// Symbol packs a token precision and an upper-case code of up to seven
// letters: precision in the low byte, code bytes above it.
type Symbol uint64

// ParseSymbol parses "4,TOK".
func ParseSymbol(s string) (Symbol, error) {
	prec, code, ok := strings.Cut(s, ",")
	if !ok {
		return 0, fmt.Errorf("symbol %q: expected precision,CODE", s)
	}
	p, err := strconv.ParseUint(prec, 10, 8)
	if err != nil || p > 18 {
		return 0, fmt.Errorf("symbol %q: invalid precision", s)
	}
	return NewSymbol(uint8(p), code)
}

// NewSymbol builds a symbol from its parts.
func NewSymbol(precision uint8, code string) (Symbol, error) {
	if code == "" || len(code) > 7 {
		return 0, fmt.Errorf("symbol code %q must have 1 to 7 letters", code)
	}
	v := uint64(precision)
	for i := 0; i < len(code); i++ {
		c := code[i]
		if c < 'A' || c > 'Z' {
			return 0, fmt.Errorf("symbol code %q must be upper-case letters", code)
		}
		v |= uint64(c) << (8 * (i + 1))
	}
	return Symbol(v), nil
}

// Precision returns the number of decimal places.
func (s Symbol) Precision() uint8 { return uint8(s) }

// Code returns the letters of the symbol. The code alone is the primary
// key of a token's stats row.
func (s Symbol) Code() string {
	var b strings.Builder
	for v := uint64(s) >> 8; v != 0; v >>= 8 {
		b.WriteByte(byte(v))
	}
	return b.String()
}

// CodeRaw returns the code bits shifted down, used as a table key.
func (s Symbol) CodeRaw() uint64 { return uint64(s) >> 8 }

func (s Symbol) String() string {
	return strconv.Itoa(int(s.Precision())) + "," + s.Code()
}

// Asset is an amount of a symbol, in units of 10^-precision.
type Asset struct {
	Amount int64
	Symbol Symbol
}

// ParseAsset parses "12.3400 TOK". The number of decimals fixes the
// precision.
func ParseAsset(s string) (Asset, error) {
	num, code, ok := strings.Cut(strings.TrimSpace(s), " ")
	if !ok {
		return Asset{}, fmt.Errorf("asset %q: expected amount and symbol", s)
	}
	whole, frac, _ := strings.Cut(num, ".")
	sym, err := NewSymbol(uint8(len(frac)), code)
	if err != nil {
		return Asset{}, fmt.Errorf("asset %q: %w", s, err)
	}
	amount, err := strconv.ParseInt(whole+frac, 10, 64)
	if err != nil {
		return Asset{}, fmt.Errorf("asset %q: %w", s, err)
	}
	return Asset{Amount: amount, Symbol: sym}, nil
}

func (a Asset) String() string {
	p := int(a.Symbol.Precision())
	neg := a.Amount < 0
	digits := strconv.FormatUint(absInt64(a.Amount), 10)
	if p > 0 {
		if len(digits) <= p {
			digits = strings.Repeat("0", p-len(digits)+1) + digits
		}
		digits = digits[:len(digits)-p] + "." + digits[len(digits)-p:]
	}
	if neg {
		digits = "-" + digits
	}
	return digits + " " + a.Symbol.Code()
}

func absInt64(v int64) uint64 {
	if v < 0 {
		return uint64(-v)
	}
	return uint64(v)
}

// Encoder packs handler payloads and table rows.
type Encoder struct {
	e *chain.Encoder
}

// NewEncoder returns an empty Encoder.
func NewEncoder() *Encoder { return &Encoder{e: chain.NewEncoder()} }

func (e *Encoder) Name(n chain.Name) *Encoder {
	e.e.Name(n)
	return e
}

func (e *Encoder) Uint64(v uint64) *Encoder {
	e.e.Uint64(v)
	return e
}

func (e *Encoder) Int64(v int64) *Encoder {
	e.e.Int64(v)
	return e
}

func (e *Encoder) Str(s string) *Encoder {
	e.e.Str(s)
	return e
}

func (e *Encoder) Symbol(s Symbol) *Encoder {
	e.e.Uint64(uint64(s))
	return e
}

func (e *Encoder) Asset(a Asset) *Encoder {
	e.e.Int64(a.Amount).Uint64(uint64(a.Symbol))
	return e
}

func (e *Encoder) Bytes() []byte { return e.e.Bytes() }

// ErrTrailingData is returned by Decoder.Done when bytes are left unread.
var ErrTrailingData = errors.New("trailing data after payload")

// Decoder unpacks what Encoder packs. Errors are sticky; check Done.
type Decoder struct {
	d *chain.Decoder
}

// NewDecoder reads from data.
func NewDecoder(data []byte) *Decoder { return &Decoder{d: chain.NewDecoder(data)} }

func (d *Decoder) Name() chain.Name { return d.d.Name() }
func (d *Decoder) Uint64() uint64   { return d.d.Uint64() }
func (d *Decoder) Int64() int64     { return d.d.Int64() }
func (d *Decoder) Str() string      { return d.d.Str() }
func (d *Decoder) Symbol() Symbol   { return Symbol(d.d.Uint64()) }

func (d *Decoder) Asset() Asset {
	amount := d.d.Int64()
	return Asset{Amount: amount, Symbol: Symbol(d.d.Uint64())}
}

// Done reports the first decoding error, or ErrTrailingData if the payload
// was not fully consumed.
func (d *Decoder) Done() error {
	if err := d.d.Err(); err != nil {
		return err
	}
	if d.d.Remaining() != 0 {
		return fmt.Errorf("%d bytes: %w", d.d.Remaining(), ErrTrailingData)
	}
	return nil
}
