package vm

import (
	"encoding/hex"
	"math"
	"strconv"

	"github.com/roach88/chainsim/internal/chain"
	"github.com/roach88/chainsim/internal/numeric"
)

// print appends s to both the action's console slice and the transaction
// console.
func (h *Host) print(intrinsic, s string) {
	h.logger.Debug(intrinsic, "text", s)
	h.ctx.console.WriteString(s)
	h.chain.Print(s)
}

// Prints prints a string.
func (h *Host) Prints(s string) {
	h.print("prints", s)
}

// PrintI prints a signed 64-bit integer.
func (h *Host) PrintI(v int64) {
	h.print("printi", strconv.FormatInt(v, 10))
}

// PrintUI prints an unsigned 64-bit integer.
func (h *Host) PrintUI(v uint64) {
	h.print("printui", strconv.FormatUint(v, 10))
}

// PrintI128 prints a signed 128-bit integer given as two words.
func (h *Host) PrintI128(lo, hi uint64) {
	h.print("printi128", numeric.FromWords(numeric.Int128, lo, hi).String())
}

// PrintUI128 prints an unsigned 128-bit integer given as two words.
func (h *Host) PrintUI128(lo, hi uint64) {
	h.print("printui128", numeric.FromWords(numeric.Uint128, lo, hi).String())
}

// PrintSF prints a single-precision float.
func (h *Host) PrintSF(v float32) {
	h.print("printsf", formatFloat(float64(v), 32))
}

// PrintDF prints a double-precision float.
func (h *Host) PrintDF(v float64) {
	h.print("printdf", formatFloat(v, 64))
}

// PrintQF prints a quadruple-precision float given as two words, rounded
// to double precision.
func (h *Host) PrintQF(lo, hi uint64) {
	h.print("printqf", formatFloat(Float128ToFloat64(lo, hi), 64))
}

// PrintN prints a name.
func (h *Host) PrintN(n chain.Name) {
	h.print("printn", n.String())
}

// PrintHex prints data as lowercase hex.
func (h *Host) PrintHex(data []byte) {
	h.print("printhex", hex.EncodeToString(data))
}

// formatFloat renders v in plain notation for moderate magnitudes and in
// exponent notation otherwise.
func formatFloat(v float64, bits int) string {
	abs := math.Abs(v)
	if abs == 0 || (abs >= 1e-7 && abs < 1e21) {
		return strconv.FormatFloat(v, 'f', -1, bits)
	}
	return strconv.FormatFloat(v, 'g', -1, bits)
}

// Float128ToFloat64 converts an IEEE-754 binary128 value to float64 by
// truncating the significand toward zero. Values below the float64 normal
// range become zero.
func Float128ToFloat64(lo, hi uint64) float64 {
	neg := hi>>63 == 1
	signed := func(v float64) float64 {
		if neg {
			return -v
		}
		return v
	}
	exp := int64((hi >> 48) & 0x7fff)
	frac := (hi&0xffffffffffff)<<4 | lo>>60

	switch exp {
	case 0x7fff:
		if hi&0xffffffffffff != 0 || lo != 0 {
			return math.NaN()
		}
		return signed(math.Inf(1))
	case 0:
		return signed(0)
	}

	e := exp - 16383 + 1023
	switch {
	case e >= 0x7ff:
		return signed(math.Inf(1))
	case e <= 0:
		return signed(0)
	}
	bits := uint64(e)<<52 | frac
	if neg {
		bits |= 1 << 63
	}
	return math.Float64frombits(bits)
}
