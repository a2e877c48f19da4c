package vm

import (
	"errors"

	"github.com/holiman/uint256"

	"github.com/roach88/chainsim/internal/numeric"
)

// 128-bit integer builtins that compilers emit calls to. Operands arrive as
// (low, high) word pairs; results are returned the same way and written by
// the caller as 16 little-endian bytes.

func int128Op(op func(a, b numeric.Int, p numeric.Policy) (numeric.Int, error), t numeric.Type, la, ha, lb, hb uint64) (uint64, uint64, error) {
	r, err := op(numeric.FromWords(t, la, ha), numeric.FromWords(t, lb, hb), numeric.Truncate)
	if err != nil {
		if errors.Is(err, numeric.ErrDivisionByZero) {
			return 0, 0, newError(ErrCodeAssertionFailed, "division by zero")
		}
		return 0, 0, err
	}
	lo, hi := r.Words()
	return lo, hi, nil
}

// Divti3 is signed 128-bit division.
func Divti3(la, ha, lb, hb uint64) (uint64, uint64, error) {
	return int128Op(numeric.Div, numeric.Int128, la, ha, lb, hb)
}

// Udivti3 is unsigned 128-bit division.
func Udivti3(la, ha, lb, hb uint64) (uint64, uint64, error) {
	return int128Op(numeric.Div, numeric.Uint128, la, ha, lb, hb)
}

// Modti3 is the signed 128-bit remainder.
func Modti3(la, ha, lb, hb uint64) (uint64, uint64, error) {
	return int128Op(numeric.Mod, numeric.Int128, la, ha, lb, hb)
}

// Umodti3 is the unsigned 128-bit remainder.
func Umodti3(la, ha, lb, hb uint64) (uint64, uint64, error) {
	return int128Op(numeric.Mod, numeric.Uint128, la, ha, lb, hb)
}

// Multi3 is 128-bit multiplication; signedness does not affect the low 128
// bits of the product.
func Multi3(la, ha, lb, hb uint64) (uint64, uint64, error) {
	return int128Op(numeric.Mul, numeric.Uint128, la, ha, lb, hb)
}

func words(v *uint256.Int) (uint64, uint64) {
	return v[0], v[1]
}

// Ashlti3 shifts a 128-bit value left.
func Ashlti3(lo, hi uint64, shift uint32) (uint64, uint64) {
	v := uint256.Int{lo, hi, 0, 0}
	v.Lsh(&v, uint(shift&127))
	return words(&v)
}

// Lshrti3 shifts a 128-bit value right, filling with zeros.
func Lshrti3(lo, hi uint64, shift uint32) (uint64, uint64) {
	v := uint256.Int{lo, hi, 0, 0}
	v.Rsh(&v, uint(shift&127))
	return words(&v)
}

// Ashrti3 shifts a 128-bit value right, filling with the sign bit.
func Ashrti3(lo, hi uint64, shift uint32) (uint64, uint64) {
	var v uint256.Int
	if int64(hi) < 0 {
		v = uint256.Int{lo, hi, ^uint64(0), ^uint64(0)}
	} else {
		v = uint256.Int{lo, hi, 0, 0}
	}
	v.SRsh(&v, uint(shift&127))
	return words(&v)
}

// UnsupportedBuiltins lists soft-float builtins that are bound but fail
// when called.
var UnsupportedBuiltins = []string{
	"__addtf3", "__subtf3", "__multf3", "__divtf3", "__negtf2",
	"__extendsftf2", "__extenddftf2", "__trunctfdf2", "__trunctfsf2",
	"__fixtfsi", "__fixtfdi", "__fixtfti", "__fixunstfsi", "__fixunstfdi", "__fixunstfti",
	"__fixsfti", "__fixdfti", "__fixunssfti", "__fixunsdfti",
	"__floatsitf", "__floatditf", "__floatunsitf", "__floatunditf",
	"__floattidf", "__floatuntidf", "__floatsidf",
	"__eqtf2", "__netf2", "__getf2", "__gttf2", "__letf2", "__lttf2", "__cmptf2", "__unordtf2",
}
