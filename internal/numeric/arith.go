package numeric

import "github.com/holiman/uint256"

// Promote applies the C++11 integral promotions: types narrower than 32
// bits become int32.
func Promote(t Type) Type {
	if t.Bits < 32 {
		return Int32
	}
	return t
}

// Common returns the type both operands of a binary operator are converted
// to under the C++11 usual arithmetic conversions.
func Common(a, b Type) Type {
	a, b = Promote(a), Promote(b)
	switch {
	case a == b:
		return a
	case a.Signed == b.Signed:
		if a.Bits >= b.Bits {
			return a
		}
		return b
	case !a.Signed && a.Bits >= b.Bits:
		return a
	case !b.Signed && b.Bits >= a.Bits:
		return b
	case a.Signed && a.Bits > b.Bits:
		return a
	case b.Signed && b.Bits > a.Bits:
		return b
	}
	// Unreachable with the widths above; kept for completeness.
	if a.Signed {
		return Type{Bits: a.Bits}
	}
	return Type{Bits: b.Bits}
}

func convert(a, b Int) (Int, Int) {
	t := Common(a.typ, b.typ)
	return a.cast(t), b.cast(t)
}

type binop func(z, x, y *uint256.Int) error

func apply(a, b Int, p Policy, op binop) (Int, error) {
	a, b = convert(a, b)
	var z uint256.Int
	if err := op(&z, &a.v, &b.v); err != nil {
		return Int{}, err
	}
	return fit(a.typ, z, p)
}

// Add returns a+b in the common type.
func Add(a, b Int, p Policy) (Int, error) {
	return apply(a, b, p, func(z, x, y *uint256.Int) error {
		z.Add(x, y)
		return nil
	})
}

// Sub returns a-b in the common type.
func Sub(a, b Int, p Policy) (Int, error) {
	return apply(a, b, p, func(z, x, y *uint256.Int) error {
		z.Sub(x, y)
		return nil
	})
}

// Mul returns a*b in the common type.
func Mul(a, b Int, p Policy) (Int, error) {
	return apply(a, b, p, func(z, x, y *uint256.Int) error {
		z.Mul(x, y)
		return nil
	})
}

// Div returns a/b truncated toward zero.
func Div(a, b Int, p Policy) (Int, error) {
	return apply(a, b, p, func(z, x, y *uint256.Int) error {
		if y.IsZero() {
			return ErrDivisionByZero
		}
		z.SDiv(x, y)
		return nil
	})
}

// Mod returns the remainder of a/b; its sign follows a.
func Mod(a, b Int, p Policy) (Int, error) {
	return apply(a, b, p, func(z, x, y *uint256.Int) error {
		if y.IsZero() {
			return ErrDivisionByZero
		}
		z.SMod(x, y)
		return nil
	})
}

// DivCeil returns a/b rounded toward positive infinity.
func DivCeil(a, b Int, p Policy) (Int, error) {
	return apply(a, b, p, func(z, x, y *uint256.Int) error {
		if y.IsZero() {
			return ErrDivisionByZero
		}
		var rem uint256.Int
		z.SDiv(x, y)
		rem.SMod(x, y)
		if !rem.IsZero() && (x.Sign() < 0) == (y.Sign() < 0) {
			z.AddUint64(z, 1)
		}
		return nil
	})
}

// DivRound returns a/b rounded to the nearest integer, halves away from
// zero.
func DivRound(a, b Int, p Policy) (Int, error) {
	return apply(a, b, p, func(z, x, y *uint256.Int) error {
		if y.IsZero() {
			return ErrDivisionByZero
		}
		var rem, absRem, absY uint256.Int
		z.SDiv(x, y)
		rem.SMod(x, y)
		if rem.IsZero() {
			return nil
		}
		absRem.Abs(&rem)
		absRem.Lsh(&absRem, 1)
		absY.Abs(y)
		if absRem.Lt(&absY) {
			return nil
		}
		if (x.Sign() < 0) == (y.Sign() < 0) {
			z.AddUint64(z, 1)
		} else {
			z.SubUint64(z, 1)
		}
		return nil
	})
}

// Neg returns -a in a's promoted type.
func Neg(a Int, p Policy) (Int, error) {
	t := Promote(a.typ)
	a = a.cast(t)
	var z uint256.Int
	z.Neg(&a.v)
	return fit(t, z, p)
}

// IsNegative reports whether the value is below zero.
func (i Int) IsNegative() bool {
	return i.negative()
}
