package value

import (
	"math"
	"math/bits"

	"github.com/l7mp/dpcore/pkg/dperr"
)

// Zero returns the zero of a numeric kind.
func Zero(kind Kind) (NumericScalar, error) {
	if !kind.IsNumeric() {
		return NumericScalar{}, dperr.NewAtomicMismatchError("%s is not numeric", kind)
	}
	return NumericScalar{s: Scalar{kind: kind}}, nil
}

func (n NumericScalar) sameKind(o NumericScalar) error {
	if n.s.kind != o.s.kind {
		return dperr.NewAtomicMismatchError("%s and %s", n.s.kind, o.s.kind)
	}
	if n.s.null || o.s.null {
		return dperr.NewPotentialNullityError("arithmetic on null %s", n.s.kind)
	}
	return nil
}

// Float64 casts the value to float64. Integers above 2^53 lose precision.
func (n NumericScalar) Float64() float64 {
	switch {
	case n.s.kind.IsSigned():
		return float64(n.s.i)
	case n.s.kind.IsUnsigned():
		return float64(n.s.u)
	}
	return n.s.f
}

// Compare returns -1, 0 or 1. Both operands must share the kind and be non-null.
func (n NumericScalar) Compare(o NumericScalar) (int, error) {
	if err := n.sameKind(o); err != nil {
		return 0, err
	}
	switch {
	case n.s.kind.IsSigned():
		return cmp3(n.s.i < o.s.i, n.s.i > o.s.i), nil
	case n.s.kind.IsUnsigned():
		return cmp3(n.s.u < o.s.u, n.s.u > o.s.u), nil
	}
	if math.IsNaN(n.s.f) || math.IsNaN(o.s.f) {
		return 0, dperr.NewRawError("NaN is not ordered")
	}
	return cmp3(n.s.f < o.s.f, n.s.f > o.s.f), nil
}

func cmp3(lt, gt bool) int {
	switch {
	case lt:
		return -1
	case gt:
		return 1
	}
	return 0
}

// Max returns the larger of two same-kind values.
func (n NumericScalar) Max(o NumericScalar) (NumericScalar, error) {
	c, err := n.Compare(o)
	if err != nil {
		return NumericScalar{}, err
	}
	if c < 0 {
		return o, nil
	}
	return n, nil
}

// Min returns the smaller of two same-kind values.
func (n NumericScalar) Min(o NumericScalar) (NumericScalar, error) {
	c, err := n.Compare(o)
	if err != nil {
		return NumericScalar{}, err
	}
	if c > 0 {
		return o, nil
	}
	return n, nil
}

// CheckedAdd adds two same-kind values, failing with an overflow error instead of wrapping.
func (n NumericScalar) CheckedAdd(o NumericScalar) (NumericScalar, error) {
	if err := n.sameKind(o); err != nil {
		return NumericScalar{}, err
	}
	k := n.s.kind
	switch {
	case k.IsSigned():
		r := n.s.i + o.s.i
		if (n.s.i > 0 && o.s.i > 0 && r < 0) || (n.s.i < 0 && o.s.i < 0 && r >= 0) {
			return NumericScalar{}, dperr.NewOverflowError("%s + %s", n, o)
		}
		return signed(k, r, n, o, "+")
	case k.IsUnsigned():
		r, carry := bits.Add64(n.s.u, o.s.u, 0)
		if carry != 0 {
			return NumericScalar{}, dperr.NewOverflowError("%s + %s", n, o)
		}
		return unsigned(k, r, n, o, "+")
	}
	return floating(k, n.s.f+o.s.f, n, o, "+")
}

// CheckedSub subtracts o from n.
func (n NumericScalar) CheckedSub(o NumericScalar) (NumericScalar, error) {
	if err := n.sameKind(o); err != nil {
		return NumericScalar{}, err
	}
	k := n.s.kind
	switch {
	case k.IsSigned():
		r := n.s.i - o.s.i
		if (o.s.i < 0 && r < n.s.i) || (o.s.i > 0 && r > n.s.i) {
			return NumericScalar{}, dperr.NewOverflowError("%s - %s", n, o)
		}
		return signed(k, r, n, o, "-")
	case k.IsUnsigned():
		r, borrow := bits.Sub64(n.s.u, o.s.u, 0)
		if borrow != 0 {
			return NumericScalar{}, dperr.NewOverflowError("%s - %s", n, o)
		}
		return unsigned(k, r, n, o, "-")
	}
	return floating(k, n.s.f-o.s.f, n, o, "-")
}

// CheckedMul multiplies two same-kind values.
func (n NumericScalar) CheckedMul(o NumericScalar) (NumericScalar, error) {
	if err := n.sameKind(o); err != nil {
		return NumericScalar{}, err
	}
	k := n.s.kind
	switch {
	case k.IsSigned():
		a, b := n.s.i, o.s.i
		if a == 0 || b == 0 {
			return NumericScalar{s: Scalar{kind: k}}, nil
		}
		r := a * b
		if r/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
			return NumericScalar{}, dperr.NewOverflowError("%s * %s", n, o)
		}
		return signed(k, r, n, o, "*")
	case k.IsUnsigned():
		hi, lo := bits.Mul64(n.s.u, o.s.u)
		if hi != 0 {
			return NumericScalar{}, dperr.NewOverflowError("%s * %s", n, o)
		}
		return unsigned(k, lo, n, o, "*")
	}
	return floating(k, n.s.f*o.s.f, n, o, "*")
}

// MulCount multiplies the value by a non-negative count of the same value, as used when scaling
// a per-row bound by a vector length.
func (n NumericScalar) MulCount(count int) (NumericScalar, error) {
	if count < 0 {
		return NumericScalar{}, dperr.NewRawError("negative count %d", count)
	}
	var c NumericScalar
	var err error
	switch k := n.s.kind; {
	case k.IsInteger():
		s, ierr := NewInt(k, int64(count))
		if ierr != nil {
			return NumericScalar{}, ierr
		}
		c = NumericScalar{s: s}
	default:
		s, ferr := NewFloat(k, float64(count))
		if ferr != nil {
			return NumericScalar{}, ferr
		}
		c = NumericScalar{s: s}
	}
	if n.s.null {
		return NumericScalar{}, dperr.NewPotentialNullityError("arithmetic on null %s", n.s.kind)
	}
	c.s.nullable = n.s.nullable
	c, err = n.CheckedMul(c)
	return c, err
}

// Abs returns the absolute value. The minimum of a signed kind has no absolute value and fails
// with an overflow error.
func (n NumericScalar) Abs() (NumericScalar, error) {
	if n.s.null {
		return NumericScalar{}, dperr.NewPotentialNullityError("abs of null %s", n.s.kind)
	}
	switch k := n.s.kind; {
	case k.IsSigned():
		lo, _ := k.signedRange()
		if n.s.i == lo {
			return NumericScalar{}, dperr.NewOverflowError("abs(%s)", n)
		}
		if n.s.i < 0 {
			r := n
			r.s.i = -n.s.i
			return r, nil
		}
	case k.IsFloat():
		r := n
		r.s.f = math.Abs(n.s.f)
		return r, nil
	}
	return n, nil
}

func signed(k Kind, r int64, a, b NumericScalar, op string) (NumericScalar, error) {
	lo, hi := k.signedRange()
	if r < lo || r > hi {
		return NumericScalar{}, dperr.NewOverflowError("%s %s %s overflows %s", a, op, b, k)
	}
	return NumericScalar{s: Scalar{kind: k, nullable: a.s.nullable, i: r}}, nil
}

func unsigned(k Kind, r uint64, a, b NumericScalar, op string) (NumericScalar, error) {
	if r > k.unsignedMax() {
		return NumericScalar{}, dperr.NewOverflowError("%s %s %s overflows %s", a, op, b, k)
	}
	return NumericScalar{s: Scalar{kind: k, nullable: a.s.nullable, u: r}}, nil
}

func floating(k Kind, r float64, a, b NumericScalar, op string) (NumericScalar, error) {
	if k == F32 {
		r = float64(float32(r))
	}
	if math.IsInf(r, 0) && !math.IsInf(a.s.f, 0) && !math.IsInf(b.s.f, 0) {
		return NumericScalar{}, dperr.NewOverflowError("%s %s %s overflows %s", a, op, b, k)
	}
	return NumericScalar{s: Scalar{kind: k, nullable: a.s.nullable, f: r}}, nil
}
