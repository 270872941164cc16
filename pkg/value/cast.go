package value

import (
	"math"
	"strconv"

	"github.com/l7mp/dpcore/pkg/dperr"
)

// Cast converts a numeric scalar to another numeric kind. The conversion must be exact: floats
// with a fractional part, integers that do not fit the target and values that would round when
// narrowed to f32 fail. Nulls stay null.
func (s Scalar) Cast(kind Kind) (Scalar, error) {
	if s.kind == kind {
		return s, nil
	}
	if !s.kind.IsNumeric() || !kind.IsNumeric() {
		return Scalar{}, dperr.NewUnsupportedCastError("cannot cast %s to %s", s.kind, kind)
	}
	if s.null {
		return Null(kind), nil
	}

	var ret Scalar
	var err error
	switch {
	case kind.IsFloat():
		var f float64
		switch {
		case s.kind.IsSigned():
			f = float64(s.i)
			if int64(f) != s.i {
				return Scalar{}, dperr.NewUnsupportedCastError("%s is not exact as %s", s, kind)
			}
		case s.kind.IsUnsigned():
			f = float64(s.u)
			if f >= math.MaxUint64 || uint64(f) != s.u {
				return Scalar{}, dperr.NewUnsupportedCastError("%s is not exact as %s", s, kind)
			}
		default:
			f = s.f
		}
		if r := float64(float32(f)); kind == F32 && r != f && !math.IsNaN(f) && !math.IsInf(r, 0) {
			return Scalar{}, dperr.NewUnsupportedCastError("%s is not exact as %s", s, kind)
		}
		ret, err = NewFloat(kind, f)
	case s.kind.IsFloat():
		if s.f != math.Trunc(s.f) || math.IsInf(s.f, 0) || math.IsNaN(s.f) {
			return Scalar{}, dperr.NewUnsupportedCastError("%s is not an integer", s)
		}
		if s.f < math.MinInt64 || s.f >= math.MaxInt64 {
			return Scalar{}, dperr.NewOverflowError("%s does not fit %s", s, kind)
		}
		ret, err = NewInt(kind, int64(s.f))
	case s.kind.IsUnsigned():
		if s.u > math.MaxInt64 {
			return Scalar{}, dperr.NewOverflowError("%s does not fit %s", s, kind)
		}
		ret, err = NewInt(kind, int64(s.u))
	default:
		ret, err = NewInt(kind, s.i)
	}
	if err != nil {
		return Scalar{}, err
	}
	ret.nullable = s.nullable
	return ret, nil
}

// CastDecimal converts a number decoded from a text document, such as JSON or YAML, to kind. It
// is Cast, except that an f64 narrowed to f32 takes the float32 nearest to the decimal the number
// was written as.
func (s Scalar) CastDecimal(kind Kind) (Scalar, error) {
	if kind != F32 || s.kind != F64 || s.null || math.IsNaN(s.f) || math.IsInf(s.f, 0) {
		return s.Cast(kind)
	}
	if math.IsInf(float64(float32(s.f)), 0) {
		return Scalar{}, dperr.NewOverflowError("%s does not fit %s", s, kind)
	}
	return ParseScalar(F32, strconv.FormatFloat(s.f, 'g', -1, 64))
}

// CastDecimal converts every element of a numeric vector decoded from a text document.
func (v Vector) CastDecimal(kind Kind) (Vector, error) {
	if v.kind == kind {
		return v, nil
	}
	elems := make([]Scalar, len(v.elems))
	for i, e := range v.elems {
		c, err := e.CastDecimal(kind)
		if err != nil {
			return Vector{}, err
		}
		elems[i] = c
	}
	return NewVector(kind, v.nullable, elems...)
}

// Cast converts every element of a numeric vector to another numeric kind.
func (v Vector) Cast(kind Kind) (Vector, error) {
	if v.kind == kind {
		return v, nil
	}
	elems := make([]Scalar, len(v.elems))
	for i, e := range v.elems {
		c, err := e.Cast(kind)
		if err != nil {
			return Vector{}, err
		}
		elems[i] = c
	}
	return NewVector(kind, v.nullable, elems...)
}
