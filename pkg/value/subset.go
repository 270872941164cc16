package value

import "github.com/l7mp/dpcore/pkg/dperr"

// NumericScalar is a scalar whose kind is an integer or floating point kind.
type NumericScalar struct{ s Scalar }

// CategoricalScalar is a scalar whose kind supports exact equality (bool, string, integers).
type CategoricalScalar struct{ s Scalar }

// NumericVector is a vector of numeric kind.
type NumericVector struct{ v Vector }

// CategoricalVector is a vector of categorical kind.
type CategoricalVector struct{ v Vector }

// ToNumeric narrows the scalar to the numeric subset.
func (s Scalar) ToNumeric() (NumericScalar, error) {
	if !s.kind.IsNumeric() {
		return NumericScalar{}, dperr.NewAtomicMismatchError("%s is not numeric", s.kind)
	}
	return NumericScalar{s: s}, nil
}

// ToCategorical narrows the scalar to the categorical subset.
func (s Scalar) ToCategorical() (CategoricalScalar, error) {
	if !s.kind.IsCategorical() {
		return CategoricalScalar{}, dperr.NewAtomicMismatchError("%s is not categorical", s.kind)
	}
	return CategoricalScalar{s: s}, nil
}

// ToNumeric narrows the vector to the numeric subset.
func (v Vector) ToNumeric() (NumericVector, error) {
	if !v.kind.IsNumeric() {
		return NumericVector{}, dperr.NewAtomicMismatchError("%s vector is not numeric", v.kind)
	}
	return NumericVector{v: v}, nil
}

// ToCategorical narrows the vector to the categorical subset.
func (v Vector) ToCategorical() (CategoricalVector, error) {
	if !v.kind.IsCategorical() {
		return CategoricalVector{}, dperr.NewAtomicMismatchError("%s vector is not categorical", v.kind)
	}
	return CategoricalVector{v: v}, nil
}

func (n NumericScalar) ToScalar() Scalar     { return n.s }
func (n NumericScalar) Kind() Kind           { return n.s.kind }
func (n NumericScalar) IsNull() bool         { return n.s.null }
func (n NumericScalar) String() string       { return n.s.String() }
func (c CategoricalScalar) ToScalar() Scalar { return c.s }
func (c CategoricalScalar) Kind() Kind       { return c.s.kind }
func (c CategoricalScalar) String() string   { return c.s.String() }
func (n NumericVector) ToVector() Vector     { return n.v }
func (n NumericVector) Kind() Kind           { return n.v.kind }
func (n NumericVector) Len() int             { return n.v.Len() }
func (c CategoricalVector) ToVector() Vector { return c.v }
func (c CategoricalVector) Kind() Kind       { return c.v.kind }

// At returns the i-th element as a numeric scalar.
func (n NumericVector) At(i int) NumericScalar { return NumericScalar{s: n.v.elems[i]} }

// Contains reports whether the vector holds the categorical scalar.
func (c CategoricalVector) Contains(x CategoricalScalar) bool {
	for _, e := range c.v.elems {
		if e.kind == x.s.kind && !e.null && !x.s.null && e.b == x.s.b && e.s == x.s.s &&
			e.i == x.s.i && e.u == x.s.u {
			return true
		}
	}
	return false
}

// NumF64 and friends construct numeric scalars directly, for bounds and constants.
func NumF64(v float64) NumericScalar { return NumericScalar{s: NewF64(v)} }
func NumF32(v float32) NumericScalar { return NumericScalar{s: NewF32(v)} }
func NumI64(v int64) NumericScalar   { return NumericScalar{s: NewI64(v)} }
func NumI32(v int32) NumericScalar   { return NumericScalar{s: NewI32(v)} }
func NumI8(v int8) NumericScalar     { return NumericScalar{s: NewI8(v)} }
func NumU64(v uint64) NumericScalar  { return NumericScalar{s: NewU64(v)} }
