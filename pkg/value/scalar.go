package value

import (
	"math"
	"strconv"

	"github.com/l7mp/dpcore/pkg/dperr"
)

// Value is the closed sum of Scalar, Vector and Dataframe.
type Value interface {
	isValue()
	String() string
}

var (
	_ Value = Scalar{}
	_ Value = Vector{}
	_ Value = Dataframe{}
)

// Scalar is a single atomic value. Only the field matching the kind is set, which keeps scalars
// comparable with ==.
type Scalar struct {
	kind     Kind
	nullable bool
	null     bool

	b bool
	s string
	i int64
	u uint64
	f float64
}

func (Scalar) isValue() {}

func NewBool(v bool) Scalar       { return Scalar{kind: Bool, b: v} }
func NewString(v string) Scalar   { return Scalar{kind: String, s: v} }
func NewI8(v int8) Scalar         { return Scalar{kind: I8, i: int64(v)} }
func NewI16(v int16) Scalar       { return Scalar{kind: I16, i: int64(v)} }
func NewI32(v int32) Scalar       { return Scalar{kind: I32, i: int64(v)} }
func NewI64(v int64) Scalar       { return Scalar{kind: I64, i: v} }
func NewU8(v uint8) Scalar        { return Scalar{kind: U8, u: uint64(v)} }
func NewU16(v uint16) Scalar      { return Scalar{kind: U16, u: uint64(v)} }
func NewU32(v uint32) Scalar      { return Scalar{kind: U32, u: uint64(v)} }
func NewU64(v uint64) Scalar      { return Scalar{kind: U64, u: v} }
func NewF32(v float32) Scalar     { return Scalar{kind: F32, f: float64(v)} }
func NewF64(v float64) Scalar     { return Scalar{kind: F64, f: v} }
func Null(kind Kind) Scalar       { return Scalar{kind: kind, nullable: true, null: true} }
func (s Scalar) Kind() Kind       { return s.kind }
func (s Scalar) IsNullable() bool { return s.nullable }
func (s Scalar) IsNull() bool     { return s.null }

// NewInt creates an integer scalar of the given kind, checking that v fits the width.
func NewInt(kind Kind, v int64) (Scalar, error) {
	switch {
	case kind.IsSigned():
		lo, hi := kind.signedRange()
		if v < lo || v > hi {
			return Scalar{}, dperr.NewOverflowError("%d does not fit %s", v, kind)
		}
		return Scalar{kind: kind, i: v}, nil
	case kind.IsUnsigned():
		if v < 0 || uint64(v) > kind.unsignedMax() {
			return Scalar{}, dperr.NewOverflowError("%d does not fit %s", v, kind)
		}
		return Scalar{kind: kind, u: uint64(v)}, nil
	}
	return Scalar{}, dperr.NewAtomicMismatchError("%s is not an integer kind", kind)
}

// NewFloat creates a floating point scalar of the given kind.
func NewFloat(kind Kind, v float64) (Scalar, error) {
	switch kind {
	case F32:
		if !math.IsInf(v, 0) && math.IsInf(float64(float32(v)), 0) {
			return Scalar{}, dperr.NewOverflowError("%g does not fit %s", v, kind)
		}
		return NewF32(float32(v)), nil
	case F64:
		return NewF64(v), nil
	}
	return Scalar{}, dperr.NewAtomicMismatchError("%s is not a floating point kind", kind)
}

// AsNullable returns the nullable variant of the scalar, holding the same value.
func (s Scalar) AsNullable() Scalar {
	s.nullable = true
	return s
}

func (s Scalar) checkKind(ok bool, want string) error {
	if !ok {
		return dperr.NewAtomicMismatchError("expected %s scalar, got %s", want, s.kind)
	}
	if s.null {
		return dperr.NewPotentialNullityError("%s scalar is null", s.kind)
	}
	return nil
}

// GetBool returns the value of a boolean scalar.
func (s Scalar) GetBool() (bool, error) {
	if err := s.checkKind(s.kind == Bool, "bool"); err != nil {
		return false, err
	}
	return s.b, nil
}

// GetString returns the value of a string scalar.
func (s Scalar) GetString() (string, error) {
	if err := s.checkKind(s.kind == String, "string"); err != nil {
		return "", err
	}
	return s.s, nil
}

// GetInt returns the value of a signed integer scalar.
func (s Scalar) GetInt() (int64, error) {
	if err := s.checkKind(s.kind.IsSigned(), "signed integer"); err != nil {
		return 0, err
	}
	return s.i, nil
}

// GetUint returns the value of an unsigned integer scalar.
func (s Scalar) GetUint() (uint64, error) {
	if err := s.checkKind(s.kind.IsUnsigned(), "unsigned integer"); err != nil {
		return 0, err
	}
	return s.u, nil
}

// GetFloat returns the value of a floating point scalar.
func (s Scalar) GetFloat() (float64, error) {
	if err := s.checkKind(s.kind.IsFloat(), "floating point"); err != nil {
		return 0, err
	}
	return s.f, nil
}

func (s Scalar) String() string {
	if s.null {
		return "null"
	}
	switch {
	case s.kind == Bool:
		return strconv.FormatBool(s.b)
	case s.kind == String:
		return strconv.Quote(s.s)
	case s.kind.IsSigned():
		return strconv.FormatInt(s.i, 10)
	case s.kind.IsUnsigned():
		return strconv.FormatUint(s.u, 10)
	case s.kind == F32:
		return strconv.FormatFloat(s.f, 'g', -1, 32)
	default:
		return strconv.FormatFloat(s.f, 'g', -1, 64)
	}
}

// ParseScalar parses the textual form of a scalar of the given kind.
func ParseScalar(kind Kind, text string) (Scalar, error) {
	switch {
	case kind == Bool:
		v, err := strconv.ParseBool(text)
		if err != nil {
			return Scalar{}, dperr.NewUnsupportedCastError("cannot parse %q as %s", text, kind)
		}
		return NewBool(v), nil
	case kind == String:
		return NewString(text), nil
	case kind.IsSigned():
		v, err := strconv.ParseInt(text, 10, int(kind.bits()))
		if err != nil {
			return Scalar{}, dperr.NewUnsupportedCastError("cannot parse %q as %s", text, kind)
		}
		return Scalar{kind: kind, i: v}, nil
	case kind.IsUnsigned():
		v, err := strconv.ParseUint(text, 10, int(kind.bits()))
		if err != nil {
			return Scalar{}, dperr.NewUnsupportedCastError("cannot parse %q as %s", text, kind)
		}
		return Scalar{kind: kind, u: v}, nil
	case kind.IsFloat():
		v, err := strconv.ParseFloat(text, int(kind.bits()))
		if err != nil {
			return Scalar{}, dperr.NewUnsupportedCastError("cannot parse %q as %s", text, kind)
		}
		return Scalar{kind: kind, f: v}, nil
	}
	return Scalar{}, dperr.NewUnsupportedCastError("cannot parse into %s", kind)
}
