package value

import (
	"fmt"
	"strings"

	"github.com/l7mp/dpcore/pkg/dperr"
)

// Kind is the atomic type of a scalar.
type Kind int

const (
	Bool Kind = iota
	String
	I8
	I16
	I32
	I64
	U8
	U16
	U32
	U64
	F32
	F64
)

var kindNames = map[Kind]string{
	Bool: "bool", String: "string",
	I8: "i8", I16: "i16", I32: "i32", I64: "i64",
	U8: "u8", U16: "u16", U32: "u32", U64: "u64",
	F32: "f32", F64: "f64",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind returns the kind with the given (case-insensitive) name.
func ParseKind(name string) (Kind, error) {
	n := strings.ToLower(name)
	for k, s := range kindNames {
		if s == n {
			return k, nil
		}
	}
	return 0, dperr.NewUnsupportedCastError("unknown atomic kind %q", name)
}

func (k Kind) IsSigned() bool   { return k >= I8 && k <= I64 }
func (k Kind) IsUnsigned() bool { return k >= U8 && k <= U64 }
func (k Kind) IsInteger() bool  { return k.IsSigned() || k.IsUnsigned() }
func (k Kind) IsFloat() bool    { return k == F32 || k == F64 }

// IsNumeric is true for integer and floating point kinds.
func (k Kind) IsNumeric() bool { return k.IsInteger() || k.IsFloat() }

// IsCategorical is true for kinds with exact equality: booleans, strings and integers.
func (k Kind) IsCategorical() bool { return k == Bool || k == String || k.IsInteger() }

func (k Kind) bits() uint {
	switch k {
	case I8, U8:
		return 8
	case I16, U16:
		return 16
	case I32, U32, F32:
		return 32
	default:
		return 64
	}
}

func (k Kind) signedRange() (int64, int64) {
	b := k.bits()
	return -1 << (b - 1), 1<<(b-1) - 1
}

func (k Kind) unsignedMax() uint64 {
	b := k.bits()
	if b == 64 {
		return ^uint64(0)
	}
	return 1<<b - 1
}
