package core

import (
	"fmt"

	"github.com/l7mp/dpcore/pkg/dperr"
	"github.com/l7mp/dpcore/pkg/value"
)

// Data is the argument and result of operation functions: either a Literal value or a Pointer
// to data managed outside the process.
type Data interface {
	isData()
	fmt.Stringer
}

// Literal is an in-process value.
type Literal struct{ v value.Value }

// Pointer refers to data held by a host runtime. In-process functions do not dereference it.
type Pointer struct{ ref any }

func (Literal) isData() {}
func (Pointer) isData() {}

func NewLiteral(v value.Value) Literal { return Literal{v: v} }
func NewPointer(ref any) Pointer       { return Pointer{ref: ref} }

func (l Literal) Value() value.Value { return l.v }
func (l Literal) String() string {
	if l.v == nil {
		return "Literal(nil)"
	}
	return "Literal(" + l.v.String() + ")"
}

func (p Pointer) Ref() any       { return p.ref }
func (p Pointer) String() string { return fmt.Sprintf("Pointer(%p)", p.ref) }

// Unwrap returns the value of a Literal.
func Unwrap(d Data) (value.Value, error) {
	switch x := d.(type) {
	case Literal:
		if x.v == nil {
			return nil, dperr.NewRawError("empty literal")
		}
		return x.v, nil
	case Pointer:
		return nil, dperr.NewNotImplementedError("cannot dereference %s in-process", x)
	}
	return nil, dperr.NewAtomicMismatchError("unknown data %T", d)
}
