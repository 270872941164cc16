package value

import (
	"strings"

	"github.com/l7mp/dpcore/pkg/dperr"
)

// Vector is a homogeneous sequence of scalars. All elements share the vector's kind and
// nullability.
type Vector struct {
	kind     Kind
	nullable bool
	elems    []Scalar
}

func (Vector) isValue() {}

// NewVector creates a vector of the given kind. Elements of a nullable vector are converted to
// their nullable variant; null elements are rejected from non-nullable vectors.
func NewVector(kind Kind, nullable bool, elems ...Scalar) (Vector, error) {
	v := Vector{kind: kind, nullable: nullable, elems: make([]Scalar, len(elems))}
	for i, e := range elems {
		if e.kind != kind {
			return Vector{}, dperr.NewAtomicMismatchError("element %d: expected %s, got %s",
				i, kind, e.kind)
		}
		if e.null && !nullable {
			return Vector{}, dperr.NewPotentialNullityError("element %d is null in a "+
				"non-nullable %s vector", i, kind)
		}
		e.nullable = nullable
		v.elems[i] = e
	}
	return v, nil
}

func BoolVector(vs ...bool) Vector {
	v := Vector{kind: Bool, elems: make([]Scalar, len(vs))}
	for i, x := range vs {
		v.elems[i] = NewBool(x)
	}
	return v
}

func StringVector(vs ...string) Vector {
	v := Vector{kind: String, elems: make([]Scalar, len(vs))}
	for i, x := range vs {
		v.elems[i] = NewString(x)
	}
	return v
}

func I64Vector(vs ...int64) Vector {
	v := Vector{kind: I64, elems: make([]Scalar, len(vs))}
	for i, x := range vs {
		v.elems[i] = NewI64(x)
	}
	return v
}

func U64Vector(vs ...uint64) Vector {
	v := Vector{kind: U64, elems: make([]Scalar, len(vs))}
	for i, x := range vs {
		v.elems[i] = NewU64(x)
	}
	return v
}

func F64Vector(vs ...float64) Vector {
	v := Vector{kind: F64, elems: make([]Scalar, len(vs))}
	for i, x := range vs {
		v.elems[i] = NewF64(x)
	}
	return v
}

func (v Vector) Kind() Kind       { return v.kind }
func (v Vector) IsNullable() bool { return v.nullable }
func (v Vector) Len() int         { return len(v.elems) }
func (v Vector) At(i int) Scalar  { return v.elems[i] }

// Elems returns a copy of the elements.
func (v Vector) Elems() []Scalar {
	ret := make([]Scalar, len(v.elems))
	copy(ret, v.elems)
	return ret
}

// HasNull reports whether any element is null.
func (v Vector) HasNull() bool {
	for _, e := range v.elems {
		if e.null {
			return true
		}
	}
	return false
}

// Equal is structural equality.
func (v Vector) Equal(o Vector) bool {
	if v.kind != o.kind || v.nullable != o.nullable || len(v.elems) != len(o.elems) {
		return false
	}
	for i := range v.elems {
		if v.elems[i] != o.elems[i] {
			return false
		}
	}
	return true
}

func (v Vector) String() string {
	parts := make([]string, len(v.elems))
	for i, e := range v.elems {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
