package value

import (
	"fmt"
	"strings"

	"github.com/l7mp/dpcore/pkg/dperr"
)

// Dataframe is an ordered mapping from column key to Value. Dataframes are immutable: With and
// Without return modified copies.
type Dataframe struct {
	keys []string
	cols map[string]Value
}

func (Dataframe) isValue() {}

// NewDataframe creates an empty dataframe.
func NewDataframe() Dataframe {
	return Dataframe{cols: map[string]Value{}}
}

// With returns a dataframe where column key holds v. A new key is appended at the end, an existing
// key keeps its position.
func (d Dataframe) With(key string, v Value) Dataframe {
	ret := Dataframe{keys: make([]string, len(d.keys), len(d.keys)+1), cols: make(map[string]Value, len(d.cols)+1)}
	copy(ret.keys, d.keys)
	for k, c := range d.cols {
		ret.cols[k] = c
	}
	if _, ok := ret.cols[key]; !ok {
		ret.keys = append(ret.keys, key)
	}
	ret.cols[key] = v
	return ret
}

// Without returns a dataframe with column key removed.
func (d Dataframe) Without(key string) Dataframe {
	ret := NewDataframe()
	for _, k := range d.keys {
		if k != key {
			ret = ret.With(k, d.cols[k])
		}
	}
	return ret
}

// Keys returns the column keys in order.
func (d Dataframe) Keys() []string {
	ret := make([]string, len(d.keys))
	copy(ret, d.keys)
	return ret
}

func (d Dataframe) NumColumns() int { return len(d.keys) }

// Column returns the column stored at key.
func (d Dataframe) Column(key string) (Value, error) {
	c, ok := d.cols[key]
	if !ok {
		return nil, dperr.NewRawError("dataframe has no column %q", key)
	}
	return c, nil
}

// Equal is structural equality including column order.
func (d Dataframe) Equal(o Dataframe) bool {
	if len(d.keys) != len(o.keys) {
		return false
	}
	for i, k := range d.keys {
		if o.keys[i] != k || !Equal(d.cols[k], o.cols[k]) {
			return false
		}
	}
	return true
}

func (d Dataframe) String() string {
	parts := make([]string, len(d.keys))
	for i, k := range d.keys {
		parts[i] = fmt.Sprintf("%q: %s", k, d.cols[k].String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Equal compares two values structurally.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case Scalar:
		y, ok := b.(Scalar)
		return ok && x == y
	case Vector:
		y, ok := b.(Vector)
		return ok && x.Equal(y)
	case Dataframe:
		y, ok := b.(Dataframe)
		return ok && x.Equal(y)
	}
	return a == nil && b == nil
}

// AsScalar narrows a value to a scalar.
func AsScalar(v Value) (Scalar, error) {
	s, ok := v.(Scalar)
	if !ok {
		return Scalar{}, dperr.NewAtomicMismatchError("expected scalar, got %s", shapeOf(v))
	}
	return s, nil
}

// AsVector narrows a value to a vector.
func AsVector(v Value) (Vector, error) {
	s, ok := v.(Vector)
	if !ok {
		return Vector{}, dperr.NewAtomicMismatchError("expected vector, got %s", shapeOf(v))
	}
	return s, nil
}

// AsDataframe narrows a value to a dataframe.
func AsDataframe(v Value) (Dataframe, error) {
	s, ok := v.(Dataframe)
	if !ok {
		return Dataframe{}, dperr.NewAtomicMismatchError("expected dataframe, got %s", shapeOf(v))
	}
	return s, nil
}

func shapeOf(v Value) string {
	switch v.(type) {
	case Scalar:
		return "scalar"
	case Vector:
		return "vector"
	case Dataframe:
		return "dataframe"
	case nil:
		return "nil"
	}
	return fmt.Sprintf("%T", v)
}
