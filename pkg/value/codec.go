package value

import (
	"fmt"
	"sort"

	"k8s.io/apimachinery/pkg/util/json"

	"github.com/l7mp/dpcore/pkg/dperr"
)

// Unmarshal decodes a JSON document into a Value. Integral JSON numbers decode as i64, others as
// f64.
func Unmarshal(data []byte) (Value, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, dperr.NewUnsupportedCastError("invalid JSON: %s", err)
	}
	return FromJSON(raw)
}

// Marshal encodes a Value as JSON.
func Marshal(v Value) ([]byte, error) {
	return json.Marshal(ToJSON(v))
}

// Stringify renders a value as compact JSON, falling back to the native representation.
func Stringify(v Value) string {
	b, err := Marshal(v)
	if err != nil {
		return v.String()
	}
	return string(b)
}

// FromJSON converts a decoded JSON tree into a Value: primitives become scalars, lists become
// vectors and objects become dataframes with columns in sorted key order. A list mixing integers
// and floats is read as an f64 vector, and nulls make a list nullable.
func FromJSON(raw any) (Value, error) {
	switch x := raw.(type) {
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		df := NewDataframe()
		for _, k := range keys {
			col, err := FromJSON(x[k])
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", k, err)
			}
			df = df.With(k, col)
		}
		return df, nil
	case []any:
		return vectorFromJSON(x)
	case nil:
		return nil, dperr.NewUnsupportedCastError("cannot infer the kind of a bare null")
	}
	return scalarFromJSON(raw)
}

func scalarFromJSON(raw any) (Scalar, error) {
	switch x := raw.(type) {
	case bool:
		return NewBool(x), nil
	case string:
		return NewString(x), nil
	case int64:
		return NewI64(x), nil
	case int:
		return NewI64(int64(x)), nil
	case float64:
		return NewF64(x), nil
	}
	return Scalar{}, dperr.NewUnsupportedCastError("unsupported JSON value %#v", raw)
}

func vectorFromJSON(list []any) (Vector, error) {
	elems := make([]Scalar, len(list))
	nullable, known, mixed := false, false, false
	var kind Kind
	for i, raw := range list {
		if raw == nil {
			nullable = true
			continue
		}
		s, err := scalarFromJSON(raw)
		if err != nil {
			return Vector{}, fmt.Errorf("element %d: %w", i, err)
		}
		elems[i] = s
		switch {
		case !known:
			kind, known = s.kind, true
		case kind != s.kind && kind.IsNumeric() && s.kind.IsNumeric():
			mixed = true
		case kind != s.kind:
			return Vector{}, dperr.NewAtomicMismatchError("element %d: expected %s, got %s",
				i, kind, s.kind)
		}
	}
	if !known {
		return Vector{}, dperr.NewUnsupportedCastError("cannot infer the kind of a list " +
			"without non-null elements")
	}
	if mixed {
		kind = F64
	}
	for i, raw := range list {
		switch {
		case raw == nil:
			elems[i] = Null(kind)
		case mixed && elems[i].kind == I64:
			elems[i] = NewF64(float64(elems[i].i))
		}
	}
	return NewVector(kind, nullable, elems...)
}

// ToJSON converts a Value into a tree of native Go values suitable for JSON encoding.
func ToJSON(v Value) any {
	switch x := v.(type) {
	case Scalar:
		return scalarToJSON(x)
	case Vector:
		ret := make([]any, x.Len())
		for i, e := range x.elems {
			ret[i] = scalarToJSON(e)
		}
		return ret
	case Dataframe:
		ret := make(map[string]any, len(x.keys))
		for _, k := range x.keys {
			ret[k] = ToJSON(x.cols[k])
		}
		return ret
	}
	return nil
}

func scalarToJSON(s Scalar) any {
	switch {
	case s.null:
		return nil
	case s.kind == Bool:
		return s.b
	case s.kind == String:
		return s.s
	case s.kind.IsSigned():
		return s.i
	case s.kind.IsUnsigned():
		return s.u
	}
	return s.f
}
