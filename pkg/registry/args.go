package registry

import (
	"encoding/json"
	"math"

	"github.com/l7mp/dpcore/pkg/domain"
	"github.com/l7mp/dpcore/pkg/dperr"
	"github.com/l7mp/dpcore/pkg/metric"
	"github.com/l7mp/dpcore/pkg/value"
)

// Args holds the parameters of a constructor as decoded from JSON or YAML.
type Args map[string]any

func (a Args) get(key string) (any, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return nil, dperr.NewRawError("missing argument %q", key)
	}
	return v, nil
}

// Float returns a numeric argument.
func (a Args) Float(key string) (float64, error) {
	v, err := a.get(key)
	if err != nil {
		return 0, err
	}
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, dperr.NewUnsupportedCastError("argument %q: %s", key, err)
		}
		return f, nil
	}
	return 0, dperr.NewUnsupportedCastError("argument %q: expected a number, got %T", key, v)
}

// Int returns an integral argument.
func (a Args) Int(key string) (int64, error) {
	v, err := a.get(key)
	if err != nil {
		return 0, err
	}
	switch x := v.(type) {
	case int:
		return int64(x), nil
	case int64:
		return x, nil
	case json.Number:
		i, err := x.Int64()
		if err != nil {
			return 0, dperr.NewUnsupportedCastError("argument %q: %s", key, err)
		}
		return i, nil
	}
	f, err := a.Float(key)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, dperr.NewUnsupportedCastError("argument %q: %g is not an integer", key, f)
	}
	return int64(f), nil
}

// String returns a string argument.
func (a Args) String(key string) (string, error) {
	v, err := a.get(key)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", dperr.NewUnsupportedCastError("argument %q: expected a string, got %T", key, v)
	}
	return s, nil
}

// StringOr returns a string argument or a default when the argument is absent.
func (a Args) StringOr(key, def string) (string, error) {
	if _, ok := a[key]; !ok {
		return def, nil
	}
	return a.String(key)
}

// Kind returns an atomic kind argument, falling back to def when absent.
func (a Args) Kind(key string, def value.Kind) (value.Kind, error) {
	if _, ok := a[key]; !ok {
		return def, nil
	}
	s, err := a.String(key)
	if err != nil {
		return 0, err
	}
	return value.ParseKind(s)
}

// Metric returns a metric argument, falling back to def when absent.
func (a Args) Metric(key string, def metric.Metric) (metric.Metric, error) {
	if _, ok := a[key]; !ok {
		return def, nil
	}
	s, err := a.String(key)
	if err != nil {
		return 0, err
	}
	return metric.ParseMetric(s)
}

// Scalar returns an argument as a scalar of the given kind.
func (a Args) Scalar(key string, kind value.Kind) (value.Scalar, error) {
	switch {
	case kind.IsInteger():
		i, err := a.Int(key)
		if err != nil {
			return value.Scalar{}, err
		}
		return value.NewInt(kind, i)
	case kind.IsFloat():
		f, err := a.Float(key)
		if err != nil {
			return value.Scalar{}, err
		}
		return value.NewFloat(kind, f)
	case kind == value.Bool:
		v, err := a.get(key)
		if err != nil {
			return value.Scalar{}, err
		}
		b, ok := v.(bool)
		if !ok {
			return value.Scalar{}, dperr.NewUnsupportedCastError("argument %q: expected a bool, got %T", key, v)
		}
		return value.NewBool(b), nil
	}
	s, err := a.String(key)
	if err != nil {
		return value.Scalar{}, err
	}
	return value.NewString(s), nil
}

// Numeric returns an argument as a numeric scalar of the given kind.
func (a Args) Numeric(key string, kind value.Kind) (value.NumericScalar, error) {
	s, err := a.Scalar(key, kind)
	if err != nil {
		return value.NumericScalar{}, err
	}
	return s.ToNumeric()
}

// atomKind returns the kind of a numeric scalar domain, or def for categorical domains.
func atomKind(atom domain.ScalarDomain, def value.Kind) value.Kind {
	if i, err := atom.Interval(); err == nil {
		return i.Kind()
	}
	return def
}
