package transformations

import (
	"github.com/l7mp/dpcore/pkg/core"
	"github.com/l7mp/dpcore/pkg/domain"
	"github.com/l7mp/dpcore/pkg/dperr"
	"github.com/l7mp/dpcore/pkg/metric"
	"github.com/l7mp/dpcore/pkg/value"
)

func dataframeArg(d core.Data) (value.Dataframe, error) {
	v, err := core.Unwrap(d)
	if err != nil {
		return value.Dataframe{}, err
	}
	return value.AsDataframe(v)
}

// MakeSelectColumn returns the 1-stable transformation that extracts one column of a dataframe.
func MakeSelectColumn(dom domain.DataframeDomain, m metric.Metric, key string) (*core.Transformation, error) {
	if err := requireRowMetric("select_column", m); err != nil {
		return nil, err
	}
	col, err := dom.Column(key)
	if err != nil {
		return nil, err
	}

	return core.NewTransformation(core.TransformationConfig{
		Name:         "select_column",
		InputDomain:  dom,
		InputMetric:  m,
		OutputDomain: col,
		OutputMetric: m,
		Function: func(d core.Data) (core.Data, error) {
			df, err := dataframeArg(d)
			if err != nil {
				return nil, err
			}
			v, err := df.Column(key)
			if err != nil {
				return nil, err
			}
			return core.NewLiteral(v), nil
		},
		Map: identityMap,
	})
}

// MakeParseColumn returns the 1-stable transformation that parses a string column of a dataframe
// into the given kind. Cells that fail to parse become null, so the parsed column is nullable.
func MakeParseColumn(dom domain.DataframeDomain, m metric.Metric, key string, kind value.Kind) (*core.Transformation, error) {
	if err := requireRowMetric("parse_column", m); err != nil {
		return nil, err
	}
	col, err := dom.Column(key)
	if err != nil {
		return nil, err
	}
	vdom, ok := col.(domain.VectorDomain)
	if !ok {
		return nil, dperr.NewInvalidDomainError("parse_column: column %q is not a vector: %s", key, col)
	}
	nature, ok := vdom.Atom().Nature().(domain.Categorical)
	if !ok {
		return nil, dperr.NewInvalidDomainError("parse_column: column %q is not a string column: %s", key, col)
	}
	if cats, ok := nature.Categories(); ok && len(cats) > 0 && cats[0].Kind() != value.String {
		return nil, dperr.NewAtomicMismatchError("parse_column: column %q holds %s, not strings", key, cats[0].Kind())
	}

	var atom domain.ScalarDomain
	switch {
	case kind.IsNumeric():
		atom, err = domain.NumericScalar(kind, nil, nil, true)
	case kind == value.Bool:
		atom, err = domain.CategoricalScalar(nil, true)
	default:
		err = dperr.NewUnsupportedCastError("parse_column: cannot parse strings into %s", kind)
	}
	if err != nil {
		return nil, err
	}
	out := dom.WithColumn(key, vdom.WithAtom(atom))

	return core.NewTransformation(core.TransformationConfig{
		Name:         "parse_column",
		InputDomain:  dom,
		InputMetric:  m,
		OutputDomain: out,
		OutputMetric: m,
		Function: func(d core.Data) (core.Data, error) {
			df, err := dataframeArg(d)
			if err != nil {
				return nil, err
			}
			v, err := df.Column(key)
			if err != nil {
				return nil, err
			}
			parsed, err := mapVector(core.NewLiteral(v), kind, true, func(s value.Scalar) (value.Scalar, error) {
				if s.IsNull() {
					return value.Null(kind), nil
				}
				text, err := s.GetString()
				if err != nil {
					return value.Scalar{}, err
				}
				x, err := value.ParseScalar(kind, text)
				if err != nil {
					return value.Null(kind), nil
				}
				return x, nil
			})
			if err != nil {
				return nil, err
			}
			return core.NewLiteral(df.With(key, parsed.(core.Literal).Value())), nil
		},
		Map: identityMap,
	})
}
