// Package transformations provides constructors for certified transformations. Every constructor
// validates its domain preconditions eagerly and derives the output domain, so a successfully
// built transformation never fails on a member of its input domain for a reason its domain could
// have predicted.
package transformations

import (
	"github.com/l7mp/dpcore/pkg/core"
	"github.com/l7mp/dpcore/pkg/domain"
	"github.com/l7mp/dpcore/pkg/dperr"
	"github.com/l7mp/dpcore/pkg/metric"
	"github.com/l7mp/dpcore/pkg/value"
)

// MakeIdentity returns the 1-stable transformation that passes its input through.
func MakeIdentity(dom domain.Domain, m metric.Metric) (*core.Transformation, error) {
	return core.NewTransformation(core.TransformationConfig{
		Name:         "identity",
		InputDomain:  dom,
		InputMetric:  m,
		OutputDomain: dom,
		OutputMetric: m,
		Function:     func(d core.Data) (core.Data, error) { return d, nil },
		Map:          identityMap,
	})
}

func identityMap(dIn metric.DataDistance) (metric.DataDistance, error) { return dIn, nil }

func requireRowMetric(op string, m metric.Metric) error {
	if !m.IsRowMetric() {
		return dperr.NewMetricMismatchError("%s: expected a row metric, got %s", op, m)
	}
	return nil
}

func requireSensitivityMetric(op string, m metric.Metric) error {
	if m != metric.L1Sensitivity && m != metric.L2Sensitivity {
		return dperr.NewMetricMismatchError("%s: expected a sensitivity metric, got %s", op, m)
	}
	return nil
}

func numericAtom(op string, dom domain.VectorDomain) (domain.Interval, error) {
	i, err := dom.Atom().Interval()
	if err != nil {
		return domain.Interval{}, dperr.NewInvalidDomainError("%s: %s", op, err)
	}
	return i, nil
}

// vectorArg unwraps a vector argument.
func vectorArg(d core.Data) (value.Vector, error) {
	v, err := core.Unwrap(d)
	if err != nil {
		return value.Vector{}, err
	}
	return value.AsVector(v)
}

// mapVector applies fn to every element, producing a vector of the given kind and nullability.
func mapVector(d core.Data, kind value.Kind, nullable bool, fn func(value.Scalar) (value.Scalar, error)) (core.Data, error) {
	vec, err := vectorArg(d)
	if err != nil {
		return nil, err
	}
	out := make([]value.Scalar, vec.Len())
	for i := range out {
		if out[i], err = fn(vec.At(i)); err != nil {
			return nil, err
		}
	}
	res, err := value.NewVector(kind, nullable, out...)
	if err != nil {
		return nil, err
	}
	return core.NewLiteral(res), nil
}
