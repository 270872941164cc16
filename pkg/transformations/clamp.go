package transformations

import (
	"github.com/l7mp/dpcore/pkg/core"
	"github.com/l7mp/dpcore/pkg/domain"
	"github.com/l7mp/dpcore/pkg/dperr"
	"github.com/l7mp/dpcore/pkg/metric"
	"github.com/l7mp/dpcore/pkg/value"
)

// MakeClamp returns the 1-stable transformation that clamps every element of a numeric vector to
// [lower, upper]. The output interval is the intersection of [lower, upper] with the input
// interval, so clamping never widens a known bound. Nulls pass through.
func MakeClamp(dom domain.VectorDomain, m metric.Metric, lower, upper value.NumericScalar) (*core.Transformation, error) {
	if err := requireRowMetric("clamp", m); err != nil {
		return nil, err
	}
	prior, err := numericAtom("clamp", dom)
	if err != nil {
		return nil, err
	}
	kind := prior.Kind()
	if lower.Kind() != kind || upper.Kind() != kind {
		return nil, dperr.NewAtomicMismatchError("clamp: bounds [%s, %s] on a %s domain", lower, upper, kind)
	}
	if _, err := domain.Closed(lower, upper); err != nil {
		return nil, err
	}
	clamped, err := prior.Intersect(lower, upper)
	if err != nil {
		return nil, err
	}
	atom := dom.Atom()
	out := dom.WithAtom(domain.NumericScalarFromInterval(clamped, atom.MayHaveNullity()))

	return core.NewTransformation(core.TransformationConfig{
		Name:         "clamp",
		InputDomain:  dom,
		InputMetric:  m,
		OutputDomain: out,
		OutputMetric: m,
		Function: func(d core.Data) (core.Data, error) {
			return mapVector(d, kind, atom.MayHaveNullity(), func(s value.Scalar) (value.Scalar, error) {
				if s.IsNull() {
					return s, nil
				}
				x, err := s.ToNumeric()
				if err != nil {
					return value.Scalar{}, err
				}
				if x, err = x.Max(lower); err != nil {
					return value.Scalar{}, err
				}
				if x, err = x.Min(upper); err != nil {
					return value.Scalar{}, err
				}
				return x.ToScalar(), nil
			})
		},
		Map: identityMap,
	})
}

// MakeImputeConstant replaces the nulls of a vector with a constant of the atom's kind. The
// output atom is non-nullable. For a numeric atom the constant must lie within the atom's
// interval.
func MakeImputeConstant(dom domain.VectorDomain, m metric.Metric, constant value.Scalar) (*core.Transformation, error) {
	if err := requireRowMetric("impute_constant", m); err != nil {
		return nil, err
	}
	if constant.IsNull() {
		return nil, dperr.NewPotentialNullityError("impute_constant: the constant is null")
	}
	atom := dom.Atom()
	nonNull := atom.WithNullity(false)
	if err := nonNull.Member(constant); err != nil {
		return nil, dperr.NewInvalidDomainError("impute_constant: %s", err)
	}
	kind := constant.Kind()

	return core.NewTransformation(core.TransformationConfig{
		Name:         "impute_constant",
		InputDomain:  dom,
		InputMetric:  m,
		OutputDomain: dom.WithAtom(nonNull),
		OutputMetric: m,
		Function: func(d core.Data) (core.Data, error) {
			return mapVector(d, kind, false, func(s value.Scalar) (value.Scalar, error) {
				if s.IsNull() {
					return constant, nil
				}
				return s, nil
			})
		},
		Map: identityMap,
	})
}
