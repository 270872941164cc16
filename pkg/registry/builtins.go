package registry

import (
	"github.com/hashicorp/go-multierror"

	"github.com/l7mp/dpcore/pkg/core"
	"github.com/l7mp/dpcore/pkg/domain"
	"github.com/l7mp/dpcore/pkg/dperr"
	"github.com/l7mp/dpcore/pkg/measurements"
	"github.com/l7mp/dpcore/pkg/metric"
	"github.com/l7mp/dpcore/pkg/noise"
	"github.com/l7mp/dpcore/pkg/transformations"
	"github.com/l7mp/dpcore/pkg/value"
)

// RegisterBuiltins adds the built-in constructors to r. Names already taken are reported together;
// the remaining built-ins are registered regardless.
func RegisterBuiltins(r *Registry) error {
	var merr *multierror.Error
	for name, b := range map[string]TransformationBuilder{
		"identity":        buildIdentity,
		"clamp":           buildClamp,
		"bounded_sum":     buildBoundedSum,
		"count":           buildCount,
		"select_column":   buildSelectColumn,
		"parse_column":    buildParseColumn,
		"impute_constant": buildImputeConstant,
	} {
		if err := r.RegisterTransformation(name, b); err != nil {
			merr = multierror.Append(merr, err)
		}
	}
	for name, b := range map[string]MeasurementBuilder{
		"laplace":       noiseBuilder(metric.L1Sensitivity, "scale", measurements.MakeBaseLaplace),
		"gaussian":      noiseBuilder(metric.L2Sensitivity, "sigma", measurements.MakeBaseGaussian),
		"gaussian_zcdp": noiseBuilder(metric.L2Sensitivity, "sigma", measurements.MakeBaseGaussianZCDP),
	} {
		if err := r.RegisterMeasurement(name, b); err != nil {
			merr = multierror.Append(merr, err)
		}
	}
	return merr.ErrorOrNil()
}

func asVector(op string, dom domain.Domain) (domain.VectorDomain, error) {
	v, ok := dom.(domain.VectorDomain)
	if !ok {
		return domain.VectorDomain{}, dperr.NewInvalidDomainError("%s: expected a vector domain, got %s", op, dom)
	}
	return v, nil
}

func asDataframe(op string, dom domain.Domain) (domain.DataframeDomain, error) {
	d, ok := dom.(domain.DataframeDomain)
	if !ok {
		return domain.DataframeDomain{}, dperr.NewInvalidDomainError("%s: expected a dataframe domain, got %s", op, dom)
	}
	return d, nil
}

func buildIdentity(dom domain.Domain, m metric.Metric, _ Args) (*core.Transformation, error) {
	return transformations.MakeIdentity(dom, m)
}

func buildClamp(dom domain.Domain, m metric.Metric, args Args) (*core.Transformation, error) {
	vec, err := asVector("clamp", dom)
	if err != nil {
		return nil, err
	}
	kind, err := args.Kind("kind", atomKind(vec.Atom(), value.F64))
	if err != nil {
		return nil, err
	}
	lower, err := args.Numeric("lower", kind)
	if err != nil {
		return nil, err
	}
	upper, err := args.Numeric("upper", kind)
	if err != nil {
		return nil, err
	}
	return transformations.MakeClamp(vec, m, lower, upper)
}

func buildBoundedSum(dom domain.Domain, m metric.Metric, args Args) (*core.Transformation, error) {
	vec, err := asVector("bounded_sum", dom)
	if err != nil {
		return nil, err
	}
	out, err := args.Metric("output_metric", metric.L1Sensitivity)
	if err != nil {
		return nil, err
	}
	return transformations.MakeBoundedSum(vec, m, out)
}

func buildCount(dom domain.Domain, m metric.Metric, args Args) (*core.Transformation, error) {
	vec, err := asVector("count", dom)
	if err != nil {
		return nil, err
	}
	out, err := args.Metric("output_metric", metric.L1Sensitivity)
	if err != nil {
		return nil, err
	}
	return transformations.MakeCount(vec, m, out)
}

func buildSelectColumn(dom domain.Domain, m metric.Metric, args Args) (*core.Transformation, error) {
	df, err := asDataframe("select_column", dom)
	if err != nil {
		return nil, err
	}
	key, err := args.String("key")
	if err != nil {
		return nil, err
	}
	return transformations.MakeSelectColumn(df, m, key)
}

func buildParseColumn(dom domain.Domain, m metric.Metric, args Args) (*core.Transformation, error) {
	df, err := asDataframe("parse_column", dom)
	if err != nil {
		return nil, err
	}
	key, err := args.String("key")
	if err != nil {
		return nil, err
	}
	kind, err := args.Kind("kind", value.F64)
	if err != nil {
		return nil, err
	}
	return transformations.MakeParseColumn(df, m, key, kind)
}

func buildImputeConstant(dom domain.Domain, m metric.Metric, args Args) (*core.Transformation, error) {
	vec, err := asVector("impute_constant", dom)
	if err != nil {
		return nil, err
	}
	kind, err := args.Kind("kind", atomKind(vec.Atom(), value.F64))
	if err != nil {
		return nil, err
	}
	constant, err := args.Scalar("constant", kind)
	if err != nil {
		return nil, err
	}
	return transformations.MakeImputeConstant(vec, m, constant)
}

type noiseConstructor func(dom domain.Domain, scale float64, sampler noise.Sampler) (*core.Measurement, error)

func noiseBuilder(want metric.Metric, param string, ctor noiseConstructor) MeasurementBuilder {
	return func(dom domain.Domain, m metric.Metric, args Args, sampler noise.Sampler) (*core.Measurement, error) {
		if m != want {
			return nil, dperr.NewMetricMismatchError("expected input metric %s, got %s", want, m)
		}
		scale, err := args.Float(param)
		if err != nil {
			return nil, err
		}
		return ctor(dom, scale, sampler)
	}
}
