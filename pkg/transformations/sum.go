package transformations

import (
	"math"

	"github.com/l7mp/dpcore/pkg/core"
	"github.com/l7mp/dpcore/pkg/domain"
	"github.com/l7mp/dpcore/pkg/dperr"
	"github.com/l7mp/dpcore/pkg/metric"
	"github.com/l7mp/dpcore/pkg/value"
)

// MakeBoundedSum returns the transformation that sums a non-null, bounded numeric vector.
//
// Under the symmetric distance adding or removing a row moves the sum by at most
// max(|lower|, |upper|); under the Hamming distance substituting a row moves it by at most
// upper - lower. The output distance is that sensitivity times d_in. When the vector length is
// known the output interval is the input interval scaled by the length.
func MakeBoundedSum(dom domain.VectorDomain, inputMetric, outputMetric metric.Metric) (*core.Transformation, error) {
	if err := requireRowMetric("bounded_sum", inputMetric); err != nil {
		return nil, err
	}
	if err := requireSensitivityMetric("bounded_sum", outputMetric); err != nil {
		return nil, err
	}
	if err := dom.AssertNonNull(); err != nil {
		return nil, err
	}
	bounds, err := numericAtom("bounded_sum", dom)
	if err != nil {
		return nil, err
	}
	lower, hasLower := bounds.Lower()
	upper, hasUpper := bounds.Upper()
	if !hasLower || !hasUpper {
		return nil, dperr.NewUnknownBoundError("bounded_sum: %s must be bounded", dom.Atom())
	}
	kind := lower.Kind()

	sensitivity, err := sumSensitivity(inputMetric, lower, upper)
	if err != nil {
		return nil, err
	}

	outAtom, err := domain.NumericScalar(kind, nil, nil, false)
	if err != nil {
		return nil, err
	}
	if n, ok := dom.Length(); ok {
		lo, err := lower.MulCount(n)
		if err != nil {
			return nil, err
		}
		hi, err := upper.MulCount(n)
		if err != nil {
			return nil, err
		}
		if outAtom, err = domain.BoundedScalar(lo, hi, false); err != nil {
			return nil, err
		}
	}

	return core.NewTransformation(core.TransformationConfig{
		Name:         "bounded_sum",
		InputDomain:  dom,
		InputMetric:  inputMetric,
		OutputDomain: outAtom,
		OutputMetric: outputMetric,
		Function: func(d core.Data) (core.Data, error) {
			vec, err := vectorArg(d)
			if err != nil {
				return nil, err
			}
			sum, err := value.Zero(kind)
			if err != nil {
				return nil, err
			}
			for i := 0; i < vec.Len(); i++ {
				x, err := vec.At(i).ToNumeric()
				if err != nil {
					return nil, err
				}
				if sum, err = sum.CheckedAdd(x); err != nil {
					return nil, err
				}
			}
			return core.NewLiteral(sum.ToScalar()), nil
		},
		Map: func(dIn metric.DataDistance) (metric.DataDistance, error) {
			return dIn.Scale(sensitivity, outputMetric)
		},
	})
}

// sumSensitivity is the per-row sensitivity of a bounded sum.
func sumSensitivity(m metric.Metric, lower, upper value.NumericScalar) (float64, error) {
	var s float64
	switch m {
	case metric.Symmetric:
		s = math.Max(math.Abs(lower.Float64()), math.Abs(upper.Float64()))
	case metric.Hamming:
		s = upper.Float64() - lower.Float64()
	default:
		return 0, dperr.NewMetricMismatchError("bounded_sum: unsupported input metric %s", m)
	}
	if math.IsInf(s, 0) || math.IsNaN(s) {
		return 0, dperr.NewOverflowError("bounded_sum: sensitivity of [%s, %s] is not finite", lower, upper)
	}
	return s, nil
}

// MakeCount returns the transformation that counts the rows of a vector. Adding or removing a row
// changes the count by one, substituting a row does not change it.
func MakeCount(dom domain.VectorDomain, inputMetric, outputMetric metric.Metric) (*core.Transformation, error) {
	if err := requireRowMetric("count", inputMetric); err != nil {
		return nil, err
	}
	if err := requireSensitivityMetric("count", outputMetric); err != nil {
		return nil, err
	}
	zero := value.NumI64(0)
	var upper *value.NumericScalar
	if n, ok := dom.Length(); ok {
		u := value.NumI64(int64(n))
		upper = &u
	}
	out, err := domain.NumericScalar(value.I64, &zero, upper, false)
	if err != nil {
		return nil, err
	}

	return core.NewTransformation(core.TransformationConfig{
		Name:         "count",
		InputDomain:  dom,
		InputMetric:  inputMetric,
		OutputDomain: out,
		OutputMetric: outputMetric,
		Function: func(d core.Data) (core.Data, error) {
			vec, err := vectorArg(d)
			if err != nil {
				return nil, err
			}
			return core.NewLiteral(value.NewI64(int64(vec.Len()))), nil
		},
		Map: func(dIn metric.DataDistance) (metric.DataDistance, error) {
			if dIn.Metric() == metric.Hamming {
				return metric.NewDataDistance(outputMetric, 0)
			}
			return dIn.Scale(1, outputMetric)
		},
	})
}
