// Package measurements provides constructors for noise-adding measurements. Each measurement
// perturbs every element of a numeric scalar or vector with noise drawn from an injected
// noise.Sampler, so the privacy proof only depends on the sampler being independent across draws.
package measurements

import (
	"math"

	"github.com/l7mp/dpcore/pkg/core"
	"github.com/l7mp/dpcore/pkg/domain"
	"github.com/l7mp/dpcore/pkg/dperr"
	"github.com/l7mp/dpcore/pkg/metric"
	"github.com/l7mp/dpcore/pkg/noise"
	"github.com/l7mp/dpcore/pkg/value"
)

// numericAtom returns the scalar domain noise is added to: the domain itself for a scalar, the
// atom for a vector.
func numericAtom(op string, dom domain.Domain) (domain.ScalarDomain, error) {
	var atom domain.ScalarDomain
	switch d := dom.(type) {
	case domain.ScalarDomain:
		atom = d
	case domain.VectorDomain:
		atom = d.Atom()
	default:
		return domain.ScalarDomain{}, dperr.NewInvalidDomainError("%s: expected a scalar or vector domain, got %s", op, dom)
	}
	i, err := atom.Interval()
	if err != nil {
		return domain.ScalarDomain{}, dperr.NewInvalidDomainError("%s: %s", op, err)
	}
	if k := i.Kind(); !k.IsFloat() {
		return domain.ScalarDomain{}, dperr.NewAtomicMismatchError("%s: expected a floating point domain, got %s", op, k)
	}
	if err := atom.AssertNonNull(); err != nil {
		return domain.ScalarDomain{}, err
	}
	return atom, nil
}

func checkPositive(op, what string, x float64) error {
	if math.IsNaN(x) || math.IsInf(x, 0) || x <= 0 {
		return dperr.NewInvalidDistanceError("%s: %s must be positive and finite, got %g", op, what, x)
	}
	return nil
}

// noisy builds a function perturbing every element of a float scalar or vector.
func noisy(draw func() (float64, error)) core.Function {
	perturb := func(s value.Scalar) (value.Scalar, error) {
		x, err := s.GetFloat()
		if err != nil {
			return value.Scalar{}, err
		}
		z, err := draw()
		if err != nil {
			return value.Scalar{}, err
		}
		return value.NewFloat(s.Kind(), x+z)
	}

	return func(d core.Data) (core.Data, error) {
		v, err := core.Unwrap(d)
		if err != nil {
			return nil, err
		}
		switch x := v.(type) {
		case value.Scalar:
			s, err := perturb(x)
			if err != nil {
				return nil, err
			}
			return core.NewLiteral(s), nil
		case value.Vector:
			out := make([]value.Scalar, x.Len())
			for i := range out {
				if out[i], err = perturb(x.At(i)); err != nil {
					return nil, err
				}
			}
			res, err := value.NewVector(x.Kind(), false, out...)
			if err != nil {
				return nil, err
			}
			return core.NewLiteral(res), nil
		}
		return nil, dperr.NewAtomicMismatchError("cannot add noise to %s", v)
	}
}

// MakeBaseLaplace returns the Laplace mechanism with the given scale. Under the L1 sensitivity
// d_in it satisfies epsilon = d_in / scale pure differential privacy.
func MakeBaseLaplace(dom domain.Domain, scale float64, sampler noise.Sampler) (*core.Measurement, error) {
	if _, err := numericAtom("laplace", dom); err != nil {
		return nil, err
	}
	if err := checkPositive("laplace", "scale", scale); err != nil {
		return nil, err
	}
	if sampler == nil {
		return nil, dperr.NewRawError("laplace: missing sampler")
	}

	return core.NewMeasurement(core.MeasurementConfig{
		Name:          "laplace",
		InputDomain:   dom,
		InputMetric:   metric.L1Sensitivity,
		OutputMeasure: metric.PureDP,
		Function:      noisy(func() (float64, error) { return sampler.Laplace(scale) }),
		Map: func(dIn metric.DataDistance) (metric.PrivacyDistance, error) {
			b, err := dIn.Bound()
			if err != nil {
				return metric.PrivacyDistance{}, err
			}
			return metric.PureDPDistance(b / scale), nil
		},
	})
}

// MakeBaseGaussian returns the classical Gaussian mechanism. The relation holds at (epsilon,
// delta) iff min(epsilon, 1) >= (d_in / sigma) * sqrt(2 ln(1.25 / delta)); it is undefined for
// delta <= 0 and fails with an error there.
func MakeBaseGaussian(dom domain.Domain, sigma float64, sampler noise.Sampler) (*core.Measurement, error) {
	if _, err := numericAtom("gaussian", dom); err != nil {
		return nil, err
	}
	if err := checkPositive("gaussian", "sigma", sigma); err != nil {
		return nil, err
	}
	if sampler == nil {
		return nil, dperr.NewRawError("gaussian: missing sampler")
	}

	return core.NewMeasurement(core.MeasurementConfig{
		Name:          "gaussian",
		InputDomain:   dom,
		InputMetric:   metric.L2Sensitivity,
		OutputMeasure: metric.ApproximateDP,
		Function:      noisy(func() (float64, error) { return sampler.Gaussian(sigma) }),
		Relation: func(dIn metric.DataDistance, dOut metric.PrivacyDistance) (bool, error) {
			b, err := dIn.Bound()
			if err != nil {
				return false, err
			}
			if dOut.Delta() <= 0 {
				return false, dperr.NewInvalidDistanceError("gaussian: delta must be positive, got %g", dOut.Delta())
			}
			return math.Min(dOut.Epsilon(), 1) >= (b/sigma)*math.Sqrt(2*math.Log(1.25/dOut.Delta())), nil
		},
	})
}

// MakeBaseGaussianZCDP returns the Gaussian mechanism accounted under zero-concentrated
// differential privacy: rho = (d_in / sigma)^2 / 2.
func MakeBaseGaussianZCDP(dom domain.Domain, sigma float64, sampler noise.Sampler) (*core.Measurement, error) {
	if _, err := numericAtom("gaussian_zcdp", dom); err != nil {
		return nil, err
	}
	if err := checkPositive("gaussian_zcdp", "sigma", sigma); err != nil {
		return nil, err
	}
	if sampler == nil {
		return nil, dperr.NewRawError("gaussian_zcdp: missing sampler")
	}

	return core.NewMeasurement(core.MeasurementConfig{
		Name:          "gaussian_zcdp",
		InputDomain:   dom,
		InputMetric:   metric.L2Sensitivity,
		OutputMeasure: metric.ZCDP,
		Function:      noisy(func() (float64, error) { return sampler.Gaussian(sigma) }),
		Map: func(dIn metric.DataDistance) (metric.PrivacyDistance, error) {
			b, err := dIn.Bound()
			if err != nil {
				return metric.PrivacyDistance{}, err
			}
			r := b / sigma
			return metric.ZCDPDistance(r * r / 2), nil
		},
	})
}
