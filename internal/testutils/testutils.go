// Package testutils collects fixtures shared by the package test suites.
package testutils

import (
	"github.com/go-logr/logr"
	"github.com/onsi/ginkgo/v2"
	"go.uber.org/zap/zapcore"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	"github.com/l7mp/dpcore/pkg/core"
	"github.com/l7mp/dpcore/pkg/domain"
	"github.com/l7mp/dpcore/pkg/metric"
	"github.com/l7mp/dpcore/pkg/value"
)

// NewLogger returns a development logger writing to the Ginkgo output.
func NewLogger(loglevel int) logr.Logger {
	opts := zap.Options{
		Development:     true,
		DestWriter:      ginkgo.GinkgoWriter,
		StacktraceLevel: zapcore.Level(3),
		TimeEncoder:     zapcore.RFC3339NanoTimeEncoder,
		Level:           zapcore.Level(loglevel),
	}
	return zap.New(zap.UseFlagOptions(&opts))
}

// F64Vector returns a non-null F64 vector domain with optional bounds.
func F64Vector(lower, upper *float64, opts ...domain.ShapeOption) domain.VectorDomain {
	var lo, hi *value.NumericScalar
	if lower != nil {
		x := value.NumF64(*lower)
		lo = &x
	}
	if upper != nil {
		x := value.NumF64(*upper)
		hi = &x
	}
	atom, err := domain.NumericScalar(value.F64, lo, hi, false)
	if err != nil {
		panic(err)
	}
	d, err := domain.NewVectorDomain(atom, opts...)
	if err != nil {
		panic(err)
	}
	return d
}

// BoundedF64Vector returns a non-null F64 vector domain bounded to [lower, upper].
func BoundedF64Vector(lower, upper float64, opts ...domain.ShapeOption) domain.VectorDomain {
	return F64Vector(&lower, &upper, opts...)
}

// ConstantMeasurement returns a measurement that releases a constant and charges epsilon for
// every unit of symmetric distance.
func ConstantMeasurement(name string, dom domain.Domain, epsilon float64, release value.Value) *core.Measurement {
	m, err := core.NewMeasurement(core.MeasurementConfig{
		Name:          name,
		InputDomain:   dom,
		InputMetric:   metric.Symmetric,
		OutputMeasure: metric.PureDP,
		Function: func(core.Data) (core.Data, error) {
			return core.NewLiteral(release), nil
		},
		Map: func(dIn metric.DataDistance) (metric.PrivacyDistance, error) {
			return metric.PureDPDistance(epsilon * dIn.Float64()), nil
		},
	})
	if err != nil {
		panic(err)
	}
	return m
}
