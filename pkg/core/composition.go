package core

import (
	"fmt"

	"github.com/l7mp/dpcore/pkg/dperr"
	"github.com/l7mp/dpcore/pkg/metric"
	"github.com/l7mp/dpcore/pkg/value"
)

// Split divides a composed privacy loss between the two parts of a composition.
type Split func(dIn metric.DataDistance, dOut metric.PrivacyDistance) (metric.PrivacyDistance, metric.PrivacyDistance, error)

// CompositionOption customizes MakeComposition.
type CompositionOption func(*compositionConfig)

type compositionConfig struct {
	split Split
	name  string
}

// WithBudgetSplit sets an explicit split of d_out. Without it the split is the pair of the two
// privacy maps at d_in, which requires both measurements to carry a map.
func WithBudgetSplit(s Split) CompositionOption {
	return func(c *compositionConfig) { c.split = s }
}

// WithCompositionName overrides the default name of the composed measurement.
func WithCompositionName(name string) CompositionOption {
	return func(c *compositionConfig) { c.name = name }
}

// MakeComposition runs two measurements on the same data and returns both releases as a
// dataframe with columns "0" and "1". Privacy losses add up: the relation holds at d_out iff
// there is a split (p0, p1) with p0 + p1 <= d_out under which both sub-relations hold.
//
// Only input domains are compared. A metric mismatch between m0 and m1 surfaces when the
// relation is evaluated with a distance one of them does not accept.
func MakeComposition(m0, m1 *Measurement, opts ...CompositionOption) (*Measurement, error) {
	if m0 == nil || m1 == nil {
		return nil, dperr.NewRawError("cannot compose a nil measurement")
	}
	if !m0.InputDomain().Equal(m1.InputDomain()) {
		return nil, dperr.NewDomainMismatchError("cannot compose %s and %s: input domains %s and %s differ",
			m0.Name(), m1.Name(), m0.InputDomain(), m1.InputDomain())
	}
	if m0.OutputMeasure() != m1.OutputMeasure() {
		return nil, dperr.NewPrivacyMismatchError("cannot compose %s and %s: measures %s and %s differ",
			m0.Name(), m1.Name(), m0.OutputMeasure(), m1.OutputMeasure())
	}

	conf := compositionConfig{name: fmt.Sprintf("composition(%s, %s)", m0.Name(), m1.Name())}
	for _, o := range opts {
		o(&conf)
	}

	split := conf.split
	if split == nil {
		split = func(dIn metric.DataDistance, _ metric.PrivacyDistance) (metric.PrivacyDistance, metric.PrivacyDistance, error) {
			p0, err := m0.Map(dIn)
			if err != nil {
				return metric.PrivacyDistance{}, metric.PrivacyDistance{}, err
			}
			p1, err := m1.Map(dIn)
			if err != nil {
				return metric.PrivacyDistance{}, metric.PrivacyDistance{}, err
			}
			return p0, p1, nil
		}
	}

	relation := func(dIn metric.DataDistance, dOut metric.PrivacyDistance) (bool, error) {
		p0, p1, err := split(dIn, dOut)
		if err != nil {
			return false, err
		}
		sum, err := p0.Add(p1)
		if err != nil {
			return false, err
		}
		if ok, err := sum.LessEqual(dOut); err != nil || !ok {
			return false, err
		}
		if ok, err := m0.Check(dIn, p0); err != nil || !ok {
			return false, err
		}
		return m1.Check(dIn, p1)
	}

	var pmap PrivacyMap
	if m0.HasMap() && m1.HasMap() {
		pmap = func(dIn metric.DataDistance) (metric.PrivacyDistance, error) {
			p0, err := m0.Map(dIn)
			if err != nil {
				return metric.PrivacyDistance{}, err
			}
			p1, err := m1.Map(dIn)
			if err != nil {
				return metric.PrivacyDistance{}, err
			}
			return p0.Add(p1)
		}
	}

	function := func(d Data) (Data, error) {
		r0, err := m0.Invoke(d)
		if err != nil {
			return nil, err
		}
		r1, err := m1.Invoke(d)
		if err != nil {
			return nil, err
		}
		v0, err := Unwrap(r0)
		if err != nil {
			return nil, err
		}
		v1, err := Unwrap(r1)
		if err != nil {
			return nil, err
		}
		return NewLiteral(value.NewDataframe().With("0", v0).With("1", v1)), nil
	}

	return NewMeasurement(MeasurementConfig{
		Name:          conf.name,
		InputDomain:   m0.InputDomain(),
		InputMetric:   m0.InputMetric(),
		OutputMeasure: m0.OutputMeasure(),
		Function:      function,
		Relation:      relation,
		Map:           pmap,
		Children:      []Operation{m0, m1},
	})
}
