package core

import (
	"fmt"

	"github.com/l7mp/dpcore/pkg/dperr"
	"github.com/l7mp/dpcore/pkg/metric"
)

// Hint picks the midpoint distance of a chain for a given (d_in, d_out) pair. D is the output
// distance type of the chain: metric.DataDistance or metric.PrivacyDistance.
type Hint[D any] func(dIn metric.DataDistance, dOut D) (metric.DataDistance, error)

// StabilityHint uses the stability map of the inner transformation as the midpoint.
func StabilityHint[D any](inner *Transformation) Hint[D] {
	return func(dIn metric.DataDistance, _ D) (metric.DataDistance, error) {
		return inner.Map(dIn)
	}
}

// checkBoundary requires the inner output to match the outer input exactly.
func checkBoundary(outer Operation, inner *Transformation) error {
	if !inner.OutputDomain().Equal(outer.InputDomain()) {
		return dperr.NewDomainMismatchError("cannot chain %s after %s: output domain %s != input domain %s",
			outer.Name(), inner.Name(), inner.OutputDomain(), outer.InputDomain())
	}
	if inner.OutputMetric() != outer.InputMetric() {
		return dperr.NewMetricMismatchError("cannot chain %s after %s: output metric %s != input metric %s",
			outer.Name(), inner.Name(), inner.OutputMetric(), outer.InputMetric())
	}
	return nil
}

func chainName(outer, inner Operation) string {
	return fmt.Sprintf("%s∘%s", outer.Name(), inner.Name())
}

func chainFunction(first, second Function) Function {
	return func(d Data) (Data, error) {
		mid, err := first(d)
		if err != nil {
			return nil, err
		}
		return second(mid)
	}
}

// MakeTTChain composes two transformations into one that applies inner then outer. The chained
// relation holds iff both relations hold at the midpoint picked by hint. A nil hint yields a
// relation that fails with an unprovable error on every evaluation.
func MakeTTChain(outer, inner *Transformation, hint Hint[metric.DataDistance]) (*Transformation, error) {
	if outer == nil || inner == nil {
		return nil, dperr.NewRawError("cannot chain a nil transformation")
	}
	if err := checkBoundary(outer, inner); err != nil {
		return nil, err
	}
	name := chainName(outer, inner)

	relation := func(dIn, dOut metric.DataDistance) (bool, error) {
		if hint == nil {
			return false, dperr.NewUnprovableError("%s: no hint for the midpoint distance", name)
		}
		mid, err := hint(dIn, dOut)
		if err != nil {
			return false, err
		}
		if ok, err := inner.Check(dIn, mid); err != nil || !ok {
			return false, err
		}
		return outer.Check(mid, dOut)
	}

	var smap StabilityMap
	if inner.HasMap() && outer.HasMap() {
		smap = func(dIn metric.DataDistance) (metric.DataDistance, error) {
			mid, err := inner.Map(dIn)
			if err != nil {
				return metric.DataDistance{}, err
			}
			return outer.Map(mid)
		}
	}

	return NewTransformation(TransformationConfig{
		Name:         name,
		InputDomain:  inner.InputDomain(),
		InputMetric:  inner.InputMetric(),
		OutputDomain: outer.OutputDomain(),
		OutputMetric: outer.OutputMetric(),
		Function:     chainFunction(inner.function, outer.function),
		Relation:     relation,
		Map:          smap,
		Children:     []Operation{inner, outer},
	})
}

// MakeMTChain composes a transformation followed by a measurement. The relation and the map are
// built the same way as in MakeTTChain.
func MakeMTChain(m *Measurement, t *Transformation, hint Hint[metric.PrivacyDistance]) (*Measurement, error) {
	if m == nil || t == nil {
		return nil, dperr.NewRawError("cannot chain a nil operation")
	}
	if err := checkBoundary(m, t); err != nil {
		return nil, err
	}
	name := chainName(m, t)

	relation := func(dIn metric.DataDistance, dOut metric.PrivacyDistance) (bool, error) {
		if hint == nil {
			return false, dperr.NewUnprovableError("%s: no hint for the midpoint distance", name)
		}
		mid, err := hint(dIn, dOut)
		if err != nil {
			return false, err
		}
		if ok, err := t.Check(dIn, mid); err != nil || !ok {
			return false, err
		}
		return m.Check(mid, dOut)
	}

	var pmap PrivacyMap
	if t.HasMap() && m.HasMap() {
		pmap = func(dIn metric.DataDistance) (metric.PrivacyDistance, error) {
			mid, err := t.Map(dIn)
			if err != nil {
				return metric.PrivacyDistance{}, err
			}
			return m.Map(mid)
		}
	}

	return NewMeasurement(MeasurementConfig{
		Name:          name,
		InputDomain:   t.InputDomain(),
		InputMetric:   t.InputMetric(),
		OutputMeasure: m.OutputMeasure(),
		Function:      chainFunction(t.function, m.function),
		Relation:      relation,
		Map:           pmap,
		Children:      []Operation{t, m},
	})
}
