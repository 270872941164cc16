package core

import (
	"fmt"

	"github.com/l7mp/dpcore/pkg/domain"
	"github.com/l7mp/dpcore/pkg/dperr"
	"github.com/l7mp/dpcore/pkg/metric"
)

// PrivacyRelation certifies that inputs d_in apart incur at most d_out privacy loss.
type PrivacyRelation func(dIn metric.DataDistance, dOut metric.PrivacyDistance) (bool, error)

// PrivacyMap returns the smallest privacy loss for an input distance.
type PrivacyMap func(dIn metric.DataDistance) (metric.PrivacyDistance, error)

// MeasurementConfig collects the parts of a measurement. At least one of Relation and Map must be
// set; if only Map is set the relation is map(d_in) <= d_out.
type MeasurementConfig struct {
	Name          string
	InputDomain   domain.Domain
	InputMetric   metric.Metric
	OutputMeasure metric.Measure
	Function      Function
	Relation      PrivacyRelation
	Map           PrivacyMap
	Children      []Operation
}

// Measurement is a certified, possibly randomized release function.
type Measurement struct {
	name          string
	inputDomain   domain.Domain
	inputMetric   metric.Metric
	outputMeasure metric.Measure
	function      Function
	relation      PrivacyRelation
	privacyMap    PrivacyMap
	children      []Operation
}

// NewMeasurement validates a config and builds a measurement.
func NewMeasurement(c MeasurementConfig) (*Measurement, error) {
	if c.InputDomain == nil {
		return nil, dperr.NewInvalidDomainError("measurement %q: missing domain", c.Name)
	}
	if c.Function == nil {
		return nil, dperr.NewRawError("measurement %q: missing function", c.Name)
	}
	rel := c.Relation
	if rel == nil {
		if c.Map == nil {
			return nil, dperr.NewRawError("measurement %q: missing privacy relation", c.Name)
		}
		rel = relationFromPrivacyMap(c.Map)
	}
	return &Measurement{
		name:          c.Name,
		inputDomain:   c.InputDomain,
		inputMetric:   c.InputMetric,
		outputMeasure: c.OutputMeasure,
		function:      c.Function,
		relation:      rel,
		privacyMap:    c.Map,
		children:      c.Children,
	}, nil
}

func relationFromPrivacyMap(m PrivacyMap) PrivacyRelation {
	return func(dIn metric.DataDistance, dOut metric.PrivacyDistance) (bool, error) {
		p, err := m(dIn)
		if err != nil {
			return false, err
		}
		return p.LessEqual(dOut)
	}
}

func (m *Measurement) Name() string                  { return m.name }
func (m *Measurement) InputDomain() domain.Domain    { return m.inputDomain }
func (m *Measurement) InputMetric() metric.Metric    { return m.inputMetric }
func (m *Measurement) OutputMeasure() metric.Measure { return m.outputMeasure }
func (m *Measurement) Children() []Operation         { return m.children }
func (m *Measurement) HasMap() bool                  { return m.privacyMap != nil }

// Invoke runs the function without validating the argument.
func (m *Measurement) Invoke(d Data) (Data, error) { return m.function(d) }

// Validate checks that the argument is a member of the input domain.
func (m *Measurement) Validate(d Data) error { return validate(m.inputDomain, d) }

// Check evaluates the privacy relation.
func (m *Measurement) Check(dIn metric.DataDistance, dOut metric.PrivacyDistance) (bool, error) {
	if dIn.Metric() != m.inputMetric {
		return false, dperr.NewDistanceMismatchError("%s: input distance %s is not a %s distance",
			m.name, dIn, m.inputMetric)
	}
	if dOut.Measure() != m.outputMeasure {
		return false, dperr.NewPrivacyMismatchError("%s: privacy loss %s is not %s",
			m.name, dOut, m.outputMeasure)
	}
	if err := dIn.Validate(); err != nil {
		return false, err
	}
	if err := dOut.Validate(); err != nil {
		return false, err
	}
	return m.relation(dIn, dOut)
}

// Map returns the smallest certified privacy loss, or an unprovable error when the measurement
// carries no privacy map.
func (m *Measurement) Map(dIn metric.DataDistance) (metric.PrivacyDistance, error) {
	if m.privacyMap == nil {
		return metric.PrivacyDistance{}, dperr.NewUnprovableError("%s has no privacy map", m.name)
	}
	if dIn.Metric() != m.inputMetric {
		return metric.PrivacyDistance{}, dperr.NewDistanceMismatchError("%s: input distance %s is not a %s distance",
			m.name, dIn, m.inputMetric)
	}
	return m.privacyMap(dIn)
}

func (m *Measurement) String() string {
	return fmt.Sprintf("Measurement(%s: %s/%s -> %s)", m.name, m.inputDomain, m.inputMetric,
		m.outputMeasure)
}
