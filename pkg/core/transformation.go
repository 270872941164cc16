package core

import (
	"fmt"

	"github.com/l7mp/dpcore/pkg/domain"
	"github.com/l7mp/dpcore/pkg/dperr"
	"github.com/l7mp/dpcore/pkg/metric"
)

// Function is the data-processing part of an operation. It assumes its argument is a member of
// the input domain.
type Function func(Data) (Data, error)

// StabilityRelation certifies that inputs d_in apart map to outputs at most d_out apart.
type StabilityRelation func(dIn, dOut metric.DataDistance) (bool, error)

// StabilityMap returns the smallest output distance for an input distance.
type StabilityMap func(dIn metric.DataDistance) (metric.DataDistance, error)

// Operation is the common surface of transformations and measurements.
type Operation interface {
	Name() string
	InputDomain() domain.Domain
	InputMetric() metric.Metric
	// Children returns the operations this one was composed from, in evaluation order.
	Children() []Operation
	fmt.Stringer
}

var (
	_ Operation = &Transformation{}
	_ Operation = &Measurement{}
)

// TransformationConfig collects the parts of a transformation. At least one of Relation and Map
// must be set; if only Map is set the relation is map(d_in) <= d_out.
type TransformationConfig struct {
	Name         string
	InputDomain  domain.Domain
	InputMetric  metric.Metric
	OutputDomain domain.Domain
	OutputMetric metric.Metric
	Function     Function
	Relation     StabilityRelation
	Map          StabilityMap
	Children     []Operation
}

// Transformation is a certified deterministic data transform.
type Transformation struct {
	name                      string
	inputDomain, outputDomain domain.Domain
	inputMetric, outputMetric metric.Metric
	function                  Function
	relation                  StabilityRelation
	stabilityMap              StabilityMap
	children                  []Operation
}

// NewTransformation validates a config and builds a transformation.
func NewTransformation(c TransformationConfig) (*Transformation, error) {
	if c.InputDomain == nil || c.OutputDomain == nil {
		return nil, dperr.NewInvalidDomainError("transformation %q: missing domain", c.Name)
	}
	if c.Function == nil {
		return nil, dperr.NewRawError("transformation %q: missing function", c.Name)
	}
	rel := c.Relation
	if rel == nil {
		if c.Map == nil {
			return nil, dperr.NewRawError("transformation %q: missing stability relation", c.Name)
		}
		rel = relationFromStabilityMap(c.Map)
	}
	return &Transformation{
		name:         c.Name,
		inputDomain:  c.InputDomain,
		inputMetric:  c.InputMetric,
		outputDomain: c.OutputDomain,
		outputMetric: c.OutputMetric,
		function:     c.Function,
		relation:     rel,
		stabilityMap: c.Map,
		children:     c.Children,
	}, nil
}

func relationFromStabilityMap(m StabilityMap) StabilityRelation {
	return func(dIn, dOut metric.DataDistance) (bool, error) {
		d, err := m(dIn)
		if err != nil {
			return false, err
		}
		return d.LessEqual(dOut)
	}
}

func (t *Transformation) Name() string                { return t.name }
func (t *Transformation) InputDomain() domain.Domain  { return t.inputDomain }
func (t *Transformation) InputMetric() metric.Metric  { return t.inputMetric }
func (t *Transformation) OutputDomain() domain.Domain { return t.outputDomain }
func (t *Transformation) OutputMetric() metric.Metric { return t.outputMetric }
func (t *Transformation) Children() []Operation       { return t.children }
func (t *Transformation) HasMap() bool                { return t.stabilityMap != nil }

// Invoke runs the function without validating the argument.
func (t *Transformation) Invoke(d Data) (Data, error) { return t.function(d) }

// Validate checks that the argument is a member of the input domain.
func (t *Transformation) Validate(d Data) error { return validate(t.inputDomain, d) }

// Check evaluates the stability relation. Distances of the wrong metric fail with a distance
// mismatch.
func (t *Transformation) Check(dIn, dOut metric.DataDistance) (bool, error) {
	if dIn.Metric() != t.inputMetric {
		return false, dperr.NewDistanceMismatchError("%s: input distance %s is not a %s distance",
			t.name, dIn, t.inputMetric)
	}
	if dOut.Metric() != t.outputMetric {
		return false, dperr.NewDistanceMismatchError("%s: output distance %s is not a %s distance",
			t.name, dOut, t.outputMetric)
	}
	if err := dIn.Validate(); err != nil {
		return false, err
	}
	return t.relation(dIn, dOut)
}

// Map returns the smallest certified output distance, or an unprovable error when the
// transformation carries no stability map.
func (t *Transformation) Map(dIn metric.DataDistance) (metric.DataDistance, error) {
	if t.stabilityMap == nil {
		return metric.DataDistance{}, dperr.NewUnprovableError("%s has no stability map", t.name)
	}
	if dIn.Metric() != t.inputMetric {
		return metric.DataDistance{}, dperr.NewDistanceMismatchError("%s: input distance %s is not a %s distance",
			t.name, dIn, t.inputMetric)
	}
	return t.stabilityMap(dIn)
}

func (t *Transformation) String() string {
	return fmt.Sprintf("Transformation(%s: %s/%s -> %s/%s)", t.name, t.inputDomain, t.inputMetric,
		t.outputDomain, t.outputMetric)
}

func validate(dom domain.Domain, d Data) error {
	v, err := Unwrap(d)
	if err != nil {
		return err
	}
	return dom.Member(v)
}
