package core

import (
	"github.com/l7mp/dpcore/pkg/dperr"
)

// MakePostprocess applies fn to every release of m. Privacy is unchanged: fn must only transform
// the release and must not touch the sensitive input.
func MakePostprocess(m *Measurement, name string, fn Function) (*Measurement, error) {
	if m == nil || fn == nil {
		return nil, dperr.NewRawError("postprocess %q: missing measurement or function", name)
	}
	return NewMeasurement(MeasurementConfig{
		Name:          name,
		InputDomain:   m.InputDomain(),
		InputMetric:   m.InputMetric(),
		OutputMeasure: m.OutputMeasure(),
		Function:      chainFunction(m.function, fn),
		Relation:      m.relation,
		Map:           m.privacyMap,
		Children:      []Operation{m},
	})
}
