// Package pipeline assembles differentially private pipelines from declarative configuration: a
// chain of transformations ending in a measurement, a composition of measurements or an
// interactive session issuing a sequence of budgeted queries.
package pipeline

import (
	"fmt"

	"github.com/go-logr/logr"

	"github.com/l7mp/dpcore/pkg/core"
	"github.com/l7mp/dpcore/pkg/domain"
	"github.com/l7mp/dpcore/pkg/dperr"
	"github.com/l7mp/dpcore/pkg/interactive"
	"github.com/l7mp/dpcore/pkg/metric"
	"github.com/l7mp/dpcore/pkg/noise"
	"github.com/l7mp/dpcore/pkg/registry"
	"github.com/l7mp/dpcore/pkg/value"
)

// Pipeline is a built pipeline.
type Pipeline struct {
	config        *Config
	inputDomain   domain.Domain
	inputDistance metric.DataDistance
	// preprocess is the chain of stages, nil if there are none.
	preprocess  *core.Transformation
	measurement *core.Measurement
	// loss is the declared loss of the measurement, nil if it is to be mapped.
	loss     *metric.PrivacyDistance
	queries  []*core.Measurement
	budget   metric.PrivacyDistance
	registry *registry.Registry
	sampler  noise.Sampler
	log      logr.Logger
}

// Build assembles a pipeline from a validated configuration, looking up constructors in reg and
// drawing noise from sampler.
func Build(c *Config, reg *registry.Registry, sampler noise.Sampler, log logr.Logger) (*Pipeline, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if reg == nil {
		reg = registry.Default()
	}
	if sampler == nil {
		return nil, NewPipelineError(c.Name, dperr.NewRawError("missing noise sampler"))
	}

	p := &Pipeline{
		config:   c,
		registry: reg,
		sampler:  sampler,
		log:      log.WithName("pipeline").WithValues("name", c.Name),
	}

	var err error
	if p.inputDomain, err = c.Input.Domain.Build(); err != nil {
		return nil, NewPipelineError(c.Name, err)
	}
	if p.inputDistance, err = c.Input.DataDistance(); err != nil {
		return nil, NewPipelineError(c.Name, err)
	}

	if err := p.buildStages(); err != nil {
		return nil, NewPipelineError(c.Name, err)
	}

	switch {
	case c.Measurement != nil:
		if p.measurement, err = p.buildMeasurement(*c.Measurement); err != nil {
			return nil, NewPipelineError(c.Name, err)
		}
		if c.Measurement.Loss != nil {
			loss, err := c.Measurement.Loss.Build()
			if err != nil {
				return nil, NewPipelineError(c.Name, err)
			}
			p.loss = &loss
		}
	case len(c.Compose) > 0:
		if p.measurement, p.loss, err = p.buildComposition(c.Compose); err != nil {
			return nil, NewPipelineError(c.Name, err)
		}
	}

	if c.Session != nil {
		if p.budget, err = c.Session.Budget.Build(); err != nil {
			return nil, NewPipelineError(c.Name, err)
		}
		for i, q := range c.Session.Queries {
			m := p.measurement
			if q.Measurement != nil {
				if m, err = p.buildMeasurement(*q.Measurement); err != nil {
					return nil, NewPipelineError(c.Name, fmt.Errorf("query %d: %w", i, err))
				}
			}
			p.queries = append(p.queries, m)
		}
	}

	p.log.Info("pipeline setup ready", "input-domain", p.inputDomain.String(),
		"input-distance", p.inputDistance.String(), "stages", len(c.Stages),
		"queries", len(p.queries))

	return p, nil
}

func (p *Pipeline) Config() *Config                    { return p.config }
func (p *Pipeline) InputDomain() domain.Domain         { return p.inputDomain }
func (p *Pipeline) InputDistance() metric.DataDistance { return p.inputDistance }
func (p *Pipeline) Preprocess() *core.Transformation   { return p.preprocess }
func (p *Pipeline) Queries() []*core.Measurement       { return p.queries }

// Measurement returns the non-interactive release, nil if the pipeline only runs a session.
func (p *Pipeline) Measurement() *core.Measurement { return p.measurement }

// stageOutput is the domain and metric measurements are built on.
func (p *Pipeline) stageOutput() (domain.Domain, metric.Metric) {
	if p.preprocess == nil {
		return p.inputDomain, p.inputDistance.Metric()
	}
	return p.preprocess.OutputDomain(), p.preprocess.OutputMetric()
}

func (p *Pipeline) buildStages() error {
	for i, s := range p.config.Stages {
		b, err := p.registry.Transformation(s.Op)
		if err != nil {
			return fmt.Errorf("stage %d: %w", i, err)
		}
		dom, m := p.stageOutput()
		t, err := b(dom, m, s.Args)
		if err != nil {
			return fmt.Errorf("stage %d (%s): %w", i, s.Op, err)
		}
		p.log.V(2).Info("stage built", "index", i, "op", s.Op, "output-domain", t.OutputDomain().String(),
			"output-metric", t.OutputMetric().String())

		if p.preprocess == nil {
			p.preprocess = t
			continue
		}
		if p.preprocess, err = core.MakeTTChain(t, p.preprocess, core.StabilityHint[metric.DataDistance](p.preprocess)); err != nil {
			return fmt.Errorf("stage %d (%s): %w", i, s.Op, err)
		}
	}
	return nil
}

// buildMeasurement builds a measurement on the stage output and prefixes it with the stages.
func (p *Pipeline) buildMeasurement(oc OpConfig) (*core.Measurement, error) {
	b, err := p.registry.Measurement(oc.Op)
	if err != nil {
		return nil, err
	}
	dom, mt := p.stageOutput()
	m, err := b(dom, mt, oc.Args, p.sampler)
	if err != nil {
		return nil, fmt.Errorf("measurement %s: %w", oc.Op, err)
	}
	p.log.V(2).Info("measurement built", "op", oc.Op, "measure", m.OutputMeasure().String())
	if p.preprocess == nil {
		return m, nil
	}
	return core.MakeMTChain(m, p.preprocess, core.StabilityHint[metric.PrivacyDistance](p.preprocess))
}

// buildComposition folds the measurements into a composition. Once any component declares a
// loss, every component is charged its declared loss, or its mapped loss at the input distance,
// and the composition splits its budget along these; the returned total is their sum.
func (p *Pipeline) buildComposition(ops []OpConfig) (*core.Measurement, *metric.PrivacyDistance, error) {
	declared := false
	for _, oc := range ops {
		declared = declared || oc.Loss != nil
	}

	var ret *core.Measurement
	var total metric.PrivacyDistance
	for i, oc := range ops {
		m, err := p.buildMeasurement(oc)
		if err != nil {
			return nil, nil, fmt.Errorf("compose[%d]: %w", i, err)
		}
		var loss metric.PrivacyDistance
		if declared {
			if loss, err = p.componentLoss(m, oc); err != nil {
				return nil, nil, fmt.Errorf("compose[%d]: %w", i, err)
			}
		}
		if ret == nil {
			ret, total = m, loss
			continue
		}

		var opts []core.CompositionOption
		if declared {
			p0, p1 := total, loss
			opts = append(opts, core.WithBudgetSplit(func(metric.DataDistance, metric.PrivacyDistance) (metric.PrivacyDistance, metric.PrivacyDistance, error) {
				return p0, p1, nil
			}))
			if total, err = total.Add(loss); err != nil {
				return nil, nil, fmt.Errorf("compose[%d]: %w", i, err)
			}
		}
		if ret, err = core.MakeComposition(ret, m, opts...); err != nil {
			return nil, nil, fmt.Errorf("compose[%d]: %w", i, err)
		}
	}

	if !declared {
		return ret, nil, nil
	}
	return ret, &total, nil
}

func (p *Pipeline) componentLoss(m *core.Measurement, oc OpConfig) (metric.PrivacyDistance, error) {
	if oc.Loss == nil {
		return m.Map(p.inputDistance)
	}
	return oc.Loss.Build()
}

// PrivacyLoss returns the privacy loss of the non-interactive release at the input distance. A
// declared loss is returned once the privacy relation certifies it, otherwise the loss comes from
// the privacy map.
func (p *Pipeline) PrivacyLoss() (metric.PrivacyDistance, error) {
	if p.measurement == nil {
		return metric.PrivacyDistance{}, NewPipelineError(p.config.Name,
			dperr.NewRawError("no non-interactive measurement"))
	}
	if p.loss == nil {
		return p.measurement.Map(p.inputDistance)
	}
	ok, err := p.measurement.Check(p.inputDistance, *p.loss)
	if err != nil {
		return metric.PrivacyDistance{}, err
	}
	if !ok {
		return metric.PrivacyDistance{}, dperr.NewRelationFailedError("%s is not %s at %s",
			p.measurement.Name(), *p.loss, p.inputDistance)
	}
	return *p.loss, nil
}

// Result is the outcome of one release.
type Result struct {
	Name    string
	Release value.Value
	Loss    metric.PrivacyDistance
	// Remaining is the unspent session budget after the release, nil for non-interactive runs.
	Remaining *metric.PrivacyDistance
	Err       error
}

// Run releases the pipeline output on the data. A non-interactive measurement is checked at the
// input distance and its loss is reported; a session spends its queries one by one and collects
// the refusals as per-query errors.
func (p *Pipeline) Run(data value.Value) ([]Result, error) {
	if err := p.inputDomain.Member(data); err != nil {
		return nil, NewPipelineError(p.config.Name, err)
	}
	arg := core.NewLiteral(data)

	if p.config.Session != nil {
		return p.runSession(arg)
	}

	loss, err := p.PrivacyLoss()
	if err != nil {
		return nil, NewPipelineError(p.config.Name, err)
	}
	out, err := p.measurement.Invoke(arg)
	if err != nil {
		return nil, NewPipelineError(p.config.Name, err)
	}
	release, err := core.Unwrap(out)
	if err != nil {
		return nil, NewPipelineError(p.config.Name, err)
	}
	p.log.Info("release", "measurement", p.measurement.Name(), "loss", loss.String())

	return []Result{{Name: p.measurement.Name(), Release: release, Loss: loss}}, nil
}

func (p *Pipeline) runSession(arg core.Data) ([]Result, error) {
	s := p.config.Session
	im, err := interactive.MakeAdaptiveComposition(p.inputDomain, p.inputDistance, p.budget,
		interactive.Options{Logger: p.log, TrustDeclaredLoss: s.TrustDeclaredLoss})
	if err != nil {
		return nil, NewPipelineError(p.config.Name, err)
	}
	qbl, err := im.Eval(arg)
	if err != nil {
		return nil, NewPipelineError(p.config.Name, err)
	}

	ret := make([]Result, 0, len(p.queries))
	for i, m := range p.queries {
		qc := s.Queries[i]
		name := qc.Name
		if name == "" {
			name = fmt.Sprintf("query-%d", i)
		}
		r := Result{Name: name}
		if r.Loss, err = qc.Loss.Build(); err != nil {
			return nil, NewPipelineError(p.config.Name, err)
		}

		out, err := qbl.Query(m, r.Loss)
		remaining := qbl.Remaining()
		r.Remaining = &remaining
		if err != nil {
			r.Err = err
			ret = append(ret, r)
			continue
		}
		if r.Release, err = core.Unwrap(out); err != nil {
			r.Err = err
		}
		ret = append(ret, r)
	}

	return ret, nil
}
