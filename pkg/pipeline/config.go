package pipeline

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"sigs.k8s.io/yaml"

	"github.com/l7mp/dpcore/pkg/domain"
	"github.com/l7mp/dpcore/pkg/dperr"
	"github.com/l7mp/dpcore/pkg/metric"
	"github.com/l7mp/dpcore/pkg/registry"
	"github.com/l7mp/dpcore/pkg/value"
)

// Config is the declarative description of a pipeline: an input domain, a chain of
// transformations, the measurement(s) releasing the result and an optional interactive session.
type Config struct {
	Name  string      `json:"name"`
	Input InputConfig `json:"input"`
	// Stages are chained in order, each on the output domain of the previous one.
	Stages []OpConfig `json:"stages,omitempty"`
	// Measurement is applied after the last stage.
	Measurement *OpConfig `json:"measurement,omitempty"`
	// Compose lists measurements run on the same output of the stages, with additive privacy
	// loss. Mutually exclusive with Measurement.
	Compose []OpConfig     `json:"compose,omitempty"`
	Session *SessionConfig `json:"session,omitempty"`
	Data    DataConfig     `json:"data,omitempty"`
}

// InputConfig describes the sensitive input.
type InputConfig struct {
	Domain DomainConfig `json:"domain"`
	Metric string       `json:"metric"`
	// Distance is the bound on the distance between neighboring inputs.
	Distance float64 `json:"distance"`
}

// DomainConfig describes a domain. Type is one of numeric, categorical, vector or dataframe.
type DomainConfig struct {
	Type       string         `json:"type"`
	Kind       string         `json:"kind,omitempty"`
	Lower      *float64       `json:"lower,omitempty"`
	Upper      *float64       `json:"upper,omitempty"`
	Categories []string       `json:"categories,omitempty"`
	Nullable   bool           `json:"nullable,omitempty"`
	Atom       *DomainConfig  `json:"atom,omitempty"`
	Columns    []ColumnConfig `json:"columns,omitempty"`
	Length     *int           `json:"length,omitempty"`
	NonEmpty   bool           `json:"nonEmpty,omitempty"`
}

// ColumnConfig is a named dataframe column.
type ColumnConfig struct {
	Name   string       `json:"name"`
	Domain DomainConfig `json:"domain"`
}

// OpConfig names a registered constructor and its arguments.
type OpConfig struct {
	Op   string        `json:"op"`
	Args registry.Args `json:"args,omitempty"`
	// Loss is the privacy loss a measurement is certified at, checked against its privacy
	// relation at the input distance. Required for measurements without a privacy map, such as
	// the Gaussian mechanism. Not allowed on stages and session queries.
	Loss *PrivacyConfig `json:"loss,omitempty"`
}

// SessionConfig opens an adaptive composition over the data and issues queries against it.
type SessionConfig struct {
	Budget  PrivacyConfig `json:"budget"`
	Queries []QueryConfig `json:"queries"`
	// TrustDeclaredLoss disables checking queried measurements at the declared loss.
	TrustDeclaredLoss bool `json:"trustDeclaredLoss,omitempty"`
}

// QueryConfig is one query of a session. Without a measurement the pipeline's measurement is used.
type QueryConfig struct {
	Name        string        `json:"name,omitempty"`
	Loss        PrivacyConfig `json:"loss"`
	Measurement *OpConfig     `json:"measurement,omitempty"`
}

// PrivacyConfig describes a privacy distance.
type PrivacyConfig struct {
	Measure string  `json:"measure"`
	Epsilon float64 `json:"epsilon,omitempty"`
	Delta   float64 `json:"delta,omitempty"`
	Rho     float64 `json:"rho,omitempty"`
}

// DataConfig tells how to locate the input in a JSON document.
type DataConfig struct {
	// Path is a JSONPath selecting the input, e.g., "$.records[*].age". Empty selects the root.
	Path string `json:"path,omitempty"`
}

// Parse reads a YAML or JSON pipeline configuration and validates it.
func Parse(data []byte) (*Config, error) {
	c := &Config{}
	if err := yaml.UnmarshalStrict(data, c); err != nil {
		return nil, NewConfigError("<root>", dperr.NewRawError("%s", err))
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the configuration and reports all problems at once.
func (c *Config) Validate() error {
	var merr *multierror.Error
	add := func(field string, err error) {
		if err != nil {
			merr = multierror.Append(merr, NewConfigError(field, err))
		}
	}

	if c.Name == "" {
		add("name", dperr.NewRawError("empty name"))
	}
	_, err := c.Input.Domain.Build()
	add("input.domain", err)
	_, err = c.Input.DataDistance()
	add("input.distance", err)
	for i, s := range c.Stages {
		if s.Op == "" {
			add(fmt.Sprintf("stages[%d].op", i), dperr.NewRawError("empty op"))
		}
		if s.Loss != nil {
			add(fmt.Sprintf("stages[%d].loss", i), dperr.NewRawError("transformations have no privacy loss"))
		}
	}
	if c.Measurement != nil {
		add("measurement.loss", c.Measurement.validateLoss())
	}
	for i, oc := range c.Compose {
		add(fmt.Sprintf("compose[%d].loss", i), oc.validateLoss())
	}
	switch {
	case c.Measurement != nil && len(c.Compose) > 0:
		add("measurement", dperr.NewRawError("measurement and compose are mutually exclusive"))
	case c.Measurement == nil && len(c.Compose) == 0 && (c.Session == nil || !allQueriesHaveMeasurement(c.Session)):
		add("measurement", dperr.NewRawError("no measurement"))
	case len(c.Compose) == 1:
		add("compose", dperr.NewRawError("composition needs at least two measurements"))
	}
	if c.Session != nil {
		_, err = c.Session.Budget.Build()
		add("session.budget", err)
		if len(c.Session.Queries) == 0 {
			add("session.queries", dperr.NewRawError("no queries"))
		}
		for i, q := range c.Session.Queries {
			_, err := q.Loss.Build()
			add(fmt.Sprintf("session.queries[%d].loss", i), err)
			if q.Measurement != nil && q.Measurement.Loss != nil {
				add(fmt.Sprintf("session.queries[%d].measurement.loss", i),
					dperr.NewRawError("the loss of a query is set on the query"))
			}
		}
	}

	return merr.ErrorOrNil()
}

func (oc OpConfig) validateLoss() error {
	if oc.Loss == nil {
		return nil
	}
	_, err := oc.Loss.Build()
	return err
}

func allQueriesHaveMeasurement(s *SessionConfig) bool {
	for _, q := range s.Queries {
		if q.Measurement == nil {
			return false
		}
	}
	return len(s.Queries) > 0
}

// DataDistance returns the input distance under the input metric.
func (in InputConfig) DataDistance() (metric.DataDistance, error) {
	m, err := metric.ParseMetric(in.Metric)
	if err != nil {
		return metric.DataDistance{}, err
	}
	return metric.NewDataDistance(m, in.Distance)
}

// Build converts the description into a privacy distance.
func (p PrivacyConfig) Build() (metric.PrivacyDistance, error) {
	m, err := metric.ParseMeasure(p.Measure)
	if err != nil {
		return metric.PrivacyDistance{}, err
	}
	var d metric.PrivacyDistance
	switch m {
	case metric.PureDP:
		d = metric.PureDPDistance(p.Epsilon)
	case metric.ApproximateDP:
		d = metric.ApproxDPDistance(p.Epsilon, p.Delta)
	case metric.ZCDP:
		d = metric.ZCDPDistance(p.Rho)
	}
	return d, d.Validate()
}

// Build converts the description into a domain.
func (d DomainConfig) Build() (domain.Domain, error) {
	switch d.Type {
	case "numeric", "categorical":
		return d.buildScalar()
	case "vector":
		if d.Atom == nil {
			return nil, dperr.NewInvalidDomainError("vector domain without an atom")
		}
		atom, err := d.Atom.buildScalar()
		if err != nil {
			return nil, err
		}
		return domain.NewVectorDomain(atom, d.shape()...)
	case "dataframe":
		cols := make([]domain.Column, len(d.Columns))
		for i, c := range d.Columns {
			dom, err := c.Domain.Build()
			if err != nil {
				return nil, NewConfigError("columns["+c.Name+"]", err)
			}
			cols[i] = domain.Column{Name: c.Name, Domain: dom}
		}
		return domain.NewDataframeDomain(cols, d.shape()...)
	}
	return nil, dperr.NewInvalidDomainError("unknown domain type %q", d.Type)
}

func (d DomainConfig) shape() []domain.ShapeOption {
	var opts []domain.ShapeOption
	if d.Length != nil {
		opts = append(opts, domain.WithLength(*d.Length))
	}
	if d.NonEmpty {
		opts = append(opts, domain.NonEmpty())
	}
	return opts
}

func (d DomainConfig) buildScalar() (domain.ScalarDomain, error) {
	switch d.Type {
	case "numeric":
		kind, err := d.numericKind()
		if err != nil {
			return domain.ScalarDomain{}, err
		}
		lower, err := bound(d.Lower, kind)
		if err != nil {
			return domain.ScalarDomain{}, err
		}
		upper, err := bound(d.Upper, kind)
		if err != nil {
			return domain.ScalarDomain{}, err
		}
		return domain.NumericScalar(kind, lower, upper, d.Nullable)
	case "categorical":
		if d.Categories == nil {
			return domain.CategoricalScalar(nil, d.Nullable)
		}
		cats := make([]value.CategoricalScalar, len(d.Categories))
		for i, c := range d.Categories {
			cs, err := value.NewString(c).ToCategorical()
			if err != nil {
				return domain.ScalarDomain{}, err
			}
			cats[i] = cs
		}
		return domain.CategoricalScalar(cats, d.Nullable)
	}
	return domain.ScalarDomain{}, dperr.NewInvalidDomainError("%q is not a scalar domain type", d.Type)
}

// numericKind is the kind of a numeric domain, f64 unless set.
func (d DomainConfig) numericKind() (value.Kind, error) {
	if d.Kind == "" {
		return value.F64, nil
	}
	k, err := value.ParseKind(d.Kind)
	if err != nil {
		return 0, err
	}
	if !k.IsNumeric() {
		return 0, dperr.NewInvalidDomainError("numeric domain of non-numeric kind %s", k)
	}
	return k, nil
}

func bound(b *float64, kind value.Kind) (*value.NumericScalar, error) {
	if b == nil {
		return nil, nil
	}
	s, err := value.NewF64(*b).CastDecimal(kind)
	if err != nil {
		return nil, err
	}
	n, err := s.ToNumeric()
	if err != nil {
		return nil, err
	}
	return &n, nil
}
