// Package registry maps constructor names to builders, so that pipelines described in
// configuration can be assembled without compile-time knowledge of the constructors.
package registry

import (
	"sort"
	"sync"

	"github.com/l7mp/dpcore/pkg/core"
	"github.com/l7mp/dpcore/pkg/domain"
	"github.com/l7mp/dpcore/pkg/dperr"
	"github.com/l7mp/dpcore/pkg/metric"
	"github.com/l7mp/dpcore/pkg/noise"
)

// TransformationBuilder builds a transformation on an input domain and metric.
type TransformationBuilder func(dom domain.Domain, m metric.Metric, args Args) (*core.Transformation, error)

// MeasurementBuilder builds a measurement on an input domain and metric, drawing noise from
// sampler.
type MeasurementBuilder func(dom domain.Domain, m metric.Metric, args Args, sampler noise.Sampler) (*core.Measurement, error)

// Registry is a name-keyed set of builders. It is safe for concurrent use.
type Registry struct {
	mu              sync.RWMutex
	transformations map[string]TransformationBuilder
	measurements    map[string]MeasurementBuilder
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		transformations: map[string]TransformationBuilder{},
		measurements:    map[string]MeasurementBuilder{},
	}
}

var (
	defaultRegistry *Registry
	defaultOnce     sync.Once
)

// Default returns the registry of the built-in constructors. It panics if the built-ins cannot be
// registered, which only a duplicate built-in name can cause.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = New()
		if err := RegisterBuiltins(defaultRegistry); err != nil {
			panic(err)
		}
	})
	return defaultRegistry
}

// RegisterTransformation adds a transformation builder. Names are unique across kinds.
func (r *Registry) RegisterTransformation(name string, b TransformationBuilder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.exists(name) {
		return dperr.NewRawError("constructor %q already registered", name)
	}
	r.transformations[name] = b
	return nil
}

// RegisterMeasurement adds a measurement builder. Names are unique across kinds.
func (r *Registry) RegisterMeasurement(name string, b MeasurementBuilder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.exists(name) {
		return dperr.NewRawError("constructor %q already registered", name)
	}
	r.measurements[name] = b
	return nil
}

func (r *Registry) exists(name string) bool {
	_, t := r.transformations[name]
	_, m := r.measurements[name]
	return t || m
}

// Transformation looks up a transformation builder.
func (r *Registry) Transformation(name string) (TransformationBuilder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.transformations[name]
	if !ok {
		return nil, dperr.NewNotImplementedError("unknown transformation %q", name)
	}
	return b, nil
}

// Measurement looks up a measurement builder.
func (r *Registry) Measurement(name string) (MeasurementBuilder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.measurements[name]
	if !ok {
		return nil, dperr.NewNotImplementedError("unknown measurement %q", name)
	}
	return b, nil
}

// Names returns the sorted names of all registered constructors.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ret := make([]string, 0, len(r.transformations)+len(r.measurements))
	for n := range r.transformations {
		ret = append(ret, n)
	}
	for n := range r.measurements {
		ret = append(ret, n)
	}
	sort.Strings(ret)
	return ret
}
