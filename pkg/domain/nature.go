package domain

import (
	"strings"

	"github.com/l7mp/dpcore/pkg/dperr"
	"github.com/l7mp/dpcore/pkg/value"
)

// Nature describes the admissible non-null values of a scalar domain: either a numeric interval
// or a set of categories.
type Nature interface {
	isNature()
	Equal(Nature) bool
	String() string
}

// Numeric is the nature of scalars bounded by an interval.
type Numeric struct {
	Interval Interval
}

// Categorical is the nature of scalars drawn from a finite set. A nil set means the categories
// are not known.
type Categorical struct {
	categories []value.CategoricalScalar
}

func (Numeric) isNature()     {}
func (Categorical) isNature() {}

func (n Numeric) Equal(o Nature) bool {
	x, ok := o.(Numeric)
	return ok && n.Interval.Equal(x.Interval)
}

func (n Numeric) String() string { return "numeric" + n.Interval.String() }

// NewCategorical creates a categorical nature. Categories must share a kind and be unique.
func NewCategorical(categories []value.CategoricalScalar) (Categorical, error) {
	if categories == nil {
		return Categorical{}, nil
	}
	cs := make([]value.CategoricalScalar, 0, len(categories))
	for i, c := range categories {
		if c.ToScalar().IsNull() {
			return Categorical{}, dperr.NewInvalidDomainError("category %d is null", i)
		}
		if i > 0 && c.Kind() != categories[0].Kind() {
			return Categorical{}, dperr.NewAtomicMismatchError("category %d: expected %s, got %s",
				i, categories[0].Kind(), c.Kind())
		}
		for _, prev := range cs {
			if sameCategory(prev, c) {
				return Categorical{}, dperr.NewInvalidDomainError("duplicate category %s", c)
			}
		}
		cs = append(cs, c)
	}
	return Categorical{categories: cs}, nil
}

// Categories returns the category set and whether it is known.
func (c Categorical) Categories() ([]value.CategoricalScalar, bool) {
	if c.categories == nil {
		return nil, false
	}
	ret := make([]value.CategoricalScalar, len(c.categories))
	copy(ret, c.categories)
	return ret, true
}

func (c Categorical) contains(x value.CategoricalScalar) bool {
	if c.categories == nil {
		return true
	}
	for _, cat := range c.categories {
		if sameCategory(cat, x) {
			return true
		}
	}
	return false
}

func (c Categorical) Equal(o Nature) bool {
	x, ok := o.(Categorical)
	if !ok || (c.categories == nil) != (x.categories == nil) || len(c.categories) != len(x.categories) {
		return false
	}
	for i := range c.categories {
		if !sameCategory(c.categories[i], x.categories[i]) {
			return false
		}
	}
	return true
}

func (c Categorical) String() string {
	if c.categories == nil {
		return "categorical{?}"
	}
	parts := make([]string, len(c.categories))
	for i, cat := range c.categories {
		parts[i] = cat.String()
	}
	return "categorical{" + strings.Join(parts, ", ") + "}"
}

// sameCategory compares two categories ignoring nullability.
func sameCategory(a, b value.CategoricalScalar) bool {
	return a.ToScalar().AsNullable() == b.ToScalar().AsNullable()
}
