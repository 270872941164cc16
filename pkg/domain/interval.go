package domain

import (
	"fmt"

	"github.com/l7mp/dpcore/pkg/dperr"
	"github.com/l7mp/dpcore/pkg/value"
)

// Interval is a closed, possibly half-open or unbounded numeric range over one numeric kind. The
// kind is known even without bounds; bounds share it and lower <= upper when both are set.
type Interval struct {
	kind               value.Kind
	lower, upper       value.NumericScalar
	hasLower, hasUpper bool
}

// Unbounded returns the interval of the given kind with neither bound.
func Unbounded(kind value.Kind) (Interval, error) {
	return NewInterval(kind, nil, nil)
}

// NewInterval creates an interval of a numeric kind from optional bounds.
func NewInterval(kind value.Kind, lower, upper *value.NumericScalar) (Interval, error) {
	if !kind.IsNumeric() {
		return Interval{}, dperr.NewInvalidDomainError("interval of non-numeric kind %s", kind)
	}
	i := Interval{kind: kind}
	var err error
	if i.lower, i.hasLower, err = checkBound("lower", kind, lower); err != nil {
		return Interval{}, err
	}
	if i.upper, i.hasUpper, err = checkBound("upper", kind, upper); err != nil {
		return Interval{}, err
	}
	if i.hasLower && i.hasUpper {
		c, err := i.lower.Compare(i.upper)
		if err != nil {
			return Interval{}, err
		}
		if c > 0 {
			return Interval{}, dperr.NewInvalidDomainError("lower bound %s exceeds upper bound %s",
				i.lower, i.upper)
		}
	}
	return i, nil
}

func checkBound(name string, kind value.Kind, b *value.NumericScalar) (value.NumericScalar, bool, error) {
	switch {
	case b == nil:
		return value.NumericScalar{}, false, nil
	case b.IsNull():
		return value.NumericScalar{}, false, dperr.NewInvalidDomainError("null %s bound", name)
	case b.Kind() != kind:
		return value.NumericScalar{}, false, dperr.NewAtomicMismatchError("%s bound %s is not %s", name, *b, kind)
	}
	return *b, true, nil
}

// Closed is shorthand for an interval with both bounds set, of the kind of the lower bound.
func Closed(lower, upper value.NumericScalar) (Interval, error) {
	return NewInterval(lower.Kind(), &lower, &upper)
}

func (i Interval) Lower() (value.NumericScalar, bool) { return i.lower, i.hasLower }
func (i Interval) Upper() (value.NumericScalar, bool) { return i.upper, i.hasUpper }
func (i Interval) IsBounded() bool                    { return i.hasLower && i.hasUpper }

// Kind returns the numeric kind of the interval.
func (i Interval) Kind() value.Kind { return i.kind }

// Intersect narrows the interval to [lower, upper]: the new lower bound is the larger of the two
// lower bounds, the new upper bound the smaller of the two upper bounds. Bounds of another kind
// than the interval's fail with an atomic mismatch, an empty intersection with an invalid domain
// error.
func (i Interval) Intersect(lower, upper value.NumericScalar) (Interval, error) {
	if lower.Kind() != i.kind || upper.Kind() != i.kind {
		return Interval{}, dperr.NewAtomicMismatchError("cannot narrow a %s interval to [%s, %s]",
			i.kind, lower, upper)
	}
	lo, hi := lower, upper
	var err error
	if i.hasLower {
		if lo, err = lower.Max(i.lower); err != nil {
			return Interval{}, err
		}
	}
	if i.hasUpper {
		if hi, err = upper.Min(i.upper); err != nil {
			return Interval{}, err
		}
	}
	return NewInterval(i.kind, &lo, &hi)
}

// Contains checks whether x lies within the interval.
func (i Interval) Contains(x value.NumericScalar) (bool, error) {
	if x.Kind() != i.kind {
		return false, dperr.NewAtomicMismatchError("expected %s, got %s", i.kind, x.Kind())
	}
	if i.hasLower {
		c, err := x.Compare(i.lower)
		if err != nil {
			return false, err
		}
		if c < 0 {
			return false, nil
		}
	}
	if i.hasUpper {
		c, err := x.Compare(i.upper)
		if err != nil {
			return false, err
		}
		if c > 0 {
			return false, nil
		}
	}
	return true, nil
}

func (i Interval) Equal(o Interval) bool {
	return i.kind == o.kind && i.hasLower == o.hasLower && i.hasUpper == o.hasUpper &&
		(!i.hasLower || i.lower == o.lower) && (!i.hasUpper || i.upper == o.upper)
}

func (i Interval) String() string {
	lo, hi := "-inf", "inf"
	if i.hasLower {
		lo = i.lower.String()
	}
	if i.hasUpper {
		hi = i.upper.String()
	}
	return fmt.Sprintf("%s[%s, %s]", i.kind, lo, hi)
}
