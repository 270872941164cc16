// Package dperr defines the error kinds shared by the relation algebra. Every error returned by
// the library wraps exactly one of the sentinels below, so callers can dispatch with errors.Is.
package dperr

import (
	"errors"
	"fmt"
)

var (
	ErrDomainMismatch     = errors.New("domain mismatch")
	ErrMetricMismatch     = errors.New("metric mismatch")
	ErrDistanceMismatch   = errors.New("distance mismatch")
	ErrAtomicMismatch     = errors.New("atomic type mismatch")
	ErrInvalidDomain      = errors.New("invalid domain")
	ErrInvalidDistance    = errors.New("invalid distance")
	ErrUnsupportedCast    = errors.New("unsupported cast")
	ErrOverflow           = errors.New("arithmetic overflow")
	ErrInsufficientBudget = errors.New("insufficient privacy budget")
	ErrUnknownBound       = errors.New("unknown bound")
	ErrPotentialNullity   = errors.New("potential nullity")
	ErrPrivacyMismatch    = errors.New("privacy measure mismatch")
	ErrNotImplemented     = errors.New("not implemented")
	ErrUnprovable         = errors.New("relation cannot be proven")
	ErrRelationFailed     = errors.New("relation does not hold")
	ErrRaw                = errors.New("error")
)

var kinds = []struct {
	err  error
	name string
}{
	{ErrDomainMismatch, "DomainMismatch"},
	{ErrMetricMismatch, "MetricMismatch"},
	{ErrDistanceMismatch, "DistanceMismatch"},
	{ErrAtomicMismatch, "AtomicMismatch"},
	{ErrInvalidDomain, "InvalidDomain"},
	{ErrInvalidDistance, "InvalidDistance"},
	{ErrUnsupportedCast, "UnsupportedCast"},
	{ErrOverflow, "Overflow"},
	{ErrInsufficientBudget, "InsufficientBudget"},
	{ErrUnknownBound, "UnknownBound"},
	{ErrPotentialNullity, "PotentialNullity"},
	{ErrPrivacyMismatch, "PrivacyMismatch"},
	{ErrNotImplemented, "NotImplemented"},
	{ErrUnprovable, "Unprovable"},
	{ErrRelationFailed, "RelationFailed"},
	{ErrRaw, "Raw"},
}

func wrap(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}

func NewDomainMismatchError(format string, args ...any) error {
	return wrap(ErrDomainMismatch, format, args...)
}

func NewMetricMismatchError(format string, args ...any) error {
	return wrap(ErrMetricMismatch, format, args...)
}

func NewDistanceMismatchError(format string, args ...any) error {
	return wrap(ErrDistanceMismatch, format, args...)
}

func NewAtomicMismatchError(format string, args ...any) error {
	return wrap(ErrAtomicMismatch, format, args...)
}

func NewInvalidDomainError(format string, args ...any) error {
	return wrap(ErrInvalidDomain, format, args...)
}

func NewInvalidDistanceError(format string, args ...any) error {
	return wrap(ErrInvalidDistance, format, args...)
}

func NewUnsupportedCastError(format string, args ...any) error {
	return wrap(ErrUnsupportedCast, format, args...)
}

func NewOverflowError(format string, args ...any) error {
	return wrap(ErrOverflow, format, args...)
}

func NewInsufficientBudgetError(format string, args ...any) error {
	return wrap(ErrInsufficientBudget, format, args...)
}

func NewUnknownBoundError(format string, args ...any) error {
	return wrap(ErrUnknownBound, format, args...)
}

func NewPotentialNullityError(format string, args ...any) error {
	return wrap(ErrPotentialNullity, format, args...)
}

func NewPrivacyMismatchError(format string, args ...any) error {
	return wrap(ErrPrivacyMismatch, format, args...)
}

func NewNotImplementedError(format string, args ...any) error {
	return wrap(ErrNotImplemented, format, args...)
}

func NewUnprovableError(format string, args ...any) error {
	return wrap(ErrUnprovable, format, args...)
}

func NewRelationFailedError(format string, args ...any) error {
	return wrap(ErrRelationFailed, format, args...)
}

// NewRawError is the catch-all for failures that fit no other kind.
func NewRawError(format string, args ...any) error {
	return wrap(ErrRaw, format, args...)
}

// Kind returns the name of the error kind wrapped by err, or the empty string if err does not wrap
// any of the known kinds.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return ""
}
