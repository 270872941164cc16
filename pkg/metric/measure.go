package metric

import (
	"fmt"
	"math"
	"strings"

	"github.com/l7mp/dpcore/pkg/dperr"
)

// Measure is a notion of privacy loss.
type Measure int

const (
	// PureDP is epsilon-differential privacy.
	PureDP Measure = iota
	// ApproximateDP is (epsilon, delta)-differential privacy.
	ApproximateDP
	// ZCDP is rho-zero-concentrated differential privacy.
	ZCDP
)

var measureNames = map[Measure]string{
	PureDP: "pure_dp", ApproximateDP: "approximate_dp", ZCDP: "zcdp",
}

func (m Measure) String() string {
	if n, ok := measureNames[m]; ok {
		return n
	}
	return fmt.Sprintf("measure(%d)", int(m))
}

// ParseMeasure parses a measure name.
func ParseMeasure(name string) (Measure, error) {
	n := strings.ToLower(name)
	for m, s := range measureNames {
		if s == n {
			return m, nil
		}
	}
	return 0, dperr.NewPrivacyMismatchError("unknown privacy measure %q", name)
}

// PrivacyDistance is an amount of privacy loss under a measure.
type PrivacyDistance struct {
	measure Measure
	epsilon float64
	delta   float64
	rho     float64
}

func PureDPDistance(epsilon float64) PrivacyDistance {
	return PrivacyDistance{measure: PureDP, epsilon: epsilon}
}

func ApproxDPDistance(epsilon, delta float64) PrivacyDistance {
	return PrivacyDistance{measure: ApproximateDP, epsilon: epsilon, delta: delta}
}

func ZCDPDistance(rho float64) PrivacyDistance {
	return PrivacyDistance{measure: ZCDP, rho: rho}
}

// ZeroPrivacy returns the zero loss of a measure.
func ZeroPrivacy(m Measure) PrivacyDistance {
	return PrivacyDistance{measure: m}
}

func (p PrivacyDistance) Measure() Measure { return p.measure }
func (p PrivacyDistance) Epsilon() float64 { return p.epsilon }
func (p PrivacyDistance) Delta() float64   { return p.delta }
func (p PrivacyDistance) Rho() float64     { return p.rho }

func invalidAmount(x float64) bool { return math.IsNaN(x) || math.IsInf(x, 0) || x < 0 }

// Validate checks that all components are finite and non-negative and that delta is at most 1.
func (p PrivacyDistance) Validate() error {
	if invalidAmount(p.epsilon) || invalidAmount(p.delta) || invalidAmount(p.rho) || p.delta > 1 {
		return dperr.NewInvalidDistanceError("%s", p)
	}
	return nil
}

// PartialCompare compares two privacy distances component-wise. The second return value is false
// when the measures differ or, for approximate DP, when epsilon and delta order differently.
func (p PrivacyDistance) PartialCompare(o PrivacyDistance) (int, bool) {
	if p.measure != o.measure || p.Validate() != nil || o.Validate() != nil {
		return 0, false
	}
	switch p.measure {
	case PureDP:
		return cmp3(p.epsilon < o.epsilon, p.epsilon > o.epsilon), true
	case ZCDP:
		return cmp3(p.rho < o.rho, p.rho > o.rho), true
	}
	ce := cmp3(p.epsilon < o.epsilon, p.epsilon > o.epsilon)
	cd := cmp3(p.delta < o.delta, p.delta > o.delta)
	switch {
	case ce == cd:
		return ce, true
	case ce == 0:
		return cd, true
	case cd == 0:
		return ce, true
	}
	return 0, false
}

// LessEqual reports whether every component of p is at most the matching component of o. It
// fails when the measures differ.
func (p PrivacyDistance) LessEqual(o PrivacyDistance) (bool, error) {
	if p.measure != o.measure {
		return false, dperr.NewPrivacyMismatchError("cannot compare %s with %s", p, o)
	}
	if err := p.Validate(); err != nil {
		return false, err
	}
	if err := o.Validate(); err != nil {
		return false, err
	}
	return p.epsilon <= o.epsilon && p.delta <= o.delta && p.rho <= o.rho, nil
}

// Add composes two losses of the same measure by basic composition. Amounts are added as exact
// decimals.
func (p PrivacyDistance) Add(o PrivacyDistance) (PrivacyDistance, error) {
	if p.measure != o.measure {
		return PrivacyDistance{}, dperr.NewPrivacyMismatchError("cannot add %s and %s", p, o)
	}
	r := PrivacyDistance{
		measure: p.measure,
		epsilon: decimalAdd(p.epsilon, o.epsilon, false),
		delta:   math.Min(decimalAdd(p.delta, o.delta, false), 1),
		rho:     decimalAdd(p.rho, o.rho, false),
	}
	return r, r.Validate()
}

// Sub deducts o from p, failing with an insufficient budget error when any component would turn
// negative. Amounts are subtracted as exact decimals.
func (p PrivacyDistance) Sub(o PrivacyDistance) (PrivacyDistance, error) {
	if p.measure != o.measure {
		return PrivacyDistance{}, dperr.NewPrivacyMismatchError("cannot subtract %s from %s", o, p)
	}
	if p.epsilon < o.epsilon || p.delta < o.delta || p.rho < o.rho {
		return PrivacyDistance{}, dperr.NewInsufficientBudgetError("%s - %s", p, o)
	}
	r := PrivacyDistance{
		measure: p.measure,
		epsilon: decimalAdd(p.epsilon, o.epsilon, true),
		delta:   decimalAdd(p.delta, o.delta, true),
		rho:     decimalAdd(p.rho, o.rho, true),
	}
	return r, r.Validate()
}

func (p PrivacyDistance) String() string {
	switch p.measure {
	case PureDP:
		return fmt.Sprintf("PureDP(ε=%g)", p.epsilon)
	case ApproximateDP:
		return fmt.Sprintf("ApproximateDP(ε=%g, δ=%g)", p.epsilon, p.delta)
	case ZCDP:
		return fmt.Sprintf("zCDP(ρ=%g)", p.rho)
	}
	return p.measure.String()
}
