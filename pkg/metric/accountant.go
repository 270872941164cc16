package metric

import (
	"math/big"
	"strconv"

	"github.com/l7mp/dpcore/pkg/dperr"
)

// decimal returns the decimal number x is the shortest float64 representation of, as an exact
// rational. Amounts are read as the decimals a user writes, so 0.1 is one tenth.
func decimal(x float64) *big.Rat {
	r, ok := new(big.Rat).SetString(strconv.FormatFloat(x, 'g', -1, 64))
	if !ok {
		r = new(big.Rat).SetFloat64(x)
	}
	return r
}

func ratFloat(r *big.Rat) float64 {
	f, _ := r.Float64()
	return f
}

// decimalAdd adds or subtracts two amounts in exact decimal arithmetic.
func decimalAdd(x, y float64, negate bool) float64 {
	ry := decimal(y)
	if negate {
		ry.Neg(ry)
	}
	return ratFloat(ry.Add(decimal(x), ry))
}

// components are the exact epsilon, delta and rho of a privacy distance.
type components [3]*big.Rat

func exact(p PrivacyDistance) components {
	return components{decimal(p.epsilon), decimal(p.delta), decimal(p.rho)}
}

func (c components) distance(m Measure) PrivacyDistance {
	return PrivacyDistance{measure: m, epsilon: ratFloat(c[0]), delta: ratFloat(c[1]), rho: ratFloat(c[2])}
}

// Accountant tracks the privacy loss spent against a budget. Spending is summed exactly, so a
// budget of 0.3 admits three losses of 0.1 and the remaining budget is computed from the total
// spent rather than by repeated subtraction. An Accountant is not safe for concurrent use.
type Accountant struct {
	budget PrivacyDistance
	total  components
	spent  components
}

// NewAccountant creates an accountant with nothing spent.
func NewAccountant(budget PrivacyDistance) (*Accountant, error) {
	if err := budget.Validate(); err != nil {
		return nil, err
	}
	return &Accountant{
		budget: budget,
		total:  exact(budget),
		spent:  components{new(big.Rat), new(big.Rat), new(big.Rat)},
	}, nil
}

func (a *Accountant) Budget() PrivacyDistance { return a.budget }
func (a *Accountant) Spent() PrivacyDistance  { return a.spent.distance(a.budget.measure) }

// Remaining returns the budget minus the total spent.
func (a *Accountant) Remaining() PrivacyDistance { return a.remaining().distance(a.budget.measure) }

func (a *Accountant) remaining() components {
	var r components
	for i := range r {
		r[i] = new(big.Rat).Sub(a.total[i], a.spent[i])
	}
	return r
}

// Fits checks that loss can be charged. It fails with a privacy mismatch if loss is of another
// measure or is not comparable with the remaining budget, and with an insufficient budget error if
// it exceeds it.
func (a *Accountant) Fits(loss PrivacyDistance) error {
	if loss.measure != a.budget.measure {
		return dperr.NewPrivacyMismatchError("loss %s is not comparable with budget %s", loss, a.Remaining())
	}
	if err := loss.Validate(); err != nil {
		return err
	}
	l, r := exact(loss), a.remaining()
	over, under := false, false
	for i := range l {
		switch l[i].Cmp(r[i]) {
		case 1:
			over = true
		case -1:
			under = true
		}
	}
	switch {
	case over && under:
		return dperr.NewPrivacyMismatchError("loss %s is not comparable with budget %s", loss, a.Remaining())
	case over:
		return dperr.NewInsufficientBudgetError("loss %s exceeds remaining budget %s", loss, a.Remaining())
	}
	return nil
}

// Charge adds loss to the total spent if it fits and returns the remaining budget.
func (a *Accountant) Charge(loss PrivacyDistance) (PrivacyDistance, error) {
	if err := a.Fits(loss); err != nil {
		return PrivacyDistance{}, err
	}
	for i, c := range exact(loss) {
		a.spent[i].Add(a.spent[i], c)
	}
	return a.Remaining(), nil
}
