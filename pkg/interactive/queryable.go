// Package interactive implements adaptive composition: a Queryable session answers a sequence of
// measurement queries over one fixed dataset while deducting every query's privacy loss from a
// shared budget.
package interactive

import (
	"fmt"
	"sync"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/l7mp/dpcore/pkg/core"
	"github.com/l7mp/dpcore/pkg/domain"
	"github.com/l7mp/dpcore/pkg/dperr"
	"github.com/l7mp/dpcore/pkg/metric"
)

// Querier answers privacy-costed measurement queries.
type Querier interface {
	Query(m *core.Measurement, loss metric.PrivacyDistance) (core.Data, error)
}

var (
	_ Querier = &Queryable{}
	_ Querier = &PostprocessedQueryable{}
)

// Options customizes an adaptive composition.
type Options struct {
	// Logger receives session lifecycle and per-query events. Defaults to a discarding logger.
	Logger logr.Logger
	// TrustDeclaredLoss skips checking the privacy relation of a queried measurement at the
	// declared loss. When set, a caller under-declaring the loss of a measurement is charged the
	// declared amount only.
	TrustDeclaredLoss bool
}

// InteractiveMeasurement spawns Queryables over a dataset at a fixed input distance and budget.
type InteractiveMeasurement struct {
	inputDomain   domain.Domain
	inputDistance metric.DataDistance
	budget        metric.PrivacyDistance
	opts          Options
}

// MakeAdaptiveComposition creates an interactive measurement that admits queries on data from
// inputDomain whose neighbors are at most inputDistance apart, spending at most budget.
func MakeAdaptiveComposition(inputDomain domain.Domain, inputDistance metric.DataDistance, budget metric.PrivacyDistance, opts Options) (*InteractiveMeasurement, error) {
	if inputDomain == nil {
		return nil, dperr.NewInvalidDomainError("adaptive composition: missing input domain")
	}
	if err := inputDistance.Validate(); err != nil {
		return nil, err
	}
	if err := budget.Validate(); err != nil {
		return nil, err
	}
	if opts.Logger.GetSink() == nil {
		opts.Logger = logr.Discard()
	}
	return &InteractiveMeasurement{
		inputDomain:   inputDomain,
		inputDistance: inputDistance,
		budget:        budget,
		opts:          opts,
	}, nil
}

func (im *InteractiveMeasurement) InputDomain() domain.Domain         { return im.inputDomain }
func (im *InteractiveMeasurement) InputDistance() metric.DataDistance { return im.inputDistance }
func (im *InteractiveMeasurement) Budget() metric.PrivacyDistance     { return im.budget }
func (im *InteractiveMeasurement) OutputMeasure() metric.Measure      { return im.budget.Measure() }

// Validate checks that the data is a member of the input domain.
func (im *InteractiveMeasurement) Validate(d core.Data) error {
	v, err := core.Unwrap(d)
	if err != nil {
		return err
	}
	return im.inputDomain.Member(v)
}

// Check is the privacy relation of the whole session: inputs at most d_in apart, with d_in not
// exceeding the declared input distance, cost at most the budget.
func (im *InteractiveMeasurement) Check(dIn metric.DataDistance, dOut metric.PrivacyDistance) (bool, error) {
	ok, err := dIn.LessEqual(im.inputDistance)
	if err != nil || !ok {
		return false, err
	}
	return im.budget.LessEqual(dOut)
}

// Eval opens a session over the data. The data is not validated.
func (im *InteractiveMeasurement) Eval(d core.Data) (*Queryable, error) {
	if _, err := core.Unwrap(d); err != nil {
		return nil, err
	}
	accountant, err := metric.NewAccountant(im.budget)
	if err != nil {
		return nil, err
	}
	id := uuid.New()
	q := &Queryable{
		id:            id,
		data:          d,
		inputDomain:   im.inputDomain,
		inputDistance: im.inputDistance,
		accountant:    accountant,
		trust:         im.opts.TrustDeclaredLoss,
		log:           im.opts.Logger.WithName("queryable").WithValues("session", id.String()),
	}
	q.log.Info("session opened", "budget", im.budget.String(), "input-distance", im.inputDistance.String())
	return q, nil
}

// Spend records one charged query.
type Spend struct {
	Measurement string
	Loss        metric.PrivacyDistance
	Remaining   metric.PrivacyDistance
	// Err is the error of the measurement function, if it failed after the budget was charged.
	Err error
}

// Queryable holds a dataset and the budget accounting of a session. It is safe for concurrent use:
// the budget check and the charge happen under one lock.
type Queryable struct {
	mu            sync.Mutex
	id            uuid.UUID
	data          core.Data
	inputDomain   domain.Domain
	inputDistance metric.DataDistance
	accountant    *metric.Accountant
	history       []Spend
	trust         bool
	log           logr.Logger
}

func (q *Queryable) ID() uuid.UUID { return q.id }

// Remaining returns the unspent budget.
func (q *Queryable) Remaining() metric.PrivacyDistance {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.accountant.Remaining()
}

// History returns the charged queries in order.
func (q *Queryable) History() []Spend {
	q.mu.Lock()
	defer q.mu.Unlock()
	ret := make([]Spend, len(q.history))
	copy(ret, q.history)
	return ret
}

// Query runs a measurement on the session data and charges loss to the budget.
//
// The query is refused with the state unchanged if the measurement's input domain differs from the
// session's, if loss is not comparable with the remaining budget, if loss exceeds the remaining
// budget, or if the measurement's privacy relation does not hold at (input distance, loss). Once
// the budget is charged it is never refunded, not even if the measurement function fails.
func (q *Queryable) Query(m *core.Measurement, loss metric.PrivacyDistance) (core.Data, error) {
	if m == nil {
		return nil, dperr.NewRawError("query: missing measurement")
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	log := q.log.WithValues("measurement", m.Name(), "loss", loss.String())

	if !m.InputDomain().Equal(q.inputDomain) {
		log.V(2).Info("query refused: domain mismatch", "domain", m.InputDomain().String())
		return nil, dperr.NewDomainMismatchError("query %s: input domain %s != session domain %s",
			m.Name(), m.InputDomain(), q.inputDomain)
	}

	if err := q.accountant.Fits(loss); err != nil {
		log.V(2).Info("query refused", "remaining", q.accountant.Remaining().String(), "error", err.Error())
		return nil, fmt.Errorf("query %s: %w", m.Name(), err)
	}

	if !q.trust {
		holds, err := m.Check(q.inputDistance, loss)
		if err != nil {
			log.V(2).Info("query refused: relation failed", "error", err.Error())
			return nil, err
		}
		if !holds {
			log.V(2).Info("query refused: relation does not hold")
			return nil, dperr.NewRelationFailedError("query %s: privacy relation does not hold at (%s, %s)",
				m.Name(), q.inputDistance, loss)
		}
	}

	remaining, err := q.accountant.Charge(loss)
	if err != nil {
		return nil, err
	}

	res, ferr := m.Invoke(q.data)
	q.history = append(q.history, Spend{Measurement: m.Name(), Loss: loss, Remaining: remaining, Err: ferr})
	if ferr != nil {
		log.Info("query failed, budget spent", "remaining", remaining.String(), "error", ferr.Error())
		return nil, ferr
	}

	log.V(2).Info("query answered", "remaining", remaining.String())
	return res, nil
}

// PostprocessedQueryable applies a function to every answer of an underlying querier.
type PostprocessedQueryable struct {
	inner Querier
	fn    core.Function
}

// Postprocess wraps q so that fn is applied to every answer. fn must only transform answers: it
// must not issue queries of its own, as that would bypass the budget of q.
func Postprocess(q Querier, fn core.Function) (*PostprocessedQueryable, error) {
	if q == nil || fn == nil {
		return nil, dperr.NewRawError("postprocess: missing querier or function")
	}
	return &PostprocessedQueryable{inner: q, fn: fn}, nil
}

func (p *PostprocessedQueryable) Query(m *core.Measurement, loss metric.PrivacyDistance) (core.Data, error) {
	res, err := p.inner.Query(m, loss)
	if err != nil {
		return nil, err
	}
	return p.fn(res)
}
