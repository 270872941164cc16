// Package metric defines the notions of distance used to certify operations: data metrics
// between datasets (Symmetric, Hamming, L1/L2 sensitivity) and privacy measures (pure DP,
// approximate DP, zCDP), together with the distance values that carry the numeric bounds.
//
// Distances are partially ordered. Comparing, adding or subtracting distances of different kinds
// fails instead of coercing.
package metric

import (
	"fmt"
	"math"
	"strings"

	"github.com/l7mp/dpcore/pkg/dperr"
)

// Metric is a notion of distance between datasets.
type Metric int

const (
	// Symmetric counts added plus removed rows.
	Symmetric Metric = iota
	// Hamming counts substituted rows between equal-length datasets.
	Hamming
	// L1Sensitivity bounds the L1 norm of the difference of numeric outputs.
	L1Sensitivity
	// L2Sensitivity bounds the L2 norm of the difference of numeric outputs.
	L2Sensitivity
)

var metricNames = map[Metric]string{
	Symmetric: "symmetric", Hamming: "hamming", L1Sensitivity: "l1", L2Sensitivity: "l2",
}

func (m Metric) String() string {
	if n, ok := metricNames[m]; ok {
		return n
	}
	return fmt.Sprintf("metric(%d)", int(m))
}

// IsRowMetric is true for metrics counting rows.
func (m Metric) IsRowMetric() bool { return m == Symmetric || m == Hamming }

// ParseMetric parses a metric name.
func ParseMetric(name string) (Metric, error) {
	n := strings.ToLower(name)
	for m, s := range metricNames {
		if s == n {
			return m, nil
		}
	}
	return 0, dperr.NewMetricMismatchError("unknown metric %q", name)
}

// DataDistance is a distance under a data metric: a row count for row metrics, a non-negative
// real bound for sensitivity metrics.
type DataDistance struct {
	metric Metric
	rows   uint64
	bound  float64
}

func SymmetricDistance(rows uint64) DataDistance {
	return DataDistance{metric: Symmetric, rows: rows}
}

func HammingDistance(rows uint64) DataDistance {
	return DataDistance{metric: Hamming, rows: rows}
}

func L1Distance(bound float64) DataDistance {
	return DataDistance{metric: L1Sensitivity, bound: bound}
}

func L2Distance(bound float64) DataDistance {
	return DataDistance{metric: L2Sensitivity, bound: bound}
}

// NewDataDistance creates a distance of the given metric from a numeric amount. Row metrics
// require a whole number.
func NewDataDistance(m Metric, amount float64) (DataDistance, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		return DataDistance{}, dperr.NewInvalidDistanceError("%g is not a valid %s distance", amount, m)
	}
	switch m {
	case Symmetric, Hamming:
		if amount != math.Trunc(amount) || amount > math.MaxUint64/2 {
			return DataDistance{}, dperr.NewInvalidDistanceError("%g is not a row count", amount)
		}
		return DataDistance{metric: m, rows: uint64(amount)}, nil
	case L1Sensitivity, L2Sensitivity:
		return DataDistance{metric: m, bound: amount}, nil
	}
	return DataDistance{}, dperr.NewMetricMismatchError("unknown metric %s", m)
}

func (d DataDistance) Metric() Metric { return d.metric }

// Rows returns the row count of a row-metric distance.
func (d DataDistance) Rows() (uint64, error) {
	if !d.metric.IsRowMetric() {
		return 0, dperr.NewDistanceMismatchError("%s is not a row count", d)
	}
	return d.rows, nil
}

// Bound returns the bound of a sensitivity distance.
func (d DataDistance) Bound() (float64, error) {
	if d.metric.IsRowMetric() {
		return 0, dperr.NewDistanceMismatchError("%s is not a sensitivity bound", d)
	}
	if err := d.Validate(); err != nil {
		return 0, err
	}
	return d.bound, nil
}

// Float64 returns the amount of the distance regardless of metric.
func (d DataDistance) Float64() float64 {
	if d.metric.IsRowMetric() {
		return float64(d.rows)
	}
	return d.bound
}

// Validate checks that a sensitivity bound is finite and non-negative.
func (d DataDistance) Validate() error {
	if !d.metric.IsRowMetric() && (math.IsNaN(d.bound) || math.IsInf(d.bound, 0) || d.bound < 0) {
		return dperr.NewInvalidDistanceError("%s", d)
	}
	return nil
}

// PartialCompare compares two distances. The second return value is false when the distances
// are not comparable.
func (d DataDistance) PartialCompare(o DataDistance) (int, bool) {
	if d.metric != o.metric || d.Validate() != nil || o.Validate() != nil {
		return 0, false
	}
	if d.metric.IsRowMetric() {
		return cmp3(d.rows < o.rows, d.rows > o.rows), true
	}
	return cmp3(d.bound < o.bound, d.bound > o.bound), true
}

// LessEqual is d <= o, failing when the two are not comparable.
func (d DataDistance) LessEqual(o DataDistance) (bool, error) {
	c, ok := d.PartialCompare(o)
	if !ok {
		return false, dperr.NewDistanceMismatchError("cannot compare %s with %s", d, o)
	}
	return c <= 0, nil
}

// Add sums two distances of the same metric.
func (d DataDistance) Add(o DataDistance) (DataDistance, error) {
	if d.metric != o.metric {
		return DataDistance{}, dperr.NewDistanceMismatchError("cannot add %s and %s", d, o)
	}
	if d.metric.IsRowMetric() {
		if d.rows > math.MaxUint64-o.rows {
			return DataDistance{}, dperr.NewOverflowError("%s + %s", d, o)
		}
		return DataDistance{metric: d.metric, rows: d.rows + o.rows}, nil
	}
	r := DataDistance{metric: d.metric, bound: d.bound + o.bound}
	return r, r.Validate()
}

// Sub subtracts o from d.
func (d DataDistance) Sub(o DataDistance) (DataDistance, error) {
	if d.metric != o.metric {
		return DataDistance{}, dperr.NewDistanceMismatchError("cannot subtract %s from %s", o, d)
	}
	if d.metric.IsRowMetric() {
		if o.rows > d.rows {
			return DataDistance{}, dperr.NewInvalidDistanceError("%s - %s is negative", d, o)
		}
		return DataDistance{metric: d.metric, rows: d.rows - o.rows}, nil
	}
	r := DataDistance{metric: d.metric, bound: d.bound - o.bound}
	return r, r.Validate()
}

// Scale multiplies the distance by a non-negative constant, yielding a distance under metric m.
// This is how a Lipschitz constant maps an input distance to an output distance.
func (d DataDistance) Scale(c float64, m Metric) (DataDistance, error) {
	if math.IsNaN(c) || c < 0 {
		return DataDistance{}, dperr.NewInvalidDistanceError("invalid scale factor %g", c)
	}
	return NewDataDistance(m, d.Float64()*c)
}

func (d DataDistance) String() string {
	if d.metric.IsRowMetric() {
		return fmt.Sprintf("%s(%d)", d.metric, d.rows)
	}
	return fmt.Sprintf("%s(%g)", d.metric, d.bound)
}

func cmp3(lt, gt bool) int {
	switch {
	case lt:
		return -1
	case gt:
		return 1
	}
	return 0
}
