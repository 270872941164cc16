// Package domain describes the admissible sets of values that transformations and measurements
// accept and produce. Domains are immutable and compared structurally: equality is the only
// compatibility test used when chaining operations.
package domain

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/l7mp/dpcore/pkg/dperr"
	"github.com/l7mp/dpcore/pkg/value"
)

// Domain is the closed sum of ScalarDomain, VectorDomain and DataframeDomain.
type Domain interface {
	isDomain()
	// Equal is structural equality.
	Equal(Domain) bool
	// AssertNonNull fails with a potential nullity error if any reachable scalar domain admits
	// nulls.
	AssertNonNull() error
	// Member checks that v belongs to the domain.
	Member(v value.Value) error
	String() string
}

var (
	_ Domain = ScalarDomain{}
	_ Domain = VectorDomain{}
	_ Domain = DataframeDomain{}
)

// ScalarDomain admits scalars of a given nature, possibly null.
type ScalarDomain struct {
	mayHaveNullity bool
	nature         Nature
}

func (ScalarDomain) isDomain() {}

// NumericScalar creates a numeric scalar domain of the given kind with optional bounds.
func NumericScalar(kind value.Kind, lower, upper *value.NumericScalar, mayHaveNullity bool) (ScalarDomain, error) {
	i, err := NewInterval(kind, lower, upper)
	if err != nil {
		return ScalarDomain{}, err
	}
	return ScalarDomain{mayHaveNullity: mayHaveNullity, nature: Numeric{Interval: i}}, nil
}

// BoundedScalar creates a numeric scalar domain with both bounds set.
func BoundedScalar(lower, upper value.NumericScalar, mayHaveNullity bool) (ScalarDomain, error) {
	return NumericScalar(lower.Kind(), &lower, &upper, mayHaveNullity)
}

// NumericScalarFromInterval creates a numeric scalar domain over an existing interval.
func NumericScalarFromInterval(i Interval, mayHaveNullity bool) ScalarDomain {
	return ScalarDomain{mayHaveNullity: mayHaveNullity, nature: Numeric{Interval: i}}
}

// CategoricalScalar creates a categorical scalar domain. Pass nil categories when the category
// set is unknown.
func CategoricalScalar(categories []value.CategoricalScalar, mayHaveNullity bool) (ScalarDomain, error) {
	c, err := NewCategorical(categories)
	if err != nil {
		return ScalarDomain{}, err
	}
	return ScalarDomain{mayHaveNullity: mayHaveNullity, nature: c}, nil
}

func (d ScalarDomain) MayHaveNullity() bool { return d.mayHaveNullity }
func (d ScalarDomain) Nature() Nature       { return d.nature }

// WithNullity returns a copy of the domain with the given nullity.
func (d ScalarDomain) WithNullity(mayHaveNullity bool) ScalarDomain {
	d.mayHaveNullity = mayHaveNullity
	return d
}

// Interval returns the interval of a numeric domain.
func (d ScalarDomain) Interval() (Interval, error) {
	n, ok := d.nature.(Numeric)
	if !ok {
		return Interval{}, dperr.NewInvalidDomainError("expected a numeric scalar domain, got %s", d)
	}
	return n.Interval, nil
}

func (d ScalarDomain) Equal(o Domain) bool {
	x, ok := o.(ScalarDomain)
	if !ok || d.mayHaveNullity != x.mayHaveNullity {
		return false
	}
	if d.nature == nil || x.nature == nil {
		return d.nature == nil && x.nature == nil
	}
	return d.nature.Equal(x.nature)
}

func (d ScalarDomain) AssertNonNull() error {
	if d.mayHaveNullity {
		return dperr.NewPotentialNullityError("%s may contain nulls", d)
	}
	return nil
}

func (d ScalarDomain) Member(v value.Value) error {
	s, err := value.AsScalar(v)
	if err != nil {
		return err
	}
	return d.memberScalar(s)
}

func (d ScalarDomain) memberScalar(s value.Scalar) error {
	if s.IsNull() {
		if !d.mayHaveNullity {
			return dperr.NewPotentialNullityError("null in non-nullable %s", d)
		}
		return nil
	}
	switch n := d.nature.(type) {
	case Numeric:
		x, err := s.ToNumeric()
		if err != nil {
			return err
		}
		in, err := n.Interval.Contains(x)
		if err != nil {
			return err
		}
		if !in {
			return dperr.NewDomainMismatchError("%s outside %s", x, n.Interval)
		}
	case Categorical:
		x, err := s.ToCategorical()
		if err != nil {
			return err
		}
		if cats, ok := n.Categories(); ok && len(cats) > 0 && cats[0].Kind() != x.Kind() {
			return dperr.NewAtomicMismatchError("expected %s, got %s", cats[0].Kind(), x.Kind())
		}
		if !n.contains(x) {
			return dperr.NewDomainMismatchError("%s is not a category of %s", x, n)
		}
	}
	return nil
}

func (d ScalarDomain) String() string {
	null := ""
	if d.mayHaveNullity {
		null = ", nullable"
	}
	return fmt.Sprintf("ScalarDomain(%v%s)", d.nature, null)
}

// shape collects the size constraints of vector and dataframe domains.
type shape struct {
	nonEmpty  bool
	length    int
	hasLength bool
}

// ShapeOption constrains the size of a vector or dataframe domain.
type ShapeOption func(*shape) error

// WithLength fixes the number of elements or rows.
func WithLength(n int) ShapeOption {
	return func(s *shape) error {
		if n < 0 {
			return dperr.NewInvalidDomainError("negative length %d", n)
		}
		s.length, s.hasLength = n, true
		return nil
	}
}

// NonEmpty requires at least one element or row.
func NonEmpty() ShapeOption {
	return func(s *shape) error {
		s.nonEmpty = true
		return nil
	}
}

func newShape(opts []ShapeOption) (shape, error) {
	s := shape{}
	for _, o := range opts {
		if err := o(&s); err != nil {
			return shape{}, err
		}
	}
	if s.nonEmpty && s.hasLength && s.length == 0 {
		return shape{}, dperr.NewInvalidDomainError("non-empty domain with length 0")
	}
	return s, nil
}

func (s shape) check(n int) error {
	if s.hasLength && n != s.length {
		return dperr.NewDomainMismatchError("expected length %d, got %d", s.length, n)
	}
	if s.nonEmpty && n == 0 {
		return dperr.NewDomainMismatchError("empty value in non-empty domain")
	}
	return nil
}

func (s shape) String() string {
	parts := []string{}
	if s.hasLength {
		parts = append(parts, fmt.Sprintf("length=%d", s.length))
	}
	if s.nonEmpty {
		parts = append(parts, "nonempty")
	}
	if len(parts) == 0 {
		return ""
	}
	return ", " + strings.Join(parts, ", ")
}

// VectorDomain admits vectors whose elements all belong to the atomic domain.
type VectorDomain struct {
	atom ScalarDomain
	shape
}

func (VectorDomain) isDomain() {}

// NewVectorDomain creates a vector domain over an atomic scalar domain.
func NewVectorDomain(atom ScalarDomain, opts ...ShapeOption) (VectorDomain, error) {
	s, err := newShape(opts)
	if err != nil {
		return VectorDomain{}, err
	}
	return VectorDomain{atom: atom, shape: s}, nil
}

func (d VectorDomain) Atom() ScalarDomain  { return d.atom }
func (d VectorDomain) IsNonEmpty() bool    { return d.nonEmpty }
func (d VectorDomain) Length() (int, bool) { return d.length, d.hasLength }

// WithAtom returns a copy of the domain with the atomic domain replaced.
func (d VectorDomain) WithAtom(atom ScalarDomain) VectorDomain {
	d.atom = atom
	return d
}

func (d VectorDomain) Equal(o Domain) bool {
	x, ok := o.(VectorDomain)
	return ok && d.shape == x.shape && d.atom.Equal(x.atom)
}

func (d VectorDomain) AssertNonNull() error {
	return d.atom.AssertNonNull()
}

func (d VectorDomain) Member(v value.Value) error {
	vec, err := value.AsVector(v)
	if err != nil {
		return err
	}
	if err := d.shape.check(vec.Len()); err != nil {
		return err
	}
	var merr *multierror.Error
	for i := 0; i < vec.Len(); i++ {
		if err := d.atom.memberScalar(vec.At(i)); err != nil {
			merr = multierror.Append(merr, fmt.Errorf("element %d: %w", i, err))
		}
	}
	return merr.ErrorOrNil()
}

func (d VectorDomain) String() string {
	return fmt.Sprintf("VectorDomain(%s%s)", d.atom, d.shape)
}

// Column is a named column of a dataframe domain.
type Column struct {
	Name   string
	Domain Domain
}

// DataframeDomain admits dataframes with exactly the listed columns, in order.
type DataframeDomain struct {
	columns []Column
	shape
}

func (DataframeDomain) isDomain() {}

// NewDataframeDomain creates a dataframe domain. Column names must be unique.
func NewDataframeDomain(columns []Column, opts ...ShapeOption) (DataframeDomain, error) {
	s, err := newShape(opts)
	if err != nil {
		return DataframeDomain{}, err
	}
	seen := map[string]bool{}
	cols := make([]Column, len(columns))
	for i, c := range columns {
		if seen[c.Name] {
			return DataframeDomain{}, dperr.NewInvalidDomainError("duplicate column %q", c.Name)
		}
		if c.Domain == nil {
			return DataframeDomain{}, dperr.NewInvalidDomainError("column %q has no domain", c.Name)
		}
		seen[c.Name] = true
		cols[i] = c
	}
	return DataframeDomain{columns: cols, shape: s}, nil
}

// Columns returns the columns in order.
func (d DataframeDomain) Columns() []Column {
	ret := make([]Column, len(d.columns))
	copy(ret, d.columns)
	return ret
}

func (d DataframeDomain) IsNonEmpty() bool    { return d.nonEmpty }
func (d DataframeDomain) Length() (int, bool) { return d.length, d.hasLength }

// Column returns the domain of the named column.
func (d DataframeDomain) Column(name string) (Domain, error) {
	for _, c := range d.columns {
		if c.Name == name {
			return c.Domain, nil
		}
	}
	return nil, dperr.NewInvalidDomainError("no column %q in %s", name, d)
}

// WithColumn returns a copy of the domain where the named column has the given domain. A new
// column is appended.
func (d DataframeDomain) WithColumn(name string, dom Domain) DataframeDomain {
	cols := d.Columns()
	for i := range cols {
		if cols[i].Name == name {
			cols[i].Domain = dom
			d.columns = cols
			return d
		}
	}
	d.columns = append(cols, Column{Name: name, Domain: dom})
	return d
}

func (d DataframeDomain) Equal(o Domain) bool {
	x, ok := o.(DataframeDomain)
	if !ok || d.shape != x.shape || len(d.columns) != len(x.columns) {
		return false
	}
	for i := range d.columns {
		if d.columns[i].Name != x.columns[i].Name || !d.columns[i].Domain.Equal(x.columns[i].Domain) {
			return false
		}
	}
	return true
}

func (d DataframeDomain) AssertNonNull() error {
	var merr *multierror.Error
	for _, c := range d.columns {
		if err := c.Domain.AssertNonNull(); err != nil {
			merr = multierror.Append(merr, fmt.Errorf("column %q: %w", c.Name, err))
		}
	}
	return merr.ErrorOrNil()
}

func (d DataframeDomain) Member(v value.Value) error {
	df, err := value.AsDataframe(v)
	if err != nil {
		return err
	}
	keys := df.Keys()
	if len(keys) != len(d.columns) {
		return dperr.NewDomainMismatchError("expected %d columns, got %d", len(d.columns), len(keys))
	}
	var merr *multierror.Error
	for i, c := range d.columns {
		if keys[i] != c.Name {
			merr = multierror.Append(merr, dperr.NewDomainMismatchError("column %d: expected %q, got %q",
				i, c.Name, keys[i]))
			continue
		}
		col, _ := df.Column(c.Name)
		if err := c.Domain.Member(col); err != nil {
			merr = multierror.Append(merr, fmt.Errorf("column %q: %w", c.Name, err))
			continue
		}
		if vec, ok := col.(value.Vector); ok {
			if err := d.shape.check(vec.Len()); err != nil {
				merr = multierror.Append(merr, fmt.Errorf("column %q: %w", c.Name, err))
			}
		}
	}
	return merr.ErrorOrNil()
}

func (d DataframeDomain) String() string {
	parts := make([]string, len(d.columns))
	for i, c := range d.columns {
		parts[i] = fmt.Sprintf("%s: %s", c.Name, c.Domain)
	}
	return fmt.Sprintf("DataframeDomain(%s%s)", strings.Join(parts, ", "), d.shape)
}
