package transformations_test

import (
	"math"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/l7mp/dpcore/internal/testutils"
	"github.com/l7mp/dpcore/pkg/core"
	"github.com/l7mp/dpcore/pkg/domain"
	"github.com/l7mp/dpcore/pkg/dperr"
	"github.com/l7mp/dpcore/pkg/metric"
	"github.com/l7mp/dpcore/pkg/transformations"
	"github.com/l7mp/dpcore/pkg/value"
)

func TestTransformations(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Transformations")
}

func invoke(t *core.Transformation, v value.Value) value.Value {
	out, err := t.Invoke(core.NewLiteral(v))
	Expect(err).NotTo(HaveOccurred())
	ret, err := core.Unwrap(out)
	Expect(err).NotTo(HaveOccurred())
	return ret
}

func interval(d domain.Domain) domain.Interval {
	var atom domain.ScalarDomain
	switch x := d.(type) {
	case domain.VectorDomain:
		atom = x.Atom()
	case domain.ScalarDomain:
		atom = x
	default:
		Fail("not a scalar or vector domain")
	}
	i, err := atom.Interval()
	Expect(err).NotTo(HaveOccurred())
	return i
}

func closed(lo, hi float64) domain.Interval {
	i, err := domain.Closed(value.NumF64(lo), value.NumF64(hi))
	Expect(err).NotTo(HaveOccurred())
	return i
}

var _ = Describe("Identity", func() {
	It("should pass data through", func() {
		t, err := transformations.MakeIdentity(testutils.F64Vector(nil, nil), metric.Symmetric)
		Expect(err).NotTo(HaveOccurred())
		Expect(value.Equal(invoke(t, value.F64Vector(1, 2)), value.F64Vector(1, 2))).To(BeTrue())
		ok, err := t.Check(metric.SymmetricDistance(3), metric.SymmetricDistance(3))
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
	})
})

var _ = Describe("Clamp", func() {
	It("should bound an unbounded domain", func() {
		t, err := transformations.MakeClamp(testutils.F64Vector(nil, nil), metric.Symmetric,
			value.NumF64(0), value.NumF64(10))
		Expect(err).NotTo(HaveOccurred())
		Expect(interval(t.OutputDomain()).Equal(closed(0, 10))).To(BeTrue())
		Expect(value.Equal(invoke(t, value.F64Vector(-5, 3, 15)), value.F64Vector(0, 3, 10))).To(BeTrue())
	})

	It("should narrow, not widen, a bounded domain", func() {
		t, err := transformations.MakeClamp(testutils.BoundedF64Vector(2, 10), metric.Symmetric,
			value.NumF64(0), value.NumF64(20))
		Expect(err).NotTo(HaveOccurred())
		Expect(interval(t.OutputDomain()).Equal(closed(2, 10))).To(BeTrue())
	})

	It("should intersect partially overlapping bounds", func() {
		t, err := transformations.MakeClamp(testutils.BoundedF64Vector(2, 10), metric.Hamming,
			value.NumF64(5), value.NumF64(20))
		Expect(err).NotTo(HaveOccurred())
		Expect(interval(t.OutputDomain()).Equal(closed(5, 10))).To(BeTrue())
	})

	It("should reject inverted bounds", func() {
		_, err := transformations.MakeClamp(testutils.F64Vector(nil, nil), metric.Symmetric,
			value.NumF64(10), value.NumF64(0))
		Expect(err).To(MatchError(dperr.ErrInvalidDomain))
	})

	It("should reject bounds of another kind", func() {
		_, err := transformations.MakeClamp(testutils.BoundedF64Vector(0, 1), metric.Symmetric,
			value.NumI64(0), value.NumI64(1))
		Expect(err).To(MatchError(dperr.ErrAtomicMismatch))
	})

	It("should reject integer bounds on an unbounded float domain", func() {
		_, err := transformations.MakeClamp(testutils.F64Vector(nil, nil), metric.Symmetric,
			value.NumI64(0), value.NumI64(10))
		Expect(err).To(MatchError(dperr.ErrAtomicMismatch))
	})

	It("should refuse integer data on an unbounded float domain", func() {
		t, err := transformations.MakeClamp(testutils.F64Vector(nil, nil), metric.Symmetric,
			value.NumF64(0), value.NumF64(10))
		Expect(err).NotTo(HaveOccurred())
		_, err = t.Invoke(core.NewLiteral(value.I64Vector(-5, 3, 15)))
		Expect(err).To(MatchError(dperr.ErrAtomicMismatch))
	})

	It("should reject sensitivity metrics", func() {
		_, err := transformations.MakeClamp(testutils.F64Vector(nil, nil), metric.L1Sensitivity,
			value.NumF64(0), value.NumF64(1))
		Expect(err).To(MatchError(dperr.ErrMetricMismatch))
	})

	It("should reject categorical vectors", func() {
		atom, err := domain.CategoricalScalar(nil, false)
		Expect(err).NotTo(HaveOccurred())
		dom, err := domain.NewVectorDomain(atom)
		Expect(err).NotTo(HaveOccurred())
		_, err = transformations.MakeClamp(dom, metric.Symmetric, value.NumF64(0), value.NumF64(1))
		Expect(err).To(MatchError(dperr.ErrInvalidDomain))
	})
})

var _ = Describe("Bounded sum", func() {
	It("should compute the symmetric sensitivity", func() {
		t, err := transformations.MakeBoundedSum(testutils.BoundedF64Vector(-3, 2), metric.Symmetric,
			metric.L1Sensitivity)
		Expect(err).NotTo(HaveOccurred())
		d, err := t.Map(metric.SymmetricDistance(2))
		Expect(err).NotTo(HaveOccurred())
		Expect(d).To(Equal(metric.L1Distance(6)))
		Expect(value.Equal(invoke(t, value.F64Vector(-3, 2, 1.5)), value.NewF64(0.5))).To(BeTrue())
	})

	It("should compute the Hamming sensitivity", func() {
		t, err := transformations.MakeBoundedSum(testutils.BoundedF64Vector(-3, 2, domain.WithLength(3)),
			metric.Hamming, metric.L2Sensitivity)
		Expect(err).NotTo(HaveOccurred())
		ok, err := t.Check(metric.HammingDistance(1), metric.L2Distance(5))
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		ok, err = t.Check(metric.HammingDistance(1), metric.L2Distance(4.5))
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
	})

	It("should scale the output interval by the length", func() {
		t, err := transformations.MakeBoundedSum(testutils.BoundedF64Vector(-1, 2, domain.WithLength(100)),
			metric.Symmetric, metric.L1Sensitivity)
		Expect(err).NotTo(HaveOccurred())
		Expect(interval(t.OutputDomain()).Equal(closed(-100, 200))).To(BeTrue())
	})

	It("should keep the element kind on an unknown length", func() {
		atom, err := domain.BoundedScalar(value.NumI64(0), value.NumI64(10), false)
		Expect(err).NotTo(HaveOccurred())
		dom, err := domain.NewVectorDomain(atom)
		Expect(err).NotTo(HaveOccurred())
		t, err := transformations.MakeBoundedSum(dom, metric.Symmetric, metric.L1Sensitivity)
		Expect(err).NotTo(HaveOccurred())
		i := interval(t.OutputDomain())
		Expect(i.Kind()).To(Equal(value.I64))
		Expect(i.IsBounded()).To(BeFalse())
	})

	It("should detect overflow of the output interval", func() {
		lo, hi := value.NumI8(-100), value.NumI8(100)
		atom, err := domain.BoundedScalar(lo, hi, false)
		Expect(err).NotTo(HaveOccurred())
		dom, err := domain.NewVectorDomain(atom, domain.WithLength(10))
		Expect(err).NotTo(HaveOccurred())
		_, err = transformations.MakeBoundedSum(dom, metric.Symmetric, metric.L1Sensitivity)
		Expect(err).To(MatchError(dperr.ErrOverflow))
	})

	It("should detect overflow at invocation", func() {
		t, err := transformations.MakeBoundedSum(testutils.BoundedF64Vector(0, math.MaxFloat64),
			metric.Symmetric, metric.L1Sensitivity)
		Expect(err).NotTo(HaveOccurred())
		_, err = t.Invoke(core.NewLiteral(value.F64Vector(math.MaxFloat64, math.MaxFloat64)))
		Expect(err).To(MatchError(dperr.ErrOverflow))
	})

	It("should require bounds", func() {
		_, err := transformations.MakeBoundedSum(testutils.F64Vector(nil, nil), metric.Symmetric,
			metric.L1Sensitivity)
		Expect(err).To(MatchError(dperr.ErrUnknownBound))
	})

	It("should require non-null elements", func() {
		nullable := testutils.BoundedF64Vector(0, 1)
		nullable = nullable.WithAtom(nullable.Atom().WithNullity(true))
		_, err := transformations.MakeBoundedSum(nullable, metric.Symmetric, metric.L1Sensitivity)
		Expect(err).To(MatchError(dperr.ErrPotentialNullity))
	})

	It("should reject row output metrics", func() {
		_, err := transformations.MakeBoundedSum(testutils.BoundedF64Vector(0, 1), metric.Symmetric,
			metric.Symmetric)
		Expect(err).To(MatchError(dperr.ErrMetricMismatch))
	})
})

var _ = Describe("Count", func() {
	It("should count rows", func() {
		t, err := transformations.MakeCount(testutils.F64Vector(nil, nil), metric.Symmetric, metric.L1Sensitivity)
		Expect(err).NotTo(HaveOccurred())
		Expect(value.Equal(invoke(t, value.F64Vector(1, 2, 3)), value.NewI64(3))).To(BeTrue())
		d, err := t.Map(metric.SymmetricDistance(4))
		Expect(err).NotTo(HaveOccurred())
		Expect(d).To(Equal(metric.L1Distance(4)))
	})

	It("should be insensitive to substitutions", func() {
		t, err := transformations.MakeCount(testutils.F64Vector(nil, nil), metric.Hamming, metric.L1Sensitivity)
		Expect(err).NotTo(HaveOccurred())
		d, err := t.Map(metric.HammingDistance(4))
		Expect(err).NotTo(HaveOccurred())
		Expect(d).To(Equal(metric.L1Distance(0)))
	})
})

var _ = Describe("Dataframe columns", func() {
	var dom domain.DataframeDomain
	var df value.Dataframe

	BeforeEach(func() {
		strAtom, err := domain.CategoricalScalar(nil, false)
		Expect(err).NotTo(HaveOccurred())
		strCol, err := domain.NewVectorDomain(strAtom)
		Expect(err).NotTo(HaveOccurred())
		dom, err = domain.NewDataframeDomain([]domain.Column{
			{Name: "name", Domain: strCol},
			{Name: "age", Domain: strCol},
		})
		Expect(err).NotTo(HaveOccurred())
		df = value.NewDataframe().
			With("name", value.StringVector("alice", "bob")).
			With("age", value.StringVector("42", "n/a"))
	})

	It("should select a column", func() {
		t, err := transformations.MakeSelectColumn(dom, metric.Symmetric, "name")
		Expect(err).NotTo(HaveOccurred())
		Expect(value.Equal(invoke(t, df), value.StringVector("alice", "bob"))).To(BeTrue())
		_, err = transformations.MakeSelectColumn(dom, metric.Symmetric, "salary")
		Expect(err).To(MatchError(dperr.ErrInvalidDomain))
	})

	It("should parse a column and null out failures", func() {
		t, err := transformations.MakeParseColumn(dom, metric.Symmetric, "age", value.I64)
		Expect(err).NotTo(HaveOccurred())
		out, err := value.AsDataframe(invoke(t, df))
		Expect(err).NotTo(HaveOccurred())
		age, err := out.Column("age")
		Expect(err).NotTo(HaveOccurred())
		want, err := value.NewVector(value.I64, true, value.NewI64(42), value.Null(value.I64))
		Expect(err).NotTo(HaveOccurred())
		Expect(value.Equal(age, want)).To(BeTrue())

		col, err := t.OutputDomain().(domain.DataframeDomain).Column("age")
		Expect(err).NotTo(HaveOccurred())
		Expect(col.(domain.VectorDomain).Atom().MayHaveNullity()).To(BeTrue())
		Expect(t.OutputDomain().Member(out)).To(Succeed())
	})

	It("should reject unsupported casts", func() {
		_, err := transformations.MakeParseColumn(dom, metric.Symmetric, "age", value.String)
		Expect(err).To(MatchError(dperr.ErrUnsupportedCast))
	})

	It("should chain select, parse and impute", func() {
		parse, err := transformations.MakeParseColumn(dom, metric.Symmetric, "age", value.F64)
		Expect(err).NotTo(HaveOccurred())
		sel, err := transformations.MakeSelectColumn(parse.OutputDomain().(domain.DataframeDomain), metric.Symmetric, "age")
		Expect(err).NotTo(HaveOccurred())
		impute, err := transformations.MakeImputeConstant(sel.OutputDomain().(domain.VectorDomain), metric.Symmetric, value.NewF64(0))
		Expect(err).NotTo(HaveOccurred())

		c, err := core.MakeTTChain(sel, parse, core.StabilityHint[metric.DataDistance](parse))
		Expect(err).NotTo(HaveOccurred())
		c, err = core.MakeTTChain(impute, c, core.StabilityHint[metric.DataDistance](c))
		Expect(err).NotTo(HaveOccurred())
		Expect(value.Equal(invoke(c, df), value.F64Vector(42, 0))).To(BeTrue())
		ok, err := c.Check(metric.SymmetricDistance(1), metric.SymmetricDistance(1))
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
	})
})
