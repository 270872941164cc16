package value_test

import (
	"errors"
	"math"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/l7mp/dpcore/pkg/dperr"
	"github.com/l7mp/dpcore/pkg/value"
)

func TestValue(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Value")
}

var numericScalars = []value.Scalar{
	value.NewI8(-8), value.NewI16(16), value.NewI32(-32), value.NewI64(64),
	value.NewU8(8), value.NewU16(16), value.NewU32(32), value.NewU64(64),
	value.NewF32(3.5), value.NewF64(-2.25), value.Null(value.F64), value.NewF64(1).AsNullable(),
}

var _ = Describe("Scalars", func() {
	It("should round-trip every numeric scalar through narrowing and widening", func() {
		for _, s := range numericScalars {
			n, err := s.ToNumeric()
			Expect(err).NotTo(HaveOccurred())
			var v value.Value = n.ToScalar()
			Expect(value.Equal(v, value.Value(s))).To(BeTrue(), s.String())
		}
	})

	It("should refuse to narrow a string to numeric", func() {
		_, err := value.NewString("abc").ToNumeric()
		Expect(errors.Is(err, dperr.ErrAtomicMismatch)).To(BeTrue())
	})

	It("should refuse to narrow a float to categorical", func() {
		_, err := value.NewF64(1.5).ToCategorical()
		Expect(errors.Is(err, dperr.ErrAtomicMismatch)).To(BeTrue())

		c, err := value.NewI32(4).ToCategorical()
		Expect(err).NotTo(HaveOccurred())
		Expect(c.ToScalar()).To(Equal(value.NewI32(4)))
	})

	It("should not coerce between widths", func() {
		_, err := value.NumI64(1).CheckedAdd(value.NumI32(1))
		Expect(errors.Is(err, dperr.ErrAtomicMismatch)).To(BeTrue())
		_, err = value.NumF64(1).Compare(value.NumF32(1))
		Expect(errors.Is(err, dperr.ErrAtomicMismatch)).To(BeTrue())
	})

	It("should check the range of typed integer constructors", func() {
		_, err := value.NewInt(value.I8, 128)
		Expect(errors.Is(err, dperr.ErrOverflow)).To(BeTrue())
		s, err := value.NewInt(value.U16, 65535)
		Expect(err).NotTo(HaveOccurred())
		Expect(s).To(Equal(value.NewU16(65535)))
		_, err = value.NewInt(value.F64, 1)
		Expect(errors.Is(err, dperr.ErrAtomicMismatch)).To(BeTrue())
	})

	It("should report nullity when reading a null scalar", func() {
		_, err := value.Null(value.I64).GetInt()
		Expect(errors.Is(err, dperr.ErrPotentialNullity)).To(BeTrue())
	})

	It("should parse textual scalars", func() {
		s, err := value.ParseScalar(value.I32, "-12")
		Expect(err).NotTo(HaveOccurred())
		Expect(s).To(Equal(value.NewI32(-12)))
		_, err = value.ParseScalar(value.U8, "300")
		Expect(errors.Is(err, dperr.ErrUnsupportedCast)).To(BeTrue())
		_, err = value.ParseScalar(value.F64, "abc")
		Expect(errors.Is(err, dperr.ErrUnsupportedCast)).To(BeTrue())
	})
})

var _ = Describe("Checked arithmetic", func() {
	It("should add and multiply within range", func() {
		r, err := value.NumI64(40).CheckedAdd(value.NumI64(2))
		Expect(err).NotTo(HaveOccurred())
		Expect(r.ToScalar()).To(Equal(value.NewI64(42)))

		r, err = value.NumF64(2.5).MulCount(4)
		Expect(err).NotTo(HaveOccurred())
		Expect(r.ToScalar()).To(Equal(value.NewF64(10)))
	})

	It("should detect integer overflow per width", func() {
		a, _ := value.NewI8(100).ToNumeric()
		_, err := a.CheckedAdd(a)
		Expect(errors.Is(err, dperr.ErrOverflow)).To(BeTrue())

		_, err = value.NumI64(math.MaxInt64).CheckedAdd(value.NumI64(1))
		Expect(errors.Is(err, dperr.ErrOverflow)).To(BeTrue())

		_, err = value.NumI64(math.MinInt64).Abs()
		Expect(errors.Is(err, dperr.ErrOverflow)).To(BeTrue())

		_, err = value.NumU64(1).CheckedSub(value.NumU64(2))
		Expect(errors.Is(err, dperr.ErrOverflow)).To(BeTrue())

		_, err = value.NumI64(math.MaxInt64 / 2).MulCount(3)
		Expect(errors.Is(err, dperr.ErrOverflow)).To(BeTrue())
	})

	It("should detect float overflow to infinity", func() {
		_, err := value.NumF64(math.MaxFloat64).MulCount(2)
		Expect(errors.Is(err, dperr.ErrOverflow)).To(BeTrue())
	})

	It("should order and take extrema", func() {
		c, err := value.NumF64(-1).Compare(value.NumF64(2))
		Expect(err).NotTo(HaveOccurred())
		Expect(c).To(Equal(-1))
		m, err := value.NumI64(-7).Abs()
		Expect(err).NotTo(HaveOccurred())
		Expect(m).To(Equal(value.NumI64(7)))
		mx, err := value.NumI64(3).Max(value.NumI64(9))
		Expect(err).NotTo(HaveOccurred())
		Expect(mx).To(Equal(value.NumI64(9)))
	})
})

var _ = Describe("Vectors and dataframes", func() {
	It("should reject heterogeneous vectors", func() {
		_, err := value.NewVector(value.F64, false, value.NewF64(1), value.NewI64(2))
		Expect(errors.Is(err, dperr.ErrAtomicMismatch)).To(BeTrue())
	})

	It("should reject nulls in non-nullable vectors", func() {
		_, err := value.NewVector(value.F64, false, value.NewF64(1), value.Null(value.F64))
		Expect(errors.Is(err, dperr.ErrPotentialNullity)).To(BeTrue())

		v, err := value.NewVector(value.F64, true, value.NewF64(1), value.Null(value.F64))
		Expect(err).NotTo(HaveOccurred())
		Expect(v.HasNull()).To(BeTrue())
		Expect(v.At(0).IsNullable()).To(BeTrue())
	})

	It("should keep column order in dataframes", func() {
		df := value.NewDataframe().With("b", value.I64Vector(1)).With("a", value.StringVector("x"))
		Expect(df.Keys()).To(Equal([]string{"b", "a"}))
		df2 := df.With("b", value.I64Vector(2))
		Expect(df2.Keys()).To(Equal([]string{"b", "a"}))
		Expect(df.Equal(df2)).To(BeFalse())
		Expect(df2.Without("b").Keys()).To(Equal([]string{"a"}))
		_, err := df.Column("c")
		Expect(err).To(HaveOccurred())
	})

	It("should narrow values by shape", func() {
		_, err := value.AsVector(value.NewF64(1))
		Expect(errors.Is(err, dperr.ErrAtomicMismatch)).To(BeTrue())
		_, err = value.AsScalar(value.F64Vector(1))
		Expect(errors.Is(err, dperr.ErrAtomicMismatch)).To(BeTrue())
	})
})

var _ = Describe("JSON codec", func() {
	It("should infer kinds from JSON", func() {
		v, err := value.Unmarshal([]byte(`{"age": [1, 2.5, null], "name": ["a", "b", "c"], "n": 3}`))
		Expect(err).NotTo(HaveOccurred())
		df, err := value.AsDataframe(v)
		Expect(err).NotTo(HaveOccurred())
		Expect(df.Keys()).To(Equal([]string{"age", "n", "name"}))

		age, _ := df.Column("age")
		vec, err := value.AsVector(age)
		Expect(err).NotTo(HaveOccurred())
		Expect(vec.Kind()).To(Equal(value.F64))
		Expect(vec.IsNullable()).To(BeTrue())
		Expect(vec.At(0)).To(Equal(value.NewF64(1).AsNullable()))

		n, _ := df.Column("n")
		Expect(n).To(Equal(value.Value(value.NewI64(3))))
	})

	It("should reject mixed non-numeric lists", func() {
		_, err := value.Unmarshal([]byte(`[1, "a"]`))
		Expect(errors.Is(err, dperr.ErrAtomicMismatch)).To(BeTrue())
	})

	It("should stringify values as JSON", func() {
		Expect(value.Stringify(value.F64Vector(1.5, 2))).To(Equal("[1.5,2]"))
		Expect(value.Stringify(value.NewDataframe().With("x", value.NewBool(true)))).To(Equal(`{"x":true}`))
	})
})

var _ = Describe("Casts", func() {
	It("should convert exactly between numeric kinds", func() {
		f, err := value.NewI64(42).Cast(value.F64)
		Expect(err).NotTo(HaveOccurred())
		Expect(f).To(Equal(value.NewF64(42)))
		i, err := value.NewF64(-3).Cast(value.I8)
		Expect(err).NotTo(HaveOccurred())
		Expect(i).To(Equal(value.NewI8(-3)))
		n, err := value.Null(value.I64).Cast(value.F64)
		Expect(err).NotTo(HaveOccurred())
		Expect(n.IsNull()).To(BeTrue())
	})

	It("should refuse inexact or out of range casts", func() {
		_, err := value.NewF64(1.5).Cast(value.I64)
		Expect(errors.Is(err, dperr.ErrUnsupportedCast)).To(BeTrue())
		_, err = value.NewI64(300).Cast(value.U8)
		Expect(errors.Is(err, dperr.ErrOverflow)).To(BeTrue())
		_, err = value.NewString("1").Cast(value.I64)
		Expect(errors.Is(err, dperr.ErrUnsupportedCast)).To(BeTrue())
		_, err = value.NewI64(1<<53 + 1).Cast(value.F64)
		Expect(errors.Is(err, dperr.ErrUnsupportedCast)).To(BeTrue())
	})

	It("should refuse rounding when narrowing to f32", func() {
		_, err := value.NewF64(0.1).Cast(value.F32)
		Expect(errors.Is(err, dperr.ErrUnsupportedCast)).To(BeTrue())
		_, err = value.NewI64(1<<24 + 1).Cast(value.F32)
		Expect(errors.Is(err, dperr.ErrUnsupportedCast)).To(BeTrue())
		f, err := value.NewF64(0.5).Cast(value.F32)
		Expect(err).NotTo(HaveOccurred())
		Expect(f).To(Equal(value.NewF32(0.5)))
		_, err = value.NewF64(1e300).Cast(value.F32)
		Expect(errors.Is(err, dperr.ErrOverflow)).To(BeTrue())
	})

	It("should read decimals as the nearest f32", func() {
		f, err := value.NewF64(0.1).CastDecimal(value.F32)
		Expect(err).NotTo(HaveOccurred())
		Expect(f).To(Equal(value.NewF32(0.1)))
		_, err = value.NewF64(1.5).CastDecimal(value.I64)
		Expect(errors.Is(err, dperr.ErrUnsupportedCast)).To(BeTrue())
		v, err := value.F64Vector(0.1, 2).CastDecimal(value.F32)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.Kind()).To(Equal(value.F32))
	})

	It("should cast vectors elementwise", func() {
		v, err := value.I64Vector(1, 2).Cast(value.F64)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.Equal(value.F64Vector(1, 2))).To(BeTrue())
	})
})
