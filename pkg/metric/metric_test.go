package metric_test

import (
	"errors"
	"math"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/l7mp/dpcore/pkg/dperr"
	"github.com/l7mp/dpcore/pkg/metric"
)

func TestMetric(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Metric")
}

var _ = Describe("Data distances", func() {
	It("should order distances of the same metric", func() {
		c, ok := metric.SymmetricDistance(1).PartialCompare(metric.SymmetricDistance(2))
		Expect(ok).To(BeTrue())
		Expect(c).To(Equal(-1))
		le, err := metric.L1Distance(2).LessEqual(metric.L1Distance(2))
		Expect(err).NotTo(HaveOccurred())
		Expect(le).To(BeTrue())
	})

	It("should not compare across metrics", func() {
		_, ok := metric.SymmetricDistance(1).PartialCompare(metric.HammingDistance(1))
		Expect(ok).To(BeFalse())
		_, err := metric.L1Distance(1).LessEqual(metric.L2Distance(1))
		Expect(errors.Is(err, dperr.ErrDistanceMismatch)).To(BeTrue())
		_, err = metric.L1Distance(1).Add(metric.SymmetricDistance(1))
		Expect(errors.Is(err, dperr.ErrDistanceMismatch)).To(BeTrue())
	})

	It("should add and subtract", func() {
		d, err := metric.SymmetricDistance(2).Add(metric.SymmetricDistance(3))
		Expect(err).NotTo(HaveOccurred())
		Expect(d).To(Equal(metric.SymmetricDistance(5)))
		_, err = metric.SymmetricDistance(math.MaxUint64).Add(metric.SymmetricDistance(1))
		Expect(errors.Is(err, dperr.ErrOverflow)).To(BeTrue())
		_, err = metric.HammingDistance(1).Sub(metric.HammingDistance(2))
		Expect(errors.Is(err, dperr.ErrInvalidDistance)).To(BeTrue())
	})

	It("should validate amounts", func() {
		_, err := metric.NewDataDistance(metric.Symmetric, 1.5)
		Expect(errors.Is(err, dperr.ErrInvalidDistance)).To(BeTrue())
		_, err = metric.NewDataDistance(metric.L1Sensitivity, -1)
		Expect(errors.Is(err, dperr.ErrInvalidDistance)).To(BeTrue())
		_, ok := metric.L1Distance(math.NaN()).PartialCompare(metric.L1Distance(1))
		Expect(ok).To(BeFalse())
		d, err := metric.SymmetricDistance(3).Scale(2.5, metric.L1Sensitivity)
		Expect(err).NotTo(HaveOccurred())
		Expect(d).To(Equal(metric.L1Distance(7.5)))
	})

	It("should parse metric names", func() {
		m, err := metric.ParseMetric("L2")
		Expect(err).NotTo(HaveOccurred())
		Expect(m).To(Equal(metric.L2Sensitivity))
		_, err = metric.ParseMetric("manhattan")
		Expect(errors.Is(err, dperr.ErrMetricMismatch)).To(BeTrue())
	})
})

var _ = Describe("Privacy distances", func() {
	It("should add pure DP losses exactly", func() {
		sum, err := metric.PureDPDistance(0.3).Add(metric.PureDPDistance(0.7))
		Expect(err).NotTo(HaveOccurred())
		Expect(sum).To(Equal(metric.PureDPDistance(1.0)))
	})

	It("should add decimal amounts without rounding drift", func() {
		sum, err := metric.PureDPDistance(0.1).Add(metric.PureDPDistance(0.2))
		Expect(err).NotTo(HaveOccurred())
		Expect(sum).To(Equal(metric.PureDPDistance(0.3)))
		rem, err := metric.PureDPDistance(0.3).Sub(metric.PureDPDistance(0.1))
		Expect(err).NotTo(HaveOccurred())
		Expect(rem).To(Equal(metric.PureDPDistance(0.2)))
	})

	It("should deduct budgets exactly", func() {
		rem, err := metric.PureDPDistance(1.0).Sub(metric.PureDPDistance(0.6))
		Expect(err).NotTo(HaveOccurred())
		Expect(rem).To(Equal(metric.PureDPDistance(0.4)))
		_, err = rem.Sub(metric.PureDPDistance(0.5))
		Expect(errors.Is(err, dperr.ErrInsufficientBudget)).To(BeTrue())
	})

	It("should refuse to mix measures", func() {
		_, err := metric.PureDPDistance(1).Add(metric.ZCDPDistance(1))
		Expect(errors.Is(err, dperr.ErrPrivacyMismatch)).To(BeTrue())
		_, err = metric.PureDPDistance(1).Sub(metric.ApproxDPDistance(1, 0))
		Expect(errors.Is(err, dperr.ErrPrivacyMismatch)).To(BeTrue())
		_, ok := metric.PureDPDistance(1).PartialCompare(metric.ZCDPDistance(1))
		Expect(ok).To(BeFalse())
	})

	It("should order approximate DP partially", func() {
		a := metric.ApproxDPDistance(0.5, 1e-5)
		b := metric.ApproxDPDistance(1.0, 1e-6)
		_, ok := a.PartialCompare(b)
		Expect(ok).To(BeFalse())
		le, err := a.LessEqual(b)
		Expect(err).NotTo(HaveOccurred())
		Expect(le).To(BeFalse())

		c, ok := a.PartialCompare(metric.ApproxDPDistance(1.0, 1e-5))
		Expect(ok).To(BeTrue())
		Expect(c).To(Equal(-1))
	})

	It("should account spending against a budget", func() {
		a, err := metric.NewAccountant(metric.ApproxDPDistance(0.3, 3e-6))
		Expect(err).NotTo(HaveOccurred())
		for i := 0; i < 3; i++ {
			_, err = a.Charge(metric.ApproxDPDistance(0.1, 1e-6))
			Expect(err).NotTo(HaveOccurred())
		}
		Expect(a.Remaining()).To(Equal(metric.ApproxDPDistance(0, 0)))
		Expect(a.Spent()).To(Equal(metric.ApproxDPDistance(0.3, 3e-6)))
		_, err = a.Charge(metric.ApproxDPDistance(0.1, 0))
		Expect(errors.Is(err, dperr.ErrInsufficientBudget)).To(BeTrue())
		Expect(a.Fits(metric.ApproxDPDistance(0, 0))).To(Succeed())

		b, err := metric.NewAccountant(metric.ApproxDPDistance(1, 1e-6))
		Expect(err).NotTo(HaveOccurred())
		err = b.Fits(metric.ApproxDPDistance(0.5, 1e-5))
		Expect(errors.Is(err, dperr.ErrPrivacyMismatch)).To(BeTrue())
		err = b.Fits(metric.PureDPDistance(0.5))
		Expect(errors.Is(err, dperr.ErrPrivacyMismatch)).To(BeTrue())
		_, err = metric.NewAccountant(metric.PureDPDistance(-1))
		Expect(errors.Is(err, dperr.ErrInvalidDistance)).To(BeTrue())
	})

	It("should cap delta at one and reject invalid deltas", func() {
		s, err := metric.ApproxDPDistance(1, 0.7).Add(metric.ApproxDPDistance(1, 0.7))
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Delta()).To(Equal(1.0))
		Expect(errors.Is(metric.ApproxDPDistance(1, 2).Validate(), dperr.ErrInvalidDistance)).To(BeTrue())
	})
})
