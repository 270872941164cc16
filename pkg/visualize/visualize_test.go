package visualize

import (
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/l7mp/dpcore/internal/testutils"
	"github.com/l7mp/dpcore/pkg/core"
	"github.com/l7mp/dpcore/pkg/metric"
	"github.com/l7mp/dpcore/pkg/noise"
	"github.com/l7mp/dpcore/pkg/pipeline"
	"github.com/l7mp/dpcore/pkg/registry"
	"github.com/l7mp/dpcore/pkg/transformations"
	"github.com/l7mp/dpcore/pkg/value"
)

func TestVisualize(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Visualize")
}

const sessionPipeline = `
name: ages
input:
  domain:
    type: vector
    atom:
      type: numeric
  metric: symmetric
  distance: 1
stages:
- op: clamp
  args: {lower: 0, upper: 100}
- op: bounded_sum
measurement:
  op: laplace
  args: {scale: 100}
session:
  budget: {measure: pure_dp, epsilon: 2}
  queries:
  - name: total
    loss: {measure: pure_dp, epsilon: 1}
  - loss: {measure: pure_dp, epsilon: 0.5}
    measurement:
      op: laplace
      args: {scale: 200}
`

func nodeByID(g *Graph, id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

var _ = Describe("Pipeline graphs", func() {
	var g *Graph

	BeforeEach(func() {
		c, err := pipeline.Parse([]byte(sessionPipeline))
		Expect(err).NotTo(HaveOccurred())
		g = BuildPipelineGraph(c)
	})

	It("should lay out the data flow", func() {
		Expect(g.Title).To(Equal("ages"))
		n, ok := nodeByID(g, "stage-0")
		Expect(ok).To(BeTrue())
		Expect(n.Label).To(Equal("clamp(lower=0, upper=100)"))
		Expect(n.Kind).To(Equal(TransformationNode))

		Expect(g.Edges).To(ContainElement(Edge{From: "input", To: "stage-0"}))
		Expect(g.Edges).To(ContainElement(Edge{From: "stage-0", To: "stage-1"}))
		Expect(g.Edges).To(ContainElement(Edge{From: "stage-1", To: "measurement"}))
		Expect(g.Edges).To(ContainElement(Edge{From: "stage-1", To: "session"}))
		Expect(g.Edges).To(ContainElement(Edge{From: "session", To: "query-1", Label: "ε=0.5"}))

		q, ok := nodeByID(g, "query-0")
		Expect(ok).To(BeTrue())
		Expect(q.Label).To(Equal("total: laplace(scale=100)"))
		q, ok = nodeByID(g, "query-1")
		Expect(ok).To(BeTrue())
		Expect(q.Label).To(Equal("query-1: laplace(scale=200)"))
	})

	It("should label releases with their declared loss", func() {
		c, err := pipeline.Parse([]byte(`
name: gaussian
input:
  domain:
    type: vector
    atom: {type: numeric}
  metric: symmetric
  distance: 1
stages:
- op: clamp
  args: {lower: 0, upper: 10}
- op: bounded_sum
  args: {output_metric: l2}
measurement:
  op: gaussian
  args: {sigma: 100}
  loss: {measure: approximate_dp, epsilon: 1, delta: 1e-05}
`))
		Expect(err).NotTo(HaveOccurred())
		g := BuildPipelineGraph(c)
		Expect(g.Edges).To(ContainElement(Edge{From: "measurement", To: "measurement-release", Label: "ε=1, δ=1e-05"}))
		Expect(func() { (&MermaidGenerator{}).Generate(g) }).NotTo(Panic())
	})

	It("should render DOT", func() {
		gen, ok := NewGenerator("dot")
		Expect(ok).To(BeTrue())
		out := gen.Generate(g)
		Expect(out).To(HavePrefix("digraph"))
		Expect(out).To(ContainSubstring("session budget ε=2"))
		Expect(out).To(ContainSubstring("lightpink"))
	})

	It("should render Mermaid", func() {
		gen, ok := NewGenerator("mermaid")
		Expect(ok).To(BeTrue())
		out := gen.Generate(g)
		Expect(out).To(HavePrefix("```mermaid\n"))
		Expect(strings.TrimSpace(out)).To(HaveSuffix("```"))
		Expect(out).To(ContainSubstring("flowchart LR"))
		Expect(out).To(ContainSubstring("style n"))
		Expect(out).NotTo(ContainSubstring("lightpink"))

		out = (&MermaidGenerator{TopDown: true}).Generate(g)
		Expect(out).To(ContainSubstring("flowchart TD"))
	})

	It("should refuse unknown formats", func() {
		_, ok := NewGenerator("svg")
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("Operation graphs", func() {
	It("should draw the tree of a built pipeline", func() {
		c, err := pipeline.Parse([]byte(sessionPipeline))
		Expect(err).NotTo(HaveOccurred())
		c.Session = nil
		p, err := pipeline.Build(c, registry.Default(), noise.NewSeeded(1), testutils.NewLogger(-10))
		Expect(err).NotTo(HaveOccurred())

		g := BuildOperationGraph(p.Measurement())
		Expect(g.Nodes).To(HaveLen(5))
		Expect(g.Edges).To(HaveLen(4))
		Expect(g.Nodes[0].Kind).To(Equal(MeasurementNode))
		Expect(g.Nodes[1].Kind).To(Equal(TransformationNode))
		Expect(g.Nodes[4].Kind).To(Equal(MeasurementNode))
		Expect(g.Nodes[4].Label).To(HavePrefix("laplace"))
	})

	It("should draw chains with their components", func() {
		dom := testutils.F64Vector(nil, nil)
		clamp, err := transformations.MakeClamp(dom, metric.Symmetric, value.NumF64(0), value.NumF64(1))
		Expect(err).NotTo(HaveOccurred())
		id, err := transformations.MakeIdentity(clamp.OutputDomain(), metric.Symmetric)
		Expect(err).NotTo(HaveOccurred())
		ch, err := core.MakeTTChain(id, clamp, core.StabilityHint[metric.DataDistance](clamp))
		Expect(err).NotTo(HaveOccurred())

		g := BuildOperationGraph(ch)
		Expect(g.Nodes).To(HaveLen(3))
		Expect(g.Edges).To(HaveLen(2))
		Expect(g.Edges[0]).To(Equal(Edge{From: "op-0", To: "op-1", Label: "0", Dashed: true}))
		Expect(g.Nodes[0].Label).To(ContainSubstring(ch.Name()))
		Expect(g.Nodes[0].Label).To(ContainSubstring("symmetric -> symmetric"))

		m := testutils.ConstantMeasurement("const", dom, 1, value.NewF64(0))
		g = BuildOperationGraph(m)
		Expect(g.Nodes).To(ConsistOf(Node{ID: "op-0", Label: "const\nsymmetric -> pure_dp", Kind: MeasurementNode}))
	})

	It("should render multi-line operation labels as Mermaid", func() {
		dom := testutils.F64Vector(nil, nil)
		clamp, err := transformations.MakeClamp(dom, metric.Symmetric, value.NumF64(0), value.NumF64(1))
		Expect(err).NotTo(HaveOccurred())
		g := BuildOperationGraph(clamp)

		var out string
		Expect(func() { out = (&MermaidGenerator{}).Generate(g) }).NotTo(Panic())
		Expect(out).To(ContainSubstring(`("clamp: symmetric -&gt; symmetric")`))
		Expect(BuildDotGraph(g).String()).To(ContainSubstring("box"))
	})
})
