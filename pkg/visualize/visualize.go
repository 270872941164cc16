// Package visualize renders differential privacy pipelines and operation trees as diagrams.
package visualize

import (
	"fmt"
	"sort"
	"strings"

	"github.com/emicklei/dot"

	"github.com/l7mp/dpcore/pkg/core"
	"github.com/l7mp/dpcore/pkg/pipeline"
)

// NodeKind selects the rendering style of a node.
type NodeKind string

const (
	InputNode          NodeKind = "Input"
	TransformationNode NodeKind = "Transformation"
	MeasurementNode    NodeKind = "Measurement"
	SessionNode        NodeKind = "Session"
	ReleaseNode        NodeKind = "Release"
)

// Graph represents the visualization graph of a pipeline or an operation tree.
type Graph struct {
	Title string
	Nodes []Node
	Edges []Edge
}

// Node is a vertex of the graph.
type Node struct {
	ID    string
	Label string
	Kind  NodeKind
}

// Edge connects two nodes by ID.
type Edge struct {
	From, To string
	Label    string
	// Dashed marks structural edges, as opposed to data flow.
	Dashed bool
}

func (g *Graph) addNode(id, label string, kind NodeKind) string {
	g.Nodes = append(g.Nodes, Node{ID: id, Label: label, Kind: kind})
	return id
}

func (g *Graph) addEdge(from, to, label string, dashed bool) {
	g.Edges = append(g.Edges, Edge{From: from, To: to, Label: label, Dashed: dashed})
}

// BuildPipelineGraph constructs the data flow graph of a pipeline configuration: the input feeds
// the stages in order, the last stage feeds the measurements, and session queries hang off a
// session node labeled with the budget.
func BuildPipelineGraph(c *pipeline.Config) *Graph {
	g := &Graph{Title: c.Name}

	in := fmt.Sprintf("input (%s, d=%g)", c.Input.Metric, c.Input.Distance)
	last := g.addNode("input", in, InputNode)

	for i, s := range c.Stages {
		id := g.addNode(fmt.Sprintf("stage-%d", i), FormatOp(s), TransformationNode)
		g.addEdge(last, id, "", false)
		last = id
	}

	release := func(id string, op pipeline.OpConfig, label string) {
		g.addNode(id, FormatOp(op), MeasurementNode)
		g.addEdge(last, id, label, false)
		g.addNode(id+"-release", "release", ReleaseNode)
		loss := ""
		if op.Loss != nil {
			loss = FormatPrivacy(*op.Loss)
		}
		g.addEdge(id, id+"-release", loss, false)
	}

	if c.Measurement != nil {
		release("measurement", *c.Measurement, "")
	}
	for i, op := range c.Compose {
		release(fmt.Sprintf("compose-%d", i), op, "compose")
	}

	if c.Session != nil {
		b := c.Session.Budget
		sid := g.addNode("session", "session budget "+FormatPrivacy(b), SessionNode)
		g.addEdge(last, sid, "", false)
		for i, q := range c.Session.Queries {
			op := c.Measurement
			if q.Measurement != nil {
				op = q.Measurement
			}
			label := q.Name
			if label == "" {
				label = fmt.Sprintf("query-%d", i)
			}
			if op != nil {
				label += ": " + FormatOp(*op)
			}
			qid := g.addNode(fmt.Sprintf("query-%d", i), label, MeasurementNode)
			g.addEdge(sid, qid, FormatPrivacy(q.Loss), false)
		}
	}

	return g
}

// BuildOperationGraph constructs the tree of an operation: every combinator points to the
// operations it was built from.
func BuildOperationGraph(op core.Operation) *Graph {
	g := &Graph{Title: op.Name()}
	counter := 0
	var walk func(op core.Operation) string
	walk = func(op core.Operation) string {
		id := fmt.Sprintf("op-%d", counter)
		counter++
		kind := TransformationNode
		if _, ok := op.(*core.Measurement); ok {
			kind = MeasurementNode
		}
		g.addNode(id, FormatOperation(op), kind)
		for i, child := range op.Children() {
			cid := walk(child)
			g.addEdge(id, cid, fmt.Sprintf("%d", i), true)
		}
		return id
	}
	walk(op)
	return g
}

// FormatOp formats an operation configuration as "op(key=value, ...)" with sorted keys.
func FormatOp(op pipeline.OpConfig) string {
	if len(op.Args) == 0 {
		return op.Op
	}
	keys := make([]string, 0, len(op.Args))
	for k := range op.Args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, op.Args[k])
	}
	return fmt.Sprintf("%s(%s)", op.Op, strings.Join(parts, ", "))
}

// FormatPrivacy formats a privacy configuration.
func FormatPrivacy(p pipeline.PrivacyConfig) string {
	switch p.Measure {
	case "pure_dp":
		return fmt.Sprintf("ε=%g", p.Epsilon)
	case "approximate_dp":
		return fmt.Sprintf("ε=%g, δ=%g", p.Epsilon, p.Delta)
	case "zcdp":
		return fmt.Sprintf("ρ=%g", p.Rho)
	}
	return p.Measure
}

// FormatOperation formats an operation as its name and input/output signature.
func FormatOperation(op core.Operation) string {
	switch o := op.(type) {
	case *core.Transformation:
		return fmt.Sprintf("%s\n%s -> %s", o.Name(), o.InputMetric(), o.OutputMetric())
	case *core.Measurement:
		return fmt.Sprintf("%s\n%s -> %s", o.Name(), o.InputMetric(), o.OutputMeasure())
	}
	return op.Name()
}

// nodeStyler sets the per-kind node attributes of one output language.
type nodeStyler func(node dot.Node, kind NodeKind)

// BuildDotGraph creates a dot.Graph styled with Graphviz attributes, for rendering as DOT.
func BuildDotGraph(g *Graph) *dot.Graph {
	graph := buildGraph(g, func(n *Node) string { return n.Label }, styleDotNode)
	graph.Attr("rankdir", "LR")
	graph.Attr("newrank", "true")
	graph.Attr("label", g.Title)
	graph.Attr("labelloc", "t")
	graph.Attr("fontsize", "16")
	return graph
}

// BuildMermaidGraph creates a dot.Graph whose node shapes and styles are Mermaid syntax. Multi-line
// labels are joined on one line since Mermaid node text is quoted verbatim.
func BuildMermaidGraph(g *Graph) *dot.Graph {
	return buildGraph(g, func(n *Node) string { return strings.ReplaceAll(n.Label, "\n", ": ") }, styleMermaidNode)
}

func styleDotNode(node dot.Node, kind NodeKind) {
	node.Attr("fontname", "helvetica")
	switch kind {
	case InputNode:
		node.Attr("shape", "ellipse").Attr("style", "filled").Attr("fillcolor", "lightyellow")
	case TransformationNode:
		node.Attr("shape", "box").Attr("style", "filled,rounded").Attr("fillcolor", "lightblue")
	case MeasurementNode:
		node.Attr("shape", "box").Attr("style", "filled").Attr("fillcolor", "lightpink")
	case SessionNode:
		node.Attr("shape", "box").Attr("style", "filled,rounded").Attr("fillcolor", "lightcyan")
	case ReleaseNode:
		node.Attr("shape", "ellipse").Attr("style", "dashed")
	}
}

func styleMermaidNode(node dot.Node, kind NodeKind) {
	switch kind {
	case InputNode:
		node.Attr("shape", dot.MermaidShapeStadium).Attr("style", "fill:#ffffe0")
	case TransformationNode:
		node.Attr("shape", dot.MermaidShapeRound).Attr("style", "fill:#add8e6")
	case MeasurementNode:
		node.Attr("shape", dot.MermaidShapeSubroutine).Attr("style", "fill:#ffb6c1")
	case SessionNode:
		node.Attr("shape", dot.MermaidShapeRound).Attr("style", "fill:#e0ffff")
	case ReleaseNode:
		node.Attr("shape", dot.MermaidShapeCircle).Attr("style", "stroke-dasharray:5 5")
	}
}

func buildGraph(g *Graph, label func(*Node) string, style nodeStyler) *dot.Graph {
	graph := dot.NewGraph(dot.Directed)

	nodes := make(map[string]dot.Node, len(g.Nodes))
	for i := range g.Nodes {
		n := &g.Nodes[i]
		node := graph.Node(n.ID).Attr("label", label(n))
		style(node, n.Kind)
		nodes[n.ID] = node
	}

	for _, e := range g.Edges {
		from, fromExists := nodes[e.From]
		to, toExists := nodes[e.To]
		if !fromExists || !toExists {
			continue
		}
		edge := graph.Edge(from, to).Attr("fontname", "helvetica").Attr("fontsize", "10")
		if e.Label != "" {
			edge.Attr("label", e.Label)
		}
		if e.Dashed {
			edge.Attr("style", "dashed").Attr("color", "blue")
		}
	}

	return graph
}
