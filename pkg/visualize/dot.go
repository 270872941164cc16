package visualize

// DotGenerator generates Graphviz DOT diagrams.
type DotGenerator struct{}

// Generate creates a Graphviz DOT diagram from the graph.
func (d *DotGenerator) Generate(g *Graph) string {
	return BuildDotGraph(g).String()
}

// Generator renders a graph into a diagram language.
type Generator interface {
	Generate(g *Graph) string
}

// NewGenerator returns the generator for a format name, "dot" or "mermaid".
func NewGenerator(format string) (Generator, bool) {
	switch format {
	case "dot":
		return &DotGenerator{}, true
	case "mermaid":
		return &MermaidGenerator{}, true
	}
	return nil, false
}
