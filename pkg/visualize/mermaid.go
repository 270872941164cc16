package visualize

import (
	"fmt"

	"github.com/emicklei/dot"
)

// MermaidGenerator generates Mermaid flowchart diagrams, wrapped in a markdown code block.
type MermaidGenerator struct {
	// TopDown lays the flowchart out top to bottom instead of left to right.
	TopDown bool
}

func (m *MermaidGenerator) Generate(g *Graph) string {
	dir := dot.MermaidLeftToRight
	if m.TopDown {
		dir = dot.MermaidTopDown
	}
	return fmt.Sprintf("```mermaid\n%s\n```\n", dot.MermaidFlowchart(BuildMermaidGraph(g), dir))
}
