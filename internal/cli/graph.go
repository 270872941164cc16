package cli

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/l7mp/dpcore/pkg/noise"
	"github.com/l7mp/dpcore/pkg/pipeline"
	"github.com/l7mp/dpcore/pkg/registry"
	"github.com/l7mp/dpcore/pkg/visualize"
)

func newGraphCommand(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Draw a pipeline as a Graphviz or Mermaid diagram",
		Example: `  dpctl graph -f pipeline.yaml | dot -Tsvg > pipeline.svg
  dpctl graph -f pipeline.yaml --format mermaid --operations`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := loadConfig(o.v.GetString("file"))
			if err != nil {
				return err
			}
			format := o.v.GetString("format")
			gen, ok := visualize.NewGenerator(format)
			if !ok {
				return errors.Errorf("unknown diagram format %q", format)
			}

			g := visualize.BuildPipelineGraph(c)
			if o.v.GetBool("operations") {
				// no data is released, so a fixed seed is fine
				p, err := pipeline.Build(c, registry.Default(), noise.NewSeeded(1), o.log)
				if err != nil {
					return err
				}
				if p.Measurement() == nil {
					return errors.New("the pipeline has no non-interactive measurement to draw")
				}
				g = visualize.BuildOperationGraph(p.Measurement())
			}

			_, err = fmt.Fprint(cmd.OutOrStdout(), gen.Generate(g))
			return err
		},
	}

	cmd.Flags().StringP("file", "f", "", "pipeline file (YAML or JSON)")
	cmd.Flags().String("format", "dot", "diagram format: dot or mermaid")
	cmd.Flags().Bool("operations", false, "draw the tree of the built measurement instead of the data flow")
	return cmd
}
