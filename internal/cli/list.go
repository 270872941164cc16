package cli

import (
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/l7mp/dpcore/pkg/registry"
)

func newListCommand(_ *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the constructors pipelines can refer to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg := registry.Default()
			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Op", "Kind"})
			for _, name := range reg.Names() {
				kind := "transformation"
				if _, err := reg.Measurement(name); err == nil {
					kind = "measurement"
				}
				table.Append([]string{name, kind})
			}
			table.Render()
			return nil
		},
	}
}
