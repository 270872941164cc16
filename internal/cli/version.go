package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// BuildInfo identifies the dpctl binary. The fields are set at link time via -ldflags.
type BuildInfo struct {
	Version    string
	CommitHash string
	BuildDate  string
}

func (i BuildInfo) String() string {
	return fmt.Sprintf("%s (%s) built on %s", i.Version, i.CommitHash, i.BuildDate)
}

func newVersionCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of dpctl",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "dpctl %s\n", o.buildInfo)
			return err
		},
	}
}
