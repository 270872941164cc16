package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"k8s.io/apimachinery/pkg/util/json"

	"github.com/l7mp/dpcore/pkg/pipeline"
	"github.com/l7mp/dpcore/pkg/registry"
	"github.com/l7mp/dpcore/pkg/value"
)

func loadConfig(path string) (*pipeline.Config, error) {
	if path == "" {
		return nil, errors.New("no pipeline file, use --file")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read pipeline file %s", path)
	}
	c, err := pipeline.Parse(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse pipeline file %s", path)
	}
	return c, nil
}

func newRunCommand(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Release the output of a pipeline on a JSON dataset",
		Example: `  dpctl run -f pipeline.yaml -d data.json
  DPCTL_SEED=42 dpctl run -f pipeline.yaml -d data.json -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := loadConfig(o.v.GetString("file"))
			if err != nil {
				return err
			}
			dataPath := o.v.GetString("data")
			if dataPath == "" {
				return errors.New("no data file, use --data")
			}
			raw, err := os.ReadFile(dataPath)
			if err != nil {
				return errors.Wrapf(err, "failed to read data file %s", dataPath)
			}
			data, err := pipeline.LoadData(raw, c.Data.Path, c.Input.Domain)
			if err != nil {
				return errors.Wrapf(err, "failed to load data file %s", dataPath)
			}

			sampler, err := o.sampler()
			if err != nil {
				return err
			}
			p, err := pipeline.Build(c, registry.Default(), sampler, o.log)
			if err != nil {
				return err
			}
			results, err := p.Run(data)
			if err != nil {
				return err
			}

			switch f := o.v.GetString("output"); f {
			case "table":
				writeTable(cmd.OutOrStdout(), results)
				return nil
			case "json":
				return writeJSON(cmd.OutOrStdout(), results)
			default:
				return errors.Errorf("unknown output format %q", f)
			}
		},
	}

	cmd.Flags().StringP("file", "f", "", "pipeline file (YAML or JSON)")
	cmd.Flags().StringP("data", "d", "", "dataset file (JSON)")
	cmd.Flags().StringP("output", "o", "table", "output format: table or json")
	return cmd
}

func writeTable(w io.Writer, results []pipeline.Result) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Release", "Value", "Loss", "Remaining", "Error"})
	table.SetAutoWrapText(false)
	for _, r := range results {
		row := []string{r.Name, "", r.Loss.String(), "", ""}
		if r.Release != nil {
			row[1] = value.Stringify(r.Release)
		}
		if r.Remaining != nil {
			row[3] = r.Remaining.String()
		}
		if r.Err != nil {
			row[4] = r.Err.Error()
		}
		table.Append(row)
	}
	table.Render()
}

type jsonResult struct {
	Name      string `json:"name"`
	Release   any    `json:"release,omitempty"`
	Loss      string `json:"loss"`
	Remaining string `json:"remaining,omitempty"`
	Error     string `json:"error,omitempty"`
}

func writeJSON(w io.Writer, results []pipeline.Result) error {
	out := make([]jsonResult, len(results))
	for i, r := range results {
		out[i] = jsonResult{Name: r.Name, Loss: r.Loss.String()}
		if r.Release != nil {
			out[i].Release = value.ToJSON(r.Release)
		}
		if r.Remaining != nil {
			out[i].Remaining = r.Remaining.String()
		}
		if r.Err != nil {
			out[i].Error = r.Err.Error()
		}
	}
	b, err := json.Marshal(out)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
