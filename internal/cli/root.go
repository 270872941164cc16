// Package cli implements the dpctl command line tool.
package cli

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-logr/logr"
	"github.com/lmittmann/tint"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	"github.com/l7mp/dpcore/pkg/noise"
)

const envPrefix = "DPCTL"

// options collects the global settings. Every flag can also be set with a DPCTL_* environment
// variable, e.g., DPCTL_LOG_FORMAT=tint.
type options struct {
	v         *viper.Viper
	buildInfo BuildInfo
	log       logr.Logger
	logOut    io.Writer
}

// NewRootCommand returns the dpctl command tree.
func NewRootCommand(info BuildInfo) *cobra.Command {
	return newRootCommand(info, os.Stderr)
}

func newRootCommand(info BuildInfo, logOut io.Writer) *cobra.Command {
	o := &options{v: viper.New(), buildInfo: info, logOut: logOut}

	root := &cobra.Command{
		Use:           "dpctl",
		Short:         "Run and inspect differentially private pipelines",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := o.bindFlags(cmd.Flags()); err != nil {
				return err
			}
			log, err := o.newLogger()
			if err != nil {
				return err
			}
			o.log = log
			return nil
		},
	}

	o.v.SetEnvPrefix(envPrefix)
	o.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	o.v.AutomaticEnv()

	root.PersistentFlags().String("log-format", "zap", "log format: zap or tint")
	root.PersistentFlags().IntP("verbosity", "v", 0, "log verbosity, higher is chattier")
	root.PersistentFlags().Uint64("seed", 0, "seed a reproducible, NOT cryptographically secure, noise sampler (0 uses the secure sampler)")

	root.AddCommand(newRunCommand(o), newGraphCommand(o), newListCommand(o), newVersionCommand(o))
	return root
}

// Execute runs the command tree on the process arguments.
func Execute(info BuildInfo) error {
	return NewRootCommand(info).Execute()
}

// bindFlags makes the flags of the running command visible through viper, so that a flag left at
// its default can be overridden from the environment.
func (o *options) bindFlags(fs *pflag.FlagSet) error {
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		if err == nil {
			err = o.v.BindPFlag(f.Name, f)
		}
	})
	return err
}

func (o *options) newLogger() (logr.Logger, error) {
	level := o.v.GetInt("verbosity")
	switch f := o.v.GetString("log-format"); f {
	case "zap":
		opts := zap.Options{
			Development:     true,
			DestWriter:      o.logOut,
			StacktraceLevel: zapcore.Level(3),
			TimeEncoder:     zapcore.RFC3339NanoTimeEncoder,
			Level:           zapcore.Level(-level),
		}
		return zap.New(zap.UseFlagOptions(&opts)).WithName("dpctl"), nil
	case "tint":
		h := tint.NewHandler(o.logOut, &tint.Options{
			Level:      slog.Level(-level),
			TimeFormat: "15:04:05",
		})
		return logr.FromSlogHandler(h).WithName("dpctl"), nil
	default:
		return logr.Discard(), errors.Errorf("unknown log format %q", f)
	}
}

func (o *options) sampler() (noise.Sampler, error) {
	if seed := o.v.GetUint64("seed"); seed != 0 {
		o.log.Info("using a seeded noise sampler: releases are not private", "seed", seed)
		return noise.NewSeeded(seed), nil
	}
	s, err := noise.NewSecure()
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize the noise sampler")
	}
	return s, nil
}
