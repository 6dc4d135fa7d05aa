// Package cli implements the camwork command line.
package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ivlev/camwork/internal/config"
	"github.com/ivlev/camwork/internal/engine"
	"github.com/ivlev/camwork/internal/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format     string // "text" | "json" | "yaml"
	LogLevel   string
	TuningPath string
	Workers    int
	Runtime    config.Runtime
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json", "yaml"}

// NewRootCommand creates the root command. rt supplies flag defaults.
func NewRootCommand(rt config.Runtime) *cobra.Command {
	opts := &RootOptions{Runtime: rt}

	cmd := &cobra.Command{
		Use:           "camwork",
		Short:         "Camera motion synthesis",
		Long:          "Turns per-segment emotion, importance and face signals into virtual camera keyframes.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if opts.Workers < 0 {
				return NewExitError(ExitCommandError, "workers must not be negative")
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json|yaml)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", rt.LogLevel, "log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&opts.TuningPath, "tuning", rt.TuningPath, "YAML file overriding the default rule and sequence tuning")
	cmd.PersistentFlags().IntVar(&opts.Workers, "workers", rt.Workers, "rule evaluation workers (0 = number of CPUs)")

	cmd.AddCommand(NewSynthesizeCommand(opts))
	cmd.AddCommand(NewRulesCommand(opts))
	cmd.AddCommand(NewPreviewCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// logger writes JSON logs to w, normally the command's stderr
func (o *RootOptions) logger(w io.Writer) *slog.Logger {
	return logging.NewLogger(o.LogLevel, w)
}

// synthesizer builds an engine from the tuning file, if any
func (o *RootOptions) synthesizer(logger *slog.Logger) (*engine.Synthesizer, error) {
	tuning := config.DefaultTuning()
	if o.TuningPath != "" {
		loaded, err := config.LoadTuning(o.TuningPath)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to load tuning", err)
		}
		tuning = loaded
	}

	return engine.NewSynthesizer(engine.Options{
		Tuning:  tuning,
		Workers: o.Workers,
		Logger:  logger,
	}), nil
}
