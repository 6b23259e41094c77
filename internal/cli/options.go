package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"resource-index/internal/index"
	"resource-index/internal/logging"
)

// Output formats accepted by --format.
const (
	formatAuto = "auto"
	formatText = "text"
	formatJSON = "json"
)

// Options holds the flags shared by every subcommand.
type Options struct {
	Format   string
	LogLevel string
	Workers  int
}

type optionsKey struct{}

func withOptionsContext(cmd *cobra.Command, opts *Options) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, optionsKey{}, opts))
}

func optionsFrom(cmd *cobra.Command) *Options {
	if opts, ok := cmd.Context().Value(optionsKey{}).(*Options); ok {
		return opts
	}
	return nil
}

// Prepare validates the options and applies the log level.
func (o *Options) Prepare() error {
	o.Format = strings.ToLower(strings.TrimSpace(o.Format))
	switch o.Format {
	case formatAuto, formatText, formatJSON:
	default:
		return fmt.Errorf("invalid --format %q (expected: auto|text|json)", o.Format)
	}

	if o.Workers < 0 {
		return fmt.Errorf("workers must be >= 0")
	}

	if o.LogLevel != "" {
		level, ok := logging.ParseLevel(o.LogLevel)
		if !ok {
			return fmt.Errorf("invalid --log-level %q", o.LogLevel)
		}
		logging.SetLevel(level)
	}

	return nil
}

// JSON reports whether output written to w should be JSON. In auto mode
// terminals get text and everything else gets JSON.
func (o *Options) JSON(w io.Writer) bool {
	switch o.Format {
	case formatJSON:
		return true
	case formatText:
		return false
	}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return false
	}
	return true
}

func (o *Options) indexOptions() []index.Option {
	return []index.Option{index.WithWorkers(o.Workers)}
}

func bindFlags(cmd *cobra.Command, opts *Options) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.Format, "format", formatAuto, "output format: auto|text|json")
	flags.StringVar(&opts.LogLevel, "log-level", "", "log level: trace|debug|info|warn|error (default from LOG_LEVEL)")
	flags.IntVarP(&opts.Workers, "workers", "j", 0, "number of parallel scan workers (default: CPU count)")
}
