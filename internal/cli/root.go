package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/Ratio1/poststats_go/pkg/poststats"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// runtimeOpts are appended when a command opens a runtime.
	runtimeOpts []poststats.Option
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the poststats CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "poststats",
		Short: "poststats - view and like counters for static pages",
		Long: `Drive the post statistics client against an HTML page.

The counting service is selected from the environment: POSTSTATS_RUNTIME_MODE
(auto|http|mock), POSTSTATS_API_URL and POSTSTATS_MOCK_SEED. Device storage is
selected with POSTSTATS_STORAGE (memory|file|sqlite) and POSTSTATS_STORAGE_PATH.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewIDsCommand(opts))
	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewLikeCommand(opts))

	return cmd
}

// newLogger writes to stderr so stdout stays parseable. --verbose wins over
// POSTSTATS_LOG_LEVEL.
func newLogger(opts *RootOptions, w io.Writer, configured string) *slog.Logger {
	level := poststats.ParseLogLevel(configured)
	if opts.Verbose {
		level = slog.LevelDebug
	}
	if w == nil {
		w = os.Stderr
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}
