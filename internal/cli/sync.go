package cli

import (
	"bytes"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// SyncOptions holds the flags of the sync command.
type SyncOptions struct {
	*RootOptions
	Output string
	Dwell  time.Duration
	Hide   bool
}

// SyncResult is the JSON payload of the sync command.
type SyncResult struct {
	Mode       string   `json:"mode"`
	IDs        []string `json:"ids"`
	ViewTarget string   `json:"view_target,omitempty"`
	Output     string   `json:"output,omitempty"`
	HTML       string   `json:"html,omitempty"`
}

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SyncOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sync <page.html>",
		Short: "Simulate a page load and write the updated page",
		Long: `Simulate a visit to a page: render cached counters, fetch fresh counters
in batches, wait while the page stays open and write the updated markup.

A page with exactly one item reports a view once the view delay has passed
during the dwell time, or immediately when --hide is given.

Example:
  POSTSTATS_RUNTIME_MODE=mock poststats sync post.html -o out.html
  poststats sync post.html --dwell 0 --hide`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the updated page here instead of stdout")
	cmd.Flags().DurationVar(&opts.Dwell, "dwell", 0, "time the page stays open (default: view delay plus 100ms)")
	cmd.Flags().BoolVar(&opts.Hide, "hide", false, "hide the page after the dwell time")

	return cmd
}

func runSync(opts *SyncOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	s, exitErr := openSession(cmd, opts.RootOptions, path)
	if exitErr != nil {
		return f.Failure(exitErr, nil)
	}

	dwell := opts.Dwell
	if !cmd.Flags().Changed("dwell") {
		dwell = s.rt.Config.ViewDelay + 100*time.Millisecond
	}

	s.rec.PageLoaded()
	if dwell > 0 {
		timer := time.NewTimer(dwell)
		select {
		case <-cmd.Context().Done():
		case <-timer.C:
		}
		timer.Stop()
	}
	if opts.Hide {
		s.rec.VisibilityChanged(true)
	}
	s.close()

	target, _ := s.rec.ViewTarget()
	result := SyncResult{
		Mode:       s.rt.Mode,
		IDs:        s.rec.IDs(),
		ViewTarget: target,
		Output:     opts.Output,
	}
	if result.IDs == nil {
		result.IDs = []string{}
	}

	if opts.Output == "" && opts.Format == "json" {
		var buf bytes.Buffer
		if err := s.doc.Render(&buf); err != nil {
			return f.Failure(WrapExitError(ExitCommandError, "failed to render page", err), nil)
		}
		result.HTML = buf.String()
		return f.Success(result)
	}
	if err := s.writePage(opts.Output, cmd.OutOrStdout()); err != nil {
		return f.Failure(WrapExitError(ExitCommandError, "failed to write page", err), nil)
	}
	if opts.Output == "" {
		return nil
	}
	return f.Success(result, fmt.Sprintf("synced %d item(s) in %s mode, wrote %s", len(result.IDs), result.Mode, opts.Output))
}
