package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ratio1/poststats_go/pkg/reconcile"
)

// LikeOptions holds the flags of the like command.
type LikeOptions struct {
	*RootOptions
	Output string
}

// LikeResult is the JSON payload of the like command.
type LikeResult struct {
	ID      string `json:"id"`
	Outcome string `json:"outcome"`
	Likes   int64  `json:"likes"`
}

// NewLikeCommand creates the like command.
func NewLikeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LikeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "like <page.html> <id>",
		Short: "Load a page and like one of its items",
		Long: `Load a page and activate the like control of an item.

The device remembers likes in its storage, so with a persistent
POSTSTATS_STORAGE a second run reports already-liked without contacting the
service. A rejected like exits with status 1.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLike(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the updated page here")

	return cmd
}

func runLike(opts *LikeOptions, path, id string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	s, exitErr := openSession(cmd, opts.RootOptions, path)
	if exitErr != nil {
		return f.Failure(exitErr, nil)
	}

	outcome, likeErr := s.rec.Like(cmd.Context(), id)
	s.close()

	result := LikeResult{ID: id, Outcome: outcome.String(), Likes: s.doc.DisplayedLikes(id)}
	if opts.Output != "" {
		if err := s.writePage(opts.Output, nil); err != nil {
			return f.Failure(WrapExitError(ExitCommandError, "failed to write page", err), nil)
		}
	}
	if outcome == reconcile.LikeFailed {
		return f.Failure(WrapExitError(ExitFailure, "like failed", likeErr), result)
	}
	return f.Success(result, fmt.Sprintf("%s: %s (%d likes)", id, result.Outcome, result.Likes))
}
