package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Ratio1/poststats_go/pkg/page"
)

// NewIDsCommand creates the ids command.
func NewIDsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ids <page.html>",
		Short: "List the item ids found on a page",
		Long: `List the ids of the stat containers of a page in document order.

Like controls are not containers. Duplicates are kept, so the output shows
exactly what a page load would request.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			doc, err := loadDocument(args[0])
			if err != nil {
				return f.Failure(err, nil)
			}
			ids := doc.CollectIDs()
			if ids == nil {
				ids = []string{}
			}
			return f.Success(map[string]any{"ids": ids}, ids...)
		},
	}
}

func loadDocument(path string) (*page.Document, *ExitError) {
	file, err := os.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open page", err)
	}
	defer file.Close()
	doc, err := page.Parse(file)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to parse page", err)
	}
	return doc, nil
}
