package cli

import (
	"github.com/spf13/cobra"

	"github.com/jlrickert/mdedit/pkg/markdown"
)

// NewStatCmd returns the `stat` cobra command.
//
// Usage examples:
//
//	mdedit stat README.md
//	mdedit stat docs/guide.md
func NewStatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stat FILE",
		Short: "describe a markdown file's structure",
		Long: `Stat prints the structural index of a markdown file: sections with raw
and canonical heading paths and stable section IDs, fenced code blocks,
tables, front matter, plus the content hash, encoding and line ending
style. Line numbers in the output are 0-based.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res := markdown.Stat(cmd.Context(), args[0])
			return writeResult(cmd, res, res.OK)
		},
	}
}
