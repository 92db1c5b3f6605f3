package cli

import (
	"github.com/spf13/cobra"

	"github.com/jlrickert/mdedit/pkg/markdown"
)

// NewValidateCmd returns the `validate` cobra command.
func NewValidateCmd() *cobra.Command {
	var autofixPreview bool

	cmd := &cobra.Command{
		Use:   "validate FILE",
		Short: "check a markdown file for structural problems",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res := markdown.Validate(cmd.Context(), args[0], autofixPreview)
			return writeResult(cmd, res, res.OK)
		},
	}

	cmd.Flags().BoolVar(&autofixPreview, "autofix-preview", false, "include a formatted preview and whether formatting would change the file")

	return cmd
}
