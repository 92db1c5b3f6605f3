package cli

import (
	"github.com/spf13/cobra"

	"github.com/jlrickert/mdedit/pkg/server"
)

// NewServeCmd returns the `serve` cobra command: the MCP server over stdio.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "run the MCP server over stdio",
		Long: `Serve speaks the Model Context Protocol on stdin/stdout, exposing the
md_stat, md_validate and md_apply tools. Point an MCP client at the
binary with this subcommand.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return server.Run(cmd.Context(), Version)
		},
	}
}
