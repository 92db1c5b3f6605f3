// Package server exposes the editor as Model Context Protocol tools over
// stdio: md_stat, md_validate and md_apply mirror the CLI subcommands and
// return the same JSON records as structured tool output.
package server

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jlrickert/mdedit/pkg/markdown"
)

type statArgs struct {
	File string `json:"file" jsonschema:"path to the markdown file"`
}

type validateArgs struct {
	File           string `json:"file" jsonschema:"path to the markdown file"`
	AutofixPreview bool   `json:"autofixPreview,omitempty" jsonschema:"include a formatted preview and whether formatting would change the file"`
}

type applyArgs struct {
	File       string `json:"file" jsonschema:"path to the markdown file"`
	BaseSha256 string `json:"baseSha256" jsonschema:"SHA-256 of the file version the edits target"`

	// Edits stay schemaless here: the op set is closed but per-op fields
	// vary, and the kernel shape-checks them far better than a schema can.
	Edits []map[string]any `json:"edits" jsonschema:"edit operations, applied in order"`

	Atomic             *bool  `json:"atomic,omitempty" jsonschema:"all-or-nothing batch (default true)"`
	DryRun             bool   `json:"dryRun,omitempty" jsonschema:"compute the result without writing"`
	FormatMode         string `json:"formatMode,omitempty" jsonschema:"post-edit formatter: none or mdformat"`
	EnsureFinalNewline *bool  `json:"ensureFinalNewline,omitempty" jsonschema:"ensure a trailing newline (default true)"`
}

// New builds the MCP server with the three markdown tools registered.
func New(version string) *mcp.Server {
	s := mcp.NewServer(&mcp.Implementation{Name: "mdedit", Version: version}, nil)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "md_stat",
		Description: "Describe a markdown file: sections with stable IDs, code blocks, tables, front matter, content hash. Line numbers are 0-based.",
	}, handleStat)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "md_validate",
		Description: "Check a markdown file for structural problems (unbalanced code fences), optionally previewing formatter output.",
	}, handleValidate)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "md_apply",
		Description: "Apply a batch of edit operations to a markdown file, gated by a SHA-256 precondition. Positions in edits are 1-based.",
	}, handleApply)

	return s
}

// Run serves MCP over stdio until the context is done.
func Run(ctx context.Context, version string) error {
	return New(version).Run(ctx, &mcp.StdioTransport{})
}

func handleStat(ctx context.Context, req *mcp.CallToolRequest, args statArgs) (*mcp.CallToolResult, markdown.StatResult, error) {
	return nil, markdown.Stat(ctx, args.File), nil
}

func handleValidate(ctx context.Context, req *mcp.CallToolRequest, args validateArgs) (*mcp.CallToolResult, markdown.ValidateResult, error) {
	return nil, markdown.Validate(ctx, args.File, args.AutofixPreview), nil
}

func handleApply(ctx context.Context, req *mcp.CallToolRequest, args applyArgs) (*mcp.CallToolResult, markdown.ApplyResult, error) {
	opts := markdown.DefaultApplyOptions()
	opts.BaseSHA256 = args.BaseSha256
	opts.DryRun = args.DryRun
	if args.Atomic != nil {
		opts.Atomic = *args.Atomic
	}
	if args.FormatMode != "" {
		opts.FormatMode = args.FormatMode
	}
	if args.EnsureFinalNewline != nil {
		opts.EnsureFinalNewline = *args.EnsureFinalNewline
	}

	raw, err := json.Marshal(args.Edits)
	if err != nil {
		return nil, markdown.ApplyResult{
			FilePath:  args.File,
			Error:     err.Error(),
			ErrorCode: string(markdown.CodeInvalidOperation),
			DryRun:    args.DryRun,
		}, nil
	}
	edits, derr := markdown.DecodeEdits(raw)
	if derr != nil {
		return nil, markdown.ApplyResult{
			FilePath:  args.File,
			Error:     derr.Error(),
			ErrorCode: string(markdown.CodeInvalidOperation),
			DryRun:    args.DryRun,
		}, nil
	}
	opts.Edits = edits

	return nil, markdown.Apply(ctx, args.File, opts), nil
}
