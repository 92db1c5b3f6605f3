package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/jlrickert/mdedit/pkg/markdown"
)

// NewApplyCmd returns the `apply` cobra command.
//
// Usage examples:
//
//	mdedit apply README.md --base-sha256 SHA --edits '[{"op":"replace_section",...}]'
//	mdedit apply README.md --base-sha256 SHA --edits-file edits.yaml --dry-run
func NewApplyCmd() *cobra.Command {
	var (
		baseSHA        string
		editsJSON      string
		editsFile      string
		formatMode     string
		dryRun         bool
		atomic         bool
		noFinalNewline bool
	)

	cmd := &cobra.Command{
		Use:   "apply FILE",
		Short: "apply a batch of edits to a markdown file",
		Long: `Apply executes declarative edit operations against a markdown file. The
batch only runs while the file still hashes to --base-sha256; with
--atomic (the default) a single failing edit leaves the file untouched.
Positions in edits are 1-based.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := markdown.DefaultApplyOptions()
			opts.BaseSHA256 = baseSHA
			opts.Atomic = atomic
			opts.DryRun = dryRun
			opts.EnsureFinalNewline = viper.GetBool("ensure_final_newline") && !noFinalNewline
			opts.FormatMode = formatMode
			if opts.FormatMode == "" {
				opts.FormatMode = viper.GetString("format")
			}

			edits, err := loadEdits(editsJSON, editsFile)
			if err != nil {
				res := markdown.ApplyResult{
					FilePath:  args[0],
					Error:     err.Error(),
					ErrorCode: string(markdown.CodeInvalidOperation),
					DryRun:    dryRun,
				}
				return writeResult(cmd, res, false)
			}
			opts.Edits = edits

			res := markdown.Apply(cmd.Context(), args[0], opts)
			return writeResult(cmd, res, res.OK)
		},
	}

	cmd.Flags().StringVar(&baseSHA, "base-sha256", "", "SHA-256 of the file version the edits target (required)")
	cmd.Flags().StringVar(&editsJSON, "edits", "", "edit operations as a JSON list")
	cmd.Flags().StringVar(&editsFile, "edits-file", "", "file holding the edit list (JSON, or YAML by extension)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "compute the result without writing")
	cmd.Flags().BoolVar(&atomic, "atomic", true, "all-or-nothing batch")
	cmd.Flags().StringVar(&formatMode, "format", "", "post-edit formatter: none or mdformat")
	cmd.Flags().BoolVar(&noFinalNewline, "no-final-newline", false, "do not ensure a trailing newline")
	_ = cmd.MarkFlagRequired("base-sha256")

	return cmd
}

// loadEdits parses the edit list from the inline JSON flag or from a file.
// Edit files with a .yaml or .yml extension are decoded as YAML and carried
// through the same JSON shape checks.
func loadEdits(editsJSON, editsFile string) ([]markdown.Edit, error) {
	switch {
	case editsJSON != "" && editsFile != "":
		return nil, fmt.Errorf("--edits and --edits-file are mutually exclusive")
	case editsJSON != "":
		return markdown.DecodeEdits([]byte(editsJSON))
	case editsFile != "":
		raw, err := os.ReadFile(editsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read edits file: %w", err)
		}
		ext := strings.ToLower(filepath.Ext(editsFile))
		if ext == ".yaml" || ext == ".yml" {
			var v any
			if err := yaml.Unmarshal(raw, &v); err != nil {
				return nil, fmt.Errorf("edits file is not valid YAML: %w", err)
			}
			raw, err = json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("failed to convert edits file: %w", err)
			}
		}
		return markdown.DecodeEdits(raw)
	default:
		return nil, fmt.Errorf("one of --edits or --edits-file is required")
	}
}
