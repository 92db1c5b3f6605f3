package markdown

import (
	"context"
	"errors"
	"fmt"

	"github.com/jlrickert/mdedit/pkg/log"
)

// The three public operations. Each returns a result record rather than an
// error: failures are values with an ok flag and a code from the closed set,
// ready for JSON emission. The pipeline is pure over (path, inputs) up to
// the final write; the SHA-256 precondition is the only concurrency
// primitive.

// ApplyOptions carries everything apply needs beyond the path.
type ApplyOptions struct {
	// BaseSHA256 is the caller's evidence of which file version the edits
	// target. Apply proceeds only while the file still hashes to it.
	BaseSHA256 string

	// Edits are applied in list order with no reparse between them.
	Edits []Edit

	// Atomic makes the batch all-or-nothing: the first failing edit aborts
	// and nothing is written. A batch of several edits fails with
	// CONFLICTING_EDITS; a batch of one edit reports that edit's own code.
	Atomic bool

	// DryRun computes the result (hash, diff, matches) without writing.
	DryRun bool

	// FormatMode selects the post-edit formatter ("none" or "mdformat").
	FormatMode string

	// PreserveEOL is accepted for wire compatibility and reserved; the line
	// ending style is always preserved.
	PreserveEOL bool

	// PreserveEncoding re-encodes with the original encoding (BOM included).
	// When false the output is plain UTF-8.
	PreserveEncoding bool

	// EnsureFinalNewline appends one terminator when the result lacks one.
	EnsureFinalNewline bool
}

// DefaultApplyOptions mirrors the original tool's defaults: atomic, no
// formatting, everything preserved, final newline ensured.
func DefaultApplyOptions() ApplyOptions {
	return ApplyOptions{
		Atomic:             true,
		FormatMode:         "none",
		PreserveEOL:        true,
		PreserveEncoding:   true,
		EnsureFinalNewline: true,
	}
}

// errorCodeOf extracts the wire code from an error chain, defaulting to
// IO_ERROR for untyped failures.
func errorCodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return string(e.Code)
	}
	return string(CodeIOError)
}

// errorMessageOf extracts the bare message from an error chain.
func errorMessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Cause)
		}
		return e.Message
	}
	return err.Error()
}

// Stat loads and indexes a file and returns its structural description. All
// line numbers in the result are 0-based.
func Stat(ctx context.Context, path string) StatResult {
	doc, err := Load(ctx, path)
	if err != nil {
		return StatResult{Error: errorMessageOf(err), ErrorCode: errorCodeOf(err)}
	}

	res := StatResult{
		OK:             true,
		FilePath:       doc.Path,
		ContentSHA256:  doc.SHA256,
		Encoding:       string(doc.Encoding),
		EOL:            string(doc.EOLStyle),
		LineCount:      len(doc.Lines),
		Sections:       doc.Sections,
		CodeBlocks:     doc.CodeBlocks,
		Tables:         doc.Tables,
		HasFrontMatter: doc.FrontMatter != nil,
	}
	if res.Sections == nil {
		res.Sections = []Section{}
	}
	if res.CodeBlocks == nil {
		res.CodeBlocks = []CodeBlock{}
	}
	if res.Tables == nil {
		res.Tables = []Table{}
	}
	if doc.FrontMatter != nil {
		res.FrontMatter, _ = fmToPlain(doc.FrontMatter.Data).(map[string]any)
	}
	return res
}

// Validate loads a file and reports structural diagnostics. With
// autofixPreview it also pipes the content through the formatter and reports
// whether formatting would change anything.
func Validate(ctx context.Context, path string, autofixPreview bool) ValidateResult {
	doc, err := Load(ctx, path)
	if err != nil {
		return ValidateResult{Error: errorMessageOf(err), ErrorCode: errorCodeOf(err)}
	}

	diagnostics := append([]Diagnostic{}, doc.LoadWarnings...)
	diagnostics = append(diagnostics, validateFences(doc.Lines)...)

	res := ValidateResult{
		OK:            true,
		FilePath:      doc.Path,
		ContentSHA256: doc.SHA256,
		Diagnostics:   diagnostics,
	}

	if autofixPreview {
		formatter, _ := FormatterFor("mdformat")
		formatted, ferr := formatter.Format(ctx, doc.Content)
		if ferr != nil {
			res.FormatError = ferr.Error()
			return res
		}
		changed := formatted != doc.Content
		res.HasFormatChanges = &changed
		if changed {
			res.FormattedPreview = &formatted
		}
	}
	return res
}

// Apply executes an edit batch against a file, gated on the content hash.
//
// The hash precondition is the only check that short-circuits before any
// edit runs. In atomic mode the first per-edit failure aborts the batch (with
// CONFLICTING_EDITS, or the edit's own code when the batch holds a single
// edit) and the file is untouched; otherwise failures become
// diagnostics and the surviving edits are applied. DryRun computes the same
// hash and diff a real run would, without writing.
func Apply(ctx context.Context, path string, opts ApplyOptions) ApplyResult {
	logger := log.FromContext(ctx)

	formatter, ferr := FormatterFor(opts.FormatMode)
	if ferr != nil {
		return ApplyResult{Error: ferr.Message, ErrorCode: string(ferr.Code), FilePath: path, DryRun: opts.DryRun}
	}

	doc, err := Load(ctx, path)
	if err != nil {
		return ApplyResult{Error: errorMessageOf(err), ErrorCode: errorCodeOf(err), FilePath: path, DryRun: opts.DryRun}
	}

	if doc.SHA256 != opts.BaseSHA256 {
		return ApplyResult{
			FilePath:  doc.Path,
			Error:     "SHA-256 mismatch (file changed)",
			ErrorCode: string(CodePreconditionFailed),
			Expected:  opts.BaseSHA256,
			Actual:    doc.SHA256,
			DryRun:    opts.DryRun,
		}
	}

	editor := NewEditor(doc)
	editsApplied := 0
	for i := range opts.Edits {
		if aerr := editor.Apply(&opts.Edits[i]); aerr != nil {
			logger.Debug("edit failed", "index", i, "op", opts.Edits[i].Op, "code", string(aerr.Code))
			if opts.Atomic {
				// A batch of one failing edit reports its own code; a larger
				// batch aborts as CONFLICTING_EDITS wrapping the diagnostic.
				code, msg := string(CodeConflictingEdits), fmt.Sprintf("edit %d failed", i)
				if len(opts.Edits) == 1 {
					code, msg = string(aerr.Code), aerr.Message
				}
				return ApplyResult{
					FilePath:    doc.Path,
					Error:       msg,
					ErrorCode:   code,
					Diagnostics: editor.Diagnostics(),
					DryRun:      opts.DryRun,
				}
			}
			continue
		}
		editsApplied++
	}

	fin, finErr := finalize(ctx, doc, editor.Buffer(), finalizeOptions{
		formatter:          formatter,
		atomic:             opts.Atomic,
		ensureFinalNewline: opts.EnsureFinalNewline,
		preserveEncoding:   opts.PreserveEncoding,
	})
	if finErr != nil {
		return ApplyResult{
			FilePath:    doc.Path,
			Error:       finErr.Message,
			ErrorCode:   string(finErr.Code),
			Diagnostics: editor.Diagnostics(),
			DryRun:      opts.DryRun,
		}
	}

	if !opts.DryRun {
		if werr := writeAtomic(doc.Path, fin.data); werr != nil {
			return ApplyResult{
				FilePath:  doc.Path,
				Error:     fmt.Sprintf("failed to write %s: %v", doc.Path, werr),
				ErrorCode: string(CodeIOError),
				DryRun:    opts.DryRun,
			}
		}
	}

	diagnostics := append(editor.Diagnostics(), fin.warnings...)
	if diagnostics == nil {
		diagnostics = []Diagnostic{}
	}
	matches := editor.Matches()
	if matches == nil {
		matches = []Match{}
	}

	logger.Debug("apply finished",
		"path", doc.Path,
		"editsApplied", editsApplied,
		"dryRun", opts.DryRun,
		"sha256", fin.sha256)

	return ApplyResult{
		OK:            true,
		FilePath:      doc.Path,
		ContentSHA256: fin.sha256,
		Diff:          fin.diff,
		EditsApplied:  editsApplied,
		DryRun:        opts.DryRun,
		Matches:       matches,
		Diagnostics:   diagnostics,
	}
}
