package markdown

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

type finalizeOptions struct {
	formatter          Formatter
	atomic             bool
	ensureFinalNewline bool
	preserveEncoding   bool
}

type finalizeResult struct {
	content  string
	data     []byte
	sha256   string
	diff     string
	warnings []Diagnostic
}

// finalize turns the edited buffer back into bytes: join with the original
// terminator, run the optional formatter, check structural sanity, apply the
// final-newline policy, re-encode, hash, and diff against the pre-edit
// content. It never touches the filesystem.
func finalize(ctx context.Context, doc *Document, buffer []string, opts finalizeOptions) (*finalizeResult, *Error) {
	eol := doc.EOLStyle.Sequence()
	content := strings.Join(buffer, eol)
	res := &finalizeResult{}

	if opts.formatter != nil {
		formatted, err := opts.formatter.Format(ctx, content)
		if err != nil {
			if opts.atomic {
				return nil, wrapError(CodeFormatterFailed, err, "formatting failed")
			}
			res.warnings = append(res.warnings, Diagnostic{
				Severity: SeverityWarning,
				Code:     string(CodeFormatterFailed),
				Message:  "formatting failed: " + err.Error(),
				Source:   "finalizer",
			})
		} else {
			content = formatted
		}
	}

	// Structural sanity: edits must not leave fences unbalanced in a file
	// that started balanced. A file that was already unbalanced stays
	// editable; the findings downgrade to warnings.
	if content != doc.Content {
		broken := validateFences(strings.Split(content, eol))
		if len(broken) > 0 {
			if opts.atomic && len(validateFences(doc.Lines)) == 0 {
				return nil, lineError(CodeMarkdownBroken, broken[0].Line-1, "%s", broken[0].Message)
			}
			for _, d := range broken {
				d.Severity = SeverityWarning
				d.Source = "finalizer"
				res.warnings = append(res.warnings, d)
			}
		}
	}

	if opts.ensureFinalNewline && !strings.HasSuffix(content, "\n") {
		content += eol
	}

	if opts.preserveEncoding {
		data, err := doc.Encode(content)
		if err != nil {
			if e, ok := err.(*Error); ok {
				return nil, e
			}
			return nil, wrapError(CodeEncodingError, err, "failed to encode content")
		}
		res.data = data
	} else {
		res.data = []byte(content)
	}

	res.content = content
	res.sha256 = hashBytes(res.data)

	name := filepath.Base(doc.Path)
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(doc.Content),
		B:        difflib.SplitLines(content),
		FromFile: "a/" + name,
		ToFile:   "b/" + name,
		Context:  3,
	})
	if err != nil {
		return nil, wrapError(CodeIOError, err, "failed to compute diff")
	}
	res.diff = diff

	return res, nil
}

// writeAtomic writes data next to path and renames it into place, keeping
// the original file mode when the file already exists.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if info, err := os.Stat(path); err == nil {
		_ = os.Chmod(tmpName, info.Mode())
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
