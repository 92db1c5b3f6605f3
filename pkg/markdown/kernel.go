package markdown

import (
	"strings"

	"github.com/goccy/go-yaml"
)

// Editor applies edit operations to a working copy of a document's lines.
// The structural index is the one built at load time and is not recomputed
// between edits in a batch; edits must address lines that were valid at
// batch start, and a stale address surfaces as an out-of-range failure.
//
// Every operation validates completely before its first mutation, so a
// failed operation leaves the buffer exactly as it was.
type Editor struct {
	doc         *Document
	buffer      []string
	diagnostics []Diagnostic
	matches     []Match
}

// NewEditor clones the document's lines into a fresh working buffer.
func NewEditor(doc *Document) *Editor {
	buffer := make([]string, len(doc.Lines))
	copy(buffer, doc.Lines)
	return &Editor{doc: doc, buffer: buffer}
}

// Buffer returns the current working lines.
func (e *Editor) Buffer() []string { return e.buffer }

// Diagnostics returns the accumulated findings, failures included.
func (e *Editor) Diagnostics() []Diagnostic { return e.diagnostics }

// Matches returns every match observed by replace_match operations so far.
func (e *Editor) Matches() []Match { return e.matches }

// Apply runs one edit against the buffer. On failure the returned error is
// also appended to the diagnostics and the buffer is untouched.
func (e *Editor) Apply(edit *Edit) *Error {
	switch edit.Op {
	case OpReplaceRange:
		return e.replaceRange(edit)
	case OpReplaceMatch:
		return e.replaceMatch(edit)
	case OpReplaceSection:
		return e.replaceSection(edit)
	case OpInsertAfterHeading:
		return e.insertAfterHeading(edit)
	case OpUpdateFrontMatter:
		return e.updateFrontMatter(edit)
	default:
		return e.fail(newError(CodeInvalidOperation, "unknown operation: %q", edit.Op))
	}
}

// fail records err as an error diagnostic and returns it.
func (e *Editor) fail(err *Error) *Error {
	e.diagnostics = append(e.diagnostics, diagnosticFromError(err, "editor"))
	return err
}

// splice replaces buffer[start:end] (end exclusive) with repl.
func splice(buffer []string, start, end int, repl []string) []string {
	out := make([]string, 0, len(buffer)-(end-start)+len(repl))
	out = append(out, buffer[:start]...)
	out = append(out, repl...)
	out = append(out, buffer[end:]...)
	return out
}

// replaceRange replaces the text spanned by an explicit 1-based range. When
// expectedText is given it must byte-equal the current spanned text; the
// multi-line span is joined with "\n" regardless of the document's EOL style
// (the style is reapplied at finalize time).
func (e *Editor) replaceRange(edit *Edit) *Error {
	if edit.Range == nil || edit.Replacement == nil {
		return e.fail(newError(CodeInvalidOperation, "replace_range requires 'range' and 'replacement'"))
	}
	rr, err := resolveRange(e.buffer, *edit.Range)
	if err != nil {
		return e.fail(err)
	}

	var current string
	if rr.startLine == rr.endLine {
		runes := []rune(e.buffer[rr.startLine])
		current = string(runes[rr.startCol:rr.endCol])
	} else {
		startRunes := []rune(e.buffer[rr.startLine])
		endRunes := []rune(e.buffer[rr.endLine])
		parts := make([]string, 0, rr.endLine-rr.startLine+1)
		parts = append(parts, string(startRunes[rr.startCol:]))
		for i := rr.startLine + 1; i < rr.endLine; i++ {
			parts = append(parts, e.buffer[i])
		}
		parts = append(parts, string(endRunes[:rr.endCol]))
		current = strings.Join(parts, "\n")
	}

	if edit.ExpectedText != nil && current != *edit.ExpectedText {
		return e.fail(lineError(CodePreconditionFailed, rr.startLine,
			"expected text mismatch at line %d", rr.startLine+1))
	}

	if rr.startLine == rr.endLine {
		runes := []rune(e.buffer[rr.startLine])
		e.buffer[rr.startLine] = string(runes[:rr.startCol]) + *edit.Replacement + string(runes[rr.endCol:])
		return nil
	}
	startRunes := []rune(e.buffer[rr.startLine])
	endRunes := []rune(e.buffer[rr.endLine])
	merged := string(startRunes[:rr.startCol]) + *edit.Replacement + string(endRunes[rr.endCol:])
	e.buffer = splice(e.buffer, rr.startLine, rr.endLine+1, []string{merged})
	return nil
}

// replaceMatch rewrites regex occurrences within the edit's scope. Every
// resolved match is reported; the occurrence selector decides which are
// rewritten. Replacements are literal (no backreference interpretation) and
// applied in reverse document order so earlier match positions stay valid
// while later ones are rewritten.
func (e *Editor) replaceMatch(edit *Edit) *Error {
	if edit.Pattern == nil || edit.Replacement == nil {
		return e.fail(newError(CodeInvalidOperation, "replace_match requires 'pattern' and 'replacement'"))
	}
	hits, err := resolveMatches(e.doc, e.buffer, edit)
	if err != nil {
		return e.fail(err)
	}
	if err := checkExpectedMatches(hits, edit.ExpectedMatches); err != nil {
		return e.fail(err)
	}
	selected, err := selectOccurrence(hits, edit.occurrence())
	if err != nil {
		return e.fail(err)
	}

	for _, h := range hits {
		e.matches = append(e.matches, matchFromHit(h))
	}

	for i := len(selected) - 1; i >= 0; i-- {
		h := selected[i]
		runes := []rune(e.buffer[h.line])
		e.buffer[h.line] = string(runes[:h.start]) + *edit.Replacement + string(runes[h.end:])
	}
	return nil
}

// replaceSection replaces a section's content. When the first non-empty line
// of the new markdown is itself a heading the whole section including its
// heading line is replaced; otherwise the original heading line is kept and
// only the content below it is spliced. Subsections survive unless
// keepSubsections is explicitly false.
func (e *Editor) replaceSection(edit *Edit) *Error {
	if edit.Markdown == nil {
		return e.fail(newError(CodeInvalidOperation, "replace_section requires 'markdown' field (not 'content')"))
	}
	section, err := e.doc.resolveSection(edit.HeadingPath, edit.SectionID, false)
	if err != nil {
		return e.fail(err)
	}

	contentEnd := section.EndLine
	if edit.keepSubsections() {
		for i := range e.doc.Sections {
			s := &e.doc.Sections[i]
			if len(s.HeadingPath) > len(section.HeadingPath) &&
				pathHasPrefix(s.HeadingPath, section.HeadingPath) &&
				s.StartLine > section.HeadingLine {
				contentEnd = s.StartLine - 1
				break
			}
		}
	}
	if section.HeadingLine >= len(e.buffer) || contentEnd >= len(e.buffer) {
		return e.fail(lineError(CodeOutOfRange, section.HeadingLine,
			"section address is stale: line %d is outside the buffer", section.HeadingLine))
	}

	newLines := strings.Split(*edit.Markdown, "\n")
	hasHeading := false
	for _, l := range newLines {
		t := strings.TrimSpace(l)
		if t != "" {
			hasHeading = strings.HasPrefix(t, "#")
			break
		}
	}

	if hasHeading {
		e.buffer = splice(e.buffer, section.HeadingLine, contentEnd+1, newLines)
	} else {
		e.buffer = splice(e.buffer, section.HeadingLine+1, contentEnd+1, newLines)
	}
	return nil
}

// insertAfterHeading inserts new markdown into a section: directly under the
// heading line, or after the section's last line. With ensureBlankLine (the
// default) a blank line is appended to the inserted block when the line at
// the insertion point is non-blank.
func (e *Editor) insertAfterHeading(edit *Edit) *Error {
	if edit.Markdown == nil {
		return e.fail(newError(CodeInvalidOperation, "insert_after_heading requires 'markdown' field (not 'content')"))
	}
	section, err := e.doc.resolveSection(edit.HeadingPath, edit.SectionID, false)
	if err != nil {
		return e.fail(err)
	}

	var insertLine int
	switch edit.Position {
	case PositionAfterHeading, PositionStart, "":
		insertLine = section.HeadingLine + 1
	case PositionEnd:
		insertLine = section.EndLine + 1
	default:
		return e.fail(newError(CodeInvalidOperation, "invalid position: %q", edit.Position))
	}
	if insertLine > len(e.buffer) {
		return e.fail(lineError(CodeOutOfRange, insertLine,
			"section address is stale: line %d is outside the buffer", insertLine))
	}

	newLines := strings.Split(*edit.Markdown, "\n")
	if edit.ensureBlankLine() && insertLine < len(e.buffer) && strings.TrimSpace(e.buffer[insertLine]) != "" {
		newLines = append(newLines, "")
	}
	e.buffer = splice(e.buffer, insertLine, insertLine, newLines)
	return nil
}

// updateFrontMatter upserts and removes front matter keys, rewriting the
// block between the delimiters, or creates a new block at the top of the
// document when none exists.
func (e *Editor) updateFrontMatter(edit *Edit) *Error {
	var data yaml.MapSlice
	if e.doc.FrontMatter != nil {
		data = e.doc.FrontMatter.Data
	}
	updated := fmApply(data, edit.Set, edit.Remove)
	fmLines, serr := fmSerialize(updated)
	if serr != nil {
		return e.fail(wrapError(CodeInvalidOperation, serr, "failed to serialize front matter"))
	}

	block := make([]string, 0, len(fmLines)+3)
	block = append(block, "---")
	block = append(block, fmLines...)
	block = append(block, "---")

	if e.doc.FrontMatter != nil {
		end := e.doc.FrontMatter.End
		if end >= len(e.buffer) {
			return e.fail(lineError(CodeOutOfRange, end,
				"front matter address is stale: line %d is outside the buffer", end))
		}
		e.buffer = splice(e.buffer, 0, end+1, block)
		return nil
	}
	block = append(block, "")
	e.buffer = splice(e.buffer, 0, 0, block)
	return nil
}

// matchFromHit converts an internal 0-based hit into the 1-based report
// record.
func matchFromHit(h matchHit) Match {
	return Match{
		Line:  h.line + 1,
		Col:   h.start + 1,
		Text:  h.text,
		Start: Position{Line: h.line + 1, Col: h.start + 1},
		End:   Position{Line: h.line + 1, Col: h.end + 1},
	}
}
