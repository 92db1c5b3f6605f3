package markdown

import (
	"strings"

	"github.com/dlclark/regexp2"
)

// The resolver owns the 1-based/0-based boundary: edit inputs convert to
// buffer coordinates here and nowhere else (the matching emit-side conversion
// lives in matchFromHit and diagnosticFromError). Columns are counted in Unicode code points.

// resolvedRange is a validated 0-based half-open range over the buffer, with
// rune-indexed columns.
type resolvedRange struct {
	startLine int
	startCol  int
	endLine   int
	endCol    int
}

// resolveRange converts a 1-based Range to buffer coordinates and validates
// that the lines exist and the columns lie within [0, len(line)].
func resolveRange(buffer []string, r Range) (*resolvedRange, *Error) {
	rr := &resolvedRange{
		startLine: r.Start.Line - 1,
		startCol:  r.Start.Col - 1,
		endLine:   r.End.Line - 1,
		endCol:    r.End.Col - 1,
	}
	if rr.startLine < 0 || rr.startLine >= len(buffer) {
		return nil, lineError(CodeOutOfRange, rr.startLine, "start line %d out of range", r.Start.Line)
	}
	if rr.endLine < 0 || rr.endLine >= len(buffer) {
		return nil, lineError(CodeOutOfRange, rr.endLine, "end line %d out of range", r.End.Line)
	}
	if startLen := len([]rune(buffer[rr.startLine])); rr.startCol < 0 || rr.startCol > startLen {
		return nil, lineError(CodeOutOfRange, rr.startLine, "start column %d out of range", r.Start.Col)
	}
	if endLen := len([]rune(buffer[rr.endLine])); rr.endCol < 0 || rr.endCol > endLen {
		return nil, lineError(CodeOutOfRange, rr.endLine, "end column %d out of range", r.End.Col)
	}
	if rr.startLine > rr.endLine || (rr.startLine == rr.endLine && rr.startCol > rr.endCol) {
		return nil, lineError(CodeOutOfRange, rr.startLine, "range start is after range end")
	}
	return rr, nil
}

// sectionsByPath collects every section whose raw path matches exactly or
// whose canonical path equals the canonicalization of the supplied path.
// With includeSubsections, strict prefix extensions of the canonical path are
// collected too.
func (d *Document) sectionsByPath(path []string, includeSubsections bool) []*Section {
	canonical := normalizePath(path)
	var matches []*Section
	for i := range d.Sections {
		s := &d.Sections[i]
		switch {
		case pathsEqual(s.HeadingPath, path):
			matches = append(matches, s)
		case pathsEqual(s.CanonicalHeadingPath, canonical):
			matches = append(matches, s)
		case includeSubsections && len(s.CanonicalHeadingPath) > len(canonical) &&
			pathHasPrefix(s.CanonicalHeadingPath, canonical):
			matches = append(matches, s)
		}
	}
	return matches
}

// sectionByID returns the section with the given stable ID, or nil.
func (d *Document) sectionByID(id string) *Section {
	for i := range d.Sections {
		if d.Sections[i].SectionID == id {
			return &d.Sections[i]
		}
	}
	return nil
}

// resolveSection resolves a section address to exactly one section. A
// section ID wins over a heading path when both are supplied; a heading path
// resolving to several sections is ambiguous and the caller must
// disambiguate (deeper ancestors, or the section ID).
func (d *Document) resolveSection(headingPath []string, sectionID string, includeSubsections bool) (*Section, *Error) {
	if sectionID != "" {
		s := d.sectionByID(sectionID)
		if s == nil {
			return nil, newError(CodeSectionNotFound, "no section with id %s", sectionID)
		}
		return s, nil
	}
	if len(headingPath) == 0 {
		return nil, newError(CodeInvalidOperation, "either headingPath or sectionId must be provided")
	}
	matches := d.sectionsByPath(headingPath, includeSubsections)
	switch len(matches) {
	case 0:
		return nil, newError(CodeSectionNotFound, "section not found: %s", strings.Join(headingPath, " > "))
	case 1:
		return matches[0], nil
	default:
		return nil, newError(CodeAmbiguousHeading, "heading path %s matches %d sections", strings.Join(headingPath, " > "), len(matches))
	}
}

// matchHit is one regex occurrence: 0-based line, rune-indexed half-open
// [start, end) columns, and the matched text.
type matchHit struct {
	line  int
	start int
	end   int
	text  string
}

// compilePattern builds the regexp2 matcher for a replace_match edit. The
// dialect is PCRE-compatible and the engine indexes in runes, which keeps
// reported columns in code points.
func compilePattern(pattern string, literal bool, flags string) (*regexp2.Regexp, *Error) {
	if literal {
		pattern = regexp2.Escape(pattern)
	}
	opts := regexp2.None
	if strings.ContainsRune(flags, 'i') {
		opts |= regexp2.IgnoreCase
	}
	if strings.ContainsRune(flags, 'm') {
		opts |= regexp2.Multiline
	}
	if strings.ContainsRune(flags, 's') {
		opts |= regexp2.Singleline
	}
	re, err := regexp2.Compile(pattern, opts)
	if err != nil {
		return nil, wrapError(CodeInvalidRegex, err, "invalid regex pattern")
	}
	return re, nil
}

// resolveMatches enumerates pattern occurrences over the buffer in document
// order (ascending line, then ascending column), restricted to the edit's
// scope and minus lines excluded by the code-block and table policies.
//
// The linksAndImages policy is accepted but performs no filtering; matches
// inside link or image syntax are not skipped.
func resolveMatches(doc *Document, buffer []string, edit *Edit) ([]matchHit, *Error) {
	re, rerr := compilePattern(*edit.Pattern, edit.literalPattern(), edit.Flags)
	if rerr != nil {
		return nil, rerr
	}

	startLine, endLine := 0, len(buffer)-1
	scope := edit.scope()
	switch scope.Kind {
	case ScopeWholeDocument, "":
	case ScopeSection:
		section, serr := doc.resolveSection(scope.HeadingPath, scope.SectionID, scope.IncludeSubsections)
		if serr != nil {
			return nil, serr
		}
		startLine, endLine = section.StartLine, section.EndLine
		if endLine > len(buffer)-1 {
			endLine = len(buffer) - 1
		}
	default:
		return nil, newError(CodeInvalidOperation, "unknown scope kind: %s", scope.Kind)
	}

	excludeCode := policy(edit.CodeBlocks) == PolicyExclude
	excludeTables := policy(edit.Tables) == PolicyExclude

	var hits []matchHit
	for line := startLine; line <= endLine; line++ {
		if excludeCode && doc.inCodeBlock(line) {
			continue
		}
		if excludeTables && doc.inTable(line) {
			continue
		}
		m, err := re.FindStringMatch(buffer[line])
		for err == nil && m != nil {
			hits = append(hits, matchHit{
				line:  line,
				start: m.Index,
				end:   m.Index + m.Length,
				text:  m.String(),
			})
			m, err = re.FindNextMatch(m)
		}
		if err != nil {
			return nil, wrapError(CodeInvalidRegex, err, "pattern match failed")
		}
	}
	return hits, nil
}

// checkExpectedMatches compares the resolved match count against the edit's
// expectation: zero found is NO_MATCH, any other mismatch is AMBIGUOUS_MATCH.
func checkExpectedMatches(hits []matchHit, expected *int) *Error {
	if expected == nil || len(hits) == *expected {
		return nil
	}
	if len(hits) == 0 {
		return newError(CodeNoMatch, "no matches found (expected %d)", *expected)
	}
	return newError(CodeAmbiguousMatch, "found %d matches (expected %d)", len(hits), *expected)
}

// selectOccurrence picks the matches to rewrite: all of them, or the k-th in
// document order.
func selectOccurrence(hits []matchHit, occ Occurrence) ([]matchHit, *Error) {
	if occ.All {
		return hits, nil
	}
	if occ.N < 1 || occ.N > len(hits) {
		return nil, newError(CodeOutOfRange, "occurrence %d out of range (found %d matches)", occ.N, len(hits))
	}
	return hits[occ.N-1 : occ.N], nil
}
