package markdown

import (
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// Section is one heading and the content it dominates: everything up to the
// next heading of equal or shallower level. Line fields are 0-based and
// inclusive.
type Section struct {
	HeadingPath          []string `json:"headingPath"`
	CanonicalHeadingPath []string `json:"canonicalHeadingPath"`
	SectionID            string   `json:"sectionId"`
	Level                int      `json:"level"`
	StartLine            int      `json:"startLine"`
	EndLine              int      `json:"endLine"`
	HeadingLine          int      `json:"headingLine"`
}

// CodeBlock is one fenced block. EndLine is exclusive: the inclusive bound is
// EndLine-1, and a fence left open at EOF extends to the end of the file.
type CodeBlock struct {
	StartLine  int    `json:"startLine"`
	EndLine    int    `json:"endLine"`
	InfoString string `json:"infoString"`
	Language   string `json:"language,omitempty"`
}

// Table is one GFM table span (EndLine exclusive). Section is the heading
// path of the innermost enclosing section, nil when the table precedes every
// heading.
type Table struct {
	StartLine int      `json:"startLine"`
	EndLine   int      `json:"endLine"`
	Section   []string `json:"section,omitempty"`
}

// parseStructure builds the document's structural index: front matter first
// (its lines are masked from heading extraction so the closing delimiter is
// not misread as a setext underline), then a CommonMark+GFM parse for
// headings and tables, then the fence line scan for code blocks.
func parseStructure(doc *Document) {
	extractFrontMatter(doc)

	source := []byte(doc.Content)
	offsets := lineOffsets(doc.Lines, len(doc.EOLStyle.Sequence()))

	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	root := md.Parser().Parse(text.NewReader(source))

	type headingInfo struct {
		level int
		line  int
		raw   string
	}
	var headings []headingInfo

	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.Heading:
			line := nodeStartLine(node, offsets)
			if line < 0 || line >= len(doc.Lines) {
				return gmast.WalkContinue, nil
			}
			if doc.FrontMatter != nil && line <= doc.FrontMatter.End {
				return gmast.WalkContinue, nil
			}
			headings = append(headings, headingInfo{
				level: node.Level,
				line:  line,
				raw:   rawHeadingText(doc.Lines[line]),
			})
		case *extast.Table:
			start, end := tableSpan(node, offsets)
			if start >= 0 {
				doc.Tables = append(doc.Tables, Table{StartLine: start, EndLine: end})
			}
		}
		return gmast.WalkContinue, nil
	})

	// Heading stack: a heading of level L closes every open heading of level
	// >= L; the closed section ends one line above the new heading. Whatever
	// remains open at the end of the stream runs to the last line.
	type stackEntry struct {
		level int
		line  int
		text  string
	}
	var stack []stackEntry
	emit := func(e stackEntry, endLine int) {
		path := make([]string, 0, len(stack)+1)
		for _, a := range stack {
			path = append(path, a.text)
		}
		path = append(path, e.text)
		doc.Sections = append(doc.Sections, Section{
			HeadingPath:          path,
			CanonicalHeadingPath: normalizePath(path),
			SectionID:            SectionID(path, e.line),
			Level:                e.level,
			StartLine:            e.line,
			EndLine:              endLine,
			HeadingLine:          e.line,
		})
	}
	for _, h := range headings {
		for len(stack) > 0 && stack[len(stack)-1].level >= h.level {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			emit(top, h.line-1)
		}
		stack = append(stack, stackEntry{level: h.level, line: h.line, text: h.raw})
	}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		emit(top, len(doc.Lines)-1)
	}
	sort.SliceStable(doc.Sections, func(i, j int) bool {
		return doc.Sections[i].HeadingLine < doc.Sections[j].HeadingLine
	})

	doc.CodeBlocks = scanFencedBlocks(doc.Lines)

	for i := range doc.Tables {
		if sec := doc.innermostSection(doc.Tables[i].StartLine); sec != nil {
			doc.Tables[i].Section = sec.HeadingPath
		}
	}
}

// lineOffsets returns the byte offset of each line start within the joined
// content, given the terminator width used between lines.
func lineOffsets(lines []string, eolLen int) []int {
	offsets := make([]int, len(lines))
	pos := 0
	for i, line := range lines {
		offsets[i] = pos
		pos += len(line) + eolLen
	}
	return offsets
}

// lineAt maps a byte offset to the 0-based line containing it.
func lineAt(offsets []int, off int) int {
	i := sort.Search(len(offsets), func(i int) bool { return offsets[i] > off })
	if i == 0 {
		return 0
	}
	return i - 1
}

// nodeStartLine locates the line a block node starts on. Goldmark records
// line segments for the node content; for nodes without any, the first text
// descendant is used instead. A node with neither (an empty heading) yields
// -1, and the caller leaves it out of the index.
func nodeStartLine(n gmast.Node, offsets []int) int {
	if n.Lines().Len() > 0 {
		return lineAt(offsets, n.Lines().At(0).Start)
	}
	line := -1
	_ = gmast.Walk(n, func(c gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		if t, ok := c.(*gmast.Text); ok {
			line = lineAt(offsets, t.Segment.Start)
			return gmast.WalkStop, nil
		}
		return gmast.WalkContinue, nil
	})
	return line
}

// tableSpan derives a table's [start, end) line span from the byte segments
// of its cell text. The delimiter row always sits directly under the header
// row, so the exclusive end is extended past it for tables with no body.
func tableSpan(n gmast.Node, offsets []int) (int, int) {
	minOff, maxOff := -1, -1
	_ = gmast.Walk(n, func(c gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		if t, ok := c.(*gmast.Text); ok {
			seg := t.Segment
			if minOff < 0 || seg.Start < minOff {
				minOff = seg.Start
			}
			if seg.Stop > maxOff {
				maxOff = seg.Stop
			}
		}
		return gmast.WalkContinue, nil
	})
	if minOff < 0 {
		return -1, -1
	}
	start := lineAt(offsets, minOff)
	last := lineAt(offsets, maxOff-1)
	if last < start+1 {
		last = start + 1
	}
	return start, last + 1
}

// rawHeadingText strips ATX markers from a heading line, keeping the inline
// markup untouched (emphasis and code spans stay raw; canonicalization
// handles them separately). Setext heading lines pass through trimmed.
func rawHeadingText(line string) string {
	t := strings.TrimSpace(line)
	if strings.HasPrefix(t, "#") {
		t = strings.TrimSpace(strings.TrimLeft(t, "#"))
		t = atxClosingRE.ReplaceAllString(t, "")
	}
	return t
}

// scanFencedBlocks finds fenced code blocks with a line scan. While a fence
// is open, only a bare run of the same character closes it; fence-looking
// lines of the other character, and same-character lines carrying an info
// string, are content. An unclosed fence runs to EOF.
func scanFencedBlocks(lines []string) []CodeBlock {
	var blocks []CodeBlock
	openChar := byte(0)
	openLine := -1
	openInfo := ""
	for i, line := range lines {
		ch, run, rest := fenceLine(line)
		if run < 3 {
			continue
		}
		if openLine < 0 {
			openChar, openLine, openInfo = ch, i, rest
			continue
		}
		if ch != openChar || rest != "" {
			continue
		}
		blocks = append(blocks, newCodeBlock(openLine, i+1, openInfo))
		openLine = -1
	}
	if openLine >= 0 {
		blocks = append(blocks, newCodeBlock(openLine, len(lines), openInfo))
	}
	return blocks
}

// fenceLine reports the fence character, its run length and the trailing info
// string of a line, or a zero run for non-fence lines.
func fenceLine(line string) (byte, int, string) {
	t := strings.TrimSpace(line)
	if t == "" || (t[0] != '`' && t[0] != '~') {
		return 0, 0, ""
	}
	ch := t[0]
	n := 0
	for n < len(t) && t[n] == ch {
		n++
	}
	return ch, n, strings.TrimSpace(t[n:])
}

func newCodeBlock(start, end int, info string) CodeBlock {
	block := CodeBlock{StartLine: start, EndLine: end, InfoString: info}
	if fields := strings.Fields(info); len(fields) > 0 {
		block.Language = fields[0]
	}
	return block
}

// inCodeBlock reports whether the 0-based line falls inside a fenced block
// span (exclusive upper bound).
func (d *Document) inCodeBlock(line int) bool {
	for _, b := range d.CodeBlocks {
		if b.StartLine <= line && line < b.EndLine {
			return true
		}
	}
	return false
}

// inTable reports whether the 0-based line falls inside a table span.
func (d *Document) inTable(line int) bool {
	for _, t := range d.Tables {
		if t.StartLine <= line && line < t.EndLine {
			return true
		}
	}
	return false
}

// innermostSection returns the deepest section containing the 0-based line,
// or nil.
func (d *Document) innermostSection(line int) *Section {
	var best *Section
	for i := range d.Sections {
		s := &d.Sections[i]
		if s.StartLine <= line && line <= s.EndLine {
			if best == nil || s.Level > best.Level ||
				(s.Level == best.Level && s.StartLine > best.StartLine) {
				best = s
			}
		}
	}
	return best
}
