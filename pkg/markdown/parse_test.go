package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSectionExtraction(t *testing.T) {
	doc := mustLoad(t, "# A\ntext\n## B\nx\n# C\ny\n")

	require.Len(t, doc.Sections, 3)

	a, b, c := doc.Sections[0], doc.Sections[1], doc.Sections[2]

	require.Equal(t, []string{"A"}, a.HeadingPath)
	require.Equal(t, 1, a.Level)
	require.Equal(t, 0, a.HeadingLine)
	require.Equal(t, 0, a.StartLine)
	require.Equal(t, 3, a.EndLine)

	require.Equal(t, []string{"A", "B"}, b.HeadingPath)
	require.Equal(t, 2, b.Level)
	require.Equal(t, 2, b.StartLine)
	require.Equal(t, 3, b.EndLine)

	require.Equal(t, []string{"C"}, c.HeadingPath)
	require.Equal(t, 4, c.StartLine)
	require.Equal(t, 6, c.EndLine)
}

func TestSectionSkippedLevels(t *testing.T) {
	doc := mustLoad(t, "# Top\n### Deep\ntext\n## Mid\n")

	require.Len(t, doc.Sections, 3)
	require.Equal(t, []string{"Top", "Deep"}, doc.Sections[1].HeadingPath)
	require.Equal(t, 2, doc.Sections[1].EndLine)
	require.Equal(t, []string{"Top", "Mid"}, doc.Sections[2].HeadingPath)
}

func TestSectionRawAndCanonicalPaths(t *testing.T) {
	doc := mustLoad(t, "# **Bold** Title\nbody\n")

	require.Len(t, doc.Sections, 1)
	require.Equal(t, []string{"**Bold** Title"}, doc.Sections[0].HeadingPath)
	require.Equal(t, []string{"bold title"}, doc.Sections[0].CanonicalHeadingPath)
}

func TestSectionClosingHashes(t *testing.T) {
	doc := mustLoad(t, "## Setup ##\nbody\n")

	require.Len(t, doc.Sections, 1)
	require.Equal(t, []string{"Setup"}, doc.Sections[0].HeadingPath)
}

func TestSectionIDsStable(t *testing.T) {
	content := "# A\n## B\nx\n"
	first := mustLoad(t, content)
	second := mustLoad(t, content)
	require.Equal(t, first.Sections[1].SectionID, second.Sections[1].SectionID)
}

func TestCodeBlockExtraction(t *testing.T) {
	doc := mustLoad(t, "foo\n```\nfoo\n```\nfoo\n")

	require.Len(t, doc.CodeBlocks, 1)
	require.Equal(t, 1, doc.CodeBlocks[0].StartLine)
	require.Equal(t, 4, doc.CodeBlocks[0].EndLine)
	require.Equal(t, "", doc.CodeBlocks[0].InfoString)
	require.Equal(t, "", doc.CodeBlocks[0].Language)

	require.False(t, doc.inCodeBlock(0))
	require.True(t, doc.inCodeBlock(1))
	require.True(t, doc.inCodeBlock(3))
	require.False(t, doc.inCodeBlock(4))
}

func TestCodeBlockInfoString(t *testing.T) {
	doc := mustLoad(t, "```go linenums\nfunc main() {}\n```\n")

	require.Len(t, doc.CodeBlocks, 1)
	require.Equal(t, "go linenums", doc.CodeBlocks[0].InfoString)
	require.Equal(t, "go", doc.CodeBlocks[0].Language)
}

func TestCodeBlockTildeFence(t *testing.T) {
	doc := mustLoad(t, "~~~python\nprint()\n~~~\nafter\n")

	require.Len(t, doc.CodeBlocks, 1)
	require.Equal(t, 0, doc.CodeBlocks[0].StartLine)
	require.Equal(t, 3, doc.CodeBlocks[0].EndLine)
	require.Equal(t, "python", doc.CodeBlocks[0].Language)
}

func TestCodeBlockUnclosedRunsToEOF(t *testing.T) {
	doc := mustLoad(t, "start\n```\ncode\n")

	require.Len(t, doc.CodeBlocks, 1)
	require.Equal(t, 1, doc.CodeBlocks[0].StartLine)
	require.Equal(t, len(doc.Lines), doc.CodeBlocks[0].EndLine)
}

func TestCodeBlockOtherFenceCharIsContent(t *testing.T) {
	doc := mustLoad(t, "```\n~~~\n```\n")

	require.Len(t, doc.CodeBlocks, 1)
	require.Equal(t, 0, doc.CodeBlocks[0].StartLine)
	require.Equal(t, 3, doc.CodeBlocks[0].EndLine)
}

func TestCodeBlockInfoStringNeverCloses(t *testing.T) {
	doc := mustLoad(t, "```go\n```python\ncode\n```\n")

	require.Len(t, doc.CodeBlocks, 1)
	require.Equal(t, 0, doc.CodeBlocks[0].StartLine)
	require.Equal(t, 4, doc.CodeBlocks[0].EndLine)
}

func TestTableExtraction(t *testing.T) {
	doc := mustLoad(t, "# T\n\n| a | b |\n| - | - |\n| 1 | 2 |\n\nafter\n")

	require.Len(t, doc.Tables, 1)
	table := doc.Tables[0]
	require.Equal(t, 2, table.StartLine)
	require.Equal(t, 5, table.EndLine)
	require.Equal(t, []string{"T"}, table.Section)

	require.True(t, doc.inTable(2))
	require.True(t, doc.inTable(4))
	require.False(t, doc.inTable(5))
}

func TestTableInnermostSection(t *testing.T) {
	doc := mustLoad(t, "# A\n## B\n\n| x |\n| - |\n| 1 |\n")

	require.Len(t, doc.Tables, 1)
	require.Equal(t, []string{"A", "B"}, doc.Tables[0].Section)
}

func TestFrontMatterExtraction(t *testing.T) {
	doc := mustLoad(t, "---\ntitle: old\ntags:\n- a\n---\nbody\n")

	require.NotNil(t, doc.FrontMatter)
	require.Equal(t, 0, doc.FrontMatter.Start)
	require.Equal(t, 4, doc.FrontMatter.End)
	require.Len(t, doc.FrontMatter.Data, 2)

	// The delimiter lines must not leak setext-heading sections.
	require.Empty(t, doc.Sections)
}

func TestFrontMatterCRLF(t *testing.T) {
	doc := mustLoad(t, "---\r\ntitle: x\r\n---\r\nbody\r\n")

	require.NotNil(t, doc.FrontMatter)
	require.Equal(t, 2, doc.FrontMatter.End)
}

func TestFrontMatterScanCap(t *testing.T) {
	content := "---\n" + strings.Repeat("key: value\n", 60) + "---\nbody\n"
	doc := mustLoad(t, content)
	require.Nil(t, doc.FrontMatter)
}

func TestFrontMatterInvalidYAML(t *testing.T) {
	doc := mustLoad(t, "---\n{bad\n---\nbody\n")

	require.Nil(t, doc.FrontMatter)
	require.NotEmpty(t, doc.LoadWarnings)
	require.Equal(t, SeverityWarning, doc.LoadWarnings[0].Severity)
}

func TestFrontMatterAbsent(t *testing.T) {
	doc := mustLoad(t, "# A\nbody\n")
	require.Nil(t, doc.FrontMatter)
}
