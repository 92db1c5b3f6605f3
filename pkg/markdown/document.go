package markdown

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/jlrickert/mdedit/pkg/log"
)

// Encoding names the byte encoding a document was loaded with. The values are
// the wire strings emitted by stat and accepted nowhere (encoding is detected,
// never supplied).
type Encoding string

const (
	EncodingUTF8    Encoding = "utf-8"
	EncodingUTF8BOM Encoding = "utf-8-sig"
	EncodingLatin1  Encoding = "latin-1"
)

// EOL names the line ending style of a document.
type EOL string

const (
	EOLLF   EOL = "LF"
	EOLCRLF EOL = "CRLF"
)

// Sequence returns the terminator bytes for the style.
func (e EOL) Sequence() string {
	if e == EOLCRLF {
		return "\r\n"
	}
	return "\n"
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Position is a 1-based line/column pair counted in Unicode code points.
// This is the external form used in edit inputs; the internal buffer is
// 0-based and the conversion lives in the resolver.
type Position struct {
	Line int `json:"line"`
	Col  int `json:"col"`
}

// Range is a half-open [start, end) span of Positions.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Match reports one observed regex occurrence, 1-based.
type Match struct {
	Line  int      `json:"line"`
	Col   int      `json:"col"`
	Text  string   `json:"text"`
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Document is the in-memory representation of one loaded Markdown file. The
// derived structural views (Sections, CodeBlocks, Tables, FrontMatter) are
// built once at load time and describe the file as it was on disk; the edit
// kernel clones Lines into its own buffer and never mutates a Document.
type Document struct {
	// Path is the filesystem path the document was loaded from. Identity
	// only; nothing rewrites it.
	Path string

	// Encoding and EOLStyle are detected at load and preserved across edits
	// unless the caller overrides preservation.
	Encoding Encoding
	EOLStyle EOL

	// Content is the decoded text exactly as loaded (BOM stripped).
	Content string

	// Lines is Content split on the detected terminator, terminators
	// excluded.
	Lines []string

	// SHA256 is the hex digest of the raw bytes on disk, BOM included. It is
	// the identity used by the apply precondition.
	SHA256 string

	// Structural index, in document order.
	Sections   []Section
	CodeBlocks []CodeBlock
	Tables     []Table

	// FrontMatter is non-nil only when the file opens with a parseable YAML
	// block. LoadWarnings carries non-fatal findings from loading (e.g. a
	// front matter block that failed to parse).
	FrontMatter  *FrontMatter
	LoadWarnings []Diagnostic
}

// Load reads, decodes and indexes the file at path.
//
// Encoding detection: a UTF-8 BOM wins, then valid UTF-8, then Latin-1 as the
// fallback (every byte sequence decodes under Latin-1). The loader fails on
// I/O, and with ENCODING_ERROR when a BOM is followed by bytes that are not
// valid UTF-8. The SHA-256 is computed over the raw bytes exactly as
// they live on disk, before decoding and before the BOM strip.
func Load(ctx context.Context, path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, wrapError(CodeIOError, err, "failed to read %s", path)
	}

	doc := &Document{Path: path}
	doc.SHA256 = hashBytes(raw)

	switch {
	case bytes.HasPrefix(raw, utf8BOM):
		body := raw[len(utf8BOM):]
		if !utf8.Valid(body) {
			return nil, newError(CodeEncodingError, "BOM present but content is not valid UTF-8")
		}
		doc.Encoding = EncodingUTF8BOM
		doc.Content = string(body)
	case utf8.Valid(raw):
		doc.Encoding = EncodingUTF8
		doc.Content = string(raw)
	default:
		doc.Encoding = EncodingLatin1
		doc.Content = decodeLatin1(raw)
	}

	if strings.Contains(doc.Content, "\r\n") {
		doc.EOLStyle = EOLCRLF
	} else {
		doc.EOLStyle = EOLLF
	}
	doc.Lines = strings.Split(doc.Content, doc.EOLStyle.Sequence())

	parseStructure(doc)

	log.FromContext(ctx).Debug("loaded document",
		"path", path,
		"encoding", string(doc.Encoding),
		"eol", string(doc.EOLStyle),
		"lines", len(doc.Lines),
		"sections", len(doc.Sections))

	return doc, nil
}

// hashBytes returns the lowercase hex SHA-256 of data.
func hashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// decodeLatin1 maps each byte to the code point of the same value.
func decodeLatin1(raw []byte) string {
	runes := make([]rune, len(raw))
	for i, b := range raw {
		runes[i] = rune(b)
	}
	return string(runes)
}

// encodeLatin1 is the inverse of decodeLatin1. Runes above U+00FF have no
// Latin-1 representation; the first one encountered aborts the encode.
func encodeLatin1(s string) ([]byte, error) {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if r > 0xFF {
			return nil, newError(CodeEncodingError, "character %q cannot be encoded as latin-1", r)
		}
		out = append(out, byte(r))
	}
	return out, nil
}

// Encode renders content with the document's original encoding, reattaching
// the BOM when one was present.
func (d *Document) Encode(content string) ([]byte, error) {
	switch d.Encoding {
	case EncodingLatin1:
		return encodeLatin1(content)
	case EncodingUTF8BOM:
		out := make([]byte, 0, len(utf8BOM)+len(content))
		out = append(out, utf8BOM...)
		return append(out, content...), nil
	default:
		return []byte(content), nil
	}
}
