package markdown

// Result records for the three public operations. These marshal directly to
// the wire JSON the CLI and MCP server emit.
//
// Line numbers in StatResult records are 0-based; they are opaque addresses
// for later apply calls. Positions inside Match and Diagnostic records are
// 1-based. The asymmetry is a compatibility contract.

// StatResult is the structural description of a file.
type StatResult struct {
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
	ErrorCode string `json:"errorCode,omitempty"`

	FilePath       string         `json:"filePath,omitempty"`
	ContentSHA256  string         `json:"contentSha256,omitempty"`
	Encoding       string         `json:"encoding,omitempty"`
	EOL            string         `json:"eol,omitempty"`
	LineCount      int            `json:"lineCount,omitempty"`
	Sections       []Section      `json:"sections,omitempty"`
	CodeBlocks     []CodeBlock    `json:"codeBlocks,omitempty"`
	Tables         []Table        `json:"tables,omitempty"`
	FrontMatter    map[string]any `json:"frontMatter,omitempty"`
	HasFrontMatter bool           `json:"hasFrontMatter"`
}

// ValidateResult is the diagnostic report, with an optional format preview.
type ValidateResult struct {
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
	ErrorCode string `json:"errorCode,omitempty"`

	FilePath         string       `json:"filePath,omitempty"`
	ContentSHA256    string       `json:"contentSha256,omitempty"`
	Diagnostics      []Diagnostic `json:"diagnostics,omitempty"`
	FormattedPreview *string      `json:"formattedPreview,omitempty"`
	HasFormatChanges *bool        `json:"hasFormatChanges,omitempty"`
	FormatError      string       `json:"formatError,omitempty"`
}

// ApplyResult reports an edit batch: the new hash and diff on success, or
// the error code plus accumulated diagnostics on failure. Expected and
// Actual are populated only for the hash precondition failure.
type ApplyResult struct {
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
	ErrorCode string `json:"errorCode,omitempty"`

	FilePath      string       `json:"filePath,omitempty"`
	ContentSHA256 string       `json:"contentSha256,omitempty"`
	Diff          string       `json:"diff,omitempty"`
	EditsApplied  int          `json:"editsApplied"`
	DryRun        bool         `json:"dryRun"`
	Matches       []Match      `json:"matches,omitempty"`
	Diagnostics   []Diagnostic `json:"diagnostics,omitempty"`
	Expected      string       `json:"expected,omitempty"`
	Actual        string       `json:"actual,omitempty"`
}
