package markdown

import (
	"encoding/json"
	"fmt"
)

// Edit op tags. The set is closed; anything else is INVALID_OPERATION.
const (
	OpReplaceRange       = "replace_range"
	OpReplaceMatch       = "replace_match"
	OpReplaceSection     = "replace_section"
	OpInsertAfterHeading = "insert_after_heading"
	OpUpdateFrontMatter  = "update_front_matter"
)

// Context filter policies for replace_match. Every filter defaults to
// exclude.
const (
	PolicyExclude = "exclude"
	PolicyInclude = "include"
)

// Insertion positions for insert_after_heading.
const (
	PositionAfterHeading = "afterHeading"
	PositionStart        = "start"
	PositionEnd          = "end"
)

// Scope kinds for replace_match.
const (
	ScopeWholeDocument = "whole_document"
	ScopeSection       = "section"
)

// Occurrence selects which matches of a replace_match to rewrite: every one,
// or the k-th in document order (1-based). The JSON form is the literal
// string "all" or a positive integer.
type Occurrence struct {
	All bool
	N   int
}

func (o *Occurrence) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != "all" {
			return fmt.Errorf("occurrence must be \"all\" or a positive integer, got %q", s)
		}
		o.All = true
		o.N = 0
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("occurrence must be \"all\" or a positive integer")
	}
	o.All = false
	o.N = n
	return nil
}

func (o Occurrence) MarshalJSON() ([]byte, error) {
	if o.All {
		return json.Marshal("all")
	}
	return json.Marshal(o.N)
}

// Scope bounds a replace_match to the whole document or to one resolved
// section.
type Scope struct {
	Kind               string   `json:"kind"`
	HeadingPath        []string `json:"headingPath,omitempty"`
	SectionID          string   `json:"sectionId,omitempty"`
	IncludeSubsections bool     `json:"includeSubsections,omitempty"`
}

// Edit is one declarative operation against the document. It is a closed sum
// over the five op tags; per-op required fields are shape-checked by the
// kernel before anything mutates, and unknown fields are ignored the way the
// original tool ignored them.
//
// Positions in edits are 1-based (stat output is 0-based; the asymmetry is a
// compatibility contract).
type Edit struct {
	Op string `json:"op"`

	// replace_range
	Range        *Range  `json:"range,omitempty"`
	Replacement  *string `json:"replacement,omitempty"`
	ExpectedText *string `json:"expectedText,omitempty"`

	// replace_match
	Pattern         *string     `json:"pattern,omitempty"`
	Literal         *bool       `json:"literal,omitempty"`
	Flags           string      `json:"flags,omitempty"`
	Occurrence      *Occurrence `json:"occurrence,omitempty"`
	ExpectedMatches *int        `json:"expectedMatches,omitempty"`
	Scope           *Scope      `json:"scope,omitempty"`
	CodeBlocks      string      `json:"codeBlocks,omitempty"`
	LinksAndImages  string      `json:"linksAndImages,omitempty"`
	Tables          string      `json:"tables,omitempty"`

	// replace_section / insert_after_heading
	HeadingPath     []string `json:"headingPath,omitempty"`
	SectionID       string   `json:"sectionId,omitempty"`
	Markdown        *string  `json:"markdown,omitempty"`
	KeepSubsections *bool    `json:"keepSubsections,omitempty"`
	Position        string   `json:"position,omitempty"`
	EnsureBlankLine *bool    `json:"ensureBlankLine,omitempty"`

	// update_front_matter
	Set    map[string]any `json:"set,omitempty"`
	Remove []string       `json:"remove,omitempty"`
}

// DecodeEdits parses a JSON edit list.
func DecodeEdits(data []byte) ([]Edit, error) {
	var edits []Edit
	if err := json.Unmarshal(data, &edits); err != nil {
		return nil, wrapError(CodeInvalidOperation, err, "edits are not a valid JSON list")
	}
	return edits, nil
}

// literalPattern reports whether the pattern should be escaped before
// compilation. Defaults to true, matching the original tool.
func (e *Edit) literalPattern() bool {
	if e.Literal == nil {
		return true
	}
	return *e.Literal
}

// occurrence returns the selector, defaulting to all.
func (e *Edit) occurrence() Occurrence {
	if e.Occurrence == nil {
		return Occurrence{All: true}
	}
	return *e.Occurrence
}

// scope returns the match scope, defaulting to the whole document.
func (e *Edit) scope() Scope {
	if e.Scope == nil {
		return Scope{Kind: ScopeWholeDocument}
	}
	return *e.Scope
}

// policy normalizes a context filter value, defaulting to exclude.
func policy(v string) string {
	if v == "" {
		return PolicyExclude
	}
	return v
}

// keepSubsections defaults to true: replacing a section leaves its
// subsections standing unless the caller explicitly asks for them to go.
func (e *Edit) keepSubsections() bool {
	if e.KeepSubsections == nil {
		return true
	}
	return *e.KeepSubsections
}

// ensureBlankLine defaults to true.
func (e *Edit) ensureBlankLine() bool {
	if e.EnsureBlankLine == nil {
		return true
	}
	return *e.EnsureBlankLine
}
