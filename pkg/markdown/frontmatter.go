package markdown

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"
)

// frontMatterScanLimit caps the search for the closing delimiter so a stray
// opening "---" in a huge file does not trigger a whole-file scan.
const frontMatterScanLimit = 50

// FrontMatter is the YAML block between two "---" delimiter lines at the very
// top of the file. Data preserves the key order of the source document so
// updates rewrite keys where they already stand; Start and End are the
// 0-based line indexes of the two delimiter lines.
type FrontMatter struct {
	Data  yaml.MapSlice
	Start int
	End   int
}

// extractFrontMatter populates doc.FrontMatter when the file opens with a
// parseable YAML block. A block that fails to parse is treated as absent and
// reported as a load warning.
func extractFrontMatter(doc *Document) {
	lines := doc.Lines
	if len(lines) == 0 || strings.TrimRight(lines[0], "\r") != "---" {
		return
	}
	limit := len(lines)
	if limit > frontMatterScanLimit {
		limit = frontMatterScanLimit
	}
	for i := 1; i < limit; i++ {
		if strings.TrimSpace(lines[i]) != "---" {
			continue
		}
		raw := strings.Join(lines[1:i], "\n")
		var data yaml.MapSlice
		if err := yaml.UnmarshalWithOptions([]byte(raw), &data, yaml.UseOrderedMap()); err != nil {
			doc.LoadWarnings = append(doc.LoadWarnings, Diagnostic{
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("front matter is not valid YAML: %v", err),
				Line:     1,
				Source:   "parser",
			})
			return
		}
		doc.FrontMatter = &FrontMatter{Data: data, Start: 0, End: i}
		return
	}
}

// fmUpsert sets key to value, rewriting an existing entry in place or
// appending a new one at the end.
func fmUpsert(data yaml.MapSlice, key string, value any) yaml.MapSlice {
	for i := range data {
		if fmt.Sprint(data[i].Key) == key {
			data[i].Value = value
			return data
		}
	}
	return append(data, yaml.MapItem{Key: key, Value: value})
}

// fmRemove deletes the entry for key, if any.
func fmRemove(data yaml.MapSlice, key string) yaml.MapSlice {
	out := data[:0]
	for _, item := range data {
		if fmt.Sprint(item.Key) == key {
			continue
		}
		out = append(out, item)
	}
	return out
}

// fmSerialize renders the mapping as block-style YAML lines, delimiters not
// included. Existing keys keep their document order; sequence items are
// emitted unindented.
func fmSerialize(data yaml.MapSlice) ([]string, error) {
	if len(data) == 0 {
		return []string{"{}"}, nil
	}
	out, err := yaml.Marshal(data)
	if err != nil {
		return nil, err
	}
	return strings.Split(strings.TrimRight(string(out), "\n"), "\n"), nil
}

// fmApply produces the updated mapping for an update_front_matter edit. Keys
// in set overwrite in place; keys new to the document are appended in sorted
// order so the output is deterministic. Removes run after sets.
func fmApply(data yaml.MapSlice, set map[string]any, remove []string) yaml.MapSlice {
	out := make(yaml.MapSlice, len(data))
	copy(out, data)

	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = fmUpsert(out, k, set[k])
	}
	for _, k := range remove {
		out = fmRemove(out, k)
	}
	return out
}

// fmToPlain converts ordered YAML values into plain map/slice values for JSON
// emission in stat results.
func fmToPlain(v any) any {
	switch val := v.(type) {
	case yaml.MapSlice:
		out := make(map[string]any, len(val))
		for _, item := range val {
			out[fmt.Sprint(item.Key)] = fmToPlain(item.Value)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = fmToPlain(item)
		}
		return out
	default:
		return v
	}
}
