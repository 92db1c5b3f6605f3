package markdown

import "fmt"

// validateFences scans for unbalanced code fences. Lines whose trimmed form
// starts with three or more backticks or tildes toggle an open/closed state
// per fence character; the two characters are tracked independently. One
// diagnostic is produced per fence still open at EOF, attributed to the
// opening line.
//
// The scan is deliberately naive relative to CommonMark nesting rules: a
// tilde fence line inside an open backtick block still toggles the tilde
// state. It is a sanity check, not a parse.
func validateFences(lines []string) []Diagnostic {
	open := map[byte]int{'`': -1, '~': -1}
	for i, line := range lines {
		ch, run, _ := fenceLine(line)
		if run < 3 {
			continue
		}
		if open[ch] < 0 {
			open[ch] = i
		} else {
			open[ch] = -1
		}
	}

	var diagnostics []Diagnostic
	for _, ch := range []byte{'`', '~'} {
		if open[ch] < 0 {
			continue
		}
		diagnostics = append(diagnostics, Diagnostic{
			Severity: SeverityError,
			Code:     "UNBALANCED_FENCE",
			Message:  fmt.Sprintf("unclosed %c%c%c fence opened at line %d", ch, ch, ch, open[ch]+1),
			Line:     open[ch] + 1,
			Source:   "validator",
		})
	}
	return diagnostics
}
