package markdown

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Formatter is the narrow post-processing hook the finalizer and validator
// call. Implementations take the whole document text and return the
// formatted text.
type Formatter interface {
	Format(ctx context.Context, content string) (string, error)
}

// CommandFormatter pipes content through an external command's stdin/stdout.
type CommandFormatter struct {
	Name string
	Args []string
}

func (f *CommandFormatter) Format(ctx context.Context, content string) (string, error) {
	cmd := exec.CommandContext(ctx, f.Name, f.Args...)
	cmd.Stdin = strings.NewReader(content)
	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(errBuf.String())
		if msg != "" {
			return "", fmt.Errorf("%s: %v: %s", f.Name, err, msg)
		}
		return "", fmt.Errorf("%s: %v", f.Name, err)
	}
	return out.String(), nil
}

// FormatterFor resolves a formatMode string to a Formatter. Mode "none" (or
// empty) means no formatting. Unknown modes are rejected up front so a typo
// cannot silently skip formatting.
func FormatterFor(mode string) (Formatter, *Error) {
	switch mode {
	case "", "none":
		return nil, nil
	case "mdformat":
		return &CommandFormatter{Name: "mdformat", Args: []string{"-"}}, nil
	default:
		return nil, newError(CodeInvalidOperation, "unknown format mode: %q", mode)
	}
}
