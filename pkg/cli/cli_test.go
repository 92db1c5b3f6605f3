package cli_test

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jlrickert/mdedit/pkg/cli"
	"github.com/jlrickert/mdedit/pkg/log"
)

// runCLI executes the root command with captured streams and a quiet logger.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := cli.NewRootCmd()
	var out, errBuf bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)

	ctx := log.ContextWithLogger(context.Background(), log.NewNopLogger())
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func writeDoc(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.md")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func shaOf(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func decode(t *testing.T, out string) map[string]any {
	t.Helper()
	var v map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	return v
}

func TestStatCommand(t *testing.T) {
	path := writeDoc(t, "# A\ntext\n")

	out, err := runCLI(t, "stat", path)
	require.NoError(t, err)

	res := decode(t, out)
	require.Equal(t, true, res["ok"])
	require.Equal(t, shaOf("# A\ntext\n"), res["contentSha256"])
	require.Equal(t, float64(3), res["lineCount"])
	require.Len(t, res["sections"], 1)
}

func TestStatCommandMissingFile(t *testing.T) {
	out, err := runCLI(t, "stat", filepath.Join(t.TempDir(), "missing.md"))
	require.ErrorIs(t, err, cli.ErrResultNotOK)

	res := decode(t, out)
	require.Equal(t, false, res["ok"])
	require.Equal(t, "IO_ERROR", res["errorCode"])
}

func TestValidateCommand(t *testing.T) {
	path := writeDoc(t, "# A\n```\ncode\n")

	out, err := runCLI(t, "validate", path)
	require.NoError(t, err)

	res := decode(t, out)
	require.Equal(t, true, res["ok"])
	require.Len(t, res["diagnostics"], 1)
}

func TestApplyCommand(t *testing.T) {
	content := "foo\n```\nfoo\n```\nfoo\n"
	path := writeDoc(t, content)

	out, err := runCLI(t, "apply", path,
		"--base-sha256", shaOf(content),
		"--edits", `[{"op":"replace_match","pattern":"foo","replacement":"bar"}]`)
	require.NoError(t, err)

	res := decode(t, out)
	require.Equal(t, true, res["ok"])
	require.Equal(t, float64(1), res["editsApplied"])

	data, rerr := os.ReadFile(path)
	require.NoError(t, rerr)
	require.Equal(t, "bar\n```\nfoo\n```\nbar\n", string(data))
}

func TestApplyCommandPreconditionFails(t *testing.T) {
	content := "# A\nhi\n"
	path := writeDoc(t, content)

	out, err := runCLI(t, "apply", path,
		"--base-sha256", shaOf("something else"),
		"--edits", `[]`)
	require.ErrorIs(t, err, cli.ErrResultNotOK)

	res := decode(t, out)
	require.Equal(t, false, res["ok"])
	require.Equal(t, "PRECONDITION_FAILED", res["errorCode"])

	data, rerr := os.ReadFile(path)
	require.NoError(t, rerr)
	require.Equal(t, content, string(data))
}

func TestApplyCommandDryRun(t *testing.T) {
	content := "foo\n"
	path := writeDoc(t, content)

	out, err := runCLI(t, "apply", path,
		"--base-sha256", shaOf(content),
		"--dry-run",
		"--edits", `[{"op":"replace_match","pattern":"foo","replacement":"bar"}]`)
	require.NoError(t, err)

	res := decode(t, out)
	require.Equal(t, true, res["ok"])
	require.Equal(t, true, res["dryRun"])

	data, rerr := os.ReadFile(path)
	require.NoError(t, rerr)
	require.Equal(t, content, string(data))
}

func TestApplyCommandEditsFileYAML(t *testing.T) {
	content := "foo\n"
	path := writeDoc(t, content)

	editsPath := filepath.Join(t.TempDir(), "edits.yaml")
	require.NoError(t, os.WriteFile(editsPath, []byte(
		"- op: replace_match\n  pattern: foo\n  replacement: bar\n"), 0o644))

	out, err := runCLI(t, "apply", path,
		"--base-sha256", shaOf(content),
		"--edits-file", editsPath)
	require.NoError(t, err)

	res := decode(t, out)
	require.Equal(t, true, res["ok"])

	data, rerr := os.ReadFile(path)
	require.NoError(t, rerr)
	require.Equal(t, "bar\n", string(data))
}

func TestApplyCommandNoEdits(t *testing.T) {
	content := "x\n"
	path := writeDoc(t, content)

	out, err := runCLI(t, "apply", path, "--base-sha256", shaOf(content))
	require.ErrorIs(t, err, cli.ErrResultNotOK)

	res := decode(t, out)
	require.Equal(t, "INVALID_OPERATION", res["errorCode"])
}
