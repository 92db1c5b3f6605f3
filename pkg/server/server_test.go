package server

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRegistersTools(t *testing.T) {
	require.NotNil(t, New("test"))
}

func TestHandleStat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.md")
	require.NoError(t, os.WriteFile(path, []byte("# A\ntext\n"), 0o644))

	_, res, err := handleStat(context.Background(), nil, statArgs{File: path})
	require.NoError(t, err)
	require.True(t, res.OK)
	require.Len(t, res.Sections, 1)
}

func TestHandleApplyDecodesEdits(t *testing.T) {
	content := "foo\n"
	path := filepath.Join(t.TempDir(), "doc.md")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	sum := sha256.Sum256([]byte(content))
	_, res, err := handleApply(context.Background(), nil, applyArgs{
		File:       path,
		BaseSha256: hex.EncodeToString(sum[:]),
		DryRun:     true,
		Edits: []map[string]any{
			{"op": "replace_match", "pattern": "foo", "replacement": "bar"},
		},
	})
	require.NoError(t, err)
	require.True(t, res.OK)
	require.True(t, res.DryRun)
	require.Equal(t, 1, res.EditsApplied)

	data, rerr := os.ReadFile(path)
	require.NoError(t, rerr)
	require.Equal(t, content, string(data))
}

func TestHandleApplyRejectsBadEdits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.md")
	require.NoError(t, os.WriteFile(path, []byte("x\n"), 0o644))

	_, res, err := handleApply(context.Background(), nil, applyArgs{
		File:       path,
		BaseSha256: "irrelevant",
		Edits: []map[string]any{
			{"op": "replace_match", "occurrence": "first"},
		},
	})
	require.NoError(t, err)
	require.False(t, res.OK)
	require.Equal(t, "INVALID_OPERATION", res.ErrorCode)
}
