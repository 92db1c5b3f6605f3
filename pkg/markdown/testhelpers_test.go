package markdown

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeTemp writes content to a fresh temp file and returns its path.
func writeTemp(t *testing.T, content string) string {
	t.Helper()
	return writeTempBytes(t, []byte(content))
}

func writeTempBytes(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.md")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// mustLoad loads a document built from content.
func mustLoad(t *testing.T, content string) *Document {
	t.Helper()
	doc, err := Load(context.Background(), writeTemp(t, content))
	require.NoError(t, err)
	return doc
}

// readBack returns the current bytes of path as a string.
func readBack(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// sha returns the hex SHA-256 of content, the way the loader hashes raw
// bytes.
func sha(content string) string {
	return hashBytes([]byte(content))
}

func ptr[T any](v T) *T { return &v }
