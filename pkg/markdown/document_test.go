package markdown

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadUTF8LF(t *testing.T) {
	doc := mustLoad(t, "# A\nhi\n")

	require.Equal(t, EncodingUTF8, doc.Encoding)
	require.Equal(t, EOLLF, doc.EOLStyle)
	require.Equal(t, []string{"# A", "hi", ""}, doc.Lines)
	require.Equal(t, sha("# A\nhi\n"), doc.SHA256)
}

func TestLoadCRLF(t *testing.T) {
	doc := mustLoad(t, "# A\r\nhi\r\n")

	require.Equal(t, EOLCRLF, doc.EOLStyle)
	require.Equal(t, []string{"# A", "hi", ""}, doc.Lines)
	require.Equal(t, "\r\n", doc.EOLStyle.Sequence())
}

func TestLoadBOM(t *testing.T) {
	raw := append([]byte{0xEF, 0xBB, 0xBF}, []byte("# A\nhi\n")...)
	doc, err := Load(context.Background(), writeTempBytes(t, raw))
	require.NoError(t, err)

	require.Equal(t, EncodingUTF8BOM, doc.Encoding)
	require.Equal(t, "# A\nhi\n", doc.Content)

	// identity hash covers the raw bytes, BOM included
	require.Equal(t, hashBytes(raw), doc.SHA256)

	// encode reattaches the BOM
	out, eerr := doc.Encode("# B\n")
	require.NoError(t, eerr)
	require.Equal(t, append([]byte{0xEF, 0xBB, 0xBF}, []byte("# B\n")...), out)
}

func TestLoadLatin1Fallback(t *testing.T) {
	raw := []byte{'c', 'a', 'f', 0xE9, '\n'}
	doc, err := Load(context.Background(), writeTempBytes(t, raw))
	require.NoError(t, err)

	require.Equal(t, EncodingLatin1, doc.Encoding)
	require.Equal(t, "café\n", doc.Content)

	out, eerr := doc.Encode(doc.Content)
	require.NoError(t, eerr)
	require.Equal(t, raw, out)
}

func TestEncodeLatin1Unrepresentable(t *testing.T) {
	raw := []byte{0xE9, '\n'}
	doc, err := Load(context.Background(), writeTempBytes(t, raw))
	require.NoError(t, err)

	_, eerr := doc.Encode("snowman ☃\n")
	require.Error(t, eerr)
	require.True(t, errors.Is(eerr, ErrEncoding))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "missing.md"))
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrIO))
}
