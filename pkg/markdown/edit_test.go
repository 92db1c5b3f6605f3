package markdown

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeEdits(t *testing.T) {
	edits, err := DecodeEdits([]byte(`[
		{"op": "replace_match", "pattern": "foo", "replacement": "bar",
		 "occurrence": 2, "flags": "i", "expectedMatches": 3},
		{"op": "replace_section", "headingPath": ["A", "B"], "markdown": "x",
		 "keepSubsections": false}
	]`))
	require.NoError(t, err)
	require.Len(t, edits, 2)

	first := edits[0]
	require.Equal(t, OpReplaceMatch, first.Op)
	require.Equal(t, "foo", *first.Pattern)
	require.Equal(t, "i", first.Flags)
	require.Equal(t, Occurrence{N: 2}, *first.Occurrence)
	require.Equal(t, 3, *first.ExpectedMatches)
	require.True(t, first.literalPattern())

	second := edits[1]
	require.Equal(t, []string{"A", "B"}, second.HeadingPath)
	require.False(t, second.keepSubsections())
}

func TestDecodeEditsInvalidJSON(t *testing.T) {
	_, err := DecodeEdits([]byte(`{"op": "not a list"}`))
	require.Error(t, err)
}

func TestOccurrenceJSON(t *testing.T) {
	var occ Occurrence
	require.NoError(t, json.Unmarshal([]byte(`"all"`), &occ))
	require.True(t, occ.All)

	require.NoError(t, json.Unmarshal([]byte(`3`), &occ))
	require.False(t, occ.All)
	require.Equal(t, 3, occ.N)

	require.Error(t, json.Unmarshal([]byte(`"first"`), &occ))
	require.Error(t, json.Unmarshal([]byte(`true`), &occ))

	out, err := json.Marshal(Occurrence{All: true})
	require.NoError(t, err)
	require.JSONEq(t, `"all"`, string(out))

	out, err = json.Marshal(Occurrence{N: 2})
	require.NoError(t, err)
	require.JSONEq(t, `2`, string(out))
}

func TestEditDefaults(t *testing.T) {
	var e Edit
	require.True(t, e.literalPattern())
	require.True(t, e.occurrence().All)
	require.Equal(t, ScopeWholeDocument, e.scope().Kind)
	require.True(t, e.ensureBlankLine())
	require.True(t, e.keepSubsections())
	require.Equal(t, PolicyExclude, policy(""))
	require.Equal(t, PolicyInclude, policy(PolicyInclude))
}
