package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wellFormedArray = `[
  {"originalText": "buy milk", "timestamp": "2026-01-01T10:00", "filename": "buy-milk-reminder", "tags": ["shopping"], "aiNote": "A quick errand reminder."},
  {"originalText": "sketch the homepage", "timestamp": "2026-01-02T09:00", "filename": "homepage-sketch-idea", "tags": ["#Design", " Website ", "#website"], "aiNote": ""}
]`

func TestParseNoteArrayWellFormed(t *testing.T) {
	notes, err := ParseNoteArray(wellFormedArray)
	require.NoError(t, err)
	require.Len(t, notes, 2)

	assert.Equal(t, "buy milk", notes[0].OriginalText)
	assert.Equal(t, "2026-01-01T10:00", notes[0].Timestamp)
	assert.Equal(t, "buy-milk-reminder", notes[0].Filename)
	assert.Equal(t, []string{"shopping"}, notes[0].Tags)
	assert.Equal(t, "A quick errand reminder.", notes[0].AINote)

	// Normalization preserves duplicates; dedup is the caller's choice.
	assert.Equal(t, []string{"design", "website", "website"}, notes[1].Tags)
}

func TestParseNoteArrayToleratesCodeFence(t *testing.T) {
	fenced := "```json\n" + wellFormedArray + "\n```"

	plain, err := ParseNoteArray(wellFormedArray)
	require.NoError(t, err)
	wrapped, err := ParseNoteArray(fenced)
	require.NoError(t, err)

	assert.Equal(t, plain, wrapped)

	bareFence := "```\n" + wellFormedArray + "\n```"
	wrapped, err = ParseNoteArray(bareFence)
	require.NoError(t, err)
	assert.Equal(t, plain, wrapped)
}

func TestParseNoteArrayInvalidJSON(t *testing.T) {
	_, err := ParseNoteArray("I could not produce JSON, sorry!")

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, ParseErrInvalidJSON, parseErr.Kind)
}

func TestParseNoteArrayNotAnArray(t *testing.T) {
	_, err := ParseNoteArray(`{"originalText": "buy milk"}`)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, ParseErrNotAnArray, parseErr.Kind)
}

func TestParseNoteArrayMissingFieldFailsWholeBatch(t *testing.T) {
	// Second element lacks aiNote; even though the first is fine, the whole
	// batch must fail rather than yield a partial result.
	raw := `[
      {"originalText": "a", "timestamp": "t1", "filename": "f1", "tags": [], "aiNote": ""},
      {"originalText": "b", "timestamp": "t2", "filename": "f2", "tags": []}
    ]`

	notes, err := ParseNoteArray(raw)
	assert.Nil(t, notes)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, ParseErrMissingField, parseErr.Kind)
	assert.Equal(t, "aiNote", parseErr.Field)
}

func TestParseNoteArrayCoercesNonStringTags(t *testing.T) {
	raw := `[{"originalText": "a", "timestamp": "t", "filename": "f", "tags": ["#Go", 42, "  "], "aiNote": ""}]`

	notes, err := ParseNoteArray(raw)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, []string{"go", "42"}, notes[0].Tags)
}

func TestParseNoteArrayNonArrayTagsFieldDegrades(t *testing.T) {
	raw := `[{"originalText": "a", "timestamp": "t", "filename": "f", "tags": "shopping", "aiNote": ""}]`

	notes, err := ParseNoteArray(raw)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Empty(t, notes[0].Tags)
}

func TestNormalizeTagsStripsRepeatedMarkers(t *testing.T) {
	// Every leading '#' goes, not just the first, so normalized tags always
	// match ^[a-z0-9-]+$.
	tags := NormalizeTags([]any{"##Design", "###website", "##", "#go"}, true)
	assert.Equal(t, []string{"design", "website", "go"}, tags)
}

func TestParseTagObject(t *testing.T) {
	tags, err := ParseTagObject(`{"tags": ["#Design", " Website ", "#website"]}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"design", "website", "website"}, tags)
}

func TestParseTagObjectDropsNonStringElements(t *testing.T) {
	// The annotate path is best-effort: non-string elements are dropped, not
	// coerced and not fatal.
	tags, err := ParseTagObject(`{"tags": ["go", 42, null, {"x": 1}]}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"go"}, tags)
}

func TestParseTagObjectMissingOrMalformedTagsField(t *testing.T) {
	tags, err := ParseTagObject(`{}`)
	require.NoError(t, err)
	assert.Empty(t, tags)

	tags, err = ParseTagObject(`{"tags": "not-an-array"}`)
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestParseTagObjectInvalidJSON(t *testing.T) {
	_, err := ParseTagObject("nope")

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, ParseErrInvalidJSON, parseErr.Kind)
}

func TestParseTagObjectToleratesCodeFence(t *testing.T) {
	tags, err := ParseTagObject("```json\n{\"tags\": [\"shopping\"]}\n```")
	require.NoError(t, err)
	assert.Equal(t, []string{"shopping"}, tags)
}
