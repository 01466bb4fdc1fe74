package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thoughtsort/internal/store"
)

func TestBuildSortPromptContainsEntriesVerbatimInOrder(t *testing.T) {
	entries := []store.InboxEntry{
		{Text: "buy milk", Timestamp: "2026-01-01T10:00"},
		{Text: "idea: redesign the landing page\nwith a darker palette", Timestamp: "2026-01-02T09:30"},
		{Text: "call the dentist", Timestamp: "2026-01-03T14:15"},
	}

	prompt := BuildSortPrompt(entries, nil)

	lastIndex := -1
	for _, entry := range entries {
		idx := strings.Index(prompt, entry.Text)
		require.GreaterOrEqual(t, idx, 0, "entry text %q must appear verbatim", entry.Text)
		assert.Greater(t, idx, lastIndex, "entries must appear in input order")
		lastIndex = idx
	}
}

func TestBuildSortPromptEntryHeaders(t *testing.T) {
	entries := []store.InboxEntry{
		{Text: "one", Timestamp: "2026-02-02T08:00"},
		{Text: "two", Timestamp: "2026-02-03T08:00"},
	}

	prompt := BuildSortPrompt(entries, nil)

	assert.Contains(t, prompt, "### 2026-02-02T08:00\none")
	assert.Contains(t, prompt, "### 2026-02-03T08:00\ntwo")
	assert.Contains(t, prompt, "\n\n### 2026-02-03T08:00", "entries are blank-line separated")
}

func TestBuildSortPromptKnownTags(t *testing.T) {
	entries := []store.InboxEntry{{Text: "buy milk", Timestamp: "t"}}

	withTags := BuildSortPrompt(entries, []string{"shopping", "health"})
	assert.Contains(t, withTags, "KNOWN TAGS: #shopping, #health")

	withoutTags := BuildSortPrompt(entries, nil)
	assert.NotContains(t, withoutTags, "KNOWN TAGS")
}

func TestBuildSortPromptInstructionBlock(t *testing.T) {
	prompt := BuildSortPrompt([]store.InboxEntry{{Text: "x", Timestamp: "t"}}, nil)

	assert.Contains(t, prompt, "Return ONLY a valid JSON array")
	for _, field := range []string{"originalText", "timestamp", "filename", "tags", "aiNote"} {
		assert.Contains(t, prompt, field)
	}
	assert.Contains(t, prompt, "no # prefix")
	assert.Contains(t, prompt, "3-6 lowercase hyphenated words")
}

func TestBuildSortPromptDeterministic(t *testing.T) {
	entries := []store.InboxEntry{{Text: "buy milk", Timestamp: "t"}}
	tags := []string{"shopping"}

	assert.Equal(t, BuildSortPrompt(entries, tags), BuildSortPrompt(entries, tags))
}

func TestBuildAnnotatePrompt(t *testing.T) {
	prompt := BuildAnnotatePrompt("thinking about moving to lisbon", []string{"travel"})

	assert.Contains(t, prompt, "NOTE: thinking about moving to lisbon")
	assert.Contains(t, prompt, "KNOWN TAGS (prefer these): #travel")
	assert.Contains(t, prompt, "1-4 topic tags")
	assert.Contains(t, prompt, "'tags' array of strings")
	assert.Contains(t, prompt, "generic words like 'note'")
}

func TestBuildAmalgamatePrompt(t *testing.T) {
	notes := []string{"first note body", "second note body"}

	prompt := BuildAmalgamatePrompt("design", notes, []string{"design", "website"})

	assert.Contains(t, prompt, `"#design"`)
	assert.Contains(t, prompt, "first note body\n\n---\n\nsecond note body")
	assert.Contains(t, prompt, "second person")
	assert.Contains(t, prompt, "2-4 paragraphs")
	assert.Contains(t, prompt, "KNOWN TAGS: #design, #website")
}
