package core

import (
	"fmt"
	"strings"

	"thoughtsort/internal/store"
)

// Prompt builders are pure functions: same inputs, same string, no calls out.

const sortInstructions = `Return ONLY a valid JSON array. Each object must have exactly these fields:
- originalText: string (the entry text, copied verbatim, never paraphrased)
- timestamp: string (copied from the entry header)
- filename: string (a short slug of 3-6 lowercase hyphenated words, no dates, no tag names)
- tags: array of 1-4 strings (lowercase, hyphenated, no # prefix)
- aiNote: string (a short observation about the entry, may be empty)

Prefer the known tags when one fits. Only coin a new tag (lowercase, hyphens) when none of them does.`

func BuildSortPrompt(entries []store.InboxEntry, knownTags []string) string {
	headers := make([]string, 0, len(entries))
	for _, entry := range entries {
		headers = append(headers, fmt.Sprintf("### %s\n%s", entry.Timestamp, entry.Text))
	}
	inboxText := strings.Join(headers, "\n\n")

	knownTagsStr := ""
	if len(knownTags) > 0 {
		knownTagsStr = fmt.Sprintf("KNOWN TAGS: %s\n", joinTagged(knownTags))
	}

	return fmt.Sprintf(`You are an intelligent personal thought organizer.

%s
%s

INBOX:
%s`, knownTagsStr, sortInstructions, inboxText)
}

func BuildAnnotatePrompt(text string, knownTags []string) string {
	knownTagsStr := ""
	if len(knownTags) > 0 {
		knownTagsStr = fmt.Sprintf("KNOWN TAGS (prefer these): %s\n\n", joinTagged(knownTags))
	}

	return fmt.Sprintf(`Tag this personal note with 1-4 topic tags.

%sRULES:
- Prefer known tags. Only create new tags (lowercase, hyphens) if nothing fits.
- No # prefix. Reflect the actual topic, not generic words like 'note' or 'text'.
- Return a JSON object with a single 'tags' array of strings.

NOTE: %s`, knownTagsStr, text)
}

func BuildAmalgamatePrompt(tag string, notes []string, knownTags []string) string {
	notesText := strings.Join(notes, "\n\n---\n\n")

	knownTagsStr := ""
	if len(knownTags) > 0 {
		knownTagsStr = fmt.Sprintf("KNOWN TAGS: %s\n\n", joinTagged(knownTags))
	}

	return fmt.Sprintf(`You are synthesizing a person's thoughts on the topic "#%s".

%sRead all the notes below and write a clear, coherent synthesis that:
- Identifies the main themes and recurring ideas
- Notes any contradictions or evolution of thinking
- Highlights any actionable insights or decisions
- Is written in second person ("You seem to be thinking about...")
- Is 2-4 paragraphs long

NOTES:
%s`, tag, knownTagsStr, notesText)
}

func joinTagged(tags []string) string {
	prefixed := make([]string, 0, len(tags))
	for _, t := range tags {
		prefixed = append(prefixed, "#"+t)
	}
	return strings.Join(prefixed, ", ")
}
