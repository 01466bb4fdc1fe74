package core

import (
	"encoding/json"
	"fmt"
	"strings"

	"thoughtsort/internal/store"
)

var requiredNoteFields = []string{"originalText", "timestamp", "filename", "tags", "aiNote"}

// ParseNoteArray parses the raw sort response into notes. It is strict: the
// payload must be a JSON array and every element must carry all required
// fields, otherwise the whole batch fails. One malformed element must not
// produce a truncated batch, since archiving/clearing depend on the full run
// succeeding.
func ParseNoteArray(raw string) ([]store.Note, error) {
	cleaned := stripCodeFence(raw)

	var top any
	if err := json.Unmarshal([]byte(cleaned), &top); err != nil {
		return nil, &ParseError{Kind: ParseErrInvalidJSON, Detail: err.Error()}
	}

	elements, ok := top.([]any)
	if !ok {
		return nil, &ParseError{Kind: ParseErrNotAnArray, Detail: fmt.Sprintf("top-level value is %T, expected array", top)}
	}

	notes := make([]store.Note, 0, len(elements))
	for _, element := range elements {
		obj, ok := element.(map[string]any)
		if !ok {
			return nil, &ParseError{Kind: ParseErrNotAnObject, Detail: fmt.Sprintf("array element is %T, expected object", element)}
		}

		for _, field := range requiredNoteFields {
			if _, present := obj[field]; !present {
				return nil, &ParseError{Kind: ParseErrMissingField, Field: field}
			}
		}

		notes = append(notes, store.Note{
			OriginalText: coerceString(obj["originalText"]),
			Timestamp:    coerceString(obj["timestamp"]),
			Filename:     coerceString(obj["filename"]),
			Tags:         NormalizeTags(asList(obj["tags"]), true),
			AINote:       coerceString(obj["aiNote"]),
		})
	}
	return notes, nil
}

// ParseTagObject parses the annotate response. It is deliberately lenient: an
// absent or malformed tags field degrades to an empty set instead of failing,
// since a lost tag suggestion is cheap compared to a lost sort batch.
func ParseTagObject(raw string) ([]string, error) {
	cleaned := stripCodeFence(raw)

	var top any
	if err := json.Unmarshal([]byte(cleaned), &top); err != nil {
		return nil, &ParseError{Kind: ParseErrInvalidJSON, Detail: err.Error()}
	}

	obj, ok := top.(map[string]any)
	if !ok {
		return nil, &ParseError{Kind: ParseErrNotAnObject, Detail: fmt.Sprintf("top-level value is %T, expected object", top)}
	}

	return NormalizeTags(asList(obj["tags"]), false), nil
}

// NormalizeTags lowercases, trims, strips leading '#' markers, and drops entries
// that normalize to empty. With coerce set, non-string values are rendered as
// strings (the strict sort path); without it they are silently dropped (the
// best-effort annotate path). Duplicates are preserved.
func NormalizeTags(values []any, coerce bool) []string {
	tags := make([]string, 0, len(values))
	for _, value := range values {
		str, isString := value.(string)
		if !isString {
			if !coerce || value == nil {
				continue
			}
			str = coerceString(value)
		}

		tag := strings.TrimLeft(strings.TrimSpace(strings.ToLower(str)), "#")
		if tag == "" {
			continue
		}
		tags = append(tags, tag)
	}
	return tags
}

// stripCodeFence removes a surrounding markdown fence. The model sometimes
// wraps its JSON in ```json ... ``` despite instructions; that has to be
// tolerated, not rejected.
func stripCodeFence(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```")
	if newline := strings.Index(trimmed, "\n"); newline >= 0 {
		// Drop the language hint on the opening fence line, e.g. "json".
		firstLine := strings.TrimSpace(trimmed[:newline])
		if firstLine == "" || !strings.ContainsAny(firstLine, "{[") {
			trimmed = trimmed[newline+1:]
		}
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

func coerceString(value any) string {
	if str, ok := value.(string); ok {
		return str
	}
	if value == nil {
		return ""
	}
	if num, ok := value.(float64); ok && num == float64(int64(num)) {
		return fmt.Sprintf("%d", int64(num))
	}
	return fmt.Sprintf("%v", value)
}

func asList(value any) []any {
	if list, ok := value.([]any); ok {
		return list
	}
	return nil
}
