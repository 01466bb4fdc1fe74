package core

import (
	"context"
	"strings"
)

// NoteService covers the single-note model paths: annotating one note with
// tags and amalgamating the notes under a tag into a synthesis. Both are
// stateless against the store; the caller supplies the text.
type NoteService struct {
	llm Generator
}

func NewNoteService(llm Generator) *NoteService {
	return &NoteService{llm: llm}
}

// Annotate asks the model for 1-4 topic tags for one note. Parsing is
// best-effort: a malformed tags field degrades to an empty set rather than
// failing the request.
func (s *NoteService) Annotate(ctx context.Context, text string, knownTags []string) ([]string, error) {
	prompt := BuildAnnotatePrompt(text, knownTags)

	raw, err := s.llm.Generate(ctx, prompt, AnnotateGenerateOptions)
	if err != nil {
		return nil, err
	}

	return ParseTagObject(raw)
}

// Amalgamate synthesizes the given note bodies into one 2-4 paragraph
// second-person summary of the tag's recurring themes.
func (s *NoteService) Amalgamate(ctx context.Context, tag string, notes []string, knownTags []string) (string, error) {
	prompt := BuildAmalgamatePrompt(tag, notes, knownTags)

	raw, err := s.llm.Generate(ctx, prompt, AmalgamateGenerateOptions)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(raw), nil
}
