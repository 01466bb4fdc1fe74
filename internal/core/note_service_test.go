package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnnotateReturnsNormalizedTags(t *testing.T) {
	gen := &stubGenerator{response: `{"tags": ["#Travel", " Lisbon "]}`}
	svc := NewNoteService(gen)

	tags, err := svc.Annotate(context.Background(), "thinking about moving to lisbon", []string{"travel"})
	require.NoError(t, err)
	assert.Equal(t, []string{"travel", "lisbon"}, tags)

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "thinking about moving to lisbon")
	assert.Contains(t, gen.prompts[0], "KNOWN TAGS (prefer these): #travel")
}

func TestAnnotateDegradesToEmptyTagSet(t *testing.T) {
	gen := &stubGenerator{response: `{"confidence": 0.9}`}
	svc := NewNoteService(gen)

	tags, err := svc.Annotate(context.Background(), "some note", nil)
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestAnnotatePropagatesModelError(t *testing.T) {
	gen := &stubGenerator{err: &ModelError{Cause: errors.New("quota exceeded")}}
	svc := NewNoteService(gen)

	_, err := svc.Annotate(context.Background(), "some note", nil)

	var modelErr *ModelError
	assert.ErrorAs(t, err, &modelErr)
}

func TestAnnotateInvalidJSONFails(t *testing.T) {
	gen := &stubGenerator{response: "sorry, no tags today"}
	svc := NewNoteService(gen)

	_, err := svc.Annotate(context.Background(), "some note", nil)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, ParseErrInvalidJSON, parseErr.Kind)
}

func TestAmalgamate(t *testing.T) {
	gen := &stubGenerator{response: "  You seem to be thinking about design a lot.  "}
	svc := NewNoteService(gen)

	summary, err := svc.Amalgamate(context.Background(), "design", []string{"note one", "note two"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "You seem to be thinking about design a lot.", summary)

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "note one\n\n---\n\nnote two")
	assert.Contains(t, gen.prompts[0], `"#design"`)
}

func TestAmalgamatePropagatesModelError(t *testing.T) {
	gen := &stubGenerator{err: &ModelError{Cause: errors.New("timeout")}}
	svc := NewNoteService(gen)

	_, err := svc.Amalgamate(context.Background(), "design", []string{"n"}, nil)

	var modelErr *ModelError
	assert.ErrorAs(t, err, &modelErr)
}
