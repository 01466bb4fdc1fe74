package core

import (
	"errors"
	"fmt"
)

// ErrSortInProgress is returned when a sort run is requested for a user who
// already has one running in this process.
var ErrSortInProgress = errors.New("a sort run is already in progress for this user")

var errEmptyResponse = errors.New("generation service returned an empty response")

// ModelError wraps a failure to get a response out of the generation service:
// transport errors, provider rejections, or an empty response body. No
// mutation has happened when it is returned, so the whole run is retryable.
type ModelError struct {
	Cause error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("model invocation failed: %v", e.Cause)
}

func (e *ModelError) Unwrap() error {
	return e.Cause
}

type ParseErrorKind string

const (
	ParseErrInvalidJSON  ParseErrorKind = "invalid_json"
	ParseErrNotAnArray   ParseErrorKind = "not_an_array"
	ParseErrNotAnObject  ParseErrorKind = "not_an_object"
	ParseErrMissingField ParseErrorKind = "missing_field"
)

// ParseError means the model's output did not conform to the expected shape.
// Callers branch on Kind rather than inspecting message text.
type ParseError struct {
	Kind   ParseErrorKind
	Field  string // Set for ParseErrMissingField
	Detail string
}

func (e *ParseError) Error() string {
	if e.Kind == ParseErrMissingField {
		return fmt.Sprintf("model response parse error (%s): element missing required field %q", e.Kind, e.Field)
	}
	return fmt.Sprintf("model response parse error (%s): %s", e.Kind, e.Detail)
}

// PersistenceError reports a store failure mid-run. Committed carries exactly
// how many notes made it in before the failure, so a partial commit is never
// reported as success.
type PersistenceError struct {
	Op        string // "persist" or "clear"
	Committed int
	Expected  int
	Cause     error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s (%d/%d notes committed): %v", e.Op, e.Committed, e.Expected, e.Cause)
}

func (e *PersistenceError) Unwrap() error {
	return e.Cause
}
