// Package errs defines the failure taxonomy of the export pipeline.
// None of these errors are retried; each one aborts the operation that
// produced it.
package errs

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates a requested term does not exist in the ontology.
var ErrNotFound = errors.New("not found")

// MissingInputError reports that a required input file is absent.
type MissingInputError struct {
	Path string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("missing input file: %s", e.Path)
}

// MalformedLineError reports an annotation line with too few fields.
type MalformedLineError struct {
	Path   string
	Line   int
	Fields int
	Want   int
}

func (e *MalformedLineError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("line %d: got %d fields, want at least %d", e.Line, e.Fields, e.Want)
	}
	return fmt.Sprintf("%s:%d: got %d fields, want at least %d", e.Path, e.Line, e.Fields, e.Want)
}

// SourceUnavailableError reports that the ontology could not be fetched or parsed.
type SourceUnavailableError struct {
	Location string
	Err      error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("ontology source %s unavailable: %v", e.Location, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error { return e.Err }

// MalformedRelationshipError reports a relationship value that is not
// exactly "<predicate> <value>".
type MalformedRelationshipError struct {
	TermID string
	Value  string
}

func (e *MalformedRelationshipError) Error() string {
	return fmt.Sprintf("term %s: malformed relationship %q", e.TermID, e.Value)
}
