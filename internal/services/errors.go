package services

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across pipeline stages.
var (
	// ErrObjectNotFound reports that an object does not exist at its
	// expected location. Under at-least-once delivery this usually means a
	// previous invocation already finished with the file, so callers treat
	// it as benign.
	ErrObjectNotFound = errors.New("object not found")

	// ErrNoExtractableText reports that a collaborator or decoder produced
	// no usable text for a file. A valid outcome, but terminal for the file.
	ErrNoExtractableText = errors.New("no extractable text")
)

// CollaboratorError wraps a failure or timeout from one of the external
// extraction collaborators.
type CollaboratorError struct {
	Collaborator string
	Err          error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s collaborator: %v", e.Collaborator, e.Err)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }

// FormatError reports a structured-extraction response that contained no
// parseable JSON object.
type FormatError struct {
	Detail string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("malformed extraction response: %s", e.Detail)
}
