package services

import (
	"context"
	"mime"

	"github.com/gabriel-vasile/mimetype"
	"github.com/sieve-ai/fileflow/internal/models"
)

// SignatureUnknown is returned when no content signature can be determined.
const SignatureUnknown = ""

// sniffLen matches mimetype's own detection window.
const sniffLen = 3072

// Classifier determines the authoritative content type of a stored object
// from its leading bytes, never from a caller-supplied type.
type Classifier struct {
	store ObjectStore
}

func NewClassifier(store ObjectStore) *Classifier {
	return &Classifier{store: store}
}

// Classify returns a canonical MIME string for the object, or
// SignatureUnknown when none can be determined (empty object, exotic
// format). A merely unrecognized type is not an error; only store failures
// are.
func (c *Classifier) Classify(ctx context.Context, ref models.ObjectRef) (string, error) {
	head, err := c.store.ReadRange(ctx, ref, sniffLen)
	if err != nil {
		return SignatureUnknown, err
	}
	if len(head) == 0 {
		return SignatureUnknown, nil
	}

	detected := mimetype.Detect(head).String()

	// mimetype appends charset parameters to text types; the category
	// tables are keyed by the bare media type.
	sig, _, err := mime.ParseMediaType(detected)
	if err != nil {
		sig = detected
	}
	if sig == "application/octet-stream" {
		// The detector's fallback, not a real signature.
		return SignatureUnknown, nil
	}
	return sig, nil
}
