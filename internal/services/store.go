package services

import (
	"context"

	"github.com/sieve-ai/fileflow/internal/models"
)

// ObjectStore is the narrow object-storage contract every pipeline stage
// works against. The GCS implementation lives in internal/gcp; tests use an
// in-memory fake.
type ObjectStore interface {
	// Read returns the full content of an object, or ErrObjectNotFound.
	Read(ctx context.Context, ref models.ObjectRef) ([]byte, error)

	// ReadRange returns at most n leading bytes of an object, or
	// ErrObjectNotFound. Used for bounded signature sniffing.
	ReadRange(ctx context.Context, ref models.ObjectRef, n int64) ([]byte, error)

	// Write stores content at ref, overwriting any existing object. All
	// derived artifacts are deterministic, so overwrites are safe under
	// redelivery.
	Write(ctx context.Context, ref models.ObjectRef, data []byte, contentType string) error

	// Copy duplicates src to dst, possibly across buckets.
	Copy(ctx context.Context, src, dst models.ObjectRef) error

	// Delete removes an object. Deleting a missing object returns
	// ErrObjectNotFound.
	Delete(ctx context.Context, ref models.ObjectRef) error

	// Stat returns the size of an object, or ErrObjectNotFound.
	Stat(ctx context.Context, ref models.ObjectRef) (int64, error)

	// List returns the paths of all objects under prefix in bucket.
	List(ctx context.Context, bucket, prefix string) ([]string, error)
}

// Ledger records terminal outcomes per ingested file. Implementations must
// tolerate duplicate records for the same object (redelivery). The Firestore
// implementation lives in internal/gcp.
type Ledger interface {
	Record(ctx context.Context, entry models.LedgerEntry) error
}
