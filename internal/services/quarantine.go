package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/sieve-ai/fileflow/internal/models"
)

// QuarantineSink isolates rejected or failed objects by relocating them to
// the quarantine prefix with an attached reason.
type QuarantineSink struct {
	store  ObjectStore
	ledger Ledger
	bucket string
	prefix string
}

func NewQuarantineSink(store ObjectStore, ledger Ledger, bucket, prefix string) *QuarantineSink {
	return &QuarantineSink{store: store, ledger: ledger, bucket: bucket, prefix: prefix}
}

// Quarantine copies ref to quarantine/<base-name> in the quarantine bucket
// (flattening any subpath), then deletes the source. It is idempotent under
// redelivery: a source that no longer exists is a silent success. A copy
// failure leaves the source untouched; a delete failure after a successful
// copy is logged but not retried, since a duplicate in quarantine is
// acceptable and an orphaned source is not.
func (q *QuarantineSink) Quarantine(ctx context.Context, ref models.ObjectRef, reason string) error {
	logCtx := slog.With("gcsBucket", ref.Bucket, "gcsObject", ref.Path, "reason", reason)

	dest := models.ObjectRef{
		Bucket: q.bucket,
		Path:   q.prefix + path.Base(ref.Path),
	}

	if _, err := q.store.Stat(ctx, ref); err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			logCtx.Warn("Source object already gone; nothing to quarantine.")
			return nil
		}
		return fmt.Errorf("failed to stat source before quarantine: %w", err)
	}

	if err := q.store.Copy(ctx, ref, dest); err != nil {
		logCtx.Error("Failed to copy object to quarantine; source left in place.", "error", err)
		return fmt.Errorf("failed to copy %s to quarantine: %w", ref.URI(), err)
	}

	if err := q.store.Delete(ctx, ref); err != nil && !errors.Is(err, ErrObjectNotFound) {
		logCtx.Error("Failed to delete source after quarantine copy; duplicate retained.", "error", err)
	}

	q.record(ctx, models.QuarantineRecord{
		Source:      ref,
		Destination: dest,
		Reason:      reason,
		CreatedAt:   time.Now(),
	})

	logCtx.Warn("File moved to quarantine.", "destination", dest.URI())
	return nil
}

func (q *QuarantineSink) record(ctx context.Context, rec models.QuarantineRecord) {
	if q.ledger == nil {
		return
	}
	entry := models.LedgerEntry{
		Bucket:    rec.Source.Bucket,
		Object:    rec.Source.Path,
		Status:    models.StatusQuarantined,
		Reason:    rec.Reason,
		CreatedAt: rec.CreatedAt,
	}
	if err := q.ledger.Record(ctx, entry); err != nil {
		slog.Error("Failed to record quarantine in ledger.", "gcsObject", rec.Source.Path, "error", err)
	}
}
