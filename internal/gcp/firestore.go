package gcp

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"

	"github.com/sieve-ai/fileflow/internal/models"
)

// NewFirestoreClient creates a Firestore client for the given project ID.
func NewFirestoreClient(ctx context.Context, projectID string) (*firestore.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore client")
	}
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}
	return client, nil
}

// FirestoreLedger implements services.Ledger by appending one document per
// terminal outcome. Duplicate entries for the same object are expected under
// at-least-once delivery and are harmless.
type FirestoreLedger struct {
	client     *firestore.Client
	collection string
}

func NewFirestoreLedger(client *firestore.Client, collection string) *FirestoreLedger {
	if collection == "" {
		collection = "ingestions"
	}
	return &FirestoreLedger{client: client, collection: collection}
}

func (l *FirestoreLedger) Record(ctx context.Context, entry models.LedgerEntry) error {
	if _, _, err := l.client.Collection(l.collection).Add(ctx, entry); err != nil {
		return fmt.Errorf("failed to record ledger entry for %s: %w", entry.Object, err)
	}
	return nil
}
