package gcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"

	"github.com/sieve-ai/fileflow/internal/models"
	"github.com/sieve-ai/fileflow/internal/services"
)

// Storage implements services.ObjectStore over Google Cloud Storage.
type Storage struct {
	client *storage.Client
}

func NewStorage(ctx context.Context) (*Storage, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &Storage{client: client}, nil
}

func (s *Storage) object(ref models.ObjectRef) *storage.ObjectHandle {
	return s.client.Bucket(ref.Bucket).Object(ref.Path)
}

func (s *Storage) Read(ctx context.Context, ref models.ObjectRef) ([]byte, error) {
	reader, err := s.object(ref).NewReader(ctx)
	if err != nil {
		return nil, mapNotFound(err, ref)
	}
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", ref.URI(), err)
	}
	return data, nil
}

func (s *Storage) ReadRange(ctx context.Context, ref models.ObjectRef, n int64) ([]byte, error) {
	reader, err := s.object(ref).NewRangeReader(ctx, 0, n)
	if err != nil {
		return nil, mapNotFound(err, ref)
	}
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to range-read %s: %w", ref.URI(), err)
	}
	return data, nil
}

// Write overwrites the destination object. Artifact content is derived
// deterministically from the source file, so redelivered events rewrite the
// same bytes.
func (s *Storage) Write(ctx context.Context, ref models.ObjectRef, data []byte, contentType string) error {
	writer := s.object(ref).NewWriter(ctx)
	writer.ContentType = contentType
	if _, err := io.Copy(writer, bytes.NewReader(data)); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write to %s: %w", ref.URI(), err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize write to %s: %w", ref.URI(), err)
	}
	return nil
}

func (s *Storage) Copy(ctx context.Context, src, dst models.ObjectRef) error {
	copier := s.object(dst).CopierFrom(s.object(src))
	if _, err := copier.Run(ctx); err != nil {
		return mapNotFound(err, src)
	}
	return nil
}

func (s *Storage) Delete(ctx context.Context, ref models.ObjectRef) error {
	if err := s.object(ref).Delete(ctx); err != nil {
		return mapNotFound(err, ref)
	}
	return nil
}

func (s *Storage) Stat(ctx context.Context, ref models.ObjectRef) (int64, error) {
	attrs, err := s.object(ref).Attrs(ctx)
	if err != nil {
		return 0, mapNotFound(err, ref)
	}
	return attrs.Size, nil
}

func (s *Storage) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	query := &storage.Query{Prefix: prefix}
	it := s.client.Bucket(bucket).Objects(ctx, query)

	var names []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list gs://%s/%s: %w", bucket, prefix, err)
		}
		names = append(names, attrs.Name)
	}
	return names, nil
}

// mapNotFound normalizes the two shapes GCS reports missing objects in.
func mapNotFound(err error, ref models.ObjectRef) error {
	if errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("%s: %w", ref.URI(), services.ErrObjectNotFound)
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == 404 {
		return fmt.Errorf("%s: %w", ref.URI(), services.ErrObjectNotFound)
	}
	return fmt.Errorf("%s: %w", ref.URI(), err)
}
