package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sieve-ai/fileflow/internal/models"
)

// memStore is an in-memory ObjectStore used across the package tests.
type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte

	failCopy   bool
	failDelete bool
	copyCalls  int
	writeCalls int
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[string][]byte)}
}

func key(ref models.ObjectRef) string {
	return ref.Bucket + "/" + ref.Path
}

func (m *memStore) put(ref models.ObjectRef, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key(ref)] = data
}

func (m *memStore) has(ref models.ObjectRef) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key(ref)]
	return ok
}

func (m *memStore) get(ref models.ObjectRef) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.objects[key(ref)]
}

func (m *memStore) Read(ctx context.Context, ref models.ObjectRef) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key(ref)]
	if !ok {
		return nil, fmt.Errorf("%s: %w", ref.URI(), ErrObjectNotFound)
	}
	return data, nil
}

func (m *memStore) ReadRange(ctx context.Context, ref models.ObjectRef, n int64) ([]byte, error) {
	data, err := m.Read(ctx, ref)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > n {
		return data[:n], nil
	}
	return data, nil
}

func (m *memStore) Write(ctx context.Context, ref models.ObjectRef, data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeCalls++
	m.objects[key(ref)] = append([]byte(nil), data...)
	return nil
}

func (m *memStore) Copy(ctx context.Context, src, dst models.ObjectRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.copyCalls++
	if m.failCopy {
		return errors.New("copy failed")
	}
	data, ok := m.objects[key(src)]
	if !ok {
		return fmt.Errorf("%s: %w", src.URI(), ErrObjectNotFound)
	}
	m.objects[key(dst)] = append([]byte(nil), data...)
	return nil
}

func (m *memStore) Delete(ctx context.Context, ref models.ObjectRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDelete {
		return errors.New("delete failed")
	}
	if _, ok := m.objects[key(ref)]; !ok {
		return fmt.Errorf("%s: %w", ref.URI(), ErrObjectNotFound)
	}
	delete(m.objects, key(ref))
	return nil
}

func (m *memStore) Stat(ctx context.Context, ref models.ObjectRef) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key(ref)]
	if !ok {
		return 0, fmt.Errorf("%s: %w", ref.URI(), ErrObjectNotFound)
	}
	return int64(len(data)), nil
}

func (m *memStore) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var names []string
	for k := range m.objects {
		if strings.HasPrefix(k, bucket+"/"+prefix) {
			names = append(names, strings.TrimPrefix(k, bucket+"/"))
		}
	}
	return names, nil
}

// memLedger records ledger entries in memory.
type memLedger struct {
	mu      sync.Mutex
	entries []models.LedgerEntry
	fail    bool
}

func (l *memLedger) Record(ctx context.Context, entry models.LedgerEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fail {
		return errors.New("ledger unavailable")
	}
	l.entries = append(l.entries, entry)
	return nil
}

// fixedClassifier returns a canned signature per object path.
type fixedClassifier struct {
	signatures map[string]string
	err        error
}

func (c *fixedClassifier) Classify(ctx context.Context, ref models.ObjectRef) (string, error) {
	if c.err != nil {
		return SignatureUnknown, c.err
	}
	return c.signatures[ref.Path], nil
}

// fakeTranscriber implements Transcriber.
type fakeTranscriber struct {
	transcript string
	err        error
}

func (t *fakeTranscriber) Transcribe(ctx context.Context, ref models.ObjectRef) (string, error) {
	return t.transcript, t.err
}

// fakeRecognizer implements TextRecognizer.
type fakeRecognizer struct {
	text string
	err  error
}

func (r *fakeRecognizer) RecognizeText(ctx context.Context, ref models.ObjectRef) (string, error) {
	return r.text, r.err
}

// fakeExtractor implements StructuredExtractor and captures its input.
type fakeExtractor struct {
	reply    string
	err      error
	received string
}

func (e *fakeExtractor) Extract(ctx context.Context, text string) (string, error) {
	e.received = text
	return e.reply, e.err
}

// fakeAnalyst implements Analyst.
type fakeAnalyst struct {
	summary string
	err     error
	calls   int
}

func (a *fakeAnalyst) Summarize(ctx context.Context, ref models.ObjectRef) (string, error) {
	a.calls++
	return a.summary, a.err
}

func testConfig() *Config {
	return &Config{
		ProjectID:          "test-project",
		DataLakeBucket:     "data-lake",
		CuratedBucket:      "curated",
		QuarantineBucket:   "data-lake",
		QuarantinePrefix:   "quarantine/",
		StructuredPrefix:   "processed/processed_results/",
		TabularPrefix:      "curated/structured_results/",
		ReportsPrefix:      "processed/raw_reports/",
		FinalReportsPrefix: "final_reports/",
		MaxFileSize:        10 << 20,
	}
}
