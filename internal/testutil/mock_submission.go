package testutil

import (
	"context"
	"sync"

	"github.com/Darklegion92/backend-DIAN-sub001/internal/core/document"
	"github.com/Darklegion92/backend-DIAN-sub001/internal/core/submission"
)

// MockGateway is a mock implementation of submission.Gateway for testing.
type MockGateway struct {
	SubmitFunc func(ctx context.Context, doc document.Document, bearerToken string) (submission.RawResponse, error)

	mu        sync.Mutex
	submitted []document.Document
}

// Submit records the document and calls the mock function if set, otherwise returns an empty response.
func (m *MockGateway) Submit(ctx context.Context, doc document.Document, bearerToken string) (submission.RawResponse, error) {
	m.mu.Lock()
	m.submitted = append(m.submitted, doc)
	m.mu.Unlock()

	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, doc, bearerToken)
	}
	return submission.RawResponse{StatusCode: 200, Body: []byte(`{}`)}, nil
}

// Submitted returns the documents passed to Submit so far.
func (m *MockGateway) Submitted() []document.Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]document.Document(nil), m.submitted...)
}

// MockArtifactFetcher is a mock implementation of submission.ArtifactFetcher for testing.
type MockArtifactFetcher struct {
	FetchArtifactFunc func(ctx context.Context, ref document.Reference, bearerToken string) ([]byte, error)
}

// FetchArtifact calls the mock function if set, otherwise returns nil.
func (m *MockArtifactFetcher) FetchArtifact(ctx context.Context, ref document.Reference, bearerToken string) ([]byte, error) {
	if m.FetchArtifactFunc != nil {
		return m.FetchArtifactFunc(ctx, ref, bearerToken)
	}
	return nil, nil
}

// MockArtifactArchive is a mock implementation of submission.ArtifactArchive for testing.
type MockArtifactArchive struct {
	StoreFunc func(ctx context.Context, ref document.Reference, pdf []byte) (string, error)
}

// Store calls the mock function if set, otherwise returns an empty location.
func (m *MockArtifactArchive) Store(ctx context.Context, ref document.Reference, pdf []byte) (string, error) {
	if m.StoreFunc != nil {
		return m.StoreFunc(ctx, ref, pdf)
	}
	return "", nil
}

// MemoryDocumentStore is an in-memory document.Store.
type MemoryDocumentStore struct {
	// Err, when set, is returned by every call.
	Err error

	mu      sync.Mutex
	records map[document.Reference]document.Record
}

// NewMemoryDocumentStore creates a store seeded with records.
func NewMemoryDocumentStore(records ...document.Record) *MemoryDocumentStore {
	s := &MemoryDocumentStore{records: make(map[document.Reference]document.Record)}
	for _, r := range records {
		s.records[storeKey(r.Reference)] = r
	}
	return s
}

// FindFiscalCode looks the reference up by taxpayer, prefix and number.
func (s *MemoryDocumentStore) FindFiscalCode(ctx context.Context, ref document.Reference) (string, bool, error) {
	if s.Err != nil {
		return "", false, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[storeKey(ref)]
	return rec.FiscalCode, ok, nil
}

// Save stores or replaces a record.
func (s *MemoryDocumentStore) Save(ctx context.Context, rec document.Record) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[storeKey(rec.Reference)] = rec
	return nil
}

// Records returns the number of stored records.
func (s *MemoryDocumentStore) Records() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// storeKey ignores the document type, matching the database unique key.
func storeKey(ref document.Reference) document.Reference {
	ref.Type = 0
	return ref
}
