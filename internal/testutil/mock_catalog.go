package testutil

import (
	"context"
	"sync"

	"github.com/Darklegion92/backend-DIAN-sub001/internal/core/catalog"
)

// MockCatalogStore is a mock implementation of catalog.Store for testing.
type MockCatalogStore struct {
	FindIDsFunc func(ctx context.Context, name catalog.Name, codes []string) (map[string]int, error)

	mu    sync.Mutex
	calls []catalog.Name
}

// FindIDs records the call and delegates to FindIDsFunc if set, otherwise returns an empty map.
func (m *MockCatalogStore) FindIDs(ctx context.Context, name catalog.Name, codes []string) (map[string]int, error) {
	m.mu.Lock()
	m.calls = append(m.calls, name)
	m.mu.Unlock()

	if m.FindIDsFunc != nil {
		return m.FindIDsFunc(ctx, name, codes)
	}
	return map[string]int{}, nil
}

// Calls returns the catalogs queried so far, in call order.
func (m *MockCatalogStore) Calls() []catalog.Name {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]catalog.Name(nil), m.calls...)
}

// StaticCatalog builds a FindIDsFunc answering from a fixed table.
func StaticCatalog(table map[catalog.Name]map[string]int) func(ctx context.Context, name catalog.Name, codes []string) (map[string]int, error) {
	return func(_ context.Context, name catalog.Name, codes []string) (map[string]int, error) {
		found := make(map[string]int, len(codes))
		for _, code := range codes {
			if id, ok := table[name][code]; ok {
				found[code] = id
			}
		}
		return found, nil
	}
}

// MockCatalogWriter is a mock implementation of catalog.Writer for testing.
type MockCatalogWriter struct {
	UpsertFunc func(ctx context.Context, entries []catalog.Entry) (int, error)
	ListFunc   func(ctx context.Context, name catalog.Name) ([]catalog.Entry, error)
}

// Upsert calls the mock function if set, otherwise reports every entry written.
func (m *MockCatalogWriter) Upsert(ctx context.Context, entries []catalog.Entry) (int, error) {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, entries)
	}
	return len(entries), nil
}

// List calls the mock function if set, otherwise returns an empty slice.
func (m *MockCatalogWriter) List(ctx context.Context, name catalog.Name) ([]catalog.Entry, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, name)
	}
	return []catalog.Entry{}, nil
}
