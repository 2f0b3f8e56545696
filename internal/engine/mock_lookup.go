package engine

import (
	"context"
	"sync"

	"github.com/shelfmatch/shelfmatch/internal/model"
)

// MockLookup is a test double for the external lookup collaborator.
type MockLookup struct {
	// Details is returned for every key unless DetailsByKey has an entry.
	Details      model.ProductDetails
	DetailsByKey map[string]model.ProductDetails
	Err          error

	mu    sync.Mutex
	calls []string
}

// Lookup records the call and returns the configured result.
func (m *MockLookup) Lookup(_ context.Context, productKey string) (model.ProductDetails, error) {
	m.mu.Lock()
	m.calls = append(m.calls, productKey)
	m.mu.Unlock()

	if m.Err != nil {
		return model.ProductDetails{}, m.Err
	}
	if d, ok := m.DetailsByKey[productKey]; ok {
		return d, nil
	}
	return m.Details, nil
}

// Calls returns the keys looked up so far.
func (m *MockLookup) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}
