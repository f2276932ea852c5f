package sheets

import (
	"context"
	"sync"
)

// MockStore is a mock implementation of Store for testing.
type MockStore struct {
	AppendFunc      func(ctx context.Context, row []any, company string) bool
	LastCompany     string
	AppendCalls     []AppendCall
	LastRow         []any
	AppendCallCount int
	mu              sync.Mutex
}

// AppendCall represents a single call to Append.
type AppendCall struct {
	Company string
	Row     []any
	OK      bool
}

// NewMockStore creates a new mock store.
func NewMockStore() *MockStore {
	return &MockStore{
		AppendCalls: make([]AppendCall, 0),
	}
}

// Append implements the Store interface.
func (m *MockStore) Append(ctx context.Context, row []any, company string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.AppendCallCount++
	m.LastRow = row
	m.LastCompany = company

	ok := true
	if m.AppendFunc != nil {
		ok = m.AppendFunc(ctx, row, company)
	}

	m.AppendCalls = append(m.AppendCalls, AppendCall{
		Row:     row,
		Company: company,
		OK:      ok,
	})

	return ok
}

// Reset clears all recorded calls.
func (m *MockStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.AppendCallCount = 0
	m.AppendCalls = make([]AppendCall, 0)
	m.LastRow = nil
	m.LastCompany = ""
}

// GetAppendCalls returns a copy of all append calls.
func (m *MockStore) GetAppendCalls() []AppendCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]AppendCall, len(m.AppendCalls))
	copy(calls, m.AppendCalls)
	return calls
}
