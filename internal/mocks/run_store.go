package mocks

import (
	"context"
	"database/sql"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-mcq/internal/domain"
	"github.com/phrazzld/scry-mcq/internal/store"
)

// MockRunStore implements store.RunStore. Without Fn overrides it keeps
// saved runs in memory.
type MockRunStore struct {
	SaveRunFn func(ctx context.Context, run *domain.RunResult) error
	GetRunFn  func(ctx context.Context, id uuid.UUID) (*domain.RunResult, error)

	mu    sync.Mutex
	runs  map[uuid.UUID]*domain.RunResult
	saved []uuid.UUID
	txs   int
}

var _ store.RunStore = (*MockRunStore)(nil)

// SaveRun implements store.RunStore.
func (m *MockRunStore) SaveRun(ctx context.Context, run *domain.RunResult) error {
	if m.SaveRunFn != nil {
		return m.SaveRunFn(ctx, run)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.runs == nil {
		m.runs = make(map[uuid.UUID]*domain.RunResult)
	}
	m.runs[run.ID] = run
	m.saved = append(m.saved, run.ID)
	return nil
}

// GetRun implements store.RunStore.
func (m *MockRunStore) GetRun(ctx context.Context, id uuid.UUID) (*domain.RunResult, error) {
	if m.GetRunFn != nil {
		return m.GetRunFn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, store.ErrRunNotFound
	}
	return run, nil
}

// WithTx implements store.RunStore and counts the call.
func (m *MockRunStore) WithTx(tx *sql.Tx) store.RunStore {
	m.mu.Lock()
	m.txs++
	m.mu.Unlock()
	return m
}

// Saved returns the IDs of saved runs in save order.
func (m *MockRunStore) Saved() []uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]uuid.UUID(nil), m.saved...)
}

// TxCount returns how many times WithTx was called.
func (m *MockRunStore) TxCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.txs
}
