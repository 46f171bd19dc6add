package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-mcq/internal/domain"
)

// MemoryRunStore is a RunStore held in process memory. It backs the
// service when no database is configured; runs are lost on restart.
type MemoryRunStore struct {
	mu   sync.RWMutex
	runs map[uuid.UUID][]byte
}

var _ RunStore = (*MemoryRunStore)(nil)

// NewMemoryRunStore creates an empty store.
func NewMemoryRunStore() *MemoryRunStore {
	return &MemoryRunStore{runs: make(map[uuid.UUID][]byte)}
}

// SaveRun implements RunStore. The run is stored as a deep copy.
func (s *MemoryRunStore) SaveRun(ctx context.Context, run *domain.RunResult) error {
	if run == nil || run.ID == uuid.Nil {
		return fmt.Errorf("%w: run must have an id", ErrInvalidEntity)
	}
	b, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEntity, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[run.ID]; ok {
		return fmt.Errorf("%w: run %s", ErrDuplicate, run.ID)
	}
	s.runs[run.ID] = b
	return nil
}

// GetRun implements RunStore.
func (s *MemoryRunStore) GetRun(ctx context.Context, id uuid.UUID) (*domain.RunResult, error) {
	s.mu.RLock()
	b, ok := s.runs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrRunNotFound
	}

	var run domain.RunResult
	if err := json.Unmarshal(b, &run); err != nil {
		return nil, fmt.Errorf("failed to decode stored run: %w", err)
	}
	return &run, nil
}

// WithTx implements RunStore. Memory stores are not transactional, so
// the store itself is returned.
func (s *MemoryRunStore) WithTx(tx *sql.Tx) RunStore {
	return s
}
