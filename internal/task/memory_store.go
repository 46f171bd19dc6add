package task

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryTaskStore is a TaskStore held in process memory.
type MemoryTaskStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]Record
	now     func() time.Time
}

var _ TaskStore = (*MemoryTaskStore)(nil)

// NewMemoryTaskStore creates an empty store.
func NewMemoryTaskStore() *MemoryTaskStore {
	return &MemoryTaskStore{
		records: make(map[uuid.UUID]Record),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SaveTask implements TaskStore.
func (s *MemoryTaskStore) SaveTask(ctx context.Context, task Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.records[task.ID()] = Record{
		ID:        task.ID(),
		Type:      task.Type(),
		Status:    TaskStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return nil
}

// UpdateTaskStatus implements TaskStore.
func (s *MemoryTaskStore) UpdateTaskStatus(
	ctx context.Context,
	taskID uuid.UUID,
	status TaskStatus,
	errorMsg string,
) error {
	return s.update(taskID, func(r *Record) {
		r.Status = status
		r.Error = errorMsg
	})
}

// SetResult implements TaskStore.
func (s *MemoryTaskStore) SetResult(ctx context.Context, taskID uuid.UUID, resultID uuid.UUID) error {
	return s.update(taskID, func(r *Record) {
		r.ResultID = resultID
	})
}

// GetTask implements TaskStore.
func (s *MemoryTaskStore) GetTask(ctx context.Context, taskID uuid.UUID) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[taskID]
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	return r, nil
}

func (s *MemoryTaskStore) update(taskID uuid.UUID, fn func(r *Record)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[taskID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	fn(&r)
	r.UpdatedAt = s.now()
	s.records[taskID] = r
	return nil
}
