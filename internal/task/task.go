package task

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the current state of a task
type TaskStatus string

// Possible task status values
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// Common task errors
var (
	ErrTaskNotFound  = errors.New("task not found")
	ErrQueueFull     = errors.New("task queue is full")
	ErrRunnerStopped = errors.New("task runner is stopped")
)

// Task is a unit of background work.
type Task interface {
	// ID returns the task's unique identifier
	ID() uuid.UUID

	// Type returns the task type identifier
	Type() string

	// Execute runs the task logic
	Execute(ctx context.Context) error
}

// ResultReporter is implemented by tasks that produce an addressable
// result, such as a stored generation run.
type ResultReporter interface {
	ResultID() uuid.UUID
}

// Record is the stored view of a task.
type Record struct {
	ID        uuid.UUID  `json:"id"`
	Type      string     `json:"type"`
	Status    TaskStatus `json:"status"`
	Error     string     `json:"error,omitempty"`
	ResultID  uuid.UUID  `json:"result_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// TaskStore keeps task records.
type TaskStore interface {
	// SaveTask records a newly submitted task as pending.
	SaveTask(ctx context.Context, task Task) error

	// UpdateTaskStatus changes the status of a task.
	UpdateTaskStatus(ctx context.Context, taskID uuid.UUID, status TaskStatus, errorMsg string) error

	// SetResult attaches the ID of the task's result.
	SetResult(ctx context.Context, taskID uuid.UUID, resultID uuid.UUID) error

	// GetTask returns the record of a task, or ErrTaskNotFound.
	GetTask(ctx context.Context, taskID uuid.UUID) (Record, error)
}
