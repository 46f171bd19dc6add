package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-mcq/internal/domain"
)

// RunStore persists finished generation runs together with their
// contexts and questions. Item order is preserved on the way in and out.
type RunStore interface {
	// SaveRun stores a run and all of its items.
	// Returns ErrInvalidEntity if the run is nil or has no ID, and
	// ErrDuplicate if a run with the same ID already exists.
	SaveRun(ctx context.Context, run *domain.RunResult) error

	// GetRun loads a run by ID.
	// Returns ErrRunNotFound if no such run exists.
	GetRun(ctx context.Context, id uuid.UUID) (*domain.RunResult, error)

	// WithTx returns a RunStore bound to tx.
	WithTx(tx *sql.Tx) RunStore
}
