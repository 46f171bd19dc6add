package admission

import (
	"context"
	"fmt"
	"time"
)

// Ticket is a place in the gate's FIFO line. Numbers increase
// monotonically in Enqueue order and define serving order.
type Ticket struct {
	gate   *Gate
	number uint64
	ready  chan struct{}

	// Guarded by gate.mu.
	enqueuedAt time.Time
	admittedAt time.Time
	admitted   bool
	released   bool
}

// Number returns the ticket's position in arrival order.
func (t *Ticket) Number() uint64 {
	return t.number
}

// Wait blocks until the ticket is admitted. If ctx ends first the ticket
// leaves the line and the returned error wraps ctx.Err().
func (t *Ticket) Wait(ctx context.Context) error {
	select {
	case <-t.ready:
		return nil
	case <-ctx.Done():
	}

	g := t.gate
	g.mu.Lock()
	defer g.mu.Unlock()
	if t.admitted {
		// Admitted while the context was ending; hand the slot back.
		g.releaseLocked(t)
	} else {
		g.cancelLocked(t)
	}
	return fmt.Errorf("ticket %d not admitted: %w", t.number, ctx.Err())
}

// Release frees the ticket's concurrency slot. Releasing twice, or
// releasing a ticket that was never admitted, is a no-op.
func (t *Ticket) Release() {
	g := t.gate
	g.mu.Lock()
	defer g.mu.Unlock()
	if !t.admitted {
		return
	}
	g.releaseLocked(t)
}

// AdmittedAt returns the gate's clock reading at admission, or the zero
// time if the ticket has not been admitted.
func (t *Ticket) AdmittedAt() time.Time {
	t.gate.mu.Lock()
	defer t.gate.mu.Unlock()
	return t.admittedAt
}
