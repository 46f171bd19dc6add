package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/phrazzld/scry-mcq/internal/admission"
)

// Outcome is the result for one item of a stage.
type Outcome[T any] struct {
	Value T
	// Err is the operation error for this item. Nil for passed-through items.
	Err error
	// Called reports whether the operation ran for this item.
	Called bool
}

// Step describes the per-item work of a stage.
type Step[In, Out any] struct {
	// Pass, when set, may answer for an item without calling Call. Passed
	// items take no ticket.
	Pass func(i int, in In) (Out, bool)

	// Call performs the operation for item i. It runs while holding a ticket.
	Call func(ctx context.Context, i int, in In) (Out, error)
}

// RunStage applies step to every item concurrently and returns one Outcome
// per item in input order.
//
// Tickets are taken in index order before any work starts, so admission
// order matches item order. An operation error is recorded on its Outcome
// and does not affect other items. A failed admission, or ctx ending, fails
// the whole stage.
func RunStage[In, Out any](
	ctx context.Context,
	gate *admission.Gate,
	items []In,
	step Step[In, Out],
) ([]Outcome[Out], error) {
	outcomes := make([]Outcome[Out], len(items))
	g, gctx := errgroup.WithContext(ctx)

	for i, in := range items {
		if step.Pass != nil {
			if out, ok := step.Pass(i, in); ok {
				outcomes[i] = Outcome[Out]{Value: out}
				continue
			}
		}

		ticket := gate.Enqueue()
		g.Go(func() error {
			if err := ticket.Wait(gctx); err != nil {
				return fmt.Errorf("%w: item %d: %w", ErrAdmission, i, err)
			}
			defer ticket.Release()

			out, err := step.Call(gctx, i, in)
			outcomes[i] = Outcome[Out]{Value: out, Err: err, Called: true}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return outcomes, nil
}
