package pipeline

import (
	"context"
	"log/slog"

	"github.com/phrazzld/scry-mcq/internal/admission"
	"github.com/phrazzld/scry-mcq/internal/domain"
	"github.com/phrazzld/scry-mcq/internal/redact"
)

// item is the review/refine surface shared by contexts and questions.
type item[T any] interface {
	Settled() bool
	CapReached(maxIterations int) bool
	WithReview(r domain.Review) T
	WithReviewFailure(msg string) T
	WithRefineFailure(msg string) T
	ForceApproved() T
}

type reviewFunc[T any] func(ctx context.Context, i int, it T) (domain.Review, error)

type refineFunc[T any] func(ctx context.Context, i int, it T) (T, error)

// reviewAll reviews every unsettled item. A failed review leaves the item
// unapproved with the failure recorded as its feedback.
func reviewAll[T item[T]](
	ctx context.Context,
	gate *admission.Gate,
	items []T,
	review reviewFunc[T],
	logger *slog.Logger,
) ([]T, error) {
	outcomes, err := RunStage(ctx, gate, items, Step[T, T]{
		Pass: func(_ int, it T) (T, bool) {
			return it, it.Settled()
		},
		Call: func(ctx context.Context, i int, it T) (T, error) {
			r, err := review(ctx, i, it)
			if err != nil {
				return it, err
			}
			return it.WithReview(r), nil
		},
	})
	if err != nil {
		return nil, err
	}

	next := make([]T, len(items))
	for i, oc := range outcomes {
		if oc.Err != nil {
			msg := redact.Error(oc.Err)
			logger.WarnContext(ctx, "review failed, item left unapproved",
				"index", i,
				"error", msg)
			next[i] = items[i].WithReviewFailure("review failed: " + msg)
			continue
		}
		next[i] = oc.Value
	}
	return next, nil
}

// refineAll refines every unsettled item. Items that already used their
// per-item budget are force-approved instead, and a failed refine
// force-approves the item with the failure as its feedback.
func refineAll[T item[T]](
	ctx context.Context,
	gate *admission.Gate,
	items []T,
	maxIterations int,
	refine refineFunc[T],
	logger *slog.Logger,
) ([]T, error) {
	outcomes, err := RunStage(ctx, gate, items, Step[T, T]{
		Pass: func(i int, it T) (T, bool) {
			if it.Settled() {
				return it, true
			}
			if it.CapReached(maxIterations) {
				logger.InfoContext(ctx, "item reached its iteration cap, forcing approval", "index", i)
				return it.ForceApproved(), true
			}
			return it, false
		},
		Call: refine,
	})
	if err != nil {
		return nil, err
	}

	next := make([]T, len(items))
	for i, oc := range outcomes {
		if oc.Err != nil {
			msg := redact.Error(oc.Err)
			logger.WarnContext(ctx, "refine failed, forcing approval",
				"index", i,
				"error", msg)
			next[i] = items[i].WithRefineFailure("refine failed: " + msg)
			continue
		}
		next[i] = oc.Value
	}
	return next, nil
}

func anyUnsettled[T item[T]](items []T) bool {
	for _, it := range items {
		if !it.Settled() {
			return true
		}
	}
	return false
}

// forceUnsettled force-approves whatever is left when a loop's round
// budget runs out.
func forceUnsettled[T item[T]](items []T) ([]T, int) {
	out := make([]T, len(items))
	forced := 0
	for i, it := range items {
		if it.Settled() {
			out[i] = it
			continue
		}
		out[i] = it.ForceApproved()
		forced++
	}
	return out, forced
}
