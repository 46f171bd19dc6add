package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/scry-mcq/internal/admission"
	"github.com/phrazzld/scry-mcq/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newGate(maxConcurrent int) *admission.Gate {
	return admission.NewGate(admission.Config{MaxConcurrent: maxConcurrent}, testLogger())
}

func TestRunStage_PositionalIntegrity(t *testing.T) {
	items := make([]int, 20)
	for i := range items {
		items[i] = i
	}

	// Earlier items sleep longer so completion order is reversed.
	outcomes, err := pipeline.RunStage(context.Background(), newGate(20), items, pipeline.Step[int, int]{
		Call: func(ctx context.Context, i int, in int) (int, error) {
			time.Sleep(time.Duration(len(items)-i) * time.Millisecond)
			return in * 10, nil
		},
	})
	require.NoError(t, err)
	require.Len(t, outcomes, len(items))

	for i, oc := range outcomes {
		assert.NoError(t, oc.Err)
		assert.True(t, oc.Called)
		assert.Equal(t, i*10, oc.Value, "outcome %d out of place", i)
	}
}

func TestRunStage_PassThroughTakesNoTicket(t *testing.T) {
	gate := newGate(2)
	items := []string{"keep", "work", "keep", "work", "work"}

	var mu sync.Mutex
	var called []int
	outcomes, err := pipeline.RunStage(context.Background(), gate, items, pipeline.Step[string, string]{
		Pass: func(_ int, in string) (string, bool) {
			return in, in == "keep"
		},
		Call: func(ctx context.Context, i int, in string) (string, error) {
			mu.Lock()
			called = append(called, i)
			mu.Unlock()
			return "done", nil
		},
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []int{1, 3, 4}, called)
	assert.Equal(t, []string{"keep", "done", "keep", "done", "done"}, []string{
		outcomes[0].Value, outcomes[1].Value, outcomes[2].Value, outcomes[3].Value, outcomes[4].Value,
	})
	assert.False(t, outcomes[0].Called)
	assert.True(t, outcomes[1].Called)

	stats := gate.Stats()
	assert.Equal(t, uint64(3), stats.Admitted)
	assert.Equal(t, 0, stats.Active)
	assert.Equal(t, 0, stats.Waiting)
}

func TestRunStage_ItemErrorIsLocal(t *testing.T) {
	boom := errors.New("boom")
	outcomes, err := pipeline.RunStage(context.Background(), newGate(3), []int{0, 1, 2}, pipeline.Step[int, int]{
		Call: func(ctx context.Context, i int, in int) (int, error) {
			if i == 1 {
				return 0, boom
			}
			return in + 1, nil
		},
	})
	require.NoError(t, err)

	assert.NoError(t, outcomes[0].Err)
	assert.ErrorIs(t, outcomes[1].Err, boom)
	assert.NoError(t, outcomes[2].Err)
	assert.Equal(t, 1, outcomes[0].Value)
	assert.Equal(t, 3, outcomes[2].Value)
}

func TestRunStage_SerializedInIndexOrder(t *testing.T) {
	items := make([]int, 10)

	var mu sync.Mutex
	var order []int
	_, err := pipeline.RunStage(context.Background(), newGate(1), items, pipeline.Step[int, int]{
		Call: func(ctx context.Context, i int, _ int) (int, error) {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			time.Sleep(time.Millisecond)
			return 0, nil
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, order)
}

func TestRunStage_CancelledContextFailsStage(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gate := newGate(1)
	_, err := pipeline.RunStage(ctx, gate, []int{0, 1, 2}, pipeline.Step[int, int]{
		Call: func(ctx context.Context, i int, in int) (int, error) {
			return in, nil
		},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	stats := gate.Stats()
	assert.Equal(t, 0, stats.Active)
	assert.Equal(t, 0, stats.Waiting)
}

func TestRunStage_Empty(t *testing.T) {
	outcomes, err := pipeline.RunStage(context.Background(), newGate(1), nil, pipeline.Step[int, int]{
		Call: func(ctx context.Context, i int, in int) (int, error) {
			t.Fatal("no call expected")
			return 0, nil
		},
	})
	require.NoError(t, err)
	assert.Empty(t, outcomes)
}
