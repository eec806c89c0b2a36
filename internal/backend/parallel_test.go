package backend

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunOrderedPreservesInputOrder(t *testing.T) {
	sem := make(chan struct{}, 3)
	items := []int{5, 1, 9, 3, 7, 2}

	results := runOrdered(context.Background(), sem, items, func(_ context.Context, n int) (int, error) {
		// slower for earlier items so completion order differs from input order
		time.Sleep(time.Duration(10-n) * time.Millisecond)
		return n * 10, nil
	})

	require.Len(t, results, len(items))
	for i, n := range items {
		require.NoError(t, results[i].Err)
		assert.Equal(t, n*10, results[i].Value)
	}
}

func TestRunOrderedRespectsConcurrencyCeiling(t *testing.T) {
	const ceiling = 3
	sem := make(chan struct{}, ceiling)

	var inFlight, peak atomic.Int32
	items := make([]int, 20)

	runOrdered(context.Background(), sem, items, func(_ context.Context, _ int) (struct{}, error) {
		n := inFlight.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return struct{}{}, nil
	})

	assert.LessOrEqual(t, peak.Load(), int32(ceiling))
	assert.Greater(t, peak.Load(), int32(1), "expected some parallelism")
}

func TestRunOrderedEmptyInput(t *testing.T) {
	sem := make(chan struct{}, 1)
	results := runOrdered(context.Background(), sem, nil, func(_ context.Context, _ int) (int, error) {
		t.Fatal("fn must not run for empty input")
		return 0, nil
	})
	assert.Nil(t, results)
}

func TestRunOrderedCanceledContext(t *testing.T) {
	sem := make(chan struct{}, 1)
	sem <- struct{}{} // slot held elsewhere

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := runOrdered(ctx, sem, []int{1, 2}, func(_ context.Context, n int) (int, error) {
		return n, nil
	})
	require.Len(t, results, 2)
	for _, r := range results {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
}
