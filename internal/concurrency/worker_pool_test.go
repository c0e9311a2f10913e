package concurrency

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForEachVisitsEveryIndex(t *testing.T) {
	seen := make([]int32, 50)
	err := ForEach(context.Background(), 4, len(seen), func(ctx context.Context, i int) error {
		atomic.AddInt32(&seen[i], 1)
		return nil
	})
	assert.NoError(t, err)
	for i, n := range seen {
		assert.Equal(t, int32(1), n, "index %d", i)
	}
}

func TestForEachBoundsConcurrency(t *testing.T) {
	var running, peak int32
	err := ForEach(context.Background(), 3, 30, func(ctx context.Context, i int) error {
		n := atomic.AddInt32(&running, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		atomic.AddInt32(&running, -1)
		return nil
	})
	assert.NoError(t, err)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
}

func TestForEachReturnsFirstError(t *testing.T) {
	boom := errors.New("boom")
	err := ForEach(context.Background(), 2, 10, func(ctx context.Context, i int) error {
		if i == 3 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
}

func TestForEachNoTasks(t *testing.T) {
	called := false
	err := ForEach(context.Background(), 4, 0, func(ctx context.Context, i int) error {
		called = true
		return nil
	})
	assert.NoError(t, err)
	assert.False(t, called)
}
