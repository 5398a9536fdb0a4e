package concurrency_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nyxwave/fleetmesh/pkg/concurrency"
	"github.com/stretchr/testify/assert"
)

func TestWorkerPoolRunsSubmittedTasks(t *testing.T) {
	pool := concurrency.NewWorkerPool(4, 16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool.Start(ctx)

	var ran int64
	for i := 0; i < 10; i++ {
		pool.Submit(func(ctx context.Context) {
			atomic.AddInt64(&ran, 1)
		})
	}

	assert.Eventually(t, func() bool { return atomic.LoadInt64(&ran) == 10 }, time.Second, 5*time.Millisecond)
	pool.Stop()
}

func TestSafeGoRecoversPanics(t *testing.T) {
	done := make(chan struct{})
	concurrency.SafeGo(context.Background(), func() {
		defer close(done)
		panic("boom")
	})
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("goroutine never completed")
	}
}

func TestFanOutRunsAllCopies(t *testing.T) {
	var count int64
	concurrency.FanOut(context.Background(), 5, func(i int) {
		atomic.AddInt64(&count, 1)
	})
	assert.Equal(t, int64(5), count)
}
