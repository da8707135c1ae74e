package services

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPoolRejectsWhenFull(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	pool := NewWorkerPool(func(context.Context, NotificationJob) error {
		started <- struct{}{}
		<-release
		return nil
	}, 1, 1)

	require.NoError(t, pool.Enqueue(context.Background(), NotificationJob{}))
	<-started // the single worker is now busy

	require.NoError(t, pool.Enqueue(context.Background(), NotificationJob{}))
	assert.ErrorIs(t, pool.Enqueue(context.Background(), NotificationJob{}), ErrQueueFull)

	close(release)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, pool.Shutdown(ctx))

	assert.ErrorIs(t, pool.Enqueue(context.Background(), NotificationJob{}), ErrQueueClosed)
}

func TestWorkerPoolDrainsOnShutdown(t *testing.T) {
	var handled atomic.Int32
	pool := NewWorkerPool(func(context.Context, NotificationJob) error {
		time.Sleep(5 * time.Millisecond)
		handled.Add(1)
		return nil
	}, 3, 32)

	for i := 0; i < 20; i++ {
		require.NoError(t, pool.Enqueue(context.Background(), NotificationJob{}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, pool.Shutdown(ctx))
	assert.Equal(t, int32(20), handled.Load())
}

func TestWorkerPoolShutdownTimeout(t *testing.T) {
	block := make(chan struct{})
	defer close(block)

	pool := NewWorkerPool(func(context.Context, NotificationJob) error {
		<-block
		return nil
	}, 1, 1)
	require.NoError(t, pool.Enqueue(context.Background(), NotificationJob{}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, pool.Shutdown(ctx), context.DeadlineExceeded)
}
