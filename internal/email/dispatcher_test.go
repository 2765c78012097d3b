package email

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	apperrors "tenancy-backend/internal/errors"
	"tenancy-backend/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_DeliversAndCallsBack(t *testing.T) {
	fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	m := metrics.New("test", nil)
	d := NewDispatcher(2, 10, WithClock(func() time.Time { return fixed }), WithMetrics(m))
	d.Start(context.Background())

	var mu sync.Mutex
	var delivered []time.Time
	for i := 0; i < 3; i++ {
		err := d.Enqueue(Job{
			Name: "invitation",
			Send: func(ctx context.Context) error { return nil },
			OnDelivered: func(ctx context.Context, at time.Time) error {
				mu.Lock()
				defer mu.Unlock()
				delivered = append(delivered, at)
				return nil
			},
		})
		require.NoError(t, err)
	}

	d.Stop()

	assert.Len(t, delivered, 3)
	for _, at := range delivered {
		assert.Equal(t, fixed, at)
	}
	assert.Equal(t, float64(3), testutil.ToFloat64(m.EmailsDispatched.WithLabelValues("invitation", "delivered")))
}

func TestDispatcher_FailedSendSkipsCallback(t *testing.T) {
	m := metrics.New("test", nil)
	d := NewDispatcher(1, 1, WithMetrics(m))
	d.Start(context.Background())

	called := false
	err := d.Enqueue(Job{
		Name:        "invitation",
		Send:        func(ctx context.Context) error { return errors.New("smtp down") },
		OnDelivered: func(ctx context.Context, at time.Time) error { called = true; return nil },
	})
	require.NoError(t, err)

	d.Stop()

	assert.False(t, called)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.EmailsDispatched.WithLabelValues("invitation", "failed")))
}

func TestDispatcher_QueueFull(t *testing.T) {
	d := NewDispatcher(1, 1)

	// not started: the single slot fills and the next job is refused
	require.NoError(t, d.Enqueue(Job{Name: "a", Send: func(context.Context) error { return nil }}))
	err := d.Enqueue(Job{Name: "b", Send: func(context.Context) error { return nil }})
	assert.ErrorIs(t, err, apperrors.ErrDispatchQueueFull)

	d.Start(context.Background())
	d.Stop()
}

func TestDispatcher_EnqueueAfterStop(t *testing.T) {
	d := NewDispatcher(1, 1)
	d.Start(context.Background())
	d.Stop()
	d.Stop()

	err := d.Enqueue(Job{Name: "late", Send: func(context.Context) error { return nil }})
	assert.ErrorIs(t, err, apperrors.ErrDispatcherStopped)
}

func TestDispatcher_JobTimeout(t *testing.T) {
	d := NewDispatcher(1, 1, WithJobTimeout(20*time.Millisecond))
	d.Start(context.Background())

	var got error
	done := make(chan struct{})
	require.NoError(t, d.Enqueue(Job{
		Name: "slow",
		Send: func(ctx context.Context) error {
			<-ctx.Done()
			got = ctx.Err()
			close(done)
			return got
		},
	}))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job was not cancelled")
	}
	d.Stop()
	assert.ErrorIs(t, got, context.DeadlineExceeded)
}
