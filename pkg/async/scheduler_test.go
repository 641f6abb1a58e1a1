package async

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_InvalidSpec(t *testing.T) {
	logger, _ := testLogger()
	s := NewScheduler(logger)

	err := s.Add("not a schedule", "warm", time.Second, func(context.Context) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to schedule warm")
	assert.Equal(t, 0, s.Len())
}

func TestScheduler_RunsJob(t *testing.T) {
	logger, _ := testLogger()
	s := NewScheduler(logger)

	var runs int32
	require.NoError(t, s.Add("@every 1s", "warm", time.Second, func(context.Context) error {
		atomic.AddInt32(&runs, 1)
		return nil
	}))
	assert.Equal(t, 1, s.Len())

	s.Start()
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&runs) >= 1 }, 3*time.Second, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}

func TestScheduler_StopCancelsRunningJob(t *testing.T) {
	logger, _ := testLogger()
	s := NewScheduler(logger)

	started := make(chan struct{})
	var cancelled atomic.Bool
	require.NoError(t, s.Add("@every 1s", "slow", time.Minute, func(ctx context.Context) error {
		select {
		case started <- struct{}{}:
		default:
		}
		<-ctx.Done()
		cancelled.Store(true)
		return ctx.Err()
	}))

	s.Start()
	select {
	case <-started:
	case <-time.After(3 * time.Second):
		t.Fatal("job never started")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.True(t, cancelled.Load())
}
