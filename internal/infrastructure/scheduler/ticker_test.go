package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartRunsJobImmediately(t *testing.T) {
	t.Parallel()

	s := NewTickerScheduler(time.Hour)
	var runs atomic.Int32

	require.NoError(t, s.Start(context.Background(), func(time.Time) {
		runs.Add(1)
	}))

	assert.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 10*time.Millisecond)
	require.NoError(t, s.Stop(context.Background()))
}

func TestStopIsIdempotent(t *testing.T) {
	t.Parallel()

	s := NewTickerScheduler(time.Hour)
	require.NoError(t, s.Stop(context.Background()))

	require.NoError(t, s.Start(context.Background(), func(time.Time) {}))
	require.NoError(t, s.Stop(context.Background()))
	require.NoError(t, s.Stop(context.Background()))
}

func TestStartWithoutJob(t *testing.T) {
	t.Parallel()

	s := NewTickerScheduler(time.Hour)
	require.NoError(t, s.Start(context.Background(), nil))
	require.NoError(t, s.Stop(context.Background()))
}

func TestIntervalClamp(t *testing.T) {
	t.Parallel()

	s := NewTickerScheduler(time.Second)
	assert.Equal(t, time.Minute, s.interval)
}
