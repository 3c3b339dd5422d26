package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sentinelai/sentinel-alerts/internal/monitoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRunner struct {
	calls    int32
	inflight int32
	overlap  int32
	hold     time.Duration
	canceled int32
}

func (r *countingRunner) RunMonitoring(ctx context.Context) (monitoring.TickStats, error) {
	atomic.AddInt32(&r.calls, 1)
	if atomic.AddInt32(&r.inflight, 1) > 1 {
		atomic.StoreInt32(&r.overlap, 1)
	}
	defer atomic.AddInt32(&r.inflight, -1)

	select {
	case <-time.After(r.hold):
	case <-ctx.Done():
		atomic.StoreInt32(&r.canceled, 1)
	}
	return monitoring.TickStats{}, nil
}

func TestService_RunsOnInterval(t *testing.T) {
	runner := &countingRunner{}
	svc := NewService(time.Second, runner)

	require.NoError(t, svc.Start())
	require.Eventually(t, func() bool { return atomic.LoadInt32(&runner.calls) >= 1 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, svc.Stop(ctx))
}

func TestService_NoOverlappingTicks(t *testing.T) {
	runner := &countingRunner{hold: 2500 * time.Millisecond}
	svc := NewService(time.Second, runner)

	require.NoError(t, svc.Start())
	time.Sleep(3500 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, svc.Stop(ctx))

	assert.GreaterOrEqual(t, atomic.LoadInt32(&runner.calls), int32(1))
	assert.Equal(t, int32(0), atomic.LoadInt32(&runner.overlap))
}

func TestService_StopCancelsInflightTick(t *testing.T) {
	runner := &countingRunner{hold: time.Minute}
	svc := NewService(time.Second, runner)

	require.NoError(t, svc.Start())
	require.Eventually(t, func() bool { return atomic.LoadInt32(&runner.inflight) == 1 }, 3*time.Second, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, svc.Stop(ctx))

	assert.Equal(t, int32(1), atomic.LoadInt32(&runner.canceled))
	assert.Equal(t, int32(0), atomic.LoadInt32(&runner.inflight))
}

func TestService_StartValidation(t *testing.T) {
	assert.Error(t, NewService(0, &countingRunner{}).Start())

	svc := NewService(time.Second, &countingRunner{})
	require.NoError(t, svc.Start())
	assert.Error(t, svc.Start())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, svc.Stop(ctx))
}
