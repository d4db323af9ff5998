// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package schedule

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-digest/pkg/types"
)

// testCfg returns a scheduler config with short delays so tests run quickly.
func testCfg() types.SchedulerConfig {
	return types.SchedulerConfig{
		MinInterval:       20 * time.Millisecond,
		Reservoir:         20,
		RefillPeriod:      10 * time.Second,
		MaxRetries:        3,
		ThrottleBaseDelay: 5 * time.Millisecond,
		ThrottleMaxDelay:  20 * time.Millisecond,
		TransientDelay:    2 * time.Millisecond,
	}
}

func startScheduler(t *testing.T, cfg types.SchedulerConfig) *Scheduler {
	t.Helper()
	s := NewScheduler(cfg)
	s.Start()
	t.Cleanup(s.Stop)
	return s
}

func TestScheduleEnforcesMinInterval(t *testing.T) {
	s := startScheduler(t, testCfg())

	var mu sync.Mutex
	var starts []time.Time
	task := func(context.Context) error {
		mu.Lock()
		starts = append(starts, time.Now())
		mu.Unlock()
		return nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, s.Schedule(context.Background(), task))
		}()
	}
	wg.Wait()

	require.Len(t, starts, 3)
	for i := 1; i < len(starts); i++ {
		gap := starts[i].Sub(starts[i-1])
		assert.GreaterOrEqual(t, gap, 15*time.Millisecond, "starts %d and %d too close", i-1, i)
	}
}

func TestScheduleSingleInFlight(t *testing.T) {
	s := startScheduler(t, testCfg())

	var active, maxActive int32
	task := func(context.Context) error {
		n := atomic.AddInt32(&active, 1)
		for {
			m := atomic.LoadInt32(&maxActive)
			if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&active, -1)
		return nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, s.Schedule(context.Background(), task))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&maxActive))
}

func TestScheduleFIFO(t *testing.T) {
	cfg := testCfg()
	cfg.MinInterval = time.Millisecond
	s := NewScheduler(cfg)

	// Queue before starting the worker so submission order is fixed.
	var mu sync.Mutex
	var order []int
	results := make([]chan error, 5)
	for i := 0; i < 5; i++ {
		i := i
		results[i] = make(chan error, 1)
		p := &pending{ctx: context.Background(), res: results[i], fn: func(context.Context) error {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		}}
		s.tasks <- p
	}

	s.Start()
	defer s.Stop()

	for i := 0; i < 5; i++ {
		require.NoError(t, <-results[i])
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestRetryOnThrottleThenSuccess(t *testing.T) {
	s := startScheduler(t, testCfg())

	var calls int32
	err := s.Schedule(context.Background(), func(context.Context) error {
		if atomic.AddInt32(&calls, 1) <= 2 {
			return &StatusError{StatusCode: 429}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))

	stats := s.Stats()
	assert.Equal(t, uint64(1), stats.Completed)
	assert.Equal(t, uint64(2), stats.Retries)
}

func TestAbandonsAfterMaxRetries(t *testing.T) {
	s := startScheduler(t, testCfg())

	var calls int32
	boom := errors.New("feed unreachable")
	err := s.Schedule(context.Background(), func(context.Context) error {
		atomic.AddInt32(&calls, 1)
		return boom
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	// 1 initial + 3 retries.
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))
	assert.Equal(t, uint64(1), s.Stats().Abandoned)
}

func TestReservoirExhaustionWaitsForRefill(t *testing.T) {
	cfg := testCfg()
	cfg.MinInterval = time.Millisecond
	cfg.Reservoir = 2
	cfg.RefillPeriod = 60 * time.Millisecond
	s := startScheduler(t, cfg)

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Schedule(context.Background(), func(context.Context) error { return nil }))
	}

	// The third task needs a refill tick before it can start.
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	assert.Equal(t, uint64(3), s.Stats().Completed)
}

func TestStopReportsStartedTaskResult(t *testing.T) {
	cfg := testCfg()
	cfg.MinInterval = time.Millisecond
	s := NewScheduler(cfg)
	s.Start()

	running := make(chan struct{})
	release := make(chan struct{})
	result := make(chan error, 1)
	go func() {
		result <- s.Schedule(context.Background(), func(context.Context) error {
			close(running)
			<-release
			return nil
		})
	}()

	<-running
	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()

	// Give Stop time to close the shutdown channel while the task is still
	// mid-execution, then let the task finish.
	time.Sleep(20 * time.Millisecond)
	close(release)
	<-stopped

	require.NoError(t, <-result)
	assert.Equal(t, uint64(1), s.Stats().Completed)
}

func TestScheduleAfterStop(t *testing.T) {
	s := NewScheduler(testCfg())
	s.Start()
	s.Stop()

	err := s.Schedule(context.Background(), func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrStopped)
}

func TestIsThrottle(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"429", &StatusError{StatusCode: 429}, true},
		{"503", &StatusError{StatusCode: 503}, true},
		{"500", &StatusError{StatusCode: 500}, false},
		{"sentinel", ErrThrottled, true},
		{"wrapped sentinel", errors.Join(errors.New("x"), ErrThrottled), true},
		{"plain", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsThrottle(tt.err))
		})
	}
}

func TestContextCancelledDuringBackoff(t *testing.T) {
	cfg := testCfg()
	cfg.ThrottleBaseDelay = 500 * time.Millisecond
	cfg.ThrottleMaxDelay = time.Second
	s := startScheduler(t, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := s.Schedule(ctx, func(context.Context) error {
		return &StatusError{StatusCode: 429}
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
