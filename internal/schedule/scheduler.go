// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package schedule serializes outbound source-feed calls. A single worker
// drains a FIFO queue, enforcing a minimum interval between task starts, a
// refillable reservoir of task slots, and a retry policy that backs off
// further when the upstream is itself rate-limiting.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/paper-digest/pkg/types"
)

// ErrStopped is returned for tasks submitted to, or still queued in, a
// scheduler that has been stopped.
var ErrStopped = errors.New("scheduler stopped")

// ErrThrottled marks a failure caused by the upstream source's own rate
// limiting. Tasks may wrap it so the scheduler applies the longer backoff.
var ErrThrottled = errors.New("upstream throttled")

// StatusError carries an HTTP status code from a failed task so the retry
// policy can classify it.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d from upstream", e.StatusCode)
}

// IsThrottle reports whether err indicates upstream rate limiting
// (HTTP 429/503 or an explicit ErrThrottled).
func IsThrottle(err error) bool {
	if errors.Is(err, ErrThrottled) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusTooManyRequests ||
			se.StatusCode == http.StatusServiceUnavailable
	}
	return false
}

// Task is one unit of outbound work. The scheduler owns when it runs; the
// task owns what it does.
type Task func(ctx context.Context) error

// Stats is the scheduler's observable side channel.
type Stats struct {
	Completed uint64
	Abandoned uint64
	Retries   uint64
}

type pending struct {
	ctx context.Context
	fn  Task
	res chan error

	// started flips once the worker picks the task up. From then on a result
	// is guaranteed on res, so shutdown must not preempt it.
	started atomic.Bool
}

// Scheduler owns the global pacing state for source-feed calls. One instance
// exists per process and is injected into components that fetch from the
// feed. Start must be called before Schedule, Stop when done.
type Scheduler struct {
	cfg     types.SchedulerConfig
	limiter *rate.Limiter
	tasks   chan *pending
	done    chan struct{}
	wg      sync.WaitGroup

	started  atomic.Bool
	stopOnce sync.Once

	completed atomic.Uint64
	abandoned atomic.Uint64
	retries   atomic.Uint64
}

// NewScheduler creates a scheduler with cfg (zero fields take defaults).
func NewScheduler(cfg types.SchedulerConfig) *Scheduler {
	cfg = cfg.Defaulted()
	return &Scheduler{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Every(cfg.MinInterval), 1),
		tasks:   make(chan *pending, 256),
		done:    make(chan struct{}),
	}
}

// Start launches the worker goroutine.
func (s *Scheduler) Start() {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	s.wg.Add(1)
	go s.run()
}

// Stop shuts the worker down. Queued tasks that have not started fail with
// ErrStopped. Stop blocks until the worker exits.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
	s.wg.Wait()
}

// Stats returns a snapshot of completion counters.
func (s *Scheduler) Stats() Stats {
	return Stats{
		Completed: s.completed.Load(),
		Abandoned: s.abandoned.Load(),
		Retries:   s.retries.Load(),
	}
}

// Schedule submits fn and blocks until it completes, is abandoned after the
// retry budget, or ctx is cancelled. Tasks run strictly one at a time, in
// submission order, never closer together than the configured minimum
// interval. A task the worker already started reports its own result even
// when the scheduler stops meanwhile; only tasks still queued fail with
// ErrStopped.
func (s *Scheduler) Schedule(ctx context.Context, fn Task) error {
	if !s.started.Load() {
		return errors.New("scheduler not started")
	}

	p := &pending{ctx: ctx, fn: fn, res: make(chan error, 1)}

	select {
	case s.tasks <- p:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrStopped
	}

	select {
	case err := <-p.res:
		return err
	case <-s.done:
		if p.started.Load() {
			return <-p.res
		}
		return ErrStopped
	}
}

// run is the worker loop. It owns the reservoir: slots are consumed per task
// and restored to capacity on every refill tick. With zero slots the worker
// waits for the next refill, so queued tasks keep FIFO order.
func (s *Scheduler) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.RefillPeriod)
	defer ticker.Stop()

	slots := s.cfg.Reservoir

	for {
		if slots <= 0 {
			select {
			case <-ticker.C:
				slots = s.cfg.Reservoir
			case <-s.done:
				return
			}
			continue
		}

		select {
		case <-ticker.C:
			slots = s.cfg.Reservoir
		case p := <-s.tasks:
			p.started.Store(true)
			slots--
			p.res <- s.execute(p)
		case <-s.done:
			return
		}
	}
}

// execute runs one task with the retry policy. Every attempt, including
// retries, passes through the interval gate so the global spacing guarantee
// holds across retries too.
func (s *Scheduler) execute(p *pending) error {
	for attempt := 0; ; attempt++ {
		if err := s.limiter.Wait(p.ctx); err != nil {
			s.abandoned.Add(1)
			return err
		}

		err := p.fn(p.ctx)
		if err == nil {
			s.completed.Add(1)
			return nil
		}

		if attempt >= s.cfg.MaxRetries {
			s.abandoned.Add(1)
			return fmt.Errorf("abandoned after %d retries: %w", s.cfg.MaxRetries, err)
		}

		delay := s.cfg.TransientDelay
		if IsThrottle(err) {
			delay = min(s.cfg.ThrottleBaseDelay*time.Duration(attempt+1), s.cfg.ThrottleMaxDelay)
		}
		s.retries.Add(1)

		select {
		case <-p.ctx.Done():
			s.abandoned.Add(1)
			return p.ctx.Err()
		case <-s.done:
			return ErrStopped
		case <-time.After(delay):
		}
	}
}
