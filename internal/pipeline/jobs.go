// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobStatus is a queued job's lifecycle state.
type JobStatus string

const (
	JobQueued  JobStatus = "queued"
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

// Job is one named unit of work with a string payload.
type Job struct {
	ID       string
	Name     string
	Payload  map[string]string
	Status   JobStatus
	Error    string
	Enqueued time.Time
	Finished time.Time
}

// Handler executes one job's payload.
type Handler func(ctx context.Context, payload map[string]string) error

// Queue accepts named jobs and returns their identifiers. The orchestrator
// is invoked through a registered handler, not called directly.
type Queue interface {
	Enqueue(ctx context.Context, name string, payload map[string]string) (string, error)
}

// MemoryQueue is an in-process queue that runs jobs when drained. Jobs
// survive only for the life of the process.
type MemoryQueue struct {
	mu       sync.Mutex
	handlers map[string]Handler
	jobs     map[string]*Job
	pending  []string
	now      func() time.Time
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{
		handlers: make(map[string]Handler),
		jobs:     make(map[string]*Job),
		now:      time.Now,
	}
}

// Register installs the handler for a job name. Re-registering replaces the
// previous handler.
func (q *MemoryQueue) Register(name string, h Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[name] = h
}

// Enqueue accepts a job for a registered name and returns its identifier.
func (q *MemoryQueue) Enqueue(_ context.Context, name string, payload map[string]string) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.handlers[name]; !ok {
		return "", fmt.Errorf("jobs: no handler registered for %q", name)
	}
	job := &Job{
		ID:       uuid.NewString(),
		Name:     name,
		Payload:  payload,
		Status:   JobQueued,
		Enqueued: q.now(),
	}
	q.jobs[job.ID] = job
	q.pending = append(q.pending, job.ID)
	return job.ID, nil
}

// Job returns a copy of the job record, or nil for an unknown ID.
func (q *MemoryQueue) Job(id string) *Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.jobs[id]
	if !ok {
		return nil
	}
	copied := *job
	return &copied
}

// Drain runs all pending jobs in enqueue order. A job failure is recorded
// on the job and does not stop the drain; cancellation does.
func (q *MemoryQueue) Drain(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		q.mu.Lock()
		if len(q.pending) == 0 {
			q.mu.Unlock()
			return nil
		}
		id := q.pending[0]
		q.pending = q.pending[1:]
		job := q.jobs[id]
		handler := q.handlers[job.Name]
		job.Status = JobRunning
		q.mu.Unlock()

		err := handler(ctx, job.Payload)

		q.mu.Lock()
		job.Finished = q.now()
		if err != nil {
			job.Status = JobFailed
			job.Error = err.Error()
		} else {
			job.Status = JobDone
		}
		q.mu.Unlock()
	}
}
