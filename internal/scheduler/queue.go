// Package scheduler provides a cancellable delayed-task queue on top of
// clock.Clock.
package scheduler

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/iudanet/vaultbot/internal/clock"
)

// Scheduler runs functions after a delay.
type Scheduler interface {
	After(d time.Duration, name string, fn func()) Handle
}

// Handle is a scheduled task that can be cancelled before it fires.
type Handle interface {
	// Cancel reports whether the task was still pending.
	Cancel() bool
}

// Queue is a Scheduler backed by a Clock. It tracks pending jobs so they
// can be counted and cancelled together on shutdown.
type Queue struct {
	clock   clock.Clock
	logger  *slog.Logger
	jobs    map[uint64]*Job
	nextID  uint64
	mu      sync.Mutex
	stopped bool
}

// Job is a single pending task.
type Job struct {
	queue *Queue
	timer clock.Timer
	name  string
	id    uint64
}

// New creates a Queue.
func New(clk clock.Clock, logger *slog.Logger) *Queue {
	return &Queue{
		clock:  clk,
		logger: logger,
		jobs:   make(map[uint64]*Job),
	}
}

// After schedules fn to run after d. After Stop, tasks are dropped and the
// returned handle is already inert.
func (q *Queue) After(d time.Duration, name string, fn func()) Handle {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.nextID++
	job := &Job{queue: q, name: name, id: q.nextID}
	if q.stopped {
		q.logger.Debug("scheduler stopped, dropping task", "task", name)
		return job
	}

	q.jobs[job.id] = job
	job.timer = q.clock.AfterFunc(d, func() {
		if !q.remove(job.id) {
			return
		}
		q.run(job, fn)
	})
	return job
}

// Cancel removes the job before it fires.
func (j *Job) Cancel() bool {
	if !j.queue.remove(j.id) {
		return false
	}
	if j.timer != nil {
		j.timer.Stop()
	}
	return true
}

// Len returns the number of pending jobs.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// Stop cancels all pending jobs and rejects new ones.
func (q *Queue) Stop() {
	q.mu.Lock()
	q.stopped = true
	jobs := q.jobs
	q.jobs = make(map[uint64]*Job)
	q.mu.Unlock()

	for _, job := range jobs {
		if job.timer != nil {
			job.timer.Stop()
		}
	}
	q.logger.Debug("scheduler stopped", "cancelled", len(jobs))
}

func (q *Queue) remove(id uint64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.jobs[id]; !ok {
		return false
	}
	delete(q.jobs, id)
	return true
}

// run executes a task, turning a panic into an error log so that one bad
// task does not take the process down.
func (q *Queue) run(job *Job, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("scheduled task panicked",
				"task", job.name,
				"error", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	fn()
}
