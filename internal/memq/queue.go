package memq

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lavrova/rfpdesk/internal/job"
)

// ProgressFunc lets a handler report coarse progress while running.
type ProgressFunc func(pct int, msg string)

// JobHandler processes one job. The job is passed by value; the queue owns
// the stored record and applies the returned result under its lock.
type JobHandler func(ctx context.Context, j job.Job, report ProgressFunc) (*job.Result, error)

type JobQueue interface {
	Enqueue(ctx context.Context, j *job.Job) (uuid.UUID, error)
	Status(ctx context.Context, id uuid.UUID) (job.Job, bool)
	StartConsumers(ctx context.Context, n int, handler JobHandler)
	Len() int
	Close() error
}

type memQueue struct {
	buf     chan *job.Job
	maxWait time.Duration
	ttl     time.Duration

	mu   sync.RWMutex
	jobs map[uuid.UUID]*job.Job
}

// NewMemoryQueue creates an in-process queue. Finished jobs are kept for ttl
// so pollers can read the terminal state, then evicted.
func NewMemoryQueue(buffer int, maxJobDuration, ttl time.Duration) JobQueue {
	return &memQueue{
		buf:     make(chan *job.Job, buffer),
		maxWait: maxJobDuration,
		ttl:     ttl,
		jobs:    make(map[uuid.UUID]*job.Job, buffer),
	}
}

func (q *memQueue) Enqueue(ctx context.Context, j *job.Job) (uuid.UUID, error) {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	j.Status = job.StatusPending
	j.Enqueued = time.Now()

	select {
	case q.buf <- j:
		q.mu.Lock()
		q.jobs[j.ID] = j
		q.mu.Unlock()
		return j.ID, nil
	case <-ctx.Done():
		return uuid.Nil, ctx.Err()
	}
}

// Status returns a copy of the job record so callers never observe a
// handler's writes mid-update.
func (q *memQueue) Status(ctx context.Context, id uuid.UUID) (job.Job, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	j, ok := q.jobs[id]
	if !ok {
		return job.Job{}, false
	}
	return *j, true
}

func (q *memQueue) StartConsumers(ctx context.Context, n int, handler JobHandler) {
	for i := 0; i < n; i++ {
		go q.consume(ctx, i+1, handler)
	}
	go q.janitor(ctx)
}

func (q *memQueue) consume(ctx context.Context, workerID int, handler JobHandler) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-q.buf:
			now := time.Now()
			q.update(j.ID, func(stored *job.Job) {
				stored.Status = job.StatusRunning
				stored.Started = &now
			})

			report := func(pct int, msg string) {
				q.update(j.ID, func(stored *job.Job) {
					stored.Progress = pct
					stored.Message = msg
				})
			}

			runCtx, cancel := context.WithTimeout(ctx, q.maxWait)
			result, err := handler(runCtx, *j, report)
			cancel()

			fin := time.Now()
			q.update(j.ID, func(stored *job.Job) {
				stored.Finished = &fin
				if err != nil {
					stored.Status = job.StatusFailed
					stored.Error = err.Error()
				} else {
					stored.Status = job.StatusCompleted
					stored.Progress = 100
					stored.Result = result
				}
			})

			if err != nil {
				slog.Error("job failed", "id", j.ID, "type", j.Type, "err", err, "worker", workerID)
			} else {
				slog.Info("job done", "id", j.ID, "type", j.Type, "worker", workerID)
			}
		}
	}
}

func (q *memQueue) update(id uuid.UUID, fn func(*job.Job)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if stored, ok := q.jobs[id]; ok {
		fn(stored)
	}
}

// janitor evicts finished jobs older than the TTL so the table cannot grow
// without bound.
func (q *memQueue) janitor(ctx context.Context) {
	interval := q.ttl / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-q.ttl)
			q.mu.Lock()
			for id, j := range q.jobs {
				if j.Finished != nil && j.Finished.Before(cutoff) {
					delete(q.jobs, id)
				}
			}
			q.mu.Unlock()
		}
	}
}

func (q *memQueue) Len() int {
	return len(q.buf)
}

func (q *memQueue) Close() error {
	// In-memory queue doesn't need cleanup
	return nil
}
