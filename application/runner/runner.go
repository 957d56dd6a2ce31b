package runner

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"browser_scripts/domain/entities"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// StopFlag is polled by jobs between top-level iterations
type StopFlag interface {
	Stopping() bool
}

// JobFunc is the body of a job
type JobFunc func(ctx context.Context, stop StopFlag) error

// Runner runs one job at a time on a background goroutine
type Runner struct {
	logger *logrus.Logger

	mu      sync.Mutex
	job     *entities.Job
	done    chan struct{}
	err     error
	stop    atomic.Bool
	running atomic.Bool
}

// New - creates new runner
func New(logger *logrus.Logger) *Runner {
	return &Runner{logger: logger}
}

// Start - starts fn in the background. It fails when a job is already running
func (r *Runner) Start(ctx context.Context, name string, fn JobFunc) (entities.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running.Load() {
		return entities.Job{}, fmt.Errorf("start %s: %w", name, entities.ErrAlreadyRunning)
	}

	job := &entities.Job{
		ID:        uuid.NewString(),
		Name:      name,
		Status:    entities.JobRunning,
		StartedAt: time.Now(),
	}
	r.job = job
	r.err = nil
	r.done = make(chan struct{})
	r.stop.Store(false)
	r.running.Store(true)

	done := r.done
	log := r.logger.WithFields(logrus.Fields{"job": name, "job_id": job.ID})
	log.Info("job started")

	go func() {
		defer close(done)
		err := r.safeRun(ctx, fn)

		r.mu.Lock()
		r.err = err
		if err != nil {
			job.Status = entities.JobFailed
			job.Error = err.Error()
			log.Errorf("job failed: %v", err)
		} else {
			job.Status = entities.JobCompleted
			log.Info("job completed")
		}
		r.mu.Unlock()
		r.running.Store(false)
	}()

	return *job, nil
}

func (r *Runner) safeRun(ctx context.Context, fn JobFunc) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("job panicked: %v", rec)
		}
	}()
	return fn(ctx, r)
}

// Stop - requests a cooperative stop; the job finishes its current item first
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running.Load() {
		return
	}
	r.stop.Store(true)
	if r.job != nil && r.job.Status == entities.JobRunning {
		r.job.Status = entities.JobStopping
	}
	r.logger.Warn("stop requested, waiting for the current item to finish")
}

// Stopping - reports whether a stop was requested
func (r *Runner) Stopping() bool {
	return r.stop.Load()
}

// Running - reports whether a job is in progress
func (r *Runner) Running() bool {
	return r.running.Load()
}

// Wait - blocks until the current job ends and returns its error
func (r *Runner) Wait() error {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()
	if done == nil {
		return nil
	}
	<-done

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Job - returns a copy of the current or last job
func (r *Runner) Job() (entities.Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.job == nil {
		return entities.Job{}, false
	}
	return *r.job, true
}
