package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/finovo/bankcore/internal/infrastructure/metrics"
)

// Job is a unit of background work run on a fixed interval.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Runner runs jobs until its context is cancelled. A failed run is logged and
// retried on the next tick; it never stops the other jobs.
type Runner struct {
	jobs    []Job
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewRunner creates a Runner. m may be nil.
func NewRunner(logger zerolog.Logger, m *metrics.Metrics, jobs ...Job) *Runner {
	return &Runner{
		jobs:    jobs,
		metrics: m,
		logger:  logger.With().Str("component", "worker").Logger(),
	}
}

// Run blocks until ctx is done and every job has returned.
func (r *Runner) Run(ctx context.Context) error {
	for _, job := range r.jobs {
		if job.Interval <= 0 {
			return fmt.Errorf("job %s: interval must be positive", job.Name)
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, job := range r.jobs {
		job := job
		g.Go(func() error {
			r.loop(ctx, job)
			return nil
		})
	}
	return g.Wait()
}

func (r *Runner) loop(ctx context.Context, job Job) {
	log := r.logger.With().Str("job", job.Name).Logger()
	log.Info().Dur("interval", job.Interval).Msg("job started")

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		r.runOnce(ctx, job, log)

		select {
		case <-ctx.Done():
			log.Info().Msg("job stopped")
			return
		case <-ticker.C:
		}
	}
}

func (r *Runner) runOnce(ctx context.Context, job Job, log zerolog.Logger) {
	start := time.Now()
	err := safeRun(ctx, job)

	result := "success"
	switch {
	case err == nil:
		log.Debug().Dur("took", time.Since(start)).Msg("job run finished")
	case errors.Is(err, context.Canceled):
		result = "cancelled"
	default:
		result = "error"
		log.Error().Err(err).Dur("took", time.Since(start)).Msg("job run failed")
	}

	if r.metrics != nil {
		r.metrics.WorkerRuns.WithLabelValues(job.Name, result).Inc()
	}
}

func safeRun(ctx context.Context, job Job) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("job %s panicked: %v", job.Name, rec)
		}
	}()
	return job.Run(ctx)
}
