package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// SQLSTATE codes a ledger transaction can safely be re-run after.
const (
	pgErrDeadlock             = "40P01"
	pgErrSerializationFailure = "40001"
	pgErrLockNotAvailable     = "55P03"
)

// Retrier implements usecase.Retrier. Each attempt runs the whole
// transaction again, so row locks and balance checks are re-taken.
type Retrier struct {
	maxRetries      int
	initialInterval time.Duration
	maxInterval     time.Duration
	maxElapsedTime  time.Duration
	retries         *prometheus.CounterVec
	logger          zerolog.Logger
}

// NewRetrier creates a retrier allowing three re-runs within ten seconds.
func NewRetrier(logger zerolog.Logger) *Retrier {
	return &Retrier{
		maxRetries:      3,
		initialInterval: 50 * time.Millisecond,
		maxInterval:     1 * time.Second,
		maxElapsedTime:  10 * time.Second,
		logger:          logger,
	}
}

// WithMetrics counts retries by SQLSTATE.
func (r *Retrier) WithMetrics(retries *prometheus.CounterVec) *Retrier {
	r.retries = retries
	return r
}

// Retry runs operation until it succeeds, fails with a non-transient error,
// or the retry budget is spent.
func (r *Retrier) Retry(ctx context.Context, operation func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.initialInterval
	b.MaxInterval = r.maxInterval
	b.MaxElapsedTime = r.maxElapsedTime

	attempt := 0

	return backoff.Retry(func() error {
		err := operation()
		if err == nil {
			return nil
		}

		code, ok := retryableCode(err)
		if !ok {
			return backoff.Permanent(err)
		}

		attempt++
		if attempt > r.maxRetries {
			r.logger.Error().Err(err).Str("sqlstate", code).Int("attempts", attempt).Msg("giving up on conflicting transaction")
			return backoff.Permanent(err)
		}

		if r.retries != nil {
			r.retries.WithLabelValues(code).Inc()
		}
		r.logger.Warn().Err(err).Str("sqlstate", code).Int("retry", attempt).Msg("transient database conflict, retrying")

		return err
	}, backoff.WithContext(b, ctx))
}

func retryableCode(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", false
	}
	switch pgErr.Code {
	case pgErrDeadlock, pgErrSerializationFailure, pgErrLockNotAvailable:
		return pgErr.Code, true
	}
	return "", false
}
