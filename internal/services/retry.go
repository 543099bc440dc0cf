package services

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/schoolbank/backend/internal/config"
)

// Retrier re-runs an operation that failed with a retryable error
// (lock timeout, concurrency conflict) with exponential backoff.
type Retrier struct {
	maxRetries      int
	initialInterval time.Duration
	maxInterval     time.Duration
}

func NewRetrier(cfg *config.BankingConfig) *Retrier {
	return &Retrier{
		maxRetries:      cfg.MaxRetries,
		initialInterval: cfg.RetryInitialInterval,
		maxInterval:     cfg.RetryMaxInterval,
	}
}

func (r *Retrier) Do(ctx context.Context, op func() error) error {
	if r == nil || r.maxRetries <= 0 {
		return op()
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = r.initialInterval
	expo.MaxInterval = r.maxInterval
	expo.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(expo, uint64(r.maxRetries)), ctx)

	return backoff.Retry(func() error {
		err := op()
		if err == nil || IsRetryable(err) {
			return err
		}
		return backoff.Permanent(err)
	}, policy)
}
