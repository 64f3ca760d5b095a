package api

import (
	"context"
	"errors"

	"github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/database"
	apperrors "github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/errors"
	"github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/resilience"
)

// resultStore guards repository calls with a circuit breaker. Lock
// contention is retried before it counts as a failure.
type resultStore struct {
	repo    *database.Repository
	breaker *resilience.CircuitBreaker
	retry   resilience.RetryConfig
}

func newResultStore(repo *database.Repository, breaker *resilience.CircuitBreaker) *resultStore {
	if breaker == nil {
		breaker = resilience.NewCircuitBreaker("result_store", resilience.DefaultCircuitBreakerConfig())
	}
	return &resultStore{
		repo:    repo,
		breaker: breaker,
		retry:   resilience.DefaultRetryConfig(database.IsBusy),
	}
}

func (s *resultStore) do(ctx context.Context, fn func(context.Context) error) error {
	err := s.breaker.Call(func() error {
		return resilience.Retry(ctx, s.retry, func() error { return fn(ctx) })
	}, storeFailure)
	if errors.Is(err, resilience.ErrOpen) {
		return apperrors.NewUnavailableError("result store is temporarily unavailable")
	}
	return err
}

// storeFailure ignores outcomes that say nothing about the store's health.
func storeFailure(err error) bool {
	return !apperrors.IsCategory(err, apperrors.CategoryNotFound) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}
