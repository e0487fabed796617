package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/cineops/ledger-api/internal/domain"
)

// RetryPolicy reintentos acotados con backoff exponencial sobre conflictos
// CAS. Es la única política de reintento del servicio: los callers no
// duplican sus propios loops.
type RetryPolicy struct {
	MaxAttempts     uint64
	InitialInterval time.Duration
}

// DefaultRetryPolicy valores razonables para contención moderada.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 5, InitialInterval: 20 * time.Millisecond}
}

// runWithRetry ejecuta op reintentando solo ante domain.ErrVersionConflict.
// Cada intento corre su propia transacción; un intento fallido no deja
// escrituras parciales. Agotados los intentos devuelve
// domain.ErrConcurrentModification; si el deadline del caller vence primero,
// domain.ErrTimeout.
func runWithRetry(ctx context.Context, p RetryPolicy, op func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.InitialInterval

	attempts := p.MaxAttempts
	if attempts == 0 {
		attempts = 1
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, attempts-1), ctx)

	err := backoff.Retry(func() error {
		err := op()
		switch {
		case err == nil:
			return nil
		case errors.Is(err, domain.ErrVersionConflict):
			return err // transitorio: reintentar
		default:
			return backoff.Permanent(err)
		}
	}, policy)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return domain.ErrTimeout
	case errors.Is(err, domain.ErrVersionConflict):
		return domain.ErrConcurrentModification
	default:
		return err
	}
}
