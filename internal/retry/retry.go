package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/seatledger/internal/domain"
	"github.com/cenkalti/backoff/v4"
)

// Policy bounds how often an operation is attempted. The wait before attempt n+1 is Backoff*n.
type Policy struct {
	Attempts  int
	Backoff   time.Duration
	Retryable func(error) bool
}

// Aborted retries only transactions the database gave up on.
func Aborted(err error) bool {
	return errors.Is(err, domain.ErrTransactionAborted)
}

// linear waits step, 2*step, 3*step and so on.
type linear struct {
	step time.Duration
	n    int
}

func (l *linear) NextBackOff() time.Duration {
	l.n++
	return l.step * time.Duration(l.n)
}

func (l *linear) Reset() { l.n = 0 }

// Do calls fn until it succeeds, returns a non-retryable error, or the attempts run out.
// fn receives the 1-based attempt number.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context, attempt int) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = Aborted
	}

	var (
		attempt int
		lastErr error
	)
	// WithMaxRetries treats zero as unbounded.
	var next backoff.BackOff = &backoff.StopBackOff{}
	if attempts > 1 {
		next = backoff.WithMaxRetries(&linear{step: p.Backoff}, uint64(attempts-1))
	}
	schedule := backoff.WithContext(next, ctx)
	err := backoff.Retry(func() error {
		attempt++
		lastErr = fn(ctx, attempt)
		if lastErr != nil && !retryable(lastErr) {
			return backoff.Permanent(lastErr)
		}
		return lastErr
	}, schedule)

	switch {
	case err == nil:
		return nil
	case !retryable(lastErr):
		return err
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		return errors.Join(lastErr, err)
	}
	return fmt.Errorf("failed after %d attempts: %w", attempt, lastErr)
}
