// Package retry provides the two bounded polling primitives the onboarding
// flow needs: a fixed number of attempts with growing delays, and a poll
// against a wall-clock timeout.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrTimeout is returned by WaitFor when the condition did not hold in time.
var ErrTimeout = errors.New("timed out")

var errNotYet = errors.New("condition not met")

// Policy bounds a retry loop. The delay before attempt n+1 is
// BaseDelay * Growth^(n-1).
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Growth      float64
}

// DefaultPolicy is 3 attempts, 2s base delay, x1.5 growth.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   2 * time.Second,
		Growth:      1.5,
	}
}

func (p Policy) backOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseDelay
	b.Multiplier = p.Growth
	if b.Multiplier < 1 {
		b.Multiplier = 1
	}
	b.RandomizationFactor = 0
	b.MaxInterval = time.Duration(math.MaxInt64)
	b.MaxElapsedTime = 0
	b.Reset()

	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return backoff.WithMaxRetries(b, uint64(attempts-1))
}

// Outcome summarizes an Until loop.
type Outcome struct {
	Attempts int
	// Satisfied is true once any attempt reported true.
	Satisfied bool
	// SawFalse is true if at least one attempt completed and reported false.
	SawFalse bool
	// LastErr is the error of the most recent failed attempt, if any.
	LastErr error
}

// Until calls check until it reports true or the policy's attempts run out.
// check receives the 1-based attempt number.
func Until(ctx context.Context, p Policy, check func(ctx context.Context, attempt int) (bool, error)) Outcome {
	var out Outcome
	op := func() error {
		out.Attempts++
		ok, err := check(ctx, out.Attempts)
		switch {
		case err != nil:
			out.LastErr = err
			return err
		case !ok:
			out.SawFalse = true
			return errNotYet
		}
		out.Satisfied = true
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(p.backOff(), ctx)); err != nil && ctx.Err() != nil {
		out.LastErr = ctx.Err()
	}
	return out
}

// WaitFor polls check every interval until it reports true or timeout elapses.
// Errors from check are treated as "not yet"; the last one is wrapped into the
// returned ErrTimeout.
func WaitFor(ctx context.Context, timeout, interval time.Duration, check func(ctx context.Context) (bool, error)) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var lastErr error
	op := func() error {
		ok, err := check(waitCtx)
		if err != nil {
			lastErr = err
			return err
		}
		if !ok {
			return errNotYet
		}
		return nil
	}

	err := backoff.Retry(op, backoff.WithContext(backoff.NewConstantBackOff(interval), waitCtx))
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if lastErr != nil {
		return fmt.Errorf("%w: %v", ErrTimeout, lastErr)
	}
	return ErrTimeout
}
