package comm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Policy bounds a single transfer: each attempt is given Timeout, and attempts
// which fail because the peer is unreachable are retried up to Attempts times,
// waiting Backoff⋅n before the n-th retry.
type Policy struct {
	Timeout  time.Duration
	Attempts int
	Backoff  time.Duration
}

// DefaultPolicy is used when Options.Policy is left empty.
var DefaultPolicy = Policy{
	Timeout:  5 * time.Second,
	Attempts: 5,
	Backoff:  100 * time.Millisecond,
}

// Validate returns an error if the policy cannot make progress.
func (p Policy) Validate() error {
	if p.Timeout <= 0 {
		return errors.New("comm: policy: timeout must be positive")
	}
	if p.Attempts < 1 {
		return errors.New("comm: policy: at least one attempt is required")
	}
	if p.Backoff < 0 {
		return errors.New("comm: policy: negative backoff")
	}
	return nil
}

// Do runs attempt until it succeeds, fails with an error other than
// ErrPeerUnreachable, or the attempts are exhausted.
// Each call to attempt receives a context bounded by p.Timeout.
func (p Policy) Do(ctx context.Context, attempt func(ctx context.Context) error) error {
	var err error
	for i := 0; i < p.Attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("%w: %w", ErrPeerUnreachable, ctx.Err())
			case <-time.After(p.Backoff * time.Duration(i)):
			}
		}
		attemptCtx, cancel := context.WithTimeout(ctx, p.Timeout)
		err = attempt(attemptCtx)
		cancel()
		if err == nil || !errors.Is(err, ErrPeerUnreachable) {
			return err
		}
		if ctx.Err() != nil {
			break
		}
	}
	return fmt.Errorf("after %d attempts: %w", p.Attempts, err)
}
