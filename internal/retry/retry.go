// Package retry runs an operation under a fixed attempt/delay policy.
//
// A Policy is a plain value so callers and tests can construct it directly; Do
// executes the operation with a per-attempt timeout and sleeps on the policy's
// delay sequence between attempts. Errors wrapped with Permanent stop the loop.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
)

// Policy describes how often and how patiently an operation is retried.
type Policy struct {
	MaxAttempts       int
	Delays            []time.Duration
	PerAttemptTimeout time.Duration
}

// DefaultPolicy is used for LLM calls: three attempts, 30s each, 1s/2s/4s apart.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:       3,
		Delays:            []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second},
		PerAttemptTimeout: 30 * time.Second,
	}
}

// Delay returns the wait after the given zero-based failed attempt.
// The last delay repeats when the sequence is shorter than the attempts.
func (p Policy) Delay(attempt int) time.Duration {
	if len(p.Delays) == 0 || attempt < 0 {
		return 0
	}
	if attempt >= len(p.Delays) {
		return p.Delays[len(p.Delays)-1]
	}
	return p.Delays[attempt]
}

// ErrAttemptTimeout marks an attempt that ran out of its per-attempt budget.
var ErrAttemptTimeout = errors.New("attempt timed out")

// Permanent wraps err so that Do returns it without further attempts.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return backoff.Permanent(err)
}

// Notify is called after each failed attempt that will be retried.
type Notify func(attempt int, err error, wait time.Duration)

type options struct {
	timer  backoff.Timer
	notify Notify
}

// Option customizes Do.
type Option func(*options)

// WithTimer replaces the wall-clock timer used between attempts.
func WithTimer(t backoff.Timer) Option { return func(o *options) { o.timer = t } }

// WithNotify registers a callback for retried failures.
func WithNotify(n Notify) Option { return func(o *options) { o.notify = n } }

// sequence is a backoff.BackOff that walks a fixed delay list.
type sequence struct {
	policy Policy
	n      int
}

func (s *sequence) NextBackOff() time.Duration {
	d := s.policy.Delay(s.n)
	s.n++
	return d
}

func (s *sequence) Reset() { s.n = 0 }

// Do runs op until it succeeds, returns a permanent error, the attempts are
// exhausted, or ctx is done. It returns the last error seen.
func Do(ctx context.Context, p Policy, op func(ctx context.Context) error, opts ...Option) error {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	attempt := 0
	operation := func() error {
		attempt++
		attemptCtx := ctx
		cancel := func() {}
		if p.PerAttemptTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, p.PerAttemptTimeout)
		}
		defer cancel()

		err := op(attemptCtx)
		if err == nil {
			return nil
		}
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			return err
		}
		if ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w after %s: %v", ErrAttemptTimeout, p.PerAttemptTimeout, err)
		}
		return err
	}

	var b backoff.BackOff = &sequence{policy: p}
	b = backoff.WithMaxRetries(b, uint64(attempts-1))
	b = backoff.WithContext(b, ctx)

	notify := func(err error, wait time.Duration) {
		if o.notify != nil {
			o.notify(attempt, err, wait)
		}
	}
	return backoff.RetryNotifyWithTimer(operation, b, notify, o.timer)
}
