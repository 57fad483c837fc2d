package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTimer fires immediately and records every requested wait.
type fakeTimer struct {
	c     chan time.Time
	waits []time.Duration
}

func newFakeTimer() *fakeTimer { return &fakeTimer{c: make(chan time.Time, 1)} }

func (f *fakeTimer) Start(d time.Duration) {
	f.waits = append(f.waits, d)
	f.c <- time.Time{}
}
func (f *fakeTimer) Stop()               {}
func (f *fakeTimer) C() <-chan time.Time { return f.c }

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	timer := newFakeTimer()
	calls := 0
	err := Do(context.Background(), DefaultPolicy(), func(ctx context.Context) error {
		calls++
		return nil
	}, WithTimer(timer))
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, timer.waits)
}

func TestDo_ExhaustsAttemptsWithFixedDelays(t *testing.T) {
	timer := newFakeTimer()
	boom := errors.New("upstream 503")
	calls := 0
	var notified []int
	err := Do(context.Background(), DefaultPolicy(), func(ctx context.Context) error {
		calls++
		return boom
	}, WithTimer(timer), WithNotify(func(attempt int, err error, wait time.Duration) {
		notified = append(notified, attempt)
	}))
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, timer.waits)
	assert.Equal(t, []int{1, 2}, notified)
}

func TestDo_RecoversOnSecondAttempt(t *testing.T) {
	timer := newFakeTimer()
	calls := 0
	err := Do(context.Background(), DefaultPolicy(), func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return errors.New("flaky")
		}
		return nil
	}, WithTimer(timer))
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []time.Duration{time.Second}, timer.waits)
}

func TestDo_PermanentStopsImmediately(t *testing.T) {
	timer := newFakeTimer()
	blocked := errors.New("prompt blocked")
	calls := 0
	err := Do(context.Background(), DefaultPolicy(), func(ctx context.Context) error {
		calls++
		return Permanent(blocked)
	}, WithTimer(timer))
	require.ErrorIs(t, err, blocked)
	assert.Equal(t, 1, calls)
	assert.Empty(t, timer.waits)
}

func TestDo_PerAttemptTimeout(t *testing.T) {
	timer := newFakeTimer()
	p := Policy{MaxAttempts: 2, Delays: []time.Duration{time.Millisecond}, PerAttemptTimeout: 10 * time.Millisecond}
	calls := 0
	err := Do(context.Background(), p, func(ctx context.Context) error {
		calls++
		<-ctx.Done()
		return ctx.Err()
	}, WithTimer(timer))
	require.ErrorIs(t, err, ErrAttemptTimeout)
	assert.Equal(t, 2, calls)
}

func TestDo_ParentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := Do(ctx, DefaultPolicy(), func(ctx context.Context) error {
		calls++
		return errors.New("fail")
	}, WithTimer(newFakeTimer()))
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestPolicy_Delay(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, time.Second, p.Delay(0))
	assert.Equal(t, 4*time.Second, p.Delay(2))
	assert.Equal(t, 4*time.Second, p.Delay(7))
	assert.Equal(t, time.Duration(0), Policy{}.Delay(0))
	assert.Nil(t, Permanent(nil))
}
