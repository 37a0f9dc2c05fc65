package policytool

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/platformops/policytool/pkg/errors"
	"github.com/platformops/policytool/pkg/logging"
	"github.com/platformops/policytool/pkg/tags"
)

// PushFunc performs one remote batch write and reports per-entity outcomes.
// It must be safe to call repeatedly: entities that already converged come
// back with no additions.
type PushFunc func(ctx context.Context) ([]tags.WorkEntry, error)

// SleepFunc waits for the given duration or until the context is canceled.
type SleepFunc func(ctx context.Context, d time.Duration) error

// RetryingSyncer runs a push operation with a bounded attempt budget and a
// fixed delay between attempts. Only sync errors are retried; the remote
// write reports those when entities fail, possibly partially. Anything else
// (a canceled context, a programming error) fails the push immediately.
type RetryingSyncer struct {
	attempts int
	delay    time.Duration
	sleep    SleepFunc
	logger   *zerolog.Logger
}

// RetryOption configures a RetryingSyncer.
type RetryOption func(*RetryingSyncer)

// WithRetrySleep replaces the delay between attempts, mainly for tests.
func WithRetrySleep(sleep SleepFunc) RetryOption {
	return func(s *RetryingSyncer) {
		if sleep != nil {
			s.sleep = sleep
		}
	}
}

// WithRetryLogger sets the logger retries are reported on.
func WithRetryLogger(logger *zerolog.Logger) RetryOption {
	return func(s *RetryingSyncer) {
		s.logger = logger
	}
}

// NewRetryingSyncer creates a syncer with a total attempt budget. The budget
// is the retry flag count multiplied by the configured retries; zero or
// negative means exactly one attempt with no sleep.
func NewRetryingSyncer(attempts int, delay time.Duration, opts ...RetryOption) *RetryingSyncer {
	if attempts < 1 {
		attempts = 1
	}
	s := &RetryingSyncer{
		attempts: attempts,
		delay:    delay,
		sleep:    sleepContext,
		logger:   logging.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Attempts returns the total attempt budget.
func (s *RetryingSyncer) Attempts() int {
	return s.attempts
}

// Push runs op until it succeeds or the attempt budget is spent, sleeping
// the fixed delay between attempts. The returned worklog merges the
// attempts: an entity's additions accumulate, its failures reflect the last
// attempt. After the final failed attempt the last sync error is returned,
// annotated as terminal; tags pushed by earlier attempts stay pushed.
func (s *RetryingSyncer) Push(ctx context.Context, scope string, op PushFunc) (*tags.Worklog, error) {
	worklog := tags.NewWorklog(scope)
	merged := make(map[tags.EntityID]*tags.WorkEntry)
	var order []tags.EntityID

	var lastErr error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		worklog.Attempts = attempt

		entries, err := op(ctx)
		for _, entry := range entries {
			cur, ok := merged[entry.Entity]
			if !ok {
				e := entry
				merged[entry.Entity] = &e
				order = append(order, entry.Entity)
				continue
			}
			cur.Added = unionSorted(cur.Added, entry.Added)
			cur.Failed = entry.Failed
		}

		if err == nil {
			lastErr = nil
			break
		}
		if !errors.IsSyncError(err) {
			return s.close(worklog, merged, order), err
		}

		lastErr = err
		if attempt < s.attempts {
			s.logger.Warn().
				Str("scope", scope).
				Int("attempt", attempt).
				Int("budget", s.attempts).
				Dur("delay", s.delay).
				Err(err).
				Msg("push failed, retrying")
			if sleepErr := s.sleep(ctx, s.delay); sleepErr != nil {
				return s.close(worklog, merged, order), sleepErr
			}
		}
	}

	result := s.close(worklog, merged, order)
	if lastErr != nil {
		return result, fmt.Errorf("push for %s scope exhausted %d attempt(s): %w", scope, s.attempts, lastErr)
	}
	return result, nil
}

func (s *RetryingSyncer) close(worklog *tags.Worklog, merged map[tags.EntityID]*tags.WorkEntry, order []tags.EntityID) *tags.Worklog {
	for _, id := range order {
		entry := merged[id]
		worklog.Record(entry.Entity, entry.Added, entry.Failed)
	}
	return worklog.Close()
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// unionSorted merges two sorted string slices without duplicates.
func unionSorted(a, b []string) []string {
	if len(b) == 0 {
		return a
	}
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range append(append([]string{}, a...), b...) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
