// file: internal/ratelimit/controller.go
// version: 1.0.0
// guid: c4d5e6f7-a8b9-c0d1-e2f3-a4b5c6d7e8f9

package ratelimit

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/jdfalk/audiobook-asin/internal/sources"
)

// RetryPolicy describes how failed calls are retried, independent of any
// adapter's control flow.
type RetryPolicy struct {
	MaxAttempts int           // ceiling for rate-limited retries
	BaseDelay   time.Duration // first backoff delay
	Multiplier  float64       // backoff growth factor
}

// DefaultRetryPolicy matches the documented defaults: three attempts with
// exponential backoff starting at one second.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second, Multiplier: 2.0}
}

// delayFor returns the backoff delay before retry number attempt (1-based).
func (p RetryPolicy) delayFor(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		d = time.Duration(float64(d) * p.Multiplier)
	}
	return d
}

// Controller throttles and retries calls into source adapters. Consecutive
// calls to the same source are spaced by a minimum delay; rate-limit
// signals trigger exponential backoff up to the policy ceiling; temporary
// failures get one extra attempt; permanent failures surface immediately.
// Safe for use by concurrent batch workers — the per-source timing state
// is shared and internally synchronized.
type Controller struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	minDelay time.Duration
	policy   RetryPolicy

	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a controller spacing same-source calls by minDelay.
func New(minDelay time.Duration, policy RetryPolicy) *Controller {
	if policy.MaxAttempts < 1 {
		policy = DefaultRetryPolicy()
	}
	return &Controller{
		limiters: make(map[string]*rate.Limiter),
		minDelay: minDelay,
		policy:   policy,
		sleep:    sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (c *Controller) limiterFor(source string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.limiters[source]
	if !ok {
		every := rate.Inf
		if c.minDelay > 0 {
			every = rate.Every(c.minDelay)
		}
		l = rate.NewLimiter(every, 1)
		c.limiters[source] = l
	}
	return l
}

// Do runs fn under the per-source pacing and retry policy. The returned
// error is fn's final error after retries are exhausted, or the context's
// error if cancelled while waiting.
func (c *Controller) Do(ctx context.Context, source string, fn func(context.Context) error) error {
	transientRetried := false
	for attempt := 1; ; attempt++ {
		if err := c.limiterFor(source).Wait(ctx); err != nil {
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}

		var rl *sources.RateLimitError
		if errors.As(err, &rl) {
			if attempt >= c.policy.MaxAttempts {
				return err
			}
			delay := c.policy.delayFor(attempt)
			if rl.RetryAfter > delay {
				delay = rl.RetryAfter
			}
			log.Printf("[DEBUG] ratelimit: %s throttled, backing off %s (attempt %d/%d)",
				source, delay, attempt, c.policy.MaxAttempts)
			if serr := c.sleep(ctx, delay); serr != nil {
				return serr
			}
			continue
		}

		var se *sources.SourceError
		if errors.As(err, &se) && se.Temporary && !transientRetried {
			transientRetried = true
			log.Printf("[DEBUG] ratelimit: %s transient failure, retrying once: %v", source, err)
			continue
		}

		return err
	}
}
