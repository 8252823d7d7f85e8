package httpx

import (
	"math"
	"math/rand"
	"time"
)

// Backoff implements exponential backoff with optional jitter.
type Backoff struct {
	BaseDelay time.Duration
	MaxDelay  time.Duration
	Jitter    float64
}

// NewBackoff returns a Backoff initialized with the supplied parameters.
func NewBackoff(base, max time.Duration, jitter float64) Backoff {
	if base <= 0 {
		base = 50 * time.Millisecond
	}
	if max <= 0 {
		max = time.Second
	}
	if max < base {
		max = base
	}
	return Backoff{
		BaseDelay: base,
		MaxDelay:  max,
		Jitter:    math.Max(0, math.Min(jitter, 1)),
	}
}

// ForAttempt returns the backoff duration for the given attempt (0-indexed).
func (b Backoff) ForAttempt(attempt int) time.Duration {
	delay := b.BaseDelay
	if attempt > 0 {
		if attempt > 30 {
			attempt = 30
		}
		delay = b.BaseDelay << uint(attempt)
	}
	if delay <= 0 || delay > b.MaxDelay {
		delay = b.MaxDelay
	}
	if b.Jitter == 0 {
		return delay
	}
	factor := 1 + (rand.Float64()*2-1)*b.Jitter
	return time.Duration(float64(delay) * factor)
}
