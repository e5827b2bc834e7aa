// Package ratelimit admits or rejects requests per API key over a fixed
// window that opens on the first request after the previous one closed.
package ratelimit

import (
	"context"
	"math"
	"time"
)

const DefaultWindow = time.Minute

// Decision is the outcome of one admission. RetryAfter is only meaningful
// when Allowed is false.
type Decision struct {
	Allowed    bool
	Count      int
	Limit      int
	RetryAfter time.Duration
}

// Remaining is how many more requests fit in the current window.
func (d Decision) Remaining() int {
	if d.Limit <= 0 {
		return 0
	}
	return max(d.Limit-d.Count, 0)
}

// RetryAfterSeconds rounds RetryAfter up to whole seconds, never below one.
func (d Decision) RetryAfterSeconds() int {
	s := int(math.Ceil(d.RetryAfter.Seconds()))
	return max(s, 1)
}

// Limiter counts a request against keyID and compares the count with limit
// as one indivisible step. A limit of zero or less means no limit.
type Limiter interface {
	Admit(ctx context.Context, keyID string, limit int) (Decision, error)
}
