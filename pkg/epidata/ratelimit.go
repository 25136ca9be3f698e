package epidata

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/juju/ratelimit"
)

// RateLimitedTransport spaces requests with a token bucket before handing
// them to the wrapped Transport. Waiting honors ctx cancellation.
type RateLimitedTransport struct {
	next   Transport
	bucket *ratelimit.Bucket
}

// NewRateLimitedTransport allows rate requests per second with bursts of up
// to capacity. A capacity below 1 is raised to 1.
func NewRateLimitedTransport(next Transport, rate float64, capacity int64) *RateLimitedTransport {
	if capacity < 1 {
		capacity = 1
	}
	return &RateLimitedTransport{
		next:   next,
		bucket: ratelimit.NewBucketWithRate(rate, capacity),
	}
}

// Get waits for a token, then delegates.
func (t *RateLimitedTransport) Get(ctx context.Context, endpoint string, query url.Values) (*Envelope, error) {
	if wait := t.bucket.Take(1); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: rate limit wait: %w", ErrTransport, ctx.Err())
		case <-timer.C:
		}
	}
	return t.next.Get(ctx, endpoint, query)
}

// Available returns the number of tokens currently in the bucket.
func (t *RateLimitedTransport) Available() int64 {
	return t.bucket.Available()
}
