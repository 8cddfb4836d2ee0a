package server

import (
	"math/rand"
	"time"
)

// backoff implements truncated binary exponential backoff with jitter.
// Set min and max before the first call to next.
type backoff struct {
	min     time.Duration
	max     time.Duration
	current time.Duration
}

// next advances the backoff and returns the duration to wait: min first,
// then doubling up to max, plus up to 25 % jitter.
func (b *backoff) next() time.Duration {
	if b.current < b.min {
		b.current = b.min
	} else {
		b.current *= 2
		if b.current > b.max {
			b.current = b.max
		}
	}
	jitter := time.Duration(rand.Int63n(int64(b.current)/4 + 1))
	return b.current + jitter
}

// reset restores the backoff so the next failure starts from min again.
func (b *backoff) reset() {
	b.current = 0
}
