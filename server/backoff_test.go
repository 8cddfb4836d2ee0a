package server

import (
	"testing"
	"time"
)

func TestBackoff(t *testing.T) {
	b := backoff{min: 100 * time.Millisecond, max: time.Second}
	bases := []time.Duration{100, 200, 400, 800, 1000, 1000}
	for i, base := range bases {
		base *= time.Millisecond
		d := b.next()
		if d < base || d > base+base/4 {
			t.Errorf("step %d: next() = %v, want in [%v, %v]", i, d, base, base+base/4)
		}
	}
	b.reset()
	if d := b.next(); d > 125*time.Millisecond {
		t.Errorf("after reset: next() = %v", d)
	}
}
