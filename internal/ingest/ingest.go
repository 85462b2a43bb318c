package ingest

import (
	"context"
	"time"
)

// Backoff grows linearly from min to max by step and snaps back to min on
// Reset.
type Backoff struct {
	min, max, step time.Duration
	cur            time.Duration
}

func NewBackoff(min, max, step time.Duration) *Backoff {
	if min <= 0 {
		min = 10 * time.Millisecond
	}
	if max < min {
		max = min
	}
	if step <= 0 {
		step = min
	}
	return &Backoff{min: min, max: max, step: step, cur: min}
}

func (b *Backoff) Next() time.Duration {
	d := b.cur
	b.cur += b.step
	if b.cur > b.max {
		b.cur = b.max
	}
	return d
}

func (b *Backoff) Reset() {
	b.cur = b.min
}

func BackoffSleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		d = 200 * time.Millisecond
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
