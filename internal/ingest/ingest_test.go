package ingest

import (
	"context"
	"testing"
	"time"
)

func TestBackoffLinearWithCeiling(t *testing.T) {
	b := NewBackoff(time.Millisecond, 3*time.Millisecond, time.Millisecond)
	want := []time.Duration{1, 2, 3, 3}
	for i, w := range want {
		if got := b.Next(); got != w*time.Millisecond {
			t.Fatalf("step %d: got %s want %s", i, got, w*time.Millisecond)
		}
	}
	b.Reset()
	if got := b.Next(); got != time.Millisecond {
		t.Fatalf("reset should return to min, got %s", got)
	}
}

func TestBackoffSleepCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if BackoffSleep(ctx, time.Hour) {
		t.Fatalf("expected cancelled sleep to return false")
	}
}
