package marketdata

import (
	"testing"
	"time"
)

func TestRetryDelayDoublesAndCaps(t *testing.T) {
	want := []time.Duration{
		50 * time.Millisecond,
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
	}
	for i, w := range want {
		if got := retryDelay(i + 1); got != w {
			t.Fatalf("attempt %d: delay %v, want %v", i+1, got, w)
		}
	}
	if got := retryDelay(20); got != 5*time.Second {
		t.Fatalf("delay must cap at 5s, got %v", got)
	}
}
