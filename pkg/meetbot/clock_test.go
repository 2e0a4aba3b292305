package meetbot

import (
	"testing"
	"time"
)

func TestFakeClockAdvanceAndSet(t *testing.T) {
	c := NewFakeClock()
	if c.NowSeconds() != 0 {
		t.Fatalf("expected fake clock to start at 0, got %f", c.NowSeconds())
	}

	c.Advance(500 * time.Millisecond)
	if c.NowSeconds() != 0.5 {
		t.Fatalf("expected 0.5 after advancing 500ms, got %f", c.NowSeconds())
	}

	c.Set(10)
	if c.NowSeconds() != 10 {
		t.Fatalf("expected 10 after Set, got %f", c.NowSeconds())
	}
}

func TestRealClockMonotonic(t *testing.T) {
	c := NewClock()
	first := c.NowSeconds()
	time.Sleep(5 * time.Millisecond)
	second := c.NowSeconds()
	if second <= first {
		t.Fatalf("expected real clock to advance: first=%f second=%f", first, second)
	}
}
