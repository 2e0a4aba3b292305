package meetbot

import (
	"sync"
	"time"
)

// Clock exposes monotonic seconds since the clock was started. Used to
// stamp assistant segments and the gate's clear time.
type Clock interface {
	NowSeconds() float64
}

// realClock is backed by time.Since.
type realClock struct {
	start time.Time
}

// NewClock returns a Clock started now.
func NewClock() Clock {
	return &realClock{start: time.Now()}
}

func (c *realClock) NowSeconds() float64 {
	return time.Since(c.start).Seconds()
}

// FakeClock is a manually-advanced clock for tests.
type FakeClock struct {
	mu  sync.Mutex
	now float64
}

// NewFakeClock returns a FakeClock starting at 0.
func NewFakeClock() *FakeClock {
	return &FakeClock{}
}

func (c *FakeClock) NowSeconds() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the fake clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += d.Seconds()
}

// Set sets the fake clock to an absolute number of seconds.
func (c *FakeClock) Set(seconds float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = seconds
}
