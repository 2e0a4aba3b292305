package meetbot

import (
	"context"
	"sync"
)

// Gate is a level-triggered, pollable boolean signal: the "no_speech_event"
// shared between the transcription controller (owner/writer) and the
// speech controller (reader). Unlike an edge-triggered signal, a consumer
// that calls IsSet observes the current level, not a one-shot event.
type Gate struct {
	mu        sync.Mutex
	set       bool
	waitCh    chan struct{}
	clearedAt float64
}

// NewGate returns a Gate. initiallySet controls its starting level.
func NewGate(initiallySet bool) *Gate {
	g := &Gate{set: initiallySet, waitCh: make(chan struct{})}
	if initiallySet {
		close(g.waitCh)
	}
	return g
}

// Set raises the gate.
func (g *Gate) Set() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.set {
		g.set = true
		close(g.waitCh)
	}
}

// Clear lowers the gate, stamping nowSeconds as the clear time so a later
// barge-in can report its gate-clear-to-interruption latency.
func (g *Gate) Clear(nowSeconds float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.set {
		g.set = false
		g.waitCh = make(chan struct{})
	}
	g.clearedAt = nowSeconds
}

// ClearedAtSeconds returns the clock reading at the most recent Clear call.
func (g *Gate) ClearedAtSeconds() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.clearedAt
}

// IsSet reports the current level.
func (g *Gate) IsSet() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.set
}

// Wait blocks until the gate is set or ctx is done.
func (g *Gate) Wait(ctx context.Context) error {
	g.mu.Lock()
	ch := g.waitCh
	g.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
