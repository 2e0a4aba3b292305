package meetbot

import (
	"context"
	"testing"
	"time"
)

func TestGateInitiallySet(t *testing.T) {
	g := NewGate(true)
	if !g.IsSet() {
		t.Fatal("expected gate to start set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := g.Wait(ctx); err != nil {
		t.Fatalf("Wait on already-set gate: %v", err)
	}
}

func TestGateSetClear(t *testing.T) {
	g := NewGate(false)
	if g.IsSet() {
		t.Fatal("expected gate to start clear")
	}

	done := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		done <- g.Wait(ctx)
	}()

	g.Set()
	if err := <-done; err != nil {
		t.Fatalf("Wait after Set: %v", err)
	}
	if !g.IsSet() {
		t.Fatal("expected gate to be set")
	}

	g.Clear(1.5)
	if g.IsSet() {
		t.Fatal("expected gate to be clear after Clear")
	}
	if g.ClearedAtSeconds() != 1.5 {
		t.Fatalf("expected ClearedAtSeconds to report the stamped clear time, got %v", g.ClearedAtSeconds())
	}
}

func TestGateWaitTimesOutWhenClear(t *testing.T) {
	g := NewGate(false)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := g.Wait(ctx); err == nil {
		t.Fatal("expected Wait to time out on a clear gate")
	}
}
