package meetbot

import (
	"sync"
	"testing"
	"time"
)

func TestEventBusPublishDeliversToSubscriber(t *testing.T) {
	bus := NewEventBus(nil)

	var mu sync.Mutex
	var got []TranscriptSegment
	done := make(chan struct{}, 1)

	bus.Subscribe(EventSegment, func(ev Event) {
		mu.Lock()
		got = append(got, ev.Segment)
		mu.Unlock()
		done <- struct{}{}
	})

	seg := TranscriptSegment{Text: "hello", Role: RoleParticipant}
	bus.Publish(Event{Type: EventSegment, Segment: seg})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler was not called")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0].Text != "hello" {
		t.Fatalf("expected one delivered segment with text 'hello', got %+v", got)
	}
}

func TestEventBusUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewEventBus(nil)
	calls := make(chan struct{}, 2)
	unsub := bus.Subscribe(EventUtterance, func(Event) { calls <- struct{}{} })

	bus.Publish(Event{Type: EventUtterance})
	select {
	case <-calls:
	case <-time.After(time.Second):
		t.Fatal("expected first publish to be delivered")
	}

	unsub()
	bus.Publish(Event{Type: EventUtterance})
	select {
	case <-calls:
		t.Fatal("handler was called after unsubscribe")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEventBusRecoversHandlerPanic(t *testing.T) {
	bus := NewEventBus(nil)
	done := make(chan struct{}, 1)

	bus.Subscribe(EventSegment, func(Event) {
		defer func() { done <- struct{}{} }()
		panic("boom")
	})

	bus.Publish(Event{Type: EventSegment})
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("panicking handler did not run to completion")
	}
}
