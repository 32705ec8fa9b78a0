package bus

import (
	"errors"
	"testing"
)

func TestPublishSubscribe(t *testing.T) {
	b := New()
	got := 0
	sub := b.Subscribe("detection", func(e Event) error {
		got++
		if e.Source != "eyes" {
			t.Fatalf("source = %q, want eyes", e.Source)
		}
		return nil
	})
	if sub.EventType() != "detection" {
		t.Fatalf("event type = %q", sub.EventType())
	}

	if err := b.Publish(NewEvent("detection", "eyes", nil)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if got != 1 {
		t.Fatalf("handler called %d times, want 1", got)
	}

	// Unrelated event types are not delivered.
	if err := b.Publish(NewEvent("other", "eyes", nil)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if got != 1 {
		t.Fatalf("handler called %d times after unrelated publish", got)
	}
}

func TestCancelStopsDelivery(t *testing.T) {
	b := New()
	got := 0
	sub := b.Subscribe("ev", func(e Event) error { got++; return nil })

	sub.Cancel()
	sub.Cancel() // repeated cancel is safe

	_ = b.Publish(NewEvent("ev", "src", nil))
	if got != 0 {
		t.Fatalf("cancelled handler still called")
	}
	if n := b.SubscriberCount("ev"); n != 0 {
		t.Fatalf("subscriber count = %d, want 0", n)
	}
}

func TestHandlerErrorsDoNotStopDelivery(t *testing.T) {
	b := New()
	fail := errors.New("boom")
	delivered := 0
	b.Subscribe("ev", func(e Event) error { return fail })
	b.Subscribe("ev", func(e Event) error { delivered++; return nil })

	err := b.Publish(NewEvent("ev", "src", nil))
	if !errors.Is(err, fail) {
		t.Fatalf("expected handler error, got %v", err)
	}
	if delivered != 1 {
		t.Fatalf("second handler not called despite first failing")
	}
}
