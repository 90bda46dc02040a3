package platform

import (
	"errors"
	"testing"
)

func TestProxySendWakesAndDrains(t *testing.T) {
	wakes := 0
	p := newProxy[string](func() { wakes++ })

	if err := p.Send("first"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := p.Send("second"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if wakes != 2 {
		t.Fatalf("got %d wakes, want 2", wakes)
	}

	evs := p.drain(nil)
	if len(evs) != 2 {
		t.Fatalf("got %d events, want 2", len(evs))
	}
	for i, want := range []string{"first", "second"} {
		ue, ok := evs[i].(UserEvent[string])
		if !ok || ue.Payload != want {
			t.Fatalf("event %d = %#v, want payload %q", i, evs[i], want)
		}
	}

	if evs := p.drain(nil); len(evs) != 0 {
		t.Fatalf("second drain returned %d events", len(evs))
	}
}

func TestProxySendAfterClose(t *testing.T) {
	p := newProxy[int](func() {})
	p.close()
	if err := p.Send(1); !errors.Is(err, ErrLoopClosed) {
		t.Fatalf("got %v, want ErrLoopClosed", err)
	}
}

func TestProxyQueueFull(t *testing.T) {
	wakes := 0
	p := newProxy[int](func() { wakes++ })

	sent := 0
	for {
		if err := p.Send(sent); err != nil {
			if !errors.Is(err, ErrProxyFull) {
				t.Fatalf("got %v, want ErrProxyFull", err)
			}
			break
		}
		sent++
		if sent > 10_000 {
			t.Fatal("queue never filled")
		}
	}
	if sent == 0 {
		t.Fatal("no sends succeeded")
	}
	// The failed send must not wake the loop.
	if wakes != sent {
		t.Fatalf("got %d wakes for %d sends", wakes, sent)
	}

	// Draining frees capacity again.
	p.drain(nil)
	if err := p.Send(0); err != nil {
		t.Fatalf("send after drain: %v", err)
	}
}
