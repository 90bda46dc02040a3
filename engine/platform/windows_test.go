package platform

import (
	"image"
	"strings"
	"testing"

	"github.com/spaghettifunk/finestra/engine/event"
)

func TestStoreCreatePendingSyncsPhysicalState(t *testing.T) {
	backend := newFakeBackend()
	backend.scale = 2
	bus := event.NewBus()
	store := NewWindowStore()

	id := store.Spawn(NewWindow("scaled", 320, 240))
	if store.created {
		t.Fatal("created flag set before createPending")
	}
	if err := store.createPending(backend, bus); err != nil {
		t.Fatalf("createPending: %v", err)
	}

	w := store.Get(id)
	if got := w.Resolution.PhysicalWidth(); got != 640 {
		t.Fatalf("physical width = %d, want 640", got)
	}
	if got := w.Resolution.BackendScaleFactor(); got != 2 {
		t.Fatalf("backend scale = %v, want 2", got)
	}
	// Logical size is unchanged by the scale sync.
	if got := w.Resolution.Width(); got != 320 {
		t.Fatalf("logical width = %v, want 320", got)
	}

	var reader event.Reader[event.WindowCreated]
	created := event.Read(bus, &reader)
	if len(created) != 1 {
		t.Fatalf("got %d WindowCreated events, want 1", len(created))
	}
	if created[0].Window != id || created[0].Tag == "" {
		t.Fatalf("bad WindowCreated event: %+v", created[0])
	}
	if !store.created {
		t.Fatal("created flag should be set")
	}
}

func TestStoreApplyChangesDiffsAgainstCache(t *testing.T) {
	backend := newFakeBackend()
	bus := event.NewBus()
	store := NewWindowStore()

	id := store.Spawn(NewWindow("diff", 320, 240))
	if err := store.createPending(backend, bus); err != nil {
		t.Fatalf("createPending: %v", err)
	}
	native := backend.natives[id]
	native.calls = nil

	w := store.Get(id)
	w.Title = "renamed"
	w.Resolution.SetLogical(800, 450)
	w.Position = At(5, 6)
	w.Visible = false
	store.applyChanges()

	want := []string{"title:renamed", "size:800x450", "pos:5,6", "visible:false"}
	if len(native.calls) != len(want) {
		t.Fatalf("got calls %v, want %v", native.calls, want)
	}
	for i := range want {
		if native.calls[i] != want[i] {
			t.Fatalf("call %d = %q, want %q", i, native.calls[i], want[i])
		}
	}

	// A second pass with no writes is silent.
	native.calls = nil
	store.applyChanges()
	if len(native.calls) != 0 {
		t.Fatalf("unchanged window produced calls %v", native.calls)
	}
}

func TestStoreApplyChangesRevertsRejectedMode(t *testing.T) {
	backend := newFakeBackend()
	backend.rejectModeChange = true
	bus := event.NewBus()
	store := NewWindowStore()

	id := store.Spawn(NewWindow("modal", 320, 240))
	if err := store.createPending(backend, bus); err != nil {
		t.Fatalf("createPending: %v", err)
	}

	w := store.Get(id)
	w.Mode = Fullscreen
	store.applyChanges()

	if w.Mode != Windowed {
		t.Fatalf("mode = %d, want revert to Windowed", w.Mode)
	}
	for _, c := range backend.natives[id].calls {
		if strings.HasPrefix(c, "mode:") {
			t.Fatalf("rejected mode change still recorded: %v", backend.natives[id].calls)
		}
	}
}

func TestStoreDespawnReassignsPrimary(t *testing.T) {
	backend := newFakeBackend()
	bus := event.NewBus()
	store := NewWindowStore()

	first := store.Spawn(NewWindow("first", 100, 100))
	second := store.Spawn(NewWindow("second", 100, 100))
	if err := store.createPending(backend, bus); err != nil {
		t.Fatalf("createPending: %v", err)
	}
	if store.Primary() != first {
		t.Fatalf("primary = %d, want %d", store.Primary(), first)
	}

	store.Despawn(first)
	store.Despawn(first) // queueing twice is harmless
	store.processDespawns(bus)

	if !backend.natives[first].destroyed {
		t.Fatal("first native should be destroyed")
	}
	if store.Count() != 1 {
		t.Fatalf("count = %d, want 1", store.Count())
	}
	if store.Primary() != second {
		t.Fatalf("primary = %d, want %d", store.Primary(), second)
	}

	var reader event.Reader[event.WindowDestroyed]
	destroyed := event.Read(bus, &reader)
	if len(destroyed) != 1 || destroyed[0].Window != first {
		t.Fatalf("got destroyed events %+v, want one for window %d", destroyed, first)
	}
}

func TestStoreSpawnDespawnSameFrame(t *testing.T) {
	backend := newFakeBackend()
	bus := event.NewBus()
	store := NewWindowStore()

	id := store.Spawn(NewWindow("brief", 100, 100))
	store.Despawn(id)
	store.processDespawns(bus)

	if err := store.createPending(backend, bus); err != nil {
		t.Fatalf("createPending: %v", err)
	}
	if len(backend.natives) != 0 {
		t.Fatal("despawned-before-create window should never materialize")
	}

	var reader event.Reader[event.WindowCreated]
	if got := event.Read(bus, &reader); len(got) != 0 {
		t.Fatalf("got %d WindowCreated events, want 0", len(got))
	}
}

func TestStoreSetIconForwards(t *testing.T) {
	backend := newFakeBackend()
	bus := event.NewBus()
	store := NewWindowStore()

	id := store.Spawn(NewWindow("icon", 100, 100))

	// Before creation the call is dropped, not queued.
	store.SetIcon(id, []image.Image{image.NewRGBA(image.Rect(0, 0, 8, 8))})

	if err := store.createPending(backend, bus); err != nil {
		t.Fatalf("createPending: %v", err)
	}
	store.SetIcon(id, []image.Image{
		image.NewRGBA(image.Rect(0, 0, 16, 16)),
		image.NewRGBA(image.Rect(0, 0, 32, 32)),
	})

	native := backend.natives[id]
	found := false
	for _, c := range native.calls {
		if c == "icon:2" {
			found = true
		}
	}
	if !found {
		t.Fatalf("icon call missing from %v", native.calls)
	}
}
