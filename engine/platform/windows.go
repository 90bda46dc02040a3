package platform

import (
	"fmt"
	"image"
	"math"

	"github.com/google/uuid"
	"github.com/spaghettifunk/finestra/engine/core"
	"github.com/spaghettifunk/finestra/engine/event"
)

type windowEntry struct {
	id     WindowID
	window *Window
	// cached mirrors the state last applied to the native window; the
	// per-frame diff against it turns component writes into OS calls.
	cached Window
	native NativeWindow
	tag    string
}

// WindowStore owns every window component plus its native handle. Spawning
// and despawning are deferred: the loop materializes pending windows before
// processing events and tears despawned ones down at the end of the frame.
type WindowStore struct {
	nextID  WindowID
	windows map[WindowID]*windowEntry
	order   []WindowID
	pending []WindowID
	despawn []WindowID
	primary WindowID
	created bool
}

func NewWindowStore() *WindowStore {
	return &WindowStore{
		nextID:  1,
		windows: make(map[WindowID]*windowEntry),
	}
}

// Spawn queues a window for creation and returns its id. The first spawned
// window becomes the primary window.
func (s *WindowStore) Spawn(w Window) WindowID {
	id := s.nextID
	s.nextID++

	s.windows[id] = &windowEntry{id: id, window: &w}
	s.order = append(s.order, id)
	s.pending = append(s.pending, id)
	if s.primary == 0 {
		s.primary = id
	}
	return id
}

// Despawn queues a window for destruction at the end of the frame.
func (s *WindowStore) Despawn(id WindowID) {
	if _, ok := s.windows[id]; !ok {
		return
	}
	for _, queued := range s.despawn {
		if queued == id {
			return
		}
	}
	s.despawn = append(s.despawn, id)
}

// Get returns the mutable window component, or nil for an unknown id.
func (s *WindowStore) Get(id WindowID) *Window {
	if e, ok := s.windows[id]; ok {
		return e.window
	}
	return nil
}

// Primary returns the id of the first spawned window, or 0 when none.
func (s *WindowStore) Primary() WindowID {
	return s.primary
}

// Count reports how many windows exist, including not-yet-created ones.
func (s *WindowStore) Count() int {
	return len(s.windows)
}

// Each visits every window in creation order.
func (s *WindowStore) Each(fn func(id WindowID, w *Window)) {
	for _, id := range s.order {
		fn(id, s.windows[id].window)
	}
}

// Focus asks the OS to focus the window.
func (s *WindowStore) Focus(id WindowID) {
	if e, ok := s.windows[id]; ok && e.native != nil {
		e.native.Focus()
	}
}

// SetIcon hands icon variants to the window system. No-op until the native
// window exists.
func (s *WindowStore) SetIcon(id WindowID, images []image.Image) {
	if e, ok := s.windows[id]; ok && e.native != nil {
		e.native.SetIcon(images)
	}
}

func (s *WindowStore) entry(id WindowID) *windowEntry {
	return s.windows[id]
}

func (s *WindowStore) anyFocused() bool {
	for _, e := range s.windows {
		if e.window.Focused {
			return true
		}
	}
	return false
}

func (s *WindowStore) eachNative(fn func(NativeWindow)) {
	for _, id := range s.order {
		if e := s.windows[id]; e.native != nil {
			fn(e.native)
		}
	}
}

// createPending materializes queued windows through the backend. Creation
// failures are fatal to the loop.
func (s *WindowStore) createPending(b Backend, bus *event.Bus) error {
	if len(s.pending) == 0 {
		return nil
	}
	queue := s.pending
	s.pending = nil

	for _, id := range queue {
		e, ok := s.windows[id]
		if !ok {
			// Spawned and despawned within the same frame.
			continue
		}
		native, err := b.CreateWindow(id, e.window)
		if err != nil {
			return fmt.Errorf("creating window %d (%s): %w", id, e.window.Title, err)
		}
		e.native = native

		pw, ph := native.PhysicalSize()
		e.window.Resolution.setPhysical(pw, ph)
		e.window.Resolution.setBackendScaleFactor(native.ScaleFactor())
		e.cached = *e.window
		e.tag = uuid.New().String()
		s.created = true

		core.LogInfo("window %d created: %q %dx%d (tag %s)",
			id, e.window.Title, pw, ph, e.tag)
		event.Emit(bus, event.WindowCreated{Window: id, Tag: e.tag})
	}
	return nil
}

// applyChanges pushes component writes made during the frame out to the
// native windows, then refreshes the cached snapshots.
func (s *WindowStore) applyChanges() {
	for _, id := range s.order {
		e := s.windows[id]
		if e.native == nil {
			continue
		}
		w, c := e.window, &e.cached

		if w.Title != c.Title {
			e.native.SetTitle(w.Title)
		}
		if w.Mode != c.Mode {
			if err := e.native.SetMode(w.Mode); err != nil {
				core.LogWarn("window %d: mode change rejected: %s", id, err.Error())
				w.Mode = c.Mode
			}
		}
		if w.Resolution.Width() != c.Resolution.Width() ||
			w.Resolution.Height() != c.Resolution.Height() {
			e.native.SetSize(
				int(math.Round(float64(w.Resolution.Width()))),
				int(math.Round(float64(w.Resolution.Height()))),
			)
		}
		if w.Position != c.Position && w.Position.Kind == PositionAt {
			e.native.SetPosition(w.Position.X, w.Position.Y)
		}
		if w.ResizeConstraints != c.ResizeConstraints {
			cc := w.ResizeConstraints.check()
			e.native.SetSizeLimits(
				int(cc.MinWidth), int(cc.MinHeight),
				sizeLimit(cc.MaxWidth), sizeLimit(cc.MaxHeight),
			)
		}
		if w.Visible != c.Visible {
			e.native.SetVisible(w.Visible)
		}
		if w.Resizable != c.Resizable {
			e.native.SetResizable(w.Resizable)
		}
		if w.Decorated != c.Decorated {
			e.native.SetDecorated(w.Decorated)
		}
		if w.AlwaysOnTop != c.AlwaysOnTop {
			e.native.SetAlwaysOnTop(w.AlwaysOnTop)
		}
		if w.CursorMode != c.CursorMode {
			e.native.SetCursorMode(w.CursorMode)
		}

		e.cached = *w
	}
}

// sizeLimit converts an unbounded constraint into the backend's "don't
// care" value.
func sizeLimit(v float32) int {
	if math.IsInf(float64(v), 1) {
		return -1
	}
	return int(v)
}

// processDespawns destroys queued windows and reports them on the bus.
func (s *WindowStore) processDespawns(bus *event.Bus) {
	if len(s.despawn) == 0 {
		return
	}
	queue := s.despawn
	s.despawn = nil

	for _, id := range queue {
		e, ok := s.windows[id]
		if !ok {
			continue
		}
		if e.native != nil {
			e.native.Destroy()
		}
		delete(s.windows, id)
		for i, ordered := range s.order {
			if ordered == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
		if s.primary == id {
			s.primary = 0
			if len(s.order) > 0 {
				s.primary = s.order[0]
			}
		}
		core.LogInfo("window %d destroyed", id)
		event.Emit(bus, event.WindowDestroyed{Window: id})
	}
}

// destroyAll tears down every remaining window at loop shutdown.
func (s *WindowStore) destroyAll() {
	for _, id := range s.order {
		if e := s.windows[id]; e.native != nil {
			e.native.Destroy()
			e.native = nil
		}
	}
}
