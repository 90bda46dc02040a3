package platform

import (
	"fmt"

	"github.com/spaghettifunk/finestra/engine/app"
	"github.com/spaghettifunk/finestra/engine/event"
)

// WakeUp is the default wake-proxy payload for applications that only need
// the wake itself.
type WakeUp struct{}

// DefaultPlugin is the plugin instantiated with the unit wake payload.
type DefaultPlugin = Plugin[WakeUp]

// Plugin installs the windowing layer: the backend, the update-policy
// settings, the window store with its maintenance systems, and the event
// loop as the app runner. T is the wake-proxy payload type; payloads are
// forwarded onto the bus as engine events.
type Plugin[T any] struct {
	// Backend overrides the default GLFW backend.
	Backend Backend
	// PrimaryWindow, when set, is spawned during Build.
	PrimaryWindow *Window
	// Settings is the initial update policy; nil means GameSettings.
	// Ignored when SettingsPath is set.
	Settings *Settings
	// SettingsPath loads the update policy from a TOML file.
	SettingsPath string
	// WatchSettings hot-reloads SettingsPath on change.
	WatchSettings bool
	// Filter is the optional wake predicate.
	Filter func(ev Event, mode UpdateMode) bool
	// DisableAutoClose keeps windows alive on a close request, leaving the
	// reaction to application systems.
	DisableAutoClose bool
	// DisableAutoExit keeps the loop running after the last window closes.
	DisableAutoExit bool
}

func (p *Plugin[T]) Name() string { return "platform" }

func (p *Plugin[T]) Build(a *app.App) error {
	backend := p.Backend
	if backend == nil {
		backend = NewGLFWBackend()
	}
	if err := backend.Init(); err != nil {
		return fmt.Errorf("initializing windowing backend: %w", err)
	}

	settings := GameSettings()
	if p.Settings != nil {
		settings = *p.Settings
	}
	var watcher *SettingsWatcher
	if p.SettingsPath != "" {
		if p.WatchSettings {
			w, err := WatchSettings(p.SettingsPath, backend.Wake)
			if err != nil {
				return err
			}
			watcher = w
			settings, _ = watcher.Take()
		} else {
			s, err := LoadSettings(p.SettingsPath)
			if err != nil {
				return err
			}
			settings = s
		}
	}

	store := NewWindowStore()
	a.InsertResource(store)
	a.InsertResource(&settings)
	a.InsertResource(&EventFilter{Filter: p.Filter})
	a.InsertResource(newEventLoop[T](backend, watcher))

	if p.PrimaryWindow != nil {
		store.Spawn(*p.PrimaryWindow)
	}

	if !p.DisableAutoClose {
		a.AddSystems(app.StageUpdate, closeWhenRequested())
	}
	if !p.DisableAutoExit {
		a.AddSystems(app.StagePostUpdate, exitOnAllClosed)
	}
	a.AddSystems(app.StageLast, applyWindowChanges, despawnWindows)

	a.SetRunner(runEventLoop[T])
	return nil
}

// closeWhenRequested despawns any window whose close button was pressed.
func closeWhenRequested() app.System {
	var reader event.Reader[event.WindowCloseRequested]
	return func(a *app.App) {
		store := app.Resource[WindowStore](a)
		if store == nil {
			return
		}
		for _, ev := range event.Read(a.Events(), &reader) {
			store.Despawn(ev.Window)
		}
	}
}

// exitOnAllClosed asks the loop to stop once every window is gone.
func exitOnAllClosed(a *app.App) {
	store := app.Resource[WindowStore](a)
	if store == nil {
		return
	}
	if store.created && store.Count() == 0 {
		app.Emit(a, event.AppExit{})
	}
}

// applyWindowChanges flushes component writes to the OS at the end of the
// frame.
func applyWindowChanges(a *app.App) {
	if store := app.Resource[WindowStore](a); store != nil {
		store.applyChanges()
	}
}

// despawnWindows tears down windows queued for destruction this frame.
func despawnWindows(a *app.App) {
	if store := app.Resource[WindowStore](a); store != nil {
		store.processDespawns(a.Events())
	}
}
