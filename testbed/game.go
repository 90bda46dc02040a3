// Package testbed is a small example application exercising the windowing
// layer: update policies, window state, input translation and the app state
// machine.
package testbed

import (
	"fmt"
	"image"
	"time"

	"github.com/spaghettifunk/finestra/engine/app"
	"github.com/spaghettifunk/finestra/engine/core"
	"github.com/spaghettifunk/finestra/engine/event"
	"github.com/spaghettifunk/finestra/engine/platform"
	"github.com/spaghettifunk/finestra/engine/state"
)

// Phase is the demo's application state.
type Phase uint8

const (
	PhaseBooting Phase = iota
	PhasePlaying
	PhasePaused
)

func (p Phase) String() string {
	switch p {
	case PhaseBooting:
		return "booting"
	case PhasePlaying:
		return "playing"
	case PhasePaused:
		return "paused"
	}
	return "unknown"
}

// Game wires the demo systems into the app.
//
// Keys: ESC quits, 1/2/3 switch the update policy between the game, desktop
// and manual presets, P toggles pause, F toggles fullscreen, SPACE pokes a
// redraw (useful under the manual policy).
type Game struct {
	IconPath string

	baseTitle string
	icons     []image.Image

	keys      event.Reader[event.KeyInput]
	created   event.Reader[event.WindowCreated]
	resized   event.Reader[event.WindowResized]
	dropped   event.Reader[event.FileDropped]
	lifecycle event.Reader[event.Lifecycle]
	wakeups   event.Reader[platform.WakeUp]

	lastTitleRefresh time.Time
}

func New() *Game {
	return &Game{baseTitle: "Finestra Testbed"}
}

func (g *Game) Name() string { return "testbed" }

func (g *Game) Build(a *app.App) error {
	if g.IconPath != "" {
		icons, err := platform.LoadIcon(g.IconPath)
		if err != nil {
			core.LogWarn("testbed icon %s not loaded: %s", g.IconPath, err.Error())
		} else {
			g.icons = icons
		}
	}

	state.Register(a, PhaseBooting)
	state.OnEnter(a, PhasePaused, func(*app.App) {
		core.LogInfo("paused")
	})
	state.OnExit(a, PhasePaused, func(*app.App) {
		core.LogInfo("unpaused")
	})
	state.OnTransition(a, func(_ *app.App, from, to Phase) {
		core.LogDebug("testbed phase %s -> %s", from, to)
	})

	a.AddSystems(app.StageFirst, g.boot)
	a.AddSystems(app.StageUpdate, g.handleInput, g.trackEvents)
	a.AddSystems(app.StagePostUpdate, g.refreshTitle)
	return nil
}

// boot flips the demo into the playing phase once the first window is up.
func (g *Game) boot(a *app.App) {
	store := app.Resource[platform.WindowStore](a)
	for _, ev := range event.Read(a.Events(), &g.created) {
		core.LogInfo("window %d ready (tag %s)", ev.Window, ev.Tag)
		if g.icons != nil {
			store.SetIcon(ev.Window, g.icons)
		}
		if state.Current[Phase](a) == PhaseBooting {
			state.SetNext(a, PhasePlaying)
		}
	}
}

func (g *Game) handleInput(a *app.App) {
	store := app.Resource[platform.WindowStore](a)
	settings := app.Resource[platform.Settings](a)

	for _, k := range event.Read(a.Events(), &g.keys) {
		if k.Action != core.ACTION_PRESS {
			continue
		}
		switch k.Key {
		case core.KEY_ESCAPE:
			app.Emit(a, event.AppExit{})

		case core.KEY_1:
			*settings = platform.GameSettings()
			core.LogInfo("update policy: game (continuous while focused)")
		case core.KEY_2:
			*settings = platform.DesktopSettings()
			core.LogInfo("update policy: desktop (reactive)")
		case core.KEY_3:
			*settings = platform.Settings{
				FocusedMode:   platform.Manual(time.Second),
				UnfocusedMode: platform.Manual(time.Minute),
			}
			core.LogInfo("update policy: manual, SPACE pokes a frame")

		case core.KEY_P:
			g.togglePause(a)

		case core.KEY_F:
			g.toggleFullscreen(store)

		case core.KEY_SPACE:
			app.Emit(a, event.RequestRedraw{})
		}
	}

	// External quit requests arrive through the wake proxy.
	for range event.Read(a.Events(), &g.wakeups) {
		core.LogInfo("quit requested from outside the loop")
		app.Emit(a, event.AppExit{})
	}
}

func (g *Game) togglePause(a *app.App) {
	switch state.Current[Phase](a) {
	case PhasePlaying:
		state.SetNext(a, PhasePaused)
	case PhasePaused:
		state.SetNext(a, PhasePlaying)
	}
}

func (g *Game) toggleFullscreen(store *platform.WindowStore) {
	w := store.Get(store.Primary())
	if w == nil {
		return
	}
	if w.Mode == platform.Windowed {
		w.Mode = platform.BorderlessFullscreen
	} else {
		w.Mode = platform.Windowed
	}
}

func (g *Game) trackEvents(a *app.App) {
	for _, ev := range event.Read(a.Events(), &g.resized) {
		core.LogDebug("window %d resized to %.0fx%.0f", ev.Window, ev.Width, ev.Height)
	}
	for _, ev := range event.Read(a.Events(), &g.dropped) {
		for _, path := range ev.Paths {
			core.LogInfo("file dropped on window %d: %s", ev.Window, path)
		}
	}
	for _, ev := range event.Read(a.Events(), &g.lifecycle) {
		core.LogInfo("lifecycle: %s", ev.Phase)
	}
}

// refreshTitle paints frame statistics into the primary window title about
// once per second. Under a reactive policy the title only moves when frames
// actually run, which makes the current update mode visible at a glance.
func (g *Game) refreshTitle(a *app.App) {
	if time.Since(g.lastTitleRefresh) < time.Second {
		return
	}
	g.lastTitleRefresh = time.Now()

	store := app.Resource[platform.WindowStore](a)
	w := store.Get(store.Primary())
	if w == nil {
		return
	}
	fps, frameTime := core.MetricsFrame()
	w.Title = fmt.Sprintf("%s | %.0f fps (%.2f ms) | %s",
		g.baseTitle, fps, frameTime, state.Current[Phase](a))
}
