package app

import (
	"fmt"
	"reflect"
	"runtime"
	"time"

	"github.com/spaghettifunk/finestra/engine/core"
	"github.com/spaghettifunk/finestra/engine/event"
)

// Stage orders systems within one frame update.
type Stage uint8

const (
	StageFirst Stage = iota
	StagePreUpdate
	StageUpdate
	StagePostUpdate
	StageLast
	stageCount
)

// System is one unit of per-frame work.
type System func(*App)

// PluginsState tracks how far plugin initialization has advanced.
type PluginsState uint8

const (
	// PluginsNotReady means at least one plugin is still running async setup.
	PluginsNotReady PluginsState = iota
	// PluginsReady means every plugin reports ready and finishing can run.
	PluginsReady
	// PluginsCleaned means Finish and Cleanup have run; updates may proceed.
	PluginsCleaned
)

// Plugin installs a slice of engine functionality into the App.
type Plugin interface {
	Name() string
	Build(*App) error
}

// ReadyPlugin is implemented by plugins whose setup completes asynchronously.
// Ready is polled until it reports true.
type ReadyPlugin interface {
	Ready(*App) bool
}

// FinishPlugin runs once after every plugin reports ready.
type FinishPlugin interface {
	Finish(*App) error
}

// CleanupPlugin runs after finishing, before the first frame update.
type CleanupPlugin interface {
	Cleanup(*App) error
}

// App is the engine container: resources keyed by type, the event bus, the
// staged schedule and the plugin set. The platform loop drives it through
// Update; embedders can swap the runner for headless use.
type App struct {
	resources map[reflect.Type]any
	bus       *event.Bus
	systems   [stageCount][]System
	plugins   []Plugin
	cleaned   bool
	jobs      *Jobs
	runner    func(*App) error
}

func New() *App {
	jobs, err := NewJobs(runtime.NumCPU(), 64)
	if err != nil {
		// NumCPU is always >= 1, the queue size is constant
		panic(err)
	}
	a := &App{
		resources: make(map[reflect.Type]any),
		bus:       event.NewBus(),
		jobs:      jobs,
	}
	a.runner = runOnce
	return a
}

// AddPlugin builds the plugin immediately and records it for the readiness
// and finishing phases.
func (a *App) AddPlugin(p Plugin) error {
	if err := p.Build(a); err != nil {
		return fmt.Errorf("building plugin %s: %w", p.Name(), err)
	}
	a.plugins = append(a.plugins, p)
	core.LogDebug("plugin %s installed", p.Name())
	return nil
}

// PluginsState reports the tri-state initialization phase.
func (a *App) PluginsState() PluginsState {
	if a.cleaned {
		return PluginsCleaned
	}
	for _, p := range a.plugins {
		if rp, ok := p.(ReadyPlugin); ok && !rp.Ready(a) {
			return PluginsNotReady
		}
	}
	return PluginsReady
}

// FinishPlugins runs every plugin's Finish hook, then every Cleanup hook,
// and marks initialization complete. Callers must see PluginsReady first.
func (a *App) FinishPlugins() error {
	for _, p := range a.plugins {
		if fp, ok := p.(FinishPlugin); ok {
			if err := fp.Finish(a); err != nil {
				return fmt.Errorf("finishing plugin %s: %w", p.Name(), err)
			}
		}
	}
	for _, p := range a.plugins {
		if cp, ok := p.(CleanupPlugin); ok {
			if err := cp.Cleanup(a); err != nil {
				return fmt.Errorf("cleaning up plugin %s: %w", p.Name(), err)
			}
		}
	}
	a.cleaned = true
	return nil
}

// InsertResource stores one value per concrete type. res must be a pointer;
// inserting a second value of the same type replaces the first.
func (a *App) InsertResource(res any) {
	t := reflect.TypeOf(res)
	if t == nil || t.Kind() != reflect.Ptr {
		panic(fmt.Sprintf("app: InsertResource requires a pointer, got %T", res))
	}
	a.resources[t.Elem()] = res
}

// Resource returns the stored *T, or nil when absent.
func Resource[T any](a *App) *T {
	if res, ok := a.resources[reflect.TypeOf((*T)(nil)).Elem()]; ok {
		return res.(*T)
	}
	return nil
}

// RemoveResource takes the stored *T out of the app and returns it, or nil
// when absent.
func RemoveResource[T any](a *App) *T {
	key := reflect.TypeOf((*T)(nil)).Elem()
	if res, ok := a.resources[key]; ok {
		delete(a.resources, key)
		return res.(*T)
	}
	return nil
}

// Events exposes the bus for readers; prefer Emit for producing.
func (a *App) Events() *event.Bus {
	return a.bus
}

// Emit appends an engine event readable for the next two frames.
func Emit[T any](a *App, ev T) {
	event.Emit(a.bus, ev)
}

func (a *App) AddSystems(stage Stage, systems ...System) {
	if stage >= stageCount {
		panic(fmt.Sprintf("app: unknown stage %d", stage))
	}
	a.systems[stage] = append(a.systems[stage], systems...)
}

// Update runs one frame: bus maintenance, then every stage in order. It is
// synchronous; when it returns, every system has run.
func (a *App) Update() {
	a.bus.Update()
	for stage := StageFirst; stage < stageCount; stage++ {
		for _, sys := range a.systems[stage] {
			sys(a)
		}
	}
}

// SetRunner replaces the loop that drives the app. The platform plugin
// installs the windowed event loop here.
func (a *App) SetRunner(fn func(*App) error) {
	a.runner = fn
}

// Jobs exposes the background worker pool.
func (a *App) Jobs() *Jobs {
	return a.jobs
}

// Run hands control to the installed runner and tears the worker pool down
// when it returns.
func (a *App) Run() error {
	defer a.jobs.Shutdown()
	return a.runner(a)
}

// runOnce is the default headless runner: wait for plugin readiness, finish
// initialization and run a single frame.
func runOnce(a *App) error {
	for a.PluginsState() == PluginsNotReady {
		time.Sleep(time.Millisecond)
	}
	if a.PluginsState() == PluginsReady {
		if err := a.FinishPlugins(); err != nil {
			return err
		}
	}
	a.Update()
	return nil
}
