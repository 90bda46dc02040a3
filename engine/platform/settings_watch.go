package platform

import (
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/finestra/engine/core"
)

// SettingsWatcher reloads the update-policy file whenever it changes on
// disk. The loop thread picks the parsed result up with Take once per
// iteration; the watcher goroutine never touches loop state directly.
type SettingsWatcher struct {
	path     string
	fsnotify *fsnotify.Watcher
	done     chan struct{}
	once     sync.Once

	latest atomic.Pointer[Settings]
	wake   func()
}

// WatchSettings parses path once (failing fast on a broken file) and starts
// watching its directory for rewrites. wake, when non-nil, is called after
// every successful reload; pass the backend's Wake so a sleeping loop picks
// the change up.
func WatchSettings(path string, wake func()) (*SettingsWatcher, error) {
	initial, err := LoadSettings(path)
	if err != nil {
		return nil, err
	}

	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory, not the file: editors replace files by rename,
	// which drops a direct file watch.
	if err := fsWatch.Add(filepath.Dir(path)); err != nil {
		fsWatch.Close()
		return nil, err
	}

	w := &SettingsWatcher{
		path:     path,
		fsnotify: fsWatch,
		done:     make(chan struct{}),
		wake:     wake,
	}
	w.latest.Store(&initial)

	go w.start()

	return w, nil
}

func (w *SettingsWatcher) start() {
	for {
		select {
		case e := <-w.fsnotify.Events:
			if filepath.Clean(e.Name) != filepath.Clean(w.path) {
				continue
			}
			if e.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.reload()
			}

		case e := <-w.fsnotify.Errors:
			if e != nil {
				core.LogError("settings watcher: %s", e.Error())
			}

		case <-w.done:
			w.fsnotify.Close()
			return
		}
	}
}

func (w *SettingsWatcher) reload() {
	s, err := LoadSettings(w.path)
	if err != nil {
		// Keep the previous settings; a half-written file shows up as a
		// parse error here.
		core.LogWarn("settings reload skipped: %s", err.Error())
		return
	}
	w.latest.Store(&s)
	core.LogInfo("settings reloaded from %s", w.path)
	if w.wake != nil {
		w.wake()
	}
}

// Take returns the most recent parsed settings not yet consumed, if any.
func (w *SettingsWatcher) Take() (Settings, bool) {
	if p := w.latest.Swap(nil); p != nil {
		return *p, true
	}
	return Settings{}, false
}

// Close stops the watcher goroutine.
func (w *SettingsWatcher) Close() {
	w.once.Do(func() {
		close(w.done)
	})
}
