package platform

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// WaitIndefinite is a wait interval long enough to mean "sleep until an
// event arrives".
const WaitIndefinite = time.Duration(math.MaxInt64)

type UpdateKind uint8

const (
	// UpdateContinuous re-runs the frame update as often as possible.
	UpdateContinuous UpdateKind = iota
	// UpdateReactive re-runs the frame update on a timer or in reaction to
	// the event categories enabled in Reactivity.
	UpdateReactive
)

// Reactivity selects which raw event categories wake a reactive loop.
type Reactivity struct {
	WindowEvents bool
	DeviceEvents bool
	UserEvents   bool
}

// UpdateMode describes how often the application should update. Values are
// comparable with ==, which is how the loop detects a policy change.
type UpdateMode struct {
	Kind UpdateKind
	// Wait is the timer interval between updates. Reactive only.
	Wait time.Duration
	// ReactTo gates event-driven wakes. Reactive only.
	ReactTo Reactivity
}

func Continuous() UpdateMode {
	return UpdateMode{Kind: UpdateContinuous}
}

// Reactive updates every wait interval and on any window, device or user
// event.
func Reactive(wait time.Duration) UpdateMode {
	return UpdateMode{
		Kind: UpdateReactive,
		Wait: wait,
		ReactTo: Reactivity{
			WindowEvents: true,
			DeviceEvents: true,
			UserEvents:   true,
		},
	}
}

// ReactiveLowPower is Reactive minus device events, so raw mouse motion
// does not burn battery while unfocused.
func ReactiveLowPower(wait time.Duration) UpdateMode {
	return UpdateMode{
		Kind: UpdateReactive,
		Wait: wait,
		ReactTo: Reactivity{
			WindowEvents: true,
			UserEvents:   true,
		},
	}
}

// Manual updates only on the wait timer and on wake-proxy messages.
func Manual(wait time.Duration) UpdateMode {
	return UpdateMode{
		Kind:    UpdateReactive,
		Wait:    wait,
		ReactTo: Reactivity{UserEvents: true},
	}
}

// Settings is the update-policy resource. Frame updates may replace it at
// any time; the loop re-reads it after every update.
type Settings struct {
	FocusedMode   UpdateMode
	UnfocusedMode UpdateMode
}

// UpdateMode selects the mode for the current focus state. Pure; no
// side effects.
func (s Settings) UpdateMode(focused bool) UpdateMode {
	if focused {
		return s.FocusedMode
	}
	return s.UnfocusedMode
}

// GameSettings updates continuously while focused and at 60Hz while not.
func GameSettings() Settings {
	return Settings{
		FocusedMode:   Continuous(),
		UnfocusedMode: Reactive(time.Second / 60),
	}
}

// DesktopSettings suits tools: updates ride on input events, with a slow
// fallback timer.
func DesktopSettings() Settings {
	return Settings{
		FocusedMode:   Reactive(time.Second),
		UnfocusedMode: ReactiveLowPower(time.Minute),
	}
}

type settingsFile struct {
	Focused   modeSpec `toml:"focused"`
	Unfocused modeSpec `toml:"unfocused"`
}

type modeSpec struct {
	Mode         string `toml:"mode"`
	Wait         string `toml:"wait"`
	WindowEvents *bool  `toml:"window-events"`
	DeviceEvents *bool  `toml:"device-events"`
	UserEvents   *bool  `toml:"user-events"`
}

func (m modeSpec) build(section string) (UpdateMode, error) {
	var mode UpdateMode

	wait := WaitIndefinite
	if m.Wait != "" {
		d, err := time.ParseDuration(m.Wait)
		if err != nil {
			return mode, fmt.Errorf("%s.wait: %w", section, err)
		}
		if d <= 0 {
			return mode, fmt.Errorf("%s.wait: interval must be positive, got %s", section, d)
		}
		wait = d
	}

	switch m.Mode {
	case "continuous":
		mode = Continuous()
	case "reactive":
		mode = Reactive(wait)
	case "reactive-low-power":
		mode = ReactiveLowPower(wait)
	case "manual":
		mode = Manual(wait)
	default:
		return mode, fmt.Errorf("%s.mode: unknown mode %q", section, m.Mode)
	}

	if mode.Kind == UpdateReactive {
		if m.WindowEvents != nil {
			mode.ReactTo.WindowEvents = *m.WindowEvents
		}
		if m.DeviceEvents != nil {
			mode.ReactTo.DeviceEvents = *m.DeviceEvents
		}
		if m.UserEvents != nil {
			mode.ReactTo.UserEvents = *m.UserEvents
		}
	}
	return mode, nil
}

// LoadSettings reads an update-policy TOML file:
//
//	[focused]
//	mode = "continuous"
//
//	[unfocused]
//	mode = "reactive-low-power"
//	wait = "16.6ms"
//
// The per-category booleans window-events, device-events and user-events
// override the chosen reactive preset.
func LoadSettings(path string) (Settings, error) {
	var s Settings

	raw, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("reading settings: %w", err)
	}

	var file settingsFile
	if err := toml.Unmarshal(raw, &file); err != nil {
		return s, fmt.Errorf("parsing settings: %w", err)
	}

	if s.FocusedMode, err = file.Focused.build("focused"); err != nil {
		return s, err
	}
	if s.UnfocusedMode, err = file.Unfocused.build("unfocused"); err != nil {
		return s, err
	}
	return s, nil
}
