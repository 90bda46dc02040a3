package event

// AppExit asks the event loop to terminate after the current iteration.
type AppExit struct{}

// RequestRedraw asks the loop to forward one redraw request to every live
// window at the next idle point, even under a reactive update mode.
type RequestRedraw struct{}

// LifecyclePhase enumerates the application lifecycle edges the loop reports.
type LifecyclePhase uint8

const (
	// LifecycleStarted fires on the first resume after loop startup.
	LifecycleStarted LifecyclePhase = iota
	LifecycleSuspended
	LifecycleResumed
)

func (p LifecyclePhase) String() string {
	switch p {
	case LifecycleStarted:
		return "started"
	case LifecycleSuspended:
		return "suspended"
	case LifecycleResumed:
		return "resumed"
	}
	return "unknown"
}

// Lifecycle reports an application lifecycle edge.
type Lifecycle struct {
	Phase LifecyclePhase
}
