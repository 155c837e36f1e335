package components

// LifecycleState is the slot state of a batched agent.
type LifecycleState uint8

const (
	Dormant    LifecycleState = iota // Never spawned
	Active                           // Walking, free to recycle
	Locked                           // Handoff candidate, recycling blocked
	FadingOut                        // Promoted, crowd copy fading
	Suppressed                       // Hidden, waiting to recycle
)

// String returns the display name for a LifecycleState.
func (s LifecycleState) String() string {
	names := LifecycleStateNames()
	if int(s) < len(names) {
		return names[s]
	}
	return "Unknown"
}

// LifecycleStateNames returns the display names for all lifecycle states.
// The order matches the LifecycleState constants.
func LifecycleStateNames() []string {
	return []string{"Dormant", "Active", "Locked", "FadingOut", "Suppressed"}
}

// LifecycleStateCount returns the number of lifecycle states.
func LifecycleStateCount() int {
	return len(LifecycleStateNames())
}

// LifecycleEvent drives a lifecycle transition.
type LifecycleEvent uint8

const (
	EventSpawn   LifecycleEvent = iota // First placement of a dormant slot
	EventLock                          // Marked as handoff candidate
	EventExpire                        // Timer ran out
	EventPromote                       // Identity handed to the Sim tier
	EventRecycle                       // Teleported to a new position
	EventRetire                        // Withdrawn without promotion: fade, then park or recycle
)

func (e LifecycleEvent) String() string {
	return [...]string{"Spawn", "Lock", "Expire", "Promote", "Recycle", "Retire"}[e]
}

// transitions lists every legal (state, event) pair. Anything else is rejected.
var transitions = map[LifecycleState]map[LifecycleEvent]LifecycleState{
	Dormant: {
		EventSpawn: Active,
	},
	Active: {
		EventLock:    Locked,
		EventPromote: FadingOut,
		EventRecycle: Active,
		EventRetire:  FadingOut,
	},
	Locked: {
		EventLock:    Locked,
		EventExpire:  Active,
		EventPromote: FadingOut,
	},
	FadingOut: {
		EventExpire: Suppressed,
	},
	Suppressed: {
		EventRecycle: Active,
		EventRetire:  Dormant,
	},
}

// NextState returns the state reached from s on event e, and false if the
// transition is not allowed.
func NextState(s LifecycleState, e LifecycleEvent) (LifecycleState, bool) {
	next, ok := transitions[s][e]
	if !ok {
		return s, false
	}
	return next, true
}

// Lifecycle is the single state machine of a batched agent slot.
type Lifecycle struct {
	State   LifecycleState
	Timer   float64 // Countdown for Locked, FadingOut and Suppressed
	Opacity float64 // Visible opacity, 0..1
	Fade    float64 // Opacity at the moment fade-out began
}

// Apply performs a transition and sets the timer for the new state.
// Returns false, leaving the component untouched, if the transition is illegal.
func (l *Lifecycle) Apply(e LifecycleEvent, timer float64) bool {
	next, ok := NextState(l.State, e)
	if !ok {
		return false
	}
	switch next {
	case Dormant:
		l.Timer = 0
		l.Opacity = 0
	case Active:
		l.Timer = 0
		if e == EventSpawn || e == EventRecycle {
			l.Opacity = 0
		}
	case FadingOut:
		l.Fade = l.Opacity
		l.Timer = timer
	case Suppressed:
		l.Opacity = 0
		l.Timer = timer
	default:
		l.Timer = timer
	}
	l.State = next
	return true
}

// Visible reports whether the slot contributes to the rendered crowd.
func (l *Lifecycle) Visible() bool {
	return (l.State == Active || l.State == Locked || l.State == FadingOut) && l.Opacity > 0
}
