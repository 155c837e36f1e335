// Package signals drives every traffic light from one shared clock.
package signals

import (
	"math"

	"github.com/pthm-cable/citywalk/config"
	"github.com/pthm-cable/citywalk/walkable"
)

// Group is the traffic flow a signal controls. NS is traffic on the road
// running along z.
type Group = walkable.Axis

const (
	NS = walkable.AxisNS
	EW = walkable.AxisEW
)

// Lamp is the visible state of a signal head.
type Lamp uint8

const (
	Red Lamp = iota
	Yellow
	Green
)

func (l Lamp) String() string {
	switch l {
	case Green:
		return "green"
	case Yellow:
		return "yellow"
	}
	return "red"
}

// Phase is one stage of the fixed cycle.
type Phase uint8

const (
	NSGreen Phase = iota
	NSYellow
	AllRedAfterNS
	EWGreen
	EWYellow
	AllRedAfterEW
	phaseCount
)

func (p Phase) String() string {
	return [...]string{"ns-green", "ns-yellow", "all-red", "ew-green", "ew-yellow", "all-red"}[p]
}

// ID identifies a registered signal.
type ID uint32

// Signal is a signal post. Its lamp is never stored; it is read from the clock.
type Signal struct {
	Group Group
	X, Z  float64
}

// Scheduler owns the cycle clock and the signal registry.
type Scheduler struct {
	durations [phaseCount]float64
	cycle     float64
	t         float64

	signals map[ID]Signal
	nextID  ID
}

// NewScheduler creates a scheduler from phase durations in seconds.
func NewScheduler(green, yellow, allRed float64) *Scheduler {
	s := &Scheduler{signals: make(map[ID]Signal)}
	s.SetDurations(green, yellow, allRed)
	return s
}

// FromConfig creates a scheduler from the signal configuration.
func FromConfig(cfg *config.Config) *Scheduler {
	return NewScheduler(cfg.Signals.Green, cfg.Signals.Yellow, cfg.Signals.AllRed)
}

// SetDurations replaces the phase durations. The clock keeps its position
// modulo the new cycle.
func (s *Scheduler) SetDurations(green, yellow, allRed float64) {
	s.durations = [phaseCount]float64{green, yellow, allRed, green, yellow, allRed}
	s.cycle = 0
	for _, d := range s.durations {
		s.cycle += d
	}
	if s.cycle > 0 {
		s.t = math.Mod(s.t, s.cycle)
	}
}

// Advance moves the clock forward. Negative or non-finite dt is ignored.
func (s *Scheduler) Advance(dt float64) {
	if dt <= 0 || math.IsNaN(dt) || math.IsInf(dt, 0) || s.cycle <= 0 {
		return
	}
	s.t = math.Mod(s.t+dt, s.cycle)
}

// Time returns the clock position within the cycle.
func (s *Scheduler) Time() float64 { return s.t }

// Cycle returns the full cycle length.
func (s *Scheduler) Cycle() float64 { return s.cycle }

// Phase returns the current phase.
func (s *Scheduler) Phase() Phase { return s.PhaseAt(s.t) }

// PhaseAt returns the phase at time t. Times outside the cycle wrap.
func (s *Scheduler) PhaseAt(t float64) Phase {
	if s.cycle <= 0 || math.IsNaN(t) || math.IsInf(t, 0) {
		return AllRedAfterEW
	}
	t = math.Mod(t, s.cycle)
	if t < 0 {
		t += s.cycle
	}
	for p := Phase(0); p < phaseCount; p++ {
		if t < s.durations[p] {
			return p
		}
		t -= s.durations[p]
	}
	return AllRedAfterEW
}

// Lamp returns the lamp shown to a traffic group.
func (s *Scheduler) Lamp(g Group) Lamp { return lampFor(s.Phase(), g) }

func lampFor(p Phase, g Group) Lamp {
	switch {
	case p == NSGreen && g == NS, p == EWGreen && g == EW:
		return Green
	case p == NSYellow && g == NS, p == EWYellow && g == EW:
		return Yellow
	}
	return Red
}

// RightOfWay returns the group allowed to move, or false during all-red.
func (s *Scheduler) RightOfWay() (Group, bool) {
	switch s.Phase() {
	case NSGreen, NSYellow:
		return NS, true
	case EWGreen, EWYellow:
		return EW, true
	}
	return 0, false
}

// CanCrossAxis reports whether pedestrians may cross the given road now.
func (s *Scheduler) CanCrossAxis(axis walkable.Axis) bool {
	return s.CanCrossAxisAt(axis, s.t)
}

// CanCrossAxisAt reports whether pedestrians may cross the given road at time t.
// Crossing a road is legal while its traffic is stopped, starting with the
// all-red clearance that follows its yellow. Exactly one road is crossable
// at any time.
func (s *Scheduler) CanCrossAxisAt(axis walkable.Axis, t float64) bool {
	switch s.PhaseAt(t) {
	case AllRedAfterNS, EWGreen, EWYellow:
		return axis == NS
	default:
		return axis == EW
	}
}

// Register adds a signal and returns its id.
func (s *Scheduler) Register(sig Signal) ID {
	s.nextID++
	s.signals[s.nextID] = sig
	return s.nextID
}

// Unregister removes a signal. Unknown ids are ignored.
func (s *Scheduler) Unregister(id ID) {
	delete(s.signals, id)
}

// Count returns the number of registered signals.
func (s *Scheduler) Count() int { return len(s.signals) }

// SignalLamp returns the lamp of a registered signal.
func (s *Scheduler) SignalLamp(id ID) (Lamp, bool) {
	sig, ok := s.signals[id]
	if !ok {
		return Red, false
	}
	return s.Lamp(sig.Group), true
}

// Signal returns a registered signal.
func (s *Scheduler) Signal(id ID) (Signal, bool) {
	sig, ok := s.signals[id]
	return sig, ok
}
