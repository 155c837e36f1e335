// Package population owns the three pedestrian tiers and the handoff
// protocol that moves identities from the batched Crowd tier into the
// high-fidelity Sim tier.
package population

import (
	"github.com/pthm-cable/citywalk/geom"
	"github.com/pthm-cable/citywalk/signals"
	"github.com/pthm-cable/citywalk/walkable"
)

// Agent is the capability every tier exposes, whatever its storage.
type Agent interface {
	Position() geom.Vec2
	Yaw() float64
	Advance(dt float64)
}

// Promotable is an agent the Sim tier can absorb during handoff.
type Promotable interface {
	Agent
	Speed() float64
	AnimPhase() float64
}

// Tier names a population tier.
type Tier uint8

const (
	TierSim Tier = iota
	TierCrowd
	TierFake
)

func (t Tier) String() string {
	switch t {
	case TierSim:
		return "sim"
	case TierCrowd:
		return "crowd"
	}
	return "fake"
}

// Vehicle is an optional moving obstacle supplied by the host each frame.
type Vehicle struct {
	Pos    geom.Vec2
	Vel    geom.Vec2
	Radius float64
}

// ResolveFunc pushes a circle out of static obstacles and returns the
// corrected centre.
type ResolveFunc func(p geom.Vec2, r float64) geom.Vec2

// Obstacles is the obstacle surface of the tile streamer.
type Obstacles interface {
	ResolveCircle(p geom.Vec2, r float64) geom.Vec2
}

// Input is everything the engine consumes for one frame.
type Input struct {
	Observer geom.Vec2
	DT       float64
	Vehicle  *Vehicle   // Optional
	Resolve  ResolveFunc // Optional, overrides the streamer
}

// env is the per-frame context shared by every Sim agent.
type env struct {
	layout    *walkable.Layout
	signals   *signals.Scheduler
	obstacles Obstacles
	resolve   ResolveFunc
	observer  geom.Vec2
	vehicle   *Vehicle
	tick      uint64
}

func (e *env) resolveCircle(p geom.Vec2, r float64) geom.Vec2 {
	var q geom.Vec2
	switch {
	case e.resolve != nil:
		q = e.resolve(p, r)
	case e.obstacles != nil:
		q = e.obstacles.ResolveCircle(p, r)
	default:
		return p
	}
	if !q.IsFinite() {
		return p
	}
	return q
}

// Census counts agents per tier and lifecycle bucket.
type Census struct {
	Sim         int // Active Sim agents
	SimFadingIn int // Active Sim agents still fading in after a promotion
	Crowd       int // Active or Locked crowd agents
	CrowdFading int // FadingOut or Suppressed crowd slots
	CrowdIdle   int // Dormant crowd slots
	Fake        int // Spawned fake agents
}

// Visible returns the identities on screen: Sim, non-fading Crowd and Fake.
func (c Census) Visible() int { return c.Sim + c.Crowd + c.Fake }

// CrowdSlots returns the number of crowd slots accounted for.
func (c Census) CrowdSlots() int { return c.Crowd + c.CrowdFading + c.CrowdIdle }
