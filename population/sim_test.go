package population

import (
	"testing"

	"github.com/pthm-cable/citywalk/config"
	"github.com/pthm-cable/citywalk/geom"
	"github.com/pthm-cable/citywalk/prng"
	"github.com/pthm-cable/citywalk/signals"
	"github.com/pthm-cable/citywalk/walkable"
)

// crossingAgent returns an agent just short of the west end of the crosswalk
// over the NS road at z=8, routed across it.
func crossingAgent(obedient bool) (*SimAgent, *signals.Scheduler) {
	cfg := config.Defaults()
	l := walkable.FromConfig(cfg)
	sched := signals.FromConfig(cfg)
	en := &env{layout: l, signals: sched, observer: geom.Vec2{X: -30, Z: 30}}
	a := newSimAgent(en, &cfg.Agents, &cfg.Handoff, NewPlanner(l, cfg.Agents), prng.New(3))
	a.pos = geom.Vec2{X: -8.2, Z: 8}
	a.baseSpeed = 1.2
	a.obedient = obedient
	a.route[0] = geom.Vec2{X: -8, Z: 8}
	a.route[1] = geom.Vec2{X: 0, Z: 8}
	a.route[2] = geom.Vec2{X: 8, Z: 8}
	a.routeLen, a.routeIdx = 3, 0
	return a, sched
}

func TestObedientAgentWaitsForSignal(t *testing.T) {
	a, sched := crossingAgent(true)
	// The cycle starts with NS traffic green.
	if sched.CanCrossAxis(walkable.AxisNS) {
		t.Fatal("NS road should not be crossable at t=0")
	}
	a.Advance(1.0 / 60)
	if a.State() != Wait {
		t.Fatalf("state = %s, want wait", a.State())
	}
	start := a.Position()
	for i := 0; i < 60; i++ {
		a.Advance(1.0 / 60)
	}
	if a.State() != Wait || a.Position().Dist(start) > 1e-9 {
		t.Fatalf("agent moved while the signal was red: state %s", a.State())
	}

	// Green and yellow for NS traffic, then all-red: pedestrians may cross.
	sched.Advance(10.5)
	a.Advance(1.0 / 60)
	if a.State() != Walk {
		t.Fatalf("state = %s, want walk once crossable", a.State())
	}
	for i := 0; i < 60; i++ {
		a.Advance(1.0 / 60)
	}
	if a.Position().X <= start.X {
		t.Errorf("agent did not start crossing: %v", a.Position())
	}
}

func TestDisobedientAgentCrossesOnRed(t *testing.T) {
	a, _ := crossingAgent(false)
	a.Advance(1.0 / 60)
	if a.State() != Walk {
		t.Fatalf("state = %s, want walk", a.State())
	}
	for i := 0; i < 60; i++ {
		a.Advance(1.0 / 60)
	}
	if a.Position().X <= -8 {
		t.Errorf("agent did not step onto the crossing: %v", a.Position())
	}
}

func TestVehicleCausesStumble(t *testing.T) {
	a, _ := crossingAgent(false)
	a.env.vehicle = &Vehicle{
		Pos:    geom.Vec2{X: -8.2, Z: 7},
		Vel:    geom.Vec2{Z: 12},
		Radius: 1,
	}
	a.Advance(1.0 / 60)
	if a.stumbles != 1 || a.stumble <= 0 {
		t.Fatalf("expected a stumble, got %d (timer %v)", a.stumbles, a.stumble)
	}
	if d := a.Position().Dist(a.env.vehicle.Pos); d < a.cfg.Radius+1-1e-9 {
		t.Errorf("agent still overlaps the vehicle: %v", d)
	}
	if !a.env.layout.Legal(a.pos.X, a.pos.Z) {
		t.Errorf("push left walkable space: %v", a.pos)
	}
}

func TestAdvanceIgnoresBadDT(t *testing.T) {
	a, _ := crossingAgent(true)
	before := a.Position()
	a.Advance(-1)
	a.Advance(0)
	if a.Position() != before {
		t.Error("invalid dt moved the agent")
	}
}

func TestIdleAfterRouteEnds(t *testing.T) {
	a, _ := crossingAgent(true)
	a.cfg.IdleChance = 1
	a.routeLen = 1
	a.Advance(1.0 / 60)
	if a.State() != Idle {
		t.Fatalf("state = %s, want idle", a.State())
	}
	for i := 0; i < int(a.cfg.IdleMax*60)+2; i++ {
		a.Advance(1.0 / 60)
	}
	if a.State() == Idle {
		t.Error("agent never left idle")
	}
}
