package population

import (
	"math"
	"testing"

	"github.com/pthm-cable/citywalk/components"
	"github.com/pthm-cable/citywalk/config"
	"github.com/pthm-cable/citywalk/geom"
	"github.com/pthm-cable/citywalk/signals"
	"github.com/pthm-cable/citywalk/walkable"
)

func newTestEngine(t *testing.T, mutate func(*config.Config)) *Engine {
	t.Helper()
	cfg := config.Defaults()
	if mutate != nil {
		mutate(cfg)
	}
	e, err := New(cfg, walkable.FromConfig(cfg), signals.FromConfig(cfg), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

// prime places the Sim tier around obs without running a frame.
func prime(e *Engine, obs geom.Vec2) {
	e.env.observer = obs
	e.start()
}

// spawnCrowdAt puts a dormant crowd slot at p, fully visible.
func spawnCrowdAt(e *Engine, slot int, p geom.Vec2) {
	e.crowd.place(slot, p, e.rng)
	life := e.crowd.life(slot)
	life.Apply(components.EventSpawn, 0)
	life.Opacity = 1
}

func TestPromotionBudget(t *testing.T) {
	h := config.Defaults().Handoff // 1..6 per tick, max at 15 u/s
	tests := []struct {
		name  string
		speed float64
		want  int
	}{
		{"standing", 0, 1},
		{"half speed", 7.5, 4},
		{"max speed", 15, 6},
		{"beyond max", 120, 6},
		{"negative", -4, 1},
		{"nan", math.NaN(), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PromotionBudget(&h, tt.speed); got != tt.want {
				t.Errorf("PromotionBudget(%v) = %d, want %d", tt.speed, got, tt.want)
			}
		})
	}
}

// TestForcedBeforeBudget verifies agents inside the force radius convert even
// with a zero budget.
func TestForcedBeforeBudget(t *testing.T) {
	e := newTestEngine(t, func(c *config.Config) {
		c.Population.Crowd.Capacity = 3
		c.Handoff.MinPerTick, c.Handoff.MaxPerTick = 0, 0
	})
	obs := geom.Vec2{X: 8, Z: 20}
	prime(e, obs)
	spawnCrowdAt(e, 0, geom.Vec2{X: 8, Z: 24})
	spawnCrowdAt(e, 1, geom.Vec2{X: 8, Z: 26})
	spawnCrowdAt(e, 2, geom.Vec2{X: 9, Z: 22})

	res := e.runHandoff()
	if res.Budget != 0 {
		t.Fatalf("budget = %d, want 0", res.Budget)
	}
	if res.Forced != 3 || res.Promoted != 3 {
		t.Fatalf("forced %d promoted %d, want 3 and 3", res.Forced, res.Promoted)
	}
	for slot := 0; slot < 3; slot++ {
		if s := e.crowd.life(slot).State; s != components.FadingOut {
			t.Errorf("slot %d state = %s, want fading_out", slot, s)
		}
	}
	victims := 0
	for _, a := range e.Sims() {
		if a.promotedTick == e.env.tick {
			victims++
		}
	}
	if victims != 3 {
		t.Errorf("%d distinct victims, want 3", victims)
	}
}

func TestForcedLimitedByVictims(t *testing.T) {
	e := newTestEngine(t, func(c *config.Config) {
		c.Population.Sim.Capacity = 2
		c.Population.Crowd.Capacity = 3
	})
	obs := geom.Vec2{X: 8, Z: 20}
	prime(e, obs)
	spawnCrowdAt(e, 0, geom.Vec2{X: 8, Z: 24})
	spawnCrowdAt(e, 1, geom.Vec2{X: 8, Z: 26})
	spawnCrowdAt(e, 2, geom.Vec2{X: 9, Z: 22})

	res := e.runHandoff()
	if res.Forced != 2 {
		t.Errorf("forced = %d, want 2", res.Forced)
	}
	if got := e.Census().Sim; got != 2 {
		t.Errorf("sim census = %d, want 2", got)
	}
}

// TestVictimSkipsFadingIn checks the farthest settled Sim agent is recycled
// before a farther one still fading in, with the farthest as fallback.
func TestVictimSkipsFadingIn(t *testing.T) {
	e := newTestEngine(t, func(c *config.Config) {
		c.Population.Sim.Capacity = 3
	})
	obs := geom.Vec2{X: 8, Z: 20}
	prime(e, obs)
	sims := e.Sims()
	if got := e.Census().SimFadingIn; got != len(sims) {
		t.Fatalf("fading in after start = %d, want %d", got, len(sims))
	}
	for i, a := range sims {
		a.pos = geom.Vec2{X: 8, Z: 40 - 10*float64(i)}
		a.fadeT = a.fadeDur
	}
	sims[0].fadeT = 0
	e.env.tick++ // a fresh handoff tick; nobody was promoted in it

	if v := e.pickVictim(); v != sims[1] {
		t.Errorf("victim %p, want the farthest settled agent %p", v, sims[1])
	}
	if got := e.Census().SimFadingIn; got != 1 {
		t.Errorf("fading in = %d, want 1", got)
	}

	for _, a := range sims {
		a.fadeT = 0
	}
	if v := e.pickVictim(); v != sims[0] {
		t.Errorf("fallback victim %p, want the farthest %p", v, sims[0])
	}
}

// TestCandidatePrefersRoadCorridor checks the first pass picks an agent near
// the road over a nearer one deeper in the sidewalk.
func TestCandidatePrefersRoadCorridor(t *testing.T) {
	e := newTestEngine(t, func(c *config.Config) {
		c.Population.Crowd.Capacity = 2
		c.Handoff.MinPerTick, c.Handoff.MaxPerTick = 1, 1
		c.Handoff.ForceRadius = 0
	})
	obs := geom.Vec2{X: 8, Z: 20}
	prime(e, obs)
	for _, a := range e.Sims() {
		a.pos = geom.Vec2{X: 68, Z: 200}
	}
	inner := geom.Vec2{X: 8, Z: 30}     // 2 from the road edge
	corridor := geom.Vec2{X: 6.5, Z: 35} // 0.5 from the road edge
	spawnCrowdAt(e, 0, inner)
	spawnCrowdAt(e, 1, corridor)

	res := e.runHandoff()
	if res.Promoted != 1 {
		t.Fatalf("promoted = %d, want 1", res.Promoted)
	}
	if s := e.crowd.life(1).State; s != components.FadingOut {
		t.Errorf("corridor agent state = %s, want fading_out", s)
	}
	if s := e.crowd.life(0).State; s != components.Locked {
		t.Errorf("inner agent state = %s, want locked", s)
	}
}

// TestBoundaryPromotion walks a crowd agent inward from exactly the Sim
// radius and expects it promoted within one handoff period, including when
// its lock expires between handoff ticks.
func TestBoundaryPromotion(t *testing.T) {
	tests := []struct {
		name     string
		hz       float64
		lockTime float64
	}{
		{"defaults", 4, 1.0},
		{"lock shorter than handoff period", 0.5, 0.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t, func(c *config.Config) {
				c.Population.Sim.Capacity = 4
				c.Population.Crowd.Capacity = 1
				c.Handoff.Hz = tt.hz
				c.Handoff.LockTime = tt.lockTime
			})
			obs := geom.Vec2{X: 8, Z: 20}
			start := geom.Vec2{X: 8, Z: 20 + e.cfg.Population.Sim.Radius}
			spawnCrowdAt(e, 0, start)
			mot := e.crowd.motion(0)
			mot.Yaw, mot.Speed = math.Pi, 1.6

			const dt = 1.0 / 60
			limit := math.Ceil(1/tt.hz) + dt
			promoted := false
			for elapsed := 0.0; elapsed < limit; elapsed += dt {
				e.Update(Input{Observer: obs, DT: dt})
				if e.Counters().Promotions > 0 {
					promoted = true
					break
				}
			}
			if !promoted {
				t.Fatalf("not promoted within %.2fs; crowd slot state=%s dist=%.3f",
					limit, e.crowd.life(0).State, e.crowd.position(0).Dist(obs))
			}
			switch s := e.crowd.life(0).State; s {
			case components.FadingOut, components.Suppressed:
			default:
				t.Errorf("promoted slot state = %s", s)
			}
		})
	}
}

// TestCrowdInsideSimRingLocked checks the crowd tick holds an in-ring agent
// for the handoff, and retires it only when handoff is disabled.
func TestCrowdInsideSimRingLocked(t *testing.T) {
	e := newTestEngine(t, func(c *config.Config) {
		c.Population.Crowd.Capacity = 1
	})
	obs := geom.Vec2{X: 8, Z: 20}
	prime(e, obs)
	spawnCrowdAt(e, 0, geom.Vec2{X: 8, Z: 30})
	e.crowd.motion(0).Speed = 0

	e.updateCrowd(e.cfg.Derived.CrowdInterval)
	if s := e.crowd.life(0).State; s != components.Locked {
		t.Fatalf("state = %s, want locked", s)
	}

	e.SetHandoffHz(0)
	e.crowd.life(0).Apply(components.EventExpire, 0)
	e.updateCrowd(e.cfg.Derived.CrowdInterval)
	if s := e.crowd.life(0).State; s != components.FadingOut {
		t.Errorf("state with handoff disabled = %s, want fading_out", s)
	}
}

func TestPromotionTransfersIdentity(t *testing.T) {
	e := newTestEngine(t, func(c *config.Config) {
		c.Population.Crowd.Capacity = 1
	})
	obs := geom.Vec2{X: 8, Z: 20}
	prime(e, obs)
	src := geom.Vec2{X: 8, Z: 25}
	spawnCrowdAt(e, 0, src)
	mot := e.crowd.motion(0)
	mot.Yaw, mot.Speed = 0, 1.3
	e.crowd.anim(0).Phase = 1.25

	e.runHandoff()
	var victim *SimAgent
	for _, a := range e.Sims() {
		if a.promotedTick == e.env.tick {
			victim = a
		}
	}
	if victim == nil {
		t.Fatal("no victim promoted")
	}
	if victim.Yaw() != 0 || victim.AnimPhase() != 1.25 {
		t.Errorf("yaw %v phase %v not inherited", victim.Yaw(), victim.AnimPhase())
	}
	if victim.baseSpeed != 1.3 {
		t.Errorf("speed = %v, want 1.3", victim.baseSpeed)
	}
	h := e.cfg.Handoff
	if d := victim.Position().Dist(src); d > h.BackOffset+h.LateralJitter+1e-6 {
		t.Errorf("victim placed %v from source", d)
	}
	if victim.Opacity() != 0 || !victim.FadingIn() {
		t.Errorf("victim should start fading in from zero, opacity %v", victim.Opacity())
	}
	if len(victim.Route()) == 0 {
		t.Error("victim has no route")
	}
}
