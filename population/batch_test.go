package population

import (
	"math"
	"testing"

	"github.com/pthm-cable/citywalk/components"
	"github.com/pthm-cable/citywalk/config"
	"github.com/pthm-cable/citywalk/geom"
	"github.com/pthm-cable/citywalk/prng"
	"github.com/pthm-cable/citywalk/walkable"
)

func TestBatchTierLifecycle(t *testing.T) {
	cfg := config.TierConfig{Capacity: 4}
	tier := newBatchTier(TierCrowd, &cfg, 1, 1.5)
	if tier.capacity() != 4 || tier.activeCap != 4 {
		t.Fatalf("capacity %d active cap %d", tier.capacity(), tier.activeCap)
	}
	for slot := range tier.slots {
		if s := tier.life(slot).State; s != components.Dormant {
			t.Fatalf("slot %d starts %s", slot, s)
		}
	}

	life := tier.life(0)
	life.Apply(components.EventSpawn, 0)
	tier.advanceLifecycle(0.4, 0.8, 0.6, 0.5)
	if math.Abs(life.Opacity-0.5) > 1e-9 {
		t.Fatalf("fade-in opacity = %v, want 0.5", life.Opacity)
	}

	life.Apply(components.EventPromote, 0.6)
	tier.advanceLifecycle(0.3, 0.8, 0.6, 0.5)
	if math.Abs(life.Opacity-0.25) > 1e-9 {
		t.Fatalf("fade-out opacity = %v, want 0.25", life.Opacity)
	}
	tier.advanceLifecycle(0.31, 0.8, 0.6, 0.5)
	if life.State != components.Suppressed || life.Opacity != 0 {
		t.Fatalf("state %s opacity %v, want suppressed and hidden", life.State, life.Opacity)
	}
	if math.Abs(life.Timer-0.5) > 1e-9 {
		t.Errorf("suppression timer = %v, want 0.5", life.Timer)
	}
}

func TestBatchStepStaysWalkable(t *testing.T) {
	cfg := config.TierConfig{Capacity: 64}
	tier := newBatchTier(TierFake, &cfg, 1, 1.6)
	l := walkable.FromConfig(config.Defaults())
	rng := prng.New(21)
	for slot := range tier.slots {
		p := l.Project(geom.Vec2{X: rng.Range(-120, 120), Z: rng.Range(-120, 120)})
		tier.place(slot, p, rng)
		tier.life(slot).Apply(components.EventSpawn, 0)
	}
	for i := 0; i < 400; i++ {
		tier.moveAll(0.25, l, rng)
		for slot := range tier.slots {
			p := tier.position(slot)
			if !l.Legal(p.X, p.Z) {
				t.Fatalf("step %d: slot %d at %v is on %s", i, slot, p, l.Classify(p.X, p.Z))
			}
		}
	}
}

func TestBatchAgentView(t *testing.T) {
	cfg := config.TierConfig{Capacity: 1}
	tier := newBatchTier(TierCrowd, &cfg, 1.2, 1.2)
	l := walkable.FromConfig(config.Defaults())
	rng := prng.New(8)
	tier.place(0, geom.Vec2{X: 8, Z: 20}, rng)
	var a Promotable = batchAgent{tier: tier, slot: 0, layout: l, rng: rng}
	if a.Speed() != 1.2 {
		t.Errorf("speed = %v", a.Speed())
	}
	before := a.Position()
	a.Advance(0.5)
	if a.Position() == before {
		t.Error("Advance did not move the agent")
	}
}
