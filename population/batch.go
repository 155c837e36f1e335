package population

import (
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/citywalk/components"
	"github.com/pthm-cable/citywalk/config"
	"github.com/pthm-cable/citywalk/geom"
	"github.com/pthm-cable/citywalk/prng"
	"github.com/pthm-cable/citywalk/walkable"
)

const (
	batchStride   = 2.6  // Walk cycle radians per unit travelled
	blockedEps    = 0.01 // Projection correction that counts as hitting an edge
	wanderChance  = 0.04 // Per-tick chance of a spontaneous turn
	spawnAttempts = 4
)

// batchTier stores a Crowd or Fake pool in its own ark world. Slots are
// created once at startup and recycled in place.
type batchTier struct {
	kind  Tier
	cfg   *config.TierConfig
	world *ecs.World

	mapper *ecs.Map4[components.Position, components.Motion, components.Anim, components.Lifecycle]
	filter *ecs.Filter4[components.Position, components.Motion, components.Anim, components.Lifecycle]
	posMap *ecs.Map1[components.Position]
	motMap *ecs.Map1[components.Motion]
	anmMap *ecs.Map1[components.Anim]
	lifMap *ecs.Map1[components.Lifecycle]

	slots     []ecs.Entity // Pool slot -> entity
	activeCap int
	accum     float64 // Time accumulated since the last movement tick

	// Walk speed range for spawned agents.
	minSpeed, maxSpeed float64
}

func newBatchTier(kind Tier, cfg *config.TierConfig, minSpeed, maxSpeed float64) *batchTier {
	world := ecs.NewWorld()
	t := &batchTier{
		kind:     kind,
		cfg:      cfg,
		world:    world,
		mapper:   ecs.NewMap4[components.Position, components.Motion, components.Anim, components.Lifecycle](world),
		filter:   ecs.NewFilter4[components.Position, components.Motion, components.Anim, components.Lifecycle](world),
		posMap:   ecs.NewMap1[components.Position](world),
		motMap:   ecs.NewMap1[components.Motion](world),
		anmMap:   ecs.NewMap1[components.Anim](world),
		lifMap:   ecs.NewMap1[components.Lifecycle](world),
		minSpeed: minSpeed,
		maxSpeed: maxSpeed,
	}
	t.slots = make([]ecs.Entity, cfg.Capacity)
	for i := range t.slots {
		pos := components.Position{}
		mot := components.Motion{}
		anim := components.Anim{Stride: batchStride}
		life := components.Lifecycle{State: components.Dormant}
		t.slots[i] = t.mapper.NewEntity(&pos, &mot, &anim, &life)
	}
	t.SetActiveCap(cfg.ActiveCap)
	return t
}

// SetActiveCap limits live slots. Zero or out-of-range values mean full capacity.
func (t *batchTier) SetActiveCap(n int) {
	if n <= 0 || n > len(t.slots) {
		n = len(t.slots)
	}
	t.activeCap = n
}

// capacity returns the pool size.
func (t *batchTier) capacity() int { return len(t.slots) }

func (t *batchTier) life(slot int) *components.Lifecycle { return t.lifMap.Get(t.slots[slot]) }
func (t *batchTier) pos(slot int) *components.Position   { return t.posMap.Get(t.slots[slot]) }
func (t *batchTier) motion(slot int) *components.Motion  { return t.motMap.Get(t.slots[slot]) }
func (t *batchTier) anim(slot int) *components.Anim      { return t.anmMap.Get(t.slots[slot]) }

func (t *batchTier) position(slot int) geom.Vec2 {
	p := t.pos(slot)
	return geom.Vec2{X: p.X, Z: p.Z}
}

// place puts a slot at p facing a random sidewalk direction.
func (t *batchTier) place(slot int, p geom.Vec2, rng *prng.Rand) {
	pos := t.pos(slot)
	pos.X, pos.Z = p.X, p.Z
	mot := t.motion(slot)
	mot.Yaw = float64(rng.Intn(4)) * math.Pi / 2
	mot.Speed = rng.Range(t.minSpeed, t.maxSpeed)
	t.anim(slot).Phase = rng.Angle()
}

// advanceLifecycle runs every frame so opacity ramps stay in step with the
// Sim tier. Suppressed slots whose timer ran out are recycled by the caller.
func (t *batchTier) advanceLifecycle(dt, fadeIn, fadeOut, suppress float64) {
	query := t.filter.Query()
	for query.Next() {
		_, _, _, life := query.Get()
		switch life.State {
		case components.Active, components.Locked:
			if fadeIn > 0 {
				life.Opacity = math.Min(1, life.Opacity+dt/fadeIn)
			} else {
				life.Opacity = 1
			}
			if life.State == components.Locked {
				life.Timer -= dt
				if life.Timer <= 0 {
					life.Apply(components.EventExpire, 0)
				}
			}
		case components.FadingOut:
			life.Timer -= dt
			if fadeOut > 0 {
				life.Opacity = life.Fade * geom.Clamp01(life.Timer/fadeOut)
			}
			if life.Timer <= 0 {
				life.Apply(components.EventExpire, suppress)
			}
		case components.Suppressed:
			life.Timer -= dt
		}
	}
}

// moveAll walks every live slot forward by dt along the sidewalks.
func (t *batchTier) moveAll(dt float64, layout *walkable.Layout, rng *prng.Rand) {
	for slot := range t.slots {
		life := t.life(slot)
		switch life.State {
		case components.Active, components.Locked, components.FadingOut:
		default:
			continue
		}
		t.step(slot, dt, layout, rng)
	}
}

// step moves one slot. Agents that run into a walkable edge turn by a
// quarter turn so they follow the sidewalk grid.
func (t *batchTier) step(slot int, dt float64, layout *walkable.Layout, rng *prng.Rand) {
	pos := t.pos(slot)
	mot := t.motion(slot)
	from := geom.Vec2{X: pos.X, Z: pos.Z}
	want := from.Add(geom.FromYaw(mot.Yaw).Scale(mot.Speed * dt))
	got := layout.Project(want)
	if got.DistSq(want) > blockedEps*blockedEps {
		mot.Yaw = geom.NormalizeAngle(mot.Yaw + rng.Sign()*math.Pi/2)
	} else if rng.Chance(wanderChance * dt) {
		mot.Yaw = geom.NormalizeAngle(mot.Yaw + rng.Sign()*math.Pi/2)
	}
	pos.X, pos.Z = got.X, got.Z
	t.anim(slot).Advance(got.Dist(from))
}

// batchAgent is the Agent view of one batched slot.
type batchAgent struct {
	tier   *batchTier
	slot   int
	layout *walkable.Layout
	rng    *prng.Rand
}

// Position implements Agent.
func (b batchAgent) Position() geom.Vec2 { return b.tier.position(b.slot) }

// Yaw implements Agent.
func (b batchAgent) Yaw() float64 { return b.tier.motion(b.slot).Yaw }

// Advance implements Agent.
func (b batchAgent) Advance(dt float64) {
	if dt > 0 && geom.IsFinite(dt) {
		b.tier.step(b.slot, dt, b.layout, b.rng)
	}
}

// Speed implements Promotable.
func (b batchAgent) Speed() float64 { return b.tier.motion(b.slot).Speed }

// AnimPhase implements Promotable.
func (b batchAgent) AnimPhase() float64 { return b.tier.anim(b.slot).Phase }
