package population

import (
	"errors"
	"fmt"
	"math"

	"github.com/pthm-cable/citywalk/components"
	"github.com/pthm-cable/citywalk/config"
	"github.com/pthm-cable/citywalk/geom"
	"github.com/pthm-cable/citywalk/prng"
	"github.com/pthm-cable/citywalk/signals"
	"github.com/pthm-cable/citywalk/walkable"
)

const (
	simSpawnInner   = 0.7  // Inner edge of the Sim recycle annulus, as a fraction of its radius
	simStartInner   = 2.0  // Closest initial Sim placement to the observer
	speedSmoothing  = 0.25 // EMA weight of the newest observer speed sample
	gridBuckets     = 256
	separationShare = 0.5 // Each agent of an overlapping pair moves half the overlap
)

// Counters are lifetime totals for telemetry.
type Counters struct {
	Promotions    uint64
	Forced        uint64
	Misses        uint64
	HandoffTicks  uint64
	SimRecycles   uint64
	CrowdRecycles uint64
	FakeRecycles  uint64
	CrossingWaits uint64
	Replans       uint64
	Stumbles      uint64
}

// SimInstance is the render state of one Sim agent.
type SimInstance struct {
	Pos      geom.Vec2
	Yaw      float64
	Pose     Pose
	Opacity  float64
	State    SimState
	Behavior Behavior
}

// BatchInstance is the render state of one Crowd or Fake agent.
type BatchInstance struct {
	Pos     geom.Vec2
	Yaw     float64
	Phase   float64
	Opacity float64
}

// PhaseTimer receives phase boundaries inside Update, so the host can split
// handoff time out of population time.
type PhaseTimer interface {
	StartPhase(phase string)
}

// Phase names reported to a PhaseTimer.
const (
	PhasePopulation = "population"
	PhaseHandoff    = "handoff"
)

// Engine owns the three tiers and runs them once per frame.
type Engine struct {
	cfg     *config.Config
	env     env
	planner *Planner
	rng     *prng.Rand

	sims      []*SimAgent
	simActive int
	simAccum  float64

	crowd *batchTier
	fake  *batchTier

	handoffAccum float64
	lastHandoff  HandoffResult
	cands        []candidate
	pairs        []handoffPair

	grid      *SpatialGrid
	neighbors []Neighbor
	push      []geom.Vec2

	started  bool
	prevObs  geom.Vec2
	speed    float64
	counters Counters
	timer    PhaseTimer
}

// New creates an engine. The config is copied so runtime setters stay local
// to this engine. Obstacles may be nil.
func New(cfg *config.Config, layout *walkable.Layout, sched *signals.Scheduler, obstacles Obstacles) (*Engine, error) {
	if cfg == nil {
		return nil, errors.New("population: nil config")
	}
	if layout == nil {
		return nil, errors.New("population: nil layout")
	}
	c := *cfg
	pop := &c.Population
	if pop.Sim.Capacity < 0 || pop.Crowd.Capacity < 0 || pop.Fake.Capacity < 0 {
		return nil, fmt.Errorf("population: negative capacity (sim %d, crowd %d, fake %d)",
			pop.Sim.Capacity, pop.Crowd.Capacity, pop.Fake.Capacity)
	}
	for _, r := range []float64{pop.Sim.Radius, pop.Crowd.Radius, pop.Fake.Radius} {
		if !(r > 0) || math.IsInf(r, 0) {
			return nil, fmt.Errorf("population: invalid tier radius %v", r)
		}
	}
	c.ComputeDerived()

	e := &Engine{
		cfg: &c,
		env: env{layout: layout, signals: sched, obstacles: obstacles},
		rng: prng.New(uint64(c.World.Seed) ^ 0x5eed),
	}
	e.planner = NewPlanner(layout, c.Agents)
	e.sims = make([]*SimAgent, pop.Sim.Capacity)
	for i := range e.sims {
		e.sims[i] = newSimAgent(&e.env, &e.cfg.Agents, &e.cfg.Handoff, e.planner, e.rng)
	}
	e.simActive = activeCount(pop.Sim.ActiveCap, len(e.sims))
	e.crowd = newBatchTier(TierCrowd, &pop.Crowd, c.Agents.CrowdMinSpeed, c.Agents.CrowdMaxSpeed)
	e.fake = newBatchTier(TierFake, &pop.Fake, c.Agents.CrowdMinSpeed, c.Agents.CrowdMaxSpeed)
	e.grid = NewSpatialGrid(math.Max(c.Agents.SeparationRadius, 0.5), gridBuckets)
	return e, nil
}

func activeCount(n, capacity int) int {
	if n <= 0 || n > capacity {
		return capacity
	}
	return n
}

func (e *Engine) activeSims() []*SimAgent { return e.sims[:e.simActive] }

// SetPhaseTimer installs an optional phase timer. Pass nil to remove it.
func (e *Engine) SetPhaseTimer(t PhaseTimer) { e.timer = t }

func (e *Engine) phase(name string) {
	if e.timer != nil {
		e.timer.StartPhase(name)
	}
}

// Update runs one frame: the handoff tick, crowd and fake lifecycles with
// their ticks, then the Sim tier.
func (e *Engine) Update(in Input) {
	dt := in.DT
	if !geom.IsFinite(dt) || dt <= 0 {
		return
	}
	dt = math.Min(dt, e.cfg.World.MaxDT)
	if !in.Observer.IsFinite() {
		in.Observer = e.env.observer
	}

	e.env.observer = in.Observer
	e.env.vehicle = in.Vehicle
	e.env.resolve = in.Resolve
	if !e.started {
		e.start()
	}
	e.trackSpeed(dt)

	// Handoff runs before the lifecycle step so a promoted crowd agent
	// starts fading out the same frame its Sim replacement starts appearing.
	e.handoffAccum += dt
	if iv := e.cfg.Derived.HandoffInterval; iv > 0 && e.handoffAccum >= iv {
		e.handoffAccum = math.Mod(e.handoffAccum, iv)
		e.phase(PhaseHandoff)
		e.lastHandoff = e.runHandoff()
		e.counters.HandoffTicks++
		e.counters.Forced += uint64(e.lastHandoff.Forced)
		e.counters.Misses += uint64(e.lastHandoff.Misses)
		e.phase(PhasePopulation)
	}

	e.updateCrowd(dt)
	e.updateFake(dt)
	e.updateSims(dt)
	e.prunePairs()
}

// start fills the Sim tier around the first observer position.
func (e *Engine) start() {
	e.started = true
	e.prevObs = e.env.observer
	r := e.cfg.Population.Sim.Radius
	for _, a := range e.activeSims() {
		p := sampleAnnulus(e.env.layout, e.rng, e.env.observer, math.Min(simStartInner, r), r, spawnAttempts)
		a.place(p, e.cfg.Handoff.FadeIn)
	}
}

func (e *Engine) trackSpeed(dt float64) {
	inst := e.env.observer.Dist(e.prevObs) / dt
	e.prevObs = e.env.observer
	if !geom.IsFinite(inst) {
		return
	}
	e.speed += (inst - e.speed) * speedSmoothing
}

// updateCrowd advances crowd lifecycles every frame and movement, spawning
// and recycling at the crowd rate.
func (e *Engine) updateCrowd(dt float64) {
	c := e.crowd
	h := &e.cfg.Handoff
	c.advanceLifecycle(dt, c.cfg.FadeIn, h.FadeOut, h.Suppress)
	e.settleSuppressed(c, e.crowdInner())

	step, ok := tierStep(c, dt, e.cfg.Derived.CrowdInterval)
	if !ok {
		return
	}
	c.moveAll(step, e.env.layout, e.rng)

	obs := e.env.observer
	outer := c.cfg.Radius * c.cfg.RecycleFactor
	simR := e.cfg.Population.Sim.Radius
	lockR := simR + h.Distance
	handoff := e.cfg.Derived.HandoffInterval > 0
	spawned := 0
	for slot := range c.slots {
		life := c.life(slot)
		switch life.State {
		case components.Dormant:
			if slot < c.activeCap && spawned < c.cfg.SpawnPerTick {
				e.spawnBatch(c, slot, e.crowdInner(), components.EventSpawn)
				spawned++
			}
		case components.Active:
			if slot >= c.activeCap {
				life.Apply(components.EventRetire, h.FadeOut)
				continue
			}
			d := c.position(slot).Dist(obs)
			switch {
			case d > outer:
				e.spawnBatch(c, slot, e.crowdInner(), components.EventRecycle)
				e.counters.CrowdRecycles++
			case handoff && d <= lockR:
				// Held for the next handoff tick.
				life.Apply(components.EventLock, h.LockTime)
			case !handoff && d < simR:
				// Fades away, then returns in the annulus once suppression ends.
				life.Apply(components.EventRetire, h.FadeOut)
			}
		}
	}
}

// crowdInner is the inner edge of the crowd annulus, just outside the lock ring.
func (e *Engine) crowdInner() float64 {
	return math.Min(e.cfg.Population.Sim.Radius+e.cfg.Handoff.Distance, e.crowd.cfg.Radius)
}

// updateFake mirrors updateCrowd for the decorative tier.
func (e *Engine) updateFake(dt float64) {
	f := e.fake
	f.advanceLifecycle(dt, f.cfg.FadeIn, e.cfg.Handoff.FadeOut, 0)
	inner := e.crowd.cfg.Radius
	e.settleSuppressed(f, inner)

	step, ok := tierStep(f, dt, e.cfg.Derived.FakeInterval)
	if !ok {
		return
	}
	f.moveAll(step, e.env.layout, e.rng)

	obs := e.env.observer
	outer := f.cfg.Radius * f.cfg.RecycleFactor
	spawned := 0
	for slot := range f.slots {
		life := f.life(slot)
		switch life.State {
		case components.Dormant:
			if slot < f.activeCap && spawned < f.cfg.SpawnPerTick {
				e.spawnBatch(f, slot, inner, components.EventSpawn)
				spawned++
			}
		case components.Active:
			if slot >= f.activeCap {
				life.Apply(components.EventRetire, e.cfg.Handoff.FadeOut)
				continue
			}
			if f.position(slot).Dist(obs) > outer {
				e.spawnBatch(f, slot, inner, components.EventRecycle)
				e.counters.FakeRecycles++
			}
		}
	}
}

// tierStep accumulates dt and reports the step to run, if any.
func tierStep(t *batchTier, dt, interval float64) (float64, bool) {
	t.accum += dt
	if interval > 0 && t.accum < interval {
		return 0, false
	}
	step := t.accum
	t.accum = 0
	return step, true
}

// settleSuppressed recycles slots whose suppression ended, or parks them
// when they are beyond the active cap.
func (e *Engine) settleSuppressed(t *batchTier, inner float64) {
	for slot := range t.slots {
		life := t.life(slot)
		if life.State != components.Suppressed || life.Timer > 0 {
			continue
		}
		if slot >= t.activeCap {
			life.Apply(components.EventRetire, 0)
			continue
		}
		e.spawnBatch(t, slot, inner, components.EventRecycle)
		if t.kind == TierCrowd {
			e.counters.CrowdRecycles++
		} else {
			e.counters.FakeRecycles++
		}
	}
}

func (e *Engine) spawnBatch(t *batchTier, slot int, inner float64, ev components.LifecycleEvent) {
	p := sampleAnnulus(e.env.layout, e.rng, e.env.observer, inner, t.cfg.Radius, spawnAttempts)
	t.place(slot, p, e.rng)
	t.life(slot).Apply(ev, 0)
}

// updateSims recycles stragglers, advances every Sim agent and separates
// overlapping pairs.
func (e *Engine) updateSims(dt float64) {
	e.simAccum += dt
	if iv := e.cfg.Derived.SimInterval; iv > 0 && e.simAccum < iv {
		return
	}
	step := e.simAccum
	e.simAccum = 0

	r := e.cfg.Population.Sim.Radius
	far := r * e.cfg.Population.Sim.RecycleFactor
	obs := e.env.observer
	for _, a := range e.activeSims() {
		if a.pos.Dist(obs) > far {
			p := sampleAnnulus(e.env.layout, e.rng, obs, r*simSpawnInner, r, spawnAttempts)
			a.place(p, e.cfg.Handoff.FadeIn)
			e.counters.SimRecycles++
		}
		a.Advance(step)
	}
	e.separate()
}

// separate pushes overlapping Sim agents apart and re-projects them.
func (e *Engine) separate() {
	sims := e.activeSims()
	minDist := e.cfg.Agents.SeparationRadius
	if minDist <= 0 || len(sims) < 2 {
		return
	}
	e.grid.Clear()
	for i, a := range sims {
		e.grid.Insert(i, a.pos)
	}
	e.push = e.push[:0]
	for range sims {
		e.push = append(e.push, geom.Vec2{})
	}
	for i, a := range sims {
		e.neighbors = e.grid.QueryRadiusInto(e.neighbors[:0], a.pos, minDist, i)
		for _, n := range e.neighbors {
			d := math.Sqrt(n.DistSq)
			overlap := (minDist - d) * separationShare
			var dir geom.Vec2
			if d < 1e-6 {
				// Exact overlap: lower index goes -x.
				dir = geom.Vec2{X: 1}
				if i < n.Index {
					dir.X = -1
				}
			} else {
				dir = n.D.Scale(-1 / d)
			}
			e.push[i] = e.push[i].Add(dir.Scale(overlap))
		}
	}
	l := e.env.layout
	for i, a := range sims {
		if e.push[i].LenSq() == 0 {
			continue
		}
		if p := a.pos.Add(e.push[i]); p.IsFinite() {
			a.pos = l.Project(p)
		}
	}
}

// Census counts agents per tier and lifecycle bucket.
func (e *Engine) Census() Census {
	c := Census{Sim: e.simActive}
	for _, a := range e.activeSims() {
		if a.FadingIn() {
			c.SimFadingIn++
		}
	}
	for slot := range e.crowd.slots {
		switch e.crowd.life(slot).State {
		case components.Active, components.Locked:
			c.Crowd++
		case components.FadingOut, components.Suppressed:
			c.CrowdFading++
		default:
			c.CrowdIdle++
		}
	}
	for slot := range e.fake.slots {
		if e.fake.life(slot).State != components.Dormant {
			c.Fake++
		}
	}
	return c
}

// SimInstances appends the Sim render state to dst.
func (e *Engine) SimInstances(dst []SimInstance) []SimInstance {
	for _, a := range e.activeSims() {
		dst = append(dst, SimInstance{
			Pos:      a.pos,
			Yaw:      a.yaw,
			Pose:     a.pose,
			Opacity:  a.Opacity(),
			State:    a.state,
			Behavior: a.behavior,
		})
	}
	return dst
}

// CrowdInstances appends visible crowd agents to dst.
func (e *Engine) CrowdInstances(dst []BatchInstance) []BatchInstance {
	return e.batchInstances(e.crowd, dst, func(geom.Vec2) float64 { return 1 })
}

// FakeInstances appends visible fake agents to dst. Opacity is zero inside
// the crowd radius and ramps over the fade band at both edges.
func (e *Engine) FakeInstances(dst []BatchInstance) []BatchInstance {
	obs := e.env.observer
	inner := e.crowd.cfg.Radius
	outer := e.fake.cfg.Radius
	band := e.fake.cfg.FadeBand
	return e.batchInstances(e.fake, dst, func(p geom.Vec2) float64 {
		return fakeBand(p.Dist(obs), inner, outer, band)
	})
}

func fakeBand(d, inner, outer, band float64) float64 {
	if d <= inner || d >= outer {
		return 0
	}
	if band <= 0 {
		return 1
	}
	return geom.Clamp01((d-inner)/band) * geom.Clamp01((outer-d)/band)
}

func (e *Engine) batchInstances(t *batchTier, dst []BatchInstance, weight func(geom.Vec2) float64) []BatchInstance {
	query := t.filter.Query()
	for query.Next() {
		pos, mot, anim, life := query.Get()
		if !life.Visible() {
			continue
		}
		p := geom.Vec2{X: pos.X, Z: pos.Z}
		op := life.Opacity * weight(p)
		if op <= 0 {
			continue
		}
		dst = append(dst, BatchInstance{Pos: p, Yaw: mot.Yaw, Phase: anim.Phase, Opacity: op})
	}
	return dst
}

// Sims returns the active Sim agents. The slice is owned by the engine.
func (e *Engine) Sims() []*SimAgent { return e.activeSims() }

// Counters returns lifetime totals, including per-agent counters.
func (e *Engine) Counters() Counters {
	c := e.counters
	for _, a := range e.sims {
		c.CrossingWaits += a.crossWaits
		c.Replans += a.replans
		c.Stumbles += a.stumbles
	}
	return c
}

// LastHandoff returns the result of the most recent handoff tick.
func (e *Engine) LastHandoff() HandoffResult { return e.lastHandoff }

// ObserverSpeed returns the smoothed observer speed.
func (e *Engine) ObserverSpeed() float64 { return e.speed }

// PairOpacities returns the visible opacity sums of handoff pairs in flight.
func (e *Engine) PairOpacities() []float64 {
	out := make([]float64, 0, len(e.pairs))
	for _, p := range e.pairs {
		out = append(out, p.sim.Opacity()+e.crowd.life(p.slot).Opacity)
	}
	return out
}

// Capacity returns the pool size of a tier.
func (e *Engine) Capacity(t Tier) int {
	switch t {
	case TierSim:
		return len(e.sims)
	case TierCrowd:
		return e.crowd.capacity()
	}
	return e.fake.capacity()
}

// ActiveCap returns the live slot limit of a tier.
func (e *Engine) ActiveCap(t Tier) int {
	switch t {
	case TierSim:
		return e.simActive
	case TierCrowd:
		return e.crowd.activeCap
	}
	return e.fake.activeCap
}

// SetActiveCap limits live slots of a tier. Batched tiers fade surplus agents
// out; newly enabled Sim agents are placed around the observer.
func (e *Engine) SetActiveCap(t Tier, n int) {
	switch t {
	case TierSim:
		n = activeCount(n, len(e.sims))
		if e.started && n > e.simActive {
			r := e.cfg.Population.Sim.Radius
			for _, a := range e.sims[e.simActive:n] {
				a.place(sampleAnnulus(e.env.layout, e.rng, e.env.observer, r*simSpawnInner, r, spawnAttempts), e.cfg.Handoff.FadeIn)
			}
		}
		// Pairs on disabled agents are dropped.
		kept := e.pairs[:0]
		for _, p := range e.pairs {
			if indexOf(e.sims[:n], p.sim) >= 0 {
				kept = append(kept, p)
			}
		}
		e.pairs = kept
		e.simActive = n
		e.cfg.Population.Sim.ActiveCap = n
	case TierCrowd:
		e.crowd.SetActiveCap(n)
		e.cfg.Population.Crowd.ActiveCap = e.crowd.activeCap
	case TierFake:
		e.fake.SetActiveCap(n)
		e.cfg.Population.Fake.ActiveCap = e.fake.activeCap
	}
}

func indexOf(s []*SimAgent, a *SimAgent) int {
	for i, v := range s {
		if v == a {
			return i
		}
	}
	return -1
}

// SetRadius changes a tier radius. Non-positive or non-finite values are
// ignored.
func (e *Engine) SetRadius(t Tier, r float64) {
	if !(r > 0) || math.IsInf(r, 0) {
		return
	}
	e.tierConfig(t).Radius = r
}

// Radius returns a tier radius.
func (e *Engine) Radius(t Tier) float64 { return e.tierConfig(t).Radius }

// SetUpdateHz changes a tier's update frequency. Zero means every frame.
func (e *Engine) SetUpdateHz(t Tier, hz float64) {
	if hz < 0 || !geom.IsFinite(hz) {
		return
	}
	e.tierConfig(t).UpdateHz = hz
	e.cfg.ComputeDerived()
}

// SetHandoffHz changes the handoff frequency. Zero disables handoff.
func (e *Engine) SetHandoffHz(hz float64) {
	if hz < 0 || !geom.IsFinite(hz) {
		return
	}
	e.cfg.Handoff.Hz = hz
	e.cfg.ComputeDerived()
}

// SetLayout swaps the walkable layout after a full reload. Agents are
// projected onto the new layout and replan.
func (e *Engine) SetLayout(l *walkable.Layout) {
	if l == nil {
		return
	}
	e.env.layout = l
	e.planner = NewPlanner(l, e.cfg.Agents)
	for _, a := range e.sims {
		a.planner = e.planner
		if e.started {
			a.pos = l.Project(a.pos)
			a.replan()
		}
	}
	for _, t := range []*batchTier{e.crowd, e.fake} {
		for slot := range t.slots {
			p := t.pos(slot)
			q := l.Project(geom.Vec2{X: p.X, Z: p.Z})
			p.X, p.Z = q.X, q.Z
		}
	}
}

func (e *Engine) tierConfig(t Tier) *config.TierConfig {
	switch t {
	case TierSim:
		return &e.cfg.Population.Sim
	case TierCrowd:
		return &e.cfg.Population.Crowd
	}
	return &e.cfg.Population.Fake
}
