package population

import (
	"math"

	"github.com/pthm-cable/citywalk/config"
	"github.com/pthm-cable/citywalk/geom"
	"github.com/pthm-cable/citywalk/prng"
	"github.com/pthm-cable/citywalk/walkable"
)

// Behavior modulates a Sim agent's walking.
type Behavior uint8

const (
	Normal Behavior = iota
	Runner
	Phone
)

func (b Behavior) String() string {
	return [...]string{"normal", "runner", "phone"}[b]
}

// SimState is the behaviour state of a Sim agent.
type SimState uint8

const (
	Walk SimState = iota
	Idle
	Wait // Holding at a crosswalk entry for the signal
)

func (s SimState) String() string {
	return [...]string{"walk", "idle", "wait"}[s]
}

// Pose holds per-limb rotations in radians.
type Pose struct {
	HeadYaw   float64 // Look direction relative to the body
	TorsoLean float64
	ArmL      float64
	ArmR      float64
	LegL      float64
	LegR      float64
}

const (
	strideRate   = 2.6 // Walk cycle radians per unit travelled
	legSwing     = 0.55
	armSwing     = 0.4
	lookRange    = 0.9
	stumbleLean  = 0.5
	phoneArmLift = -1.1
	proximityPad = 1.0 // Extra distance at which a vehicle can trip an agent
)

// SimAgent is a fully simulated pedestrian.
type SimAgent struct {
	env     *env
	cfg     *config.AgentsConfig
	hcfg    *config.HandoffConfig
	planner *Planner
	rng     *prng.Rand

	pos       geom.Vec2
	yaw       float64
	baseSpeed float64
	behavior  Behavior
	obedient  bool
	state     SimState

	route    [MaxRoute]geom.Vec2
	routeLen int
	routeIdx int
	waitAxis walkable.Axis

	idle       float64 // Remaining dwell
	phoneNext  float64 // Time until the next phone pause
	phonePause float64 // Remaining phone pause
	stumble    float64 // Remaining stumble
	fadeT      float64 // Time since fade-in began
	fadeDur    float64 // Fade-in length, 0 = fully visible
	rampT      float64 // Time since movement ramp began
	rampDur    float64
	waited     float64 // Time spent at the current crossing

	walkPhase  float64
	lookTimer  float64
	lookTarget float64
	pose       Pose
	moved      float64 // Distance covered in the last Advance

	promotedTick uint64
	active       bool

	// Lifetime counters read by the engine for telemetry.
	crossWaits uint64
	replans    uint64
	stumbles   uint64
}

func newSimAgent(e *env, cfg *config.AgentsConfig, hcfg *config.HandoffConfig, planner *Planner, rng *prng.Rand) *SimAgent {
	return &SimAgent{env: e, cfg: cfg, hcfg: hcfg, planner: planner, rng: rng, active: true}
}

// Position implements Agent.
func (a *SimAgent) Position() geom.Vec2 { return a.pos }

// Yaw implements Agent.
func (a *SimAgent) Yaw() float64 { return a.yaw }

// Speed returns the current walking speed before ramps and pauses.
func (a *SimAgent) Speed() float64 { return a.baseSpeed * a.speedMult() }

// AnimPhase returns the walk cycle phase.
func (a *SimAgent) AnimPhase() float64 { return a.walkPhase }

// State returns the behaviour state.
func (a *SimAgent) State() SimState { return a.state }

// Behavior returns the behaviour tag.
func (a *SimAgent) Behavior() Behavior { return a.behavior }

// Obedient reports whether the agent waits for the signal.
func (a *SimAgent) Obedient() bool { return a.obedient }

// Pose returns the limb pose.
func (a *SimAgent) Pose() Pose { return a.pose }

// Opacity returns the fade-in opacity.
func (a *SimAgent) Opacity() float64 {
	if a.fadeDur <= 0 {
		return 1
	}
	return geom.Clamp01(a.fadeT / a.fadeDur)
}

// FadingIn reports whether the agent is still fading in.
func (a *SimAgent) FadingIn() bool { return a.fadeDur > 0 && a.fadeT < a.fadeDur }

// Route returns the remaining waypoints.
func (a *SimAgent) Route() []geom.Vec2 { return a.route[a.routeIdx:a.routeLen] }

func (a *SimAgent) speedMult() float64 {
	switch a.behavior {
	case Runner:
		return a.cfg.RunnerMult
	case Phone:
		return a.cfg.PhoneMult
	}
	return 1
}

// rollIdentity draws a fresh behaviour, speed and obedience.
func (a *SimAgent) rollIdentity() {
	c := a.cfg
	a.baseSpeed = a.rng.Range(c.MinSpeed, c.MaxSpeed)
	a.behavior = Normal
	switch r := a.rng.Float64(); {
	case r < c.RunnerChance:
		a.behavior = Runner
	case r < c.RunnerChance+c.PhoneChance:
		a.behavior = Phone
	}
	a.obedient = a.rng.Chance(c.ObedientChance)
	a.phoneNext = a.rng.Range(c.PhoneIntervalMin, c.PhoneIntervalMax)
	a.phonePause = 0
}

// place teleports the agent and starts a fade-in. Used for spawn and recycle.
func (a *SimAgent) place(p geom.Vec2, fadeIn float64) {
	a.pos = a.env.layout.Project(p)
	a.yaw = a.rng.Angle()
	a.rollIdentity()
	a.startFade(fadeIn, 0)
	a.stumble = 0
	a.replan()
}

func (a *SimAgent) startFade(fadeIn, ramp float64) {
	a.fadeT, a.fadeDur = 0, fadeIn
	a.rampT, a.rampDur = 0, ramp
}

// absorb takes over a promoted crowd identity.
func (a *SimAgent) absorb(p geom.Vec2, yaw, speed, phase float64) {
	c := a.cfg
	a.pos = p
	a.yaw = yaw
	a.behavior = Normal
	a.baseSpeed = geom.Clamp(speed, c.MinSpeed, c.MaxSpeed)
	a.obedient = a.rng.Chance(c.ObedientChance)
	a.walkPhase = phase
	a.stumble = 0
	a.startFade(a.hcfg.FadeIn, a.hcfg.MoveRamp)
	a.promotedTick = a.env.tick
	a.replan()
}

// replan picks a new destination and plans a route to it.
func (a *SimAgent) replan() {
	dest := a.planner.SampleDestination(a.rng, a.env.observer)
	route := a.planner.Plan(a.pos, dest, a.route[:0])
	a.routeLen = len(route)
	a.routeIdx = 0
	a.state = Walk
	a.waited = 0
	a.replans++
}

func (a *SimAgent) target() (geom.Vec2, bool) {
	if a.routeIdx >= a.routeLen {
		return geom.Vec2{}, false
	}
	return a.route[a.routeIdx], true
}

// Advance runs one behaviour step and the post-move constraint chain.
func (a *SimAgent) Advance(dt float64) {
	if dt <= 0 || !geom.IsFinite(dt) {
		return
	}
	a.fadeT += dt
	a.rampT += dt
	a.moved = 0

	switch {
	case a.stumble > 0:
		a.stumble -= dt
	case a.state == Idle:
		a.updateIdle(dt)
	case a.state == Wait:
		a.updateWait(dt)
	default:
		a.updateWalk(dt)
	}

	a.constrain()
	a.animate(dt)
}

func (a *SimAgent) updateIdle(dt float64) {
	a.idle -= dt
	a.lookTimer -= dt
	if a.lookTimer <= 0 {
		a.lookTarget = a.rng.Range(-lookRange, lookRange)
		a.lookTimer = a.rng.Range(0.6, 1.8)
	}
	if a.idle <= 0 {
		a.lookTarget = 0
		a.replan()
	}
}

func (a *SimAgent) updateWait(dt float64) {
	a.waited += dt
	if a.env.signals == nil || a.env.signals.CanCrossAxis(a.waitAxis) {
		a.state = Walk
		a.waited = 0
		return
	}
	// Face the crossing while waiting.
	if t, ok := a.target(); ok {
		a.yaw = geom.TurnToward(a.yaw, geom.YawOf(t.Sub(a.pos)), a.cfg.TurnRate*dt)
	}
}

func (a *SimAgent) updateWalk(dt float64) {
	if a.behavior == Phone {
		if a.phonePause > 0 {
			a.phonePause -= dt
			return
		}
		a.phoneNext -= dt
		if a.phoneNext <= 0 {
			a.phonePause = a.rng.Range(a.cfg.PhonePauseMin, a.cfg.PhonePauseMax)
			a.phoneNext = a.rng.Range(a.cfg.PhoneIntervalMin, a.cfg.PhoneIntervalMax)
			return
		}
	}

	t, ok := a.target()
	if !ok {
		a.replan()
		return
	}
	to := t.Sub(a.pos)
	dist := to.Len()
	if dist <= a.cfg.ArrivalDist {
		a.arrive()
		return
	}

	a.yaw = geom.TurnToward(a.yaw, geom.YawOf(to), a.cfg.TurnRate*dt)
	ramp := 1.0
	if a.rampDur > 0 {
		ramp = geom.SmoothStep(a.rampT / a.rampDur)
	}
	step := math.Min(a.Speed()*ramp*dt, dist)
	// Position follows the route segment exactly; yaw catches up visually.
	a.pos = a.pos.Add(to.Scale(step / dist))
	a.moved = step
}

// arrive consumes the reached waypoint and decides what comes next.
func (a *SimAgent) arrive() {
	a.routeIdx++
	next, ok := a.target()
	if !ok {
		if a.rng.Chance(a.cfg.IdleChance) {
			a.state = Idle
			a.idle = a.rng.Range(a.cfg.IdleMin, a.cfg.IdleMax)
			a.lookTimer = 0
			return
		}
		a.replan()
		return
	}
	if !a.obedient || a.env.signals == nil {
		return
	}
	if axis, crossing := a.env.layout.IsCrosswalkEntry(a.pos, next); crossing && !a.env.signals.CanCrossAxis(axis) {
		a.state = Wait
		a.waitAxis = axis
		a.waited = 0
		a.crossWaits++
	}
}

// constrain keeps the agent legal: walkable projection, static obstacles,
// observer and vehicle push-out, then a final projection.
func (a *SimAgent) constrain() {
	l := a.env.layout
	c := a.cfg
	p := l.Project(a.pos)
	p = a.env.resolveCircle(p, c.Radius)
	p = pushOut(p, a.env.observer, c.Radius+c.ObserverRadius)

	if v := a.env.vehicle; v != nil && v.Pos.IsFinite() && v.Radius > 0 {
		reach := c.Radius + v.Radius
		d := p.Sub(v.Pos)
		if d.LenSq() < (reach+proximityPad)*(reach+proximityPad) {
			closing := v.Vel.Dot(d.Normalize())
			if closing > c.StumbleSpeed && a.stumble <= 0 {
				a.stumble = c.StumbleTime
				a.stumbles++
				p = p.Add(d.Normalize().Scale(closing * c.VehiclePush))
			}
		}
		p = pushOut(p, v.Pos, reach)
	}
	if !p.IsFinite() {
		p = a.pos
	}
	a.pos = l.Project(p)
}

// pushOut moves p to at least dist away from centre.
func pushOut(p, centre geom.Vec2, dist float64) geom.Vec2 {
	d := p.Sub(centre)
	l2 := d.LenSq()
	if l2 >= dist*dist {
		return p
	}
	if l2 < 1e-12 {
		// Deterministic direction for an exact overlap.
		return centre.Add(geom.Vec2{X: dist})
	}
	return centre.Add(d.Scale(dist / math.Sqrt(l2)))
}

func (a *SimAgent) animate(dt float64) {
	a.walkPhase = math.Mod(a.walkPhase+a.moved*strideRate, 2*math.Pi)
	swing := math.Sin(a.walkPhase)
	amp := 0.0
	if a.moved > 0 {
		amp = 1
	}
	p := Pose{
		LegL: swing * legSwing * amp,
		LegR: -swing * legSwing * amp,
		ArmL: -swing * armSwing * amp,
		ArmR: swing * armSwing * amp,
	}
	switch {
	case a.stumble > 0:
		p.TorsoLean = stumbleLean
		p.ArmL, p.ArmR = -1, -1
	case a.behavior == Phone:
		p.ArmR = phoneArmLift
		p.TorsoLean = 0.15
	}
	if a.state == Idle {
		p.HeadYaw = a.pose.HeadYaw + (a.lookTarget-a.pose.HeadYaw)*geom.Clamp01(3*dt)
	}
	a.pose = p
}
