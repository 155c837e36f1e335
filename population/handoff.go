package population

import (
	"math"
	"sort"

	"github.com/pthm-cable/citywalk/components"
	"github.com/pthm-cable/citywalk/config"
	"github.com/pthm-cable/citywalk/geom"
)

// HandoffResult summarises one handoff tick.
type HandoffResult struct {
	Locked   int // Candidates inside the lock radius
	Budget   int // Budgeted promotions allowed this tick
	Forced   int // Promotions inside the force radius
	Promoted int // All promotions, forced included
	Misses   int // Budget left unused because no candidate qualified
}

type candidate struct {
	agent  Promotable
	slot   int
	distSq float64
	used   bool
}

// handoffPair tracks a Sim agent fading in over its fading crowd origin.
type handoffPair struct {
	sim  *SimAgent
	slot int
}

// candidatePass is one relaxation level of candidate selection.
type candidatePass struct {
	road    bool // Require the road corridor
	spacing bool // Require spacing from existing Sim agents
}

var candidatePasses = [...]candidatePass{
	{road: true, spacing: true},
	{road: true},
	{},
}

// PromotionBudget returns how many budgeted promotions one tick may make at
// the given observer speed.
func PromotionBudget(h *config.HandoffConfig, speed float64) int {
	if !geom.IsFinite(speed) || speed < 0 {
		speed = 0
	}
	frac := 1.0
	if h.SpeedForMax > 0 {
		frac = geom.Clamp01(speed / h.SpeedForMax)
	}
	n := int(math.Round(float64(h.MinPerTick) + float64(h.MaxPerTick-h.MinPerTick)*frac))
	return max(h.MinPerTick, min(n, h.MaxPerTick))
}

// runHandoff executes one handoff tick. Candidates inside the force radius
// are converted first and ignore budget and spacing; budgeted passes then
// pick from what remains.
func (e *Engine) runHandoff() HandoffResult {
	var res HandoffResult
	h := &e.cfg.Handoff
	obs := e.env.observer
	e.env.tick++

	lockR := e.cfg.Population.Sim.Radius + h.Distance
	lockRSq := lockR * lockR
	cands := e.cands[:0]
	for slot := range e.crowd.slots {
		life := e.crowd.life(slot)
		if life.State != components.Active && life.State != components.Locked {
			continue
		}
		d := e.crowd.position(slot).DistSq(obs)
		if d > lockRSq {
			continue
		}
		life.Apply(components.EventLock, h.LockTime)
		cands = append(cands, candidate{
			agent:  batchAgent{tier: e.crowd, slot: slot, layout: e.env.layout, rng: e.rng},
			slot:   slot,
			distSq: d,
		})
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].distSq < cands[j].distSq })
	e.cands = cands
	res.Locked = len(cands)
	res.Budget = PromotionBudget(h, e.speed)

	forceSq := h.ForceRadius * h.ForceRadius
	for i := range cands {
		if cands[i].distSq > forceSq {
			break
		}
		if !e.promote(&cands[i]) {
			// No victim left this tick.
			res.Promoted = res.Forced
			return res
		}
		res.Forced++
	}

	budgeted := 0
	for budgeted < res.Budget {
		c := e.pickCandidate(cands)
		if c == nil {
			res.Misses = res.Budget - budgeted
			break
		}
		if !e.promote(c) {
			break
		}
		budgeted++
	}
	res.Promoted = res.Forced + budgeted
	return res
}

// pickCandidate returns the nearest unused candidate of the strictest pass
// that has one.
func (e *Engine) pickCandidate(cands []candidate) *candidate {
	h := &e.cfg.Handoff
	spacingSq := h.MinSpacing * h.MinSpacing
	for _, pass := range candidatePasses {
		for i := range cands {
			c := &cands[i]
			if c.used {
				continue
			}
			p := c.agent.Position()
			if pass.road && e.env.layout.DistToRoad(p.X, p.Z) > h.RoadCorridor {
				continue
			}
			if pass.spacing && e.nearestSimDistSq(p) < spacingSq {
				continue
			}
			return c
		}
	}
	return nil
}

func (e *Engine) nearestSimDistSq(p geom.Vec2) float64 {
	best := math.Inf(1)
	for _, a := range e.activeSims() {
		if d := a.pos.DistSq(p); d < best {
			best = d
		}
	}
	return best
}

// pickVictim returns the Sim agent farthest from the observer that was not
// promoted this tick and is not fading in, falling back to the farthest one
// not promoted this tick.
func (e *Engine) pickVictim() *SimAgent {
	obs := e.env.observer
	var best, fallback *SimAgent
	bestD, fallbackD := -1.0, -1.0
	for _, a := range e.activeSims() {
		if a.promotedTick == e.env.tick {
			continue
		}
		d := a.pos.DistSq(obs)
		if d > fallbackD {
			fallback, fallbackD = a, d
		}
		if a.FadingIn() {
			continue
		}
		if d > bestD {
			best, bestD = a, d
		}
	}
	if best != nil {
		return best
	}
	return fallback
}

// promote hands a candidate's identity to a recycled Sim agent.
func (e *Engine) promote(c *candidate) bool {
	victim := e.pickVictim()
	if victim == nil {
		return false
	}
	c.used = true
	e.transfer(c.agent, victim)
	e.crowd.life(c.slot).Apply(components.EventPromote, e.cfg.Handoff.FadeOut)

	// A re-used victim ends its previous pairing.
	kept := e.pairs[:0]
	for _, p := range e.pairs {
		if p.sim != victim {
			kept = append(kept, p)
		}
	}
	e.pairs = append(kept, handoffPair{sim: victim, slot: c.slot})
	e.counters.Promotions++
	return true
}

// transfer places the victim just behind the source, with lateral jitter,
// and hands over heading, speed and walk phase.
func (e *Engine) transfer(src Promotable, victim *SimAgent) {
	h := &e.cfg.Handoff
	yaw := src.Yaw()
	fwd := geom.FromYaw(yaw)
	p := src.Position().
		Add(fwd.Scale(-h.BackOffset)).
		Add(fwd.Perp().Scale(e.rng.Range(-h.LateralJitter, h.LateralJitter)))
	victim.absorb(e.env.layout.Project(p), yaw, src.Speed(), src.AnimPhase())
}

// prunePairs drops pairs whose crowd side finished fading.
func (e *Engine) prunePairs() {
	kept := e.pairs[:0]
	for _, p := range e.pairs {
		if e.crowd.life(p.slot).State == components.FadingOut {
			kept = append(kept, p)
		}
	}
	e.pairs = kept
}
