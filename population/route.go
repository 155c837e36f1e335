package population

import (
	"math"

	"github.com/pthm-cable/citywalk/config"
	"github.com/pthm-cable/citywalk/geom"
	"github.com/pthm-cable/citywalk/prng"
	"github.com/pthm-cable/citywalk/walkable"
)

const (
	// MaxRoute is the fixed waypoint capacity of a Sim agent.
	MaxRoute = 32
	// maxBlockSteps bounds how many roads one route crosses.
	maxBlockSteps = 4
	waypointEpsilon = 1e-6
)

// Planner builds sidewalk routes that only cross roads on crosswalks.
type Planner struct {
	layout *walkable.Layout
	cfg    config.AgentsConfig
}

// NewPlanner creates a planner.
func NewPlanner(layout *walkable.Layout, cfg config.AgentsConfig) *Planner {
	return &Planner{layout: layout, cfg: cfg}
}

// SampleDestination picks a walkable point in the destination annulus around
// the observer. Crosswalks are never returned.
func (p *Planner) SampleDestination(rng *prng.Rand, observer geom.Vec2) geom.Vec2 {
	return sampleAnnulus(p.layout, rng, observer, p.cfg.DestMin, p.cfg.DestMax, max(1, p.cfg.DestAttempts))
}

// sampleAnnulus draws uniform-area points in [inner, outer] around centre,
// projects them and rejects crosswalk results. After the last attempt the
// point is moved to the nearest crosswalk end.
func sampleAnnulus(l *walkable.Layout, rng *prng.Rand, centre geom.Vec2, inner, outer float64, attempts int) geom.Vec2 {
	var pt geom.Vec2
	for i := 0; i < attempts; i++ {
		r := math.Sqrt(rng.Range(inner*inner, outer*outer))
		pt = l.Project(centre.Add(geom.FromYaw(rng.Angle()).Scale(r)))
		if !l.OnCrosswalk(pt) {
			return pt
		}
	}
	return l.NearestCrosswalkEnd(pt)
}

// Plan writes a route from start to dest into out and returns it. The route
// ends at dest (or the sidewalk end of a crosswalk dest) and every segment
// stays on sidewalks or crosswalks.
func (p *Planner) Plan(start, dest geom.Vec2, out []geom.Vec2) []geom.Vec2 {
	l := p.layout
	out = out[:0]
	push := func(q geom.Vec2) {
		last := start
		if len(out) > 0 {
			last = out[len(out)-1]
		}
		if q.DistSq(last) < waypointEpsilon || len(out) >= MaxRoute {
			return
		}
		out = append(out, q)
	}

	cur := start
	if l.OnCrosswalk(cur) {
		cur = l.NearestCrosswalkEnd(cur)
		push(cur)
	}
	if l.OnCrosswalk(dest) {
		dest = l.NearestCrosswalkEnd(dest)
	}

	block := l.BlockOf(cur.X, cur.Z)
	goal := l.BlockOf(dest.X, dest.Z)
	for step := 0; step < maxBlockSteps && block != goal; step++ {
		dx, dz := goal.BX-block.BX, goal.BZ-block.BZ
		var entry, mid, exit geom.Vec2
		var next walkable.Block
		if dx != 0 && abs(dx) >= abs(dz) {
			entry, mid, exit = p.crossX(block, sign(dx), cur, dest)
			next = walkable.Block{BX: block.BX + sign(dx), BZ: block.BZ}
		} else {
			entry, mid, exit = p.crossZ(block, sign(dz), cur, dest)
			next = walkable.Block{BX: block.BX, BZ: block.BZ + sign(dz)}
		}
		for _, c := range p.ringPath(block, cur, entry) {
			push(c)
		}
		push(entry)
		push(mid)
		push(exit)
		cur, block = exit, next
	}
	if block != goal {
		// Crossing budget exhausted; the agent replans from here.
		return out
	}
	for _, c := range p.ringPath(block, cur, dest) {
		push(c)
	}
	push(dest)
	return out
}

// crossX returns the crosswalk triple that leaves block along x in direction s,
// choosing the cheaper of the block's two intersections on that road.
func (p *Planner) crossX(b walkable.Block, s int, cur, dest geom.Vec2) (entry, mid, exit geom.Vec2) {
	t := p.layout.TileSize
	d := p.layout.CrosswalkOffset()
	x0, z0 := float64(b.BX)*t, float64(b.BZ)*t
	roadX := x0
	if s > 0 {
		roadX = x0 + t
	}
	fs := float64(s)
	best := math.Inf(1)
	for _, z := range []float64{z0 + d, z0 + t - d} {
		en := geom.Vec2{X: roadX - fs*d, Z: z}
		ex := geom.Vec2{X: roadX + fs*d, Z: z}
		if cost := cur.Dist(en) + ex.Dist(dest); cost < best {
			best = cost
			entry, mid, exit = en, geom.Vec2{X: roadX, Z: z}, ex
		}
	}
	return entry, mid, exit
}

// crossZ is crossX for roads running along x.
func (p *Planner) crossZ(b walkable.Block, s int, cur, dest geom.Vec2) (entry, mid, exit geom.Vec2) {
	t := p.layout.TileSize
	d := p.layout.CrosswalkOffset()
	x0, z0 := float64(b.BX)*t, float64(b.BZ)*t
	roadZ := z0
	if s > 0 {
		roadZ = z0 + t
	}
	fs := float64(s)
	best := math.Inf(1)
	for _, x := range []float64{x0 + d, x0 + t - d} {
		en := geom.Vec2{X: x, Z: roadZ - fs*d}
		ex := geom.Vec2{X: x, Z: roadZ + fs*d}
		if cost := cur.Dist(en) + ex.Dist(dest); cost < best {
			best = cost
			entry, mid, exit = en, geom.Vec2{X: x, Z: roadZ}, ex
		}
	}
	return entry, mid, exit
}

// ringPath returns the block corners to pass walking from one sidewalk point
// to another inside block b: none on the same side, one for adjacent sides,
// two for opposite sides, taking the shorter way round.
func (p *Planner) ringPath(b walkable.Block, from, to geom.Vec2) []geom.Vec2 {
	a := int(p.layout.SideOf(from.X, from.Z))
	z := int(p.layout.SideOf(to.X, to.Z))
	if a == z {
		return nil
	}
	var fwd, back []geom.Vec2
	// Side k runs from corner k to corner k+1.
	for c := (a + 1) % 4; ; c = (c + 1) % 4 {
		fwd = append(fwd, p.layout.CornerPoint(b, walkable.Corner(c)))
		if c == z {
			break
		}
	}
	for c := a; ; c = (c + 3) % 4 {
		back = append(back, p.layout.CornerPoint(b, walkable.Corner(c)))
		if c == (z+1)%4 {
			break
		}
	}
	if pathLen(from, fwd, to) <= pathLen(from, back, to) {
		return fwd
	}
	return back
}

func pathLen(from geom.Vec2, via []geom.Vec2, to geom.Vec2) float64 {
	total := 0.0
	prev := from
	for _, v := range via {
		total += prev.Dist(v)
		prev = v
	}
	return total + prev.Dist(to)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	if v < 0 {
		return -1
	}
	return 1
}
