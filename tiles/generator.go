package tiles

import (
	"math"
	"sort"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/citywalk/config"
	"github.com/pthm-cable/citywalk/geom"
	"github.com/pthm-cable/citywalk/prng"
	"github.com/pthm-cable/citywalk/signals"
	"github.com/pthm-cable/citywalk/walkable"
)

const (
	markingCutPad = 0.25 // Clearance between paint and intersection/crosswalk
	edgeLineInset = 0.4  // Edge line distance inside the curb
	signalInset   = 0.5  // Signal post distance outside the road edge
	wallThickness = 0.2
	roofThickness = 0.3
	doorWidth     = 1.2
	doorHeight    = 2.2
	doorDepth     = 0.1
)

// Generator builds tile content as a pure function of coordinate and world seed.
type Generator struct {
	seed     int64
	layout   *walkable.Layout
	streets  config.StreetsConfig
	build    config.BuildingsConfig
	district opensimplex.Noise
}

// NewGenerator creates a generator.
func NewGenerator(seed int64, layout *walkable.Layout, streets config.StreetsConfig, build config.BuildingsConfig) *Generator {
	return &Generator{
		seed:     seed,
		layout:   layout,
		streets:  streets,
		build:    build,
		district: opensimplex.NewNormalized(seed),
	}
}

// GeneratorFromConfig creates a generator for the configured world.
func GeneratorFromConfig(cfg *config.Config, layout *walkable.Layout) *Generator {
	return NewGenerator(cfg.World.Seed, layout, cfg.Streets, cfg.Buildings)
}

// Layout returns the street layout the generator builds against.
func (g *Generator) Layout() *walkable.Layout { return g.layout }

// SetWindowDensity changes the window probability for tiles generated afterwards.
// Random draws do not depend on density, so building placement is unaffected.
func (g *Generator) SetWindowDensity(d float64) {
	g.build.WindowDensity = geom.Clamp01(d)
}

// WindowDensity returns the current window probability.
func (g *Generator) WindowDensity() float64 { return g.build.WindowDensity }

// Generate builds the tile at c. Two calls with the same coordinate return
// geometrically identical tiles.
func (g *Generator) Generate(c Coord) *Tile {
	l := g.layout
	rng := prng.New(prng.HashCoord(g.seed, c.X, c.Z))
	t := &Tile{
		Coord:  c,
		Center: l.TileCenter(c.X, c.Z),
		Size:   l.TileSize,
	}

	g.addRoads(t)
	t.Sidewalks = l.LegalRects(c.X, c.Z)[:8]
	g.addMarkings(t)
	g.addCrosswalks(t)
	g.addSignals(t)
	g.addLots(t)
	for i := range t.Lots {
		g.placeBuildings(t, t.Lots[i], rng)
	}
	return t
}

func (g *Generator) addRoads(t *Tile) {
	rh, h := g.layout.RoadHalfWidth, t.Size/2
	t.Roads[0] = geom.Rect(-rh, -h, rh, h).Translate(t.Center)
	t.Roads[1] = geom.Rect(-h, -rh, h, rh).Translate(t.Center)
}

// markingCuts returns the sorted, merged intervals along a road where no paint goes.
func (g *Generator) markingCuts() [][2]float64 {
	rh := g.layout.RoadHalfWidth
	co := g.layout.CrosswalkOffset()
	hw := g.layout.CrosswalkWidth / 2
	cuts := [][2]float64{
		{-rh - markingCutPad, rh + markingCutPad},
		{co - hw - markingCutPad, co + hw + markingCutPad},
		{-co - hw - markingCutPad, -co + hw + markingCutPad},
	}
	sort.Slice(cuts, func(i, j int) bool { return cuts[i][0] < cuts[j][0] })
	merged := [][2]float64{cuts[0]}
	for _, c := range cuts[1:] {
		last := &merged[len(merged)-1]
		if c[0] <= last[1] {
			last[1] = math.Max(last[1], c[1])
			continue
		}
		merged = append(merged, c)
	}
	return merged
}

// subtractIntervals returns the parts of [lo, hi] not covered by sorted cuts.
func subtractIntervals(lo, hi float64, cuts [][2]float64) [][2]float64 {
	var out [][2]float64
	cur := lo
	for _, c := range cuts {
		if c[1] <= cur {
			continue
		}
		if c[0] >= hi {
			break
		}
		if c[0] > cur {
			out = append(out, [2]float64{cur, c[0]})
		}
		cur = c[1]
	}
	if cur < hi {
		out = append(out, [2]float64{cur, hi})
	}
	return out
}

func (g *Generator) addMarkings(t *Tile) {
	s := g.streets
	h := t.Size / 2
	edge := g.layout.RoadHalfWidth - edgeLineInset
	hw := s.MarkingWidth / 2
	free := subtractIntervals(-h, h, g.markingCuts())

	// along(a, b, offset) is a paint rectangle spanning [a, b] along the road at
	// a lateral offset; ns selects the road.
	along := func(ns bool, a, b, offset float64) geom.AABB {
		if ns {
			return geom.Rect(offset-hw, a, offset+hw, b).Translate(t.Center)
		}
		return geom.Rect(a, offset-hw, b, offset+hw).Translate(t.Center)
	}

	for _, ns := range []bool{true, false} {
		for _, iv := range free {
			for a := iv[0]; a < iv[1]; a += s.DashLength + s.DashGap {
				b := math.Min(a+s.DashLength, iv[1])
				if b-a < s.MarkingWidth {
					break
				}
				t.Markings = append(t.Markings, Marking{Kind: MarkingCentre, Rect: along(ns, a, b, 0)})
			}
			for _, side := range []float64{-edge, edge} {
				t.Markings = append(t.Markings, Marking{Kind: MarkingEdge, Rect: along(ns, iv[0], iv[1], side)})
			}
		}
	}
}

func (g *Generator) addCrosswalks(t *Tile) {
	rects := g.layout.LegalRects(t.Coord.X, t.Coord.Z)[8:]
	pitch := 2 * g.streets.StripeWidth
	for i, r := range rects {
		cw := Crosswalk{Rect: r, Axis: signals.NS}
		if i%2 == 1 {
			cw.Axis = signals.EW
		}
		if pitch > 0 {
			if cw.Axis == signals.NS {
				for x := r.MinX + g.streets.StripeWidth/2; x+g.streets.StripeWidth <= r.MaxX; x += pitch {
					cw.Stripes = append(cw.Stripes, geom.Rect(x, r.MinZ, x+g.streets.StripeWidth, r.MaxZ))
				}
			} else {
				for z := r.MinZ + g.streets.StripeWidth/2; z+g.streets.StripeWidth <= r.MaxZ; z += pitch {
					cw.Stripes = append(cw.Stripes, geom.Rect(r.MinX, z, r.MaxX, z+g.streets.StripeWidth))
				}
			}
		}
		t.Crosswalks = append(t.Crosswalks, cw)
	}
}

func (g *Generator) addSignals(t *Tile) {
	d := g.layout.RoadHalfWidth + signalInset
	posts := []struct {
		sx, sz float64
		group  signals.Group
	}{
		{1, 1, signals.NS},   // NE
		{-1, 1, signals.EW},  // NW
		{-1, -1, signals.NS}, // SW
		{1, -1, signals.EW},  // SE
	}
	for _, p := range posts {
		t.Signals = append(t.Signals, SignalPost{
			Pos:   t.Center.Add(geom.Vec2{X: p.sx * d, Z: p.sz * d}),
			Group: p.group,
		})
	}
}

func (g *Generator) addLots(t *Tile) {
	c, h := g.layout.Curb(), t.Size/2
	i := 0
	for _, sx := range []float64{1, -1} {
		for _, sz := range []float64{1, -1} {
			t.Lots[i] = geom.Rect(sx*c, sz*c, sx*h, sz*h).Translate(t.Center)
			i++
		}
	}
}

// placeBuildings fills one lot by bounded rejection sampling.
func (g *Generator) placeBuildings(t *Tile, lot geom.AABB, rng *prng.Rand) {
	b := g.build
	inner := lot.Inflate(-b.LotMargin)
	if inner.Width() <= 0 || inner.Depth() <= 0 {
		return
	}

	lc := lot.Center()
	district := g.district.Eval2(lc.X*b.DistrictScale, lc.Z*b.DistrictScale)

	start := len(t.Buildings)
	count := rng.IntRange(b.MinPerLot, b.MaxPerLot)
	for n := 0; n < count; n++ {
		fp, ok := g.samplePlacement(inner, t.Buildings[start:], rng)
		if !ok {
			continue
		}
		mix := (1-b.DistrictWeight)*rng.Float64() + b.DistrictWeight*district
		raw := b.MinHeight + (b.MaxHeight-b.MinHeight)*mix
		floors := max(1, int(math.Round(raw/b.FloorHeight)))
		t.Buildings = append(t.Buildings, g.buildBuilding(t, fp, floors, rng))
	}
}

func (g *Generator) samplePlacement(inner geom.AABB, placed []Building, rng *prng.Rand) (geom.AABB, bool) {
	b := g.build
	for attempt := 0; attempt < b.PlacementAttempts; attempt++ {
		w := math.Min(rng.Range(b.MinSize, b.MaxSize), inner.Width())
		d := math.Min(rng.Range(b.MinSize, b.MaxSize), inner.Depth())
		x := rng.Range(inner.MinX, inner.MaxX-w)
		z := rng.Range(inner.MinZ, inner.MaxZ-d)
		fp := geom.Rect(x, z, x+w, z+d)

		free := true
		for _, other := range placed {
			if fp.Overlaps(other.Footprint.Inflate(b.Padding)) {
				free = false
				break
			}
		}
		if free {
			return fp, true
		}
	}
	return geom.AABB{}, false
}

func (g *Generator) buildBuilding(t *Tile, fp geom.AABB, floors int, rng *prng.Rand) Building {
	fh := g.build.FloorHeight
	height := float64(floors) * fh
	bld := Building{
		Footprint: fp,
		Height:    height,
		Floors:    floors,
		Low:       Part{Kind: PartBox, Min: geom.Vec3{X: fp.MinX, Z: fp.MinZ}, Max: geom.Vec3{X: fp.MaxX, Y: height, Z: fp.MaxZ}},
	}

	wt := wallThickness
	bld.Parts = append(bld.Parts,
		Part{Kind: PartWall, Min: geom.Vec3{X: fp.MinX, Z: fp.MinZ}, Max: geom.Vec3{X: fp.MaxX, Y: height, Z: fp.MinZ + wt}},
		Part{Kind: PartWall, Min: geom.Vec3{X: fp.MinX, Z: fp.MaxZ - wt}, Max: geom.Vec3{X: fp.MaxX, Y: height, Z: fp.MaxZ}},
		Part{Kind: PartWall, Min: geom.Vec3{X: fp.MinX, Z: fp.MinZ}, Max: geom.Vec3{X: fp.MinX + wt, Y: height, Z: fp.MaxZ}},
		Part{Kind: PartWall, Min: geom.Vec3{X: fp.MaxX - wt, Z: fp.MinZ}, Max: geom.Vec3{X: fp.MaxX, Y: height, Z: fp.MaxZ}},
		Part{Kind: PartRoof, Min: geom.Vec3{X: fp.MinX, Y: height, Z: fp.MinZ}, Max: geom.Vec3{X: fp.MaxX, Y: height + roofThickness, Z: fp.MaxZ}},
		g.door(t, fp),
	)

	bld.WindowStart = len(t.Windows)
	g.addWindows(t, fp, floors, rng)
	bld.WindowCount = len(t.Windows) - bld.WindowStart
	return bld
}

// door faces the nearer of the two roads bounding the lot.
func (g *Generator) door(t *Tile, fp geom.AABB) Part {
	c := fp.Center()
	rel := c.Sub(t.Center)
	nearX := math.Min(math.Abs(fp.MinX-t.Center.X), math.Abs(fp.MaxX-t.Center.X))
	nearZ := math.Min(math.Abs(fp.MinZ-t.Center.Z), math.Abs(fp.MaxZ-t.Center.Z))
	hw := doorWidth / 2
	if nearX <= nearZ {
		face := fp.MinX - doorDepth
		if rel.X < 0 {
			face = fp.MaxX
		}
		return Part{Kind: PartDoor, Min: geom.Vec3{X: face, Z: c.Z - hw}, Max: geom.Vec3{X: face + doorDepth, Y: doorHeight, Z: c.Z + hw}}
	}
	face := fp.MinZ - doorDepth
	if rel.Z < 0 {
		face = fp.MaxZ
	}
	return Part{Kind: PartDoor, Min: geom.Vec3{X: c.X - hw, Z: face}, Max: geom.Vec3{X: c.X + hw, Y: doorHeight, Z: face + doorDepth}}
}

// addWindows emits one window transform per lattice cell that passes the
// density test. Every cell draws from the generator.
func (g *Generator) addWindows(t *Tile, fp geom.AABB, floors int, rng *prng.Rand) {
	b := g.build
	faces := []struct {
		a, b   geom.Vec2 // Face endpoints
		yaw    float64   // Outward facing
		normal geom.Vec2
	}{
		{geom.Vec2{X: fp.MinX, Z: fp.MinZ}, geom.Vec2{X: fp.MaxX, Z: fp.MinZ}, math.Pi, geom.Vec2{Z: -1}},
		{geom.Vec2{X: fp.MinX, Z: fp.MaxZ}, geom.Vec2{X: fp.MaxX, Z: fp.MaxZ}, 0, geom.Vec2{Z: 1}},
		{geom.Vec2{X: fp.MinX, Z: fp.MinZ}, geom.Vec2{X: fp.MinX, Z: fp.MaxZ}, -math.Pi / 2, geom.Vec2{X: -1}},
		{geom.Vec2{X: fp.MaxX, Z: fp.MinZ}, geom.Vec2{X: fp.MaxX, Z: fp.MaxZ}, math.Pi / 2, geom.Vec2{X: 1}},
	}
	scale := geom.Vec3{X: b.WindowSpacing * 0.45, Y: b.FloorHeight * 0.45, Z: 0.05}
	for _, f := range faces {
		length := f.a.Dist(f.b)
		cols := int(length / b.WindowSpacing)
		if cols <= 0 {
			continue
		}
		for floor := 1; floor < floors; floor++ {
			y := float64(floor)*b.FloorHeight + b.FloorHeight*0.55
			for col := 0; col < cols; col++ {
				if rng.Float64() >= b.WindowDensity {
					continue
				}
				p := f.a.Lerp(f.b, (float64(col)+0.5)/float64(cols)).Add(f.normal.Scale(0.02))
				t.Windows = append(t.Windows, geom.TRS(geom.Vec3{X: p.X, Y: y, Z: p.Z}, f.yaw, scale))
			}
		}
	}
}
