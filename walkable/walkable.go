// Package walkable classifies ground positions into movement zones and
// projects positions onto the pedestrian-legal manifold.
//
// Every tile is a four-way intersection centred on (cx*T, cz*T). The road
// running along z (the NS road) occupies |lx| < rh in tile-local
// coordinates, the EW road |lz| < rh. Sidewalks surround both roads out to
// rh+sw, and crosswalks span each road at distance co from the centre.
package walkable

import (
	"math"

	"github.com/pthm-cable/citywalk/config"
	"github.com/pthm-cable/citywalk/geom"
)

// Zone is a movement zone classification.
type Zone uint8

const (
	Road Zone = iota
	Sidewalk
	Crosswalk
	BuildableLot
)

func (z Zone) String() string {
	switch z {
	case Road:
		return "road"
	case Sidewalk:
		return "sidewalk"
	case Crosswalk:
		return "crosswalk"
	case BuildableLot:
		return "lot"
	}
	return "unknown"
}

// Legal reports whether pedestrians may occupy the zone.
func (z Zone) Legal() bool { return z == Sidewalk || z == Crosswalk }

// projectPad keeps projected points strictly inside a legal rectangle.
const projectPad = 0.05

// Layout holds the street cross-section and the legal rectangles derived from it.
// A Layout is immutable; build a new one to change street sizes.
type Layout struct {
	TileSize       float64
	RoadHalfWidth  float64
	SidewalkWidth  float64
	CrosswalkWidth float64

	crosswalkOffset float64
	curb            float64
	half            float64

	// Tile-local legal rectangles: 8 sidewalk arms then 4 crosswalks.
	legal [12]geom.AABB
	// Same rectangles shrunk by projectPad.
	padded [12]geom.AABB
}

// New builds a layout from street dimensions.
func New(tileSize, roadHalfWidth, sidewalkWidth, crosswalkWidth float64) *Layout {
	l := &Layout{
		TileSize:       tileSize,
		RoadHalfWidth:  roadHalfWidth,
		SidewalkWidth:  sidewalkWidth,
		CrosswalkWidth: crosswalkWidth,
	}
	l.crosswalkOffset = roadHalfWidth + sidewalkWidth/2
	l.curb = roadHalfWidth + sidewalkWidth
	l.half = tileSize / 2

	rh, c, h := roadHalfWidth, l.curb, l.half
	i := 0
	for _, sx := range []float64{1, -1} {
		for _, sz := range []float64{1, -1} {
			// Arm along the NS road, then arm along the EW road.
			l.legal[i] = geom.Rect(sx*rh, sz*rh, sx*c, sz*h)
			l.legal[i+1] = geom.Rect(sx*rh, sz*rh, sx*h, sz*c)
			i += 2
		}
	}
	co, hw := l.crosswalkOffset, crosswalkWidth/2
	for _, s := range []float64{1, -1} {
		// Crossing the NS road.
		l.legal[i] = geom.Rect(-rh, s*co-hw, rh, s*co+hw)
		// Crossing the EW road.
		l.legal[i+1] = geom.Rect(s*co-hw, -rh, s*co+hw, rh)
		i += 2
	}
	for j, r := range l.legal {
		l.padded[j] = r.Inflate(-projectPad)
	}
	return l
}

// FromConfig builds a layout from the world and street configuration.
func FromConfig(cfg *config.Config) *Layout {
	return New(cfg.World.TileSize, cfg.Streets.RoadHalfWidth, cfg.Streets.SidewalkWidth, cfg.Streets.CrosswalkWidth)
}

// CrosswalkOffset returns the distance from an intersection centre to a crosswalk centre line.
func (l *Layout) CrosswalkOffset() float64 { return l.crosswalkOffset }

// Curb returns the distance from a road centre line to the outer sidewalk edge.
func (l *Layout) Curb() float64 { return l.curb }

// TileCoord returns the tile containing the position.
func (l *Layout) TileCoord(x, z float64) (cx, cz int) {
	return int(math.Round(x / l.TileSize)), int(math.Round(z / l.TileSize))
}

// TileCenter returns the world position of a tile's intersection.
func (l *Layout) TileCenter(cx, cz int) geom.Vec2 {
	return geom.Vec2{X: float64(cx) * l.TileSize, Z: float64(cz) * l.TileSize}
}

// Local returns the position relative to its tile's intersection.
func (l *Layout) Local(x, z float64) (lx, lz float64) {
	return x - math.Round(x/l.TileSize)*l.TileSize, z - math.Round(z/l.TileSize)*l.TileSize
}

// Classify returns the zone of a position. Priority on shared boundaries is
// crosswalk, road, sidewalk, lot.
func (l *Layout) Classify(x, z float64) Zone {
	if !geom.IsFinite(x) || !geom.IsFinite(z) {
		return Road
	}
	lx, lz := l.Local(x, z)
	return l.classifyLocal(lx, lz)
}

func (l *Layout) classifyLocal(lx, lz float64) Zone {
	p := geom.Vec2{X: lx, Z: lz}
	for _, r := range l.legal[8:] {
		if r.Contains(p) {
			return Crosswalk
		}
	}
	ax, az := math.Abs(lx), math.Abs(lz)
	if ax < l.RoadHalfWidth || az < l.RoadHalfWidth {
		return Road
	}
	if ax <= l.curb || az <= l.curb {
		return Sidewalk
	}
	return BuildableLot
}

// Legal reports whether a position is on a sidewalk or crosswalk.
func (l *Layout) Legal(x, z float64) bool {
	return l.Classify(x, z).Legal()
}

// ProjectToWalkable returns the nearest pedestrian-legal position. Legal
// positions are returned unchanged. Non-finite input maps to a fixed corner
// sidewalk point of tile (0, 0).
func (l *Layout) ProjectToWalkable(x, z float64) (float64, float64) {
	if !geom.IsFinite(x) || !geom.IsFinite(z) {
		return l.crosswalkOffset, l.crosswalkOffset
	}
	lx, lz := l.Local(x, z)
	if l.classifyLocal(lx, lz).Legal() {
		return x, z
	}
	p := geom.Vec2{X: lx, Z: lz}
	best := p
	bestDist := math.Inf(1)
	for _, r := range l.padded {
		q := r.ClosestPoint(p)
		if d := q.DistSq(p); d < bestDist {
			bestDist = d
			best = q
		}
	}
	return x + (best.X - lx), z + (best.Z - lz)
}

// Project is ProjectToWalkable for vectors.
func (l *Layout) Project(p geom.Vec2) geom.Vec2 {
	x, z := l.ProjectToWalkable(p.X, p.Z)
	return geom.Vec2{X: x, Z: z}
}

// DistToRoad returns the distance from a position to the nearest road edge.
// Positions on a road return 0.
func (l *Layout) DistToRoad(x, z float64) float64 {
	lx, lz := l.Local(x, z)
	d := math.Min(math.Abs(lx), math.Abs(lz)) - l.RoadHalfWidth
	if d < 0 {
		return 0
	}
	return d
}

// LegalRects returns the world-space legal rectangles of a tile.
func (l *Layout) LegalRects(cx, cz int) []geom.AABB {
	c := l.TileCenter(cx, cz)
	out := make([]geom.AABB, len(l.legal))
	for i, r := range l.legal {
		out[i] = r.Translate(c)
	}
	return out
}
