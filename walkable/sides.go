package walkable

import (
	"math"

	"github.com/pthm-cable/citywalk/geom"
)

// Side identifies one sidewalk band of a city block. North is +z.
type Side uint8

const (
	South Side = iota
	East
	North
	West
)

func (s Side) String() string {
	switch s {
	case South:
		return "S"
	case East:
		return "E"
	case North:
		return "N"
	case West:
		return "W"
	}
	return "?"
}

// Corner identifies a block corner. Corner k is where side k begins when the
// ring is walked counter-clockwise: SW, SE, NE, NW.
type Corner uint8

const (
	CornerSW Corner = iota
	CornerSE
	CornerNE
	CornerNW
)

// Axis names a road. NS is the road running along z, crossed by moving along x.
type Axis uint8

const (
	AxisNS Axis = iota
	AxisEW
)

func (a Axis) String() string {
	if a == AxisNS {
		return "NS"
	}
	return "EW"
}

// Block is a city block bounded by four road centre lines.
type Block struct {
	BX, BZ int
}

// BlockOf returns the block containing the position.
func (l *Layout) BlockOf(x, z float64) Block {
	return Block{BX: int(math.Floor(x / l.TileSize)), BZ: int(math.Floor(z / l.TileSize))}
}

// SideOf returns the sidewalk band of the position's block: the side whose road
// line is nearest. Ties resolve in the order W, E, S, N.
func (l *Layout) SideOf(x, z float64) Side {
	b := l.BlockOf(x, z)
	bx := x - float64(b.BX)*l.TileSize
	bz := z - float64(b.BZ)*l.TileSize
	side, best := West, bx
	if d := l.TileSize - bx; d < best {
		side, best = East, d
	}
	if bz < best {
		side, best = South, bz
	}
	if d := l.TileSize - bz; d < best {
		side = North
	}
	return side
}

// CornerPoint returns the sidewalk midline corner of a block.
func (l *Layout) CornerPoint(b Block, c Corner) geom.Vec2 {
	x0 := float64(b.BX) * l.TileSize
	z0 := float64(b.BZ) * l.TileSize
	d := l.crosswalkOffset
	switch c {
	case CornerSW:
		return geom.Vec2{X: x0 + d, Z: z0 + d}
	case CornerSE:
		return geom.Vec2{X: x0 + l.TileSize - d, Z: z0 + d}
	case CornerNE:
		return geom.Vec2{X: x0 + l.TileSize - d, Z: z0 + l.TileSize - d}
	default:
		return geom.Vec2{X: x0 + d, Z: z0 + l.TileSize - d}
	}
}

// CrosswalkMid returns the centre of the crosswalk that joins two corner
// points on opposite sides of one road.
func CrosswalkMid(a, b geom.Vec2) geom.Vec2 {
	return a.Lerp(b, 0.5)
}

// OnCrosswalk reports whether the position is inside a crosswalk rectangle.
func (l *Layout) OnCrosswalk(p geom.Vec2) bool {
	return l.Classify(p.X, p.Z) == Crosswalk
}

// crosswalkAxis returns the road a crosswalk point spans.
func (l *Layout) crosswalkAxis(p geom.Vec2) Axis {
	lx, _ := l.Local(p.X, p.Z)
	if math.Abs(lx) <= l.RoadHalfWidth {
		return AxisNS
	}
	return AxisEW
}

// IsCrosswalkEntry reports whether stepping from p to next starts a road
// crossing, and which road is crossed.
func (l *Layout) IsCrosswalkEntry(p, next geom.Vec2) (Axis, bool) {
	if !p.IsFinite() || !next.IsFinite() || l.OnCrosswalk(p) {
		return 0, false
	}
	if l.OnCrosswalk(next) {
		return l.crosswalkAxis(next), true
	}
	if math.Floor(p.X/l.TileSize) != math.Floor(next.X/l.TileSize) {
		return AxisNS, true
	}
	if math.Floor(p.Z/l.TileSize) != math.Floor(next.Z/l.TileSize) {
		return AxisEW, true
	}
	return 0, false
}

// NearestCrosswalkEnd returns the sidewalk corner at the nearer end of the
// crosswalk containing p. For positions off a crosswalk it returns p.
func (l *Layout) NearestCrosswalkEnd(p geom.Vec2) geom.Vec2 {
	if !l.OnCrosswalk(p) {
		return p
	}
	cx, cz := l.TileCoord(p.X, p.Z)
	c := l.TileCenter(cx, cz)
	lx, lz := p.X-c.X, p.Z-c.Z
	co := l.crosswalkOffset
	sign := func(v float64) float64 {
		if v < 0 {
			return -1
		}
		return 1
	}
	// Both crossings end on the corner sidewalks of their quadrant.
	return geom.Vec2{X: c.X + sign(lx)*co, Z: c.Z + sign(lz)*co}
}
