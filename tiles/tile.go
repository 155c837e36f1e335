// Package tiles generates city tiles and streams them around the observer.
package tiles

import (
	"fmt"

	"github.com/pthm-cable/citywalk/geom"
	"github.com/pthm-cable/citywalk/signals"
)

// Coord is an integer tile coordinate.
type Coord struct {
	X, Z int
}

func (c Coord) String() string { return fmt.Sprintf("(%d,%d)", c.X, c.Z) }

// ChebyshevDist returns the chessboard distance between two coordinates.
func (c Coord) ChebyshevDist(o Coord) int {
	return max(abs(c.X-o.X), abs(c.Z-o.Z))
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// MarkingKind distinguishes painted road lines.
type MarkingKind uint8

const (
	MarkingCentre MarkingKind = iota // Dashed lane divider
	MarkingEdge                      // Solid edge line
)

// Marking is one painted rectangle.
type Marking struct {
	Kind MarkingKind
	Rect geom.AABB
}

// Crosswalk is a marked crossing and its zebra stripes.
type Crosswalk struct {
	Rect    geom.AABB
	Axis    signals.Group // Road being crossed
	Stripes []geom.AABB
}

// SignalPost is a traffic light placed on a corner.
type SignalPost struct {
	Pos   geom.Vec2
	Group signals.Group
	ID    signals.ID // Assigned when the streamer registers the tile
}

// PartKind identifies a piece of a high-detail building.
type PartKind uint8

const (
	PartWall PartKind = iota
	PartRoof
	PartDoor
	PartBox // Low-detail stand-in
)

// Part is an axis-aligned box of a building mesh.
type Part struct {
	Kind     PartKind
	Min, Max geom.Vec3
}

// Building is one placed building.
type Building struct {
	Footprint geom.AABB
	Height    float64
	Floors    int
	Parts     []Part // High detail: walls, roof, door
	Low       Part   // Low detail box
	// Range into Tile.Windows.
	WindowStart, WindowCount int
}

// Tile is the static content of one grid cell. Content never changes after
// generation; only HighDetail is toggled by the streamer.
type Tile struct {
	Coord  Coord
	Center geom.Vec2
	Size   float64

	Roads      [2]geom.AABB // NS road, EW road
	Sidewalks  []geom.AABB
	Markings   []Marking
	Crosswalks []Crosswalk
	Signals    []SignalPost
	Lots       [4]geom.AABB
	Buildings  []Building
	Windows    []geom.Mat4 // One instance batch per tile

	HighDetail bool
}

// Bounds returns the tile's world rectangle.
func (t *Tile) Bounds() geom.AABB {
	h := t.Size / 2
	return geom.AABB{MinX: t.Center.X - h, MinZ: t.Center.Z - h, MaxX: t.Center.X + h, MaxZ: t.Center.Z + h}
}

// StripeCount returns the total number of zebra stripes.
func (t *Tile) StripeCount() int {
	n := 0
	for _, c := range t.Crosswalks {
		n += len(c.Stripes)
	}
	return n
}
