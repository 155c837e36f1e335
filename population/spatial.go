package population

import (
	"math"

	"github.com/pthm-cable/citywalk/geom"
)

// Neighbor holds a nearby agent with precomputed spatial data.
type Neighbor struct {
	Index  int       // Index into the queried slice
	D      geom.Vec2 // Delta from query origin
	DistSq float64   // Squared distance (avoid sqrt in hot path)
}

// MaxQueryResults caps the number of neighbors returned by spatial queries.
// This prevents density spikes from causing unbounded work.
const MaxQueryResults = 32

// SpatialGrid provides O(1) neighbor lookups for an unbounded plane by
// hashing cell coordinates into a fixed bucket array.
type SpatialGrid struct {
	cellSize float64
	buckets  [][]int
	pos      []geom.Vec2
}

// NewSpatialGrid creates a grid with the given cell size and bucket count.
func NewSpatialGrid(cellSize float64, buckets int) *SpatialGrid {
	if buckets < 1 {
		buckets = 1
	}
	cells := make([][]int, buckets)
	for i := range cells {
		cells[i] = make([]int, 0, 4) // pre-allocate small capacity
	}
	return &SpatialGrid{cellSize: cellSize, buckets: cells}
}

// Clear removes all entries from the grid.
func (g *SpatialGrid) Clear() {
	for i := range g.buckets {
		g.buckets[i] = g.buckets[i][:0]
	}
	g.pos = g.pos[:0]
}

// Insert adds an entry. Indices must be inserted as 0, 1, 2, ...
func (g *SpatialGrid) Insert(index int, p geom.Vec2) {
	for len(g.pos) <= index {
		g.pos = append(g.pos, geom.Vec2{})
	}
	g.pos[index] = p
	cx, cz := g.cell(p)
	b := g.bucket(cx, cz)
	g.buckets[b] = append(g.buckets[b], index)
}

// QueryRadiusInto finds entries within radius and appends to dst (up to MaxQueryResults).
// Reuse dst across calls to avoid allocations.
func (g *SpatialGrid) QueryRadiusInto(dst []Neighbor, p geom.Vec2, radius float64, exclude int) []Neighbor {
	if !p.IsFinite() || radius <= 0 {
		return dst
	}
	cellRadius := int(radius/g.cellSize) + 1
	cx, cz := g.cell(p)
	radiusSq := radius * radius

	for dc := -cellRadius; dc <= cellRadius; dc++ {
		for dr := -cellRadius; dr <= cellRadius; dr++ {
			for _, i := range g.buckets[g.bucket(cx+dc, cz+dr)] {
				if i == exclude {
					continue
				}
				d := g.pos[i].Sub(p)
				distSq := d.LenSq()
				if distSq > radiusSq {
					// Also filters hash collisions from distant cells.
					continue
				}
				if containsIndex(dst, i) {
					// Two cells of the window hashed to the same bucket.
					continue
				}
				dst = append(dst, Neighbor{Index: i, D: d, DistSq: distSq})
				if len(dst) >= MaxQueryResults {
					return dst
				}
			}
		}
	}
	return dst
}

func containsIndex(ns []Neighbor, i int) bool {
	for _, n := range ns {
		if n.Index == i {
			return true
		}
	}
	return false
}

func (g *SpatialGrid) cell(p geom.Vec2) (int, int) {
	return int(math.Floor(p.X / g.cellSize)), int(math.Floor(p.Z / g.cellSize))
}

func (g *SpatialGrid) bucket(cx, cz int) int {
	h := uint64(int64(cx))*0x9e3779b97f4a7c15 ^ uint64(int64(cz))*0xc2b2ae3d27d4eb4f
	h ^= h >> 29
	return int(h % uint64(len(g.buckets)))
}
