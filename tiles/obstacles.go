package tiles

import (
	"math"

	"github.com/pthm-cable/citywalk/geom"
)

const (
	resolveIterations = 4
	resolveSkin       = 0.01
	zeroPushEpsilon   = 1e-9
)

// ObstaclesNear returns building footprints of the 3x3 loaded tiles around p.
// The slice is reused by the next call.
func (s *Streamer) ObstaclesNear(p geom.Vec2) []geom.AABB {
	s.scratch = s.scratch[:0]
	if !p.IsFinite() {
		return s.scratch
	}
	cx, cz := s.gen.Layout().TileCoord(p.X, p.Z)
	for dz := -1; dz <= 1; dz++ {
		for dx := -1; dx <= 1; dx++ {
			t, ok := s.tiles[Coord{X: cx + dx, Z: cz + dz}]
			if !ok {
				continue
			}
			for i := range t.Buildings {
				s.scratch = append(s.scratch, t.Buildings[i].Footprint)
			}
		}
	}
	return s.scratch
}

// CircleOverlaps reports whether a circle intersects any nearby footprint.
func (s *Streamer) CircleOverlaps(p geom.Vec2, r float64) bool {
	if r <= 0 || !geom.IsFinite(r) || !p.IsFinite() {
		return false
	}
	for _, b := range s.ObstaclesNear(p) {
		if b.ClosestPoint(p).DistSq(p) < r*r {
			return true
		}
	}
	return false
}

// ResolveCircle pushes a circle out of nearby footprints and returns the
// corrected centre. Invalid input is returned unchanged.
func (s *Streamer) ResolveCircle(p geom.Vec2, r float64) geom.Vec2 {
	if r <= 0 || !geom.IsFinite(r) || !p.IsFinite() {
		return p
	}
	boxes := s.ObstaclesNear(p)
	return ResolveAgainst(boxes, p, r)
}

// ResolveAgainst pushes a circle out of the given boxes, iterating a fixed
// number of times to settle corners.
func ResolveAgainst(boxes []geom.AABB, p geom.Vec2, r float64) geom.Vec2 {
	for iter := 0; iter < resolveIterations; iter++ {
		moved := false
		for _, b := range boxes {
			q := b.ClosestPoint(p)
			d := p.Sub(q)
			distSq := d.LenSq()
			if distSq >= r*r {
				continue
			}
			if distSq > zeroPushEpsilon {
				dist := math.Sqrt(distSq)
				p = q.Add(d.Scale((r + resolveSkin) / dist))
			} else {
				p = pushOutMinAxis(b, p, r)
			}
			moved = true
		}
		if !moved {
			break
		}
	}
	return p
}

// pushOutMinAxis moves a centre lying inside b out through the face of least
// penetration. Ties resolve in the order -x, +x, -z, +z.
func pushOutMinAxis(b geom.AABB, p geom.Vec2, r float64) geom.Vec2 {
	pens := [4]float64{
		p.X - b.MinX,
		b.MaxX - p.X,
		p.Z - b.MinZ,
		b.MaxZ - p.Z,
	}
	best := 0
	for i := 1; i < 4; i++ {
		if pens[i] < pens[best] {
			best = i
		}
	}
	off := r + resolveSkin
	switch best {
	case 0:
		p.X = b.MinX - off
	case 1:
		p.X = b.MaxX + off
	case 2:
		p.Z = b.MinZ - off
	default:
		p.Z = b.MaxZ + off
	}
	return p
}
