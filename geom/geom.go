// Package geom provides small value types for ground-plane geometry.
//
// The ground plane is world x/z; heights run along y. Yaw 0 faces +z and
// increases toward +x.
package geom

import "math"

// Vec2 is a point or direction on the ground plane.
type Vec2 struct {
	X, Z float64
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Z + o.Z} }

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Z - o.Z} }

// Scale returns v * s.
func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Z * s} }

// Dot returns the dot product.
func (v Vec2) Dot(o Vec2) float64 { return v.X*o.X + v.Z*o.Z }

// LenSq returns the squared length.
func (v Vec2) LenSq() float64 { return v.X*v.X + v.Z*v.Z }

// Len returns the length.
func (v Vec2) Len() float64 { return math.Sqrt(v.LenSq()) }

// DistSq returns the squared distance to o.
func (v Vec2) DistSq(o Vec2) float64 { return v.Sub(o).LenSq() }

// Dist returns the distance to o.
func (v Vec2) Dist(o Vec2) float64 { return math.Sqrt(v.DistSq(o)) }

// Perp returns v rotated 90 degrees clockwise when viewed from +y.
func (v Vec2) Perp() Vec2 { return Vec2{v.Z, -v.X} }

// Normalize returns the unit vector, or zero for a zero-length vector.
func (v Vec2) Normalize() Vec2 {
	l := v.Len()
	if l < 1e-12 {
		return Vec2{}
	}
	return Vec2{v.X / l, v.Z / l}
}

// IsFinite reports whether both components are finite numbers.
func (v Vec2) IsFinite() bool { return IsFinite(v.X) && IsFinite(v.Z) }

// Lerp interpolates between v and o.
func (v Vec2) Lerp(o Vec2, t float64) Vec2 {
	return Vec2{v.X + (o.X-v.X)*t, v.Z + (o.Z-v.Z)*t}
}

// FromYaw returns the unit heading for a yaw angle.
func FromYaw(yaw float64) Vec2 {
	return Vec2{math.Sin(yaw), math.Cos(yaw)}
}

// YawOf returns the yaw that faces along d.
func YawOf(d Vec2) float64 {
	return math.Atan2(d.X, d.Z)
}

// Vec3 is a point in world space.
type Vec3 struct {
	X, Y, Z float64
}

// Ground drops the height component.
func (v Vec3) Ground() Vec2 { return Vec2{v.X, v.Z} }

// AABB is an axis-aligned rectangle on the ground plane.
type AABB struct {
	MinX, MinZ, MaxX, MaxZ float64
}

// Rect builds an AABB from any two opposite corners.
func Rect(x0, z0, x1, z1 float64) AABB {
	return AABB{
		MinX: math.Min(x0, x1), MinZ: math.Min(z0, z1),
		MaxX: math.Max(x0, x1), MaxZ: math.Max(z0, z1),
	}
}

// Width returns the extent along x.
func (b AABB) Width() float64 { return b.MaxX - b.MinX }

// Depth returns the extent along z.
func (b AABB) Depth() float64 { return b.MaxZ - b.MinZ }

// Center returns the midpoint.
func (b AABB) Center() Vec2 {
	return Vec2{(b.MinX + b.MaxX) / 2, (b.MinZ + b.MaxZ) / 2}
}

// Contains reports whether p lies inside or on the boundary.
func (b AABB) Contains(p Vec2) bool {
	return p.X >= b.MinX && p.X <= b.MaxX && p.Z >= b.MinZ && p.Z <= b.MaxZ
}

// Overlaps reports whether the interiors of b and o intersect.
func (b AABB) Overlaps(o AABB) bool {
	return b.MinX < o.MaxX && b.MaxX > o.MinX && b.MinZ < o.MaxZ && b.MaxZ > o.MinZ
}

// Inflate grows the box by m on every side. Negative m shrinks it.
func (b AABB) Inflate(m float64) AABB {
	return AABB{b.MinX - m, b.MinZ - m, b.MaxX + m, b.MaxZ + m}
}

// Translate offsets the box.
func (b AABB) Translate(d Vec2) AABB {
	return AABB{b.MinX + d.X, b.MinZ + d.Z, b.MaxX + d.X, b.MaxZ + d.Z}
}

// ClosestPoint returns the point of b nearest to p.
func (b AABB) ClosestPoint(p Vec2) Vec2 {
	return Vec2{Clamp(p.X, b.MinX, b.MaxX), Clamp(p.Z, b.MinZ, b.MaxZ)}
}

// Mat4 is a column-major 4x4 transform, laid out for GPU instancing.
type Mat4 [16]float32

// TRS composes translation, rotation about y and non-uniform scale.
func TRS(pos Vec3, yaw float64, scale Vec3) Mat4 {
	s, c := math.Sincos(yaw)
	return Mat4{
		float32(c * scale.X), 0, float32(-s * scale.X), 0,
		0, float32(scale.Y), 0, 0,
		float32(s * scale.Z), 0, float32(c * scale.Z), 0,
		float32(pos.X), float32(pos.Y), float32(pos.Z), 1,
	}
}

// Translation returns the translation column.
func (m Mat4) Translation() Vec3 {
	return Vec3{float64(m[12]), float64(m[13]), float64(m[14])}
}
