// Package camera provides a top-down follow camera for an unbounded world.
package camera

import "math"

// Default zoom limits in screen pixels per world unit.
const (
	DefaultZoom = 6.0
	MinZoom     = 1.0
	MaxZoom     = 40.0
)

// Camera controls the viewport into the city. World +z is screen up.
type Camera struct {
	// Position is the camera center in world coordinates
	X, Z float32

	// Zoom level in pixels per world unit
	Zoom float32

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float32

	// Zoom constraints
	MinZoom, MaxZoom float32

	// Follow stiffness in 1/s (0 = snap to target)
	Stiffness float32

	// Offset added to the followed target by manual panning
	PanX, PanZ float32
}

// New creates a camera at the origin with the default zoom.
func New(viewportW, viewportH float32) *Camera {
	return &Camera{
		Zoom:      DefaultZoom,
		ViewportW: viewportW,
		ViewportH: viewportH,
		MinZoom:   MinZoom,
		MaxZoom:   MaxZoom,
		Stiffness: 6,
	}
}

// WorldToScreen converts world coordinates to screen coordinates.
func (c *Camera) WorldToScreen(wx, wz float32) (sx, sy float32) {
	sx = c.ViewportW/2 + (wx-c.X)*c.Zoom
	sy = c.ViewportH/2 - (wz-c.Z)*c.Zoom
	return sx, sy
}

// ScreenToWorld converts screen coordinates to world coordinates.
func (c *Camera) ScreenToWorld(sx, sy float32) (wx, wz float32) {
	wx = c.X + (sx-c.ViewportW/2)/c.Zoom
	wz = c.Z - (sy-c.ViewportH/2)/c.Zoom
	return wx, wz
}

// IsVisible returns true if a circle at (wx, wz) with given radius
// could be visible on screen (conservative check for culling).
func (c *Camera) IsVisible(wx, wz, radius float32) bool {
	halfW := c.ViewportW/(2*c.Zoom) + radius
	halfH := c.ViewportH/(2*c.Zoom) + radius
	return absf(wx-c.X) <= halfW && absf(wz-c.Z) <= halfH
}

// IsRectVisible returns true if the world rectangle overlaps the view.
func (c *Camera) IsRectVisible(minX, minZ, maxX, maxZ float32) bool {
	vx0, vz0, vx1, vz1 := c.VisibleWorldBounds()
	return minX <= vx1 && maxX >= vx0 && minZ <= vz1 && maxZ >= vz0
}

// Resize updates viewport dimensions.
func (c *Camera) Resize(viewportW, viewportH float32) {
	c.ViewportW = viewportW
	c.ViewportH = viewportH
}

// Pan shifts the view by the given delta in screen pixels, relative to the
// followed target.
func (c *Camera) Pan(dx, dy float32) {
	c.PanX += dx / c.Zoom
	c.PanZ -= dy / c.Zoom
	c.X += dx / c.Zoom
	c.Z -= dy / c.Zoom
}

// Follow eases the camera toward the target plus the pan offset.
// dt is the frame time in seconds.
func (c *Camera) Follow(tx, tz, dt float32) {
	gx, gz := tx+c.PanX, tz+c.PanZ
	if c.Stiffness <= 0 || !(dt > 0) {
		c.X, c.Z = gx, gz
		return
	}
	// Frame-rate independent exponential smoothing.
	k := float32(1 - math.Exp(-float64(c.Stiffness*dt)))
	c.X += (gx - c.X) * k
	c.Z += (gz - c.Z) * k
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(c.Zoom * factor)
}

// Reset drops the pan offset and restores the default zoom.
func (c *Camera) Reset() {
	c.PanX, c.PanZ = 0, 0
	c.Zoom = DefaultZoom
}

// VisibleWorldBounds returns the world-coordinate bounds of the visible area
// as (minX, minZ, maxX, maxZ).
func (c *Camera) VisibleWorldBounds() (minX, minZ, maxX, maxZ float32) {
	halfW := c.ViewportW / (2 * c.Zoom)
	halfH := c.ViewportH / (2 * c.Zoom)
	return c.X - halfW, c.Z - halfH, c.X + halfW, c.Z + halfH
}

// absf returns the absolute value of a float32.
func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

// clamp restricts a value to a range.
func clamp(x, min, max float32) float32 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
