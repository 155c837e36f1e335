package camera

import (
	"math"
	"testing"
)

func near(a, b float32) bool { return math.Abs(float64(a-b)) < 0.01 }

func TestNew(t *testing.T) {
	cam := New(1280, 720)
	if cam.X != 0 || cam.Z != 0 {
		t.Errorf("expected camera at origin, got (%f, %f)", cam.X, cam.Z)
	}
	if cam.Zoom != DefaultZoom {
		t.Errorf("expected zoom %v, got %f", DefaultZoom, cam.Zoom)
	}
}

func TestWorldToScreenCentered(t *testing.T) {
	cam := New(1280, 720)
	cam.X, cam.Z = 300, -120

	sx, sy := cam.WorldToScreen(300, -120)
	if !near(sx, 640) || !near(sy, 360) {
		t.Errorf("expected screen center (640, 360), got (%f, %f)", sx, sy)
	}

	// North is up.
	_, sy = cam.WorldToScreen(300, -110)
	if sy >= 360 {
		t.Errorf("point north of centre drawn at y=%f", sy)
	}
}

func TestScreenToWorldRoundtrip(t *testing.T) {
	cam := New(1280, 720)
	cam.X, cam.Z = -5000, 7200
	cam.SetZoom(3)

	testCases := []struct{ sx, sy float32 }{
		{640, 360},  // center
		{100, 100},  // top-left
		{1200, 600}, // near bottom-right
	}
	for _, tc := range testCases {
		wx, wz := cam.ScreenToWorld(tc.sx, tc.sy)
		sx, sy := cam.WorldToScreen(wx, wz)
		if !near(sx, tc.sx) || !near(sy, tc.sy) {
			t.Errorf("roundtrip failed: (%f,%f) -> (%f,%f) -> (%f,%f)",
				tc.sx, tc.sy, wx, wz, sx, sy)
		}
	}
}

func TestZoomClamp(t *testing.T) {
	cam := New(1280, 720)

	cam.SetZoom(0.1)
	if cam.Zoom != MinZoom {
		t.Errorf("expected zoom clamped to %v, got %f", MinZoom, cam.Zoom)
	}
	cam.SetZoom(1000)
	if cam.Zoom != MaxZoom {
		t.Errorf("expected zoom clamped to %v, got %f", MaxZoom, cam.Zoom)
	}
	cam.ZoomBy(0.5)
	if cam.Zoom != MaxZoom/2 {
		t.Errorf("ZoomBy(0.5) = %f", cam.Zoom)
	}
}

func TestIsVisible(t *testing.T) {
	cam := New(1200, 600)
	cam.SetZoom(10)
	// Visible range: x in [-60, 60], z in [-30, 30]

	tests := []struct {
		name   string
		x, z   float32
		radius float32
		want   bool
	}{
		{"centre", 0, 0, 1, true},
		{"far away", 200, 200, 1, false},
		{"just outside with radius", 62, 0, 3, true},
		{"outside vertically", 0, 40, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cam.IsVisible(tt.x, tt.z, tt.radius); got != tt.want {
				t.Errorf("IsVisible(%v, %v, %v) = %v, want %v", tt.x, tt.z, tt.radius, got, tt.want)
			}
		})
	}

	if !cam.IsRectVisible(55, -100, 120, 100) {
		t.Error("overlapping rect should be visible")
	}
	if cam.IsRectVisible(61, 0, 120, 10) {
		t.Error("rect right of the view should be culled")
	}
}

func TestFollow(t *testing.T) {
	cam := New(1280, 720)
	cam.Stiffness = 0
	cam.Follow(100, 50, 1.0/60)
	if cam.X != 100 || cam.Z != 50 {
		t.Errorf("snap follow went to (%f, %f)", cam.X, cam.Z)
	}

	cam.Stiffness = 5
	for i := 0; i < 600; i++ {
		cam.Follow(200, -50, 1.0/60)
	}
	if !near(cam.X, 200) || !near(cam.Z, -50) {
		t.Errorf("follow did not converge, at (%f, %f)", cam.X, cam.Z)
	}
}

func TestPanAndReset(t *testing.T) {
	cam := New(1280, 720)
	cam.Stiffness = 0
	cam.SetZoom(10)
	cam.Pan(100, -50) // 10 units east, 5 units north
	cam.Follow(0, 0, 1.0/60)
	if !near(cam.X, 10) || !near(cam.Z, 5) {
		t.Errorf("pan offset not kept by follow: (%f, %f)", cam.X, cam.Z)
	}

	cam.Reset()
	cam.Follow(0, 0, 1.0/60)
	if cam.X != 0 || cam.Z != 0 || cam.Zoom != DefaultZoom {
		t.Errorf("after reset: (%f, %f) zoom %f", cam.X, cam.Z, cam.Zoom)
	}
}
