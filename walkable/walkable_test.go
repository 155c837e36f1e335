package walkable

import (
	"math"
	"testing"

	"github.com/pthm-cable/citywalk/geom"
	"github.com/pthm-cable/citywalk/prng"
)

func testLayout() *Layout {
	return New(60, 6, 4, 3)
}

func TestClassify(t *testing.T) {
	l := testLayout()
	tests := []struct {
		name string
		x, z float64
		want Zone
	}{
		{"intersection centre", 0, 0, Road},
		{"ns road", 2, 20, Road},
		{"ew road", 20, -3, Road},
		{"sidewalk ns arm", 7, 20, Sidewalk},
		{"sidewalk ew arm", -25, 9, Sidewalk},
		{"corner", 8, 8, Sidewalk},
		{"curb edge inclusive", 10, 20, Sidewalk},
		{"road edge is sidewalk", 6, 20, Sidewalk},
		{"lot", 20, 20, BuildableLot},
		{"crosswalk ns", 0, 8, Crosswalk},
		{"crosswalk ew", -8, 3, Crosswalk},
		{"crosswalk boundary inclusive", 6, 6.5, Crosswalk},
		{"neighbour tile", 60 + 7, 120 + 20, Sidewalk},
		{"tile edge lot", 30, 30, BuildableLot},
		{"nan", math.NaN(), 0, Road},
		{"inf", 0, math.Inf(1), Road},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := l.Classify(tt.x, tt.z); got != tt.want {
				t.Errorf("Classify(%v, %v) = %v, want %v", tt.x, tt.z, got, tt.want)
			}
		})
	}
}

func TestZonePartitionAndProjection(t *testing.T) {
	l := testLayout()
	r := prng.New(2024)
	counts := make(map[Zone]int)

	for i := 0; i < 100000; i++ {
		x := r.Range(-l.TileSize/2, l.TileSize/2)
		z := r.Range(-l.TileSize/2, l.TileSize/2)

		zone := l.Classify(x, z)
		counts[zone]++

		// Independent predicates resolved in priority order must agree.
		ax, az := math.Abs(x), math.Abs(z)
		onCrosswalk := (ax <= 6 && math.Abs(az-8) <= 1.5) || (az <= 6 && math.Abs(ax-8) <= 1.5)
		want := BuildableLot
		switch {
		case onCrosswalk:
			want = Crosswalk
		case ax < 6 || az < 6:
			want = Road
		case ax <= 10 || az <= 10:
			want = Sidewalk
		}
		if zone != want {
			t.Fatalf("Classify(%v,%v) = %v, want %v", x, z, zone, want)
		}

		px, pz := l.ProjectToWalkable(x, z)
		if !l.Legal(px, pz) {
			t.Fatalf("ProjectToWalkable(%v,%v) = (%v,%v) classified %v", x, z, px, pz, l.Classify(px, pz))
		}
		if zone.Legal() && (px != x || pz != z) {
			t.Fatalf("legal point (%v,%v) moved to (%v,%v)", x, z, px, pz)
		}
	}

	for _, zone := range []Zone{Road, Sidewalk, Crosswalk, BuildableLot} {
		if counts[zone] == 0 {
			t.Errorf("no samples classified %v", zone)
		}
	}
}

func TestProjectionIdempotent(t *testing.T) {
	l := testLayout()
	r := prng.New(5)
	for i := 0; i < 20000; i++ {
		x := r.Range(-500, 500)
		z := r.Range(-500, 500)
		px, pz := l.ProjectToWalkable(x, z)
		qx, qz := l.ProjectToWalkable(px, pz)
		if qx != px || qz != pz {
			t.Fatalf("projection not idempotent at (%v,%v): (%v,%v) -> (%v,%v)", x, z, px, pz, qx, qz)
		}
	}
}

func TestProjectNonFinite(t *testing.T) {
	l := testLayout()
	x, z := l.ProjectToWalkable(math.NaN(), 3)
	if !geom.IsFinite(x) || !geom.IsFinite(z) || !l.Legal(x, z) {
		t.Errorf("non-finite input projected to (%v,%v)", x, z)
	}
}

func TestProjectNearest(t *testing.T) {
	l := testLayout()
	// Middle of the NS road well away from crosswalks: nearest curb is at x=±6.
	x, z := l.ProjectToWalkable(1, 20)
	if math.Abs(x-(6+projectPad)) > 1e-9 || z != 20 {
		t.Errorf("ProjectToWalkable(1,20) = (%v,%v)", x, z)
	}
	// Lot point next to the EW arm.
	x, z = l.ProjectToWalkable(25, 12)
	if x != 25 || math.Abs(z-(10-projectPad)) > 1e-9 {
		t.Errorf("ProjectToWalkable(25,12) = (%v,%v)", x, z)
	}
}

func TestSideOf(t *testing.T) {
	l := testLayout()
	tests := []struct {
		name string
		x, z float64
		want Side
	}{
		{"west", 8, 30, West},
		{"east", 52, 30, East},
		{"south", 30, 8, South},
		{"north", 30, 52, North},
		{"negative block west", -52, -30, West},
		{"tie prefers west", 8, 8, West},
		{"tie east over south", 52, 8, East},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := l.SideOf(tt.x, tt.z); got != tt.want {
				t.Errorf("SideOf(%v, %v) = %v, want %v", tt.x, tt.z, got, tt.want)
			}
		})
	}
}

func TestIsCrosswalkEntry(t *testing.T) {
	l := testLayout()
	tests := []struct {
		name     string
		p, next  geom.Vec2
		wantAxis Axis
		wantOK   bool
	}{
		{"onto ns crosswalk", geom.Vec2{X: 8, Z: 8}, geom.Vec2{X: 0, Z: 8}, AxisNS, true},
		{"onto ew crosswalk", geom.Vec2{X: 8, Z: 8}, geom.Vec2{X: 8, Z: 0}, AxisEW, true},
		{"along sidewalk", geom.Vec2{X: 8, Z: 8}, geom.Vec2{X: 8, Z: 25}, 0, false},
		{"already crossing", geom.Vec2{X: 0, Z: 8}, geom.Vec2{X: -8, Z: 8}, 0, false},
		{"jaywalk over ns line", geom.Vec2{X: 52, Z: 30}, geom.Vec2{X: 68, Z: 30}, AxisNS, true},
		{"jaywalk over ew line", geom.Vec2{X: 30, Z: -8}, geom.Vec2{X: 30, Z: 8}, AxisEW, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			axis, ok := l.IsCrosswalkEntry(tt.p, tt.next)
			if ok != tt.wantOK || (ok && axis != tt.wantAxis) {
				t.Errorf("IsCrosswalkEntry = (%v, %v), want (%v, %v)", axis, ok, tt.wantAxis, tt.wantOK)
			}
		})
	}
}

func TestNearestCrosswalkEnd(t *testing.T) {
	l := testLayout()
	end := l.NearestCrosswalkEnd(geom.Vec2{X: 2, Z: 7})
	if end != (geom.Vec2{X: 8, Z: 8}) {
		t.Errorf("NearestCrosswalkEnd = %v, want (8,8)", end)
	}
	if !l.Legal(end.X, end.Z) || l.OnCrosswalk(end) {
		t.Errorf("crosswalk end %v should be plain sidewalk", end)
	}
}

func TestDistToRoad(t *testing.T) {
	l := testLayout()
	if d := l.DistToRoad(2, 20); d != 0 {
		t.Errorf("on road distance = %v", d)
	}
	if d := l.DistToRoad(9, 20); math.Abs(d-3) > 1e-9 {
		t.Errorf("sidewalk distance = %v, want 3", d)
	}
}
