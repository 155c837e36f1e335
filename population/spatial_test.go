package population

import (
	"math"
	"sort"
	"testing"

	"github.com/pthm-cable/citywalk/geom"
	"github.com/pthm-cable/citywalk/prng"
)

func TestSpatialGridMatchesBruteForce(t *testing.T) {
	g := NewSpatialGrid(2, 64)
	rng := prng.New(11)
	pts := make([]geom.Vec2, 200)
	for i := range pts {
		pts[i] = geom.Vec2{X: rng.Range(-500, 500), Z: rng.Range(-20, 20)}
		g.Insert(i, pts[i])
	}

	var buf []Neighbor
	for q := 0; q < 50; q++ {
		origin := pts[q]
		buf = g.QueryRadiusInto(buf[:0], origin, 6, q)

		var want []int
		for i, p := range pts {
			if i != q && p.DistSq(origin) <= 36 {
				want = append(want, i)
			}
		}
		if len(want) > MaxQueryResults {
			continue
		}
		got := make([]int, 0, len(buf))
		for _, n := range buf {
			got = append(got, n.Index)
		}
		sort.Ints(got)
		if len(got) != len(want) {
			t.Fatalf("query %d: got %v, want %v", q, got, want)
		}
		for i := range got {
			if got[i] != want[i] {
				t.Fatalf("query %d: got %v, want %v", q, got, want)
			}
		}
	}
}

func TestSpatialGridNegativeCells(t *testing.T) {
	g := NewSpatialGrid(1, 8)
	g.Insert(0, geom.Vec2{X: -0.4, Z: -0.4})
	g.Insert(1, geom.Vec2{X: 0.4, Z: 0.4})
	got := g.QueryRadiusInto(nil, geom.Vec2{X: -0.4, Z: -0.4}, 1.5, 0)
	if len(got) != 1 || got[0].Index != 1 {
		t.Fatalf("got %v, want neighbor 1 across the origin", got)
	}
	if d := got[0].D; d.X <= 0 || d.Z <= 0 {
		t.Errorf("delta %v should point to the neighbor", d)
	}
}

func TestSpatialGridClear(t *testing.T) {
	g := NewSpatialGrid(1, 8)
	g.Insert(0, geom.Vec2{})
	g.Clear()
	if got := g.QueryRadiusInto(nil, geom.Vec2{}, 5, -1); len(got) != 0 {
		t.Errorf("cleared grid returned %v", got)
	}
}

func TestSpatialGridInvalidQuery(t *testing.T) {
	g := NewSpatialGrid(1, 8)
	g.Insert(0, geom.Vec2{})
	if got := g.QueryRadiusInto(nil, geom.Vec2{}, 0, -1); len(got) != 0 {
		t.Errorf("zero radius returned %v", got)
	}
	if got := g.QueryRadiusInto(nil, geom.Vec2{X: math.NaN()}, 1, -1); len(got) != 0 {
		t.Errorf("NaN origin returned %v", got)
	}
}
