package game

import (
	"testing"
	"time"

	"github.com/pthm-cable/citywalk/config"
	"github.com/pthm-cable/citywalk/population"
)

type fakeTunable struct {
	radius, maxRadius int
	caps, capacity    map[population.Tier]int
}

func newFakeTunable() *fakeTunable {
	return &fakeTunable{
		radius:    2,
		maxRadius: 3,
		caps:      map[population.Tier]int{population.TierCrowd: 100, population.TierFake: 100},
		capacity:  map[population.Tier]int{population.TierCrowd: 120, population.TierFake: 100},
	}
}

func (f *fakeTunable) LoadRadius() int { return f.radius }
func (f *fakeTunable) MaxLoadRadius() int { return f.maxRadius }
func (f *fakeTunable) SetLoadRadius(r int) { f.radius = r }
func (f *fakeTunable) ActiveCap(t population.Tier) int { return f.caps[t] }
func (f *fakeTunable) Capacity(t population.Tier) int { return f.capacity[t] }
func (f *fakeTunable) SetActiveCap(t population.Tier, n int) { f.caps[t] = n }

func testQuality() config.QualityConfig {
	return config.QualityConfig{
		Enabled:        true,
		TargetFrameMS:  10,
		Headroom:       0.5,
		AdjustInterval: 1,
		MinLoadRadius:  1,
		MinCrowdCap:    60,
		MinFakeCap:     60,
		CapStep:        30,
	}
}

func TestGovernorDegradeOrder(t *testing.T) {
	g := NewGovernor(testQuality(), 2)
	tun := newFakeTunable()
	slow := 20 * time.Millisecond

	want := []Adjustment{
		{Knob: KnobFakeCap, From: 100, To: 70},
		{Knob: KnobFakeCap, From: 70, To: 60},
		{Knob: KnobCrowdCap, From: 100, To: 70},
		{Knob: KnobCrowdCap, From: 70, To: 60},
		{Knob: KnobLoadRadius, From: 2, To: 1},
	}
	for i, w := range want {
		adj, ok := g.Update(float64(i), slow, tun)
		if !ok {
			t.Fatalf("step %d: no adjustment", i)
		}
		if adj.Knob != w.Knob || adj.From != w.From || adj.To != w.To {
			t.Errorf("step %d: got %+v, want %+v", i, adj, w)
		}
	}
	if _, ok := g.Update(10, slow, tun); ok {
		t.Error("adjusted below every floor")
	}
}

func TestGovernorRestoreOrder(t *testing.T) {
	g := NewGovernor(testQuality(), 2)
	tun := newFakeTunable()
	tun.radius = 1
	tun.caps[population.TierCrowd] = 60
	tun.caps[population.TierFake] = 60
	fast := 2 * time.Millisecond

	var knobs []Knob
	for i := 0; i < 10; i++ {
		adj, ok := g.Update(float64(i), fast, tun)
		if !ok {
			break
		}
		knobs = append(knobs, adj.Knob)
	}
	want := []Knob{KnobLoadRadius, KnobCrowdCap, KnobCrowdCap, KnobFakeCap, KnobFakeCap}
	if len(knobs) != len(want) {
		t.Fatalf("knobs = %v, want %v", knobs, want)
	}
	for i := range want {
		if knobs[i] != want[i] {
			t.Errorf("step %d: %s, want %s", i, knobs[i], want[i])
		}
	}
	if tun.radius != 2 || tun.caps[population.TierCrowd] != 120 || tun.caps[population.TierFake] != 100 {
		t.Errorf("restored to radius %d caps %v", tun.radius, tun.caps)
	}
}

// TestGovernorRestoreStopsAtConfiguredRadius checks headroom never streams
// past the configured radius even when the runtime bound allows it.
func TestGovernorRestoreStopsAtConfiguredRadius(t *testing.T) {
	g := NewGovernor(testQuality(), 2)
	tun := newFakeTunable()
	tun.maxRadius = 4
	tun.caps[population.TierCrowd] = tun.capacity[population.TierCrowd]
	for i := 0; i < 5; i++ {
		if adj, ok := g.Update(float64(i), 2*time.Millisecond, tun); ok && adj.Knob == KnobLoadRadius {
			t.Fatalf("step %d: raised load radius %d -> %d", i, adj.From, adj.To)
		}
	}
	if tun.radius != 2 {
		t.Errorf("radius = %d, want 2", tun.radius)
	}
}

func TestGovernorHoldsInBand(t *testing.T) {
	g := NewGovernor(testQuality(), 2)
	tun := newFakeTunable()
	// 7ms is below target but above target*headroom.
	if _, ok := g.Update(0, 7*time.Millisecond, tun); ok {
		t.Error("adjusted inside the dead band")
	}
}

func TestGovernorInterval(t *testing.T) {
	g := NewGovernor(testQuality(), 2)
	tun := newFakeTunable()
	slow := 20 * time.Millisecond
	if _, ok := g.Update(0, slow, tun); !ok {
		t.Fatal("first update should adjust")
	}
	if _, ok := g.Update(0.5, slow, tun); ok {
		t.Error("adjusted before the interval elapsed")
	}
	if _, ok := g.Update(1, slow, tun); !ok {
		t.Error("no adjustment after the interval")
	}
}

func TestGovernorDisabled(t *testing.T) {
	q := testQuality()
	q.Enabled = false
	g := NewGovernor(q, 2)
	if _, ok := g.Update(0, time.Second, newFakeTunable()); ok {
		t.Error("disabled governor adjusted")
	}
	g.SetEnabled(true)
	if _, ok := g.Update(0, time.Second, newFakeTunable()); !ok {
		t.Error("enabled governor did not adjust")
	}
}

func TestGovernorDrivesGame(t *testing.T) {
	gm := newTestGame(t, Options{}, func(c *config.Config) {
		c.Quality = testQuality()
		c.Quality.MinCrowdCap = 40
		c.Quality.MinFakeCap = 80
		c.Quality.TargetFrameMS = 1e-6 // Every frame is over budget.
	})
	fake := gm.ActiveCap(population.TierFake)
	for i := 0; i < 90; i++ {
		gm.StepTour(testDT)
	}
	if gm.LastAdjustment() == nil {
		t.Fatal("governor never adjusted")
	}
	if gm.ActiveCap(population.TierFake) >= fake {
		t.Errorf("fake cap %d not reduced from %d", gm.ActiveCap(population.TierFake), fake)
	}
}
