package signals

import (
	"math"
	"testing"
)

func TestPhaseAt(t *testing.T) {
	s := NewScheduler(8, 2, 1.5)
	tests := []struct {
		t    float64
		want Phase
	}{
		{0, NSGreen},
		{7.99, NSGreen},
		{8, NSYellow},
		{10, AllRedAfterNS},
		{11.5, EWGreen},
		{19.5, EWYellow},
		{21.5, AllRedAfterEW},
		{22.99, AllRedAfterEW},
		{23, NSGreen},
		{-1, AllRedAfterEW},
	}
	for _, tt := range tests {
		if got := s.PhaseAt(tt.t); got != tt.want {
			t.Errorf("PhaseAt(%v) = %v, want %v", tt.t, got, tt.want)
		}
	}
	if s.Cycle() != 23 {
		t.Errorf("Cycle() = %v, want 23", s.Cycle())
	}
}

func TestSignalConsistency(t *testing.T) {
	s := NewScheduler(8, 2, 1.5)
	for step := 0; step < 10000; step++ {
		tm := float64(step) * 0.0173
		nsCross := s.CanCrossAxisAt(NS, tm)
		ewCross := s.CanCrossAxisAt(EW, tm)
		if nsCross == ewCross {
			t.Fatalf("t=%v: crossable NS=%v EW=%v", tm, nsCross, ewCross)
		}

		p := s.PhaseAt(tm)
		nsGreen := lampFor(p, NS) != Red
		ewGreen := lampFor(p, EW) != Red
		allRed := !nsGreen && !ewGreen
		held := 0
		for _, b := range []bool{nsGreen, ewGreen, allRed} {
			if b {
				held++
			}
		}
		if held != 1 {
			t.Fatalf("t=%v phase %v: %d of {ns, ew, all-red} hold", tm, p, held)
		}

		// Never cross into moving traffic.
		if nsCross && nsGreen {
			t.Fatalf("t=%v: NS crossing allowed while NS traffic moves", tm)
		}
		if ewCross && ewGreen {
			t.Fatalf("t=%v: EW crossing allowed while EW traffic moves", tm)
		}
	}
}

func TestAdvance(t *testing.T) {
	s := NewScheduler(8, 2, 1.5)
	s.Advance(30)
	if math.Abs(s.Time()-7) > 1e-9 {
		t.Errorf("Time() after 30s = %v, want 7", s.Time())
	}

	before := s.Time()
	for _, dt := range []float64{-1, math.NaN(), math.Inf(1), 0} {
		s.Advance(dt)
	}
	if s.Time() != before {
		t.Errorf("invalid dt changed the clock: %v -> %v", before, s.Time())
	}
}

func TestRightOfWay(t *testing.T) {
	tests := []struct {
		name   string
		at     float64
		group  Group
		moving bool
	}{
		{"ns green", 1, NS, true},
		{"ns yellow", 9, NS, true},
		{"clearance", 10.5, 0, false},
		{"ew green", 12, EW, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScheduler(8, 2, 1.5)
			s.Advance(tt.at)
			g, ok := s.RightOfWay()
			if ok != tt.moving || (ok && g != tt.group) {
				t.Errorf("RightOfWay() = (%v, %v), want (%v, %v)", g, ok, tt.group, tt.moving)
			}
		})
	}
}

func TestRegistry(t *testing.T) {
	s := NewScheduler(8, 2, 1.5)
	a := s.Register(Signal{Group: NS})
	b := s.Register(Signal{Group: EW})
	if a == b {
		t.Fatal("ids must be unique")
	}
	if s.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", s.Count())
	}

	if lamp, ok := s.SignalLamp(a); !ok || lamp != Green {
		t.Errorf("NS lamp at t=0 = %v, want green", lamp)
	}
	if lamp, ok := s.SignalLamp(b); !ok || lamp != Red {
		t.Errorf("EW lamp at t=0 = %v, want red", lamp)
	}

	s.Unregister(a)
	s.Unregister(a)
	if s.Count() != 1 {
		t.Errorf("Count() after unregister = %d, want 1", s.Count())
	}
	if _, ok := s.SignalLamp(a); ok {
		t.Error("unregistered signal still readable")
	}
}
