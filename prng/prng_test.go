package prng

import "testing"

func TestRandDeterministic(t *testing.T) {
	a := New(42)
	b := New(42)
	for i := 0; i < 1000; i++ {
		if x, y := a.Uint64(), b.Uint64(); x != y {
			t.Fatalf("draw %d differs: %d vs %d", i, x, y)
		}
	}
	if a.Counter() != 1000 {
		t.Errorf("Counter() = %d, want 1000", a.Counter())
	}
}

func TestRandRanges(t *testing.T) {
	r := New(7)
	for i := 0; i < 10000; i++ {
		if f := r.Float64(); f < 0 || f >= 1 {
			t.Fatalf("Float64 out of range: %v", f)
		}
		if v := r.Range(-3, 5); v < -3 || v >= 5 {
			t.Fatalf("Range out of bounds: %v", v)
		}
		if n := r.Intn(6); n < 0 || n >= 6 {
			t.Fatalf("Intn out of bounds: %d", n)
		}
		if n := r.IntRange(2, 5); n < 2 || n > 5 {
			t.Fatalf("IntRange out of bounds: %d", n)
		}
	}
}

func TestHashCoord(t *testing.T) {
	tests := []struct {
		name   string
		a, b   [2]int
		sameAs bool
	}{
		{"same coordinate", [2]int{3, -4}, [2]int{3, -4}, true},
		{"swapped axes", [2]int{1, 2}, [2]int{2, 1}, false},
		{"neighbours", [2]int{0, 0}, [2]int{1, 0}, false},
		{"negative", [2]int{-1, 0}, [2]int{1, 0}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ha := HashCoord(99, tt.a[0], tt.a[1])
			hb := HashCoord(99, tt.b[0], tt.b[1])
			if (ha == hb) != tt.sameAs {
				t.Errorf("HashCoord(%v)=%x HashCoord(%v)=%x", tt.a, ha, tt.b, hb)
			}
		})
	}
	if HashCoord(1, 0, 0) == HashCoord(2, 0, 0) {
		t.Error("world seed should change the hash")
	}
}
