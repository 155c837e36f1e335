// Package prng provides a counter-based pseudo-random generator.
//
// A Rand is fully described by its seed and counter, so two generators
// built from the same seed produce identical streams regardless of what
// other code ran in between. Tiles derive their seed from HashCoord.
package prng

import "math"

const golden = 0x9e3779b97f4a7c15

// mix is the splitmix64 finalizer.
func mix(z uint64) uint64 {
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// HashCoord mixes a world seed with integer grid coordinates.
func HashCoord(seed int64, cx, cz int) uint64 {
	h := mix(uint64(seed) + golden)
	h = mix(h ^ (uint64(int64(cx)) * 0xd6e8feb86659fd93))
	h = mix(h ^ (uint64(int64(cz)) * 0xa0761d6478bd642f))
	return h
}

// Rand is a counter-based generator. The zero value is usable.
type Rand struct {
	seed    uint64
	counter uint64
}

// New returns a generator for the given seed.
func New(seed uint64) *Rand {
	return &Rand{seed: seed}
}

// Counter returns the number of values drawn so far.
func (r *Rand) Counter() uint64 { return r.counter }

// Uint64 returns the next value of the stream.
func (r *Rand) Uint64() uint64 {
	r.counter++
	return mix(r.seed + r.counter*golden)
}

// Float64 returns a value in [0, 1).
func (r *Rand) Float64() float64 {
	return float64(r.Uint64()>>11) / (1 << 53)
}

// Range returns a value in [lo, hi).
func (r *Rand) Range(lo, hi float64) float64 {
	return lo + (hi-lo)*r.Float64()
}

// Intn returns a value in [0, n). Returns 0 when n <= 0.
func (r *Rand) Intn(n int) int {
	if n <= 0 {
		r.Uint64()
		return 0
	}
	return int(r.Uint64() % uint64(n))
}

// IntRange returns a value in [lo, hi], inclusive.
func (r *Rand) IntRange(lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	return lo + r.Intn(hi-lo+1)
}

// Chance returns true with probability p.
func (r *Rand) Chance(p float64) bool {
	return r.Float64() < p
}

// Angle returns a value in [-Pi, Pi).
func (r *Rand) Angle() float64 {
	return r.Range(-math.Pi, math.Pi)
}

// Sign returns -1 or 1.
func (r *Rand) Sign() float64 {
	if r.Uint64()&1 == 0 {
		return -1
	}
	return 1
}
