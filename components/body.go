package components

import "math"

// Anim holds the walk cycle of a batched agent. Batched agents have no
// skeleton; the renderer derives a bob and stride from the phase.
type Anim struct {
	Phase  float64 // radians, wraps at 2*Pi
	Stride float64 // phase advance per unit travelled
}

// Advance moves the walk cycle forward by a travelled distance.
func (a *Anim) Advance(dist float64) {
	a.Phase = math.Mod(a.Phase+dist*a.Stride, 2*math.Pi)
}
