// Package components defines ECS components for batched pedestrian tiers.
package components

// Position represents an entity's ground position.
type Position struct {
	X, Z float64
}

// Motion represents an entity's heading and walking speed.
type Motion struct {
	Yaw   float64 // radians, 0 faces +z
	Speed float64 // units per second
}
