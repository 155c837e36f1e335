package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// OverlayID uniquely identifies an overlay.
type OverlayID string

// Standard overlay IDs.
const (
	OverlayTierRings OverlayID = "tier_rings"
	OverlayRoutes    OverlayID = "routes"
	OverlayWalkable  OverlayID = "walkable"
	OverlayObstacles OverlayID = "obstacles"
	OverlayObserver  OverlayID = "observer"
	OverlayPerf      OverlayID = "perf"
	OverlayHandoff   OverlayID = "handoff"
	OverlayQuality   OverlayID = "quality"
)

// OverlayDescriptor defines an overlay that can be toggled.
type OverlayDescriptor struct {
	ID          OverlayID
	Name        string
	Description string
	Key         int32  // 0 = no key
	KeyLabel    string // e.g. "R"
	Category    string // "debug" or "panels"
	Exclusive   []OverlayID
}

// OverlayRegistry manages overlay state and metadata.
type OverlayRegistry struct {
	descriptors []OverlayDescriptor
	byID        map[OverlayID]OverlayDescriptor
	enabled     map[OverlayID]bool
	order       []OverlayID
}

// NewOverlayRegistry creates a registry with default overlays.
func NewOverlayRegistry() *OverlayRegistry {
	reg := &OverlayRegistry{
		byID:    make(map[OverlayID]OverlayDescriptor),
		enabled: make(map[OverlayID]bool),
	}
	reg.registerDefaults()
	return reg
}

func (r *OverlayRegistry) registerDefaults() {
	r.Register(OverlayDescriptor{
		ID:          OverlayTierRings,
		Name:        "Tier Rings",
		Description: "Lock, force and tier radii around the observer",
		Key:         rl.KeyR,
		KeyLabel:    "R",
		Category:    "debug",
	})
	r.Register(OverlayDescriptor{
		ID:          OverlayRoutes,
		Name:        "Sim Routes",
		Description: "Remaining waypoints of every Sim agent",
		Key:         rl.KeyT,
		KeyLabel:    "T",
		Category:    "debug",
	})
	r.Register(OverlayDescriptor{
		ID:          OverlayWalkable,
		Name:        "Walkable",
		Description: "Sidewalk and crosswalk regions of loaded tiles",
		Key:         rl.KeyW,
		KeyLabel:    "W",
		Category:    "debug",
		Exclusive:   []OverlayID{OverlayObstacles},
	})
	r.Register(OverlayDescriptor{
		ID:          OverlayObstacles,
		Name:        "Obstacles",
		Description: "Building footprints used for collision",
		Key:         rl.KeyO,
		KeyLabel:    "O",
		Category:    "debug",
		Exclusive:   []OverlayID{OverlayWalkable},
	})
	r.Register(OverlayDescriptor{
		ID:          OverlayObserver,
		Name:        "Observer",
		Description: "Observer position and heading",
		Key:         rl.KeyV,
		KeyLabel:    "V",
		Category:    "debug",
	})

	r.Register(OverlayDescriptor{
		ID:          OverlayPerf,
		Name:        "Frame Phases",
		Description: "Per-phase frame timing",
		Key:         rl.KeyF,
		KeyLabel:    "F",
		Category:    "panels",
	})
	r.Register(OverlayDescriptor{
		ID:          OverlayHandoff,
		Name:        "Handoff",
		Description: "Handoff counters and pool usage",
		Key:         rl.KeyH,
		KeyLabel:    "H",
		Category:    "panels",
	})
	r.Register(OverlayDescriptor{
		ID:          OverlayQuality,
		Name:        "Quality",
		Description: "Runtime quality knobs",
		Key:         rl.KeyQ,
		KeyLabel:    "Q",
		Category:    "panels",
	})
}

// Register adds an overlay to the registry.
func (r *OverlayRegistry) Register(desc OverlayDescriptor) {
	r.descriptors = append(r.descriptors, desc)
	r.byID[desc.ID] = desc
	r.order = append(r.order, desc.ID)
	r.enabled[desc.ID] = false
}

// Toggle switches an overlay on/off and handles exclusivity.
func (r *OverlayRegistry) Toggle(id OverlayID) bool {
	if _, ok := r.byID[id]; !ok {
		return false
	}
	r.SetEnabled(id, !r.enabled[id])
	return r.enabled[id]
}

// SetEnabled explicitly sets an overlay's state.
func (r *OverlayRegistry) SetEnabled(id OverlayID, enabled bool) {
	desc, ok := r.byID[id]
	if !ok {
		return
	}
	r.enabled[id] = enabled
	if enabled {
		for _, excl := range desc.Exclusive {
			r.enabled[excl] = false
		}
	}
}

// IsEnabled returns whether an overlay is active.
func (r *OverlayRegistry) IsEnabled(id OverlayID) bool {
	return r.enabled[id]
}

// Get returns an overlay descriptor by ID.
func (r *OverlayRegistry) Get(id OverlayID) (OverlayDescriptor, bool) {
	desc, ok := r.byID[id]
	return desc, ok
}

// All returns all registered overlays in registration order.
func (r *OverlayRegistry) All() []OverlayDescriptor {
	return r.descriptors
}

// ByCategory returns overlays filtered by category.
func (r *OverlayRegistry) ByCategory(category string) []OverlayDescriptor {
	var result []OverlayDescriptor
	for _, desc := range r.descriptors {
		if desc.Category == category {
			result = append(result, desc)
		}
	}
	return result
}

// Categories returns all unique categories in order.
func (r *OverlayRegistry) Categories() []string {
	seen := make(map[string]bool)
	var cats []string
	for _, desc := range r.descriptors {
		if !seen[desc.Category] {
			seen[desc.Category] = true
			cats = append(cats, desc.Category)
		}
	}
	return cats
}

// HandleKeyPress checks if a key corresponds to an overlay toggle.
// Returns the overlay ID and new state if a toggle occurred.
func (r *OverlayRegistry) HandleKeyPress(key int32) (OverlayID, bool, bool) {
	for _, desc := range r.descriptors {
		if desc.Key != 0 && desc.Key == key {
			return desc.ID, r.Toggle(desc.ID), true
		}
	}
	return "", false, false
}

// EnabledOverlays returns a list of currently enabled overlay IDs.
func (r *OverlayRegistry) EnabledOverlays() []OverlayID {
	var result []OverlayID
	for _, id := range r.order {
		if r.enabled[id] {
			result = append(result, id)
		}
	}
	return result
}
