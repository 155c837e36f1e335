// Package config provides configuration loading and access for the city simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen     ScreenConfig     `yaml:"screen"`
	World      WorldConfig      `yaml:"world"`
	Streets    StreetsConfig    `yaml:"streets"`
	Buildings  BuildingsConfig  `yaml:"buildings"`
	Signals    SignalsConfig    `yaml:"signals"`
	Population PopulationConfig `yaml:"population"`
	Handoff    HandoffConfig    `yaml:"handoff"`
	Agents     AgentsConfig     `yaml:"agents"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Quality    QualityConfig    `yaml:"quality"`
	Tour       TourConfig       `yaml:"tour"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// WorldConfig holds tile streaming parameters.
type WorldConfig struct {
	Seed          int64   `yaml:"seed"`            // World seed mixed into every tile hash
	TileSize      float64 `yaml:"tile_size"`       // Edge length of a square tile in world units
	LoadRadius    int     `yaml:"load_radius"`     // Chebyshev radius of loaded tiles around the observer
	MaxLoadRadius int     `yaml:"max_load_radius"` // Upper bound for runtime load radius changes
	LODDistance   float64 `yaml:"lod_distance"`    // Tiles closer than this show high-detail buildings
	MaxDT         float64 `yaml:"max_dt"`          // Frame delta clamp (seconds)
}

// StreetsConfig holds the fixed street cross-section. All values are world units.
type StreetsConfig struct {
	RoadHalfWidth  float64 `yaml:"road_half_width"`
	SidewalkWidth  float64 `yaml:"sidewalk_width"`
	CrosswalkWidth float64 `yaml:"crosswalk_width"`
	StripeWidth    float64 `yaml:"stripe_width"`  // Zebra stripe width
	MarkingWidth   float64 `yaml:"marking_width"` // Lane/edge line width
	DashLength     float64 `yaml:"dash_length"`
	DashGap        float64 `yaml:"dash_gap"`
}

// BuildingsConfig holds building placement and detail parameters.
type BuildingsConfig struct {
	MinPerLot         int     `yaml:"min_per_lot"`
	MaxPerLot         int     `yaml:"max_per_lot"`
	PlacementAttempts int     `yaml:"placement_attempts"` // Rejection sampling tries per building
	Padding           float64 `yaml:"padding"`            // Gap kept between footprints
	LotMargin         float64 `yaml:"lot_margin"`         // Inset from the lot edge
	MinSize           float64 `yaml:"min_size"`
	MaxSize           float64 `yaml:"max_size"`
	MinHeight         float64 `yaml:"min_height"`
	MaxHeight         float64 `yaml:"max_height"`
	FloorHeight       float64 `yaml:"floor_height"`
	WindowSpacing     float64 `yaml:"window_spacing"`
	WindowDensity     float64 `yaml:"window_density"` // Probability a lattice cell gets a window
	DistrictScale     float64 `yaml:"district_scale"` // Noise frequency for height districts
	DistrictWeight    float64 `yaml:"district_weight"`
}

// SignalsConfig holds phase durations in seconds.
type SignalsConfig struct {
	Green  float64 `yaml:"green"`
	Yellow float64 `yaml:"yellow"`
	AllRed float64 `yaml:"all_red"`
}

// TierConfig holds the pool and cadence settings of one population tier.
type TierConfig struct {
	Capacity      int     `yaml:"capacity"`       // Pool size allocated at startup
	ActiveCap     int     `yaml:"active_cap"`     // Runtime cap (0 = capacity)
	Radius        float64 `yaml:"radius"`         // Logical radius around the observer
	UpdateHz      float64 `yaml:"update_hz"`      // 0 = every frame
	SpawnPerTick  int     `yaml:"spawn_per_tick"` // Lazy population rate
	RecycleFactor float64 `yaml:"recycle_factor"` // Recycle beyond Radius*RecycleFactor
	FadeIn        float64 `yaml:"fade_in"`        // Seconds to fade in after a spawn/recycle
	FadeBand      float64 `yaml:"fade_band"`      // Distance over which opacity ramps
}

// PopulationConfig holds the three tiers.
type PopulationConfig struct {
	Sim   TierConfig `yaml:"sim"`
	Crowd TierConfig `yaml:"crowd"`
	Fake  TierConfig `yaml:"fake"`
}

// HandoffConfig holds Crowd -> Sim promotion parameters.
type HandoffConfig struct {
	Hz            float64 `yaml:"hz"`
	Distance      float64 `yaml:"distance"`       // Candidates within sim radius + distance
	ForceRadius   float64 `yaml:"force_radius"`   // Always convert inside this radius
	MinSpacing    float64 `yaml:"min_spacing"`    // Preferred spacing from existing Sim agents
	RoadCorridor  float64 `yaml:"road_corridor"`  // Preferred max distance from the curb
	MinPerTick    int     `yaml:"min_per_tick"`   // Promotions per tick at rest
	MaxPerTick    int     `yaml:"max_per_tick"`   // Promotions per tick at speed
	SpeedForMax   float64 `yaml:"speed_for_max"`  // Observer speed that unlocks MaxPerTick
	LockTime      float64 `yaml:"lock_time"`      // Lock timer refreshed on candidates
	FadeIn        float64 `yaml:"fade_in"`        // Sim skeleton fade-in
	FadeOut       float64 `yaml:"fade_out"`       // Crowd fade-out
	Suppress      float64 `yaml:"suppress"`       // Hidden time before a faded slot recycles
	MoveRamp      float64 `yaml:"move_ramp"`      // Sim movement ramp after promotion
	BackOffset    float64 `yaml:"back_offset"`    // Placement behind the crowd agent
	LateralJitter float64 `yaml:"lateral_jitter"` // Max sideways jitter
}

// AgentsConfig holds pedestrian behaviour parameters.
type AgentsConfig struct {
	Radius           float64 `yaml:"radius"`
	MinSpeed         float64 `yaml:"min_speed"`
	MaxSpeed         float64 `yaml:"max_speed"`
	RunnerChance     float64 `yaml:"runner_chance"`
	RunnerMult       float64 `yaml:"runner_mult"`
	PhoneChance      float64 `yaml:"phone_chance"`
	PhoneMult        float64 `yaml:"phone_mult"`
	PhoneIntervalMin float64 `yaml:"phone_interval_min"`
	PhoneIntervalMax float64 `yaml:"phone_interval_max"`
	PhonePauseMin    float64 `yaml:"phone_pause_min"`
	PhonePauseMax    float64 `yaml:"phone_pause_max"`
	ObedientChance   float64 `yaml:"obedient_chance"`
	TurnRate         float64 `yaml:"turn_rate"` // rad/s
	ArrivalDist      float64 `yaml:"arrival_dist"`
	IdleChance       float64 `yaml:"idle_chance"`
	IdleMin          float64 `yaml:"idle_min"`
	IdleMax          float64 `yaml:"idle_max"`
	DestMin          float64 `yaml:"dest_min"` // Destination annulus inner radius
	DestMax          float64 `yaml:"dest_max"` // Destination annulus outer radius
	DestAttempts     int     `yaml:"dest_attempts"`
	ObserverRadius   float64 `yaml:"observer_radius"`
	SeparationRadius float64 `yaml:"separation_radius"`
	StumbleTime      float64 `yaml:"stumble_time"`
	StumbleSpeed     float64 `yaml:"stumble_speed"` // Closing speed that triggers a stumble
	VehiclePush      float64 `yaml:"vehicle_push"`  // Push per unit of closing speed
	CrowdMinSpeed    float64 `yaml:"crowd_min_speed"`
	CrowdMaxSpeed    float64 `yaml:"crowd_max_speed"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"` // Seconds per stats window
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
}

// QualityConfig holds the adaptive quality governor settings.
type QualityConfig struct {
	Enabled        bool    `yaml:"enabled"`
	TargetFrameMS  float64 `yaml:"target_frame_ms"`
	Headroom       float64 `yaml:"headroom"`        // Fraction of target below which quality steps up
	AdjustInterval float64 `yaml:"adjust_interval"` // Seconds between adjustments
	MinLoadRadius  int     `yaml:"min_load_radius"`
	MinCrowdCap    int     `yaml:"min_crowd_cap"`
	MinFakeCap     int     `yaml:"min_fake_cap"`
	CapStep        int     `yaml:"cap_step"`
}

// TourConfig holds the scripted observer used by headless runs.
type TourConfig struct {
	Speed      float64 `yaml:"speed"`
	TurnChance float64 `yaml:"turn_chance"` // Probability of turning at an intersection
	Lane       float64 `yaml:"lane"`        // Offset from the road centre line
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	CrosswalkOffset float64 // Distance from the intersection centre to a crosswalk centre
	CurbOffset      float64 // RoadHalfWidth + SidewalkWidth
	CycleLength     float64 // Full signal cycle in seconds
	SimInterval     float64 // Seconds between Sim updates (0 = every frame)
	CrowdInterval   float64
	FakeInterval    float64
	HandoffInterval float64
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Defaults returns a fresh copy of the embedded defaults.
func Defaults() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	cfg.ComputeDerived()

	return cfg, nil
}

// Validate reports every invalid value at once.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	w := c.World
	check(w.TileSize > 0, "world.tile_size must be positive, got %v", w.TileSize)
	check(w.LoadRadius >= 0, "world.load_radius must be >= 0, got %d", w.LoadRadius)
	check(w.MaxLoadRadius >= w.LoadRadius, "world.max_load_radius (%d) below load_radius (%d)", w.MaxLoadRadius, w.LoadRadius)
	check(w.MaxDT > 0, "world.max_dt must be positive")

	s := c.Streets
	check(s.RoadHalfWidth > 0, "streets.road_half_width must be positive")
	check(s.SidewalkWidth > 0, "streets.sidewalk_width must be positive")
	check(s.CrosswalkWidth > 0 && s.CrosswalkWidth <= s.SidewalkWidth,
		"streets.crosswalk_width must be in (0, sidewalk_width], got %v", s.CrosswalkWidth)
	check(2*(s.RoadHalfWidth+s.SidewalkWidth) < w.TileSize,
		"streets do not fit in a tile of size %v", w.TileSize)

	b := c.Buildings
	check(b.MinPerLot >= 0 && b.MaxPerLot >= b.MinPerLot, "buildings per lot range is invalid")
	check(b.PlacementAttempts > 0, "buildings.placement_attempts must be positive")
	check(b.MinSize > 0 && b.MaxSize >= b.MinSize, "buildings size range is invalid")
	check(b.MinHeight > 0 && b.MaxHeight >= b.MinHeight, "buildings height range is invalid")
	check(b.FloorHeight > 0 && b.WindowSpacing > 0, "buildings floor/window spacing must be positive")

	g := c.Signals
	check(g.Green > 0 && g.Yellow >= 0 && g.AllRed > 0, "signal durations are invalid")

	p := c.Population
	for _, t := range []struct {
		name string
		tier TierConfig
	}{{"sim", p.Sim}, {"crowd", p.Crowd}, {"fake", p.Fake}} {
		check(t.tier.Capacity >= 0, "population.%s.capacity must be >= 0", t.name)
		check(t.tier.Radius > 0, "population.%s.radius must be positive", t.name)
		check(t.tier.UpdateHz >= 0, "population.%s.update_hz must be >= 0", t.name)
	}
	check(p.Sim.Radius < p.Crowd.Radius && p.Crowd.Radius < p.Fake.Radius,
		"tier radii must increase sim < crowd < fake")

	h := c.Handoff
	check(h.Hz > 0, "handoff.hz must be positive")
	check(h.MinPerTick >= 0 && h.MaxPerTick >= h.MinPerTick, "handoff per-tick range is invalid")
	check(h.FadeIn > 0 && h.FadeOut > 0, "handoff fades must be positive")
	check(h.FadeOut <= h.FadeIn, "handoff.fade_out (%v) must not exceed fade_in (%v)", h.FadeOut, h.FadeIn)

	a := c.Agents
	check(a.Radius > 0, "agents.radius must be positive")
	check(a.MinSpeed > 0 && a.MaxSpeed >= a.MinSpeed, "agents speed range is invalid")
	check(a.DestMin >= 0 && a.DestMax > a.DestMin, "agents destination annulus is invalid")

	return errors.Join(errs...)
}

// ComputeDerived calculates values derived from loaded config.
// Call again after mutating frequencies or street sizes at runtime.
func (c *Config) ComputeDerived() {
	c.Derived.CrosswalkOffset = c.Streets.RoadHalfWidth + c.Streets.SidewalkWidth/2
	c.Derived.CurbOffset = c.Streets.RoadHalfWidth + c.Streets.SidewalkWidth
	c.Derived.CycleLength = 2 * (c.Signals.Green + c.Signals.Yellow + c.Signals.AllRed)
	c.Derived.SimInterval = interval(c.Population.Sim.UpdateHz)
	c.Derived.CrowdInterval = interval(c.Population.Crowd.UpdateHz)
	c.Derived.FakeInterval = interval(c.Population.Fake.UpdateHz)
	c.Derived.HandoffInterval = interval(c.Handoff.Hz)
}

func interval(hz float64) float64 {
	if hz <= 0 {
		return 0
	}
	return 1 / hz
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
