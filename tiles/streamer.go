package tiles

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/pthm-cable/citywalk/config"
	"github.com/pthm-cable/citywalk/geom"
	"github.com/pthm-cable/citywalk/signals"
)

// TileListener is notified when tiles enter or leave the loaded set.
// The render host uses it to build and release meshes.
type TileListener interface {
	TileLoaded(t *Tile)
	TileUnloaded(t *Tile)
}

// UpdateResult reports what one Update changed.
type UpdateResult struct {
	Loaded  int
	Evicted int
}

// Streamer keeps the tiles within a Chebyshev radius of the observer loaded.
type Streamer struct {
	gen   *Generator
	sched *signals.Scheduler

	tiles         map[Coord]*Tile
	ordered       []*Tile // Loaded tiles sorted by coordinate
	loadRadius    int
	maxLoadRadius int
	lodDistance   float64
	center        Coord

	listener TileListener
	scratch  []geom.AABB
}

// NewStreamer creates a streamer. The scheduler receives every loaded tile's
// signal posts.
func NewStreamer(cfg *config.Config, gen *Generator, sched *signals.Scheduler) (*Streamer, error) {
	if gen == nil {
		return nil, errors.New("nil generator")
	}
	if sched == nil {
		return nil, errors.New("nil signal scheduler")
	}
	if cfg.World.MaxLoadRadius < 0 {
		return nil, fmt.Errorf("invalid max load radius %d", cfg.World.MaxLoadRadius)
	}
	s := &Streamer{
		gen:           gen,
		sched:         sched,
		tiles:         make(map[Coord]*Tile),
		maxLoadRadius: cfg.World.MaxLoadRadius,
		lodDistance:   cfg.World.LODDistance,
	}
	s.SetLoadRadius(cfg.World.LoadRadius)
	return s, nil
}

// SetListener installs the tile listener. Pass nil to remove it.
func (s *Streamer) SetListener(l TileListener) { s.listener = l }

// SetLoadRadius sets the Chebyshev load radius, clamped to [0, max].
// Takes effect on the next Update.
func (s *Streamer) SetLoadRadius(r int) {
	s.loadRadius = max(0, min(r, s.maxLoadRadius))
}

// LoadRadius returns the current load radius.
func (s *Streamer) LoadRadius() int { return s.loadRadius }

// MaxLoadRadius returns the upper bound for SetLoadRadius.
func (s *Streamer) MaxLoadRadius() int { return s.maxLoadRadius }

// SetLODDistance sets the high-detail switch distance.
func (s *Streamer) SetLODDistance(d float64) {
	if d >= 0 && geom.IsFinite(d) {
		s.lodDistance = d
	}
}

// LODDistance returns the high-detail switch distance.
func (s *Streamer) LODDistance() float64 { return s.lodDistance }

// Generator returns the tile generator.
func (s *Streamer) Generator() *Generator { return s.gen }

// Update loads and evicts tiles around the observer and refreshes per-tile LOD.
func (s *Streamer) Update(observer geom.Vec2) UpdateResult {
	var res UpdateResult
	if !observer.IsFinite() {
		return res
	}
	l := s.gen.Layout()
	cx, cz := l.TileCoord(observer.X, observer.Z)
	s.center = Coord{X: cx, Z: cz}
	r := s.loadRadius

	for c, t := range s.tiles {
		if c.ChebyshevDist(s.center) > r {
			s.unload(t)
			res.Evicted++
		}
	}
	for dz := -r; dz <= r; dz++ {
		for dx := -r; dx <= r; dx++ {
			c := Coord{X: cx + dx, Z: cz + dz}
			if _, ok := s.tiles[c]; !ok {
				s.load(c)
				res.Loaded++
			}
		}
	}
	if res.Loaded > 0 || res.Evicted > 0 {
		s.rebuildOrder()
		slog.Debug("tiles streamed", "center", s.center.String(), "loaded", res.Loaded, "evicted", res.Evicted, "total", len(s.tiles))
	}

	lodSq := s.lodDistance * s.lodDistance
	for _, t := range s.ordered {
		t.HighDetail = observer.DistSq(t.Center) <= lodSq
	}
	return res
}

func (s *Streamer) load(c Coord) {
	t := s.gen.Generate(c)
	for i := range t.Signals {
		p := &t.Signals[i]
		p.ID = s.sched.Register(signals.Signal{Group: p.Group, X: p.Pos.X, Z: p.Pos.Z})
	}
	s.tiles[c] = t
	if s.listener != nil {
		s.listener.TileLoaded(t)
	}
}

func (s *Streamer) unload(t *Tile) {
	for _, p := range t.Signals {
		s.sched.Unregister(p.ID)
	}
	delete(s.tiles, t.Coord)
	if s.listener != nil {
		s.listener.TileUnloaded(t)
	}
}

func (s *Streamer) rebuildOrder() {
	s.ordered = s.ordered[:0]
	for _, t := range s.tiles {
		s.ordered = append(s.ordered, t)
	}
	sort.Slice(s.ordered, func(i, j int) bool {
		a, b := s.ordered[i].Coord, s.ordered[j].Coord
		if a.Z != b.Z {
			return a.Z < b.Z
		}
		return a.X < b.X
	})
}

// Reload evicts every tile and switches to a new generator, used when the
// tile size or street layout changes. Tiles reload on the next Update.
func (s *Streamer) Reload(gen *Generator) {
	for _, t := range s.ordered {
		s.unload(t)
	}
	s.ordered = s.ordered[:0]
	if gen != nil {
		s.gen = gen
	}
	slog.Info("tiles reloaded", "tile_size", s.gen.Layout().TileSize)
}

// Tile returns the loaded tile at c.
func (s *Streamer) Tile(c Coord) (*Tile, bool) {
	t, ok := s.tiles[c]
	return t, ok
}

// Tiles returns loaded tiles sorted by coordinate. The slice is owned by the
// streamer and valid until the next Update.
func (s *Streamer) Tiles() []*Tile { return s.ordered }

// Count returns the number of loaded tiles.
func (s *Streamer) Count() int { return len(s.tiles) }

// Center returns the observer's tile at the last Update.
func (s *Streamer) Center() Coord { return s.center }

// BuildingCount returns the number of buildings across loaded tiles.
func (s *Streamer) BuildingCount() int {
	n := 0
	for _, t := range s.ordered {
		n += len(t.Buildings)
	}
	return n
}
