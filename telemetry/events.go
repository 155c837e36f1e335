// Package telemetry provides streaming and population health tracking,
// bookmarks and per-phase frame timing.
package telemetry

// EventType identifies telemetry events.
type EventType uint8

const (
	EventTileLoaded EventType = iota
	EventTileEvicted
	EventPromotion
	EventForcedPromotion
	EventCandidateMiss
	EventCrossingWait
	EventReplan
	EventRecycle
	EventStumble
	eventTypeCount
)

var eventNames = [eventTypeCount]string{
	"tile_loaded",
	"tile_evicted",
	"promotion",
	"forced_promotion",
	"candidate_miss",
	"crossing_wait",
	"replan",
	"recycle",
	"stumble",
}

func (t EventType) String() string {
	if t >= eventTypeCount {
		return "unknown"
	}
	return eventNames[t]
}

// Event is a batch of same-type occurrences within one frame.
type Event struct {
	Type  EventType
	Frame uint64
	Count int
}

// NewTileEvent creates a load or evict event for n tiles.
func NewTileEvent(frame uint64, loaded bool, n int) Event {
	t := EventTileEvicted
	if loaded {
		t = EventTileLoaded
	}
	return Event{Type: t, Frame: frame, Count: n}
}

// NewCountEvent creates an event carrying a counter delta.
func NewCountEvent(frame uint64, t EventType, delta uint64) Event {
	return Event{Type: t, Frame: frame, Count: int(delta)}
}
