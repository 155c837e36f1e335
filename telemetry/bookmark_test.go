package telemetry

import "testing"

func hasBookmark(bms []Bookmark, typ BookmarkType) bool {
	for _, bm := range bms {
		if bm.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_HandoffSurge(t *testing.T) {
	bd := NewBookmarkDetector(10)

	// Steady promotion rate
	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{WindowEnd: float64(i * 5), Promotions: 4})
	}

	// Walking into a dense crowd triples the rate
	bookmarks := bd.Check(WindowStats{WindowEnd: 25, Promotions: 12})
	if !hasBookmark(bookmarks, BookmarkHandoffSurge) {
		t.Error("expected handoff_surge bookmark")
	}
}

func TestBookmarkDetector_CandidateStarvation(t *testing.T) {
	bd := NewBookmarkDetector(10)
	bd.Check(WindowStats{WindowEnd: 5})

	bookmarks := bd.Check(WindowStats{WindowEnd: 10, Promotions: 1, Misses: 6})
	if !hasBookmark(bookmarks, BookmarkCandidateStarvation) {
		t.Error("expected candidate_starvation bookmark")
	}

	bookmarks = bd.Check(WindowStats{WindowEnd: 15, Promotions: 8, Misses: 3})
	if hasBookmark(bookmarks, BookmarkCandidateStarvation) {
		t.Error("misses below promotions should not bookmark")
	}
}

func TestBookmarkDetector_StreamingBurst(t *testing.T) {
	bd := NewBookmarkDetector(10)
	for i := 0; i < 4; i++ {
		bd.Check(WindowStats{WindowEnd: float64(i * 5), TilesLoaded: 2})
	}

	// Teleporting the observer reloads the whole window
	bookmarks := bd.Check(WindowStats{WindowEnd: 20, TilesLoaded: 25})
	if !hasBookmark(bookmarks, BookmarkStreamingBurst) {
		t.Error("expected streaming_burst bookmark")
	}
}

func TestBookmarkDetector_FrameSpike(t *testing.T) {
	bd := NewBookmarkDetector(10)
	for i := 0; i < 4; i++ {
		bd.Check(WindowStats{WindowEnd: float64(i * 5), FrameMSP95: 4})
	}
	bookmarks := bd.Check(WindowStats{WindowEnd: 20, FrameMSP95: 12})
	if !hasBookmark(bookmarks, BookmarkFrameSpike) {
		t.Error("expected frame_spike bookmark")
	}
}

func TestBookmarkDetector_SteadyCrowd(t *testing.T) {
	bd := NewBookmarkDetector(10)

	triggered := -1
	for i := 0; i < 10; i++ {
		bookmarks := bd.Check(WindowStats{WindowEnd: float64(i * 5), Crowd: 150, Sim: 24})
		if hasBookmark(bookmarks, BookmarkSteadyCrowd) {
			if triggered >= 0 {
				t.Fatalf("steady_crowd triggered twice (windows %d and %d)", triggered, i)
			}
			triggered = i
		}
	}
	if triggered != 8 {
		t.Errorf("steady_crowd triggered at window %d, want 8", triggered)
	}
}

func TestBookmarkDetector_FirstWindowSilent(t *testing.T) {
	bd := NewBookmarkDetector(10)
	bookmarks := bd.Check(WindowStats{Promotions: 100, Misses: 50, TilesLoaded: 25})
	if len(bookmarks) != 0 {
		t.Errorf("first window produced %v", bookmarks)
	}
}
