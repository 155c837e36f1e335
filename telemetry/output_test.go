package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/citywalk/config"
)

func TestOutputManager_Disabled(t *testing.T) {
	om, err := NewOutputManager("", "")
	if err != nil || om != nil {
		t.Fatalf("empty dir: om %v err %v", om, err)
	}
	// Nil manager is a no-op.
	if err := om.WriteTelemetry(WindowStats{}); err != nil {
		t.Error(err)
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
	if om.Dir() != "" || om.RunID() != "" {
		t.Error("nil manager should report empty dir and run id")
	}
}

func TestOutputManager_WritesHeaderOnce(t *testing.T) {
	dir, runID := RunDir(t.TempDir())
	if !strings.HasPrefix(filepath.Base(dir), "run-") || runID == "" {
		t.Fatalf("RunDir = %q, %q", dir, runID)
	}

	om, err := NewOutputManager(dir, runID)
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i <= 3; i++ {
		if err := om.WriteTelemetry(WindowStats{WindowEnd: float64(i * 5), Promotions: i}); err != nil {
			t.Fatal(err)
		}
	}
	if err := om.WriteBookmark(Bookmark{Type: BookmarkFrameSpike, SimTime: 10, Description: "spike"}); err != nil {
		t.Fatal(err)
	}
	if err := om.WritePerf(PerfStats{}, 15); err != nil {
		t.Fatal(err)
	}
	if err := om.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "telemetry.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("telemetry.csv has %d lines, want header + 3", len(lines))
	}
	if !strings.HasPrefix(lines[0], "sim_time,frames,") {
		t.Errorf("header = %q", lines[0])
	}
	if strings.Count(string(data), "sim_time") != 1 {
		t.Error("header written more than once")
	}

	bm, err := os.ReadFile(filepath.Join(dir, "bookmarks.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(bm), "frame_spike") {
		t.Errorf("bookmarks.csv = %q", bm)
	}
}

func TestOutputManager_WriteConfig(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir, "fixed")
	if err != nil {
		t.Fatal(err)
	}
	defer om.Close()

	if err := om.WriteConfig(config.Defaults()); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.World.TileSize != config.Defaults().World.TileSize {
		t.Errorf("round trip tile size = %v", cfg.World.TileSize)
	}
}
