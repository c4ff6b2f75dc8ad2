package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/elens/internal/config"
	"github.com/san-kum/elens/internal/tracking"
)

func testResult() *tracking.Result {
	return &tracking.Result{
		Turns: []tracking.TurnRecord{
			{Turn: 0, MeanX: 1e-3, MeanY: -2e-4, Alive: 10},
			{Turn: 1, MeanX: 0.3e-3, MeanY: 1.1e-4, Alive: 9},
		},
		Metrics:    map[string]float64{"lost_fraction": 0.1},
		TurnsTaken: 1,
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.Beam.Seed = 42

	runID, err := st.Save("hollow", cfg, testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if !strings.HasPrefix(runID, "hollow_") {
		t.Errorf("expected run id with label prefix, got %q", runID)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Seed != 42 {
		t.Errorf("expected seed 42, got %d", meta.Seed)
	}
	if meta.Survivors != 9 || meta.Turns != 1 {
		t.Errorf("expected 9 survivors after 1 turn, got %d after %d", meta.Survivors, meta.Turns)
	}
	if meta.Metrics["lost_fraction"] != 0.1 {
		t.Errorf("expected lost_fraction 0.1, got %f", meta.Metrics["lost_fraction"])
	}

	turns, err := st.LoadTurns(runID)
	if err != nil {
		t.Fatalf("load turns failed: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[1] != testResult().Turns[1] {
		t.Errorf("expected %+v, got %+v", testResult().Turns[1], turns[1])
	}
}

func TestStoreSameSecondRuns(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "nested", "runs"))
	cfg := config.DefaultConfig()

	a, err := st.Save("scan", cfg, testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	b, err := st.Save("scan", cfg, testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if a == b {
		t.Errorf("expected distinct run ids, got %q twice", a)
	}
}

func TestStoreListNaturalOrder(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	for _, id := range []string{"run_10", "run_9", "run_100"} {
		if err := os.MkdirAll(filepath.Join(dir, id), 0755); err != nil {
			t.Fatal(err)
		}
		if err := writeJSON(filepath.Join(dir, id, metadataFile), RunMetadata{ID: id}); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.MkdirAll(filepath.Join(dir, "not_a_run"), 0755); err != nil {
		t.Fatal(err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
	for i, id := range []string{"run_9", "run_10", "run_100"} {
		if runs[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, runs[i].ID)
		}
	}
}

func TestStoreExport(t *testing.T) {
	st := New(t.TempDir())
	runID, err := st.Save("", config.DefaultConfig(), testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	var buf bytes.Buffer
	if err := st.ExportJSON(&buf, runID); err != nil {
		t.Fatalf("export json failed: %v", err)
	}
	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if data.Run.ID != runID || len(data.Turns) != 2 {
		t.Errorf("unexpected export %+v", data)
	}

	buf.Reset()
	if err := st.ExportCSV(&buf, runID); err != nil {
		t.Fatalf("export csv failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 || lines[0] != "turn,mean_x,mean_y,alive" {
		t.Errorf("unexpected csv:\n%s", buf.String())
	}

	if err := st.ExportCSV(&buf, "missing"); err == nil {
		t.Error("expected error for missing run")
	}
}

func TestStoreRejectsPathLabels(t *testing.T) {
	root := t.TempDir()
	st := New(filepath.Join(root, "data"))

	for _, label := range []string{"../escape", "a/b", `a\b`, "..", "."} {
		if _, err := st.Save(label, config.DefaultConfig(), testResult()); !errors.Is(err, ErrInvalidLabel) {
			t.Errorf("label %q: expected ErrInvalidLabel, got %v", label, err)
		}
	}
	if _, err := st.Load("../data"); !errors.Is(err, ErrInvalidLabel) {
		t.Errorf("expected ErrInvalidLabel from Load, got %v", err)
	}
	if _, err := st.LoadTurns("../data"); !errors.Is(err, ErrInvalidLabel) {
		t.Errorf("expected ErrInvalidLabel from LoadTurns, got %v", err)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.Name() != "data" {
			t.Errorf("unexpected entry %q outside the data directory", e.Name())
		}
	}
}

func TestStoreSaveFailureLeavesNoRun(t *testing.T) {
	st := New(t.TempDir())
	result := testResult()
	// json cannot encode NaN
	result.Metrics["rms_x"] = math.NaN()

	if _, err := st.Save("broken", config.DefaultConfig(), result); err == nil {
		t.Fatal("expected save to fail")
	}

	entries, err := os.ReadDir(st.baseDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no run directory after a failed save, got %d entries", len(entries))
	}
}
