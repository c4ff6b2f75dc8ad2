package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/facette/natsort"

	"github.com/san-kum/elens/internal/config"
	"github.com/san-kum/elens/internal/tracking"
)

const (
	metadataFile = "metadata.json"
	turnsFile    = "turns.csv"
)

// ErrInvalidLabel is returned for labels that are not a plain file name.
var ErrInvalidLabel = errors.New("storage: invalid run label")

var turnsHeader = []string{"turn", "mean_x", "mean_y", "alive"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Label     string             `json:"label"`
	Timestamp time.Time          `json:"timestamp"`
	Seed      int64              `json:"seed"`
	Particles int                `json:"particles"`
	Turns     int                `json:"turns"`
	Length    float64            `json:"length"`
	Current   float64            `json:"current"`
	Voltage   float64            `json:"voltage"`
	Boundary  string             `json:"boundary"`
	Source    string             `json:"field_map_source"`
	Qx        float64            `json:"qx"`
	Qy        float64            `json:"qy"`
	Survivors int                `json:"survivors"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Save writes metadata.json and turns.csv into a new run directory and
// returns the run ID.
func (s *Store) Save(label string, cfg *config.Config, result *tracking.Result) (string, error) {
	now := time.Now()
	runID, runDir, err := s.newRunDir(label, now)
	if err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Label:     label,
		Timestamp: now,
		Seed:      cfg.Beam.Seed,
		Particles: cfg.Beam.Particles,
		Turns:     result.TurnsTaken,
		Length:    cfg.Lens.Length,
		Current:   cfg.Lens.Current,
		Voltage:   cfg.Lens.Voltage,
		Boundary:  cfg.Lens.Boundary,
		Source:    cfg.FieldMap.Source,
		Qx:        cfg.Tracking.Qx,
		Qy:        cfg.Tracking.Qy,
		Survivors: result.Final().Alive,
		Metrics:   result.Metrics,
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		os.RemoveAll(runDir)
		return "", err
	}
	if err := writeTurns(filepath.Join(runDir, turnsFile), result.Turns); err != nil {
		os.RemoveAll(runDir)
		return "", err
	}
	return runID, nil
}

func validLabel(label string) error {
	if label == "." || label == ".." || strings.ContainsAny(label, `/\`) || strings.ContainsRune(label, 0) {
		return fmt.Errorf("%w: %q", ErrInvalidLabel, label)
	}
	return nil
}

// newRunDir creates <label>_<unix> and appends a counter when several runs
// start within the same second.
func (s *Store) newRunDir(label string, now time.Time) (string, string, error) {
	if label == "" {
		label = "run"
	}
	if err := validLabel(label); err != nil {
		return "", "", err
	}
	base := fmt.Sprintf("%s_%d", label, now.Unix())
	runID := base
	for n := 2; ; n++ {
		runDir := filepath.Join(s.baseDir, runID)
		err := os.Mkdir(runDir, 0755)
		if err == nil {
			return runID, runDir, nil
		}
		if errors.Is(err, os.ErrNotExist) {
			if err := s.Init(); err != nil {
				return "", "", err
			}
			continue
		}
		if !errors.Is(err, os.ErrExist) {
			return "", "", err
		}
		runID = fmt.Sprintf("%s_%d", base, n)
	}
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTurns(path string, turns []tracking.TurnRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(turnsHeader); err != nil {
		return err
	}
	for _, rec := range turns {
		row := []string{
			strconv.Itoa(rec.Turn),
			strconv.FormatFloat(rec.MeanX, 'g', -1, 64),
			strconv.FormatFloat(rec.MeanY, 'g', -1, 64),
			strconv.Itoa(rec.Alive),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns the metadata of every stored run in natural ID order.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return natsort.Compare(runs[i].ID, runs[j].ID)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	if err := validLabel(runID); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadTurns reads the per-turn records of a run.
func (s *Store) LoadTurns(runID string) ([]tracking.TurnRecord, error) {
	if err := validLabel(runID); err != nil {
		return nil, err
	}
	file, err := os.Open(filepath.Join(s.baseDir, runID, turnsFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(turnsHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []tracking.TurnRecord{}, nil
	}

	turns := make([]tracking.TurnRecord, 0, len(records)-1)
	for i, record := range records[1:] {
		rec, err := parseTurn(record)
		if err != nil {
			return nil, fmt.Errorf("storage: %s line %d: %w", turnsFile, i+2, err)
		}
		turns = append(turns, rec)
	}
	return turns, nil
}

func parseTurn(record []string) (tracking.TurnRecord, error) {
	var rec tracking.TurnRecord
	var err error
	if rec.Turn, err = strconv.Atoi(record[0]); err != nil {
		return rec, err
	}
	if rec.MeanX, err = strconv.ParseFloat(record[1], 64); err != nil {
		return rec, err
	}
	if rec.MeanY, err = strconv.ParseFloat(record[2], 64); err != nil {
		return rec, err
	}
	if rec.Alive, err = strconv.Atoi(record[3]); err != nil {
		return rec, err
	}
	return rec, nil
}
