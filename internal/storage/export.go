package storage

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/san-kum/elens/internal/tracking"
)

type ExportData struct {
	Run   RunMetadata           `json:"run"`
	Turns []tracking.TurnRecord `json:"turns"`
}

// ExportJSON writes a stored run, metadata and turns, as one JSON document.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	turns, err := s.LoadTurns(runID)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(ExportData{Run: *meta, Turns: turns})
}

// ExportCSV writes the per-turn records of a stored run in fixed-width
// scientific notation.
func (s *Store) ExportCSV(w io.Writer, runID string) error {
	turns, err := s.LoadTurns(runID)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(turnsHeader); err != nil {
		return err
	}
	for _, rec := range turns {
		row := []string{
			strconv.Itoa(rec.Turn),
			strconv.FormatFloat(rec.MeanX, 'e', 9, 64),
			strconv.FormatFloat(rec.MeanY, 'e', 9, 64),
			strconv.Itoa(rec.Alive),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
