package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/qrr/internal/dynamo"
	"github.com/san-kum/qrr/internal/ensemble"
)

type ExportSnapshot struct {
	Label   string           `json:"label"`
	Step    int              `json:"step"`
	Time    float64          `json:"time"`
	Summary ensemble.Summary `json:"summary"`
	Gammas  []float64        `json:"gammas,omitempty"`
}

type ExportData struct {
	Run       RunMetadata      `json:"run"`
	Snapshots []ExportSnapshot `json:"snapshots"`
}

// ExportJSON writes the metadata and snapshots of a run to w. With
// withGammas false only the per-snapshot summaries are written.
func (s *Store) ExportJSON(w io.Writer, runID string, withGammas bool) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	snaps, err := s.LoadSnapshots(runID)
	if err != nil {
		return err
	}
	return EncodeJSON(w, *meta, snaps, withGammas)
}

func EncodeJSON(w io.Writer, meta RunMetadata, snaps []dynamo.Snapshot, withGammas bool) error {
	data := ExportData{
		Run:       meta,
		Snapshots: make([]ExportSnapshot, len(snaps)),
	}
	for i, snap := range snaps {
		es := ExportSnapshot{
			Step:    snap.Step,
			Time:    snap.Time,
			Summary: ensemble.Stats(snap.Gammas),
		}
		if i < len(meta.Snapshots) {
			es.Label = meta.Snapshots[i].Label
		}
		if withGammas {
			es.Gammas = snap.Gammas
		}
		data.Snapshots[i] = es
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
