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
	"github.com/google/uuid"

	"github.com/san-kum/qrr/internal/dynamo"
)

const (
	metadataFile  = "metadata.json"
	snapshotsFile = "snapshots.csv"
)

// ErrNotFound is returned when a run directory or one of its files is missing.
var ErrNotFound = errors.New("run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

// SnapshotInfo locates one column of snapshots.csv in simulated time.
type SnapshotInfo struct {
	Label string  `json:"label"`
	Step  int     `json:"step"`
	Time  float64 `json:"time"`
}

type RunMetadata struct {
	ID           string             `json:"id"`
	Preset       string             `json:"preset,omitempty"`
	Model        string             `json:"model"`
	Timestamp    time.Time          `json:"timestamp"`
	Seed         uint64             `json:"seed"`
	Noise        string             `json:"noise"`
	Integrator   string             `json:"integrator"`
	Distribution string             `json:"distribution"`
	Particles    int                `json:"particles"`
	Steps        int                `json:"steps"`
	Dt           float64            `json:"dt"`
	Chi0         float64            `json:"chi0"`
	Gamma0       float64            `json:"gamma0"`
	Kalpha       float64            `json:"kalpha"`
	GridSize     int                `json:"grid_size"`
	GridMax      float64            `json:"grid_max"`
	Domain       string             `json:"domain"`
	Workers      int                `json:"workers"`
	Elapsed      float64            `json:"elapsed_seconds"`
	Snapshots    []SnapshotInfo     `json:"snapshots"`
	Metrics      map[string]float64 `json:"metrics"`
}

// NewRunID returns "<prefix>_<unix>_<8 hex chars>".
func NewRunID(prefix string, now time.Time) string {
	if prefix == "" {
		prefix = "run"
	}
	short := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("%s_%d_%s", prefix, now.Unix(), short)
}

// Save writes meta and every snapshot of result into a new run directory
// and returns the run ID. An empty meta.ID is filled in from the preset or
// model name.
func (s *Store) Save(meta RunMetadata, result *dynamo.Result) (string, error) {
	if result == nil {
		return "", fmt.Errorf("nil result")
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	if meta.ID == "" {
		prefix := meta.Preset
		if prefix == "" {
			prefix = meta.Model
		}
		meta.ID = NewRunID(prefix, meta.Timestamp)
	}
	if meta.Metrics == nil {
		meta.Metrics = result.Metrics
	}

	snaps := result.Snapshots()
	labels := make([]string, len(snaps))
	meta.Snapshots = make([]SnapshotInfo, len(snaps))
	for i, snap := range snaps {
		labels[i] = label(result, snap, i, len(snaps))
		meta.Snapshots[i] = SnapshotInfo{Label: labels[i], Step: snap.Step, Time: snap.Time}
	}

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeSnapshots(filepath.Join(runDir, snapshotsFile), labels, snaps); err != nil {
		return "", err
	}

	return meta.ID, nil
}

// label names the i-th of n time-ordered snapshots. The initial copy always
// sorts first and the final one last, so positions decide those two even
// when a short run gives them the same step or time as another snapshot.
func label(r *dynamo.Result, snap dynamo.Snapshot, i, n int) string {
	switch {
	case i == 0:
		return "initial"
	case i == n-1:
		return "final"
	case snap.Step == r.Mid.Step && snap.Time == r.Mid.Time:
		return "mid"
	default:
		return fmt.Sprintf("step_%d", snap.Step)
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

// writeSnapshots writes one column per snapshot, headed by its label.
func writeSnapshots(path string, labels []string, snaps []dynamo.Snapshot) error {
	seen := make(map[string]bool, len(labels))
	for _, l := range labels {
		if seen[l] {
			return fmt.Errorf("duplicate snapshot label %q", l)
		}
		seen[l] = true
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)

	header := append([]string{"particle"}, labels...)
	if err := w.Write(header); err != nil {
		return err
	}

	n := 0
	if len(snaps) > 0 {
		n = len(snaps[0].Gammas)
	}
	row := make([]string, len(header))
	for i := 0; i < n; i++ {
		row[0] = strconv.Itoa(i)
		for j, snap := range snaps {
			row[j+1] = strconv.FormatFloat(snap.Gammas[i], 'g', -1, 64)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// List returns the metadata of every stored run in natural order of run ID.
// Directories without readable metadata are skipped.
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

	sort.Slice(runs, func(i, j int) bool { return natsort.Compare(runs[i].ID, runs[j].ID) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode metadata of %s: %w", runID, err)
	}

	return &meta, nil
}

// LoadSnapshots reads back the snapshots of a run. Step and time come from
// the metadata; the CSV holds the Lorentz factors.
func (s *Store) LoadSnapshots(runID string) ([]dynamo.Snapshot, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filepath.Join(s.baseDir, runID, snapshotsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s has no snapshots", ErrNotFound, runID)
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: empty snapshot file", runID)
	}

	header := records[0]
	if len(header)-1 != len(meta.Snapshots) {
		return nil, fmt.Errorf("%s: %d snapshot columns but %d in metadata", runID, len(header)-1, len(meta.Snapshots))
	}

	snaps := make([]dynamo.Snapshot, len(meta.Snapshots))
	for j, info := range meta.Snapshots {
		snaps[j] = dynamo.Snapshot{Step: info.Step, Time: info.Time, Gammas: make(dynamo.Ensemble, 0, len(records)-1)}
	}

	for i, record := range records[1:] {
		for j := range snaps {
			v, err := strconv.ParseFloat(record[j+1], 64)
			if err != nil {
				return nil, fmt.Errorf("%s: row %d column %s: %w", runID, i+1, header[j+1], err)
			}
			snaps[j].Gammas = append(snaps[j].Gammas, v)
		}
	}

	return snaps, nil
}

// CSVPath returns the location of the snapshot table of a run.
func (s *Store) CSVPath(runID string) string {
	return filepath.Join(s.baseDir, runID, snapshotsFile)
}
