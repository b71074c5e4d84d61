package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/san-kum/gravsim/internal/sim"
)

const (
	metadataFile = "metadata.json"
	samplesFile  = "samples.csv"
)

var ErrRunNotFound = errors.New("storage: run not found")

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
	Name      string             `json:"name"`
	Timestamp time.Time          `json:"timestamp"`
	Dt        float64            `json:"dt"`
	Speed     float64            `json:"speed"`
	Kappa     float64            `json:"kappa"`
	MaxRadius float64            `json:"max_radius"`
	Steps     int                `json:"steps"`
	Bodies    int                `json:"bodies"`
	Merges    int                `json:"merges"`
	Skipped   int                `json:"skipped_pairs"`
	FinalTime float64            `json:"final_time"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Sample is one row of samples.csv.
type Sample struct {
	Time            float64 `csv:"time" json:"time"`
	Step            uint64  `csv:"step" json:"step"`
	Bodies          int     `csv:"bodies" json:"bodies"`
	Mass            float64 `csv:"mass" json:"mass"`
	Energy          float64 `csv:"energy" json:"energy"`
	MomentumX       float64 `csv:"px" json:"px"`
	MomentumY       float64 `csv:"py" json:"py"`
	AngularMomentum float64 `csv:"angular_momentum" json:"angular_momentum"`
	Spread          float64 `csv:"spread" json:"spread"`
}

func SampleOf(d sim.Diagnostics) Sample {
	return Sample{
		Time:            d.Time,
		Step:            d.Step,
		Bodies:          d.Bodies,
		Mass:            d.Mass,
		Energy:          d.Energy,
		MomentumX:       d.Momentum.X,
		MomentumY:       d.Momentum.Y,
		AngularMomentum: d.AngularMomentum,
		Spread:          d.Spread,
	}
}

func Samples(r *sim.Result) []*Sample {
	out := make([]*Sample, len(r.Samples))
	for i, d := range r.Samples {
		s := SampleOf(d)
		out[i] = &s
	}
	return out
}

// NewMetadata fills the run parameters from cfg and the totals from r.
func NewMetadata(name string, cfg sim.Config, r *sim.Result) RunMetadata {
	meta := RunMetadata{
		Name:      name,
		Timestamp: time.Now(),
		Dt:        cfg.Dt,
		Speed:     cfg.Speed,
		Kappa:     cfg.Kappa,
		MaxRadius: cfg.MaxRadius,
		Steps:     r.StepsTaken,
		Merges:    r.Merges,
		Skipped:   r.Skipped,
		Metrics:   r.Metrics,
	}
	if n := len(r.Samples); n > 0 {
		meta.Bodies = r.Samples[0].Bodies
		meta.FinalTime = r.Samples[n-1].Time
	}
	return meta
}

// Save writes meta and the result samples under a fresh run directory and
// returns its ID.
func (s *Store) Save(meta RunMetadata, r *sim.Result) (string, error) {
	name := meta.Name
	if name == "" {
		name = "run"
	}
	runID := fmt.Sprintf("%s_%d", name, meta.Timestamp.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}
	meta.ID = runID

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, samplesFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := gocsv.MarshalFile(Samples(r), csvFile); err != nil {
		return "", fmt.Errorf("writing %s: %w", samplesFile, err)
	}

	return runID, nil
}

// List returns every readable run, oldest first.
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
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%s: %w", runID, err)
	}
	return &meta, nil
}

func (s *Store) LoadSamples(runID string) ([]*Sample, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, samplesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer f.Close()

	var samples []*Sample
	if err := gocsv.UnmarshalFile(f, &samples); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return []*Sample{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", samplesFile, err)
	}
	return samples, nil
}

type exportData struct {
	RunMetadata
	Samples []*Sample `json:"samples"`
}

// ExportJSON writes meta and samples to w as one JSON document.
func ExportJSON(w io.Writer, meta RunMetadata, samples []*Sample) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(exportData{RunMetadata: meta, Samples: samples})
}
