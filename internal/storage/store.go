package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/san-kum/firesim/internal/config"
	"github.com/san-kum/firesim/internal/export"
	"github.com/san-kum/firesim/internal/sim"
)

const (
	metadataFile = "metadata.json"
	statsFile    = "stats.csv"
	finalFile    = "final.png"
)

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
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	Timestamp        time.Time          `json:"timestamp"`
	Seed             int64              `json:"seed"`
	Grid             int                `json:"grid"`
	Orientation      string             `json:"orientation"`
	Dt               float32            `json:"dt"`
	Viscosity        float32            `json:"viscosity"`
	Diffusion        float32            `json:"diffusion"`
	Buoyancy         float32            `json:"buoyancy"`
	InjectStrength   float32            `json:"inject_strength"`
	TemperatureDecay float32            `json:"temperature_decay"`
	Ticks            int                `json:"ticks"`
	ElapsedSeconds   float64            `json:"elapsed_seconds"`
	TicksPerSecond   float64            `json:"ticks_per_second"`
	Faults           int                `json:"faults"`
	Metrics          map[string]float64 `json:"metrics"`
}

// Run is everything a headless run leaves behind.
type Run struct {
	Name   string
	Config *config.Config
	Result *sim.Result
	Stats  []StatsRow
	// Final is the last frame; omitted from disk when nil.
	Final *image.NRGBA
}

func newMetadata(id string, run Run) RunMetadata {
	cfg := run.Config
	meta := RunMetadata{
		ID:               id,
		Name:             run.Name,
		Timestamp:        time.Now(),
		Seed:             cfg.Seed,
		Grid:             cfg.Grid,
		Orientation:      cfg.Orientation,
		Dt:               cfg.Dt,
		Viscosity:        cfg.Viscosity,
		Diffusion:        cfg.Diffusion,
		Buoyancy:         cfg.Buoyancy,
		InjectStrength:   cfg.InjectStrength,
		TemperatureDecay: cfg.TemperatureDecay,
		Metrics:          map[string]float64{},
	}
	if r := run.Result; r != nil {
		meta.Ticks = r.Ticks
		meta.ElapsedSeconds = r.Elapsed.Seconds()
		if r.Elapsed > 0 {
			meta.TicksPerSecond = float64(r.Ticks) / r.Elapsed.Seconds()
		}
		meta.Faults = r.Faults
		for k, v := range r.Metrics {
			meta.Metrics[k] = v
		}
	}
	return meta
}

// Save writes a new run directory and returns its id.
func (s *Store) Save(run Run) (string, error) {
	if run.Config == nil {
		return "", errors.New("storage: run has no config")
	}
	if err := s.Init(); err != nil {
		return "", err
	}

	name := run.Name
	if name == "" {
		name = run.Config.Orientation
	}
	runID, runDir, err := s.createRunDir(name)
	if err != nil {
		return "", err
	}

	if err := writeRun(runDir, runID, run); err != nil {
		os.RemoveAll(runDir)
		return "", err
	}
	return runID, nil
}

// writeRun writes the run files, metadata last: List only shows
// directories with metadata.
func writeRun(runDir, runID string, run Run) error {
	csvFile, err := os.Create(filepath.Join(runDir, statsFile))
	if err != nil {
		return err
	}
	stats := run.Stats
	if stats == nil {
		stats = []StatsRow{}
	}
	if err := gocsv.Marshal(&stats, csvFile); err != nil {
		csvFile.Close()
		return fmt.Errorf("write stats: %w", err)
	}
	if err := csvFile.Close(); err != nil {
		return fmt.Errorf("write stats: %w", err)
	}

	if run.Final != nil {
		if err := export.SavePNG(filepath.Join(runDir, finalFile), run.Final, 1); err != nil {
			return err
		}
	}

	return writeJSON(filepath.Join(runDir, metadataFile), newMetadata(runID, run))
}

func (s *Store) createRunDir(name string) (string, string, error) {
	base := fmt.Sprintf("%s_%d", name, time.Now().Unix())
	runID := base
	for i := 1; ; i++ {
		runDir := filepath.Join(s.baseDir, runID)
		err := os.Mkdir(runDir, 0755)
		if err == nil {
			return runID, runDir, nil
		}
		if !os.IsExist(err) {
			return "", "", err
		}
		runID = fmt.Sprintf("%s_%d", base, i)
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

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}

	return &meta, nil
}

func (s *Store) LoadStats(runID string) ([]StatsRow, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, statsFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows := []StatsRow{}
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return []StatsRow{}, nil
		}
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return rows, nil
}

// FinalFramePath is where Save put the run's last frame.
func (s *Store) FinalFramePath(runID string) string {
	return filepath.Join(s.baseDir, runID, finalFile)
}

// ExportData bundles a run's metadata and stats for single-file export.
type ExportData struct {
	RunMetadata
	Stats []StatsRow `json:"stats"`
}

func (s *Store) ExportJSON(runID, path string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	stats, err := s.LoadStats(runID)
	if err != nil {
		return err
	}
	data := ExportData{RunMetadata: *meta, Stats: stats}
	if path == "" || path == "-" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	}
	return writeJSON(path, data)
}
