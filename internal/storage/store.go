// Package storage persists runs as one directory per run: metadata.json plus
// frames.csv and particles.csv.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/san-kum/granule/internal/config"
	"github.com/san-kum/granule/internal/dynamo"
	"github.com/san-kum/granule/internal/engine"
)

const (
	metadataFile  = "metadata.json"
	framesFile    = "frames.csv"
	particlesFile = "particles.csv"
)

// ErrRunNotFound is returned when a run directory has no metadata.
var ErrRunNotFound = errors.New("run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir(runID string) string {
	return filepath.Join(s.baseDir, runID)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	Frames     int                `json:"frames"`
	Steps      int                `json:"steps"`
	Particles  int                `json:"particles"`
	Integrator string             `json:"integrator"`
	Workers    int                `json:"workers"`
	ElapsedMS  int64              `json:"elapsed_ms"`
	Config     *config.Config     `json:"config,omitempty"`
	Metrics    map[string]float64 `json:"metrics"`
}

// ParticleRow is one particle of the final buffer in particles.csv.
type ParticleRow struct {
	Index   int     `csv:"index"`
	X       float32 `csv:"x"`
	Y       float32 `csv:"y"`
	VX      float32 `csv:"vx"`
	VY      float32 `csv:"vy"`
	Mass    float32 `csv:"mass"`
	Radius  float32 `csv:"radius"`
	ClumpID uint32  `csv:"clump"`
	Density float32 `csv:"density"`
	Grabbed bool    `csv:"grabbed"`
}

func toRows(ps []dynamo.Particle) []ParticleRow {
	rows := make([]ParticleRow, len(ps))
	for i, p := range ps {
		rows[i] = ParticleRow{
			Index:   i,
			X:       p.Position.X,
			Y:       p.Position.Y,
			VX:      p.Velocity.X,
			VY:      p.Velocity.Y,
			Mass:    p.Mass,
			Radius:  p.Radius,
			ClumpID: p.ClumpID,
			Density: p.Density,
			Grabbed: p.Grabbed,
		}
	}
	return rows
}

// Particles converts rows back into a particle buffer.
func Particles(rows []ParticleRow) []dynamo.Particle {
	ps := make([]dynamo.Particle, len(rows))
	for i, r := range rows {
		ps[i] = dynamo.Particle{
			Position: dynamo.Vec2{X: r.X, Y: r.Y},
			Velocity: dynamo.Vec2{X: r.VX, Y: r.VY},
			Mass:     r.Mass,
			Radius:   r.Radius,
			ClumpID:  r.ClumpID,
			Density:  r.Density,
			Grabbed:  r.Grabbed,
		}
	}
	return ps
}

// Save writes a run and returns its ID. meta.ID and meta.Timestamp are
// filled in here; Steps, ElapsedMS and Metrics come from result.
func (s *Store) Save(meta RunMetadata, result *engine.Result) (string, error) {
	if err := s.Init(); err != nil {
		return "", err
	}
	meta.Timestamp = time.Now()
	runID, err := s.makeRunDir(fmt.Sprintf("%s_%d", meta.Name, meta.Timestamp.Unix()))
	if err != nil {
		return "", err
	}
	meta.ID = runID
	meta.Steps = result.StepsTaken
	meta.ElapsedMS = result.Elapsed.Milliseconds()
	meta.Metrics = result.Metrics
	runDir := s.Dir(runID)

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeCSV(filepath.Join(runDir, framesFile), result.Frames); err != nil {
		return "", fmt.Errorf("write frames: %w", err)
	}
	if err := writeCSV(filepath.Join(runDir, particlesFile), toRows(result.Final)); err != nil {
		return "", fmt.Errorf("write particles: %w", err)
	}
	return runID, nil
}

// makeRunDir creates a fresh directory, suffixing base when it is taken.
func (s *Store) makeRunDir(base string) (string, error) {
	id := base
	for n := 1; ; n++ {
		err := os.Mkdir(s.Dir(id), 0755)
		if err == nil {
			return id, nil
		}
		if !os.IsExist(err) {
			return "", err
		}
		id = fmt.Sprintf("%s-%d", base, n)
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

func writeCSV(path string, rows any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gocsv.MarshalFile(rows, f)
}

// List returns every readable run, newest first.
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
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir(runID), metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode %s metadata: %w", runID, err)
	}
	return &meta, nil
}

func (s *Store) LoadFrames(runID string) ([]engine.FrameRecord, error) {
	var frames []engine.FrameRecord
	if err := readCSV(filepath.Join(s.Dir(runID), framesFile), &frames); err != nil {
		return nil, err
	}
	return frames, nil
}

func (s *Store) LoadParticles(runID string) ([]ParticleRow, error) {
	var rows []ParticleRow
	if err := readCSV(filepath.Join(s.Dir(runID), particlesFile), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func readCSV(path string, out any) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrRunNotFound, filepath.Base(filepath.Dir(path)))
		}
		return err
	}
	defer f.Close()

	if err := gocsv.UnmarshalFile(f, out); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return nil
		}
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}
