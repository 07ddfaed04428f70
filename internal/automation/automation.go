// Package automation runs scripted batches of simulations described in YAML.
package automation

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/granule/internal/config"
	"github.com/san-kum/granule/internal/engine"
	"github.com/san-kum/granule/internal/metrics"
	"github.com/san-kum/granule/internal/scene"
	"github.com/san-kum/granule/internal/storage"
)

// Scenario defines a scripted simulation sequence
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is one saved run. Config is decoded over the preset, so it
// only needs the fields that differ:
//
//	- name: tight
//	  preset: dense
//	  config:
//	    physics:
//	      overlap_iterations: 6
type ScenarioStep struct {
	Name   string    `yaml:"name"`
	Preset string    `yaml:"preset"`
	Config yaml.Node `yaml:"config"`
}

type StepResult struct {
	Name    string
	RunID   string
	Steps   int
	Metrics map[string]float64
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", scenario.Name)
	}
	return &scenario, nil
}

// Resolve builds and validates the configuration for a step.
func (s ScenarioStep) Resolve() (*config.Config, error) {
	preset := s.Preset
	if preset == "" {
		preset = "default"
	}
	cfg, err := config.GetPreset(preset)
	if err != nil {
		return nil, err
	}
	if !s.Config.IsZero() {
		if err := s.Config.Decode(cfg); err != nil {
			return nil, fmt.Errorf("decode config: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RunScenario executes all steps in order and saves each run to st. It stops
// at the first failing step and returns the results gathered so far.
func RunScenario(ctx context.Context, scenario *Scenario, st *storage.Store, log *slog.Logger) ([]StepResult, error) {
	if log == nil {
		log = slog.Default()
	}
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		name := step.Name
		if name == "" {
			name = fmt.Sprintf("%s-%d", scenario.Name, i+1)
		}
		log.Info("scenario step", "step", i+1, "of", len(scenario.Steps), "name", name)

		cfg, err := step.Resolve()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		res, err := runStep(ctx, name, cfg, st)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}
		results = append(results, res)
	}

	return results, nil
}

func runStep(ctx context.Context, name string, cfg *config.Config, st *storage.Store) (StepResult, error) {
	particles, err := scene.New(cfg.Scene, cfg.Seed)
	if err != nil {
		return StepResult{}, err
	}
	integ, err := cfg.NewIntegrator()
	if err != nil {
		return StepResult{}, err
	}

	eng := engine.New(engine.WithWorkers(cfg.Workers), engine.WithIntegrator(integ))
	defer eng.Close()

	sim := engine.NewSimulator(eng)
	for _, m := range metrics.Default() {
		sim.AddMetric(m)
	}

	result, err := sim.Run(ctx, particles, cfg.RunConfig())
	if err != nil {
		return StepResult{}, err
	}

	runID, err := st.Save(storage.RunMetadata{
		Name:       name,
		Seed:       cfg.Seed,
		Frames:     cfg.Frames,
		Particles:  len(particles),
		Integrator: cfg.Integrator,
		Workers:    eng.Workers(),
		Config:     cfg,
	}, result)
	if err != nil {
		return StepResult{}, err
	}

	return StepResult{Name: name, RunID: runID, Steps: result.StepsTaken, Metrics: result.Metrics}, nil
}
