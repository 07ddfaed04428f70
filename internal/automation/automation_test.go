package automation

import (
	"context"
	"errors"
	"testing"

	"github.com/san-kum/granule/internal/dynamo"
	"github.com/san-kum/granule/internal/storage"
)

const twoSteps = `
name: smoke
description: two short runs
steps:
  - name: loose
    config:
      frames: 3
      workers: 1
      scene:
        count: 40
  - preset: collide
    config:
      frames: 2
      workers: 1
      scene:
        count: 60
      physics:
        overlap_iterations: 5
`

func TestParseScenario(t *testing.T) {
	sc, err := ParseScenario([]byte(twoSteps))
	if err != nil {
		t.Fatal(err)
	}
	if sc.Name != "smoke" || len(sc.Steps) != 2 {
		t.Fatalf("parsed %q with %d steps", sc.Name, len(sc.Steps))
	}

	cfg, err := sc.Steps[1].Resolve()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Physics.OverlapIterations != 5 || cfg.Frames != 2 {
		t.Errorf("overlay not applied: iterations=%d frames=%d", cfg.Physics.OverlapIterations, cfg.Frames)
	}
	if cfg.Scene.Kind != "cluster" {
		t.Errorf("preset not applied: scene %q", cfg.Scene.Kind)
	}
}

func TestParseScenarioRejects(t *testing.T) {
	for _, doc := range []string{"name: empty\n", "steps: [", ""} {
		if _, err := ParseScenario([]byte(doc)); err == nil {
			t.Errorf("ParseScenario(%q) should fail", doc)
		}
	}
}

func TestResolveInvalid(t *testing.T) {
	sc, err := ParseScenario([]byte(`
steps:
  - config:
      physics:
        dt: -1
`))
	if err != nil {
		t.Fatal(err)
	}
	_, err = sc.Steps[0].Resolve()
	if !errors.Is(err, dynamo.ErrInvalidConfig) {
		t.Errorf("err = %v, want ErrInvalidConfig", err)
	}

	sc.Steps[0].Preset = "nope"
	if _, err := sc.Steps[0].Resolve(); !errors.Is(err, dynamo.ErrUnknownPreset) {
		t.Errorf("err = %v, want ErrUnknownPreset", err)
	}
}

func TestRunScenario(t *testing.T) {
	sc, err := ParseScenario([]byte(twoSteps))
	if err != nil {
		t.Fatal(err)
	}
	st := storage.New(t.TempDir())

	results, err := RunScenario(context.Background(), sc, st, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d", len(results))
	}
	if results[0].Name != "loose" || results[1].Name != "smoke-2" {
		t.Errorf("names = %q, %q", results[0].Name, results[1].Name)
	}
	if results[0].Steps != 3 || results[1].Steps != 2 {
		t.Errorf("steps = %d, %d", results[0].Steps, results[1].Steps)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Errorf("stored %d runs, want 2", len(runs))
	}
}

func TestRunScenarioStopsOnError(t *testing.T) {
	sc, err := ParseScenario([]byte(`
name: broken
steps:
  - config: {frames: 1, workers: 1, scene: {count: 10}}
  - preset: nope
  - config: {frames: 1, workers: 1, scene: {count: 10}}
`))
	if err != nil {
		t.Fatal(err)
	}

	results, err := RunScenario(context.Background(), sc, storage.New(t.TempDir()), nil)
	if err == nil {
		t.Fatal("expected error from the second step")
	}
	if len(results) != 1 {
		t.Errorf("results = %d, want 1", len(results))
	}
}
