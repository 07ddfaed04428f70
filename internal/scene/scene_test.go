package scene

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/granule/internal/dynamo"
)

func TestNewKinds(t *testing.T) {
	for _, kind := range Kinds() {
		t.Run(kind, func(t *testing.T) {
			cfg := Config{Kind: kind, Count: 100, Size: 0.01, Speed: 0.3, Spread: 0.2, Clumps: 3}
			ps, err := New(cfg, 42)
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			if kind != "two_body" && len(ps) != cfg.Count {
				t.Errorf("expected %d particles, got %d", cfg.Count, len(ps))
			}
			for i, p := range ps {
				if p.Position.X < -1 || p.Position.X > 1 || p.Position.Y < -1 || p.Position.Y > 1 {
					t.Fatalf("particle %d outside world: %v", i, p.Position)
				}
				if p.Velocity.Len() > cfg.Speed*1.0001 {
					t.Fatalf("particle %d too fast: %v", i, p.Velocity.Len())
				}
				if p.Mass != 1 || p.Radius != 0.01 {
					t.Fatalf("particle %d mass %v radius %v", i, p.Mass, p.Radius)
				}
			}
		})
	}
}

func TestNewIsSeeded(t *testing.T) {
	cfg := Config{Kind: "random", Count: 50, Size: 0.01, Speed: 0.5}
	a, _ := New(cfg, 7)
	b, _ := New(cfg, 7)
	c, _ := New(cfg, 8)

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed differs at %d", i)
		}
	}
	if a[0] == c[0] {
		t.Error("different seeds produced the same first particle")
	}
}

func TestNewErrors(t *testing.T) {
	if _, err := New(Config{Kind: "spiral", Count: 1, Size: 0.01}, 0); !errors.Is(err, dynamo.ErrUnknownScene) {
		t.Errorf("expected ErrUnknownScene, got %v", err)
	}
	if _, err := New(Config{Kind: "random", Count: 0, Size: 0.01}, 0); !errors.Is(err, dynamo.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for zero count, got %v", err)
	}
	var cerr *dynamo.ConfigError
	if _, err := New(Config{Kind: "random", Count: 1}, 0); !errors.As(err, &cerr) || cerr.Field != "scene.size" {
		t.Errorf("expected scene.size ConfigError, got %v", err)
	}
}

func TestMassScalesWithArea(t *testing.T) {
	if m := MassFor(0.02); math.Abs(float64(m-4)) > 1e-5 {
		t.Errorf("expected mass 4 at double size, got %v", m)
	}

	ps := []dynamo.Particle{{Mass: 1}, {Mass: 0}}
	Resize(ps, 0.005)
	if math.Abs(float64(ps[0].Mass-0.25)) > 1e-6 || ps[0].Radius != 0.005 {
		t.Errorf("resize gave mass %v radius %v", ps[0].Mass, ps[0].Radius)
	}
	if ps[1].Mass != 0 {
		t.Error("massless particle gained mass")
	}
}

func TestClusterAssignsClumps(t *testing.T) {
	ps, err := New(Config{Kind: "cluster", Count: 30, Size: 0.01, Clumps: 3, Spread: 0.05}, 1)
	if err != nil {
		t.Fatal(err)
	}
	for i, p := range ps {
		if p.ClumpID != uint32(i%3) {
			t.Fatalf("particle %d in clump %d", i, p.ClumpID)
		}
	}
}
