// Package optim tunes engine settings by exhaustive search over a grid of
// candidate values.
package optim

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/san-kum/granule/internal/config"
	"github.com/san-kum/granule/internal/engine"
	"github.com/san-kum/granule/internal/metrics"
	"github.com/san-kum/granule/internal/scene"
)

// setters lists the settings a search may vary.
var setters = map[string]func(*config.Config, float64){
	"gravity":            func(c *config.Config, v float64) { c.Physics.Gravity = float32(v) },
	"energy_damping":     func(c *config.Config, v float64) { c.Physics.EnergyDamping = float32(v) },
	"collision_damping":  func(c *config.Config, v float64) { c.Physics.CollisionDamping = float32(v) },
	"overlap_strength":   func(c *config.Config, v float64) { c.Physics.OverlapStrength = float32(v) },
	"overlap_iterations": func(c *config.Config, v float64) { c.Physics.OverlapIterations = int(v) },
	"overlap_skip_rate":  func(c *config.Config, v float64) { c.Physics.OverlapSkipRate = float32(v) },
	"cell_size":          func(c *config.Config, v float64) { c.Grid.CellSize = float32(v) },
	"dt":                 func(c *config.Config, v float64) { c.Physics.Dt = float32(v) },
}

// Tunable returns the names accepted by Param.
func Tunable() []string {
	names := make([]string, 0, len(setters))
	for n := range setters {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

type Param struct {
	Name   string
	Values []float64
}

// ParseParam reads "name=v1,v2,...".
func ParseParam(s string) (Param, error) {
	name, list, ok := strings.Cut(s, "=")
	if !ok || list == "" {
		return Param{}, fmt.Errorf("param %q: want name=v1,v2", s)
	}
	p := Param{Name: name}
	for _, f := range strings.Split(list, ",") {
		var v float64
		if _, err := fmt.Sscan(f, &v); err != nil {
			return Param{}, fmt.Errorf("param %q: bad value %q", s, f)
		}
		p.Values = append(p.Values, v)
	}
	return p, nil
}

// Runner simulates one candidate and returns its metrics.
type Runner func(ctx context.Context, cfg *config.Config) (map[string]float64, error)

type Trial struct {
	Values map[string]float64
	Score  float64
	Err    error
}

type GridSearch struct {
	params   []Param
	metric   string
	maximize bool
}

func NewGridSearch(metric string, maximize bool, params ...Param) (*GridSearch, error) {
	if len(params) == 0 {
		return nil, fmt.Errorf("grid search: no parameters")
	}
	for _, p := range params {
		if _, ok := setters[p.Name]; !ok {
			return nil, fmt.Errorf("grid search: unknown parameter %q (tunable: %v)", p.Name, Tunable())
		}
		if len(p.Values) == 0 {
			return nil, fmt.Errorf("grid search: %s has no values", p.Name)
		}
	}
	return &GridSearch{params: params, metric: metric, maximize: maximize}, nil
}

// Search runs every combination on a copy of base. Invalid or failing
// candidates are kept in trials with Err set and never win. Cancelling ctx
// stops the search and returns the trials so far.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, run Runner) (Trial, []Trial, error) {
	best := Trial{Score: math.Inf(1)}
	if g.maximize {
		best.Score = math.Inf(-1)
	}
	var trials []Trial

	err := g.searchRecursive(ctx, 0, make(map[string]float64), base, run, &best, &trials)
	if best.Values == nil {
		if err == nil {
			err = fmt.Errorf("grid search: no candidate produced %q", g.metric)
		}
		return Trial{}, trials, err
	}
	return best, trials, err
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	base *config.Config,
	run Runner,
	best *Trial,
	trials *[]Trial,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.params) {
		trial := Trial{Values: make(map[string]float64, len(current))}
		cfg := base.Clone()
		for k, v := range current {
			trial.Values[k] = v
			setters[k](cfg, v)
		}

		trial.Err = cfg.Validate()
		if trial.Err == nil {
			var m map[string]float64
			m, trial.Err = run(ctx, cfg)
			if trial.Err == nil {
				score, ok := m[g.metric]
				if !ok {
					trial.Err = fmt.Errorf("metric %q not reported", g.metric)
				}
				trial.Score = score
			}
		}
		*trials = append(*trials, trial)

		if trial.Err == nil && g.better(trial.Score, best.Score) {
			*best = trial
		}
		return nil
	}

	p := g.params[depth]
	for _, val := range p.Values {
		current[p.Name] = val
		if err := g.searchRecursive(ctx, depth+1, current, base, run, best, trials); err != nil {
			return err
		}
	}
	delete(current, p.Name)
	return nil
}

func (g *GridSearch) better(a, b float64) bool {
	if math.IsNaN(a) {
		return false
	}
	if g.maximize {
		return a > b
	}
	return a < b
}

// Simulate is the default Runner: build the configured scene and run it with
// the default metrics.
func Simulate(ctx context.Context, cfg *config.Config) (map[string]float64, error) {
	particles, err := scene.New(cfg.Scene, cfg.Seed)
	if err != nil {
		return nil, err
	}
	integ, err := cfg.NewIntegrator()
	if err != nil {
		return nil, err
	}

	eng := engine.New(engine.WithWorkers(cfg.Workers), engine.WithIntegrator(integ))
	defer eng.Close()

	sim := engine.NewSimulator(eng)
	for _, m := range metrics.Default() {
		sim.AddMetric(m)
	}
	result, err := sim.Run(ctx, particles, cfg.RunConfig())
	if err != nil {
		return nil, err
	}
	return result.Metrics, nil
}
