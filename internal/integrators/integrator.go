package integrators

import (
	"fmt"
	"sort"

	"github.com/san-kum/granule/internal/dynamo"
)

// Field yields the acceleration of particle i at a trial position and
// velocity. Implementations must be safe for concurrent calls with
// distinct i.
type Field interface {
	Accel(i int, pos, vel dynamo.Vec2) dynamo.Vec2
}

// Integrator advances one particle by dt. Implementations hold no
// per-particle state so a single value can serve every worker.
type Integrator interface {
	Step(f Field, i int, pos, vel dynamo.Vec2, dt float32) (dynamo.Vec2, dynamo.Vec2)
}

// FieldFunc adapts a plain function to Field.
type FieldFunc func(i int, pos, vel dynamo.Vec2) dynamo.Vec2

func (fn FieldFunc) Accel(i int, pos, vel dynamo.Vec2) dynamo.Vec2 { return fn(i, pos, vel) }

var registry = map[string]func() Integrator{
	"rk4":      func() Integrator { return NewRK4() },
	"euler":    func() Integrator { return NewEuler() },
	"verlet":   func() Integrator { return NewVerlet() },
	"leapfrog": func() Integrator { return NewLeapfrog() },
}

// New returns the integrator registered under name.
func New(name string) (Integrator, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", dynamo.ErrUnknownIntegrator, name)
	}
	return ctor(), nil
}

// Names lists the registered integrators in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
