package dynamo

import (
	"log/slog"
	"time"
)

// Stage identifies one barrier-separated phase of a step.
type Stage int

const (
	StageInteract Stage = iota
	StageClear
	StagePopulate
	StageIntegrate
	StageResolve
	StageFinish
	NumStages
)

var stageNames = [NumStages]string{
	StageInteract:  "interact",
	StageClear:     "grid_clear",
	StagePopulate:  "grid_populate",
	StageIntegrate: "integrate",
	StageResolve:   "resolve",
	StageFinish:    "finish",
}

func (s Stage) String() string {
	if s < 0 || s >= NumStages {
		return "unknown"
	}
	return stageNames[s]
}

// StepStats summarizes one engine step. Collecting it never changes
// simulation results.
type StepStats struct {
	Frame     uint32
	Particles int
	Grabbed   int
	Released  int
	// Dropped counts grid insertions lost to full cells.
	Dropped  int
	MaxLoad  int
	Duration time.Duration
	Stages   [NumStages]time.Duration
}

// LogValue implements slog.LogValuer for structured logging.
func (s StepStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("frame", int(s.Frame)),
		slog.Int("particles", s.Particles),
		slog.Int("grabbed", s.Grabbed),
		slog.Int("released", s.Released),
		slog.Int("dropped", s.Dropped),
		slog.Int("max_load", s.MaxLoad),
		slog.Duration("total", s.Duration),
	}
	for st := Stage(0); st < NumStages; st++ {
		attrs = append(attrs, slog.Duration(st.String(), s.Stages[st]))
	}
	return slog.GroupValue(attrs...)
}
