package solver

import (
	"runtime"

	"github.com/cdstlab/optimizer/internal/problem"
)

// Config carries the tuning knobs the Engine reads from problem.Parameters,
// plus the worker-pool size for parallel evaluation (min(runtime cores, 8)
// by default).
type Config struct {
	Params      *problem.Parameters
	WorkerCount int
}

// NewConfig derives a Config from Parameters, filling WorkerCount with the
// spec's default when unset.
func NewConfig(params *problem.Parameters) Config {
	workers := runtime.NumCPU()
	if workers > 8 {
		workers = 8
	}
	if workers < 1 {
		workers = 1
	}
	return Config{Params: params, WorkerCount: workers}
}
