// Package scheduler owns scenario lifecycle: admission, the per-scenario
// solver goroutine, progress broadcast, checkpointing, and cooperative
// cancellation.
package scheduler

import (
	"errors"
	"time"

	"github.com/cdstlab/optimizer/internal/problem"
	"github.com/cdstlab/optimizer/internal/solver"
)

// Status is a scenario's position in its lifecycle state machine.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// FailureReason further qualifies a StatusFailed scenario.
type FailureReason string

const (
	FailureNone      FailureReason = ""
	FailureTimeout   FailureReason = "timeout"
	FailureCheckpoint FailureReason = "checkpoint_unreadable"
	FailureInternal  FailureReason = "internal"
)

// Sentinel errors. Wrapped with fmt.Errorf("...: %w", ...) for context and
// checked with errors.Is at the Scheduler and CLI boundary.
var (
	ErrRateLimitExceeded = errors.New("scenario admission rate limit exceeded")
	ErrNotReady          = errors.New("scenario has not reached a terminal state")
	ErrUnknownScenario   = errors.New("unknown scenario id")
	ErrCheckpointFailed  = errors.New("checkpoint flush failed")
)

// Stage names the sub-phase a running scenario is in, carried on every
// progress frame.
type Stage string

const (
	StageInitializing Stage = "initializing"
	StageEvolving     Stage = "evolving"
	StageFinalizing   Stage = "finalizing"
)

// ProgressFrame is one point-in-time snapshot of a running scenario,
// delivered to subscribers over the per-scenario broadcast channel.
type ProgressFrame struct {
	ScenarioID     string
	Generation     int
	MaxGenerations int
	BestComposite  float64
	Hypervolume    float64
	ElapsedSeconds float64
	ETASeconds     float64
	Stage          Stage
	Status         Status
	FailureReason  FailureReason
}

// Scenario is the stateful record of one optimization run, including its
// transition history.
type Scenario struct {
	ID         string
	User       string
	Problem    *problem.Problem
	Parameters *problem.Parameters

	Status        Status
	FailureReason FailureReason

	SubmittedAt time.Time
	StartedAt   time.Time
	EndedAt     time.Time

	Generation     int
	BestFitness    float64
	Hypervolume    float64
	meanGenSeconds float64

	Transitions []Transition

	cancel func()

	engine *solver.Engine
	front  []*solver.Individual
}

// Front returns the rank-0 Pareto front extracted when the scenario
// reached a terminal state. It is nil until then.
func (sc *Scenario) Front() []*solver.Individual {
	return sc.front
}

// Transition is one append-only, time-stamped status change recorded for
// a scenario's audit trail.
type Transition struct {
	From Status
	To   Status
	At   time.Time
}

// transition appends a time-stamped record of sc moving to a new status
// and updates Status to match. Only the goroutine that owns sc (the
// Scheduler during admission, or the scenario's own run goroutine
// thereafter) calls this.
func (sc *Scenario) transition(to Status) {
	sc.Transitions = append(sc.Transitions, Transition{From: sc.Status, To: to, At: time.Now()})
	sc.Status = to
}
