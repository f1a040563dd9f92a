package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cdstlab/optimizer/internal/chart"
	"github.com/cdstlab/optimizer/internal/problem"
	"github.com/cdstlab/optimizer/internal/result"
	"github.com/cdstlab/optimizer/internal/scheduler"
)

// driveScenario submits scenarioID to sched and blocks until it reaches a
// terminal state, printing one progress line per frame to stderr and
// cancelling cooperatively on SIGINT/SIGTERM. It returns the extracted
// result and the hypervolume history for --chart-out.
func driveScenario(ctx context.Context, sched *scheduler.Scheduler, scenarioID, user string, p *problem.Problem, params *problem.Parameters) (result.Result, []chart.ConvergencePoint, error) {
	frames, unsubscribe, err := sched.RunScenario(ctx, scenarioID, user, p, params)
	if err != nil {
		return result.Result{}, nil, fmt.Errorf("submitting scenario %s: %w", scenarioID, err)
	}
	defer unsubscribe()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var history []chart.ConvergencePoint
	lastGen := -1

	for {
		select {
		case sig := <-sigCh:
			fmt.Fprintf(os.Stderr, "received %s, cancelling scenario %s\n", sig, scenarioID)
			_ = sched.CancelScenario(scenarioID)
		case f, ok := <-frames:
			if !ok {
				return result.Result{}, history, fmt.Errorf("scenario %s: progress channel closed before a terminal frame", scenarioID)
			}
			if f.Generation != lastGen {
				history = append(history, chart.ConvergencePoint{Generation: f.Generation, Hypervolume: f.Hypervolume})
				lastGen = f.Generation
			}
			fmt.Fprintf(os.Stderr, "[%s] stage=%s status=%s generation=%d/%d best=%.4f hv=%.4f elapsed=%.1fs eta=%.1fs\n",
				f.ScenarioID, f.Stage, f.Status, f.Generation, f.MaxGenerations, f.BestComposite, f.Hypervolume, f.ElapsedSeconds, f.ETASeconds)

			switch f.Status {
			case scheduler.StatusCompleted, scheduler.StatusFailed, scheduler.StatusCancelled:
				sc, err := sched.GetResult(scenarioID)
				if err != nil {
					return result.Result{}, history, fmt.Errorf("scenario %s: %w", scenarioID, err)
				}
				if sc.Status != scheduler.StatusCompleted {
					reason := sc.FailureReason
					if reason == "" {
						reason = "cancelled"
					}
					return result.Result{}, history, fmt.Errorf("scenario %s ended as %s: %s", scenarioID, sc.Status, reason)
				}
				return result.Extract(scenarioID, p, sc.Front()), history, nil
			}
		}
	}
}
