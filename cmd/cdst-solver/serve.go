package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/cdstlab/optimizer/internal/distance"
	"github.com/cdstlab/optimizer/internal/result"
	"github.com/cdstlab/optimizer/internal/scheduler"
	"github.com/cdstlab/optimizer/internal/telemetry"
)

// serveSession backs the interactive serve-cli loop: one long-lived
// Scheduler shared across every scenario submitted over stdin, plus the
// distance Providers each scenario's Problem was built with (closed on
// quit).
type serveSession struct {
	flags     *commonFlags
	sched     *scheduler.Scheduler
	telemetry *telemetry.Provider

	mu        sync.Mutex
	providers []*distance.Provider
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve-cli",
		Short: "Run an interactive session backed by one long-lived scheduler",
		Long: `Read commands from stdin, one per line, against a single Scheduler:

  run <network-file> <scenario-id>    submit a scenario
  cancel <scenario-id>                request cooperative cancellation
  result <scenario-id>                print the extracted result (once terminal)
  quit                                 exit

Progress frames for running scenarios print to stderr as they arrive;
finished results print to stdout.`,
		Args: cobra.NoArgs,
	}
	flags := registerCommonFlags(cmd)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		store, err := flags.checkpointStore()
		if err != nil {
			return fmt.Errorf("opening checkpoint store: %w", err)
		}
		sched, tp, err := flags.newScheduler(cmd.Context(), store)
		if err != nil {
			return err
		}
		s := &serveSession{flags: flags, sched: sched, telemetry: tp}
		defer s.telemetry.Shutdown(cmd.Context())
		defer s.closeProviders()
		return s.loop(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
	}

	return cmd
}

func (s *serveSession) closeProviders() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.providers {
		p.Close()
	}
}

func (s *serveSession) loop(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprintln(out, "cdst-solver interactive session, type 'quit' to exit")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "quit", "exit":
			return nil
		case "run":
			if len(fields) != 3 {
				fmt.Fprintln(os.Stderr, "usage: run <network-file> <scenario-id>")
				continue
			}
			s.startScenario(ctx, fields[1], fields[2])
		case "cancel":
			if len(fields) != 2 {
				fmt.Fprintln(os.Stderr, "usage: cancel <scenario-id>")
				continue
			}
			if err := s.sched.CancelScenario(fields[1]); err != nil {
				fmt.Fprintf(os.Stderr, "cancel %s: %v\n", fields[1], err)
			}
		case "result":
			if len(fields) != 2 {
				fmt.Fprintln(os.Stderr, "usage: result <scenario-id>")
				continue
			}
			s.printResult(fields[1])
		default:
			fmt.Fprintf(os.Stderr, "unknown command %q\n", fields[0])
		}
	}
	return scanner.Err()
}

// startScenario loads the network file, submits the scenario, and streams
// its progress frames to stderr from a background goroutine so the
// interactive loop keeps accepting commands while it runs.
func (s *serveSession) startScenario(ctx context.Context, networkPath, scenarioID string) {
	p, provider, err := buildProblem(ctx, networkPath, s.flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "run %s: %v\n", scenarioID, err)
		return
	}
	s.mu.Lock()
	s.providers = append(s.providers, provider)
	s.mu.Unlock()

	paramsCfg, err := s.flags.parameters()
	if err != nil {
		fmt.Fprintf(os.Stderr, "run %s: %v\n", scenarioID, err)
		return
	}
	params := paramsCfg.ToParameters()

	go func() {
		res, _, err := driveScenario(ctx, s.sched, scenarioID, s.flags.user, p, params)
		if err != nil {
			fmt.Fprintf(os.Stderr, "scenario %s: %v\n", scenarioID, err)
			return
		}
		if err := writeResult(res, "-"); err != nil {
			fmt.Fprintf(os.Stderr, "scenario %s: %v\n", scenarioID, err)
		}
	}()
}

func (s *serveSession) printResult(scenarioID string) {
	sc, err := s.sched.GetResult(scenarioID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "result %s: %v\n", scenarioID, err)
		return
	}
	if sc.Status != scheduler.StatusCompleted {
		fmt.Fprintf(os.Stderr, "result %s: scenario ended as %s\n", scenarioID, sc.Status)
		return
	}
	res := result.Extract(scenarioID, sc.Problem, sc.Front())
	if err := writeResult(res, "-"); err != nil {
		fmt.Fprintf(os.Stderr, "result %s: %v\n", scenarioID, err)
	}
}
