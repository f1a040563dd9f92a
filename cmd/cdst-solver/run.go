package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <network-file> <scenario-id>",
		Short: "Run one allocation scenario to completion",
		Long:  "Load a network config, evolve an NSGA-II population against it, and print the extracted Pareto front.",
		Args:  cobra.ExactArgs(2),
	}
	flags := registerCommonFlags(cmd)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		networkPath, scenarioID := args[0], args[1]
		ctx := cmd.Context()

		p, provider, err := buildProblem(ctx, networkPath, flags)
		if err != nil {
			return err
		}
		defer provider.Close()

		paramsCfg, err := flags.parameters()
		if err != nil {
			return err
		}
		params := paramsCfg.ToParameters()

		store, err := flags.checkpointStore()
		if err != nil {
			return fmt.Errorf("opening checkpoint store: %w", err)
		}
		sched, tp, err := flags.newScheduler(ctx, store)
		if err != nil {
			return err
		}
		defer tp.Shutdown(ctx)

		res, history, err := driveScenario(ctx, sched, scenarioID, flags.user, p, params)
		if err != nil {
			return err
		}

		if err := writeResult(res, flags.output); err != nil {
			return err
		}
		return renderCharts(flags.chartOut, scenarioID, res, history)
	}

	return cmd
}
