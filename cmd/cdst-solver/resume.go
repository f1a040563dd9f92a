package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newResumeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resume <network-file> <scenario-id>",
		Short: "Resume a scenario from its last checkpoint",
		Long:  "Rebuild the Problem from the network config and continue evolving from the population and generation stored under --checkpoint-dir.",
		Args:  cobra.ExactArgs(2),
	}
	flags := registerCommonFlags(cmd)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if flags.checkpointDir == "" {
			return fmt.Errorf("resume requires --checkpoint-dir to point at the scenario's checkpoint directory")
		}
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
		if _, ok, err := store.Get(scenarioID); err != nil {
			return fmt.Errorf("checking checkpoint for scenario %s: %w", scenarioID, err)
		} else if !ok {
			return fmt.Errorf("no checkpoint found for scenario %s under %s", scenarioID, flags.checkpointDir)
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
