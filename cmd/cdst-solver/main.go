// Command cdst-solver runs the CDST laboratory workload allocation
// optimizer: load a network config, evolve an NSGA-II population against
// it, and extract the resulting Pareto front of allocations.
package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:     "cdst-solver",
		Short:   "CDST laboratory workload allocation optimizer",
		Version: version,
	}

	rootCmd.AddCommand(newRunCmd(), newResumeCmd(), newServeCmd())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
