package main

import (
	"github.com/spf13/cobra"
)

func newSimulateCommand() *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Build lineups and rank them by simulated contest performance",
		Long: `Simulate builds the requested number of lineups with the exposure
ledger steering player selection, samples a Monte Carlo performance grid,
and ranks every lineup by its composite contest rating.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return simulateE(cmd, opts)
		},
	}
	opts.bind(cmd)
	return cmd
}

func simulateE(cmd *cobra.Command, opts *runOptions) error {
	eng, err := opts.setup()
	if err != nil {
		return err
	}

	ctx, stop := runContext(cmd)
	defer stop()

	result, err := eng.RunSimulation(ctx, opts.count)
	if err != nil {
		return err
	}
	return opts.output(cmd, result)
}
