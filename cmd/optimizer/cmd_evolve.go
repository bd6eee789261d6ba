package main

import (
	"github.com/spf13/cobra"

	"github.com/derekschultz/lol-dfs-optimizer-sub001/pkg/config"
)

type evolveOptions struct {
	runOptions
	population  int
	generations int
}

func newEvolveCommand() *cobra.Command {
	opts := &evolveOptions{}
	cmd := &cobra.Command{
		Use:   "evolve",
		Short: "Evolve lineups with the genetic optimizer",
		Long: `Evolve seeds a population from six construction profiles, improves it
with tournament selection, crossover, and mutation, then fully simulates
the selected survivors before ranking them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return evolveE(cmd, opts)
		},
	}
	opts.bind(cmd)
	cmd.Flags().IntVar(&opts.population, "population", 0, "population size (default from config)")
	cmd.Flags().IntVar(&opts.generations, "generations", 0, "generation count (default from config)")
	return cmd
}

func evolveE(cmd *cobra.Command, opts *evolveOptions) error {
	eng, err := opts.setup(func(cfg *config.Config) {
		if opts.population > 0 {
			cfg.GeneticPopulation = opts.population
		}
		if opts.generations > 0 {
			cfg.GeneticGenerations = opts.generations
		}
	})
	if err != nil {
		return err
	}

	ctx, stop := runContext(cmd)
	defer stop()

	result, err := eng.RunGenetic(ctx, opts.count)
	if err != nil {
		return err
	}
	return opts.output(cmd, result)
}
