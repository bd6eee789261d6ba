package main

import (
	"github.com/spf13/cobra"

	"github.com/derekschultz/lol-dfs-optimizer-sub001/pkg/logger"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "optimizer",
		Short: "DFS lineup optimizer for League of Legends contests",
		Long: `Optimizer builds DraftKings League of Legends lineups from a player
slate, either by exposure-steered Monte Carlo construction or by genetic
evolution, and ranks them by simulated contest performance.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	verbose := cmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		level := "info"
		if *verbose {
			level = "debug"
		}
		logger.InitLogger(level, true)
	}

	cmd.AddCommand(newSimulateCommand())
	cmd.AddCommand(newEvolveCommand())

	return cmd
}

func execute() error {
	return newRootCommand().Execute()
}
