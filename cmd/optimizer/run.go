package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/derekschultz/lol-dfs-optimizer-sub001/pkg/config"
	"github.com/derekschultz/lol-dfs-optimizer-sub001/pkg/engine"
	"github.com/derekschultz/lol-dfs-optimizer-sub001/pkg/logger"
	"github.com/derekschultz/lol-dfs-optimizer-sub001/pkg/types"
)

// runOptions are the flags shared by simulate and evolve.
type runOptions struct {
	poolPath   string
	demo       bool
	count      int
	seed       int64
	iterations int
	randomness float64
	workers    int
	jsonOut    bool
}

func (o *runOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.poolPath, "pool", "p", "", "player slate JSON file")
	cmd.Flags().BoolVar(&o.demo, "demo", false, "use the built-in demo slate instead of --pool")
	cmd.Flags().IntVarP(&o.count, "count", "n", 5, "number of lineups to produce")
	cmd.Flags().Int64Var(&o.seed, "seed", 0, "random seed; 0 derives one from the clock")
	cmd.Flags().IntVar(&o.iterations, "iterations", 0, "Monte Carlo iterations (default from config)")
	cmd.Flags().Float64Var(&o.randomness, "randomness", -1, "sampling randomness in [0,1] (default from config)")
	cmd.Flags().IntVar(&o.workers, "workers", 0, "scoring worker count (default from config)")
	cmd.Flags().BoolVar(&o.jsonOut, "json", false, "emit the full result as JSON")
}

func (o *runOptions) apply(cfg *config.Config) {
	if o.iterations > 0 {
		cfg.Iterations = o.iterations
	}
	if o.randomness >= 0 {
		cfg.Randomness = o.randomness
	}
	if o.workers > 0 {
		cfg.SimulationWorkers = o.workers
	}
}

// setup loads configuration and the slate, then returns an initialized
// engine. Extra overrides run after the shared flag overrides so
// command-specific flags win.
func (o *runOptions) setup(overrides ...func(*config.Config)) (*engine.Engine, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	o.apply(cfg)
	for _, override := range overrides {
		override(cfg)
	}

	slate, err := o.slate()
	if err != nil {
		return nil, err
	}

	log := logger.WithComponent("cli")
	engineOpts := []engine.Option{
		engine.WithStatus(func(message string) {
			log.Info(message)
		}),
		engine.WithProgress(func(percent float64, stage types.ProgressStage) {
			log.WithFields(logrus.Fields{
				"percent": fmt.Sprintf("%.0f", percent),
				"stage":   string(stage),
			}).Debug("progress")
		}),
	}
	if o.seed != 0 {
		engineOpts = append(engineOpts, engine.WithSeed(o.seed))
	}

	eng := engine.New(cfg, engineOpts...)
	if err := eng.Initialize(slate.Players, slate.Exposure, slate.Seeds); err != nil {
		return nil, err
	}
	return eng, nil
}

func (o *runOptions) slate() (*Slate, error) {
	if o.demo {
		return demoSlate(), nil
	}
	if o.poolPath == "" {
		return nil, errors.New("either --pool or --demo is required")
	}
	return loadSlate(o.poolPath)
}

func (o *runOptions) output(cmd *cobra.Command, result *types.OptimizationResult) error {
	if o.jsonOut {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	renderResult(cmd.OutOrStdout(), result)
	return nil
}

// runContext derives a context cancelled on SIGINT or SIGTERM, so an
// interrupted run stops at the engine's next suspension point.
func runContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}
