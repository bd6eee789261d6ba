package engine

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/derekschultz/lol-dfs-optimizer-sub001/internal/optimizer"
	"github.com/derekschultz/lol-dfs-optimizer-sub001/internal/simulator"
	"github.com/derekschultz/lol-dfs-optimizer-sub001/pkg/logger"
	"github.com/derekschultz/lol-dfs-optimizer-sub001/pkg/types"
)

// Progress percent bands per run mode. Stages always advance through them
// in order, so observed percent is monotone.
const (
	simBuildDonePercent = 5.0
	simSampleEndPercent = 45.0
	simScoreEndPercent  = 95.0

	genPopulationPercent = 15.0
	genEvolveEndPercent  = 75.0
	genSelectionPercent  = 80.0
	genSampleEndPercent  = 85.0
	genScoreEndPercent   = 95.0
)

// RunSimulation builds count lineups with the ledger-steered builder, then
// simulates every one against a sampled performance grid and ranks by
// NexusScore. When fewer than count lineups are feasible the run still
// succeeds and the shortfall is recorded in the summary warnings.
func (e *Engine) RunSimulation(ctx context.Context, count int) (*types.OptimizationResult, error) {
	if err := e.requireInitialized(); err != nil {
		return nil, err
	}
	if count <= 0 {
		return nil, types.NewEngineError(types.ErrKindInvalidInput,
			"lineup count must be positive, got %d", count)
	}

	e.runMu.Lock()
	defer e.runMu.Unlock()
	ctx, done := e.beginRun(ctx)
	defer done()

	start := time.Now()
	runLog := logger.WithRunContext(uuid.New().String(), "simulation", count)

	e.emitProgress(0, types.StageInitializing)
	e.emitStatus("building %d lineups", count)

	rng := rand.New(rand.NewSource(e.seed))
	ledger := optimizer.NewLedger(e.pool)
	validator := optimizer.NewValidator(e.pool, e.cfg.SalaryCap)
	builder := optimizer.NewBuilder(e.pool, ledger, e.correlations, rng, e.cfg.SalaryCap, e.prioritizeProjections)
	generator := optimizer.NewGenerator(e.pool, builder, validator, ledger, e.cfg.MaxAttemptsPerLineup)

	seedCopies := make([]*types.Lineup, len(e.seeds))
	for i := range e.seeds {
		lineup := e.seeds[i]
		seedCopies[i] = &lineup
	}
	generator.Seed(seedCopies)

	built, warnings, err := generator.Generate(ctx, count, optimizer.BalancedProfile(e.cfg.Randomness))
	if err != nil {
		e.failRun(err)
		return nil, err
	}
	e.emitProgress(simBuildDonePercent, types.StageInitializing)
	e.emitStatus("built %d lineups, sampling performances", len(built))

	grid, err := e.samplePerformances(ctx, simBuildDonePercent, simSampleEndPercent)
	if err != nil {
		e.failRun(err)
		return nil, err
	}

	scored, scoreWarnings, err := e.scoreLineups(ctx, built, grid, simSampleEndPercent, simScoreEndPercent)
	if err != nil {
		e.failRun(err)
		return nil, err
	}
	warnings = append(warnings, scoreWarnings...)

	sortByNexusScore(scored)

	summary := simulator.BuildSummary(scored, count, e.iterations(), time.Since(start), warnings)
	summary.Exposure = ledger.Report()

	e.emitProgress(100, types.StageCompleted)
	e.emitStatus("completed %d lineups in %s", len(scored), time.Since(start).Round(time.Millisecond))
	runLog.WithFields(logrus.Fields{
		"generated":  len(scored),
		"warnings":   len(warnings),
		"elapsed_ms": time.Since(start).Milliseconds(),
	}).Info("simulation run complete")

	return &types.OptimizationResult{Lineups: scored, Summary: summary}, nil
}

func (e *Engine) iterations() int {
	if e.cfg.Iterations > 0 {
		return e.cfg.Iterations
	}
	return types.DefaultIterations
}

// samplePerformances draws the per-player outcome grid, mapping batch
// completion onto the [base, end] percent band of the final simulation
// stage.
func (e *Engine) samplePerformances(ctx context.Context, base, end float64) (*simulator.PerformanceGrid, error) {
	sampler := simulator.NewSampler(e.pool, simulator.SamplerConfig{
		Seed:       uint64(e.seed),
		Randomness: e.cfg.Randomness,
		BatchSize:  e.cfg.SimulationBatchSize,
		Progress: func(completed, total int) {
			e.emitProgress(base+(end-base)*float64(completed)/float64(total), types.StageFinalSimulation)
		},
	})
	return sampler.Sample(ctx, e.iterations())
}

// scoreLineups runs the contest simulation for every lineup, sharded across
// the configured worker count. Shard w takes lineups w, w+workers, ... and
// results merge back by index, so output order never depends on goroutine
// scheduling. A lineup that fails scoring is dropped with a warning; the
// rest of the batch survives.
func (e *Engine) scoreLineups(ctx context.Context, lineups []*types.Lineup, grid *simulator.PerformanceGrid, base, end float64) ([]types.Lineup, []string, error) {
	if len(lineups) == 0 {
		return nil, nil, nil
	}

	scorer := simulator.NewScorer(e.correlations, e.cfg.TargetTop)
	workers := e.cfg.SimulationWorkers
	if workers < 1 {
		workers = 1
	}
	if workers > len(lineups) {
		workers = len(lineups)
	}

	total := len(lineups)
	scored := make([]*types.Lineup, total)
	failures := make([]string, total)
	var completed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	for shard := 0; shard < workers; shard++ {
		shard := shard
		g.Go(func() error {
			for i := shard; i < total; i += workers {
				if err := gctx.Err(); err != nil {
					return types.WrapEngineError(types.ErrKindCancelled, err,
						"scoring cancelled after %d of %d lineups", completed.Load(), total)
				}

				lineup := lineups[i]
				stats, err := scorer.Score(lineup, grid)
				if err != nil {
					failures[i] = fmt.Sprintf("lineup %s dropped: %v", lineup.ID, err)
					completed.Add(1)
					continue
				}
				lineup.SimulationStats = stats
				score, components := e.nexus.Score(lineup)
				lineup.NexusScore = score
				lineup.ScoreComponents = components
				scored[i] = lineup

				done := completed.Add(1)
				e.emitProgress(base+(end-base)*float64(done)/float64(total), types.StageFinalSimulation)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	results := make([]types.Lineup, 0, total)
	var warnings []string
	for i := range scored {
		if scored[i] != nil {
			results = append(results, *scored[i])
		} else if failures[i] != "" {
			warnings = append(warnings, failures[i])
		}
	}
	if len(warnings) > 0 {
		e.log.WithFields(logrus.Fields{
			"dropped": len(warnings),
			"kept":    len(results),
		}).Warn("lineups dropped during scoring")
	}
	return results, warnings, nil
}

// sortByNexusScore orders best-first with projected points and lineup id as
// deterministic tie-breaks.
func sortByNexusScore(lineups []types.Lineup) {
	sort.SliceStable(lineups, func(i, j int) bool {
		if lineups[i].NexusScore != lineups[j].NexusScore {
			return lineups[i].NexusScore > lineups[j].NexusScore
		}
		if lineups[i].ProjectedPoints != lineups[j].ProjectedPoints {
			return lineups[i].ProjectedPoints > lineups[j].ProjectedPoints
		}
		return lineups[i].ID < lineups[j].ID
	})
}
