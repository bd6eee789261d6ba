package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/derekschultz/lol-dfs-optimizer-sub001/internal/genetic"
	"github.com/derekschultz/lol-dfs-optimizer-sub001/internal/optimizer"
	"github.com/derekschultz/lol-dfs-optimizer-sub001/internal/simulator"
	"github.com/derekschultz/lol-dfs-optimizer-sub001/pkg/logger"
	"github.com/derekschultz/lol-dfs-optimizer-sub001/pkg/types"
)

// Final genetic ranking blends the simulated rating with the surrogate
// fitness that drove evolution.
const (
	nexusBlendWeight   = 0.7
	fitnessBlendWeight = 0.3
)

// RunGenetic evolves a population of lineups, fully simulates the selected
// survivors, and ranks them by blended score. The result carries the
// evolution report alongside the usual summary.
func (e *Engine) RunGenetic(ctx context.Context, count int) (*types.OptimizationResult, error) {
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
	runLog := logger.WithRunContext(uuid.New().String(), "genetic", count)

	e.emitProgress(0, types.StageInitializing)
	e.emitStatus("seeding population for %d lineups", count)

	driver := genetic.NewDriver(e.pool, e.correlations, e.geneticConfig(), e.cfg.SalaryCap, e.prioritizeProjections, e.seed)

	e.emitProgress(genPopulationPercent, types.StagePopulationCreated)
	evolved, err := driver.Evolve(ctx, count)
	if err != nil {
		e.failRun(err)
		return nil, err
	}
	e.emitProgress(genSelectionPercent, types.StageFinalSelection)
	e.emitStatus("evolved %d generations, simulating %d lineups",
		evolved.Report.Generations, len(evolved.Lineups))

	grid, err := e.samplePerformances(ctx, genSelectionPercent, genSampleEndPercent)
	if err != nil {
		e.failRun(err)
		return nil, err
	}

	pointers := make([]*types.Lineup, len(evolved.Lineups))
	for i := range evolved.Lineups {
		pointers[i] = &evolved.Lineups[i]
	}
	scored, scoreWarnings, err := e.scoreLineups(ctx, pointers, grid, genSampleEndPercent, genScoreEndPercent)
	if err != nil {
		e.failRun(err)
		return nil, err
	}
	warnings := append(evolved.Warnings, scoreWarnings...)

	sortByBlendedScore(scored)
	for i := range scored {
		scored[i].Name = fmt.Sprintf("Lineup %d", i+1)
	}

	// The driver owns its ledger, so rebuild exposure from the final
	// selection for the report.
	ledger := optimizer.NewLedger(e.pool)
	ledger.SetPlanned(len(scored))
	for i := range scored {
		ledger.Record(&scored[i])
	}

	summary := simulator.BuildSummary(scored, count, e.iterations(), time.Since(start), warnings)
	summary.Exposure = ledger.Report()

	report := evolved.Report
	e.emitProgress(100, types.StageCompleted)
	e.emitStatus("completed %d lineups in %s", len(scored), time.Since(start).Round(time.Millisecond))
	runLog.WithFields(logrus.Fields{
		"generated":   len(scored),
		"generations": report.Generations,
		"warnings":    len(warnings),
		"elapsed_ms":  time.Since(start).Milliseconds(),
	}).Info("genetic run complete")

	return &types.OptimizationResult{Lineups: scored, Summary: summary, Evolution: &report}, nil
}

// geneticConfig maps engine configuration onto the driver, wiring evolution
// progress into the evolving percent band.
func (e *Engine) geneticConfig() genetic.Config {
	return genetic.Config{
		Population:     e.cfg.GeneticPopulation,
		Generations:    e.cfg.GeneticGenerations,
		EliteRate:      e.cfg.GeneticEliteRate,
		CrossoverRate:  e.cfg.GeneticCrossoverRate,
		MutationRate:   e.cfg.GeneticMutationRate,
		TournamentSize: e.cfg.GeneticTournamentSize,
		MaxStagnation:  e.cfg.GeneticMaxStagnation,
		FitnessBatch:   e.cfg.GeneticFitnessBatch,
		BuildAttempts:  e.cfg.MaxAttemptsPerLineup,
		Workers:        e.cfg.SimulationWorkers,
		Progress: func(generation, total int) {
			percent := genPopulationPercent +
				(genEvolveEndPercent-genPopulationPercent)*float64(generation)/float64(total)
			e.emitProgress(percent, types.StageEvolving)
		},
	}
}

// sortByBlendedScore orders by the blended rating, best first, with
// projected points and lineup id as deterministic tie-breaks.
func sortByBlendedScore(lineups []types.Lineup) {
	blended := func(l types.Lineup) float64 {
		return nexusBlendWeight*l.NexusScore + fitnessBlendWeight*l.GeneticFitness
	}
	sort.SliceStable(lineups, func(i, j int) bool {
		bi, bj := blended(lineups[i]), blended(lineups[j])
		if bi != bj {
			return bi > bj
		}
		if lineups[i].ProjectedPoints != lineups[j].ProjectedPoints {
			return lineups[i].ProjectedPoints > lineups[j].ProjectedPoints
		}
		return lineups[i].ID < lineups[j].ID
	})
}
