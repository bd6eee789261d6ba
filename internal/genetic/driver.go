// Package genetic evolves a population of candidate lineups with tournament
// selection, positional crossover, and diversity-preserving replacement. The
// driver owns its own ledger and builder so evolution can reseed individuals
// without touching the caller's exposure state.
package genetic

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/derekschultz/lol-dfs-optimizer-sub001/internal/optimizer"
	"github.com/derekschultz/lol-dfs-optimizer-sub001/pkg/logger"
	"github.com/derekschultz/lol-dfs-optimizer-sub001/pkg/types"
)

// Config tunes the evolution loop. Rates outside their documented ranges are
// clamped rather than rejected.
type Config struct {
	Population     int
	Generations    int
	EliteRate      float64 // fraction carried unchanged, 0.05..0.20
	CrossoverRate  float64 // probability of crossover vs clone, 0.4..0.7
	MutationRate   float64 // probability of mutating an offspring, 0.15..0.6
	TournamentSize int     // 2..5
	MaxStagnation  int     // generations without improvement before a reseed
	FitnessBatch   int     // evaluations between cancellation checks
	BuildAttempts  int     // builder retries per individual
	Workers        int     // fitness evaluation shards, 0 or 1 is sequential
	// Progress, when set, is called after each completed generation.
	Progress func(generation, total int)
}

// DefaultConfig mirrors the engine configuration defaults.
func DefaultConfig() Config {
	return Config{
		Population:     100,
		Generations:    50,
		EliteRate:      0.10,
		CrossoverRate:  0.60,
		MutationRate:   0.30,
		TournamentSize: 3,
		MaxStagnation:  8,
		FitnessBatch:   10,
		BuildAttempts:  5,
	}
}

func (c Config) normalized() Config {
	if c.Population <= 0 {
		c.Population = 100
	}
	if c.Generations <= 0 {
		c.Generations = 50
	}
	c.EliteRate = clamp(c.EliteRate, 0.05, 0.20)
	c.CrossoverRate = clamp(c.CrossoverRate, 0.40, 0.70)
	c.MutationRate = clamp(c.MutationRate, 0.15, 0.60)
	if c.TournamentSize == 0 {
		c.TournamentSize = 3
	}
	if c.TournamentSize < 2 {
		c.TournamentSize = 2
	}
	if c.TournamentSize > 5 {
		c.TournamentSize = 5
	}
	if c.MaxStagnation <= 0 {
		c.MaxStagnation = 8
	}
	if c.FitnessBatch <= 0 {
		c.FitnessBatch = 10
	}
	if c.BuildAttempts <= 0 {
		c.BuildAttempts = 5
	}
	return c
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Individual pairs a lineup with its surrogate fitness.
type Individual struct {
	Lineup  *types.Lineup
	Fitness float64
}

// Result carries the selected lineups (genetic fitness set), the evolution
// report, and any warnings accumulated during the run.
type Result struct {
	Lineups  []types.Lineup
	Report   types.EvolutionReport
	Warnings []string
}

// Driver runs the evolution loop over a shared read-only pool.
type Driver struct {
	pool         *optimizer.PlayerPool
	correlations *optimizer.CorrelationMatrix
	builder      *optimizer.Builder
	validator    *optimizer.Validator
	ledger       *optimizer.Ledger
	rng          *rand.Rand
	config       Config
	salaryCap    int
	log          *logrus.Entry
}

// NewDriver builds a driver with its own ledger, builder, and validator. The
// seed fixes every random decision in the run.
func NewDriver(pool *optimizer.PlayerPool, correlations *optimizer.CorrelationMatrix, config Config, salaryCap int, prioritizeProjections bool, seed int64) *Driver {
	config = config.normalized()
	rng := rand.New(rand.NewSource(seed))
	ledger := optimizer.NewLedger(pool)

	return &Driver{
		pool:         pool,
		correlations: correlations,
		builder:      optimizer.NewBuilder(pool, ledger, correlations, rng, salaryCap, prioritizeProjections),
		validator:    optimizer.NewValidator(pool, salaryCap),
		ledger:       ledger,
		rng:          rng,
		config:       config,
		salaryCap:    salaryCap,
		log:          logger.WithComponent("genetic"),
	}
}

// Evolve seeds a population, runs the configured number of generations, and
// returns count lineups chosen by interleaved fitness and diversity rank.
// Invalid offspring are skipped, never fatal; cancellation is observed
// between fitness batches and generations.
func (d *Driver) Evolve(ctx context.Context, count int) (*Result, error) {
	if count <= 0 {
		return nil, types.NewEngineError(types.ErrKindInvalidInput,
			"lineup count must be positive, got %d", count)
	}

	target := d.config.Population
	if target < count {
		target = count
	}
	d.ledger.SetPlanned(target)

	population, warnings, err := d.seedPopulation(ctx, target)
	if err != nil {
		return nil, err
	}
	if err := d.evaluate(ctx, population, 0); err != nil {
		return nil, err
	}
	sortByFitness(population)

	best := population[0].Fitness
	history := make([]float64, 0, d.config.Generations)
	stagnation := 0
	generations := 0

	for gen := 0; gen < d.config.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return nil, types.WrapEngineError(types.ErrKindCancelled, err,
				"evolution cancelled at generation %d", gen)
		}

		population, err = d.nextGeneration(ctx, population)
		if err != nil {
			return nil, err
		}
		sortByFitness(population)
		generations++
		history = append(history, population[0].Fitness)

		if population[0].Fitness > best {
			best = population[0].Fitness
			stagnation = 0
		} else {
			stagnation++
		}

		if stagnation >= d.config.MaxStagnation {
			population, err = d.reseed(ctx, population)
			if err != nil {
				return nil, err
			}
			sortByFitness(population)
			stagnation = 0
			d.log.WithFields(logrus.Fields{
				"generation":   gen + 1,
				"best_fitness": population[0].Fitness,
			}).Debug("stagnant population reseeded")
		}

		if d.config.Progress != nil {
			d.config.Progress(gen+1, d.config.Generations)
		}
	}

	selected := selectFinal(population, count)
	if len(selected) < count {
		warnings = append(warnings,
			fmt.Sprintf("selected %d of %d requested lineups from the final population", len(selected), count))
	}

	lineups := make([]types.Lineup, len(selected))
	for i, individual := range selected {
		lineup := *cloneLineup(individual.Lineup)
		lineup.GeneticFitness = individual.Fitness
		lineups[i] = lineup
	}

	report := types.EvolutionReport{
		Generations:    generations,
		FitnessHistory: history,
		FinalDiversity: averageDiversity(selected),
	}

	d.log.WithFields(logrus.Fields{
		"generations":     generations,
		"population":      len(population),
		"selected":        len(lineups),
		"best_fitness":    best,
		"final_diversity": report.FinalDiversity,
	}).Info("evolution complete")

	return &Result{Lineups: lineups, Report: report, Warnings: warnings}, nil
}

// nextGeneration carries the elites, breeds offspring until the population
// refills, and falls back to surviving parents when the attempt budget runs
// out so the population never shrinks.
func (d *Driver) nextGeneration(ctx context.Context, population []Individual) ([]Individual, error) {
	n := len(population)
	eliteCount := int(float64(n) * d.config.EliteRate)
	if eliteCount < 1 {
		eliteCount = 1
	}
	if eliteCount > n {
		eliteCount = n
	}

	next := make([]Individual, 0, n)
	next = append(next, population[:eliteCount]...)

	// The diversity gate stays strict until the generation is mostly
	// filled, then relaxes so a converged population can still complete.
	strictUntil := (n * 4) / 5
	attempts := 0
	maxAttempts := n * d.config.BuildAttempts * 2
	for len(next) < n && attempts < maxAttempts {
		if attempts%d.config.FitnessBatch == 0 {
			if err := ctx.Err(); err != nil {
				return nil, types.WrapEngineError(types.ErrKindCancelled, err,
					"breeding cancelled")
			}
		}
		attempts++

		offspring := d.breed(population)
		if offspring == nil {
			continue
		}
		if len(next) < strictUntil && tooSimilar(offspring, next, minJaccardDistance) {
			continue
		}
		d.validator.Accept(offspring)
		next = append(next, Individual{Lineup: offspring})
	}
	for len(next) < n {
		next = append(next, population[len(next)])
	}

	if err := d.evaluate(ctx, next, eliteCount); err != nil {
		return nil, err
	}
	return next, nil
}

// reseed keeps the top fifth of a stagnant population and rebuilds the rest
// from the seeding strategies.
func (d *Driver) reseed(ctx context.Context, population []Individual) ([]Individual, error) {
	n := len(population)
	keep := n / 5
	if keep < 1 {
		keep = 1
	}

	next := make([]Individual, 0, n)
	next = append(next, population[:keep]...)

	rebuilt, _, err := d.buildIndividuals(ctx, next, n)
	if err != nil {
		return nil, err
	}
	next = rebuilt
	for len(next) < n {
		next = append(next, population[len(next)])
	}

	if err := d.evaluate(ctx, next, keep); err != nil {
		return nil, err
	}
	return next, nil
}

// evaluate recomputes fitness from index from onward, sharded across the
// configured worker count. Shard w takes individuals from+w, from+w+workers,
// and so on; fitness is a pure function of the lineup, so the shard count
// never changes a value. Cancellation is polled between batches per shard.
func (d *Driver) evaluate(ctx context.Context, population []Individual, from int) error {
	workers := d.config.Workers
	if workers < 1 {
		workers = 1
	}
	if remaining := len(population) - from; workers > remaining {
		workers = remaining
	}

	g, gctx := errgroup.WithContext(ctx)
	for shard := 0; shard < workers; shard++ {
		shard := shard
		g.Go(func() error {
			done := 0
			for i := from + shard; i < len(population); i += workers {
				if done%d.config.FitnessBatch == 0 {
					if err := gctx.Err(); err != nil {
						return types.WrapEngineError(types.ErrKindCancelled, err,
							"fitness evaluation cancelled")
					}
				}
				done++
				population[i].Fitness = d.fitness(population[i].Lineup)
			}
			return nil
		})
	}
	return g.Wait()
}

// sortByFitness orders descending with lineup id as the deterministic
// tie-break.
func sortByFitness(population []Individual) {
	sort.SliceStable(population, func(i, j int) bool {
		if population[i].Fitness != population[j].Fitness {
			return population[i].Fitness > population[j].Fitness
		}
		return population[i].Lineup.ID < population[j].Lineup.ID
	})
}

// validateOffspring runs the structural rules with one duplicate fix-up
// pass. A false return means the candidate is discarded.
func (d *Driver) validateOffspring(lineup *types.Lineup) bool {
	err := d.validator.Validate(lineup)
	if err == nil {
		return true
	}
	if errors.Is(err, optimizer.ErrDuplicatePlayers) && d.validator.FixDuplicates(lineup) {
		return d.validator.Validate(lineup) == nil
	}
	return false
}
