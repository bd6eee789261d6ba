// Package simulator draws correlated Monte Carlo outcomes for a player pool
// and aggregates per-lineup score distributions into contest statistics.
package simulator

import (
	"context"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/derekschultz/lol-dfs-optimizer-sub001/internal/optimizer"
	"github.com/derekschultz/lol-dfs-optimizer-sub001/pkg/types"
)

const (
	// defaultBatchSize is the number of iterations drawn between
	// cancellation checks and progress callbacks.
	defaultBatchSize = 1000

	// DefaultRandomness widens each draw by a uniform factor in
	// [1-R, 1+R] on top of the player's normal distribution.
	DefaultRandomness = 0.3
)

// PerformanceGrid holds one sampled outcome per (player, iteration). Rows are
// players in pool order; the grid is read-only after sampling and safe to
// share across scoring goroutines.
type PerformanceGrid struct {
	index      map[string]int
	outcomes   [][]float64
	iterations int
}

// Iterations returns the number of sampled worlds.
func (g *PerformanceGrid) Iterations() int {
	return g.iterations
}

// Players returns the number of sampled players.
func (g *PerformanceGrid) Players() int {
	return len(g.outcomes)
}

// Outcomes returns the iteration-indexed outcome series for a player.
func (g *PerformanceGrid) Outcomes(playerID string) ([]float64, bool) {
	row, ok := g.index[playerID]
	if !ok {
		return nil, false
	}
	return g.outcomes[row], true
}

// SamplerConfig controls outcome generation.
type SamplerConfig struct {
	Seed       uint64
	Randomness float64
	BatchSize  int
	// Progress, when set, is called after each completed batch with the
	// number of iterations finished so far.
	Progress func(completed, total int)
}

// Sampler draws per-player fantasy point outcomes from Normal(projection,
// stddev), clamped at zero and scaled by an iteration-local randomness
// factor. Correlation between players is applied later, at scoring time.
type Sampler struct {
	pool       *optimizer.PlayerPool
	rng        *rand.Rand
	normal     distuv.Normal
	randomness float64
	batchSize  int
	progress   func(completed, total int)
}

// NewSampler builds a sampler over the pool. The seed fixes the full draw
// sequence, so identical seeds reproduce identical grids.
func NewSampler(pool *optimizer.PlayerPool, config SamplerConfig) *Sampler {
	src := rand.NewSource(config.Seed)

	randomness := config.Randomness
	if randomness < 0 {
		randomness = 0
	}
	if randomness > 1 {
		randomness = 1
	}

	batchSize := config.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	return &Sampler{
		pool:       pool,
		rng:        rand.New(src),
		normal:     distuv.Normal{Mu: 0, Sigma: 1, Src: src},
		randomness: randomness,
		batchSize:  batchSize,
		progress:   config.Progress,
	}
}

// Sample generates iterations outcomes for every pool player. Work is done
// in batches; cancellation is observed between batches and surfaces as a
// Cancelled error with no partial grid.
func (s *Sampler) Sample(ctx context.Context, iterations int) (*PerformanceGrid, error) {
	if iterations <= 0 {
		return nil, types.NewEngineError(types.ErrKindInvalidInput,
			"iterations must be positive, got %d", iterations)
	}

	players := s.pool.Players
	grid := &PerformanceGrid{
		index:      make(map[string]int, len(players)),
		outcomes:   make([][]float64, len(players)),
		iterations: iterations,
	}
	for row, player := range players {
		grid.index[player.ID] = row
		grid.outcomes[row] = make([]float64, iterations)
	}

	for start := 0; start < iterations; start += s.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, types.WrapEngineError(types.ErrKindCancelled, err,
				"sampling cancelled after %d of %d iterations", start, iterations)
		}

		end := start + s.batchSize
		if end > iterations {
			end = iterations
		}
		for iter := start; iter < end; iter++ {
			for row, player := range players {
				grid.outcomes[row][iter] = s.draw(player)
			}
		}

		if s.progress != nil {
			s.progress(end, iterations)
		}
	}

	return grid, nil
}

// draw produces one outcome: a normal draw clamped at zero, widened by a
// uniform factor in [1-randomness, 1+randomness].
func (s *Sampler) draw(player *types.Player) float64 {
	outcome := player.ProjectedPoints + s.normal.Rand()*player.StdDev
	if outcome < 0 {
		outcome = 0
	}
	if s.randomness > 0 {
		outcome *= 1 + s.randomness*(2*s.rng.Float64()-1)
	}
	return outcome
}
