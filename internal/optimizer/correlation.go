package optimizer

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/derekschultz/lol-dfs-optimizer-sub001/pkg/logger"
	"github.com/derekschultz/lol-dfs-optimizer-sub001/pkg/types"
)

// CorrelationConfig holds the pairwise correlation coefficients.
type CorrelationConfig struct {
	SameTeam             float64
	SameTeamSamePosition float64
	OpposingTeam         float64
}

// DefaultCorrelationConfig returns the LoL contest coefficients: teammates
// rise and fall together, opposing players trade off through the shared
// game state.
func DefaultCorrelationConfig() CorrelationConfig {
	return CorrelationConfig{
		SameTeam:             0.65,
		SameTeamSamePosition: 0.20,
		OpposingTeam:         -0.15,
	}
}

type pairKey struct {
	low  string
	high string
}

func newPairKey(a, b string) pairKey {
	if a < b {
		return pairKey{low: a, high: b}
	}
	return pairKey{low: b, high: a}
}

// CorrelationMatrix stores pairwise player correlations under canonical
// unordered keys. Built once per run, read-only afterwards.
type CorrelationMatrix struct {
	values map[pairKey]float64
}

// NewCorrelationMatrix builds the full pairwise table for a pool.
func NewCorrelationMatrix(pool *PlayerPool, config CorrelationConfig) *CorrelationMatrix {
	matrix := &CorrelationMatrix{
		values: make(map[pairKey]float64, len(pool.Players)*(len(pool.Players)-1)/2),
	}

	for i, a := range pool.Players {
		for _, b := range pool.Players[i+1:] {
			matrix.values[newPairKey(a.ID, b.ID)] = calculatePairCorrelation(a, b, config)
		}
	}

	logger.WithComponent("correlation").WithFields(logrus.Fields{
		"total_players": len(pool.Players),
		"total_pairs":   len(matrix.values),
	}).Debug("correlation matrix built")

	return matrix
}

func calculatePairCorrelation(a, b *types.Player, config CorrelationConfig) float64 {
	var correlation float64
	if a.Team == b.Team {
		correlation = config.SameTeam
		if a.Position == b.Position {
			correlation += config.SameTeamSamePosition
		}
	} else {
		correlation = config.OpposingTeam
	}
	return math.Max(-1, math.Min(1, correlation))
}

// Get returns the correlation between two players: 1 for a player with
// itself, 0 for unknown ids.
func (m *CorrelationMatrix) Get(idA, idB string) float64 {
	if idA == idB {
		return 1.0
	}
	if value, ok := m.values[newPairKey(idA, idB)]; ok {
		return value
	}
	return 0.0
}

// Size returns the number of stored pairs.
func (m *CorrelationMatrix) Size() int {
	return len(m.values)
}
