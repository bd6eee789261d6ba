package optimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/derekschultz/lol-dfs-optimizer-sub001/pkg/types"
)

func TestCorrelationMatrix_PairRules(t *testing.T) {
	pool := mustPool(t, lckSlate(), types.ExposureSettings{})
	matrix := NewCorrelationMatrix(pool, DefaultCorrelationConfig())

	assert.InDelta(t, 0.65, matrix.Get("t1-faker", "t1-zeus"), 0.001, "teammates rise together")
	assert.InDelta(t, -0.15, matrix.Get("t1-faker", "gen-chovy"), 0.001, "opponents trade off")
	assert.InDelta(t, -0.15, matrix.Get("t1-faker", "kt-bdd"), 0.001, "cross-game pairs trade off too")
	assert.InDelta(t, 1.0, matrix.Get("t1-faker", "t1-faker"), 0.001)
	assert.Zero(t, matrix.Get("t1-faker", "ghost"), "unknown ids are uncorrelated")
	assert.InDelta(t, matrix.Get("t1-zeus", "t1-faker"), matrix.Get("t1-faker", "t1-zeus"), 0.0001,
		"lookups are symmetric")
}

func TestCorrelationMatrix_SamePositionBoost(t *testing.T) {
	inputs := []types.PlayerInput{
		{ID: "mid1", Name: "Starter", Position: "MID", Team: "T1", Opponent: "GEN", Salary: 7000, ProjectedPoints: 70.0, Ownership: 30.0},
		{ID: "mid2", Name: "Sub", Position: "MID", Team: "T1", Opponent: "GEN", Salary: 5000, ProjectedPoints: 40.0, Ownership: 5.0},
		{ID: "adc1", Name: "Carry", Position: "ADC", Team: "GEN", Opponent: "T1", Salary: 7000, ProjectedPoints: 65.0, Ownership: 25.0},
	}
	pool := mustPool(t, inputs, types.ExposureSettings{})
	matrix := NewCorrelationMatrix(pool, DefaultCorrelationConfig())

	assert.InDelta(t, 0.85, matrix.Get("mid1", "mid2"), 0.001, "same team and position stacks the boost")
	assert.InDelta(t, -0.15, matrix.Get("mid1", "adc1"), 0.001)
}

func TestCorrelationMatrix_ClampsToUnitRange(t *testing.T) {
	inputs := []types.PlayerInput{
		{ID: "mid1", Name: "Starter", Position: "MID", Team: "T1", Opponent: "GEN", Salary: 7000, ProjectedPoints: 70.0},
		{ID: "mid2", Name: "Sub", Position: "MID", Team: "T1", Opponent: "GEN", Salary: 5000, ProjectedPoints: 40.0},
		{ID: "adc1", Name: "Carry", Position: "ADC", Team: "GEN", Opponent: "T1", Salary: 7000, ProjectedPoints: 65.0},
	}
	pool := mustPool(t, inputs, types.ExposureSettings{})
	matrix := NewCorrelationMatrix(pool, CorrelationConfig{
		SameTeam:             0.9,
		SameTeamSamePosition: 0.3,
		OpposingTeam:         -1.4,
	})

	assert.InDelta(t, 1.0, matrix.Get("mid1", "mid2"), 0.001)
	assert.InDelta(t, -1.0, matrix.Get("mid1", "adc1"), 0.001)
}

func TestCorrelationMatrix_CoversAllPairs(t *testing.T) {
	pool := mustPool(t, lckSlate(), types.ExposureSettings{})
	matrix := NewCorrelationMatrix(pool, DefaultCorrelationConfig())

	// 24 players pair into 24*23/2 entries.
	assert.Equal(t, 276, matrix.Size())
}
