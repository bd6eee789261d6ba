package simulator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/derekschultz/lol-dfs-optimizer-sub001/pkg/types"
)

func TestBuildSummary_PortfolioAggregates(t *testing.T) {
	lineups := []types.Lineup{
		{ProjectedPoints: 400, NexusScore: 100, SimulationStats: types.SimulationStats{ROI: 5}},
		{ProjectedPoints: 410, NexusScore: 110, SimulationStats: types.SimulationStats{ROI: 10}},
		{ProjectedPoints: 450, NexusScore: 120, SimulationStats: types.SimulationStats{ROI: 15}},
	}
	warnings := []string{"one lineup short"}

	summary := BuildSummary(lineups, 4, 1000, 1500*time.Millisecond, warnings)

	assert.Equal(t, 4, summary.RequestedLineups)
	assert.Equal(t, 3, summary.GeneratedLineups)
	assert.Equal(t, 1000, summary.Iterations)
	assert.Equal(t, int64(1500), summary.ElapsedMs)
	assert.Equal(t, warnings, summary.Warnings)

	assert.InDelta(t, 420.0, summary.AvgProjected, 1e-9)
	assert.InDelta(t, 450.0, summary.BestProjected, 1e-9)
	// Population stddev of {400, 410, 450} is sqrt(1400/3), rounded to two
	// decimals.
	assert.InDelta(t, 21.60, summary.ProjectedStdDev, 1e-9)
	assert.InDelta(t, 10.0, summary.AvgROI, 1e-9)
	assert.InDelta(t, 110.0, summary.AvgNexusScore, 1e-9)
}

func TestBuildSummary_EmptyPortfolio(t *testing.T) {
	summary := BuildSummary(nil, 5, 1000, time.Second, nil)

	assert.Equal(t, 5, summary.RequestedLineups)
	assert.Equal(t, 0, summary.GeneratedLineups)
	assert.Zero(t, summary.AvgProjected)
	assert.Zero(t, summary.BestProjected)
	assert.Zero(t, summary.ProjectedStdDev)
	assert.Empty(t, summary.Warnings)
}
