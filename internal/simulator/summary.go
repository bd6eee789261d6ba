package simulator

import (
	"time"

	"github.com/montanaflynn/stats"

	"github.com/derekschultz/lol-dfs-optimizer-sub001/pkg/types"
)

// BuildSummary aggregates portfolio-level statistics over scored lineups.
// Warnings collected during generation and scoring are carried through
// verbatim.
func BuildSummary(lineups []types.Lineup, requested, iterations int, elapsed time.Duration, warnings []string) types.Summary {
	summary := types.Summary{
		RequestedLineups: requested,
		GeneratedLineups: len(lineups),
		Iterations:       iterations,
		ElapsedMs:        elapsed.Milliseconds(),
		Warnings:         warnings,
	}
	if len(lineups) == 0 {
		return summary
	}

	projections := make([]float64, len(lineups))
	rois := make([]float64, len(lineups))
	nexusScores := make([]float64, len(lineups))
	for i := range lineups {
		projections[i] = lineups[i].ProjectedPoints
		rois[i] = lineups[i].ROI
		nexusScores[i] = lineups[i].NexusScore
	}

	if mean, err := stats.Mean(projections); err == nil {
		summary.AvgProjected = roundTo(mean, 2)
	}
	if best, err := stats.Max(projections); err == nil {
		summary.BestProjected = roundTo(best, 2)
	}
	if dev, err := stats.StandardDeviation(projections); err == nil {
		summary.ProjectedStdDev = roundTo(dev, 2)
	}
	if mean, err := stats.Mean(rois); err == nil {
		summary.AvgROI = roundTo(mean, 2)
	}
	if mean, err := stats.Mean(nexusScores); err == nil {
		summary.AvgNexusScore = roundTo(mean, 2)
	}
	return summary
}
