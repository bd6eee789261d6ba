package simulator

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/derekschultz/lol-dfs-optimizer-sub001/internal/optimizer"
	"github.com/derekschultz/lol-dfs-optimizer-sub001/pkg/types"
)

const (
	// correlationDamping scales how far a pair of outcomes is pulled
	// toward (or pushed from) the pair mean per iteration.
	correlationDamping = 0.2

	// cashLineScore and winLineScore are the contest thresholds used for
	// cash and win rate estimates.
	cashLineScore = 130.0
	winLineScore  = 180.0

	// DefaultTargetTop is the tail fraction treated as a first place
	// finish.
	DefaultTargetTop = 0.01
)

// Scorer turns a lineup plus a sampled performance grid into per-contest
// statistics. Correlation between lineup members is applied here, per
// iteration, rather than being baked into the grid.
type Scorer struct {
	correlations *optimizer.CorrelationMatrix
	targetTop    float64
}

// NewScorer builds a scorer. targetTop outside (0, 1) falls back to the
// default tail fraction.
func NewScorer(correlations *optimizer.CorrelationMatrix, targetTop float64) *Scorer {
	if targetTop <= 0 || targetTop >= 1 {
		targetTop = DefaultTargetTop
	}
	return &Scorer{
		correlations: correlations,
		targetTop:    targetTop,
	}
}

// Score simulates one lineup across every grid iteration and aggregates the
// score distribution. A lineup member missing from the grid is an error; the
// caller drops that lineup and keeps the rest.
func (sc *Scorer) Score(lineup *types.Lineup, grid *PerformanceGrid) (types.SimulationStats, error) {
	ids := make([]string, 0, 1+len(lineup.Players))
	ids = append(ids, lineup.Captain.PlayerID)
	for _, slot := range lineup.Players {
		ids = append(ids, slot.PlayerID)
	}

	series := make([][]float64, len(ids))
	for member, id := range ids {
		outcomes, ok := grid.Outcomes(id)
		if !ok {
			return types.SimulationStats{}, types.NewEngineError(types.ErrKindInvalidInput,
				"lineup %s references player %q missing from the performance grid", lineup.ID, id)
		}
		series[member] = outcomes
	}

	pairs := sc.pairCorrelations(ids)
	values := make([]float64, len(ids))
	scores := make([]float64, grid.Iterations())
	for iter := range scores {
		for member := range series {
			values[member] = series[member][iter]
		}
		applyCorrelation(pairs, values)
		scores[iter] = values[0]*types.CaptainMultiplier + floats.Sum(values[1:])
	}

	return summarizeScores(scores, sc.targetTop), nil
}

// pairCorrelations materializes the member-by-member coefficient table once
// per lineup so the per-iteration loop avoids map lookups.
func (sc *Scorer) pairCorrelations(ids []string) [][]float64 {
	pairs := make([][]float64, len(ids))
	for i := range pairs {
		pairs[i] = make([]float64, len(ids))
		for j := range pairs[i] {
			if i == j {
				continue
			}
			pairs[i][j] = sc.correlations.Get(ids[i], ids[j])
		}
	}
	return pairs
}

// applyCorrelation shifts each pair of values toward their joint mean for
// positive coefficients and away for negative ones. Pairs are visited in a
// fixed captain-first order; later pairs see earlier shifts.
func applyCorrelation(pairs [][]float64, values []float64) {
	for i := 0; i < len(values); i++ {
		for j := i + 1; j < len(values); j++ {
			corr := pairs[i][j]
			if corr == 0 {
				continue
			}
			mean := (values[i] + values[j]) / 2
			shift := corr * correlationDamping
			values[i] += (mean - values[i]) * shift
			values[j] += (mean - values[j]) * shift
		}
	}
}

// summarizeScores sorts a copy of the iteration scores and derives the
// reported distribution and contest rates. Rates are percentages rounded to
// one decimal; ROI is computed on raw fractions and rounded to two.
func summarizeScores(scores []float64, targetTop float64) types.SimulationStats {
	if len(scores) == 0 {
		return types.SimulationStats{}
	}

	sorted := make([]float64, len(scores))
	copy(sorted, scores)
	sort.Float64s(sorted)

	stats := types.SimulationStats{
		Min:    sorted[0],
		P10:    percentileAt(sorted, 10),
		P25:    percentileAt(sorted, 25),
		Median: percentileAt(sorted, 50),
		P75:    percentileAt(sorted, 75),
		P90:    percentileAt(sorted, 90),
		Max:    sorted[len(sorted)-1],
	}

	cash := fractionAtOrAbove(sorted, cashLineScore)
	win := fractionAtOrAbove(sorted, winLineScore)
	top10 := fractionAtOrAbove(sorted, stats.P90)
	first := fractionAbove(sorted, percentileAt(sorted, (1-targetTop)*100))

	stats.CashRate = roundTo(cash*100, 1)
	stats.WinRate = roundTo(win*100, 1)
	stats.FirstPlace = roundTo(first*100, 1)
	stats.Top10 = roundTo(top10*100, 1)
	stats.ROI = roundTo(100*first+10*top10+2*cash, 2)
	return stats
}

func percentileAt(sorted []float64, percentile float64) float64 {
	index := int(percentile / 100.0 * float64(len(sorted)-1))
	return sorted[index]
}

func fractionAtOrAbove(sorted []float64, threshold float64) float64 {
	first := sort.SearchFloat64s(sorted, threshold)
	return float64(len(sorted)-first) / float64(len(sorted))
}

func fractionAbove(sorted []float64, threshold float64) float64 {
	first := sort.Search(len(sorted), func(i int) bool { return sorted[i] > threshold })
	return float64(len(sorted)-first) / float64(len(sorted))
}

func roundTo(value float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(value*scale) / scale
}
