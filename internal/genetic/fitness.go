package genetic

import (
	"math"
	"sort"

	"github.com/derekschultz/lol-dfs-optimizer-sub001/internal/optimizer"
	"github.com/derekschultz/lol-dfs-optimizer-sub001/pkg/types"
)

const (
	fitnessProjectionWeight = 10.0
	fitnessOwnershipCeiling = 30.0 // avg ownership below this earns leverage credit
	fitnessLeverageWeight   = 2.0
	fitnessStackWeight      = 15.0
	fitnessCaptainWeight    = 10.0
	fitnessSalaryBonus      = 10.0
	fitnessTeamPenalty      = 1000.0
)

// fitness is the fast surrogate used during evolution: projection dominates,
// low ownership and deep stacks earn credit, a premium captain position adds
// a nudge, and an illegal team count buries the individual.
func (d *Driver) fitness(lineup *types.Lineup) float64 {
	score := fitnessProjectionWeight * lineup.ProjectedPoints

	var ownership float64
	for _, slot := range lineup.Players {
		if player, ok := d.pool.Get(slot.PlayerID); ok {
			ownership += player.OwnershipPct()
		}
	}
	if len(lineup.Players) > 0 {
		avgOwnership := ownership / float64(len(lineup.Players))
		if under := fitnessOwnershipCeiling - avgOwnership; under > 0 {
			score += under * fitnessLeverageWeight
		}
	}

	// Sorted iteration keeps the floating-point accumulation order stable
	// across runs.
	counts := lineup.TeamCounts()
	teams := make([]string, 0, len(counts))
	for team := range counts {
		teams = append(teams, team)
	}
	sort.Strings(teams)
	for _, team := range teams {
		count := counts[team]
		if count >= 3 {
			score += math.Pow(float64(count-2), 1.5) * fitnessStackWeight
		}
		if count > types.MaxPlayersPerTeam {
			score -= fitnessTeamPenalty
		}
	}

	if captain, ok := d.pool.Get(lineup.Captain.PlayerID); ok {
		score += optimizer.CaptainPositionWeight(captain.Position) * fitnessCaptainWeight
	}

	if lineup.TotalSalary() <= d.salaryCap {
		score += fitnessSalaryBonus
	}
	return score
}
