package optimizer

import (
	"math"

	"github.com/derekschultz/lol-dfs-optimizer-sub001/pkg/types"
)

// Captain position weights for the composite rating. Mid and bot carries
// swing tournaments harder than supports or team entities.
var captainPositionWeights = map[string]float64{
	types.PositionMid:     2.0,
	types.PositionADC:     1.8,
	types.PositionJungle:  1.5,
	types.PositionTop:     1.2,
	types.PositionSupport: 1.0,
	types.PositionTeam:    0.8,
}

const (
	leverageFloor        = 0.6
	leverageCeiling      = 1.5
	stackBonusPerPlayer  = 3.0
	positionImpactWeight = 5.0
	nexusScoreDivisor    = 7.0
)

// CaptainPositionWeight returns the tournament impact weight for a captain
// position, 1.0 for unknown positions.
func CaptainPositionWeight(position string) float64 {
	if weight, ok := captainPositionWeights[position]; ok {
		return weight
	}
	return 1.0
}

// NexusCalculator computes the composite lineup rating blending projection,
// ownership leverage, stack synergy, and captain position impact.
type NexusCalculator struct {
	pool *PlayerPool
}

// NewNexusCalculator creates a calculator over a pool.
func NewNexusCalculator(pool *PlayerPool) *NexusCalculator {
	return &NexusCalculator{pool: pool}
}

// Score computes the NexusScore and its component breakdown for a lineup.
// The score is monotone increasing in base projection, leverage, stack
// bonus, and captain position weight.
func (n *NexusCalculator) Score(lineup *types.Lineup) (float64, types.ScoreComponents) {
	baseProjection := n.baseProjection(lineup)
	avgOwnershipPct := n.avgOwnershipPct(lineup)

	ownershipDecimal := math.Max(0.1, avgOwnershipPct/100)
	leverage := math.Max(leverageFloor, math.Min(leverageCeiling, 1/ownershipDecimal))

	stackBonus := 0.0
	for _, count := range lineup.TeamCounts() {
		if count >= 3 {
			stackBonus += float64(count-2) * stackBonusPerPlayer
		}
	}

	positionImpact := 1.0
	if captain, ok := n.pool.Get(lineup.Captain.PlayerID); ok {
		positionImpact = CaptainPositionWeight(captain.Position)
	}

	score := (baseProjection*leverage + stackBonus + positionImpact*positionImpactWeight) / nexusScoreDivisor

	return score, types.ScoreComponents{
		BaseProjection: baseProjection,
		AvgOwnership:   avgOwnershipPct,
		LeverageFactor: leverage,
		StackBonus:     stackBonus,
		PositionImpact: positionImpact,
	}
}

// baseProjection sums projections with the captain at 1.5x.
func (n *NexusCalculator) baseProjection(lineup *types.Lineup) float64 {
	total := 0.0
	if captain, ok := n.pool.Get(lineup.Captain.PlayerID); ok {
		total += captain.ProjectedPoints * types.CaptainMultiplier
	}
	for _, slot := range lineup.Players {
		if player, ok := n.pool.Get(slot.PlayerID); ok {
			total += player.ProjectedPoints
		}
	}
	return total
}

// avgOwnershipPct averages ownership across the six position slots.
func (n *NexusCalculator) avgOwnershipPct(lineup *types.Lineup) float64 {
	if len(lineup.Players) == 0 {
		return 0
	}
	total := 0.0
	for _, slot := range lineup.Players {
		if player, ok := n.pool.Get(slot.PlayerID); ok {
			total += player.OwnershipPct()
		}
	}
	return total / float64(len(lineup.Players))
}

// ScoreBand maps a NexusScore onto the advisory UI bands.
func ScoreBand(score float64) string {
	switch {
	case score >= 160:
		return "elite"
	case score >= 140:
		return "excellent"
	case score >= 120:
		return "good"
	case score >= 100:
		return "average"
	default:
		return "poor"
	}
}
