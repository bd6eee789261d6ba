package genetic

import (
	"math"

	"github.com/derekschultz/lol-dfs-optimizer-sub001/pkg/types"
)

// minJaccardDistance is the similarity floor: offspring whose player set
// sits closer than this to an existing member are rejected while the
// generation fills.
const minJaccardDistance = 0.1

// jaccardDistance is 1 minus the Jaccard similarity of the two player-id
// sets. Identical rosters score 0, disjoint rosters 1.
func jaccardDistance(a, b *types.Lineup) float64 {
	setA := a.PlayerIDSet()
	setB := b.PlayerIDSet()

	intersection := 0
	for id := range setA {
		if setB[id] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return 1 - float64(intersection)/float64(union)
}

func tooSimilar(candidate *types.Lineup, population []Individual, floor float64) bool {
	for i := range population {
		if jaccardDistance(candidate, population[i].Lineup) < floor {
			return true
		}
	}
	return false
}

// selectFinal picks count individuals from the fitness-sorted population,
// alternating the next-fittest with the most distant from the picks so far.
// The single fittest individual always leads.
func selectFinal(population []Individual, count int) []Individual {
	if count >= len(population) {
		return append([]Individual(nil), population...)
	}

	remaining := append([]Individual(nil), population...)
	selected := make([]Individual, 0, count)
	selected = append(selected, remaining[0])
	remaining = remaining[1:]

	fitnessTurn := false
	for len(selected) < count && len(remaining) > 0 {
		pick := 0
		if !fitnessTurn {
			pick = mostDistantIndex(remaining, selected)
		}
		selected = append(selected, remaining[pick])
		remaining = append(remaining[:pick], remaining[pick+1:]...)
		fitnessTurn = !fitnessTurn
	}
	return selected
}

// mostDistantIndex maximizes the minimum distance to the already selected
// lineups; ties keep the earlier (fitter) candidate.
func mostDistantIndex(remaining, selected []Individual) int {
	bestIndex := 0
	bestDistance := -1.0
	for i := range remaining {
		nearest := math.MaxFloat64
		for j := range selected {
			if d := jaccardDistance(remaining[i].Lineup, selected[j].Lineup); d < nearest {
				nearest = d
			}
		}
		if nearest > bestDistance {
			bestDistance = nearest
			bestIndex = i
		}
	}
	return bestIndex
}

// averageDiversity is the mean pairwise Jaccard distance of the selection.
func averageDiversity(individuals []Individual) float64 {
	if len(individuals) < 2 {
		return 0
	}
	var sum float64
	pairs := 0
	for i := 0; i < len(individuals); i++ {
		for j := i + 1; j < len(individuals); j++ {
			sum += jaccardDistance(individuals[i].Lineup, individuals[j].Lineup)
			pairs++
		}
	}
	return sum / float64(pairs)
}
