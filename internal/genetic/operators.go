package genetic

import (
	"sort"

	"github.com/derekschultz/lol-dfs-optimizer-sub001/pkg/types"
)

// secondMutationChance layers an extra mutation op on top of the first.
const secondMutationChance = 0.25

// breed produces one validated offspring, or nil when the candidate fails
// the rules. A cloned (non-crossover) offspring is always mutated, otherwise
// it would be rejected as a duplicate of its accepted parent.
func (d *Driver) breed(population []Individual) *types.Lineup {
	first := d.tournamentSelect(population)
	second := d.tournamentSelect(population)

	var offspring *types.Lineup
	mutateAlways := false
	if d.rng.Float64() < d.config.CrossoverRate {
		offspring = d.crossover(first.Lineup, second.Lineup)
	} else {
		offspring = cloneLineup(first.Lineup)
		offspring.ID = d.builder.NextLineupID()
		mutateAlways = true
	}

	if mutateAlways || d.rng.Float64() < d.config.MutationRate {
		d.mutate(offspring)
	}

	if !d.validateOffspring(offspring) {
		return nil
	}
	d.reproject(offspring)
	return offspring
}

// tournamentSelect samples TournamentSize individuals with replacement and
// returns the fittest.
func (d *Driver) tournamentSelect(population []Individual) Individual {
	best := population[d.rng.Intn(len(population))]
	for i := 1; i < d.config.TournamentSize; i++ {
		challenger := population[d.rng.Intn(len(population))]
		if challenger.Fitness > best.Fitness {
			best = challenger
		}
	}
	return best
}

// crossover takes the captain from one random parent and each roster slot
// from a random parent. Both parents carry the slots in fill order, so slot
// i is the same position in both.
func (d *Driver) crossover(a, b *types.Lineup) *types.Lineup {
	parents := [2]*types.Lineup{a, b}

	offspring := &types.Lineup{
		ID:      d.builder.NextLineupID(),
		Captain: parents[d.rng.Intn(2)].Captain,
		Players: make([]types.LineupSlot, len(a.Players)),
	}
	for i := range a.Players {
		offspring.Players[i] = parents[d.rng.Intn(2)].Players[i]
	}
	return offspring
}

// mutate applies one random mutation op in place, occasionally layering a
// second distinct op. Ops that cannot find a legal move leave the lineup
// unchanged.
func (d *Driver) mutate(lineup *types.Lineup) {
	ops := []func(*types.Lineup) bool{
		d.mutateSwapPosition,
		d.mutateSwapCaptain,
		d.mutateStackAlign,
	}

	first := d.rng.Intn(len(ops))
	ops[first](lineup)

	if d.rng.Float64() < secondMutationChance {
		second := d.rng.Intn(len(ops))
		if second != first {
			ops[second](lineup)
		}
	}
}

// mutateSwapPosition replaces one roster slot with an unused same-position
// player that fits the remaining salary.
func (d *Driver) mutateSwapPosition(lineup *types.Lineup) bool {
	slot := &lineup.Players[d.rng.Intn(len(lineup.Players))]
	used := lineup.PlayerIDSet()
	budget := d.salaryCap - lineup.TotalSalary() + slot.Salary

	var candidates []*types.Player
	for _, player := range d.pool.PlayersByPosition(slot.Position) {
		if used[player.ID] || player.Salary > budget {
			continue
		}
		candidates = append(candidates, player)
	}
	if len(candidates) == 0 {
		return false
	}

	replacement := candidates[d.rng.Intn(len(candidates))]
	*slot = rosterSlot(replacement)
	return true
}

// mutateSwapCaptain promotes the roster player sharing the captain's base
// position and demotes the captain into that slot, repricing both.
func (d *Driver) mutateSwapCaptain(lineup *types.Lineup) bool {
	captain, ok := d.pool.Get(lineup.Captain.PlayerID)
	if !ok {
		return false
	}

	for i := range lineup.Players {
		slot := &lineup.Players[i]
		if slot.Position != captain.Position {
			continue
		}
		partner, ok := d.pool.Get(slot.PlayerID)
		if !ok {
			return false
		}
		lineup.Captain = types.LineupSlot{
			PlayerID: partner.ID,
			Name:     partner.Name,
			Position: types.PositionCaptain,
			Team:     partner.Team,
			Salary:   partner.CaptainSalary(),
		}
		*slot = rosterSlot(captain)
		return true
	}
	return false
}

// mutateStackAlign replaces one off-stack roster player with an unused
// stack-team player of the same position, deepening the lineup's largest
// stack. A stack already at the team limit is left alone.
func (d *Driver) mutateStackAlign(lineup *types.Lineup) bool {
	stackTeam, stackSize := largestStack(lineup)
	if stackTeam == "" || stackSize >= types.MaxPlayersPerTeam {
		return false
	}

	var offStack []int
	for i, slot := range lineup.Players {
		if slot.Team != stackTeam {
			offStack = append(offStack, i)
		}
	}
	if len(offStack) == 0 {
		return false
	}

	slot := &lineup.Players[offStack[d.rng.Intn(len(offStack))]]
	used := lineup.PlayerIDSet()
	budget := d.salaryCap - lineup.TotalSalary() + slot.Salary

	for _, player := range d.pool.PlayersByPosition(slot.Position) {
		if player.Team != stackTeam || used[player.ID] || player.Salary > budget {
			continue
		}
		*slot = rosterSlot(player)
		return true
	}
	return false
}

// largestStack returns the team with the most lineup members, breaking ties
// by team code for reproducibility.
func largestStack(lineup *types.Lineup) (string, int) {
	counts := lineup.TeamCounts()
	teams := make([]string, 0, len(counts))
	for team := range counts {
		teams = append(teams, team)
	}
	sort.Strings(teams)

	bestTeam := ""
	bestCount := 0
	for _, team := range teams {
		if counts[team] > bestCount {
			bestTeam = team
			bestCount = counts[team]
		}
	}
	return bestTeam, bestCount
}

// reproject recomputes projected points from the pool after slots changed.
func (d *Driver) reproject(lineup *types.Lineup) {
	total := 0.0
	if captain, ok := d.pool.Get(lineup.Captain.PlayerID); ok {
		total += captain.ProjectedPoints * types.CaptainMultiplier
	}
	for _, slot := range lineup.Players {
		if player, ok := d.pool.Get(slot.PlayerID); ok {
			total += player.ProjectedPoints
		}
	}
	lineup.ProjectedPoints = total
}

func rosterSlot(player *types.Player) types.LineupSlot {
	return types.LineupSlot{
		PlayerID: player.ID,
		Name:     player.Name,
		Position: player.Position,
		Team:     player.Team,
		Salary:   player.Salary,
	}
}

func cloneLineup(lineup *types.Lineup) *types.Lineup {
	clone := *lineup
	clone.Players = append([]types.LineupSlot(nil), lineup.Players...)
	return &clone
}
