package optimizer

import (
	"errors"
	"fmt"

	"github.com/derekschultz/lol-dfs-optimizer-sub001/pkg/types"
)

// Structural rejection reasons. These are expected build-time outcomes, not
// engine errors: the offending candidate is dropped and construction
// retries.
var (
	ErrSalaryCapExceeded = errors.New("salary cap exceeded")
	ErrDuplicatePlayers  = errors.New("duplicate players in lineup")
	ErrPositionsNotMet   = errors.New("required positions not met")
	ErrCaptainSalary     = errors.New("captain salary not repriced")
	ErrTooManyFromTeam   = errors.New("more than four players from one team")
	ErrInsufficientGames = errors.New("players from fewer than two games")
	ErrDuplicateLineup   = errors.New("duplicate of an accepted lineup")
)

// Validator checks hard structural rules on candidate lineups and tracks
// the accepted set for duplicate detection.
type Validator struct {
	pool         *PlayerPool
	salaryCap    int
	gamesKnown   bool
	acceptedKeys map[string]bool
}

// NewValidator creates a validator over a pool. The game-diversity rule is
// only enforced when the pool carries complete opponent data.
func NewValidator(pool *PlayerPool, salaryCap int) *Validator {
	return &Validator{
		pool:         pool,
		salaryCap:    salaryCap,
		gamesKnown:   pool.GamesKnown,
		acceptedKeys: make(map[string]bool),
	}
}

// Validate rejects a candidate that breaks any hard rule. The returned
// error wraps one of the package sentinel reasons.
func (v *Validator) Validate(lineup *types.Lineup) error {
	captain, ok := v.pool.Get(lineup.Captain.PlayerID)
	if !ok {
		return fmt.Errorf("%w: captain %q not in pool", ErrPositionsNotMet, lineup.Captain.PlayerID)
	}
	if captain.Position == types.PositionTeam {
		return fmt.Errorf("%w: captain cannot be a TEAM entry", ErrPositionsNotMet)
	}
	if lineup.Captain.Salary != captain.CaptainSalary() {
		return fmt.Errorf("%w: got %d want %d", ErrCaptainSalary,
			lineup.Captain.Salary, captain.CaptainSalary())
	}

	if err := v.checkPositions(lineup); err != nil {
		return err
	}
	if err := v.checkDuplicateIDs(lineup); err != nil {
		return err
	}

	if total := lineup.TotalSalary(); total > v.salaryCap {
		return fmt.Errorf("%w: %d > %d", ErrSalaryCapExceeded, total, v.salaryCap)
	}

	for team, count := range lineup.TeamCounts() {
		if count > types.MaxPlayersPerTeam {
			return fmt.Errorf("%w: %d from %s", ErrTooManyFromTeam, count, team)
		}
	}

	if v.gamesKnown {
		if games := v.countDistinctGames(lineup); games < types.MinDistinctGames {
			return fmt.Errorf("%w: %d", ErrInsufficientGames, games)
		}
	}

	if v.acceptedKeys[lineup.CanonicalKey()] {
		return ErrDuplicateLineup
	}

	return nil
}

func (v *Validator) checkPositions(lineup *types.Lineup) error {
	if len(lineup.Players) != len(types.RosterPositions) {
		return fmt.Errorf("%w: %d slots", ErrPositionsNotMet, len(lineup.Players))
	}
	seen := make(map[string]int, len(types.RosterPositions))
	for _, slot := range lineup.Players {
		player, ok := v.pool.Get(slot.PlayerID)
		if !ok {
			return fmt.Errorf("%w: player %q not in pool", ErrPositionsNotMet, slot.PlayerID)
		}
		if player.Position != slot.Position {
			return fmt.Errorf("%w: %s in %s slot", ErrPositionsNotMet, player.Position, slot.Position)
		}
		seen[slot.Position]++
	}
	for _, position := range types.RosterPositions {
		if seen[position] != 1 {
			return fmt.Errorf("%w: %s filled %d times", ErrPositionsNotMet, position, seen[position])
		}
	}
	return nil
}

func (v *Validator) checkDuplicateIDs(lineup *types.Lineup) error {
	seen := make(map[string]bool, types.LineupSize)
	for _, id := range lineup.PlayerIDs() {
		if seen[id] {
			return fmt.Errorf("%w: %s", ErrDuplicatePlayers, id)
		}
		seen[id] = true
	}
	return nil
}

func (v *Validator) countDistinctGames(lineup *types.Lineup) int {
	games := make(map[string]bool)
	ids := lineup.PlayerIDs()
	for _, id := range ids {
		if player, ok := v.pool.Get(id); ok {
			if key := player.GameKey(); key != "" {
				games[key] = true
			}
		}
	}
	return len(games)
}

// Accept registers a validated lineup's player set for duplicate detection.
func (v *Validator) Accept(lineup *types.Lineup) {
	v.acceptedKeys[lineup.CanonicalKey()] = true
}

// FixDuplicates performs the single allowed fix-up pass: each duplicated
// non-captain slot is replaced with the best same-position alternative that
// keeps the lineup under the cap. Reports whether every duplicate was
// replaced; the caller must re-validate.
func (v *Validator) FixDuplicates(lineup *types.Lineup) bool {
	used := make(map[string]bool, types.LineupSize)
	used[lineup.Captain.PlayerID] = true

	fixed := true
	for i := range lineup.Players {
		slot := &lineup.Players[i]
		if !used[slot.PlayerID] {
			used[slot.PlayerID] = true
			continue
		}

		replacement := v.bestReplacement(lineup, slot, used)
		if replacement == nil {
			fixed = false
			continue
		}
		*slot = types.LineupSlot{
			PlayerID: replacement.ID,
			Name:     replacement.Name,
			Position: replacement.Position,
			Team:     replacement.Team,
			Salary:   replacement.Salary,
		}
		used[replacement.ID] = true
	}
	return fixed
}

func (v *Validator) bestReplacement(lineup *types.Lineup, slot *types.LineupSlot, used map[string]bool) *types.Player {
	budget := v.salaryCap - lineup.TotalSalary() + slot.Salary

	var best *types.Player
	for _, candidate := range v.pool.PlayersByPosition(slot.Position) {
		if used[candidate.ID] || candidate.Salary > budget {
			continue
		}
		if best == nil || candidate.ProjectedPoints > best.ProjectedPoints {
			best = candidate
		}
	}
	return best
}
