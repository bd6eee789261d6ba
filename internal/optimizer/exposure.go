package optimizer

import (
	"fmt"
	"math"
	"sort"

	"github.com/derekschultz/lol-dfs-optimizer-sub001/pkg/logger"
	"github.com/derekschultz/lol-dfs-optimizer-sub001/pkg/types"
)

// Bounds is one resolved min/max/target triple, fractions in [0,1]. Target
// is nil when the caller supplied none.
type Bounds struct {
	Min    float64
	Max    float64
	Target *float64
}

// ExposureConstraints is the resolved constraint set for one run.
type ExposureConstraints struct {
	Players   map[string]Bounds
	Teams     map[string]Bounds
	Stacks    map[types.StackKey]Bounds
	Positions map[string]Bounds
}

// resolveExposureConstraints converts caller-facing percent rules into
// fraction bounds. Stack sizes outside {2,3,4} and unknown positions are
// InvalidInput; rules naming players or teams absent from the pool are
// ignored with a warning.
func resolveExposureConstraints(pool *PlayerPool, settings types.ExposureSettings) (*ExposureConstraints, error) {
	log := logger.WithComponent("exposure")

	constraints := &ExposureConstraints{
		Players:   make(map[string]Bounds),
		Teams:     make(map[string]Bounds),
		Stacks:    make(map[types.StackKey]Bounds),
		Positions: make(map[string]Bounds),
	}

	for _, rule := range settings.Players {
		if _, ok := pool.Get(rule.PlayerID); !ok {
			log.WithField("player_id", rule.PlayerID).Warn("exposure rule for unknown player ignored")
			continue
		}
		constraints.Players[rule.PlayerID] = boundsFromPcts(rule.MinPct, rule.MaxPct, rule.TargetPct)
	}

	for _, rule := range settings.Teams {
		if _, ok := pool.Team(rule.Team); !ok {
			log.WithField("team", rule.Team).Warn("exposure rule for unknown team ignored")
			continue
		}
		bounds := boundsFromPcts(rule.MinPct, rule.MaxPct, rule.TargetPct)
		if rule.StackSize == nil {
			constraints.Teams[rule.Team] = bounds
			continue
		}
		size := *rule.StackSize
		if size < 2 || size > 4 {
			return nil, types.NewEngineError(types.ErrKindInvalidInput,
				"stack size %d for team %s outside {2,3,4}", size, rule.Team)
		}
		constraints.Stacks[types.StackKey{Team: rule.Team, Size: size}] = bounds
	}

	for position, rule := range settings.Positions {
		if !types.ValidPositions[position] {
			return nil, types.NewEngineError(types.ErrKindInvalidInput,
				"exposure rule for unknown position %q", position)
		}
		constraints.Positions[position] = boundsFromPcts(rule.MinPct, rule.MaxPct, rule.TargetPct)
	}

	return constraints, nil
}

func boundsFromPcts(minPct, maxPct float64, targetPct *float64) Bounds {
	bounds := Bounds{
		Min: clampFraction(minPct / 100),
		Max: 1,
	}
	if maxPct > 0 {
		bounds.Max = clampFraction(maxPct / 100)
	}
	if targetPct != nil {
		target := clampFraction(*targetPct / 100)
		bounds.Target = &target
	}
	return bounds
}

// Ledger tracks how many accepted lineups use each player, team,
// (team, stack-size), and captain position. Seed lineups are recorded before
// generation begins so new lineups balance against them.
type Ledger struct {
	pool          *PlayerPool
	playerCount   map[string]int
	teamCount     map[string]int
	stackCount    map[types.StackKey]int
	positionCount map[string]int
	totalLineups  int
	planned       int
}

// NewLedger creates an empty ledger over a pool.
func NewLedger(pool *PlayerPool) *Ledger {
	return &Ledger{
		pool:          pool,
		playerCount:   make(map[string]int),
		teamCount:     make(map[string]int),
		stackCount:    make(map[types.StackKey]int),
		positionCount: make(map[string]int),
	}
}

// Record counts one accepted lineup. Each contributing team increments its
// team counter once plus one (team, k) counter for the exact number of
// players it supplied; the captain's base position feeds the position
// counter.
func (l *Ledger) Record(lineup *types.Lineup) {
	for _, id := range lineup.PlayerIDs() {
		l.playerCount[id]++
	}

	for team, count := range lineup.TeamCounts() {
		l.teamCount[team]++
		if count >= 2 {
			l.stackCount[types.StackKey{Team: team, Size: count}]++
		}
	}

	if player, ok := l.pool.Get(lineup.Captain.PlayerID); ok {
		l.positionCount[player.Position]++
	}

	l.totalLineups++
}

// Unrecord reverses Record for one lineup. Record followed by Unrecord
// leaves every counter unchanged.
func (l *Ledger) Unrecord(lineup *types.Lineup) {
	for _, id := range lineup.PlayerIDs() {
		l.playerCount[id]--
		if l.playerCount[id] <= 0 {
			delete(l.playerCount, id)
		}
	}

	for team, count := range lineup.TeamCounts() {
		l.teamCount[team]--
		if l.teamCount[team] <= 0 {
			delete(l.teamCount, team)
		}
		if count >= 2 {
			key := types.StackKey{Team: team, Size: count}
			l.stackCount[key]--
			if l.stackCount[key] <= 0 {
				delete(l.stackCount, key)
			}
		}
	}

	if player, ok := l.pool.Get(lineup.Captain.PlayerID); ok {
		l.positionCount[player.Position]--
		if l.positionCount[player.Position] <= 0 {
			delete(l.positionCount, player.Position)
		}
	}

	l.totalLineups--
}

// TotalLineups returns the accepted lineup count, seeds included.
func (l *Ledger) TotalLineups() int {
	return l.totalLineups
}

// SetPlanned records how many lineups the run intends to hold in total.
// Projected max-exposure checks divide by the planned size so capped players
// are not shut out of the earliest lineups, when one occurrence is a large
// fraction of a small denominator.
func (l *Ledger) SetPlanned(n int) {
	l.planned = n
}

func (l *Ledger) projectedDenominator() float64 {
	if l.planned > l.totalLineups {
		return float64(l.planned)
	}
	return float64(l.totalLineups + 1)
}

// PlayerExposure returns the fraction of accepted lineups using a player.
func (l *Ledger) PlayerExposure(id string) float64 {
	if l.totalLineups == 0 {
		return 0
	}
	return float64(l.playerCount[id]) / float64(l.totalLineups)
}

// TeamExposure returns the fraction of accepted lineups containing a team.
func (l *Ledger) TeamExposure(code string) float64 {
	if l.totalLineups == 0 {
		return 0
	}
	return float64(l.teamCount[code]) / float64(l.totalLineups)
}

// StackExposure returns the fraction of accepted lineups where the team
// contributed exactly key.Size players.
func (l *Ledger) StackExposure(key types.StackKey) float64 {
	if l.totalLineups == 0 {
		return 0
	}
	return float64(l.stackCount[key]) / float64(l.totalLineups)
}

// PositionExposure returns the fraction of accepted lineups whose captain
// plays the position.
func (l *Ledger) PositionExposure(position string) float64 {
	if l.totalLineups == 0 {
		return 0
	}
	return float64(l.positionCount[position]) / float64(l.totalLineups)
}

// PlayerBelowMin reports whether a player sits under its minimum exposure.
func (l *Ledger) PlayerBelowMin(player *types.Player) bool {
	return player.MinExposure > 0 && l.PlayerExposure(player.ID) < player.MinExposure
}

// CanAddPlayer reports whether accepting one more lineup with this player
// keeps it at or under its max exposure.
func (l *Ledger) CanAddPlayer(player *types.Player) bool {
	if player.MaxExposure >= 1 {
		return true
	}
	projected := float64(l.playerCount[player.ID]+1) / l.projectedDenominator()
	return projected <= player.MaxExposure
}

// PositionBelowMin reports whether the captain position sits under an
// explicit minimum.
func (l *Ledger) PositionBelowMin(position string) bool {
	bounds, ok := l.pool.Constraints.Positions[position]
	if !ok || bounds.Min <= 0 {
		return false
	}
	return l.PositionExposure(position) < bounds.Min
}

// CanUseCaptainPosition reports whether one more captain at this position
// keeps it at or under an explicit maximum.
func (l *Ledger) CanUseCaptainPosition(position string) bool {
	bounds, ok := l.pool.Constraints.Positions[position]
	if !ok || bounds.Max >= 1 {
		return true
	}
	projected := float64(l.positionCount[position]+1) / l.projectedDenominator()
	return projected <= bounds.Max
}

// CanAccept reports whether recording the lineup keeps every player, team,
// stack, and captain-position maximum satisfied.
func (l *Ledger) CanAccept(lineup *types.Lineup) bool {
	for _, id := range lineup.PlayerIDs() {
		player, ok := l.pool.Get(id)
		if !ok {
			continue
		}
		if !l.CanAddPlayer(player) {
			return false
		}
	}

	for team, count := range lineup.TeamCounts() {
		if bounds, ok := l.pool.Constraints.Teams[team]; ok && bounds.Max < 1 {
			projected := float64(l.teamCount[team]+1) / l.projectedDenominator()
			if projected > bounds.Max {
				return false
			}
		}
		if count >= 2 {
			key := types.StackKey{Team: team, Size: count}
			if bounds, ok := l.pool.Constraints.Stacks[key]; ok && bounds.Max < 1 {
				projected := float64(l.stackCount[key]+1) / l.projectedDenominator()
				if projected > bounds.Max {
					return false
				}
			}
		}
	}

	if player, ok := l.pool.Get(lineup.Captain.PlayerID); ok {
		if !l.CanUseCaptainPosition(player.Position) {
			return false
		}
	}

	return true
}

// TeamsBelowMin lists teams currently under an explicit team or (team, k)
// minimum, in sorted code order for reproducibility.
func (l *Ledger) TeamsBelowMin() []string {
	var below []string
	for _, code := range l.pool.TeamCodes {
		if l.teamBelowAnyMin(code) {
			below = append(below, code)
		}
	}
	return below
}

func (l *Ledger) teamBelowAnyMin(code string) bool {
	if bounds, ok := l.pool.Constraints.Teams[code]; ok {
		if bounds.Min > 0 && l.TeamExposure(code) < bounds.Min {
			return true
		}
	}
	for size := 2; size <= 4; size++ {
		key := types.StackKey{Team: code, Size: size}
		if bounds, ok := l.pool.Constraints.Stacks[key]; ok {
			if bounds.Min > 0 && l.StackExposure(key) < bounds.Min {
				return true
			}
		}
	}
	return false
}

// TeamAtMax reports whether a team has reached an explicit team maximum.
func (l *Ledger) TeamAtMax(code string) bool {
	bounds, ok := l.pool.Constraints.Teams[code]
	if !ok || bounds.Max >= 1 {
		return false
	}
	return l.TeamExposure(code) >= bounds.Max
}

// StackAtMax reports whether a (team, k) bucket has reached its maximum.
func (l *Ledger) StackAtMax(key types.StackKey) bool {
	bounds, ok := l.pool.Constraints.Stacks[key]
	if !ok || bounds.Max >= 1 {
		return false
	}
	return l.StackExposure(key) >= bounds.Max
}

// MostUnderexposedStack returns the stack size in {2,3,4} with the largest
// shortfall against an explicit minimum or target for the team, preferring
// the larger size on ties. Zero means no stack size is owed.
func (l *Ledger) MostUnderexposedStack(team string) int {
	bestSize := 0
	bestDeficit := 0.0
	for size := 2; size <= 4; size++ {
		key := types.StackKey{Team: team, Size: size}
		bounds, ok := l.pool.Constraints.Stacks[key]
		if !ok {
			continue
		}
		owed := bounds.Min
		if bounds.Target != nil && *bounds.Target > owed {
			owed = *bounds.Target
		}
		if owed <= 0 {
			continue
		}
		deficit := owed - l.StackExposure(key)
		if deficit > 0 && deficit >= bestDeficit {
			bestDeficit = deficit
			bestSize = size
		}
	}
	return bestSize
}

// TeamAdjustment returns the target-seeking weight multiplier for a team.
// The team target and any (team, k) stack targets each contribute
// max(0.1, 1 + (target - current)); teams with no targets stay at 1.
// Targets never reject a lineup, so a set of targets that cannot all be
// met splits exposure in proportion to the outstanding deficits.
func (l *Ledger) TeamAdjustment(code string) float64 {
	adjustment := 1.0
	if bounds, ok := l.pool.Constraints.Teams[code]; ok && bounds.Target != nil {
		adjustment = WeightAdjustment(*bounds.Target, l.TeamExposure(code))
	}
	for size := 2; size <= 4; size++ {
		key := types.StackKey{Team: code, Size: size}
		bounds, ok := l.pool.Constraints.Stacks[key]
		if !ok || bounds.Target == nil {
			continue
		}
		adjustment *= WeightAdjustment(*bounds.Target, l.StackExposure(key))
	}
	return adjustment
}

// PositionAdjustment returns the target-seeking weight multiplier for a
// captain position, or 1 when the position carries no target.
func (l *Ledger) PositionAdjustment(position string) float64 {
	bounds, ok := l.pool.Constraints.Positions[position]
	if !ok || bounds.Target == nil {
		return 1.0
	}
	return WeightAdjustment(*bounds.Target, l.PositionExposure(position))
}

// WeightAdjustment converts a target/current exposure pair into a sampling
// weight multiplier, floored at 0.1.
func WeightAdjustment(target, current float64) float64 {
	return math.Max(0.1, 1+(target-current))
}

// CheckRecount verifies the ledger against a full recount over the accepted
// lineups. A mismatch is an InternalInvariant error.
func (l *Ledger) CheckRecount(lineups []*types.Lineup) error {
	fresh := NewLedger(l.pool)
	for _, lineup := range lineups {
		fresh.Record(lineup)
	}

	if fresh.totalLineups != l.totalLineups {
		return types.NewEngineError(types.ErrKindInternalInvariant,
			"ledger total %d != recount %d", l.totalLineups, fresh.totalLineups)
	}
	if err := compareCounts("player", l.playerCount, fresh.playerCount); err != nil {
		return err
	}
	if err := compareCounts("team", l.teamCount, fresh.teamCount); err != nil {
		return err
	}
	if err := compareCounts("position", l.positionCount, fresh.positionCount); err != nil {
		return err
	}
	for key, count := range l.stackCount {
		if fresh.stackCount[key] != count {
			return types.NewEngineError(types.ErrKindInternalInvariant,
				"ledger stack %s count %d != recount %d", key, count, fresh.stackCount[key])
		}
	}
	for key, count := range fresh.stackCount {
		if l.stackCount[key] != count {
			return types.NewEngineError(types.ErrKindInternalInvariant,
				"ledger stack %s count %d != recount %d", key, l.stackCount[key], count)
		}
	}
	return nil
}

func compareCounts(kind string, got, want map[string]int) error {
	for key, count := range got {
		if want[key] != count {
			return types.NewEngineError(types.ErrKindInternalInvariant,
				"ledger %s %q count %d != recount %d", kind, key, count, want[key])
		}
	}
	for key, count := range want {
		if got[key] != count {
			return types.NewEngineError(types.ErrKindInternalInvariant,
				"ledger %s %q count %d != recount %d", kind, key, got[key], count)
		}
	}
	return nil
}

// Report summarizes realized exposure against the constraint set.
func (l *Ledger) Report() *types.ExposureReport {
	report := &types.ExposureReport{
		Players:   make(map[string]types.ExposureEntry),
		Teams:     make(map[string]types.ExposureEntry),
		Stacks:    make(map[string]types.ExposureEntry),
		Positions: make(map[string]types.ExposureEntry),
	}

	for id, count := range l.playerCount {
		player, ok := l.pool.Get(id)
		if !ok {
			continue
		}
		fraction := l.PlayerExposure(id)
		report.Players[id] = types.ExposureEntry{
			Count:    count,
			Fraction: fraction,
			Min:      player.MinExposure,
			Max:      player.MaxExposure,
			BelowMin: fraction < player.MinExposure,
			AboveMax: fraction > player.MaxExposure,
		}
	}

	for code, count := range l.teamCount {
		bounds := l.pool.Constraints.Teams[code]
		fraction := l.TeamExposure(code)
		report.Teams[code] = exposureEntry(count, fraction, bounds)
	}

	for key, count := range l.stackCount {
		bounds := l.pool.Constraints.Stacks[key]
		fraction := l.StackExposure(key)
		report.Stacks[key.String()] = exposureEntry(count, fraction, bounds)
	}

	for position, count := range l.positionCount {
		bounds := l.pool.Constraints.Positions[position]
		fraction := l.PositionExposure(position)
		report.Positions[position] = exposureEntry(count, fraction, bounds)
	}

	return report
}

func exposureEntry(count int, fraction float64, bounds Bounds) types.ExposureEntry {
	max := bounds.Max
	if max == 0 {
		max = 1
	}
	return types.ExposureEntry{
		Count:    count,
		Fraction: fraction,
		Min:      bounds.Min,
		Max:      max,
		BelowMin: bounds.Min > 0 && fraction < bounds.Min,
		AboveMax: fraction > max,
	}
}

// DebugString renders the ledger for troubleshooting.
func (l *Ledger) DebugString() string {
	keys := make([]string, 0, len(l.teamCount))
	for code := range l.teamCount {
		keys = append(keys, code)
	}
	sort.Strings(keys)
	out := fmt.Sprintf("lineups=%d teams=", l.totalLineups)
	for _, code := range keys {
		out += fmt.Sprintf("%s:%d ", code, l.teamCount[code])
	}
	return out
}
