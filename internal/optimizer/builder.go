package optimizer

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/google/uuid"

	"github.com/derekschultz/lol-dfs-optimizer-sub001/pkg/types"
)

// BuildProfile tunes one construction pass. The genetic seeding strategies
// override randomness and leverage emphasis per individual; the single-pass
// generator uses the balanced profile.
type BuildProfile struct {
	Name               string
	Randomness         float64 // weight jitter amplitude in [0,1]
	LeverageMultiplier float64 // exponent on ownership leverage terms
	ForcedStackSize    int     // 0 derives the stack size from the ledger
}

// BalancedProfile is the default construction profile.
func BalancedProfile(randomness float64) BuildProfile {
	return BuildProfile{
		Name:               "balanced",
		Randomness:         randomness,
		LeverageMultiplier: 1.0,
	}
}

// Positions that pair with a stack by default. TOP joins a stack half the
// time; TEAM always rides with its own squad.
var stackPairedPositions = map[string]bool{
	types.PositionMid:     true,
	types.PositionJungle:  true,
	types.PositionADC:     true,
	types.PositionSupport: true,
}

var captainPreferredPositions = map[string]bool{
	types.PositionTop:    true,
	types.PositionMid:    true,
	types.PositionADC:    true,
	types.PositionJungle: true,
}

const exposureTargetEpsilon = 0.01

// Builder constructs candidate lineups with greedy randomized selection
// guided by the exposure ledger and correlation matrix. Tie-breaking is
// random but reproducible given a seeded RNG.
type Builder struct {
	pool                  *PlayerPool
	ledger                *Ledger
	correlations          *CorrelationMatrix
	rng                   *rand.Rand
	salaryCap             int
	prioritizeProjections bool

	sequence       int
	minSalaryByPos map[string]int
}

// NewBuilder creates a builder over shared read-only inputs and a ledger
// owned by the current run.
func NewBuilder(pool *PlayerPool, ledger *Ledger, correlations *CorrelationMatrix, rng *rand.Rand, salaryCap int, prioritizeProjections bool) *Builder {
	minSalary := make(map[string]int, len(types.RosterPositions))
	for _, position := range types.RosterPositions {
		cheapest := 0
		for _, player := range pool.PlayersByPosition(position) {
			if cheapest == 0 || player.Salary < cheapest {
				cheapest = player.Salary
			}
		}
		minSalary[position] = cheapest
	}

	return &Builder{
		pool:                  pool,
		ledger:                ledger,
		correlations:          correlations,
		rng:                   rng,
		salaryCap:             salaryCap,
		prioritizeProjections: prioritizeProjections,
		minSalaryByPos:        minSalary,
	}
}

// NextLineupID mints a sequential lineup id. The uuid suffix is drawn from
// the seeded RNG so identical seeds produce identical ids.
func (b *Builder) NextLineupID() string {
	b.sequence++
	id, err := uuid.NewRandomFromReader(b.rng)
	if err != nil {
		id = uuid.New()
	}
	return fmt.Sprintf("lineup_%d_%s", b.sequence, id.String()[:8])
}

// Build constructs one candidate lineup: stack team, captain, position
// fills, TEAM slot. The candidate has not been validated.
func (b *Builder) Build(profile BuildProfile) (*types.Lineup, error) {
	stackTeam := b.pickStackTeam()
	if stackTeam == "" {
		return nil, fmt.Errorf("no eligible stack team")
	}
	targetStack := b.pickTargetStackSize(stackTeam, profile)

	captain := b.pickCaptain(stackTeam, profile)
	if captain == nil {
		return nil, fmt.Errorf("no captain candidate on team %s", stackTeam)
	}

	lineup := &types.Lineup{
		ID: b.NextLineupID(),
		Captain: types.LineupSlot{
			PlayerID: captain.ID,
			Name:     captain.Name,
			Position: types.PositionCaptain,
			Team:     captain.Team,
			Salary:   captain.CaptainSalary(),
		},
	}

	used := map[string]bool{captain.ID: true}
	remaining := b.salaryCap - lineup.Captain.Salary
	stackCount := 1 // captain comes from the stack team

	for i, position := range types.RosterPositions {
		if position == types.PositionTeam {
			break
		}
		reserve := b.minSalaryReserve(i + 1)
		candidates := b.fillCandidates(position, used, remaining, reserve)
		if len(candidates) == 0 {
			return nil, fmt.Errorf("no candidates for position %s", position)
		}

		candidates = b.applyStackSteering(candidates, position, stackTeam, targetStack, stackCount)

		pick := b.pickFillPlayer(candidates, lineup, profile)
		lineup.Players = append(lineup.Players, types.LineupSlot{
			PlayerID: pick.ID,
			Name:     pick.Name,
			Position: pick.Position,
			Team:     pick.Team,
			Salary:   pick.Salary,
		})
		used[pick.ID] = true
		remaining -= pick.Salary
		if pick.Team == stackTeam {
			stackCount++
		}
	}

	teamPick := b.pickTeamSlot(stackTeam, targetStack, stackCount, used, remaining)
	if teamPick == nil {
		return nil, fmt.Errorf("no TEAM candidate within remaining salary %d", remaining)
	}
	lineup.Players = append(lineup.Players, types.LineupSlot{
		PlayerID: teamPick.ID,
		Name:     teamPick.Name,
		Position: teamPick.Position,
		Team:     teamPick.Team,
		Salary:   teamPick.Salary,
	})

	lineup.ProjectedPoints = b.projectLineup(lineup)
	return lineup, nil
}

// pickStackTeam prefers teams owed exposure, then samples by projection
// weighted toward teams under their target.
func (b *Builder) pickStackTeam() string {
	eligible := b.eligibleStackTeams()
	if len(eligible) == 0 {
		return ""
	}

	var below []string
	for _, code := range eligible {
		if b.ledger.teamBelowAnyMin(code) {
			below = append(below, code)
		}
	}
	if len(below) > 0 {
		return below[b.rng.Intn(len(below))]
	}

	available := make([]string, 0, len(eligible))
	for _, code := range eligible {
		if !b.ledger.TeamAtMax(code) {
			available = append(available, code)
		}
	}
	if len(available) == 0 {
		available = eligible
	}

	weights := make([]float64, len(available))
	for i, code := range available {
		team, _ := b.pool.Team(code)
		weights[i] = team.TotalProjection * b.ledger.TeamAdjustment(code)
	}
	idx := b.weightedIndex(weights)
	return available[idx]
}

// eligibleStackTeams lists teams with at least one non-TEAM player, sorted
// for reproducibility.
func (b *Builder) eligibleStackTeams() []string {
	var eligible []string
	for _, code := range b.pool.TeamCodes {
		team, _ := b.pool.Team(code)
		fieldPlayers := len(team.PlayerIDs) - len(team.ByPosition[types.PositionTeam])
		if fieldPlayers > 0 {
			eligible = append(eligible, code)
		}
	}
	return eligible
}

// pickTargetStackSize returns the stack size owed to the team, or the
// profile's forced size when the ledger is satisfied.
func (b *Builder) pickTargetStackSize(stackTeam string, profile BuildProfile) int {
	if owed := b.ledger.MostUnderexposedStack(stackTeam); owed > 0 {
		return owed
	}
	for size := profile.ForcedStackSize; size >= 2; size-- {
		if !b.ledger.StackAtMax(types.StackKey{Team: stackTeam, Size: size}) {
			return size
		}
	}
	return 0
}

// pickCaptain selects the captain from the stack team's non-TEAM players.
// Position exposure constraints on the captain slot steer the candidate set
// and the sampling weights; players owed exposure are taken first.
func (b *Builder) pickCaptain(stackTeam string, profile BuildProfile) *types.Player {
	team, ok := b.pool.Team(stackTeam)
	if !ok {
		return nil
	}

	var candidates []*types.Player
	for _, id := range team.PlayerIDs {
		player, _ := b.pool.Get(id)
		if player.Position != types.PositionTeam {
			candidates = append(candidates, player)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	candidates = b.steerCaptainPositions(candidates)

	if preferred := filterPlayers(candidates, func(p *types.Player) bool {
		return captainPreferredPositions[p.Position]
	}); len(preferred) > 0 {
		candidates = preferred
	}

	if belowMin := filterPlayers(candidates, b.ledger.PlayerBelowMin); len(belowMin) > 0 {
		if b.prioritizeProjections {
			return highestProjection(belowMin)
		}
		return belowMin[b.rng.Intn(len(belowMin))]
	}

	weights := make([]float64, len(candidates))
	for i, player := range candidates {
		leverage := player.ProjectedPoints / math.Max(0.01, player.OwnershipPct())
		available := math.Max(0, player.MaxExposure-b.ledger.PlayerExposure(player.ID))
		weight := player.ProjectedPoints *
			math.Pow(leverage, profile.LeverageMultiplier) *
			(available / math.Max(0.1, player.MaxExposure)) *
			b.ledger.PositionAdjustment(player.Position)
		weights[i] = b.jitterWeight(weight, profile.Randomness)
	}
	return candidates[b.weightedIndex(weights)]
}

// steerCaptainPositions applies captain-slot position exposure: positions
// owed exposure win, positions at their max are avoided when possible.
func (b *Builder) steerCaptainPositions(candidates []*types.Player) []*types.Player {
	if owed := filterPlayers(candidates, func(p *types.Player) bool {
		return b.ledger.PositionBelowMin(p.Position)
	}); len(owed) > 0 {
		return owed
	}
	if open := filterPlayers(candidates, func(p *types.Player) bool {
		return b.ledger.CanUseCaptainPosition(p.Position)
	}); len(open) > 0 {
		return open
	}
	return candidates
}

// fillCandidates returns position players that fit the remaining salary
// while reserving the minimum spend for the slots still open. The reserve is
// dropped when it would empty the candidate set.
func (b *Builder) fillCandidates(position string, used map[string]bool, remaining, reserve int) []*types.Player {
	budget := remaining - reserve
	candidates := filterPlayers(b.pool.PlayersByPosition(position), func(p *types.Player) bool {
		return !used[p.ID] && p.Salary <= budget
	})
	if len(candidates) > 0 {
		return candidates
	}
	return filterPlayers(b.pool.PlayersByPosition(position), func(p *types.Player) bool {
		return !used[p.ID] && p.Salary <= remaining
	})
}

// minSalaryReserve sums the cheapest salary of every roster position after
// index from, so early picks cannot strand the tail of the lineup.
func (b *Builder) minSalaryReserve(from int) int {
	reserve := 0
	for _, position := range types.RosterPositions[from:] {
		reserve += b.minSalaryByPos[position]
	}
	return reserve
}

// applyStackSteering restricts candidates to the stack team for paired
// positions while the target stack still has room, and away from it once
// the target is reached. Feasibility wins: an empty restriction falls back
// to the full set.
func (b *Builder) applyStackSteering(candidates []*types.Player, position, stackTeam string, targetStack, stackCount int) []*types.Player {
	if targetStack == 0 {
		return candidates
	}

	if stackCount < targetStack {
		if !b.positionPairsWithStack(position) {
			return candidates
		}
		if stacked := filterPlayers(candidates, func(p *types.Player) bool {
			return p.Team == stackTeam
		}); len(stacked) > 0 {
			return stacked
		}
		return candidates
	}

	// Target reached: steer away so the stack lands at exactly the owed size.
	if offStack := filterPlayers(candidates, func(p *types.Player) bool {
		return p.Team != stackTeam
	}); len(offStack) > 0 {
		return offStack
	}
	return candidates
}

func (b *Builder) positionPairsWithStack(position string) bool {
	if stackPairedPositions[position] {
		return true
	}
	if position == types.PositionTop {
		return b.rng.Float64() < 0.5
	}
	return position == types.PositionTeam
}

// pickFillPlayer prefers players owed exposure, then samples by projection,
// leverage, correlation synergy with the partial lineup, and the exposure
// factor toward target.
func (b *Builder) pickFillPlayer(candidates []*types.Player, lineup *types.Lineup, profile BuildProfile) *types.Player {
	if belowMin := filterPlayers(candidates, b.ledger.PlayerBelowMin); len(belowMin) > 0 {
		if b.prioritizeProjections {
			return highestProjection(belowMin)
		}
		return belowMin[b.rng.Intn(len(belowMin))]
	}

	selected := lineup.PlayerIDs()
	weights := make([]float64, len(candidates))
	for i, player := range candidates {
		leverage := player.ProjectedPoints / math.Max(0.01, player.OwnershipPct())
		synergy := b.synergy(player.ID, selected)
		exposureFactor := (player.TargetExposure - b.ledger.PlayerExposure(player.ID)) /
			math.Max(exposureTargetEpsilon, player.TargetExposure)
		weight := player.ProjectedPoints *
			math.Pow(leverage, profile.LeverageMultiplier) *
			synergy *
			math.Max(0.1, exposureFactor)
		weights[i] = b.jitterWeight(weight, profile.Randomness)
	}
	return candidates[b.weightedIndex(weights)]
}

// synergy is the geometric mean over already-selected players of
// (1 + correlation), rewarding candidates that rise with the lineup.
func (b *Builder) synergy(candidateID string, selected []string) float64 {
	if len(selected) == 0 {
		return 1.0
	}
	product := 1.0
	for _, id := range selected {
		product *= 1 + b.correlations.Get(candidateID, id)
	}
	if product <= 0 {
		return 0
	}
	return math.Pow(product, 1/float64(len(selected)))
}

// pickTeamSlot fills the TEAM position: stack-team entries first while the
// stack has room, any affordable TEAM entry otherwise, highest projection
// wins.
func (b *Builder) pickTeamSlot(stackTeam string, targetStack, stackCount int, used map[string]bool, remaining int) *types.Player {
	affordable := filterPlayers(b.pool.PlayersByPosition(types.PositionTeam), func(p *types.Player) bool {
		return !used[p.ID] && p.Salary <= remaining
	})
	if len(affordable) == 0 {
		return nil
	}

	stackHasRoom := stackCount < types.MaxPlayersPerTeam &&
		(targetStack == 0 || stackCount < targetStack)
	if stackHasRoom {
		if stacked := filterPlayers(affordable, func(p *types.Player) bool {
			return p.Team == stackTeam
		}); len(stacked) > 0 {
			return highestProjection(stacked)
		}
	} else if offStack := filterPlayers(affordable, func(p *types.Player) bool {
		return p.Team != stackTeam
	}); len(offStack) > 0 {
		return highestProjection(offStack)
	}

	return highestProjection(affordable)
}

func (b *Builder) projectLineup(lineup *types.Lineup) float64 {
	total := 0.0
	if captain, ok := b.pool.Get(lineup.Captain.PlayerID); ok {
		total += captain.ProjectedPoints * types.CaptainMultiplier
	}
	for _, slot := range lineup.Players {
		if player, ok := b.pool.Get(slot.PlayerID); ok {
			total += player.ProjectedPoints
		}
	}
	return total
}

// jitterWeight perturbs a weight by the profile's randomness amplitude.
func (b *Builder) jitterWeight(weight, randomness float64) float64 {
	if randomness <= 0 {
		return math.Max(0.0001, weight)
	}
	jitter := 1 + randomness*(2*b.rng.Float64()-1)
	return math.Max(0.0001, weight*jitter)
}

// weightedIndex samples an index proportionally to the weights, falling
// back to uniform when no weight is positive.
func (b *Builder) weightedIndex(weights []float64) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return b.rng.Intn(len(weights))
	}
	r := b.rng.Float64() * total
	for i, w := range weights {
		r -= w
		if r <= 0 {
			return i
		}
	}
	return len(weights) - 1
}

func filterPlayers(players []*types.Player, keep func(*types.Player) bool) []*types.Player {
	var out []*types.Player
	for _, player := range players {
		if keep(player) {
			out = append(out, player)
		}
	}
	return out
}

func highestProjection(players []*types.Player) *types.Player {
	best := players[0]
	for _, player := range players[1:] {
		if player.ProjectedPoints > best.ProjectedPoints {
			best = player
		}
	}
	return best
}
