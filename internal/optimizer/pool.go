package optimizer

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/derekschultz/lol-dfs-optimizer-sub001/pkg/logger"
	"github.com/derekschultz/lol-dfs-optimizer-sub001/pkg/types"
)

// Per-position volatility used to derive standard deviations. Carries and
// supports score more steadily than mid/bot carries, team entities least of
// the field positions.
var positionVolatility = map[string]float64{
	types.PositionMid:     0.40,
	types.PositionADC:     0.40,
	types.PositionTop:     0.35,
	types.PositionJungle:  0.35,
	types.PositionTeam:    0.30,
	types.PositionSupport: 0.25,
}

const (
	defaultVolatility = 0.35
	minStdDev         = 3.0
)

// PlayerPool is the normalized, immutable player universe for one run. All
// lookups are id-keyed; slices preserve input order so runs are reproducible.
type PlayerPool struct {
	Players     []*types.Player
	Constraints *ExposureConstraints
	GamesKnown  bool
	TeamCodes   []string

	byID       map[string]*types.Player
	byPosition map[string][]*types.Player
	teams      map[string]*types.Team
}

// NewPlayerPool coerces raw records, derives volatility and exposure targets,
// and resolves the exposure constraint set. Returns an InvalidInput error for
// an empty pool, unknown positions, duplicate ids, or malformed constraints.
func NewPlayerPool(inputs []types.PlayerInput, settings types.ExposureSettings) (*PlayerPool, error) {
	log := logger.WithComponent("pool")

	if len(inputs) == 0 {
		return nil, types.NewEngineError(types.ErrKindInvalidInput, "empty player pool")
	}

	pool := &PlayerPool{
		Players:    make([]*types.Player, 0, len(inputs)),
		byID:       make(map[string]*types.Player, len(inputs)),
		byPosition: make(map[string][]*types.Player),
		teams:      make(map[string]*types.Team),
	}

	for i, input := range inputs {
		player, err := normalizePlayer(i, input)
		if err != nil {
			return nil, err
		}
		if _, exists := pool.byID[player.ID]; exists {
			return nil, types.NewEngineError(types.ErrKindInvalidInput,
				"duplicate player id %q", player.ID)
		}
		pool.Players = append(pool.Players, player)
		pool.byID[player.ID] = player
		pool.byPosition[player.Position] = append(pool.byPosition[player.Position], player)
	}

	pool.buildTeams()
	pool.GamesKnown = pool.allOpponentsKnown()
	if !pool.GamesKnown {
		log.Warn("opponent data incomplete, game diversity checks will be skipped")
	}

	constraints, err := resolveExposureConstraints(pool, settings)
	if err != nil {
		return nil, err
	}
	pool.Constraints = constraints
	pool.applyPlayerExposure(settings)
	pool.deriveTargetExposures()

	log.WithFields(logrus.Fields{
		"total_players": len(pool.Players),
		"total_teams":   len(pool.teams),
		"games_known":   pool.GamesKnown,
	}).Debug("player pool built")

	return pool, nil
}

func normalizePlayer(index int, input types.PlayerInput) (*types.Player, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, types.NewEngineError(types.ErrKindInvalidInput,
			"player at index %d has no id", index)
	}

	position := strings.ToUpper(strings.TrimSpace(input.Position))
	if !types.ValidPositions[position] {
		return nil, types.NewEngineError(types.ErrKindInvalidInput,
			"player %q has unknown position %q", id, input.Position)
	}

	team := strings.ToUpper(strings.TrimSpace(input.Team))
	if team == "" {
		return nil, types.NewEngineError(types.ErrKindInvalidInput,
			"player %q has no team", id)
	}

	projection := math.Max(0, coerceFloat(input.ProjectedPoints))
	salary := int(math.Max(0, coerceFloat(input.Salary)) + 0.5)
	ownershipPct := math.Min(100, math.Max(0, coerceFloat(input.Ownership)))

	volatility, ok := positionVolatility[position]
	if !ok {
		volatility = defaultVolatility
	}

	return &types.Player{
		ID:              id,
		Name:            strings.TrimSpace(input.Name),
		Position:        position,
		Team:            team,
		Opponent:        strings.ToUpper(strings.TrimSpace(input.Opponent)),
		Salary:          salary,
		ProjectedPoints: projection,
		Ownership:       ownershipPct / 100,
		StdDev:          math.Max(minStdDev, projection*volatility),
		MinExposure:     0,
		MaxExposure:     1,
	}, nil
}

// coerceFloat converts possibly string-typed numeric input. Missing,
// unparseable, NaN, and infinite values all become zero.
func coerceFloat(value interface{}) float64 {
	switch v := value.(type) {
	case nil:
		return 0
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0
		}
		return v
	case float32:
		return coerceFloat(float64(v))
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0
		}
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
			return 0
		}
		return parsed
	default:
		return 0
	}
}

func (p *PlayerPool) buildTeams() {
	for _, player := range p.Players {
		team, ok := p.teams[player.Team]
		if !ok {
			team = &types.Team{
				Code:       player.Team,
				ByPosition: make(map[string][]string),
			}
			p.teams[player.Team] = team
		}
		team.PlayerIDs = append(team.PlayerIDs, player.ID)
		team.ByPosition[player.Position] = append(team.ByPosition[player.Position], player.ID)
		team.TotalProjection += player.ProjectedPoints
		if team.Opponent == "" && player.Opponent != "" {
			team.Opponent = player.Opponent
		}
	}

	for _, team := range p.teams {
		if len(team.PlayerIDs) > 0 {
			total := 0.0
			for _, id := range team.PlayerIDs {
				total += p.byID[id].Ownership
			}
			team.AvgOwnership = total / float64(len(team.PlayerIDs))
		}
		p.TeamCodes = append(p.TeamCodes, team.Code)
	}
	sort.Strings(p.TeamCodes)
}

func (p *PlayerPool) allOpponentsKnown() bool {
	for _, player := range p.Players {
		if !player.HasOpponent() {
			return false
		}
	}
	return true
}

// applyPlayerExposure resolves per-player min/max bounds. Explicit player
// rules win over the global bounds; the global bounds only apply when
// ApplyToNewLineups is set.
func (p *PlayerPool) applyPlayerExposure(settings types.ExposureSettings) {
	globalMin, globalMax := 0.0, 1.0
	if settings.Global.ApplyToNewLineups {
		globalMin = clampFraction(settings.Global.MinExposurePct / 100)
		if settings.Global.MaxExposurePct > 0 {
			globalMax = clampFraction(settings.Global.MaxExposurePct / 100)
		}
	}

	for _, player := range p.Players {
		player.MinExposure = globalMin
		player.MaxExposure = globalMax
		if bounds, ok := p.Constraints.Players[player.ID]; ok {
			player.MinExposure = bounds.Min
			player.MaxExposure = bounds.Max
		}
	}
}

// deriveTargetExposures fills in target exposure for players with no explicit
// target: min + (max-min) * projectionPercentile * leverageAdjustment. The
// percentile ranks the player inside its position pool; the leverage term
// biases exposure toward high-projection, low-ownership players.
func (p *PlayerPool) deriveTargetExposures() {
	percentiles := p.projectionPercentiles()

	for _, player := range p.Players {
		if bounds, ok := p.Constraints.Players[player.ID]; ok && bounds.Target != nil {
			player.TargetExposure = *bounds.Target
			continue
		}

		leverage := math.Min(1, (player.ProjectedPoints/math.Max(0.1, player.OwnershipPct()))/1.5)
		span := player.MaxExposure - player.MinExposure
		player.TargetExposure = player.MinExposure + span*percentiles[player.ID]*leverage
	}
}

// projectionPercentiles ranks each player inside its position pool, 0 for
// the lowest projection and 1 for the highest. Ties share a rank; a lone
// player at a position ranks 1.
func (p *PlayerPool) projectionPercentiles() map[string]float64 {
	percentiles := make(map[string]float64, len(p.Players))

	for _, players := range p.byPosition {
		n := len(players)
		if n == 1 {
			percentiles[players[0].ID] = 1.0
			continue
		}
		for _, player := range players {
			lower := 0
			for _, other := range players {
				if other.ProjectedPoints < player.ProjectedPoints {
					lower++
				}
			}
			percentiles[player.ID] = float64(lower) / float64(n-1)
		}
	}

	return percentiles
}

// Get returns a pool member by id.
func (p *PlayerPool) Get(id string) (*types.Player, bool) {
	player, ok := p.byID[id]
	return player, ok
}

// PlayersByPosition returns the pool members at a position in input order.
func (p *PlayerPool) PlayersByPosition(position string) []*types.Player {
	return p.byPosition[position]
}

// Team returns the aggregate for a team code.
func (p *PlayerPool) Team(code string) (*types.Team, bool) {
	team, ok := p.teams[code]
	return team, ok
}

// Size returns the number of pool members.
func (p *PlayerPool) Size() int {
	return len(p.Players)
}

func clampFraction(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
