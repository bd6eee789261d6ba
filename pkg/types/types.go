package types

import (
	"fmt"
	"sort"
	"strings"
)

// Position codes for the League of Legends contest format.
const (
	PositionCaptain = "CPT"
	PositionTop     = "TOP"
	PositionJungle  = "JNG"
	PositionMid     = "MID"
	PositionADC     = "ADC"
	PositionSupport = "SUP"
	PositionTeam    = "TEAM"
)

// Roster constants for the contest format.
const (
	DefaultSalaryCap  = 50000
	MaxPlayersPerTeam = 4
	MinDistinctGames  = 2
	CaptainMultiplier = 1.5
	DefaultIterations = 10000
	LineupSize        = 7
)

// RosterPositions lists the non-captain positions in fill order.
var RosterPositions = []string{
	PositionTop,
	PositionJungle,
	PositionMid,
	PositionADC,
	PositionSupport,
	PositionTeam,
}

// ValidPositions is the set of accepted input positions.
var ValidPositions = map[string]bool{
	PositionTop:     true,
	PositionJungle:  true,
	PositionMid:     true,
	PositionADC:     true,
	PositionSupport: true,
	PositionTeam:    true,
}

// PlayerInput is a raw player record as supplied by the caller. Numeric
// fields may arrive as numbers or numeric strings and are coerced during
// preprocessing.
type PlayerInput struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Position        string      `json:"position"`
	Team            string      `json:"team"`
	Opponent        string      `json:"opponent,omitempty"`
	Salary          interface{} `json:"salary"`
	ProjectedPoints interface{} `json:"projected_points"`
	Ownership       interface{} `json:"ownership"`
}

// Player is a normalized pool member. Immutable after preprocessing.
type Player struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Position        string  `json:"position"`
	Team            string  `json:"team"`
	Opponent        string  `json:"opponent,omitempty"`
	Salary          int     `json:"salary"`
	ProjectedPoints float64 `json:"projected_points"`
	Ownership       float64 `json:"ownership"` // fraction in [0,1]
	StdDev          float64 `json:"std_dev"`
	MinExposure     float64 `json:"min_exposure"`
	MaxExposure     float64 `json:"max_exposure"`
	TargetExposure  float64 `json:"target_exposure"`
}

// OwnershipPct returns ownership expressed as a percentage.
func (p *Player) OwnershipPct() float64 {
	return p.Ownership * 100
}

// CaptainSalary returns the salary charged when this player fills the
// captain slot.
func (p *Player) CaptainSalary() int {
	return int(float64(p.Salary)*CaptainMultiplier + 0.5)
}

// HasOpponent reports whether matchup data is present for this player.
func (p *Player) HasOpponent() bool {
	return p.Opponent != ""
}

// GameKey returns the canonical key for this player's game, or "" when the
// opponent is unknown.
func (p *Player) GameKey() string {
	if !p.HasOpponent() {
		return ""
	}
	return CanonicalGameKey(p.Team, p.Opponent)
}

// CanonicalGameKey builds an order-independent key for a matchup.
func CanonicalGameKey(team1, team2 string) string {
	if team1 < team2 {
		return team1 + "@" + team2
	}
	return team2 + "@" + team1
}

// Team aggregates the pool members sharing a team code.
type Team struct {
	Code            string              `json:"code"`
	PlayerIDs       []string            `json:"player_ids"`
	ByPosition      map[string][]string `json:"by_position"`
	TotalProjection float64             `json:"total_projection"`
	AvgOwnership    float64             `json:"avg_ownership"` // fraction in [0,1]
	Opponent        string              `json:"opponent,omitempty"`
}

// LineupSlot is one roster slot: a player reference plus the role it fills.
// Captain slots carry the repriced salary; position slots carry the base
// salary.
type LineupSlot struct {
	PlayerID string `json:"id"`
	Name     string `json:"name"`
	Position string `json:"position"`
	Team     string `json:"team"`
	Salary   int    `json:"salary"`
}

// SimulationStats holds the Monte Carlo aggregates for one lineup. Rates are
// percentages rounded to one decimal; ROI is rounded to two decimals.
type SimulationStats struct {
	Min        float64 `json:"min"`
	P10        float64 `json:"p10"`
	P25        float64 `json:"p25"`
	Median     float64 `json:"median"`
	P75        float64 `json:"p75"`
	P90        float64 `json:"p90"`
	Max        float64 `json:"max"`
	CashRate   float64 `json:"cash_rate"`
	WinRate    float64 `json:"win_rate"`
	FirstPlace float64 `json:"first_place"`
	Top10      float64 `json:"top10"`
	ROI        float64 `json:"roi"`
}

// ScoreComponents breaks the composite rating into its factors.
type ScoreComponents struct {
	BaseProjection float64 `json:"base_projection"`
	AvgOwnership   float64 `json:"avg_ownership"` // percentage
	LeverageFactor float64 `json:"leverage_factor"`
	StackBonus     float64 `json:"stack_bonus"`
	PositionImpact float64 `json:"position_impact"`
}

// Lineup is one roster: a captain slot plus one slot per remaining required
// position, with the statistics produced by scoring. Lineups are immutable
// once placed into a result set.
type Lineup struct {
	ID              string       `json:"id"`
	Name            string       `json:"name,omitempty"`
	Captain         LineupSlot   `json:"cpt"`
	Players         []LineupSlot `json:"players"`
	ProjectedPoints float64      `json:"projected_points"`
	SimulationStats
	NexusScore      float64         `json:"nexus_score"`
	ScoreComponents ScoreComponents `json:"score_components"`
	GeneticFitness  float64         `json:"genetic_fitness,omitempty"`
}

// TotalSalary sums the captain and position slot salaries.
func (l *Lineup) TotalSalary() int {
	total := l.Captain.Salary
	for _, slot := range l.Players {
		total += slot.Salary
	}
	return total
}

// PlayerIDs returns all player ids in the lineup, captain first.
func (l *Lineup) PlayerIDs() []string {
	ids := make([]string, 0, len(l.Players)+1)
	ids = append(ids, l.Captain.PlayerID)
	for _, slot := range l.Players {
		ids = append(ids, slot.PlayerID)
	}
	return ids
}

// PlayerIDSet returns the lineup's player ids as a set.
func (l *Lineup) PlayerIDSet() map[string]bool {
	set := make(map[string]bool, len(l.Players)+1)
	for _, id := range l.PlayerIDs() {
		set[id] = true
	}
	return set
}

// CanonicalKey returns a stable key for duplicate detection: the sorted
// player ids joined with "|". Two lineups with the same players but a
// different captain share a key.
func (l *Lineup) CanonicalKey() string {
	ids := l.PlayerIDs()
	sort.Strings(ids)
	return strings.Join(ids, "|")
}

// TeamCounts returns how many lineup players each team contributes, captain
// included.
func (l *Lineup) TeamCounts() map[string]int {
	counts := make(map[string]int)
	counts[l.Captain.Team]++
	for _, slot := range l.Players {
		counts[slot.Team]++
	}
	return counts
}

// ExposureBounds carries one min/max/target triple. Values are fractions in
// [0,1]; Target is nil when no explicit target was supplied.
type ExposureBounds struct {
	Min    float64  `json:"min"`
	Max    float64  `json:"max"`
	Target *float64 `json:"target,omitempty"`
}

// GlobalExposure configures pool-wide defaults. Percent values are in
// [0,100].
type GlobalExposure struct {
	MinExposurePct        float64 `json:"min_exposure_pct"`
	MaxExposurePct        float64 `json:"max_exposure_pct"`
	ApplyToNewLineups     bool    `json:"apply_to_new_lineups"`
	PrioritizeProjections bool    `json:"prioritize_projections"`
}

// TeamExposureRule bounds a team's usage. With StackSize set (2, 3, or 4)
// the rule applies to lineups where the team contributes exactly that many
// players; without it, to any lineup containing the team. Percent values are
// in [0,100].
type TeamExposureRule struct {
	Team      string   `json:"team"`
	StackSize *int     `json:"stack_size,omitempty"`
	MinPct    float64  `json:"min_pct"`
	MaxPct    float64  `json:"max_pct"`
	TargetPct *float64 `json:"target_pct,omitempty"`
}

// PlayerExposureRule bounds a single player's usage. Percent values are in
// [0,100].
type PlayerExposureRule struct {
	PlayerID  string   `json:"id"`
	MinPct    float64  `json:"min_pct"`
	MaxPct    float64  `json:"max_pct"`
	TargetPct *float64 `json:"target_pct,omitempty"`
}

// PositionExposureRule bounds how often a position is used in the captain
// slot. Percent values are in [0,100].
type PositionExposureRule struct {
	MinPct    float64  `json:"min_pct"`
	MaxPct    float64  `json:"max_pct"`
	TargetPct *float64 `json:"target_pct,omitempty"`
}

// ExposureSettings is the caller-facing constraint record. Per-player rules
// win over the global bounds.
type ExposureSettings struct {
	Global    GlobalExposure                  `json:"global"`
	Teams     []TeamExposureRule              `json:"teams,omitempty"`
	Players   []PlayerExposureRule            `json:"players,omitempty"`
	Positions map[string]PositionExposureRule `json:"positions,omitempty"`
}

// ExposureEntry is one observed-vs-constrained exposure line in the report.
type ExposureEntry struct {
	Count    int     `json:"count"`
	Fraction float64 `json:"fraction"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	BelowMin bool    `json:"below_min,omitempty"`
	AboveMax bool    `json:"above_max,omitempty"`
}

// ExposureReport summarizes realized exposure across the returned portfolio.
// Stack keys are "TEAM/k".
type ExposureReport struct {
	Players   map[string]ExposureEntry `json:"players,omitempty"`
	Teams     map[string]ExposureEntry `json:"teams,omitempty"`
	Stacks    map[string]ExposureEntry `json:"stacks,omitempty"`
	Positions map[string]ExposureEntry `json:"positions,omitempty"`
}

// Summary describes one optimization run.
type Summary struct {
	RequestedLineups int             `json:"requested_lineups"`
	GeneratedLineups int             `json:"generated_lineups"`
	Iterations       int             `json:"iterations"`
	AvgProjected     float64         `json:"avg_projected"`
	BestProjected    float64         `json:"best_projected"`
	ProjectedStdDev  float64         `json:"projected_std_dev"`
	AvgROI           float64         `json:"avg_roi"`
	AvgNexusScore    float64         `json:"avg_nexus_score"`
	ElapsedMs        int64           `json:"elapsed_ms"`
	Warnings         []string        `json:"warnings,omitempty"`
	Exposure         *ExposureReport `json:"exposure,omitempty"`
}

// EvolutionReport describes a genetic run.
type EvolutionReport struct {
	Generations    int       `json:"generations"`
	FitnessHistory []float64 `json:"fitness_history"`
	FinalDiversity float64   `json:"final_diversity"`
}

// OptimizationResult is the full return value of a run.
type OptimizationResult struct {
	Lineups   []Lineup         `json:"lineups"`
	Summary   Summary          `json:"summary"`
	Evolution *EvolutionReport `json:"evolution,omitempty"`
}

// ProgressStage identifies where a run currently is.
type ProgressStage string

const (
	StageInitializing      ProgressStage = "initializing"
	StagePopulationCreated ProgressStage = "population_created"
	StageEvolving          ProgressStage = "evolving"
	StageFinalSelection    ProgressStage = "final_selection"
	StageFinalSimulation   ProgressStage = "final_simulation"
	StageCompleted         ProgressStage = "completed"
	StageError             ProgressStage = "error"
)

// ProgressFunc receives coarse progress updates. Percent is in [0,100].
type ProgressFunc func(percent float64, stage ProgressStage)

// StatusFunc receives human-readable progress text.
type StatusFunc func(message string)

// StackKey identifies a (team, stack-size) exposure bucket.
type StackKey struct {
	Team string
	Size int
}

// String renders the key in the report form "TEAM/k".
func (k StackKey) String() string {
	return fmt.Sprintf("%s/%d", k.Team, k.Size)
}
