package genetic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derekschultz/lol-dfs-optimizer-sub001/internal/optimizer"
	"github.com/derekschultz/lol-dfs-optimizer-sub001/pkg/types"
)

func TestConfig_Normalized(t *testing.T) {
	tests := []struct {
		name string
		in   Config
		want func(t *testing.T, got Config)
	}{
		{
			name: "zero values take defaults",
			in:   Config{},
			want: func(t *testing.T, got Config) {
				assert.Equal(t, 100, got.Population)
				assert.Equal(t, 50, got.Generations)
				assert.Equal(t, 3, got.TournamentSize)
				assert.Equal(t, 8, got.MaxStagnation)
				assert.Equal(t, 10, got.FitnessBatch)
				assert.Equal(t, 5, got.BuildAttempts)
			},
		},
		{
			name: "rates clamp to documented ranges",
			in: Config{
				EliteRate:      0.50,
				CrossoverRate:  0.95,
				MutationRate:   0.05,
				TournamentSize: 9,
			},
			want: func(t *testing.T, got Config) {
				assert.InDelta(t, 0.20, got.EliteRate, 1e-9)
				assert.InDelta(t, 0.70, got.CrossoverRate, 1e-9)
				assert.InDelta(t, 0.15, got.MutationRate, 1e-9)
				assert.Equal(t, 5, got.TournamentSize)
			},
		},
		{
			name: "low rates clamp up",
			in: Config{
				EliteRate:      0.01,
				CrossoverRate:  0.10,
				TournamentSize: 1,
			},
			want: func(t *testing.T, got Config) {
				assert.InDelta(t, 0.05, got.EliteRate, 1e-9)
				assert.InDelta(t, 0.40, got.CrossoverRate, 1e-9)
				assert.Equal(t, 2, got.TournamentSize)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.want(t, tt.in.normalized())
		})
	}
}

func TestSeedProfiles_SixStrategies(t *testing.T) {
	profiles := seedProfiles()
	require.Len(t, profiles, 6)

	names := make([]string, len(profiles))
	for i, profile := range profiles {
		names[i] = profile.Name
	}
	assert.Equal(t, []string{
		"projection_focused", "leverage_focused", "contrarian",
		"balanced", "stack_heavy", "stack_light",
	}, names)

	assert.Equal(t, 4, profiles[4].ForcedStackSize)
	assert.Equal(t, 2, profiles[5].ForcedStackSize)
}

func TestDriver_EvolveProducesValidDistinctLineups(t *testing.T) {
	pool := mustPool(t, lckSlate())
	driver := newTestDriver(t, pool, 7)

	result, err := driver.Evolve(context.Background(), 6)
	require.NoError(t, err)
	require.Len(t, result.Lineups, 6)

	check := optimizer.NewValidator(pool, types.DefaultSalaryCap)
	keys := make(map[string]bool)
	for i := range result.Lineups {
		lineup := &result.Lineups[i]
		require.NoError(t, check.Validate(lineup), "lineup %s failed validation", lineup.ID)
		assert.Greater(t, lineup.GeneticFitness, 0.0)
		assert.Greater(t, lineup.ProjectedPoints, 0.0)
		keys[lineup.CanonicalKey()] = true
	}
	assert.Len(t, keys, 6, "selected lineups must be distinct rosters")

	// The single fittest individual always leads the selection.
	for i := 1; i < len(result.Lineups); i++ {
		assert.GreaterOrEqual(t, result.Lineups[0].GeneticFitness, result.Lineups[i].GeneticFitness)
	}

	assert.Equal(t, 6, result.Report.Generations)
	require.Len(t, result.Report.FitnessHistory, 6)
	assert.Greater(t, result.Report.FinalDiversity, 0.0)
	assert.LessOrEqual(t, result.Report.FinalDiversity, 1.0)
}

func TestDriver_ElitismKeepsBestFitnessMonotone(t *testing.T) {
	pool := mustPool(t, lckSlate())
	driver := newTestDriver(t, pool, 11)

	result, err := driver.Evolve(context.Background(), 4)
	require.NoError(t, err)

	history := result.Report.FitnessHistory
	require.NotEmpty(t, history)
	for i := 1; i < len(history); i++ {
		assert.GreaterOrEqual(t, history[i], history[i-1],
			"elite carryover must never lose the best individual")
	}
}

func TestDriver_DeterministicForSeed(t *testing.T) {
	pool := mustPool(t, lckSlate())

	first, err := newTestDriver(t, pool, 99).Evolve(context.Background(), 5)
	require.NoError(t, err)
	second, err := newTestDriver(t, pool, 99).Evolve(context.Background(), 5)
	require.NoError(t, err)

	require.Len(t, second.Lineups, len(first.Lineups))
	for i := range first.Lineups {
		assert.Equal(t, first.Lineups[i].ID, second.Lineups[i].ID)
		assert.Equal(t, first.Lineups[i].CanonicalKey(), second.Lineups[i].CanonicalKey())
		assert.Equal(t, first.Lineups[i].GeneticFitness, second.Lineups[i].GeneticFitness)
	}
	assert.Equal(t, first.Report.FitnessHistory, second.Report.FitnessHistory)
}

func TestDriver_DeterministicAcrossWorkerCounts(t *testing.T) {
	pool := mustPool(t, lckSlate())

	run := func(workers int) *Result {
		config := testConfig()
		config.Workers = workers
		matrix := optimizer.NewCorrelationMatrix(pool, optimizer.DefaultCorrelationConfig())
		driver := NewDriver(pool, matrix, config, types.DefaultSalaryCap, false, 21)
		result, err := driver.Evolve(context.Background(), 5)
		require.NoError(t, err)
		return result
	}

	one := run(1)
	four := run(4)

	assert.Equal(t, one.Report.FitnessHistory, four.Report.FitnessHistory)
	require.Len(t, four.Lineups, len(one.Lineups))
	for i := range one.Lineups {
		assert.Equal(t, one.Lineups[i].ID, four.Lineups[i].ID)
		assert.Equal(t, one.Lineups[i].GeneticFitness, four.Lineups[i].GeneticFitness)
	}
}

func TestDriver_InvalidCount(t *testing.T) {
	pool := mustPool(t, lckSlate())
	driver := newTestDriver(t, pool, 1)

	_, err := driver.Evolve(context.Background(), 0)
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.ErrKindInvalidInput))
}

func TestDriver_CancelledContext(t *testing.T) {
	pool := mustPool(t, lckSlate())
	driver := newTestDriver(t, pool, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := driver.Evolve(ctx, 5)
	require.Error(t, err)
	assert.True(t, types.IsCancelled(err))
}

func TestDriver_PoolExhausted(t *testing.T) {
	// One player per position on a single team: every build dies at the
	// roster fill, so seeding cannot produce a single individual.
	inputs := []types.PlayerInput{
		{ID: "solo-top", Name: "Solo Top", Position: "TOP", Team: "T1", Opponent: "GEN", Salary: 6000, ProjectedPoints: 50.0, Ownership: 10.0},
		{ID: "solo-jng", Name: "Solo Jungle", Position: "JNG", Team: "T1", Opponent: "GEN", Salary: 6000, ProjectedPoints: 50.0, Ownership: 10.0},
		{ID: "solo-mid", Name: "Solo Mid", Position: "MID", Team: "T1", Opponent: "GEN", Salary: 6000, ProjectedPoints: 50.0, Ownership: 10.0},
		{ID: "solo-adc", Name: "Solo ADC", Position: "ADC", Team: "T1", Opponent: "GEN", Salary: 6000, ProjectedPoints: 50.0, Ownership: 10.0},
		{ID: "solo-sup", Name: "Solo Support", Position: "SUP", Team: "T1", Opponent: "GEN", Salary: 6000, ProjectedPoints: 50.0, Ownership: 10.0},
		{ID: "solo-team", Name: "Solo Team", Position: "TEAM", Team: "T1", Opponent: "GEN", Salary: 5000, ProjectedPoints: 40.0, Ownership: 10.0},
	}
	pool := mustPool(t, inputs)
	driver := newTestDriver(t, pool, 1)

	_, err := driver.Evolve(context.Background(), 3)
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.ErrKindPoolExhausted))
}

func TestDriver_ProgressFiresPerGeneration(t *testing.T) {
	pool := mustPool(t, lckSlate())
	config := testConfig()

	var marks [][2]int
	config.Progress = func(generation, total int) {
		marks = append(marks, [2]int{generation, total})
	}
	matrix := optimizer.NewCorrelationMatrix(pool, optimizer.DefaultCorrelationConfig())
	driver := NewDriver(pool, matrix, config, types.DefaultSalaryCap, false, 5)

	_, err := driver.Evolve(context.Background(), 4)
	require.NoError(t, err)

	require.Len(t, marks, config.Generations)
	assert.Equal(t, [2]int{1, config.Generations}, marks[0])
	assert.Equal(t, [2]int{config.Generations, config.Generations}, marks[len(marks)-1])
}

func testConfig() Config {
	return Config{
		Population:     24,
		Generations:    6,
		EliteRate:      0.10,
		CrossoverRate:  0.60,
		MutationRate:   0.30,
		TournamentSize: 3,
		MaxStagnation:  3,
		FitnessBatch:   5,
		BuildAttempts:  5,
	}
}

func newTestDriver(tb testing.TB, pool *optimizer.PlayerPool, seed int64) *Driver {
	tb.Helper()
	matrix := optimizer.NewCorrelationMatrix(pool, optimizer.DefaultCorrelationConfig())
	return NewDriver(pool, matrix, testConfig(), types.DefaultSalaryCap, false, seed)
}

func mustPool(tb testing.TB, inputs []types.PlayerInput) *optimizer.PlayerPool {
	tb.Helper()
	pool, err := optimizer.NewPlayerPool(inputs, types.ExposureSettings{})
	require.NoError(tb, err)
	return pool
}

// lckSlate is a four-team, two-game slate with one player per position per
// team.
func lckSlate() []types.PlayerInput {
	return []types.PlayerInput{
		// T1 (vs GEN)
		{ID: "t1-zeus", Name: "Zeus", Position: "TOP", Team: "T1", Opponent: "GEN", Salary: 6800, ProjectedPoints: 62.0, Ownership: 28.0},
		{ID: "t1-oner", Name: "Oner", Position: "JNG", Team: "T1", Opponent: "GEN", Salary: 7000, ProjectedPoints: 68.0, Ownership: 32.0},
		{ID: "t1-faker", Name: "Faker", Position: "MID", Team: "T1", Opponent: "GEN", Salary: 7800, ProjectedPoints: 75.0, Ownership: 45.0},
		{ID: "t1-gumayusi", Name: "Gumayusi", Position: "ADC", Team: "T1", Opponent: "GEN", Salary: 7600, ProjectedPoints: 72.0, Ownership: 38.0},
		{ID: "t1-keria", Name: "Keria", Position: "SUP", Team: "T1", Opponent: "GEN", Salary: 6400, ProjectedPoints: 58.0, Ownership: 24.0},
		{ID: "t1-team", Name: "T1", Position: "TEAM", Team: "T1", Opponent: "GEN", Salary: 5600, ProjectedPoints: 52.0, Ownership: 22.0},
		// GEN (vs T1)
		{ID: "gen-kiin", Name: "Kiin", Position: "TOP", Team: "GEN", Opponent: "T1", Salary: 6600, ProjectedPoints: 58.0, Ownership: 20.0},
		{ID: "gen-canyon", Name: "Canyon", Position: "JNG", Team: "GEN", Opponent: "T1", Salary: 6800, ProjectedPoints: 64.0, Ownership: 26.0},
		{ID: "gen-chovy", Name: "Chovy", Position: "MID", Team: "GEN", Opponent: "T1", Salary: 7400, ProjectedPoints: 71.0, Ownership: 35.0},
		{ID: "gen-peyz", Name: "Peyz", Position: "ADC", Team: "GEN", Opponent: "T1", Salary: 7200, ProjectedPoints: 66.0, Ownership: 30.0},
		{ID: "gen-lehends", Name: "Lehends", Position: "SUP", Team: "GEN", Opponent: "T1", Salary: 6000, ProjectedPoints: 54.0, Ownership: 16.0},
		{ID: "gen-team", Name: "GEN", Position: "TEAM", Team: "GEN", Opponent: "T1", Salary: 5400, ProjectedPoints: 48.0, Ownership: 18.0},
		// KT (vs DK)
		{ID: "kt-perfect", Name: "PerfecT", Position: "TOP", Team: "KT", Opponent: "DK", Salary: 5800, ProjectedPoints: 48.0, Ownership: 9.0},
		{ID: "kt-cuzz", Name: "Cuzz", Position: "JNG", Team: "KT", Opponent: "DK", Salary: 6000, ProjectedPoints: 52.0, Ownership: 12.0},
		{ID: "kt-bdd", Name: "Bdd", Position: "MID", Team: "KT", Opponent: "DK", Salary: 6600, ProjectedPoints: 61.0, Ownership: 18.0},
		{ID: "kt-deokdam", Name: "Deokdam", Position: "ADC", Team: "KT", Opponent: "DK", Salary: 6400, ProjectedPoints: 57.0, Ownership: 15.0},
		{ID: "kt-peter", Name: "Peter", Position: "SUP", Team: "KT", Opponent: "DK", Salary: 5200, ProjectedPoints: 44.0, Ownership: 7.0},
		{ID: "kt-team", Name: "KT", Position: "TEAM", Team: "KT", Opponent: "DK", Salary: 4800, ProjectedPoints: 42.0, Ownership: 8.0},
		// DK (vs KT)
		{ID: "dk-siwoo", Name: "Siwoo", Position: "TOP", Team: "DK", Opponent: "KT", Salary: 5600, ProjectedPoints: 45.0, Ownership: 8.0},
		{ID: "dk-lucid", Name: "Lucid", Position: "JNG", Team: "DK", Opponent: "KT", Salary: 5800, ProjectedPoints: 50.0, Ownership: 11.0},
		{ID: "dk-showmaker", Name: "ShowMaker", Position: "MID", Team: "DK", Opponent: "KT", Salary: 6800, ProjectedPoints: 63.0, Ownership: 22.0},
		{ID: "dk-aiming", Name: "Aiming", Position: "ADC", Team: "DK", Opponent: "KT", Salary: 6600, ProjectedPoints: 59.0, Ownership: 19.0},
		{ID: "dk-beryl", Name: "BeryL", Position: "SUP", Team: "DK", Opponent: "KT", Salary: 5000, ProjectedPoints: 41.0, Ownership: 6.0},
		{ID: "dk-team", Name: "DK", Position: "TEAM", Team: "DK", Opponent: "KT", Salary: 4600, ProjectedPoints: 38.0, Ownership: 7.0},
	}
}

// slateLineup assembles a lineup fixture with the captain repriced and
// projected points accumulated.
func slateLineup(tb testing.TB, pool *optimizer.PlayerPool, captainID string, playerIDs ...string) *types.Lineup {
	tb.Helper()
	captain, ok := pool.Get(captainID)
	require.True(tb, ok, "captain %s not in pool", captainID)

	lineup := &types.Lineup{
		ID: "test_" + captainID,
		Captain: types.LineupSlot{
			PlayerID: captain.ID,
			Name:     captain.Name,
			Position: types.PositionCaptain,
			Team:     captain.Team,
			Salary:   captain.CaptainSalary(),
		},
		ProjectedPoints: captain.ProjectedPoints * types.CaptainMultiplier,
	}
	for _, id := range playerIDs {
		player, ok := pool.Get(id)
		require.True(tb, ok, "player %s not in pool", id)
		lineup.Players = append(lineup.Players, types.LineupSlot{
			PlayerID: player.ID,
			Name:     player.Name,
			Position: player.Position,
			Team:     player.Team,
			Salary:   player.Salary,
		})
		lineup.ProjectedPoints += player.ProjectedPoints
	}
	return lineup
}
