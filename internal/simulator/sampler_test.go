package simulator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derekschultz/lol-dfs-optimizer-sub001/internal/optimizer"
	"github.com/derekschultz/lol-dfs-optimizer-sub001/pkg/types"
)

func TestSampler_GridShape(t *testing.T) {
	pool := mustPool(t, simSlate())
	sampler := NewSampler(pool, SamplerConfig{Seed: 7, Randomness: 0.3})

	grid, err := sampler.Sample(context.Background(), 500)
	require.NoError(t, err)

	assert.Equal(t, 500, grid.Iterations())
	assert.Equal(t, pool.Size(), grid.Players())
	for _, player := range pool.Players {
		outcomes, ok := grid.Outcomes(player.ID)
		require.True(t, ok, "missing outcomes for %s", player.ID)
		assert.Len(t, outcomes, 500)
	}

	_, ok := grid.Outcomes("not-in-slate")
	assert.False(t, ok)
}

func TestSampler_DeterministicForSeed(t *testing.T) {
	pool := mustPool(t, simSlate())

	first, err := NewSampler(pool, SamplerConfig{Seed: 42, Randomness: 0.3}).Sample(context.Background(), 256)
	require.NoError(t, err)
	second, err := NewSampler(pool, SamplerConfig{Seed: 42, Randomness: 0.3}).Sample(context.Background(), 256)
	require.NoError(t, err)

	for _, player := range pool.Players {
		a, _ := first.Outcomes(player.ID)
		b, _ := second.Outcomes(player.ID)
		assert.Equal(t, a, b, "outcomes diverge for %s", player.ID)
	}

	reseeded, err := NewSampler(pool, SamplerConfig{Seed: 43, Randomness: 0.3}).Sample(context.Background(), 256)
	require.NoError(t, err)
	a, _ := first.Outcomes("t1-faker")
	c, _ := reseeded.Outcomes("t1-faker")
	assert.NotEqual(t, a, c, "a different seed must change the draw sequence")
}

func TestSampler_MeanTracksProjection(t *testing.T) {
	pool := mustPool(t, simSlate())
	sampler := NewSampler(pool, SamplerConfig{Seed: 99, Randomness: 0.3})

	grid, err := sampler.Sample(context.Background(), 4000)
	require.NoError(t, err)

	// Faker projects 75.0 with stddev 30.0; the sample mean should sit
	// close to the projection at this iteration count.
	outcomes, ok := grid.Outcomes("t1-faker")
	require.True(t, ok)
	var sum float64
	for _, v := range outcomes {
		sum += v
	}
	assert.InDelta(t, 75.0, sum/float64(len(outcomes)), 5.0)
}

func TestSampler_ClampsNegativeDraws(t *testing.T) {
	// A 1.0-point projection keeps the 3.0 stddev floor, so roughly a
	// third of raw draws land below zero and must clamp.
	inputs := []types.PlayerInput{
		{ID: "lowball", Name: "Lowball", Position: "MID", Team: "T1", Opponent: "GEN", Salary: 5000, ProjectedPoints: 1.0, Ownership: 5.0},
	}
	pool := mustPool(t, inputs)
	sampler := NewSampler(pool, SamplerConfig{Seed: 11, Randomness: 0.3})

	grid, err := sampler.Sample(context.Background(), 1000)
	require.NoError(t, err)

	outcomes, _ := grid.Outcomes("lowball")
	zeros := 0
	for _, v := range outcomes {
		require.GreaterOrEqual(t, v, 0.0)
		if v == 0 {
			zeros++
		}
	}
	assert.Greater(t, zeros, 0, "negative draws should clamp to zero")
}

func TestSampler_ReportsBatchProgress(t *testing.T) {
	pool := mustPool(t, simSlate())

	var marks [][2]int
	sampler := NewSampler(pool, SamplerConfig{
		Seed:       1,
		Randomness: 0.3,
		Progress: func(completed, total int) {
			marks = append(marks, [2]int{completed, total})
		},
	})

	_, err := sampler.Sample(context.Background(), 2500)
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{1000, 2500}, {2000, 2500}, {2500, 2500}}, marks)
}

func TestSampler_CancelledContext(t *testing.T) {
	pool := mustPool(t, simSlate())
	sampler := NewSampler(pool, SamplerConfig{Seed: 1, Randomness: 0.3})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sampler.Sample(ctx, 100)
	require.Error(t, err)
	assert.True(t, types.IsCancelled(err))
}

func TestSampler_RejectsNonPositiveIterations(t *testing.T) {
	pool := mustPool(t, simSlate())
	sampler := NewSampler(pool, SamplerConfig{Seed: 1, Randomness: 0.3})

	_, err := sampler.Sample(context.Background(), 0)
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.ErrKindInvalidInput))
}

// simSlate is a single-game slate: T1 against GEN, six roster spots each.
func simSlate() []types.PlayerInput {
	return []types.PlayerInput{
		{ID: "t1-zeus", Name: "Zeus", Position: "TOP", Team: "T1", Opponent: "GEN", Salary: 6800, ProjectedPoints: 62.0, Ownership: 28.0},
		{ID: "t1-oner", Name: "Oner", Position: "JNG", Team: "T1", Opponent: "GEN", Salary: 7000, ProjectedPoints: 68.0, Ownership: 32.0},
		{ID: "t1-faker", Name: "Faker", Position: "MID", Team: "T1", Opponent: "GEN", Salary: 7800, ProjectedPoints: 75.0, Ownership: 45.0},
		{ID: "t1-gumayusi", Name: "Gumayusi", Position: "ADC", Team: "T1", Opponent: "GEN", Salary: 7600, ProjectedPoints: 72.0, Ownership: 38.0},
		{ID: "t1-keria", Name: "Keria", Position: "SUP", Team: "T1", Opponent: "GEN", Salary: 6400, ProjectedPoints: 58.0, Ownership: 24.0},
		{ID: "t1-team", Name: "T1", Position: "TEAM", Team: "T1", Opponent: "GEN", Salary: 5600, ProjectedPoints: 52.0, Ownership: 22.0},
		{ID: "gen-kiin", Name: "Kiin", Position: "TOP", Team: "GEN", Opponent: "T1", Salary: 6600, ProjectedPoints: 58.0, Ownership: 20.0},
		{ID: "gen-canyon", Name: "Canyon", Position: "JNG", Team: "GEN", Opponent: "T1", Salary: 6800, ProjectedPoints: 64.0, Ownership: 26.0},
		{ID: "gen-chovy", Name: "Chovy", Position: "MID", Team: "GEN", Opponent: "T1", Salary: 7400, ProjectedPoints: 71.0, Ownership: 35.0},
		{ID: "gen-peyz", Name: "Peyz", Position: "ADC", Team: "GEN", Opponent: "T1", Salary: 7200, ProjectedPoints: 66.0, Ownership: 30.0},
		{ID: "gen-lehends", Name: "Lehends", Position: "SUP", Team: "GEN", Opponent: "T1", Salary: 6000, ProjectedPoints: 54.0, Ownership: 16.0},
		{ID: "gen-team", Name: "GEN", Position: "TEAM", Team: "GEN", Opponent: "T1", Salary: 5400, ProjectedPoints: 48.0, Ownership: 18.0},
	}
}

func mustPool(tb testing.TB, inputs []types.PlayerInput) *optimizer.PlayerPool {
	tb.Helper()
	pool, err := optimizer.NewPlayerPool(inputs, types.ExposureSettings{})
	require.NoError(tb, err)
	return pool
}

// simLineup assembles a scored-lineup fixture with the captain repriced and
// the roster in fill order.
func simLineup(tb testing.TB, pool *optimizer.PlayerPool, captainID string, playerIDs ...string) *types.Lineup {
	tb.Helper()
	captain, ok := pool.Get(captainID)
	require.True(tb, ok, "captain %s not in pool", captainID)

	lineup := &types.Lineup{
		ID: "sim_" + captainID,
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
