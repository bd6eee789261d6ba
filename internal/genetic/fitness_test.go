package genetic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFitness_ComponentBreakdown(t *testing.T) {
	pool := mustPool(t, lckSlate())
	driver := newTestDriver(t, pool, 1)

	// Captain Faker with a four-deep T1 stack and a three-deep KT bring-back
	// at 49700 salary.
	lineup := slateLineup(t, pool, "t1-faker",
		"t1-zeus", "t1-oner", "kt-bdd", "kt-deokdam", "t1-keria", "kt-team")

	got := driver.fitness(lineup)
	want := 4605.0 + // 10 * (75*1.5 + 62+68+61+57+58+42)
		18.333333333333336 + // 2 * (30 - avg(28,32,18,15,24,8))
		57.426406871192854 + // T1 at 4 and KT at 3
		20.0 + // MID captain weight 2.0 * 10
		10.0 // under the cap
	assert.InDelta(t, want, got, 1e-9)
}

func TestFitness_BuriesIllegalTeamCount(t *testing.T) {
	pool := mustPool(t, lckSlate())
	driver := newTestDriver(t, pool, 1)

	// Five T1 players and 50500 salary: the stack bonus cannot offset the
	// team penalty, and the cap bonus is withheld.
	lineup := slateLineup(t, pool, "t1-faker",
		"t1-zeus", "t1-oner", "kt-bdd", "kt-deokdam", "t1-keria", "t1-team")

	got := driver.fitness(lineup)
	want := 4705.0 + // 10 * (75*1.5 + 62+68+61+57+58+52)
		13.666666666666668 + // 2 * (30 - avg(28,32,18,15,24,22))
		77.94228634059948 + // T1 at 5, 3^1.5 * 15
		20.0 - // MID captain
		1000.0 // five from one team
	assert.InDelta(t, want, got, 1e-9)

	legal := slateLineup(t, pool, "t1-faker",
		"t1-zeus", "t1-oner", "kt-bdd", "kt-deokdam", "t1-keria", "kt-team")
	assert.Greater(t, driver.fitness(legal), got,
		"a legal roster must outrank an oversized stack")
}
