package genetic

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/derekschultz/lol-dfs-optimizer-sub001/internal/optimizer"
	"github.com/derekschultz/lol-dfs-optimizer-sub001/pkg/types"
)

// seedProfiles are the six construction strategies distributed round-robin
// across the initial population. Each overrides the builder's randomness and
// leverage emphasis; the stack profiles force a stack size outright.
func seedProfiles() []optimizer.BuildProfile {
	return []optimizer.BuildProfile{
		{Name: "projection_focused", Randomness: 0.15, LeverageMultiplier: 0.4},
		{Name: "leverage_focused", Randomness: 0.30, LeverageMultiplier: 2.0},
		{Name: "contrarian", Randomness: 0.50, LeverageMultiplier: 2.5},
		optimizer.BalancedProfile(0.30),
		{Name: "stack_heavy", Randomness: 0.30, LeverageMultiplier: 1.0, ForcedStackSize: 4},
		{Name: "stack_light", Randomness: 0.35, LeverageMultiplier: 0.8, ForcedStackSize: 2},
	}
}

// seedPopulation builds the initial population. An empty result is a
// PoolExhausted error; a population under half the target only warns.
func (d *Driver) seedPopulation(ctx context.Context, target int) ([]Individual, []string, error) {
	population, attempts, err := d.buildIndividuals(ctx, nil, target)
	if err != nil {
		return nil, nil, err
	}

	var warnings []string
	if len(population) == 0 {
		return nil, nil, types.NewEngineError(types.ErrKindPoolExhausted,
			"could not seed any valid individuals after %d attempts", attempts)
	}
	if len(population) < target/2 {
		warnings = append(warnings,
			fmt.Sprintf("seeded %d of %d individuals after %d attempts", len(population), target, attempts))
		d.log.WithFields(logrus.Fields{
			"seeded":   len(population),
			"target":   target,
			"attempts": attempts,
		}).Warn("seed population below half target")
	}

	d.log.WithFields(logrus.Fields{
		"seeded":   len(population),
		"target":   target,
		"attempts": attempts,
	}).Debug("population seeded")
	return population, warnings, nil
}

// buildIndividuals appends builder-made individuals until the target size or
// the attempt budget is reached. Each admitted lineup is registered with the
// validator and ledger so later builds steer away from it.
func (d *Driver) buildIndividuals(ctx context.Context, individuals []Individual, target int) ([]Individual, int, error) {
	missing := target - len(individuals)
	if missing <= 0 {
		return individuals, 0, nil
	}

	profiles := seedProfiles()
	attempts := 0
	maxAttempts := missing * d.config.BuildAttempts
	for len(individuals) < target && attempts < maxAttempts {
		if attempts%d.config.FitnessBatch == 0 {
			if err := ctx.Err(); err != nil {
				return nil, 0, types.WrapEngineError(types.ErrKindCancelled, err,
					"population build cancelled")
			}
		}
		attempts++

		lineup, err := d.builder.Build(profiles[len(individuals)%len(profiles)])
		if err != nil {
			continue
		}
		if !d.validateOffspring(lineup) {
			continue
		}
		d.validator.Accept(lineup)
		d.ledger.Record(lineup)
		individuals = append(individuals, Individual{Lineup: lineup})
	}
	return individuals, attempts, nil
}
