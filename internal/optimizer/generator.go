package optimizer

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/derekschultz/lol-dfs-optimizer-sub001/pkg/logger"
	"github.com/derekschultz/lol-dfs-optimizer-sub001/pkg/types"
)

// Generator drives the build-validate-accept loop. Invalid candidates are
// discarded and retried within an attempt budget, so a tight pool degrades
// to fewer lineups instead of an error.
type Generator struct {
	pool              *PlayerPool
	builder           *Builder
	validator         *Validator
	ledger            *Ledger
	attemptsPerLineup int
	accepted          []*types.Lineup
	log               *logrus.Entry
}

// NewGenerator wires a generator over a builder, validator, and ledger that
// share the same pool.
func NewGenerator(pool *PlayerPool, builder *Builder, validator *Validator, ledger *Ledger, attemptsPerLineup int) *Generator {
	if attemptsPerLineup < 1 {
		attemptsPerLineup = 1
	}
	return &Generator{
		pool:              pool,
		builder:           builder,
		validator:         validator,
		ledger:            ledger,
		attemptsPerLineup: attemptsPerLineup,
		log:               logger.WithComponent("generator"),
	}
}

// Accepted returns every lineup accepted through this generator so far,
// seeds included.
func (g *Generator) Accepted() []*types.Lineup {
	return g.accepted
}

// Seed admits pre-existing lineups before generation so new builds respect
// their exposure and never rebuild their rosters. Seeded lineups keep their
// names and numbering of new lineups continues after them.
func (g *Generator) Seed(lineups []*types.Lineup) {
	for _, lineup := range lineups {
		g.validator.Accept(lineup)
		g.ledger.Record(lineup)
		g.accepted = append(g.accepted, lineup)
	}
}

// Generate builds up to count validated lineups. It returns the accepted
// lineups, a warning when the attempt budget ran out short of count, and an
// Infeasible error only when nothing could be built at all.
func (g *Generator) Generate(ctx context.Context, count int, profile BuildProfile) ([]*types.Lineup, []string, error) {
	built := make([]*types.Lineup, 0, count)
	g.ledger.SetPlanned(g.ledger.TotalLineups() + count)
	maxAttempts := count * g.attemptsPerLineup
	attempts := 0
	rejections := make(map[string]int)

	for len(built) < count && attempts < maxAttempts {
		if err := ctx.Err(); err != nil {
			return nil, nil, types.WrapEngineError(types.ErrKindCancelled, err,
				"generation cancelled after %d of %d lineups", len(built), count)
		}
		attempts++

		candidate, err := g.builder.Build(profile)
		if err != nil {
			rejections["build"]++
			g.log.WithError(err).Debug("builder produced no candidate")
			continue
		}

		if err := g.validator.Validate(candidate); err != nil {
			if errors.Is(err, ErrDuplicatePlayers) && g.validator.FixDuplicates(candidate) {
				err = g.validator.Validate(candidate)
			}
			if err != nil {
				rejections[rejectionLabel(err)]++
				continue
			}
		}

		if !g.ledger.CanAccept(candidate) {
			rejections["exposure_max"]++
			continue
		}

		g.validator.Accept(candidate)
		g.ledger.Record(candidate)
		candidate.Name = fmt.Sprintf("Lineup %d", len(g.accepted)+1)
		g.accepted = append(g.accepted, candidate)
		built = append(built, candidate)
	}

	if err := g.ledger.CheckRecount(g.accepted); err != nil {
		return nil, nil, err
	}

	g.log.WithFields(logrus.Fields{
		"requested": count,
		"generated": len(built),
		"attempts":  attempts,
	}).Info("lineup generation complete")
	for reason, n := range rejections {
		g.log.WithFields(logrus.Fields{"reason": reason, "count": n}).Debug("rejected candidates")
	}

	if len(built) == 0 {
		return nil, nil, types.NewEngineError(types.ErrKindInfeasible,
			"no valid lineup could be built in %d attempts", attempts)
	}

	var warnings []string
	if len(built) < count {
		warning := fmt.Sprintf("generated %d of %d requested lineups after %d attempts", len(built), count, attempts)
		warnings = append(warnings, warning)
		g.log.Warn(warning)
	}
	return built, warnings, nil
}

func rejectionLabel(err error) string {
	switch {
	case errors.Is(err, ErrSalaryCapExceeded):
		return "salary_cap"
	case errors.Is(err, ErrDuplicatePlayers):
		return "duplicate_players"
	case errors.Is(err, ErrPositionsNotMet):
		return "positions"
	case errors.Is(err, ErrCaptainSalary):
		return "captain_salary"
	case errors.Is(err, ErrTooManyFromTeam):
		return "team_limit"
	case errors.Is(err, ErrInsufficientGames):
		return "games"
	case errors.Is(err, ErrDuplicateLineup):
		return "duplicate_lineup"
	default:
		return "other"
	}
}
