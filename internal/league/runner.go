// Package league runs many simulations at once: a batch "week" of matchups
// and the scheduler that feeds due games from storage into that batch.
package league

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cory-johannsen/hockeysim/internal/config"
	"github.com/cory-johannsen/hockeysim/internal/game/random"
	"github.com/cory-johannsen/hockeysim/internal/game/roster"
	"github.com/cory-johannsen/hockeysim/internal/game/sim"
)

// Matchup is one game to simulate. GameID keys the per-game random stream
// when the runner is seeded.
type Matchup struct {
	GameID int64
	Home   *roster.Team
	Away   *roster.Team
}

// Outcome is the result of one Matchup. Err is set when the simulation
// rejected its inputs; Result is then zero.
type Outcome struct {
	Matchup Matchup
	Result  sim.GameResult
	Err     error
}

// Week is the result of one batch run.
type Week struct {
	SimulationID uuid.UUID
	Outcomes     []Outcome
}

// Runner simulates batches of games concurrently.
type Runner struct {
	simulator *sim.Simulator
	logger    *zap.Logger
	cfg       config.SimulationConfig
}

// NewRunner creates a Runner.
//
// Precondition: simulator and logger must be non-nil; cfg.Workers must be >= 1.
func NewRunner(cfg config.SimulationConfig, simulator *sim.Simulator, logger *zap.Logger) *Runner {
	return &Runner{simulator: simulator, logger: logger.Named("runner"), cfg: cfg}
}

// sourceFor returns an independent Source for one game. Seeded runs derive
// the stream from the game ID so results do not depend on scheduling order.
func (r *Runner) sourceFor(gameID int64) random.Source {
	var src random.Source
	if r.cfg.Seeded() {
		src = random.NewSeeded(r.cfg.Seed, uint64(gameID))
	} else {
		src = random.NewCryptoSource()
	}
	if r.cfg.TraceRandom {
		src = random.NewLoggedSource(src, r.logger.With(zap.Int64("game_id", gameID)))
	}
	return src
}

// RunWeek simulates every matchup with at most cfg.Workers in flight.
//
// Postcondition: len(week.Outcomes) == len(matchups) and Outcomes[i]
// corresponds to matchups[i]. When ctx is cancelled, games not yet started are
// skipped and ctx's error is returned along with the outcomes produced so far.
func (r *Runner) RunWeek(ctx context.Context, matchups []Matchup) (Week, error) {
	week := Week{SimulationID: uuid.New(), Outcomes: make([]Outcome, len(matchups))}
	logger := r.logger.With(zap.String("simulation_id", week.SimulationID.String()))
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	for i, m := range matchups {
		week.Outcomes[i].Matchup = m
	}
	for i, m := range matchups {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := r.simulator.Simulate(m.Home, m.Away, r.sourceFor(m.GameID))
			week.Outcomes[i].Result = res
			week.Outcomes[i].Err = err
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	failed := 0
	for _, o := range week.Outcomes {
		if o.Err != nil {
			failed++
		}
	}
	logger.Info("week simulated",
		zap.Int("games", len(matchups)),
		zap.Int("failed", failed),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(err),
	)
	return week, err
}
