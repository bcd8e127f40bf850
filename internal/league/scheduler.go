package league

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/hockeysim/internal/config"
	"github.com/cory-johannsen/hockeysim/internal/game/roster"
	"github.com/cory-johannsen/hockeysim/internal/game/sim"
	"github.com/cory-johannsen/hockeysim/internal/storage/postgres"
)

// GameStore is the schedule and result persistence the Scheduler needs.
//
// ClaimDue leases the games it returns until retryAfter times their attempt
// count has elapsed; RecordFailure moves a game to failed once it has been
// claimed maxAttempts times.
type GameStore interface {
	ClaimDue(ctx context.Context, now time.Time, limit int, retryAfter time.Duration) ([]postgres.ScheduledGame, error)
	RecordFailure(ctx context.Context, gameID int64, reason string, maxAttempts int) error
	SaveResult(ctx context.Context, gameID int64, simulationID uuid.UUID, res sim.GameResult) error
}

// RosterStore loads teams by ID.
type RosterStore interface {
	LoadTeam(ctx context.Context, id string) (*roster.Team, error)
}

// Scheduler polls for due games, simulates them as one batch, and persists
// each result. It satisfies server.Service.
type Scheduler struct {
	games    GameStore
	rosters  RosterStore
	runner   *Runner
	logger   *zap.Logger
	interval time.Duration
	batch    int
	attempts int
	backoff  time.Duration
	now      func() time.Time
	onReady  func(bool)

	ctx     context.Context
	cancel  context.CancelFunc
	started atomic.Bool
	done    chan struct{}
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithClock overrides the time source used to decide which games are due.
func WithClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) { s.now = now }
}

// WithReadiness registers a callback invoked with true when polling starts
// and false when it stops.
func WithReadiness(fn func(bool)) SchedulerOption {
	return func(s *Scheduler) { s.onReady = fn }
}

// NewScheduler creates a Scheduler.
//
// Precondition: all collaborators must be non-nil; cfg.PollInterval > 0;
// cfg.BatchSize >= 1; cfg.MaxAttempts >= 1; cfg.RetryBackoff > 0.
func NewScheduler(cfg config.SimulationConfig, games GameStore, rosters RosterStore, runner *Runner, logger *zap.Logger, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		games:    games,
		rosters:  rosters,
		runner:   runner,
		logger:   logger.Named("scheduler"),
		interval: cfg.PollInterval,
		batch:    cfg.BatchSize,
		attempts: cfg.MaxAttempts,
		backoff:  cfg.RetryBackoff,
		now:      time.Now,
		onReady:  func(bool) {},
		done:     make(chan struct{}),
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start polls immediately and then every poll interval until Stop is called.
//
// Precondition: Start is called at most once.
func (s *Scheduler) Start() error {
	ctx := s.ctx
	s.started.Store(true)
	defer close(s.done)
	if ctx.Err() != nil {
		return nil
	}

	s.onReady(true)
	defer s.onReady(false)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		if _, err := s.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("poll failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Stop cancels the poll loop and waits for an in-flight batch to finish.
func (s *Scheduler) Stop() {
	s.cancel()
	if s.started.Load() {
		<-s.done
	}
}

// RunOnce claims, simulates, and saves at most one batch of due games and
// reports how many results were saved. A game whose roster cannot be loaded,
// whose simulation is rejected, or whose result cannot be saved has the
// failure recorded and is retried after its backoff, up to the configured
// number of attempts.
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	due, err := s.games.ClaimDue(ctx, s.now(), s.batch, s.backoff)
	if err != nil {
		return 0, fmt.Errorf("claiming due games: %w", err)
	}
	if len(due) == 0 {
		return 0, nil
	}

	matchups := make([]Matchup, 0, len(due))
	for _, g := range due {
		m, err := s.matchup(ctx, g)
		if err != nil {
			s.logger.Warn("skipping game", zap.Int64("game_id", g.ID), zap.Error(err))
			s.recordFailure(ctx, g.ID, err)
			continue
		}
		matchups = append(matchups, m)
	}

	week, err := s.runner.RunWeek(ctx, matchups)
	if err != nil {
		return 0, err
	}

	saved := 0
	for _, o := range week.Outcomes {
		logger := s.logger.With(zap.Int64("game_id", o.Matchup.GameID))
		if o.Err != nil {
			logger.Warn("simulation rejected", zap.Error(o.Err))
			s.recordFailure(ctx, o.Matchup.GameID, o.Err)
			continue
		}
		if err := s.games.SaveResult(ctx, o.Matchup.GameID, week.SimulationID, o.Result); err != nil {
			logger.Error("saving result", zap.Error(err))
			s.recordFailure(ctx, o.Matchup.GameID, err)
			continue
		}
		saved++
		logger.Info("game final",
			zap.String("home", o.Result.HomeTeamID),
			zap.String("away", o.Result.AwayTeamID),
			zap.Int("home_score", o.Result.HomeScore),
			zap.Int("away_score", o.Result.AwayScore),
			zap.String("overtime_winner", string(o.Result.OvertimeWinner)),
			zap.String("shootout_winner", string(o.Result.ShootoutWinner)),
		)
	}
	return saved, nil
}

func (s *Scheduler) recordFailure(ctx context.Context, gameID int64, cause error) {
	if err := s.games.RecordFailure(ctx, gameID, cause.Error(), s.attempts); err != nil {
		s.logger.Error("recording failure", zap.Int64("game_id", gameID), zap.Error(err))
	}
}

func (s *Scheduler) matchup(ctx context.Context, g postgres.ScheduledGame) (Matchup, error) {
	home, err := s.rosters.LoadTeam(ctx, g.HomeTeamID)
	if err != nil {
		return Matchup{}, fmt.Errorf("loading home team %s: %w", g.HomeTeamID, err)
	}
	away, err := s.rosters.LoadTeam(ctx, g.AwayTeamID)
	if err != nil {
		return Matchup{}, fmt.Errorf("loading away team %s: %w", g.AwayTeamID, err)
	}
	return Matchup{GameID: g.ID, Home: home, Away: away}, nil
}
