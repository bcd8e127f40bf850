// Package sim simulates a hockey game between two rosters through weighted
// random sampling: three regulation periods, then overtime or a shootout
// when tied, then a stars-of-the-game ranking.
//
// Simulate holds no state between calls and mutates only per-call
// structures, so independent games may run in parallel as long as each call
// gets its own random.Source (or a concurrency-safe one).
package sim

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/hockeysim/internal/game/random"
	"github.com/cory-johannsen/hockeysim/internal/game/roster"
)

// RegulationPeriods is the number of fixed-length periods before a tiebreak.
const RegulationPeriods = 3

var (
	// ErrNilTeam is returned when either side of a matchup is missing.
	ErrNilTeam = errors.New("team is nil")
	// ErrNilSource is returned when no random.Source is supplied.
	ErrNilSource = errors.New("random source is nil")
	// ErrNilPlayer is returned when a roster contains a nil player entry.
	ErrNilPlayer = errors.New("player is nil")
	// ErrDuplicatePlayer is returned when a player ID appears more than once
	// across both rosters.
	ErrDuplicatePlayer = errors.New("duplicate player id")
)

// PreconditionError reports structurally invalid simulator input.
type PreconditionError struct {
	Arg string
	Err error
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("sim: precondition violated for %s: %v", e.Arg, e.Err)
}

func (e *PreconditionError) Unwrap() error { return e.Err }

// teamState is one side's fixed per-game data.
type teamState struct {
	side     Side
	team     *roster.Team
	skaters  []*roster.Player
	strength float64
}

// game is the mutable state of one Simulate call.
type game struct {
	src    random.Source
	home   *teamState
	away   *teamState
	stats  map[string]*StatLine
	order  []string
	events []Event
	result GameResult
}

// Simulate plays one game between home and away using src for every random
// decision.
//
// Rosters with no skaters are accepted: that side takes no shots, scores no
// regulation goals, and cannot be credited for incidental events. Missing
// ratings default to roster.DefaultRating.
//
// Precondition: home, away, and src must be non-nil; every player is non-nil
// and player IDs are unique across both rosters.
// Postcondition: Returns a GameResult satisfying the GameResult invariants, or
// a *PreconditionError.
func Simulate(home, away *roster.Team, src random.Source) (GameResult, error) {
	switch {
	case home == nil:
		return GameResult{}, &PreconditionError{Arg: "home", Err: ErrNilTeam}
	case away == nil:
		return GameResult{}, &PreconditionError{Arg: "away", Err: ErrNilTeam}
	case src == nil:
		return GameResult{}, &PreconditionError{Arg: "src", Err: ErrNilSource}
	}
	if err := checkRosters(home, away); err != nil {
		return GameResult{}, err
	}

	g := newGame(home, away, src)
	for p := 1; p <= RegulationPeriods; p++ {
		pr := g.simulatePeriod(p)
		g.result.Periods = append(g.result.Periods, pr)
		g.result.HomeScore += pr.HomeGoals
		g.result.AwayScore += pr.AwayGoals
		g.result.HomeShots += pr.HomeShots
		g.result.AwayShots += pr.AwayShots
	}
	g.resolveTiebreak()

	lines := make([]StatLine, 0, len(g.order))
	for _, id := range g.order {
		lines = append(lines, *g.stats[id])
	}
	g.result.PlayerStats = lines
	g.result.Stars = RankStars(lines)
	g.result.PlayByPlay = g.events
	return g.result, nil
}

// checkRosters rejects nil players and player IDs shared within or across
// the two rosters. Per-player stat lines are keyed by ID.
func checkRosters(home, away *roster.Team) error {
	owner := make(map[string]string, len(home.Players)+len(away.Players))
	for _, side := range []struct {
		label string
		team  *roster.Team
	}{{"home", home}, {"away", away}} {
		for i, p := range side.team.Players {
			arg := fmt.Sprintf("%s.players[%d]", side.label, i)
			if p == nil {
				return &PreconditionError{Arg: arg, Err: ErrNilPlayer}
			}
			if prev, seen := owner[p.ID]; seen {
				return &PreconditionError{
					Arg: arg,
					Err: fmt.Errorf("%w %q already used by %s", ErrDuplicatePlayer, p.ID, prev),
				}
			}
			owner[p.ID] = arg
		}
	}
	return nil
}

func newGame(home, away *roster.Team, src random.Source) *game {
	g := &game{
		src:   src,
		home:  newTeamState(SideHome, home),
		away:  newTeamState(SideAway, away),
		stats: make(map[string]*StatLine),
	}
	g.result = GameResult{
		HomeTeamID:       home.ID,
		AwayTeamID:       away.ID,
		Periods:          make([]PeriodResult, 0, RegulationPeriods),
		OvertimeWinner:   SideNone,
		ShootoutWinner:   SideNone,
		HomeTeamStrength: g.home.strength,
		AwayTeamStrength: g.away.strength,
	}
	for _, t := range []*roster.Team{home, away} {
		for _, p := range t.Players {
			g.stats[p.ID] = &StatLine{PlayerID: p.ID, Name: p.FullName(), TeamID: t.ID}
			g.order = append(g.order, p.ID)
		}
	}
	return g
}

func newTeamState(side Side, t *roster.Team) *teamState {
	return &teamState{
		side:     side,
		team:     t,
		skaters:  t.Skaters(),
		strength: TeamStrength(t),
	}
}

func (g *game) line(p *roster.Player) *StatLine {
	return g.stats[p.ID]
}

func (g *game) emit(e Event) {
	g.events = append(g.events, e)
}

// clockLabel draws a pseudo-random "M:SS" time with minutes in [0, maxMinutes).
func (g *game) clockLabel(maxMinutes int) string {
	m := random.Intn(g.src, maxMinutes)
	s := random.Intn(g.src, 60)
	return fmt.Sprintf("%d:%02d", m, s)
}

// Simulator wraps Simulate with structured logging.
type Simulator struct {
	logger *zap.Logger
}

// New creates a Simulator that logs to logger.
//
// Precondition: logger must be non-nil.
func New(logger *zap.Logger) *Simulator {
	return &Simulator{logger: logger.Named("sim")}
}

// Simulate runs Simulate and logs the outcome. The result is identical to
// the package-level function for the same inputs.
func (s *Simulator) Simulate(home, away *roster.Team, src random.Source) (GameResult, error) {
	start := time.Now()
	res, err := Simulate(home, away, src)
	if err != nil {
		s.logger.Warn("simulation rejected", zap.Error(err))
		return GameResult{}, err
	}
	s.logger.Debug("game simulated",
		zap.String("home", home.Name),
		zap.String("away", away.Name),
		zap.Int("home_score", res.HomeScore),
		zap.Int("away_score", res.AwayScore),
		zap.String("overtime_winner", string(res.OvertimeWinner)),
		zap.String("shootout_winner", string(res.ShootoutWinner)),
		zap.Int("events", len(res.PlayByPlay)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}
