package league_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/hockeysim/internal/config"
	"github.com/cory-johannsen/hockeysim/internal/game/roster"
	"github.com/cory-johannsen/hockeysim/internal/game/sim"
	"github.com/cory-johannsen/hockeysim/internal/league"
	"github.com/cory-johannsen/hockeysim/internal/storage/postgres"
)

func team(id string, overall int) *roster.Team {
	t := &roster.Team{ID: id, Name: id}
	for i, pos := range []roster.Position{roster.Goalie, roster.Defense, roster.Defense, roster.Center, roster.LeftWing, roster.RightWing} {
		t.Players = append(t.Players, &roster.Player{
			ID:       fmt.Sprintf("%s-%d", id, i),
			Position: pos,
			Ratings:  map[roster.Attribute]int{roster.OverallRating: overall},
		})
	}
	return t
}

func simCfg(seed uint64, workers int) config.SimulationConfig {
	return config.SimulationConfig{
		Seed:         seed,
		Workers:      workers,
		PollInterval: time.Hour,
		BatchSize:    16,
		MaxAttempts:  3,
		RetryBackoff: time.Minute,
	}
}

func newRunner(t *testing.T, cfg config.SimulationConfig) *league.Runner {
	logger := zaptest.NewLogger(t)
	return league.NewRunner(cfg, sim.New(logger), logger)
}

func matchups(n int) []league.Matchup {
	out := make([]league.Matchup, n)
	for i := range out {
		out[i] = league.Matchup{
			GameID: int64(i + 1),
			Home:   team(fmt.Sprintf("h%d", i), 40+i),
			Away:   team(fmt.Sprintf("a%d", i), 70-i),
		}
	}
	return out
}

func TestRunWeek_PreservesInputOrder(t *testing.T) {
	ms := matchups(12)
	week, err := newRunner(t, simCfg(0, 4)).RunWeek(context.Background(), ms)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, week.SimulationID)
	require.Len(t, week.Outcomes, len(ms))
	for i, o := range week.Outcomes {
		require.NoError(t, o.Err)
		assert.Equal(t, ms[i].GameID, o.Matchup.GameID)
		assert.Equal(t, ms[i].Home.ID, o.Result.HomeTeamID)
		assert.Equal(t, ms[i].Away.ID, o.Result.AwayTeamID)
		assert.NotEqual(t, o.Result.HomeScore, o.Result.AwayScore)
	}
}

func TestRunWeek_SeededIsReproducibleAcrossWorkerCounts(t *testing.T) {
	ms := matchups(8)
	serial, err := newRunner(t, simCfg(2024, 1)).RunWeek(context.Background(), ms)
	require.NoError(t, err)
	parallel, err := newRunner(t, simCfg(2024, 8)).RunWeek(context.Background(), ms)
	require.NoError(t, err)

	require.Len(t, parallel.Outcomes, len(serial.Outcomes))
	for i := range serial.Outcomes {
		assert.Equal(t, serial.Outcomes[i].Result, parallel.Outcomes[i].Result, "game %d", i)
	}
	assert.NotEqual(t, serial.SimulationID, parallel.SimulationID)
}

func TestRunWeek_SeedSelectsStreamPerGame(t *testing.T) {
	ms := matchups(1)
	a, err := newRunner(t, simCfg(1, 1)).RunWeek(context.Background(), ms)
	require.NoError(t, err)
	b, err := newRunner(t, simCfg(1, 1)).RunWeek(context.Background(), ms)
	require.NoError(t, err)
	assert.Equal(t, a.Outcomes[0].Result, b.Outcomes[0].Result)
}

func TestRunWeek_RecordsRejectedMatchup(t *testing.T) {
	ms := matchups(3)
	ms[1].Away = nil
	week, err := newRunner(t, simCfg(5, 2)).RunWeek(context.Background(), ms)
	require.NoError(t, err)
	assert.NoError(t, week.Outcomes[0].Err)
	assert.ErrorIs(t, week.Outcomes[1].Err, sim.ErrNilTeam)
	assert.NoError(t, week.Outcomes[2].Err)
}

func TestRunWeek_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	week, err := newRunner(t, simCfg(5, 2)).RunWeek(ctx, matchups(4))
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, week.Outcomes, 4)
	for _, o := range week.Outcomes {
		assert.Empty(t, o.Result.Periods, "no game runs after cancellation")
	}
}

func TestRunWeek_TraceLogsDraws(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	cfg := simCfg(9, 1)
	cfg.TraceRandom = true
	runner := league.NewRunner(cfg, sim.New(zap.NewNop()), zap.New(core))

	_, err := runner.RunWeek(context.Background(), matchups(1))
	require.NoError(t, err)
	draws := logs.FilterMessage("random draw").All()
	require.NotEmpty(t, draws)
	assert.Equal(t, int64(1), draws[0].ContextMap()["game_id"])
}

func TestRunWeek_Property_OneOutcomePerMatchup(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 10).Draw(rt, "n")
		workers := rapid.IntRange(1, 6).Draw(rt, "workers")
		seed := rapid.Uint64Range(1, 1<<32).Draw(rt, "seed")
		runner := league.NewRunner(simCfg(seed, workers), sim.New(zap.NewNop()), zap.NewNop())

		week, err := runner.RunWeek(context.Background(), matchups(n))
		require.NoError(rt, err)
		require.Len(rt, week.Outcomes, n)
		for i, o := range week.Outcomes {
			assert.Equal(rt, int64(i+1), o.Matchup.GameID)
			assert.Len(rt, o.Result.Periods, sim.RegulationPeriods)
		}
	})
}

type claim struct {
	attempts int
	next     time.Time
	failed   bool
	reason   string
}

type fakeGames struct {
	mu       sync.Mutex
	due      []postgres.ScheduledGame
	claims   map[int64]*claim
	saved    map[int64]sim.GameResult
	runIDs   map[uuid.UUID]int
	claimErr error
	saveErr  map[int64]error
}

func newFakeGames(due ...postgres.ScheduledGame) *fakeGames {
	return &fakeGames{
		due:     due,
		claims:  make(map[int64]*claim),
		saved:   make(map[int64]sim.GameResult),
		runIDs:  make(map[uuid.UUID]int),
		saveErr: make(map[int64]error),
	}
}

func (f *fakeGames) ClaimDue(_ context.Context, now time.Time, limit int, retryAfter time.Duration) ([]postgres.ScheduledGame, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.claimErr != nil {
		return nil, f.claimErr
	}
	var out []postgres.ScheduledGame
	for _, g := range f.due {
		if _, done := f.saved[g.ID]; done || g.ScheduledAt.After(now) {
			continue
		}
		c, ok := f.claims[g.ID]
		if !ok {
			c = &claim{}
			f.claims[g.ID] = c
		}
		if c.failed || c.next.After(now) {
			continue
		}
		c.attempts++
		c.next = now.Add(retryAfter * time.Duration(c.attempts))
		out = append(out, g)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeGames) RecordFailure(_ context.Context, gameID int64, reason string, maxAttempts int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.claims[gameID]
	if !ok || c.failed {
		return postgres.ErrGameNotFound
	}
	c.reason = reason
	c.failed = c.attempts >= maxAttempts
	return nil
}

func (f *fakeGames) claimOf(gameID int64) claim {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.claims[gameID]; ok {
		return *c
	}
	return claim{}
}

func (f *fakeGames) SaveResult(_ context.Context, gameID int64, runID uuid.UUID, res sim.GameResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.saveErr[gameID]; err != nil {
		return err
	}
	f.saved[gameID] = res
	f.runIDs[runID]++
	return nil
}

func (f *fakeGames) savedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}

type fakeRosters map[string]*roster.Team

func (f fakeRosters) LoadTeam(_ context.Context, id string) (*roster.Team, error) {
	t, ok := f[id]
	if !ok {
		return nil, postgres.ErrTeamNotFound
	}
	return t, nil
}

var noon = time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)

func scheduled(id int64, home, away string, at time.Time) postgres.ScheduledGame {
	return postgres.ScheduledGame{ID: id, HomeTeamID: home, AwayTeamID: away, ScheduledAt: at, Status: postgres.StatusScheduled}
}

func TestScheduler_RunOnce(t *testing.T) {
	games := newFakeGames(
		scheduled(1, "bos", "mtl", noon.Add(-2*time.Hour)),
		scheduled(2, "mtl", "tor", noon.Add(-time.Hour)),
		scheduled(3, "tor", "bos", noon.Add(time.Hour)),
	)
	rosters := fakeRosters{"bos": team("bos", 60), "mtl": team("mtl", 55), "tor": team("tor", 70)}
	cfg := simCfg(11, 2)
	sched := league.NewScheduler(cfg, games, rosters, newRunner(t, cfg), zaptest.NewLogger(t),
		league.WithClock(func() time.Time { return noon }))

	n, err := sched.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Contains(t, games.saved, int64(1))
	assert.Contains(t, games.saved, int64(2))
	assert.NotContains(t, games.saved, int64(3), "future game is not due")
	assert.Len(t, games.runIDs, 1, "one batch shares a simulation id")
	assert.Equal(t, "bos", games.saved[1].HomeTeamID)

	n, err = sched.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestScheduler_RunOnce_RespectsBatchSize(t *testing.T) {
	var due []postgres.ScheduledGame
	for i := int64(1); i <= 5; i++ {
		due = append(due, scheduled(i, "bos", "mtl", noon.Add(-time.Duration(i)*time.Minute)))
	}
	games := newFakeGames(due...)
	rosters := fakeRosters{"bos": team("bos", 60), "mtl": team("mtl", 55)}
	cfg := simCfg(3, 2)
	cfg.BatchSize = 2
	sched := league.NewScheduler(cfg, games, rosters, newRunner(t, cfg), zaptest.NewLogger(t),
		league.WithClock(func() time.Time { return noon }))

	n, err := sched.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestScheduler_RunOnce_SkipsMissingRosterAndSaveFailure(t *testing.T) {
	games := newFakeGames(
		scheduled(1, "bos", "ghost", noon.Add(-time.Hour)),
		scheduled(2, "bos", "mtl", noon.Add(-time.Hour)),
		scheduled(3, "mtl", "bos", noon.Add(-time.Hour)),
	)
	games.saveErr[3] = errors.New("disk full")
	rosters := fakeRosters{"bos": team("bos", 60), "mtl": team("mtl", 55)}

	core, logs := observer.New(zapcore.InfoLevel)
	cfg := simCfg(3, 2)
	sched := league.NewScheduler(cfg, games, rosters, newRunner(t, cfg), zap.New(core),
		league.WithClock(func() time.Time { return noon }))

	n, err := sched.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, games.saved, int64(2))
	assert.Equal(t, 1, logs.FilterMessage("skipping game").Len())
	assert.Equal(t, 1, logs.FilterMessage("saving result").Len())
	assert.Equal(t, 1, logs.FilterMessage("game final").Len())

	assert.Equal(t, 1, games.claimOf(1).attempts)
	assert.Contains(t, games.claimOf(1).reason, "ghost")
	assert.Equal(t, "disk full", games.claimOf(3).reason)
	assert.False(t, games.claimOf(3).failed, "retried until attempts are exhausted")
}

func TestScheduler_FailingGameDoesNotStarveLaterGames(t *testing.T) {
	games := newFakeGames(
		scheduled(1, "bos", "ghost", noon.Add(-2*time.Hour)),
		scheduled(2, "bos", "mtl", noon.Add(-time.Hour)),
	)
	rosters := fakeRosters{"bos": team("bos", 60), "mtl": team("mtl", 55)}
	cfg := simCfg(3, 1)
	cfg.BatchSize = 1
	now := noon
	sched := league.NewScheduler(cfg, games, rosters, newRunner(t, cfg), zaptest.NewLogger(t),
		league.WithClock(func() time.Time { return now }))

	n, err := sched.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = sched.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n, "the failing game is leased, so the next one is claimed")
	assert.Contains(t, games.saved, int64(2))
}

func TestScheduler_GameFailsAfterMaxAttempts(t *testing.T) {
	games := newFakeGames(scheduled(1, "bos", "ghost", noon.Add(-time.Hour)))
	rosters := fakeRosters{"bos": team("bos", 60)}
	cfg := simCfg(3, 1)
	cfg.MaxAttempts = 2
	now := noon
	sched := league.NewScheduler(cfg, games, rosters, newRunner(t, cfg), zaptest.NewLogger(t),
		league.WithClock(func() time.Time { return now }))

	for i := 0; i < 5; i++ {
		_, err := sched.RunOnce(context.Background())
		require.NoError(t, err)
		now = now.Add(time.Hour)
	}
	c := games.claimOf(1)
	assert.Equal(t, 2, c.attempts)
	assert.True(t, c.failed)
}

func TestScheduler_RunOnce_ClaimError(t *testing.T) {
	games := newFakeGames()
	games.claimErr = errors.New("connection refused")
	cfg := simCfg(3, 1)
	sched := league.NewScheduler(cfg, games, fakeRosters{}, newRunner(t, cfg), zaptest.NewLogger(t))

	_, err := sched.RunOnce(context.Background())
	assert.ErrorIs(t, err, games.claimErr)
}

func TestScheduler_StartStop(t *testing.T) {
	games := newFakeGames(scheduled(1, "bos", "mtl", noon.Add(-time.Hour)))
	rosters := fakeRosters{"bos": team("bos", 60), "mtl": team("mtl", 55)}
	cfg := simCfg(3, 1)
	cfg.PollInterval = 10 * time.Millisecond

	var mu sync.Mutex
	var readiness []bool
	sched := league.NewScheduler(cfg, games, rosters, newRunner(t, cfg), zaptest.NewLogger(t),
		league.WithClock(func() time.Time { return noon }),
		league.WithReadiness(func(ready bool) {
			mu.Lock()
			defer mu.Unlock()
			readiness = append(readiness, ready)
		}))

	done := make(chan error, 1)
	go func() { done <- sched.Start() }()

	require.Eventually(t, func() bool { return games.savedCount() == 1 }, 2*time.Second, 5*time.Millisecond)
	sched.Stop()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []bool{true, false}, readiness)
}

func TestScheduler_StopBeforeStart(t *testing.T) {
	cfg := simCfg(3, 1)
	sched := league.NewScheduler(cfg, newFakeGames(), fakeRosters{}, newRunner(t, cfg), zaptest.NewLogger(t))
	sched.Stop()
	assert.NoError(t, sched.Start())
}
