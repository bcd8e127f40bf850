package roster_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/hockeysim/internal/game/roster"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

const harborYAML = `
id: harbor
name: "Harbor Hawks"
coach:
  name: "Mae Kowalski"
  offense_specialty: 80
  defense_specialty: 70
  line_management: 60
  motivation: 90
strategy:
  offensive_style: 60
  defensive_pressure: 40
  forecheck_intensity: 50
  pp_style: overload
  pk_style: box
  line_matching: true
  pull_goalie_threshold: 90
players:
  - id: h1
    first_name: Ada
    last_name: Strand
    position: C
    ratings:
      shooting: 82
      puckControl: 75
      overallRating: 78
  - id: h2
    first_name: Bo
    last_name: Lind
    position: Goalie
    ratings:
      overallRating: 85
  - first_name: Cy
    last_name: Marsh
    position: d
`

func TestParseTeam_ParsesYAML(t *testing.T) {
	team, err := roster.ParseTeam([]byte(harborYAML))
	require.NoError(t, err)

	assert.Equal(t, "harbor", team.ID)
	assert.Equal(t, "Harbor Hawks", team.Name)
	require.Len(t, team.Players, 3)
	assert.Equal(t, roster.Center, team.Players[0].Position)
	assert.Equal(t, roster.Goalie, team.Players[1].Position)
	assert.Equal(t, roster.Defense, team.Players[2].Position)
	assert.Equal(t, "harbor-3", team.Players[2].ID, "missing player id derives from team id and index")
	assert.Equal(t, "harbor", team.Players[0].TeamID)
	assert.Equal(t, 82, team.Players[0].Ratings[roster.Shooting])

	require.NotNil(t, team.Coach)
	assert.Equal(t, 90, team.Coach.Motivation)
	require.NotNil(t, team.Strategy)
	assert.Equal(t, 60, team.Strategy.OffensiveStyle)
	assert.Equal(t, "overload", team.Strategy.PPStyle)
	assert.True(t, team.Strategy.LineMatching)
	assert.Equal(t, 90, team.Strategy.PullGoalieThreshold)
}

func TestParseTeam_RejectsUnknownPosition(t *testing.T) {
	_, err := roster.ParseTeam([]byte(`
name: Bad
players:
  - first_name: X
    position: Striker
`))
	assert.Error(t, err)
}

func TestParseTeam_RejectsUnknownAttribute(t *testing.T) {
	_, err := roster.ParseTeam([]byte(`
name: Bad
players:
  - first_name: X
    position: C
    ratings:
      speed: 90
`))
	assert.Error(t, err)
}

func TestParseTeam_RequiresName(t *testing.T) {
	_, err := roster.ParseTeam([]byte(`players: []`))
	assert.Error(t, err)
}

func TestParseTeam_DerivesIDFromName(t *testing.T) {
	team, err := roster.ParseTeam([]byte(`name: "North Bay Pike"`))
	require.NoError(t, err)
	assert.Equal(t, "north_bay_pike", team.ID)
	assert.Empty(t, team.Players)
	assert.Nil(t, team.Coach)
	assert.Nil(t, team.Strategy)
}

func TestParseTeam_RejectsDuplicatePlayerIDs(t *testing.T) {
	_, err := roster.ParseTeam([]byte(`
name: Wolves
players:
  - id: w1
    last_name: Ash
    position: C
  - id: w1
    last_name: Birch
    position: G
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unique_id")
}

func TestParseTeam_RejectsExplicitIDShadowingDerivedID(t *testing.T) {
	_, err := roster.ParseTeam([]byte(`
name: Wolves
players:
  - id: wolves-2
    last_name: Ash
    position: C
  - last_name: Birch
    position: G
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Players[1].ID")
}

func TestParseTeam_AllowsDerivedIDs(t *testing.T) {
	team, err := roster.ParseTeam([]byte(`
name: Wolves
players:
  - last_name: Ash
    position: C
  - last_name: Birch
    position: G
`))
	require.NoError(t, err)
	assert.Equal(t, "wolves-1", team.Players[0].ID)
	assert.Equal(t, "wolves-2", team.Players[1].ID)
}

func TestLoadTeams_ReadsDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a_harbor.yaml"), harborYAML)
	writeFile(t, filepath.Join(dir, "b_pike.yml"), `name: "Pike"`)
	writeFile(t, filepath.Join(dir, "notes.txt"), `ignored`)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))

	teams, err := roster.LoadTeams(dir)
	require.NoError(t, err)
	require.Len(t, teams, 2)
	assert.Equal(t, "Harbor Hawks", teams[0].Name)
	assert.Equal(t, "Pike", teams[1].Name)
}

func TestLoadTeams_MissingDir(t *testing.T) {
	_, err := roster.LoadTeams("/nonexistent/rosters")
	assert.Error(t, err)
}

func TestLoadTeamFile_ReportsPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.yaml")
	writeFile(t, path, "name: [")
	_, err := roster.LoadTeamFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}

func TestParsePosition(t *testing.T) {
	cases := map[string]roster.Position{
		"C": roster.Center, "lw": roster.LeftWing, "RightWing": roster.RightWing,
		" d ": roster.Defense, "goalie": roster.Goalie,
	}
	for in, want := range cases {
		got, ok := roster.ParsePosition(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := roster.ParsePosition("forward")
	assert.False(t, ok)
}

func TestRatingOf_DefaultsToFifty(t *testing.T) {
	p := &roster.Player{Ratings: map[roster.Attribute]int{roster.Shooting: 0}}
	assert.Equal(t, 0, roster.RatingOf(p, roster.Shooting), "explicit zero is not absent")
	assert.Equal(t, roster.DefaultRating, roster.RatingOf(p, roster.Poise))
	assert.Equal(t, roster.DefaultRating, roster.RatingOf(&roster.Player{}, roster.Poise))
	assert.Equal(t, 7, roster.RatingOr(nil, roster.Poise, 7))
}

// Property: RatingOf returns the stored value when present and 50 otherwise.
func TestRatingOf_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		attr := rapid.SampledFrom(roster.Attributes).Draw(rt, "attr")
		present := rapid.Bool().Draw(rt, "present")
		val := rapid.IntRange(0, 99).Draw(rt, "val")
		p := &roster.Player{Ratings: map[roster.Attribute]int{}}
		if present {
			p.Ratings[attr] = val
		}
		got := roster.RatingOf(p, attr)
		if present && got != val {
			rt.Fatalf("RatingOf = %d, want %d", got, val)
		}
		if !present && got != roster.DefaultRating {
			rt.Fatalf("RatingOf = %d, want default", got)
		}
	})
}

func TestTeam_SkatersAndGoalies(t *testing.T) {
	team := &roster.Team{Players: []*roster.Player{
		{ID: "1", Position: roster.Goalie},
		{ID: "2", Position: roster.Center},
		{ID: "3", Position: roster.Defense},
		{ID: "4", Position: roster.Goalie},
	}}
	skaters := team.Skaters()
	require.Len(t, skaters, 2)
	assert.Equal(t, "2", skaters[0].ID)
	assert.Equal(t, "3", skaters[1].ID)
	goalies := team.Goalies()
	require.Len(t, goalies, 2)
	assert.Equal(t, "1", goalies[0].ID)
}

func TestPlayer_FullName(t *testing.T) {
	assert.Equal(t, "Ada Strand", (&roster.Player{FirstName: "Ada", LastName: "Strand"}).FullName())
	assert.Equal(t, "Strand", (&roster.Player{LastName: "Strand"}).FullName())
	assert.Equal(t, "Ada", (&roster.Player{FirstName: "Ada"}).FullName())
}
