package roster

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// PlayerFile is the YAML shape of one player entry.
type PlayerFile struct {
	ID        string            `yaml:"id"`
	FirstName string            `yaml:"first_name" validate:"required_without=LastName"`
	LastName  string            `yaml:"last_name"`
	Position  string            `yaml:"position" validate:"required,position"`
	Ratings   map[Attribute]int `yaml:"ratings" validate:"dive,keys,attribute,endkeys"`
}

// CoachFile is the YAML shape of a coach.
type CoachFile struct {
	ID                   string `yaml:"id"`
	Name                 string `yaml:"name"`
	OffenseSpecialty     int    `yaml:"offense_specialty"`
	DefenseSpecialty     int    `yaml:"defense_specialty"`
	PowerplaySpecialty   int    `yaml:"powerplay_specialty"`
	PenaltyKillSpecialty int    `yaml:"penalty_kill_specialty"`
	LineManagement       int    `yaml:"line_management"`
	Motivation           int    `yaml:"motivation"`
}

// StrategyFile is the YAML shape of a team strategy.
type StrategyFile struct {
	OffensiveStyle      int    `yaml:"offensive_style"`
	DefensivePressure   int    `yaml:"defensive_pressure"`
	ForecheckIntensity  int    `yaml:"forecheck_intensity"`
	PPStyle             string `yaml:"pp_style"`
	PKStyle             string `yaml:"pk_style"`
	LineMatching        bool   `yaml:"line_matching"`
	PullGoalieThreshold int    `yaml:"pull_goalie_threshold"`
}

// TeamFile is the YAML shape of a team roster file.
//
// Precondition: Name must be non-empty after loading.
type TeamFile struct {
	ID       string        `yaml:"id"`
	Name     string        `yaml:"name" validate:"required"`
	Players  []PlayerFile  `yaml:"players" validate:"dive"`
	Coach    *CoachFile    `yaml:"coach"`
	Strategy *StrategyFile `yaml:"strategy"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("position", func(fl validator.FieldLevel) bool {
		_, ok := ParsePosition(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("attribute", func(fl validator.FieldLevel) bool {
		return IsAttribute(Attribute(fl.Field().String()))
	})
	v.RegisterStructValidation(uniquePlayerIDs, TeamFile{})
	return v
}

// uniquePlayerIDs reports every player whose resolved ID, explicit or
// derived from the team ID, repeats an earlier one.
func uniquePlayerIDs(sl validator.StructLevel) {
	f := sl.Current().Interface().(TeamFile)
	teamID := f.teamID()
	seen := make(map[string]bool, len(f.Players))
	for i, pf := range f.Players {
		id := pf.resolvedID(teamID, i)
		if seen[id] {
			sl.ReportError(pf.ID, fmt.Sprintf("Players[%d].ID", i), "ID", "unique_id", id)
			continue
		}
		seen[id] = true
	}
}

// ParsePosition accepts a full position name or its common abbreviation
// (C, LW, RW, D, G), case-insensitively.
func ParsePosition(s string) (Position, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "C", "CENTER", "CENTRE":
		return Center, true
	case "LW", "LEFTWING", "LEFT_WING", "LEFT WING":
		return LeftWing, true
	case "RW", "RIGHTWING", "RIGHT_WING", "RIGHT WING":
		return RightWing, true
	case "D", "DEFENSE", "DEFENCE":
		return Defense, true
	case "G", "GOALIE", "GOALTENDER":
		return Goalie, true
	}
	return "", false
}

// IsAttribute reports whether a names a known rating attribute.
func IsAttribute(a Attribute) bool {
	for _, known := range Attributes {
		if a == known {
			return true
		}
	}
	return false
}

// Validate checks the structural invariants of a roster file, including that
// no two players resolve to the same ID.
// Rating values are not range-checked; the simulator tolerates any int.
//
// Postcondition: Returns nil or an error describing every violation.
func (f *TeamFile) Validate() error {
	if err := validate.Struct(f); err != nil {
		return fmt.Errorf("invalid team %q: %w", f.Name, err)
	}
	return nil
}

// Team converts the file into a simulation Team. Players inherit the team ID.
//
// Precondition: f.Validate() returned nil.
func (f *TeamFile) Team() *Team {
	t := &Team{ID: f.teamID(), Name: f.Name}
	for i, pf := range f.Players {
		pos, _ := ParsePosition(pf.Position)
		id := pf.resolvedID(t.ID, i)
		ratings := make(map[Attribute]int, len(pf.Ratings))
		for k, v := range pf.Ratings {
			ratings[k] = v
		}
		t.Players = append(t.Players, &Player{
			ID:        id,
			FirstName: pf.FirstName,
			LastName:  pf.LastName,
			Position:  pos,
			TeamID:    t.ID,
			Ratings:   ratings,
		})
	}
	if c := f.Coach; c != nil {
		t.Coach = &Coach{
			ID:                   c.ID,
			Name:                 c.Name,
			OffenseSpecialty:     c.OffenseSpecialty,
			DefenseSpecialty:     c.DefenseSpecialty,
			PowerplaySpecialty:   c.PowerplaySpecialty,
			PenaltyKillSpecialty: c.PenaltyKillSpecialty,
			LineManagement:       c.LineManagement,
			Motivation:           c.Motivation,
		}
	}
	if s := f.Strategy; s != nil {
		t.Strategy = &TeamStrategy{
			OffensiveStyle:      s.OffensiveStyle,
			DefensivePressure:   s.DefensivePressure,
			ForecheckIntensity:  s.ForecheckIntensity,
			PPStyle:             s.PPStyle,
			PKStyle:             s.PKStyle,
			LineMatching:        s.LineMatching,
			PullGoalieThreshold: s.PullGoalieThreshold,
		}
	}
	return t
}

func (f TeamFile) teamID() string {
	if f.ID != "" {
		return f.ID
	}
	return slug(f.Name)
}

// resolvedID is the explicit ID, or teamID-N for the player at index i.
func (pf PlayerFile) resolvedID(teamID string, i int) string {
	if pf.ID != "" {
		return pf.ID
	}
	return fmt.Sprintf("%s-%d", teamID, i+1)
}

// ParseTeam decodes and validates a YAML roster document.
//
// Postcondition: Returns a non-nil Team or a non-nil error.
func ParseTeam(data []byte) (*Team, error) {
	var f TeamFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing team yaml: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f.Team(), nil
}

// LoadTeamFile reads and parses a single roster file.
func LoadTeamFile(path string) (*Team, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	t, err := ParseTeam(data)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return t, nil
}

// LoadTeams reads all .yaml/.yml files in dir, sorted by file name.
//
// Precondition: dir must be a readable directory path.
// Postcondition: Returns all parsed teams (may be empty slice) or a non-nil error.
func LoadTeams(dir string) ([]*Team, error) {
	files, err := yamlFiles(dir)
	if err != nil {
		return nil, err
	}
	teams := make([]*Team, 0, len(files))
	for _, path := range files {
		t, err := LoadTeamFile(path)
		if err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, nil
}

func yamlFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
			paths = append(paths, filepath.Join(dir, name))
		}
	}
	return paths, nil
}

func slug(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}
