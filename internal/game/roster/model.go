// Package roster defines the players, coaches, strategies, and teams fed into
// the game simulator.
package roster

// Position is a player's on-ice role.
type Position string

const (
	Center    Position = "Center"
	LeftWing  Position = "LeftWing"
	RightWing Position = "RightWing"
	Defense   Position = "Defense"
	Goalie    Position = "Goalie"
)

// Positions lists every position in a stable order.
var Positions = []Position{Center, LeftWing, RightWing, Defense, Goalie}

// IsSkater reports whether the position is anything other than Goalie.
func (p Position) IsSkater() bool { return p != Goalie }

// Attribute names one integer rating in [0, 99].
type Attribute string

const (
	Shooting         Attribute = "shooting"
	Passing          Attribute = "passing"
	DefenseRating    Attribute = "defense"
	PuckControl      Attribute = "puckControl"
	Checking         Attribute = "checking"
	Movement         Attribute = "movement"
	Vision           Attribute = "vision"
	Poise            Attribute = "poise"
	Aggressiveness   Attribute = "aggressiveness"
	Discipline       Attribute = "discipline"
	Fighting         Attribute = "fighting"
	Flexibility      Attribute = "flexibility"
	InjuryResistance Attribute = "injuryResistance"
	Fatigue          Attribute = "fatigue"
	ReboundControl   Attribute = "reboundControl"
	OverallRating    Attribute = "overallRating"
)

// Attributes lists every rating attribute.
var Attributes = []Attribute{
	Shooting, Passing, DefenseRating, PuckControl, Checking, Movement, Vision, Poise,
	Aggressiveness, Discipline, Fighting, Flexibility, InjuryResistance, Fatigue,
	ReboundControl, OverallRating,
}

// Player is read-only input to a simulation.
// A rating absent from Ratings is treated as DefaultRating.
type Player struct {
	ID        string
	FirstName string
	LastName  string
	Position  Position
	TeamID    string
	Ratings   map[Attribute]int
}

// FullName returns "First Last", or whichever half is present.
func (p *Player) FullName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	default:
		return p.FirstName + " " + p.LastName
	}
}

// Coach modulates team strength. All specialties are in [0, 99].
type Coach struct {
	ID                   string
	Name                 string
	OffenseSpecialty     int
	DefenseSpecialty     int
	PowerplaySpecialty   int
	PenaltyKillSpecialty int
	LineManagement       int
	Motivation           int
}

// TeamStrategy is a team's tactical profile.
//
// PPStyle, PKStyle and LineMatching are carried for callers but do not feed
// the simulation. PullGoalieThreshold (seconds remaining) has no behavior
// until a game-clock model exists.
type TeamStrategy struct {
	OffensiveStyle      int
	DefensivePressure   int
	ForecheckIntensity  int
	PPStyle             string
	PKStyle             string
	LineMatching        bool
	PullGoalieThreshold int
}

// Team is one side of a simulated game.
type Team struct {
	ID       string
	Name     string
	Players  []*Player
	Coach    *Coach
	Strategy *TeamStrategy
}

// Skaters returns every non-goalie in roster order.
//
// Postcondition: No returned player has Position == Goalie.
func (t *Team) Skaters() []*Player {
	out := make([]*Player, 0, len(t.Players))
	for _, p := range t.Players {
		if p.Position.IsSkater() {
			out = append(out, p)
		}
	}
	return out
}

// Goalies returns every goalie in roster order.
func (t *Team) Goalies() []*Player {
	var out []*Player
	for _, p := range t.Players {
		if p.Position == Goalie {
			out = append(out, p)
		}
	}
	return out
}
