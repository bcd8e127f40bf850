package sim

// Side identifies which team an outcome belongs to.
type Side string

const (
	SideNone Side = "none"
	SideHome Side = "home"
	SideAway Side = "away"
)

// EventType classifies a play-by-play entry.
type EventType string

const (
	EventPeriodStart   EventType = "period_start"
	EventPeriodEnd     EventType = "period_end"
	EventGoal          EventType = "goal"
	EventPenalty       EventType = "penalty"
	EventHit           EventType = "hit"
	EventShootoutStart EventType = "shootout_start"
	EventShootoutGoal  EventType = "shootout_goal"
)

// Event is one play-by-play entry. Description is display text only; every
// decision-relevant fact is carried in the structured fields.
type Event struct {
	Time        string    `json:"time"`
	Period      int       `json:"period"`
	Type        EventType `json:"event_type"`
	Description string    `json:"description"`
	PlayerID    string    `json:"player_id,omitempty"`
	TeamID      string    `json:"team_id,omitempty"`
	AssistIDs   []string  `json:"assist_ids,omitempty"`
}

// PeriodResult summarizes one regulation period.
type PeriodResult struct {
	Period    int `json:"period"`
	HomeGoals int `json:"home_goals"`
	AwayGoals int `json:"away_goals"`
	HomeShots int `json:"home_shots"`
	AwayShots int `json:"away_shots"`
}

// Star is one of the top-3 players of the game.
type Star struct {
	PlayerID string  `json:"player_id"`
	Name     string  `json:"name"`
	TeamID   string  `json:"team_id"`
	Points   float64 `json:"points"`
	Reason   string  `json:"reason"`
}

// GameResult is the complete, immutable outcome of one simulation.
//
// Invariant: len(Periods) == 3.
// Invariant: at most one of OvertimeWinner and ShootoutWinner is not SideNone,
// and only when regulation ended tied.
type GameResult struct {
	HomeTeamID       string         `json:"home_team_id"`
	AwayTeamID       string         `json:"away_team_id"`
	HomeScore        int            `json:"home_score"`
	AwayScore        int            `json:"away_score"`
	HomeShots        int            `json:"home_shots"`
	AwayShots        int            `json:"away_shots"`
	Periods          []PeriodResult `json:"periods"`
	OvertimeWinner   Side           `json:"overtime_winner"`
	ShootoutWinner   Side           `json:"shootout_winner"`
	PlayByPlay       []Event        `json:"play_by_play"`
	HomeTeamStrength float64        `json:"home_team_strength"`
	AwayTeamStrength float64        `json:"away_team_strength"`
	Stars            []Star         `json:"stars"`
	PlayerStats      []StatLine     `json:"player_stats"`
}

// Winner returns the side with the higher final score, or SideNone on a tie.
// A completed simulation never ties.
func (r GameResult) Winner() Side {
	switch {
	case r.HomeScore > r.AwayScore:
		return SideHome
	case r.AwayScore > r.HomeScore:
		return SideAway
	default:
		return SideNone
	}
}

// RegulationGoals sums goals over the regulation periods only.
func (r GameResult) RegulationGoals() (home, away int) {
	for _, p := range r.Periods {
		home += p.HomeGoals
		away += p.AwayGoals
	}
	return home, away
}
