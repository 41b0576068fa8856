package models

import "time"

type MatchStatus string

const (
	MatchStatusScheduled  MatchStatus = "SCHEDULED"
	MatchStatusInProgress MatchStatus = "IN_PROGRESS"
	MatchStatusCompleted  MatchStatus = "COMPLETED"
)

// Match is a persisted bracket node. Round is stored as a display label
// ("Round 1", "Semifinal", "Final"); BracketPosition orders matches within
// a round. NextMatchID links to the match the winner advances into and is
// nil for the final.
type Match struct {
	ID              int         `json:"id" db:"id"`
	EventID         int         `json:"event_id" db:"event_id"`
	Division        *string     `json:"division,omitempty" db:"division"`
	Round           string      `json:"round" db:"round"`
	BracketPosition int         `json:"bracket_position" db:"bracket_position"`
	HomeTeamID      *int        `json:"home_team_id,omitempty" db:"home_team_id"`
	AwayTeamID      *int        `json:"away_team_id,omitempty" db:"away_team_id"`
	NextMatchID     *int        `json:"next_match_id,omitempty" db:"next_match_id"`
	Status          MatchStatus `json:"status" db:"status"`
	HomeScore       *int        `json:"home_score,omitempty" db:"home_score"`
	AwayScore       *int        `json:"away_score,omitempty" db:"away_score"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
}

// IsBye reports whether the match has exactly one side populated, meaning
// its occupant advances without playing.
func (m *Match) IsBye() bool {
	return (m.HomeTeamID == nil) != (m.AwayTeamID == nil)
}
