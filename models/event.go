package models

import "time"

// EventStatus represents the administrative lifecycle of an event,
// corresponding to the event_status ENUM in the database.
// Transitions move forward one step at a time; see services.NextEventStatus.
type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusUpcoming  EventStatus = "upcoming"
	EventStatusActive    EventStatus = "active"
	EventStatusCompleted EventStatus = "completed"
	EventStatusClosed    EventStatus = "closed"
)

// BracketType enumerates supported bracket formats. Only single elimination
// is implemented; the other values exist so stored events created by older
// imports keep deserializing.
type BracketType string

const (
	BracketSingleElimination BracketType = "SINGLE_ELIMINATION"
	BracketDoubleElimination BracketType = "DOUBLE_ELIMINATION"
	BracketRoundRobin        BracketType = "ROUND_ROBIN"
)

// DefaultMinTeams applies when an event has no configured minimum.
const DefaultMinTeams = 2

type Event struct {
	ID          int          `json:"id" db:"id"`
	ClubID      int          `json:"club_id" db:"club_id"`
	Name        string       `json:"name" db:"name"`
	Description *string      `json:"description,omitempty" db:"description"`
	StartDate   time.Time    `json:"start_date" db:"start_date"`
	EndDate     time.Time    `json:"end_date" db:"end_date"`
	Status      EventStatus  `json:"status" db:"status"`
	MinTeams    int          `json:"min_teams" db:"min_teams"`
	BracketType *BracketType `json:"bracket_type,omitempty" db:"bracket_type"`
	// BracketData is an opaque serialized snapshot of the generated slot tree,
	// kept alongside the normalized match rows for fast redisplay.
	BracketData *string   `json:"bracket_data,omitempty" db:"bracket_data"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`

	Teams   []Team  `json:"teams,omitempty" db:"-"`
	Matches []Match `json:"matches,omitempty" db:"-"`
}

// MinTeamsOrDefault returns the configured minimum team count, falling back
// to DefaultMinTeams when unset.
func (e *Event) MinTeamsOrDefault() int {
	if e.MinTeams > 0 {
		return e.MinTeams
	}
	return DefaultMinTeams
}
