package models

import "time"

// CalendarEventSource distinguishes club-created social entries from
// fixtures announced by the platform.
type CalendarEventSource string

const (
	CalendarSourceClub    CalendarEventSource = "CLUB"
	CalendarSourceFixture CalendarEventSource = "FIXTURE"
)

type FixtureType string

const (
	FixtureCompetitive FixtureType = "COMPETITIVE"
	FixtureFriendly    FixtureType = "FRIENDLY"
	FixtureSocial      FixtureType = "SOCIAL"
)

type CalendarEntry struct {
	ID          int                 `json:"id" db:"id"`
	ClubID      int                 `json:"club_id" db:"club_id"`
	Title       string              `json:"title" db:"title"`
	StartDate   time.Time           `json:"start_date" db:"start_date"`
	EventSource CalendarEventSource `json:"event_source" db:"event_source"`
	FixtureType *FixtureType        `json:"fixture_type,omitempty" db:"fixture_type"`
	// ConflictWarning is a non-blocking annotation set when a competitive
	// fixture already occupies the same date for the club.
	ConflictWarning *string   `json:"conflict_warning,omitempty" db:"conflict_warning"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// IsCompetitiveFixture reports whether the entry is a competitive fixture,
// the only kind that triggers conflict warnings on other entries.
func (c *CalendarEntry) IsCompetitiveFixture() bool {
	return c.EventSource == CalendarSourceFixture &&
		c.FixtureType != nil && *c.FixtureType == FixtureCompetitive
}
