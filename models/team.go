package models

import "time"

// Team is an entrant registered for an event. Division optionally partitions
// a multi-division event into independent brackets.
type Team struct {
	ID        int       `json:"id" db:"id"`
	EventID   int       `json:"event_id" db:"event_id"`
	ClubID    *int      `json:"club_id,omitempty" db:"club_id"`
	Name      string    `json:"name" db:"name"`
	Division  *string   `json:"division,omitempty" db:"division"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
