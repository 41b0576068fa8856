package models

import "time"

// EventReport is the closing artifact for an event. An event cannot move
// from completed to closed until one exists.
type EventReport struct {
	ID            int       `json:"id" db:"id"`
	EventID       int       `json:"event_id" db:"event_id"`
	Summary       string    `json:"summary" db:"summary"`
	AttachmentKey *string   `json:"-" db:"attachment_key"`
	AttachmentURL *string   `json:"attachment_url,omitempty" db:"-"`
	CreatedBy     int       `json:"created_by" db:"created_by"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
