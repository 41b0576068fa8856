package services

import "errors"

// Shared sentinel errors, mapped to HTTP statuses in the handlers package.
var (
	// Not found
	ErrEventNotFound = errors.New("event not found")
	ErrMatchNotFound = errors.New("match not found")
	ErrUserNotFound  = errors.New("user not found")

	// Validation and business rules
	ErrNotEnoughTeams           = errors.New("not enough eligible teams to generate a bracket")
	ErrBracketTypeUnsupported   = errors.New("unsupported bracket type")
	ErrEventNotActive           = errors.New("bracket operations require an active event")
	ErrEventClosed              = errors.New("event is closed")
	ErrInvalidStatus            = errors.New("invalid event status provided")
	ErrInvalidStatusTransition  = errors.New("invalid event status transition")
	ErrStatusGuardNotMet        = errors.New("status transition guard not met")
	ErrReportRequired           = errors.New("complete results and save an event report before closing")
	ErrReportNotAllowedYet      = errors.New("an event report can only be saved once the event is completed")
	ErrReportSummaryRequired    = errors.New("report summary is required")
	ErrMatchMissingOpponent     = errors.New("match has no opponents assigned yet")
	ErrMatchAlreadyCompleted    = errors.New("match result has already been recorded")
	ErrMatchDrawNotAllowed      = errors.New("a knockout match cannot end in a draw")
	ErrScoreInvalid             = errors.New("scores must be non-negative integers")
	ErrCalendarTitleRequired    = errors.New("calendar entry title is required")
	ErrCalendarSourceInvalid    = errors.New("invalid calendar event source")
	ErrFixtureTypeRequired      = errors.New("fixture entries require a fixture type")

	// Conflicts
	ErrStatusConflict      = errors.New("event status changed concurrently, retry the request")
	ErrReportAlreadyExists = errors.New("a report already exists for this event")

	// Authentication and authorization
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrForbiddenOperation = errors.New("operation not allowed for the current user")

	// Persistence
	// ErrBracketLinkIncomplete marks the recoverable state where match rows
	// committed but forward links did not; regeneration repairs it.
	ErrBracketLinkIncomplete = errors.New("bracket created but linking incomplete, regenerate to repair")
)
