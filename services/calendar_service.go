package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/clubarena/clubarena/models"
	"github.com/clubarena/clubarena/repositories"
)

// Notifier delivers operational notices to platform admins. The SMTP
// implementation lives in notifier.go; tests substitute a recorder.
type Notifier interface {
	NotifyAdmins(ctx context.Context, subject, body string) error
}

type CreateCalendarEntryInput struct {
	ClubID      int                        `json:"club_id"`
	Title       string                     `json:"title"`
	StartDate   time.Time                  `json:"start_date"`
	EventSource models.CalendarEventSource `json:"event_source"`
	FixtureType *models.FixtureType        `json:"fixture_type"`
}

// CalendarService creates calendar entries and runs fixture-conflict
// detection over them.
type CalendarService interface {
	CreateEntry(ctx context.Context, input CreateCalendarEntryInput, actorID int) (*models.CalendarEntry, error)
	ListByClub(ctx context.Context, clubID int) ([]*models.CalendarEntry, error)
}

type calendarService struct {
	calendarRepo repositories.CalendarRepository
	userRepo     repositories.UserRepository
	notifier     Notifier
	logger       *slog.Logger
}

func NewCalendarService(calendarRepo repositories.CalendarRepository, userRepo repositories.UserRepository, notifier Notifier, logger *slog.Logger) CalendarService {
	return &calendarService{
		calendarRepo: calendarRepo,
		userRepo:     userRepo,
		notifier:     notifier,
		logger:       logger,
	}
}

func (s *calendarService) CreateEntry(ctx context.Context, input CreateCalendarEntryInput, actorID int) (*models.CalendarEntry, error) {
	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrForbiddenOperation
		}
		return nil, fmt.Errorf("failed to load acting user %d: %w", actorID, err)
	}
	if !actor.CanManageClub(input.ClubID) {
		return nil, ErrForbiddenOperation
	}

	if input.Title == "" {
		return nil, ErrCalendarTitleRequired
	}
	switch input.EventSource {
	case models.CalendarSourceClub, models.CalendarSourceFixture:
	default:
		return nil, fmt.Errorf("%w: %q", ErrCalendarSourceInvalid, input.EventSource)
	}
	if input.EventSource == models.CalendarSourceFixture && input.FixtureType == nil {
		return nil, ErrFixtureTypeRequired
	}

	entry := &models.CalendarEntry{
		ClubID:      input.ClubID,
		Title:       input.Title,
		StartDate:   input.StartDate,
		EventSource: input.EventSource,
		FixtureType: input.FixtureType,
	}

	// Conflict detection runs in both directions: a social entry colliding
	// with a competitive fixture gets the warning, and so does a second
	// competitive fixture announced for the same club and date.
	conflict, err := s.calendarRepo.FindCompetitiveFixture(ctx, input.ClubID, input.StartDate, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check for fixture conflicts: %w", err)
	}
	if conflict != nil {
		warning := fmt.Sprintf("A competitive fixture %q is already scheduled for this club on %s.",
			conflict.Title, input.StartDate.Format("2006-01-02"))
		entry.ConflictWarning = &warning
	}

	if err := s.calendarRepo.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to create calendar entry: %w", err)
	}

	if conflict != nil {
		s.logger.Warn("calendar entry conflicts with competitive fixture",
			slog.Int("club_id", input.ClubID),
			slog.Int("entry_id", entry.ID),
			slog.Int("fixture_id", conflict.ID),
			slog.Int("actor_id", actorID),
		)
		subject := fmt.Sprintf("Fixture conflict for club %d on %s", input.ClubID, input.StartDate.Format("2006-01-02"))
		body := fmt.Sprintf("New calendar entry %q (id %d) collides with competitive fixture %q (id %d).",
			entry.Title, entry.ID, conflict.Title, conflict.ID)
		// Notification failure must not fail entry creation.
		if err := s.notifier.NotifyAdmins(ctx, subject, body); err != nil {
			s.logger.Error("failed to notify admins about fixture conflict",
				slog.Int("entry_id", entry.ID),
				slog.Any("error", err),
			)
		}
	}

	return entry, nil
}

func (s *calendarService) ListByClub(ctx context.Context, clubID int) ([]*models.CalendarEntry, error) {
	entries, err := s.calendarRepo.ListByClub(ctx, clubID)
	if err != nil {
		return nil, fmt.Errorf("failed to list calendar entries for club %d: %w", clubID, err)
	}
	return entries, nil
}
