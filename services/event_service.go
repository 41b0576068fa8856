package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/clubarena/clubarena/models"
	"github.com/clubarena/clubarena/repositories"
	"github.com/clubarena/clubarena/storage"
)

type SaveReportInput struct {
	Summary string
	// Optional attachment uploaded to object storage before the report row
	// is written.
	Attachment            io.Reader
	AttachmentName        string
	AttachmentContentType string
}

// EventService owns event lifecycle advancement and the closing report.
type EventService interface {
	GetEvent(ctx context.Context, eventID int) (*models.Event, error)
	// AdvanceStatus moves the event exactly one step forward to target,
	// enforcing the transition guards. The underlying write is optimistic:
	// a concurrent advance surfaces as ErrStatusConflict.
	AdvanceStatus(ctx context.Context, eventID int, target models.EventStatus, actorID int) (*models.Event, error)
	SaveReport(ctx context.Context, eventID int, input SaveReportInput, actorID int) (*models.EventReport, error)
}

type eventService struct {
	eventRepo  repositories.EventRepository
	reportRepo repositories.ReportRepository
	userRepo   repositories.UserRepository
	uploader   storage.FileUploader
	logger     *slog.Logger
}

func NewEventService(
	eventRepo repositories.EventRepository,
	reportRepo repositories.ReportRepository,
	userRepo repositories.UserRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) EventService {
	return &eventService{
		eventRepo:  eventRepo,
		reportRepo: reportRepo,
		userRepo:   userRepo,
		uploader:   uploader,
		logger:     logger,
	}
}

func (s *eventService) GetEvent(ctx context.Context, eventID int) (*models.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return event, nil
}

func (s *eventService) AdvanceStatus(ctx context.Context, eventID int, target models.EventStatus, actorID int) (*models.Event, error) {
	if !IsValidEventStatus(target) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, target)
	}

	event, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if _, err := authorizeEventAdmin(ctx, s.userRepo, event, actorID); err != nil {
		return nil, err
	}

	expected, ok := NextEventStatus(event.Status)
	if !ok {
		return nil, fmt.Errorf("%w: event is already %s", ErrInvalidStatusTransition, event.Status)
	}
	if target != expected {
		return nil, fmt.Errorf("%w: cannot move from %s to %s, next status is %s",
			ErrInvalidStatusTransition, event.Status, target, expected)
	}

	if err := s.checkTransitionGuard(ctx, event, target); err != nil {
		return nil, err
	}

	if err := s.eventRepo.UpdateStatus(ctx, eventID, event.Status, target); err != nil {
		if errors.Is(err, repositories.ErrEventStatusConflict) {
			return nil, ErrStatusConflict
		}
		return nil, err
	}

	s.logger.Info("event status advanced",
		slog.Int("event_id", eventID),
		slog.String("from", string(event.Status)),
		slog.String("to", string(target)),
		slog.Int("actor_id", actorID),
	)

	event.Status = target
	return event, nil
}

func (s *eventService) checkTransitionGuard(ctx context.Context, event *models.Event, target models.EventStatus) error {
	switch target {
	case models.EventStatusActive:
		count, err := s.eventRepo.CountTeams(ctx, event.ID)
		if err != nil {
			return fmt.Errorf("failed to count registered teams for event %d: %w", event.ID, err)
		}
		min := event.MinTeamsOrDefault()
		if count < min {
			return fmt.Errorf("%w: need at least %d registered teams, have %d", ErrStatusGuardNotMet, min, count)
		}
	case models.EventStatusClosed:
		exists, err := s.reportRepo.ExistsByEvent(ctx, event.ID)
		if err != nil {
			return fmt.Errorf("failed to look up report for event %d: %w", event.ID, err)
		}
		if !exists {
			return fmt.Errorf("%w", ErrReportRequired)
		}
	}
	return nil
}

func (s *eventService) SaveReport(ctx context.Context, eventID int, input SaveReportInput, actorID int) (*models.EventReport, error) {
	event, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	actor, err := authorizeEventAdmin(ctx, s.userRepo, event, actorID)
	if err != nil {
		return nil, err
	}
	if input.Summary == "" {
		return nil, ErrReportSummaryRequired
	}
	if !StatusAtLeast(event.Status, models.EventStatusCompleted) {
		return nil, ErrReportNotAllowedYet
	}

	report := &models.EventReport{
		EventID:   eventID,
		Summary:   input.Summary,
		CreatedBy: actor.ID,
	}

	if input.Attachment != nil {
		key := fmt.Sprintf("reports/%d/%d_%s", eventID, time.Now().Unix(), input.AttachmentName)
		result, err := s.uploader.Upload(ctx, key, input.AttachmentContentType, input.Attachment)
		if err != nil {
			return nil, fmt.Errorf("failed to upload report attachment: %w", err)
		}
		report.AttachmentKey = &result.Key
		report.AttachmentURL = &result.Location
	}

	if err := s.reportRepo.Create(ctx, report); err != nil {
		if errors.Is(err, repositories.ErrReportAlreadyExists) {
			return nil, ErrReportAlreadyExists
		}
		if errors.Is(err, repositories.ErrReportEventInvalid) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	if report.AttachmentKey != nil && report.AttachmentURL == nil {
		url := s.uploader.GetPublicURL(*report.AttachmentKey)
		report.AttachmentURL = &url
	}
	return report, nil
}
