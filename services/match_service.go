package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/clubarena/clubarena/brackets"
	"github.com/clubarena/clubarena/models"
	"github.com/clubarena/clubarena/repositories"
)

type SubmitResultInput struct {
	HomeScore int `json:"home_score"`
	AwayScore int `json:"away_score"`
}

// MatchService records results and advances winners through the bracket.
type MatchService interface {
	ListByEvent(ctx context.Context, eventID int) ([]*models.Match, error)
	// SubmitResult completes the match and writes the winner into the free
	// slot of the next match, home side first. A match with a single entrant
	// (bye) is completed as a walkover without scores being meaningful.
	SubmitResult(ctx context.Context, matchID int, input SubmitResultInput, actorID int) (*models.Match, error)
}

type matchService struct {
	matchRepo repositories.MatchRepository
	eventRepo repositories.EventRepository
	userRepo  repositories.UserRepository
	hub       *brackets.Hub
	logger    *slog.Logger
}

func NewMatchService(
	matchRepo repositories.MatchRepository,
	eventRepo repositories.EventRepository,
	userRepo repositories.UserRepository,
	hub *brackets.Hub,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		matchRepo: matchRepo,
		eventRepo: eventRepo,
		userRepo:  userRepo,
		hub:       hub,
		logger:    logger,
	}
}

func (s *matchService) ListByEvent(ctx context.Context, eventID int) ([]*models.Match, error) {
	matches, err := s.matchRepo.ListByEvent(ctx, eventID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for event %d: %w", eventID, err)
	}
	return matches, nil
}

func (s *matchService) SubmitResult(ctx context.Context, matchID int, input SubmitResultInput, actorID int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}

	event, err := s.eventRepo.GetByID(ctx, match.EventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	if _, err := authorizeEventAdmin(ctx, s.userRepo, event, actorID); err != nil {
		return nil, err
	}
	if match.Status == models.MatchStatusCompleted {
		return nil, ErrMatchAlreadyCompleted
	}
	if match.HomeTeamID == nil && match.AwayTeamID == nil {
		return nil, ErrMatchMissingOpponent
	}

	var winnerID int
	switch {
	case match.IsBye():
		// Walkover: the sole occupant advances, scores are not recorded.
		if match.HomeTeamID != nil {
			winnerID = *match.HomeTeamID
		} else {
			winnerID = *match.AwayTeamID
		}
		if err := s.matchRepo.UpdateResult(ctx, matchID, nil, nil, models.MatchStatusCompleted); err != nil {
			return nil, err
		}
	default:
		if input.HomeScore < 0 || input.AwayScore < 0 {
			return nil, ErrScoreInvalid
		}
		if input.HomeScore == input.AwayScore {
			return nil, ErrMatchDrawNotAllowed
		}
		if input.HomeScore > input.AwayScore {
			winnerID = *match.HomeTeamID
		} else {
			winnerID = *match.AwayTeamID
		}
		home, away := input.HomeScore, input.AwayScore
		if err := s.matchRepo.UpdateResult(ctx, matchID, &home, &away, models.MatchStatusCompleted); err != nil {
			return nil, err
		}
		match.HomeScore = &home
		match.AwayScore = &away
	}
	match.Status = models.MatchStatusCompleted

	if match.NextMatchID != nil {
		if err := s.advanceWinner(ctx, *match.NextMatchID, winnerID); err != nil {
			return nil, err
		}
	}

	s.logger.Info("match result recorded",
		slog.Int("match_id", matchID),
		slog.Int("event_id", match.EventID),
		slog.Int("winner_team_id", winnerID),
	)
	if s.hub != nil {
		roomID := fmt.Sprintf("event_%d", match.EventID)
		s.hub.BroadcastToRoom(roomID, brackets.WebSocketMessage{
			Type:    brackets.MessageMatchUpdated,
			Payload: match,
			RoomID:  roomID,
		})
	}
	return match, nil
}

// advanceWinner writes the winner into the first unoccupied side of the next
// match, home before away.
func (s *matchService) advanceWinner(ctx context.Context, nextMatchID, winnerID int) error {
	next, err := s.matchRepo.GetByID(ctx, nextMatchID)
	if err != nil {
		return fmt.Errorf("failed to load next match %d: %w", nextMatchID, err)
	}
	switch {
	case next.HomeTeamID == nil:
		next.HomeTeamID = &winnerID
	case next.AwayTeamID == nil:
		next.AwayTeamID = &winnerID
	default:
		return fmt.Errorf("next match %d already has both slots filled", nextMatchID)
	}
	if err := s.matchRepo.UpdateSlotTeams(ctx, nextMatchID, next.HomeTeamID, next.AwayTeamID); err != nil {
		return fmt.Errorf("failed to advance winner into match %d: %w", nextMatchID, err)
	}
	return nil
}
