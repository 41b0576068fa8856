package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/clubarena/clubarena/brackets"
	"github.com/clubarena/clubarena/models"
	"github.com/clubarena/clubarena/repositories"
	"golang.org/x/sync/errgroup"
)

// bracketOpTimeout bounds the whole delete/generate/persist/link sequence so
// a stalled store cannot leave the mutation lock held indefinitely.
const bracketOpTimeout = 30 * time.Second

type GenerateBracketInput struct {
	BracketType *models.BracketType `json:"bracket_type"`
	Division    *string             `json:"division"`
}

type GenerateBracketResult struct {
	MatchesCreated int `json:"matches_created"`
}

// BracketView is the read model for the bracket endpoint: the snapshot for
// fast redisplay plus the normalized rows and eligible teams.
type BracketView struct {
	BracketType *models.BracketType `json:"bracket_type,omitempty"`
	BracketData *string             `json:"bracket_data,omitempty"`
	Matches     []*models.Match     `json:"matches"`
	Teams       []*models.Team      `json:"teams"`
}

// BracketService is the single write path for match rows and event bracket
// metadata; nothing else may mutate them.
type BracketService interface {
	GetBracket(ctx context.Context, eventID int) (*BracketView, error)
	GenerateBracket(ctx context.Context, eventID int, input GenerateBracketInput, actorID int) (*GenerateBracketResult, error)
	DeleteBracket(ctx context.Context, eventID int, actorID int) error
}

type bracketService struct {
	eventRepo repositories.EventRepository
	matchRepo repositories.MatchRepository
	userRepo  repositories.UserRepository
	generator brackets.Generator
	hub       *brackets.Hub
	logger    *slog.Logger
	locks     *keyedMutex
	// newRand supplies the shuffle source per generation; tests replace it
	// with a fixed seed to pin bracket shapes.
	newRand func() *rand.Rand
}

func NewBracketService(
	eventRepo repositories.EventRepository,
	matchRepo repositories.MatchRepository,
	userRepo repositories.UserRepository,
	generator brackets.Generator,
	hub *brackets.Hub,
	logger *slog.Logger,
) BracketService {
	return &bracketService{
		eventRepo: eventRepo,
		matchRepo: matchRepo,
		userRepo:  userRepo,
		generator: generator,
		hub:       hub,
		logger:    logger,
		locks:     newKeyedMutex(),
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
	}
}

func (s *bracketService) GetBracket(ctx context.Context, eventID int) (*BracketView, error) {
	var (
		event   *models.Event
		matches []*models.Match
		teams   []*models.Team
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		e, err := s.eventRepo.GetByID(gCtx, eventID)
		if err != nil {
			if errors.Is(err, repositories.ErrEventNotFound) {
				return ErrEventNotFound
			}
			return err
		}
		event = e
		return nil
	})
	g.Go(func() error {
		m, err := s.matchRepo.ListByEvent(gCtx, eventID, nil)
		if err != nil {
			return fmt.Errorf("failed to list matches for event %d: %w", eventID, err)
		}
		matches = m
		return nil
	})
	g.Go(func() error {
		t, err := s.eventRepo.ListTeams(gCtx, eventID)
		if err != nil {
			return fmt.Errorf("failed to list teams for event %d: %w", eventID, err)
		}
		teams = t
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if diverged := snapshotDiverges(event.BracketData, matches); diverged {
		// The snapshot and the rows are written together; disagreement means
		// an interrupted regeneration and the bracket needs regenerating.
		s.logger.Warn("bracket snapshot diverges from match rows",
			slog.Int("event_id", eventID),
			slog.Int("match_count", len(matches)),
		)
	}

	return &BracketView{
		BracketType: event.BracketType,
		BracketData: event.BracketData,
		Matches:     matches,
		Teams:       teams,
	}, nil
}

// snapshotDiverges reports whether the stored slot snapshot disagrees with
// the persisted rows on slot count.
func snapshotDiverges(bracketData *string, matches []*models.Match) bool {
	if bracketData == nil {
		return len(matches) > 0
	}
	var slots []brackets.Slot
	if err := json.Unmarshal([]byte(*bracketData), &slots); err != nil {
		return true
	}
	return len(slots) != len(matches)
}

func (s *bracketService) GenerateBracket(ctx context.Context, eventID int, input GenerateBracketInput, actorID int) (*GenerateBracketResult, error) {
	bracketType := models.BracketSingleElimination
	if input.BracketType != nil {
		bracketType = *input.BracketType
	}
	if bracketType != models.BracketSingleElimination {
		return nil, fmt.Errorf("%w: %q", ErrBracketTypeUnsupported, bracketType)
	}

	if _, err := s.loadEventForMutation(ctx, eventID, actorID); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(bracketLockKey(eventID))
	defer unlock()

	ctx, cancel := context.WithTimeout(ctx, bracketOpTimeout)
	defer cancel()

	teams, err := s.eventRepo.ListTeams(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams for event %d: %w", eventID, err)
	}
	entrants := filterTeamsByDivision(teams, input.Division)
	if len(entrants) < 2 {
		if input.Division != nil {
			return nil, fmt.Errorf("%w: division %q has %d eligible teams, need at least 2",
				ErrNotEnoughTeams, *input.Division, len(entrants))
		}
		return nil, fmt.Errorf("%w: event has %d eligible teams, need at least 2",
			ErrNotEnoughTeams, len(entrants))
	}

	teamIDs := make([]int, len(entrants))
	for i, t := range entrants {
		teamIDs[i] = t.ID
	}

	slots, err := s.generator.Generate(ctx, brackets.GenerateParams{
		TeamIDs: teamIDs,
		Rand:    s.newRand(),
	})
	if err != nil {
		if errors.Is(err, brackets.ErrNotEnoughEntrants) {
			return nil, fmt.Errorf("%w: %v", ErrNotEnoughTeams, err)
		}
		return nil, fmt.Errorf("failed to generate bracket structure for event %d: %w", eventID, err)
	}

	// Regeneration is destructive: old matches go before new ones are
	// created, strictly sequentially, or the position constraint collides.
	deleted, err := s.matchRepo.DeleteByEvent(ctx, eventID, input.Division)
	if err != nil {
		return nil, fmt.Errorf("failed to delete existing matches for event %d: %w", eventID, err)
	}
	if deleted > 0 {
		s.logger.Info("existing bracket removed before regeneration",
			slog.Int("event_id", eventID),
			slog.Int("matches_deleted", deleted),
		)
	}

	created, err := s.matchRepo.CreateAll(ctx, eventID, input.Division, slots)
	if err != nil {
		return nil, fmt.Errorf("failed to persist bracket matches for event %d: %w", eventID, err)
	}

	if err := s.matchRepo.ResolveLinks(ctx, slots, created); err != nil {
		// Creation has committed; the bracket exists but is unlinked. This
		// state is recoverable by regeneration and must be reported as such,
		// never as a silently complete bracket.
		return nil, fmt.Errorf("%w: %v", ErrBracketLinkIncomplete, err)
	}

	snapshot, err := json.Marshal(slots)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize bracket snapshot for event %d: %w", eventID, err)
	}
	snapshotStr := string(snapshot)
	if err := s.eventRepo.UpdateBracketInfo(ctx, eventID, &bracketType, &snapshotStr); err != nil {
		return nil, fmt.Errorf("failed to update bracket metadata for event %d: %w", eventID, err)
	}

	s.logger.Info("bracket generated",
		slog.Int("event_id", eventID),
		slog.Int("entrants", len(teamIDs)),
		slog.Int("matches_created", len(created)),
		slog.Any("division", input.Division),
	)
	s.broadcast(eventID, brackets.MessageBracketUpdated, map[string]interface{}{
		"event_id":        eventID,
		"matches_created": len(created),
	})

	return &GenerateBracketResult{MatchesCreated: len(created)}, nil
}

func (s *bracketService) DeleteBracket(ctx context.Context, eventID int, actorID int) error {
	if _, err := s.loadEventForMutation(ctx, eventID, actorID); err != nil {
		return err
	}

	unlock := s.locks.Lock(bracketLockKey(eventID))
	defer unlock()

	ctx, cancel := context.WithTimeout(ctx, bracketOpTimeout)
	defer cancel()

	deleted, err := s.matchRepo.DeleteByEvent(ctx, eventID, nil)
	if err != nil {
		return fmt.Errorf("failed to delete matches for event %d: %w", eventID, err)
	}
	if err := s.eventRepo.UpdateBracketInfo(ctx, eventID, nil, nil); err != nil {
		return fmt.Errorf("failed to clear bracket metadata for event %d: %w", eventID, err)
	}

	s.logger.Info("bracket deleted",
		slog.Int("event_id", eventID),
		slog.Int("matches_deleted", deleted),
	)
	s.broadcast(eventID, brackets.MessageBracketDeleted, map[string]interface{}{
		"event_id": eventID,
	})
	return nil
}

// loadEventForMutation fetches the event and applies the checks shared by
// every bracket mutation: caller authorization and the lifecycle gate.
func (s *bracketService) loadEventForMutation(ctx context.Context, eventID int, actorID int) (*models.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	if _, err := authorizeEventAdmin(ctx, s.userRepo, event, actorID); err != nil {
		return nil, err
	}
	if event.Status == models.EventStatusClosed {
		return nil, ErrEventClosed
	}
	if !StatusAtLeast(event.Status, models.EventStatusActive) {
		return nil, fmt.Errorf("%w: event is %s", ErrEventNotActive, event.Status)
	}
	return event, nil
}

func filterTeamsByDivision(teams []*models.Team, division *string) []*models.Team {
	filtered := make([]*models.Team, 0, len(teams))
	for _, t := range teams {
		switch {
		case division == nil && t.Division == nil:
			filtered = append(filtered, t)
		case division != nil && t.Division != nil && *t.Division == *division:
			filtered = append(filtered, t)
		}
	}
	return filtered
}

func (s *bracketService) broadcast(eventID int, messageType string, payload interface{}) {
	if s.hub == nil {
		return
	}
	roomID := fmt.Sprintf("event_%d", eventID)
	s.hub.BroadcastToRoom(roomID, brackets.WebSocketMessage{
		Type:    messageType,
		Payload: payload,
		RoomID:  roomID,
	})
}
