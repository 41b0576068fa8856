package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/clubarena/clubarena/brackets"
	"github.com/clubarena/clubarena/models"
	"github.com/lib/pq"
)

var (
	ErrMatchNotFound         = errors.New("match not found")
	ErrMatchEventInvalid     = errors.New("match references an unknown event")
	ErrMatchTeamInvalid      = errors.New("match references an unknown team")
	ErrMatchPositionConflict = errors.New("a match already occupies this bracket position")
)

// MatchRepository persists bracket slots as match rows. Creation and link
// resolution are deliberately two separate transactions: forward links need
// the ids that creation generates, and a linking failure after creation has
// committed leaves a recoverable (regenerable) bracket rather than nothing.
type MatchRepository interface {
	// CreateAll persists one row per slot inside a single transaction,
	// preserving slot order in the returned matches. Nothing is committed
	// on failure.
	CreateAll(ctx context.Context, eventID int, division *string, slots []brackets.Slot) ([]*models.Match, error)
	// ResolveLinks maps each slot's NextSlotKey to the persisted id of the
	// target slot (created[i] corresponds to slots[i]) and writes
	// next_match_id in one transaction.
	ResolveLinks(ctx context.Context, slots []brackets.Slot, created []*models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	ListByEvent(ctx context.Context, eventID int, division *string) ([]*models.Match, error)
	DeleteByEvent(ctx context.Context, eventID int, division *string) (int, error)
	UpdateResult(ctx context.Context, id int, homeScore, awayScore *int, status models.MatchStatus) error
	// UpdateSlotTeams overwrites the team assignments of a match, used when
	// advancing a winner into its next match.
	UpdateSlotTeams(ctx context.Context, id int, homeTeamID, awayTeamID *int) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchColumns = `id, event_id, division, round, bracket_position, home_team_id, away_team_id, next_match_id, status, home_score, away_score, created_at`

func scanMatch(scanner interface{ Scan(...interface{}) error }, match *models.Match) error {
	return scanner.Scan(
		&match.ID,
		&match.EventID,
		&match.Division,
		&match.Round,
		&match.BracketPosition,
		&match.HomeTeamID,
		&match.AwayTeamID,
		&match.NextMatchID,
		&match.Status,
		&match.HomeScore,
		&match.AwayScore,
		&match.CreatedAt,
	)
}

func (r *postgresMatchRepository) CreateAll(ctx context.Context, eventID int, division *string, slots []brackets.Slot) ([]*models.Match, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin match creation transaction: %w", err)
	}
	defer tx.Rollback()

	numRounds := brackets.NumRounds(slots)
	query := `
		INSERT INTO matches
			(event_id, division, round, bracket_position, home_team_id, away_team_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	created := make([]*models.Match, 0, len(slots))
	for _, slot := range slots {
		match := &models.Match{
			EventID:         eventID,
			Division:        division,
			Round:           brackets.RoundLabel(slot.Round, numRounds),
			BracketPosition: slot.Position,
			HomeTeamID:      slot.HomeTeamID,
			AwayTeamID:      slot.AwayTeamID,
			Status:          models.MatchStatusScheduled,
		}
		err := tx.QueryRowContext(ctx, query,
			match.EventID,
			match.Division,
			match.Round,
			match.BracketPosition,
			match.HomeTeamID,
			match.AwayTeamID,
			match.Status,
		).Scan(&match.ID, &match.CreatedAt)
		if err != nil {
			return nil, handleMatchError(err)
		}
		created = append(created, match)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit match creation: %w", err)
	}
	return created, nil
}

func (r *postgresMatchRepository) ResolveLinks(ctx context.Context, slots []brackets.Slot, created []*models.Match) error {
	if len(slots) != len(created) {
		return fmt.Errorf("slot/match count mismatch: %d slots, %d matches", len(slots), len(created))
	}

	idByKey := make(map[brackets.SlotKey]int, len(slots))
	for i, slot := range slots {
		idByKey[slot.Key()] = created[i].ID
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin link resolution transaction: %w", err)
	}
	defer tx.Rollback()

	query := `UPDATE matches SET next_match_id = $1 WHERE id = $2`
	for i, slot := range slots {
		if slot.NextSlotKey == nil {
			continue
		}
		nextID, ok := idByKey[*slot.NextSlotKey]
		if !ok {
			return fmt.Errorf("slot (%d,%d) links to unknown slot (%d,%d)",
				slot.Round, slot.Position, slot.NextSlotKey.Round, slot.NextSlotKey.Position)
		}
		if _, err := tx.ExecContext(ctx, query, nextID, created[i].ID); err != nil {
			return handleMatchError(err)
		}
		created[i].NextMatchID = &nextID
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit link resolution: %w", err)
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`

	match := &models.Match{}
	err := scanMatch(r.db.QueryRowContext(ctx, query, id), match)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return match, nil
}

func (r *postgresMatchRepository) ListByEvent(ctx context.Context, eventID int, division *string) ([]*models.Match, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + matchColumns + ` FROM matches WHERE event_id = $1`)

	args := []interface{}{eventID}
	if division != nil {
		queryBuilder.WriteString(" AND division = $" + strconv.Itoa(len(args)+1))
		args = append(args, *division)
	}
	// Rows are inserted in round order, so id order is bracket order.
	queryBuilder.WriteString(" ORDER BY id ASC")

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		var match models.Match
		if scanErr := scanMatch(rows, &match); scanErr != nil {
			return nil, scanErr
		}
		matches = append(matches, &match)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}

func (r *postgresMatchRepository) DeleteByEvent(ctx context.Context, eventID int, division *string) (int, error) {
	var result sql.Result
	var err error
	if division != nil {
		result, err = r.db.ExecContext(ctx, `DELETE FROM matches WHERE event_id = $1 AND division = $2`, eventID, *division)
	} else {
		result, err = r.db.ExecContext(ctx, `DELETE FROM matches WHERE event_id = $1`, eventID)
	}
	if err != nil {
		return 0, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return int(rowsAffected), nil
}

func (r *postgresMatchRepository) UpdateResult(ctx context.Context, id int, homeScore, awayScore *int, status models.MatchStatus) error {
	query := `UPDATE matches SET home_score = $1, away_score = $2, status = $3 WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, homeScore, awayScore, status, id)
	if err != nil {
		return handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) UpdateSlotTeams(ctx context.Context, id int, homeTeamID, awayTeamID *int) error {
	query := `UPDATE matches SET home_team_id = $1, away_team_id = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, homeTeamID, awayTeamID, id)
	if err != nil {
		return handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23505": // unique_violation on (event_id, division, round, bracket_position)
			return ErrMatchPositionConflict
		case "23503": // foreign_key_violation
			switch pqErr.Constraint {
			case "matches_event_id_fkey":
				return ErrMatchEventInvalid
			case "matches_home_team_id_fkey", "matches_away_team_id_fkey":
				return ErrMatchTeamInvalid
			}
		}
	}
	return err
}
