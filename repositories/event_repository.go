package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/clubarena/clubarena/models"
)

var (
	ErrEventNotFound = errors.New("event not found")
	// ErrEventStatusConflict means the optimistic status update matched no
	// row: another request advanced the event first.
	ErrEventStatusConflict = errors.New("event status changed concurrently")
)

type EventRepository interface {
	GetByID(ctx context.Context, id int) (*models.Event, error)
	ListTeams(ctx context.Context, eventID int) ([]*models.Team, error)
	CountTeams(ctx context.Context, eventID int) (int, error)
	// UpdateStatus performs an optimistic transition: the row is only
	// updated while its status still equals from.
	UpdateStatus(ctx context.Context, id int, from, to models.EventStatus) error
	// UpdateBracketInfo writes bracket type and snapshot together; passing
	// nils clears both.
	UpdateBracketInfo(ctx context.Context, id int, bracketType *models.BracketType, bracketData *string) error
}

type postgresEventRepository struct {
	db *sql.DB
}

func NewPostgresEventRepository(db *sql.DB) EventRepository {
	return &postgresEventRepository{db: db}
}

func (r *postgresEventRepository) GetByID(ctx context.Context, id int) (*models.Event, error) {
	query := `
		SELECT id, club_id, name, description, start_date, end_date, status, min_teams, bracket_type, bracket_data, created_at
		FROM events
		WHERE id = $1`

	event := &models.Event{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&event.ID,
		&event.ClubID,
		&event.Name,
		&event.Description,
		&event.StartDate,
		&event.EndDate,
		&event.Status,
		&event.MinTeams,
		&event.BracketType,
		&event.BracketData,
		&event.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return event, nil
}

func (r *postgresEventRepository) ListTeams(ctx context.Context, eventID int) ([]*models.Team, error) {
	query := `
		SELECT id, event_id, club_id, name, division, created_at
		FROM teams
		WHERE event_id = $1
		ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := make([]*models.Team, 0)
	for rows.Next() {
		var team models.Team
		if scanErr := rows.Scan(
			&team.ID,
			&team.EventID,
			&team.ClubID,
			&team.Name,
			&team.Division,
			&team.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		teams = append(teams, &team)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return teams, nil
}

func (r *postgresEventRepository) CountTeams(ctx context.Context, eventID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM teams WHERE event_id = $1`, eventID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *postgresEventRepository) UpdateStatus(ctx context.Context, id int, from, to models.EventStatus) error {
	query := `UPDATE events SET status = $1 WHERE id = $2 AND status = $3`
	result, err := r.db.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrEventStatusConflict)
}

func (r *postgresEventRepository) UpdateBracketInfo(ctx context.Context, id int, bracketType *models.BracketType, bracketData *string) error {
	query := `UPDATE events SET bracket_type = $1, bracket_data = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, bracketType, bracketData, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrEventNotFound)
}
