package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/clubarena/clubarena/models"
	"github.com/lib/pq"
)

var (
	ErrCalendarEntryNotFound = errors.New("calendar entry not found")
	ErrCalendarClubInvalid   = errors.New("calendar entry references an unknown club")
)

type CalendarRepository interface {
	Create(ctx context.Context, entry *models.CalendarEntry) error
	// FindCompetitiveFixture returns the first COMPETITIVE/FIXTURE entry for
	// the club on the given date (exact-date match, no time-of-day window),
	// excluding excludeID when non-nil. Returns (nil, nil) when none exists.
	FindCompetitiveFixture(ctx context.Context, clubID int, date time.Time, excludeID *int) (*models.CalendarEntry, error)
	ListByClub(ctx context.Context, clubID int) ([]*models.CalendarEntry, error)
}

type postgresCalendarRepository struct {
	db *sql.DB
}

func NewPostgresCalendarRepository(db *sql.DB) CalendarRepository {
	return &postgresCalendarRepository{db: db}
}

const calendarColumns = `id, club_id, title, start_date, event_source, fixture_type, conflict_warning, created_at`

func (r *postgresCalendarRepository) Create(ctx context.Context, entry *models.CalendarEntry) error {
	query := `
		INSERT INTO calendar_entries
			(club_id, title, start_date, event_source, fixture_type, conflict_warning)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		entry.ClubID,
		entry.Title,
		entry.StartDate,
		entry.EventSource,
		entry.FixtureType,
		entry.ConflictWarning,
	).Scan(&entry.ID, &entry.CreatedAt)

	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
		return ErrCalendarClubInvalid
	}
	return err
}

func (r *postgresCalendarRepository) FindCompetitiveFixture(ctx context.Context, clubID int, date time.Time, excludeID *int) (*models.CalendarEntry, error) {
	query := `
		SELECT ` + calendarColumns + `
		FROM calendar_entries
		WHERE club_id = $1
		  AND start_date::date = $2::date
		  AND event_source = $3
		  AND fixture_type = $4
		  AND ($5::int IS NULL OR id <> $5)
		ORDER BY id ASC
		LIMIT 1`

	entry := &models.CalendarEntry{}
	err := r.db.QueryRowContext(ctx, query,
		clubID,
		date,
		models.CalendarSourceFixture,
		models.FixtureCompetitive,
		excludeID,
	).Scan(
		&entry.ID,
		&entry.ClubID,
		&entry.Title,
		&entry.StartDate,
		&entry.EventSource,
		&entry.FixtureType,
		&entry.ConflictWarning,
		&entry.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return entry, nil
}

func (r *postgresCalendarRepository) ListByClub(ctx context.Context, clubID int) ([]*models.CalendarEntry, error) {
	query := `SELECT ` + calendarColumns + ` FROM calendar_entries WHERE club_id = $1 ORDER BY start_date ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, clubID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*models.CalendarEntry, 0)
	for rows.Next() {
		var entry models.CalendarEntry
		if scanErr := rows.Scan(
			&entry.ID,
			&entry.ClubID,
			&entry.Title,
			&entry.StartDate,
			&entry.EventSource,
			&entry.FixtureType,
			&entry.ConflictWarning,
			&entry.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		entries = append(entries, &entry)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
