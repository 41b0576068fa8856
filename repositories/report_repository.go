package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/clubarena/clubarena/models"
	"github.com/lib/pq"
)

var (
	ErrReportNotFound      = errors.New("event report not found")
	ErrReportEventInvalid  = errors.New("report references an unknown event")
	ErrReportAlreadyExists = errors.New("a report already exists for this event")
)

type ReportRepository interface {
	Create(ctx context.Context, report *models.EventReport) error
	GetByEvent(ctx context.Context, eventID int) (*models.EventReport, error)
	ExistsByEvent(ctx context.Context, eventID int) (bool, error)
}

type postgresReportRepository struct {
	db *sql.DB
}

func NewPostgresReportRepository(db *sql.DB) ReportRepository {
	return &postgresReportRepository{db: db}
}

func (r *postgresReportRepository) Create(ctx context.Context, report *models.EventReport) error {
	query := `
		INSERT INTO event_reports (event_id, summary, attachment_key, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		report.EventID,
		report.Summary,
		report.AttachmentKey,
		report.CreatedBy,
	).Scan(&report.ID, &report.CreatedAt)

	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23505": // unique_violation on event_id
			return ErrReportAlreadyExists
		case "23503":
			return ErrReportEventInvalid
		}
	}
	return err
}

func (r *postgresReportRepository) GetByEvent(ctx context.Context, eventID int) (*models.EventReport, error) {
	query := `
		SELECT id, event_id, summary, attachment_key, created_by, created_at
		FROM event_reports
		WHERE event_id = $1`

	report := &models.EventReport{}
	err := r.db.QueryRowContext(ctx, query, eventID).Scan(
		&report.ID,
		&report.EventID,
		&report.Summary,
		&report.AttachmentKey,
		&report.CreatedBy,
		&report.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}
	return report, nil
}

func (r *postgresReportRepository) ExistsByEvent(ctx context.Context, eventID int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM event_reports WHERE event_id = $1)`, eventID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}
