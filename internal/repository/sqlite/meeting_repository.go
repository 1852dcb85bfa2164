package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"meeting-tracker/internal/domain"
	"meeting-tracker/internal/repository"
)

const createMeetingsTable = `
CREATE TABLE IF NOT EXISTS meetings (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	description TEXT NOT NULL,
	date TEXT NOT NULL,
	owner_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_meetings_owner ON meetings(owner_id);
`

type MeetingRepository struct {
	db *sql.DB
}

func NewMeetingRepository(db *sql.DB) repository.MeetingRepository {
	return &MeetingRepository{db: db}
}

func (r *MeetingRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createMeetingsTable); err != nil {
		return fmt.Errorf("create meetings table: %w", err)
	}
	return nil
}

func (r *MeetingRepository) Create(ctx context.Context, meeting *domain.Meeting) (int64, error) {
	now := time.Now().UTC()
	meeting.CreatedAt = now
	meeting.UpdatedAt = now

	res, err := r.db.ExecContext(ctx, `
INSERT INTO meetings (title, description, date, owner_id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		meeting.Title,
		meeting.Description,
		meeting.Date,
		meeting.OwnerID,
		meeting.CreatedAt,
		meeting.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert meeting: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("meeting last insert id: %w", err)
	}
	meeting.ID = id
	return id, nil
}

func (r *MeetingRepository) GetByID(ctx context.Context, id int64) (*domain.Meeting, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, title, description, date, owner_id, created_at, updated_at
FROM meetings
WHERE id = ?`,
		id,
	)
	return scanMeeting(row)
}

func (r *MeetingRepository) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Meeting, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, title, description, date, owner_id, created_at, updated_at
FROM meetings
WHERE owner_id = ?
ORDER BY id`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list meetings: %w", err)
	}
	defer rows.Close()

	var meetings []domain.Meeting
	for rows.Next() {
		var m domain.Meeting
		if err := rows.Scan(
			&m.ID,
			&m.Title,
			&m.Description,
			&m.Date,
			&m.OwnerID,
			&m.CreatedAt,
			&m.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan meeting: %w", err)
		}
		meetings = append(meetings, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate meetings: %w", err)
	}
	return meetings, nil
}

func scanMeeting(row interface {
	Scan(dest ...any) error
}) (*domain.Meeting, error) {
	var m domain.Meeting
	if err := row.Scan(
		&m.ID,
		&m.Title,
		&m.Description,
		&m.Date,
		&m.OwnerID,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan meeting: %w", err)
	}
	return &m, nil
}
