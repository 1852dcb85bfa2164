package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"meeting-tracker/internal/domain"
	"meeting-tracker/internal/repository"
)

const createActionItemsTable = `
CREATE TABLE IF NOT EXISTS action_items (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	meeting_id INTEGER NOT NULL REFERENCES meetings(id) ON DELETE CASCADE,
	task TEXT NOT NULL,
	assigned_to TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	due_date TEXT,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_action_items_meeting ON action_items(meeting_id);
`

type ActionItemRepository struct {
	db *sql.DB
}

func NewActionItemRepository(db *sql.DB) repository.ActionItemRepository {
	return &ActionItemRepository{db: db}
}

func (r *ActionItemRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createActionItemsTable); err != nil {
		return fmt.Errorf("create action items table: %w", err)
	}
	return nil
}

func (r *ActionItemRepository) Create(ctx context.Context, action *domain.ActionItem) (int64, error) {
	if action.Status == "" {
		action.Status = domain.ActionItemStatusPending
	}
	action.CreatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
INSERT INTO action_items (meeting_id, task, assigned_to, status, due_date, created_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		action.MeetingID,
		action.Task,
		action.AssignedTo,
		action.Status,
		action.DueDate,
		action.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert action item: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("action item last insert id: %w", err)
	}
	action.ID = id
	return id, nil
}

func (r *ActionItemRepository) ListByMeeting(ctx context.Context, meetingID int64) ([]domain.ActionItem, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, meeting_id, task, assigned_to, status, due_date, created_at
FROM action_items
WHERE meeting_id = ?
ORDER BY id`,
		meetingID,
	)
	if err != nil {
		return nil, fmt.Errorf("list action items: %w", err)
	}
	defer rows.Close()

	var actions []domain.ActionItem
	for rows.Next() {
		var a domain.ActionItem
		var due sql.NullString
		if err := rows.Scan(
			&a.ID,
			&a.MeetingID,
			&a.Task,
			&a.AssignedTo,
			&a.Status,
			&due,
			&a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan action item: %w", err)
		}
		if due.Valid {
			a.DueDate = &due.String
		}
		actions = append(actions, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate action items: %w", err)
	}
	return actions, nil
}
