package repository

import (
	"context"

	"meeting-tracker/internal/domain"
)

// MeetingRepository defines persistence operations for Meeting entities.
type MeetingRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, meeting *domain.Meeting) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Meeting, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]domain.Meeting, error)
}

// ActionItemRepository defines persistence operations for action items
// attached to meetings.
type ActionItemRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, action *domain.ActionItem) (int64, error)
	ListByMeeting(ctx context.Context, meetingID int64) ([]domain.ActionItem, error)
}
