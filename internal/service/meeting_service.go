package service

import (
	"context"
	"errors"

	"meeting-tracker/internal/domain"
	"meeting-tracker/internal/repository"
)

// ErrMeetingNotFound is returned when a meeting does not exist or is owned by
// someone else. The two cases are deliberately indistinguishable so callers
// cannot probe for foreign meetings.
var ErrMeetingNotFound = errors.New("meeting not found")

// CreateMeetingInput carries the caller-supplied meeting fields.
type CreateMeetingInput struct {
	Title       string
	Description string
	Date        string
}

// CreateActionInput carries the caller-supplied action item fields. Status
// defaults to "pending" when empty; DueDate may be nil.
type CreateActionInput struct {
	Task       string
	AssignedTo string
	Status     string
	DueDate    *string
}

// MeetingService coordinates meeting level operations backed by repositories.
// Every meeting-scoped operation is ownership checked.
type MeetingService interface {
	Create(ctx context.Context, input CreateMeetingInput, ownerID int64) (*domain.Meeting, error)
	Get(ctx context.Context, id, ownerID int64) (*domain.Meeting, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]domain.Meeting, error)
	AddAction(ctx context.Context, meetingID, ownerID int64, input CreateActionInput) (*domain.ActionItem, error)
}

type meetingService struct {
	meetings repository.MeetingRepository
	actions  repository.ActionItemRepository
}

func NewMeetingService(meetings repository.MeetingRepository, actions repository.ActionItemRepository) MeetingService {
	return &meetingService{
		meetings: meetings,
		actions:  actions,
	}
}

func (s *meetingService) Create(ctx context.Context, input CreateMeetingInput, ownerID int64) (*domain.Meeting, error) {
	if input.Title == "" {
		return nil, errors.New("title is required")
	}

	meeting := &domain.Meeting{
		Title:       input.Title,
		Description: input.Description,
		Date:        input.Date,
		OwnerID:     ownerID,
		Actions:     []domain.ActionItem{},
	}

	if _, err := s.meetings.Create(ctx, meeting); err != nil {
		return nil, err
	}
	return meeting, nil
}

func (s *meetingService) Get(ctx context.Context, id, ownerID int64) (*domain.Meeting, error) {
	meeting, err := s.getOwned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	actions, err := s.actions.ListByMeeting(ctx, id)
	if err != nil {
		return nil, err
	}
	if actions == nil {
		actions = []domain.ActionItem{}
	}
	meeting.Actions = actions
	return meeting, nil
}

func (s *meetingService) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Meeting, error) {
	meetings, err := s.meetings.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	for i := range meetings {
		actions, err := s.actions.ListByMeeting(ctx, meetings[i].ID)
		if err != nil {
			return nil, err
		}
		if actions == nil {
			actions = []domain.ActionItem{}
		}
		meetings[i].Actions = actions
	}
	return meetings, nil
}

func (s *meetingService) AddAction(ctx context.Context, meetingID, ownerID int64, input CreateActionInput) (*domain.ActionItem, error) {
	if _, err := s.getOwned(ctx, meetingID, ownerID); err != nil {
		return nil, err
	}

	if input.Task == "" {
		return nil, errors.New("task is required")
	}
	if input.AssignedTo == "" {
		return nil, errors.New("assigned_to is required")
	}

	action := &domain.ActionItem{
		MeetingID:  meetingID,
		Task:       input.Task,
		AssignedTo: input.AssignedTo,
		Status:     input.Status,
		DueDate:    input.DueDate,
	}

	if _, err := s.actions.Create(ctx, action); err != nil {
		return nil, err
	}
	return action, nil
}

// getOwned is the single ownership gate for meeting-scoped operations.
func (s *meetingService) getOwned(ctx context.Context, id, ownerID int64) (*domain.Meeting, error) {
	meeting, err := s.meetings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMeetingNotFound
		}
		return nil, err
	}
	if meeting.OwnerID != ownerID {
		return nil, ErrMeetingNotFound
	}
	return meeting, nil
}
