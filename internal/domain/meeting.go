package domain

import "time"

// ActionItemStatusPending is the status assigned to new action items when the
// caller does not provide one. Status is otherwise free text.
const ActionItemStatusPending = "pending"

// Meeting is a tracked meeting owned by exactly one user. Date is kept as the
// caller supplied it; no calendar validation is applied.
type Meeting struct {
	ID          int64
	Title       string
	Description string
	Date        string
	OwnerID     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Actions     []ActionItem
}

// ActionItem is a follow-up task recorded under a meeting. AssignedTo is free
// text, not a user reference.
type ActionItem struct {
	ID         int64
	MeetingID  int64
	Task       string
	AssignedTo string
	Status     string
	DueDate    *string
	CreatedAt  time.Time
}
