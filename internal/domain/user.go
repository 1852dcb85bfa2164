package domain

import "time"

// User represents a registered account. Meetings hang off a user and are
// removed together with it.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
