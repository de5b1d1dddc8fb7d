package models

import "time"

// Invitation is a single-use, time-boxed token that converts into a MEMBER
// membership when accepted. Email is optional; when set and a matching
// account exists, a notification is sent at creation time. The token never
// reveals whether it is missing, already accepted or expired.
type Invitation struct {
	ID        string    `json:"id" db:"id"`
	BoardID   string    `json:"board_id" db:"board_id"`
	Token     string    `json:"token" db:"token"`
	Email     string    `json:"email,omitempty" db:"email"`
	Accepted  bool      `json:"accepted" db:"accepted"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
