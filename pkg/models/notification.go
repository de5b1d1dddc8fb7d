package models

import (
	"encoding/json"
	"time"
)

// Notification is an append-only event record for a single user; only the
// Read flag ever changes after creation.
type Notification struct {
	ID        string          `json:"id" db:"id"`
	UserID    string          `json:"user_id" db:"user_id"`
	Title     string          `json:"title" db:"title"`
	Body      string          `json:"body,omitempty" db:"body"`
	Data      json.RawMessage `json:"data,omitempty" db:"data"`
	Read      bool            `json:"read" db:"read"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}
