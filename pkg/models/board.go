package models

import "time"

// Board is a shared workspace owned by exactly one user.
type Board struct {
	ID        string    `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	OwnerID   string    `json:"owner_id" db:"owner_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type MemberRole string

const (
	RoleOwner  MemberRole = "OWNER"
	RoleMember MemberRole = "MEMBER"
)

// Membership relates a user to a board with a role. Unique per (board, user);
// exactly one OWNER row exists per board and it matches Board.OwnerID.
type Membership struct {
	ID        string     `json:"id" db:"id"`
	BoardID   string     `json:"board_id" db:"board_id"`
	UserID    string     `json:"user_id" db:"user_id"`
	Role      MemberRole `json:"role" db:"role"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	User      *UserRef   `json:"user,omitempty"`
}

// Column is an ordered lane of tasks within a board. Position is a numeric
// rank chosen by the client; siblings are rendered in ascending order.
type Column struct {
	ID        string    `json:"id" db:"id"`
	BoardID   string    `json:"board_id" db:"board_id"`
	Title     string    `json:"title" db:"title"`
	Position  int       `json:"position" db:"position"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Task belongs to exactly one column at a time; cross-column moves rewrite
// ColumnID together with Position.
type Task struct {
	ID        string    `json:"id" db:"id"`
	ColumnID  string    `json:"column_id" db:"column_id"`
	Title     string    `json:"title" db:"title"`
	Position  int       `json:"position" db:"position"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Tag is a board-scoped label with a display color.
type Tag struct {
	ID        string    `json:"id" db:"id"`
	BoardID   string    `json:"board_id" db:"board_id"`
	Name      string    `json:"name" db:"name"`
	Color     string    `json:"color" db:"color"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// PositionUpdate is one entry of a reorder batch: an item id and its new rank.
type PositionUpdate struct {
	ID       string `json:"id"`
	Position int    `json:"position"`
}

// TaskDetail is a task hydrated with its tags and assignees.
type TaskDetail struct {
	Task
	Tags      []Tag     `json:"tags"`
	Assignees []UserRef `json:"assignees"`
}

// ColumnDetail is a column hydrated with its ordered tasks.
type ColumnDetail struct {
	Column
	Tasks []TaskDetail `json:"tasks"`
}

// BoardDetail is the fully hydrated aggregate returned by the single-board
// read: ordered columns with ordered tasks, the tag catalog and the member
// list with display identities.
type BoardDetail struct {
	Board
	Columns     []ColumnDetail `json:"columns"`
	Tags        []Tag          `json:"tags"`
	Memberships []Membership   `json:"memberships"`
}
