package database

import (
	"errors"

	"kanban-board-backend/pkg/models"
)

// Sentinel errors surfaced by every Store implementation. Handlers map
// ErrNotFound to 404 and ErrDuplicate (unique-constraint violation) to 409.
var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate key")
)

// Store is the persistence contract consumed by the handlers. Implementations
// must provide unique-constraint-enforced inserts (surfacing ErrDuplicate),
// transactional multi-statement execution and ordered range reads by position.
type Store interface {
	// Users
	CreateUser(user *models.User) error
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)

	// Boards
	CreateBoard(board *models.Board) error
	ListUserBoards(userID string) ([]models.Board, error)
	GetBoard(boardID string) (*models.Board, error)
	UpdateBoardTitle(boardID, title string) error
	DeleteBoard(boardID string) error
	GetBoardDetail(boardID string) (*models.BoardDetail, error)

	// Memberships
	GetMembership(boardID, userID string) (*models.Membership, error)
	AddMembership(m *models.Membership) error
	ListBoardMembers(boardID string) ([]models.Membership, error)

	// Columns
	CreateColumn(col *models.Column) error
	GetColumn(columnID string) (*models.Column, error)
	UpdateColumnTitle(columnID, title string) error
	DeleteColumn(columnID string) error
	UpdateColumnPositions(items []models.PositionUpdate) error
	GetBoardIDByColumn(columnID string) (string, error)

	// Tasks
	CreateTask(task *models.Task) error
	GetTask(taskID string) (*models.Task, error)
	UpdateTaskTitle(taskID, title string) error
	DeleteTask(taskID string) error
	MoveTasks(columnID string, items []models.PositionUpdate) error
	GetBoardIDByTask(taskID string) (string, error)

	// Assignees
	AddTaskAssignee(taskID, userID string) error
	RemoveTaskAssignee(taskID, userID string) error

	// Tags
	CreateTag(tag *models.Tag) error
	ListBoardTags(boardID string) ([]models.Tag, error)
	AttachTag(taskID, tagID string) error
	DetachTag(taskID, tagID string) error

	// Invitations
	CreateInvitation(inv *models.Invitation) error
	// AcceptInvitation atomically claims an unaccepted, unexpired token and
	// upserts a MEMBER membership for userID. At most one concurrent caller
	// wins; everyone else gets ErrNotFound, indistinguishable from a missing,
	// already-accepted or expired token.
	AcceptInvitation(token, userID string) (*models.Invitation, error)

	// Notifications
	CreateNotification(n *models.Notification) error
	ListNotifications(userID string, unreadOnly bool) ([]models.Notification, error)
	MarkNotificationRead(notificationID, userID string) (*models.Notification, error)
	MarkAllNotificationsRead(userID string) error

	HealthCheck() error
	Close() error
}
