package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"kanban-board-backend/pkg/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgresStore is the PostgreSQL-backed Store implementation. All
// coordination happens through the database (unique constraints,
// compare-and-set, transactions); no in-process locks are held across calls.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection pool and verifies connectivity.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", strings.TrimSpace(dsn))
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// isUniqueViolation reports whether err is a unique-constraint violation.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func nullIfEmpty(s string) interface{} {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

// ================= Users =================

func (s *PostgresStore) CreateUser(user *models.User) error {
	user.ID = uuid.New().String()
	query := `
		INSERT INTO users (id, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := s.db.QueryRow(query, user.ID, user.Email, user.Password).
		Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("email already registered: %w", ErrDuplicate)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUserByEmail(email string) (*models.User, error) {
	query := `
		SELECT id, email, password_hash, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	var u models.User
	err := s.db.QueryRow(query, email).
		Scan(&u.ID, &u.Email, &u.Password, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) GetUserByID(id string) (*models.User, error) {
	query := `
		SELECT id, email, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	var u models.User
	err := s.db.QueryRow(query, id).
		Scan(&u.ID, &u.Email, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// ================= Boards =================

// CreateBoard inserts the board and its OWNER membership in one transaction
// so a board can never exist without an owner row.
func (s *PostgresStore) CreateBoard(board *models.Board) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	board.ID = uuid.New().String()
	err = tx.QueryRow(`
		INSERT INTO boards (id, title, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING created_at, updated_at
	`, board.ID, board.Title, board.OwnerID).Scan(&board.CreatedAt, &board.UpdatedAt)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to create board: %w", err)
	}
	_, err = tx.Exec(`
		INSERT INTO memberships (id, board_id, user_id, role, created_at)
		VALUES ($1, $2, $3, 'OWNER', NOW())
		ON CONFLICT (board_id, user_id) DO NOTHING
	`, uuid.New().String(), board.ID, board.OwnerID)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to add owner membership: %w", err)
	}
	return tx.Commit()
}

func (s *PostgresStore) ListUserBoards(userID string) ([]models.Board, error) {
	query := `
		SELECT DISTINCT b.id, b.title, b.owner_id, b.created_at, b.updated_at
		FROM boards b
		LEFT JOIN memberships m ON m.board_id = b.id
		WHERE b.owner_id = $1 OR m.user_id = $1
		ORDER BY b.created_at DESC
	`
	rows, err := s.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}
	defer rows.Close()
	var result []models.Board
	for rows.Next() {
		var b models.Board
		if err := rows.Scan(&b.ID, &b.Title, &b.OwnerID, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, b)
	}
	return result, rows.Err()
}

func (s *PostgresStore) GetBoard(boardID string) (*models.Board, error) {
	var b models.Board
	err := s.db.QueryRow(`SELECT id, title, owner_id, created_at, updated_at FROM boards WHERE id = $1`, boardID).
		Scan(&b.ID, &b.Title, &b.OwnerID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("board: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get board: %w", err)
	}
	return &b, nil
}

func (s *PostgresStore) UpdateBoardTitle(boardID, title string) error {
	res, err := s.db.Exec(`UPDATE boards SET title = $1, updated_at = NOW() WHERE id = $2`, title, boardID)
	if err != nil {
		return fmt.Errorf("failed to update board: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("board: %w", ErrNotFound)
	}
	return nil
}

// DeleteBoard removes the board and everything scoped to it in dependency
// order, inside one transaction: a mid-sequence failure leaves the board
// fully intact.
func (s *PostgresStore) DeleteBoard(boardID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	steps := []string{
		`DELETE FROM task_tags WHERE task_id IN (
			SELECT t.id FROM tasks t JOIN columns c ON t.column_id = c.id WHERE c.board_id = $1)`,
		`DELETE FROM task_assignees WHERE task_id IN (
			SELECT t.id FROM tasks t JOIN columns c ON t.column_id = c.id WHERE c.board_id = $1)`,
		`DELETE FROM tasks WHERE column_id IN (SELECT id FROM columns WHERE board_id = $1)`,
		`DELETE FROM columns WHERE board_id = $1`,
		`DELETE FROM memberships WHERE board_id = $1`,
		`DELETE FROM tags WHERE board_id = $1`,
		`DELETE FROM invitations WHERE board_id = $1`,
	}
	for _, q := range steps {
		if _, err := tx.Exec(q, boardID); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to cascade delete board: %w", err)
		}
	}
	res, err := tx.Exec(`DELETE FROM boards WHERE id = $1`, boardID)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to delete board: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		_ = tx.Rollback()
		return fmt.Errorf("board: %w", ErrNotFound)
	}
	return tx.Commit()
}

// GetBoardDetail hydrates the full aggregate: ordered columns, each column's
// ordered tasks with tags and assignees, the tag catalog and the member list.
func (s *PostgresStore) GetBoardDetail(boardID string) (*models.BoardDetail, error) {
	board, err := s.GetBoard(boardID)
	if err != nil {
		return nil, err
	}
	detail := &models.BoardDetail{
		Board:       *board,
		Columns:     []models.ColumnDetail{},
		Tags:        []models.Tag{},
		Memberships: []models.Membership{},
	}

	cols, err := s.db.Query(`
		SELECT id, board_id, title, position, created_at
		FROM columns WHERE board_id = $1
		ORDER BY position ASC, created_at ASC
	`, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list columns: %w", err)
	}
	defer cols.Close()
	colIndex := map[string]int{}
	for cols.Next() {
		var c models.Column
		if err := cols.Scan(&c.ID, &c.BoardID, &c.Title, &c.Position, &c.CreatedAt); err != nil {
			return nil, err
		}
		colIndex[c.ID] = len(detail.Columns)
		detail.Columns = append(detail.Columns, models.ColumnDetail{Column: c, Tasks: []models.TaskDetail{}})
	}
	if err := cols.Err(); err != nil {
		return nil, err
	}

	tasks, err := s.db.Query(`
		SELECT t.id, t.column_id, t.title, t.position, t.created_at, t.updated_at
		FROM tasks t JOIN columns c ON t.column_id = c.id
		WHERE c.board_id = $1
		ORDER BY t.position ASC, t.created_at ASC
	`, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer tasks.Close()
	taskIndex := map[string][2]int{}
	for tasks.Next() {
		var t models.Task
		if err := tasks.Scan(&t.ID, &t.ColumnID, &t.Title, &t.Position, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		ci, ok := colIndex[t.ColumnID]
		if !ok {
			continue
		}
		taskIndex[t.ID] = [2]int{ci, len(detail.Columns[ci].Tasks)}
		detail.Columns[ci].Tasks = append(detail.Columns[ci].Tasks, models.TaskDetail{
			Task:      t,
			Tags:      []models.Tag{},
			Assignees: []models.UserRef{},
		})
	}
	if err := tasks.Err(); err != nil {
		return nil, err
	}

	taskTags, err := s.db.Query(`
		SELECT tt.task_id, g.id, g.board_id, g.name, g.color, g.created_at
		FROM task_tags tt
		JOIN tags g ON g.id = tt.tag_id
		JOIN tasks t ON t.id = tt.task_id
		JOIN columns c ON c.id = t.column_id
		WHERE c.board_id = $1
	`, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list task tags: %w", err)
	}
	defer taskTags.Close()
	for taskTags.Next() {
		var taskID string
		var g models.Tag
		if err := taskTags.Scan(&taskID, &g.ID, &g.BoardID, &g.Name, &g.Color, &g.CreatedAt); err != nil {
			return nil, err
		}
		if idx, ok := taskIndex[taskID]; ok {
			td := &detail.Columns[idx[0]].Tasks[idx[1]]
			td.Tags = append(td.Tags, g)
		}
	}
	if err := taskTags.Err(); err != nil {
		return nil, err
	}

	assignees, err := s.db.Query(`
		SELECT ta.task_id, u.id, u.email
		FROM task_assignees ta
		JOIN users u ON u.id = ta.user_id
		JOIN tasks t ON t.id = ta.task_id
		JOIN columns c ON c.id = t.column_id
		WHERE c.board_id = $1
	`, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignees: %w", err)
	}
	defer assignees.Close()
	for assignees.Next() {
		var taskID string
		var u models.UserRef
		if err := assignees.Scan(&taskID, &u.ID, &u.Email); err != nil {
			return nil, err
		}
		if idx, ok := taskIndex[taskID]; ok {
			td := &detail.Columns[idx[0]].Tasks[idx[1]]
			td.Assignees = append(td.Assignees, u)
		}
	}
	if err := assignees.Err(); err != nil {
		return nil, err
	}

	if detail.Tags, err = s.ListBoardTags(boardID); err != nil {
		return nil, err
	}
	if detail.Memberships, err = s.ListBoardMembers(boardID); err != nil {
		return nil, err
	}
	return detail, nil
}

// ================= Memberships =================

func (s *PostgresStore) GetMembership(boardID, userID string) (*models.Membership, error) {
	var m models.Membership
	var role string
	err := s.db.QueryRow(`
		SELECT id, board_id, user_id, role, created_at
		FROM memberships WHERE board_id = $1 AND user_id = $2
	`, boardID, userID).Scan(&m.ID, &m.BoardID, &m.UserID, &role, &m.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("membership: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	m.Role = models.MemberRole(role)
	return &m, nil
}

// AddMembership upserts; an existing (board, user) row is left untouched so
// re-joining is a no-op merge rather than an error.
func (s *PostgresStore) AddMembership(m *models.Membership) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	_, err := s.db.Exec(`
		INSERT INTO memberships (id, board_id, user_id, role, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (board_id, user_id) DO NOTHING
	`, m.ID, m.BoardID, m.UserID, string(m.Role))
	if err != nil {
		return fmt.Errorf("failed to add membership: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListBoardMembers(boardID string) ([]models.Membership, error) {
	rows, err := s.db.Query(`
		SELECT m.id, m.board_id, m.user_id, m.role, m.created_at, u.id, u.email
		FROM memberships m
		JOIN users u ON u.id = m.user_id
		WHERE m.board_id = $1
		ORDER BY m.created_at ASC
	`, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()
	result := []models.Membership{}
	for rows.Next() {
		var m models.Membership
		var role string
		var u models.UserRef
		if err := rows.Scan(&m.ID, &m.BoardID, &m.UserID, &role, &m.CreatedAt, &u.ID, &u.Email); err != nil {
			return nil, err
		}
		m.Role = models.MemberRole(role)
		m.User = &u
		result = append(result, m)
	}
	return result, rows.Err()
}

// ================= Columns =================

func (s *PostgresStore) CreateColumn(col *models.Column) error {
	col.ID = uuid.New().String()
	err := s.db.QueryRow(`
		INSERT INTO columns (id, board_id, title, position, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING created_at
	`, col.ID, col.BoardID, col.Title, col.Position).Scan(&col.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create column: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetColumn(columnID string) (*models.Column, error) {
	var c models.Column
	err := s.db.QueryRow(`SELECT id, board_id, title, position, created_at FROM columns WHERE id = $1`, columnID).
		Scan(&c.ID, &c.BoardID, &c.Title, &c.Position, &c.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("column: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get column: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) UpdateColumnTitle(columnID, title string) error {
	res, err := s.db.Exec(`UPDATE columns SET title = $1 WHERE id = $2`, title, columnID)
	if err != nil {
		return fmt.Errorf("failed to update column: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("column: %w", ErrNotFound)
	}
	return nil
}

// DeleteColumn removes the column's tasks (and their join rows) first; the
// storage layer is not assumed to cascade across this shape.
func (s *PostgresStore) DeleteColumn(columnID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	steps := []string{
		`DELETE FROM task_tags WHERE task_id IN (SELECT id FROM tasks WHERE column_id = $1)`,
		`DELETE FROM task_assignees WHERE task_id IN (SELECT id FROM tasks WHERE column_id = $1)`,
		`DELETE FROM tasks WHERE column_id = $1`,
	}
	for _, q := range steps {
		if _, err := tx.Exec(q, columnID); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to cascade delete column: %w", err)
		}
	}
	res, err := tx.Exec(`DELETE FROM columns WHERE id = $1`, columnID)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to delete column: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		_ = tx.Rollback()
		return fmt.Errorf("column: %w", ErrNotFound)
	}
	return tx.Commit()
}

// UpdateColumnPositions applies a reorder batch atomically. Per-row updates
// are last-write-wins between concurrent batches.
func (s *PostgresStore) UpdateColumnPositions(items []models.PositionUpdate) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	for _, it := range items {
		if _, err := tx.Exec(`UPDATE columns SET position = $1 WHERE id = $2`, it.Position, it.ID); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to reorder columns: %w", err)
		}
	}
	return tx.Commit()
}

func (s *PostgresStore) GetBoardIDByColumn(columnID string) (string, error) {
	var boardID string
	err := s.db.QueryRow(`SELECT board_id FROM columns WHERE id = $1`, columnID).Scan(&boardID)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", fmt.Errorf("column: %w", ErrNotFound)
		}
		return "", fmt.Errorf("failed to resolve column board: %w", err)
	}
	return boardID, nil
}

// ================= Tasks =================

func (s *PostgresStore) CreateTask(task *models.Task) error {
	task.ID = uuid.New().String()
	err := s.db.QueryRow(`
		INSERT INTO tasks (id, column_id, title, position, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING created_at, updated_at
	`, task.ID, task.ColumnID, task.Title, task.Position).Scan(&task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetTask(taskID string) (*models.Task, error) {
	var t models.Task
	err := s.db.QueryRow(`SELECT id, column_id, title, position, created_at, updated_at FROM tasks WHERE id = $1`, taskID).
		Scan(&t.ID, &t.ColumnID, &t.Title, &t.Position, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("task: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return &t, nil
}

func (s *PostgresStore) UpdateTaskTitle(taskID, title string) error {
	res, err := s.db.Exec(`UPDATE tasks SET title = $1, updated_at = NOW() WHERE id = $2`, title, taskID)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("task: %w", ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) DeleteTask(taskID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	for _, q := range []string{
		`DELETE FROM task_tags WHERE task_id = $1`,
		`DELETE FROM task_assignees WHERE task_id = $1`,
	} {
		if _, err := tx.Exec(q, taskID); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to cascade delete task: %w", err)
		}
	}
	res, err := tx.Exec(`DELETE FROM tasks WHERE id = $1`, taskID)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		_ = tx.Rollback()
		return fmt.Errorf("task: %w", ErrNotFound)
	}
	return tx.Commit()
}

// MoveTasks reassigns every task in the batch to columnID with its new
// position, in one transaction. The previous column is implicit in each
// task's prior state; no detachment step is needed.
func (s *PostgresStore) MoveTasks(columnID string, items []models.PositionUpdate) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	for _, it := range items {
		if _, err := tx.Exec(`UPDATE tasks SET column_id = $1, position = $2, updated_at = NOW() WHERE id = $3`,
			columnID, it.Position, it.ID); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to reorder tasks: %w", err)
		}
	}
	return tx.Commit()
}

func (s *PostgresStore) GetBoardIDByTask(taskID string) (string, error) {
	var boardID string
	err := s.db.QueryRow(`
		SELECT c.board_id FROM tasks t JOIN columns c ON t.column_id = c.id WHERE t.id = $1
	`, taskID).Scan(&boardID)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", fmt.Errorf("task: %w", ErrNotFound)
		}
		return "", fmt.Errorf("failed to resolve task board: %w", err)
	}
	return boardID, nil
}

// ================= Assignees =================

func (s *PostgresStore) AddTaskAssignee(taskID, userID string) error {
	_, err := s.db.Exec(`
		INSERT INTO task_assignees (task_id, user_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (task_id, user_id) DO NOTHING
	`, taskID, userID)
	if err != nil {
		return fmt.Errorf("failed to add assignee: %w", err)
	}
	return nil
}

func (s *PostgresStore) RemoveTaskAssignee(taskID, userID string) error {
	// Removing a non-existent assignee is a no-op.
	_, err := s.db.Exec(`DELETE FROM task_assignees WHERE task_id = $1 AND user_id = $2`, taskID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove assignee: %w", err)
	}
	return nil
}

// ================= Tags =================

func (s *PostgresStore) CreateTag(tag *models.Tag) error {
	tag.ID = uuid.New().String()
	err := s.db.QueryRow(`
		INSERT INTO tags (id, board_id, name, color, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING created_at
	`, tag.ID, tag.BoardID, tag.Name, tag.Color).Scan(&tag.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create tag: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListBoardTags(boardID string) ([]models.Tag, error) {
	rows, err := s.db.Query(`SELECT id, board_id, name, color, created_at FROM tags WHERE board_id = $1 ORDER BY created_at ASC`, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	defer rows.Close()
	result := []models.Tag{}
	for rows.Next() {
		var g models.Tag
		if err := rows.Scan(&g.ID, &g.BoardID, &g.Name, &g.Color, &g.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, g)
	}
	return result, rows.Err()
}

func (s *PostgresStore) AttachTag(taskID, tagID string) error {
	_, err := s.db.Exec(`
		INSERT INTO task_tags (task_id, tag_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (task_id, tag_id) DO NOTHING
	`, taskID, tagID)
	if err != nil {
		return fmt.Errorf("failed to attach tag: %w", err)
	}
	return nil
}

func (s *PostgresStore) DetachTag(taskID, tagID string) error {
	res, err := s.db.Exec(`DELETE FROM task_tags WHERE task_id = $1 AND tag_id = $2`, taskID, tagID)
	if err != nil {
		return fmt.Errorf("failed to detach tag: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("task tag: %w", ErrNotFound)
	}
	return nil
}

// ================= Invitations =================

func (s *PostgresStore) CreateInvitation(inv *models.Invitation) error {
	inv.ID = uuid.New().String()
	err := s.db.QueryRow(`
		INSERT INTO invitations (id, board_id, token, email, accepted, expires_at, created_at)
		VALUES ($1, $2, $3, $4, FALSE, $5, NOW())
		RETURNING created_at
	`, inv.ID, inv.BoardID, inv.Token, nullIfEmpty(inv.Email), inv.ExpiresAt).Scan(&inv.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create invitation: %w", err)
	}
	return nil
}

// AcceptInvitation claims the token with a compare-and-set and upserts the
// MEMBER membership in the same transaction. The WHERE clause guarantees at
// most one concurrent caller wins; a missing, already-accepted or expired
// token all come back as the same ErrNotFound.
func (s *PostgresStore) AcceptInvitation(token, userID string) (*models.Invitation, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	var inv models.Invitation
	var email sql.NullString
	err = tx.QueryRow(`
		UPDATE invitations
		SET accepted = TRUE
		WHERE token = $1 AND accepted = FALSE AND expires_at > NOW()
		RETURNING id, board_id, token, email, accepted, expires_at, created_at
	`, token).Scan(&inv.ID, &inv.BoardID, &inv.Token, &email, &inv.Accepted, &inv.ExpiresAt, &inv.CreatedAt)
	if err != nil {
		_ = tx.Rollback()
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("invitation: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to accept invitation: %w", err)
	}
	inv.Email = email.String
	_, err = tx.Exec(`
		INSERT INTO memberships (id, board_id, user_id, role, created_at)
		VALUES ($1, $2, $3, 'MEMBER', NOW())
		ON CONFLICT (board_id, user_id) DO NOTHING
	`, uuid.New().String(), inv.BoardID, userID)
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("failed to add membership: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &inv, nil
}

// ================= Notifications =================

func (s *PostgresStore) CreateNotification(n *models.Notification) error {
	n.ID = uuid.New().String()
	data := n.Data
	if len(data) == 0 {
		data = []byte(`{}`)
	}
	err := s.db.QueryRow(`
		INSERT INTO notifications (id, user_id, title, body, data, read, created_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, NOW())
		RETURNING created_at
	`, n.ID, n.UserID, n.Title, nullIfEmpty(n.Body), []byte(data)).Scan(&n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListNotifications(userID string, unreadOnly bool) ([]models.Notification, error) {
	query := `
		SELECT id, user_id, title, COALESCE(body, ''), data, read, created_at
		FROM notifications
		WHERE user_id = $1
	`
	if unreadOnly {
		query += ` AND read = FALSE`
	}
	query += ` ORDER BY created_at DESC LIMIT 50`
	rows, err := s.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()
	result := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		var data []byte
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Body, &data, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		n.Data = data
		result = append(result, n)
	}
	return result, rows.Err()
}

// MarkNotificationRead flips the read flag, scoped to the owning user so a
// foreign id behaves exactly like a missing one.
func (s *PostgresStore) MarkNotificationRead(notificationID, userID string) (*models.Notification, error) {
	var n models.Notification
	var data []byte
	err := s.db.QueryRow(`
		UPDATE notifications SET read = TRUE
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, title, COALESCE(body, ''), data, read, created_at
	`, notificationID, userID).Scan(&n.ID, &n.UserID, &n.Title, &n.Body, &data, &n.Read, &n.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("notification: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to mark notification read: %w", err)
	}
	n.Data = data
	return &n, nil
}

func (s *PostgresStore) MarkAllNotificationsRead(userID string) error {
	_, err := s.db.Exec(`UPDATE notifications SET read = TRUE WHERE user_id = $1 AND read = FALSE`, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}

func (s *PostgresStore) HealthCheck() error {
	return s.db.Ping()
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
