package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"kanban-board-backend/api"
	"kanban-board-backend/pkg/config"
	"kanban-board-backend/pkg/database"
	"kanban-board-backend/pkg/models"
	"kanban-board-backend/pkg/notify"
	"kanban-board-backend/pkg/utils"
)

// memStore is an in-memory Store used to exercise the handlers without a
// database. It mirrors the contract the Postgres implementation honors:
// sentinel errors, upsert merges and the atomic invite claim.
type memStore struct {
	mu sync.Mutex

	users         map[string]*models.User
	boards        map[string]*models.Board
	memberships   map[string]map[string]*models.Membership // boardID -> userID
	columns       map[string]*models.Column
	tasks         map[string]*models.Task
	tags          map[string]*models.Tag
	taskTags      map[string]map[string]bool // taskID -> tagID
	assignees     map[string]map[string]bool // taskID -> userID
	invitations   map[string]*models.Invitation // by token
	notifications []*models.Notification

	seq  int
	base time.Time
}

func newMemStore() *memStore {
	return &memStore{
		users:       make(map[string]*models.User),
		boards:      make(map[string]*models.Board),
		memberships: make(map[string]map[string]*models.Membership),
		columns:     make(map[string]*models.Column),
		tasks:       make(map[string]*models.Task),
		tags:        make(map[string]*models.Tag),
		taskTags:    make(map[string]map[string]bool),
		assignees:   make(map[string]map[string]bool),
		invitations: make(map[string]*models.Invitation),
		base:        time.Now(),
	}
}

// now returns a strictly increasing timestamp so created_at tiebreaks are
// deterministic.
func (s *memStore) now() time.Time {
	s.seq++
	return s.base.Add(time.Duration(s.seq) * time.Millisecond)
}

func (s *memStore) CreateUser(user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return database.ErrDuplicate
		}
	}
	user.ID = uuid.New().String()
	user.CreatedAt = s.now()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *memStore) GetUserByEmail(email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, database.ErrNotFound
}

func (s *memStore) GetUserByID(id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *memStore) CreateBoard(board *models.Board) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	board.ID = uuid.New().String()
	board.CreatedAt = s.now()
	board.UpdatedAt = board.CreatedAt
	cp := *board
	s.boards[board.ID] = &cp
	s.memberships[board.ID] = map[string]*models.Membership{
		board.OwnerID: {
			ID:        uuid.New().String(),
			BoardID:   board.ID,
			UserID:    board.OwnerID,
			Role:      models.RoleOwner,
			CreatedAt: board.CreatedAt,
		},
	}
	return nil
}

func (s *memStore) ListUserBoards(userID string) ([]models.Board, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Board
	for boardID, members := range s.memberships {
		if _, ok := members[userID]; ok {
			out = append(out, *s.boards[boardID])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *memStore) GetBoard(boardID string) (*models.Board, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.boards[boardID]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (s *memStore) UpdateBoardTitle(boardID, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.boards[boardID]
	if !ok {
		return database.ErrNotFound
	}
	b.Title = title
	b.UpdatedAt = s.now()
	return nil
}

func (s *memStore) DeleteBoard(boardID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.boards[boardID]; !ok {
		return database.ErrNotFound
	}
	for taskID, task := range s.tasks {
		if col, ok := s.columns[task.ColumnID]; ok && col.BoardID == boardID {
			delete(s.taskTags, taskID)
			delete(s.assignees, taskID)
			delete(s.tasks, taskID)
		}
	}
	for colID, col := range s.columns {
		if col.BoardID == boardID {
			delete(s.columns, colID)
		}
	}
	for tagID, tag := range s.tags {
		if tag.BoardID == boardID {
			delete(s.tags, tagID)
		}
	}
	for token, inv := range s.invitations {
		if inv.BoardID == boardID {
			delete(s.invitations, token)
		}
	}
	delete(s.memberships, boardID)
	delete(s.boards, boardID)
	return nil
}

func (s *memStore) GetBoardDetail(boardID string) (*models.BoardDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.boards[boardID]
	if !ok {
		return nil, database.ErrNotFound
	}
	detail := &models.BoardDetail{
		Board:   *b,
		Columns: []models.ColumnDetail{},
		Tags:    []models.Tag{},
	}

	var cols []*models.Column
	for _, c := range s.columns {
		if c.BoardID == boardID {
			cols = append(cols, c)
		}
	}
	sort.Slice(cols, func(i, j int) bool {
		if cols[i].Position != cols[j].Position {
			return cols[i].Position < cols[j].Position
		}
		return cols[i].CreatedAt.Before(cols[j].CreatedAt)
	})
	for _, c := range cols {
		cd := models.ColumnDetail{Column: *c, Tasks: []models.TaskDetail{}}
		var tasks []*models.Task
		for _, t := range s.tasks {
			if t.ColumnID == c.ID {
				tasks = append(tasks, t)
			}
		}
		sort.Slice(tasks, func(i, j int) bool {
			if tasks[i].Position != tasks[j].Position {
				return tasks[i].Position < tasks[j].Position
			}
			return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
		})
		for _, t := range tasks {
			td := models.TaskDetail{Task: *t, Tags: []models.Tag{}, Assignees: []models.UserRef{}}
			for tagID := range s.taskTags[t.ID] {
				td.Tags = append(td.Tags, *s.tags[tagID])
			}
			for userID := range s.assignees[t.ID] {
				if u, ok := s.users[userID]; ok {
					td.Assignees = append(td.Assignees, models.UserRef{ID: u.ID, Email: u.Email})
				}
			}
			cd.Tasks = append(cd.Tasks, td)
		}
		detail.Columns = append(detail.Columns, cd)
	}

	for _, tag := range s.tags {
		if tag.BoardID == boardID {
			detail.Tags = append(detail.Tags, *tag)
		}
	}
	detail.Memberships = s.listBoardMembersLocked(boardID)
	return detail, nil
}

func (s *memStore) GetMembership(boardID, userID string) (*models.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.memberships[boardID][userID]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, database.ErrNotFound
}

func (s *memStore) AddMembership(m *models.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.memberships[m.BoardID] == nil {
		s.memberships[m.BoardID] = make(map[string]*models.Membership)
	}
	if existing, ok := s.memberships[m.BoardID][m.UserID]; ok {
		*m = *existing
		return nil
	}
	m.ID = uuid.New().String()
	m.CreatedAt = s.now()
	cp := *m
	s.memberships[m.BoardID][m.UserID] = &cp
	return nil
}

func (s *memStore) listBoardMembersLocked(boardID string) []models.Membership {
	out := []models.Membership{}
	for _, m := range s.memberships[boardID] {
		cp := *m
		if u, ok := s.users[m.UserID]; ok {
			cp.User = &models.UserRef{ID: u.ID, Email: u.Email}
		}
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (s *memStore) ListBoardMembers(boardID string) ([]models.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listBoardMembersLocked(boardID), nil
}

func (s *memStore) CreateColumn(col *models.Column) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	col.ID = uuid.New().String()
	col.CreatedAt = s.now()
	cp := *col
	s.columns[col.ID] = &cp
	return nil
}

func (s *memStore) GetColumn(columnID string) (*models.Column, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.columns[columnID]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *memStore) UpdateColumnTitle(columnID, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.columns[columnID]
	if !ok {
		return database.ErrNotFound
	}
	c.Title = title
	return nil
}

func (s *memStore) DeleteColumn(columnID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.columns[columnID]; !ok {
		return database.ErrNotFound
	}
	for taskID, t := range s.tasks {
		if t.ColumnID == columnID {
			delete(s.taskTags, taskID)
			delete(s.assignees, taskID)
			delete(s.tasks, taskID)
		}
	}
	delete(s.columns, columnID)
	return nil
}

func (s *memStore) UpdateColumnPositions(items []models.PositionUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range items {
		if c, ok := s.columns[it.ID]; ok {
			c.Position = it.Position
		}
	}
	return nil
}

func (s *memStore) GetBoardIDByColumn(columnID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.columns[columnID]
	if !ok {
		return "", database.ErrNotFound
	}
	return c.BoardID, nil
}

func (s *memStore) CreateTask(task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	task.ID = uuid.New().String()
	task.CreatedAt = s.now()
	task.UpdatedAt = task.CreatedAt
	cp := *task
	s.tasks[task.ID] = &cp
	return nil
}

func (s *memStore) GetTask(taskID string) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[taskID]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *memStore) UpdateTaskTitle(taskID, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[taskID]
	if !ok {
		return database.ErrNotFound
	}
	t.Title = title
	t.UpdatedAt = s.now()
	return nil
}

func (s *memStore) DeleteTask(taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[taskID]; !ok {
		return database.ErrNotFound
	}
	delete(s.taskTags, taskID)
	delete(s.assignees, taskID)
	delete(s.tasks, taskID)
	return nil
}

func (s *memStore) MoveTasks(columnID string, items []models.PositionUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range items {
		if t, ok := s.tasks[it.ID]; ok {
			t.ColumnID = columnID
			t.Position = it.Position
			t.UpdatedAt = s.now()
		}
	}
	return nil
}

func (s *memStore) GetBoardIDByTask(taskID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[taskID]
	if !ok {
		return "", database.ErrNotFound
	}
	c, ok := s.columns[t.ColumnID]
	if !ok {
		return "", database.ErrNotFound
	}
	return c.BoardID, nil
}

func (s *memStore) AddTaskAssignee(taskID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.assignees[taskID] == nil {
		s.assignees[taskID] = make(map[string]bool)
	}
	s.assignees[taskID][userID] = true
	return nil
}

func (s *memStore) RemoveTaskAssignee(taskID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.assignees[taskID], userID)
	return nil
}

func (s *memStore) CreateTag(tag *models.Tag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tag.ID = uuid.New().String()
	tag.CreatedAt = s.now()
	cp := *tag
	s.tags[tag.ID] = &cp
	return nil
}

func (s *memStore) ListBoardTags(boardID string) ([]models.Tag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Tag{}
	for _, t := range s.tags {
		if t.BoardID == boardID {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *memStore) AttachTag(taskID, tagID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.taskTags[taskID] == nil {
		s.taskTags[taskID] = make(map[string]bool)
	}
	s.taskTags[taskID][tagID] = true
	return nil
}

func (s *memStore) DetachTag(taskID, tagID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.taskTags[taskID][tagID] {
		return database.ErrNotFound
	}
	delete(s.taskTags[taskID], tagID)
	return nil
}

func (s *memStore) CreateInvitation(inv *models.Invitation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv.ID = uuid.New().String()
	inv.CreatedAt = s.now()
	cp := *inv
	s.invitations[inv.Token] = &cp
	return nil
}

func (s *memStore) AcceptInvitation(token, userID string) (*models.Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invitations[token]
	if !ok || inv.Accepted || !inv.ExpiresAt.After(time.Now()) {
		return nil, database.ErrNotFound
	}
	inv.Accepted = true
	if s.memberships[inv.BoardID] == nil {
		s.memberships[inv.BoardID] = make(map[string]*models.Membership)
	}
	if _, ok := s.memberships[inv.BoardID][userID]; !ok {
		s.memberships[inv.BoardID][userID] = &models.Membership{
			ID:        uuid.New().String(),
			BoardID:   inv.BoardID,
			UserID:    userID,
			Role:      models.RoleMember,
			CreatedAt: s.now(),
		}
	}
	cp := *inv
	return &cp, nil
}

func (s *memStore) CreateNotification(n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n.ID = uuid.New().String()
	n.CreatedAt = s.now()
	cp := *n
	s.notifications = append(s.notifications, &cp)
	return nil
}

func (s *memStore) ListNotifications(userID string, unreadOnly bool) ([]models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Notification{}
	for i := len(s.notifications) - 1; i >= 0 && len(out) < 50; i-- {
		n := s.notifications[i]
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.Read {
			continue
		}
		out = append(out, *n)
	}
	return out, nil
}

func (s *memStore) MarkNotificationRead(notificationID, userID string) (*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.notifications {
		if n.ID == notificationID && n.UserID == userID {
			n.Read = true
			cp := *n
			return &cp, nil
		}
	}
	return nil, database.ErrNotFound
}

func (s *memStore) MarkAllNotificationsRead(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.notifications {
		if n.UserID == userID {
			n.Read = true
		}
	}
	return nil
}

func (s *memStore) HealthCheck() error { return nil }
func (s *memStore) Close() error       { return nil }

// notificationsFor returns all stored notifications for a user in insertion
// order, for assertions.
func (s *memStore) notificationsFor(userID string) []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Notification
	for _, n := range s.notifications {
		if n.UserID == userID {
			out = append(out, *n)
		}
	}
	return out
}

// testEnv wires the real router over the in-memory store so requests travel
// the same middleware and routing path as production.
type testEnv struct {
	store    *memStore
	notifier *notify.Notifier
	router   http.Handler
	jwt      *utils.JWTService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := &config.Config{
		Environment:    "development",
		Port:           "4000",
		JWTSecret:      "test-secret",
		AppOrigin:      "http://localhost:5173",
		AllowedOrigins: []string{"*"},
	}
	store := newMemStore()
	notifier := notify.New(store)
	return &testEnv{
		store:    store,
		notifier: notifier,
		router:   api.NewRouter(cfg, store, notifier),
		jwt:      utils.NewJWTService(cfg.JWTSecret),
	}
}

func (e *testEnv) newUser(t *testing.T, email string) *models.User {
	t.Helper()
	hash, err := utils.HashPassword("pass1234")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := &models.User{Email: email, Password: hash}
	if err := e.store.CreateUser(u); err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}

func (e *testEnv) token(t *testing.T, u *models.User) string {
	t.Helper()
	tok, err := e.jwt.GenerateToken(u.ID, u.Email)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return tok
}

// do sends a request through the full router. A nil user sends the request
// unauthenticated.
func (e *testEnv) do(t *testing.T, user *models.User, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != nil {
		req.Header.Set("Authorization", "Bearer "+e.token(t, user))
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

// decodeData unmarshals the data field of a success envelope into v.
func decodeData(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	var env struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %s)", err, rr.Body.String())
	}
	if !env.Success {
		t.Fatalf("expected success envelope, got %s", rr.Body.String())
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		t.Fatalf("decode data: %v (data %s)", err, env.Data)
	}
}

// errMessage extracts the error message of a failure envelope.
func errMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Success bool `json:"success"`
		Error   *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %s)", err, rr.Body.String())
	}
	if env.Error == nil {
		t.Fatalf("expected error envelope, got %s", rr.Body.String())
	}
	return env.Error.Message
}

// newBoard creates a board owned by user via the API and returns it.
func (e *testEnv) newBoard(t *testing.T, owner *models.User, title string) models.Board {
	t.Helper()
	rr := e.do(t, owner, http.MethodPost, "/boards", map[string]string{"title": title})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create board: status %d body %s", rr.Code, rr.Body.String())
	}
	var data struct {
		Board models.Board `json:"board"`
	}
	decodeData(t, rr, &data)
	return data.Board
}

func (e *testEnv) newColumn(t *testing.T, user *models.User, boardID, title string, position int) models.Column {
	t.Helper()
	rr := e.do(t, user, http.MethodPost, "/boards/"+boardID+"/columns",
		map[string]interface{}{"title": title, "position": position})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create column: status %d body %s", rr.Code, rr.Body.String())
	}
	var data struct {
		Column models.Column `json:"column"`
	}
	decodeData(t, rr, &data)
	return data.Column
}

func (e *testEnv) newTask(t *testing.T, user *models.User, columnID, title string, position int) models.Task {
	t.Helper()
	rr := e.do(t, user, http.MethodPost, "/columns/"+columnID+"/tasks",
		map[string]interface{}{"title": title, "position": position})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create task: status %d body %s", rr.Code, rr.Body.String())
	}
	var data struct {
		Task models.Task `json:"task"`
	}
	decodeData(t, rr, &data)
	return data.Task
}

var _ database.Store = (*memStore)(nil)
