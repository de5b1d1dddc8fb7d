package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	chiRoute "github.com/go-chi/chi/v5"

	"kanban-board-backend/pkg/config"
	"kanban-board-backend/pkg/database"
	"kanban-board-backend/pkg/middleware"
	"kanban-board-backend/pkg/models"
	"kanban-board-backend/pkg/notify"
	"kanban-board-backend/pkg/utils"
)

// TasksHandler serves task CRUD, drag-and-drop reordering, assignees and
// tag attachment.
type TasksHandler struct {
	config   *config.Config
	db       database.Store
	notifier *notify.Notifier
}

func NewTasksHandler(cfg *config.Config, db database.Store, notifier *notify.Notifier) *TasksHandler {
	return &TasksHandler{config: cfg, db: db, notifier: notifier}
}

// POST /columns/{id}/tasks
func (h *TasksHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}
	columnID := chiRoute.URLParam(r, "id")
	boardID, err := h.db.GetBoardIDByColumn(columnID)
	if err != nil || !isBoardMember(h.db, boardID, user.ID) {
		utils.WriteForbiddenResponse(w, "Forbidden")
		return
	}
	var req struct {
		Title    string `json:"title"`
		Position int    `json:"position"`
	}
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		utils.WriteBadRequestResponse(w, "Title required")
		return
	}
	task := &models.Task{ColumnID: columnID, Title: req.Title, Position: req.Position}
	if err := h.db.CreateTask(task); err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}
	utils.WriteCreatedResponse(w, map[string]interface{}{"task": task})
}

// PATCH /tasks/{id}
func (h *TasksHandler) RenameTask(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}
	taskID := chiRoute.URLParam(r, "id")
	boardID, err := h.db.GetBoardIDByTask(taskID)
	if err != nil || !isBoardMember(h.db, boardID, user.ID) {
		utils.WriteForbiddenResponse(w, "Forbidden")
		return
	}
	var req struct {
		Title string `json:"title"`
	}
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		utils.WriteBadRequestResponse(w, "Title required")
		return
	}
	if err := h.db.UpdateTaskTitle(taskID, req.Title); err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}
	task, err := h.db.GetTask(taskID)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{"task": task})
}

// DELETE /tasks/{id}
func (h *TasksHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}
	taskID := chiRoute.URLParam(r, "id")
	boardID, err := h.db.GetBoardIDByTask(taskID)
	if err != nil || !isBoardMember(h.db, boardID, user.ID) {
		utils.WriteForbiddenResponse(w, "Forbidden")
		return
	}
	if err := h.db.DeleteTask(taskID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			utils.WriteNotFoundResponse(w, "Task not found")
			return
		}
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{"deleted": true, "id": taskID})
}

// PATCH /tasks/reorder
//
// One target column for the whole batch: every task in items is moved into
// column_id at its new position, which covers both same-column reordering
// and cross-column drags. Authorization runs against the target column's
// board only.
func (h *TasksHandler) ReorderTasks(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}
	var req struct {
		ColumnID string                  `json:"column_id"`
		Items    []models.PositionUpdate `json:"items"`
	}
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid body")
		return
	}
	if req.ColumnID == "" || len(req.Items) == 0 {
		utils.WriteBadRequestResponse(w, "column_id and items required")
		return
	}
	boardID, err := h.db.GetBoardIDByColumn(req.ColumnID)
	if err != nil || !isBoardMember(h.db, boardID, user.ID) {
		utils.WriteForbiddenResponse(w, "Forbidden")
		return
	}
	if err := h.db.MoveTasks(req.ColumnID, req.Items); err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{"reordered": len(req.Items)})
}

// POST /tasks/{id}/assignees/{userID}
func (h *TasksHandler) AddAssignee(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}
	taskID := chiRoute.URLParam(r, "id")
	targetID := chiRoute.URLParam(r, "userID")
	boardID, err := h.db.GetBoardIDByTask(taskID)
	if err != nil || !isBoardMember(h.db, boardID, user.ID) {
		utils.WriteForbiddenResponse(w, "Forbidden")
		return
	}

	// The assignee must hold board membership at assignment time.
	if _, err := h.db.GetMembership(boardID, targetID); err != nil {
		utils.WriteBadRequestResponse(w, "User is not a member of this board")
		return
	}

	if err := h.db.AddTaskAssignee(taskID, targetID); err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}

	if targetID != user.ID {
		task, terr := h.db.GetTask(taskID)
		board, berr := h.db.GetBoard(boardID)
		if terr == nil && berr == nil {
			h.notifier.Notify(targetID, "Assigned to a task",
				fmt.Sprintf("You were assigned %q on board %q", task.Title, board.Title),
				map[string]interface{}{"board_id": boardID, "task_id": taskID})
		}
	}

	utils.WriteSuccessResponse(w, map[string]interface{}{"assigned": true})
}

// DELETE /tasks/{id}/assignees/{userID}
func (h *TasksHandler) RemoveAssignee(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}
	taskID := chiRoute.URLParam(r, "id")
	targetID := chiRoute.URLParam(r, "userID")
	boardID, err := h.db.GetBoardIDByTask(taskID)
	if err != nil || !isBoardMember(h.db, boardID, user.ID) {
		utils.WriteForbiddenResponse(w, "Forbidden")
		return
	}
	// Removing a non-assignee succeeds silently.
	if err := h.db.RemoveTaskAssignee(taskID, targetID); err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{"removed": true})
}

// POST /tasks/{id}/tags/{tagID}
func (h *TasksHandler) AttachTag(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}
	taskID := chiRoute.URLParam(r, "id")
	tagID := chiRoute.URLParam(r, "tagID")
	boardID, err := h.db.GetBoardIDByTask(taskID)
	if err != nil || !isBoardMember(h.db, boardID, user.ID) {
		utils.WriteForbiddenResponse(w, "Forbidden")
		return
	}
	if err := h.db.AttachTag(taskID, tagID); err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{"attached": true})
}

// DELETE /tasks/{id}/tags/{tagID}
func (h *TasksHandler) DetachTag(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}
	taskID := chiRoute.URLParam(r, "id")
	tagID := chiRoute.URLParam(r, "tagID")
	boardID, err := h.db.GetBoardIDByTask(taskID)
	if err != nil || !isBoardMember(h.db, boardID, user.ID) {
		utils.WriteForbiddenResponse(w, "Forbidden")
		return
	}
	if err := h.db.DetachTag(taskID, tagID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			utils.WriteNotFoundResponse(w, "Tag not attached")
			return
		}
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{"detached": true})
}
