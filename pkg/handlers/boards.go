package handlers

import (
	"errors"
	"net/http"
	"strings"

	chiRoute "github.com/go-chi/chi/v5"

	"kanban-board-backend/pkg/config"
	"kanban-board-backend/pkg/database"
	"kanban-board-backend/pkg/middleware"
	"kanban-board-backend/pkg/models"
	"kanban-board-backend/pkg/utils"
)

// BoardsHandler serves board CRUD and the hydrated single-board read.
type BoardsHandler struct {
	config *config.Config
	db     database.Store
}

func NewBoardsHandler(cfg *config.Config, db database.Store) *BoardsHandler {
	return &BoardsHandler{config: cfg, db: db}
}

// GET /boards
func (h *BoardsHandler) ListMyBoards(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}
	boards, err := h.db.ListUserBoards(user.ID)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}
	if boards == nil {
		boards = []models.Board{}
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{"boards": boards})
}

// POST /boards
func (h *BoardsHandler) CreateBoard(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}
	var req struct {
		Title string `json:"title"`
	}
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid body")
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		utils.WriteBadRequestResponse(w, "Title required")
		return
	}

	// Board and OWNER membership are created in one transaction.
	board := &models.Board{Title: title, OwnerID: user.ID}
	if err := h.db.CreateBoard(board); err != nil {
		utils.WriteInternalServerErrorResponse(w, "Create board failed: "+err.Error())
		return
	}
	utils.WriteCreatedResponse(w, map[string]interface{}{"board": board})
}

// PATCH /boards/{id}
func (h *BoardsHandler) RenameBoard(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}
	boardID := chiRoute.URLParam(r, "id")
	var req struct {
		Title string `json:"title"`
	}
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid body")
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		utils.WriteBadRequestResponse(w, "Title required")
		return
	}
	if !requireBoardMember(w, h.db, boardID, user.ID) {
		return
	}
	if err := h.db.UpdateBoardTitle(boardID, title); err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}
	board, err := h.db.GetBoard(boardID)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{"board": board})
}

// GET /boards/{id}
func (h *BoardsHandler) GetBoard(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}
	boardID := chiRoute.URLParam(r, "id")
	if !requireBoardMember(w, h.db, boardID, user.ID) {
		return
	}
	detail, err := h.db.GetBoardDetail(boardID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			utils.WriteNotFoundResponse(w, "Board not found")
			return
		}
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{"board": detail})
}

// DELETE /boards/{id}
func (h *BoardsHandler) DeleteBoard(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}
	boardID := chiRoute.URLParam(r, "id")
	if !requireBoardOwner(w, h.db, boardID, user.ID) {
		return
	}
	if err := h.db.DeleteBoard(boardID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			utils.WriteNotFoundResponse(w, "Board not found")
			return
		}
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{"deleted": true, "id": boardID})
}
