package handlers

import (
	"net/http"
	"strings"

	chiRoute "github.com/go-chi/chi/v5"

	"kanban-board-backend/pkg/config"
	"kanban-board-backend/pkg/database"
	"kanban-board-backend/pkg/middleware"
	"kanban-board-backend/pkg/models"
	"kanban-board-backend/pkg/utils"
)

const defaultTagColor = "#3b82f6"

// TagsHandler serves board-scoped tag creation and listing. Attaching tags
// to tasks lives on TasksHandler.
type TagsHandler struct {
	config *config.Config
	db     database.Store
}

func NewTagsHandler(cfg *config.Config, db database.Store) *TagsHandler {
	return &TagsHandler{config: cfg, db: db}
}

// POST /boards/{id}/tags
func (h *TagsHandler) CreateTag(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}
	boardID := chiRoute.URLParam(r, "id")
	if !requireBoardMember(w, h.db, boardID, user.ID) {
		return
	}
	var req struct {
		Name  string `json:"name"`
		Color string `json:"color"`
	}
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		utils.WriteBadRequestResponse(w, "Name required")
		return
	}
	if req.Color == "" {
		req.Color = defaultTagColor
	}
	tag := &models.Tag{BoardID: boardID, Name: req.Name, Color: req.Color}
	if err := h.db.CreateTag(tag); err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}
	utils.WriteCreatedResponse(w, map[string]interface{}{"tag": tag})
}

// GET /boards/{id}/tags
func (h *TagsHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}
	boardID := chiRoute.URLParam(r, "id")
	if !requireBoardMember(w, h.db, boardID, user.ID) {
		return
	}
	tags, err := h.db.ListBoardTags(boardID)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}
	if tags == nil {
		tags = []models.Tag{}
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{"tags": tags})
}
