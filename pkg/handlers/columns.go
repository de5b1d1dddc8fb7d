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

// ColumnsHandler serves column CRUD and bulk reordering.
type ColumnsHandler struct {
	config *config.Config
	db     database.Store
}

func NewColumnsHandler(cfg *config.Config, db database.Store) *ColumnsHandler {
	return &ColumnsHandler{config: cfg, db: db}
}

// POST /boards/{id}/columns
func (h *ColumnsHandler) CreateColumn(w http.ResponseWriter, r *http.Request) {
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

	// The client picks the rank; it is stored verbatim.
	col := &models.Column{BoardID: boardID, Title: req.Title, Position: req.Position}
	if err := h.db.CreateColumn(col); err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}
	utils.WriteCreatedResponse(w, map[string]interface{}{"column": col})
}

// PATCH /columns/{id}
func (h *ColumnsHandler) RenameColumn(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}
	columnID := chiRoute.URLParam(r, "id")
	boardID, err := h.db.GetBoardIDByColumn(columnID)
	if err != nil || !isBoardMember(h.db, boardID, user.ID) {
		// A missing column is indistinguishable from a forbidden one.
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
	if err := h.db.UpdateColumnTitle(columnID, req.Title); err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}
	col, err := h.db.GetColumn(columnID)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{"column": col})
}

// DELETE /columns/{id}
func (h *ColumnsHandler) DeleteColumn(w http.ResponseWriter, r *http.Request) {
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
	if err := h.db.DeleteColumn(columnID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			utils.WriteNotFoundResponse(w, "Column not found")
			return
		}
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{"deleted": true, "id": columnID})
}

// PATCH /columns/reorder
//
// The batch is authorized against the board owning the first item; callers
// must not mix boards in one batch. Applied atomically, last write wins
// between concurrent batches.
func (h *ColumnsHandler) ReorderColumns(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}
	var req struct {
		Items []models.PositionUpdate `json:"items"`
	}
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid body")
		return
	}
	if len(req.Items) == 0 {
		utils.WriteBadRequestResponse(w, "items required")
		return
	}
	boardID, err := h.db.GetBoardIDByColumn(req.Items[0].ID)
	if err != nil || !isBoardMember(h.db, boardID, user.ID) {
		utils.WriteForbiddenResponse(w, "Forbidden")
		return
	}
	if err := h.db.UpdateColumnPositions(req.Items); err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{"reordered": len(req.Items)})
}
