package handlers

import (
	"errors"
	"net/http"

	chiRoute "github.com/go-chi/chi/v5"

	"kanban-board-backend/pkg/config"
	"kanban-board-backend/pkg/database"
	"kanban-board-backend/pkg/middleware"
	"kanban-board-backend/pkg/models"
	"kanban-board-backend/pkg/utils"
)

// NotificationsHandler serves the caller's notification feed.
type NotificationsHandler struct {
	config *config.Config
	db     database.Store
}

func NewNotificationsHandler(cfg *config.Config, db database.Store) *NotificationsHandler {
	return &NotificationsHandler{config: cfg, db: db}
}

// GET /notifications?unread=true
func (h *NotificationsHandler) List(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}
	unreadOnly := utils.GetQueryParam(r, "unread", "") == "true"
	items, err := h.db.ListNotifications(user.ID, unreadOnly)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}
	if items == nil {
		items = []models.Notification{}
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{"notifications": items})
}

// PATCH /notifications/{id}/read
func (h *NotificationsHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}
	id := chiRoute.URLParam(r, "id")
	n, err := h.db.MarkNotificationRead(id, user.ID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			utils.WriteNotFoundResponse(w, "Notification not found")
			return
		}
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{"notification": n})
}

// POST /notifications/read-all
func (h *NotificationsHandler) ReadAll(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}
	if err := h.db.MarkAllNotificationsRead(user.ID); err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{"read": true})
}
