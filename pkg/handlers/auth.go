package handlers

import (
	"errors"
	"net/http"
	"strings"

	"kanban-board-backend/pkg/config"
	"kanban-board-backend/pkg/database"
	"kanban-board-backend/pkg/models"
	"kanban-board-backend/pkg/utils"
)

// AuthHandler serves registration, login and the health check.
type AuthHandler struct {
	config *config.Config
	db     database.Store
	jwt    *utils.JWTService
}

// NewAuthHandler creates the auth handler.
func NewAuthHandler(cfg *config.Config, db database.Store) *AuthHandler {
	return &AuthHandler{
		config: cfg,
		db:     db,
		jwt:    utils.NewJWTService(cfg.JWTSecret),
	}
}

// normalizeEmail trims and lowercases; the normalized form is what the
// unique constraint sees.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// GET /health
func (h *AuthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.db.HealthCheck(); err != nil {
		utils.WriteErrorResponseWithCode(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Storage unavailable", "")
		return
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{"status": "ok"})
}

// POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid body")
		return
	}
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		utils.WriteBadRequestResponse(w, "Email and password required")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Register failed")
		return
	}

	user := &models.User{Email: email, Password: hash}
	if err := h.db.CreateUser(user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			utils.WriteConflictResponse(w, "Email already used")
			return
		}
		utils.WriteInternalServerErrorResponse(w, "Register failed")
		return
	}

	token, err := h.jwt.GenerateToken(user.ID, user.Email)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Register failed")
		return
	}
	utils.WriteCreatedResponse(w, models.AuthResponse{User: *user, Token: token})
}

// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid body")
		return
	}
	email := normalizeEmail(req.Email)

	user, err := h.db.GetUserByEmail(email)
	if err != nil || !utils.CheckPassword(user.Password, req.Password) {
		// One message for unknown email and bad password.
		utils.WriteUnauthorizedResponse(w, "Invalid email or password")
		return
	}

	token, err := h.jwt.GenerateToken(user.ID, user.Email)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Login failed")
		return
	}
	utils.WriteSuccessResponse(w, models.AuthResponse{User: *user, Token: token})
}
