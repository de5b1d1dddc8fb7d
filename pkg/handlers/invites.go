package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	chiRoute "github.com/go-chi/chi/v5"

	"kanban-board-backend/pkg/config"
	"kanban-board-backend/pkg/database"
	"kanban-board-backend/pkg/middleware"
	"kanban-board-backend/pkg/models"
	"kanban-board-backend/pkg/notify"
	"kanban-board-backend/pkg/utils"
)

// InviteLifetime is how long an invite token stays redeemable.
const InviteLifetime = 7 * 24 * time.Hour

// InvitesHandler issues invite links and redeems them into memberships.
type InvitesHandler struct {
	config   *config.Config
	db       database.Store
	notifier *notify.Notifier
}

func NewInvitesHandler(cfg *config.Config, db database.Store, notifier *notify.Notifier) *InvitesHandler {
	return &InvitesHandler{config: cfg, db: db, notifier: notifier}
}

// POST /boards/{id}/invites
//
// Any board member can invite. The token is the only credential: the
// optional email is a hint used to notify a known user, it is not checked
// again on accept.
func (h *InvitesHandler) CreateInvite(w http.ResponseWriter, r *http.Request) {
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
		Email string `json:"email"`
	}
	// Email is optional, so an empty body is fine.
	if err := utils.ParseJSONBody(r, &req); err != nil && !errors.Is(err, io.EOF) {
		utils.WriteBadRequestResponse(w, "Invalid body")
		return
	}

	token, err := utils.GenerateURLToken(24)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}
	inv := &models.Invitation{
		BoardID:   boardID,
		Token:     token,
		Email:     normalizeEmail(req.Email),
		ExpiresAt: time.Now().Add(InviteLifetime),
	}
	if err := h.db.CreateInvitation(inv); err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}

	if inv.Email != "" {
		if invitee, err := h.db.GetUserByEmail(inv.Email); err == nil {
			board, berr := h.db.GetBoard(boardID)
			if berr == nil {
				h.notifier.Notify(invitee.ID, "Board invitation",
					fmt.Sprintf("You were invited to board %q", board.Title),
					map[string]interface{}{"board_id": boardID, "token": token})
			}
		}
	}

	utils.WriteCreatedResponse(w, map[string]interface{}{
		"invite_url": h.config.AppOrigin + "/accept-invite?token=" + token,
	})
}

// POST /invites/accept
//
// Redemption is single-use. The claim runs as a compare-and-set inside the
// store, so concurrent accepts of the same token produce exactly one
// membership; losers see the same opaque 400 as expired or unknown tokens.
func (h *InvitesHandler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}
	var req struct {
		Token string `json:"token"`
	}
	if err := utils.ParseJSONBody(r, &req); err != nil || req.Token == "" {
		utils.WriteBadRequestResponse(w, "Token required")
		return
	}

	inv, err := h.db.AcceptInvitation(req.Token, user.ID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			utils.WriteBadRequestResponse(w, "Invalid invite")
			return
		}
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}

	board, berr := h.db.GetBoard(inv.BoardID)
	boardTitle := inv.BoardID
	if berr == nil {
		boardTitle = board.Title
	}
	h.notifier.Notify(user.ID, "Joined the board",
		fmt.Sprintf("You joined board %q", boardTitle),
		map[string]interface{}{"board_id": inv.BoardID})
	if berr == nil && board.OwnerID != user.ID {
		h.notifier.Notify(board.OwnerID, "Member joined",
			fmt.Sprintf("%s joined board %q", user.Email, boardTitle),
			map[string]interface{}{"board_id": inv.BoardID, "user_id": user.ID})
	}

	utils.WriteSuccessResponse(w, map[string]interface{}{"board_id": inv.BoardID})
}
