package handlers

import (
	"net/http"

	"kanban-board-backend/pkg/database"
	"kanban-board-backend/pkg/utils"
)

// Membership resolution backs every authorization decision. A user is a
// member iff they own the board or hold a membership row; an unknown or
// deleted board resolves to "not a member" rather than a distinct error, so
// callers fold absence into 403.

func isBoardMember(db database.Store, boardID, userID string) bool {
	board, err := db.GetBoard(boardID)
	if err != nil {
		return false
	}
	if board.OwnerID == userID {
		return true
	}
	if _, err := db.GetMembership(boardID, userID); err != nil {
		return false
	}
	return true
}

func isBoardOwner(db database.Store, boardID, userID string) bool {
	board, err := db.GetBoard(boardID)
	return err == nil && board.OwnerID == userID
}

func requireBoardMember(w http.ResponseWriter, db database.Store, boardID, userID string) bool {
	if !isBoardMember(db, boardID, userID) {
		utils.WriteForbiddenResponse(w, "Forbidden")
		return false
	}
	return true
}

func requireBoardOwner(w http.ResponseWriter, db database.Store, boardID, userID string) bool {
	if !isBoardOwner(db, boardID, userID) {
		utils.WriteForbiddenResponse(w, "Only board owner can do this")
		return false
	}
	return true
}
