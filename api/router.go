package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"kanban-board-backend/pkg/config"
	"kanban-board-backend/pkg/database"
	"kanban-board-backend/pkg/handlers"
	"kanban-board-backend/pkg/middleware"
	"kanban-board-backend/pkg/notify"
	"kanban-board-backend/pkg/utils"
)

// NewRouter assembles the full HTTP surface. All board, column, task,
// invite and notification routes sit behind JWT auth; /health and the two
// auth endpoints are public.
func NewRouter(cfg *config.Config, db database.Store, notifier *notify.Notifier) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery(cfg))
	r.Use(middleware.CORS(cfg))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(chimw.Compress(5))
	r.Use(middleware.ContentTypeJSON)
	r.Use(middleware.MaxBodySize(1 << 20))

	authHandler := handlers.NewAuthHandler(cfg, db)
	boardsHandler := handlers.NewBoardsHandler(cfg, db)
	columnsHandler := handlers.NewColumnsHandler(cfg, db)
	tasksHandler := handlers.NewTasksHandler(cfg, db, notifier)
	tagsHandler := handlers.NewTagsHandler(cfg, db)
	invitesHandler := handlers.NewInvitesHandler(cfg, db, notifier)
	notificationsHandler := handlers.NewNotificationsHandler(cfg, db)

	r.Get("/health", authHandler.HealthCheck)
	r.Post("/auth/register", authHandler.Register)
	r.Post("/auth/login", authHandler.Login)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(cfg))

		r.Get("/boards", boardsHandler.ListMyBoards)
		r.Post("/boards", boardsHandler.CreateBoard)
		r.Get("/boards/{id}", boardsHandler.GetBoard)
		r.Patch("/boards/{id}", boardsHandler.RenameBoard)
		r.Delete("/boards/{id}", boardsHandler.DeleteBoard)

		r.Post("/boards/{id}/columns", columnsHandler.CreateColumn)
		r.Patch("/columns/reorder", columnsHandler.ReorderColumns)
		r.Patch("/columns/{id}", columnsHandler.RenameColumn)
		r.Delete("/columns/{id}", columnsHandler.DeleteColumn)

		r.Post("/columns/{id}/tasks", tasksHandler.CreateTask)
		r.Patch("/tasks/reorder", tasksHandler.ReorderTasks)
		r.Patch("/tasks/{id}", tasksHandler.RenameTask)
		r.Delete("/tasks/{id}", tasksHandler.DeleteTask)
		r.Post("/tasks/{id}/assignees/{userID}", tasksHandler.AddAssignee)
		r.Delete("/tasks/{id}/assignees/{userID}", tasksHandler.RemoveAssignee)
		r.Post("/tasks/{id}/tags/{tagID}", tasksHandler.AttachTag)
		r.Delete("/tasks/{id}/tags/{tagID}", tasksHandler.DetachTag)

		r.Get("/boards/{id}/tags", tagsHandler.ListTags)
		r.Post("/boards/{id}/tags", tagsHandler.CreateTag)

		r.Post("/boards/{id}/invites", invitesHandler.CreateInvite)
		r.Post("/invites/accept", invitesHandler.AcceptInvite)

		r.Get("/notifications", notificationsHandler.List)
		r.Patch("/notifications/{id}/read", notificationsHandler.MarkRead)
		r.Post("/notifications/read-all", notificationsHandler.ReadAll)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteNotFoundResponse(w, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteErrorResponseWithCode(w, http.StatusMethodNotAllowed,
			"METHOD_NOT_ALLOWED", "Method not allowed", "")
	})

	return r
}
