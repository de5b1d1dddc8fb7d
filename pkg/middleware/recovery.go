package middleware

import (
	"net/http"
	"runtime/debug"

	log "github.com/sirupsen/logrus"

	"kanban-board-backend/pkg/config"
	"kanban-board-backend/pkg/utils"
)

// Recovery turns a handler panic into a 500 response. The stack trace goes
// to the log; clients in production see only a generic message.
func Recovery(cfg *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(log.Fields{
						"panic": err,
						"path":  r.URL.Path,
					}).Error(string(debug.Stack()))

					if cfg.IsDevelopment() {
						utils.WriteErrorResponseWithCode(w, http.StatusInternalServerError,
							"INTERNAL_SERVER_ERROR",
							"Internal server error",
							string(debug.Stack()))
					} else {
						utils.WriteInternalServerErrorResponse(w, "Internal server error occurred")
					}
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
