package main

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"kanban-board-backend/api"
	"kanban-board-backend/pkg/config"
	"kanban-board-backend/pkg/database"
	"kanban-board-backend/pkg/notify"
)

func main() {
	cfg := config.GetCached()
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("invalid configuration: %v", err)
	}
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	store, err := database.NewPostgresStore(cfg.PostgresDSN)
	if err != nil {
		logrus.Fatalf("database connection failed: %v", err)
	}
	defer store.Close()

	notifier := notify.New(store)
	router := api.NewRouter(cfg, store, notifier)

	logrus.WithFields(logrus.Fields{
		"port": cfg.Port,
		"env":  cfg.Environment,
	}).Info("server starting")
	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		logrus.Fatalf("server stopped: %v", err)
	}
}
