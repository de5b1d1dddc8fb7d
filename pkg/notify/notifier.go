// Package notify implements the best-effort notification fan-out. Delivery
// is advisory: it never blocks the triggering request, and a failed write is
// logged and swallowed rather than surfaced to the HTTP caller.
package notify

import (
	"encoding/json"
	"sync"

	log "github.com/sirupsen/logrus"

	"kanban-board-backend/pkg/database"
	"kanban-board-backend/pkg/models"
)

// Notifier dispatches notification writes on their own goroutines so a slow
// or failing store never delays the response path.
type Notifier struct {
	store database.Store
	wg    sync.WaitGroup
}

// New creates a Notifier on top of the given store.
func New(store database.Store) *Notifier {
	return &Notifier{store: store}
}

// Notify records an event for one user, fire-and-forget. data, when present,
// becomes the structured payload. Any failure is absorbed here.
func (n *Notifier) Notify(userID, title, body string, data map[string]interface{}) {
	var payload json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			log.WithError(err).WithField("user", userID).Warn("notify: payload marshal failed")
		} else {
			payload = b
		}
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		err := n.store.CreateNotification(&models.Notification{
			UserID: userID,
			Title:  title,
			Body:   body,
			Data:   payload,
		})
		if err != nil {
			log.WithError(err).WithFields(log.Fields{
				"user":  userID,
				"title": title,
			}).Warn("notify: delivery failed")
		}
	}()
}

// Wait blocks until all in-flight deliveries finish. Used on shutdown and
// in tests; request handlers never call it.
func (n *Notifier) Wait() {
	n.wg.Wait()
}
