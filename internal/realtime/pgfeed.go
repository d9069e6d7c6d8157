package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/lib/pq"
)

// Channel is the Postgres notification channel the table triggers write to.
const Channel = "marketplace_changes"

// PostgresFeed relays pg_notify payloads emitted by the table triggers to a Publisher.
type PostgresFeed struct {
	listener  *pq.Listener
	publisher Publisher
	logger    *slog.Logger
}

func NewPostgresFeed(connStr string, publisher Publisher, logger *slog.Logger) (*PostgresFeed, error) {
	listener := pq.NewListener(connStr, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			logger.Warn("change feed listener event", "event", ev, "error", err)
		}
	})

	if err := listener.Listen(Channel); err != nil {
		listener.Close()
		return nil, err
	}

	return &PostgresFeed{listener: listener, publisher: publisher, logger: logger}, nil
}

// Run blocks until ctx is done, forwarding every notification.
func (f *PostgresFeed) Run(ctx context.Context) {
	defer f.listener.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case n := <-f.listener.Notify:
			// nil after a reconnect: changes made while disconnected are lost,
			// subscribers resynchronize on the next change
			if n == nil {
				f.logger.Info("change feed reconnected")
				continue
			}
			change, err := decodeChange(n.Extra)
			if err != nil {
				f.logger.Warn("malformed change notification", "payload", n.Extra, "error", err)
				continue
			}
			f.publisher.Publish(change)
		case <-time.After(90 * time.Second):
			if err := f.listener.Ping(); err != nil {
				f.logger.Warn("change feed ping failed", "error", err)
			}
		}
	}
}

func decodeChange(payload string) (Change, error) {
	var change Change
	if err := json.Unmarshal([]byte(payload), &change); err != nil {
		return Change{}, err
	}

	users := change.UserIds[:0]
	for _, id := range change.UserIds {
		if id != "" {
			users = append(users, id)
		}
	}
	change.UserIds = users

	return change, nil
}
