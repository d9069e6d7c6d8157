// Package delivery pushes stored notifications to the recipient's devices.
//
// The Worker listens to the notifications change feed, loads each new
// notification and its recipient, and sends one message per registered push
// token. Delivery is fire-and-forget: failures are counted and logged, the
// business operation that created the notification never sees them.
package delivery

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"service-marketplace-api/internal/entity"
	"service-marketplace-api/internal/realtime"
	"service-marketplace-api/internal/repo"
)

const (
	queueSize = 256
	// remembered ids; the feed repeats a notification on every update
	seenSize = 4096
)

type Content struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Message is the push payload: {notification:{title,body}, data:{click_action, ...params}}.
type Message struct {
	Notification Content           `json:"notification"`
	Data         map[string]string `json:"data"`
}

func NewMessage(n *entity.Notification) Message {
	data := make(map[string]string, len(n.Data)+1)
	for k, v := range n.Data {
		data[k] = v
	}
	data["click_action"] = n.ClickAction

	return Message{
		Notification: Content{Title: n.Title, Body: n.Body},
		Data:         data,
	}
}

// Sender delivers one message to one push token.
type Sender interface {
	Send(ctx context.Context, token string, msg Message) error
}

type Stats struct {
	Delivered uint64 `json:"delivered"`
	Failed    uint64 `json:"failed"`
	Dropped   uint64 `json:"dropped"`
}

type Worker struct {
	notifications repo.Notification
	users         repo.User
	sender        Sender
	logger        *slog.Logger

	queue chan string

	mu       sync.Mutex
	seen     map[string]struct{}
	seenRing []string
	seenNext int

	delivered atomic.Uint64
	failed    atomic.Uint64
	dropped   atomic.Uint64
}

func NewWorker(repos *repo.Repositories, sender Sender, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}

	return &Worker{
		notifications: repos.Notification,
		users:         repos.User,
		sender:        sender,
		logger:        logger,
		queue:         make(chan string, queueSize),
		seen:          make(map[string]struct{}, seenSize),
		seenRing:      make([]string, seenSize),
	}
}

// Attach subscribes the worker to every notification change. The returned func detaches it.
func (w *Worker) Attach(changes realtime.Subscriber) func() {
	return changes.Subscribe(realtime.Notifications, "", func(c realtime.Change) {
		w.Enqueue(c.DocumentId)
	})
}

// Enqueue schedules a notification for delivery without blocking the caller.
func (w *Worker) Enqueue(notificationId string) {
	select {
	case w.queue <- notificationId:
	default:
		w.dropped.Add(1)
		w.logger.Warn("delivery queue full, notification not pushed", "notification", notificationId)
	}
}

// Run delivers queued notifications until ctx is done.
func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case id := <-w.queue:
			w.deliver(ctx, id)
		}
	}
}

// markSeen reports whether id is new, remembering it if so.
func (w *Worker) markSeen(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.seen[id]; ok {
		return false
	}
	if old := w.seenRing[w.seenNext]; old != "" {
		delete(w.seen, old)
	}
	w.seenRing[w.seenNext] = id
	w.seenNext = (w.seenNext + 1) % len(w.seenRing)
	w.seen[id] = struct{}{}

	return true
}

func (w *Worker) deliver(ctx context.Context, id string) {
	if !w.markSeen(id) {
		return
	}

	n, err := w.notifications.GetNotificationById(ctx, id)
	if err != nil {
		w.logger.Warn("notification to push not found", "notification", id, "error", err)
		return
	}
	if n.Read {
		return
	}
	user, err := w.users.GetUserById(ctx, n.UserId.String())
	if err != nil {
		w.logger.Warn("push recipient not found", "notification", id, "user", n.UserId, "error", err)
		return
	}
	if len(user.PushTokens) == 0 {
		w.logger.Debug("recipient has no push tokens", "notification", id, "user", n.UserId)
		return
	}

	msg := NewMessage(n)
	for _, token := range user.PushTokens {
		if err := w.sender.Send(ctx, token, msg); err != nil {
			w.failed.Add(1)
			w.logger.Warn("push failed", "notification", id, "user", n.UserId, "error", err)
			continue
		}
		w.delivered.Add(1)
	}
}

func (w *Worker) Stats() Stats {
	return Stats{
		Delivered: w.delivered.Load(),
		Failed:    w.failed.Load(),
		Dropped:   w.dropped.Load(),
	}
}

// LogSender writes messages to the log instead of sending them.
type LogSender struct {
	Logger *slog.Logger
}

func (s LogSender) Send(ctx context.Context, token string, msg Message) error {
	s.Logger.Info("push", "token", token, "title", msg.Notification.Title, "body", msg.Notification.Body)
	return nil
}
