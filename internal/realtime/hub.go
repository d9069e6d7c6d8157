// Package realtime fans document-store change notifications out to
// in-process subscribers.
//
// Producers (the in-memory store after a commit, or the Postgres
// LISTEN/NOTIFY feed) call Publish. Subscribers register a callback for
// one collection, optionally narrowed to the changes that concern a single
// user, and get back an unsubscribe func that must be called when the
// consuming scope ends.
package realtime

import (
	"log/slog"
	"sync"
)

const (
	Requests      = "requests"
	Quotes        = "quotes"
	Projects      = "projects"
	Invoices      = "invoices"
	Notifications = "notifications"
	Users         = "users"
)

// Change describes one committed write. UserIds lists every user the
// document is visible to (owner, provider, recipient).
type Change struct {
	Collection string   `json:"collection"`
	DocumentId string   `json:"id"`
	UserIds    []string `json:"users"`
}

func (c Change) concerns(userId string) bool {
	if userId == "" {
		return true
	}
	for _, id := range c.UserIds {
		if id == userId {
			return true
		}
	}

	return false
}

type Publisher interface {
	Publish(change Change)
}

type Subscriber interface {
	Subscribe(collection string, userId string, fn func(Change)) (unsubscribe func())
}

type subscription struct {
	collection string
	userId     string
	fn         func(Change)
	// serializes deliveries to one subscriber when several producers publish at once
	mu sync.Mutex
}

type Hub struct {
	mu     sync.RWMutex
	nextId uint64
	subs   map[uint64]*subscription
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}

	return &Hub{
		subs:   make(map[uint64]*subscription),
		logger: logger,
	}
}

func (h *Hub) Subscribe(collection string, userId string, fn func(Change)) func() {
	h.mu.Lock()
	h.nextId++
	id := h.nextId
	h.subs[id] = &subscription{collection: collection, userId: userId, fn: fn}
	h.mu.Unlock()

	var once sync.Once

	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
		})
	}
}

// Publish delivers the change synchronously to every matching subscriber.
// A panicking callback is logged and does not stop delivery to the others.
func (h *Hub) Publish(change Change) {
	h.mu.RLock()
	targets := make([]*subscription, 0, len(h.subs))
	for _, s := range h.subs {
		if s.collection == change.Collection && change.concerns(s.userId) {
			targets = append(targets, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range targets {
		h.deliver(s, change)
	}
}

func (h *Hub) deliver(s *subscription, change Change) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("subscriber panicked",
				"collection", change.Collection, "id", change.DocumentId, "panic", r)
		}
	}()

	s.fn(change)
}

// Len returns the number of live subscriptions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.subs)
}
