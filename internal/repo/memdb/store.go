// Package memdb is an in-memory implementation of the repository
// contracts. It keeps whole documents, serializes writers, supports
// snapshot transactions and emits change notifications after commit, the
// way the hosted document store does. The server runs on it with
// --store=memory and the service tests use it as their database.
package memdb

import (
	"context"
	"errors"
	"sort"
	"sync"

	"service-marketplace-api/internal/entity"
	"service-marketplace-api/internal/realtime"
	"service-marketplace-api/internal/repo"
)

type tables struct {
	requests      map[string]entity.Request
	quotes        map[string]entity.Quote
	projects      map[string]entity.Project
	invoices      map[string]entity.Invoice
	notifications map[string]entity.Notification
	users         map[string]entity.User
	ratings       map[string]entity.ProviderRating
	payments      map[string]entity.Payment
}

func newTables() *tables {
	return &tables{
		requests:      make(map[string]entity.Request),
		quotes:        make(map[string]entity.Quote),
		projects:      make(map[string]entity.Project),
		invoices:      make(map[string]entity.Invoice),
		notifications: make(map[string]entity.Notification),
		users:         make(map[string]entity.User),
		ratings:       make(map[string]entity.ProviderRating),
		payments:      make(map[string]entity.Payment),
	}
}

func (t *tables) clone() *tables {
	c := newTables()
	for k, v := range t.requests {
		c.requests[k] = cloneRequest(v)
	}
	for k, v := range t.quotes {
		c.quotes[k] = cloneQuote(v)
	}
	for k, v := range t.projects {
		c.projects[k] = cloneProject(v)
	}
	for k, v := range t.invoices {
		c.invoices[k] = cloneInvoice(v)
	}
	for k, v := range t.notifications {
		c.notifications[k] = cloneNotification(v)
	}
	for k, v := range t.users {
		c.users[k] = cloneUser(v)
	}
	for k, v := range t.ratings {
		c.ratings[k] = v
	}
	for k, v := range t.payments {
		c.payments[k] = v
	}

	return c
}

type Store struct {
	// writeMu serializes writers; a transaction holds it from begin to commit
	writeMu sync.Mutex
	mu      sync.RWMutex
	data    *tables
	feed    realtime.Publisher
}

// New creates an empty store. feed may be nil when nobody listens for changes.
func New(feed realtime.Publisher) *Store {
	return &Store{data: newTables(), feed: feed}
}

func (s *Store) publish(changes []realtime.Change) {
	if s.feed == nil {
		return
	}
	for _, c := range changes {
		s.feed.Publish(c)
	}
}

// session binds repositories either to the store directly or to an open
// transaction. A transaction works on its own copy of the tables, so
// readers outside it keep seeing committed state until the copy is swapped in.
type session struct {
	store   *Store
	tx      *tables
	pending []realtime.Change
}

func (ss *session) inTx() bool {
	return ss.tx != nil
}

func (ss *session) read(fn func(t *tables) error) error {
	if ss.inTx() {
		return fn(ss.tx)
	}

	ss.store.mu.RLock()
	defer ss.store.mu.RUnlock()

	return fn(ss.store.data)
}

func (ss *session) write(fn func(t *tables) ([]realtime.Change, error)) error {
	if ss.inTx() {
		changes, err := fn(ss.tx)
		if err == nil {
			ss.pending = append(ss.pending, changes...)
		}
		return err
	}

	ss.store.writeMu.Lock()

	ss.store.mu.Lock()
	changes, err := fn(ss.store.data)
	ss.store.mu.Unlock()

	ss.store.writeMu.Unlock()
	if err != nil {
		return err
	}
	ss.store.publish(changes)

	return nil
}

type transactor struct {
	session *session
}

func (t *transactor) WithinTransaction(ctx context.Context, fn func(repos *repo.Repositories) error) error {
	if t.session.inTx() {
		return fn(newRepositories(t.session))
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s := t.session.store
	s.writeMu.Lock()

	s.mu.RLock()
	working := s.data.clone()
	s.mu.RUnlock()

	txSession := &session{store: s, tx: working}
	if err := runTx(fn, newRepositories(txSession)); err != nil {
		s.writeMu.Unlock()
		return err
	}

	s.mu.Lock()
	s.data = working
	s.mu.Unlock()
	s.writeMu.Unlock()

	s.publish(txSession.pending)

	return nil
}

var errTxPanic = errors.New("transaction aborted by panic")

func runTx(fn func(repos *repo.Repositories) error, repos *repo.Repositories) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errTxPanic
		}
	}()

	return fn(repos)
}

func newRepositories(ss *session) *repo.Repositories {
	return &repo.Repositories{
		Diagnostics:  &diagnosticsRepo{},
		Request:      &requestRepo{ss},
		Quote:        &quoteRepo{ss},
		Project:      &projectRepo{ss},
		Invoice:      &invoiceRepo{ss},
		Notification: &notificationRepo{ss},
		User:         &userRepo{ss},
		Payment:      &paymentRepo{ss},
		Transactor:   &transactor{ss},
	}
}

// NewRepositories returns repositories working directly against the store.
func NewRepositories(s *Store) *repo.Repositories {
	return newRepositories(&session{store: s})
}

type diagnosticsRepo struct{}

func (r *diagnosticsRepo) Ping(ctx context.Context) error {
	return ctx.Err()
}

func paginate[T any](items []T, pg *entity.PaginationInput) []T {
	if pg == nil {
		return items
	}
	if pg.Offset >= len(items) {
		return make([]T, 0)
	}
	items = items[pg.Offset:]
	if pg.Limit > 0 && pg.Limit < len(items) {
		items = items[:pg.Limit]
	}

	return items
}

// sortNewestFirst orders by createdAt descending, breaking ties by id for stable output.
func sortNewestFirst[T any](items []T, key func(T) (int64, string)) {
	sort.Slice(items, func(i, j int) bool {
		ti, idi := key(items[i])
		tj, idj := key(items[j])
		if ti != tj {
			return ti > tj
		}
		return idi > idj
	})
}
