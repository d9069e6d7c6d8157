// Package pgdb implements the repository contracts on Postgres with
// squirrel-built queries. Repositories created by NewRepositories run
// against the pool; those handed to a Transactor callback share one
// *sql.Tx.
package pgdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"service-marketplace-api/internal/repo"
	"service-marketplace-api/internal/repo/repo_errors"
	"service-marketplace-api/pkg/postgres"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type conn struct {
	*postgres.Postgres
	tx *sql.Tx
}

func (c *conn) db() postgres.Querier {
	if c.tx != nil {
		return c.tx
	}

	return c.Database
}

type transactor struct {
	*conn
}

func (t *transactor) WithinTransaction(ctx context.Context, fn func(repos *repo.Repositories) error) error {
	if t.tx != nil {
		return fn(newRepositories(t.conn))
	}

	tx, err := t.Database.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err = fn(newRepositories(&conn{Postgres: t.Postgres, tx: tx})); err != nil {
		if e := tx.Rollback(); e != nil {
			return errors.Join(err, e)
		}

		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

func newRepositories(c *conn) *repo.Repositories {
	return &repo.Repositories{
		Diagnostics:  &DiagnosticsRepo{c},
		Request:      &RequestRepo{c},
		Quote:        &QuoteRepo{c},
		Project:      &ProjectRepo{c},
		Invoice:      &InvoiceRepo{c},
		Notification: &NotificationRepo{c},
		User:         &UserRepo{conn: c, match: providerMatchAdapter{c}},
		Payment:      &PaymentRepo{c},
		Transactor:   &transactor{c},
	}
}

func NewRepositories(pg *postgres.Postgres) *repo.Repositories {
	return newRepositories(&conn{Postgres: pg})
}

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return repo_errors.ErrNotFound
	}

	return err
}

func uniqueViolation(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return repo_errors.ErrAlreadyExists
	}

	return err
}

func affectedOrNotFound(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repo_errors.ErrNotFound
	}

	return nil
}

// parseId maps malformed ids to ErrNotFound; no row can carry them.
func parseId(id string) (uuid.UUID, error) {
	uuidForm, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, repo_errors.ErrNotFound
	}

	return uuidForm, nil
}
