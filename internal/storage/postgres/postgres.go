// Package postgres is the gateway for the hosted Postgres database.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"financas/internal/core"
	"financas/internal/gateway"
	"financas/internal/log"
)

const uniqueViolation = "23505"

type Store struct {
	pool   *pgxpool.Pool
	now    func() time.Time
	newID  func() string
	logger *log.Logger
}

var _ gateway.Gateway = (*Store)(nil)

// Open connects to databaseURL, applies pending migrations and checks the
// connection.
func Open(ctx context.Context, databaseURL string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.Discard()
	}
	if _, err := Migrate(databaseURL, true); err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger = logger.WithComponent(log.ComponentStorage)
	logger.Info("Postgres database ready", "max_conns", pool.Config().MaxConns)
	return &Store{pool: pool, now: time.Now, newID: uuid.NewString, logger: logger}, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Transactions() gateway.Transactions     { return transactionTable{s} }
func (s *Store) Reminders() gateway.Reminders           { return reminderTable{s} }
func (s *Store) Categories() gateway.Categories         { return categoryTable{s} }
func (s *Store) PaymentMethods() gateway.PaymentMethods { return paymentMethodTable{s} }

func (s *Store) Owners(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT owner_id FROM transactions
		UNION SELECT owner_id FROM reminders
		UNION SELECT owner_id FROM categories
		UNION SELECT owner_id FROM payment_methods
		ORDER BY 1`)
	if err != nil {
		return nil, fmt.Errorf("list owners: %w", err)
	}
	owners, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list owners: %w", err)
	}
	if owners == nil {
		owners = []string{}
	}
	return owners, nil
}

func (s *Store) execOne(ctx context.Context, query string, args ...any) error {
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return gateway.ErrNotFound
	}
	return nil
}

func (s *Store) deleteMany(ctx context.Context, table string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := s.pool.Exec(ctx, "DELETE FROM "+table+" WHERE id = ANY($1)", ids); err != nil {
		return fmt.Errorf("delete %s: %w", table, err)
	}
	return nil
}

// list runs query and collects every row with scan. The result is never nil.
func list[T any](ctx context.Context, s *Store, scan func(pgx.Row) (T, error), query string, args ...any) ([]T, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (T, error) { return scan(row) })
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return gateway.ErrNotFound
	}
	return err
}

func toDate(t time.Time) core.Date {
	return core.NewDate(t.Year(), int(t.Month()), t.Day())
}

func parseAmount(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}
