// Package storage is the SQLite gateway. The schema lives in embedded
// migrations applied on Open.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"financas/internal/gateway"
	"financas/internal/log"
)

const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteRepository implements gateway.Gateway on a single SQLite file.
type SQLiteRepository struct {
	db     *sql.DB
	now    func() time.Time
	newID  func() string
	logger *log.Logger
}

var _ gateway.Gateway = (*SQLiteRepository)(nil)

// Option configures a SQLiteRepository.
type Option func(*SQLiteRepository)

// WithClock sets the clock used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(r *SQLiteRepository) { r.now = now }
}

// WithIDs sets the id generator.
func WithIDs(newID func() string) Option {
	return func(r *SQLiteRepository) { r.newID = newID }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(r *SQLiteRepository) { r.logger = l }
}

func dsn(path string) string {
	return "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// NewSQLiteRepository opens the database at dbPath, creating its directory
// and applying pending migrations.
func NewSQLiteRepository(dbPath string, opts ...Option) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	r := &SQLiteRepository{
		db:     db,
		now:    time.Now,
		newID:  uuid.NewString,
		logger: log.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.WithComponent(log.ComponentStorage)
	r.logger.Info("SQLite database ready", "path", dbPath)
	return r, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Transactions() gateway.Transactions {
	return transactionStore{r}
}

func (r *SQLiteRepository) Reminders() gateway.Reminders {
	return reminderStore{r}
}

func (r *SQLiteRepository) Categories() gateway.Categories {
	return categoryStore{r}
}

func (r *SQLiteRepository) PaymentMethods() gateway.PaymentMethods {
	return paymentMethodStore{r}
}

func (r *SQLiteRepository) Owners(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT owner_id FROM transactions
		UNION SELECT owner_id FROM reminders
		UNION SELECT owner_id FROM categories
		UNION SELECT owner_id FROM payment_methods
		ORDER BY 1`)
	if err != nil {
		return nil, fmt.Errorf("list owners: %w", err)
	}
	defer rows.Close()

	owners := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan owner: %w", err)
		}
		owners = append(owners, id)
	}
	return owners, rows.Err()
}

func (r *SQLiteRepository) createdAt() string {
	return r.now().UTC().Format(timeLayout)
}

type scanner interface {
	Scan(dest ...any) error
}

// execOne runs a statement that must touch exactly one row.
func (r *SQLiteRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return gateway.ErrNotFound
	}
	return nil
}

// deleteMany removes ids from table in one statement. Unknown ids are
// skipped.
func (r *SQLiteRepository) deleteMany(ctx context.Context, table string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	query := fmt.Sprintf("DELETE FROM %s WHERE id IN (%s)", table, placeholders)
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete %s: %w", table, err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	return errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return gateway.ErrNotFound
	}
	return err
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
