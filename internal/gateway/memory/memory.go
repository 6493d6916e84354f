// Package memory is an in-process gateway. It backs the memory backend and
// is the test double for everything above the gateway.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"financas/internal/core"
	"financas/internal/gateway"
)

type Store struct {
	tx  *table[core.Transaction, core.TransactionPatch]
	rem *table[core.Reminder, core.ReminderPatch]
	cat *table[core.Category, core.CategoryPatch]
	pm  *table[core.PaymentMethod, core.PaymentMethodPatch]
}

// Option configures a Store.
type Option func(*options)

type options struct {
	now   func() time.Time
	newID func() string
}

// WithClock sets the clock used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithIDs sets the id generator.
func WithIDs(newID func() string) Option {
	return func(o *options) { o.newID = newID }
}

func New(opts ...Option) *Store {
	o := options{now: time.Now, newID: uuid.NewString}
	for _, opt := range opts {
		opt(&o)
	}

	return &Store{
		tx: newTable(o,
			func(t core.Transaction) string { return t.OwnerID },
			func(t *core.Transaction, id string, at time.Time) { t.ID, t.CreatedAt = id, at },
			core.Transaction.Validate,
			core.TransactionPatch.Validate,
			core.TransactionPatch.Apply,
			nil,
		),
		rem: newTable(o,
			func(r core.Reminder) string { return r.OwnerID },
			func(r *core.Reminder, id string, at time.Time) { r.ID, r.CreatedAt = id, at },
			core.Reminder.Validate,
			core.ReminderPatch.Validate,
			core.ReminderPatch.Apply,
			nil,
		),
		cat: newTable(o,
			func(c core.Category) string { return c.OwnerID },
			func(c *core.Category, id string, _ time.Time) { c.ID = id },
			core.Category.Validate,
			core.CategoryPatch.Validate,
			core.CategoryPatch.Apply,
			uniqueName(func(c core.Category) string { return c.Name }, core.ErrDuplicateCategory),
		),
		pm: newTable(o,
			func(m core.PaymentMethod) string { return m.OwnerID },
			func(m *core.PaymentMethod, id string, _ time.Time) { m.ID = id },
			core.PaymentMethod.Validate,
			core.PaymentMethodPatch.Validate,
			core.PaymentMethodPatch.Apply,
			uniqueName(func(m core.PaymentMethod) string { return m.Name }, core.ErrDuplicatePaymentName),
		),
	}
}

var _ gateway.Gateway = (*Store)(nil)

func (s *Store) Transactions() gateway.Transactions     { return s.tx }
func (s *Store) Reminders() gateway.Reminders           { return s.rem }
func (s *Store) Categories() gateway.Categories         { return s.cat }
func (s *Store) PaymentMethods() gateway.PaymentMethods { return s.pm }

// Owners returns every owner with at least one record, sorted.
func (s *Store) Owners(_ context.Context) ([]string, error) {
	seen := map[string]struct{}{}
	s.tx.owners(seen)
	s.rem.owners(seen)
	s.cat.owners(seen)
	s.pm.owners(seen)

	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	slices.Sort(out)
	return out, nil
}

func (s *Store) Ping(context.Context) error { return nil }

// table keeps rows in insertion order.
type table[T any, P any] struct {
	mu    sync.RWMutex
	order []string
	rows  map[string]T

	opts          options
	owner         func(T) string
	assign        func(*T, string, time.Time)
	validate      func(T) error
	validatePatch func(P) error
	apply         func(P, T) T
	// conflict reports a uniqueness violation of candidate against the
	// other rows of the same owner.
	conflict func(candidate T, others []T) error
}

func newTable[T any, P any](
	o options,
	owner func(T) string,
	assign func(*T, string, time.Time),
	validate func(T) error,
	validatePatch func(P) error,
	apply func(P, T) T,
	conflict func(T, []T) error,
) *table[T, P] {
	return &table[T, P]{
		rows:          map[string]T{},
		opts:          o,
		owner:         owner,
		assign:        assign,
		validate:      validate,
		validatePatch: validatePatch,
		apply:         apply,
		conflict:      conflict,
	}
}

func (t *table[T, P]) List(ctx context.Context, ownerID string) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.listLocked(ownerID, ""), nil
}

// listLocked returns the owner's rows, skipping the row with id skip.
func (t *table[T, P]) listLocked(ownerID, skip string) []T {
	out := []T{}
	for _, id := range t.order {
		row := t.rows[id]
		if id != skip && t.owner(row) == ownerID {
			out = append(out, row)
		}
	}
	return out
}

func (t *table[T, P]) Create(ctx context.Context, record T) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	if err := t.validate(record); err != nil {
		return zero, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conflict != nil {
		if err := t.conflict(record, t.listLocked(t.owner(record), "")); err != nil {
			return zero, err
		}
	}
	id := t.opts.newID()
	t.assign(&record, id, t.opts.now().UTC())
	t.rows[id] = record
	t.order = append(t.order, id)
	return record, nil
}

func (t *table[T, P]) Update(ctx context.Context, id string, patch P) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := t.validatePatch(patch); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	row, ok := t.rows[id]
	if !ok {
		return gateway.ErrNotFound
	}
	updated := t.apply(patch, row)
	if t.conflict != nil {
		if err := t.conflict(updated, t.listLocked(t.owner(row), id)); err != nil {
			return err
		}
	}
	t.rows[id] = updated
	return nil
}

func (t *table[T, P]) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[id]; !ok {
		return gateway.ErrNotFound
	}
	t.removeLocked(map[string]struct{}{id: {}})
	return nil
}

func (t *table[T, P]) DeleteMany(ctx context.Context, ids []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.removeLocked(drop)
	return nil
}

func (t *table[T, P]) removeLocked(drop map[string]struct{}) {
	kept := t.order[:0]
	for _, id := range t.order {
		if _, ok := drop[id]; ok {
			delete(t.rows, id)
			continue
		}
		kept = append(kept, id)
	}
	t.order = kept
}

func (t *table[T, P]) owners(into map[string]struct{}) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, row := range t.rows {
		into[t.owner(row)] = struct{}{}
	}
}

// uniqueName rejects a record whose name matches another record of the same
// owner, ignoring case and surrounding spaces.
func uniqueName[T any](nameOf func(T) string, dup error) func(T, []T) error {
	return func(candidate T, others []T) error {
		name := normalizeName(nameOf(candidate))
		for _, o := range others {
			if normalizeName(nameOf(o)) == name {
				return dup
			}
		}
		return nil
	}
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
