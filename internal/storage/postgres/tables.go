package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"financas/internal/core"
)

const transactionSelect = `SELECT id, owner_id, description, amount::text, type, category, subcategory,
	date, status, payment_method, group_id, created_at FROM transactions`

type transactionTable struct{ s *Store }

func scanTransaction(row pgx.Row) (core.Transaction, error) {
	var (
		t                   core.Transaction
		amount, typ, status string
		date                time.Time
	)
	err := row.Scan(&t.ID, &t.OwnerID, &t.Description, &amount, &typ, &t.Category, &t.Subcategory,
		&date, &status, &t.PaymentMethod, &t.GroupID, &t.CreatedAt)
	if err != nil {
		return core.Transaction{}, err
	}
	if t.Amount, err = parseAmount(amount); err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s amount: %w", t.ID, err)
	}
	t.Type, t.Status, t.Date = core.TransactionType(typ), core.Status(status), toDate(date)
	return t, nil
}

func (tt transactionTable) List(ctx context.Context, ownerID string) ([]core.Transaction, error) {
	out, err := list(ctx, tt.s, scanTransaction, transactionSelect+` WHERE owner_id = $1 ORDER BY seq`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return out, nil
}

func (tt transactionTable) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	t.ID = tt.s.newID()
	t.CreatedAt = tt.s.now().UTC()

	_, err := tt.s.pool.Exec(ctx, `INSERT INTO transactions (id, owner_id, description, amount, type,
		category, subcategory, date, status, payment_method, group_id, created_at)
		VALUES ($1, $2, $3, $4::text::numeric, $5, $6, $7, $8, $9, $10, $11, $12)`,
		t.ID, t.OwnerID, t.Description, t.Amount.String(), string(t.Type),
		t.Category, t.Subcategory, t.Date.Time, string(t.Status), t.PaymentMethod, t.GroupID, t.CreatedAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	return t, nil
}

func (tt transactionTable) Update(ctx context.Context, id string, p core.TransactionPatch) error {
	if err := p.Validate(); err != nil {
		return err
	}
	current, err := scanTransaction(tt.s.pool.QueryRow(ctx, transactionSelect+` WHERE id = $1`, id))
	if err != nil {
		return fmt.Errorf("update transaction %s: %w", id, notFound(err))
	}
	t := p.Apply(current)
	if err := t.Validate(); err != nil {
		return err
	}

	err = tt.s.execOne(ctx, `UPDATE transactions SET description = $1, amount = $2::text::numeric, type = $3,
		category = $4, subcategory = $5, date = $6, status = $7, payment_method = $8 WHERE id = $9`,
		t.Description, t.Amount.String(), string(t.Type),
		t.Category, t.Subcategory, t.Date.Time, string(t.Status), t.PaymentMethod, id)
	if err != nil {
		return fmt.Errorf("update transaction %s: %w", id, err)
	}
	return nil
}

func (tt transactionTable) Delete(ctx context.Context, id string) error {
	if err := tt.s.execOne(ctx, `DELETE FROM transactions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	return nil
}

func (tt transactionTable) DeleteMany(ctx context.Context, ids []string) error {
	return tt.s.deleteMany(ctx, "transactions", ids)
}

const reminderSelect = `SELECT id, owner_id, title, date, details, done, created_at FROM reminders`

type reminderTable struct{ s *Store }

func scanReminder(row pgx.Row) (core.Reminder, error) {
	var (
		r    core.Reminder
		date time.Time
	)
	if err := row.Scan(&r.ID, &r.OwnerID, &r.Title, &date, &r.Details, &r.Done, &r.CreatedAt); err != nil {
		return core.Reminder{}, err
	}
	r.Date = toDate(date)
	return r, nil
}

func (rt reminderTable) List(ctx context.Context, ownerID string) ([]core.Reminder, error) {
	out, err := list(ctx, rt.s, scanReminder, reminderSelect+` WHERE owner_id = $1 ORDER BY seq`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	return out, nil
}

func (rt reminderTable) Create(ctx context.Context, r core.Reminder) (core.Reminder, error) {
	if err := r.Validate(); err != nil {
		return core.Reminder{}, err
	}
	r.ID = rt.s.newID()
	r.CreatedAt = rt.s.now().UTC()

	_, err := rt.s.pool.Exec(ctx, `INSERT INTO reminders (id, owner_id, title, date, details, done, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		r.ID, r.OwnerID, r.Title, r.Date.Time, r.Details, r.Done, r.CreatedAt)
	if err != nil {
		return core.Reminder{}, fmt.Errorf("create reminder: %w", err)
	}
	return r, nil
}

func (rt reminderTable) Update(ctx context.Context, id string, p core.ReminderPatch) error {
	if err := p.Validate(); err != nil {
		return err
	}
	current, err := scanReminder(rt.s.pool.QueryRow(ctx, reminderSelect+` WHERE id = $1`, id))
	if err != nil {
		return fmt.Errorf("update reminder %s: %w", id, notFound(err))
	}
	r := p.Apply(current)
	if err := r.Validate(); err != nil {
		return err
	}

	err = rt.s.execOne(ctx, `UPDATE reminders SET title = $1, date = $2, details = $3, done = $4 WHERE id = $5`,
		r.Title, r.Date.Time, r.Details, r.Done, id)
	if err != nil {
		return fmt.Errorf("update reminder %s: %w", id, err)
	}
	return nil
}

func (rt reminderTable) Delete(ctx context.Context, id string) error {
	if err := rt.s.execOne(ctx, `DELETE FROM reminders WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete reminder %s: %w", id, err)
	}
	return nil
}

func (rt reminderTable) DeleteMany(ctx context.Context, ids []string) error {
	return rt.s.deleteMany(ctx, "reminders", ids)
}

const categorySelect = `SELECT id, owner_id, name, color, subcategories FROM categories`

type categoryTable struct{ s *Store }

func scanCategory(row pgx.Row) (core.Category, error) {
	var c core.Category
	if err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Color, &c.Subcategories); err != nil {
		return core.Category{}, err
	}
	if c.Subcategories == nil {
		c.Subcategories = []string{}
	}
	return c, nil
}

func (ct categoryTable) List(ctx context.Context, ownerID string) ([]core.Category, error) {
	out, err := list(ctx, ct.s, scanCategory, categorySelect+` WHERE owner_id = $1 ORDER BY seq`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return out, nil
}

func subcategories(c core.Category) []string {
	if c.Subcategories == nil {
		return []string{}
	}
	return c.Subcategories
}

func (ct categoryTable) Create(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	c.ID = ct.s.newID()

	_, err := ct.s.pool.Exec(ctx, `INSERT INTO categories (id, owner_id, name, color, subcategories)
		VALUES ($1, $2, $3, $4, $5)`, c.ID, c.OwnerID, c.Name, c.Color, subcategories(c))
	if isUniqueViolation(err) {
		return core.Category{}, core.ErrDuplicateCategory
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

func (ct categoryTable) Update(ctx context.Context, id string, p core.CategoryPatch) error {
	if err := p.Validate(); err != nil {
		return err
	}
	current, err := scanCategory(ct.s.pool.QueryRow(ctx, categorySelect+` WHERE id = $1`, id))
	if err != nil {
		return fmt.Errorf("update category %s: %w", id, notFound(err))
	}
	c := p.Apply(current)
	if err := c.Validate(); err != nil {
		return err
	}

	err = ct.s.execOne(ctx, `UPDATE categories SET name = $1, color = $2, subcategories = $3 WHERE id = $4`,
		c.Name, c.Color, subcategories(c), id)
	if isUniqueViolation(err) {
		return core.ErrDuplicateCategory
	}
	if err != nil {
		return fmt.Errorf("update category %s: %w", id, err)
	}
	return nil
}

func (ct categoryTable) Delete(ctx context.Context, id string) error {
	if err := ct.s.execOne(ctx, `DELETE FROM categories WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete category %s: %w", id, err)
	}
	return nil
}

func (ct categoryTable) DeleteMany(ctx context.Context, ids []string) error {
	return ct.s.deleteMany(ctx, "categories", ids)
}

const paymentMethodSelect = `SELECT id, owner_id, name, color FROM payment_methods`

type paymentMethodTable struct{ s *Store }

func scanPaymentMethod(row pgx.Row) (core.PaymentMethod, error) {
	var m core.PaymentMethod
	err := row.Scan(&m.ID, &m.OwnerID, &m.Name, &m.Color)
	return m, err
}

func (pt paymentMethodTable) List(ctx context.Context, ownerID string) ([]core.PaymentMethod, error) {
	out, err := list(ctx, pt.s, scanPaymentMethod, paymentMethodSelect+` WHERE owner_id = $1 ORDER BY seq`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list payment methods: %w", err)
	}
	return out, nil
}

func (pt paymentMethodTable) Create(ctx context.Context, m core.PaymentMethod) (core.PaymentMethod, error) {
	if err := m.Validate(); err != nil {
		return core.PaymentMethod{}, err
	}
	m.ID = pt.s.newID()

	_, err := pt.s.pool.Exec(ctx, `INSERT INTO payment_methods (id, owner_id, name, color) VALUES ($1, $2, $3, $4)`,
		m.ID, m.OwnerID, m.Name, m.Color)
	if isUniqueViolation(err) {
		return core.PaymentMethod{}, core.ErrDuplicatePaymentName
	}
	if err != nil {
		return core.PaymentMethod{}, fmt.Errorf("create payment method: %w", err)
	}
	return m, nil
}

func (pt paymentMethodTable) Update(ctx context.Context, id string, p core.PaymentMethodPatch) error {
	if err := p.Validate(); err != nil {
		return err
	}
	current, err := scanPaymentMethod(pt.s.pool.QueryRow(ctx, paymentMethodSelect+` WHERE id = $1`, id))
	if err != nil {
		return fmt.Errorf("update payment method %s: %w", id, notFound(err))
	}
	m := p.Apply(current)
	if err := m.Validate(); err != nil {
		return err
	}

	err = pt.s.execOne(ctx, `UPDATE payment_methods SET name = $1, color = $2 WHERE id = $3`, m.Name, m.Color, id)
	if isUniqueViolation(err) {
		return core.ErrDuplicatePaymentName
	}
	if err != nil {
		return fmt.Errorf("update payment method %s: %w", id, err)
	}
	return nil
}

func (pt paymentMethodTable) Delete(ctx context.Context, id string) error {
	if err := pt.s.execOne(ctx, `DELETE FROM payment_methods WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete payment method %s: %w", id, err)
	}
	return nil
}

func (pt paymentMethodTable) DeleteMany(ctx context.Context, ids []string) error {
	return pt.s.deleteMany(ctx, "payment_methods", ids)
}
