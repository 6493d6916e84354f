package storage

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"financas/internal/core"
)

const transactionColumns = `id, owner_id, description, amount, type, category, subcategory,
	date, status, payment_method, group_id, created_at`

type transactionStore struct {
	r *SQLiteRepository
}

func scanTransaction(s scanner) (core.Transaction, error) {
	var (
		t                       core.Transaction
		amount, date, createdAt string
	)
	err := s.Scan(&t.ID, &t.OwnerID, &t.Description, &amount, &t.Type, &t.Category, &t.Subcategory,
		&date, &t.Status, &t.PaymentMethod, &t.GroupID, &createdAt)
	if err != nil {
		return core.Transaction{}, err
	}
	if t.Amount, err = decimal.NewFromString(amount); err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s amount: %w", t.ID, err)
	}
	if t.Date, err = core.ParseISODate(date); err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s date: %w", t.ID, err)
	}
	t.CreatedAt = parseTime(createdAt)
	return t, nil
}

func (s transactionStore) List(ctx context.Context, ownerID string) ([]core.Transaction, error) {
	rows, err := s.r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE owner_id = ? ORDER BY rowid`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := []core.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s transactionStore) get(ctx context.Context, id string) (core.Transaction, error) {
	row := s.r.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	return t, notFound(err)
}

func (s transactionStore) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	t.ID = s.r.newID()
	createdAt := s.r.createdAt()
	t.CreatedAt = parseTime(createdAt)

	_, err := s.r.db.ExecContext(ctx, `INSERT INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.OwnerID, t.Description, t.Amount.String(), t.Type, t.Category, t.Subcategory,
		t.Date.ISO(), t.Status, t.PaymentMethod, t.GroupID, createdAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	return t, nil
}

func (s transactionStore) Update(ctx context.Context, id string, p core.TransactionPatch) error {
	if err := p.Validate(); err != nil {
		return err
	}
	current, err := s.get(ctx, id)
	if err != nil {
		return fmt.Errorf("update transaction %s: %w", id, err)
	}
	t := p.Apply(current)
	if err := t.Validate(); err != nil {
		return err
	}

	err = s.r.execOne(ctx, `UPDATE transactions SET description = ?, amount = ?, type = ?, category = ?,
		subcategory = ?, date = ?, status = ?, payment_method = ? WHERE id = ?`,
		t.Description, t.Amount.String(), t.Type, t.Category,
		t.Subcategory, t.Date.ISO(), t.Status, t.PaymentMethod, id)
	if err != nil {
		return fmt.Errorf("update transaction %s: %w", id, err)
	}
	return nil
}

func (s transactionStore) Delete(ctx context.Context, id string) error {
	if err := s.r.execOne(ctx, `DELETE FROM transactions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	return nil
}

func (s transactionStore) DeleteMany(ctx context.Context, ids []string) error {
	return s.r.deleteMany(ctx, "transactions", ids)
}
