package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"financas/internal/core"
)

type categoryStore struct {
	r *SQLiteRepository
}

func scanCategory(s scanner) (core.Category, error) {
	var (
		c    core.Category
		subs string
	)
	if err := s.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Color, &subs); err != nil {
		return core.Category{}, err
	}
	c.Subcategories = []string{}
	if err := json.Unmarshal([]byte(subs), &c.Subcategories); err != nil {
		return core.Category{}, fmt.Errorf("category %s subcategories: %w", c.ID, err)
	}
	return c, nil
}

func encodeSubcategories(subs []string) (string, error) {
	if subs == nil {
		subs = []string{}
	}
	b, err := json.Marshal(subs)
	return string(b), err
}

func (s categoryStore) List(ctx context.Context, ownerID string) ([]core.Category, error) {
	rows, err := s.r.db.QueryContext(ctx,
		`SELECT id, owner_id, name, color, subcategories FROM categories WHERE owner_id = ? ORDER BY rowid`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := []core.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s categoryStore) Create(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	subs, err := encodeSubcategories(c.Subcategories)
	if err != nil {
		return core.Category{}, fmt.Errorf("encode subcategories: %w", err)
	}
	c.ID = s.r.newID()

	_, err = s.r.db.ExecContext(ctx,
		`INSERT INTO categories (id, owner_id, name, color, subcategories) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.OwnerID, c.Name, c.Color, subs)
	if isUniqueViolation(err) {
		return core.Category{}, core.ErrDuplicateCategory
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

func (s categoryStore) Update(ctx context.Context, id string, p core.CategoryPatch) error {
	if err := p.Validate(); err != nil {
		return err
	}
	row := s.r.db.QueryRowContext(ctx, `SELECT id, owner_id, name, color, subcategories FROM categories WHERE id = ?`, id)
	current, err := scanCategory(row)
	if err != nil {
		return fmt.Errorf("update category %s: %w", id, notFound(err))
	}
	c := p.Apply(current)
	if err := c.Validate(); err != nil {
		return err
	}
	subs, err := encodeSubcategories(c.Subcategories)
	if err != nil {
		return fmt.Errorf("encode subcategories: %w", err)
	}

	err = s.r.execOne(ctx, `UPDATE categories SET name = ?, color = ?, subcategories = ? WHERE id = ?`,
		c.Name, c.Color, subs, id)
	if isUniqueViolation(err) {
		return core.ErrDuplicateCategory
	}
	if err != nil {
		return fmt.Errorf("update category %s: %w", id, err)
	}
	return nil
}

func (s categoryStore) Delete(ctx context.Context, id string) error {
	if err := s.r.execOne(ctx, `DELETE FROM categories WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete category %s: %w", id, err)
	}
	return nil
}

func (s categoryStore) DeleteMany(ctx context.Context, ids []string) error {
	return s.r.deleteMany(ctx, "categories", ids)
}

type paymentMethodStore struct {
	r *SQLiteRepository
}

func scanPaymentMethod(s scanner) (core.PaymentMethod, error) {
	var m core.PaymentMethod
	err := s.Scan(&m.ID, &m.OwnerID, &m.Name, &m.Color)
	return m, err
}

func (s paymentMethodStore) List(ctx context.Context, ownerID string) ([]core.PaymentMethod, error) {
	rows, err := s.r.db.QueryContext(ctx,
		`SELECT id, owner_id, name, color FROM payment_methods WHERE owner_id = ? ORDER BY rowid`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list payment methods: %w", err)
	}
	defer rows.Close()

	out := []core.PaymentMethod{}
	for rows.Next() {
		m, err := scanPaymentMethod(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment method: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s paymentMethodStore) Create(ctx context.Context, m core.PaymentMethod) (core.PaymentMethod, error) {
	if err := m.Validate(); err != nil {
		return core.PaymentMethod{}, err
	}
	m.ID = s.r.newID()

	_, err := s.r.db.ExecContext(ctx,
		`INSERT INTO payment_methods (id, owner_id, name, color) VALUES (?, ?, ?, ?)`,
		m.ID, m.OwnerID, m.Name, m.Color)
	if isUniqueViolation(err) {
		return core.PaymentMethod{}, core.ErrDuplicatePaymentName
	}
	if err != nil {
		return core.PaymentMethod{}, fmt.Errorf("create payment method: %w", err)
	}
	return m, nil
}

func (s paymentMethodStore) Update(ctx context.Context, id string, p core.PaymentMethodPatch) error {
	if err := p.Validate(); err != nil {
		return err
	}
	row := s.r.db.QueryRowContext(ctx, `SELECT id, owner_id, name, color FROM payment_methods WHERE id = ?`, id)
	current, err := scanPaymentMethod(row)
	if err != nil {
		return fmt.Errorf("update payment method %s: %w", id, notFound(err))
	}
	m := p.Apply(current)
	if err := m.Validate(); err != nil {
		return err
	}

	err = s.r.execOne(ctx, `UPDATE payment_methods SET name = ?, color = ? WHERE id = ?`, m.Name, m.Color, id)
	if isUniqueViolation(err) {
		return core.ErrDuplicatePaymentName
	}
	if err != nil {
		return fmt.Errorf("update payment method %s: %w", id, err)
	}
	return nil
}

func (s paymentMethodStore) Delete(ctx context.Context, id string) error {
	if err := s.r.execOne(ctx, `DELETE FROM payment_methods WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete payment method %s: %w", id, err)
	}
	return nil
}

func (s paymentMethodStore) DeleteMany(ctx context.Context, ids []string) error {
	return s.r.deleteMany(ctx, "payment_methods", ids)
}
