package storage

import (
	"context"
	"fmt"

	"financas/internal/core"
)

const reminderColumns = `id, owner_id, title, date, details, done, created_at`

type reminderStore struct {
	r *SQLiteRepository
}

func scanReminder(s scanner) (core.Reminder, error) {
	var (
		rem             core.Reminder
		date, createdAt string
	)
	if err := s.Scan(&rem.ID, &rem.OwnerID, &rem.Title, &date, &rem.Details, &rem.Done, &createdAt); err != nil {
		return core.Reminder{}, err
	}
	d, err := core.ParseISODate(date)
	if err != nil {
		return core.Reminder{}, fmt.Errorf("reminder %s date: %w", rem.ID, err)
	}
	rem.Date = d
	rem.CreatedAt = parseTime(createdAt)
	return rem, nil
}

func (s reminderStore) List(ctx context.Context, ownerID string) ([]core.Reminder, error) {
	rows, err := s.r.db.QueryContext(ctx,
		`SELECT `+reminderColumns+` FROM reminders WHERE owner_id = ? ORDER BY rowid`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	defer rows.Close()

	out := []core.Reminder{}
	for rows.Next() {
		rem, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		out = append(out, rem)
	}
	return out, rows.Err()
}

func (s reminderStore) Create(ctx context.Context, rem core.Reminder) (core.Reminder, error) {
	if err := rem.Validate(); err != nil {
		return core.Reminder{}, err
	}
	rem.ID = s.r.newID()
	createdAt := s.r.createdAt()
	rem.CreatedAt = parseTime(createdAt)

	_, err := s.r.db.ExecContext(ctx, `INSERT INTO reminders (`+reminderColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rem.ID, rem.OwnerID, rem.Title, rem.Date.ISO(), rem.Details, rem.Done, createdAt)
	if err != nil {
		return core.Reminder{}, fmt.Errorf("create reminder: %w", err)
	}
	return rem, nil
}

func (s reminderStore) Update(ctx context.Context, id string, p core.ReminderPatch) error {
	if err := p.Validate(); err != nil {
		return err
	}
	row := s.r.db.QueryRowContext(ctx, `SELECT `+reminderColumns+` FROM reminders WHERE id = ?`, id)
	current, err := scanReminder(row)
	if err != nil {
		return fmt.Errorf("update reminder %s: %w", id, notFound(err))
	}
	rem := p.Apply(current)
	if err := rem.Validate(); err != nil {
		return err
	}

	err = s.r.execOne(ctx, `UPDATE reminders SET title = ?, date = ?, details = ?, done = ? WHERE id = ?`,
		rem.Title, rem.Date.ISO(), rem.Details, rem.Done, id)
	if err != nil {
		return fmt.Errorf("update reminder %s: %w", id, err)
	}
	return nil
}

func (s reminderStore) Delete(ctx context.Context, id string) error {
	if err := s.r.execOne(ctx, `DELETE FROM reminders WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete reminder %s: %w", id, err)
	}
	return nil
}

func (s reminderStore) DeleteMany(ctx context.Context, ids []string) error {
	return s.r.deleteMany(ctx, "reminders", ids)
}
