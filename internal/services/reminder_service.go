package services

import (
	"context"
	"fmt"
	"slices"

	"financas/internal/core"
	"financas/internal/gateway"
)

// ReminderService manages reminders. There is no grouping; every operation
// touches one record.
type ReminderService struct {
	gw gateway.Gateway
}

func NewReminderService(gw gateway.Gateway) *ReminderService {
	return &ReminderService{gw: gw}
}

// List returns the owner's reminders ordered by date.
func (s *ReminderService) List(ctx context.Context, ownerID string) ([]core.Reminder, error) {
	rs, err := s.gw.Reminders().List(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	slices.SortStableFunc(rs, func(a, b core.Reminder) int { return a.Date.Compare(b.Date) })
	return rs, nil
}

func (s *ReminderService) Create(ctx context.Context, r core.Reminder) (core.Reminder, error) {
	if err := r.Validate(); err != nil {
		return core.Reminder{}, err
	}
	created, err := s.gw.Reminders().Create(gateway.WithOwner(ctx, r.OwnerID), r)
	if err != nil {
		return core.Reminder{}, fmt.Errorf("create reminder: %w", err)
	}
	return created, nil
}

func (s *ReminderService) Update(ctx context.Context, ownerID, id string, patch core.ReminderPatch) error {
	if err := patch.Validate(); err != nil {
		return err
	}
	if err := ensureOwned(ctx, s.gw.Reminders(), ownerID, id, func(r core.Reminder) string { return r.ID }); err != nil {
		return err
	}
	if err := s.gw.Reminders().Update(gateway.WithOwner(ctx, ownerID), id, patch); err != nil {
		return fmt.Errorf("update reminder %s: %w", id, err)
	}
	return nil
}

func (s *ReminderService) Delete(ctx context.Context, ownerID, id string) error {
	if err := ensureOwned(ctx, s.gw.Reminders(), ownerID, id, func(r core.Reminder) string { return r.ID }); err != nil {
		return err
	}
	if err := s.gw.Reminders().Delete(gateway.WithOwner(ctx, ownerID), id); err != nil {
		return fmt.Errorf("delete reminder %s: %w", id, err)
	}
	return nil
}
