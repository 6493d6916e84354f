// Package events defines the notifications emitted when records change and
// when bills come due, plus the publishers that deliver them.
package events

import (
	"context"
	"errors"
	"time"

	"financas/internal/core"
)

// Resource names the collection a change belongs to.
type Resource string

const (
	Transactions   Resource = "transactions"
	Reminders      Resource = "reminders"
	Categories     Resource = "categories"
	PaymentMethods Resource = "payment_methods"
)

// Kind is what happened to the records.
type Kind string

const (
	Created Kind = "created"
	Updated Kind = "updated"
	Deleted Kind = "deleted"
)

// Change is emitted after a gateway write succeeds. OwnerID is empty when
// the writer did not know the owner; subscribers then treat the change as
// affecting every owner.
type Change struct {
	Resource  Resource  `json:"resource"`
	Kind      Kind      `json:"kind"`
	OwnerID   string    `json:"owner_id,omitempty"`
	IDs       []string  `json:"ids"`
	Timestamp time.Time `json:"timestamp"`
}

// Due lists what an owner has to deal with on a given day: pending expenses
// dated on or before it and reminders on it that are not done.
type Due struct {
	OwnerID      string             `json:"owner_id"`
	Date         core.Date          `json:"date"`
	Transactions []core.Transaction `json:"transactions"`
	Reminders    []core.Reminder    `json:"reminders"`
	Timestamp    time.Time          `json:"timestamp"`
}

// IsEmpty reports whether there is nothing to notify.
func (d Due) IsEmpty() bool {
	return len(d.Transactions) == 0 && len(d.Reminders) == 0
}

type (
	ChangePublisher interface {
		PublishChange(ctx context.Context, c Change) error
	}

	DuePublisher interface {
		PublishDue(ctx context.Context, d Due) error
	}

	Publisher interface {
		ChangePublisher
		DuePublisher
	}
)

// ChangeFunc adapts a function to ChangePublisher.
type ChangeFunc func(ctx context.Context, c Change) error

func (f ChangeFunc) PublishChange(ctx context.Context, c Change) error { return f(ctx, c) }

// Nop drops every event.
type Nop struct{}

func (Nop) PublishChange(context.Context, Change) error { return nil }
func (Nop) PublishDue(context.Context, Due) error       { return nil }

// MultiChange fans a change out to several publishers. Every publisher is
// called; failures are joined.
type MultiChange []ChangePublisher

func (m MultiChange) PublishChange(ctx context.Context, c Change) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.PublishChange(ctx, c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
