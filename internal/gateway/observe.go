package gateway

import (
	"context"
	"time"

	"financas/internal/core"
	"financas/internal/events"
	"financas/internal/log"
)

// Observe wraps g so that every successful write publishes an
// events.Change. Publishing failures are logged and never fail the write,
// the record is already stored by then.
func Observe(g Gateway, pub events.ChangePublisher, logger *log.Logger) Gateway {
	if pub == nil {
		return g
	}
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentGateway)
	now := time.Now

	return &observed{
		Gateway: g,
		tx: &observedCollection[core.Transaction, core.TransactionPatch]{
			next: g.Transactions(), pub: pub, logger: logger, now: now,
			resource: events.Transactions,
			ident:    func(t core.Transaction) (string, string) { return t.ID, t.OwnerID },
		},
		rem: &observedCollection[core.Reminder, core.ReminderPatch]{
			next: g.Reminders(), pub: pub, logger: logger, now: now,
			resource: events.Reminders,
			ident:    func(r core.Reminder) (string, string) { return r.ID, r.OwnerID },
		},
		cat: &observedCollection[core.Category, core.CategoryPatch]{
			next: g.Categories(), pub: pub, logger: logger, now: now,
			resource: events.Categories,
			ident:    func(c core.Category) (string, string) { return c.ID, c.OwnerID },
		},
		pm: &observedCollection[core.PaymentMethod, core.PaymentMethodPatch]{
			next: g.PaymentMethods(), pub: pub, logger: logger, now: now,
			resource: events.PaymentMethods,
			ident:    func(m core.PaymentMethod) (string, string) { return m.ID, m.OwnerID },
		},
	}
}

type observed struct {
	Gateway
	tx  Transactions
	rem Reminders
	cat Categories
	pm  PaymentMethods
}

func (o *observed) Transactions() Transactions     { return o.tx }
func (o *observed) Reminders() Reminders           { return o.rem }
func (o *observed) Categories() Categories         { return o.cat }
func (o *observed) PaymentMethods() PaymentMethods { return o.pm }

type observedCollection[T any, P any] struct {
	next     Collection[T, P]
	pub      events.ChangePublisher
	logger   *log.Logger
	now      func() time.Time
	resource events.Resource
	ident    func(T) (id, ownerID string)
}

func (c *observedCollection[T, P]) List(ctx context.Context, ownerID string) ([]T, error) {
	return c.next.List(ctx, ownerID)
}

func (c *observedCollection[T, P]) Create(ctx context.Context, record T) (T, error) {
	created, err := c.next.Create(ctx, record)
	if err != nil {
		return created, err
	}
	id, owner := c.ident(created)
	c.publish(ctx, events.Created, owner, []string{id})
	return created, nil
}

func (c *observedCollection[T, P]) Update(ctx context.Context, id string, patch P) error {
	if err := c.next.Update(ctx, id, patch); err != nil {
		return err
	}
	c.publish(ctx, events.Updated, OwnerFrom(ctx), []string{id})
	return nil
}

func (c *observedCollection[T, P]) Delete(ctx context.Context, id string) error {
	if err := c.next.Delete(ctx, id); err != nil {
		return err
	}
	c.publish(ctx, events.Deleted, OwnerFrom(ctx), []string{id})
	return nil
}

func (c *observedCollection[T, P]) DeleteMany(ctx context.Context, ids []string) error {
	if err := c.next.DeleteMany(ctx, ids); err != nil {
		return err
	}
	if len(ids) > 0 {
		c.publish(ctx, events.Deleted, OwnerFrom(ctx), ids)
	}
	return nil
}

func (c *observedCollection[T, P]) publish(ctx context.Context, kind events.Kind, ownerID string, ids []string) {
	change := events.Change{
		Resource:  c.resource,
		Kind:      kind,
		OwnerID:   ownerID,
		IDs:       append([]string(nil), ids...),
		Timestamp: c.now(),
	}
	if err := c.pub.PublishChange(ctx, change); err != nil {
		c.logger.WarnContext(ctx, "Failed to publish change event",
			log.FieldResource, string(c.resource),
			log.FieldOperation, log.OpPublish,
			log.FieldOwnerID, ownerID,
			log.FieldError, err)
	}
}
