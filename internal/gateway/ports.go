// Package gateway holds the ports every storage, auth and billing provider
// implements. Services and handlers only talk to these interfaces.
package gateway

import (
	"context"
	"errors"

	"financas/internal/core"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrUnknownPlan  = errors.New("unknown plan")
)

// Ports for outbound adapters.
type (
	// Collection is the CRUD contract shared by every record type. Update
	// and Delete return ErrNotFound for unknown ids. DeleteMany skips ids
	// that do not exist.
	Collection[T any, P any] interface {
		List(ctx context.Context, ownerID string) ([]T, error)
		Create(ctx context.Context, record T) (T, error)
		Update(ctx context.Context, id string, patch P) error
		Delete(ctx context.Context, id string) error
		DeleteMany(ctx context.Context, ids []string) error
	}

	Transactions   = Collection[core.Transaction, core.TransactionPatch]
	Reminders      = Collection[core.Reminder, core.ReminderPatch]
	Categories     = Collection[core.Category, core.CategoryPatch]
	PaymentMethods = Collection[core.PaymentMethod, core.PaymentMethodPatch]

	Gateway interface {
		Transactions() Transactions
		Reminders() Reminders
		Categories() Categories
		PaymentMethods() PaymentMethods

		// Owners lists every owner id with at least one record.
		Owners(ctx context.Context) ([]string, error)
		Ping(ctx context.Context) error
	}

	// Authenticator resolves a session token to the user it belongs to.
	Authenticator interface {
		CurrentUser(ctx context.Context, token string) (core.User, error)
		SignOut(ctx context.Context, token string) error
	}

	// Checkout starts a subscription checkout and returns where to send the
	// user.
	Checkout interface {
		StartCheckout(ctx context.Context, user core.User, planID string) (redirectURL string, err error)
	}
)

type ownerKey struct{}

// WithOwner records the owner a write is performed for. Collections whose
// Update and Delete only receive an id use it to scope change events.
func WithOwner(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerKey{}, ownerID)
}

// OwnerFrom returns the owner stored by WithOwner, or "".
func OwnerFrom(ctx context.Context) string {
	id, _ := ctx.Value(ownerKey{}).(string)
	return id
}
