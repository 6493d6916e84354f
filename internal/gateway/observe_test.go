package gateway_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financas/internal/core"
	"financas/internal/events"
	"financas/internal/gateway"
	"financas/internal/gateway/memory"
)

type recorder struct {
	mu      sync.Mutex
	changes []events.Change
	err     error
}

func (r *recorder) PublishChange(_ context.Context, c events.Change) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, c)
	return r.err
}

func TestObservePublishesWrites(t *testing.T) {
	rec := &recorder{}
	g := gateway.Observe(memory.New(), rec, nil)
	ctx := gateway.WithOwner(context.Background(), "u1")

	created, err := g.Transactions().Create(ctx, core.Transaction{
		OwnerID: "u1", Description: "Luz", Amount: decimal.NewFromInt(90),
		Type: core.Expense, Category: "Moradia", Date: core.NewDate(2025, 3, 10), Status: core.Pending,
	})
	require.NoError(t, err)

	paid := core.Paid
	require.NoError(t, g.Transactions().Update(ctx, created.ID, core.TransactionPatch{Status: &paid}))
	require.NoError(t, g.Transactions().DeleteMany(ctx, []string{created.ID}))
	require.NoError(t, g.Transactions().DeleteMany(ctx, nil))

	require.Len(t, rec.changes, 3)
	assert.Equal(t, events.Created, rec.changes[0].Kind)
	assert.Equal(t, events.Updated, rec.changes[1].Kind)
	assert.Equal(t, events.Deleted, rec.changes[2].Kind)
	for _, c := range rec.changes {
		assert.Equal(t, events.Transactions, c.Resource)
		assert.Equal(t, "u1", c.OwnerID)
		assert.Equal(t, []string{created.ID}, c.IDs)
	}
}

func TestObserveSkipsFailedWrites(t *testing.T) {
	rec := &recorder{}
	g := gateway.Observe(memory.New(), rec, nil)

	err := g.Reminders().Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, gateway.ErrNotFound)
	_, err = g.Categories().Create(context.Background(), core.Category{OwnerID: "u1"})
	assert.ErrorIs(t, err, core.ErrEmptyName)

	assert.Empty(t, rec.changes)
}

func TestObservePublisherFailureDoesNotFailWrite(t *testing.T) {
	rec := &recorder{err: errors.New("broker down")}
	g := gateway.Observe(memory.New(), rec, nil)

	_, err := g.PaymentMethods().Create(context.Background(), core.PaymentMethod{OwnerID: "u1", Name: "Pix"})
	assert.NoError(t, err)
	assert.Len(t, rec.changes, 1)
}

func TestOwnerFrom(t *testing.T) {
	assert.Equal(t, "", gateway.OwnerFrom(context.Background()))
	assert.Equal(t, "u9", gateway.OwnerFrom(gateway.WithOwner(context.Background(), "u9")))
}
