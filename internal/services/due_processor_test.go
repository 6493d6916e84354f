package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financas/internal/core"
	"financas/internal/events"
	"financas/internal/gateway/memory"
)

type dueRecorder struct {
	mu   sync.Mutex
	dues []events.Due
	fail string
}

func (r *dueRecorder) PublishDue(_ context.Context, d events.Due) error {
	if d.OwnerID == r.fail {
		return errors.New("broker down")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dues = append(r.dues, d)
	return nil
}

func seedDue(t *testing.T, store *memory.Store, owner string, today core.Date) {
	t.Helper()
	ctx := context.Background()
	add := func(desc string, typ core.TransactionType, status core.Status, date core.Date) {
		_, err := store.Transactions().Create(ctx, core.Transaction{
			OwnerID: owner, Description: desc, Amount: decimal.NewFromInt(10),
			Type: typ, Category: "Casa", Date: date, Status: status,
		})
		require.NoError(t, err)
	}
	add("overdue", core.Expense, core.Pending, today.AddDays(-3))
	add("today", core.Expense, core.Pending, today)
	add("tomorrow", core.Expense, core.Pending, today.AddDays(1))
	add("paid", core.Expense, core.Paid, today)
	add("income", core.Income, core.Pending, today)

	_, err := store.Reminders().Create(ctx, core.Reminder{OwnerID: owner, Title: "hoje", Date: today})
	require.NoError(t, err)
	_, err = store.Reminders().Create(ctx, core.Reminder{OwnerID: owner, Title: "feito", Date: today, Done: true})
	require.NoError(t, err)
	_, err = store.Reminders().Create(ctx, core.Reminder{OwnerID: owner, Title: "amanhã", Date: today.AddDays(1)})
	require.NoError(t, err)
}

func TestDueFor(t *testing.T) {
	store := memory.New()
	today := core.NewDate(2025, 7, 10)
	seedDue(t, store, "u1", today)
	p := NewDueProcessor(store, &dueRecorder{}, DueProcessorConfig{}, nil)

	due, err := p.DueFor(context.Background(), "u1", today)
	require.NoError(t, err)

	require.Len(t, due.Transactions, 2)
	assert.Equal(t, "overdue", due.Transactions[0].Description)
	assert.Equal(t, "today", due.Transactions[1].Description)
	require.Len(t, due.Reminders, 1)
	assert.Equal(t, "hoje", due.Reminders[0].Title)
}

func TestProcessDuePublishesPerOwner(t *testing.T) {
	store := memory.New()
	today := core.NewDate(2025, 7, 10)
	seedDue(t, store, "u1", today)
	seedDue(t, store, "u2", today)
	seedDue(t, store, "u3", today)
	_, err := store.Categories().Create(context.Background(), core.Category{OwnerID: "quiet", Name: "x"})
	require.NoError(t, err)

	rec := &dueRecorder{fail: "u2"}
	p := NewDueProcessor(store, rec, DueProcessorConfig{Concurrency: 2}, nil)

	n, err := p.ProcessDue(context.Background(), today)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "u2 fails, quiet has nothing due")

	owners := []string{}
	for _, d := range rec.dues {
		owners = append(owners, d.OwnerID)
	}
	assert.ElementsMatch(t, []string{"u1", "u3"}, owners)
}

func TestDueProcessorDefaultsAndLifecycle(t *testing.T) {
	p := NewDueProcessor(memory.New(), &dueRecorder{}, DueProcessorConfig{}, nil).
		WithClock(func() time.Time { return time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC) })
	assert.Equal(t, time.Hour, p.config.Interval)
	assert.Equal(t, 4, p.config.Concurrency)
	assert.False(t, p.IsRunning())

	ctx := context.Background()
	require.NoError(t, p.Start(ctx))
	assert.True(t, p.IsRunning())
	assert.Error(t, p.Start(ctx))

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, p.Stop(stopCtx))
	assert.False(t, p.IsRunning())
	assert.NoError(t, p.Stop(stopCtx))
}

func TestProcessDueRequiresDependencies(t *testing.T) {
	_, err := NewDueProcessor(memory.New(), nil, DueProcessorConfig{}, nil).ProcessDue(context.Background(), core.NewDate(2025, 1, 1))
	assert.Error(t, err)
}
