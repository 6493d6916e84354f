package services

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financas/internal/core"
	"financas/internal/gateway"
	"financas/internal/gateway/memory"
	"financas/internal/recurring"
)

// failingCreates makes the n-th Create (1-based) of the wrapped collection
// fail.
type failingCreates struct {
	gateway.Transactions
	failAt int
	calls  int
}

func (f *failingCreates) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	f.calls++
	if f.calls == f.failAt {
		return core.Transaction{}, errors.New("connection reset")
	}
	return f.Transactions.Create(ctx, t)
}

type flakyGateway struct {
	*memory.Store
	tx *failingCreates
}

func (g *flakyGateway) Transactions() gateway.Transactions { return g.tx }

func template(mode recurring.Mode) recurring.Template {
	return recurring.Template{
		OwnerID:     "u1",
		Description: "Internet",
		Amount:      decimal.RequireFromString("120"),
		Type:        core.Expense,
		Category:    "Moradia",
		Date:        core.NewDate(2025, 3, 10),
		Status:      core.Paid,
		Mode:        mode,
	}
}

func newService(t *testing.T) (*TransactionService, *memory.Store) {
	t.Helper()
	store := memory.New()
	svc := NewTransactionService(store, nil).WithGenerator(recurring.Generator{NewGroupID: func() string { return "grp" }})
	return svc, store
}

func TestCreateSeriesStoresInOrder(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	created, err := svc.CreateSeries(ctx, template(recurring.Fixed))
	require.NoError(t, err)
	require.Len(t, created, 12)

	stored, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, stored, 12)
	for i := range stored {
		assert.Equal(t, created[i].ID, stored[i].ID)
		assert.Equal(t, 3+i, stored[i].Date.Month()+12*(stored[i].Date.Year()-2025))
	}
}

func TestCreateSeriesPartialFailure(t *testing.T) {
	store := memory.New()
	flaky := &flakyGateway{Store: store, tx: &failingCreates{Transactions: store.Transactions(), failAt: 3}}
	svc := NewTransactionService(flaky, nil)

	created, err := svc.CreateSeries(context.Background(), template(recurring.Fixed))

	var perr *PartialSeriesError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 2, perr.FailedIndex)
	assert.Equal(t, 12, perr.Total)
	assert.Len(t, perr.Created, 2)
	assert.Len(t, created, 2)
	assert.Len(t, perr.CreatedIDs(), 2)
	assert.Equal(t, 3, flaky.tx.calls, "no occurrence is attempted after the failure")

	stored, _ := store.Transactions().List(context.Background(), "u1")
	assert.Len(t, stored, 2, "earlier occurrences stay committed")
}

func TestCreateSeriesValidationFailsBeforeGateway(t *testing.T) {
	store := memory.New()
	flaky := &flakyGateway{Store: store, tx: &failingCreates{Transactions: store.Transactions()}}
	svc := NewTransactionService(flaky, nil)

	tpl := template(recurring.Installment)
	tpl.Installments = 1
	_, err := svc.CreateSeries(context.Background(), tpl)

	assert.ErrorIs(t, err, core.ErrInvalidInstallments)
	assert.Zero(t, flaky.tx.calls)
}

func TestEditScopeAllKeepsDatesAndStatuses(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	created, err := svc.CreateSeries(ctx, template(recurring.Fixed))
	require.NoError(t, err)
	_, err = svc.CreateSeries(ctx, template(recurring.Single))
	require.NoError(t, err)

	desc := "Fibra"
	amount := decimal.RequireFromString("99.90")
	income := core.Income
	cat := "Serviços"
	newDate := core.NewDate(2030, 1, 1)
	pending := core.Pending
	n, err := svc.Edit(ctx, "u1", created[4].ID, core.TransactionPatch{
		Description: &desc, Amount: &amount, Type: &income, Category: &cat,
		Date: &newDate, Status: &pending,
	}, ScopeAll)
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	stored, _ := svc.List(ctx, "u1")
	for i, tx := range stored[:12] {
		assert.Equal(t, "Fibra", tx.Description)
		assert.True(t, tx.Amount.Equal(amount))
		assert.Equal(t, core.Income, tx.Type)
		assert.Equal(t, "Serviços", tx.Category)
		assert.Equal(t, created[i].Date, tx.Date, "date untouched")
		assert.Equal(t, created[i].Status, tx.Status, "status untouched")
	}
	assert.Equal(t, "Internet", stored[12].Description, "other series untouched")
}

func TestEditScopeAllOnLastOccurrenceKeepsDateAndStatus(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	created, err := svc.CreateSeries(ctx, template(recurring.Fixed))
	require.NoError(t, err)

	var rest []string
	for _, tx := range created[1:] {
		rest = append(rest, tx.ID)
	}
	require.NoError(t, svc.DeleteMany(ctx, "u1", rest))

	desc := "Fibra"
	newDate := core.NewDate(2030, 1, 1)
	pending := core.Pending
	n, err := svc.Edit(ctx, "u1", created[0].ID, core.TransactionPatch{
		Description: &desc, Date: &newDate, Status: &pending,
	}, ScopeAll)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := svc.Get(ctx, "u1", created[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Fibra", got.Description)
	assert.Equal(t, core.NewDate(2025, 3, 10), got.Date)
	assert.Equal(t, core.Paid, got.Status)
}

func TestEditScopeAllRejectsOccurrenceOnlyFields(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	created, err := svc.CreateSeries(ctx, template(recurring.Fixed))
	require.NoError(t, err)

	newDate := core.NewDate(2030, 1, 1)
	method := "Pix"
	n, err := svc.Edit(ctx, "u1", created[2].ID, core.TransactionPatch{Date: &newDate, PaymentMethod: &method}, ScopeAll)
	require.ErrorIs(t, err, core.ErrSeriesPatch)
	assert.True(t, core.IsValidationError(err))
	assert.Zero(t, n)

	got, err := svc.Get(ctx, "u1", created[2].ID)
	require.NoError(t, err)
	assert.Equal(t, created[2].Date, got.Date)

	n, err = svc.Edit(ctx, "u1", created[2].ID, core.TransactionPatch{}, ScopeAll)
	require.NoError(t, err, "an empty patch is a no-op")
	assert.Zero(t, n)
}

func TestEditScopeSingle(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	created, err := svc.CreateSeries(ctx, template(recurring.Fixed))
	require.NoError(t, err)

	desc := "Só este"
	newDate := core.NewDate(2025, 4, 20)
	n, err := svc.Edit(ctx, "u1", created[1].ID, core.TransactionPatch{Description: &desc, Date: &newDate}, ScopeSingle)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := svc.Get(ctx, "u1", created[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "Só este", got.Description)
	assert.Equal(t, "2025-04-20", got.Date.ISO())

	other, _ := svc.Get(ctx, "u1", created[2].ID)
	assert.Equal(t, "Internet", other.Description)
}

func TestEditScopeAllWithoutGroupActsOnOne(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	created, err := svc.CreateSeries(ctx, template(recurring.Single))
	require.NoError(t, err)

	newDate := core.NewDate(2025, 5, 1)
	n, err := svc.Edit(ctx, "u1", created[0].ID, core.TransactionPatch{Date: &newDate}, ScopeAll)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	got, _ := svc.Get(ctx, "u1", created[0].ID)
	assert.Equal(t, "2025-05-01", got.Date.ISO())
}

func TestEditErrors(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	created, err := svc.CreateSeries(ctx, template(recurring.Single))
	require.NoError(t, err)

	zero := decimal.Zero
	_, err = svc.Edit(ctx, "u1", created[0].ID, core.TransactionPatch{Amount: &zero}, ScopeSingle)
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	desc := "x"
	_, err = svc.Edit(ctx, "u2", created[0].ID, core.TransactionPatch{Description: &desc}, ScopeSingle)
	assert.ErrorIs(t, err, gateway.ErrNotFound, "other owners cannot edit")
}

func TestToggleStatus(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	created, err := svc.CreateSeries(ctx, template(recurring.Single))
	require.NoError(t, err)

	st, err := svc.ToggleStatus(ctx, "u1", created[0].ID)
	require.NoError(t, err)
	assert.Equal(t, core.Pending, st)
	st, err = svc.ToggleStatus(ctx, "u1", created[0].ID)
	require.NoError(t, err)
	assert.Equal(t, core.Paid, st)

	_, err = svc.ToggleStatus(ctx, "u1", "missing")
	assert.ErrorIs(t, err, gateway.ErrNotFound)
}

func TestDeleteScopes(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	tpl := template(recurring.Installment)
	tpl.Installments = 4
	series, err := svc.CreateSeries(ctx, tpl)
	require.NoError(t, err)
	single, err := svc.CreateSeries(ctx, template(recurring.Single))
	require.NoError(t, err)

	n, err := svc.Delete(ctx, "u1", series[0].ID, ScopeSingle)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = svc.Delete(ctx, "u1", series[1].ID, ScopeAll)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	stored, _ := svc.List(ctx, "u1")
	require.Len(t, stored, 1)
	assert.Equal(t, single[0].ID, stored[0].ID)

	_, err = svc.Delete(ctx, "u1", series[1].ID, ScopeSingle)
	assert.ErrorIs(t, err, gateway.ErrNotFound)
}

func TestDeleteManyRequiresOwnership(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	mine, err := svc.CreateSeries(ctx, template(recurring.Single))
	require.NoError(t, err)
	otherTpl := template(recurring.Single)
	otherTpl.OwnerID = "u2"
	theirs, err := svc.CreateSeries(ctx, otherTpl)
	require.NoError(t, err)

	err = svc.DeleteMany(ctx, "u1", []string{mine[0].ID, theirs[0].ID})
	assert.ErrorIs(t, err, gateway.ErrNotFound)
	stored, _ := store.Transactions().List(ctx, "u1")
	assert.Len(t, stored, 1, "nothing deleted")

	require.NoError(t, svc.DeleteMany(ctx, "u1", []string{mine[0].ID}))
	require.NoError(t, svc.DeleteMany(ctx, "u1", nil))
	stored, _ = store.Transactions().List(ctx, "u1")
	assert.Empty(t, stored)
}

func TestParseScope(t *testing.T) {
	s, err := ParseScope("")
	require.NoError(t, err)
	assert.Equal(t, ScopeSingle, s)
	s, err = ParseScope("ALL")
	require.NoError(t, err)
	assert.Equal(t, ScopeAll, s)
	_, err = ParseScope("group")
	assert.ErrorIs(t, err, ErrInvalidScope)
}
