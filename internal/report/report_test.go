package report

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financas/internal/core"
)

func txn(typ core.TransactionType, status core.Status, amount string, date core.Date) core.Transaction {
	return core.Transaction{
		OwnerID:     "u1",
		Description: "x",
		Amount:      decimal.RequireFromString(amount),
		Type:        typ,
		Category:    "Geral",
		Date:        date,
		Status:      status,
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestSummarize(t *testing.T) {
	today := core.NewDate(2025, 6, 15)
	txs := []core.Transaction{
		txn(core.Income, core.Paid, "5000", core.NewDate(2025, 6, 5)),
		txn(core.Income, core.Pending, "700", core.NewDate(2025, 6, 10)),
		txn(core.Expense, core.Paid, "1200.50", core.NewDate(2025, 6, 1)),
		txn(core.Expense, core.Pending, "300", today),
		txn(core.Expense, core.Pending, "80", core.NewDate(2025, 6, 1)),
		txn(core.Expense, core.Pending, "999", today.AddDays(1)),
	}

	s := Summarize(txs, today)

	assert.True(t, s.Income.Equal(dec("5000")))
	assert.True(t, s.Expense.Equal(dec("1200.50")))
	assert.True(t, s.Balance.Equal(dec("3799.50")))
	assert.True(t, s.PendingBills.Equal(dec("380")), "got %s", s.PendingBills)
}

func TestPendingBillsBoundary(t *testing.T) {
	today := core.NewDate(2025, 6, 15)

	s := Summarize([]core.Transaction{txn(core.Expense, core.Pending, "10", today)}, today)
	assert.True(t, s.PendingBills.Equal(dec("10")), "due today is included")

	s = Summarize([]core.Transaction{txn(core.Expense, core.Pending, "10", today.AddDays(1))}, today)
	assert.True(t, s.PendingBills.IsZero(), "due tomorrow is excluded")
}

func TestPendingBills(t *testing.T) {
	today := core.NewDate(2025, 6, 15)
	txs := []core.Transaction{
		txn(core.Expense, core.Pending, "10", today.AddMonths(-3)),
		txn(core.Expense, core.Pending, "5", today),
		txn(core.Expense, core.Pending, "7", today.AddDays(1)),
		txn(core.Expense, core.Paid, "3", today),
		txn(core.Income, core.Pending, "100", today),
	}
	assert.True(t, PendingBills(txs, today).Equal(dec("15")))
	assert.True(t, PendingBills(txs, today).Equal(Summarize(txs, today).PendingBills))
	assert.True(t, PendingBills(nil, today).IsZero())
}

func TestBalanceIsIncomeMinusExpense(t *testing.T) {
	today := core.NewDate(2025, 1, 31)
	sets := [][]core.Transaction{
		nil,
		{txn(core.Expense, core.Paid, "10", today)},
		{txn(core.Income, core.Paid, "0.01", today), txn(core.Expense, core.Paid, "99.99", today)},
		{txn(core.Income, core.Paid, "1234.56", today), txn(core.Income, core.Pending, "1", today), txn(core.Expense, core.Pending, "5", today)},
	}
	for i, set := range sets {
		s := Summarize(set, today)
		assert.True(t, s.Balance.Equal(s.Income.Sub(s.Expense)), "set %d", i)
	}
}

func TestByCategoryCollapsesIntoOthers(t *testing.T) {
	var txs []core.Transaction
	for i, amount := range []string{"50", "40", "30", "20", "10", "5", "1"} {
		tx := txn(core.Expense, core.Paid, amount, core.NewDate(2025, 1, 1))
		tx.Category = fmt.Sprintf("C%d", i)
		txs = append(txs, tx)
	}
	txs = append(txs, txn(core.Income, core.Paid, "1000", core.NewDate(2025, 1, 1)))

	got := ByCategory(txs)

	require.Len(t, got, 6)
	assert.Equal(t, "C0", got[0].Label)
	assert.Equal(t, "C4", got[4].Label)
	assert.Equal(t, OthersLabel, got[5].Label)
	assert.True(t, got[5].Total.Equal(dec("6")))
}

func TestByCategoryOrderingAndMissingLabel(t *testing.T) {
	a := txn(core.Expense, core.Pending, "10", core.NewDate(2025, 1, 1))
	a.Category = "Lazer"
	b := txn(core.Expense, core.Paid, "10", core.NewDate(2025, 1, 2))
	b.Category = "Casa"
	c := txn(core.Expense, core.Paid, "30", core.NewDate(2025, 1, 3))
	c.Category = ""
	d := txn(core.Expense, core.Paid, "5", core.NewDate(2025, 1, 3))
	d.Category = "Lazer"

	got := ByCategory([]core.Transaction{a, b, c, d})

	require.Len(t, got, 3)
	assert.Equal(t, UncategorizedLabel, got[0].Label)
	assert.Equal(t, "Lazer", got[1].Label)
	assert.True(t, got[1].Total.Equal(dec("15")))
	assert.Equal(t, "Casa", got[2].Label)
}

func TestByPaymentMethodDoesNotCollapse(t *testing.T) {
	var txs []core.Transaction
	for i := 0; i < 8; i++ {
		tx := txn(core.Expense, core.Paid, fmt.Sprint(i+1), core.NewDate(2025, 1, 1))
		tx.PaymentMethod = fmt.Sprintf("M%d", i)
		txs = append(txs, tx)
	}
	txs = append(txs, txn(core.Expense, core.Paid, "100", core.NewDate(2025, 1, 1)))

	got := ByPaymentMethod(txs)

	require.Len(t, got, 9)
	assert.Equal(t, NoPaymentMethodLabel, got[0].Label)
	assert.Equal(t, "M7", got[1].Label)
}

func TestEvolutionCurrentMonthByDay(t *testing.T) {
	today := core.NewDate(2025, 2, 10)
	txs := []core.Transaction{
		txn(core.Income, core.Paid, "100", core.NewDate(2025, 2, 3)),
		txn(core.Expense, core.Pending, "40", core.NewDate(2025, 2, 3)),
		txn(core.Expense, core.Paid, "10", core.NewDate(2025, 2, 28)),
		txn(core.Expense, core.Paid, "999", core.NewDate(2025, 1, 31)),
	}

	got := Evolution(txs, RangeMonth, today)

	require.Len(t, got, 28)
	assert.Equal(t, "03/02", got[2].Label)
	assert.True(t, got[2].Income.Equal(dec("100")))
	assert.True(t, got[2].Expense.Equal(dec("40")))
	assert.True(t, got[2].Profit.Equal(dec("60")))
	assert.True(t, got[27].Profit.Equal(dec("-10")))
	assert.True(t, got[0].Profit.IsZero())
}

func TestEvolutionTrailingMonths(t *testing.T) {
	today := core.NewDate(2025, 2, 10)
	txs := []core.Transaction{
		txn(core.Income, core.Paid, "100", core.NewDate(2024, 12, 1)),
		txn(core.Expense, core.Paid, "30", core.NewDate(2025, 1, 15)),
		txn(core.Expense, core.Paid, "1", core.NewDate(2024, 11, 30)),
		txn(core.Income, core.Paid, "7", core.NewDate(2025, 2, 28)),
	}

	got := Evolution(txs, Range3Months, today)

	require.Len(t, got, 3)
	assert.Equal(t, "Dez/2024", got[0].Label)
	assert.Equal(t, "Jan/2025", got[1].Label)
	assert.Equal(t, "Fev/2025", got[2].Label)
	assert.True(t, got[0].Income.Equal(dec("100")))
	assert.True(t, got[1].Expense.Equal(dec("30")))
	assert.True(t, got[2].Income.Equal(dec("7")))

	assert.Len(t, Evolution(txs, Range12Months, today), 12)
	assert.Len(t, Evolution(txs, Range6Months, today), 6)
}

func TestEvolutionAll(t *testing.T) {
	txs := []core.Transaction{
		txn(core.Income, core.Paid, "5", core.NewDate(2025, 3, 9)),
		txn(core.Income, core.Paid, "5", core.NewDate(2024, 11, 2)),
	}
	got := Evolution(txs, RangeAll, core.NewDate(2030, 1, 1))
	require.Len(t, got, 5)
	assert.Equal(t, "2024-11-01", got[0].Start.ISO())
	assert.Equal(t, "2025-03-01", got[4].Start.ISO())

	assert.Empty(t, Evolution(nil, RangeAll, core.NewDate(2030, 1, 1)))
}

func TestParseRange(t *testing.T) {
	r, err := ParseRange("")
	require.NoError(t, err)
	assert.Equal(t, RangeMonth, r)
	r, err = ParseRange("12M")
	require.NoError(t, err)
	assert.Equal(t, Range12Months, r)
	_, err = ParseRange("week")
	assert.Error(t, err)
}

func TestYearOverYear(t *testing.T) {
	txs := []core.Transaction{
		txn(core.Income, core.Paid, "200", core.NewDate(2025, 1, 10)),
		txn(core.Income, core.Paid, "100", core.NewDate(2024, 1, 10)),
		txn(core.Income, core.Paid, "50", core.NewDate(2025, 2, 10)),
		txn(core.Income, core.Paid, "80", core.NewDate(2024, 3, 10)),
		txn(core.Expense, core.Paid, "1000", core.NewDate(2025, 4, 10)),
		txn(core.Income, core.Paid, "1", core.NewDate(2023, 4, 10)),
	}

	got := YearOverYear(txs, 2025)

	require.Len(t, got, 12)
	assert.Equal(t, "Jan", got[0].Label)
	assert.True(t, got[0].Delta.Equal(dec("100")))
	assert.True(t, got[0].Percent.Equal(dec("100")))

	assert.True(t, got[1].Previous.IsZero())
	assert.True(t, got[1].Percent.Equal(dec("100")), "previous zero, current positive")

	assert.True(t, got[2].Delta.Equal(dec("-80")))
	assert.True(t, got[2].Percent.Equal(dec("-100")))

	assert.True(t, got[3].Current.IsZero(), "expenses and older years are ignored")
	assert.True(t, got[3].Percent.IsZero(), "both zero")
}

func TestYearOverYearRounding(t *testing.T) {
	txs := []core.Transaction{
		txn(core.Income, core.Paid, "100", core.NewDate(2025, 5, 1)),
		txn(core.Income, core.Paid, "300", core.NewDate(2024, 5, 1)),
	}
	got := YearOverYear(txs, 2025)
	assert.Equal(t, "-66.67", got[4].Percent.String())
}
