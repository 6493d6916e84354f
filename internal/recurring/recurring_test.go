package recurring

import (
	"math"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financas/internal/core"
)

func template(mode Mode) Template {
	return Template{
		OwnerID:     "u1",
		Description: "Academia",
		Amount:      decimal.RequireFromString("100.00"),
		Type:        core.Expense,
		Category:    "Saúde",
		Date:        core.NewDate(2025, 1, 15),
		Status:      core.Paid,
		Mode:        mode,
	}
}

func fixedGroup() Generator {
	return Generator{NewGroupID: func() string { return "g-1" }}
}

func TestSingleProducesOneUngroupedRecord(t *testing.T) {
	got, err := fixedGroup().Generate(template(Single))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Empty(t, got[0].GroupID)
	assert.Equal(t, core.Paid, got[0].Status)
	assert.Equal(t, "2025-01-15", got[0].Date.ISO())
	assert.Equal(t, "Academia", got[0].Description)
}

func TestFixedProducesTwelveGroupedRecords(t *testing.T) {
	got, err := fixedGroup().Generate(template(Fixed))
	require.NoError(t, err)
	require.Len(t, got, 12)

	for i, tx := range got {
		assert.Equal(t, "g-1", tx.GroupID)
		assert.True(t, tx.Amount.Equal(decimal.NewFromInt(100)), "full amount on occurrence %d", i)
		assert.Equal(t, 15, tx.Date.Day())
		if i == 0 {
			assert.Equal(t, core.Paid, tx.Status)
		} else {
			assert.Equal(t, core.Pending, tx.Status, "occurrence %d", i)
		}
	}
	assert.Equal(t, "2025-12-15", got[11].Date.ISO())
}

func TestFixedRollsOverYearBoundary(t *testing.T) {
	tpl := template(Fixed)
	tpl.Date = core.NewDate(2025, 12, 5)

	got, err := fixedGroup().Generate(tpl)
	require.NoError(t, err)

	assert.Equal(t, "2025-12-05", got[0].Date.ISO())
	assert.Equal(t, "2026-01-05", got[1].Date.ISO())
	assert.Equal(t, 2026, got[2].Date.Year())
	assert.Equal(t, 2, got[2].Date.Month())
}

func TestFixedClampsMissingDays(t *testing.T) {
	tpl := template(Fixed)
	tpl.Date = core.NewDate(2025, 1, 31)

	got, err := fixedGroup().Generate(tpl)
	require.NoError(t, err)

	want := []string{"2025-01-31", "2025-02-28", "2025-03-31", "2025-04-30"}
	for i, w := range want {
		assert.Equal(t, w, got[i].Date.ISO())
	}
}

func TestInstallmentSplitsWithoutRedistribution(t *testing.T) {
	tpl := template(Installment)
	tpl.Installments = 3

	got, err := fixedGroup().Generate(tpl)
	require.NoError(t, err)
	require.Len(t, got, 3)

	sum := decimal.Zero
	for i, tx := range got {
		assert.Equal(t, "33.33", tx.Amount.StringFixed(2))
		assert.Equal(t, "g-1", tx.GroupID)
		assert.Equal(t, i+1, tx.Date.Month())
		sum = sum.Add(tx.Amount)
	}
	assert.Equal(t, "99.99", sum.StringFixed(2))
	assert.Equal(t, "Academia (1/3)", got[0].Description)
	assert.Equal(t, "Academia (3/3)", got[2].Description)
	assert.Equal(t, core.Paid, got[0].Status)
	assert.Equal(t, core.Pending, got[1].Status)
	assert.Equal(t, core.Pending, got[2].Status)
}

func TestInstallmentRoundsHalfUp(t *testing.T) {
	tpl := template(Installment)
	tpl.Amount = decimal.RequireFromString("10.00")
	tpl.Installments = 6

	got, err := fixedGroup().Generate(tpl)
	require.NoError(t, err)
	assert.Equal(t, "1.67", got[0].Amount.StringFixed(2))
}

func TestGeneratedGroupIDsAreUnique(t *testing.T) {
	a, err := Generate(template(Fixed))
	require.NoError(t, err)
	b, err := Generate(template(Fixed))
	require.NoError(t, err)

	assert.NotEmpty(t, a[0].GroupID)
	assert.NotEqual(t, a[0].GroupID, b[0].GroupID)
}

func TestGenerateValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Template)
		want   error
	}{
		{"unknown mode", func(t *Template) { t.Mode = "weekly" }, core.ErrInvalidRepetition},
		{"one installment", func(t *Template) { t.Mode = Installment; t.Installments = 1 }, core.ErrInvalidInstallments},
		{"no installments", func(t *Template) { t.Mode = Installment }, core.ErrInvalidInstallments},
		{"too many installments", func(t *Template) { t.Mode = Installment; t.Installments = MaxInstallments + 1 }, core.ErrInvalidInstallments},
		{"huge installment count", func(t *Template) { t.Mode = Installment; t.Installments = math.MaxInt }, core.ErrInvalidInstallments},
		{"empty description", func(t *Template) { t.Description = " " }, core.ErrEmptyDescription},
		{"zero amount", func(t *Template) { t.Amount = decimal.Zero }, core.ErrInvalidAmount},
		{"share rounds to zero", func(t *Template) {
			t.Mode = Installment
			t.Installments = 3
			t.Amount = decimal.RequireFromString("0.01")
		}, core.ErrInvalidAmount},
		{"suffix overflows description", func(t *Template) {
			t.Mode = Installment
			t.Installments = 2
			t.Description = strings.Repeat("x", 198)
		}, core.ErrDescriptionTooLong},
		{"missing date", func(t *Template) { t.Date = core.Date{} }, core.ErrInvalidDate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tpl := template(Single)
			tc.mutate(&tpl)
			got, err := fixedGroup().Generate(tpl)
			assert.ErrorIs(t, err, tc.want)
			assert.Nil(t, got)
		})
	}
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, Single, m)

	m, err = ParseMode("Installment")
	require.NoError(t, err)
	assert.Equal(t, Installment, m)

	_, err = ParseMode("daily")
	assert.ErrorIs(t, err, core.ErrInvalidRepetition)
}
