package view

import (
	"cmp"
	"slices"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"financas/internal/core"
)

// fold lowercases s and strips accents so "agua" finds "Água".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// Matches reports whether t passes the filters, ignoring the month.
func (s State) Matches(t core.Transaction) bool {
	if s.Type != "" && t.Type != s.Type {
		return false
	}
	if s.Status != "" && t.Status != s.Status {
		return false
	}
	if s.Category != "" && !strings.EqualFold(t.Category, s.Category) {
		return false
	}
	if s.Search != "" {
		q := fold(s.Search)
		if !strings.Contains(fold(t.Description), q) &&
			!strings.Contains(fold(t.Category), q) &&
			!strings.Contains(fold(t.Subcategory), q) {
			return false
		}
	}
	return true
}

// InMonth returns the transactions dated in the selected month, unfiltered.
// Dashboards use it so their totals ignore the list filters.
func (s State) InMonth(txs []core.Transaction) []core.Transaction {
	period := s.Period()
	out := []core.Transaction{}
	for _, t := range txs {
		if t.Date.SameMonth(period) {
			out = append(out, t)
		}
	}
	return out
}

// Visible returns the transactions of the selected month passing the
// filters, ordered by date, then by creation time.
func Visible(s State, txs []core.Transaction) []core.Transaction {
	out := []core.Transaction{}
	for _, t := range s.InMonth(txs) {
		if s.Matches(t) {
			out = append(out, t)
		}
	}
	slices.SortStableFunc(out, func(a, b core.Transaction) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out
}

// IsOverdue reports whether t is an unpaid expense dated before today. It is
// derived on every read and never stored.
func IsOverdue(t core.Transaction, today core.Date) bool {
	return t.Type == core.Expense && t.Status == core.Pending && t.Date.Compare(today) < 0
}

// Day is one cell of the month calendar.
type Day struct {
	Date         core.Date          `json:"date"`
	Transactions []core.Transaction `json:"transactions"`
	Reminders    []core.Reminder    `json:"reminders"`
	Income       decimal.Decimal    `json:"income"`
	Expense      decimal.Decimal    `json:"expense"`
	Overdue      int                `json:"overdue"`
}

// Calendar buckets the selected month's transactions and reminders per day.
// Every day of the month is present. The state's filters apply to the
// transactions.
func Calendar(s State, txs []core.Transaction, reminders []core.Reminder, today core.Date) []Day {
	first := s.Period()
	days := make([]Day, core.DaysInMonth(s.Year, s.Month))
	for i := range days {
		days[i] = Day{
			Date:         first.AddDays(i),
			Transactions: []core.Transaction{},
			Reminders:    []core.Reminder{},
			Income:       decimal.Zero,
			Expense:      decimal.Zero,
		}
	}

	for _, t := range Visible(s, txs) {
		d := &days[t.Date.Day()-1]
		d.Transactions = append(d.Transactions, t)
		if t.Type == core.Income {
			d.Income = d.Income.Add(t.Amount)
		} else {
			d.Expense = d.Expense.Add(t.Amount)
		}
		if IsOverdue(t, today) {
			d.Overdue++
		}
	}
	for _, r := range reminders {
		if r.Date.SameMonth(first) {
			d := &days[r.Date.Day()-1]
			d.Reminders = append(d.Reminders, r)
		}
	}
	for i := range days {
		slices.SortStableFunc(days[i].Reminders, func(a, b core.Reminder) int {
			return cmp.Compare(a.Title, b.Title)
		})
	}
	return days
}
