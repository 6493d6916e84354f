// Package report derives dashboard figures from a list of transactions.
// Every function is pure and recomputes from its input; nothing is cached.
package report

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"financas/internal/core"
)

const (
	UncategorizedLabel   = "Sem categoria"
	OthersLabel          = "Outros"
	NoPaymentMethodLabel = "Não informado"

	// TopCategories is how many categories ByCategory keeps before folding
	// the rest into OthersLabel.
	TopCategories = 5
)

type Summary struct {
	Income       decimal.Decimal `json:"income"`
	Expense      decimal.Decimal `json:"expense"`
	Balance      decimal.Decimal `json:"balance"`
	PendingBills decimal.Decimal `json:"pending_bills"`
}

// IsDueBill reports whether t is an unpaid expense dated on or before today.
func IsDueBill(t core.Transaction, today core.Date) bool {
	return t.Type == core.Expense && t.Status == core.Pending && t.Date.Compare(today) <= 0
}

// Summarize totals paid income and paid expense, and the pending expenses
// that are due by today.
func Summarize(txs []core.Transaction, today core.Date) Summary {
	s := Summary{Income: decimal.Zero, Expense: decimal.Zero, PendingBills: decimal.Zero}
	for _, t := range txs {
		switch {
		case t.Status == core.Paid && t.Type == core.Income:
			s.Income = s.Income.Add(t.Amount)
		case t.Status == core.Paid && t.Type == core.Expense:
			s.Expense = s.Expense.Add(t.Amount)
		case IsDueBill(t, today):
			s.PendingBills = s.PendingBills.Add(t.Amount)
		}
	}
	s.Balance = s.Income.Sub(s.Expense)
	return s
}

// PendingBills sums the pending expenses due by today.
func PendingBills(txs []core.Transaction, today core.Date) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txs {
		if IsDueBill(t, today) {
			total = total.Add(t.Amount)
		}
	}
	return total
}

// Slice is one bucket of a breakdown chart.
type Slice struct {
	Label string          `json:"label"`
	Total decimal.Decimal `json:"total"`
}

// ByCategory sums expenses per category, largest first. Past TopCategories
// buckets the remainder is folded into a single OthersLabel bucket.
func ByCategory(txs []core.Transaction) []Slice {
	buckets := groupExpenses(txs, func(t core.Transaction) string { return t.Category }, UncategorizedLabel)
	if len(buckets) <= TopCategories {
		return buckets
	}

	others := decimal.Zero
	for _, s := range buckets[TopCategories:] {
		others = others.Add(s.Total)
	}
	return append(buckets[:TopCategories:TopCategories], Slice{Label: OthersLabel, Total: others})
}

// ByPaymentMethod sums expenses per payment method, largest first, with no
// folding.
func ByPaymentMethod(txs []core.Transaction) []Slice {
	return groupExpenses(txs, func(t core.Transaction) string { return t.PaymentMethod }, NoPaymentMethodLabel)
}

func groupExpenses(txs []core.Transaction, key func(core.Transaction) string, missing string) []Slice {
	totals := map[string]decimal.Decimal{}
	for _, t := range txs {
		if t.Type != core.Expense {
			continue
		}
		label := strings.TrimSpace(key(t))
		if label == "" {
			label = missing
		}
		totals[label] = totals[label].Add(t.Amount)
	}

	out := make([]Slice, 0, len(totals))
	for label, total := range totals {
		out = append(out, Slice{Label: label, Total: total})
	}
	slices.SortFunc(out, func(a, b Slice) int {
		if c := b.Total.Cmp(a.Total); c != 0 {
			return c
		}
		return cmp.Compare(a.Label, b.Label)
	})
	return out
}

// Range is the window of an evolution chart.
type Range string

const (
	RangeMonth    Range = "month"
	Range3Months  Range = "3m"
	Range6Months  Range = "6m"
	Range12Months Range = "12m"
	RangeAll      Range = "all"
)

const DefaultRange = RangeMonth

// ErrUnknownRange is returned by ParseRange for values outside the Range set.
var ErrUnknownRange = errors.New("unknown range")

// ParseRange maps query input to a Range. Empty input means DefaultRange.
func ParseRange(s string) (Range, error) {
	switch r := Range(strings.ToLower(strings.TrimSpace(s))); r {
	case "":
		return DefaultRange, nil
	case RangeMonth, Range3Months, Range6Months, Range12Months, RangeAll:
		return r, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownRange, s)
	}
}

func (r Range) months() int {
	switch r {
	case Range3Months:
		return 3
	case Range6Months:
		return 6
	case Range12Months:
		return 12
	default:
		return 1
	}
}

// Bucket is one point of an evolution chart.
type Bucket struct {
	Label   string          `json:"label"`
	Start   core.Date       `json:"start"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Profit  decimal.Decimal `json:"profit"`
}

// Evolution buckets income and expense over r, in chronological order.
// RangeMonth covers the current month one bucket per day. The trailing
// ranges cover the current month and the months before it, one bucket per
// month. RangeAll spans from the oldest to the newest transaction. Every
// day or month of the window gets a bucket, even when empty. Both statuses
// are counted.
func Evolution(txs []core.Transaction, r Range, today core.Date) []Bucket {
	var (
		from, to core.Date
		daily    = r == RangeMonth
	)
	switch r {
	case RangeMonth:
		from, to = today.StartOfMonth(), today.EndOfMonth()
	case RangeAll:
		if len(txs) == 0 {
			return []Bucket{}
		}
		from, to = txs[0].Date, txs[0].Date
		for _, t := range txs[1:] {
			if t.Date.Compare(from) < 0 {
				from = t.Date
			}
			if t.Date.Compare(to) > 0 {
				to = t.Date
			}
		}
		from, to = from.StartOfMonth(), to.EndOfMonth()
	default:
		from = today.StartOfMonth().AddMonths(-(r.months() - 1))
		to = today.EndOfMonth()
	}

	var buckets []Bucket
	index := map[string]int{}
	if daily {
		for d := from; d.Compare(to) <= 0; d = d.AddDays(1) {
			index[d.ISO()] = len(buckets)
			buckets = append(buckets, newBucket(fmt.Sprintf("%02d/%02d", d.Day(), d.Month()), d))
		}
	} else {
		for d := from; d.Compare(to) <= 0; d = d.AddMonths(1) {
			index[monthKey(d)] = len(buckets)
			buckets = append(buckets, newBucket(fmt.Sprintf("%s/%d", core.MonthAbbrev(d.Month()), d.Year()), d))
		}
	}

	for _, t := range txs {
		if t.Date.Compare(from) < 0 || t.Date.Compare(to) > 0 {
			continue
		}
		key := monthKey(t.Date)
		if daily {
			key = t.Date.ISO()
		}
		i, ok := index[key]
		if !ok {
			continue
		}
		b := &buckets[i]
		if t.Type == core.Income {
			b.Income = b.Income.Add(t.Amount)
		} else {
			b.Expense = b.Expense.Add(t.Amount)
		}
	}
	for i := range buckets {
		buckets[i].Profit = buckets[i].Income.Sub(buckets[i].Expense)
	}
	return buckets
}

func newBucket(label string, start core.Date) Bucket {
	return Bucket{Label: label, Start: start, Income: decimal.Zero, Expense: decimal.Zero, Profit: decimal.Zero}
}

func monthKey(d core.Date) string {
	return fmt.Sprintf("%04d-%02d", d.Year(), d.Month())
}

// MonthComparison is one month of a year-over-year chart.
type MonthComparison struct {
	Month    int             `json:"month"`
	Label    string          `json:"label"`
	Current  decimal.Decimal `json:"current"`
	Previous decimal.Decimal `json:"previous"`
	Delta    decimal.Decimal `json:"delta"`
	// Percent is the variation from Previous to Current, rounded to two
	// places. It is 100 when Previous is zero and Current is not, and 0 when
	// both are zero.
	Percent decimal.Decimal `json:"percent"`
}

var hundred = decimal.NewFromInt(100)

// YearOverYear compares income of year with year-1, month by month.
func YearOverYear(txs []core.Transaction, year int) []MonthComparison {
	out := make([]MonthComparison, 12)
	for i := range out {
		out[i] = MonthComparison{
			Month:    i + 1,
			Label:    core.MonthAbbrev(i + 1),
			Current:  decimal.Zero,
			Previous: decimal.Zero,
		}
	}

	for _, t := range txs {
		if t.Type != core.Income {
			continue
		}
		m := &out[t.Date.Month()-1]
		switch t.Date.Year() {
		case year:
			m.Current = m.Current.Add(t.Amount)
		case year - 1:
			m.Previous = m.Previous.Add(t.Amount)
		}
	}

	for i := range out {
		m := &out[i]
		m.Delta = m.Current.Sub(m.Previous)
		switch {
		case m.Previous.IsZero() && m.Current.IsZero():
			m.Percent = decimal.Zero
		case m.Previous.IsZero():
			m.Percent = hundred
		default:
			m.Percent = m.Delta.Div(m.Previous).Mul(hundred).Round(2)
		}
	}
	return out
}
