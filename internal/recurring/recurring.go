// Package recurring expands one submitted transaction template into the
// occurrences it stands for.
//
// Each repetition mode has its own Expander, looked up in a registry:
//
//	single      one occurrence on the anchor date
//	fixed       12 monthly occurrences of the full amount
//	installment N monthly occurrences of amount/N, described "desc (i/N)"
//
// Monthly occurrences keep the anchor's day of month, clamped to the last
// day of shorter months. Only the first occurrence keeps the submitted
// status; the others start pending. Occurrences of a multi-record series
// share a freshly generated group id.
package recurring

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"financas/internal/core"
)

// Mode is a repetition mode.
type Mode string

const (
	Single      Mode = "single"
	Fixed       Mode = "fixed"
	Installment Mode = "installment"
)

// MaxInstallments caps an installment plan at 30 years of monthly
// occurrences.
const MaxInstallments = 360

// FixedOccurrences is how many months a fixed recurrence covers.
const FixedOccurrences = 12

// ParseMode maps form input to a Mode. Empty input means Single.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return Single, nil
	case Single, Fixed, Installment:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", core.ErrInvalidRepetition, s)
	}
}

// Template is one form submission.
type Template struct {
	OwnerID       string
	Description   string
	Amount        decimal.Decimal
	Type          core.TransactionType
	Category      string
	Subcategory   string
	PaymentMethod string
	Date          core.Date
	Status        core.Status
	Mode          Mode
	// Installments is only read for Installment mode.
	Installments int
}

// base returns the template as a single transaction on the anchor date.
func (t Template) base() core.Transaction {
	return core.Transaction{
		OwnerID:       t.OwnerID,
		Description:   strings.TrimSpace(t.Description),
		Amount:        t.Amount,
		Type:          t.Type,
		Category:      t.Category,
		Subcategory:   t.Subcategory,
		PaymentMethod: t.PaymentMethod,
		Date:          t.Date,
		Status:        t.Status,
	}
}

func (t Template) Validate() error {
	if err := t.base().Validate(); err != nil {
		return err
	}
	if _, err := GetExpander(t.Mode); err != nil {
		return err
	}
	if t.Mode == Installment && (t.Installments < 2 || t.Installments > MaxInstallments) {
		return fmt.Errorf("%w: must be between 2 and %d", core.ErrInvalidInstallments, MaxInstallments)
	}
	return nil
}

// Expander is the strategy for one repetition mode. It returns the
// occurrences in chronological order, before group id and status rules are
// applied.
type Expander interface {
	Expand(t Template) []core.Transaction
}

// SingleExpander returns the template unchanged.
type SingleExpander struct{}

func (SingleExpander) Expand(t Template) []core.Transaction {
	return []core.Transaction{t.base()}
}

// FixedExpander repeats the full amount for Count months.
type FixedExpander struct {
	Count int
}

func (e FixedExpander) Expand(t Template) []core.Transaction {
	base := t.base()
	out := make([]core.Transaction, e.Count)
	for i := range out {
		occ := base
		occ.Date = t.Date.AddMonths(i)
		out[i] = occ
	}
	return out
}

// InstallmentExpander splits the amount over t.Installments months. Each
// share is rounded to cents on its own, so the shares may not add up to the
// original amount.
type InstallmentExpander struct{}

func (InstallmentExpander) Expand(t Template) []core.Transaction {
	n := t.Installments
	base := t.base()
	share := t.Amount.Div(decimal.NewFromInt(int64(n))).Round(2)

	out := make([]core.Transaction, n)
	for i := range out {
		occ := base
		occ.Amount = share
		occ.Description = fmt.Sprintf("%s (%d/%d)", base.Description, i+1, n)
		occ.Date = t.Date.AddMonths(i)
		out[i] = occ
	}
	return out
}

// expanders maps repetition modes to their strategies.
var expanders = map[Mode]Expander{
	Single:      SingleExpander{},
	Fixed:       FixedExpander{Count: FixedOccurrences},
	Installment: InstallmentExpander{},
}

// GetExpander returns the expander registered for mode.
func GetExpander(mode Mode) (Expander, error) {
	e, ok := expanders[mode]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidRepetition, mode)
	}
	return e, nil
}

// Generator turns templates into ready-to-persist transactions.
type Generator struct {
	// NewGroupID defaults to uuid.NewString.
	NewGroupID func() string
}

// Generate validates t and returns its occurrences. Nothing is persisted.
func (g Generator) Generate(t Template) ([]core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	expander, err := GetExpander(t.Mode)
	if err != nil {
		return nil, err
	}

	occurrences := expander.Expand(t)

	var groupID string
	if len(occurrences) > 1 {
		newID := g.NewGroupID
		if newID == nil {
			newID = uuid.NewString
		}
		groupID = newID()
	}

	for i := range occurrences {
		occurrences[i].GroupID = groupID
		if i > 0 {
			occurrences[i].Status = core.Pending
		}
		if err := occurrences[i].Validate(); err != nil {
			return nil, fmt.Errorf("occurrence %d: %w", i+1, err)
		}
	}
	return occurrences, nil
}

// Generate expands t with a random group id.
func Generate(t Template) ([]core.Transaction, error) {
	return Generator{}.Generate(t)
}
