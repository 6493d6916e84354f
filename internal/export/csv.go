// Package export writes a month of transactions as CSV or to a spreadsheet.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"

	"github.com/gocarina/gocsv"

	"financas/internal/core"
)

// Delimiter is a semicolon because amounts use the comma as decimal
// separator.
const Delimiter = ';'

// Row is one exported transaction, formatted for people rather than
// machines: display dates and localized amounts.
type Row struct {
	Date          string `csv:"Data"`
	Description   string `csv:"Descrição"`
	Category      string `csv:"Categoria"`
	Subcategory   string `csv:"Subcategoria"`
	Type          string `csv:"Tipo"`
	Status        string `csv:"Status"`
	PaymentMethod string `csv:"Forma de pagamento"`
	Amount        string `csv:"Valor"`
	GroupID       string `csv:"Grupo"`
}

// Header returns the column titles in Row order.
func Header() []string {
	return []string{"Data", "Descrição", "Categoria", "Subcategoria", "Tipo", "Status", "Forma de pagamento", "Valor", "Grupo"}
}

var typeLabels = map[core.TransactionType]string{core.Income: "Receita", core.Expense: "Despesa"}
var statusLabels = map[core.Status]string{core.Pending: "Pendente", core.Paid: "Pago"}

// NewRows formats txs ordered by date, then creation time.
func NewRows(txs []core.Transaction) []Row {
	sorted := slices.Clone(txs)
	slices.SortStableFunc(sorted, func(a, b core.Transaction) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	rows := make([]Row, len(sorted))
	for i, t := range sorted {
		rows[i] = Row{
			Date:          t.Date.Display(),
			Description:   t.Description,
			Category:      t.Category,
			Subcategory:   t.Subcategory,
			Type:          typeLabels[t.Type],
			Status:        statusLabels[t.Status],
			PaymentMethod: t.PaymentMethod,
			Amount:        core.FormatAmount(t.Signed()),
			GroupID:       t.GroupID,
		}
	}
	return rows
}

// Values returns the row as spreadsheet cells in Header order.
func (r Row) Values() []any {
	return []any{r.Date, r.Description, r.Category, r.Subcategory, r.Type, r.Status, r.PaymentMethod, r.Amount, r.GroupID}
}

// WriteCSV writes txs with a header line. An empty list writes only the
// header.
func WriteCSV(w io.Writer, txs []core.Transaction) error {
	cw := csv.NewWriter(w)
	cw.Comma = Delimiter

	rows := NewRows(txs)
	if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(cw)); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	cw.Flush()
	return cw.Error()
}

// FileName is the download name for a month export.
func FileName(year, month int) string {
	return fmt.Sprintf("financas-%04d-%02d.csv", year, month)
}
