// Package sheets holds the spreadsheet export port. Adapters live in
// subpackages: google for Google Sheets, memory for tests.
package sheets

import (
	"context"
	"fmt"
)

// MonthWriter replaces the content of a month's tab with header and rows.
type MonthWriter interface {
	WriteMonth(ctx context.Context, year, month int, header []string, rows [][]any) error
}

// TabName is the tab a month is written to.
func TabName(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}
