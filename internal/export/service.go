package export

import (
	"context"
	"errors"
	"fmt"
	"io"

	"financas/internal/core"
	"financas/internal/gateway"
	"financas/internal/log"
	"financas/internal/sheets"
	"financas/internal/view"
)

var ErrSheetsDisabled = errors.New("spreadsheet export is not configured")

// Service loads an owner's month and hands it to a writer.
type Service struct {
	gw     gateway.Gateway
	sheet  sheets.MonthWriter
	logger *log.Logger
}

// NewService builds a Service. sheet may be nil when spreadsheet export is
// not configured.
func NewService(gw gateway.Gateway, sheet sheets.MonthWriter, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Discard()
	}
	return &Service{gw: gw, sheet: sheet, logger: logger.WithComponent(log.ComponentExport)}
}

// Month returns the owner's transactions dated in year/month.
func (s *Service) Month(ctx context.Context, ownerID string, year, month int) ([]core.Transaction, error) {
	if ownerID == "" {
		return nil, core.ErrEmptyOwner
	}
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("%w: month %d", core.ErrInvalidDate, month)
	}
	all, err := s.gw.Transactions().List(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return view.State{Year: year, Month: month}.InMonth(all), nil
}

// CSV writes the month to w and returns how many rows were written.
func (s *Service) CSV(ctx context.Context, w io.Writer, ownerID string, year, month int) (int, error) {
	txs, err := s.Month(ctx, ownerID, year, month)
	if err != nil {
		return 0, err
	}
	if err := WriteCSV(w, txs); err != nil {
		return 0, err
	}
	s.logger.InfoContext(ctx, "Exported CSV",
		log.FieldOwnerID, ownerID, log.FieldYear, year, log.FieldMonth, month, log.FieldCount, len(txs))
	return len(txs), nil
}

// Sheets replaces the month's tab in the configured spreadsheet.
func (s *Service) Sheets(ctx context.Context, ownerID string, year, month int) (int, error) {
	if s.sheet == nil {
		return 0, ErrSheetsDisabled
	}
	txs, err := s.Month(ctx, ownerID, year, month)
	if err != nil {
		return 0, err
	}

	rows := NewRows(txs)
	values := make([][]any, len(rows))
	for i, r := range rows {
		values[i] = r.Values()
	}
	if err := s.sheet.WriteMonth(ctx, year, month, Header(), values); err != nil {
		return 0, fmt.Errorf("write spreadsheet: %w", err)
	}
	s.logger.InfoContext(ctx, "Exported to spreadsheet",
		log.FieldOwnerID, ownerID, log.FieldYear, year, log.FieldMonth, month, log.FieldCount, len(rows))
	return len(rows), nil
}
