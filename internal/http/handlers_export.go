package http

import (
	"bytes"
	"errors"
	"net/http"
	"slices"

	"financas/internal/export"
	"financas/internal/log"
)

var errBillingDisabled = errors.New("billing is not configured")

// handleExportCSV renders into a buffer first so a failure half way still
// gets a proper error status.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	year, month, err := parseMonth(r.URL.Query(), s.today())
	if err != nil {
		s.fail(w, r, log.OpExport, err)
		return
	}

	var buf bytes.Buffer
	if _, err := s.deps.Export.CSV(r.Context(), &buf, ownerFrom(r.Context()), year, month); err != nil {
		s.fail(w, r, log.OpExport, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName(year, month)+`"`)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleExportSheets(w http.ResponseWriter, r *http.Request) {
	year, month, err := parseMonth(r.URL.Query(), s.today())
	if err != nil {
		s.fail(w, r, log.OpExport, err)
		return
	}
	n, err := s.deps.Export.Sheets(r.Context(), ownerFrom(r.Context()), year, month)
	if err != nil {
		s.fail(w, r, log.OpExport, err)
		return
	}
	NewResponse().JSON(countBody{Count: n}).Write(w)
}

func (s *Server) handlePlans(w http.ResponseWriter, _ *http.Request) {
	NewResponse().JSON(map[string]any{
		"enabled": s.deps.Checkout != nil,
		"plans":   nonNil(slices.Clone(s.deps.Plans)),
	}).Write(w)
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	if s.deps.Checkout == nil {
		s.fail(w, r, log.OpCheckout, errBillingDisabled)
		return
	}
	var req struct {
		PlanID string `json:"plan_id"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, log.OpCheckout, err)
		return
	}

	redirect, err := s.deps.Checkout.StartCheckout(r.Context(), userFrom(r.Context()), req.PlanID)
	if err != nil {
		s.fail(w, r, log.OpCheckout, err)
		return
	}
	NewResponse().JSON(map[string]string{"url": redirect}).Write(w)
}
