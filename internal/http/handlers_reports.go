package http

import (
	"net/http"

	"golang.org/x/sync/errgroup"

	"financas/internal/core"
	"financas/internal/report"
	"financas/internal/view"
)

type dashboardBody struct {
	State           view.State           `json:"state"`
	Summary         report.Summary       `json:"summary"`
	ByCategory      []report.Slice       `json:"by_category"`
	ByPaymentMethod []report.Slice       `json:"by_payment_method"`
	Evolution       []report.Bucket      `json:"evolution"`
	Categories      []core.Category      `json:"categories"`
	PaymentMethods  []core.PaymentMethod `json:"payment_methods"`
}

// handleDashboard totals the selected month, ignoring the list filters, and
// returns the catalog so charts can be colored. Pending bills cover every
// month so older unpaid expenses stay visible.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	today := s.today()
	state, err := view.FromQuery(today, r.URL.Query())
	if err != nil {
		s.fail(w, r, "dashboard", err)
		return
	}

	owner := ownerFrom(r.Context())
	var (
		txs     []core.Transaction
		cats    []core.Category
		methods []core.PaymentMethod
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		txs, err = s.deps.Transactions.List(ctx, owner)
		return err
	})
	g.Go(func() (err error) {
		cats, err = s.deps.Catalog.Categories(ctx, owner)
		return err
	})
	g.Go(func() (err error) {
		methods, err = s.deps.Catalog.PaymentMethods(ctx, owner)
		return err
	})
	if err := g.Wait(); err != nil {
		s.fail(w, r, "dashboard", err)
		return
	}

	month := state.InMonth(txs)
	summary := report.Summarize(month, today)
	summary.PendingBills = report.PendingBills(txs, today)
	NewResponse().JSON(dashboardBody{
		State:           state,
		Summary:         summary,
		ByCategory:      nonNil(report.ByCategory(month)),
		ByPaymentMethod: nonNil(report.ByPaymentMethod(month)),
		Evolution:       report.Evolution(txs, state.Range, today),
		Categories:      nonNil(cats),
		PaymentMethods:  nonNil(methods),
	}).Write(w)
}

func (s *Server) handleEvolution(w http.ResponseWriter, r *http.Request) {
	rng, err := report.ParseRange(r.URL.Query().Get("range"))
	if err != nil {
		s.fail(w, r, "evolution", err)
		return
	}
	txs, err := s.deps.Transactions.List(r.Context(), ownerFrom(r.Context()))
	if err != nil {
		s.fail(w, r, "evolution", err)
		return
	}
	NewResponse().JSON(items(report.Evolution(txs, rng, s.today()))).Write(w)
}

func (s *Server) handleYearOverYear(w http.ResponseWriter, r *http.Request) {
	year, err := parseYear(r.URL.Query(), s.today())
	if err != nil {
		s.fail(w, r, "year_over_year", err)
		return
	}
	txs, err := s.deps.Transactions.List(r.Context(), ownerFrom(r.Context()))
	if err != nil {
		s.fail(w, r, "year_over_year", err)
		return
	}
	NewResponse().JSON(map[string]any{
		"year":   year,
		"months": report.YearOverYear(txs, year),
	}).Write(w)
}

// handleCalendar accepts the same filters as the transaction list.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	today := s.today()
	state, err := view.FromQuery(today, r.URL.Query())
	if err != nil {
		s.fail(w, r, "calendar", err)
		return
	}

	owner := ownerFrom(r.Context())
	var (
		txs  []core.Transaction
		rems []core.Reminder
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		txs, err = s.deps.Transactions.List(ctx, owner)
		return err
	})
	g.Go(func() (err error) {
		rems, err = s.deps.Reminders.List(ctx, owner)
		return err
	})
	if err := g.Wait(); err != nil {
		s.fail(w, r, "calendar", err)
		return
	}

	body := items(view.Calendar(state, txs, rems, today))
	body.State = &state
	NewResponse().JSON(body).Write(w)
}

func nonNil[T any](xs []T) []T {
	if xs == nil {
		return []T{}
	}
	return xs
}
