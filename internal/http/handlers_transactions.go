package http

import (
	"net/http"

	"financas/internal/core"
	"financas/internal/recurring"
	"financas/internal/services"
	"financas/internal/view"
)

type createTransactionRequest struct {
	Description   string               `json:"description"`
	Amount        flexAmount           `json:"amount"`
	Type          core.TransactionType `json:"type"`
	Category      string               `json:"category"`
	Subcategory   string               `json:"subcategory"`
	PaymentMethod string               `json:"payment_method"`
	Date          core.Date            `json:"date"`
	Status        core.Status          `json:"status"`
	Mode          string               `json:"mode"`
	Installments  int                  `json:"installments"`
}

// template turns the request into a generator template. A missing date
// means today and a missing status means pending.
func (req createTransactionRequest) template(ownerID string, today core.Date) (recurring.Template, error) {
	mode, err := recurring.ParseMode(req.Mode)
	if err != nil {
		return recurring.Template{}, err
	}
	tpl := recurring.Template{
		OwnerID:       ownerID,
		Description:   req.Description,
		Amount:        req.Amount.Decimal,
		Type:          req.Type,
		Category:      req.Category,
		Subcategory:   req.Subcategory,
		PaymentMethod: req.PaymentMethod,
		Date:          req.Date,
		Status:        req.Status,
		Mode:          mode,
		Installments:  req.Installments,
	}
	if tpl.Date.IsEmpty() {
		tpl.Date = today
	}
	if tpl.Status == "" {
		tpl.Status = core.Pending
	}
	return tpl, nil
}

type editTransactionRequest struct {
	Description   *string               `json:"description"`
	Amount        flexAmount            `json:"amount"`
	Type          *core.TransactionType `json:"type"`
	Category      *string               `json:"category"`
	Subcategory   *string               `json:"subcategory"`
	Date          *core.Date            `json:"date"`
	Status        *core.Status          `json:"status"`
	PaymentMethod *string               `json:"payment_method"`
}

func (req editTransactionRequest) patch() core.TransactionPatch {
	return core.TransactionPatch{
		Description:   req.Description,
		Amount:        req.Amount.ptr(),
		Type:          req.Type,
		Category:      req.Category,
		Subcategory:   req.Subcategory,
		Date:          req.Date,
		Status:        req.Status,
		PaymentMethod: req.PaymentMethod,
	}
}

type transactionView struct {
	core.Transaction
	Overdue bool `json:"overdue"`
}

func (s *Server) withOverdue(txs []core.Transaction) []transactionView {
	today := s.today()
	out := make([]transactionView, len(txs))
	for i, t := range txs {
		out[i] = transactionView{Transaction: t, Overdue: view.IsOverdue(t, today)}
	}
	return out
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	state, err := view.FromQuery(s.today(), r.URL.Query())
	if err != nil {
		s.fail(w, r, "list_transactions", err)
		return
	}
	all, err := s.deps.Transactions.List(r.Context(), ownerFrom(r.Context()))
	if err != nil {
		s.fail(w, r, "list_transactions", err)
		return
	}

	body := items(s.withOverdue(view.Visible(state, all)))
	body.State = &state
	NewResponse().JSON(body).Write(w)
}

func (s *Server) handleCreateTransactions(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, "create_transactions", err)
		return
	}
	tpl, err := req.template(ownerFrom(r.Context()), s.today())
	if err != nil {
		s.fail(w, r, "create_transactions", err)
		return
	}

	created, err := s.deps.Transactions.CreateSeries(r.Context(), tpl)
	if err != nil {
		s.fail(w, r, "create_transactions", err)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(items(s.withOverdue(created))).Write(w)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.deps.Transactions.Get(r.Context(), ownerFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, "get_transaction", err)
		return
	}
	NewResponse().JSON(transactionView{Transaction: t, Overdue: view.IsOverdue(t, s.today())}).Write(w)
}

type countBody struct {
	Count int `json:"count"`
}

func (s *Server) handleEditTransaction(w http.ResponseWriter, r *http.Request) {
	scope, err := services.ParseScope(r.URL.Query().Get("scope"))
	if err != nil {
		s.fail(w, r, "edit_transaction", err)
		return
	}
	var req editTransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, "edit_transaction", err)
		return
	}

	n, err := s.deps.Transactions.Edit(r.Context(), ownerFrom(r.Context()), r.PathValue("id"), req.patch(), scope)
	if err != nil {
		s.fail(w, r, "edit_transaction", err)
		return
	}
	NewResponse().JSON(countBody{Count: n}).Write(w)
}

func (s *Server) handleToggleTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	status, err := s.deps.Transactions.ToggleStatus(r.Context(), ownerFrom(r.Context()), id)
	if err != nil {
		s.fail(w, r, "toggle_transaction", err)
		return
	}
	NewResponse().JSON(map[string]any{"id": id, "status": status}).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	scope, err := services.ParseScope(r.URL.Query().Get("scope"))
	if err != nil {
		s.fail(w, r, "delete_transaction", err)
		return
	}
	n, err := s.deps.Transactions.Delete(r.Context(), ownerFrom(r.Context()), r.PathValue("id"), scope)
	if err != nil {
		s.fail(w, r, "delete_transaction", err)
		return
	}
	NewResponse().JSON(countBody{Count: n}).Write(w)
}

func (s *Server) handleBatchDelete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, "batch_delete", err)
		return
	}
	state := view.Reduce(view.State{}, view.SelectAll{IDs: req.IDs})
	if err := s.deps.Transactions.DeleteMany(r.Context(), ownerFrom(r.Context()), state.Selected); err != nil {
		s.fail(w, r, "batch_delete", err)
		return
	}
	NewResponse().JSON(countBody{Count: len(state.Selected)}).Write(w)
}
