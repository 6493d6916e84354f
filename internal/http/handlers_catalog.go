package http

import (
	"net/http"

	"financas/internal/core"
)

type reminderRequest struct {
	Title   string    `json:"title"`
	Date    core.Date `json:"date"`
	Details string    `json:"details"`
	Done    bool      `json:"done"`
}

func (s *Server) handleListReminders(w http.ResponseWriter, r *http.Request) {
	rs, err := s.deps.Reminders.List(r.Context(), ownerFrom(r.Context()))
	if err != nil {
		s.fail(w, r, "list_reminders", err)
		return
	}
	NewResponse().JSON(items(rs)).Write(w)
}

func (s *Server) handleCreateReminder(w http.ResponseWriter, r *http.Request) {
	var req reminderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, "create_reminder", err)
		return
	}
	created, err := s.deps.Reminders.Create(r.Context(), core.Reminder{
		OwnerID: ownerFrom(r.Context()),
		Title:   req.Title,
		Date:    req.Date,
		Details: req.Details,
		Done:    req.Done,
	})
	if err != nil {
		s.fail(w, r, "create_reminder", err)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(created).Write(w)
}

func (s *Server) handleUpdateReminder(w http.ResponseWriter, r *http.Request) {
	var patch core.ReminderPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		s.fail(w, r, "update_reminder", err)
		return
	}
	if err := s.deps.Reminders.Update(r.Context(), ownerFrom(r.Context()), r.PathValue("id"), patch); err != nil {
		s.fail(w, r, "update_reminder", err)
		return
	}
	NewResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleDeleteReminder(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Reminders.Delete(r.Context(), ownerFrom(r.Context()), r.PathValue("id")); err != nil {
		s.fail(w, r, "delete_reminder", err)
		return
	}
	NewResponse().Status(http.StatusNoContent).Write(w)
}

type categoryRequest struct {
	Name          string   `json:"name"`
	Color         string   `json:"color"`
	Subcategories []string `json:"subcategories"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.deps.Catalog.Categories(r.Context(), ownerFrom(r.Context()))
	if err != nil {
		s.fail(w, r, "list_categories", err)
		return
	}
	NewResponse().JSON(items(cats)).Write(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, "create_category", err)
		return
	}
	created, err := s.deps.Catalog.CreateCategory(r.Context(), core.Category{
		OwnerID:       ownerFrom(r.Context()),
		Name:          req.Name,
		Color:         req.Color,
		Subcategories: req.Subcategories,
	})
	if err != nil {
		s.fail(w, r, "create_category", err)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(created).Write(w)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var patch core.CategoryPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		s.fail(w, r, "update_category", err)
		return
	}
	if err := s.deps.Catalog.UpdateCategory(r.Context(), ownerFrom(r.Context()), r.PathValue("id"), patch); err != nil {
		s.fail(w, r, "update_category", err)
		return
	}
	NewResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Catalog.DeleteCategory(r.Context(), ownerFrom(r.Context()), r.PathValue("id")); err != nil {
		s.fail(w, r, "delete_category", err)
		return
	}
	NewResponse().Status(http.StatusNoContent).Write(w)
}

type paymentMethodRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

func (s *Server) handleListPaymentMethods(w http.ResponseWriter, r *http.Request) {
	methods, err := s.deps.Catalog.PaymentMethods(r.Context(), ownerFrom(r.Context()))
	if err != nil {
		s.fail(w, r, "list_payment_methods", err)
		return
	}
	NewResponse().JSON(items(methods)).Write(w)
}

func (s *Server) handleCreatePaymentMethod(w http.ResponseWriter, r *http.Request) {
	var req paymentMethodRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, "create_payment_method", err)
		return
	}
	created, err := s.deps.Catalog.CreatePaymentMethod(r.Context(), core.PaymentMethod{
		OwnerID: ownerFrom(r.Context()),
		Name:    req.Name,
		Color:   req.Color,
	})
	if err != nil {
		s.fail(w, r, "create_payment_method", err)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(created).Write(w)
}

func (s *Server) handleUpdatePaymentMethod(w http.ResponseWriter, r *http.Request) {
	var patch core.PaymentMethodPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		s.fail(w, r, "update_payment_method", err)
		return
	}
	if err := s.deps.Catalog.UpdatePaymentMethod(r.Context(), ownerFrom(r.Context()), r.PathValue("id"), patch); err != nil {
		s.fail(w, r, "update_payment_method", err)
		return
	}
	NewResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleDeletePaymentMethod(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Catalog.DeletePaymentMethod(r.Context(), ownerFrom(r.Context()), r.PathValue("id")); err != nil {
		s.fail(w, r, "delete_payment_method", err)
		return
	}
	NewResponse().Status(http.StatusNoContent).Write(w)
}
