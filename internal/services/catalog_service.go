package services

import (
	"context"
	"fmt"
	"strings"

	"financas/internal/cache"
	"financas/internal/core"
	"financas/internal/events"
	"financas/internal/gateway"
	"financas/internal/log"
)

// CatalogService serves categories and payment methods. Lists are cached
// per owner and dropped when a change event for the owner arrives.
type CatalogService struct {
	gw      gateway.Gateway
	cats    cache.Cache[[]core.Category]
	methods cache.Cache[[]core.PaymentMethod]
	logger  *log.Logger
}

// NewCatalogService creates the service. Nil caches disable caching.
func NewCatalogService(gw gateway.Gateway, cats cache.Cache[[]core.Category], methods cache.Cache[[]core.PaymentMethod], logger *log.Logger) *CatalogService {
	if logger == nil {
		logger = log.Discard()
	}
	return &CatalogService{
		gw:      gw,
		cats:    cats,
		methods: methods,
		logger:  logger.WithComponent(log.ComponentCatalog),
	}
}

// Categories returns the owner's categories, or the default set when none
// are stored. Defaults have no id.
func (s *CatalogService) Categories(ctx context.Context, ownerID string) ([]core.Category, error) {
	if s.cats != nil {
		if cached, ok := s.cats.Get(ownerID); ok {
			return cloneCategories(cached), nil
		}
	}

	stored, err := s.gw.Categories().List(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if len(stored) == 0 {
		stored, err = core.DefaultCategories(ownerID)
		if err != nil {
			return nil, err
		}
	}

	if s.cats != nil {
		s.cats.Set(ownerID, cloneCategories(stored))
	}
	return stored, nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	created, err := s.gw.Categories().Create(gateway.WithOwner(ctx, c.OwnerID), c)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	s.forget(c.OwnerID)
	return created, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, ownerID, id string, patch core.CategoryPatch) error {
	if err := patch.Validate(); err != nil {
		return err
	}
	if err := ensureOwned(ctx, s.gw.Categories(), ownerID, id, func(c core.Category) string { return c.ID }); err != nil {
		return err
	}
	if err := s.gw.Categories().Update(gateway.WithOwner(ctx, ownerID), id, patch); err != nil {
		return fmt.Errorf("update category %s: %w", id, err)
	}
	s.forget(ownerID)
	return nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, ownerID, id string) error {
	if err := ensureOwned(ctx, s.gw.Categories(), ownerID, id, func(c core.Category) string { return c.ID }); err != nil {
		return err
	}
	if err := s.gw.Categories().Delete(gateway.WithOwner(ctx, ownerID), id); err != nil {
		return fmt.Errorf("delete category %s: %w", id, err)
	}
	s.forget(ownerID)
	return nil
}

func (s *CatalogService) PaymentMethods(ctx context.Context, ownerID string) ([]core.PaymentMethod, error) {
	if s.methods != nil {
		if cached, ok := s.methods.Get(ownerID); ok {
			return append([]core.PaymentMethod(nil), cached...), nil
		}
	}
	stored, err := s.gw.PaymentMethods().List(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list payment methods: %w", err)
	}
	if s.methods != nil {
		s.methods.Set(ownerID, append([]core.PaymentMethod(nil), stored...))
	}
	return stored, nil
}

func (s *CatalogService) CreatePaymentMethod(ctx context.Context, m core.PaymentMethod) (core.PaymentMethod, error) {
	m.Name = strings.TrimSpace(m.Name)
	if err := m.Validate(); err != nil {
		return core.PaymentMethod{}, err
	}
	created, err := s.gw.PaymentMethods().Create(gateway.WithOwner(ctx, m.OwnerID), m)
	if err != nil {
		return core.PaymentMethod{}, fmt.Errorf("create payment method: %w", err)
	}
	s.forget(m.OwnerID)
	return created, nil
}

func (s *CatalogService) UpdatePaymentMethod(ctx context.Context, ownerID, id string, patch core.PaymentMethodPatch) error {
	if err := patch.Validate(); err != nil {
		return err
	}
	if err := ensureOwned(ctx, s.gw.PaymentMethods(), ownerID, id, func(m core.PaymentMethod) string { return m.ID }); err != nil {
		return err
	}
	if err := s.gw.PaymentMethods().Update(gateway.WithOwner(ctx, ownerID), id, patch); err != nil {
		return fmt.Errorf("update payment method %s: %w", id, err)
	}
	s.forget(ownerID)
	return nil
}

func (s *CatalogService) DeletePaymentMethod(ctx context.Context, ownerID, id string) error {
	if err := ensureOwned(ctx, s.gw.PaymentMethods(), ownerID, id, func(m core.PaymentMethod) string { return m.ID }); err != nil {
		return err
	}
	if err := s.gw.PaymentMethods().Delete(gateway.WithOwner(ctx, ownerID), id); err != nil {
		return fmt.Errorf("delete payment method %s: %w", id, err)
	}
	s.forget(ownerID)
	return nil
}

// PublishChange drops cached lists touched by a change made elsewhere, for
// example by another server instance sharing the broker. A change without
// owner clears the whole cache.
func (s *CatalogService) PublishChange(_ context.Context, c events.Change) error {
	if c.Resource != events.Categories && c.Resource != events.PaymentMethods {
		return nil
	}
	if c.OwnerID == "" {
		all := func(string) bool { return true }
		if s.cats != nil {
			s.cats.DeleteFunc(all)
		}
		if s.methods != nil {
			s.methods.DeleteFunc(all)
		}
		return nil
	}
	s.forget(c.OwnerID)
	return nil
}

func (s *CatalogService) forget(ownerID string) {
	if s.cats != nil {
		s.cats.Delete(ownerID)
	}
	if s.methods != nil {
		s.methods.Delete(ownerID)
	}
}

func cloneCategories(in []core.Category) []core.Category {
	out := make([]core.Category, len(in))
	for i, c := range in {
		c.Subcategories = append([]string{}, c.Subcategories...)
		out[i] = c
	}
	return out
}

// ensureOwned returns ErrNotFound unless the owner has a record with id.
func ensureOwned[T any, P any](ctx context.Context, c gateway.Collection[T, P], ownerID, id string, idOf func(T) string) error {
	rows, err := c.List(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}
	for _, r := range rows {
		if idOf(r) == id {
			return nil
		}
	}
	return gateway.ErrNotFound
}
