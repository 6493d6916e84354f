// Package services provides business logic and orchestration services.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"financas/internal/core"
	"financas/internal/gateway"
	"financas/internal/log"
	"financas/internal/recurring"
)

// Scope selects which records an edit or delete applies to.
type Scope string

const (
	ScopeSingle Scope = "single"
	ScopeAll    Scope = "all"
)

var ErrInvalidScope = errors.New("invalid scope")

// ParseScope maps query input to a Scope. Empty input means ScopeSingle.
func ParseScope(s string) (Scope, error) {
	switch sc := Scope(strings.ToLower(strings.TrimSpace(s))); sc {
	case "":
		return ScopeSingle, nil
	case ScopeSingle, ScopeAll:
		return sc, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidScope, s)
	}
}

// PartialSeriesError reports a series whose persistence stopped half way.
// The records in Created are stored and are not rolled back.
type PartialSeriesError struct {
	Created     []core.Transaction
	FailedIndex int
	Total       int
	Err         error
}

func (e *PartialSeriesError) Error() string {
	return fmt.Sprintf("occurrence %d of %d failed after %d were created: %v",
		e.FailedIndex+1, e.Total, len(e.Created), e.Err)
}

func (e *PartialSeriesError) Unwrap() error { return e.Err }

// CreatedIDs returns the ids of the records that were stored.
func (e *PartialSeriesError) CreatedIDs() []string {
	ids := make([]string, len(e.Created))
	for i, t := range e.Created {
		ids[i] = t.ID
	}
	return ids
}

// TransactionService orchestrates transaction operations on the gateway.
type TransactionService struct {
	gw         gateway.Gateway
	generator  recurring.Generator
	logger     *log.Logger
	structured *log.StructuredLogger
}

func NewTransactionService(gw gateway.Gateway, logger *log.Logger) *TransactionService {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentTransaction)
	return &TransactionService{
		gw:         gw,
		logger:     logger,
		structured: log.NewStructuredLogger(logger),
	}
}

// WithGenerator replaces the occurrence generator. Tests use it to pin
// group ids.
func (s *TransactionService) WithGenerator(g recurring.Generator) *TransactionService {
	s.generator = g
	return s
}

func (s *TransactionService) List(ctx context.Context, ownerID string) ([]core.Transaction, error) {
	txs, err := s.gw.Transactions().List(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// CreateSeries expands tpl and stores the occurrences one after the other,
// in order. The loop stops at the first failure and returns a
// *PartialSeriesError; the context is only consulted by the gateway calls
// themselves.
func (s *TransactionService) CreateSeries(ctx context.Context, tpl recurring.Template) ([]core.Transaction, error) {
	occurrences, err := s.generator.Generate(tpl)
	if err != nil {
		return nil, err
	}

	ctx = gateway.WithOwner(ctx, tpl.OwnerID)
	created := make([]core.Transaction, 0, len(occurrences))
	for i, occ := range occurrences {
		stored, err := s.gw.Transactions().Create(ctx, occ)
		if err != nil {
			perr := &PartialSeriesError{
				Created:     created,
				FailedIndex: i,
				Total:       len(occurrences),
				Err:         err,
			}
			s.structured.LogError(ctx, "Failed to store occurrence", err, log.ComponentTransaction, log.OpCreate,
				log.NewFields().WithOwner(tpl.OwnerID).WithErrorType(log.ErrorTypePartial))
			return created, perr
		}
		created = append(created, stored)
	}

	s.structured.LogSeriesCreated(ctx, tpl.OwnerID, string(tpl.Mode), created[0].GroupID,
		tpl.Description, tpl.Amount.String(), len(created))
	return created, nil
}

// Get returns one of the owner's transactions.
func (s *TransactionService) Get(ctx context.Context, ownerID, id string) (core.Transaction, error) {
	txs, err := s.List(ctx, ownerID)
	if err != nil {
		return core.Transaction{}, err
	}
	for _, t := range txs {
		if t.ID == id {
			return t, nil
		}
	}
	return core.Transaction{}, gateway.ErrNotFound
}

// targets returns the records a scoped operation on id touches and whether
// it acts on a whole group. ScopeAll on a record without group id is the
// same as ScopeSingle.
func (s *TransactionService) targets(ctx context.Context, ownerID, id string, scope Scope) ([]core.Transaction, bool, error) {
	txs, err := s.List(ctx, ownerID)
	if err != nil {
		return nil, false, err
	}
	var target *core.Transaction
	for i := range txs {
		if txs[i].ID == id {
			target = &txs[i]
			break
		}
	}
	if target == nil {
		return nil, false, gateway.ErrNotFound
	}
	if scope != ScopeAll || target.GroupID == "" {
		return []core.Transaction{*target}, false, nil
	}

	var group []core.Transaction
	for _, t := range txs {
		if t.GroupID == target.GroupID {
			group = append(group, t)
		}
	}
	return group, true, nil
}

// groupPatch keeps the fields an "all" edit may change uniformly. Date and
// status stay per occurrence.
func groupPatch(p core.TransactionPatch) core.TransactionPatch {
	return core.TransactionPatch{
		Description: p.Description,
		Amount:      p.Amount,
		Type:        p.Type,
		Category:    p.Category,
	}
}

// Edit applies patch to the record id or, with ScopeAll, to every record of
// its group. A group edit only changes description, amount, type and
// category; a patch with none of those fails with core.ErrSeriesPatch.
// It returns how many records were updated. Updates run in order and stop
// at the first failure; earlier ones stay applied.
func (s *TransactionService) Edit(ctx context.Context, ownerID, id string, patch core.TransactionPatch, scope Scope) (int, error) {
	if err := patch.Validate(); err != nil {
		return 0, err
	}
	targets, grouped, err := s.targets(ctx, ownerID, id, scope)
	if err != nil {
		return 0, err
	}
	if patch.IsEmpty() {
		return 0, nil
	}
	if grouped {
		if patch = groupPatch(patch); patch.IsEmpty() {
			return 0, core.ErrSeriesPatch
		}
	}

	ctx = gateway.WithOwner(ctx, ownerID)
	for i, t := range targets {
		if err := s.gw.Transactions().Update(ctx, t.ID, patch); err != nil {
			return i, fmt.Errorf("update transaction %s: %w", t.ID, err)
		}
	}

	s.logger.InfoContext(ctx, "Transactions updated",
		log.FieldOwnerID, ownerID,
		log.FieldRecordID, id,
		log.FieldScope, string(scope),
		log.FieldCount, len(targets))
	return len(targets), nil
}

// ToggleStatus flips one record between pending and paid and returns the
// new status.
func (s *TransactionService) ToggleStatus(ctx context.Context, ownerID, id string) (core.Status, error) {
	t, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return "", err
	}
	next := t.Status.Toggle()
	ctx = gateway.WithOwner(ctx, ownerID)
	if err := s.gw.Transactions().Update(ctx, id, core.TransactionPatch{Status: &next}); err != nil {
		return "", fmt.Errorf("toggle transaction %s: %w", id, err)
	}
	return next, nil
}

// Delete removes the record id or, with ScopeAll, its whole group. It
// returns how many records were removed.
func (s *TransactionService) Delete(ctx context.Context, ownerID, id string, scope Scope) (int, error) {
	targets, _, err := s.targets(ctx, ownerID, id, scope)
	if err != nil {
		return 0, err
	}

	ctx = gateway.WithOwner(ctx, ownerID)
	if len(targets) == 1 {
		if err := s.gw.Transactions().Delete(ctx, id); err != nil {
			return 0, fmt.Errorf("delete transaction %s: %w", id, err)
		}
		return 1, nil
	}

	ids := make([]string, len(targets))
	for i, t := range targets {
		ids[i] = t.ID
	}
	if err := s.gw.Transactions().DeleteMany(ctx, ids); err != nil {
		return 0, fmt.Errorf("delete transaction group: %w", err)
	}
	return len(ids), nil
}

// DeleteMany removes a selection of the owner's records. Every id must
// belong to the owner, otherwise nothing is deleted and ErrNotFound is
// returned.
func (s *TransactionService) DeleteMany(ctx context.Context, ownerID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	txs, err := s.List(ctx, ownerID)
	if err != nil {
		return err
	}
	owned := make(map[string]struct{}, len(txs))
	for _, t := range txs {
		owned[t.ID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := owned[id]; !ok {
			return fmt.Errorf("transaction %s: %w", id, gateway.ErrNotFound)
		}
	}

	if err := s.gw.Transactions().DeleteMany(gateway.WithOwner(ctx, ownerID), ids); err != nil {
		return fmt.Errorf("delete transactions: %w", err)
	}
	s.logger.InfoContext(ctx, "Transactions deleted",
		log.FieldOwnerID, ownerID,
		log.FieldOperation, log.OpDeleteMany,
		log.FieldCount, len(ids))
	return nil
}
