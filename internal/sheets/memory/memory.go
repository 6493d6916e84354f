// Package memory is a MonthWriter that keeps written tabs in memory.
package memory

import (
	"context"
	"slices"
	"sync"

	"financas/internal/sheets"
)

type Store struct {
	mu   sync.Mutex
	tabs map[string][][]any
	err  error
}

var _ sheets.MonthWriter = (*Store)(nil)

func New() *Store {
	return &Store{tabs: map[string][][]any{}}
}

// FailWith makes every following write return err.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *Store) WriteMonth(_ context.Context, year, month int, header []string, rows [][]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}

	values := make([][]any, 0, len(rows)+1)
	head := make([]any, len(header))
	for i, h := range header {
		head[i] = h
	}
	values = append(values, head)
	for _, r := range rows {
		values = append(values, slices.Clone(r))
	}
	s.tabs[sheets.TabName(year, month)] = values
	return nil
}

// Tab returns the values of a tab, header first, and whether it exists.
func (s *Store) Tab(name string) ([][]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.tabs[name]
	return v, ok
}

// Tabs returns the written tab names, sorted.
func (s *Store) Tabs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.tabs))
	for n := range s.tabs {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
