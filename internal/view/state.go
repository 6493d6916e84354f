// Package view holds the list and dashboard filter state as an immutable
// value. State only changes through Reduce, which returns a new State and
// never touches its input.
package view

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"financas/internal/core"
	"financas/internal/report"
)

// State is what the list, calendar and charts are filtered by.
type State struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	// Type, Status and Category are empty when not filtering.
	Type     core.TransactionType `json:"type,omitempty"`
	Status   core.Status          `json:"status,omitempty"`
	Category string               `json:"category,omitempty"`
	Search   string               `json:"search,omitempty"`
	Range    report.Range         `json:"range"`
	// Selected holds the ids picked for batch actions, sorted and unique.
	Selected []string `json:"selected,omitempty"`
}

// Initial is the state of a fresh session: the current month, no filters.
func Initial(today core.Date) State {
	return State{
		Year:  today.Year(),
		Month: today.Month(),
		Range: report.DefaultRange,
	}
}

// Period returns the first day of the selected month.
func (s State) Period() core.Date {
	return core.NewDate(s.Year, s.Month, 1)
}

// IsSelected reports whether id is in the selection.
func (s State) IsSelected(id string) bool {
	_, found := slices.BinarySearch(s.Selected, id)
	return found
}

// Action is a state transition.
type Action interface {
	apply(State) State
}

type (
	NextMonth struct{}
	PrevMonth struct{}
	// GoToMonth jumps to a month. Out of range months are normalized, so
	// month 13 is January of the next year.
	GoToMonth struct{ Year, Month int }

	SetType     struct{ Type core.TransactionType }
	SetStatus   struct{ Status core.Status }
	SetCategory struct{ Category string }
	SetSearch   struct{ Query string }
	SetRange    struct{ Range report.Range }
	// ClearFilters drops type, status, category and search.
	ClearFilters struct{}

	ToggleSelected struct{ ID string }
	// SelectAll replaces the selection with ids.
	SelectAll      struct{ IDs []string }
	ClearSelection struct{}
)

// Reduce returns the state after a. A nil action returns s unchanged.
func Reduce(s State, a Action) State {
	if a == nil {
		return s
	}
	return a.apply(s)
}

func shiftMonth(s State, n int) State {
	d := s.Period().AddMonths(n)
	s.Year, s.Month = d.Year(), d.Month()
	return s
}

func (NextMonth) apply(s State) State { return shiftMonth(s, 1) }
func (PrevMonth) apply(s State) State { return shiftMonth(s, -1) }

func (a GoToMonth) apply(s State) State {
	d := core.NewDate(a.Year, 1, 1).AddMonths(a.Month - 1)
	s.Year, s.Month = d.Year(), d.Month()
	return s
}

func (a SetType) apply(s State) State     { s.Type = a.Type; return s }
func (a SetStatus) apply(s State) State   { s.Status = a.Status; return s }
func (a SetRange) apply(s State) State    { s.Range = a.Range; return s }
func (a SetSearch) apply(s State) State   { s.Search = strings.TrimSpace(a.Query); return s }
func (a SetCategory) apply(s State) State { s.Category = strings.TrimSpace(a.Category); return s }

func (ClearFilters) apply(s State) State {
	s.Type, s.Status, s.Category, s.Search = "", "", "", ""
	return s
}

func (a ToggleSelected) apply(s State) State {
	i, found := slices.BinarySearch(s.Selected, a.ID)
	if found {
		s.Selected = slices.Delete(slices.Clone(s.Selected), i, i+1)
	} else {
		s.Selected = slices.Insert(slices.Clone(s.Selected), i, a.ID)
	}
	return s
}

func (a SelectAll) apply(s State) State {
	ids := slices.Clone(a.IDs)
	slices.Sort(ids)
	s.Selected = slices.Compact(ids)
	return s
}

func (ClearSelection) apply(s State) State { s.Selected = nil; return s }

// FromQuery folds the filters found in q over Initial(today). Recognized
// keys are year, month, nav (prev|next), type, status, category, q and
// range. Invalid values are reported as errors wrapping the matching core
// validation error.
func FromQuery(today core.Date, q url.Values) (State, error) {
	s := Initial(today)
	var actions []Action

	if q.Has("year") || q.Has("month") {
		year, month := s.Year, s.Month
		if v := q.Get("year"); v != "" {
			y, err := strconv.Atoi(v)
			if err != nil || y < 1 || y > 9999 {
				return State{}, fmt.Errorf("%w: year %q", core.ErrInvalidDate, v)
			}
			year = y
		}
		if v := q.Get("month"); v != "" {
			m, err := strconv.Atoi(v)
			if err != nil || m < 1 || m > 12 {
				return State{}, fmt.Errorf("%w: month %q", core.ErrInvalidDate, v)
			}
			month = m
		}
		actions = append(actions, GoToMonth{Year: year, Month: month})
	}

	switch q.Get("nav") {
	case "":
	case "prev":
		actions = append(actions, PrevMonth{})
	case "next":
		actions = append(actions, NextMonth{})
	default:
		return State{}, fmt.Errorf("%w: nav %q", core.ErrInvalidDate, q.Get("nav"))
	}

	if v := q.Get("type"); v != "" {
		t := core.TransactionType(v)
		if err := t.Validate(); err != nil {
			return State{}, err
		}
		actions = append(actions, SetType{Type: t})
	}
	if v := q.Get("status"); v != "" {
		st := core.Status(v)
		if err := st.Validate(); err != nil {
			return State{}, err
		}
		actions = append(actions, SetStatus{Status: st})
	}
	if v := q.Get("category"); v != "" {
		actions = append(actions, SetCategory{Category: v})
	}
	if v := q.Get("q"); v != "" {
		actions = append(actions, SetSearch{Query: v})
	}
	if q.Has("range") {
		r, err := report.ParseRange(q.Get("range"))
		if err != nil {
			return State{}, err
		}
		actions = append(actions, SetRange{Range: r})
	}

	for _, a := range actions {
		s = Reduce(s, a)
	}
	return s, nil
}
