package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"financas/internal/core"
)

func TestParseMonth(t *testing.T) {
	today := core.NewDate(2024, 3, 15)
	tests := []struct {
		name      string
		query     url.Values
		wantYear  int
		wantMonth int
		wantErr   bool
	}{
		{"defaults to today", url.Values{}, 2024, 3, false},
		{"both given", url.Values{"year": {"2023"}, "month": {"11"}}, 2023, 11, false},
		{"only month", url.Values{"month": {"1"}}, 2024, 1, false},
		{"month out of range", url.Values{"month": {"13"}}, 0, 0, true},
		{"month not a number", url.Values{"month": {"march"}}, 0, 0, true},
		{"year zero", url.Values{"year": {"0"}}, 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			year, month, err := parseMonth(tt.query, today)
			if tt.wantErr {
				if !errors.Is(err, core.ErrInvalidDate) {
					t.Fatalf("err = %v, want ErrInvalidDate", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if year != tt.wantYear || month != tt.wantMonth {
				t.Errorf("got %d-%d, want %d-%d", year, month, tt.wantYear, tt.wantMonth)
			}
		})
	}
}

func TestParseYear_IgnoresMonth(t *testing.T) {
	year, err := parseYear(url.Values{"year": {"2022"}, "month": {"99"}}, core.NewDate(2024, 3, 15))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if year != 2022 {
		t.Errorf("year = %d, want 2022", year)
	}
}

func TestFlexAmount(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{`"1.234,56"`, "1234.56", false},
		{`"R$ 10"`, "10", false},
		{`12.5`, "12.5", false},
		{`0`, "", true},
		{`-3`, "", true},
		{`"abc"`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			var a flexAmount
			err := a.UnmarshalJSON([]byte(tt.raw))
			if tt.wantErr {
				if !errors.Is(err, core.ErrInvalidAmount) {
					t.Fatalf("err = %v, want ErrInvalidAmount", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := a.ptr(); got == nil || got.String() != tt.want {
				t.Errorf("amount = %v, want %s", got, tt.want)
			}
		})
	}

	var absent flexAmount
	if err := absent.UnmarshalJSON([]byte("null")); err != nil || absent.ptr() != nil {
		t.Errorf("null should leave the amount unset, got %v, %v", absent.ptr(), err)
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Date core.Date `json:"date"`
	}
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{"valid", `{"date":"2024-03-01"}`, nil},
		{"display date", `{"date":"01/03/2024"}`, nil},
		{"bad date keeps domain error", `{"date":"31/02/2024"}`, core.ErrInvalidDate},
		{"unknown field", `{"when":"2024-03-01"}`, errBadRequest},
		{"empty body", ``, errBadRequest},
		{"trailing data", `{"date":"2024-03-01"} {}`, errBadRequest},
		{"not json", `date=2024-03-01`, errBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var p payload
			err := decodeJSON(httptest.NewRecorder(), r, &p)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if p.Date.Compare(core.NewDate(2024, 3, 1)) != 0 {
					t.Errorf("date = %v", p.Date)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := map[string]string{
		"Bearer abc":   "abc",
		"bearer  abc ": "abc",
		"Basic abc":    "",
		"abc":          "",
		"":             "",
	}
	for header, want := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		if got := bearerToken(r); got != want {
			t.Errorf("bearerToken(%q) = %q, want %q", header, got, want)
		}
	}
}
