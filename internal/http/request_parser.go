// This file implements utilities for parsing and validating HTTP request data.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"financas/internal/core"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// decodeJSON reads a single JSON object into dst. Unknown fields are
// rejected. Domain validation errors raised while decoding (a bad date or
// amount) are returned as they are; anything else wraps errBadRequest.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if core.IsValidationError(err) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errBadRequest)
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON object", errBadRequest)
	}
	return nil
}

// flexAmount accepts either a localized string ("1.234,56") or a JSON
// number (1234.56). Both must be positive.
type flexAmount struct {
	decimal.Decimal
	set bool
}

func (a *flexAmount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		s, err := strconv.Unquote(string(b))
		if err != nil {
			return core.ErrInvalidAmount
		}
		d, err := core.ParseAmount(s)
		if err != nil {
			return err
		}
		a.Decimal, a.set = d, true
		return nil
	}
	d, err := decimal.NewFromString(string(b))
	if err != nil || !d.IsPositive() {
		return fmt.Errorf("%w: %s", core.ErrInvalidAmount, b)
	}
	a.Decimal, a.set = d, true
	return nil
}

// ptr returns nil when the amount was absent from the body.
func (a flexAmount) ptr() *decimal.Decimal {
	if !a.set {
		return nil
	}
	d := a.Decimal
	return &d
}

// parseMonth reads year and month from the query, falling back to today's.
func parseMonth(q url.Values, today core.Date) (year, month int, err error) {
	year, month = today.Year(), today.Month()
	if v := strings.TrimSpace(q.Get("year")); v != "" {
		if year, err = strconv.Atoi(v); err != nil || year < 1 || year > 9999 {
			return 0, 0, fmt.Errorf("%w: year %q", core.ErrInvalidDate, v)
		}
	}
	if v := strings.TrimSpace(q.Get("month")); v != "" {
		if month, err = strconv.Atoi(v); err != nil || month < 1 || month > 12 {
			return 0, 0, fmt.Errorf("%w: month %q", core.ErrInvalidDate, v)
		}
	}
	return year, month, nil
}

// parseYear reads year from the query, falling back to today's.
func parseYear(q url.Values, today core.Date) (int, error) {
	year, _, err := parseMonth(url.Values{"year": q["year"]}, today)
	return year, err
}

// bearerToken extracts the token of an "Authorization: Bearer" header.
func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
