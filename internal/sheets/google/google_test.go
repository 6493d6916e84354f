package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"
)

// fakeSheets answers the handful of Sheets endpoints WriteMonth uses.
type fakeSheets struct {
	mu      sync.Mutex
	tabs    []string
	calls   []string
	written map[string]any
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	path := r.URL.Path

	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(path, "/v4/spreadsheets/sheet-1"):
		f.calls = append(f.calls, "get")
		sheets := []map[string]any{}
		for _, t := range f.tabs {
			sheets = append(sheets, map[string]any{"properties": map[string]any{"title": t}})
		}
		json.NewEncoder(w).Encode(map[string]any{"sheets": sheets})
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":batchUpdate"):
		f.calls = append(f.calls, "add")
		var body struct {
			Requests []struct {
				AddSheet struct {
					Properties struct {
						Title string `json:"title"`
					} `json:"properties"`
				} `json:"addSheet"`
			} `json:"requests"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		f.tabs = append(f.tabs, body.Requests[0].AddSheet.Properties.Title)
		w.Write([]byte(`{}`))
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":clear"):
		f.calls = append(f.calls, "clear")
		w.Write([]byte(`{}`))
	case r.Method == http.MethodPut:
		f.calls = append(f.calls, "update")
		b, _ := io.ReadAll(r.Body)
		var body map[string]any
		json.Unmarshal(b, &body)
		f.written = body
		w.Write([]byte(`{}`))
	default:
		http.Error(w, `{"error":{"code":404,"message":"not found"}}`, http.StatusNotFound)
	}
}

func newFakeClient(t *testing.T, f *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	c, err := NewClient(context.Background(), "sheet-1", Credentials{}, nil,
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return c
}

func TestWriteMonthCreatesMissingTab(t *testing.T) {
	f := &fakeSheets{tabs: []string{"2025-02"}}
	c := newFakeClient(t, f)

	err := c.WriteMonth(context.Background(), 2025, 3, []string{"Data", "Valor"}, [][]any{{"05/03/2025", "-10,00"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"get", "add", "clear", "update"}, f.calls)
	assert.Equal(t, []string{"2025-02", "2025-03"}, f.tabs)
	assert.Equal(t, []any{
		[]any{"Data", "Valor"},
		[]any{"05/03/2025", "-10,00"},
	}, f.written["values"])
}

func TestWriteMonthReusesExistingTab(t *testing.T) {
	f := &fakeSheets{tabs: []string{"2025-03"}}
	c := newFakeClient(t, f)

	require.NoError(t, c.WriteMonth(context.Background(), 2025, 3, []string{"Data"}, nil))
	assert.Equal(t, []string{"get", "clear", "update"}, f.calls)
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(context.Background(), " ", Credentials{}, nil)
	assert.EqualError(t, err, "missing spreadsheet id")

	_, err = NewClient(context.Background(), "sheet-1", Credentials{}, nil)
	assert.ErrorContains(t, err, "missing service account credentials")

	_, err = NewClient(context.Background(), "sheet-1", Credentials{File: "/does/not/exist.json"}, nil)
	assert.ErrorContains(t, err, "read service account file")
}

func TestQuoteTab(t *testing.T) {
	assert.Equal(t, "'2025-03'", quoteTab("2025-03"))
	assert.Equal(t, "'Ana''s'", quoteTab("Ana's"))
}
