package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"financas/internal/core"
	"financas/internal/export"
	"financas/internal/gateway"
	"financas/internal/log"
	"financas/internal/report"
	"financas/internal/services"
	"financas/internal/view"
)

// ResponseBuilder provides a fluent API for building JSON responses.
type ResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       any
}

// NewResponse creates a new response builder with default 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON sets the value encoded as the response body.
func (b *ResponseBuilder) JSON(v any) *ResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil || b.statusCode == http.StatusNoContent {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.body)
}

// errorBody is the shape of every error response.
type errorBody struct {
	Error      string   `json:"error"`
	CreatedIDs []string `json:"created_ids,omitempty"`
}

// ErrorResponse creates a standard error response.
func ErrorResponse(statusCode int, message string) *ResponseBuilder {
	return NewResponse().Status(statusCode).JSON(errorBody{Error: message})
}

// errBadRequest marks malformed request bodies and parameters.
var errBadRequest = errors.New("bad request")

// statusFor maps an error to the HTTP status it is reported with.
func statusFor(err error) int {
	var partial *services.PartialSeriesError
	switch {
	case errors.As(err, &partial):
		return http.StatusInternalServerError
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, gateway.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, gateway.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrDuplicateCategory), errors.Is(err, core.ErrDuplicatePaymentName):
		return http.StatusConflict
	case core.IsValidationError(err),
		errors.Is(err, services.ErrInvalidScope),
		errors.Is(err, report.ErrUnknownRange),
		errors.Is(err, gateway.ErrUnknownPlan):
		return http.StatusUnprocessableEntity
	case errors.Is(err, export.ErrSheetsDisabled), errors.Is(err, errBillingDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// fail reports err to the client. Server errors are logged and their
// message is not exposed; a partial series also lists what was stored.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, operation string, err error) {
	status := statusFor(err)
	if status < http.StatusInternalServerError {
		ErrorResponse(status, err.Error()).Write(w)
		return
	}

	ctx := r.Context()
	fields := log.NewFields().WithOwner(ownerFrom(ctx)).WithErrorType(log.ErrorTypeInternal)
	body := errorBody{Error: "internal error"}

	var partial *services.PartialSeriesError
	if errors.As(err, &partial) {
		fields.WithErrorType(log.ErrorTypePartial)
		body = errorBody{Error: "the series was only partially saved", CreatedIDs: partial.CreatedIDs()}
	} else if status == http.StatusServiceUnavailable {
		body.Error = err.Error()
	}

	log.NewStructuredLogger(log.FromContext(ctx)).LogError(ctx, "Request failed", err, log.ComponentHTTP, operation, fields)
	NewResponse().Status(status).JSON(body).Write(w)
}

// listBody wraps collections so the top-level JSON value is an object.
type listBody[T any] struct {
	Items []T         `json:"items"`
	State *view.State `json:"state,omitempty"`
}

func items[T any](xs []T) listBody[T] {
	if xs == nil {
		xs = []T{}
	}
	return listBody[T]{Items: xs}
}
