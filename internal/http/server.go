// Package http serves the JSON API the browser client talks to.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"financas/internal/core"
	"financas/internal/export"
	"financas/internal/gateway"
	"financas/internal/log"
	"financas/internal/middleware/ratelimit"
	"financas/internal/middleware/security"
	"financas/internal/middleware/trace"
	"financas/internal/services"
)

// Deps are the services the handlers call. Checkout may be nil when billing
// is not configured.
type Deps struct {
	Gateway      gateway.Gateway
	Transactions *services.TransactionService
	Catalog      *services.CatalogService
	Reminders    *services.ReminderService
	Export       *export.Service
	Auth         gateway.Authenticator
	Checkout     gateway.Checkout
	Plans        []string
}

type Server struct {
	http.Server
	deps     Deps
	logger   *log.Logger
	clock    core.Clock
	limiter  *ratelimit.Limiter
	detector *security.Detector

	shutdownOnce sync.Once
}

type options struct {
	rateLimit int
	clock     core.Clock
}

type Option func(*options)

// WithRateLimit sets how many writes per minute a client may make.
func WithRateLimit(perMinute int) Option {
	return func(o *options) { o.rateLimit = perMinute }
}

// WithClock replaces the clock that decides what "today" is.
func WithClock(clock core.Clock) Option {
	return func(o *options) { o.clock = clock }
}

// NewServer configures routes and middleware, returning a ready-to-run
// server.
func NewServer(addr string, deps Deps, logger *log.Logger, opts ...Option) *Server {
	o := options{rateLimit: ratelimit.DefaultConfig().RequestsPerMinute, clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = log.Discard()
	}

	s := &Server{
		deps:     deps,
		logger:   logger.WithComponent(log.ComponentHTTP),
		clock:    o.clock,
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: o.rateLimit}),
		detector: security.NewDetector(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	api := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, s.requireUser(h))
	}

	api("GET /api/me", s.handleMe)
	api("POST /api/logout", s.handleLogout)

	api("GET /api/transactions", s.handleListTransactions)
	api("POST /api/transactions", s.handleCreateTransactions)
	api("GET /api/transactions/{id}", s.handleGetTransaction)
	api("PATCH /api/transactions/{id}", s.handleEditTransaction)
	api("POST /api/transactions/{id}/toggle", s.handleToggleTransaction)
	api("DELETE /api/transactions/{id}", s.handleDeleteTransaction)
	api("POST /api/transactions/batch-delete", s.handleBatchDelete)

	api("GET /api/reminders", s.handleListReminders)
	api("POST /api/reminders", s.handleCreateReminder)
	api("PATCH /api/reminders/{id}", s.handleUpdateReminder)
	api("DELETE /api/reminders/{id}", s.handleDeleteReminder)

	api("GET /api/categories", s.handleListCategories)
	api("POST /api/categories", s.handleCreateCategory)
	api("PATCH /api/categories/{id}", s.handleUpdateCategory)
	api("DELETE /api/categories/{id}", s.handleDeleteCategory)

	api("GET /api/payment-methods", s.handleListPaymentMethods)
	api("POST /api/payment-methods", s.handleCreatePaymentMethod)
	api("PATCH /api/payment-methods/{id}", s.handleUpdatePaymentMethod)
	api("DELETE /api/payment-methods/{id}", s.handleDeletePaymentMethod)

	api("GET /api/dashboard", s.handleDashboard)
	api("GET /api/reports/evolution", s.handleEvolution)
	api("GET /api/reports/year-over-year", s.handleYearOverYear)
	api("GET /api/calendar", s.handleCalendar)

	api("GET /api/export.csv", s.handleExportCSV)
	api("POST /api/export/sheets", s.handleExportSheets)

	api("GET /api/billing/plans", s.handlePlans)
	api("POST /api/billing/checkout", s.handleCheckout)

	// Outermost first: tracing gives every later layer a request logger.
	var handler http.Handler = mux
	handler = s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		s.logger.WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldClientIP, s.detector.ExtractClientIP(r), log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
		ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later").Write(w)
	}, http.MethodGet, http.MethodHead, http.MethodOptions)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.detector.Middleware(handler)
	handler = trace.NewMiddleware(s.logger, s.detector.ExtractClientIP).Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}
	return s
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) today() core.Date {
	return core.Today(s.clock)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	NewResponse().JSON(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.deps.Gateway.Ping(ctx); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
		ErrorResponse(http.StatusServiceUnavailable, "storage unavailable").Write(w)
		return
	}
	NewResponse().JSON(map[string]string{"status": "ready"}).Write(w)
}
