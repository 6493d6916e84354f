package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"financas/internal/core"
	"financas/internal/events"
	"financas/internal/gateway"
	"financas/internal/log"
	"financas/internal/report"
)

// DueProcessorConfig holds configuration for the due processor
type DueProcessorConfig struct {
	// Interval is how often owners are scanned (default: 1h)
	Interval time.Duration

	// Concurrency bounds how many owners are scanned at once (default: 4)
	Concurrency int
}

// DefaultDueProcessorConfig returns sensible defaults
func DefaultDueProcessorConfig() DueProcessorConfig {
	return DueProcessorConfig{
		Interval:    time.Hour,
		Concurrency: 4,
	}
}

// DueProcessor periodically publishes, per owner, the unpaid bills that are
// due or overdue and the reminders set for today.
type DueProcessor struct {
	gw     gateway.Gateway
	pub    events.DuePublisher
	config DueProcessorConfig
	clock  core.Clock
	logger *log.Logger

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewDueProcessor creates a new due processor
func NewDueProcessor(gw gateway.Gateway, pub events.DuePublisher, config DueProcessorConfig, logger *log.Logger) *DueProcessor {
	def := DefaultDueProcessorConfig()
	if config.Interval <= 0 {
		config.Interval = def.Interval
	}
	if config.Concurrency <= 0 {
		config.Concurrency = def.Concurrency
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &DueProcessor{
		gw:     gw,
		pub:    pub,
		config: config,
		clock:  time.Now,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// WithClock replaces the clock that decides what "today" is.
func (p *DueProcessor) WithClock(clock core.Clock) *DueProcessor {
	p.clock = clock
	return p
}

// DueFor collects what ownerID has due on today.
func (p *DueProcessor) DueFor(ctx context.Context, ownerID string, today core.Date) (events.Due, error) {
	txs, err := p.gw.Transactions().List(ctx, ownerID)
	if err != nil {
		return events.Due{}, fmt.Errorf("list transactions: %w", err)
	}
	reminders, err := p.gw.Reminders().List(ctx, ownerID)
	if err != nil {
		return events.Due{}, fmt.Errorf("list reminders: %w", err)
	}

	due := events.Due{OwnerID: ownerID, Date: today, Timestamp: p.clock()}
	for _, t := range txs {
		if report.IsDueBill(t, today) {
			due.Transactions = append(due.Transactions, t)
		}
	}
	for _, r := range reminders {
		if !r.Done && r.Date.Compare(today) == 0 {
			due.Reminders = append(due.Reminders, r)
		}
	}
	return due, nil
}

// ProcessDue scans every owner and publishes a notification for each one
// with something due. Failures for one owner are logged and do not stop
// the others. It returns how many notifications were published.
func (p *DueProcessor) ProcessDue(ctx context.Context, today core.Date) (int, error) {
	if p.gw == nil || p.pub == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	owners, err := p.gw.Owners(ctx)
	if err != nil {
		return 0, fmt.Errorf("list owners: %w", err)
	}

	var published atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.config.Concurrency)
	for _, owner := range owners {
		g.Go(func() error {
			due, err := p.DueFor(gctx, owner, today)
			if err != nil {
				p.logger.ErrorContext(gctx, "Failed to collect due items",
					log.FieldOwnerID, owner, log.FieldOperation, log.OpScan, log.FieldError, err)
				return nil
			}
			if due.IsEmpty() {
				return nil
			}
			if err := p.pub.PublishDue(gctx, due); err != nil {
				p.logger.ErrorContext(gctx, "Failed to publish due notification",
					log.FieldOwnerID, owner, log.FieldOperation, log.OpPublish, log.FieldError, err)
				return nil
			}
			published.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	p.logger.InfoContext(ctx, "Due scan complete",
		log.FieldCount, published.Load(),
		"owners", len(owners),
		"date", today.ISO())
	return int(published.Load()), ctx.Err()
}

// Start begins the scan loop. Returns an error if already running.
func (p *DueProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("due processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	stop, done := p.stopCh, p.doneCh
	p.mu.Unlock()

	go p.runLoop(ctx, stop, done)

	p.logger.InfoContext(ctx, "Due processor started", "interval", p.config.Interval)
	return nil
}

// Stop gracefully stops the processor and waits for completion.
func (p *DueProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	stop, done := p.stopCh, p.doneCh
	p.mu.Unlock()

	close(stop)

	select {
	case <-done:
		p.logger.InfoContext(ctx, "Due processor stopped gracefully")
		return nil
	case <-ctx.Done():
		p.logger.WarnContext(ctx, "Due processor stop timed out")
		return ctx.Err()
	}
}

// IsRunning returns whether the processor is currently running
func (p *DueProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *DueProcessor) runLoop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	p.tick(ctx)
	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *DueProcessor) tick(ctx context.Context) {
	if _, err := p.ProcessDue(ctx, core.Today(p.clock)); err != nil {
		p.logger.ErrorContext(ctx, "Due scan failed", log.FieldError, err)
	}
}
