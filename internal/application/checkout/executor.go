package checkout

import (
	"context"
	"time"

	"github.com/mercearia/pdv/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Executor runs session effects against the backend gateway. Run blocks, so
// the event loop calls it off its own goroutine and hands the Result back.
type Executor struct {
	gateway    Gateway
	logger     *zap.Logger
	recorder   Recorder
	maxResults int
}

// ExecutorOption is a functional option for configuring an Executor
type ExecutorOption func(*Executor)

// WithExecutorRecorder sets the measurement sink
func WithExecutorRecorder(recorder Recorder) ExecutorOption {
	return func(e *Executor) {
		e.recorder = recorder
	}
}

// WithMaxResults caps the number of search results kept from a response
func WithMaxResults(n int) ExecutorOption {
	return func(e *Executor) {
		e.maxResults = n
	}
}

// NewExecutor creates an executor for gateway
func NewExecutor(gateway Gateway, logger *zap.Logger, opts ...ExecutorOption) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Executor{
		gateway:  gateway,
		logger:   logger,
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run performs effect and returns its result. Timers return nil when ctx is
// cancelled, so nothing reaches a disposed session.
func (e *Executor) Run(ctx context.Context, effect Effect) Result {
	switch eff := effect.(type) {
	case ScheduleDebounce:
		if !sleep(ctx, eff.Delay) {
			return nil
		}
		return DebounceElapsed{Target: eff.Target, Generation: eff.Generation}
	case ExpireNotice:
		if !sleep(ctx, eff.After) {
			return nil
		}
		return NoticeExpired{ID: eff.ID}
	case FetchProducts:
		products, err := e.gateway.SearchProducts(ctx, eff.StoreID, eff.Query)
		if err == nil && e.maxResults > 0 && len(products) > e.maxResults {
			products = products[:e.maxResults]
		}
		return ProductsLoaded{Generation: eff.Generation, Products: products, Err: err}
	case FetchCustomers:
		customers, err := e.gateway.SearchCustomers(ctx, eff.StoreID, eff.Query)
		if err == nil && e.maxResults > 0 && len(customers) > e.maxResults {
			customers = customers[:e.maxResults]
		}
		return CustomersLoaded{Generation: eff.Generation, Customers: customers, Err: err}
	case SubmitSale:
		return e.submitSale(ctx, eff)
	case RegisterCustomer:
		customer, err := e.gateway.CreateCustomer(ctx, eff.StoreID, eff.Draft)
		return CustomerRegistered{Customer: customer, Err: err}
	default:
		e.logger.Error("unknown checkout effect", zap.Any("effect", effect))
		return nil
	}
}

func (e *Executor) submitSale(ctx context.Context, eff SubmitSale) Result {
	intent := eff.Intent
	method := intent.Method().String()

	ctx, span := telemetry.StartServiceSpan(ctx, "checkout", "commit")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrStoreID, intent.StoreID,
		telemetry.SpanAttrPaymentMethod, method,
		telemetry.SpanAttrAmount, intent.Total.Float64(),
		telemetry.SpanAttrLineCount, len(intent.Lines),
	)
	if intent.CustomerID != "" {
		telemetry.SetAttribute(span, telemetry.SpanAttrCustomerID, intent.CustomerID)
	}

	err := e.gateway.FinalizeSale(ctx, intent)
	if err != nil {
		telemetry.RecordError(span, err)
		e.recorder.SaleFailed(ctx, method)
	} else {
		telemetry.SetOK(span)
		e.recorder.SaleCommitted(ctx, method, intent.Total.Float64())
	}
	return SaleSettled{Total: intent.Total, Method: intent.Method(), Err: err}
}

// sleep waits for d, returning false if ctx ends first
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
