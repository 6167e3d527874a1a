package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// CheckoutMetrics records checkout activity of one terminal.
type CheckoutMetrics struct {
	logger  *zap.Logger
	storeID attribute.KeyValue

	salesCommitted  *Counter
	salesFailed     *Counter
	saleAmount      *Histogram
	stockRejections *Counter
	staleDiscarded  *Counter
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewCheckoutMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

// NewCheckoutMetrics creates the checkout instruments on meter.
func NewCheckoutMetrics(meter metric.Meter, storeID string, logger *zap.Logger) (*CheckoutMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &CheckoutMetrics{
		logger:  logger,
		storeID: AttrStoreID.String(storeID),
	}

	var err error
	m.salesCommitted, err = NewCounter(meter, "pdv.sales.committed", "Sales accepted by the backend", "{sales}")
	if err != nil {
		return nil, err
	}
	m.salesFailed, err = NewCounter(meter, "pdv.sales.failed", "Sales rejected or not delivered", "{sales}")
	if err != nil {
		return nil, err
	}
	m.saleAmount, err = NewHistogram(meter, HistogramOpts{
		Name:        "pdv.sales.amount",
		Description: "Total of committed sales",
		Unit:        "BRL",
		Boundaries:  SaleAmountBuckets,
	})
	if err != nil {
		return nil, err
	}
	m.stockRejections, err = NewCounter(meter, "pdv.cart.stock_rejections", "Cart changes refused for lack of stock", "{rejections}")
	if err != nil {
		return nil, err
	}
	m.staleDiscarded, err = NewCounter(meter, "pdv.search.stale_discarded", "Search responses dropped as stale", "{responses}")
	if err != nil {
		return nil, err
	}

	return m, nil
}

// SaleCommitted records an accepted sale.
func (m *CheckoutMetrics) SaleCommitted(ctx context.Context, method string, amount float64) {
	attrs := []attribute.KeyValue{m.storeID, AttrPaymentMethod.String(method)}
	m.salesCommitted.Inc(ctx, attrs...)
	m.saleAmount.Record(ctx, amount, attrs...)
}

// SaleFailed records a sale that did not commit.
func (m *CheckoutMetrics) SaleFailed(ctx context.Context, method string) {
	m.salesFailed.Inc(ctx, m.storeID, AttrPaymentMethod.String(method))
}

// StockRejected records a cart change refused by the stock ceiling.
func (m *CheckoutMetrics) StockRejected(ctx context.Context, productID string) {
	m.stockRejections.Inc(ctx, m.storeID, AttrProductID.String(productID))
}

// StaleDiscarded records a search response dropped for an outdated query.
func (m *CheckoutMetrics) StaleDiscarded(ctx context.Context, target string) {
	m.staleDiscarded.Inc(ctx, m.storeID, AttrSearchTarget.String(target))
	m.logger.Debug("Discarded stale search response", zap.String("target", target))
}
