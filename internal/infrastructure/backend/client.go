// Package backend is the REST gateway to the store backend. It implements
// checkout.Gateway over HTTP with a circuit breaker, a client-side rate limit
// on searches and OpenTelemetry instrumentation. Calls are never retried.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mercearia/pdv/internal/application/checkout"
	"github.com/mercearia/pdv/internal/domain/catalog"
	"github.com/mercearia/pdv/internal/domain/partner"
	"github.com/mercearia/pdv/internal/domain/trade"
	"github.com/mercearia/pdv/internal/infrastructure/logger"
	"github.com/mercearia/pdv/internal/infrastructure/telemetry"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// maxResponseSize bounds how much of a response body is read
	maxResponseSize = 4 << 20

	headerRequestID = "X-Request-ID"
)

var _ checkout.Gateway = (*Client)(nil)

// BreakerConfig configures the circuit breaker
type BreakerConfig struct {
	MaxRequests         uint32        // Requests allowed through while half-open
	Interval            time.Duration // Closed-state counter reset period, 0 never resets
	Timeout             time.Duration // Open-state duration before probing again
	ConsecutiveFailures uint32        // Failures that trip the breaker
}

// Config configures the client
type Config struct {
	BaseURL     string
	Timeout     time.Duration
	AuthToken   string
	SearchQPS   float64 // Search requests per second, 0 disables the limit
	SearchBurst int
	Breaker     BreakerConfig
}

// ResponseCache stores raw product search responses
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, body []byte) error
}

// Client talks to the store backend
type Client struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
	limiter    *rate.Limiter
	cache      ResponseCache
	logger     *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHTTPClient replaces the HTTP client. Its transport is used as is.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithResponseCache caches product search responses
func WithResponseCache(cache ResponseCache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

// NewClient creates a new backend client
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimSpace(cfg.BaseURL))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("backend: invalid base URL %q", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	c := &Client{
		baseURL:   strings.TrimRight(base.String(), "/"),
		authToken: cfg.AuthToken,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		limiter: rate.NewLimiter(rate.Inf, 0),
		logger:  zap.NewNop(),
	}
	if cfg.SearchQPS > 0 {
		burst := cfg.SearchBurst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.SearchQPS), burst)
	}

	for _, opt := range opts {
		opt(c)
	}

	c.breaker = gobreaker.NewCircuitBreaker[[]byte](c.breakerSettings(cfg.Breaker))
	return c, nil
}

func (c *Client) breakerSettings(cfg BreakerConfig) gobreaker.Settings {
	failures := cfg.ConsecutiveFailures
	if failures == 0 {
		failures = 5
	}
	return gobreaker.Settings{
		Name:        "store-backend",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		// Business rejections and cancelled calls say nothing about backend health
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, context.Canceled) {
				return true
			}
			var se *ServerError
			if errors.As(err, &se) {
				return !se.IsServerFault()
			}
			return false
		},
	}
}

// BreakerState returns the current circuit breaker state
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}

// SearchProducts searches the store catalog
func (c *Client) SearchProducts(ctx context.Context, storeID, query string) ([]catalog.ProductSnapshot, error) {
	ctx, span := telemetry.StartClientSpan(ctx, "search_products")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrStoreID, storeID,
		telemetry.SpanAttrQuery, query,
	)

	path := "/api/mercearias/" + url.PathEscape(storeID) + "/produtos/buscar-global"
	key := "products:" + storeID + ":" + strings.ToLower(strings.TrimSpace(query))

	body, err := c.cachedSearch(ctx, span, key, path, query)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("backend: search products: %w", err)
	}

	var dtos []productDTO
	if err := json.Unmarshal(body, &dtos); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("%w: products: %v", ErrInvalidResponse, err)
	}

	products := make([]catalog.ProductSnapshot, 0, len(dtos))
	for _, d := range dtos {
		if err := validate.Struct(d); err != nil {
			c.logger.Warn("Skipping malformed product",
				zap.String("store_id", storeID),
				zap.Error(err))
			continue
		}
		products = append(products, d.toSnapshot())
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrResultCount, len(products))
	telemetry.SetOK(span)
	return products, nil
}

// cachedSearch serves a product search from the response cache when possible
func (c *Client) cachedSearch(ctx context.Context, span trace.Span, key, path, query string) ([]byte, error) {
	if c.cache != nil {
		if body, ok := c.cache.Get(ctx, key); ok {
			telemetry.AddEvent(span, "cache_hit")
			return body, nil
		}
	}

	body, err := c.search(ctx, path, query)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, body); err != nil {
			c.logger.Debug("Failed to cache search response", zap.String("key", key), zap.Error(err))
		}
	}
	return body, nil
}

// SearchCustomers searches the store's customers
func (c *Client) SearchCustomers(ctx context.Context, storeID, query string) ([]partner.CustomerSnapshot, error) {
	ctx, span := telemetry.StartClientSpan(ctx, "search_customers")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrStoreID, storeID,
		telemetry.SpanAttrQuery, query,
	)

	body, err := c.search(ctx, "/api/clientes/buscar/"+url.PathEscape(storeID), query)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("backend: search customers: %w", err)
	}

	var dtos []customerDTO
	if err := json.Unmarshal(body, &dtos); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("%w: customers: %v", ErrInvalidResponse, err)
	}

	customers := make([]partner.CustomerSnapshot, 0, len(dtos))
	for _, d := range dtos {
		if err := validate.Struct(d); err != nil {
			c.logger.Warn("Skipping malformed customer",
				zap.String("store_id", storeID),
				zap.Error(err))
			continue
		}
		customers = append(customers, d.toSnapshot())
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrResultCount, len(customers))
	telemetry.SetOK(span)
	return customers, nil
}

func (c *Client) search(ctx context.Context, path, query string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodGet, path, url.Values{"termo": {query}}, nil)
}

// FinalizeSale submits a sale. A non-2xx answer is returned as *ServerError.
func (c *Client) FinalizeSale(ctx context.Context, intent *trade.SaleIntent) error {
	ctx, span := telemetry.StartClientSpan(ctx, "finalize_sale")
	defer span.End()

	req := newFinalizeSaleRequest(intent)
	telemetry.SetAttributes(span,
		telemetry.SpanAttrStoreID, intent.StoreID,
		telemetry.SpanAttrPaymentMethod, req.PaymentMethod,
		telemetry.SpanAttrAmount, req.Total,
		telemetry.SpanAttrLineCount, len(req.Cart),
	)

	if err := validate.Struct(req); err != nil {
		telemetry.RecordError(span, err)
		return fmt.Errorf("%w: sale: %v", ErrInvalidRequest, err)
	}

	if _, err := c.do(ctx, http.MethodPost, "/api/vendas/finalizar", nil, req); err != nil {
		telemetry.RecordError(span, err)
		return fmt.Errorf("backend: finalize sale: %w", err)
	}

	telemetry.SetOK(span)
	return nil
}

// CreateCustomer registers a customer and returns it as stored by the backend
func (c *Client) CreateCustomer(ctx context.Context, storeID string, draft partner.CustomerDraft) (partner.CustomerSnapshot, error) {
	ctx, span := telemetry.StartClientSpan(ctx, "create_customer")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrStoreID, storeID)

	req := newCreateCustomerRequest(storeID, draft)
	if err := validate.Struct(req); err != nil {
		telemetry.RecordError(span, err)
		return partner.CustomerSnapshot{}, fmt.Errorf("%w: customer: %v", ErrInvalidRequest, err)
	}

	body, err := c.do(ctx, http.MethodPost, "/api/clientes/criar", nil, req)
	if err != nil {
		telemetry.RecordError(span, err)
		return partner.CustomerSnapshot{}, fmt.Errorf("backend: create customer: %w", err)
	}

	var dto customerDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		telemetry.RecordError(span, err)
		return partner.CustomerSnapshot{}, fmt.Errorf("%w: customer: %v", ErrInvalidResponse, err)
	}
	if err := validate.Struct(dto); err != nil {
		telemetry.RecordError(span, err)
		return partner.CustomerSnapshot{}, fmt.Errorf("%w: customer: %v", ErrInvalidResponse, err)
	}

	customer := dto.toSnapshot()
	telemetry.SetAttribute(span, telemetry.SpanAttrCustomerID, customer.ID)
	telemetry.SetOK(span)
	return customer, nil
}

// do sends one request through the circuit breaker and returns the 2xx body
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(headerRequestID, requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	start := time.Now()
	respBody, err := c.breaker.Execute(func() ([]byte, error) {
		return c.send(req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = fmt.Errorf("%w: %v", ErrCircuitOpen, err)
	}

	log := logger.WithLogger(ctx, c.logger)
	fields := []zap.Field{
		zap.String("request_id", requestID),
		zap.String("method", method),
		zap.String("path", path),
		zap.Duration("duration", time.Since(start)),
	}
	var se *ServerError
	switch {
	case err == nil:
		log.Debug("Backend request completed", fields...)
	case errors.As(err, &se) && !se.IsServerFault():
		log.Info("Backend rejected request", append(fields, zap.Int("status", se.Status), zap.String("message", se.Message))...)
	case errors.Is(err, context.Canceled):
		log.Debug("Backend request cancelled", fields...)
	default:
		log.Error("Backend request failed", append(fields, zap.Error(err))...)
	}
	return respBody, err
}

func (c *Client) send(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", ErrUnavailable, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, newServerError(resp.StatusCode, body)
	}
	return body, nil
}
