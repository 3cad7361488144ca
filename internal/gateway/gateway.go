// Package gateway is the thin HTTP layer between the dashboard and the
// clinic backend REST API. It resolves endpoint paths against a fixed base
// URL and performs plain requests: no retries, no caching, no auth headers.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/mbctherapy/clinic-dashboard/internal/observability/metrics"
	"github.com/mbctherapy/clinic-dashboard/pkg/logging"
)

const defaultTimeout = 15 * time.Second

// APIError is a non-2xx backend response. Detail carries the backend's
// "detail" message when the body had one.
type APIError struct {
	Status int
	Detail string
	Body   string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("gateway: backend returned %d: %s", e.Status, e.Detail)
	}
	msg := e.Body
	if len(msg) > 300 {
		msg = msg[:300]
	}
	return fmt.Sprintf("gateway: backend returned %d: %s", e.Status, msg)
}

// Gateway issues REST requests against the clinic backend base URL.
type Gateway struct {
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
	metrics    *metrics.GatewayMetrics
	tracer     trace.Tracer
}

// New constructs a Gateway. A zero timeout disables the client timeout,
// in which case a hung backend request never settles.
func New(baseURL string, timeout time.Duration, logger *logging.Logger, m *metrics.GatewayMetrics) *Gateway {
	if logger == nil {
		logger = logging.Default()
	}
	return &Gateway{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		metrics:    m,
		tracer:     otel.Tracer("clinic.internal.gateway"),
	}
}

// Get issues a GET for the given endpoint path.
func (g *Gateway) Get(ctx context.Context, path string) (*http.Response, error) {
	return g.do(ctx, http.MethodGet, path, nil)
}

// Post issues a POST with a JSON body.
func (g *Gateway) Post(ctx context.Context, path string, body interface{}) (*http.Response, error) {
	return g.do(ctx, http.MethodPost, path, body)
}

// Patch issues a PATCH. Body may be nil (the backend's complete/toggle
// endpoints take no payload).
func (g *Gateway) Patch(ctx context.Context, path string, body interface{}) (*http.Response, error) {
	return g.do(ctx, http.MethodPatch, path, body)
}

// Delete issues a DELETE for the given endpoint path.
func (g *Gateway) Delete(ctx context.Context, path string) (*http.Response, error) {
	return g.do(ctx, http.MethodDelete, path, nil)
}

// DoJSON performs a request and decodes a JSON response into out. Non-2xx
// responses are returned as *APIError with the backend detail extracted.
func (g *Gateway) DoJSON(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	resp, err := g.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("gateway: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Body: string(respBody)}
		var detail struct {
			Detail string `json:"detail"`
		}
		if json.Unmarshal(respBody, &detail) == nil {
			apiErr.Detail = detail.Detail
		}
		msg := apiErr.Body
		if len(msg) > 300 {
			msg = msg[:300]
		}
		g.logger.Warn("clinic backend non-2xx response", "status", resp.StatusCode, "path", path, "body", msg)
		return apiErr
	}

	if len(respBody) == 0 || out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("gateway: decode response: %w", err)
	}
	return nil
}

func (g *Gateway) do(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	ctx, span := g.tracer.Start(ctx, "gateway.request")
	defer span.End()

	endpoint := joinURL(g.baseURL, path)

	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("gateway: marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("gateway: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := g.httpClient.Do(req)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		span.RecordError(err)
		g.metrics.ObserveRequest(method, "error", elapsed)
		return nil, fmt.Errorf("gateway: http request: %w", err)
	}
	g.metrics.ObserveRequest(method, strconv.Itoa(resp.StatusCode), elapsed)
	return resp, nil
}

// joinURL concatenates the fixed base with an endpoint path, inserting a
// "/" separator only when the path does not already start with one.
func joinURL(base, path string) string {
	if strings.HasPrefix(path, "/") {
		return base + path
	}
	return base + "/" + path
}
