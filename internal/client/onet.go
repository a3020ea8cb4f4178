// Package client provides the upstream HTTP client for the O*NET web services.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"onet-proxy-go/internal/config"
	"onet-proxy-go/internal/metrics"
	"onet-proxy-go/internal/model"
)

const userAgent = "onet-proxy-go/1.0"

// ErrResponseTooLarge is returned when the upstream body exceeds upstream.max_response_bytes.
var ErrResponseTooLarge = errors.New("upstream response body too large")

// OnetClient sends requests to the upstream O*NET web services. Every request
// carries the configured Authorization credential.
type OnetClient struct {
	httpClient *http.Client
	baseURL    *url.URL
	apiKey     string
	maxBody    int64
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewOnetClient creates an OnetClient with connection pooling and timeouts.
// The metrics parameter is optional; pass nil to disable upstream metrics recording.
func NewOnetClient(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) (*OnetClient, error) {
	u, err := url.Parse(cfg.Upstream.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse upstream base_url: %w", err)
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        cfg.Upstream.IdleConnections,
		MaxIdleConnsPerHost: cfg.Upstream.IdleConnections,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	// Callers bound each call with a context deadline; this is only a backstop.
	timeout := max(cfg.Upstream.TimeoutSeconds, cfg.Upstream.HealthTimeoutSeconds)

	return &OnetClient{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   time.Duration(timeout) * time.Second,
		},
		baseURL: u,
		apiKey:  cfg.Onet.APIKey,
		maxBody: cfg.Upstream.MaxResponseBytes,
		logger:  logger.With("component", "onet_client"),
		metrics: m,
	}, nil
}

// Do executes req against the upstream and reads the full response body.
// The provided context controls the lifetime of the upstream request.
func (c *OnetClient) Do(ctx context.Context, req *model.UpstreamRequest) (*model.UpstreamResponse, error) {
	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("upstream request",
		"endpoint", req.Endpoint,
		"method", req.Method,
		"url", httpReq.URL.String(),
	)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.observe(req.Endpoint, start, 0)
		return nil, fmt.Errorf("upstream request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := c.readBody(resp.Body)
	c.observe(req.Endpoint, start, resp.StatusCode)
	if err != nil {
		return nil, err
	}

	return &model.UpstreamResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

func (c *OnetClient) newRequest(ctx context.Context, req *model.UpstreamRequest) (*http.Request, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.baseURL.JoinPath(req.Path).String(), body)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}

	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", c.apiKey)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", userAgent)
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	return httpReq, nil
}

func (c *OnetClient) readBody(r io.Reader) ([]byte, error) {
	if c.maxBody <= 0 {
		b, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("read upstream body: %w", err)
		}
		return b, nil
	}

	b, err := io.ReadAll(io.LimitReader(r, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("read upstream body: %w", err)
	}
	if int64(len(b)) > c.maxBody {
		return nil, fmt.Errorf("%w: limit %d bytes", ErrResponseTooLarge, c.maxBody)
	}
	return b, nil
}

// observe records upstream latency; status 0 means no response was received.
func (c *OnetClient) observe(endpoint string, start time.Time, status int) {
	if c.metrics == nil {
		return
	}
	c.metrics.UpstreamDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if status == 0 {
		c.metrics.UpstreamFailures.WithLabelValues(endpoint).Inc()
		return
	}
	c.metrics.UpstreamResponses.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
}

// HasAPIKey reports whether a credential is configured.
func (c *OnetClient) HasAPIKey() bool {
	return c.apiKey != ""
}

// BaseURL returns the configured upstream base URL.
func (c *OnetClient) BaseURL() string {
	return c.baseURL.String()
}
