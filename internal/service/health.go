package service

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"onet-proxy-go/internal/client"
	"onet-proxy-go/internal/config"
	"onet-proxy-go/internal/metrics"
	"onet-proxy-go/internal/model"
)

// HealthProber checks upstream reachability and reduces the outcome to a
// healthy/unhealthy report.
type HealthProber struct {
	client  *client.OnetClient
	timeout time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewHealthProber creates a HealthProber. The metrics parameter is optional.
func NewHealthProber(c *client.OnetClient, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *HealthProber {
	return &HealthProber{
		client:  c,
		timeout: time.Duration(cfg.Upstream.HealthTimeoutSeconds) * time.Second,
		logger:  logger.With("component", "health_prober"),
		metrics: m,
	}
}

// Probe fetches the sample occupation document. Without a credential it
// reports unhealthy and makes no network call.
func (p *HealthProber) Probe(ctx context.Context) *model.HealthReport {
	if !p.client.HasAPIKey() {
		p.record("missing_key")
		return &model.HealthReport{
			Status:        model.StatusUnhealthy,
			APIKeyPresent: false,
			Error:         "API key is missing",
			Details:       "O*NET API key is not configured",
		}
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	resp, err := p.client.Do(ctx, sampleRequest())
	if err != nil {
		upErr := &UpstreamError{Endpoint: EndpointOccupationSample, Err: err}
		p.logger.Error("health check failed", "err", upErr)
		p.record("error")
		return &model.HealthReport{
			Status:        model.StatusUnhealthy,
			APIKeyPresent: true,
			Error:         upErr.Detail(),
			Details:       "Failed to connect to O*NET API",
		}
	}

	if resp.StatusCode != http.StatusOK {
		p.logger.Warn("health check got non-200 upstream status", "status", resp.StatusCode)
		p.record(model.StatusUnhealthy)
		return &model.HealthReport{
			Status:        model.StatusUnhealthy,
			APIKeyPresent: true,
			APIConnection: model.ConnectionFailed,
			ResponseCode:  resp.StatusCode,
		}
	}

	p.record(model.StatusHealthy)
	return &model.HealthReport{
		Status:        model.StatusHealthy,
		APIKeyPresent: true,
		APIConnection: model.ConnectionSuccessful,
		ResponseCode:  resp.StatusCode,
	}
}

func (p *HealthProber) record(result string) {
	if p.metrics != nil {
		p.metrics.HealthProbes.WithLabelValues(result).Inc()
	}
}
