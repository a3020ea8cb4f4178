package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"onet-proxy-go/internal/client"
	"onet-proxy-go/internal/service"
)

// Version is a string type for dependency injection of the build version.
type Version string

// HealthHandler serves health and status endpoints.
type HealthHandler struct {
	prober  *service.HealthProber
	client  *client.OnetClient
	version Version
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(p *service.HealthProber, c *client.OnetClient, v Version) *HealthHandler {
	return &HealthHandler{prober: p, client: c, version: v}
}

// Health probes the upstream and answers 200 when healthy, 500 otherwise.
func (h *HealthHandler) Health(c echo.Context) error {
	report := h.prober.Probe(c.Request().Context())
	if !report.Healthy() {
		return c.JSON(http.StatusInternalServerError, report)
	}
	return c.JSON(http.StatusOK, report)
}

// Status returns proxy status information without contacting the upstream.
func (h *HealthHandler) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":          "ok",
		"version":         string(h.version),
		"upstream_url":    h.client.BaseURL(),
		"api_key_present": h.client.HasAPIKey(),
	})
}
