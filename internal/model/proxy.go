// Package model defines shared types for the proxy.
package model

import (
	"encoding/json"
	"net/http"
)

// UpstreamRequest describes a single call to the O*NET web services.
type UpstreamRequest struct {
	// Endpoint is a short, bounded name used for logs and metrics.
	Endpoint string
	Method   string
	// Path is relative to the configured base URL.
	Path string
	Body []byte
}

// UpstreamResponse is the fully read upstream reply.
type UpstreamResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// ForwardResponse is what the proxy relays back to its caller: the upstream
// status code and the upstream JSON body, untouched.
type ForwardResponse struct {
	StatusCode int
	Body       json.RawMessage
}

// Health status values.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// API connection values.
const (
	ConnectionSuccessful = "successful"
	ConnectionFailed     = "failed"
)

// HealthReport is the composite result of a health probe.
type HealthReport struct {
	Status        string `json:"status"`
	APIKeyPresent bool   `json:"api_key_present"`
	APIConnection string `json:"api_connection,omitempty"`
	ResponseCode  int    `json:"response_code,omitempty"`
	Error         string `json:"error,omitempty"`
	Details       string `json:"details,omitempty"`
}

// Healthy reports whether the probe succeeded.
func (r *HealthReport) Healthy() bool {
	return r.Status == StatusHealthy
}
