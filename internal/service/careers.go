// Package service implements the O*NET forwarding and health logic.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"onet-proxy-go/internal/client"
	"onet-proxy-go/internal/config"
	"onet-proxy-go/internal/model"
)

// Upstream endpoint names, used as log fields and metric labels.
const (
	EndpointCareerSearch     = "careers_search"
	EndpointOccupationSample = "occupation_sample"
)

// Upstream paths, relative to upstream.base_url.
const (
	careerSearchPath     = "/careers/search"
	occupationSamplePath = "/occupation/sample"
)

// CareerService forwards caller requests to the O*NET web services and
// relays the upstream status and JSON body unchanged.
type CareerService struct {
	client  *client.OnetClient
	timeout time.Duration
	logger  *slog.Logger
}

// NewCareerService creates a CareerService.
func NewCareerService(c *client.OnetClient, cfg *config.Config, logger *slog.Logger) *CareerService {
	return &CareerService{
		client:  c,
		timeout: time.Duration(cfg.Upstream.TimeoutSeconds) * time.Second,
		logger:  logger.With("component", "career_service"),
	}
}

// Search posts criteria to the upstream career search endpoint as-is.
// No upstream call is made when criteria are missing or not valid JSON.
func (s *CareerService) Search(ctx context.Context, criteria []byte) (*model.ForwardResponse, error) {
	if err := validateCriteria(criteria); err != nil {
		return nil, err
	}

	s.logger.Info("search criteria", "criteria", string(criteria))

	return s.forward(ctx, &model.UpstreamRequest{
		Endpoint: EndpointCareerSearch,
		Method:   http.MethodPost,
		Path:     careerSearchPath,
		Body:     criteria,
	})
}

// FetchSample retrieves the upstream sample occupation document.
func (s *CareerService) FetchSample(ctx context.Context) (*model.ForwardResponse, error) {
	return s.forward(ctx, sampleRequest())
}

func (s *CareerService) forward(ctx context.Context, req *model.UpstreamRequest) (*model.ForwardResponse, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	s.logger.Info("forwarding request",
		"endpoint", req.Endpoint,
		"method", req.Method,
		"path", req.Path,
	)

	resp, err := s.client.Do(ctx, req)
	if err != nil {
		if errors.Is(err, client.ErrResponseTooLarge) {
			return nil, fmt.Errorf("%s: %w: %w", req.Endpoint, ErrInvalidResponseFormat, err)
		}
		return nil, &UpstreamError{Endpoint: req.Endpoint, Err: err}
	}

	s.logger.Info("upstream response",
		"endpoint", req.Endpoint,
		"status", resp.StatusCode,
		"body", string(resp.Body),
	)

	if !json.Valid(resp.Body) {
		return nil, fmt.Errorf("%s returned status %d: %w", req.Endpoint, resp.StatusCode, ErrInvalidResponseFormat)
	}

	return &model.ForwardResponse{
		StatusCode: resp.StatusCode,
		Body:       resp.Body,
	}, nil
}

func sampleRequest() *model.UpstreamRequest {
	return &model.UpstreamRequest{
		Endpoint: EndpointOccupationSample,
		Method:   http.MethodGet,
		Path:     occupationSamplePath,
	}
}

// validateCriteria rejects absent, malformed, and empty criteria. A JSON
// document counts as empty when it is null, {}, [], "", 0 or false.
func validateCriteria(criteria []byte) error {
	trimmed := bytes.TrimSpace(criteria)
	if len(trimmed) == 0 {
		return ErrNoSearchCriteria
	}

	var v any
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCriteria, err)
	}

	switch t := v.(type) {
	case nil:
		return ErrNoSearchCriteria
	case map[string]any:
		if len(t) == 0 {
			return ErrNoSearchCriteria
		}
	case []any:
		if len(t) == 0 {
			return ErrNoSearchCriteria
		}
	case string:
		if t == "" {
			return ErrNoSearchCriteria
		}
	case float64:
		if t == 0 {
			return ErrNoSearchCriteria
		}
	case bool:
		if !t {
			return ErrNoSearchCriteria
		}
	}
	return nil
}
