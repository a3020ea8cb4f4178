package service

import (
	"errors"
	"net/url"
)

var (
	// ErrNoSearchCriteria is returned when a search request carries no criteria.
	ErrNoSearchCriteria = errors.New("no search criteria provided")

	// ErrInvalidCriteria is returned when the search criteria are not valid JSON.
	ErrInvalidCriteria = errors.New("search criteria are not valid JSON")

	// ErrInvalidResponseFormat is returned when the upstream body is not valid JSON.
	ErrInvalidResponseFormat = errors.New("invalid upstream response format")
)

// UpstreamError reports a transport-level failure talking to the upstream:
// connection refused, DNS failure, timeout, or a body read that broke off.
type UpstreamError struct {
	Endpoint string
	Err      error
}

func (e *UpstreamError) Error() string {
	return e.Endpoint + ": upstream request failed: " + e.Err.Error()
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Detail returns the underlying transport failure without local wrapping.
func (e *UpstreamError) Detail() string {
	var urlErr *url.Error
	if errors.As(e.Err, &urlErr) {
		return urlErr.Error()
	}
	return e.Err.Error()
}
