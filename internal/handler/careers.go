package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"onet-proxy-go/internal/model"
	"onet-proxy-go/internal/service"
)

// CareersHandler exposes the O*NET forwarding endpoints.
type CareersHandler struct {
	service *service.CareerService
	logger  *slog.Logger
}

// NewCareersHandler creates a CareersHandler.
func NewCareersHandler(svc *service.CareerService, logger *slog.Logger) *CareersHandler {
	return &CareersHandler{
		service: svc,
		logger:  logger.With("component", "careers_handler"),
	}
}

// Search forwards the JSON request body to the upstream career search.
func (h *CareersHandler) Search(c echo.Context) error {
	criteria, err := io.ReadAll(c.Request().Body)
	if err != nil {
		// BodyLimit reports oversized bodies as *echo.HTTPError.
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return c.JSON(he.Code, errorBody(http.StatusText(he.Code)))
		}
		return h.mapError(c, err)
	}

	resp, err := h.service.Search(c.Request().Context(), criteria)
	if err != nil {
		return h.mapError(c, err)
	}
	return relay(c, resp)
}

// Occupation relays the upstream sample occupation document.
func (h *CareersHandler) Occupation(c echo.Context) error {
	resp, err := h.service.FetchSample(c.Request().Context())
	if err != nil {
		return h.mapError(c, err)
	}
	return relay(c, resp)
}

// relay writes the upstream status and JSON body unchanged.
func relay(c echo.Context, resp *model.ForwardResponse) error {
	return c.JSONBlob(resp.StatusCode, resp.Body)
}

func (h *CareersHandler) mapError(c echo.Context, err error) error {
	h.logger.Error("forward error",
		"err", err,
		"path", c.Request().URL.Path,
	)

	if errors.Is(err, service.ErrNoSearchCriteria) {
		return c.JSON(http.StatusBadRequest, errorBody("No search criteria provided"))
	}

	if errors.Is(err, service.ErrInvalidCriteria) {
		return c.JSON(http.StatusBadRequest, errorBody("Invalid search criteria: body must be JSON"))
	}

	var upErr *service.UpstreamError
	if errors.As(err, &upErr) {
		return c.JSON(http.StatusInternalServerError, errorBody("API request failed: "+upErr.Detail()))
	}

	if errors.Is(err, service.ErrInvalidResponseFormat) {
		return c.JSON(http.StatusInternalServerError, errorBody("Invalid response format"))
	}

	return c.JSON(http.StatusInternalServerError, errorBody(err.Error()))
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}
