package middleware

import (
	"github.com/labstack/echo/v4"
)

// SecurityHeaders returns an Echo middleware that sets defensive response
// headers. Headers are set before the handler runs so they are in place when
// the status line is written.
func SecurityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set(echo.HeaderXContentTypeOptions, "nosniff")
			h.Set(echo.HeaderXFrameOptions, "DENY")
			// Relayed O*NET data is never cached by the proxy or its callers.
			h.Set(echo.HeaderCacheControl, "no-store")

			return next(c)
		}
	}
}
