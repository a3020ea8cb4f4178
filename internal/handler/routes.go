package handler

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes wires all route handlers onto the Echo instance.
func RegisterRoutes(e *echo.Echo, careers *CareersHandler, health *HealthHandler) {
	e.GET("/health", health.Health)
	e.GET("/proxy/status", health.Status)

	e.POST("/api/careers/search", careers.Search)
	e.GET("/api/onet/occupation", careers.Occupation)
}
