package mrc_http

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouteOptions carries the optional middleware of the question endpoint.
// Nil fields are skipped.
type RouteOptions struct {
	Validator   *OpenAPIValidator
	RateLimiter *RateLimiter
}

// RegisterRoutes mounts the question endpoint and the operational routes.
func RegisterRoutes(e *echo.Echo, h *Handler, opts RouteOptions) {
	e.GET("/healthz", h.Healthz)
	e.GET("/readyz", h.Readyz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/openapi.yaml", h.OpenAPIDocument)

	var mw []echo.MiddlewareFunc
	if opts.RateLimiter != nil {
		mw = append(mw, opts.RateLimiter.Middleware())
	}
	if opts.Validator != nil {
		mw = append(mw, opts.Validator.Middleware())
	}

	api := e.Group("/api", mw...)
	api.GET("/mrc", h.AnswerQuestion)
	api.POST("/mrc", h.AnswerQuestion)
}
