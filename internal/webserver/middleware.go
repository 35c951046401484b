package webserver

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func zapLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			zap.L().Debug("http request",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", c.Response().Status),
				zap.Duration("elapsed", time.Since(start)),
			)
			return err
		}
	}
}

// rateLimitMiddleware guards checkout initiation with the windowed
// per-client counter. Requests over the limit get 429.
func (s *Server) rateLimitMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.limiter == nil {
			return next(c)
		}
		if !s.limiter.Allow(c.RealIP()) {
			return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
				"error": "too many checkout attempts, try again later",
			})
		}
		return next(c)
	}
}
