package middleware

import (
	"fmt"
	"math"
	"net/http"
	"time"

	"aidat-service/pkg/logger"
	"aidat-service/pkg/ratelimit"
	"aidat-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RateLimit guards a route with a per-IP fixed window. The limiter is
// handed in from main rather than read from a package global, so tests
// and future deployments can swap the backing store.
func RateLimit(limiter *ratelimit.Limiter, action string, limit int, window time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := action + ":" + c.RealIP()

			res := limiter.Check(key, limit, window)
			if !res.Allowed {
				log := logger.FromContext(c)
				log.Warn("Rate limit exceeded",
					zap.String("action", action),
					zap.String("ip", c.RealIP()))
				prometheus.RecordRateLimited(action)

				retryAfter := int(math.Ceil(time.Until(res.ResetAt).Seconds()))
				if retryAfter < 1 {
					retryAfter = 1
				}
				c.Response().Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"error": "Çok fazla istek. Lütfen daha sonra tekrar deneyin.",
				})
			}

			return next(c)
		}
	}
}
