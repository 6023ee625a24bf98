package middleware

import (
	"log"
	"net/http"
	"time"

	"gstvault/internal/caching"
	"gstvault/internal/common"

	"github.com/labstack/echo/v4"
)

// RateLimitMiddleware throttles a route per client key using the shared
// redis counters. Fail-open: a redis outage must not take the API down.
type RateLimitMiddleware struct {
	cacheSvc caching.CacheService
}

func NewRateLimitMiddleware(cacheSvc caching.CacheService) *RateLimitMiddleware {
	return &RateLimitMiddleware{cacheSvc: cacheSvc}
}

func (m *RateLimitMiddleware) Limit(name string, limit int, window time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			clientKey := c.RealIP()
			if userID, ok := common.GetUserIDFromContext(ctx); ok {
				clientKey = userID.String()
			}
			key := name + ":" + clientKey

			limited, err := m.cacheSvc.IsRateLimited(ctx, key, limit, window)
			if err != nil {
				log.Printf("rate limit check failed for %s: %v", key, err)
				return next(c)
			}
			if limited {
				return c.JSON(http.StatusTooManyRequests, common.CreateErrorResponse("RATE_LIMITED", "Too many requests, slow down", nil))
			}
			if err := m.cacheSvc.IncrementRateLimit(ctx, key, window); err != nil {
				log.Printf("rate limit increment failed for %s: %v", key, err)
			}
			return next(c)
		}
	}
}
