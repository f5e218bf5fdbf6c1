package middleware

import (
	"fmt"
	"strconv"
	"time"

	redisStore "vendor-invoicing/internal/adapter/storage/redis"
	"vendor-invoicing/pkg/apperror"
	"vendor-invoicing/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Rate limit groups.
const (
	GroupAuthRegister   = "auth_register"
	GroupAuthLogin      = "auth_login"
	GroupWalletWithdraw = "wallet_withdraw"
	GroupWalletRead     = "wallet_read"
	GroupWebhook        = "webhook"
)

// RateLimitRule defines a rate limit for an endpoint group.
type RateLimitRule struct {
	Limit  int64
	Window time.Duration
}

// DefaultRateLimitRules returns the limits per endpoint group.
func DefaultRateLimitRules() map[string]RateLimitRule {
	return map[string]RateLimitRule{
		GroupAuthRegister:   {Limit: 5, Window: time.Hour},
		GroupAuthLogin:      {Limit: 10, Window: time.Minute},
		GroupWalletWithdraw: {Limit: 10, Window: time.Minute},
		GroupWalletRead:     {Limit: 60, Window: time.Minute},
		// Provider retries arrive in bursts; keep this generous.
		GroupWebhook: {Limit: 600, Window: time.Minute},
	}
}

// RateLimiter creates a rate-limiting middleware for a given endpoint group.
// A Redis failure lets the request through.
func RateLimiter(store *redisStore.RateLimitStore, group string, rule RateLimitRule, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("%s:%s", extractIdentifier(c), group)

		result, err := store.Allow(c.Request.Context(), key, rule.Limit, rule.Window)
		if err != nil {
			log.Warn().Err(err).Str("group", group).Msg("rate limit check failed, allowing request (degraded mode)")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(result.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt, 10))

		if !result.Allowed {
			retryAfter := result.ResetAt - time.Now().Unix()
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.FormatInt(retryAfter, 10))
			response.AbortError(c, apperror.ErrRateLimitExceeded())
			return
		}

		c.Next()
	}
}

// extractIdentifier keys authenticated calls by vendor and the rest by client IP.
func extractIdentifier(c *gin.Context) string {
	if id, ok := VendorID(c); ok {
		return "vendor:" + id.String()
	}
	return "ip:" + c.ClientIP()
}
