package simulator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/zyncrender/max-plugin/internal/auth"
	"github.com/zyncrender/max-plugin/pkg/response"
)

const sessionEmailKey = "email"

// SessionAuth validates the Bearer session token and stores the account
// email on the request context.
func SessionAuth(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if header == "" {
			return response.Unauthorized(c, "Missing authorization header")
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			return response.Unauthorized(c, "Invalid authorization header format")
		}

		claims, err := auth.ValidateSessionToken(parts[1], jwtSecret)
		if err != nil {
			return response.Unauthorized(c, "Invalid or expired token")
		}

		c.Locals(sessionEmailKey, claims.Email)
		return c.Next()
	}
}

// SessionEmail returns the account email SessionAuth stored on the request.
func SessionEmail(c *fiber.Ctx) string {
	email, _ := c.Locals(sessionEmailKey).(string)
	return email
}

// RateLimiter throttles per-account request rates through Redis counters.
type RateLimiter struct {
	redis *redis.Client
}

func NewRateLimiter(redisClient *redis.Client) *RateLimiter {
	return &RateLimiter{redis: redisClient}
}

// Limit allows maxRequests per window for each account, keyed under the
// given prefix. Redis failures let the request through.
func (rl *RateLimiter) Limit(keyPrefix string, maxRequests int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		email := SessionEmail(c)
		if email == "" {
			return c.Next()
		}

		key := fmt.Sprintf("ratelimit:%s:%s", keyPrefix, email)
		ctx := context.Background()

		count, err := rl.redis.Incr(ctx, key).Result()
		if err != nil {
			return c.Next()
		}
		if count == 1 {
			rl.redis.Expire(ctx, key, window)
		}

		if count > int64(maxRequests) {
			ttl, _ := rl.redis.TTL(ctx, key).Result()
			c.Set("Retry-After", fmt.Sprintf("%d", int(ttl.Seconds())))
			return response.RateLimited(c)
		}

		c.Set("X-RateLimit-Limit", fmt.Sprintf("%d", maxRequests))
		c.Set("X-RateLimit-Remaining", fmt.Sprintf("%d", maxRequests-int(count)))
		return c.Next()
	}
}

// SubmitLimit throttles job submissions to maxPerHour for each account.
func (rl *RateLimiter) SubmitLimit(maxPerHour int) fiber.Handler {
	return rl.Limit("submit", maxPerHour, time.Hour)
}
