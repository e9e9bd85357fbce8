// Package middleware provides request logging, metrics, tracing and rate limiting for the HTTP layer.
package middleware

import (
	"context"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"charitydesk/internal/access"
	"charitydesk/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// PrincipalLocal is the fiber.Ctx Locals key holding the resolved access.Principal.
const PrincipalLocal = "principal"

// FailPolicy defines the behavior when the rate limit store (Redis) is unavailable.
type FailPolicy int

const (
	// FailOpen allows the request to proceed if Redis is unavailable.
	FailOpen FailPolicy = iota
	// FailClosed blocks the request (503 Service Unavailable) if Redis is unavailable.
	FailClosed
)

// Budget is a request allowance per Window. Anonymous callers are counted per
// IP against Anonymous; signed-in accounts are counted per account against
// Member, which falls back to Anonymous when zero.
type Budget struct {
	Name      string
	Anonymous int
	Member    int
	Window    time.Duration
}

// limitFor returns the counter key and allowance for p.
func (b Budget) limitFor(p access.Principal, ip string) (string, int) {
	if p.ID == 0 {
		return "ip:" + ip, b.Anonymous
	}
	limit := b.Member
	if limit <= 0 {
		limit = b.Anonymous
	}
	return fmt.Sprintf("user:%d", p.ID), limit
}

// Verdict is the outcome of one rate limit check.
type Verdict struct {
	Allowed    bool
	Count      int64
	RetryAfter time.Duration
}

func rateLimitBypassed() bool {
	switch os.Getenv("APP_ENV") {
	case "", "test", "development":
		return true
	}
	return false
}

// CheckRateLimit counts one hit for id on resource within window.
// Rate limiting is disabled when APP_ENV is empty, "test" or "development".
func CheckRateLimit(ctx context.Context, rdb *redis.Client, resource, id string, limit int, window time.Duration) (Verdict, error) {
	if rateLimitBypassed() {
		return Verdict{Allowed: true}, nil
	}
	if rdb == nil {
		return Verdict{}, fmt.Errorf("redis client is nil")
	}

	key := fmt.Sprintf("rl:%s:%s", resource, id)
	cnt, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return Verdict{}, err
	}
	if cnt == 1 {
		rdb.Expire(ctx, key, window)
	}

	v := Verdict{Count: cnt, Allowed: cnt <= int64(limit)}
	if !v.Allowed {
		if ttl, err := rdb.TTL(ctx, key).Result(); err == nil && ttl > 0 {
			v.RetryAfter = ttl
		} else {
			v.RetryAfter = window
		}
	}
	return v, nil
}

// RateLimit enforces b and lets requests through when Redis is unavailable.
func RateLimit(rdb *redis.Client, b Budget) fiber.Handler {
	return RateLimitWithPolicy(rdb, b, FailOpen)
}

// RateLimitWithPolicy enforces b with the given store failure policy.
func RateLimitWithPolicy(rdb *redis.Client, b Budget, policy FailPolicy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := c.Locals(PrincipalLocal).(access.Principal)
		if !ok {
			p = access.Anonymous
		}
		id, limit := b.limitFor(p, c.IP())

		resource := b.Name
		if resource == "" {
			resource = c.Route().Path
		}

		v, err := CheckRateLimit(c.UserContext(), rdb, resource, id, limit, b.Window)
		if err != nil {
			Logger.WarnContext(c.UserContext(), "rate limit store unavailable",
				"resource", resource, "path", c.Path(), "error", err)
			if policy == FailClosed {
				return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
					Error: "Rate limiting is temporarily unavailable, please retry shortly.",
				})
			}
			return c.Next()
		}

		if !v.Allowed {
			RateLimitRejections.WithLabelValues(resource).Inc()
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(math.Ceil(v.RetryAfter.Seconds()))))
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Too many requests, please try again later.",
			})
		}
		return c.Next()
	}
}
