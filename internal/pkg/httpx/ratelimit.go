package httpx

import (
	"net/http"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimiter allows limit requests per rate window, keyed by the caller's user id when present
// and by client IP otherwise. Counters live in redis so every replica shares them.
func RateLimiter(client *redis.Client, rate time.Duration, limit uint, userKey func(*gin.Context) string) gin.HandlerFunc {
	store := ratelimit.RedisStore(&ratelimit.RedisOptions{
		RedisClient: client,
		Rate:        rate,
		Limit:       limit,
	})

	return ratelimit.RateLimiter(store, &ratelimit.Options{
		ErrorHandler: func(c *gin.Context, info ratelimit.Info) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				ErrorResponse("rate_limited", "too many requests, try again in "+time.Until(info.ResetTime).Round(time.Second).String()))
		},
		KeyFunc: func(c *gin.Context) string {
			if key := userKey(c); key != "" {
				return "user:" + key
			}
			return "ip:" + c.ClientIP()
		},
	})
}
