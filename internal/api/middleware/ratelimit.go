package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"offerhub/internal/api/response"
)

type slidingWindowCounter struct {
	mu         sync.Mutex
	timestamps []int64
}

var rateLimiterStore sync.Map

// RateLimit caps requests per window, keyed by the named route plus the
// authenticated user when present and the client IP otherwise. The route
// name keeps each limited endpoint on its own budget.
func RateLimit(name string, limit int, window time.Duration) gin.HandlerFunc {
	if limit <= 0 {
		limit = 60
	}
	if window <= 0 {
		window = time.Minute
	}

	return func(c *gin.Context) {
		subject := "ip:" + c.ClientIP()
		if claims, ok := GetClaims(c); ok && claims.UserID != "" {
			subject = "user:" + claims.UserID
		}

		if !allowRequest(name+"|"+subject, limit, window) {
			response.Fail(c, 429, response.ErrRateLimited, "too many requests")
			c.Abort()
			return
		}
		c.Next()
	}
}

func allowRequest(key string, limit int, window time.Duration) bool {
	value, _ := rateLimiterStore.LoadOrStore(key, &slidingWindowCounter{})
	counter := value.(*slidingWindowCounter)

	counter.mu.Lock()
	defer counter.mu.Unlock()

	now := time.Now().UnixNano()
	cutoff := now - window.Nanoseconds()

	kept := counter.timestamps[:0]
	for _, ts := range counter.timestamps {
		if ts > cutoff {
			kept = append(kept, ts)
		}
	}
	counter.timestamps = kept

	if len(counter.timestamps) >= limit {
		return false
	}

	counter.timestamps = append(counter.timestamps, now)
	return true
}
