package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/user-service/pkg/response"
)

func ipFromCtx(c *gin.Context) string {
	if ip := c.GetString("real_ip"); ip != "" {
		return ip
	}
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}

// KeyFunc names the subject a policy counts requests for.
type KeyFunc func(c *gin.Context) string

// KeyByIP counts per resolved client IP.
func KeyByIP() KeyFunc { return ipFromCtx }

// AllowFunc returns true for requests that bypass a policy.
type AllowFunc func(*gin.Context) bool

// Policy is one named fixed-window limit, e.g. "users:create" at 30 per minute.
// Limit <= 0 disables it.
type Policy struct {
	Name   string
	Limit  int
	Window time.Duration
	Key    KeyFunc
	Allow  AllowFunc
}

// hitScript counts a hit and returns {count, remaining window in ms}; the window starts
// on the first hit.
var hitScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {n, redis.call("PTTL", KEYS[1])}
`)

// Limiter enforces policies with counters in Redis. A nil client disables limiting and
// Redis errors fail open.
type Limiter struct {
	rdb    *redis.Client
	prefix string
	logger *logrus.Logger
}

func NewLimiter(rdb *redis.Client, prefix string, logger *logrus.Logger) *Limiter {
	if prefix == "" {
		prefix = "rl"
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Limiter{rdb: rdb, prefix: prefix, logger: logger}
}

// Handler returns middleware enforcing p. OPTIONS requests are never counted.
func (l *Limiter) Handler(p Policy) gin.HandlerFunc {
	if l == nil || l.rdb == nil || p.Limit <= 0 || p.Window <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if p.Key == nil {
		p.Key = KeyByIP()
	}
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions || (p.Allow != nil && p.Allow(c)) {
			c.Next()
			return
		}

		key := l.prefix + ":" + p.Name + ":" + p.Key(c)
		count, ttl, err := l.hit(c, key, p.Window)
		if err != nil {
			l.logger.WithError(err).WithField("policy", p.Name).Warn("rate limit check failed; allowing request")
			c.Next()
			return
		}

		resetSec := int((ttl + time.Second - 1) / time.Second)
		c.Header("X-RateLimit-Limit", strconv.Itoa(p.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(max(p.Limit-count, 0)))
		c.Header("X-RateLimit-Reset", strconv.Itoa(resetSec))

		if count > p.Limit {
			c.Header("Retry-After", strconv.Itoa(resetSec))
			response.Error[any](c, http.StatusTooManyRequests, "RATE_LIMITED", "rate limit exceeded for "+p.Name, nil)
			return
		}
		c.Next()
	}
}

func (l *Limiter) hit(c *gin.Context, key string, window time.Duration) (int, time.Duration, error) {
	res, err := hitScript.Run(c.Request.Context(), l.rdb, []string{key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return 0, 0, err
	}
	if len(res) != 2 {
		return 0, 0, errors.New("unexpected rate limit script reply")
	}
	ttl := time.Duration(res[1]) * time.Millisecond
	if ttl < 0 {
		ttl = window
	}
	return int(res[0]), ttl, nil
}
