package httpserver

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"storefront/internal/auth"
	"storefront/internal/domain"
)

type ctxKey string

const identityCtxKey ctxKey = "identity"

const requestIDHeader = "X-Request-ID"

// requestLogger emits one structured line per request.
func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqID := c.GetHeader(requestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Header(requestIDHeader, reqID)

		c.Next()

		status := c.Writer.Status()
		evt := logger.Info()
		switch {
		case status >= http.StatusInternalServerError:
			evt = logger.Error()
		case status >= http.StatusBadRequest:
			evt = logger.Warn()
		}
		if len(c.Errors) > 0 {
			evt = evt.Str("errors", c.Errors.String())
		}
		evt.
			Str("request_id", reqID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("http request")
	}
}

// requireUser resolves the bearer token and stores the identity in the request context.
func requireUser(verifier tokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.BearerToken(c.GetHeader("Authorization"))
		if err != nil {
			abortWithError(c, err)
			return
		}
		identity, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			abortWithError(c, err)
			return
		}
		ctx := context.WithValue(c.Request.Context(), identityCtxKey, identity)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func requireAdmin(adminIDs []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := identityFrom(c)
		if !ok || !slices.Contains(adminIDs, identity.UserID) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

func identityFrom(c *gin.Context) (domain.Identity, bool) {
	identity, ok := c.Request.Context().Value(identityCtxKey).(domain.Identity)
	return identity, ok && identity.UserID != ""
}

// rateLimiter keeps one token bucket per client IP. The bearer token is not verified at
// this point, so it cannot serve as the key. Idle visitors are swept at most once per
// sweepEvery, and the table never grows past maxVisitors.
type rateLimiter struct {
	mu          sync.Mutex
	visitors    map[string]*visitor
	limit       rate.Limit
	burst       int
	idle        time.Duration
	sweepEvery  time.Duration
	lastSweep   time.Time
	maxVisitors int
	now         func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const defaultMaxVisitors = 10_000

func newRateLimiter(perMinute int) *rateLimiter {
	if perMinute <= 0 {
		return nil
	}
	return &rateLimiter{
		visitors:    map[string]*visitor{},
		limit:       rate.Every(time.Minute / time.Duration(perMinute)),
		burst:       perMinute,
		idle:        10 * time.Minute,
		sweepEvery:  time.Minute,
		maxVisitors: defaultMaxVisitors,
		now:         time.Now,
	}
}

func (rl *rateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	if now.Sub(rl.lastSweep) >= rl.sweepEvery {
		rl.sweep(now)
	}
	v, ok := rl.visitors[key]
	if !ok {
		if len(rl.visitors) >= rl.maxVisitors {
			rl.sweep(now)
			if len(rl.visitors) >= rl.maxVisitors {
				rl.evictOldest()
			}
		}
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (rl *rateLimiter) sweep(now time.Time) {
	rl.lastSweep = now
	for k, v := range rl.visitors {
		if now.Sub(v.lastSeen) > rl.idle {
			delete(rl.visitors, k)
		}
	}
}

func (rl *rateLimiter) evictOldest() {
	var (
		oldestKey string
		oldest    time.Time
	)
	for k, v := range rl.visitors {
		if oldestKey == "" || v.lastSeen.Before(oldest) {
			oldestKey, oldest = k, v.lastSeen
		}
	}
	delete(rl.visitors, oldestKey)
}

func (rl *rateLimiter) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl == nil {
			c.Next()
			return
		}
		if !rl.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
