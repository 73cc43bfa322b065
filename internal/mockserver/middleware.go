package mockserver

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"shopping-assistant/internal/common/errors"
	"shopping-assistant/internal/common/logger"
	"shopping-assistant/internal/common/metrics"
	"shopping-assistant/internal/common/observability"
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter limits requests per client IP.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*clientLimiter
	rate     rate.Limit
	burst    int
	errors   *errors.ErrorHandler
	stop     chan struct{}
	once     sync.Once
}

func NewRateLimiter(r rate.Limit, burst int, log logger.Logger) *RateLimiter {
	rl := &RateLimiter{
		limiters: make(map[string]*clientLimiter),
		rate:     r,
		burst:    burst,
		errors:   errors.NewErrorHandler(log),
		stop:     make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

func (rl *RateLimiter) getLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if l, exists := rl.limiters[ip]; exists {
		l.lastSeen = time.Now()
		return l.limiter
	}

	limiter := rate.NewLimiter(rl.rate, rl.burst)
	rl.limiters[ip] = &clientLimiter{limiter: limiter, lastSeen: time.Now()}
	return limiter
}

// cleanupLoop forgets clients idle for five minutes.
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(3 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.mu.Lock()
			for ip, l := range rl.limiters {
				if time.Since(l.lastSeen) > 5*time.Minute {
					delete(rl.limiters, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

func (rl *RateLimiter) Close() {
	rl.once.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.getLimiter(c.ClientIP()).Allow() {
			retryAfter := max(int(1.0/float64(rl.rate)), 1)
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			status, body := rl.errors.ToHTTP("rate_limit", errors.NewRateLimitedError("client "+c.ClientIP()))
			c.AbortWithStatusJSON(status, body)
			return
		}
		c.Next()
	}
}

// RequestMetrics records every request in prometheus and, when obs is set,
// in the otel meter under a server span.
func RequestMetrics(obs *observability.Observability) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		var span trace.Span
		if obs != nil {
			var ctx context.Context
			ctx, span = obs.StartSpan(c.Request.Context(), c.Request.Method+" "+c.Request.URL.Path,
				attribute.String("http.method", c.Request.Method))
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		code := c.Writer.Status()
		status := strconv.Itoa(code)
		elapsed := time.Since(start)

		metrics.ServerRequests.WithLabelValues(route, c.Request.Method, status).Inc()
		metrics.ServerRequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
		if obs != nil {
			obs.RecordRequest(c.Request.Context(), route, status)
			obs.RecordRequestDuration(c.Request.Context(), route, elapsed)
			span.SetAttributes(attribute.String("http.route", route), attribute.Int("http.status_code", code))
			if code >= 500 {
				span.SetStatus(codes.Error, status)
			}
			span.End()
		}
	}
}

// RequestLogger logs one line per request at debug level.
func RequestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Debug("request served", map[string]interface{}{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    c.Writer.Status(),
			"latencyMs": time.Since(start).Milliseconds(),
			"requestId": c.GetHeader("X-Request-ID"),
		})
	}
}
