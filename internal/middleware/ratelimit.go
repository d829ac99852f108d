package middleware

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/erendikmenn/erenailab-blog/internal/ratelimit"
)

const maxUserAgentInKey = 50

// RateLimitOptions configures RateLimit.
type RateLimitOptions struct {
	// Name labels the limiter in logs and metrics.
	Name    string
	Limiter ratelimit.Limiter
	// Development appends the user agent to the client id so that several
	// local browsers don't share one bucket.
	Development bool
	Clock       clockwork.Clock
	// Rejections, if set, is incremented with the limiter name.
	Rejections *prometheus.CounterVec
}

// ClientID identifies the caller for rate limiting. Proxy headers are
// trusted in the order X-Forwarded-For, X-Real-IP, CF-Connecting-IP.
func ClientID(c *gin.Context, development bool) string {
	ip := ""
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		ip = strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	for _, header := range []string{"X-Real-IP", "CF-Connecting-IP"} {
		if ip != "" {
			break
		}
		ip = strings.TrimSpace(c.GetHeader(header))
	}
	if ip == "" {
		ip = c.RemoteIP()
	}
	if ip == "" {
		ip = "127.0.0.1"
	}

	if development {
		ua := c.GetHeader("User-Agent")
		if len(ua) > maxUserAgentInKey {
			ua = ua[:maxUserAgentInKey]
		}
		return ip + ":" + ua
	}
	return ip
}

// RateLimit counts every request against opts.Limiter and answers 429 once
// the caller's window is exhausted. API paths get JSON, other paths a
// small HTML page.
func RateLimit(opts RateLimitOptions) gin.HandlerFunc {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		res, err := opts.Limiter.Allow(ctx, ClientID(c, opts.Development))
		if err != nil {
			slog.WarnContext(ctx, "Rate limiter failed, allowing request", "limiter", opts.Name, "error", err)
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.UnixMilli(), 10))

		if res.Allowed {
			c.Next()
			return
		}

		retryAfter := int(math.Ceil(res.RetryAfter(opts.Clock.Now()).Seconds()))
		h.Set("Retry-After", strconv.Itoa(retryAfter))

		if opts.Rejections != nil {
			opts.Rejections.WithLabelValues(opts.Name).Inc()
		}
		slog.WarnContext(ctx, "Rate limit exceeded", "limiter", opts.Name, "path", c.Request.URL.Path, "client_ip", c.ClientIP())

		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":      "Rate limit exceeded",
				"message":    "Too many requests. Please try again later.",
				"retryAfter": retryAfter,
			})
			return
		}

		c.Data(http.StatusTooManyRequests, "text/html; charset=utf-8", []byte(fmt.Sprintf(tooManyRequestsPage, retryAfter)))
		c.Abort()
	}
}

const tooManyRequestsPage = `<!DOCTYPE html>
<html>
  <head>
    <title>Too Many Requests</title>
    <style>
      body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; display: flex; justify-content: center; align-items: center; height: 100vh; margin: 0; background: #f8f9fa; }
      .container { text-align: center; padding: 2rem; background: white; border-radius: 8px; box-shadow: 0 2px 10px rgba(0,0,0,0.1); }
      h1 { color: #dc3545; }
    </style>
  </head>
  <body>
    <div class="container">
      <h1>Too Many Requests</h1>
      <p>You've made too many requests. Please slow down.</p>
      <p>Retry after: %d seconds</p>
    </div>
  </body>
</html>
`
