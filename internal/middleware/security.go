package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

type directive struct {
	name   string
	values []string
}

// CSP builds the Content-Security-Policy header value.
func CSP(production bool, siteURL, reportURI string) string {
	scriptSrc := []string{"'self'"}
	if !production {
		scriptSrc = append(scriptSrc, "'unsafe-eval'", "'unsafe-inline'")
	}
	scriptSrc = append(scriptSrc, "https://www.googletagmanager.com", "https://www.google-analytics.com", "https://cdn.jsdelivr.net")

	connectSrc := []string{"'self'"}
	if siteURL != "" {
		connectSrc = append(connectSrc, siteURL)
	}
	connectSrc = append(connectSrc, "https://www.google-analytics.com")
	if !production {
		connectSrc = append(connectSrc, "ws://localhost:*", "http://localhost:*")
	}

	directives := []directive{
		{"default-src", []string{"'self'"}},
		{"script-src", scriptSrc},
		{"style-src", []string{"'self'", "'unsafe-inline'", "https://fonts.googleapis.com"}},
		{"img-src", []string{"'self'", "data:", "blob:", "https://images.unsplash.com", "https://res.cloudinary.com", "https://www.gravatar.com", "https://github.com", "https://lh3.googleusercontent.com"}},
		{"font-src", []string{"'self'", "data:", "https://fonts.gstatic.com"}},
		{"connect-src", connectSrc},
		{"frame-src", []string{"'self'", "https://www.youtube.com", "https://www.youtube-nocookie.com"}},
		{"object-src", []string{"'none'"}},
		{"base-uri", []string{"'self'"}},
		{"form-action", []string{"'self'"}},
		{"frame-ancestors", []string{"'none'"}},
	}
	if production {
		directives = append(directives, directive{name: "upgrade-insecure-requests"})
	}
	if reportURI != "" {
		directives = append(directives, directive{"report-uri", []string{reportURI}})
	}

	parts := make([]string, 0, len(directives))
	for _, d := range directives {
		if len(d.values) == 0 {
			parts = append(parts, d.name)
			continue
		}
		parts = append(parts, d.name+" "+strings.Join(d.values, " "))
	}
	return strings.Join(parts, "; ")
}

// SecurityHeaders sets the browser hardening headers on every response.
func SecurityHeaders(production bool, siteURL, reportURI string) gin.HandlerFunc {
	csp := CSP(production, siteURL, reportURI)

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("X-XSS-Protection", "1; mode=block")
		h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=(), interest-cohort=()")
		h.Set("Content-Security-Policy", csp)
		if production {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
		}
		c.Next()
	}
}
