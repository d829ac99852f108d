package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/erendikmenn/erenailab-blog/internal/apperrors"
	"github.com/erendikmenn/erenailab-blog/internal/config"
	"github.com/erendikmenn/erenailab-blog/internal/metrics"
)

const maxCSPReportSize = 64 << 10

// CSPHandler receives browser Content-Security-Policy violation reports.
type CSPHandler struct {
	limiter *rate.Limiter
	metrics *metrics.BlogMetrics
}

func NewCSPHandler(cfg config.CSPConfig, m *metrics.BlogMetrics) *CSPHandler {
	burst := cfg.ReportBurst
	if burst <= 0 {
		burst = 1
	}
	return &CSPHandler{
		limiter: rate.NewLimiter(rate.Limit(cfg.ReportRate), burst),
		metrics: m,
	}
}

// Report logs a violation report. Bursts of reports are counted but only
// logged up to the configured rate.
func (h *CSPHandler) Report(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxCSPReportSize))
	if err != nil {
		apperrors.Respond(c, apperrors.Validation("Invalid request body"))
		return
	}

	var body struct {
		Report map[string]any `json:"csp-report"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || body.Report == nil {
		h.metrics.CSPReports.WithLabelValues("invalid").Inc()
		apperrors.Respond(c, apperrors.Validation("Invalid CSP report"))
		return
	}

	if h.limiter.Allow() {
		h.metrics.CSPReports.WithLabelValues("logged").Inc()
		slog.WarnContext(c.Request.Context(), "CSP violation",
			"document_uri", body.Report["document-uri"],
			"violated_directive", body.Report["violated-directive"],
			"blocked_uri", body.Report["blocked-uri"],
			"report", body.Report,
		)
	} else {
		h.metrics.CSPReports.WithLabelValues("dropped").Inc()
	}

	c.JSON(http.StatusOK, gin.H{"status": "received"})
}
