package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"

	"github.com/erendikmenn/erenailab-blog/internal/config"
	"github.com/erendikmenn/erenailab-blog/internal/database"
	"github.com/erendikmenn/erenailab-blog/internal/version"
)

type HealthHandler struct {
	db          database.Service
	jwtSecret   string
	environment string
	clock       clockwork.Clock
}

func NewHealthHandler(db database.Service, cfg *config.Config, clock clockwork.Clock) *HealthHandler {
	return &HealthHandler{
		db:          db,
		jwtSecret:   cfg.JWT.Secret,
		environment: cfg.Server.Environment,
		clock:       clock,
	}
}

type healthCheck struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Status reports whether the API can serve requests.
func (h *HealthHandler) Status(c *gin.Context) {
	checks := map[string]healthCheck{}
	healthy := true

	db := h.db.Health(c.Request.Context())
	if db["status"] == "up" {
		checks["database"] = healthCheck{Status: "healthy"}
	} else {
		healthy = false
		checks["database"] = healthCheck{Status: "unhealthy", Message: db["error"]}
	}

	if h.jwtSecret != "" {
		checks["auth"] = healthCheck{Status: "healthy"}
	} else {
		healthy = false
		checks["auth"] = healthCheck{Status: "unhealthy", Message: "JWT secret is not set"}
	}

	status, code := "healthy", http.StatusOK
	if !healthy {
		status, code = "degraded", http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":      status,
		"timestamp":   h.clock.Now().UTC().Format(time.RFC3339),
		"version":     version.Get(),
		"environment": h.environment,
		"checks":      checks,
	})
}

// Database returns the raw database health map.
func (h *HealthHandler) Database(c *gin.Context) {
	c.JSON(http.StatusOK, h.db.Health(c.Request.Context()))
}
