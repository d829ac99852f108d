package middleware

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/erendikmenn/erenailab-blog/internal/apperrors"
	"github.com/erendikmenn/erenailab-blog/internal/database"
	"github.com/erendikmenn/erenailab-blog/internal/models"
)

// Maintenance answers 503 while the maintenance_mode setting is true.
// Mount it on public routes only so admins can still turn it off.
func Maintenance(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if database.SettingBool(c.Request.Context(), db, models.SettingMaintenanceMode, false) {
			c.Header("Retry-After", "600")
			apperrors.Respond(c, apperrors.Unavailable("Site is under maintenance", nil))
			return
		}
		c.Next()
	}
}
