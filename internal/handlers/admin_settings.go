package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/erendikmenn/erenailab-blog/internal/apperrors"
	"github.com/erendikmenn/erenailab-blog/internal/models"
	"github.com/erendikmenn/erenailab-blog/internal/validation"
)

// ListSettings returns site settings, optionally of one category.
func (h *AdminHandler) ListSettings(c *gin.Context) {
	var q struct {
		Category string `form:"category" binding:"omitempty,settingcategory,max=50"`
	}
	if !bindQuery(c, &q) {
		return
	}

	query := h.db.WithContext(c.Request.Context())
	if q.Category != "" {
		query = query.Where(models.SiteSetting{Category: q.Category})
	}

	settings := []models.SiteSetting{}
	if err := query.Order("category, id").Find(&settings).Error; err != nil {
		apperrors.Respond(c, apperrors.Internal("Failed to fetch settings", err))
		return
	}

	respond(c, http.StatusOK, settings, "")
}

// validSettingValue reports whether value parses as typ.
func validSettingValue(typ, value string) bool {
	switch typ {
	case models.SettingNumber:
		_, err := strconv.ParseFloat(value, 64)
		return err == nil
	case models.SettingBoolean:
		return value == "true" || value == "false"
	case models.SettingJSON:
		return json.Valid([]byte(value))
	default:
		return true
	}
}

// UpdateSetting creates or replaces a site setting.
func (h *AdminHandler) UpdateSetting(c *gin.Context) {
	actor := currentUser(c)

	key := c.Param("key")
	if !validation.IsSettingKey(key) || len(key) > 100 {
		apperrors.Respond(c, apperrors.Validation("Invalid setting key"))
		return
	}

	var input struct {
		Value    string `json:"value"`
		Type     string `json:"type" binding:"omitempty,oneof=string number boolean json"`
		Category string `json:"category" binding:"omitempty,settingcategory,max=50"`
	}
	if !bindJSON(c, &input) {
		return
	}
	if input.Type == "" {
		input.Type = models.SettingString
	}
	if input.Category == "" {
		input.Category = "general"
	}
	if !validSettingValue(input.Type, input.Value) {
		apperrors.Respond(c, apperrors.Validation("Value does not match its type").WithField("value", "must be a valid "+input.Type))
		return
	}

	setting := models.SiteSetting{
		Key:      key,
		Value:    input.Value,
		Type:     input.Type,
		Category: input.Category,
	}

	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "type", "category", "updated_at"}),
		}).Create(&setting).Error
		if err != nil {
			return err
		}
		return recordAdminAction(tx, c, actor, "setting_updated", models.TargetSetting, key, map[string]any{
			"value":    input.Value,
			"type":     input.Type,
			"category": input.Category,
		})
	})
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("Failed to update setting", err))
		return
	}

	if err := h.db.WithContext(c.Request.Context()).Where(models.SiteSetting{Key: key}).First(&setting).Error; err != nil {
		apperrors.Respond(c, apperrors.Internal("Failed to load setting", err))
		return
	}

	respond(c, http.StatusOK, setting, "Setting updated")
}
