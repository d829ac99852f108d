package handlers

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/erendikmenn/erenailab-blog/internal/apperrors"
	"github.com/erendikmenn/erenailab-blog/internal/middleware"
	"github.com/erendikmenn/erenailab-blog/internal/models"
)

func respond(c *gin.Context, status int, data any, message string) {
	body := gin.H{"success": true, "data": data}
	if message != "" {
		body["message"] = message
	}
	c.JSON(status, body)
}

// currentUser returns the authenticated user, or nil on optional-auth routes.
func currentUser(c *gin.Context) *models.User {
	user, _ := middleware.CurrentUser(c)
	return user
}

func paramID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		apperrors.Respond(c, apperrors.Validation("Invalid "+name))
		return 0, false
	}
	return id, true
}

type pageQuery struct {
	Page  int `form:"page,default=1" binding:"min=1"`
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

func (q pageQuery) limit(def int) int {
	if q.Limit == 0 {
		return def
	}
	return q.Limit
}

func (q pageQuery) offset(def int) int {
	return (q.Page - 1) * q.limit(def)
}

type pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalCount  int64 `json:"totalCount"`
	Limit       int   `json:"limit"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
}

func newPagination(page, limit int, total int64) pagination {
	pages := int(math.Ceil(float64(total) / float64(limit)))
	return pagination{
		CurrentPage: page,
		TotalPages:  pages,
		TotalCount:  total,
		Limit:       limit,
		HasNextPage: page < pages,
		HasPrevPage: page > 1,
	}
}

// recordAdminAction writes an audit entry on tx.
func recordAdminAction(tx *gorm.DB, c *gin.Context, actor *models.User, action, targetType string, targetID any, details map[string]any) error {
	raw, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("encode admin log details: %w", err)
	}

	entry := models.AdminLog{
		UserID:     actor.ID,
		Action:     action,
		TargetID:   fmt.Sprint(targetID),
		TargetType: targetType,
		Details:    datatypes.JSON(raw),
		IPAddress:  middleware.ClientID(c, false),
	}
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("create admin log: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		apperrors.Respond(c, apperrors.FromBinding(err))
		return false
	}
	return true
}

func bindQuery(c *gin.Context, v any) bool {
	if err := c.ShouldBindQuery(v); err != nil {
		apperrors.Respond(c, apperrors.FromBinding(err))
		return false
	}
	return true
}

// MethodNotAllowed answers requests whose path exists under another method.
func MethodNotAllowed(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
}

// NotFound answers requests for unknown routes.
func NotFound(c *gin.Context) {
	apperrors.Respond(c, apperrors.NotFound("Route not found"))
}
