package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"

	"github.com/erendikmenn/erenailab-blog/internal/apperrors"
	"github.com/erendikmenn/erenailab-blog/internal/content"
	"github.com/erendikmenn/erenailab-blog/internal/metrics"
	"github.com/erendikmenn/erenailab-blog/internal/models"
)

// AdminHandler serves the role-gated dashboard API.
type AdminHandler struct {
	db      *gorm.DB
	store   *content.Store
	metrics *metrics.BlogMetrics
	clock   clockwork.Clock
}

func NewAdminHandler(d Deps) *AdminHandler {
	return &AdminHandler{
		db:      d.gorm(),
		store:   d.Store,
		metrics: d.Metrics,
		clock:   d.Clock,
	}
}

// ListLogs returns the audit log, newest first.
func (h *AdminHandler) ListLogs(c *gin.Context) {
	var q struct {
		pageQuery
		Action     string `form:"action" binding:"omitempty,max=50"`
		TargetType string `form:"targetType" binding:"omitempty,max=20"`
		UserID     int    `form:"userId" binding:"omitempty,gt=0"`
	}
	if !bindQuery(c, &q) {
		return
	}
	limit := q.limit(50)

	query := h.db.WithContext(c.Request.Context()).Model(&models.AdminLog{})
	if q.Action != "" {
		query = query.Where("action = ?", q.Action)
	}
	if q.TargetType != "" {
		query = query.Where("target_type = ?", q.TargetType)
	}
	if q.UserID != 0 {
		query = query.Where("user_id = ?", q.UserID)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		apperrors.Respond(c, apperrors.Internal("Failed to fetch logs", err))
		return
	}

	logs := []models.AdminLog{}
	err := query.Session(&gorm.Session{}).
		Preload("User").
		Order("created_at desc, id desc").
		Offset(q.offset(50)).Limit(limit).
		Find(&logs).Error
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("Failed to fetch logs", err))
		return
	}

	respond(c, http.StatusOK, gin.H{
		"logs":       logs,
		"pagination": newPagination(q.Page, limit, total),
	}, "")
}

// ListNewsletter returns newsletter subscribers.
func (h *AdminHandler) ListNewsletter(c *gin.Context) {
	var q struct {
		pageQuery
		Confirmed string `form:"confirmed" binding:"omitempty,oneof=true false"`
	}
	if !bindQuery(c, &q) {
		return
	}
	limit := q.limit(50)

	query := h.db.WithContext(c.Request.Context()).Model(&models.Newsletter{})
	if q.Confirmed != "" {
		query = query.Where("confirmed = ?", q.Confirmed == "true")
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		apperrors.Respond(c, apperrors.Internal("Failed to fetch subscribers", err))
		return
	}

	subscribers := []models.Newsletter{}
	err := query.Session(&gorm.Session{}).
		Order("created_at desc, id desc").
		Offset(q.offset(50)).Limit(limit).
		Find(&subscribers).Error
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("Failed to fetch subscribers", err))
		return
	}

	respond(c, http.StatusOK, gin.H{
		"subscribers": subscribers,
		"pagination":  newPagination(q.Page, limit, total),
	}, "")
}

type slugViews struct {
	Slug  string `json:"slug"`
	Views int64  `json:"views"`
}

// PageViews reports views in the last n days and the most viewed posts.
func (h *AdminHandler) PageViews(c *gin.Context) {
	var q struct {
		Days int `form:"days,default=30" binding:"min=1,max=365"`
	}
	if !bindQuery(c, &q) {
		return
	}

	since := h.clock.Now().UTC().AddDate(0, 0, -q.Days)
	window := h.db.WithContext(c.Request.Context()).Model(&models.PageView{}).Where("created_at >= ?", since)

	var total int64
	if err := window.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		apperrors.Respond(c, apperrors.Internal("Failed to fetch page views", err))
		return
	}

	top := []slugViews{}
	err := window.Session(&gorm.Session{}).
		Select("slug, count(*) as views").
		Group("slug").
		Order("views desc, slug").
		Limit(10).
		Scan(&top).Error
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("Failed to fetch page views", err))
		return
	}

	respond(c, http.StatusOK, gin.H{
		"days":     q.Days,
		"total":    total,
		"topPosts": top,
	}, "")
}
