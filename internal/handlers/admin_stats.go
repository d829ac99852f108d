package handlers

import (
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/erendikmenn/erenailab-blog/internal/apperrors"
	"github.com/erendikmenn/erenailab-blog/internal/models"
)

type trend struct {
	Today int64 `json:"today"`
	Week  int64 `json:"week"`
	Month int64 `json:"month"`
	Trend int   `json:"trend"`
}

// trendPercent compares today with the daily average of the last week.
func trendPercent(today, week int64) int {
	if week == 0 {
		return 0
	}
	return int(math.Round((float64(today)/(float64(week)/7) - 1) * 100))
}

type statusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

type alert struct {
	Type     string `json:"type"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Count    int64  `json:"count"`
}

// Stats returns the dashboard overview. The counts are independent and
// run concurrently.
func (h *AdminHandler) Stats(c *gin.Context) {
	now := h.clock.Now().UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	weekAgo := now.AddDate(0, 0, -7)
	monthAgo := now.AddDate(0, -1, 0)

	g, ctx := errgroup.WithContext(c.Request.Context())
	db := h.db.WithContext(ctx)

	count := func(dst *int64, model any, query string, args ...any) {
		g.Go(func() error {
			q := db.Model(model)
			if query != "" {
				q = q.Where(query, args...)
			}
			return q.Count(dst).Error
		})
	}

	var (
		totalUsers, totalComments, pending, approved, spam int64
		pageViews, subscribers                             int64
		comments, users                                    trend
		byStatus                                           []statusCount
		byRole                                             []roleCount
		recent                                             []models.AdminLog
	)

	count(&totalUsers, &models.User{}, "")
	count(&totalComments, &models.Comment{}, "")
	count(&pending, &models.Comment{}, "status = ?", models.StatusPending)
	count(&approved, &models.Comment{}, "status = ?", models.StatusApproved)
	count(&spam, &models.Comment{}, "status = ?", models.StatusSpam)
	count(&pageViews, &models.PageView{}, "")
	count(&subscribers, &models.Newsletter{}, "confirmed = ? AND unsubscribed = ?", true, false)

	count(&comments.Today, &models.Comment{}, "created_at >= ?", startOfDay)
	count(&comments.Week, &models.Comment{}, "created_at >= ?", weekAgo)
	count(&comments.Month, &models.Comment{}, "created_at >= ?", monthAgo)
	count(&users.Today, &models.User{}, "created_at >= ?", startOfDay)
	count(&users.Week, &models.User{}, "created_at >= ?", weekAgo)
	count(&users.Month, &models.User{}, "created_at >= ?", monthAgo)

	g.Go(func() error {
		return db.Model(&models.Comment{}).Select("status, count(*) as count").Group("status").Order("status").Scan(&byStatus).Error
	})
	g.Go(func() error {
		return db.Model(&models.User{}).Select("role, count(*) as count").Group("role").Order("role").Scan(&byRole).Error
	})
	g.Go(func() error {
		return db.Preload("User", func(tx *gorm.DB) *gorm.DB {
			return tx.Select("id", "name", "email", "role")
		}).Order("created_at desc, id desc").Limit(20).Find(&recent).Error
	})

	if err := g.Wait(); err != nil {
		apperrors.Respond(c, apperrors.Internal("Failed to fetch statistics", err))
		return
	}

	comments.Trend = trendPercent(comments.Today, comments.Week)
	users.Trend = trendPercent(users.Today, users.Week)

	alerts := []alert{}
	if pending > 10 {
		alerts = append(alerts, alert{
			Type:     "highPendingComments",
			Severity: "warning",
			Message:  "Many comments are waiting for moderation",
			Count:    pending,
		})
	}
	if spam > 0 {
		alerts = append(alerts, alert{
			Type:     "newSpamComments",
			Severity: "info",
			Message:  "Comments were marked as spam",
			Count:    spam,
		})
	}

	respond(c, http.StatusOK, gin.H{
		"overview": gin.H{
			"totalUsers":            totalUsers,
			"totalComments":         totalComments,
			"pendingComments":       pending,
			"approvedComments":      approved,
			"spamComments":          spam,
			"totalPageViews":        pageViews,
			"newsletterSubscribers": subscribers,
		},
		"trends": gin.H{
			"comments": comments,
			"users":    users,
		},
		"distributions": gin.H{
			"commentsByStatus": nonNil(byStatus),
			"usersByRole":      nonNil(byRole),
		},
		"recentActivity": nonNil(recent),
		"alerts":         alerts,
	}, "")
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
