package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/erendikmenn/erenailab-blog/internal/apperrors"
	"github.com/erendikmenn/erenailab-blog/internal/models"
)

type parentSummary struct {
	ID      int    `json:"id"`
	Content string `json:"content"`
	Author  string `json:"author"`
}

type adminComment struct {
	ID           int            `json:"id"`
	Content      string         `json:"content"`
	PostSlug     string         `json:"postSlug"`
	Status       string         `json:"status"`
	IPAddress    string         `json:"ipAddress,omitempty"`
	UserAgent    string         `json:"userAgent,omitempty"`
	User         models.User    `json:"user"`
	Parent       *parentSummary `json:"parent"`
	LikeCount    int            `json:"likeCount"`
	DislikeCount int            `json:"dislikeCount"`
	ReplyCount   int            `json:"replyCount"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// ListComments returns comments in a moderation state, newest first.
func (h *AdminHandler) ListComments(c *gin.Context) {
	var q struct {
		pageQuery
		Status string `form:"status"`
	}
	if !bindQuery(c, &q) {
		return
	}
	status := strings.ToUpper(q.Status)
	if status == "" {
		status = models.StatusPending
	}
	if status != "ALL" && !models.ValidCommentStatus(status) {
		apperrors.Respond(c, apperrors.Validation("Invalid status").
			WithField("status", "must be one of PENDING, APPROVED, REJECTED, SPAM, HIDDEN, ALL"))
		return
	}
	limit := q.limit(20)

	db := h.db.WithContext(c.Request.Context())
	query := db.Model(&models.Comment{})
	if status != "ALL" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		apperrors.Respond(c, apperrors.Internal("Failed to fetch comments", err))
		return
	}

	var comments []models.Comment
	err := query.Session(&gorm.Session{}).
		Preload("User").
		Preload("Parent.User").
		Order("created_at desc, id desc").
		Offset(q.offset(20)).Limit(limit).
		Find(&comments).Error
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("Failed to fetch comments", err))
		return
	}

	ids := commentIDs(comments)
	counts, err := reactionCountsFor(db, ids)
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("Failed to fetch comments", err))
		return
	}
	replies, err := replyCountsFor(db, ids)
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("Failed to fetch comments", err))
		return
	}

	out := make([]adminComment, len(comments))
	for i, cm := range comments {
		out[i] = adminComment{
			ID:           cm.ID,
			Content:      cm.Content,
			PostSlug:     cm.PostSlug,
			Status:       cm.Status,
			IPAddress:    cm.IPAddress,
			UserAgent:    cm.UserAgent,
			User:         cm.User,
			LikeCount:    counts[cm.ID].likes,
			DislikeCount: counts[cm.ID].dislikes,
			ReplyCount:   replies[cm.ID],
			CreatedAt:    cm.CreatedAt,
			UpdatedAt:    cm.UpdatedAt,
		}
		if cm.Parent != nil {
			out[i].Parent = &parentSummary{
				ID:      cm.Parent.ID,
				Content: truncate(cm.Parent.Content, 100),
				Author:  cm.Parent.User.Name,
			}
		}
	}

	respond(c, http.StatusOK, gin.H{
		"comments":   out,
		"pagination": newPagination(q.Page, limit, total),
	}, "")
}

var moderationActions = map[string]string{
	"approve": models.StatusApproved,
	"reject":  models.StatusRejected,
	"spam":    models.StatusSpam,
	"hide":    models.StatusHidden,
}

// UpdateComment sets a comment's moderation status.
func (h *AdminHandler) UpdateComment(c *gin.Context) {
	var input struct {
		Status string `json:"status" binding:"required,oneof=PENDING APPROVED REJECTED SPAM HIDDEN"`
		Reason string `json:"reason" binding:"max=500"`
	}
	if !bindJSON(c, &input) {
		return
	}
	h.setCommentStatus(c, input.Status, input.Reason)
}

// ModerateComment applies a named moderation action.
func (h *AdminHandler) ModerateComment(c *gin.Context) {
	var input struct {
		Action string `json:"action" binding:"required,oneof=approve reject spam hide"`
		Reason string `json:"reason" binding:"max=500"`
	}
	if !bindJSON(c, &input) {
		return
	}
	h.setCommentStatus(c, moderationActions[input.Action], input.Reason)
}

func (h *AdminHandler) loadComment(c *gin.Context) (*models.Comment, bool) {
	id, ok := paramID(c, "id")
	if !ok {
		return nil, false
	}

	var comment models.Comment
	if err := h.db.WithContext(c.Request.Context()).Preload("User").First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			apperrors.Respond(c, apperrors.NotFound("Comment not found"))
			return nil, false
		}
		apperrors.Respond(c, apperrors.Internal("Failed to load comment", err))
		return nil, false
	}
	return &comment, true
}

func (h *AdminHandler) setCommentStatus(c *gin.Context, status, reason string) {
	actor := currentUser(c)

	comment, ok := h.loadComment(c)
	if !ok {
		return
	}

	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(comment).Update("status", status).Error; err != nil {
			return err
		}
		return recordAdminAction(tx, c, actor, "comment_"+strings.ToLower(status), models.TargetComment, comment.ID, map[string]any{
			"commentUserId":  comment.UserID,
			"commentContent": truncate(comment.Content, 100),
			"postSlug":       comment.PostSlug,
			"reason":         reason,
		})
	})
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("Failed to update comment", err))
		return
	}

	comment.Status = status
	h.metrics.CommentsModerated.WithLabelValues(strings.ToLower(status)).Inc()
	respond(c, http.StatusOK, comment, "Comment status updated to "+status)
}

// DeleteComment removes a comment without replies.
func (h *AdminHandler) DeleteComment(c *gin.Context) {
	actor := currentUser(c)

	comment, ok := h.loadComment(c)
	if !ok {
		return
	}

	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := deleteComment(tx, comment.ID); err != nil {
			return err
		}
		return recordAdminAction(tx, c, actor, "comment_deleted", models.TargetComment, comment.ID, map[string]any{
			"commentUserId":  comment.UserID,
			"commentContent": truncate(comment.Content, 100),
			"postSlug":       comment.PostSlug,
		})
	})
	if errors.Is(err, errHasReplies) {
		apperrors.Respond(c, apperrors.Validation("Comment has replies. Mark as hidden instead."))
		return
	}
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("Failed to delete comment", err))
		return
	}

	h.metrics.CommentsModerated.WithLabelValues("delete").Inc()
	respond(c, http.StatusOK, nil, "Comment deleted")
}
