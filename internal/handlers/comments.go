package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"

	"github.com/erendikmenn/erenailab-blog/internal/apperrors"
	"github.com/erendikmenn/erenailab-blog/internal/content"
	"github.com/erendikmenn/erenailab-blog/internal/database"
	"github.com/erendikmenn/erenailab-blog/internal/metrics"
	"github.com/erendikmenn/erenailab-blog/internal/middleware"
	"github.com/erendikmenn/erenailab-blog/internal/models"
	"github.com/erendikmenn/erenailab-blog/internal/notify"
	"github.com/erendikmenn/erenailab-blog/internal/validation"
)

type CommentHandler struct {
	db       *gorm.DB
	store    *content.Store
	notifier notify.Notifier
	metrics  *metrics.BlogMetrics
	clock    clockwork.Clock
	perHour  int
}

func NewCommentHandler(d Deps) *CommentHandler {
	return &CommentHandler{
		db:       d.gorm(),
		store:    d.Store,
		notifier: d.Notifier,
		metrics:  d.Metrics,
		clock:    d.Clock,
		perHour:  d.Config.RateLimit.CommentsPerHour,
	}
}

// postExists responds 404 and returns false when slug names no post.
func (h *CommentHandler) postExists(c *gin.Context, slug string) bool {
	ok, err := h.store.Exists(c.Request.Context(), slug)
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("Failed to load posts", err))
		return false
	}
	if !ok {
		apperrors.Respond(c, apperrors.NotFound("Post not found"))
		return false
	}
	return true
}

// initialStatus is PENDING while moderation is enabled.
func (h *CommentHandler) initialStatus(c *gin.Context) string {
	if database.SettingBool(c.Request.Context(), h.db, models.SettingCommentModeration, true) {
		return models.StatusPending
	}
	return models.StatusApproved
}

// GetComments returns the approved comments of a post as a thread.
func (h *CommentHandler) GetComments(c *gin.Context) {
	slug := c.Query("postSlug")
	if slug == "" {
		apperrors.Respond(c, apperrors.Validation("postSlug is required"))
		return
	}
	if !validation.IsSlug(slug) {
		apperrors.Respond(c, apperrors.Validation("Invalid post slug format"))
		return
	}
	if !h.postExists(c, slug) {
		return
	}

	db := h.db.WithContext(c.Request.Context())

	var comments []models.Comment
	err := db.Where("post_slug = ? AND status = ?", slug, models.StatusApproved).
		Preload("User").
		Order("created_at desc, id desc").
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

	mine := map[int]string{}
	if user := currentUser(c); user != nil {
		if mine, err = reactionsBy(db, user.ID, ids); err != nil {
			apperrors.Respond(c, apperrors.Internal("Failed to fetch comments", err))
			return
		}
	}

	respond(c, http.StatusOK, buildCommentTree(comments, counts, mine), "")
}

// CreateComment adds a comment or reply to a post.
func (h *CommentHandler) CreateComment(c *gin.Context) {
	user := currentUser(c)

	var input struct {
		Content  string `json:"content" binding:"required,notblank,max=2000"`
		PostSlug string `json:"postSlug" binding:"required,slug,max=200"`
		ParentID *int   `json:"parentId" binding:"omitempty,gt=0"`
	}
	if !bindJSON(c, &input) {
		return
	}

	body := validation.SanitizeComment(input.Content)
	if body == "" {
		apperrors.Respond(c, apperrors.Validation("Comment content cannot be empty"))
		return
	}
	if !h.postExists(c, input.PostSlug) {
		return
	}

	ctx := c.Request.Context()
	db := h.db.WithContext(ctx)

	if input.ParentID != nil {
		var parent models.Comment
		if err := db.First(&parent, *input.ParentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				apperrors.Respond(c, apperrors.NotFound("Parent comment not found"))
				return
			}
			apperrors.Respond(c, apperrors.Internal("Failed to load parent comment", err))
			return
		}
		if parent.PostSlug != input.PostSlug {
			apperrors.Respond(c, apperrors.Validation("Parent comment belongs to another post"))
			return
		}
	}

	limit := database.SettingInt(ctx, db, models.SettingCommentsPerHour, h.perHour)
	var recent int64
	since := h.clock.Now().UTC().Add(-time.Hour)
	if err := db.Model(&models.Comment{}).Where("user_id = ? AND created_at >= ?", user.ID, since).Count(&recent).Error; err != nil {
		apperrors.Respond(c, apperrors.Internal("Failed to create comment", err))
		return
	}
	if recent >= int64(limit) {
		h.metrics.RateLimitRejections.WithLabelValues("comment").Inc()
		apperrors.Respond(c, apperrors.RateLimited("Too many comments. Please try again later."))
		return
	}

	comment := models.Comment{
		Content:   body,
		PostSlug:  input.PostSlug,
		UserID:    user.ID,
		ParentID:  input.ParentID,
		Status:    h.initialStatus(c),
		IPAddress: middleware.ClientID(c, false),
		UserAgent: truncate(c.GetHeader("User-Agent"), models.MaxUserAgentLength),
	}
	if err := db.Create(&comment).Error; err != nil {
		apperrors.Respond(c, apperrors.Internal("Failed to create comment", err))
		return
	}
	comment.User = *user

	h.metrics.CommentsCreated.WithLabelValues(comment.Status).Inc()

	message := "Comment posted"
	if comment.Status == models.StatusPending {
		message = "Comment submitted and awaiting moderation"
		notify.Async(ctx, h.notifier, "New comment awaiting moderation",
			fmt.Sprintf("%s on %s: %s", user.Name, comment.PostSlug, truncate(body, 100)))
	}

	respond(c, http.StatusCreated, newCommentNode(comment, reactionCounts{}), message)
}

// loadComment fetches the comment named by the :id parameter.
func (h *CommentHandler) loadComment(c *gin.Context) (*models.Comment, bool) {
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

// UpdateComment edits the caller's own comment.
func (h *CommentHandler) UpdateComment(c *gin.Context) {
	user := currentUser(c)

	var input struct {
		Content string `json:"content" binding:"required,notblank,max=2000"`
	}
	if !bindJSON(c, &input) {
		return
	}

	comment, ok := h.loadComment(c)
	if !ok {
		return
	}
	if comment.UserID != user.ID {
		apperrors.Respond(c, apperrors.Forbidden("You can only edit your own comments"))
		return
	}
	// Moderated-out comments stay out of the queue.
	if comment.Status != models.StatusPending && comment.Status != models.StatusApproved {
		apperrors.Respond(c, apperrors.Forbidden("This comment can no longer be edited"))
		return
	}

	body := validation.SanitizeComment(input.Content)
	if body == "" {
		apperrors.Respond(c, apperrors.Validation("Comment content cannot be empty"))
		return
	}

	updates := map[string]any{"content": body}
	if h.initialStatus(c) == models.StatusPending {
		updates["status"] = models.StatusPending
	}
	if err := h.db.WithContext(c.Request.Context()).Model(comment).Updates(updates).Error; err != nil {
		apperrors.Respond(c, apperrors.Internal("Failed to update comment", err))
		return
	}

	counts, err := reactionCountsFor(h.db.WithContext(c.Request.Context()), []int{comment.ID})
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("Failed to update comment", err))
		return
	}

	respond(c, http.StatusOK, newCommentNode(*comment, counts[comment.ID]), "Comment updated")
}

// DeleteComment removes a comment without replies. Owners and moderators
// may delete.
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	user := currentUser(c)

	comment, ok := h.loadComment(c)
	if !ok {
		return
	}
	if comment.UserID != user.ID && !user.HasRole(models.RoleAdmin, models.RoleModerator) {
		apperrors.Respond(c, apperrors.Forbidden("You can only delete your own comments"))
		return
	}

	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		return deleteComment(tx, comment.ID)
	})
	if errors.Is(err, errHasReplies) {
		apperrors.Respond(c, apperrors.Validation("Comment has replies"))
		return
	}
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("Failed to delete comment", err))
		return
	}

	respond(c, http.StatusOK, nil, "Comment deleted")
}

var errHasReplies = errors.New("comment has replies")

// deleteComment removes a reply-free comment and its reactions.
func deleteComment(tx *gorm.DB, id int) error {
	var replies int64
	if err := tx.Model(&models.Comment{}).Where("parent_id = ?", id).Count(&replies).Error; err != nil {
		return err
	}
	if replies > 0 {
		return errHasReplies
	}
	if err := tx.Where("comment_id = ?", id).Delete(&models.CommentLike{}).Error; err != nil {
		return err
	}
	return tx.Delete(&models.Comment{}, id).Error
}

// LikeComment toggles the caller's reaction on an approved comment.
func (h *CommentHandler) LikeComment(c *gin.Context) {
	user := currentUser(c)

	var input struct {
		Type string `json:"type" binding:"required,oneof=LIKE DISLIKE"`
	}
	if !bindJSON(c, &input) {
		return
	}

	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	db := h.db.WithContext(c.Request.Context())

	var comment models.Comment
	if err := db.Where("id = ? AND status = ?", id, models.StatusApproved).First(&comment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			apperrors.Respond(c, apperrors.NotFound("Comment not found"))
			return
		}
		apperrors.Respond(c, apperrors.Internal("Failed to load comment", err))
		return
	}

	var userLike *string
	err := db.Transaction(func(tx *gorm.DB) error {
		var existing models.CommentLike
		err := tx.Where("user_id = ? AND comment_id = ?", user.ID, id).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			userLike = &input.Type
			return tx.Create(&models.CommentLike{UserID: user.ID, CommentID: id, Type: input.Type}).Error
		case err != nil:
			return err
		case existing.Type == input.Type:
			return tx.Delete(&existing).Error
		default:
			userLike = &input.Type
			return tx.Model(&existing).Update("type", input.Type).Error
		}
	})
	if database.IsUniqueViolation(err) {
		apperrors.Respond(c, apperrors.Conflict("Reaction already recorded"))
		return
	}
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("Failed to update reaction", err))
		return
	}

	counts, err := reactionCountsFor(db, []int{id})
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("Failed to update reaction", err))
		return
	}

	respond(c, http.StatusOK, gin.H{
		"likeCount":    counts[id].likes,
		"dislikeCount": counts[id].dislikes,
		"userLike":     userLike,
	}, "")
}
