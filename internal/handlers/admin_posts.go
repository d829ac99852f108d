package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/erendikmenn/erenailab-blog/internal/apperrors"
	"github.com/erendikmenn/erenailab-blog/internal/content"
	"github.com/erendikmenn/erenailab-blog/internal/models"
)

// CreatePost writes a new MDX post, with an optional English variant.
func (h *AdminHandler) CreatePost(c *gin.Context) {
	actor := currentUser(c)

	var input struct {
		Title     string `json:"title" binding:"required,notblank,max=200"`
		TitleEN   string `json:"title_en" binding:"max=200"`
		Excerpt   string `json:"excerpt" binding:"max=500"`
		ExcerptEN string `json:"excerpt_en" binding:"max=500"`
		Content   string `json:"content" binding:"required,notblank"`
		ContentEN string `json:"content_en"`
		Category  string `json:"category" binding:"omitempty,slug,max=50"`
		Tags      string `json:"tags" binding:"max=500"`
		Author    string `json:"author" binding:"max=100"`
		Featured  bool   `json:"featured"`
	}
	if !bindJSON(c, &input) {
		return
	}

	if content.Slugify(input.Title) == "" {
		apperrors.Respond(c, apperrors.Validation("Title must contain letters or digits").WithField("title", "produces an empty slug"))
		return
	}

	created, err := h.store.Create(c.Request.Context(), content.NewPost{
		Title:     input.Title,
		TitleEN:   input.TitleEN,
		Excerpt:   input.Excerpt,
		ExcerptEN: input.ExcerptEN,
		Content:   input.Content,
		ContentEN: input.ContentEN,
		Category:  input.Category,
		Tags:      input.Tags,
		Author:    input.Author,
		Featured:  input.Featured,
		DefaultBy: actor.Name,
	})
	if errors.Is(err, content.ErrExists) {
		apperrors.Respond(c, apperrors.Conflict("A post with this slug already exists"))
		return
	}
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("Failed to create post", err))
		return
	}

	err = recordAdminAction(h.db.WithContext(c.Request.Context()), c, actor, "post_created", models.TargetPost, created.Slug, map[string]any{
		"title":   input.Title,
		"english": created.FileEN != nil,
	})
	// The post exists once its files are written; audit failures are only logged.
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "Failed to record post creation", "slug", created.Slug, "error", err)
	}

	respond(c, http.StatusCreated, gin.H{
		"slug":     created.Slug,
		"title":    input.Title,
		"title_en": input.TitleEN,
		"files":    gin.H{"tr": created.FileTR, "en": created.FileEN},
	}, "Post created")
}
