package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"

	"github.com/erendikmenn/erenailab-blog/internal/apperrors"
	"github.com/erendikmenn/erenailab-blog/internal/config"
	"github.com/erendikmenn/erenailab-blog/internal/content"
	"github.com/erendikmenn/erenailab-blog/internal/metrics"
	"github.com/erendikmenn/erenailab-blog/internal/middleware"
	"github.com/erendikmenn/erenailab-blog/internal/models"
	"github.com/erendikmenn/erenailab-blog/internal/translate"
	"github.com/erendikmenn/erenailab-blog/internal/validation"
)

// PostHandler serves the public content API and feeds.
type PostHandler struct {
	db         *gorm.DB
	store      *content.Store
	translator translate.Translator
	cacheTTL   time.Duration
	site       content.Site
	metrics    *metrics.BlogMetrics
	clock      clockwork.Clock
}

func NewPostHandler(d Deps) *PostHandler {
	return &PostHandler{
		db:         d.gorm(),
		store:      d.Store,
		translator: d.Translator,
		cacheTTL:   d.Config.Translator.CacheTTL,
		site:       siteFromConfig(d.Config.Site),
		metrics:    d.Metrics,
		clock:      d.Clock,
	}
}

func siteFromConfig(s config.SiteConfig) content.Site {
	return content.Site{
		URL:         s.URL,
		Name:        s.Name,
		Description: s.Description,
		Email:       s.Email,
		Author:      s.Author,
	}
}

// ListPosts returns post summaries matching the query filters.
func (h *PostHandler) ListPosts(c *gin.Context) {
	var q struct {
		Category string `form:"category" binding:"omitempty,slug,max=50"`
		Tag      string `form:"tag" binding:"max=50"`
		Query    string `form:"q" binding:"max=100"`
		Featured bool   `form:"featured"`
		Limit    int    `form:"limit" binding:"omitempty,min=1,max=100"`
	}
	if !bindQuery(c, &q) {
		return
	}

	posts, err := h.store.Find(c.Request.Context(), content.Filter{
		Category: q.Category,
		Tag:      q.Tag,
		Query:    q.Query,
		Featured: q.Featured,
		Limit:    q.Limit,
	})
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("Failed to load posts", err))
		return
	}

	out := make([]content.Post, len(posts))
	for i, p := range posts {
		out[i] = p.Summary()
	}
	respond(c, http.StatusOK, out, "")
}

// loadPost fetches the post named by the :slug parameter.
func (h *PostHandler) loadPost(c *gin.Context) (*content.Post, bool) {
	slug := c.Param("slug")
	if !validation.IsSlug(slug) {
		apperrors.Respond(c, apperrors.Validation("Invalid post slug format"))
		return nil, false
	}

	post, err := h.store.BySlug(c.Request.Context(), slug)
	if errors.Is(err, content.ErrNotFound) {
		apperrors.Respond(c, apperrors.NotFound("Post not found"))
		return nil, false
	}
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("Failed to load post", err))
		return nil, false
	}
	return post, true
}

// GetPost returns a full post with its table of contents and records a view.
func (h *PostHandler) GetPost(c *gin.Context) {
	post, ok := h.loadPost(c)
	if !ok {
		return
	}

	h.recordView(c, post.Slug)

	_, err := h.store.English(c.Request.Context(), post.Slug)
	respond(c, http.StatusOK, gin.H{
		"post":            post,
		"tableOfContents": content.TableOfContents(post.Content),
		"hasEnglish":      err == nil,
	}, "")
}

func (h *PostHandler) recordView(c *gin.Context, slug string) {
	view := models.PageView{
		Slug:      slug,
		IPAddress: middleware.ClientID(c, false),
		UserAgent: truncate(c.GetHeader("User-Agent"), models.MaxUserAgentLength),
		Referer:   truncate(c.GetHeader("Referer"), 500),
		Country:   truncate(c.GetHeader("CF-IPCountry"), 8),
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&view).Error; err != nil {
		slog.WarnContext(c.Request.Context(), "Failed to record page view", "slug", slug, "error", err)
	}
}

// Translation sources reported to clients and metrics.
const (
	sourceOriginal = "original"
	sourceManual   = "manual"
	sourceCache    = "cache"
	sourceMachine  = "machine"
	sourceFallback = "fallback"
)

type translatedPost struct {
	Slug        string `json:"slug"`
	Language    string `json:"language"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
	Source      string `json:"source"`
}

// GetTranslation returns a post in another language: the hand-written
// English file when there is one, else a cached or fresh machine
// translation.
func (h *PostHandler) GetTranslation(c *gin.Context) {
	lang := c.Param("lang")
	if len(lang) < 2 || len(lang) > 10 || !validation.IsSlug(lang) {
		apperrors.Respond(c, apperrors.Validation("Invalid language code"))
		return
	}

	post, ok := h.loadPost(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	out := translatedPost{Slug: post.Slug, Language: lang}

	serve := func(title, description, body, source string) {
		out.Title, out.Description, out.Content, out.Source = title, description, body, source
		h.metrics.Translations.WithLabelValues(source).Inc()
		respond(c, http.StatusOK, out, "")
	}

	if lang == post.Language {
		serve(post.Title, post.Description, post.Content, sourceOriginal)
		return
	}

	if lang == "en" {
		if en, err := h.store.English(ctx, post.Slug); err == nil {
			serve(en.Title, en.Description, en.Content, sourceManual)
			return
		}
	}

	db := h.db.WithContext(ctx)

	var cached models.Translation
	err := db.Where("content_slug = ? AND language = ?", post.Slug, lang).First(&cached).Error
	switch {
	case err == nil && h.clock.Since(cached.CachedAt) < h.cacheTTL:
		serve(cached.Title, cached.Description, cached.Content, sourceCache)
		return
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		slog.WarnContext(ctx, "Failed to read translation cache", "slug", post.Slug, "error", err)
	}

	from := post.Language
	meta, err := h.translator.Translate(ctx, []string{post.Title, post.Description}, lang, from)
	if err == nil {
		var body string
		body, err = translate.Markdown(ctx, h.translator, post.Content, lang, from)
		if err == nil {
			h.cacheTranslation(c, models.Translation{
				ContentSlug: post.Slug,
				Language:    lang,
				Title:       meta[0],
				Description: meta[1],
				Content:     body,
				CachedAt:    h.clock.Now().UTC(),
			})
			serve(meta[0], meta[1], body, sourceMachine)
			return
		}
	}

	switch {
	case errors.Is(err, translate.ErrNotConfigured):
		apperrors.Respond(c, apperrors.Unavailable("Translation service is not configured", err))
	case errors.Is(err, translate.ErrFallback):
		serve(post.Title, post.Description, post.Content, sourceFallback)
	default:
		apperrors.Respond(c, apperrors.External("Translation failed", err))
	}
}

func (h *PostHandler) cacheTranslation(c *gin.Context, t models.Translation) {
	ctx := c.Request.Context()
	db := h.db.WithContext(ctx)

	var existing models.Translation
	err := db.Where("content_slug = ? AND language = ?", t.ContentSlug, t.Language).First(&existing).Error
	switch {
	case err == nil:
		err = db.Model(&existing).Updates(map[string]any{
			"title":       t.Title,
			"description": t.Description,
			"content":     t.Content,
			"cached_at":   t.CachedAt,
		}).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		err = db.Create(&t).Error
	}
	if err != nil {
		slog.WarnContext(ctx, "Failed to cache translation", "slug", t.ContentSlug, "language", t.Language, "error", err)
	}
}

// Categories returns the fixed categories with post counts.
func (h *PostHandler) Categories(c *gin.Context) {
	categories, err := h.store.CategoryCounts(c.Request.Context())
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("Failed to load categories", err))
		return
	}
	respond(c, http.StatusOK, categories, "")
}

// Tags returns every tag with its post count.
func (h *PostHandler) Tags(c *gin.Context) {
	tags, err := h.store.Tags(c.Request.Context())
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("Failed to load tags", err))
		return
	}
	respond(c, http.StatusOK, tags, "")
}
