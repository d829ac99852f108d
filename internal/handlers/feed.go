package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/erendikmenn/erenailab-blog/internal/apperrors"
	"github.com/erendikmenn/erenailab-blog/internal/content"
)

// Feed serves the RSS 2.0 feed.
func (h *PostHandler) Feed(c *gin.Context) {
	posts, err := h.store.All(c.Request.Context())
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("Failed to load posts", err))
		return
	}

	body, err := content.RSS(h.site, posts, h.clock.Now())
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("Failed to render feed", err))
		return
	}

	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", body)
}

// Sitemap serves sitemap.xml.
func (h *PostHandler) Sitemap(c *gin.Context) {
	posts, err := h.store.All(c.Request.Context())
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("Failed to load posts", err))
		return
	}

	body, err := content.Sitemap(h.site, posts, h.clock.Now())
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("Failed to render sitemap", err))
		return
	}

	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, "application/xml; charset=utf-8", body)
}
