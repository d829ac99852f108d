package handlers

import (
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erendikmenn/erenailab-blog/internal/content"
	"github.com/erendikmenn/erenailab-blog/internal/models"
	"github.com/erendikmenn/erenailab-blog/internal/translate"
)

func TestListPosts(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name  string
		query string
		slugs []string
	}{
		{"all", "", []string{"merhaba-dunya", "ikinci-yazi"}},
		{"category", "?category=career-insights", []string{"ikinci-yazi"}},
		{"tag", "?tag=GO", []string{"merhaba-dunya"}},
		{"featured", "?featured=true", []string{"merhaba-dunya"}},
		{"search", "?q=kariyer", []string{"ikinci-yazi"}},
		{"limit", "?limit=1", []string{"merhaba-dunya"}},
		{"no match", "?category=theoretical-ai", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(http.MethodGet, "/api/posts"+tt.query, nil, "")
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			posts := decode[[]content.Post](t, w).Data
			slugs := make([]string, len(posts))
			for i, p := range posts {
				slugs[i] = p.Slug
				assert.Empty(t, p.Content, "listings carry no body")
			}
			assert.Equal(t, tt.slugs, slugs)
		})
	}

	w := env.do(http.MethodGet, "/api/posts?category=Not_A_Slug", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type postDetail struct {
	Post            content.Post      `json:"post"`
	TableOfContents []content.Heading `json:"tableOfContents"`
	HasEnglish      bool              `json:"hasEnglish"`
}

func TestGetPost(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/posts/merhaba-dunya", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[postDetail](t, w)
	assert.Equal(t, "Merhaba Dünya", resp.Data.Post.Title)
	assert.Contains(t, resp.Data.Post.Content, "Bu bir deneme yazısıdır.")
	assert.True(t, resp.Data.HasEnglish)
	require.Len(t, resp.Data.TableOfContents, 2)
	assert.Equal(t, "Giriş", resp.Data.TableOfContents[0].Title)

	var views []models.PageView
	require.NoError(t, env.db.Find(&views).Error)
	require.Len(t, views, 1)
	assert.Equal(t, "merhaba-dunya", views[0].Slug)
	assert.Equal(t, "handler-test", views[0].UserAgent)

	w = env.do(http.MethodGet, "/api/posts/ikinci-yazi", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"hasEnglish":false`)

	w = env.do(http.MethodGet, "/api/posts/yok-boyle-yazi", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodGet, "/api/posts/Bad_Slug", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// English variants are not separate posts.
	w = env.do(http.MethodGet, "/api/posts/merhaba-dunya-en", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetTranslation(t *testing.T) {
	env := newTestEnv(t)

	get := func(path string) envelope[translatedPost] {
		t.Helper()
		w := env.do(http.MethodGet, path, nil, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		return decode[translatedPost](t, w)
	}

	original := get("/api/posts/merhaba-dunya/translations/tr")
	assert.Equal(t, sourceOriginal, original.Data.Source)
	assert.Equal(t, "Merhaba Dünya", original.Data.Title)

	manual := get("/api/posts/merhaba-dunya/translations/en")
	assert.Equal(t, sourceManual, manual.Data.Source)
	assert.Equal(t, "Hello World", manual.Data.Title)
	assert.Zero(t, env.translator.calls)

	machine := get("/api/posts/ikinci-yazi/translations/en")
	assert.Equal(t, sourceMachine, machine.Data.Source)
	assert.Equal(t, "[en] İkinci Yazı", machine.Data.Title)
	assert.Equal(t, "[en] Kariyer notları", machine.Data.Description)
	assert.Contains(t, machine.Data.Content, "[en] ")
	assert.Equal(t, 2, env.translator.calls)

	var cached models.Translation
	require.NoError(t, env.db.Where("content_slug = ? AND language = ?", "ikinci-yazi", "en").First(&cached).Error)
	assert.Equal(t, machine.Data.Content, cached.Content)

	hit := get("/api/posts/ikinci-yazi/translations/en")
	assert.Equal(t, sourceCache, hit.Data.Source)
	assert.Equal(t, machine.Data.Title, hit.Data.Title)
	assert.Equal(t, 2, env.translator.calls)

	// Entries older than the TTL are translated again.
	env.clock.Advance(25 * time.Hour)
	refreshed := get("/api/posts/ikinci-yazi/translations/en")
	assert.Equal(t, sourceMachine, refreshed.Data.Source)
	assert.Equal(t, 4, env.translator.calls)

	var count int64
	env.db.Model(&models.Translation{}).Count(&count)
	assert.Equal(t, int64(1), count)

	assert.Equal(t, 2.0, testutil.ToFloat64(env.metrics.Translations.WithLabelValues(sourceMachine)))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.Translations.WithLabelValues(sourceCache)))
}

func TestGetTranslationFailures(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		source string
	}{
		{"not configured", translate.ErrNotConfigured, http.StatusServiceUnavailable, ""},
		{"fallback", translate.ErrFallback, http.StatusOK, sourceFallback},
		{"upstream error", errors.New("boom"), http.StatusBadGateway, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.translator.err = tt.err

			w := env.do(http.MethodGet, "/api/posts/ikinci-yazi/translations/de", nil, "")
			require.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.source != "" {
				resp := decode[translatedPost](t, w)
				assert.Equal(t, tt.source, resp.Data.Source)
				assert.Equal(t, "İkinci Yazı", resp.Data.Title)
			}

			var count int64
			env.db.Model(&models.Translation{}).Count(&count)
			assert.Zero(t, count, "failed translations are not cached")
		})
	}

	env := newTestEnv(t)
	w := env.do(http.MethodGet, "/api/posts/ikinci-yazi/translations/x", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCategoriesAndTags(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/categories", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	categories := decode[[]content.Category](t, w).Data
	require.Len(t, categories, len(content.Categories()))
	counts := map[string]int{}
	for _, c := range categories {
		counts[c.ID] = c.Count
	}
	assert.Equal(t, 1, counts["machine-learning"])
	assert.Equal(t, 1, counts["career-insights"])
	assert.Equal(t, 0, counts["theoretical-ai"])

	w = env.do(http.MethodGet, "/api/tags", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []content.TagCount{
		{Tag: "ai", Count: 1},
		{Tag: "career", Count: 1},
		{Tag: "go", Count: 1},
	}, decode[[]content.TagCount](t, w).Data)
}

func TestFeedAndSitemap(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/feed.xml", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "application/rss+xml"))
	assert.Equal(t, "public, max-age=3600", w.Header().Get("Cache-Control"))

	feed, err := gofeed.NewParser().ParseString(w.Body.String())
	require.NoError(t, err)
	assert.Equal(t, "ErenAILab Blog", feed.Title)
	require.Len(t, feed.Items, 2)
	assert.Equal(t, "Merhaba Dünya", feed.Items[0].Title)
	assert.Equal(t, "https://erenailab.com/blog/merhaba-dunya", feed.Items[0].Link)

	w = env.do(http.MethodGet, "/sitemap.xml", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "application/xml"))
	body := w.Body.String()
	assert.Contains(t, body, "<loc>https://erenailab.com/blog/ikinci-yazi</loc>")
	assert.Contains(t, body, "<loc>https://erenailab.com/categories/machine-learning</loc>")
	assert.NotContains(t, body, "merhaba-dunya-en")
}
