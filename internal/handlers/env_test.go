package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/erendikmenn/erenailab-blog/internal/auth"
	"github.com/erendikmenn/erenailab-blog/internal/config"
	"github.com/erendikmenn/erenailab-blog/internal/content"
	"github.com/erendikmenn/erenailab-blog/internal/database"
	"github.com/erendikmenn/erenailab-blog/internal/metrics"
	"github.com/erendikmenn/erenailab-blog/internal/middleware"
	"github.com/erendikmenn/erenailab-blog/internal/models"
	"github.com/erendikmenn/erenailab-blog/internal/translate"
	"github.com/erendikmenn/erenailab-blog/internal/validation"
)

func init() {
	gin.SetMode(gin.TestMode)
	validation.Register()
}

const testSecret = "test-secret-key-that-is-long-enough-123"

const firstPost = `---
title: "Merhaba Dünya"
description: "İlk yazı"
date: 2024-05-01
category: machine-learning
tags: [go, ai]
featured: true
---

# Giriş

Bu bir deneme yazısıdır.

## Sonuç

Teşekkürler.
`

const firstPostEN = `---
title: "Hello World"
description: "First post"
date: 2024-05-01
category: machine-learning
tags: [go, ai]
language: en
---

# Introduction

This is a test post.
`

const secondPost = `---
title: "İkinci Yazı"
description: "Kariyer notları"
date: 2024-04-01
category: career-insights
tags: [career]
---

Kariyer üzerine kısa notlar.
`

type recordingNotifier struct {
	mu       sync.Mutex
	subjects []string
}

func (n *recordingNotifier) Notify(_ context.Context, subject, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subjects = append(n.subjects, subject)
	return nil
}

func (n *recordingNotifier) sent() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.subjects...)
}

type fakeTranslator struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeTranslator) Translate(_ context.Context, texts []string, to, _ string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		if errors.Is(f.err, translate.ErrFallback) {
			return texts, f.err
		}
		return nil, f.err
	}
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = "[" + to + "] " + t
	}
	return out, nil
}

type fakeGoogle struct {
	user *auth.GoogleUser
	err  error
}

func (f fakeGoogle) Verify(context.Context, string) (*auth.GoogleUser, error) {
	return f.user, f.err
}

type testEnv struct {
	t          *testing.T
	db         *gorm.DB
	cfg        *config.Config
	h          *Handler
	router     *gin.Engine
	tokens     *auth.TokenManager
	notifier   *recordingNotifier
	translator *fakeTranslator
	google     *fakeGoogle
	metrics    *metrics.BlogMetrics
	clock      *clockwork.FakeClock
	contentDir string
}

func testConfig(dir string) *config.Config {
	return &config.Config{
		Server:     config.ServerConfig{Environment: "test"},
		JWT:        config.JWTConfig{Secret: testSecret, Expiration: time.Hour},
		RateLimit:  config.RateLimitConfig{CommentsPerHour: 10},
		Content:    config.ContentConfig{Dir: dir, CacheTTL: time.Minute},
		Translator: config.TranslatorConfig{CacheTTL: 24 * time.Hour},
		CSP:        config.CSPConfig{ReportRate: 1, ReportBurst: 2},
		Site: config.SiteConfig{
			URL:         "https://erenailab.com",
			Name:        "ErenAILab Blog",
			Description: "Academic AI Research Blog",
			Author:      "Eren Dikmen",
			Email:       "contact@erenailab.com",
		},
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	for name, body := range map[string]string{
		"merhaba-dunya.mdx":    firstPost,
		"merhaba-dunya-en.mdx": firstPostEN,
		"ikinci-yazi.mdx":      secondPost,
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}

	db := database.NewTestDB(t)
	cfg := testConfig(dir)
	clock := clockwork.NewFakeClockAt(time.Now())
	tokens := auth.NewTokenManager(testSecret, time.Hour)
	sessions := auth.NewSessions(testSecret, "test_session", time.Hour, false)

	env := &testEnv{
		t:          t,
		db:         db,
		cfg:        cfg,
		tokens:     tokens,
		notifier:   &recordingNotifier{},
		translator: &fakeTranslator{},
		google:     &fakeGoogle{},
		metrics:    metrics.NewBlogMetrics(prometheus.NewRegistry()),
		clock:      clock,
		contentDir: dir,
	}

	env.h = NewHandler(Deps{
		DB:         database.Wrap(db, "sqlite"),
		Config:     cfg,
		Tokens:     tokens,
		Sessions:   sessions,
		Google:     env.google,
		Store:      content.NewStore(dir, time.Minute, clock),
		Translator: env.translator,
		Notifier:   env.notifier,
		Metrics:    env.metrics,
		Clock:      clock,
	})
	env.router = env.routes(middleware.NewAuthenticator(tokens, sessions, db))
	return env
}

func (e *testEnv) routes(authn *middleware.Authenticator) *gin.Engine {
	pass := func(c *gin.Context) { c.Next() }

	r := gin.New()
	e.h.RegisterRoutes(r, Guards{
		Auth:         authn.AuthMiddleware(),
		OptionalAuth: authn.OptionalAuth(),
		APILimit:     pass,
		AuthLimit:    pass,
		Maintenance:  middleware.Maintenance(e.db),
	})
	return r
}

func (e *testEnv) user(name, email, role string) *models.User {
	return database.CreateTestUser(e.t, e.db, name, email, role)
}

func (e *testEnv) token(u *models.User) string {
	token, err := e.tokens.Issue(u)
	require.NoError(e.t, err)
	return token
}

func (e *testEnv) setSetting(key, value string) {
	require.NoError(e.t, e.db.Model(&models.SiteSetting{}).
		Where(models.SiteSetting{Key: key}).
		Update("value", value).Error)
}

// do sends a request with an optional JSON body and bearer token.
func (e *testEnv) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	e.t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(e.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("User-Agent", "handler-test")

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

type envelope[T any] struct {
	Success     bool                `json:"success"`
	Data        T                   `json:"data"`
	Message     string              `json:"message"`
	Error       string              `json:"error"`
	FieldErrors map[string][]string `json:"fieldErrors"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var out envelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", strings.TrimSpace(w.Body.String()))
	return out
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
