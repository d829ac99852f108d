package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"

	"github.com/erendikmenn/erenailab-blog/internal/apperrors"
	"github.com/erendikmenn/erenailab-blog/internal/auth"
	"github.com/erendikmenn/erenailab-blog/internal/config"
	"github.com/erendikmenn/erenailab-blog/internal/content"
	"github.com/erendikmenn/erenailab-blog/internal/database"
	"github.com/erendikmenn/erenailab-blog/internal/handlers"
	"github.com/erendikmenn/erenailab-blog/internal/metrics"
	"github.com/erendikmenn/erenailab-blog/internal/middleware"
	"github.com/erendikmenn/erenailab-blog/internal/notify"
	"github.com/erendikmenn/erenailab-blog/internal/ratelimit"
	"github.com/erendikmenn/erenailab-blog/internal/translate"
	"github.com/erendikmenn/erenailab-blog/internal/validation"
)

const limiterCleanupInterval = time.Minute

type Server struct {
	cfg     *config.Config
	db      database.Service
	clock   clockwork.Clock
	redis   *redis.Client
	handler *handlers.Handler
	router  *gin.Engine
	http    *http.Server
	closers []io.Closer
}

// New wires the services, limiters and routes for cfg on top of db.
func New(ctx context.Context, cfg *config.Config, db database.Service) (*Server, error) {
	s := &Server{
		cfg:   cfg,
		db:    db,
		clock: clockwork.NewRealClock(),
	}

	if cfg.RateLimit.Backend == "redis" {
		client, err := ratelimit.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		s.redis = client
		s.closers = append(s.closers, client)
	}

	validation.Register()

	reg := metrics.NewRegistry()
	reg.MustRegister(apperrors.ErrorsTotal)
	httpMetrics := metrics.NewHTTPMetrics(reg)
	blogMetrics := metrics.NewBlogMetrics(reg)

	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Expiration)
	sessions := auth.NewSessions(cfg.Session.Secret, cfg.Session.Name, cfg.Session.MaxAge, cfg.Server.IsProduction())

	s.handler = handlers.NewHandler(handlers.Deps{
		DB:         db,
		Config:     cfg,
		Tokens:     tokens,
		Sessions:   sessions,
		Google:     auth.NewGoogleVerifier(cfg.Google.TokenInfoURL, cfg.Google.ClientID),
		Store:      content.NewStore(cfg.Content.Dir, cfg.Content.CacheTTL, s.clock),
		Translator: translate.New(cfg.Translator, blogMetrics.Translations.WithLabelValues("breaker_fallback")),
		Notifier:   notify.New(cfg.Notify.Twilio),
		Metrics:    blogMetrics,
		Clock:      s.clock,
	})

	authn := middleware.NewAuthenticator(tokens, sessions, db.GetDB())
	limit := func(name string, rule config.Rule) gin.HandlerFunc {
		return middleware.RateLimit(middleware.RateLimitOptions{
			Name:        name,
			Limiter:     s.limiter(name, rule),
			Development: !cfg.Server.IsProduction(),
			Clock:       s.clock,
			Rejections:  blogMetrics.RateLimitRejections,
		})
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger())
	r.Use(httpMetrics.Middleware())
	r.Use(middleware.SecurityHeaders(cfg.Server.IsProduction(), cfg.Site.URL, cfg.CSP.ReportURI))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(skipAPI(limit("global", cfg.RateLimit.Global)))

	r.GET("/metrics", gin.WrapH(metrics.Handler(reg)))

	s.handler.RegisterRoutes(r, handlers.Guards{
		Auth:         authn.AuthMiddleware(),
		OptionalAuth: authn.OptionalAuth(),
		APILimit:     limit("api", cfg.RateLimit.API),
		AuthLimit:    limit("auth", cfg.RateLimit.Auth),
		Maintenance:  middleware.Maintenance(db.GetDB()),
	})
	s.router = r

	s.http = &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		IdleTimeout:  time.Minute,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return s, nil
}

// limiter returns a Redis-backed limiter when Redis is configured, else an
// in-process one that is stopped on Shutdown.
func (s *Server) limiter(name string, rule config.Rule) ratelimit.Limiter {
	r := ratelimit.Rule{Max: rule.Max, Window: rule.Window}
	if s.redis != nil {
		return ratelimit.NewRedisLimiter(s.redis, name, r, s.clock)
	}
	l := ratelimit.NewMemoryLimiter(r, s.clock, limiterCleanupInterval)
	s.closers = append(s.closers, l)
	return l
}

// skipAPI applies mw to every route outside /api/.
func skipAPI(mw gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.Next()
			return
		}
		mw(c)
	}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves HTTP until Shutdown is called.
func (s *Server) Start() error {
	slog.Info("Server starting", "addr", s.http.Addr, "environment", s.cfg.Server.Environment)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, waits for in-flight ones and releases
// the limiters and the Redis client.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.http.Shutdown(ctx)
	for _, c := range s.closers {
		if cerr := c.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}
	return err
}
