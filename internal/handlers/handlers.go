package handlers

import (
	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"

	"github.com/erendikmenn/erenailab-blog/internal/auth"
	"github.com/erendikmenn/erenailab-blog/internal/config"
	"github.com/erendikmenn/erenailab-blog/internal/content"
	"github.com/erendikmenn/erenailab-blog/internal/database"
	"github.com/erendikmenn/erenailab-blog/internal/metrics"
	"github.com/erendikmenn/erenailab-blog/internal/notify"
	"github.com/erendikmenn/erenailab-blog/internal/translate"
)

// Deps are the shared services handlers are built from.
type Deps struct {
	DB         database.Service
	Config     *config.Config
	Tokens     *auth.TokenManager
	Sessions   *auth.Sessions
	Google     GoogleVerifier
	Store      *content.Store
	Translator translate.Translator
	Notifier   notify.Notifier
	Metrics    *metrics.BlogMetrics
	Clock      clockwork.Clock
}

func (d Deps) gorm() *gorm.DB {
	return d.DB.GetDB()
}

// Handler combines all handler types
type Handler struct {
	Auth       *AuthHandler
	User       *UserHandler
	Comment    *CommentHandler
	Post       *PostHandler
	Newsletter *NewsletterHandler
	Contact    *ContactHandler
	Admin      *AdminHandler
	Health     *HealthHandler
	CSP        *CSPHandler
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(d Deps) *Handler {
	if d.Clock == nil {
		d.Clock = clockwork.NewRealClock()
	}

	return &Handler{
		Auth:       NewAuthHandler(d.gorm(), d.Tokens, d.Sessions, d.Google, d.Clock),
		User:       NewUserHandler(d.gorm()),
		Comment:    NewCommentHandler(d),
		Post:       NewPostHandler(d),
		Newsletter: NewNewsletterHandler(d.gorm(), d.Config.Newsletter, d.Metrics),
		Contact:    NewContactHandler(d.Notifier),
		Admin:      NewAdminHandler(d),
		Health:     NewHealthHandler(d.DB, d.Config, d.Clock),
		CSP:        NewCSPHandler(d.Config.CSP, d.Metrics),
	}
}
