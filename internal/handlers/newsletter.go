package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/erendikmenn/erenailab-blog/internal/apperrors"
	"github.com/erendikmenn/erenailab-blog/internal/config"
	"github.com/erendikmenn/erenailab-blog/internal/database"
	"github.com/erendikmenn/erenailab-blog/internal/metrics"
	"github.com/erendikmenn/erenailab-blog/internal/models"
	"github.com/erendikmenn/erenailab-blog/internal/validation"
)

type NewsletterHandler struct {
	db      *gorm.DB
	cfg     config.NewsletterConfig
	metrics *metrics.BlogMetrics
}

func NewNewsletterHandler(db *gorm.DB, cfg config.NewsletterConfig, m *metrics.BlogMetrics) *NewsletterHandler {
	return &NewsletterHandler{db: db, cfg: cfg, metrics: m}
}

type subscription struct {
	Email     string  `json:"email"`
	Confirmed bool    `json:"confirmed"`
	Token     *string `json:"token,omitempty"`
}

// newToken returns a confirmation token when double opt-in is on.
func (h *NewsletterHandler) newToken() *string {
	if !h.cfg.DoubleOptIn {
		return nil
	}
	t := uuid.NewString()
	return &t
}

func (h *NewsletterHandler) count(result string) {
	h.metrics.NewsletterSignups.WithLabelValues(result).Inc()
}

// Subscribe adds an email to the newsletter.
func (h *NewsletterHandler) Subscribe(c *gin.Context) {
	ctx := c.Request.Context()
	if !database.SettingBool(ctx, h.db, models.SettingNewsletterEnabled, true) {
		apperrors.Respond(c, apperrors.Unavailable("Newsletter şu anda devre dışı", nil))
		return
	}

	var input struct {
		Email  string `json:"email" binding:"max=255"`
		Source string `json:"source" binding:"max=50"`
	}
	if !bindJSON(c, &input) {
		return
	}
	email := normalizeEmail(input.Email)
	if email == "" {
		apperrors.Respond(c, apperrors.Validation("E-posta adresi gerekli"))
		return
	}

	check := validation.ValidateEmail(email)
	if !check.Valid {
		h.count("invalid")
		err := apperrors.Validation("Geçersiz e-posta adresi")
		for _, msg := range check.Errors {
			err.WithField("email", msg)
		}
		if check.Suggestion != "" {
			err.WithField("suggestion", check.Suggestion)
		}
		apperrors.Respond(c, err)
		return
	}

	source := input.Source
	if source == "" {
		source = "website"
	}

	db := h.db.WithContext(ctx)

	var existing models.Newsletter
	err := db.Where("email = ?", email).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
	case err != nil:
		apperrors.Respond(c, apperrors.Internal("Abonelik işlemi başarısız", err))
		return
	case existing.Unsubscribed:
		token := h.newToken()
		updates := map[string]any{
			"unsubscribed": false,
			"confirmed":    token == nil,
			"token":        token,
			"source":       source,
		}
		if err := db.Model(&existing).Updates(updates).Error; err != nil {
			apperrors.Respond(c, apperrors.Internal("Abonelik işlemi başarısız", err))
			return
		}
		h.count("resubscribed")
		h.logToken(c, email, token)
		respond(c, http.StatusOK, subscription{Email: email, Confirmed: token == nil, Token: token}, "Newsletter aboneliği yeniden aktifleştirildi")
		return
	case existing.Confirmed:
		h.count("duplicate")
		apperrors.Respond(c, apperrors.Validation("Bu e-posta adresi zaten kayıtlı"))
		return
	default:
		h.count("pending")
		h.logToken(c, email, existing.Token)
		respond(c, http.StatusOK, subscription{Email: email, Confirmed: false, Token: existing.Token}, "Onay e-postası tekrar gönderildi")
		return
	}

	token := h.newToken()
	sub := models.Newsletter{
		Email:     email,
		Confirmed: token == nil,
		Token:     token,
		Source:    source,
	}
	if err := db.Create(&sub).Error; err != nil {
		if database.IsUniqueViolation(err) {
			apperrors.Respond(c, apperrors.Validation("Bu e-posta adresi zaten kayıtlı"))
			return
		}
		apperrors.Respond(c, apperrors.Internal("Abonelik işlemi başarısız", err))
		return
	}

	h.count("created")
	h.logToken(c, email, token)

	message := "Newsletter aboneliği başarılı!"
	if token != nil {
		message = "Lütfen e-posta adresinizi onaylayın"
	}
	respond(c, http.StatusCreated, subscription{Email: email, Confirmed: sub.Confirmed, Token: token}, message)
}

// logToken records the confirmation token; mail delivery is out of scope.
func (h *NewsletterHandler) logToken(c *gin.Context, email string, token *string) {
	if token == nil {
		return
	}
	slog.InfoContext(c.Request.Context(), "Newsletter confirmation pending", "email", email, "token", *token)
}

// Confirm completes a double opt-in subscription.
func (h *NewsletterHandler) Confirm(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		apperrors.Respond(c, apperrors.Validation("Onay kodu gerekli"))
		return
	}

	db := h.db.WithContext(c.Request.Context())

	var sub models.Newsletter
	if err := db.Where("token = ?", token).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			apperrors.Respond(c, apperrors.NotFound("Geçersiz onay kodu"))
			return
		}
		apperrors.Respond(c, apperrors.Internal("Onay işlemi başarısız", err))
		return
	}

	if err := db.Model(&sub).Updates(map[string]any{"confirmed": true, "token": nil}).Error; err != nil {
		apperrors.Respond(c, apperrors.Internal("Onay işlemi başarısız", err))
		return
	}

	respond(c, http.StatusOK, subscription{Email: sub.Email, Confirmed: true}, "E-posta adresiniz onaylandı")
}

// Unsubscribe marks an email as unsubscribed. The row is kept so the
// address can subscribe again later.
func (h *NewsletterHandler) Unsubscribe(c *gin.Context) {
	email := normalizeEmail(c.Query("email"))
	if email == "" {
		apperrors.Respond(c, apperrors.Validation("E-posta adresi gerekli"))
		return
	}

	res := h.db.WithContext(c.Request.Context()).Model(&models.Newsletter{}).
		Where("email = ? AND unsubscribed = ?", email, false).
		Updates(map[string]any{"unsubscribed": true, "token": nil})
	if res.Error != nil {
		apperrors.Respond(c, apperrors.Internal("Abonelikten çıkma başarısız", res.Error))
		return
	}
	if res.RowsAffected == 0 {
		apperrors.Respond(c, apperrors.NotFound("E-posta adresi bulunamadı"))
		return
	}

	respond(c, http.StatusOK, nil, "Newsletter aboneliğinden çıkıldı")
}

// Count returns the number of confirmed subscribers.
func (h *NewsletterHandler) Count(c *gin.Context) {
	var n int64
	err := h.db.WithContext(c.Request.Context()).Model(&models.Newsletter{}).
		Where("confirmed = ? AND unsubscribed = ?", true, false).
		Count(&n).Error
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("Abone sayısı alınamadı", err))
		return
	}
	respond(c, http.StatusOK, gin.H{"count": n}, "")
}
