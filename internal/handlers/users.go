package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/erendikmenn/erenailab-blog/internal/apperrors"
	"github.com/erendikmenn/erenailab-blog/internal/models"
	"github.com/erendikmenn/erenailab-blog/internal/validation"
)

type UserHandler struct {
	db *gorm.DB
}

func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{db: db}
}

type publicProfile struct {
	ID             int              `json:"id"`
	Name           string           `json:"name"`
	Image          string           `json:"image,omitempty"`
	Role           string           `json:"role"`
	Bio            string           `json:"bio,omitempty"`
	Website        string           `json:"website,omitempty"`
	Twitter        string           `json:"twitter,omitempty"`
	Github         string           `json:"github,omitempty"`
	Linkedin       string           `json:"linkedin,omitempty"`
	CommentCount   int64            `json:"commentCount"`
	RecentComments []profileComment `json:"recentComments"`
	CreatedAt      time.Time        `json:"createdAt"`
}

type profileComment struct {
	ID        int       `json:"id"`
	Content   string    `json:"content"`
	PostSlug  string    `json:"postSlug"`
	CreatedAt time.Time `json:"createdAt"`
}

// GetUser returns the public profile of an active user.
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	db := h.db.WithContext(c.Request.Context())

	var user models.User
	if err := db.Where("id = ? AND is_active = ?", id, true).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			apperrors.Respond(c, apperrors.NotFound("User not found"))
			return
		}
		apperrors.Respond(c, apperrors.Internal("Failed to fetch user", err))
		return
	}

	approved := db.Model(&models.Comment{}).Where("user_id = ? AND status = ?", id, models.StatusApproved)

	var count int64
	if err := approved.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		apperrors.Respond(c, apperrors.Internal("Failed to fetch user", err))
		return
	}

	var comments []models.Comment
	if err := approved.Session(&gorm.Session{}).Order("created_at desc, id desc").Limit(10).Find(&comments).Error; err != nil {
		apperrors.Respond(c, apperrors.Internal("Failed to fetch user", err))
		return
	}

	recent := make([]profileComment, len(comments))
	for i, cm := range comments {
		recent[i] = profileComment{
			ID:        cm.ID,
			Content:   validation.SanitizeComment(cm.Content),
			PostSlug:  cm.PostSlug,
			CreatedAt: cm.CreatedAt,
		}
	}

	respond(c, http.StatusOK, publicProfile{
		ID:             user.ID,
		Name:           user.Name,
		Image:          user.Image,
		Role:           user.Role,
		Bio:            user.Bio,
		Website:        user.Website,
		Twitter:        user.Twitter,
		Github:         user.Github,
		Linkedin:       user.Linkedin,
		CommentCount:   count,
		RecentComments: recent,
		CreatedAt:      user.CreatedAt,
	}, "")
}
