package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"

	"github.com/erendikmenn/erenailab-blog/internal/apperrors"
	"github.com/erendikmenn/erenailab-blog/internal/auth"
	"github.com/erendikmenn/erenailab-blog/internal/database"
	"github.com/erendikmenn/erenailab-blog/internal/models"
)

// GoogleVerifier checks a Google ID token.
type GoogleVerifier interface {
	Verify(ctx context.Context, idToken string) (*auth.GoogleUser, error)
}

type AuthHandler struct {
	db       *gorm.DB
	tokens   *auth.TokenManager
	sessions *auth.Sessions
	google   GoogleVerifier
	clock    clockwork.Clock
}

func NewAuthHandler(db *gorm.DB, tokens *auth.TokenManager, sessions *auth.Sessions, google GoogleVerifier, clock clockwork.Clock) *AuthHandler {
	return &AuthHandler{db: db, tokens: tokens, sessions: sessions, google: google, clock: clock}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// signIn issues a token for user, stores it in the session cookie and
// writes the auth response.
func (h *AuthHandler) signIn(c *gin.Context, status int, user *models.User, message string) {
	token, err := h.tokens.Issue(user)
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("Failed to generate token", err))
		return
	}
	if err := h.sessions.Save(c.Writer, c.Request, token); err != nil {
		slog.WarnContext(c.Request.Context(), "Failed to save session", "user_id", user.ID, "error", err)
	}

	respond(c, status, gin.H{"token": token, "user": user}, message)
}

func (h *AuthHandler) touchLastLogin(ctx context.Context, user *models.User) {
	now := h.clock.Now().UTC()
	if err := h.db.WithContext(ctx).Model(user).Update("last_login_at", now).Error; err != nil {
		slog.WarnContext(ctx, "Failed to update last login", "user_id", user.ID, "error", err)
		return
	}
	user.LastLoginAt = &now
}

// Register creates an email/password account.
func (h *AuthHandler) Register(c *gin.Context) {
	var input struct {
		Name     string `json:"name" binding:"required,min=2,max=100"`
		Email    string `json:"email" binding:"required,email,max=255"`
		Password string `json:"password" binding:"required,min=8,max=72"`
	}
	if !bindJSON(c, &input) {
		return
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("Failed to hash password", err))
		return
	}

	user := models.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        normalizeEmail(input.Email),
		Password:     hash,
		Role:         models.RoleUser,
		IsActive:     true,
		AuthProvider: "email",
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&user).Error; err != nil {
		if database.IsUniqueViolation(err) {
			apperrors.Respond(c, apperrors.Conflict("Email already registered"))
			return
		}
		apperrors.Respond(c, apperrors.Internal("Failed to create user", err))
		return
	}

	slog.InfoContext(c.Request.Context(), "User registered", "user_id", user.ID)
	h.signIn(c, http.StatusCreated, &user, "Registration successful")
}

// Login authenticates with email and password.
func (h *AuthHandler) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if !bindJSON(c, &input) {
		return
	}

	var user models.User
	if err := h.db.WithContext(c.Request.Context()).Where("email = ?", normalizeEmail(input.Email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			apperrors.Respond(c, apperrors.Unauthorized("Invalid credentials"))
			return
		}
		apperrors.Respond(c, apperrors.Internal("Failed to load user", err))
		return
	}

	// OAuth accounts have no password.
	if user.Password == "" || !auth.CheckPassword(user.Password, input.Password) {
		apperrors.Respond(c, apperrors.Unauthorized("Invalid credentials"))
		return
	}
	if !user.IsActive {
		apperrors.Respond(c, apperrors.Forbidden("Account is deactivated"))
		return
	}

	h.touchLastLogin(c.Request.Context(), &user)
	h.signIn(c, http.StatusOK, &user, "Login successful")
}

// GoogleLogin signs in with a Google ID token, linking or creating the account.
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	var input struct {
		Token string `json:"token" binding:"required"`
	}
	if !bindJSON(c, &input) {
		return
	}

	ctx := c.Request.Context()
	gu, err := h.google.Verify(ctx, input.Token)
	if err != nil {
		slog.DebugContext(ctx, "Google token rejected", "error", err)
		apperrors.Respond(c, apperrors.Unauthorized("Invalid Google token"))
		return
	}

	db := h.db.WithContext(ctx)
	email := normalizeEmail(gu.Email)

	var user models.User
	err = db.Where("google_id = ?", gu.Sub).Or("email = ?", email).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = models.User{
			Name:         gu.Name,
			Email:        email,
			Image:        gu.Picture,
			Role:         models.RoleUser,
			IsActive:     true,
			GoogleID:     gu.Sub,
			AuthProvider: "google",
		}
		if user.Name == "" {
			user.Name = strings.Split(email, "@")[0]
		}
		if err := db.Create(&user).Error; err != nil {
			apperrors.Respond(c, apperrors.Internal("Failed to create user", err))
			return
		}
		slog.InfoContext(ctx, "User registered with Google", "user_id", user.ID)
	case err != nil:
		apperrors.Respond(c, apperrors.Internal("Failed to load user", err))
		return
	case user.GoogleID == "":
		updates := map[string]any{"google_id": gu.Sub}
		if user.Image == "" && gu.Picture != "" {
			updates["image"] = gu.Picture
		}
		if err := db.Model(&user).Updates(updates).Error; err != nil {
			apperrors.Respond(c, apperrors.Internal("Failed to link Google account", err))
			return
		}
	}

	if !user.IsActive {
		apperrors.Respond(c, apperrors.Forbidden("Account is deactivated"))
		return
	}

	h.touchLastLogin(ctx, &user)
	h.signIn(c, http.StatusOK, &user, "Login successful")
}

// Logout clears the session cookie. Bearer tokens expire on their own.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.sessions.Clear(c.Writer, c.Request); err != nil {
		slog.WarnContext(c.Request.Context(), "Failed to clear session", "error", err)
	}
	respond(c, http.StatusOK, nil, "Logged out")
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c *gin.Context) {
	respond(c, http.StatusOK, currentUser(c), "")
}

// UpdateMe edits the caller's profile. Omitted fields are left unchanged.
func (h *AuthHandler) UpdateMe(c *gin.Context) {
	user := currentUser(c)

	var input struct {
		Name     *string `json:"name" binding:"omitempty,min=2,max=100"`
		Image    *string `json:"image" binding:"omitempty,url,max=500"`
		Bio      *string `json:"bio" binding:"omitempty,max=500"`
		Website  *string `json:"website" binding:"omitempty,url,max=255"`
		Twitter  *string `json:"twitter" binding:"omitempty,max=100"`
		Github   *string `json:"github" binding:"omitempty,max=100"`
		Linkedin *string `json:"linkedin" binding:"omitempty,max=100"`
	}
	if !bindJSON(c, &input) {
		return
	}

	updates := map[string]any{}
	set := func(column string, v *string) {
		if v != nil {
			updates[column] = strings.TrimSpace(*v)
		}
	}
	set("name", input.Name)
	set("image", input.Image)
	set("bio", input.Bio)
	set("website", input.Website)
	set("twitter", input.Twitter)
	set("github", input.Github)
	set("linkedin", input.Linkedin)

	if len(updates) == 0 {
		apperrors.Respond(c, apperrors.Validation("No fields to update"))
		return
	}

	db := h.db.WithContext(c.Request.Context())
	if err := db.Model(user).Updates(updates).Error; err != nil {
		apperrors.Respond(c, apperrors.Internal("Failed to update profile", err))
		return
	}
	if err := db.First(user, user.ID).Error; err != nil {
		apperrors.Respond(c, apperrors.Internal("Failed to load profile", err))
		return
	}

	respond(c, http.StatusOK, user, "Profile updated")
}
