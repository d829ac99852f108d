// Package middleware holds the gin middleware shared by every route group.
package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/erendikmenn/erenailab-blog/internal/apperrors"
	"github.com/erendikmenn/erenailab-blog/internal/auth"
	"github.com/erendikmenn/erenailab-blog/internal/models"
)

// Context keys set by the auth middleware.
const (
	UserIDKey = "user_id"
	UserKey   = "user"
)

var (
	errNoToken  = errors.New("no token")
	errInactive = errors.New("account is deactivated")
)

// Authenticator resolves the caller from a bearer token or the session
// cookie. The user row is loaded on every request so role and status
// changes apply immediately.
type Authenticator struct {
	tokens   *auth.TokenManager
	sessions *auth.Sessions
	db       *gorm.DB
}

func NewAuthenticator(tokens *auth.TokenManager, sessions *auth.Sessions, db *gorm.DB) *Authenticator {
	return &Authenticator{tokens: tokens, sessions: sessions, db: db}
}

func (a *Authenticator) token(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if a.sessions != nil {
		return a.sessions.Token(c.Request)
	}
	return ""
}

func (a *Authenticator) resolve(c *gin.Context) (*models.User, error) {
	token := a.token(c)
	if token == "" {
		return nil, errNoToken
	}

	claims, err := a.tokens.Parse(token)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := a.db.WithContext(c.Request.Context()).First(&user, claims.UserID).Error; err != nil {
		return nil, err
	}
	if !user.IsActive {
		return &user, errInactive
	}
	return &user, nil
}

// AuthMiddleware rejects requests without a valid token with 401 and
// requests from deactivated accounts with 403.
func (a *Authenticator) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := a.resolve(c)
		switch {
		case errors.Is(err, errInactive):
			apperrors.Respond(c, apperrors.Forbidden("Account is deactivated"))
			return
		case errors.Is(err, errNoToken):
			apperrors.Respond(c, apperrors.Unauthorized("Authentication required"))
			return
		case err != nil:
			apperrors.Respond(c, apperrors.Unauthorized("Invalid or expired token"))
			return
		}

		setUser(c, user)
		c.Next()
	}
}

// OptionalAuth sets the user when the request carries a valid token for an
// active account and never rejects.
func (a *Authenticator) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if user, err := a.resolve(c); err == nil {
			setUser(c, user)
		}
		c.Next()
	}
}

func setUser(c *gin.Context, user *models.User) {
	c.Set(UserIDKey, user.ID)
	c.Set(UserKey, user)
}

// CurrentUser returns the user set by the auth middleware.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(UserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}

// RequireRole allows the request through only when the authenticated user
// holds one of roles. It must run after AuthMiddleware.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			apperrors.Respond(c, apperrors.Unauthorized("Authentication required"))
			return
		}
		if !user.HasRole(roles...) {
			apperrors.Respond(c, apperrors.Forbidden("Admin access required"))
			return
		}
		c.Next()
	}
}
