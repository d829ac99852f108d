package handlers

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erendikmenn/erenailab-blog/internal/auth"
	"github.com/erendikmenn/erenailab-blog/internal/database"
	"github.com/erendikmenn/erenailab-blog/internal/models"
)

type authResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/auth/register", map[string]any{
		"name":     "Ada Lovelace",
		"email":    "Ada@Example.com",
		"password": "supersecret",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := decode[authResponse](t, w)
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Data.Token)
	assert.Equal(t, "ada@example.com", resp.Data.User.Email)
	assert.Equal(t, models.RoleUser, resp.Data.User.Role)
	assert.NotContains(t, w.Body.String(), "password")
	assert.Contains(t, w.Header().Get("Set-Cookie"), "test_session=")

	claims, err := env.tokens.Parse(resp.Data.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.Data.User.ID, claims.UserID)

	w = env.do(http.MethodPost, "/api/auth/register", map[string]any{
		"name":     "Ada Again",
		"email":    "ada@example.com",
		"password": "supersecret",
	}, "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/auth/register", map[string]any{
		"name":     "A",
		"email":    "not-an-email",
		"password": "short",
	}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)

	resp := decode[any](t, w)
	assert.Contains(t, resp.FieldErrors, "name")
	assert.Contains(t, resp.FieldErrors, "email")
	assert.Contains(t, resp.FieldErrors, "password")

	w = env.do(http.MethodPost, "/api/auth/register", "{not json", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid request body")
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	user := env.user("Ada", "ada@example.com", models.RoleUser)

	w := env.do(http.MethodPost, "/api/auth/login", map[string]any{"email": "ada@example.com", "password": "password123"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[authResponse](t, w)
	assert.Equal(t, user.ID, resp.Data.User.ID)
	require.NotNil(t, resp.Data.User.LastLoginAt)

	var stored models.User
	require.NoError(t, env.db.First(&stored, user.ID).Error)
	assert.NotNil(t, stored.LastLoginAt)

	w = env.do(http.MethodPost, "/api/auth/login", map[string]any{"email": "ada@example.com", "password": "wrong-password"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodPost, "/api/auth/login", map[string]any{"email": "nobody@example.com", "password": "password123"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	require.NoError(t, env.db.Model(user).Update("is_active", false).Error)
	w = env.do(http.MethodPost, "/api/auth/login", map[string]any{"email": "ada@example.com", "password": "password123"}, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGoogleLogin(t *testing.T) {
	env := newTestEnv(t)

	env.google.user = &auth.GoogleUser{Sub: "g-123", Email: "grace@example.com", Name: "Grace", Picture: "https://example.com/g.png"}
	w := env.do(http.MethodPost, "/api/auth/google", map[string]any{"token": "id-token"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[authResponse](t, w)
	assert.Equal(t, "grace@example.com", resp.Data.User.Email)
	assert.Equal(t, "google", resp.Data.User.AuthProvider)

	// A second sign-in finds the same account.
	w = env.do(http.MethodPost, "/api/auth/google", map[string]any{"token": "id-token"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	var count int64
	env.db.Model(&models.User{}).Count(&count)
	assert.Equal(t, int64(1), count)

	// An existing email account is linked.
	existing := env.user("Ada", "ada@example.com", models.RoleUser)
	env.google.user = &auth.GoogleUser{Sub: "g-456", Email: "ada@example.com", Name: "Ada G"}
	w = env.do(http.MethodPost, "/api/auth/google", map[string]any{"token": "id-token"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	var linked models.User
	require.NoError(t, env.db.First(&linked, existing.ID).Error)
	assert.Equal(t, "g-456", linked.GoogleID)

	env.google.err = errors.New("bad token")
	w = env.do(http.MethodPost, "/api/auth/google", map[string]any{"token": "id-token"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMeAndUpdateMe(t *testing.T) {
	env := newTestEnv(t)
	user := env.user("Ada", "ada@example.com", models.RoleUser)
	token := env.token(user)

	w := env.do(http.MethodGet, "/api/auth/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodGet, "/api/auth/me", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ada@example.com", decode[models.User](t, w).Data.Email)

	w = env.do(http.MethodPut, "/api/auth/me", map[string]any{
		"bio":     "Matematikçi",
		"website": "https://ada.example.com",
		"github":  "ada",
	}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[models.User](t, w).Data
	assert.Equal(t, "Matematikçi", updated.Bio)
	assert.Equal(t, "Ada", updated.Name)

	w = env.do(http.MethodPut, "/api/auth/me", map[string]any{"website": "not a url"}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPut, "/api/auth/me", map[string]any{}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogoutClearsCookie(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/auth/logout", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Set-Cookie"), "Max-Age=0")
}

type profileResponse struct {
	ID             int              `json:"id"`
	Name           string           `json:"name"`
	CommentCount   int64            `json:"commentCount"`
	RecentComments []profileComment `json:"recentComments"`
}

func TestPublicProfile(t *testing.T) {
	env := newTestEnv(t)
	user := env.user("Ada", "ada@example.com", models.RoleUser)
	for i := 0; i < 12; i++ {
		database.CreateTestComment(t, env.db, user.ID, testSlug, "yorum", models.StatusApproved, nil)
	}
	database.CreateTestComment(t, env.db, user.ID, testSlug, "spam", models.StatusSpam, nil)

	w := env.do(http.MethodGet, "/api/users/"+itoa(user.ID), nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[profileResponse](t, w)
	assert.Equal(t, int64(12), resp.Data.CommentCount)
	assert.Len(t, resp.Data.RecentComments, 10)
	assert.NotContains(t, w.Body.String(), "ada@example.com")

	w = env.do(http.MethodGet, "/api/users/9999", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
