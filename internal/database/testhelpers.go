package database

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/erendikmenn/erenailab-blog/internal/auth"
	"github.com/erendikmenn/erenailab-blog/internal/config"
	"github.com/erendikmenn/erenailab-blog/internal/models"
)

// NewTestDB opens a migrated and seeded in-memory SQLite database that is
// closed when the test ends.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	svc, err := New(config.DatabaseConfig{Type: "sqlite", DSN: ":memory:", LogLevel: "silent"}, config.AdminConfig{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	return svc.GetDB()
}

// CreateTestUser creates an active user with the given role and the
// password "password123".
func CreateTestUser(t testing.TB, db *gorm.DB, name, email, role string) *models.User {
	t.Helper()

	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)

	user := &models.User{
		Name:         name,
		Email:        email,
		Password:     hash,
		Role:         role,
		IsActive:     true,
		AuthProvider: "email",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateTestComment inserts a comment with the given status.
func CreateTestComment(t testing.TB, db *gorm.DB, userID int, slug, content, status string, parentID *int) *models.Comment {
	t.Helper()

	comment := &models.Comment{
		Content:  content,
		PostSlug: slug,
		UserID:   userID,
		ParentID: parentID,
		Status:   status,
	}
	require.NoError(t, db.Create(comment).Error)
	return comment
}
