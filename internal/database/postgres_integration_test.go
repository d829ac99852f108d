//go:build integration

package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/erendikmenn/erenailab-blog/internal/config"
	"github.com/erendikmenn/erenailab-blog/internal/models"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("blog"),
		postgres.WithUsername("blog"),
		postgres.WithPassword("blog"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

func TestPostgresMigrateAndSeed(t *testing.T) {
	dsn := startPostgres(t)

	svc, err := New(config.DatabaseConfig{Type: "postgres", DSN: dsn, LogLevel: "silent"},
		config.AdminConfig{Email: "admin@example.com", Password: "supersecret", Name: "Admin"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	db := svc.GetDB()
	assert.Equal(t, "up", svc.Health(context.Background())["status"])

	var admin models.User
	require.NoError(t, db.Where("email = ?", "admin@example.com").First(&admin).Error)
	assert.Equal(t, models.RoleAdmin, admin.Role)

	err = db.Create(&models.User{Name: "Dup", Email: "admin@example.com", Role: models.RoleUser}).Error
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))

	comment := CreateTestComment(t, db, admin.ID, "hello-world", "hi", models.StatusApproved, nil)
	require.NoError(t, db.Create(&models.CommentLike{UserID: admin.ID, CommentID: comment.ID, Type: models.ReactionLike}).Error)
	err = db.Create(&models.CommentLike{UserID: admin.ID, CommentID: comment.ID, Type: models.ReactionDislike}).Error
	assert.True(t, IsUniqueViolation(err))
}
