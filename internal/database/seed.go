package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"gorm.io/gorm"

	"github.com/erendikmenn/erenailab-blog/internal/auth"
	"github.com/erendikmenn/erenailab-blog/internal/config"
	"github.com/erendikmenn/erenailab-blog/internal/models"
)

// DefaultSettings are created on first start and never overwritten.
var DefaultSettings = []models.SiteSetting{
	{Key: models.SettingSiteName, Value: "ErenAILab Blog", Type: models.SettingString, Category: "general"},
	{Key: models.SettingCommentModeration, Value: "true", Type: models.SettingBoolean, Category: "comments"},
	{Key: models.SettingCommentsPerHour, Value: "10", Type: models.SettingNumber, Category: "comments"},
	{Key: models.SettingNewsletterEnabled, Value: "true", Type: models.SettingBoolean, Category: "newsletter"},
	{Key: models.SettingMaintenanceMode, Value: "false", Type: models.SettingBoolean, Category: "general"},
}

// Seed creates missing default settings and, when credentials are
// configured and no admin exists yet, the bootstrap admin account.
func Seed(ctx context.Context, db *gorm.DB, admin config.AdminConfig) error {
	db = db.WithContext(ctx)

	for _, def := range DefaultSettings {
		var row models.SiteSetting
		if err := db.Where(models.SiteSetting{Key: def.Key}).Attrs(def).FirstOrCreate(&row).Error; err != nil {
			return fmt.Errorf("seed setting %s: %w", def.Key, err)
		}
	}

	return seedAdmin(db, admin)
}

func seedAdmin(db *gorm.DB, admin config.AdminConfig) error {
	if admin.Email == "" || admin.Password == "" {
		return nil
	}

	var adminCount int64
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&adminCount).Error; err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	if adminCount > 0 {
		return nil
	}

	var existing models.User
	err := db.Where("email = ?", admin.Email).First(&existing).Error
	switch {
	case err == nil:
		if err := db.Model(&existing).Updates(map[string]any{"role": models.RoleAdmin, "is_active": true}).Error; err != nil {
			return fmt.Errorf("promote admin: %w", err)
		}
		slog.Info("Promoted existing user to admin", "email", admin.Email)
		return nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("lookup admin: %w", err)
	}

	hash, err := auth.HashPassword(admin.Password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	user := models.User{
		Name:         admin.Name,
		Email:        admin.Email,
		Password:     hash,
		Role:         models.RoleAdmin,
		IsActive:     true,
		AuthProvider: "email",
	}
	if err := db.Create(&user).Error; err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	slog.Info("Default admin user created", "email", admin.Email)
	return nil
}

// Setting returns the raw value of key, or ok=false when it is not set.
func Setting(ctx context.Context, db *gorm.DB, key string) (string, bool) {
	var row models.SiteSetting
	if err := db.WithContext(ctx).Where(models.SiteSetting{Key: key}).First(&row).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			slog.WarnContext(ctx, "Failed to read setting", "key", key, "error", err)
		}
		return "", false
	}
	return row.Value, true
}

// SettingBool reads a boolean setting, returning def when it is missing or malformed.
func SettingBool(ctx context.Context, db *gorm.DB, key string, def bool) bool {
	raw, ok := Setting(ctx, db, key)
	if !ok {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

// SettingInt reads a numeric setting, returning def when it is missing or malformed.
func SettingInt(ctx context.Context, db *gorm.DB, key string, def int) int {
	raw, ok := Setting(ctx, db, key)
	if !ok {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
