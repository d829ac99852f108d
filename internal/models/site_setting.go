package models

import "time"

// Setting value types.
const (
	SettingString  = "string"
	SettingNumber  = "number"
	SettingBoolean = "boolean"
	SettingJSON    = "json"
)

// Well-known setting keys.
const (
	SettingSiteName          = "site_name"
	SettingCommentModeration = "comment_moderation"
	SettingCommentsPerHour   = "comments_per_hour"
	SettingNewsletterEnabled = "newsletter_enabled"
	SettingMaintenanceMode   = "maintenance_mode"
)

type SiteSetting struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"uniqueIndex;size:100;not null" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	Type      string    `gorm:"size:20;default:string" json:"type"`
	Category  string    `gorm:"size:50;default:general;index" json:"category"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
