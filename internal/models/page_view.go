package models

import "time"

type PageView struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	Slug      string    `gorm:"size:200;not null;index" json:"slug"`
	IPAddress string    `gorm:"size:64" json:"-"`
	UserAgent string    `gorm:"size:255" json:"-"`
	Referer   string    `gorm:"size:500" json:"referer,omitempty"`
	Country   string    `gorm:"size:8" json:"country,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

// Translation caches a machine translation of a post.
type Translation struct {
	ID          int       `gorm:"primaryKey" json:"id"`
	ContentSlug string    `gorm:"size:200;not null;uniqueIndex:idx_translation_slug_lang" json:"contentSlug"`
	Language    string    `gorm:"size:10;not null;uniqueIndex:idx_translation_slug_lang" json:"language"`
	Title       string    `json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Content     string    `gorm:"type:text" json:"content"`
	CachedAt    time.Time `json:"cachedAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// All returns every model managed by migrations.
func All() []any {
	return []any{
		&User{},
		&Comment{},
		&CommentLike{},
		&AdminLog{},
		&Newsletter{},
		&SiteSetting{},
		&PageView{},
		&Translation{},
	}
}
