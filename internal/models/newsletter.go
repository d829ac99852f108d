package models

import "time"

type Newsletter struct {
	ID           int       `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Confirmed    bool      `gorm:"default:false" json:"confirmed"`
	Token        *string   `gorm:"uniqueIndex;size:64" json:"-"`
	Unsubscribed bool      `gorm:"default:false" json:"unsubscribed"`
	Source       string    `gorm:"size:50" json:"source,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
