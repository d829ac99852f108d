package models

import (
	"time"

	"gorm.io/datatypes"
)

// Target types recorded on admin logs.
const (
	TargetComment = "comment"
	TargetUser    = "user"
	TargetPost    = "post"
	TargetSetting = "setting"
)

// AdminLog is an audit record of a privileged action.
type AdminLog struct {
	ID         int            `gorm:"primaryKey" json:"id"`
	UserID     int            `gorm:"not null;index" json:"userId"`
	User       User           `gorm:"foreignKey:UserID" json:"user"`
	Action     string         `gorm:"size:50;not null;index" json:"action"`
	TargetID   string         `gorm:"size:100" json:"targetId,omitempty"`
	TargetType string         `gorm:"size:20;index" json:"targetType,omitempty"`
	Details    datatypes.JSON `json:"details,omitempty"`
	IPAddress  string         `gorm:"size:64" json:"ipAddress,omitempty"`
	CreatedAt  time.Time      `gorm:"index" json:"createdAt"`
}
