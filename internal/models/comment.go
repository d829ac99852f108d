package models

import "time"

// Comment moderation states.
const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
	StatusSpam     = "SPAM"
	StatusHidden   = "HIDDEN"
)

var CommentStatuses = []string{StatusPending, StatusApproved, StatusRejected, StatusSpam, StatusHidden}

func ValidCommentStatus(status string) bool {
	for _, s := range CommentStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// MaxUserAgentLength bounds the stored user agent.
const MaxUserAgentLength = 255

type Comment struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	PostSlug  string    `gorm:"size:200;not null;index" json:"postSlug"`
	UserID    int       `gorm:"not null;index" json:"userId"`
	User      User      `gorm:"foreignKey:UserID" json:"-"`
	ParentID  *int      `gorm:"index" json:"parentId"`
	Parent    *Comment  `gorm:"foreignKey:ParentID" json:"-"`
	Status    string    `gorm:"size:20;default:PENDING;index" json:"status"`
	IPAddress string    `gorm:"size:64" json:"-"`
	UserAgent string    `gorm:"size:255" json:"-"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Reaction types.
const (
	ReactionLike    = "LIKE"
	ReactionDislike = "DISLIKE"
)

type CommentLike struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	UserID    int       `gorm:"not null;uniqueIndex:idx_comment_like_user" json:"userId"`
	CommentID int       `gorm:"not null;uniqueIndex:idx_comment_like_user;index" json:"commentId"`
	Type      string    `gorm:"size:10;not null" json:"type"`
	CreatedAt time.Time `json:"createdAt"`
}
