package models

import "time"

// User roles.
const (
	RoleUser      = "USER"
	RoleAdmin     = "ADMIN"
	RoleModerator = "MODERATOR"
	RoleEditor    = "EDITOR"
)

// Roles lists every assignable role.
var Roles = []string{RoleUser, RoleAdmin, RoleModerator, RoleEditor}

// ValidRole reports whether role is one of Roles.
func ValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

type User struct {
	ID       int    `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"size:100" json:"name"`
	Email    string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password string `json:"-"` // empty for OAuth accounts
	Image    string `json:"image,omitempty"`
	Role     string `gorm:"size:20;default:USER;index" json:"role"`
	IsActive bool   `gorm:"default:true" json:"isActive"`

	Bio      string `gorm:"size:500" json:"bio,omitempty"`
	Website  string `json:"website,omitempty"`
	Twitter  string `gorm:"size:100" json:"twitter,omitempty"`
	Github   string `gorm:"size:100" json:"github,omitempty"`
	Linkedin string `gorm:"size:100" json:"linkedin,omitempty"`

	// OAuth fields
	GoogleID     string `gorm:"index" json:"-"`
	AuthProvider string `gorm:"size:20" json:"authProvider"` // "email", "google"

	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// HasRole reports whether the user holds any of roles.
func (u *User) HasRole(roles ...string) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

// Author is the public projection of a user attached to comments.
type Author struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
	Role  string `json:"role"`
}

func (u *User) Author() Author {
	return Author{ID: u.ID, Name: u.Name, Image: u.Image, Role: u.Role}
}
