package domain

import (
	"time"
)

type User struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	Username     string     `json:"username" gorm:"uniqueIndex;not null"`
	Email        string     `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string     `json:"-" gorm:"not null"`
	IsAdmin      bool       `json:"isAdmin" gorm:"not null;default:false"`
	LastLoginAt  *time.Time `json:"lastLoginAt"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`

	// Relations
	Memberships []UserSite `json:"memberships,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// UserSite binds a user to a site with exactly one role. At most one
// active membership exists per (user, site) pair.
type UserSite struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"userId" gorm:"not null;uniqueIndex:idx_user_site"`
	SiteID    uint      `json:"siteId" gorm:"not null;uniqueIndex:idx_user_site"`
	Role      Role      `json:"role" gorm:"not null;default:'viewer'"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Relations
	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Site *Site `json:"site,omitempty" gorm:"foreignKey:SiteID"`
}
