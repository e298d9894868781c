package domain

import (
	"time"
)

// Site is the tenant boundary. All business data and user roles are
// scoped to a site.
type Site struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"not null;uniqueIndex"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	// Relations
	Memberships  []UserSite    `json:"memberships,omitempty" gorm:"foreignKey:SiteID;constraint:OnDelete:CASCADE"`
	Interactions []Interaction `json:"interactions,omitempty" gorm:"foreignKey:SiteID;constraint:OnDelete:CASCADE"`
}
