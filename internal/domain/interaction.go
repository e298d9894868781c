package domain

import (
	"time"

	"gorm.io/datatypes"
)

type InteractionType string

const (
	InteractionMeeting      InteractionType = "meeting"
	InteractionCall         InteractionType = "call"
	InteractionEmail        InteractionType = "email"
	InteractionSiteVisit    InteractionType = "site_visit"
	InteractionPresentation InteractionType = "presentation"
	InteractionWorkshop     InteractionType = "workshop"
	InteractionOther        InteractionType = "other"
)

// AllInteractionTypes contains all valid interaction types
var AllInteractionTypes = []InteractionType{
	InteractionMeeting,
	InteractionCall,
	InteractionEmail,
	InteractionSiteVisit,
	InteractionPresentation,
	InteractionWorkshop,
	InteractionOther,
}

// IsValid checks if an interaction type is valid
func (t InteractionType) IsValid() bool {
	for _, v := range AllInteractionTypes {
		if t == v {
			return true
		}
	}
	return false
}

// Interaction is the tenant-scoped business record. SiteID is set by the
// server at creation and never changes afterwards.
type Interaction struct {
	ID            uint            `json:"id" gorm:"primaryKey"`
	SiteID        uint            `json:"siteId" gorm:"not null;index"`
	Title         string          `json:"title" gorm:"not null"`
	Type          InteractionType `json:"type" gorm:"not null;default:'meeting'"`
	Lead          string          `json:"lead" gorm:"not null"`
	StartDatetime time.Time       `json:"startDatetime" gorm:"not null"`
	EndDatetime   time.Time       `json:"endDatetime" gorm:"not null"`
	Timezone      string          `json:"timezone" gorm:"not null;default:'UTC'"`
	Location      string          `json:"location"`
	Description   string          `json:"description"`
	Notes         string          `json:"notes"`
	CreatedBy     uint            `json:"createdBy" gorm:"not null"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`

	// Relations
	Site    *Site `json:"site,omitempty" gorm:"foreignKey:SiteID"`
	Creator *User `json:"creator,omitempty" gorm:"foreignKey:CreatedBy"`
}

type HistoryAction string

const (
	HistoryCreate HistoryAction = "create"
	HistoryUpdate HistoryAction = "update"
	HistoryDelete HistoryAction = "delete"
)

// InteractionHistory is an append-only audit record written on every
// create, update and delete of an interaction. Before/After hold JSON
// snapshots of the record around the change.
type InteractionHistory struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	InteractionID uint           `json:"interactionId" gorm:"not null;index"`
	SiteID        uint           `json:"siteId" gorm:"not null;index"`
	Action        HistoryAction  `json:"action" gorm:"not null"`
	Before        datatypes.JSON `json:"before"`
	After         datatypes.JSON `json:"after"`
	ChangedBy     uint           `json:"changedBy" gorm:"not null"`
	CreatedAt     time.Time      `json:"createdAt"`
}
