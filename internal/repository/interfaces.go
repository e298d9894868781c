package repository

import (
	"context"
	"time"

	"github.com/dcallahan/interaction-management/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uint) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id uint) error
	ListBySite(ctx context.Context, siteID uint, limit, offset int) ([]*domain.User, int64, error)
	UpdateLastLogin(ctx context.Context, id uint, at time.Time) error
}

type SiteRepository interface {
	Create(ctx context.Context, site *domain.Site) error
	GetByID(ctx context.Context, id uint) (*domain.Site, error)
	GetByIDs(ctx context.Context, ids []uint) ([]*domain.Site, error)
	Update(ctx context.Context, site *domain.Site) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, limit, offset int) ([]*domain.Site, int64, error)
}

type MembershipRepository interface {
	Upsert(ctx context.Context, membership *domain.UserSite) error
	Get(ctx context.Context, userID, siteID uint) (*domain.UserSite, error)
	Delete(ctx context.Context, userID, siteID uint) error
	ListByUser(ctx context.Context, userID uint) ([]*domain.UserSite, error)
	ListBySite(ctx context.Context, siteID uint) ([]*domain.UserSite, error)
	SiteIDsByUser(ctx context.Context, userID uint) ([]uint, error)
	SiteIDsByEmail(ctx context.Context, email string) ([]uint, error)
}

type InteractionRepository interface {
	Create(ctx context.Context, interaction *domain.Interaction) error
	// GetByID only returns records belonging to siteID; a record under
	// another site behaves exactly like a missing one.
	GetByID(ctx context.Context, siteID, id uint) (*domain.Interaction, error)
	Update(ctx context.Context, interaction *domain.Interaction) error
	Delete(ctx context.Context, siteID, id uint) error
	List(ctx context.Context, siteID uint, limit, offset int) ([]*domain.Interaction, int64, error)
	Search(ctx context.Context, siteID uint, query SearchQuery) ([]*domain.Interaction, int64, error)
}

type InteractionHistoryRepository interface {
	Create(ctx context.Context, record *domain.InteractionHistory) error
	ListByInteraction(ctx context.Context, siteID, interactionID uint) ([]*domain.InteractionHistory, error)
}

type Repositories struct {
	User        UserRepository
	Site        SiteRepository
	Membership  MembershipRepository
	Interaction InteractionRepository
	History     InteractionHistoryRepository
}

type FilterOperator string

const (
	OpEq       FilterOperator = "eq"
	OpNeq      FilterOperator = "neq"
	OpGt       FilterOperator = "gt"
	OpLt       FilterOperator = "lt"
	OpGte      FilterOperator = "gte"
	OpLte      FilterOperator = "lte"
	OpContains FilterOperator = "contains"
	OpIn       FilterOperator = "in"
)

// IsValid checks if a filter operator is valid
func (op FilterOperator) IsValid() bool {
	switch op {
	case OpEq, OpNeq, OpGt, OpLt, OpGte, OpLte, OpContains, OpIn:
		return true
	}
	return false
}

// Filter is one structured search condition on an allow-listed field.
type Filter struct {
	Field    string         `json:"field"`
	Operator FilterOperator `json:"operator"`
	Value    any            `json:"value"`
}

// SearchQuery describes one interaction search. The site filter is not
// part of the query; it is always supplied separately by the caller.
type SearchQuery struct {
	Text     string
	Filters  []Filter
	Type     domain.InteractionType
	Lead     string
	DateFrom *time.Time
	DateTo   *time.Time
	SortBy   string
	SortDesc bool
	Limit    int
	Offset   int
}

// FilterableFields maps the fields accepted in structured filters and
// sorts to their database columns. Anything outside this set is a
// validation error, never passed through to SQL.
var FilterableFields = map[string]string{
	"title":          "title",
	"type":           "type",
	"lead":           "lead",
	"location":       "location",
	"description":    "description",
	"timezone":       "timezone",
	"start_datetime": "start_datetime",
	"end_datetime":   "end_datetime",
	"created_by":     "created_by",
	"created_at":     "created_at",
}
