package service

import (
	"github.com/dcallahan/interaction-management/internal/auth"
	"github.com/dcallahan/interaction-management/internal/config"
	"github.com/dcallahan/interaction-management/internal/domain"
	"github.com/dcallahan/interaction-management/internal/observability/metrics"
	"github.com/dcallahan/interaction-management/internal/repository"
	"github.com/dcallahan/interaction-management/internal/sitectx"
)

// Actor identifies the authenticated caller of a service operation,
// as resolved from a validated access token.
type Actor struct {
	UserID   uint
	Username string
	IsAdmin  bool
	SiteIDs  []uint
}

// CanAccessSite reports whether the actor's token grants the site.
// System admins bypass site scoping entirely.
func (a Actor) CanAccessSite(siteID uint) bool {
	if a.IsAdmin {
		return true
	}
	for _, id := range a.SiteIDs {
		if id == siteID {
			return true
		}
	}
	return false
}

type Services struct {
	Auth        *AuthService
	User        *UserService
	Site        *SiteService
	Interaction *InteractionService
	Search      *SearchService
}

type Deps struct {
	Repos     *repository.Repositories
	Config    *config.Config
	Tokens    *auth.TokenService
	SiteStore sitectx.Store
	Cache     SearchCache
	Provider  auth.IdentityProvider
	Metrics   *metrics.Metrics
}

func NewServices(d Deps) *Services {
	interaction := NewInteractionService(d.Repos.Interaction, d.Repos.History, d.Cache)
	return &Services{
		Auth:        NewAuthService(d.Repos.User, d.Repos.Membership, d.Repos.Site, d.Tokens, d.SiteStore, d.Provider),
		User:        NewUserService(d.Repos.User, d.Repos.Membership),
		Site:        NewSiteService(d.Repos.Site, d.Repos.Membership, d.Repos.User),
		Interaction: interaction,
		Search:      NewSearchService(d.Repos.Interaction, d.Cache, d.Metrics, d.Config),
	}
}

// requireRole enforces the minimum role for an operation under the
// active site context. System admins bypass the check.
func requireRole(actor Actor, sc *sitectx.SiteContext, required domain.Role) error {
	if actor.IsAdmin {
		return nil
	}
	if sc == nil {
		return domain.NewSiteContextError("no active site selected")
	}
	if !sc.Role.Allows(required) {
		return domain.NewAuthorizationError("operation requires " + required.String() + " role")
	}
	return nil
}

// Pagination describes one page of a list response.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// NormalizePage applies defaults and bounds: page >= 1, page_size in
// [1, maxSize] with oversize values clamped rather than rejected.
func NormalizePage(page, pageSize, defaultSize, maxSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultSize
	}
	if pageSize > maxSize {
		pageSize = maxSize
	}
	return page, pageSize
}

func NewPagination(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	if totalPages < 1 {
		totalPages = 1
	}
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}
