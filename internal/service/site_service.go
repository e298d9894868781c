package service

import (
	"context"
	"errors"

	"github.com/dcallahan/interaction-management/internal/domain"
	"github.com/dcallahan/interaction-management/internal/repository"
	"gorm.io/gorm"
)

type SiteService struct {
	siteRepo       repository.SiteRepository
	membershipRepo repository.MembershipRepository
	userRepo       repository.UserRepository
}

func NewSiteService(siteRepo repository.SiteRepository, membershipRepo repository.MembershipRepository, userRepo repository.UserRepository) *SiteService {
	return &SiteService{siteRepo: siteRepo, membershipRepo: membershipRepo, userRepo: userRepo}
}

// List returns the actor's accessible sites; system admins see all.
func (s *SiteService) List(ctx context.Context, actor Actor, page, pageSize int) ([]*domain.Site, Pagination, error) {
	if actor.IsAdmin {
		sites, total, err := s.siteRepo.List(ctx, pageSize, (page-1)*pageSize)
		if err != nil {
			return nil, Pagination{}, domain.NewInternalError(err)
		}
		return sites, NewPagination(page, pageSize, total), nil
	}

	sites, err := s.siteRepo.GetByIDs(ctx, actor.SiteIDs)
	if err != nil {
		return nil, Pagination{}, domain.NewInternalError(err)
	}
	total := int64(len(sites))
	start := (page - 1) * pageSize
	if start > len(sites) {
		start = len(sites)
	}
	end := start + pageSize
	if end > len(sites) {
		end = len(sites)
	}
	return sites[start:end], NewPagination(page, pageSize, total), nil
}

// Get returns a site only when it is accessible to the actor; an
// inaccessible site is indistinguishable from a missing one.
func (s *SiteService) Get(ctx context.Context, actor Actor, siteID uint) (*domain.Site, error) {
	if !actor.CanAccessSite(siteID) {
		return nil, domain.NewNotFoundError("site")
	}
	site, err := s.siteRepo.GetByID(ctx, siteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("site")
		}
		return nil, domain.NewInternalError(err)
	}
	return site, nil
}

type SiteInput struct {
	Name        string
	Description string
}

// Create makes a new tenant. Cross-tenant administration, so system
// admin only.
func (s *SiteService) Create(ctx context.Context, actor Actor, input SiteInput) (*domain.Site, error) {
	if !actor.IsAdmin {
		return nil, domain.NewAuthorizationError("creating sites requires system admin")
	}

	site := &domain.Site{Name: input.Name, Description: input.Description}
	if err := s.siteRepo.Create(ctx, site); err != nil {
		return nil, domain.NewConflictError("site name already exists")
	}
	return site, nil
}

// Update edits a site's name/description. Requires site_admin for that
// site.
func (s *SiteService) Update(ctx context.Context, actor Actor, siteID uint, input SiteInput) (*domain.Site, error) {
	site, err := s.Get(ctx, actor, siteID)
	if err != nil {
		return nil, err
	}

	if err := s.requireSiteAdmin(ctx, actor, siteID); err != nil {
		return nil, err
	}

	site.Name = input.Name
	site.Description = input.Description
	if err := s.siteRepo.Update(ctx, site); err != nil {
		return nil, domain.NewInternalError(err)
	}
	return site, nil
}

// Delete removes a tenant and cascades to memberships, interactions and
// history. System admin only.
func (s *SiteService) Delete(ctx context.Context, actor Actor, siteID uint) error {
	if !actor.IsAdmin {
		return domain.NewAuthorizationError("deleting sites requires system admin")
	}
	if _, err := s.siteRepo.GetByID(ctx, siteID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.NewNotFoundError("site")
		}
		return domain.NewInternalError(err)
	}
	if err := s.siteRepo.Delete(ctx, siteID); err != nil {
		return domain.NewInternalError(err)
	}
	return nil
}

// Members lists the site's memberships with user details.
func (s *SiteService) Members(ctx context.Context, actor Actor, siteID uint) ([]*domain.UserSite, error) {
	if !actor.CanAccessSite(siteID) {
		return nil, domain.NewNotFoundError("site")
	}
	memberships, err := s.membershipRepo.ListBySite(ctx, siteID)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	return memberships, nil
}

// SetMemberRole adds a user to the site or changes their role. At most
// one role per (user, site) pair is kept.
func (s *SiteService) SetMemberRole(ctx context.Context, actor Actor, siteID, userID uint, role domain.Role) (*domain.UserSite, error) {
	if !actor.CanAccessSite(siteID) {
		return nil, domain.NewNotFoundError("site")
	}
	if err := s.requireSiteAdmin(ctx, actor, siteID); err != nil {
		return nil, err
	}

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("user")
		}
		return nil, domain.NewInternalError(err)
	}

	membership := &domain.UserSite{UserID: userID, SiteID: siteID, Role: role}
	if err := s.membershipRepo.Upsert(ctx, membership); err != nil {
		return nil, domain.NewInternalError(err)
	}
	return s.membershipRepo.Get(ctx, userID, siteID)
}

// RemoveMember drops a user's membership in the site.
func (s *SiteService) RemoveMember(ctx context.Context, actor Actor, siteID, userID uint) error {
	if !actor.CanAccessSite(siteID) {
		return domain.NewNotFoundError("site")
	}
	if err := s.requireSiteAdmin(ctx, actor, siteID); err != nil {
		return err
	}
	if _, err := s.membershipRepo.Get(ctx, userID, siteID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.NewNotFoundError("user")
		}
		return domain.NewInternalError(err)
	}
	if err := s.membershipRepo.Delete(ctx, userID, siteID); err != nil {
		return domain.NewInternalError(err)
	}
	return nil
}

func (s *SiteService) requireSiteAdmin(ctx context.Context, actor Actor, siteID uint) error {
	if actor.IsAdmin {
		return nil
	}
	membership, err := s.membershipRepo.Get(ctx, actor.UserID, siteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.NewAuthorizationError("operation requires site_admin role")
		}
		return domain.NewInternalError(err)
	}
	if !membership.Role.Allows(domain.RoleSiteAdmin) {
		return domain.NewAuthorizationError("operation requires site_admin role")
	}
	return nil
}
