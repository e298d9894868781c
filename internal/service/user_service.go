package service

import (
	"context"
	"errors"

	"github.com/dcallahan/interaction-management/internal/auth"
	"github.com/dcallahan/interaction-management/internal/domain"
	"github.com/dcallahan/interaction-management/internal/repository"
	"github.com/dcallahan/interaction-management/internal/sitectx"
	"gorm.io/gorm"
)

type UserService struct {
	userRepo       repository.UserRepository
	membershipRepo repository.MembershipRepository
}

func NewUserService(userRepo repository.UserRepository, membershipRepo repository.MembershipRepository) *UserService {
	return &UserService{userRepo: userRepo, membershipRepo: membershipRepo}
}

// List returns the members of the active site.
func (s *UserService) List(ctx context.Context, actor Actor, sc *sitectx.SiteContext, page, pageSize int) ([]*domain.User, Pagination, error) {
	if err := requireRole(actor, sc, domain.RoleViewer); err != nil {
		return nil, Pagination{}, err
	}

	users, total, err := s.userRepo.ListBySite(ctx, sc.SiteID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, Pagination{}, domain.NewInternalError(err)
	}
	return users, NewPagination(page, pageSize, total), nil
}

// Get returns a user, but only when that user is a member of the active
// site. A user outside the site looks exactly like a missing user.
func (s *UserService) Get(ctx context.Context, actor Actor, sc *sitectx.SiteContext, userID uint) (*domain.User, *domain.UserSite, error) {
	if err := requireRole(actor, sc, domain.RoleViewer); err != nil {
		return nil, nil, err
	}

	membership, err := s.membershipRepo.Get(ctx, userID, sc.SiteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, domain.NewNotFoundError("user")
		}
		return nil, nil, domain.NewInternalError(err)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, domain.NewNotFoundError("user")
		}
		return nil, nil, domain.NewInternalError(err)
	}
	return user, membership, nil
}

type CreateUserInput struct {
	Username string
	Email    string
	Password string
	Role     domain.Role
}

// Create registers a new user and adds them to the active site with the
// given role.
func (s *UserService) Create(ctx context.Context, actor Actor, sc *sitectx.SiteContext, input CreateUserInput) (*domain.User, error) {
	if err := requireRole(actor, sc, domain.RoleSiteAdmin); err != nil {
		return nil, err
	}

	if problems := auth.ValidatePasswordStrength(input.Password); len(problems) > 0 {
		return nil, domain.NewValidationError(map[string][]string{"password": problems})
	}

	if existing, err := s.userRepo.GetByUsername(ctx, input.Username); err == nil && existing != nil {
		return nil, domain.NewConflictError("username already exists")
	}
	if existing, err := s.userRepo.GetByEmail(ctx, input.Email); err == nil && existing != nil {
		return nil, domain.NewConflictError("email already exists")
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}

	user := &domain.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, domain.NewInternalError(err)
	}

	membership := &domain.UserSite{
		UserID: user.ID,
		SiteID: sc.SiteID,
		Role:   input.Role,
	}
	if err := s.membershipRepo.Upsert(ctx, membership); err != nil {
		return nil, domain.NewInternalError(err)
	}
	return user, nil
}

type UpdateUserInput struct {
	Email *string
}

// Update changes a member's mutable profile fields.
func (s *UserService) Update(ctx context.Context, actor Actor, sc *sitectx.SiteContext, userID uint, input UpdateUserInput) (*domain.User, error) {
	// Members may update their own profile; changing someone else's
	// requires site_admin.
	if actor.UserID != userID {
		if err := requireRole(actor, sc, domain.RoleSiteAdmin); err != nil {
			return nil, err
		}
	} else if err := requireRole(actor, sc, domain.RoleViewer); err != nil {
		return nil, err
	}

	user, _, err := s.Get(ctx, actor, sc, userID)
	if err != nil {
		return nil, err
	}

	if input.Email != nil && *input.Email != user.Email {
		if existing, err := s.userRepo.GetByEmail(ctx, *input.Email); err == nil && existing != nil {
			return nil, domain.NewConflictError("email already exists")
		}
		user.Email = *input.Email
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, domain.NewInternalError(err)
	}
	return user, nil
}

// Delete removes a user from the active site. The user's identity and
// memberships in other sites are untouched; site-scoped callers cannot
// reach beyond their tenant.
func (s *UserService) Delete(ctx context.Context, actor Actor, sc *sitectx.SiteContext, userID uint) error {
	if err := requireRole(actor, sc, domain.RoleSiteAdmin); err != nil {
		return err
	}

	if _, err := s.membershipRepo.Get(ctx, userID, sc.SiteID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.NewNotFoundError("user")
		}
		return domain.NewInternalError(err)
	}

	if err := s.membershipRepo.Delete(ctx, userID, sc.SiteID); err != nil {
		return domain.NewInternalError(err)
	}
	return nil
}
