package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dcallahan/interaction-management/internal/auth"
	"github.com/dcallahan/interaction-management/internal/domain"
	"github.com/dcallahan/interaction-management/internal/repository"
	"github.com/dcallahan/interaction-management/internal/sitectx"
	"gorm.io/gorm"
)

type AuthService struct {
	userRepo       repository.UserRepository
	membershipRepo repository.MembershipRepository
	siteRepo       repository.SiteRepository
	tokens         *auth.TokenService
	siteStore      sitectx.Store
	provider       auth.IdentityProvider
}

func NewAuthService(
	userRepo repository.UserRepository,
	membershipRepo repository.MembershipRepository,
	siteRepo repository.SiteRepository,
	tokens *auth.TokenService,
	siteStore sitectx.Store,
	provider auth.IdentityProvider,
) *AuthService {
	return &AuthService{
		userRepo:       userRepo,
		membershipRepo: membershipRepo,
		siteRepo:       siteRepo,
		tokens:         tokens,
		siteStore:      siteStore,
		provider:       provider,
	}
}

type LoginInput struct {
	Username string
	Password string
}

type LoginResult struct {
	User         *domain.User
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
	SiteIDs      []uint
}

// Login exchanges credentials for a local token pair. When an external
// identity provider is configured it authenticates the exchange and
// supplies site access, but the issued tokens are always local.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	var user *domain.User
	var siteIDs []uint
	var err error

	if s.provider != nil {
		identity, err := s.provider.Authenticate(ctx, input.Username, input.Password)
		if err != nil {
			return nil, err
		}
		user, err = s.userRepo.GetByEmail(ctx, identity.Email)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, domain.NewAuthenticationError("no local account for this identity")
			}
			return nil, domain.NewInternalError(err)
		}
		siteIDs = identity.SiteIDs
		if len(siteIDs) == 0 {
			siteIDs, err = s.membershipRepo.SiteIDsByUser(ctx, user.ID)
			if err != nil {
				return nil, domain.NewInternalError(err)
			}
		}
	} else {
		user, err = s.userRepo.GetByUsername(ctx, input.Username)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, domain.NewAuthenticationError("invalid username or password")
			}
			return nil, domain.NewInternalError(err)
		}
		if !auth.VerifyPassword(user.PasswordHash, input.Password) {
			return nil, domain.NewAuthenticationError("invalid username or password")
		}
		siteIDs, err = s.membershipRepo.SiteIDsByUser(ctx, user.ID)
		if err != nil {
			return nil, domain.NewInternalError(err)
		}
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, time.Now().UTC()); err != nil {
		slog.Warn("failed to record last login", "user_id", user.ID, "error", err)
	}

	return s.issueTokens(user, siteIDs)
}

func (s *AuthService) issueTokens(user *domain.User, siteIDs []uint) (*LoginResult, error) {
	accessToken, exp, err := s.tokens.CreateAccessToken(user, siteIDs)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	refreshToken, _, err := s.tokens.CreateRefreshToken(user.ID)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	return &LoginResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(time.Until(exp).Seconds()),
		SiteIDs:      siteIDs,
	}, nil
}

// Refresh exchanges a valid refresh token for a new access token. Site
// access is re-read from current memberships, not from the old token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	claims := s.tokens.ValidateRefreshToken(ctx, refreshToken)
	if claims == nil {
		return nil, domain.NewAuthenticationError("invalid or expired refresh token")
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewAuthenticationError("unknown user")
		}
		return nil, domain.NewInternalError(err)
	}

	siteIDs, err := s.membershipRepo.SiteIDsByUser(ctx, user.ID)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}

	accessToken, exp, err := s.tokens.CreateAccessToken(user, siteIDs)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	return &LoginResult{
		User:        user,
		AccessToken: accessToken,
		ExpiresIn:   int(time.Until(exp).Seconds()),
		SiteIDs:     siteIDs,
	}, nil
}

// Logout revokes a token. Revoking an already-revoked token succeeds;
// only an unparseable token is an error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if !s.tokens.BlacklistToken(ctx, token) {
		return domain.NewValidationError(map[string][]string{
			"token": {"token could not be parsed"},
		})
	}
	return nil
}

// AccessibleSites lists the sites the actor's token grants.
func (s *AuthService) AccessibleSites(ctx context.Context, actor Actor) ([]*domain.Site, error) {
	if actor.IsAdmin {
		sites, _, err := s.siteRepo.List(ctx, 1000, 0)
		if err != nil {
			return nil, domain.NewInternalError(err)
		}
		return sites, nil
	}
	sites, err := s.siteRepo.GetByIDs(ctx, actor.SiteIDs)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	return sites, nil
}

// SwitchSite changes the actor's active site. Switching to a site
// outside the token's site_ids fails closed and leaves any previous
// selection untouched.
func (s *AuthService) SwitchSite(ctx context.Context, actor Actor, siteID uint) (*sitectx.SiteContext, error) {
	if !actor.CanAccessSite(siteID) {
		return nil, domain.NewSiteContextError("site is not accessible to this user")
	}

	role := domain.RoleSiteAdmin
	if !actor.IsAdmin {
		membership, err := s.membershipRepo.Get(ctx, actor.UserID, siteID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, domain.NewSiteContextError("no membership for this site")
			}
			return nil, domain.NewInternalError(err)
		}
		role = membership.Role
	}

	if err := s.siteStore.Set(ctx, actor.UserID, siteID); err != nil {
		return nil, domain.NewInternalError(err)
	}
	return &sitectx.SiteContext{SiteID: siteID, Role: role}, nil
}

// ResolveSiteContext derives the active site for a request: an explicit
// requested site id wins, then the stored selection, then the sole
// accessible site. A requested or stored site outside the token's
// site_ids is a site-context error, never a silent fallback.
func (s *AuthService) ResolveSiteContext(ctx context.Context, actor Actor, requestedSiteID uint) (*sitectx.SiteContext, error) {
	siteID := requestedSiteID
	if siteID == 0 {
		stored, ok, err := s.siteStore.Get(ctx, actor.UserID)
		if err != nil {
			return nil, domain.NewInternalError(err)
		}
		if ok {
			siteID = stored
		} else if len(actor.SiteIDs) == 1 {
			siteID = actor.SiteIDs[0]
		}
	}
	if siteID == 0 {
		return nil, domain.NewSiteContextError("no active site selected")
	}

	if !actor.CanAccessSite(siteID) {
		return nil, domain.NewSiteContextError("site is not accessible to this user")
	}

	role := domain.RoleSiteAdmin
	if !actor.IsAdmin {
		membership, err := s.membershipRepo.Get(ctx, actor.UserID, siteID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, domain.NewSiteContextError("no membership for this site")
			}
			return nil, domain.NewInternalError(err)
		}
		role = membership.Role
	}
	return &sitectx.SiteContext{SiteID: siteID, Role: role}, nil
}

// Profile returns the actor's user record with memberships.
func (s *AuthService) Profile(ctx context.Context, actor Actor) (*domain.User, []*domain.UserSite, error) {
	user, err := s.userRepo.GetByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, domain.NewAuthenticationError("unknown user")
		}
		return nil, nil, domain.NewInternalError(err)
	}
	memberships, err := s.membershipRepo.ListByUser(ctx, actor.UserID)
	if err != nil {
		return nil, nil, domain.NewInternalError(err)
	}
	return user, memberships, nil
}

type ChangePasswordInput struct {
	CurrentPassword string
	NewPassword     string
	ConfirmPassword string
}

// ChangePassword is the self-service path: it requires the current
// password, the strength policy and a matching confirmation.
func (s *AuthService) ChangePassword(ctx context.Context, actor Actor, input ChangePasswordInput) error {
	fields := map[string][]string{}
	if problems := auth.ValidatePasswordStrength(input.NewPassword); len(problems) > 0 {
		fields["new_password"] = problems
	}
	if input.NewPassword != input.ConfirmPassword {
		fields["confirm_password"] = append(fields["confirm_password"], "passwords do not match")
	}
	if len(fields) > 0 {
		return domain.NewValidationError(fields)
	}

	user, err := s.userRepo.GetByID(ctx, actor.UserID)
	if err != nil {
		return domain.NewInternalError(err)
	}
	if !auth.VerifyPassword(user.PasswordHash, input.CurrentPassword) {
		return domain.NewAuthenticationError("current password is incorrect")
	}

	hash, err := auth.HashPassword(input.NewPassword)
	if err != nil {
		return domain.NewInternalError(err)
	}
	user.PasswordHash = hash
	if err := s.userRepo.Update(ctx, user); err != nil {
		return domain.NewInternalError(err)
	}
	return nil
}

// ResetPassword is the admin-initiated path: no current password, but
// the strength policy still applies. Requires site_admin on the active
// site (or system admin) and the target must be a member of that site.
func (s *AuthService) ResetPassword(ctx context.Context, actor Actor, sc *sitectx.SiteContext, targetUserID uint, newPassword string) error {
	if err := requireRole(actor, sc, domain.RoleSiteAdmin); err != nil {
		return err
	}
	if problems := auth.ValidatePasswordStrength(newPassword); len(problems) > 0 {
		return domain.NewValidationError(map[string][]string{"new_password": problems})
	}

	if !actor.IsAdmin {
		if _, err := s.membershipRepo.Get(ctx, targetUserID, sc.SiteID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NewNotFoundError("user")
			}
			return domain.NewInternalError(err)
		}
	}

	user, err := s.userRepo.GetByID(ctx, targetUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.NewNotFoundError("user")
		}
		return domain.NewInternalError(err)
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return domain.NewInternalError(err)
	}
	user.PasswordHash = hash
	if err := s.userRepo.Update(ctx, user); err != nil {
		return domain.NewInternalError(err)
	}
	return nil
}

// RequestPasswordReset always succeeds so that responses cannot be used
// to probe which emails have accounts.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		// Deliberately indistinguishable from the success path.
		return
	}
	// Mail delivery is owned by an external notifier; record the intent.
	slog.Info("password reset requested", "user_id", user.ID)
}
