package postgres

import (
	"context"

	"github.com/dcallahan/interaction-management/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type membershipRepository struct {
	db *gorm.DB
}

func NewMembershipRepository(db *gorm.DB) *membershipRepository {
	return &membershipRepository{db: db}
}

// Upsert inserts a membership or updates the role of an existing one.
// The (user_id, site_id) unique index guarantees at most one active
// role per pair.
func (r *membershipRepository) Upsert(ctx context.Context, membership *domain.UserSite) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "site_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"role", "updated_at"}),
		}).
		Create(membership).Error
}

func (r *membershipRepository) Get(ctx context.Context, userID, siteID uint) (*domain.UserSite, error) {
	var membership domain.UserSite
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND site_id = ?", userID, siteID).
		First(&membership).Error
	if err != nil {
		return nil, err
	}
	return &membership, nil
}

func (r *membershipRepository) Delete(ctx context.Context, userID, siteID uint) error {
	return r.db.WithContext(ctx).
		Delete(&domain.UserSite{}, "user_id = ? AND site_id = ?", userID, siteID).Error
}

func (r *membershipRepository) ListByUser(ctx context.Context, userID uint) ([]*domain.UserSite, error) {
	var memberships []*domain.UserSite
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("site_id").
		Find(&memberships).Error
	if err != nil {
		return nil, err
	}
	return memberships, nil
}

func (r *membershipRepository) ListBySite(ctx context.Context, siteID uint) ([]*domain.UserSite, error) {
	var memberships []*domain.UserSite
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("site_id = ?", siteID).
		Order("user_id").
		Find(&memberships).Error
	if err != nil {
		return nil, err
	}
	return memberships, nil
}

func (r *membershipRepository) SiteIDsByUser(ctx context.Context, userID uint) ([]uint, error) {
	var siteIDs []uint
	err := r.db.WithContext(ctx).
		Model(&domain.UserSite{}).
		Where("user_id = ?", userID).
		Order("site_id").
		Pluck("site_id", &siteIDs).Error
	if err != nil {
		return nil, err
	}
	return siteIDs, nil
}

func (r *membershipRepository) SiteIDsByEmail(ctx context.Context, email string) ([]uint, error) {
	var siteIDs []uint
	err := r.db.WithContext(ctx).
		Model(&domain.UserSite{}).
		Joins("JOIN users ON users.id = user_sites.user_id").
		Where("users.email = ?", email).
		Order("site_id").
		Pluck("user_sites.site_id", &siteIDs).Error
	if err != nil {
		return nil, err
	}
	return siteIDs, nil
}
