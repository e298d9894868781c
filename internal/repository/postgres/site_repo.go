package postgres

import (
	"context"

	"github.com/dcallahan/interaction-management/internal/domain"
	"gorm.io/gorm"
)

type siteRepository struct {
	db *gorm.DB
}

func NewSiteRepository(db *gorm.DB) *siteRepository {
	return &siteRepository{db: db}
}

func (r *siteRepository) Create(ctx context.Context, site *domain.Site) error {
	return r.db.WithContext(ctx).Create(site).Error
}

func (r *siteRepository) GetByID(ctx context.Context, id uint) (*domain.Site, error) {
	var site domain.Site
	err := r.db.WithContext(ctx).First(&site, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &site, nil
}

func (r *siteRepository) GetByIDs(ctx context.Context, ids []uint) ([]*domain.Site, error) {
	if len(ids) == 0 {
		return []*domain.Site{}, nil
	}
	var sites []*domain.Site
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("name").
		Find(&sites).Error
	if err != nil {
		return nil, err
	}
	return sites, nil
}

func (r *siteRepository) Update(ctx context.Context, site *domain.Site) error {
	return r.db.WithContext(ctx).Save(site).Error
}

// Delete removes the site and everything it owns: memberships,
// interactions and their history records.
func (r *siteRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&domain.InteractionHistory{}, "site_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&domain.Interaction{}, "site_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&domain.UserSite{}, "site_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Site{}, "id = ?", id).Error
	})
}

func (r *siteRepository) List(ctx context.Context, limit, offset int) ([]*domain.Site, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&domain.Site{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var sites []*domain.Site
	err := r.db.WithContext(ctx).
		Order("name").
		Limit(limit).
		Offset(offset).
		Find(&sites).Error
	if err != nil {
		return nil, 0, err
	}
	return sites, total, nil
}
