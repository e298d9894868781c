package postgres

import (
	"context"

	"github.com/dcallahan/interaction-management/internal/domain"
	"gorm.io/gorm"
)

type interactionHistoryRepository struct {
	db *gorm.DB
}

func NewInteractionHistoryRepository(db *gorm.DB) *interactionHistoryRepository {
	return &interactionHistoryRepository{db: db}
}

// Create appends an audit record. History rows are never updated or
// deleted outside of site removal.
func (r *interactionHistoryRepository) Create(ctx context.Context, record *domain.InteractionHistory) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *interactionHistoryRepository) ListByInteraction(ctx context.Context, siteID, interactionID uint) ([]*domain.InteractionHistory, error) {
	var records []*domain.InteractionHistory
	err := r.db.WithContext(ctx).
		Where("site_id = ? AND interaction_id = ?", siteID, interactionID).
		Order("created_at").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
