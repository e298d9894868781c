package postgres

import (
	"context"
	"fmt"

	"github.com/dcallahan/interaction-management/internal/domain"
	"github.com/dcallahan/interaction-management/internal/repository"
	"gorm.io/gorm"
)

type interactionRepository struct {
	db *gorm.DB
}

func NewInteractionRepository(db *gorm.DB) *interactionRepository {
	return &interactionRepository{db: db}
}

func (r *interactionRepository) Create(ctx context.Context, interaction *domain.Interaction) error {
	return r.db.WithContext(ctx).Create(interaction).Error
}

func (r *interactionRepository) GetByID(ctx context.Context, siteID, id uint) (*domain.Interaction, error) {
	var interaction domain.Interaction
	err := r.db.WithContext(ctx).
		Where("site_id = ?", siteID).
		First(&interaction, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &interaction, nil
}

func (r *interactionRepository) Update(ctx context.Context, interaction *domain.Interaction) error {
	return r.db.WithContext(ctx).Save(interaction).Error
}

func (r *interactionRepository) Delete(ctx context.Context, siteID, id uint) error {
	return r.db.WithContext(ctx).
		Delete(&domain.Interaction{}, "site_id = ? AND id = ?", siteID, id).Error
}

func (r *interactionRepository) List(ctx context.Context, siteID uint, limit, offset int) ([]*domain.Interaction, int64, error) {
	return r.Search(ctx, siteID, repository.SearchQuery{
		SortBy:   "start_datetime",
		SortDesc: true,
		Limit:    limit,
		Offset:   offset,
	})
}

// Search composes the site-scoped query. Filter fields and sort keys
// must already be validated against repository.FilterableFields; the
// column lookup here is the last line of defense against injection.
func (r *interactionRepository) Search(ctx context.Context, siteID uint, query repository.SearchQuery) ([]*domain.Interaction, int64, error) {
	q := r.db.WithContext(ctx).
		Model(&domain.Interaction{}).
		Where("site_id = ?", siteID)

	if query.Text != "" {
		pattern := "%" + query.Text + "%"
		q = q.Where("title ILIKE ? OR description ILIKE ? OR lead ILIKE ?", pattern, pattern, pattern)
	}
	if query.Type != "" {
		q = q.Where("type = ?", query.Type)
	}
	if query.Lead != "" {
		q = q.Where("lead ILIKE ?", "%"+query.Lead+"%")
	}
	if query.DateFrom != nil {
		q = q.Where("start_datetime >= ?", *query.DateFrom)
	}
	if query.DateTo != nil {
		q = q.Where("start_datetime <= ?", *query.DateTo)
	}

	for _, f := range query.Filters {
		column, ok := repository.FilterableFields[f.Field]
		if !ok {
			return nil, 0, fmt.Errorf("unknown filter field %q", f.Field)
		}
		switch f.Operator {
		case repository.OpEq:
			q = q.Where(column+" = ?", f.Value)
		case repository.OpNeq:
			q = q.Where(column+" <> ?", f.Value)
		case repository.OpGt:
			q = q.Where(column+" > ?", f.Value)
		case repository.OpLt:
			q = q.Where(column+" < ?", f.Value)
		case repository.OpGte:
			q = q.Where(column+" >= ?", f.Value)
		case repository.OpLte:
			q = q.Where(column+" <= ?", f.Value)
		case repository.OpContains:
			q = q.Where(column+" ILIKE ?", fmt.Sprintf("%%%v%%", f.Value))
		case repository.OpIn:
			q = q.Where(column+" IN ?", f.Value)
		default:
			return nil, 0, fmt.Errorf("unknown filter operator %q", f.Operator)
		}
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortColumn := "start_datetime"
	if query.SortBy != "" {
		column, ok := repository.FilterableFields[query.SortBy]
		if !ok {
			return nil, 0, fmt.Errorf("unknown sort field %q", query.SortBy)
		}
		sortColumn = column
	}
	direction := "ASC"
	if query.SortDesc {
		direction = "DESC"
	}

	var interactions []*domain.Interaction
	err := q.
		Order(fmt.Sprintf("%s %s, id %s", sortColumn, direction, direction)).
		Limit(query.Limit).
		Offset(query.Offset).
		Find(&interactions).Error
	if err != nil {
		return nil, 0, err
	}
	return interactions, total, nil
}
