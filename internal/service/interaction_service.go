package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/dcallahan/interaction-management/internal/domain"
	"github.com/dcallahan/interaction-management/internal/repository"
	"github.com/dcallahan/interaction-management/internal/sitectx"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type InteractionService struct {
	interactionRepo repository.InteractionRepository
	historyRepo     repository.InteractionHistoryRepository
	cache           SearchCache
}

func NewInteractionService(
	interactionRepo repository.InteractionRepository,
	historyRepo repository.InteractionHistoryRepository,
	cache SearchCache,
) *InteractionService {
	return &InteractionService{
		interactionRepo: interactionRepo,
		historyRepo:     historyRepo,
		cache:           cache,
	}
}

type InteractionInput struct {
	Title         string
	Type          domain.InteractionType
	Lead          string
	StartDatetime time.Time
	EndDatetime   time.Time
	Timezone      string
	Location      string
	Description   string
	Notes         string
}

// Create stores a new interaction under the active site. site_id and
// created_by come from the request context; client-supplied values for
// them are never trusted.
func (s *InteractionService) Create(ctx context.Context, actor Actor, sc *sitectx.SiteContext, input InteractionInput) (*domain.Interaction, error) {
	if err := requireRole(actor, sc, domain.RoleEditor); err != nil {
		return nil, err
	}

	interaction := &domain.Interaction{
		SiteID:        sc.SiteID,
		Title:         input.Title,
		Type:          input.Type,
		Lead:          input.Lead,
		StartDatetime: input.StartDatetime,
		EndDatetime:   input.EndDatetime,
		Timezone:      input.Timezone,
		Location:      input.Location,
		Description:   input.Description,
		Notes:         input.Notes,
		CreatedBy:     actor.UserID,
	}
	if err := s.interactionRepo.Create(ctx, interaction); err != nil {
		return nil, domain.NewInternalError(err)
	}

	s.recordHistory(ctx, actor, interaction, domain.HistoryCreate, nil, interaction)
	s.invalidateCache(ctx, sc.SiteID)
	return interaction, nil
}

// Get fetches one interaction under the active site. Records belonging
// to other sites yield the same not-found as nonexistent ids.
func (s *InteractionService) Get(ctx context.Context, actor Actor, sc *sitectx.SiteContext, id uint) (*domain.Interaction, error) {
	if err := requireRole(actor, sc, domain.RoleViewer); err != nil {
		return nil, err
	}
	interaction, err := s.interactionRepo.GetByID(ctx, sc.SiteID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("interaction")
		}
		return nil, domain.NewInternalError(err)
	}
	return interaction, nil
}

// List pages through the active site's interactions.
func (s *InteractionService) List(ctx context.Context, actor Actor, sc *sitectx.SiteContext, page, pageSize int) ([]*domain.Interaction, Pagination, error) {
	if err := requireRole(actor, sc, domain.RoleViewer); err != nil {
		return nil, Pagination{}, err
	}
	interactions, total, err := s.interactionRepo.List(ctx, sc.SiteID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, Pagination{}, domain.NewInternalError(err)
	}
	return interactions, NewPagination(page, pageSize, total), nil
}

// Update mutates an interaction after re-verifying it belongs to the
// active site. SiteID and CreatedBy are immutable.
func (s *InteractionService) Update(ctx context.Context, actor Actor, sc *sitectx.SiteContext, id uint, input InteractionInput) (*domain.Interaction, error) {
	if err := requireRole(actor, sc, domain.RoleEditor); err != nil {
		return nil, err
	}

	interaction, err := s.interactionRepo.GetByID(ctx, sc.SiteID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("interaction")
		}
		return nil, domain.NewInternalError(err)
	}

	before := *interaction

	interaction.Title = input.Title
	interaction.Type = input.Type
	interaction.Lead = input.Lead
	interaction.StartDatetime = input.StartDatetime
	interaction.EndDatetime = input.EndDatetime
	interaction.Timezone = input.Timezone
	interaction.Location = input.Location
	interaction.Description = input.Description
	interaction.Notes = input.Notes

	if err := s.interactionRepo.Update(ctx, interaction); err != nil {
		return nil, domain.NewInternalError(err)
	}

	s.recordHistory(ctx, actor, interaction, domain.HistoryUpdate, &before, interaction)
	s.invalidateCache(ctx, sc.SiteID)
	return interaction, nil
}

// Delete removes an interaction from the active site. The audit record
// of the deletion is retained.
func (s *InteractionService) Delete(ctx context.Context, actor Actor, sc *sitectx.SiteContext, id uint) error {
	if err := requireRole(actor, sc, domain.RoleSiteAdmin); err != nil {
		return err
	}

	interaction, err := s.interactionRepo.GetByID(ctx, sc.SiteID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.NewNotFoundError("interaction")
		}
		return domain.NewInternalError(err)
	}

	if err := s.interactionRepo.Delete(ctx, sc.SiteID, id); err != nil {
		return domain.NewInternalError(err)
	}

	s.recordHistory(ctx, actor, interaction, domain.HistoryDelete, interaction, nil)
	s.invalidateCache(ctx, sc.SiteID)
	return nil
}

// History lists the audit records for an interaction under the active
// site. Works for deleted interactions as well; records are retained
// indefinitely.
func (s *InteractionService) History(ctx context.Context, actor Actor, sc *sitectx.SiteContext, id uint) ([]*domain.InteractionHistory, error) {
	if err := requireRole(actor, sc, domain.RoleViewer); err != nil {
		return nil, err
	}
	records, err := s.historyRepo.ListByInteraction(ctx, sc.SiteID, id)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	if len(records) == 0 {
		return nil, domain.NewNotFoundError("interaction")
	}
	return records, nil
}

// recordHistory appends an audit record. Audit failures are logged, not
// surfaced: the primary write already happened.
func (s *InteractionService) recordHistory(ctx context.Context, actor Actor, interaction *domain.Interaction, action domain.HistoryAction, before, after *domain.Interaction) {
	record := &domain.InteractionHistory{
		InteractionID: interaction.ID,
		SiteID:        interaction.SiteID,
		Action:        action,
		Before:        snapshotJSON(before),
		After:         snapshotJSON(after),
		ChangedBy:     actor.UserID,
	}
	if err := s.historyRepo.Create(ctx, record); err != nil {
		slog.Error("failed to write interaction history",
			"interaction_id", interaction.ID,
			"site_id", interaction.SiteID,
			"action", action,
			"error", err)
	}
}

func (s *InteractionService) invalidateCache(ctx context.Context, siteID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateSite(ctx, siteID); err != nil {
		slog.Warn("failed to invalidate search cache", "site_id", siteID, "error", err)
	}
}

func snapshotJSON(interaction *domain.Interaction) datatypes.JSON {
	if interaction == nil {
		return nil
	}
	b, err := json.Marshal(interaction)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}
