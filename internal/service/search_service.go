package service

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"log/slog"
	"time"

	"github.com/dcallahan/interaction-management/internal/config"
	"github.com/dcallahan/interaction-management/internal/domain"
	"github.com/dcallahan/interaction-management/internal/observability/metrics"
	"github.com/dcallahan/interaction-management/internal/repository"
	"github.com/dcallahan/interaction-management/internal/sitectx"
)

type SearchService struct {
	interactionRepo repository.InteractionRepository
	cache           SearchCache
	metrics         *metrics.Metrics
	cacheTTL        time.Duration
	defaultPageSize int
	maxPageSize     int
}

func NewSearchService(interactionRepo repository.InteractionRepository, cache SearchCache, m *metrics.Metrics, cfg *config.Config) *SearchService {
	return &SearchService{
		interactionRepo: interactionRepo,
		cache:           cache,
		metrics:         m,
		cacheTTL:        cfg.SearchCacheTTL,
		defaultPageSize: cfg.DefaultPageSize,
		maxPageSize:     cfg.MaxPageSize,
	}
}

// SearchOptions are the pagination and sorting knobs shared by all
// search endpoints.
type SearchOptions struct {
	Page     int
	PageSize int
	SortBy   string
	SortDesc bool
}

type SearchResult struct {
	Items      []*domain.Interaction `json:"items"`
	Pagination Pagination            `json:"pagination"`
}

// Text searches title, description and lead for a free-text query.
func (s *SearchService) Text(ctx context.Context, actor Actor, sc *sitectx.SiteContext, text string, opts SearchOptions) (*SearchResult, error) {
	if err := requireRole(actor, sc, domain.RoleViewer); err != nil {
		return nil, err
	}
	query, page, pageSize, err := s.buildQuery(opts)
	if err != nil {
		return nil, err
	}
	query.Text = text
	return s.run(ctx, sc, query, page, pageSize)
}

// Advanced applies structured filters on the allow-listed field set.
func (s *SearchService) Advanced(ctx context.Context, actor Actor, sc *sitectx.SiteContext, filters []repository.Filter, opts SearchOptions) (*SearchResult, error) {
	if err := requireRole(actor, sc, domain.RoleViewer); err != nil {
		return nil, err
	}

	fields := map[string][]string{}
	for i, f := range filters {
		if _, ok := repository.FilterableFields[f.Field]; !ok {
			key := fmt.Sprintf("filters[%d].field", i)
			fields[key] = append(fields[key], fmt.Sprintf("field %q is not searchable", f.Field))
		}
		if !f.Operator.IsValid() {
			key := fmt.Sprintf("filters[%d].operator", i)
			fields[key] = append(fields[key], fmt.Sprintf("unknown operator %q", f.Operator))
		}
		if f.Value == nil {
			key := fmt.Sprintf("filters[%d].value", i)
			fields[key] = append(fields[key], "value is required")
		}
	}
	if len(fields) > 0 {
		return nil, domain.NewValidationError(fields)
	}

	query, page, pageSize, err := s.buildQuery(opts)
	if err != nil {
		return nil, err
	}
	query.Filters = filters
	return s.run(ctx, sc, query, page, pageSize)
}

// DateRange returns interactions starting within [from, to].
func (s *SearchService) DateRange(ctx context.Context, actor Actor, sc *sitectx.SiteContext, from, to time.Time, opts SearchOptions) (*SearchResult, error) {
	if err := requireRole(actor, sc, domain.RoleViewer); err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, domain.NewValidationError(map[string][]string{
			"end_date": {"end date must not be before start date"},
		})
	}

	query, page, pageSize, err := s.buildQuery(opts)
	if err != nil {
		return nil, err
	}
	query.DateFrom = &from
	query.DateTo = &to
	return s.run(ctx, sc, query, page, pageSize)
}

// ByType lists interactions of one type.
func (s *SearchService) ByType(ctx context.Context, actor Actor, sc *sitectx.SiteContext, interactionType domain.InteractionType, opts SearchOptions) (*SearchResult, error) {
	if err := requireRole(actor, sc, domain.RoleViewer); err != nil {
		return nil, err
	}
	if !interactionType.IsValid() {
		return nil, domain.NewValidationError(map[string][]string{
			"type": {fmt.Sprintf("unknown interaction type %q", interactionType)},
		})
	}

	query, page, pageSize, err := s.buildQuery(opts)
	if err != nil {
		return nil, err
	}
	query.Type = interactionType
	return s.run(ctx, sc, query, page, pageSize)
}

// ByLead matches the lead field.
func (s *SearchService) ByLead(ctx context.Context, actor Actor, sc *sitectx.SiteContext, lead string, opts SearchOptions) (*SearchResult, error) {
	if err := requireRole(actor, sc, domain.RoleViewer); err != nil {
		return nil, err
	}
	query, page, pageSize, err := s.buildQuery(opts)
	if err != nil {
		return nil, err
	}
	query.Lead = lead
	return s.run(ctx, sc, query, page, pageSize)
}

// Upcoming lists interactions starting after now, soonest first.
func (s *SearchService) Upcoming(ctx context.Context, actor Actor, sc *sitectx.SiteContext, opts SearchOptions) (*SearchResult, error) {
	if err := requireRole(actor, sc, domain.RoleViewer); err != nil {
		return nil, err
	}
	opts.SortBy = "start_datetime"
	opts.SortDesc = false

	query, page, pageSize, err := s.buildQuery(opts)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	query.DateFrom = &now
	return s.run(ctx, sc, query, page, pageSize)
}

// Recent lists the most recently created interactions.
func (s *SearchService) Recent(ctx context.Context, actor Actor, sc *sitectx.SiteContext, opts SearchOptions) (*SearchResult, error) {
	if err := requireRole(actor, sc, domain.RoleViewer); err != nil {
		return nil, err
	}
	opts.SortBy = "created_at"
	opts.SortDesc = true

	query, page, pageSize, err := s.buildQuery(opts)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, sc, query, page, pageSize)
}

// InvalidateCache drops cached results for the active site.
func (s *SearchService) InvalidateCache(ctx context.Context, actor Actor, sc *sitectx.SiteContext) error {
	if err := requireRole(actor, sc, domain.RoleViewer); err != nil {
		return err
	}
	if s.cache == nil {
		return nil
	}
	if err := s.cache.InvalidateSite(ctx, sc.SiteID); err != nil {
		return domain.NewInternalError(err)
	}
	return nil
}

func (s *SearchService) buildQuery(opts SearchOptions) (repository.SearchQuery, int, int, error) {
	if opts.SortBy != "" {
		if _, ok := repository.FilterableFields[opts.SortBy]; !ok {
			return repository.SearchQuery{}, 0, 0, domain.NewValidationError(map[string][]string{
				"sort_by": {fmt.Sprintf("field %q is not sortable", opts.SortBy)},
			})
		}
	}
	page, pageSize := NormalizePage(opts.Page, opts.PageSize, s.defaultPageSize, s.maxPageSize)
	return repository.SearchQuery{
		SortBy:   opts.SortBy,
		SortDesc: opts.SortDesc,
		Limit:    pageSize,
		Offset:   (page - 1) * pageSize,
	}, page, pageSize, nil
}

func (s *SearchService) run(ctx context.Context, sc *sitectx.SiteContext, query repository.SearchQuery, page, pageSize int) (*SearchResult, error) {
	key := queryKey(query)

	if s.cache != nil {
		if raw, ok, err := s.cache.Get(ctx, sc.SiteID, key); err == nil && ok {
			var result SearchResult
			if err := json.Unmarshal(raw, &result); err == nil {
				if s.metrics != nil {
					s.metrics.ObserveSearchCache("hit")
				}
				return &result, nil
			}
		}
		if s.metrics != nil {
			s.metrics.ObserveSearchCache("miss")
		}
	}

	items, total, err := s.interactionRepo.Search(ctx, sc.SiteID, query)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	result := &SearchResult{
		Items:      items,
		Pagination: NewPagination(page, pageSize, total),
	}

	if s.cache != nil {
		if raw, err := json.Marshal(result); err == nil {
			if err := s.cache.Set(ctx, sc.SiteID, key, raw, s.cacheTTL); err != nil {
				slog.Warn("failed to cache search result", "site_id", sc.SiteID, "error", err)
			}
		}
	}
	return result, nil
}

// queryKey derives a stable cache key from the full query shape.
func queryKey(query repository.SearchQuery) string {
	raw, err := json.Marshal(query)
	if err != nil {
		raw = []byte(fmt.Sprintf("%+v", query))
	}
	h := fnv.New64a()
	h.Write(raw)
	return fmt.Sprintf("%x", h.Sum64())
}
