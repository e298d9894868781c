package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dcallahan/interaction-management/internal/api/respond"
	"github.com/dcallahan/interaction-management/internal/domain"
	"github.com/dcallahan/interaction-management/internal/repository"
	"github.com/dcallahan/interaction-management/internal/service"
	"github.com/go-chi/chi/v5"
)

type SearchHandler struct {
	searchService *service.SearchService
	wr            *respond.Writer
}

func NewSearchHandler(searchService *service.SearchService, wr *respond.Writer) *SearchHandler {
	return &SearchHandler{searchService: searchService, wr: wr}
}

// searchOptions reads the shared pagination and sorting query
// parameters. Page bounds are normalized by the service.
func searchOptions(r *http.Request) service.SearchOptions {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))
	sortDesc, _ := strconv.ParseBool(q.Get("sort_desc"))
	return service.SearchOptions{
		Page:     page,
		PageSize: pageSize,
		SortBy:   q.Get("sort_by"),
		SortDesc: sortDesc,
	}
}

func (h *SearchHandler) respondResult(w http.ResponseWriter, result *service.SearchResult) {
	h.wr.Paginated(w, "search results", result.Items, result.Pagination)
}

func (h *SearchHandler) Text(w http.ResponseWriter, r *http.Request) {
	actor, err := requestActor(r)
	if err != nil {
		h.wr.Error(w, r, "SearchHandler.Text", err)
		return
	}
	sc, err := requestSite(r)
	if err != nil {
		h.wr.Error(w, r, "SearchHandler.Text", err)
		return
	}

	text := r.URL.Query().Get("q")
	if text == "" {
		h.wr.Error(w, r, "SearchHandler.Text", domain.NewValidationError(map[string][]string{
			"q": {"query parameter q is required"},
		}))
		return
	}

	result, err := h.searchService.Text(r.Context(), actor, sc, text, searchOptions(r))
	if err != nil {
		h.wr.Error(w, r, "SearchHandler.Text", err)
		return
	}
	h.respondResult(w, result)
}

type AdvancedSearchRequest struct {
	Filters []struct {
		Field    string `json:"field"`
		Operator string `json:"operator"`
		Value    any    `json:"value"`
	} `json:"filters"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	SortBy   string `json:"sort_by"`
	SortDesc bool   `json:"sort_desc"`
}

func (h *SearchHandler) Advanced(w http.ResponseWriter, r *http.Request) {
	actor, err := requestActor(r)
	if err != nil {
		h.wr.Error(w, r, "SearchHandler.Advanced", err)
		return
	}
	sc, err := requestSite(r)
	if err != nil {
		h.wr.Error(w, r, "SearchHandler.Advanced", err)
		return
	}

	var req AdvancedSearchRequest
	if err := decodeJSON(r, &req); err != nil {
		h.wr.Error(w, r, "SearchHandler.Advanced", err)
		return
	}
	if len(req.Filters) == 0 {
		h.wr.Error(w, r, "SearchHandler.Advanced", domain.NewValidationError(map[string][]string{
			"filters": {"at least one filter is required"},
		}))
		return
	}

	filters := make([]repository.Filter, 0, len(req.Filters))
	for _, f := range req.Filters {
		filters = append(filters, repository.Filter{
			Field:    f.Field,
			Operator: repository.FilterOperator(f.Operator),
			Value:    f.Value,
		})
	}

	opts := service.SearchOptions{
		Page:     req.Page,
		PageSize: req.PageSize,
		SortBy:   req.SortBy,
		SortDesc: req.SortDesc,
	}
	result, err := h.searchService.Advanced(r.Context(), actor, sc, filters, opts)
	if err != nil {
		h.wr.Error(w, r, "SearchHandler.Advanced", err)
		return
	}
	h.respondResult(w, result)
}

func (h *SearchHandler) DateRange(w http.ResponseWriter, r *http.Request) {
	actor, err := requestActor(r)
	if err != nil {
		h.wr.Error(w, r, "SearchHandler.DateRange", err)
		return
	}
	sc, err := requestSite(r)
	if err != nil {
		h.wr.Error(w, r, "SearchHandler.DateRange", err)
		return
	}

	q := r.URL.Query()
	fields := map[string][]string{}
	from, err := parseDateParam(q.Get("start_date"))
	if err != nil {
		fields["start_date"] = append(fields["start_date"], "must be an RFC 3339 datetime or YYYY-MM-DD date")
	}
	to, err := parseDateParam(q.Get("end_date"))
	if err != nil {
		fields["end_date"] = append(fields["end_date"], "must be an RFC 3339 datetime or YYYY-MM-DD date")
	}
	if len(fields) > 0 {
		h.wr.Error(w, r, "SearchHandler.DateRange", domain.NewValidationError(fields))
		return
	}

	result, err := h.searchService.DateRange(r.Context(), actor, sc, from, to, searchOptions(r))
	if err != nil {
		h.wr.Error(w, r, "SearchHandler.DateRange", err)
		return
	}
	h.respondResult(w, result)
}

func (h *SearchHandler) ByType(w http.ResponseWriter, r *http.Request) {
	actor, err := requestActor(r)
	if err != nil {
		h.wr.Error(w, r, "SearchHandler.ByType", err)
		return
	}
	sc, err := requestSite(r)
	if err != nil {
		h.wr.Error(w, r, "SearchHandler.ByType", err)
		return
	}

	interactionType := domain.InteractionType(chi.URLParam(r, "type"))
	result, err := h.searchService.ByType(r.Context(), actor, sc, interactionType, searchOptions(r))
	if err != nil {
		h.wr.Error(w, r, "SearchHandler.ByType", err)
		return
	}
	h.respondResult(w, result)
}

func (h *SearchHandler) ByLead(w http.ResponseWriter, r *http.Request) {
	actor, err := requestActor(r)
	if err != nil {
		h.wr.Error(w, r, "SearchHandler.ByLead", err)
		return
	}
	sc, err := requestSite(r)
	if err != nil {
		h.wr.Error(w, r, "SearchHandler.ByLead", err)
		return
	}

	lead := r.URL.Query().Get("lead")
	if lead == "" {
		h.wr.Error(w, r, "SearchHandler.ByLead", domain.NewValidationError(map[string][]string{
			"lead": {"query parameter lead is required"},
		}))
		return
	}

	result, err := h.searchService.ByLead(r.Context(), actor, sc, lead, searchOptions(r))
	if err != nil {
		h.wr.Error(w, r, "SearchHandler.ByLead", err)
		return
	}
	h.respondResult(w, result)
}

func (h *SearchHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	actor, err := requestActor(r)
	if err != nil {
		h.wr.Error(w, r, "SearchHandler.Upcoming", err)
		return
	}
	sc, err := requestSite(r)
	if err != nil {
		h.wr.Error(w, r, "SearchHandler.Upcoming", err)
		return
	}

	result, err := h.searchService.Upcoming(r.Context(), actor, sc, searchOptions(r))
	if err != nil {
		h.wr.Error(w, r, "SearchHandler.Upcoming", err)
		return
	}
	h.respondResult(w, result)
}

func (h *SearchHandler) Recent(w http.ResponseWriter, r *http.Request) {
	actor, err := requestActor(r)
	if err != nil {
		h.wr.Error(w, r, "SearchHandler.Recent", err)
		return
	}
	sc, err := requestSite(r)
	if err != nil {
		h.wr.Error(w, r, "SearchHandler.Recent", err)
		return
	}

	result, err := h.searchService.Recent(r.Context(), actor, sc, searchOptions(r))
	if err != nil {
		h.wr.Error(w, r, "SearchHandler.Recent", err)
		return
	}
	h.respondResult(w, result)
}

func (h *SearchHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	actor, err := requestActor(r)
	if err != nil {
		h.wr.Error(w, r, "SearchHandler.InvalidateCache", err)
		return
	}
	sc, err := requestSite(r)
	if err != nil {
		h.wr.Error(w, r, "SearchHandler.InvalidateCache", err)
		return
	}

	if err := h.searchService.InvalidateCache(r.Context(), actor, sc); err != nil {
		h.wr.Error(w, r, "SearchHandler.InvalidateCache", err)
		return
	}
	h.wr.Success(w, http.StatusOK, "search cache invalidated", nil)
}

// parseDateParam accepts a full RFC 3339 datetime or a bare date.
func parseDateParam(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}
