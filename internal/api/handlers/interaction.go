package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/dcallahan/interaction-management/internal/api/respond"
	"github.com/dcallahan/interaction-management/internal/config"
	"github.com/dcallahan/interaction-management/internal/domain"
	"github.com/dcallahan/interaction-management/internal/service"
	"gorm.io/datatypes"
)

type InteractionHandler struct {
	interactionService *service.InteractionService
	cfg                *config.Config
	wr                 *respond.Writer
}

func NewInteractionHandler(interactionService *service.InteractionService, cfg *config.Config, wr *respond.Writer) *InteractionHandler {
	return &InteractionHandler{interactionService: interactionService, cfg: cfg, wr: wr}
}

type InteractionRequest struct {
	Title         string `json:"title"`
	Type          string `json:"type"`
	Lead          string `json:"lead"`
	StartDatetime string `json:"start_datetime"`
	EndDatetime   string `json:"end_datetime"`
	Timezone      string `json:"timezone"`
	Location      string `json:"location"`
	Description   string `json:"description"`
	Notes         string `json:"notes"`
}

// Validate checks the request and converts it to a service input. All
// problems are collected into one response rather than failing on the
// first.
func (req InteractionRequest) Validate() (service.InteractionInput, map[string][]string) {
	fields := map[string][]string{}

	if strings.TrimSpace(req.Title) == "" {
		fields["title"] = append(fields["title"], "title is required")
	}
	interactionType := domain.InteractionType(req.Type)
	if !interactionType.IsValid() {
		fields["type"] = append(fields["type"], "type must be one of meeting, call, email, site_visit, presentation, workshop, other")
	}
	if strings.TrimSpace(req.Lead) == "" {
		fields["lead"] = append(fields["lead"], "lead is required")
	}

	var start, end time.Time
	var err error
	if start, err = time.Parse(time.RFC3339, req.StartDatetime); err != nil {
		fields["start_datetime"] = append(fields["start_datetime"], "must be an RFC 3339 datetime")
	}
	if end, err = time.Parse(time.RFC3339, req.EndDatetime); err != nil {
		fields["end_datetime"] = append(fields["end_datetime"], "must be an RFC 3339 datetime")
	}
	if len(fields["start_datetime"]) == 0 && len(fields["end_datetime"]) == 0 && !end.After(start) {
		// Both fields carry the error so either form input can show it.
		fields["start_datetime"] = append(fields["start_datetime"], "end datetime must be after start datetime")
		fields["end_datetime"] = append(fields["end_datetime"], "end datetime must be after start datetime")
	}

	timezone := req.Timezone
	if timezone == "" {
		timezone = "UTC"
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		fields["timezone"] = append(fields["timezone"], "must be a valid IANA timezone name")
	}

	if len(fields) > 0 {
		return service.InteractionInput{}, fields
	}
	return service.InteractionInput{
		Title:         req.Title,
		Type:          interactionType,
		Lead:          req.Lead,
		StartDatetime: start,
		EndDatetime:   end,
		Timezone:      timezone,
		Location:      req.Location,
		Description:   req.Description,
		Notes:         req.Notes,
	}, nil
}

type InteractionResponse struct {
	ID            uint                   `json:"id"`
	SiteID        uint                   `json:"site_id"`
	Title         string                 `json:"title"`
	Type          domain.InteractionType `json:"type"`
	Lead          string                 `json:"lead"`
	StartDatetime time.Time              `json:"start_datetime"`
	EndDatetime   time.Time              `json:"end_datetime"`
	Timezone      string                 `json:"timezone"`
	Location      string                 `json:"location,omitempty"`
	Description   string                 `json:"description,omitempty"`
	Notes         string                 `json:"notes,omitempty"`
	CreatedBy     uint                   `json:"created_by"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

func newInteractionResponse(interaction *domain.Interaction) InteractionResponse {
	return InteractionResponse{
		ID:            interaction.ID,
		SiteID:        interaction.SiteID,
		Title:         interaction.Title,
		Type:          interaction.Type,
		Lead:          interaction.Lead,
		StartDatetime: interaction.StartDatetime,
		EndDatetime:   interaction.EndDatetime,
		Timezone:      interaction.Timezone,
		Location:      interaction.Location,
		Description:   interaction.Description,
		Notes:         interaction.Notes,
		CreatedBy:     interaction.CreatedBy,
		CreatedAt:     interaction.CreatedAt,
		UpdatedAt:     interaction.UpdatedAt,
	}
}

func newInteractionResponses(interactions []*domain.Interaction) []InteractionResponse {
	out := make([]InteractionResponse, 0, len(interactions))
	for _, interaction := range interactions {
		out = append(out, newInteractionResponse(interaction))
	}
	return out
}

func (h *InteractionHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, err := requestActor(r)
	if err != nil {
		h.wr.Error(w, r, "InteractionHandler.Create", err)
		return
	}
	sc, err := requestSite(r)
	if err != nil {
		h.wr.Error(w, r, "InteractionHandler.Create", err)
		return
	}

	var req InteractionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.wr.Error(w, r, "InteractionHandler.Create", err)
		return
	}
	input, fields := req.Validate()
	if len(fields) > 0 {
		h.wr.Error(w, r, "InteractionHandler.Create", domain.NewValidationError(fields))
		return
	}

	interaction, err := h.interactionService.Create(r.Context(), actor, sc, input)
	if err != nil {
		h.wr.Error(w, r, "InteractionHandler.Create", err)
		return
	}
	h.wr.Success(w, http.StatusCreated, "interaction created", newInteractionResponse(interaction))
}

func (h *InteractionHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, err := requestActor(r)
	if err != nil {
		h.wr.Error(w, r, "InteractionHandler.Get", err)
		return
	}
	sc, err := requestSite(r)
	if err != nil {
		h.wr.Error(w, r, "InteractionHandler.Get", err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		h.wr.Error(w, r, "InteractionHandler.Get", err)
		return
	}

	interaction, err := h.interactionService.Get(r.Context(), actor, sc, id)
	if err != nil {
		h.wr.Error(w, r, "InteractionHandler.Get", err)
		return
	}
	h.wr.Success(w, http.StatusOK, "interaction", newInteractionResponse(interaction))
}

func (h *InteractionHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, err := requestActor(r)
	if err != nil {
		h.wr.Error(w, r, "InteractionHandler.List", err)
		return
	}
	sc, err := requestSite(r)
	if err != nil {
		h.wr.Error(w, r, "InteractionHandler.List", err)
		return
	}

	page, pageSize := pageParams(r)
	page, pageSize = service.NormalizePage(page, pageSize, h.cfg.DefaultPageSize, h.cfg.MaxPageSize)

	interactions, pagination, err := h.interactionService.List(r.Context(), actor, sc, page, pageSize)
	if err != nil {
		h.wr.Error(w, r, "InteractionHandler.List", err)
		return
	}
	h.wr.Paginated(w, "interactions", newInteractionResponses(interactions), pagination)
}

func (h *InteractionHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, err := requestActor(r)
	if err != nil {
		h.wr.Error(w, r, "InteractionHandler.Update", err)
		return
	}
	sc, err := requestSite(r)
	if err != nil {
		h.wr.Error(w, r, "InteractionHandler.Update", err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		h.wr.Error(w, r, "InteractionHandler.Update", err)
		return
	}

	var req InteractionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.wr.Error(w, r, "InteractionHandler.Update", err)
		return
	}
	input, fields := req.Validate()
	if len(fields) > 0 {
		h.wr.Error(w, r, "InteractionHandler.Update", domain.NewValidationError(fields))
		return
	}

	interaction, err := h.interactionService.Update(r.Context(), actor, sc, id, input)
	if err != nil {
		h.wr.Error(w, r, "InteractionHandler.Update", err)
		return
	}
	h.wr.Success(w, http.StatusOK, "interaction updated", newInteractionResponse(interaction))
}

func (h *InteractionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, err := requestActor(r)
	if err != nil {
		h.wr.Error(w, r, "InteractionHandler.Delete", err)
		return
	}
	sc, err := requestSite(r)
	if err != nil {
		h.wr.Error(w, r, "InteractionHandler.Delete", err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		h.wr.Error(w, r, "InteractionHandler.Delete", err)
		return
	}

	if err := h.interactionService.Delete(r.Context(), actor, sc, id); err != nil {
		h.wr.Error(w, r, "InteractionHandler.Delete", err)
		return
	}
	h.wr.Success(w, http.StatusOK, "interaction deleted", nil)
}

type HistoryResponse struct {
	ID            uint                 `json:"id"`
	InteractionID uint                 `json:"interaction_id"`
	Action        domain.HistoryAction `json:"action"`
	Before        datatypes.JSON       `json:"before,omitempty"`
	After         datatypes.JSON       `json:"after,omitempty"`
	ChangedBy     uint                 `json:"changed_by"`
	CreatedAt     time.Time            `json:"created_at"`
}

func (h *InteractionHandler) History(w http.ResponseWriter, r *http.Request) {
	actor, err := requestActor(r)
	if err != nil {
		h.wr.Error(w, r, "InteractionHandler.History", err)
		return
	}
	sc, err := requestSite(r)
	if err != nil {
		h.wr.Error(w, r, "InteractionHandler.History", err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		h.wr.Error(w, r, "InteractionHandler.History", err)
		return
	}

	records, err := h.interactionService.History(r.Context(), actor, sc, id)
	if err != nil {
		h.wr.Error(w, r, "InteractionHandler.History", err)
		return
	}

	out := make([]HistoryResponse, 0, len(records))
	for _, record := range records {
		out = append(out, HistoryResponse{
			ID:            record.ID,
			InteractionID: record.InteractionID,
			Action:        record.Action,
			Before:        record.Before,
			After:         record.After,
			ChangedBy:     record.ChangedBy,
			CreatedAt:     record.CreatedAt,
		})
	}
	h.wr.Success(w, http.StatusOK, "interaction history", out)
}
