package handlers

import (
	"net/http"
	"strings"

	"github.com/dcallahan/interaction-management/internal/api/respond"
	"github.com/dcallahan/interaction-management/internal/config"
	"github.com/dcallahan/interaction-management/internal/domain"
	"github.com/dcallahan/interaction-management/internal/service"
)

type SiteHandler struct {
	siteService *service.SiteService
	cfg         *config.Config
	wr          *respond.Writer
}

func NewSiteHandler(siteService *service.SiteService, cfg *config.Config, wr *respond.Writer) *SiteHandler {
	return &SiteHandler{siteService: siteService, cfg: cfg, wr: wr}
}

func (h *SiteHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, err := requestActor(r)
	if err != nil {
		h.wr.Error(w, r, "SiteHandler.List", err)
		return
	}

	page, pageSize := pageParams(r)
	page, pageSize = service.NormalizePage(page, pageSize, h.cfg.DefaultPageSize, h.cfg.MaxPageSize)

	sites, pagination, err := h.siteService.List(r.Context(), actor, page, pageSize)
	if err != nil {
		h.wr.Error(w, r, "SiteHandler.List", err)
		return
	}

	out := make([]SiteResponse, 0, len(sites))
	for _, site := range sites {
		out = append(out, newSiteResponse(site))
	}
	h.wr.Paginated(w, "sites", out, pagination)
}

func (h *SiteHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, err := requestActor(r)
	if err != nil {
		h.wr.Error(w, r, "SiteHandler.Get", err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		h.wr.Error(w, r, "SiteHandler.Get", err)
		return
	}

	site, err := h.siteService.Get(r.Context(), actor, id)
	if err != nil {
		h.wr.Error(w, r, "SiteHandler.Get", err)
		return
	}
	h.wr.Success(w, http.StatusOK, "site", newSiteResponse(site))
}

type SiteRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (req SiteRequest) Validate() map[string][]string {
	fields := map[string][]string{}
	if strings.TrimSpace(req.Name) == "" {
		fields["name"] = append(fields["name"], "name is required")
	}
	return fields
}

func (h *SiteHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, err := requestActor(r)
	if err != nil {
		h.wr.Error(w, r, "SiteHandler.Create", err)
		return
	}

	var req SiteRequest
	if err := decodeJSON(r, &req); err != nil {
		h.wr.Error(w, r, "SiteHandler.Create", err)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		h.wr.Error(w, r, "SiteHandler.Create", domain.NewValidationError(fields))
		return
	}

	site, err := h.siteService.Create(r.Context(), actor, service.SiteInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		h.wr.Error(w, r, "SiteHandler.Create", err)
		return
	}
	h.wr.Success(w, http.StatusCreated, "site created", newSiteResponse(site))
}

func (h *SiteHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, err := requestActor(r)
	if err != nil {
		h.wr.Error(w, r, "SiteHandler.Update", err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		h.wr.Error(w, r, "SiteHandler.Update", err)
		return
	}

	var req SiteRequest
	if err := decodeJSON(r, &req); err != nil {
		h.wr.Error(w, r, "SiteHandler.Update", err)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		h.wr.Error(w, r, "SiteHandler.Update", domain.NewValidationError(fields))
		return
	}

	site, err := h.siteService.Update(r.Context(), actor, id, service.SiteInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		h.wr.Error(w, r, "SiteHandler.Update", err)
		return
	}
	h.wr.Success(w, http.StatusOK, "site updated", newSiteResponse(site))
}

func (h *SiteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, err := requestActor(r)
	if err != nil {
		h.wr.Error(w, r, "SiteHandler.Delete", err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		h.wr.Error(w, r, "SiteHandler.Delete", err)
		return
	}

	if err := h.siteService.Delete(r.Context(), actor, id); err != nil {
		h.wr.Error(w, r, "SiteHandler.Delete", err)
		return
	}
	h.wr.Success(w, http.StatusOK, "site deleted", nil)
}

type SiteMemberResponse struct {
	UserID uint        `json:"user_id"`
	SiteID uint        `json:"site_id"`
	Role   domain.Role `json:"role"`
}

func (h *SiteHandler) Members(w http.ResponseWriter, r *http.Request) {
	actor, err := requestActor(r)
	if err != nil {
		h.wr.Error(w, r, "SiteHandler.Members", err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		h.wr.Error(w, r, "SiteHandler.Members", err)
		return
	}

	memberships, err := h.siteService.Members(r.Context(), actor, id)
	if err != nil {
		h.wr.Error(w, r, "SiteHandler.Members", err)
		return
	}

	out := make([]SiteMemberResponse, 0, len(memberships))
	for _, m := range memberships {
		out = append(out, SiteMemberResponse{UserID: m.UserID, SiteID: m.SiteID, Role: m.Role})
	}
	h.wr.Success(w, http.StatusOK, "site members", out)
}

type SetMemberRoleRequest struct {
	Role string `json:"role"`
}

func (h *SiteHandler) SetMemberRole(w http.ResponseWriter, r *http.Request) {
	actor, err := requestActor(r)
	if err != nil {
		h.wr.Error(w, r, "SiteHandler.SetMemberRole", err)
		return
	}
	siteID, err := pathID(r, "id")
	if err != nil {
		h.wr.Error(w, r, "SiteHandler.SetMemberRole", err)
		return
	}
	userID, err := pathID(r, "user_id")
	if err != nil {
		h.wr.Error(w, r, "SiteHandler.SetMemberRole", err)
		return
	}

	var req SetMemberRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		h.wr.Error(w, r, "SiteHandler.SetMemberRole", err)
		return
	}
	role := domain.Role(req.Role)
	if !role.IsValid() {
		h.wr.Error(w, r, "SiteHandler.SetMemberRole", domain.NewValidationError(map[string][]string{
			"role": {"role must be one of viewer, editor, site_admin"},
		}))
		return
	}

	membership, err := h.siteService.SetMemberRole(r.Context(), actor, siteID, userID, role)
	if err != nil {
		h.wr.Error(w, r, "SiteHandler.SetMemberRole", err)
		return
	}
	h.wr.Success(w, http.StatusOK, "member role updated", SiteMemberResponse{
		UserID: membership.UserID,
		SiteID: membership.SiteID,
		Role:   membership.Role,
	})
}

func (h *SiteHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	actor, err := requestActor(r)
	if err != nil {
		h.wr.Error(w, r, "SiteHandler.RemoveMember", err)
		return
	}
	siteID, err := pathID(r, "id")
	if err != nil {
		h.wr.Error(w, r, "SiteHandler.RemoveMember", err)
		return
	}
	userID, err := pathID(r, "user_id")
	if err != nil {
		h.wr.Error(w, r, "SiteHandler.RemoveMember", err)
		return
	}

	if err := h.siteService.RemoveMember(r.Context(), actor, siteID, userID); err != nil {
		h.wr.Error(w, r, "SiteHandler.RemoveMember", err)
		return
	}
	h.wr.Success(w, http.StatusOK, "member removed", nil)
}
