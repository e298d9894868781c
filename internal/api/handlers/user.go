package handlers

import (
	"net/http"
	"strings"

	"github.com/dcallahan/interaction-management/internal/api/respond"
	"github.com/dcallahan/interaction-management/internal/config"
	"github.com/dcallahan/interaction-management/internal/domain"
	"github.com/dcallahan/interaction-management/internal/service"
)

type UserHandler struct {
	userService *service.UserService
	cfg         *config.Config
	wr          *respond.Writer
}

func NewUserHandler(userService *service.UserService, cfg *config.Config, wr *respond.Writer) *UserHandler {
	return &UserHandler{userService: userService, cfg: cfg, wr: wr}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, err := requestActor(r)
	if err != nil {
		h.wr.Error(w, r, "UserHandler.List", err)
		return
	}
	sc, err := requestSite(r)
	if err != nil {
		h.wr.Error(w, r, "UserHandler.List", err)
		return
	}

	page, pageSize := pageParams(r)
	page, pageSize = service.NormalizePage(page, pageSize, h.cfg.DefaultPageSize, h.cfg.MaxPageSize)

	users, pagination, err := h.userService.List(r.Context(), actor, sc, page, pageSize)
	if err != nil {
		h.wr.Error(w, r, "UserHandler.List", err)
		return
	}

	out := make([]UserResponse, 0, len(users))
	for _, user := range users {
		out = append(out, newUserResponse(user))
	}
	h.wr.Paginated(w, "site members", out, pagination)
}

type MemberResponse struct {
	UserResponse
	Role domain.Role `json:"role"`
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, err := requestActor(r)
	if err != nil {
		h.wr.Error(w, r, "UserHandler.Get", err)
		return
	}
	sc, err := requestSite(r)
	if err != nil {
		h.wr.Error(w, r, "UserHandler.Get", err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		h.wr.Error(w, r, "UserHandler.Get", err)
		return
	}

	user, membership, err := h.userService.Get(r.Context(), actor, sc, id)
	if err != nil {
		h.wr.Error(w, r, "UserHandler.Get", err)
		return
	}
	h.wr.Success(w, http.StatusOK, "user", MemberResponse{
		UserResponse: newUserResponse(user),
		Role:         membership.Role,
	})
}

type CreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (req CreateUserRequest) Validate() map[string][]string {
	fields := map[string][]string{}
	if strings.TrimSpace(req.Username) == "" {
		fields["username"] = append(fields["username"], "username is required")
	}
	if !strings.Contains(req.Email, "@") {
		fields["email"] = append(fields["email"], "a valid email is required")
	}
	if req.Password == "" {
		fields["password"] = append(fields["password"], "password is required")
	}
	if req.Role != "" && !domain.Role(req.Role).IsValid() {
		fields["role"] = append(fields["role"], "role must be one of viewer, editor, site_admin")
	}
	return fields
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, err := requestActor(r)
	if err != nil {
		h.wr.Error(w, r, "UserHandler.Create", err)
		return
	}
	sc, err := requestSite(r)
	if err != nil {
		h.wr.Error(w, r, "UserHandler.Create", err)
		return
	}

	var req CreateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		h.wr.Error(w, r, "UserHandler.Create", err)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		h.wr.Error(w, r, "UserHandler.Create", domain.NewValidationError(fields))
		return
	}

	role := domain.Role(req.Role)
	if role == "" {
		role = domain.RoleViewer
	}

	user, err := h.userService.Create(r.Context(), actor, sc, service.CreateUserInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     role,
	})
	if err != nil {
		h.wr.Error(w, r, "UserHandler.Create", err)
		return
	}
	h.wr.Success(w, http.StatusCreated, "user created", newUserResponse(user))
}

type UpdateUserRequest struct {
	Email *string `json:"email"`
}

func (req UpdateUserRequest) Validate() map[string][]string {
	fields := map[string][]string{}
	if req.Email != nil && !strings.Contains(*req.Email, "@") {
		fields["email"] = append(fields["email"], "a valid email is required")
	}
	return fields
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, err := requestActor(r)
	if err != nil {
		h.wr.Error(w, r, "UserHandler.Update", err)
		return
	}
	sc, err := requestSite(r)
	if err != nil {
		h.wr.Error(w, r, "UserHandler.Update", err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		h.wr.Error(w, r, "UserHandler.Update", err)
		return
	}

	var req UpdateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		h.wr.Error(w, r, "UserHandler.Update", err)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		h.wr.Error(w, r, "UserHandler.Update", domain.NewValidationError(fields))
		return
	}

	user, err := h.userService.Update(r.Context(), actor, sc, id, service.UpdateUserInput{Email: req.Email})
	if err != nil {
		h.wr.Error(w, r, "UserHandler.Update", err)
		return
	}
	h.wr.Success(w, http.StatusOK, "user updated", newUserResponse(user))
}

// Delete removes the user from the active site. Their account and other
// site memberships are untouched.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, err := requestActor(r)
	if err != nil {
		h.wr.Error(w, r, "UserHandler.Delete", err)
		return
	}
	sc, err := requestSite(r)
	if err != nil {
		h.wr.Error(w, r, "UserHandler.Delete", err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		h.wr.Error(w, r, "UserHandler.Delete", err)
		return
	}

	if err := h.userService.Delete(r.Context(), actor, sc, id); err != nil {
		h.wr.Error(w, r, "UserHandler.Delete", err)
		return
	}
	h.wr.Success(w, http.StatusOK, "user removed from site", nil)
}
