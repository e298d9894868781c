package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/dcallahan/interaction-management/internal/api/respond"
	"github.com/dcallahan/interaction-management/internal/domain"
	"github.com/dcallahan/interaction-management/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
	wr          *respond.Writer
}

func NewAuthHandler(authService *service.AuthService, wr *respond.Writer) *AuthHandler {
	return &AuthHandler{authService: authService, wr: wr}
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (req LoginRequest) Validate() map[string][]string {
	fields := map[string][]string{}
	if strings.TrimSpace(req.Username) == "" {
		fields["username"] = append(fields["username"], "username is required")
	}
	if req.Password == "" {
		fields["password"] = append(fields["password"], "password is required")
	}
	return fields
}

type UserResponse struct {
	ID          uint       `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	IsAdmin     bool       `json:"is_admin"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func newUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		IsAdmin:     user.IsAdmin,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
	}
}

type TokenResponse struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token,omitempty"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"`
	SiteIDs      []uint       `json:"site_ids"`
}

func newTokenResponse(result *service.LoginResult) TokenResponse {
	return TokenResponse{
		User:         newUserResponse(result.User),
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		TokenType:    "bearer",
		ExpiresIn:    result.ExpiresIn,
		SiteIDs:      result.SiteIDs,
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.wr.Error(w, r, "AuthHandler.Login", err)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		h.wr.Error(w, r, "AuthHandler.Login", domain.NewValidationError(fields))
		return
	}

	result, err := h.authService.Login(r.Context(), service.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		h.wr.Error(w, r, "AuthHandler.Login", err)
		return
	}
	h.wr.Success(w, http.StatusOK, "login successful", newTokenResponse(result))
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := decodeJSON(r, &req); err != nil {
		h.wr.Error(w, r, "AuthHandler.Refresh", err)
		return
	}
	if req.RefreshToken == "" {
		h.wr.Error(w, r, "AuthHandler.Refresh", domain.NewValidationError(map[string][]string{
			"refresh_token": {"refresh_token is required"},
		}))
		return
	}

	result, err := h.authService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.wr.Error(w, r, "AuthHandler.Refresh", err)
		return
	}
	h.wr.Success(w, http.StatusOK, "token refreshed", newTokenResponse(result))
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Logout revokes the access token from the Authorization header and,
// when supplied, the refresh token from the body. Revoking twice is
// not an error.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	raw, _ := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if err := h.authService.Logout(r.Context(), raw); err != nil {
		h.wr.Error(w, r, "AuthHandler.Logout", err)
		return
	}

	var req LogoutRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err == nil && req.RefreshToken != "" {
			if err := h.authService.Logout(r.Context(), req.RefreshToken); err != nil {
				h.wr.Error(w, r, "AuthHandler.Logout", err)
				return
			}
		}
	}
	h.wr.Success(w, http.StatusOK, "logged out", nil)
}

type SiteResponse struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func newSiteResponse(site *domain.Site) SiteResponse {
	return SiteResponse{
		ID:          site.ID,
		Name:        site.Name,
		Description: site.Description,
		CreatedAt:   site.CreatedAt,
	}
}

func (h *AuthHandler) Sites(w http.ResponseWriter, r *http.Request) {
	actor, err := requestActor(r)
	if err != nil {
		h.wr.Error(w, r, "AuthHandler.Sites", err)
		return
	}

	sites, err := h.authService.AccessibleSites(r.Context(), actor)
	if err != nil {
		h.wr.Error(w, r, "AuthHandler.Sites", err)
		return
	}

	out := make([]SiteResponse, 0, len(sites))
	for _, site := range sites {
		out = append(out, newSiteResponse(site))
	}
	h.wr.Success(w, http.StatusOK, "accessible sites", out)
}

type SwitchSiteRequest struct {
	SiteID uint `json:"site_id"`
}

func (h *AuthHandler) SwitchSite(w http.ResponseWriter, r *http.Request) {
	actor, err := requestActor(r)
	if err != nil {
		h.wr.Error(w, r, "AuthHandler.SwitchSite", err)
		return
	}

	var req SwitchSiteRequest
	if err := decodeJSON(r, &req); err != nil {
		h.wr.Error(w, r, "AuthHandler.SwitchSite", err)
		return
	}
	if req.SiteID == 0 {
		h.wr.Error(w, r, "AuthHandler.SwitchSite", domain.NewValidationError(map[string][]string{
			"site_id": {"site_id is required"},
		}))
		return
	}

	sc, err := h.authService.SwitchSite(r.Context(), actor, req.SiteID)
	if err != nil {
		h.wr.Error(w, r, "AuthHandler.SwitchSite", err)
		return
	}
	h.wr.Success(w, http.StatusOK, "active site switched", map[string]any{
		"site_id": sc.SiteID,
		"role":    sc.Role,
	})
}

type MembershipResponse struct {
	SiteID uint        `json:"site_id"`
	Role   domain.Role `json:"role"`
}

func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	actor, err := requestActor(r)
	if err != nil {
		h.wr.Error(w, r, "AuthHandler.Profile", err)
		return
	}

	user, memberships, err := h.authService.Profile(r.Context(), actor)
	if err != nil {
		h.wr.Error(w, r, "AuthHandler.Profile", err)
		return
	}

	out := make([]MembershipResponse, 0, len(memberships))
	for _, m := range memberships {
		out = append(out, MembershipResponse{SiteID: m.SiteID, Role: m.Role})
	}
	h.wr.Success(w, http.StatusOK, "profile", map[string]any{
		"user":        newUserResponse(user),
		"memberships": out,
	})
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	actor, err := requestActor(r)
	if err != nil {
		h.wr.Error(w, r, "AuthHandler.ChangePassword", err)
		return
	}

	var req ChangePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		h.wr.Error(w, r, "AuthHandler.ChangePassword", err)
		return
	}

	err = h.authService.ChangePassword(r.Context(), actor, service.ChangePasswordInput{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		h.wr.Error(w, r, "AuthHandler.ChangePassword", err)
		return
	}
	h.wr.Success(w, http.StatusOK, "password changed", nil)
}

type ResetPasswordRequest struct {
	UserID      uint   `json:"user_id"`
	NewPassword string `json:"new_password"`
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	actor, err := requestActor(r)
	if err != nil {
		h.wr.Error(w, r, "AuthHandler.ResetPassword", err)
		return
	}
	sc, err := requestSite(r)
	if err != nil {
		h.wr.Error(w, r, "AuthHandler.ResetPassword", err)
		return
	}

	var req ResetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		h.wr.Error(w, r, "AuthHandler.ResetPassword", err)
		return
	}
	if req.UserID == 0 {
		h.wr.Error(w, r, "AuthHandler.ResetPassword", domain.NewValidationError(map[string][]string{
			"user_id": {"user_id is required"},
		}))
		return
	}

	if err := h.authService.ResetPassword(r.Context(), actor, sc, req.UserID, req.NewPassword); err != nil {
		h.wr.Error(w, r, "AuthHandler.ResetPassword", err)
		return
	}
	h.wr.Success(w, http.StatusOK, "password reset", nil)
}

type ResetRequestRequest struct {
	Email string `json:"email"`
}

// RequestReset responds identically whether or not the email exists.
func (h *AuthHandler) RequestReset(w http.ResponseWriter, r *http.Request) {
	var req ResetRequestRequest
	if err := decodeJSON(r, &req); err != nil {
		h.wr.Error(w, r, "AuthHandler.RequestReset", err)
		return
	}
	if req.Email == "" {
		h.wr.Error(w, r, "AuthHandler.RequestReset", domain.NewValidationError(map[string][]string{
			"email": {"email is required"},
		}))
		return
	}

	h.authService.RequestPasswordReset(r.Context(), req.Email)
	h.wr.Success(w, http.StatusOK, "if the account exists, a reset has been initiated", nil)
}
