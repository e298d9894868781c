package handlers_test

import (
	"net/http"
	"testing"

	"github.com/dcallahan/interaction-management/internal/domain"
	"github.com/dcallahan/interaction-management/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	ts := testutil.NewTestServer(t)

	site := testutil.NewSiteBuilder().Build(t, ts.DB.DB)
	_, password := testutil.NewUserBuilder().
		WithUsername("login_user").
		WithMembership(site.ID, domain.RoleEditor).
		Build(t, ts.DB.DB)

	t.Run("valid credentials", func(t *testing.T) {
		resp := ts.DoRequest(t, http.MethodPost, "/auth/login", "", 0, map[string]string{
			"username": "login_user",
			"password": password,
		})
		defer resp.Body.Close()

		var data testutil.TokenData
		testutil.AssertSuccess(t, resp, http.StatusOK, &data)
		assert.NotEmpty(t, data.AccessToken)
		assert.NotEmpty(t, data.RefreshToken)
		assert.Equal(t, []uint{site.ID}, data.SiteIDs)
	})

	t.Run("wrong password", func(t *testing.T) {
		resp := ts.DoRequest(t, http.MethodPost, "/auth/login", "", 0, map[string]string{
			"username": "login_user",
			"password": "Wrongpassword1",
		})
		defer resp.Body.Close()

		testutil.AssertError(t, resp, http.StatusUnauthorized, "authentication")
	})

	t.Run("unknown username looks identical to wrong password", func(t *testing.T) {
		resp := ts.DoRequest(t, http.MethodPost, "/auth/login", "", 0, map[string]string{
			"username": "no_such_user",
			"password": "Wrongpassword1",
		})
		defer resp.Body.Close()

		env := testutil.AssertError(t, resp, http.StatusUnauthorized, "authentication")
		assert.Equal(t, "invalid username or password", env.Message)
	})

	t.Run("missing fields", func(t *testing.T) {
		resp := ts.DoRequest(t, http.MethodPost, "/auth/login", "", 0, map[string]string{})
		defer resp.Body.Close()

		env := testutil.AssertError(t, resp, http.StatusBadRequest, "validation")
		assert.Contains(t, env.Details.Errors, "username")
		assert.Contains(t, env.Details.Errors, "password")
	})
}

func TestRefresh(t *testing.T) {
	ts := testutil.NewTestServer(t)

	site := testutil.NewSiteBuilder().Build(t, ts.DB.DB)
	_, password := testutil.NewUserBuilder().
		WithUsername("refresh_user").
		WithMembership(site.ID, domain.RoleViewer).
		Build(t, ts.DB.DB)

	resp := ts.DoRequest(t, http.MethodPost, "/auth/login", "", 0, map[string]string{
		"username": "refresh_user",
		"password": password,
	})
	var login testutil.TokenData
	testutil.AssertSuccess(t, resp, http.StatusOK, &login)
	resp.Body.Close()

	t.Run("valid refresh token", func(t *testing.T) {
		resp := ts.DoRequest(t, http.MethodPost, "/auth/refresh", "", 0, map[string]string{
			"refresh_token": login.RefreshToken,
		})
		defer resp.Body.Close()

		var data testutil.TokenData
		testutil.AssertSuccess(t, resp, http.StatusOK, &data)
		assert.NotEmpty(t, data.AccessToken)
	})

	t.Run("access token rejected", func(t *testing.T) {
		resp := ts.DoRequest(t, http.MethodPost, "/auth/refresh", "", 0, map[string]string{
			"refresh_token": login.AccessToken,
		})
		defer resp.Body.Close()

		testutil.AssertError(t, resp, http.StatusUnauthorized, "authentication")
	})
}

func TestLogout(t *testing.T) {
	ts := testutil.NewTestServer(t)

	site := testutil.NewSiteBuilder().Build(t, ts.DB.DB)
	_, token := testutil.NewUserBuilder().
		WithMembership(site.ID, domain.RoleViewer).
		BuildAndAuthenticate(t, ts)

	resp := ts.DoRequest(t, http.MethodPost, "/auth/logout", token, 0, nil)
	testutil.AssertSuccess(t, resp, http.StatusOK, nil)
	resp.Body.Close()

	// The revoked token no longer authenticates.
	resp = ts.DoRequest(t, http.MethodGet, "/auth/profile", token, 0, nil)
	testutil.AssertError(t, resp, http.StatusUnauthorized, "authentication")
	resp.Body.Close()
}

func TestProfile(t *testing.T) {
	ts := testutil.NewTestServer(t)

	site := testutil.NewSiteBuilder().Build(t, ts.DB.DB)
	user, token := testutil.NewUserBuilder().
		WithMembership(site.ID, domain.RoleSiteAdmin).
		BuildAndAuthenticate(t, ts)

	resp := ts.DoRequest(t, http.MethodGet, "/auth/profile", token, 0, nil)
	defer resp.Body.Close()

	var data struct {
		User struct {
			ID       uint   `json:"id"`
			Username string `json:"username"`
		} `json:"user"`
		Memberships []struct {
			SiteID uint        `json:"site_id"`
			Role   domain.Role `json:"role"`
		} `json:"memberships"`
	}
	testutil.AssertSuccess(t, resp, http.StatusOK, &data)
	assert.Equal(t, user.ID, data.User.ID)
	require.Len(t, data.Memberships, 1)
	assert.Equal(t, domain.RoleSiteAdmin, data.Memberships[0].Role)
}

func TestSwitchSite(t *testing.T) {
	ts := testutil.NewTestServer(t)

	siteA := testutil.NewSiteBuilder().Build(t, ts.DB.DB)
	siteB := testutil.NewSiteBuilder().Build(t, ts.DB.DB)
	forbidden := testutil.NewSiteBuilder().Build(t, ts.DB.DB)
	_, token := testutil.NewUserBuilder().
		WithMembership(siteA.ID, domain.RoleViewer).
		WithMembership(siteB.ID, domain.RoleEditor).
		BuildAndAuthenticate(t, ts)

	t.Run("switch to accessible site", func(t *testing.T) {
		resp := ts.DoRequest(t, http.MethodPost, "/auth/site", token, 0, map[string]uint{
			"site_id": siteB.ID,
		})
		defer resp.Body.Close()

		var data struct {
			SiteID uint        `json:"site_id"`
			Role   domain.Role `json:"role"`
		}
		testutil.AssertSuccess(t, resp, http.StatusOK, &data)
		assert.Equal(t, siteB.ID, data.SiteID)
		assert.Equal(t, domain.RoleEditor, data.Role)
	})

	t.Run("inaccessible site fails closed", func(t *testing.T) {
		resp := ts.DoRequest(t, http.MethodPost, "/auth/site", token, 0, map[string]uint{
			"site_id": forbidden.ID,
		})
		defer resp.Body.Close()

		testutil.AssertError(t, resp, http.StatusForbidden, "site_context")
	})

	t.Run("previous selection survives a failed switch", func(t *testing.T) {
		resp := ts.DoRequest(t, http.MethodGet, "/interactions/", token, 0, nil)
		defer resp.Body.Close()

		// Still scoped to siteB from the successful switch above.
		testutil.AssertSuccess(t, resp, http.StatusOK, nil)
	})
}

func TestAccessibleSites(t *testing.T) {
	ts := testutil.NewTestServer(t)

	siteA := testutil.NewSiteBuilder().Build(t, ts.DB.DB)
	siteB := testutil.NewSiteBuilder().Build(t, ts.DB.DB)
	testutil.NewSiteBuilder().Build(t, ts.DB.DB)
	_, token := testutil.NewUserBuilder().
		WithMembership(siteA.ID, domain.RoleViewer).
		WithMembership(siteB.ID, domain.RoleViewer).
		BuildAndAuthenticate(t, ts)

	resp := ts.DoRequest(t, http.MethodGet, "/auth/sites", token, 0, nil)
	defer resp.Body.Close()

	var sites []struct {
		ID uint `json:"id"`
	}
	testutil.AssertSuccess(t, resp, http.StatusOK, &sites)
	require.Len(t, sites, 2)
}

func TestChangePassword(t *testing.T) {
	ts := testutil.NewTestServer(t)

	site := testutil.NewSiteBuilder().Build(t, ts.DB.DB)
	builder := testutil.NewUserBuilder().
		WithUsername("pw_user").
		WithMembership(site.ID, domain.RoleViewer)
	_, token := builder.BuildAndAuthenticate(t, ts)

	t.Run("weak new password rejected", func(t *testing.T) {
		resp := ts.DoRequest(t, http.MethodPost, "/auth/password/change", token, 0, map[string]string{
			"current_password": "Testpassword123",
			"new_password":     "short",
			"confirm_password": "short",
		})
		defer resp.Body.Close()

		env := testutil.AssertError(t, resp, http.StatusBadRequest, "validation")
		assert.Contains(t, env.Details.Errors, "new_password")
	})

	t.Run("mismatched confirmation rejected", func(t *testing.T) {
		resp := ts.DoRequest(t, http.MethodPost, "/auth/password/change", token, 0, map[string]string{
			"current_password": "Testpassword123",
			"new_password":     "Newpassword123",
			"confirm_password": "Different123",
		})
		defer resp.Body.Close()

		env := testutil.AssertError(t, resp, http.StatusBadRequest, "validation")
		assert.Contains(t, env.Details.Errors, "confirm_password")
	})

	t.Run("wrong current password", func(t *testing.T) {
		resp := ts.DoRequest(t, http.MethodPost, "/auth/password/change", token, 0, map[string]string{
			"current_password": "Wrongcurrent1",
			"new_password":     "Newpassword123",
			"confirm_password": "Newpassword123",
		})
		defer resp.Body.Close()

		testutil.AssertError(t, resp, http.StatusUnauthorized, "authentication")
	})

	t.Run("successful change", func(t *testing.T) {
		resp := ts.DoRequest(t, http.MethodPost, "/auth/password/change", token, 0, map[string]string{
			"current_password": "Testpassword123",
			"new_password":     "Newpassword123",
			"confirm_password": "Newpassword123",
		})
		testutil.AssertSuccess(t, resp, http.StatusOK, nil)
		resp.Body.Close()

		// Old password no longer works, new one does.
		resp = ts.DoRequest(t, http.MethodPost, "/auth/login", "", 0, map[string]string{
			"username": "pw_user",
			"password": "Testpassword123",
		})
		testutil.AssertError(t, resp, http.StatusUnauthorized, "authentication")
		resp.Body.Close()

		resp = ts.DoRequest(t, http.MethodPost, "/auth/login", "", 0, map[string]string{
			"username": "pw_user",
			"password": "Newpassword123",
		})
		testutil.AssertSuccess(t, resp, http.StatusOK, nil)
		resp.Body.Close()
	})
}

func TestRequestPasswordReset(t *testing.T) {
	ts := testutil.NewTestServer(t)

	site := testutil.NewSiteBuilder().Build(t, ts.DB.DB)
	user, _ := testutil.NewUserBuilder().
		WithMembership(site.ID, domain.RoleViewer).
		Build(t, ts.DB.DB)

	// Response must be identical for known and unknown emails.
	known := ts.DoRequest(t, http.MethodPost, "/auth/password/reset", "", 0, map[string]string{
		"email": user.Email,
	})
	knownEnv := testutil.AssertSuccess(t, known, http.StatusOK, nil)
	known.Body.Close()

	unknown := ts.DoRequest(t, http.MethodPost, "/auth/password/reset", "", 0, map[string]string{
		"email": "nobody@example.com",
	})
	unknownEnv := testutil.AssertSuccess(t, unknown, http.StatusOK, nil)
	unknown.Body.Close()

	assert.Equal(t, knownEnv.Message, unknownEnv.Message)
}
