package handlers_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/dcallahan/interaction-management/internal/domain"
	"github.com/dcallahan/interaction-management/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserCreate(t *testing.T) {
	ts := testutil.NewTestServer(t)

	site := testutil.NewSiteBuilder().Build(t, ts.DB.DB)
	_, adminToken := testutil.NewUserBuilder().
		WithMembership(site.ID, domain.RoleSiteAdmin).
		BuildAndAuthenticate(t, ts)
	_, editorToken := testutil.NewUserBuilder().
		WithMembership(site.ID, domain.RoleEditor).
		BuildAndAuthenticate(t, ts)

	t.Run("editor cannot create users", func(t *testing.T) {
		resp := ts.DoRequest(t, http.MethodPost, "/users/", editorToken, site.ID, map[string]string{
			"username": "newbie",
			"email":    "newbie@example.com",
			"password": "Newbiepass123",
		})
		testutil.AssertError(t, resp, http.StatusForbidden, "authorization")
		resp.Body.Close()
	})

	t.Run("site admin creates a member", func(t *testing.T) {
		resp := ts.DoRequest(t, http.MethodPost, "/users/", adminToken, site.ID, map[string]string{
			"username": "newbie",
			"email":    "newbie@example.com",
			"password": "Newbiepass123",
			"role":     "editor",
		})
		var created struct {
			ID       uint   `json:"id"`
			Username string `json:"username"`
		}
		testutil.AssertSuccess(t, resp, http.StatusCreated, &created)
		resp.Body.Close()

		membership, err := ts.Repos.Membership.Get(context.Background(), created.ID, site.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleEditor, membership.Role)
	})

	t.Run("duplicate username conflicts", func(t *testing.T) {
		resp := ts.DoRequest(t, http.MethodPost, "/users/", adminToken, site.ID, map[string]string{
			"username": "newbie",
			"email":    "newbie2@example.com",
			"password": "Newbiepass123",
		})
		testutil.AssertError(t, resp, http.StatusConflict, "conflict")
		resp.Body.Close()
	})

	t.Run("weak password rejected", func(t *testing.T) {
		resp := ts.DoRequest(t, http.MethodPost, "/users/", adminToken, site.ID, map[string]string{
			"username": "weakling",
			"email":    "weakling@example.com",
			"password": "short",
		})
		env := testutil.AssertError(t, resp, http.StatusBadRequest, "validation")
		resp.Body.Close()
		assert.Contains(t, env.Details.Errors, "password")
	})

	t.Run("invalid role rejected", func(t *testing.T) {
		resp := ts.DoRequest(t, http.MethodPost, "/users/", adminToken, site.ID, map[string]string{
			"username": "roleless",
			"email":    "roleless@example.com",
			"password": "Rolelesspass1",
			"role":     "owner",
		})
		env := testutil.AssertError(t, resp, http.StatusBadRequest, "validation")
		resp.Body.Close()
		assert.Contains(t, env.Details.Errors, "role")
	})
}

func TestUserGetScopedToSite(t *testing.T) {
	ts := testutil.NewTestServer(t)

	siteA := testutil.NewSiteBuilder().Build(t, ts.DB.DB)
	siteB := testutil.NewSiteBuilder().Build(t, ts.DB.DB)
	outsider, _ := testutil.NewUserBuilder().
		WithMembership(siteB.ID, domain.RoleViewer).
		Build(t, ts.DB.DB)
	member, _ := testutil.NewUserBuilder().
		WithMembership(siteA.ID, domain.RoleEditor).
		Build(t, ts.DB.DB)

	_, token := testutil.NewUserBuilder().
		WithMembership(siteA.ID, domain.RoleViewer).
		BuildAndAuthenticate(t, ts)

	resp := ts.DoRequest(t, http.MethodGet, fmt.Sprintf("/users/%d", member.ID), token, siteA.ID, nil)
	var got struct {
		ID   uint        `json:"id"`
		Role domain.Role `json:"role"`
	}
	testutil.AssertSuccess(t, resp, http.StatusOK, &got)
	resp.Body.Close()
	assert.Equal(t, member.ID, got.ID)
	assert.Equal(t, domain.RoleEditor, got.Role)

	// A user from another site looks exactly like a missing user.
	resp = ts.DoRequest(t, http.MethodGet, fmt.Sprintf("/users/%d", outsider.ID), token, siteA.ID, nil)
	testutil.AssertError(t, resp, http.StatusNotFound, "not_found")
	resp.Body.Close()
}

func TestUserDeleteRemovesMembershipOnly(t *testing.T) {
	ts := testutil.NewTestServer(t)

	siteA := testutil.NewSiteBuilder().Build(t, ts.DB.DB)
	siteB := testutil.NewSiteBuilder().Build(t, ts.DB.DB)
	member, _ := testutil.NewUserBuilder().
		WithMembership(siteA.ID, domain.RoleViewer).
		WithMembership(siteB.ID, domain.RoleViewer).
		Build(t, ts.DB.DB)

	_, adminToken := testutil.NewUserBuilder().
		WithMembership(siteA.ID, domain.RoleSiteAdmin).
		BuildAndAuthenticate(t, ts)

	resp := ts.DoRequest(t, http.MethodDelete, fmt.Sprintf("/users/%d", member.ID), adminToken, siteA.ID, nil)
	testutil.AssertSuccess(t, resp, http.StatusOK, nil)
	resp.Body.Close()

	// The account and the other site's membership survive.
	_, err := ts.Repos.User.GetByID(context.Background(), member.ID)
	require.NoError(t, err)
	_, err = ts.Repos.Membership.Get(context.Background(), member.ID, siteB.ID)
	require.NoError(t, err)
}

func TestUserList(t *testing.T) {
	ts := testutil.NewTestServer(t)

	site := testutil.NewSiteBuilder().Build(t, ts.DB.DB)
	for i := 0; i < 3; i++ {
		testutil.NewUserBuilder().
			WithMembership(site.ID, domain.RoleViewer).
			Build(t, ts.DB.DB)
	}
	_, token := testutil.NewUserBuilder().
		WithMembership(site.ID, domain.RoleViewer).
		BuildAndAuthenticate(t, ts)

	resp := ts.DoRequest(t, http.MethodGet, "/users/", token, site.ID, nil)
	defer resp.Body.Close()

	data := testutil.AssertPaginated(t, resp, nil)
	assert.Equal(t, int64(4), data.Pagination.Total)
}

func TestUserUpdate(t *testing.T) {
	ts := testutil.NewTestServer(t)

	site := testutil.NewSiteBuilder().Build(t, ts.DB.DB)
	self, token := testutil.NewUserBuilder().
		WithMembership(site.ID, domain.RoleViewer).
		BuildAndAuthenticate(t, ts)
	other, _ := testutil.NewUserBuilder().
		WithMembership(site.ID, domain.RoleViewer).
		Build(t, ts.DB.DB)

	t.Run("members may update their own email", func(t *testing.T) {
		resp := ts.DoRequest(t, http.MethodPut, fmt.Sprintf("/users/%d", self.ID), token, site.ID, map[string]string{
			"email": "renamed@example.com",
		})
		var updated struct {
			Email string `json:"email"`
		}
		testutil.AssertSuccess(t, resp, http.StatusOK, &updated)
		resp.Body.Close()
		assert.Equal(t, "renamed@example.com", updated.Email)
	})

	t.Run("updating someone else requires site_admin", func(t *testing.T) {
		resp := ts.DoRequest(t, http.MethodPut, fmt.Sprintf("/users/%d", other.ID), token, site.ID, map[string]string{
			"email": "hijacked@example.com",
		})
		testutil.AssertError(t, resp, http.StatusForbidden, "authorization")
		resp.Body.Close()
	})

	t.Run("email conflict", func(t *testing.T) {
		resp := ts.DoRequest(t, http.MethodPut, fmt.Sprintf("/users/%d", self.ID), token, site.ID, map[string]string{
			"email": other.Email,
		})
		testutil.AssertError(t, resp, http.StatusConflict, "conflict")
		resp.Body.Close()
	})
}
