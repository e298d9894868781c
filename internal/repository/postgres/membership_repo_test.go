package postgres_test

import (
	"context"
	"testing"

	"github.com/dcallahan/interaction-management/internal/domain"
	"github.com/dcallahan/interaction-management/internal/repository/postgres"
	"github.com/dcallahan/interaction-management/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMembershipRepository_UpsertKeepsSingleRole(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewMembershipRepository(testDB.DB)
	ctx := context.Background()

	site := testutil.NewSiteBuilder().Build(t, testDB.DB)
	user, _ := testutil.NewUserBuilder().Build(t, testDB.DB)

	require.NoError(t, repo.Upsert(ctx, &domain.UserSite{
		UserID: user.ID, SiteID: site.ID, Role: domain.RoleViewer,
	}))
	require.NoError(t, repo.Upsert(ctx, &domain.UserSite{
		UserID: user.ID, SiteID: site.ID, Role: domain.RoleEditor,
	}))

	memberships, err := repo.ListBySite(ctx, site.ID)
	require.NoError(t, err)
	require.Len(t, memberships, 1, "upsert must not create a second row")
	assert.Equal(t, domain.RoleEditor, memberships[0].Role)
}

func TestMembershipRepository_SiteIDsByUser(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewMembershipRepository(testDB.DB)
	ctx := context.Background()

	siteA := testutil.NewSiteBuilder().Build(t, testDB.DB)
	siteB := testutil.NewSiteBuilder().Build(t, testDB.DB)
	user, _ := testutil.NewUserBuilder().
		WithMembership(siteA.ID, domain.RoleViewer).
		WithMembership(siteB.ID, domain.RoleSiteAdmin).
		Build(t, testDB.DB)

	ids, err := repo.SiteIDsByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{siteA.ID, siteB.ID}, ids)
}

func TestMembershipRepository_SiteIDsByEmail(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewMembershipRepository(testDB.DB)
	ctx := context.Background()

	site := testutil.NewSiteBuilder().Build(t, testDB.DB)
	user, _ := testutil.NewUserBuilder().
		WithMembership(site.ID, domain.RoleEditor).
		Build(t, testDB.DB)

	ids, err := repo.SiteIDsByEmail(ctx, user.Email)
	require.NoError(t, err)
	assert.Equal(t, []uint{site.ID}, ids)

	ids, err = repo.SiteIDsByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestMembershipRepository_Delete(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewMembershipRepository(testDB.DB)
	ctx := context.Background()

	site := testutil.NewSiteBuilder().Build(t, testDB.DB)
	user, _ := testutil.NewUserBuilder().
		WithMembership(site.ID, domain.RoleViewer).
		Build(t, testDB.DB)

	require.NoError(t, repo.Delete(ctx, user.ID, site.ID))

	_, err := repo.Get(ctx, user.ID, site.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
