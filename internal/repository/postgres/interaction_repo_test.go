package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/dcallahan/interaction-management/internal/domain"
	"github.com/dcallahan/interaction-management/internal/repository"
	"github.com/dcallahan/interaction-management/internal/repository/postgres"
	"github.com/dcallahan/interaction-management/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestInteractionRepository_SiteScoping(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewInteractionRepository(testDB.DB)
	ctx := context.Background()

	siteA := testutil.NewSiteBuilder().Build(t, testDB.DB)
	siteB := testutil.NewSiteBuilder().Build(t, testDB.DB)
	owner, _ := testutil.NewUserBuilder().Build(t, testDB.DB)

	interaction := testutil.NewInteractionBuilder(siteA.ID).
		WithCreatedBy(owner.ID).
		Build(t, testDB.DB)

	got, err := repo.GetByID(ctx, siteA.ID, interaction.ID)
	require.NoError(t, err)
	assert.Equal(t, interaction.Title, got.Title)

	// The same id under another site must look nonexistent.
	_, err = repo.GetByID(ctx, siteB.ID, interaction.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestInteractionRepository_Search(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewInteractionRepository(testDB.DB)
	ctx := context.Background()

	site := testutil.NewSiteBuilder().Build(t, testDB.DB)
	other := testutil.NewSiteBuilder().Build(t, testDB.DB)
	owner, _ := testutil.NewUserBuilder().Build(t, testDB.DB)

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	testutil.NewInteractionBuilder(site.ID).
		WithTitle("Quarterly sync with ops").
		WithType(domain.InteractionMeeting).
		WithLead("Riley Chen").
		WithTimes(base, base.Add(time.Hour)).
		WithCreatedBy(owner.ID).
		Build(t, testDB.DB)
	testutil.NewInteractionBuilder(site.ID).
		WithTitle("Vendor call").
		WithType(domain.InteractionCall).
		WithLead("Morgan Diaz").
		WithTimes(base.Add(48*time.Hour), base.Add(49*time.Hour)).
		WithCreatedBy(owner.ID).
		Build(t, testDB.DB)
	testutil.NewInteractionBuilder(other.ID).
		WithTitle("Quarterly sync elsewhere").
		WithCreatedBy(owner.ID).
		Build(t, testDB.DB)

	t.Run("free text", func(t *testing.T) {
		items, total, err := repo.Search(ctx, site.ID, repository.SearchQuery{Text: "quarterly", Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, items, 1)
		assert.Equal(t, "Quarterly sync with ops", items[0].Title)
	})

	t.Run("type filter", func(t *testing.T) {
		items, total, err := repo.Search(ctx, site.ID, repository.SearchQuery{Type: domain.InteractionCall, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, items, 1)
		assert.Equal(t, "Vendor call", items[0].Title)
	})

	t.Run("lead filter", func(t *testing.T) {
		_, total, err := repo.Search(ctx, site.ID, repository.SearchQuery{Lead: "riley", Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
	})

	t.Run("date range", func(t *testing.T) {
		from := base.Add(-time.Hour)
		to := base.Add(24 * time.Hour)
		_, total, err := repo.Search(ctx, site.ID, repository.SearchQuery{DateFrom: &from, DateTo: &to, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
	})

	t.Run("structured filter", func(t *testing.T) {
		query := repository.SearchQuery{
			Filters: []repository.Filter{
				{Field: "title", Operator: repository.OpContains, Value: "vendor"},
			},
			Limit: 10,
		}
		items, total, err := repo.Search(ctx, site.ID, query)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, items, 1)
		assert.Equal(t, "Vendor call", items[0].Title)
	})

	t.Run("sort descending", func(t *testing.T) {
		items, _, err := repo.Search(ctx, site.ID, repository.SearchQuery{SortBy: "start_datetime", SortDesc: true, Limit: 10})
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "Vendor call", items[0].Title)
	})

	t.Run("pagination", func(t *testing.T) {
		items, total, err := repo.Search(ctx, site.ID, repository.SearchQuery{Limit: 1, Offset: 0})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, items, 1)
	})
}

func TestInteractionRepository_DeleteScopedBySite(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewInteractionRepository(testDB.DB)
	ctx := context.Background()

	site := testutil.NewSiteBuilder().Build(t, testDB.DB)
	other := testutil.NewSiteBuilder().Build(t, testDB.DB)
	owner, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	interaction := testutil.NewInteractionBuilder(site.ID).
		WithCreatedBy(owner.ID).
		Build(t, testDB.DB)

	// Deleting via the wrong site must not touch the record.
	require.NoError(t, repo.Delete(ctx, other.ID, interaction.ID))
	_, err := repo.GetByID(ctx, site.ID, interaction.ID)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, site.ID, interaction.ID))
	_, err = repo.GetByID(ctx, site.ID, interaction.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
