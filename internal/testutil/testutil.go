package testutil

import (
	"context"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dcallahan/interaction-management/internal/api"
	"github.com/dcallahan/interaction-management/internal/auth"
	"github.com/dcallahan/interaction-management/internal/config"
	"github.com/dcallahan/interaction-management/internal/domain"
	"github.com/dcallahan/interaction-management/internal/observability/errortrack"
	"github.com/dcallahan/interaction-management/internal/observability/metrics"
	"github.com/dcallahan/interaction-management/internal/repository"
	repoPostgres "github.com/dcallahan/interaction-management/internal/repository/postgres"
	"github.com/dcallahan/interaction-management/internal/service"
	"github.com/dcallahan/interaction-management/internal/sitectx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB manages a testcontainers PostgreSQL instance
type TestDB struct {
	Container testcontainers.Container
	DB        *gorm.DB
	DSN       string
}

// NewTestDB creates a new PostgreSQL testcontainer and returns a connection
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	container, err := tcPostgres.Run(ctx,
		"postgres:15-alpine",
		tcPostgres.WithDatabase("test_interactions"),
		tcPostgres.WithUsername("test"),
		tcPostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	db, err := gorm.Open(gormPostgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}

	err = db.AutoMigrate(
		&domain.User{},
		&domain.Site{},
		&domain.UserSite{},
		&domain.Interaction{},
		&domain.InteractionHistory{},
	)
	if err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	testDB := &TestDB{
		Container: container,
		DB:        db,
		DSN:       dsn,
	}

	t.Cleanup(func() {
		testDB.Cleanup()
	})

	return testDB
}

// Cleanup terminates the container
func (tdb *TestDB) Cleanup() {
	if tdb.Container != nil {
		ctx := context.Background()
		tdb.Container.Terminate(ctx)
	}
}

// Truncate clears all tables for test isolation
func (tdb *TestDB) Truncate(t *testing.T) {
	t.Helper()

	tables := []string{
		"interaction_histories",
		"interactions",
		"user_sites",
		"sites",
		"users",
	}

	for _, table := range tables {
		if err := tdb.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error; err != nil {
			t.Logf("warning: failed to truncate %s: %v", table, err)
		}
	}
}

// TestConfig returns a configuration suitable for testing
func TestConfig() *config.Config {
	return &config.Config{
		Port:                  "0",
		Environment:           "test",
		JWTSecret:             "test-jwt-secret-key-for-testing-only",
		JWTIssuer:             "interaction-management-test",
		JWTAudience:           "interaction-api-test",
		AccessTokenTTL:        time.Hour,
		RefreshTokenTTL:       24 * time.Hour,
		BlacklistMaxEntries:   1000,
		AuthProvider:          "local",
		SearchCacheTTL:        time.Minute,
		SearchCacheMaxEntries: 100,
		DefaultPageSize:       20,
		MaxPageSize:           100,
		ErrorTrackerMaxItems:  100,
	}
}

// TestServer holds all components for integration testing
type TestServer struct {
	Server   *httptest.Server
	DB       *TestDB
	Repos    *repository.Repositories
	Services *service.Services
	Tokens   *auth.TokenService
	Tracker  *errortrack.Tracker
	Config   *config.Config
}

// NewTestServer creates a complete test server with all dependencies
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()

	testDB := NewTestDB(t)
	cfg := TestConfig()

	repos := repoPostgres.NewRepositories(testDB.DB)
	blacklist := auth.NewMemoryBlacklist(cfg.BlacklistMaxEntries)
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, blacklist)
	siteStore := sitectx.NewMemoryStore()
	searchCache := service.NewMemorySearchCache(cfg.SearchCacheMaxEntries)

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	tracker := errortrack.New(cfg.ErrorTrackerMaxItems, nil)

	services := service.NewServices(service.Deps{
		Repos:     repos,
		Config:    cfg,
		Tokens:    tokens,
		SiteStore: siteStore,
		Cache:     searchCache,
		Metrics:   m,
	})

	router := api.NewRouter(api.RouterDeps{
		Services: services,
		Tokens:   tokens,
		Config:   cfg,
		DB:       testDB.DB,
		Metrics:  m,
		Registry: registry,
		Tracker:  tracker,
	})

	server := httptest.NewServer(router)

	ts := &TestServer{
		Server:   server,
		DB:       testDB,
		Repos:    repos,
		Services: services,
		Tokens:   tokens,
		Tracker:  tracker,
		Config:   cfg,
	}

	t.Cleanup(func() {
		server.Close()
	})

	return ts
}

// BaseURL returns the test server's base URL
func (ts *TestServer) BaseURL() string {
	return ts.Server.URL
}

// APIURL returns the full API URL for a given path
func (ts *TestServer) APIURL(path string) string {
	return fmt.Sprintf("%s/api%s", ts.Server.URL, path)
}
