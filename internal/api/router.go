package api

import (
	"net/http"

	"github.com/dcallahan/interaction-management/internal/api/handlers"
	"github.com/dcallahan/interaction-management/internal/api/middleware"
	"github.com/dcallahan/interaction-management/internal/api/respond"
	"github.com/dcallahan/interaction-management/internal/auth"
	"github.com/dcallahan/interaction-management/internal/config"
	"github.com/dcallahan/interaction-management/internal/observability/errortrack"
	"github.com/dcallahan/interaction-management/internal/observability/metrics"
	"github.com/dcallahan/interaction-management/internal/service"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// RouterDeps carries everything the HTTP layer needs.
type RouterDeps struct {
	Services *service.Services
	Tokens   *auth.TokenService
	Config   *config.Config
	DB       *gorm.DB
	Metrics  *metrics.Metrics
	Registry *prometheus.Registry
	Tracker  *errortrack.Tracker
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS)
	r.Use(middleware.RequestLogger)
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}

	wr := respond.NewWriter(d.Tracker)

	authHandler := handlers.NewAuthHandler(d.Services.Auth, wr)
	userHandler := handlers.NewUserHandler(d.Services.User, d.Config, wr)
	siteHandler := handlers.NewSiteHandler(d.Services.Site, d.Config, wr)
	interactionHandler := handlers.NewInteractionHandler(d.Services.Interaction, d.Config, wr)
	searchHandler := handlers.NewSearchHandler(d.Services.Search, wr)
	healthHandler := handlers.NewHealthHandler(d.DB, wr)
	adminHandler := handlers.NewAdminHandler(d.Tracker, wr)

	r.Get("/health", healthHandler.Health)
	if d.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	}

	requireAuth := middleware.Auth(d.Tokens, wr, d.Metrics)
	requireSite := middleware.RequireSite(d.Services.Auth, wr)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
			r.Post("/password/reset", authHandler.RequestReset)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/logout", authHandler.Logout)
				r.Get("/sites", authHandler.Sites)
				r.Post("/site", authHandler.SwitchSite)
				r.Get("/profile", authHandler.Profile)
				r.Post("/password/change", authHandler.ChangePassword)

				r.Group(func(r chi.Router) {
					r.Use(requireSite)
					r.Post("/password/admin-reset", authHandler.ResetPassword)
				})
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			// Site administration is scoped by path, not active site.
			r.Route("/sites", func(r chi.Router) {
				r.Get("/", siteHandler.List)
				r.Post("/", siteHandler.Create)
				r.Get("/{id}", siteHandler.Get)
				r.Put("/{id}", siteHandler.Update)
				r.Delete("/{id}", siteHandler.Delete)
				r.Get("/{id}/users", siteHandler.Members)
				r.Put("/{id}/users/{user_id}", siteHandler.SetMemberRole)
				r.Delete("/{id}/users/{user_id}", siteHandler.RemoveMember)
			})

			r.Get("/admin/errors", adminHandler.Errors)

			// Everything below operates on the active site.
			r.Group(func(r chi.Router) {
				r.Use(requireSite)

				r.Route("/users", func(r chi.Router) {
					r.Get("/", userHandler.List)
					r.Post("/", userHandler.Create)
					r.Get("/{id}", userHandler.Get)
					r.Put("/{id}", userHandler.Update)
					r.Delete("/{id}", userHandler.Delete)
				})

				r.Route("/interactions", func(r chi.Router) {
					r.Get("/", interactionHandler.List)
					r.Post("/", interactionHandler.Create)
					r.Get("/{id}", interactionHandler.Get)
					r.Put("/{id}", interactionHandler.Update)
					r.Delete("/{id}", interactionHandler.Delete)
					r.Get("/{id}/history", interactionHandler.History)
				})

				r.Route("/search", func(r chi.Router) {
					r.Get("/", searchHandler.Text)
					r.Post("/advanced", searchHandler.Advanced)
					r.Get("/date-range", searchHandler.DateRange)
					r.Get("/type/{type}", searchHandler.ByType)
					r.Get("/lead", searchHandler.ByLead)
					r.Get("/upcoming", searchHandler.Upcoming)
					r.Get("/recent", searchHandler.Recent)
					r.Post("/cache/invalidate", searchHandler.InvalidateCache)
				})
			})
		})
	})

	return r
}
