package middleware

import (
	"net/http"
	"strconv"

	"github.com/dcallahan/interaction-management/internal/api/reqctx"
	"github.com/dcallahan/interaction-management/internal/api/respond"
	"github.com/dcallahan/interaction-management/internal/domain"
	"github.com/dcallahan/interaction-management/internal/service"
)

// SiteHeader carries an explicit per-request site selection.
const SiteHeader = "X-Site-ID"

// RequireSite resolves the active site for the request and stores it in
// the context. Resolution order: explicit X-Site-ID header, then the
// stored selection from the site-switch endpoint, then the user's sole
// accessible site. A site outside the token's site_ids fails closed.
func RequireSite(authService *service.AuthService, wr *respond.Writer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := reqctx.ActorFrom(r.Context())
			if !ok {
				wr.Error(w, r, "middleware.RequireSite", domain.NewAuthenticationError("authentication required"))
				return
			}

			var requested uint
			if header := r.Header.Get(SiteHeader); header != "" {
				parsed, err := strconv.ParseUint(header, 10, 64)
				if err != nil {
					wr.Error(w, r, "middleware.RequireSite", domain.NewValidationError(map[string][]string{
						"site_id": {"X-Site-ID header must be a positive integer"},
					}))
					return
				}
				requested = uint(parsed)
			}

			sc, err := authService.ResolveSiteContext(r.Context(), actor, requested)
			if err != nil {
				wr.Error(w, r, "middleware.RequireSite", err)
				return
			}
			next.ServeHTTP(w, r.WithContext(reqctx.WithSiteContext(r.Context(), sc)))
		})
	}
}
