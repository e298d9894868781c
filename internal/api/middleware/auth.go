package middleware

import (
	"net/http"
	"strings"

	"github.com/dcallahan/interaction-management/internal/api/reqctx"
	"github.com/dcallahan/interaction-management/internal/api/respond"
	"github.com/dcallahan/interaction-management/internal/auth"
	"github.com/dcallahan/interaction-management/internal/domain"
	"github.com/dcallahan/interaction-management/internal/observability/metrics"
	"github.com/dcallahan/interaction-management/internal/service"
)

// Auth validates the bearer token and stores the resolved actor in the
// request context. Every validation failure (missing header, bad
// signature, expiry, blacklist) yields the same 401.
func Auth(tokens *auth.TokenService, wr *respond.Writer, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || raw == "" {
				if m != nil {
					m.ObserveAuthFailure("missing_token")
				}
				wr.Error(w, r, "middleware.Auth", domain.NewAuthenticationError("authentication required"))
				return
			}

			claims := tokens.ValidateToken(r.Context(), raw)
			if claims == nil {
				if m != nil {
					m.ObserveAuthFailure("invalid_token")
				}
				wr.Error(w, r, "middleware.Auth", domain.NewAuthenticationError("invalid or expired token"))
				return
			}

			actor := service.Actor{
				UserID:   claims.UserID,
				Username: claims.Username,
				IsAdmin:  claims.IsAdmin,
				SiteIDs:  auth.SiteIDsFromClaims(claims),
			}
			next.ServeHTTP(w, r.WithContext(reqctx.WithActor(r.Context(), actor)))
		})
	}
}
