package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/dcallahan/interaction-management/internal/api/reqctx"
	"github.com/dcallahan/interaction-management/internal/domain"
	"github.com/dcallahan/interaction-management/internal/service"
	"github.com/dcallahan/interaction-management/internal/sitectx"
	"github.com/go-chi/chi/v5"
)

// decodeJSON reads the request body into dst, rejecting malformed JSON
// with a validation error.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.NewValidationError(map[string][]string{
			"body": {"request body must be valid JSON"},
		})
	}
	return nil
}

// pathID parses a numeric path parameter.
func pathID(r *http.Request, name string) (uint, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, domain.NewValidationError(map[string][]string{
			name: {"must be a positive integer"},
		})
	}
	return uint(id), nil
}

// pageParams reads page/page_size query parameters. Unparseable values
// fall back to defaults; out-of-range values are normalized downstream.
func pageParams(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	return page, pageSize
}

// requestActor pulls the authenticated actor stored by the auth
// middleware.
func requestActor(r *http.Request) (service.Actor, error) {
	actor, ok := reqctx.ActorFrom(r.Context())
	if !ok {
		return service.Actor{}, domain.NewAuthenticationError("authentication required")
	}
	return actor, nil
}

// requestSite pulls the active site context stored by the site
// middleware.
func requestSite(r *http.Request) (*sitectx.SiteContext, error) {
	sc, ok := reqctx.SiteContextFrom(r.Context())
	if !ok {
		return nil, domain.NewSiteContextError("no active site selected")
	}
	return sc, nil
}
