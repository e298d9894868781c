// Package reqctx carries the authenticated actor and resolved site
// context through the request context. It exists separately from the
// middleware so that response writing can read both without an import
// cycle.
package reqctx

import (
	"context"

	"github.com/dcallahan/interaction-management/internal/service"
	"github.com/dcallahan/interaction-management/internal/sitectx"
)

type contextKey string

const (
	actorKey       contextKey = "actor"
	siteContextKey contextKey = "siteContext"
)

func WithActor(ctx context.Context, actor service.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

func ActorFrom(ctx context.Context) (service.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(service.Actor)
	return actor, ok
}

func WithSiteContext(ctx context.Context, sc *sitectx.SiteContext) context.Context {
	return context.WithValue(ctx, siteContextKey, sc)
}

func SiteContextFrom(ctx context.Context) (*sitectx.SiteContext, bool) {
	sc, ok := ctx.Value(siteContextKey).(*sitectx.SiteContext)
	return sc, ok && sc != nil
}
