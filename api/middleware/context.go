package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/campusmerch/campusmerch-backend/pkg/enums"
)

type contextKey string

const ctxActor contextKey = "actor"

// Actor is the authenticated identity seeded by the Auth middleware.
// Role and Affiliation stay nil for tokens minted without them; pricing
// then resolves to base prices.
type Actor struct {
	UserID      uuid.UUID
	Role        *enums.Role
	Affiliation *enums.Affiliation
	Staff       bool
}

func ActorFromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	actor, ok := ctx.Value(ctxActor).(Actor)
	return actor, ok
}

// WithActor injects the actor into the context.
func WithActor(ctx context.Context, actor Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxActor, actor)
}
