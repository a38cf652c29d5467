package handlers

import (
	"context"
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"renovasi/services"
)

type contextKey string

const ActorKey contextKey = "actor"

// Actor identity headers. A real deployment would derive these from the
// session; the API surface keeps them as headers so every client (and test)
// states explicitly who is acting.
const (
	HeaderActorID    = "X-Actor-Id"
	HeaderActorName  = "X-Actor-Name"
	HeaderActorEmail = "X-Actor-Email"
	HeaderActorRole  = "X-Actor-Role"
)

// GetActor extracts the acting identity from the request context.
func GetActor(r *http.Request) services.Actor {
	if val, ok := r.Context().Value(ActorKey).(services.Actor); ok {
		return val
	}
	return services.Actor{}
}

// ActorMiddleware reads the actor identity headers and stores the resulting
// Actor in the request context so handlers can use it.
func ActorMiddleware() func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		actor := services.Actor{
			ID:    e.Request.Header.Get(HeaderActorID),
			Name:  e.Request.Header.Get(HeaderActorName),
			Email: e.Request.Header.Get(HeaderActorEmail),
			Role:  e.Request.Header.Get(HeaderActorRole),
		}

		ctx := context.WithValue(e.Request.Context(), ActorKey, actor)
		e.Request = e.Request.WithContext(ctx)

		return e.Next()
	}
}

// RequireActor rejects the request with 401 when no actor id header was sent.
// Used on every endpoint that mutates state.
func RequireActor(e *core.RequestEvent) (services.Actor, bool) {
	actor := GetActor(e.Request)
	if actor.ID == "" {
		// The middleware may not have run (direct handler invocation); fall
		// back to the raw headers.
		actor = services.Actor{
			ID:    e.Request.Header.Get(HeaderActorID),
			Name:  e.Request.Header.Get(HeaderActorName),
			Email: e.Request.Header.Get(HeaderActorEmail),
			Role:  e.Request.Header.Get(HeaderActorRole),
		}
	}
	if actor.ID == "" {
		return services.Actor{}, false
	}
	return actor, true
}
