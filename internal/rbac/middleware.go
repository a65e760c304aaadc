// Package rbac resolves the acting user of a request and enforces role capabilities.
package rbac

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/odyssey-erp/brandstock/internal/brandscope"
	"github.com/odyssey-erp/brandstock/internal/platform/httpx"
	"github.com/odyssey-erp/brandstock/internal/shared"
)

// ActorLookup resolves the actor behind a session user id. Unknown, inactive
// and deleted users yield a NotFound error.
type ActorLookup interface {
	ActorFor(ctx context.Context, userID uuid.UUID) (brandscope.Actor, error)
}

// Middleware wires authentication and capability checks for HTTP handlers.
type Middleware struct {
	Actors ActorLookup
	Logger *slog.Logger
}

var errUnauthenticated = shared.NewFieldError(shared.ErrUnauthenticated, "", "UNAUTHENTICATED", "authentication required")

// Authenticate turns the session user into a brandscope actor. Requests
// without a usable session are rejected with 401.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := m.currentUserID(r)
		if !ok {
			httpx.RespondError(w, errUnauthenticated)
			return
		}
		actor, err := m.Actors.ActorFor(r.Context(), userID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				httpx.RespondError(w, errUnauthenticated)
				return
			}
			m.logError("rbac load user", err)
			httpx.RespondError(w, err)
			return
		}
		if !actor.Role.Valid() {
			m.logError("rbac unknown role", errors.New(string(actor.Role)))
			httpx.RespondError(w, brandscope.Decision{Reason: brandscope.ReasonUnknownRole}.Err())
			return
		}
		ctx := brandscope.WithActor(r.Context(), actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Require ensures the actor's role allows action on some brand. Brand-level
// checks stay with the services.
func (m Middleware) Require(action brandscope.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := brandscope.ActorFromContext(r.Context())
			if !ok {
				httpx.RespondError(w, errUnauthenticated)
				return
			}
			if !actor.Role.Allows(action) {
				httpx.RespondError(w, brandscope.Decision{Reason: brandscope.ReasonActionDenied}.Err())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ActorFrom returns the request actor or an unauthenticated error.
func ActorFrom(r *http.Request) (brandscope.Actor, error) {
	actor, ok := brandscope.ActorFromContext(r.Context())
	if !ok {
		return brandscope.Actor{}, errUnauthenticated
	}
	return actor, nil
}

func (m Middleware) currentUserID(r *http.Request) (uuid.UUID, bool) {
	raw := shared.SessionUserFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Error("rbac parse user id", slog.String("value", raw))
		}
		return uuid.Nil, false
	}
	return id, true
}

func (m Middleware) logError(msg string, err error) {
	if m.Logger != nil {
		m.Logger.Error(msg, slog.Any("error", err))
	}
}
