package middleware

import (
	"context"
	"net/http"

	"github.com/mcoot/reactimer/internal/api/apierr"
	"github.com/mcoot/reactimer/internal/model"
	"github.com/mcoot/reactimer/internal/session"
)

type contextKey string

const principalContextKey contextKey = "principal"

// RequireSession rejects requests without a valid session cookie and
// stores the caller's Principal in the request context
func RequireSession(sessions *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := sessions.FromRequest(r)
			if !ok {
				apierr.WriteError(w, apierr.NewAuthRequiredError(), "")
				return
			}

			p := model.Principal{Username: claims.Username}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// WithPrincipal returns a context carrying p
func WithPrincipal(ctx context.Context, p model.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

// GetPrincipal returns the authenticated principal from the request context
func GetPrincipal(ctx context.Context) (model.Principal, bool) {
	p, ok := ctx.Value(principalContextKey).(model.Principal)
	return p, ok && p.Username != ""
}

// MustGetPrincipal returns the authenticated principal or panics
func MustGetPrincipal(ctx context.Context) model.Principal {
	p, ok := GetPrincipal(ctx)
	if !ok {
		panic("no principal in context - session middleware not applied?")
	}
	return p
}
