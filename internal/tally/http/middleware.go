package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/morninghq/tally/internal/tally/domain"
	"github.com/morninghq/tally/internal/tally/service"
	"github.com/morninghq/tally/pkg/httpx"
)

type ctxKey string

const ctxKeySessionUser ctxKey = "session_user"

// bearerToken extracts the bearer token from the Authorization header.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) > len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
		return auth[len(prefix):]
	}
	return ""
}

// sessionUserFromContext returns the identity placed by SessionAuthMiddleware.
func sessionUserFromContext(ctx context.Context) (domain.SessionUser, bool) {
	su, ok := ctx.Value(ctxKeySessionUser).(domain.SessionUser)
	return su, ok
}

// SessionAuthMiddleware resolves the bearer token to a user and stores the
// identity in the request context. Requests without a live session get 401.
func SessionAuthMiddleware(sessions *service.SessionService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				httpx.WriteError(w, http.StatusUnauthorized,
					"invalid_token", "Missing bearer token")
				return
			}

			su, err := sessions.Resolve(r.Context(), token)
			if err != nil {
				httpx.WriteError(w, http.StatusUnauthorized,
					"invalid_token", "Session is invalid or expired")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeySessionUser, su)
			ctx = context.WithValue(ctx, httpx.CtxKeyUserID, su.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminAuthMiddleware gates the admin console endpoints on a live admin
// session token.
func AdminAuthMiddleware(admin *service.AdminSessionService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				httpx.WriteError(w, http.StatusUnauthorized,
					"invalid_token", "Missing bearer token")
				return
			}

			if err := admin.Verify(r.Context(), token); err != nil {
				httpx.WriteError(w, http.StatusUnauthorized,
					"invalid_token", "Admin session is invalid or expired")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
