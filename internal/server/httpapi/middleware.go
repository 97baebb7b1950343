package httpapi

import (
	"context"
	"net/http"
	"strings"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrijs2005/spendkeeper/internal/common"
	"github.com/dmitrijs2005/spendkeeper/internal/logging"
)

type contextKey string

const userIDKey contextKey = "uid"

// UserID returns the id stored by the auth middleware.
func UserID(ctx context.Context) string {
	uid, _ := ctx.Value(userIDKey).(string)
	return uid
}

func withUserID(ctx context.Context, uid string) context.Context {
	return context.WithValue(ctx, userIDKey, uid)
}

// requestLogger puts a logger enriched with request attributes into the
// request context. It must run after chi's RequestID.
func requestLogger(base logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := base.With(
				"request_id", chimiddleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
			)
			next.ServeHTTP(w, r.WithContext(logging.ToContext(r.Context(), l)))
		})
	}
}

// bearerAuth rejects requests without a valid bearer token.
func bearerAuth(authenticate func(token string) (string, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get(common.AuthorizationHeaderName)
			if header == "" {
				writeError(w, r, http.StatusUnauthorized, "unauthorized", "missing Authorization header")
				return
			}

			parts := strings.Fields(header)
			if len(parts) != 2 || !strings.EqualFold(parts[0], common.BearerScheme) {
				writeError(w, r, http.StatusUnauthorized, "unauthorized", "invalid Authorization header")
				return
			}

			uid, err := authenticate(parts[1])
			if err != nil {
				HandleError(w, r, err)
				return
			}

			ctx := withUserID(r.Context(), uid)
			ctx = logging.ToContext(ctx, logging.FromContext(ctx).With("user_id", uid))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
