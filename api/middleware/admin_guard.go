package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/responses"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// AdminChecker reports whether a user is listed in admin_users.
type AdminChecker interface {
	IsAdmin(ctx context.Context, id uuid.UUID) (bool, error)
}

// AdminGuard runs after Auth and confirms on every request that the caller is
// still listed in admin_users. The role claim alone is not trusted, so a
// revoked admin loses access before the token expires.
func AdminGuard(admins AdminChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := UserUUIDFromContext(r.Context())
			if userID == uuid.Nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}
			if admins == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin directory unavailable"))
				return
			}
			ok, err := admins.IsAdmin(r.Context(), userID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check admin"))
				return
			}
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "Access denied"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
