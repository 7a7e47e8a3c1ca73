package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// AccessTokenHeader mirrors the access token of login and refresh responses.
const AccessTokenHeader = "X-Access-Token"

func requireUser(ctx context.Context) (uuid.UUID, error) {
	id := middleware.UserUUIDFromContext(ctx)
	if id == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in required")
	}
	return id, nil
}

// optionalUser returns nil for anonymous callers.
func optionalUser(ctx context.Context) *uuid.UUID {
	id := middleware.UserUUIDFromContext(ctx)
	if id == uuid.Nil {
		return nil
	}
	return &id
}

func unavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger, name string) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable"))
}
