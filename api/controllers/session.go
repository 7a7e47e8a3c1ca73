package controllers

import (
	"context"
	stderrors "errors"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	pkgAuth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type sessionTokenRotator interface {
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type refreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

var errMissingCredentials = errors.New(errors.CodeUnauthorized, "missing credentials")

// bearerSession reads the Authorization header and returns the claims of the
// access token it carries. Expiry is not checked: both logout and refresh
// must work after the access token lapsed.
func bearerSession(r *http.Request, cfg config.JWTConfig) (*pkgAuth.AccessTokenClaims, error) {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, found := strings.Cut(raw, " ")
	if found && strings.EqualFold(scheme, "bearer") {
		raw = strings.TrimSpace(token)
	}
	if raw == "" {
		return nil, errMissingCredentials
	}

	claims, err := pkgAuth.ParseAccessTokenAllowExpired(cfg, raw)
	if err != nil {
		return nil, errors.Wrap(errors.CodeUnauthorized, err, "invalid token")
	}
	if claims.ID == "" {
		return nil, errors.New(errors.CodeUnauthorized, "missing session id")
	}
	return claims, nil
}

// AuthLogout ends the session behind the presented access token. Shoppers and
// the admin console share it.
func AuthLogout(manager sessionTokenRotator, cfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if manager == nil {
			responses.WriteError(r.Context(), logg, w, errors.New(errors.CodeInternal, "session manager unavailable"))
			return
		}
		claims, err := bearerSession(r, cfg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := manager.Revoke(r.Context(), claims.ID); err != nil {
			responses.WriteError(r.Context(), logg, w, errors.Wrap(errors.CodeDependency, err, "revoke session"))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}

// AuthRefresh spends the refresh token and answers with a new token pair. The
// identity claims carry over from the old access token.
func AuthRefresh(manager sessionTokenRotator, cfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if manager == nil {
			responses.WriteError(ctx, logg, w, errors.New(errors.CodeInternal, "session manager unavailable"))
			return
		}

		var body refreshRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		claims, err := bearerSession(r, cfg)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		accessID, refreshToken, err := manager.Rotate(ctx, claims.ID, body.RefreshToken)
		switch {
		case stderrors.Is(err, session.ErrInvalidRefreshToken):
			responses.WriteError(ctx, logg, w, errors.New(errors.CodeUnauthorized, "invalid refresh token"))
			return
		case err != nil:
			responses.WriteError(ctx, logg, w, errors.Wrap(errors.CodeDependency, err, "rotate session"))
			return
		}

		accessToken, err := pkgAuth.MintAccessToken(cfg, time.Now().UTC(), pkgAuth.AccessTokenPayload{
			UserID: claims.UserID,
			Email:  claims.Email,
			Role:   claims.Role,
			JTI:    accessID,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, errors.Wrap(errors.CodeInternal, err, "mint jwt"))
			return
		}

		w.Header().Set(AccessTokenHeader, accessToken)
		responses.WriteSuccess(w, refreshResponse{AccessToken: accessToken, RefreshToken: refreshToken})
	}
}
